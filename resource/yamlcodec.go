package resource

import (
	"strconv"

	"github.com/ayu-lang/ayu-go/ayuerr"
	"github.com/ayu-lang/ayu-go/tree"
	"gopkg.in/yaml.v3"
)

// treeToYAML projects a Tree into a *yaml.Node, the bridge this package
// uses to persist AYU documents as YAML the way
// _examples/uber-research-last-diff-analyzer's go.mod pulls in
// gopkg.in/yaml.v3 for its own config loading — the on-disk format named
// in spec.md §6's resource-file discussion (".ayu" documents) is textually
// a YAML document, so the teacher's already-vendored YAML stack is reused
// wholesale rather than hand-writing a parser.
func treeToYAML(t tree.Tree) (*yaml.Node, error) {
	switch t.FormOf() {
	case tree.Undefined, tree.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case tree.Bool:
		b, _ := t.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case tree.Number:
		if i, err := t.AsInt64(); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}, nil
		}
		f, _ := t.AsFloat64()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	case tree.String:
		s, _ := t.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	case tree.Array:
		elems, _ := t.AsArray()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range elems {
			child, err := treeToYAML(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case tree.Object:
		pairs, _ := t.AsObject()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range pairs {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}
			valNode, err := treeToYAML(p.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, keyNode, valNode)
		}
		return n, nil
	case tree.Error:
		errVal, _ := t.AsError()
		return nil, ayuerr.Wrap(ayuerr.External, errVal, "tree holds an error value, cannot serialize to YAML")
	}
	return nil, ayuerr.New(ayuerr.External, "unrecognized tree form %v", t.FormOf())
}

// yamlToTree is treeToYAML's inverse.
func yamlToTree(n *yaml.Node) (tree.Tree, error) {
	if n == nil {
		return tree.NullValue(), nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return tree.NullValue(), nil
		}
		return yamlToTree(n.Content[0])
	case yaml.ScalarNode:
		return scalarToTree(n)
	case yaml.SequenceNode:
		elems := make([]tree.Tree, 0, len(n.Content))
		for _, c := range n.Content {
			t, err := yamlToTree(c)
			if err != nil {
				return tree.Tree{}, err
			}
			elems = append(elems, t)
		}
		return tree.ArrayValueSlice(elems), nil
	case yaml.MappingNode:
		pairs := make([]tree.Pair, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := yamlToTree(n.Content[i+1])
			if err != nil {
				return tree.Tree{}, err
			}
			pairs = append(pairs, tree.Pair{Key: key, Value: val})
		}
		return tree.ObjectValue(pairs...)
	case yaml.AliasNode:
		return yamlToTree(n.Alias)
	}
	return tree.Tree{}, ayuerr.New(ayuerr.ParseFailed, "unrecognized YAML node kind %v", n.Kind)
}

func scalarToTree(n *yaml.Node) (tree.Tree, error) {
	switch n.Tag {
	case "!!null":
		return tree.NullValue(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return tree.Tree{}, ayuerr.Wrap(ayuerr.ParseFailed, err, "bad bool scalar %q", n.Value)
		}
		return tree.BoolValue(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return tree.Tree{}, ayuerr.Wrap(ayuerr.ParseFailed, err, "bad int scalar %q", n.Value)
		}
		return tree.IntValue(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return tree.Tree{}, ayuerr.Wrap(ayuerr.ParseFailed, err, "bad float scalar %q", n.Value)
		}
		return tree.FloatValue(f), nil
	default:
		return tree.StringValue(n.Value), nil
	}
}

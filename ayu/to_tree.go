package ayu

import "github.com/ayu-lang/ayu-go/tree"

// ToTreeOptions controls optional to-tree rendering behavior (spec.md §4.6,
// §7's diagnostic show()).
type ToTreeOptions struct {
	// EmbedErrors replaces a failing child subtree with a Form::Error tree
	// instead of aborting the whole render: a diagnostic dump wants to show
	// as much of a value as it can even when one nested attr's to-tree
	// facet fails, rather than losing the entire document to one bad leaf.
	EmbedErrors bool
}

// ToTreeValue renders r's referenced value into a Tree, implementing
// spec.md §4.6's to-tree algorithm: try each facet in priority order
// (direct to_tree, values table, delegate, attrs, elems) and use whichever
// one the type's Description actually declares.
func ToTreeValue(r AnyRef) (tree.Tree, error) {
	return toTreeValue(r, ToTreeOptions{})
}

// ToTreeValueOpts is ToTreeValue with explicit rendering options.
func ToTreeValueOpts(r AnyRef, opts ToTreeOptions) (tree.Tree, error) {
	return toTreeValue(r, opts)
}

func toTreeValue(r AnyRef, opts ToTreeOptions) (tree.Tree, error) {
	d := lookupDescriptionByGoType(r.Type().rt)
	if d == nil {
		return tree.Tree{}, newErr(eToTreeNotSupported, "type %s has no registered description", r.Type().Name())
	}

	if d.toTree != nil {
		var out tree.Tree
		var outErr error
		err := r.access(ModeRead, func(child AnyPtr) error {
			out, outErr = d.toTree(child)
			return outErr
		})
		if err != nil {
			return tree.Tree{}, err
		}
		return out, nil
	}

	if d.values != nil {
		if t, ok, err := matchValuesTable(d, r); err != nil {
			return tree.Tree{}, err
		} else if ok {
			return t, nil
		}
		// fall through: values() is a best-effort facet, spec.md allows a
		// type to also have attrs/elems for values outside the table.
	}

	if d.delegate != nil {
		return toTreeValue(r.Child(d.delegate), opts)
	}

	if d.attrs != nil || d.computedAttr != nil {
		return toTreeObject(r, d, opts)
	}

	if d.elems != nil || d.computedElem != nil || d.contiguousElem != nil {
		return toTreeArray(r, d, opts)
	}

	return tree.Tree{}, newErr(eToTreeNotSupported, "type %s has no rendering facet", r.Type().Name())
}

// renderChild renders child and, when opts.EmbedErrors is set, turns a
// failure into an Error-form Tree instead of propagating it, so the
// enclosing attrs()/elems() loop can keep rendering its remaining siblings.
func renderChild(child AnyRef, opts ToTreeOptions) (tree.Tree, error) {
	ct, err := toTreeValue(child, opts)
	if err != nil {
		if opts.EmbedErrors {
			return tree.ErrorValue(err), nil
		}
		return tree.Tree{}, err
	}
	return ct, nil
}

func matchValuesTable(d *Description, r AnyRef) (tree.Tree, bool, error) {
	var cur AnyPtr
	err := r.access(ModeRead, func(child AnyPtr) error {
		cur = child
		return nil
	})
	if err != nil {
		return tree.Tree{}, false, err
	}
	for _, v := range d.values {
		if v.Accessor == nil {
			continue
		}
		// values() entries are always Constant/ConstantPtr accessors, which
		// ignore their "from" argument entirely, so AnyPtr{} is a safe probe.
		var candidate AnyPtr
		if cerr := v.Accessor.Access(ModeRead, AnyPtr{}, func(child AnyPtr) error {
			candidate = child
			return nil
		}); cerr == nil && candidate.IsValid() && cur.IsValid() &&
			candidate.Interface() == cur.Interface() {
			return v.Tree, true, nil
		}
	}
	return tree.Tree{}, false, nil
}

func toTreeObject(r AnyRef, d *Description, opts ToTreeOptions) (tree.Tree, error) {
	keys, err := GetKeys(r)
	if err != nil {
		return tree.Tree{}, err
	}
	pairs := make([]tree.Pair, 0, len(keys))
	for _, key := range keys {
		child, err := Attr(r, key)
		if err != nil {
			return tree.Tree{}, wrapErr(eToTreeValueNotFound, err, "attribute %q", key)
		}
		attr, ok := attrFor(d, key)
		if ok && attr.Flags.Has(Invisible) {
			continue
		}
		ct, err := renderChild(child, opts)
		if err != nil {
			return tree.Tree{}, wrapErr(eToTreeValueNotFound, err, "attribute %q", key)
		}
		if ok && attr.Accessor != nil && attr.Accessor.TreeFlags != 0 {
			ct = ct.WithFlags(tree.Flags(attr.Accessor.TreeFlags))
		}
		if ok && attr.Flags.Has(HasDefault) && attr.Default != nil && tree.Equal(ct, *attr.Default) {
			continue
		}
		if ok && attr.Flags.Has(CollapseOptional) {
			pairs = append(pairs, collapseOptionalPair(key, ct)...)
			continue
		}
		if ok && attr.Flags.Has(Include) {
			pairs = append(pairs, spliceInclude(key, ct)...)
			continue
		}
		pairs = append(pairs, tree.Pair{Key: key, Value: ct})
	}
	return tree.ObjectValue(pairs...)
}

// collapseOptionalPair implements spec.md §4.6's CollapseOptional rewrite:
// the attr's value must be a 0- or 1-element Array; 0 elements drops the
// attr entirely, 1 element replaces the value with the singleton.
func collapseOptionalPair(key string, ct tree.Tree) []tree.Pair {
	elems, err := ct.AsArray()
	if err != nil || len(elems) == 0 {
		return nil
	}
	return []tree.Pair{{Key: key, Value: elems[0]}}
}

// spliceInclude implements spec.md §4.6's Include rewrite: the attr's
// value must be an Object tree, whose pairs are spliced into the parent
// object in place of the single Include-flagged key.
func spliceInclude(key string, ct tree.Tree) []tree.Pair {
	sub, err := ct.AsObject()
	if err != nil {
		return []tree.Pair{{Key: key, Value: ct}}
	}
	return sub
}

func attrFor(d *Description, key string) (AttrDescriptor, bool) {
	for _, a := range d.attrs {
		if a.Key == key {
			return a, true
		}
	}
	return AttrDescriptor{}, false
}

func toTreeArray(r AnyRef, d *Description, opts ToTreeOptions) (tree.Tree, error) {
	n, err := GetLength(r)
	if err != nil {
		return tree.Tree{}, err
	}
	elems := make([]tree.Tree, n)
	for i := 0; i < n; i++ {
		child, err := Elem(r, i)
		if err != nil {
			return tree.Tree{}, wrapErr(eToTreeValueNotFound, err, "element %d", i)
		}
		ct, err := renderChild(child, opts)
		if err != nil {
			return tree.Tree{}, wrapErr(eToTreeValueNotFound, err, "element %d", i)
		}
		if d.elems != nil && d.elems[i].Accessor != nil && d.elems[i].Accessor.TreeFlags != 0 {
			ct = ct.WithFlags(tree.Flags(d.elems[i].Accessor.TreeFlags))
		}
		elems[i] = ct
	}
	// spec.md §4.6: "trailing Invisible elems are chopped" — only applies
	// to the fixed elems() facet, where per-elem flags are declared; a
	// computed/contiguous-length sequence has no per-index flags to chop.
	if d.elems != nil {
		for n > 0 && n <= len(d.elems) && d.elems[n-1].Flags.Has(Invisible) {
			n--
		}
		elems = elems[:n]
	}
	return tree.ArrayValueSlice(elems), nil
}

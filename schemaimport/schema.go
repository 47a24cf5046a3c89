// Package schemaimport defines the common, AYU-describable shape that
// every schemaimport/* subpackage normalizes its source language's schema
// into, and registers that shape's Description — so a thrift .thrift file,
// a .proto file, a SQL DDL file, a Starlark/Bazel BUILD file, and a
// go.mod's require list can all be serialized to and from an AYU Tree
// (and thus persisted as a resource, diffed, or re-rendered) through the
// exact same reflection facilities core/mast's analyzer uses to make five
// unrelated language frontends share one equivalence-checking pipeline
// (_examples/uber-research-last-diff-analyzer/analyzer/common/types.go).
package schemaimport

import (
	"sort"

	"github.com/ayu-lang/ayu-go/ayu"
	"github.com/ayu-lang/ayu-go/ayuerr"
)

// Symbol is one top-level declaration extracted from a schema source file.
type Symbol struct {
	Kind string // e.g. "struct", "service", "enum", "message", "table", "rule", "require"
	Name string
}

// Schema is the normalized result of importing one schema source file.
type Schema struct {
	Source   string // the file path that was parsed
	Language string // "thrift", "protobuf", "sql", "starlark", "gomod"
	Symbols  []Symbol
}

func init() {
	ayu.Describe((*Symbol)(nil)).Name("schemaimport.Symbol").
		Attrs(
			ayu.AttrDescriptor{Key: "kind", Accessor: ayu.NewMember(ayu.TypeOf(""), []int{0})},
			ayu.AttrDescriptor{Key: "name", Accessor: ayu.NewMember(ayu.TypeOf(""), []int{1})},
		).
		Build()

	symbolSliceType := ayu.DescribeSlice[Symbol]("schemaimport.SymbolSlice")

	ayu.Describe((*Schema)(nil)).Name("schemaimport.Schema").
		Attrs(
			ayu.AttrDescriptor{Key: "source", Accessor: ayu.NewMember(ayu.TypeOf(""), []int{0})},
			ayu.AttrDescriptor{Key: "language", Accessor: ayu.NewMember(ayu.TypeOf(""), []int{1})},
			ayu.AttrDescriptor{Key: "symbols", Accessor: ayu.NewMember(symbolSliceType, []int{2})},
		).
		Build()
}

// SortSymbols orders a Schema's symbols by kind then name, giving every
// subpackage's importer a deterministic output regardless of the source
// AST's own traversal order.
func SortSymbols(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Kind != syms[j].Kind {
			return syms[i].Kind < syms[j].Kind
		}
		return syms[i].Name < syms[j].Name
	})
}

// Importer is the shared shape every schemaimport/* subpackage satisfies:
// one function from a source file path to a normalized Schema. This plays
// the same role as analyzer/common.Analyzer in the teacher repo — a single
// interface that lets a dispatcher pick a per-format implementation without
// caring which third-party parser backs it.
type Importer func(path string) (*Schema, error)

// Import calls importer and tags the resulting Schema's Language field if
// the importer left it blank, so callers that plug in their own Importer
// don't have to remember to set it.
func Import(language string, importer Importer, path string) (*Schema, error) {
	schema, err := importer(path)
	if err != nil {
		return nil, err
	}
	if schema.Language == "" {
		schema.Language = language
	}
	return schema, nil
}

// ImportAll runs importer over every path in paths, continuing past a bad
// file instead of stopping at the first one: each per-file failure is
// folded into one combined error via ayuerr.Append (go.uber.org/multierr
// underneath), so a caller linting a whole directory of schema files gets
// every bad file's error in one report rather than just the first.
func ImportAll(language string, importer Importer, paths []string) ([]*Schema, error) {
	var schemas []*Schema
	var combined error
	for _, path := range paths {
		schema, err := Import(language, importer, path)
		if err != nil {
			combined = ayuerr.Append(combined, ayuerr.Wrap(ayuerr.External, err, "importing %q", path))
			continue
		}
		schemas = append(schemas, schema)
	}
	return schemas, combined
}

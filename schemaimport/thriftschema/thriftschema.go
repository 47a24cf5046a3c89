//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package thriftschema imports struct/union/exception/enum/service/typedef/
// const declarations out of a .thrift IDL file and normalizes them into
// schemaimport.Symbols, the same way
// _examples/uber-research-last-diff-analyzer/analyzer/thrift parses a
// .thrift file into a *ast.Program before comparing two revisions of it —
// except where that analyzer throws the AST away after one equivalence
// check, Import keeps the extracted symbol list so a caller can use it to
// generate or validate an ayu.Description.
package thriftschema

import (
	"fmt"
	"os"

	"go.uber.org/thriftrw/ast"
	"go.uber.org/thriftrw/idl"

	"github.com/ayu-lang/ayu-go/schemaimport"
)

// Import parses the .thrift file at path and returns one Symbol per
// top-level struct, union, exception, enum, service, typedef, and constant
// declaration it contains.
func Import(path string) (*schemaimport.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("thriftschema: read %q: %w", path, err)
	}

	program, err := idl.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("thriftschema: parse %q: %w", path, err)
	}

	schema := &schemaimport.Schema{Source: path, Language: "thrift"}
	for _, def := range program.Definitions {
		switch n := def.(type) {
		case *ast.Struct:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: structKind(n.Type), Name: n.Name})
		case *ast.Enum:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "enum", Name: n.Name})
		case *ast.Typedef:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "typedef", Name: n.Name})
		case *ast.Service:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "service", Name: n.Name})
		case *ast.Constant:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "const", Name: n.Name})
		}
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

// structKind maps thriftrw's shared struct/union/exception representation
// back to the distinct kind string a Schema consumer expects.
func structKind(t ast.StructureType) string {
	switch t {
	case ast.UnionType:
		return "union"
	case ast.ExceptionType:
		return "exception"
	default:
		return "struct"
	}
}

// Fields returns the declared field names of a *ast.Struct in declaration
// order, for callers that want to go a level deeper than the top-level
// Symbol list (e.g. to emit an ayu.AttrDescriptor per field).
func Fields(s *ast.Struct) []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

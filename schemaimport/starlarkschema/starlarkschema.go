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

// Package starlarkschema imports a Starlark or BUILD-style manifest of
// `describe(name = "...", ...)`-shaped top-level calls and normalizes them
// into schemaimport.Symbols, so a schema author can declare AYU types in
// Starlark instead of Go. Import uses go.starlark.net/syntax to parse full
// Starlark files (grounded in
// _examples/uber-research-last-diff-analyzer/analyzer/starlark); ImportBuild
// uses github.com/bazelbuild/buildtools/build to walk bare BUILD-style
// call lists that don't need full Starlark evaluation semantics
// (grounded in analyzer/bazel).
package starlarkschema

import (
	"fmt"
	"os"

	"github.com/bazelbuild/buildtools/build"
	"go.starlark.net/syntax"

	"github.com/ayu-lang/ayu-go/schemaimport"
)

// Import parses the Starlark file at path and returns one Symbol per
// top-level call statement, named by the call's "name" keyword argument
// when present.
func Import(path string) (*schemaimport.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("starlarkschema: read %q: %w", path, err)
	}
	file, err := syntax.Parse(path, data, 0)
	if err != nil {
		return nil, fmt.Errorf("starlarkschema: parse %q: %w", path, err)
	}

	schema := &schemaimport.Schema{Source: path, Language: "starlark"}
	for _, stmt := range file.Stmts {
		exprStmt, ok := stmt.(*syntax.ExprStmt)
		if !ok {
			continue
		}
		call, ok := exprStmt.X.(*syntax.CallExpr)
		if !ok {
			continue
		}
		fn, ok := call.Fn.(*syntax.Ident)
		if !ok {
			continue
		}
		schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: fn.Name, Name: callName(call)})
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

// callName extracts the string literal value of a `name = "..."` keyword
// argument from a Starlark call, or "" if the call has none.
func callName(call *syntax.CallExpr) string {
	for _, arg := range call.Args {
		bin, ok := arg.(*syntax.BinaryExpr)
		if !ok || bin.Op != syntax.EQ {
			continue
		}
		kw, ok := bin.X.(*syntax.Ident)
		if !ok || kw.Name != "name" {
			continue
		}
		if lit, ok := bin.Y.(*syntax.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// ImportBuild parses path as a bare BUILD-style file (no `load`/control
// flow, just top-level rule calls) and returns one Symbol per call
// expression, the same file shape analyzer/bazel compares across two
// revisions with build.ParseBuild.
func ImportBuild(path string) (*schemaimport.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("starlarkschema: read %q: %w", path, err)
	}
	f, err := build.ParseBuild(path, data)
	if err != nil {
		return nil, fmt.Errorf("starlarkschema: parse %q: %w", path, err)
	}

	schema := &schemaimport.Schema{Source: path, Language: "starlark"}
	for _, stmt := range f.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			continue
		}
		ident, ok := call.X.(*build.Ident)
		if !ok {
			continue
		}
		schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: ident.Name, Name: buildCallName(call)})
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

// buildCallName extracts the string value of a `name = "..."` keyword
// argument from a buildtools call expression.
func buildCallName(call *build.CallExpr) string {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		ident, ok := assign.LHS.(*build.Ident)
		if !ok || ident.Name != "name" {
			continue
		}
		if str, ok := assign.RHS.(*build.StringExpr); ok {
			return str.Value
		}
	}
	return ""
}

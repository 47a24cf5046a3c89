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

// Package gomodschema reads a go.mod file's module path and require list,
// grounded in
// _examples/uber-research-last-diff-analyzer/analyzer/gomod's use of
// golang.org/x/mod/modfile to parse and compare go.mod ASTs. Here the
// module path resolves the *namespacing* of an imported schema's computed
// type names: a schema re-describing a vendored Go struct is named with
// the owning module's path as a prefix, exactly as Go import paths are
// module-path-relative.
package gomodschema

import (
	"fmt"
	"os"

	"golang.org/x/mod/modfile"

	"github.com/ayu-lang/ayu-go/schemaimport"
)

// Import parses the go.mod file at path and returns one "module" Symbol
// for the declared module path and one "require" Symbol per entry in its
// require list.
func Import(path string) (*schemaimport.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gomodschema: read %q: %w", path, err)
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("gomodschema: parse %q: %w", path, err)
	}

	schema := &schemaimport.Schema{Source: path, Language: "gomod"}
	if f.Module != nil {
		schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "module", Name: f.Module.Mod.Path})
	}
	for _, req := range f.Require {
		schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "require", Name: req.Mod.Path})
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

// Namespace returns the prefix a schemaimport caller should use for type
// names re-describing Go values that live under the module declared at
// path, e.g. "github.com/foo/bar.SomeStruct" instead of bare "SomeStruct".
func Namespace(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("gomodschema: read %q: %w", path, err)
	}
	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return "", fmt.Errorf("gomodschema: %q has no module directive", path)
	}
	return modPath, nil
}

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

// Package sqlschema imports CREATE TABLE declarations out of a .sql DDL
// file and normalizes them into schemaimport.Symbols (columns become
// "field" symbols, mirroring an ayu.Description's attrs list), grounded in
// _examples/uber-research-last-diff-analyzer/analyzer/sql's token-at-a-time
// use of xwb1989/sqlparser.
package sqlschema

import (
	"fmt"
	"io"
	"os"

	"github.com/xwb1989/sqlparser"

	"github.com/ayu-lang/ayu-go/schemaimport"
)

// Import parses every statement in the .sql file at path and returns one
// Symbol per CREATE TABLE declaration, plus one "field" Symbol per column.
func Import(path string) (*schemaimport.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sqlschema: open %q: %w", path, err)
	}
	defer f.Close()

	schema := &schemaimport.Schema{Source: path, Language: "sql"}
	tokens := sqlparser.NewTokenizer(f)
	for {
		stmt, err := sqlparser.ParseNext(tokens)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sqlschema: parse %q: %w", path, err)
		}
		ddl, ok := stmt.(*sqlparser.DDL)
		if !ok || ddl.Action != sqlparser.CreateStr || ddl.TableSpec == nil {
			continue
		}
		tableName := ddl.NewName.Name.String()
		schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "table", Name: tableName})
		for _, col := range ddl.TableSpec.Columns {
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{
				Kind: "field",
				Name: tableName + "." + col.Name.String(),
			})
		}
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

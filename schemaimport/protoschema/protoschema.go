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

// Package protoschema imports message/enum/service declarations out of a
// .proto file and normalizes them into schemaimport.Symbols, grounded in
// _examples/uber-research-last-diff-analyzer/analyzer/protobuf's use of
// go-protoparser/v4 to build a *parser.Proto AST.
package protoschema

import (
	"fmt"
	"os"

	"github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/ayu-lang/ayu-go/schemaimport"
)

// Import parses the .proto file at path and returns one Symbol per
// top-level message, enum, and service declaration, plus one "field" Symbol
// per field declared directly inside each top-level message.
func Import(path string) (*schemaimport.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("protoschema: open %q: %w", path, err)
	}
	defer f.Close()

	proto, err := protoparser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("protoschema: parse %q: %w", path, err)
	}

	schema := &schemaimport.Schema{Source: path, Language: "protobuf"}
	for _, v := range proto.ProtoBody {
		switch n := v.(type) {
		case *parser.Message:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "message", Name: n.MessageName})
			schema.Symbols = append(schema.Symbols, messageFields(n)...)
		case *parser.Enum:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "enum", Name: n.EnumName})
		case *parser.Service:
			schema.Symbols = append(schema.Symbols, schemaimport.Symbol{Kind: "service", Name: n.ServiceName})
		}
	}
	schemaimport.SortSymbols(schema.Symbols)
	return schema, nil
}

// messageFields descends one level into a message body, returning a
// "field" Symbol per scalar/message field declared directly inside it —
// this is the protobuf analogue of an ayu.Description's attrs list.
func messageFields(msg *parser.Message) []schemaimport.Symbol {
	var out []schemaimport.Symbol
	for _, v := range msg.MessageBody {
		if field, ok := v.(*parser.Field); ok {
			out = append(out, schemaimport.Symbol{Kind: "field", Name: msg.MessageName + "." + field.FieldName})
		}
	}
	return out
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import "github.com/confluodb/confluo/internal/schema"

// Re-exported column types, so callers never need to import
// internal/schema directly to build a Schema.
type (
	Type       = schema.Type
	ColumnSpec = schema.ColumnSpec
	Schema     = schema.Schema
	Column     = schema.Column
)

// Column type constants, re-exported from internal/schema.
const (
	Bool   = schema.Bool
	Char   = schema.Char
	Short  = schema.Short
	Int    = schema.Int
	Long   = schema.Long
	Float  = schema.Float
	Double = schema.Double
	String = schema.String
)

// NewSchema builds a Schema from an ordered list of column specs.
func NewSchema(specs []ColumnSpec) *Schema { return schema.New(specs) }

// SchemaBuilder is a fluent alternative to NewSchema.
type SchemaBuilder = schema.Builder

// NewSchemaBuilder returns an empty SchemaBuilder.
func NewSchemaBuilder() *SchemaBuilder { return schema.NewBuilder() }

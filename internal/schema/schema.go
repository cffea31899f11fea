// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package schema

import "strings"

// ColumnSpec describes one column to build a Schema from. Width is
// only consulted for String columns.
type ColumnSpec struct {
	Name  string
	Type  Type
	Width int
}

// Schema is an ordered, immutable (apart from per-column indexing
// state) sequence of columns, a case-insensitive name-to-ordinal map,
// and the record stride those columns imply.
type Schema struct {
	columns []*Column
	byName  map[string]int // upper(name) -> ordinal
	offsets []int          // byte offset of column i within the record, after the header
	stride  int            // TimestampSize + OffsetSize + sum(column widths)
}

// New builds a Schema from an ordered list of column specs.
func New(specs []ColumnSpec) *Schema {
	s := &Schema{byName: make(map[string]int, len(specs))}
	pos := TimestampSize + OffsetSize
	for i, spec := range specs {
		col := NewColumn(spec.Name, i, spec.Type, spec.Width)
		s.columns = append(s.columns, col)
		s.byName[col.UpperName()] = i
		s.offsets = append(s.offsets, pos)
		pos += col.Width()
	}
	s.stride = pos
	return s
}

// Builder is a fluent alternative to New.
type Builder struct {
	specs []ColumnSpec
}

// NewBuilder returns an empty schema builder.
func NewBuilder() *Builder { return &Builder{} }

// Column appends a fixed-size column (ignored width for non-String types).
func (b *Builder) Column(name string, typ Type) *Builder {
	b.specs = append(b.specs, ColumnSpec{Name: name, Type: typ})
	return b
}

// StringColumn appends a fixed-width string column.
func (b *Builder) StringColumn(name string, width int) *Builder {
	b.specs = append(b.specs, ColumnSpec{Name: name, Type: String, Width: width})
	return b
}

// Build constructs the Schema.
func (b *Builder) Build() *Schema { return New(b.specs) }

// Columns returns the schema's columns in declaration order.
func (s *Schema) Columns() []*Column { return s.columns }

// Column returns the column at ordinal, or nil if out of range.
func (s *Schema) Column(ordinal int) *Column {
	if ordinal < 0 || ordinal >= len(s.columns) {
		return nil
	}
	return s.columns[ordinal]
}

// Stride returns the fixed record size in bytes: the two 8-byte
// header slots plus the sum of every column's width.
func (s *Schema) Stride() int { return s.stride }

// PayloadSize returns the stride minus the 16-byte timestamp+offset
// header — the number of column bytes a caller of Append supplies.
func (s *Schema) PayloadSize() int { return s.stride - TimestampSize - OffsetSize }

// ColumnOffset returns the byte offset of column ordinal within a
// full (header-included) record buffer.
func (s *Schema) ColumnOffset(ordinal int) int { return s.offsets[ordinal] }

// Lookup resolves a column name (case-insensitive) to its ordinal. ok
// is false if no such column exists.
func (s *Schema) Lookup(name string) (ordinal int, ok bool) {
	ordinal, ok = s.byName[strings.ToUpper(name)]
	return
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package schema holds column metadata, the name-to-ordinal mapping,
// and the decoding of a byte extent into typed field views, per the
// on-disk record layout: [u64 timestamp][u64 original_offset][columns
// packed in schema order], little-endian integers, IEEE-754
// little-endian floats, right-padded fixed-width strings.
package schema

import "fmt"

// Type identifies a column's extent and fixed byte width.
type Type int

const (
	Bool Type = iota
	Char
	Short
	Int
	Long
	Float
	Double
	String // fixed-width, width carried per-column
)

func (t Type) String() string {
	switch t {
	case Bool:
		return "BOOL"
	case Char:
		return "CHAR"
	case Short:
		return "SHORT"
	case Int:
		return "INT"
	case Long:
		return "LONG"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case String:
		return "STRING"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// FixedSize returns the byte width of t for every type except String,
// whose width is per-column (0 here).
func (t Type) FixedSize() int {
	switch t {
	case Bool, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	case String:
		return 0
	default:
		panic(fmt.Sprintf("schema: unknown type %d", int(t)))
	}
}

// Indexable reports whether t can ever be indexed. All the types this
// system supports are indexable; the check exists so add_index has
// somewhere to return ManagementError from if future types are added
// without index support.
func (t Type) Indexable() bool {
	switch t {
	case Bool, Char, Short, Int, Long, Float, Double, String:
		return true
	default:
		return false
	}
}

// TimestampSize and OffsetSize are the two fixed slots prepended to
// every record's on-disk layout.
const (
	TimestampSize = 8
	OffsetSize    = 8
)

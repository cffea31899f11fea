// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package schema

import (
	"math"
	"strings"
	"sync/atomic"
)

// IndexState is a column's indexing lifecycle state.
type IndexState int32

const (
	Unindexed IndexState = iota
	Indexing
	Indexed
)

// Column is a single field's metadata: name, ordinal, type, width
// (meaningful for String columns), and mutable indexing state.
//
// Every field except the indexing-related ones is immutable after
// construction; the indexing state, index id, and bucket size
// transition atomically so that append() can read them concurrently
// with add_index/remove_index.
type Column struct {
	name    string
	ordinal int
	typ     Type
	width   int // byte width; for String this is the declared fixed width

	state      atomic.Int32
	indexID    atomic.Uint32
	bucketBits atomic.Uint64 // math.Float64bits(bucketSize)
}

// NewColumn constructs a column. For non-String types width is
// ignored and replaced by the type's fixed size.
func NewColumn(name string, ordinal int, typ Type, width int) *Column {
	if typ != String {
		width = typ.FixedSize()
	}
	c := &Column{name: name, ordinal: ordinal, typ: typ, width: width}
	return c
}

// Name returns the column's declared name (original case).
func (c *Column) Name() string { return c.name }

// UpperName returns the case-folded name used for lookup.
func (c *Column) UpperName() string { return strings.ToUpper(c.name) }

// Ordinal returns the column's position in the schema.
func (c *Column) Ordinal() int { return c.ordinal }

// Type returns the column's declared type.
func (c *Column) Type() Type { return c.typ }

// Width returns the column's fixed byte width.
func (c *Column) Width() int { return c.width }

// State returns the column's current indexing state (acquire-load).
func (c *Column) State() IndexState { return IndexState(c.state.Load()) }

// IndexID returns the column's index id. Only meaningful once State
// is Indexed (or was at some point: RemoveIndex retains the id so
// historical inserts stay reachable through the index registry).
func (c *Column) IndexID() uint16 { return uint16(c.indexID.Load()) }

// BucketSize returns the numeric bucket size used to coarsen this
// column's keys before index insertion.
func (c *Column) BucketSize() float64 { return math.Float64frombits(c.bucketBits.Load()) }

// SetIndexing attempts the Unindexed -> Indexing transition. It
// returns false (a no-op) if the column is already indexing or
// indexed.
func (c *Column) SetIndexing() bool {
	return c.state.CompareAndSwap(int32(Unindexed), int32(Indexing))
}

// SetIndexed completes the Indexing -> Indexed transition, recording
// the index id and bucket size. It panics if called outside the
// Indexing state, which would indicate a caller bug (add_index is the
// only caller, and always calls SetIndexing first).
func (c *Column) SetIndexed(indexID uint16, bucketSize float64) {
	c.indexID.Store(uint32(indexID))
	c.bucketBits.Store(math.Float64bits(bucketSize))
	if !c.state.CompareAndSwap(int32(Indexing), int32(Indexed)) {
		panic("schema: SetIndexed called outside the Indexing state")
	}
}

// SetUnindexed reverts a failed add_index attempt back to Unindexed
// (e.g. an unsupported column type).
func (c *Column) SetUnindexed() {
	c.state.Store(int32(Unindexed))
}

// DisableIndexing attempts the Indexed -> Unindexed transition. It
// returns false if the column was not indexed. The backing radix tree
// is deliberately left untouched so historical inserts stay
// reachable through the index registry.
func (c *Column) DisableIndexing() bool {
	return c.state.CompareAndSwap(int32(Indexed), int32(Unindexed))
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return New([]ColumnSpec{
		{Name: "id", Type: Int},
		{Name: "val", Type: Double},
		{Name: "name", Type: String, Width: 8},
		{Name: "active", Type: Bool},
	})
}

func TestSchemaLookupCaseInsensitive(t *testing.T) {
	s := testSchema()
	ordinal, ok := s.Lookup("Val")
	require.True(t, ok)
	require.Equal(t, 1, ordinal)

	_, ok = s.Lookup("missing")
	require.False(t, ok)
}

func TestSchemaStride(t *testing.T) {
	s := testSchema()
	// header (16) + int(4) + double(8) + string(8) + bool(1)
	require.Equal(t, 16+4+8+8+1, s.Stride())
	require.Equal(t, 4+8+8+1, s.PayloadSize())
}

func TestEncodeRowRoundTrip(t *testing.T) {
	s := testSchema()
	payload, err := s.EncodeRow(int32(7), 3.14, "hello", true)
	require.NoError(t, err)
	require.Len(t, payload, s.PayloadSize())

	buf := make([]byte, s.Stride())
	copy(buf[16:], payload)
	r := s.Apply(0, buf, uint64(s.Stride()), 1000)

	require.Equal(t, int64(7), r.Field(0).Int64())
	require.Equal(t, 3.14, r.Field(1).Float64())
	require.Equal(t, "hello", r.Field(2).String())
	require.Equal(t, true, r.Field(3).Bool())
}

func TestColumnIndexingLifecycle(t *testing.T) {
	col := NewColumn("val", 1, Double, 0)
	require.Equal(t, Unindexed, col.State())

	require.True(t, col.SetIndexing())
	require.Equal(t, Indexing, col.State())
	require.False(t, col.SetIndexing(), "double SetIndexing must be rejected")

	col.SetIndexed(3, 1.0)
	require.Equal(t, Indexed, col.State())
	require.Equal(t, uint16(3), col.IndexID())
	require.Equal(t, 1.0, col.BucketSize())

	require.True(t, col.DisableIndexing())
	require.Equal(t, Unindexed, col.State())

	require.True(t, col.SetIndexing(), "add_index then remove_index leaves the column re-indexable")
}

func TestEncodeKeyOrderPreservingIntegers(t *testing.T) {
	lo := EncodeKey(Int, 4, leBytes(-5, 4), 0)
	hi := EncodeKey(Int, 4, leBytes(5, 4), 0)
	require.Less(t, string(lo), string(hi))
}

func TestEncodeKeyFloatQuantization(t *testing.T) {
	s := testSchema()
	col := s.Column(1)
	col.SetIndexing()
	col.SetIndexed(0, 1.0)

	k1 := EncodeKey(Double, 8, f64LEBytes(3.14), col.BucketSize())
	k2 := EncodeKey(Double, 8, f64LEBytes(3.9), col.BucketSize())
	k3 := EncodeKey(Double, 8, f64LEBytes(4.1), col.BucketSize())

	require.Equal(t, string(k1), string(k2), "3.14 and 3.9 both quantize to bucket 3")
	require.NotEqual(t, string(k2), string(k3), "4.1 quantizes to a different bucket than 3.x")
}

func leBytes(v int64, width int) []byte {
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}

func f64LEBytes(v float64) []byte {
	bits := math.Float64bits(v)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	return buf
}

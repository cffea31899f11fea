// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/confluodb/confluo/internal/trigger"
)

func testTable(t *testing.T) (*Table, *Schema) {
	sch := NewSchema([]ColumnSpec{
		{Name: "id", Type: Int},
		{Name: "val", Type: Double},
	})
	table, err := Open(sch, nil)
	require.NoError(t, err)
	return table, sch
}

// TestAppendAndGetScenario covers a schema [id:int, val:double] with
// two appends: num_records equals the sum of both record strides, and
// get(0) returns the first record's bytes.
func TestAppendAndGetScenario(t *testing.T) {
	table, sch := testTable(t)

	p1, err := sch.EncodeRow(int32(1), 3.14)
	require.NoError(t, err)
	off1, err := table.Append(p1, 1000)
	require.NoError(t, err)
	require.EqualValues(t, 0, off1)

	p2, err := sch.EncodeRow(int32(2), 2.71)
	require.NoError(t, err)
	off2, err := table.Append(p2, 2000)
	require.NoError(t, err)
	require.EqualValues(t, sch.Stride(), off2)

	require.EqualValues(t, 2*sch.Stride(), table.NumRecords())

	buf := make([]byte, sch.Stride())
	ok, err := table.Get(0, buf)
	require.NoError(t, err)
	require.True(t, ok)

	record := sch.Apply(0, buf, uint64(sch.Stride()), 1000)
	require.Equal(t, int64(1), record.Field(0).Int64())
	require.Equal(t, 3.14, record.Field(1).Float64())
}

// TestGetAtTailReturnsNotFound covers the boundary behavior: get at
// exactly the current tail returns not-found.
func TestGetAtTailReturnsNotFound(t *testing.T) {
	table, sch := testTable(t)
	p1, err := sch.EncodeRow(int32(1), 1.0)
	require.NoError(t, err)
	_, err = table.Append(p1, 0)
	require.NoError(t, err)

	buf := make([]byte, sch.Stride())
	ok, err := table.Get(table.NumRecords(), buf)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestZeroLengthAppendRejected covers appending a zero-length record,
// which is rejected with ManagementError.
func TestZeroLengthAppendRejected(t *testing.T) {
	table, _ := testTable(t)
	_, err := table.Append(nil, 0)
	require.Error(t, err)
	require.IsType(t, &ManagementError{}, err)
}

// TestIndexScenario registers an index on val with bucket_size=1.0,
// appends {_,3.14}, {_,3.9}, {_,4.1}; the radix tree under val has
// exactly 2 keys — quantized 3 (two offsets) and quantized 4 (one
// offset).
func TestIndexScenario(t *testing.T) {
	table, sch := testTable(t)
	indexID, err := table.AddIndex("val", 1.0)
	require.NoError(t, err)

	for _, v := range []float64{3.14, 3.9, 4.1} {
		payload, err := sch.EncodeRow(int32(0), v)
		require.NoError(t, err)
		_, err = table.Append(payload, 0)
		require.NoError(t, err)
	}

	tree := table.indexes.At(uint64(indexID))
	col := sch.Column(1)

	keyFor := func(v float64) []byte {
		payload, err := sch.EncodeRow(int32(0), v)
		require.NoError(t, err)
		buf := make([]byte, sch.Stride())
		copy(buf[16:], payload)
		rec := sch.Apply(0, buf, uint64(sch.Stride()), 0)
		return rec.Field(1).Key()
	}

	bucket3 := tree.Lookup(keyFor(3.14))
	require.NotNil(t, bucket3)
	require.EqualValues(t, 2, bucket3.Size())
	require.Equal(t, keyFor(3.9), keyFor(3.14), "3.14 and 3.9 quantize to the same bucket")

	bucket4 := tree.Lookup(keyFor(4.1))
	require.NotNil(t, bucket4)
	require.EqualValues(t, 1, bucket4.Size())
	require.EqualValues(t, col.IndexID(), indexID)
}

// TestAddIndexUnknownField covers add_index against a column name
// that does not exist in the schema.
func TestAddIndexUnknownField(t *testing.T) {
	table, _ := testTable(t)
	_, err := table.AddIndex("MISSING", 1.0)
	require.Error(t, err)
	require.IsType(t, &ManagementError{}, err)
}

// TestAddIndexTwiceFails covers add_index called twice on the same
// column.
func TestAddIndexTwiceFails(t *testing.T) {
	table, _ := testTable(t)
	_, err := table.AddIndex("val", 1.0)
	require.NoError(t, err)

	_, err = table.AddIndex("val", 1.0)
	require.Error(t, err)
	require.IsType(t, &ManagementError{}, err)
}

// TestAddIndexRemoveThenReAdd covers the round-trip property:
// add_index then remove_index leaves the column unindexed, and a
// subsequent add_index succeeds.
func TestAddIndexRemoveThenReAdd(t *testing.T) {
	table, _ := testTable(t)
	_, err := table.AddIndex("val", 1.0)
	require.NoError(t, err)

	require.NoError(t, table.RemoveIndex("val"))
	require.Error(t, table.RemoveIndex("val"), "remove-without-index fails")

	_, err = table.AddIndex("val", 2.0)
	require.NoError(t, err)
}

// TestFilterAndTriggerRegistration exercises AddFilter/AddTrigger end
// to end, including a windowed-aggregate scenario.
func TestFilterAndTriggerRegistration(t *testing.T) {
	table, sch := testTable(t)
	filterID, err := table.AddFilter("val > 3.0", 1000)
	require.NoError(t, err)
	require.EqualValues(t, 0, filterID)

	triggerID, err := table.AddTrigger(filterID, "val", trigger.Sum, trigger.GT, 3.0)
	require.NoError(t, err)
	require.EqualValues(t, 0, triggerID)

	for _, tc := range []struct{ val float64; ts uint64 }{
		{2.0, 0}, {3.5, 500_000_000}, {4.0, 1_500_000_000},
	} {
		payload, err := sch.EncodeRow(int32(0), tc.val)
		require.NoError(t, err)
		_, err = table.Append(payload, tc.ts)
		require.NoError(t, err)
	}

	f := table.Filter(filterID)
	require.EqualValues(t, 1, f.Bucket(0).Count())
	require.EqualValues(t, 1, f.Bucket(1).Count())

	desc := table.Trigger(triggerID)
	require.Equal(t, trigger.Sum, desc.Aggregate)
	require.Equal(t, trigger.GT, desc.Op)
}

func TestAddTriggerUnknownFilter(t *testing.T) {
	table, _ := testTable(t)
	_, err := table.AddTrigger(99, "val", trigger.Sum, trigger.GT, 1.0)
	require.Error(t, err)
}

// TestConcurrentAppends has 8 goroutines each append 10,000 records;
// afterward num_records is exactly the total record bytes plus the
// bucket-end padding the tail covers, no two records share an offset,
// and every record is readable.
func TestConcurrentAppends(t *testing.T) {
	table, sch := testTable(t)
	const goroutines = 8
	const perGoroutine = 10000

	offsets := make(chan uint64, goroutines*perGoroutine)
	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < perGoroutine; j++ {
				payload, err := sch.EncodeRow(int32(j), float64(j))
				if err != nil {
					return err
				}
				off, err := table.Append(payload, uint64(j))
				if err != nil {
					return err
				}
				offsets <- off
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(offsets)

	seen := make(map[uint64]bool, goroutines*perGoroutine)
	for off := range offsets {
		require.False(t, seen[off], "no two appends should share an offset")
		seen[off] = true
	}
	require.Len(t, seen, goroutines*perGoroutine)
	// A log bucket holds only whole records: the bytes left at the end
	// of each full bucket are skipped and lie below the tail too.
	stride := uint64(sch.Stride())
	total := uint64(goroutines * perGoroutine)
	perBucket := uint64(DefaultLogBucketSize) / stride
	padding := (total - 1) / perBucket * (uint64(DefaultLogBucketSize) % stride)
	require.EqualValues(t, total*stride+padding, table.NumRecords())

	buf := make([]byte, sch.Stride())
	for off := range seen {
		ok, err := table.Get(off, buf)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

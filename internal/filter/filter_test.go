// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package filter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/confluodb/confluo/internal/expr"
	"github.com/confluodb/confluo/internal/schema"
)

func testSchema() *schema.Schema {
	return schema.New([]schema.ColumnSpec{
		{Name: "id", Type: schema.Int},
		{Name: "val", Type: schema.Double},
	})
}

func record(sch *schema.Schema, id int32, val float64, ts uint64) *schema.RecordView {
	payload, err := sch.EncodeRow(id, val)
	if err != nil {
		panic(err)
	}
	buf := make([]byte, sch.Stride())
	copy(buf[16:], payload)
	return sch.Apply(0, buf, uint64(sch.Stride()), ts)
}

// TestWindowedAggregateScenario covers filter "val > 3.0" with
// window=1000ms over records at ts=0ns,500ms,1500ms with
// val=2.0,3.5,4.0. Bucket 0 (ts in [0,1s)) gets count=1 (ts=500ms);
// bucket 1 (ts in [1s,2s)) gets count=1 (ts=1500ms).
func TestWindowedAggregateScenario(t *testing.T) {
	sch := testSchema()
	pred, err := expr.Compile("val > 3.0", sch)
	require.NoError(t, err)

	f := New(pred, 1000)
	f.Update(record(sch, 1, 2.0, 0))
	f.Update(record(sch, 2, 3.5, 500_000_000))
	f.Update(record(sch, 3, 4.0, 1_500_000_000))

	require.NotNil(t, f.Bucket(0))
	require.EqualValues(t, 1, f.Bucket(0).Count())
	require.InDelta(t, 3.5, f.Bucket(0).Sum(), 1e-9)

	require.NotNil(t, f.Bucket(1))
	require.EqualValues(t, 1, f.Bucket(1).Count())
	require.InDelta(t, 4.0, f.Bucket(1).Sum(), 1e-9)
}

func TestAggregateMinMaxMean(t *testing.T) {
	sch := testSchema()
	pred, err := expr.Compile("val > 0.0", sch)
	require.NoError(t, err)

	f := New(pred, 1000)
	for _, v := range []float64{1.0, 5.0, 3.0} {
		f.Update(record(sch, 0, v, 0))
	}
	agg := f.Bucket(0)
	require.EqualValues(t, 3, agg.Count())
	require.InDelta(t, 1.0, agg.Min(), 1e-9)
	require.InDelta(t, 5.0, agg.Max(), 1e-9)
	require.InDelta(t, 3.0, agg.Mean(), 1e-9)
}

func TestConcurrentUpdatesMergeCorrectly(t *testing.T) {
	sch := testSchema()
	pred, err := expr.Compile("val > 0.0", sch)
	require.NoError(t, err)

	f := New(pred, 1000)
	const n = 2000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Update(record(sch, 0, 1.0, 0))
		}()
	}
	wg.Wait()

	require.EqualValues(t, n, f.Bucket(0).Count())
	require.InDelta(t, float64(n), f.Bucket(0).Sum(), 1e-6)
}

func TestNonMatchingRecordsDoNotContribute(t *testing.T) {
	sch := testSchema()
	pred, err := expr.Compile("val > 3.0", sch)
	require.NoError(t, err)

	f := New(pred, 1000)
	f.Update(record(sch, 0, 1.0, 0))
	require.Nil(t, f.Bucket(0))
}

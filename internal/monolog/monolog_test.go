// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package monolog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearReserveNeverStraddlesBucket(t *testing.T) {
	l := NewLinear[byte](16, 4)
	off := l.Reserve(10)
	require.EqualValues(t, 0, off)

	// Only 6 bytes remain in the first bucket; a 10-byte reservation
	// must skip ahead to the next bucket boundary rather than straddle.
	off2 := l.Reserve(10)
	require.EqualValues(t, 16, off2)
}

func TestLinearAtAndSlice(t *testing.T) {
	l := NewLinear[byte](16, 4)
	off := l.Reserve(4)
	data := l.Slice(off, 4)
	copy(data, []byte{1, 2, 3, 4})
	require.Equal(t, byte(3), *l.At(off+2))
}

func TestExp2PushBackAndEach(t *testing.T) {
	e := NewExp2()
	for i := uint64(0); i < 100; i++ {
		idx := e.PushBack(i * 10)
		require.Equal(t, i, idx)
	}
	require.EqualValues(t, 100, e.Size())

	var seen []uint64
	e.Each(func(v uint64) { seen = append(seen, v) })
	require.Len(t, seen, 100)
	require.EqualValues(t, 0, seen[0])
	require.EqualValues(t, 990, seen[99])
}

func TestExp2ConcurrentPushBack(t *testing.T) {
	e := NewExp2()
	const n = 5000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			e.PushBack(v)
		}(uint64(i))
	}
	wg.Wait()
	require.EqualValues(t, n, e.Size())
}

func TestRegistryDenseIDs(t *testing.T) {
	r := NewRegistry[string](8, 4)
	id0 := r.PushBack("a")
	id1 := r.PushBack("b")
	require.EqualValues(t, 0, id0)
	require.EqualValues(t, 1, id1)
	require.EqualValues(t, 2, r.Len())
	require.Equal(t, "a", r.At(0))
	require.Equal(t, "b", r.At(1))
}

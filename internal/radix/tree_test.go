// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package radix

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	tree := New(4, 256)
	key := []byte{0, 0, 0, 42}
	tree.Insert(key, 100)
	tree.Insert(key, 200)

	reflog := tree.Lookup(key)
	require.NotNil(t, reflog)
	require.EqualValues(t, 2, reflog.Size())
	require.EqualValues(t, 100, reflog.At(0))
	require.EqualValues(t, 200, reflog.At(1))
}

func TestLookupMissingKey(t *testing.T) {
	tree := New(2, 256)
	require.Nil(t, tree.Lookup([]byte{1, 2}))
}

func TestBooleanTree(t *testing.T) {
	tree := New(1, 2)
	tree.Insert([]byte{0}, 1)
	tree.Insert([]byte{1}, 2)

	require.EqualValues(t, 1, tree.Lookup([]byte{0}).Size())
	require.EqualValues(t, 1, tree.Lookup([]byte{1}).Size())
}

func TestConcurrentInsertSameKey(t *testing.T) {
	tree := New(2, 256)
	key := []byte{1, 1}
	const n = 1000

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			tree.Insert(key, offset)
		}(uint64(i))
	}
	wg.Wait()

	require.EqualValues(t, n, tree.Lookup(key).Size())
	seen := make(map[uint64]bool, n)
	tree.Lookup(key).Each(func(offset uint64) { seen[offset] = true })
	require.Len(t, seen, n)
}

func TestWrongKeyWidthPanics(t *testing.T) {
	tree := New(4, 256)
	require.Panics(t, func() { tree.Insert([]byte{1, 2}, 0) })
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package readtail

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceSequential(t *testing.T) {
	var tail Tail
	require.EqualValues(t, 0, tail.Get())

	tail.Advance(0, 10)
	require.EqualValues(t, 10, tail.Get())

	tail.Advance(10, 5)
	require.EqualValues(t, 15, tail.Get())
}

func TestAdvanceBackwardsPanics(t *testing.T) {
	var tail Tail
	tail.Advance(0, 10)
	require.Panics(t, func() { tail.Advance(0, 1) })
}

func TestAdvanceStrictOrderingUnderConcurrency(t *testing.T) {
	var tail Tail
	const n = 200
	order := make([]uint64, n)
	for i := range order {
		order[i] = uint64(i)
	}

	var wg sync.WaitGroup
	for _, i := range order {
		wg.Add(1)
		go func(offset uint64) {
			defer wg.Done()
			tail.Advance(offset, 1)
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, n, tail.Get(), "tail only ever advances in reservation order, so every slot eventually publishes")
}

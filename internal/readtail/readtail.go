// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package readtail implements the single published cursor readers
// consult to decide which byte offsets in the data log are valid.
package readtail

import "sync/atomic"

// Tail is a monotonic, published upper bound on valid data-log
// offsets. It is the one synchronizes-with edge between appenders and
// readers: every side effect of an append (the bytes themselves,
// filter updates, index insertions) must be globally visible before
// Advance publishes the offset that covers it.
type Tail struct {
	value atomic.Uint64
}

// Get returns the current tail (acquire-load). The log is valid over
// [0, Get()).
func (t *Tail) Get() uint64 { return t.value.Load() }

// Advance publishes offset+n as the new tail, but only once the tail
// already equals offset — i.e. publication happens strictly in
// reservation order. A writer that reserved a later offset but
// finishes first blocks here until every earlier writer has
// advanced the tail past its own extent. This keeps the tail from
// ever uncovering a byte whose owning append has not completed all of
// its side effects, even under races between writers that finish out
// of order.
func (t *Tail) Advance(offset, n uint64) {
	for {
		cur := t.value.Load()
		if cur > offset {
			panic("readtail: advance would move the tail backwards")
		}
		if cur != offset {
			// An earlier writer hasn't published yet; wait for it.
			continue
		}
		if t.value.CompareAndSwap(cur, offset+n) {
			return
		}
	}
}

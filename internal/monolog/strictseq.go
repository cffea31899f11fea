// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package monolog

import "sync/atomic"

// strictSeq hands out contiguous integer ranges via fetch-and-add
// (reserve), then publishes a monotonic "visible length" counter that
// only advances once every range below it has been published — i.e.
// publication happens in reservation order, never out of order, even
// though the underlying writes those ranges guard may complete out of
// order. This is the same strict-publication discipline the read tail
// uses for the data log (see internal/readtail), reused here for any
// other structure that needs "index i is valid to read" to imply "the
// write at index i is complete," not just "a write at index i was
// reserved."
type strictSeq struct {
	reserved  atomic.Uint64
	published atomic.Uint64
}

// reserve atomically reserves n slots and returns the offset of the
// first one.
func (s *strictSeq) reserve(n uint64) uint64 {
	return s.reserved.Add(n) - n
}

// publish blocks (spinning) until every reservation before [start,
// start+n) has published, then publishes [start, start+n) itself.
// Callers must have finished writing the guarded slots before calling
// publish, since this is the release boundary readers synchronize on.
func (s *strictSeq) publish(start, n uint64) {
	for {
		cur := s.published.Load()
		if cur != start {
			continue
		}
		if s.published.CompareAndSwap(cur, cur+n) {
			return
		}
	}
}

// size returns the published length (acquire-load).
func (s *strictSeq) size() uint64 { return s.published.Load() }

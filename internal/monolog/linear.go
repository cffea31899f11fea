// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package monolog implements the two append-only, lock-free container
// layouts the storage engine is built on: a fixed-stride linear array
// (Linear) and an exponentially-bucketed array of 64-bit words (Exp2).
//
// Both containers grow by allocating fixed-capacity buckets on first
// touch, publishing each new bucket with a release-store so that
// concurrent readers can acquire-load it without additional locking.
// This mirrors the allocate-on-CAS-loss discipline an arena-backed
// skiplist uses for its interior nodes, generalized from a single
// backing buffer to a table of lazily-created buckets.
package monolog

import (
	"sync/atomic"
)

// Linear is a lock-free, append-only array of T laid out as a fixed
// number of fixed-capacity buckets. Space is reserved via a
// fetch-and-add on an internal cursor; a reservation never straddles
// two buckets — if the remaining space in the current bucket is
// smaller than the request, the cursor is advanced to the start of
// the next bucket first, leaving the tail of the old bucket unused.
type Linear[T any] struct {
	bucketSize uint64
	buckets    []atomic.Pointer[[]T]
	reserved   atomic.Uint64
}

// NewLinear creates a Linear array with the given per-bucket capacity
// and maximum number of buckets (i.e. total capacity
// bucketSize*maxBuckets). Buckets are not allocated until first
// written.
func NewLinear[T any](bucketSize, maxBuckets uint64) *Linear[T] {
	if bucketSize == 0 {
		panic("monolog: bucketSize must be positive")
	}
	return &Linear[T]{
		bucketSize: bucketSize,
		buckets:    make([]atomic.Pointer[[]T], maxBuckets),
	}
}

// BucketSize returns the fixed capacity of a single bucket.
func (l *Linear[T]) BucketSize() uint64 { return l.bucketSize }

// Reserved returns the current reservation cursor (acquire-load). This
// is the number of elements ever reserved, including any padding
// inserted to avoid straddling a bucket boundary; it is NOT the same
// as "number of elements readable" for callers layering their own
// publication boundary (e.g. the data log's read tail, or a
// registry's published-length counter) on top.
func (l *Linear[T]) Reserved() uint64 { return l.reserved.Load() }

// Reserve atomically reserves a contiguous run of n elements and
// returns the offset of its first element. The run is guaranteed to
// lie entirely within one bucket; if it would not fit in the
// remainder of the current bucket, the cursor skips ahead to the next
// bucket boundary first. n must not exceed the bucket size.
func (l *Linear[T]) Reserve(n uint64) uint64 {
	if n > l.bucketSize {
		panic("monolog: reservation larger than bucket size")
	}
	for {
		cur := l.reserved.Load()
		bucketIdx := cur / l.bucketSize
		bucketOff := cur % l.bucketSize
		remaining := l.bucketSize - bucketOff

		start := cur
		next := cur + n
		if n > remaining {
			start = (bucketIdx + 1) * l.bucketSize
			next = start + n
		}

		if l.reserved.CompareAndSwap(cur, next) {
			l.ensureBucket(start / l.bucketSize)
			return start
		}
	}
}

// ensureBucket lazily allocates the bucket at index idx, spin-waiting
// if another goroutine is concurrently allocating the same bucket.
func (l *Linear[T]) ensureBucket(idx uint64) []T {
	slot := &l.buckets[idx]
	for {
		p := slot.Load()
		if p != nil {
			return *p
		}
		fresh := make([]T, l.bucketSize)
		if slot.CompareAndSwap(nil, &fresh) {
			return fresh
		}
	}
}

// bucketFor returns the backing bucket slice for offset, without
// allocating it. Callers must only invoke this for offsets that have
// already been reserved (and therefore have a published bucket).
func (l *Linear[T]) bucketFor(offset uint64) []T {
	idx := offset / l.bucketSize
	p := l.buckets[idx].Load()
	if p == nil {
		panic("monolog: read of offset in an unallocated bucket")
	}
	return *p
}

// At returns a pointer to the element at offset. The offset must have
// already been reserved.
func (l *Linear[T]) At(offset uint64) *T {
	b := l.bucketFor(offset)
	return &b[offset%l.bucketSize]
}

// Slice returns the backing window [offset, offset+n) as a slice. The
// full range must lie within a single bucket, which Reserve
// guarantees for any n it was called with.
func (l *Linear[T]) Slice(offset, n uint64) []T {
	b := l.bucketFor(offset)
	start := offset % l.bucketSize
	return b[start : start+n]
}

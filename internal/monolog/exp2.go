// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package monolog

import "sync/atomic"

// baseShift is the base-2 log of the smallest Exp2 bucket's capacity;
// bucket i holds 2^(i+baseShift) elements, per the reflog sizing in
// the data model (bucket 0 holds 2^24 offsets, bucket 1 holds 2^25, …).
const baseShift = 24

// exp2Buckets buckets hold 2^64 - 2^24 elements in all, so every uint64
// index short of the last 2^24 values has a bucket.
const exp2Buckets = 40

// Exp2 is a lock-free, append-only array of uint64 partitioned into
// exponentially growing buckets. It backs the reflog: an
// ever-growing, concurrently appendable list of record offsets
// posted against a single index key.
type Exp2 struct {
	buckets [exp2Buckets]atomic.Pointer[[]uint64]
	seq     strictSeq
}

// NewExp2 returns an empty exponentially-bucketed array.
func NewExp2() *Exp2 {
	return &Exp2{}
}

// Size returns the number of elements appended so far (acquire-load).
// Every index below Size is guaranteed to be fully written.
func (e *Exp2) Size() uint64 { return e.seq.size() }

// locate maps a global index to its (bucket, offset-within-bucket,
// bucket-capacity) coordinates.
func locate(idx uint64) (bucket, offset, cap uint64) {
	cum := uint64(0)
	for b := uint64(0); b < exp2Buckets; b++ {
		c := uint64(1) << (b + baseShift)
		if idx < cum+c {
			return b, idx - cum, c
		}
		cum += c
	}
	panic("monolog: exp2 index out of representable range")
}

func (e *Exp2) ensureBucket(b, cap uint64) []uint64 {
	slot := &e.buckets[b]
	for {
		p := slot.Load()
		if p != nil {
			return *p
		}
		fresh := make([]uint64, cap)
		if slot.CompareAndSwap(nil, &fresh) {
			return fresh
		}
	}
}

// PushBack atomically appends v and returns its index. The index only
// becomes visible via Size/At/Each once the write has completed and
// every earlier reservation has published, so concurrent appenders
// that finish out of order never uncover a partially written slot.
func (e *Exp2) PushBack(v uint64) uint64 {
	idx := e.seq.reserve(1)
	b, off, cap := locate(idx)
	bucket := e.ensureBucket(b, cap)
	bucket[off] = v
	e.seq.publish(idx, 1)
	return idx
}

// At returns the element at idx. idx must be < Size().
func (e *Exp2) At(idx uint64) uint64 {
	b, off, cap := locate(idx)
	bucket := e.ensureBucket(b, cap)
	return bucket[off]
}

// Each calls fn for every element in append order. It snapshots Size()
// once at the start, matching the read-tail convention used
// elsewhere: elements appended concurrently with iteration may or may
// not be observed, but every element observed is fully written.
func (e *Exp2) Each(fn func(offset uint64)) {
	n := e.Size()
	for i := uint64(0); i < n; i++ {
		fn(e.At(i))
	}
}

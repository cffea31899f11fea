// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package datalog implements the byte-addressed data log: a
// lock-free append-only byte sequence partitioned into fixed-size
// buckets allocated lazily through a storage.Mode, so that the same
// reservation/publication discipline monolog.Linear uses for in-
// process buckets also drives a durable, memory-mapped backing store
// when Options.Storage is storage.NewMapped().
package datalog

import (
	"fmt"
	"sync/atomic"

	"github.com/confluodb/confluo/internal/storage"
)

// DataLog is a byte sequence with a monotonically increasing write
// cursor. Capacity is partitioned into buckets of bucketSize bytes,
// up to maxBuckets of them; a bucket is
// allocated through mode on first touch. Reservations never straddle
// a bucket boundary: reserve(n) advances the cursor to the next
// bucket's start if the remainder of the current bucket is too small.
type DataLog struct {
	mode       storage.Mode
	dir        string
	name       string
	bucketSize uint64
	maxBuckets uint64

	buckets  []atomic.Pointer[storage.Region]
	reserved atomic.Uint64
}

// New constructs a DataLog with the given bucket sizing, allocating
// regions named "<name>_<bucket index>" under dir through mode.
func New(mode storage.Mode, dir, name string, bucketSize, maxBuckets uint64) *DataLog {
	if bucketSize == 0 {
		panic("datalog: bucketSize must be positive")
	}
	return &DataLog{
		mode:       mode,
		dir:        dir,
		name:       name,
		bucketSize: bucketSize,
		maxBuckets: maxBuckets,
		buckets:    make([]atomic.Pointer[storage.Region], maxBuckets),
	}
}

// Reserved returns the current reservation cursor (acquire-load),
// i.e. the number of bytes ever reserved including any padding
// skipped to avoid straddling a bucket boundary.
func (d *DataLog) Reserved() uint64 { return d.reserved.Load() }

// Reserve atomically reserves a contiguous extent of n bytes and
// returns its starting offset. n must not exceed the bucket size; the
// default sizing uses a 1,048,576-byte bucket, so any single record
// (well under that) always fits.
func (d *DataLog) Reserve(n uint64) uint64 {
	if n > d.bucketSize {
		panic("datalog: reservation larger than bucket size")
	}
	for {
		cur := d.reserved.Load()
		bucketIdx := cur / d.bucketSize
		bucketOff := cur % d.bucketSize
		remaining := d.bucketSize - bucketOff

		start := cur
		next := cur + n
		if n > remaining {
			start = (bucketIdx + 1) * d.bucketSize
			next = start + n
		}

		if d.reserved.CompareAndSwap(cur, next) {
			if _, err := d.ensureBucket(start / d.bucketSize); err != nil {
				panic(fmt.Sprintf("datalog: allocate bucket: %v", err))
			}
			return start
		}
	}
}

// ensureBucket lazily allocates (via mode.Allocate) the bucket at
// idx, spin-waiting if a concurrent reserver is allocating the same
// bucket.
func (d *DataLog) ensureBucket(idx uint64) (storage.Region, error) {
	if idx >= uint64(len(d.buckets)) {
		return nil, fmt.Errorf("datalog: offset exceeds configured capacity (%d buckets of %d bytes)", d.maxBuckets, d.bucketSize)
	}
	slot := &d.buckets[idx]
	for {
		p := slot.Load()
		if p != nil {
			return *p, nil
		}
		region, err := d.mode.Allocate(d.dir, fmt.Sprintf("%s_%d", d.name, idx), int(d.bucketSize))
		if err != nil {
			return nil, err
		}
		if slot.CompareAndSwap(nil, &region) {
			return region, nil
		}
		// Lost the race: someone else installed a region first. Release
		// ours and retry the load.
		_ = region.Close()
	}
}

// bucketFor returns the backing region for offset, without
// allocating it. The caller must only invoke this for offsets already
// covered by a successful Reserve.
func (d *DataLog) bucketFor(offset uint64) storage.Region {
	idx := offset / d.bucketSize
	p := d.buckets[idx].Load()
	if p == nil {
		panic("datalog: access to offset in an unallocated bucket")
	}
	return *p
}

// WriteAt copies b into the log at offset. offset and offset+len(b)
// must lie within one bucket, which Reserve guarantees for anything
// it returned.
func (d *DataLog) WriteAt(offset uint64, b []byte) error {
	region := d.bucketFor(offset)
	return region.WriteAt(int(offset%d.bucketSize), b)
}

// Flush is a durability barrier (a no-op for in-memory storage modes)
// over the extent [offset, offset+n).
func (d *DataLog) Flush(offset, n uint64) error {
	region := d.bucketFor(offset)
	return region.Flush(int(offset%d.bucketSize), int(n))
}

// Read copies n bytes starting at offset into dst. The caller must
// have observed a published tail >= offset+n first; Read itself does
// not check the tail.
func (d *DataLog) Read(offset uint64, dst []byte) error {
	region := d.bucketFor(offset)
	return region.ReadAt(int(offset%d.bucketSize), dst)
}

// Ptr returns a zero-copy slice aliasing the log's backing memory
// over [offset, offset+n). Like Read, it does not itself check the
// tail.
func (d *DataLog) Ptr(offset, n uint64) []byte {
	region := d.bucketFor(offset)
	return region.Pointer(int(offset%d.bucketSize), int(n))
}

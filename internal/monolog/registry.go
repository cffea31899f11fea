// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package monolog

// Registry is a dense, append-only, concurrently-appendable array of
// handles (typically pointers to owned descriptors) addressed by
// insertion order: a monolog of pointers to live filters, triggers,
// and indexes. Ids are dense integers equal to insertion order, and
// Len is an acquire-load that only counts fully-written entries.
type Registry[T any] struct {
	log *Linear[T]
	seq strictSeq
}

// NewRegistry creates a registry with room for up to bucketSize*maxBuckets
// entries.
func NewRegistry[T any](bucketSize, maxBuckets uint64) *Registry[T] {
	return &Registry[T]{log: NewLinear[T](bucketSize, maxBuckets)}
}

// PushBack appends v and returns its dense id. Safe for concurrent
// callers: ids are handed out in reservation order, but Len only
// advances past an id once its value has actually been stored, so a
// slow writer stalls Len for everyone reserved after it — the same
// strict-publication contract the read tail gives the data log.
func (r *Registry[T]) PushBack(v T) uint64 {
	id := r.log.Reserve(1)
	*r.log.At(id) = v
	r.seq.publish(id, 1)
	return id
}

// Len returns the number of published (fully written) entries.
func (r *Registry[T]) Len() uint64 { return r.seq.size() }

// At returns the entry at id. id must be < Len().
func (r *Registry[T]) At(id uint64) T { return *r.log.At(id) }

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package storage

// InMemory is the Mode whose regions are plain heap-allocated byte
// slices. Flush is a no-op: there is nothing to durably persist.
type InMemory struct{}

// NewInMemory returns the in-memory storage mode.
func NewInMemory() *InMemory { return &InMemory{} }

// Name implements Mode.
func (*InMemory) Name() string { return "memory" }

// Allocate implements Mode.
func (*InMemory) Allocate(dir, name string, size int) (Region, error) {
	return &memRegion{buf: make([]byte, size)}, nil
}

type memRegion struct {
	buf []byte
}

func (r *memRegion) WriteAt(offset int, b []byte) error {
	copy(r.buf[offset:], b)
	return nil
}

func (r *memRegion) ReadAt(offset int, dst []byte) error {
	copy(dst, r.buf[offset:offset+len(dst)])
	return nil
}

func (r *memRegion) Flush(offset, n int) error { return nil }

func (r *memRegion) Pointer(offset, n int) []byte {
	return r.buf[offset : offset+n : offset+n]
}

func (r *memRegion) Size() int { return len(r.buf) }

func (r *memRegion) Close() error { return nil }

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Mapped is the Mode whose regions are backed by a file memory-mapped
// into the process's address space. Flush issues a real durability
// barrier (msync on unix; elsewhere a write-back of the range to the
// file followed by fsync).
type Mapped struct{}

// NewMapped returns the file-backed, memory-mapped storage mode.
func NewMapped() *Mapped { return &Mapped{} }

// Name implements Mode.
func (*Mapped) Name() string { return "mapped" }

// Allocate implements Mode: it creates (or truncates) dir/name to
// exactly size bytes and maps it in.
func (*Mapped) Allocate(dir, name string, size int) (Region, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: truncate %s: %w", path, err)
	}
	buf, err := mmap(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: mmap %s: %w", path, err)
	}
	return &mappedRegion{f: f, buf: buf}, nil
}

type mappedRegion struct {
	f   *os.File
	buf []byte
}

func (r *mappedRegion) WriteAt(offset int, b []byte) error {
	copy(r.buf[offset:], b)
	return nil
}

func (r *mappedRegion) ReadAt(offset int, dst []byte) error {
	copy(dst, r.buf[offset:offset+len(dst)])
	return nil
}

func (r *mappedRegion) Flush(offset, n int) error {
	// msync takes a page-aligned start address; the mapping begins on a
	// page boundary, so rounding offset down to a page aligns it.
	start := offset - offset%os.Getpagesize()
	return msync(r.f, r.buf[start:offset+n], start)
}

func (r *mappedRegion) Pointer(offset, n int) []byte {
	return r.buf[offset : offset+n : offset+n]
}

func (r *mappedRegion) Size() int { return len(r.buf) }

func (r *mappedRegion) Close() error {
	if err := munmap(r.buf); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

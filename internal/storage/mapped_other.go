// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

//go:build !unix

package storage

import "os"

// Non-unix fallback: no real mmap, just an in-process buffer that is
// periodically written back to the file on Flush. Good enough for
// tests on platforms without unix.Mmap; production deployments use
// the unix build.
func mmap(f *os.File, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil && err.Error() != "EOF" {
		// best effort: a freshly truncated file reads back as zeros anyway.
	}
	return buf, nil
}

func munmap(b []byte) error { return nil }

func msync(f *os.File, b []byte, offset int) error {
	if _, err := f.WriteAt(b, int64(offset)); err != nil {
		return err
	}
	return f.Sync()
}

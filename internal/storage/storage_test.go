// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	mode := NewInMemory()
	region, err := mode.Allocate("", "r", 64)
	require.NoError(t, err)
	defer region.Close()

	require.NoError(t, region.WriteAt(4, []byte("hello")))
	dst := make([]byte, 5)
	require.NoError(t, region.ReadAt(4, dst))
	require.Equal(t, "hello", string(dst))

	require.NoError(t, region.Flush(0, 64))
	require.Equal(t, 64, region.Size())
}

func TestInMemoryPointerAliasesBackingMemory(t *testing.T) {
	mode := NewInMemory()
	region, err := mode.Allocate("", "r", 16)
	require.NoError(t, err)
	defer region.Close()

	p := region.Pointer(0, 16)
	p[0] = 0xFF
	dst := make([]byte, 1)
	require.NoError(t, region.ReadAt(0, dst))
	require.Equal(t, byte(0xFF), dst[0])
}

func TestMappedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mode := NewMapped()
	region, err := mode.Allocate(dir, "data", 4096)
	require.NoError(t, err)
	defer region.Close()

	require.NoError(t, region.WriteAt(100, []byte("persisted")))
	dst := make([]byte, len("persisted"))
	require.NoError(t, region.ReadAt(100, dst))
	require.Equal(t, "persisted", string(dst))
	require.NoError(t, region.Flush(100, len(dst)))
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package tieredindex provides the width-specialized radix tree
// constructors the table dispatches to when add_index allocates a new
// index: depth D matching the column's byte width and radix R=256,
// plus a D=1, R=2 variant for booleans.
package tieredindex

import "github.com/confluodb/confluo/internal/radix"

// New returns the radix tree variant appropriate for a column of the
// given byte width. isBool selects the 2-ary boolean variant when
// width is 1; any other 1-byte column (Char) uses the 256-ary one.
func New(width int, isBool bool) *radix.Tree {
	if isBool {
		if width != 1 {
			panic("tieredindex: boolean columns must be 1 byte wide")
		}
		return radix.New(1, 2)
	}
	if width < 1 {
		panic("tieredindex: unsupported index width")
	}
	// Depths of 1/2/4/8 cover the fixed-width numeric types; any other
	// positive width (e.g. a fixed-width string column) uses the same
	// 256-ary radix.Tree generically.
	return radix.New(width, 256)
}

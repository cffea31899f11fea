// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package radix implements the multi-level, byte-indexed, lock-free
// trie that backs every secondary index: a tree of depth D (the
// indexed column's key width in bytes) where each interior node has R
// slots (one per possible value of the digit at that level), and
// every leaf holds a reflog — an append-only set of record offsets.
package radix

import (
	"sync/atomic"

	"github.com/confluodb/confluo/internal/monolog"
)

// node is one level of the trie. Interior nodes hold a slot array,
// lazily populated via compare-and-swap; leaf nodes (depth == the
// tree's D) hold a reflog instead.
type node struct {
	children []atomic.Pointer[node] // nil for leaves
	reflog   *monolog.Exp2          // non-nil only for leaves
}

func newNode(leaf bool, radix int) *node {
	if leaf {
		return &node{reflog: monolog.NewExp2()}
	}
	return &node{children: make([]atomic.Pointer[node], radix)}
}

// Tree is a radix tree with depth D and radix R: keys are exactly D
// bytes wide, and the digit at level i (key[i]) selects one of R
// children. For the widths and radixes this system uses, D is always
// an indexed column's byte width and R is 256 (one slot per byte
// value) except for boolean columns, where R is 2 (a boolean's only
// two possible encoded byte values).
type Tree struct {
	depth int
	radix int
	root  *node
}

// New constructs an empty tree of the given depth and radix.
func New(depth, radix int) *Tree {
	if depth < 1 {
		panic("radix: depth must be >= 1")
	}
	if radix < 1 {
		panic("radix: radix must be >= 1")
	}
	return &Tree{depth: depth, radix: radix, root: newNode(depth == 0, radix)}
}

// Depth returns the tree's key width in bytes.
func (t *Tree) Depth() int { return t.depth }

// Radix returns the tree's per-level slot count.
func (t *Tree) Radix() int { return t.radix }

// Insert walks (creating nodes as needed) the path for key and
// appends offset to the leaf's reflog. key must be exactly t.depth
// bytes. Concurrent inserts for different keys, or the same key, are
// both safe: node creation is published via compare-and-swap, and
// reflog append is itself lock-free (see internal/monolog.Exp2).
func (t *Tree) Insert(key []byte, offset uint64) {
	leaf := t.walk(key, true)
	leaf.reflog.PushBack(offset)
}

// Lookup returns the reflog for key, or nil if no record has ever
// been inserted under that exact key. Lookups are not part of the
// append hot path, but the structure supports them.
func (t *Tree) Lookup(key []byte) *monolog.Exp2 {
	n := t.walk(key, false)
	if n == nil {
		return nil
	}
	return n.reflog
}

// walk descends the tree along key's digits. If create is true,
// missing nodes are allocated and published via CAS; otherwise walk
// returns nil as soon as a required node is absent.
func (t *Tree) walk(key []byte, create bool) *node {
	if len(key) != t.depth {
		panic("radix: key width does not match tree depth")
	}
	cur := t.root
	for i := 0; i < t.depth; i++ {
		digit := int(key[i])
		if digit >= t.radix {
			panic("radix: key digit out of range for this tree's radix")
		}
		childIsLeaf := i == t.depth-1
		next := cur.childOrCreate(digit, childIsLeaf, t.radix, create)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// childOrCreate returns the child at digit, allocating and
// CAS-publishing it if absent and create is true. If create is false
// and the child is absent, it returns nil without side effects.
func (n *node) childOrCreate(digit int, childIsLeaf bool, radix int, create bool) *node {
	slot := &n.children[digit]
	for {
		p := slot.Load()
		if p != nil {
			return p
		}
		if !create {
			return nil
		}
		fresh := newNode(childIsLeaf, radix)
		if slot.CompareAndSwap(nil, fresh) {
			return fresh
		}
	}
}

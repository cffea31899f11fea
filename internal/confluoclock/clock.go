// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package confluoclock wraps benbjohnson/clock so that every
// "current time" read in the engine — the default append timestamp,
// which filters then bucket records by — goes through an injected
// capability instead of a bare call to time.Now, so tests can drive
// time deterministically.
package confluoclock

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Source is the capability the table reads its default append
// timestamp from.
type Source interface {
	// NowNanos returns the current time as nanoseconds, the unit
	// record timestamps and filter windows are expressed in.
	NowNanos() int64
}

// wallClock adapts a benbjohnson/clock.Clock (real or mock) to Source.
type wallClock struct{ c clock.Clock }

// New wraps c (typically clock.New() for production or
// clock.NewMock() in tests) as a Source.
func New(c clock.Clock) Source {
	return wallClock{c: c}
}

// NowNanos implements Source.
func (w wallClock) NowNanos() int64 { return w.c.Now().UnixNano() }

// Default returns the production Source backed by the real wall clock.
func Default() Source { return New(clock.New()) }

// AsTime converts a nanosecond timestamp back to a time.Time, purely
// for diagnostics/formatting.
func AsTime(nanos int64) time.Time { return time.Unix(0, nanos) }

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package filter implements the streaming evaluator the table drives
// on every append: a compiled predicate plus a ring of per-window
// aggregates keyed by the record timestamp quantized to the filter's
// monitor window.
package filter

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/confluodb/confluo/internal/expr"
	"github.com/confluodb/confluo/internal/schema"
)

// retentionBuckets bounds how many trailing window buckets a Filter
// keeps alive. Buckets older than the newest bucket minus this many
// are dropped lazily the next time a newer bucket is touched.
const retentionBuckets = 1024

// Aggregate is the per-bucket rolling statistic a Filter maintains:
// count, sum, min, and max of the matching records' projected
// numeric value. Fields merge commutatively and associatively under
// concurrent updates via atomic CAS loops, so no lock is needed per
// bucket.
type Aggregate struct {
	count   atomic.Uint64
	sumBits atomic.Uint64 // math.Float64bits(sum)
	minBits atomic.Uint64 // math.Float64bits(min)
	maxBits atomic.Uint64 // math.Float64bits(max)
}

func newAggregate() *Aggregate {
	a := &Aggregate{}
	a.minBits.Store(math.Float64bits(math.Inf(1)))
	a.maxBits.Store(math.Float64bits(math.Inf(-1)))
	return a
}

// Count returns the number of records merged into this bucket.
func (a *Aggregate) Count() uint64 { return a.count.Load() }

// Sum returns the running sum of the projected value.
func (a *Aggregate) Sum() float64 { return math.Float64frombits(a.sumBits.Load()) }

// Min returns the smallest projected value seen (+Inf if empty).
func (a *Aggregate) Min() float64 { return math.Float64frombits(a.minBits.Load()) }

// Max returns the largest projected value seen (-Inf if empty).
func (a *Aggregate) Max() float64 { return math.Float64frombits(a.maxBits.Load()) }

// Mean returns Sum/Count, or 0 if the bucket is empty.
func (a *Aggregate) Mean() float64 {
	n := a.Count()
	if n == 0 {
		return 0
	}
	return a.Sum() / float64(n)
}

// merge folds one more observation of v into the aggregate.
func (a *Aggregate) merge(v float64) {
	a.count.Add(1)
	for {
		cur := a.sumBits.Load()
		next := math.Float64bits(math.Float64frombits(cur) + v)
		if a.sumBits.CompareAndSwap(cur, next) {
			break
		}
	}
	casMin(&a.minBits, v)
	casMax(&a.maxBits, v)
}

func casMin(bits *atomic.Uint64, v float64) {
	for {
		cur := bits.Load()
		if math.Float64frombits(cur) <= v {
			return
		}
		if bits.CompareAndSwap(cur, math.Float64bits(v)) {
			return
		}
	}
}

func casMax(bits *atomic.Uint64, v float64) {
	for {
		cur := bits.Load()
		if math.Float64frombits(cur) >= v {
			return
		}
		if bits.CompareAndSwap(cur, math.Float64bits(v)) {
			return
		}
	}
}

// Filter pairs a compiled predicate with a monitor window and the
// rolling aggregates bucketed by that window. The predicate's
// projection (expr.Predicate.Projection) determines which field each
// matching record contributes to the aggregate: the first projected
// field is used as the single trigger target.
type Filter struct {
	pred      expr.Predicate
	windowMs  uint64
	projField int // schema ordinal of the field merged into aggregates; -1 if no projection

	mu      sync.Mutex // guards the watermark advance and eviction only; buckets are created via LoadOrStore
	buckets sync.Map   // bucket key (uint64) -> *Aggregate
	maxSeen atomic.Uint64
}

// New constructs a Filter evaluating pred with a monitor window of
// windowMs milliseconds.
func New(pred expr.Predicate, windowMs uint64) *Filter {
	projField := -1
	if proj := pred.Projection(); len(proj) > 0 {
		projField = proj[0].Ordinal
	}
	return &Filter{pred: pred, windowMs: windowMs, projField: projField}
}

// Predicate returns the compiled predicate this filter evaluates.
func (f *Filter) Predicate() expr.Predicate { return f.pred }

// WindowMs returns the filter's monitor window, in milliseconds.
func (f *Filter) WindowMs() uint64 { return f.windowMs }

// bucketKey quantizes a nanosecond timestamp to this filter's window.
func (f *Filter) bucketKey(tsNanos uint64) uint64 {
	windowNanos := f.windowMs * uint64(1e6)
	if windowNanos == 0 {
		return 0
	}
	return tsNanos / windowNanos
}

// Update evaluates the predicate against r; on a match, it locates or
// creates the aggregate bucket for r's timestamp and merges r's
// projected numeric field into it. Safe for concurrent callers.
func (f *Filter) Update(r *schema.RecordView) {
	if !f.pred.Evaluate(r) {
		return
	}
	key := f.bucketKey(r.Timestamp())
	f.bumpWatermarkAndEvict(key)

	agg := f.bucketFor(key)
	var v float64
	if f.projField >= 0 {
		field := r.Field(f.projField)
		if field.Type() == schema.Float || field.Type() == schema.Double {
			v = field.Float64()
		} else {
			v = float64(field.Int64())
		}
	}
	agg.merge(v)
}

// bucketFor returns the Aggregate for key, creating it if absent.
func (f *Filter) bucketFor(key uint64) *Aggregate {
	if v, ok := f.buckets.Load(key); ok {
		return v.(*Aggregate)
	}
	fresh := newAggregate()
	actual, _ := f.buckets.LoadOrStore(key, fresh)
	return actual.(*Aggregate)
}

// Bucket returns the aggregate for window key, or nil if no record
// has landed in that window.
func (f *Filter) Bucket(key uint64) *Aggregate {
	v, ok := f.buckets.Load(key)
	if !ok {
		return nil
	}
	return v.(*Aggregate)
}

// bumpWatermarkAndEvict advances the filter's high-water bucket key if
// key is newer, and drops buckets older than retentionBuckets behind
// it. Eviction is lazy — it only runs when a newer bucket is touched.
func (f *Filter) bumpWatermarkAndEvict(key uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key <= f.maxSeen.Load() {
		return
	}
	f.maxSeen.Store(key)
	if key < retentionBuckets {
		return
	}
	cutoff := key - retentionBuckets
	f.buckets.Range(func(k, _ any) bool {
		if k.(uint64) < cutoff {
			f.buckets.Delete(k)
		}
		return true
	})
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package expr defines the compiled-expression contract add_filter
// consumes — an opaque compiled predicate with evaluate(record_view)
// -> bool plus a field-projection vector used for aggregate
// computation — and a small reference compiler for it.
//
// Parsing itself is not part of the table's core responsibility: only
// the compiled contract matters to it. The reference compiler here
// exists so add_filter has something real to call; production
// deployments are free to swap in a richer expression language behind
// the same Predicate interface.
package expr

import "github.com/confluodb/confluo/internal/schema"

// Projected names one field a predicate wants aggregated, alongside
// its resolved ordinal in the schema the predicate was compiled
// against.
type Projected struct {
	Name    string
	Ordinal int
}

// Predicate is the compiled output of Compile: a deterministic,
// side-effect-free test over a record, plus the set of fields a
// Filter should fold into its windowed aggregates whenever the
// predicate matches.
type Predicate interface {
	// Evaluate reports whether r satisfies the predicate.
	Evaluate(r *schema.RecordView) bool

	// Projection returns the fields this predicate's expression
	// references numerically — the "field-projection vector" filters
	// use to know what to aggregate on a match.
	Projection() []Projected

	// Source returns the original expression text, kept verbatim for
	// diagnosability in registration errors.
	Source() string
}

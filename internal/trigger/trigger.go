// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

// Package trigger holds the stateless threshold descriptors
// registered against a filter's windowed aggregate. Evaluation itself
// (the periodic sweep comparing a filter's current aggregate to the
// threshold) is an external collaborator this core does not
// implement — only registration and durable descriptor persistence
// are in scope.
package trigger

import "fmt"

// Aggregate names which of a Filter's rolling statistics a Trigger
// watches.
type Aggregate uint8

const (
	Sum Aggregate = iota
	Count
	Min
	Max
	Mean
)

func (a Aggregate) String() string {
	switch a {
	case Sum:
		return "SUM"
	case Count:
		return "COUNT"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Mean:
		return "MEAN"
	default:
		return fmt.Sprintf("Aggregate(%d)", uint8(a))
	}
}

// Op is the relational operator a Trigger's threshold test applies.
type Op uint8

const (
	LT Op = iota
	LE
	GT
	GE
	EQ
	NE
)

func (o Op) String() string {
	switch o {
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case EQ:
		return "=="
	case NE:
		return "!="
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Evaluate applies o to (value, threshold).
func (o Op) Evaluate(value, threshold float64) bool {
	switch o {
	case LT:
		return value < threshold
	case LE:
		return value <= threshold
	case GT:
		return value > threshold
	case GE:
		return value >= threshold
	case EQ:
		return value == threshold
	case NE:
		return value != threshold
	default:
		panic("trigger: unknown operator")
	}
}

// Descriptor is a threshold alarm over a filter's aggregate: the
// filter it watches, which aggregate and field, the relational
// operator, and the numeric threshold. Descriptor is immutable once
// registered.
type Descriptor struct {
	FilterID  uint32
	Field     string
	Aggregate Aggregate
	Op        Op
	Threshold float64
}

// New constructs a Descriptor. Registration (allocating its dense id
// and persisting it to metadata) is the table's responsibility.
func New(filterID uint32, field string, agg Aggregate, op Op, threshold float64) *Descriptor {
	return &Descriptor{FilterID: filterID, Field: field, Aggregate: agg, Op: op, Threshold: threshold}
}

// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package trigger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpEvaluate(t *testing.T) {
	cases := []struct {
		op        Op
		value     float64
		threshold float64
		want      bool
	}{
		{LT, 1, 2, true},
		{LT, 2, 2, false},
		{LE, 2, 2, true},
		{GT, 3, 2, true},
		{GE, 2, 2, true},
		{EQ, 2, 2, true},
		{NE, 2, 3, true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.op.Evaluate(c.value, c.threshold), "%s(%v, %v)", c.op, c.value, c.threshold)
	}
}

func TestNewDescriptor(t *testing.T) {
	d := New(7, "val", Sum, GT, 100.0)
	require.EqualValues(t, 7, d.FilterID)
	require.Equal(t, "val", d.Field)
	require.Equal(t, Sum, d.Aggregate)
	require.Equal(t, GT, d.Op)
	require.Equal(t, 100.0, d.Threshold)
}

func TestAggregateAndOpStringers(t *testing.T) {
	require.Equal(t, "SUM", Sum.String())
	require.Equal(t, "MEAN", Mean.String())
	require.Equal(t, ">", GT.String())
	require.Equal(t, "!=", NE.String())
}

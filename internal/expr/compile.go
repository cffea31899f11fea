// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/confluodb/confluo/internal/schema"
)

// Compile parses source as a single boolean comparison/conjunction
// expression over column names (e.g. "val > 3.0", "a > 1 && b < 2")
// and resolves every identifier against sch, returning a Predicate
// that evaluates the expression over a record view. Parsing reuses
// go/parser.ParseExpr for tokenization/grammar, since no example in
// the retrieved pack carries a purpose-built expression-language
// dependency for this kind of row filtering.
//
// Supported operators: ==, !=, <, <=, >, >=, && and ||. The left-hand
// side of every comparison must be a bare column name; the right-hand
// side must be a numeric or string literal, or true/false for a
// boolean column (which supports only == and !=).
func Compile(source string, sch *schema.Schema) (Predicate, error) {
	expr, err := parser.ParseExpr(source)
	if err != nil {
		return nil, fmt.Errorf("expr: parse %q: %w", source, err)
	}
	c := &compiler{sch: sch, source: source, seen: map[string]int{}}
	node, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	proj := make([]Projected, 0, len(c.seen))
	for name, ordinal := range c.seen {
		proj = append(proj, Projected{Name: name, Ordinal: ordinal})
	}
	return &predicate{root: node, source: source, proj: proj}, nil
}

type compiler struct {
	sch    *schema.Schema
	source string
	seen   map[string]int // column name -> ordinal, every numeric column this expression compares
}

// node is a compiled sub-expression: a deterministic boolean test over
// a record view.
type node func(r *schema.RecordView) bool

func (c *compiler) compile(e ast.Expr) (node, error) {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return c.compile(n.X)
	case *ast.BinaryExpr:
		return c.compileBinary(n)
	default:
		return nil, fmt.Errorf("expr: %q: unsupported expression form %T", c.source, e)
	}
}

func (c *compiler) compileBinary(n *ast.BinaryExpr) (node, error) {
	switch n.Op {
	case token.LAND:
		left, err := c.compile(n.X)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(n.Y)
		if err != nil {
			return nil, err
		}
		return func(r *schema.RecordView) bool { return left(r) && right(r) }, nil
	case token.LOR:
		left, err := c.compile(n.X)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(n.Y)
		if err != nil {
			return nil, err
		}
		return func(r *schema.RecordView) bool { return left(r) || right(r) }, nil
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return c.compileComparison(n)
	default:
		return nil, fmt.Errorf("expr: %q: unsupported operator %s", c.source, n.Op)
	}
}

func (c *compiler) compileComparison(n *ast.BinaryExpr) (node, error) {
	ident, ok := n.X.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("expr: %q: left-hand side of %s must be a column name", c.source, n.Op)
	}
	ordinal, ok := c.sch.Lookup(ident.Name)
	if !ok {
		return nil, fmt.Errorf("expr: %q: unknown field %q", c.source, ident.Name)
	}
	col := c.sch.Column(ordinal)

	if col.Type() == schema.Bool {
		boolIdent, ok := n.Y.(*ast.Ident)
		if !ok || (boolIdent.Name != "true" && boolIdent.Name != "false") {
			return nil, fmt.Errorf("expr: %q: right-hand side of %s must be true or false", c.source, n.Op)
		}
		return boolComparison(ordinal, n.Op, boolIdent.Name == "true", c.source)
	}

	lit, ok := n.Y.(*ast.BasicLit)
	if !ok {
		return nil, fmt.Errorf("expr: %q: right-hand side of %s must be a literal", c.source, n.Op)
	}

	switch col.Type() {
	case schema.String:
		rhs, err := strconv.Unquote(lit.Value)
		if err != nil {
			rhs = strings.Trim(lit.Value, `"`)
		}
		return stringComparison(ordinal, n.Op, rhs, c.source)
	default:
		rhs, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: %q: %q is not numeric", c.source, lit.Value)
		}
		c.seen[col.Name()] = ordinal
		return numericComparison(ordinal, n.Op, rhs, c.source)
	}
}

func numericComparison(ordinal int, op token.Token, rhs float64, source string) (node, error) {
	cmp, err := compareFn(op, source)
	if err != nil {
		return nil, err
	}
	return func(r *schema.RecordView) bool {
		f := r.Field(ordinal)
		var lhs float64
		switch f.Type() {
		case schema.Float, schema.Double:
			lhs = f.Float64()
		default:
			lhs = float64(f.Int64())
		}
		return cmp(compareFloat(lhs, rhs))
	}, nil
}

func stringComparison(ordinal int, op token.Token, rhs, source string) (node, error) {
	cmp, err := compareFn(op, source)
	if err != nil {
		return nil, err
	}
	return func(r *schema.RecordView) bool {
		return cmp(strings.Compare(r.Field(ordinal).String(), rhs))
	}, nil
}

func boolComparison(ordinal int, op token.Token, rhs bool, source string) (node, error) {
	if op != token.EQL && op != token.NEQ {
		return nil, fmt.Errorf("expr: %q: boolean fields only support == and !=", source)
	}
	return func(r *schema.RecordView) bool {
		eq := r.Field(ordinal).Bool() == rhs
		if op == token.NEQ {
			return !eq
		}
		return eq
	}, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFn(op token.Token, source string) (func(sign int) bool, error) {
	switch op {
	case token.EQL:
		return func(s int) bool { return s == 0 }, nil
	case token.NEQ:
		return func(s int) bool { return s != 0 }, nil
	case token.LSS:
		return func(s int) bool { return s < 0 }, nil
	case token.LEQ:
		return func(s int) bool { return s <= 0 }, nil
	case token.GTR:
		return func(s int) bool { return s > 0 }, nil
	case token.GEQ:
		return func(s int) bool { return s >= 0 }, nil
	default:
		return nil, fmt.Errorf("expr: %q: unsupported comparison operator %s", source, op)
	}
}

// predicate is the concrete Predicate Compile returns.
type predicate struct {
	root   node
	source string
	proj   []Projected
}

func (p *predicate) Evaluate(r *schema.RecordView) bool { return p.root(r) }
func (p *predicate) Projection() []Projected            { return p.proj }
func (p *predicate) Source() string                     { return p.source }

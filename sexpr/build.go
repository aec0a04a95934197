// Copyright 2024 The Quadkit Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sexpr

import (
	"fmt"
	"strconv"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/term"
)

// builder turns parsed Nodes into algebra trees under a fixed prefix map.
type builder struct {
	prefixes Prefixes
}

// BuildQuery parses input and builds a complete algebra.QueryForm: one of
// (select PLAN...), (ask PLAN), (construct PLAN (template TP...)), or
// (describe TERM...).
func BuildQuery(input string, prefixes Prefixes) (algebra.QueryForm, error) {
	root, err := Read(input)
	if err != nil {
		return nil, err
	}
	b := &builder{prefixes: prefixes}
	return b.query(root)
}

// BuildUpdate parses input as a single SPARQL Update operation: one of
// (insert-data ...), (delete-data ...), (modify ...), (create IRI),
// (drop REF), (clear REF), (copy FROM TO), (move FROM TO), (add FROM TO).
func BuildUpdate(input string, prefixes Prefixes) (algebra.UpdateOp, error) {
	root, err := Read(input)
	if err != nil {
		return nil, err
	}
	b := &builder{prefixes: prefixes}
	return b.updateOp(root)
}

func (b *builder) query(n Node) (algebra.QueryForm, error) {
	if n.IsAtom || len(n.List) == 0 {
		return nil, fmt.Errorf("sexpr: expected a query form, got %s", n)
	}
	head := n.List[0]
	args := n.List[1:]
	switch head.Atom {
	case "select":
		plan, ds, err := b.planWithDataset(args)
		if err != nil {
			return nil, err
		}
		return algebra.Select{Plan: plan, Dataset: ds}, nil
	case "ask":
		plan, ds, err := b.planWithDataset(args)
		if err != nil {
			return nil, err
		}
		return algebra.Ask{Plan: plan, Dataset: ds}, nil
	case "construct":
		if len(args) < 2 {
			return nil, fmt.Errorf("sexpr: construct needs a plan and a template")
		}
		plan, err := b.op(args[0])
		if err != nil {
			return nil, err
		}
		tmpl, err := b.template(args[1])
		if err != nil {
			return nil, err
		}
		return algebra.Construct{Plan: plan, Template: tmpl}, nil
	case "describe":
		var terms []term.Term
		for _, a := range args {
			t, err := b.termNode(a)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return algebra.Describe{Terms: terms}, nil
	}
	return nil, fmt.Errorf("sexpr: unknown query form %q", head.Atom)
}

// planWithDataset builds the first element of args as the operator tree and
// scans the rest for a trailing (from IRI...) / (from-named IRI...) clause.
func (b *builder) planWithDataset(args []Node) (algebra.Op, algebra.DatasetSpec, error) {
	if len(args) == 0 {
		return nil, algebra.DatasetSpec{}, fmt.Errorf("sexpr: missing query plan")
	}
	plan, err := b.op(args[0])
	if err != nil {
		return nil, algebra.DatasetSpec{}, err
	}
	var ds algebra.DatasetSpec
	for _, a := range args[1:] {
		if a.IsAtom || len(a.List) == 0 {
			continue
		}
		switch a.List[0].Atom {
		case "from":
			for _, g := range a.List[1:] {
				iri, err := b.iriNode(g)
				if err != nil {
					return nil, ds, err
				}
				ds.Default = append(ds.Default, iri)
			}
		case "from-named":
			for _, g := range a.List[1:] {
				iri, err := b.iriNode(g)
				if err != nil {
					return nil, ds, err
				}
				ds.Named = append(ds.Named, iri)
			}
		}
	}
	return plan, ds, nil
}

// op builds one algebra.Op node. Property paths and Service aren't part of
// this small grammar (see DESIGN.md); everything else the executor
// understands is.
func (b *builder) op(n Node) (algebra.Op, error) {
	if n.IsAtom || len(n.List) == 0 {
		return nil, fmt.Errorf("sexpr: expected an operator, got %s", n)
	}
	head := n.List[0]
	args := n.List[1:]
	switch head.Atom {
	case "bgp":
		var patterns []algebra.TriplePattern
		for _, a := range args {
			tp, err := b.triplePattern(a)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, tp)
		}
		return algebra.BGP{Patterns: patterns}, nil
	case "join":
		return b.binaryOp(args, func(l, r algebra.Op) algebra.Op { return algebra.Join{Left: l, Right: r} })
	case "left-join":
		if len(args) < 2 {
			return nil, fmt.Errorf("sexpr: left-join needs two children")
		}
		l, err := b.op(args[0])
		if err != nil {
			return nil, err
		}
		r, err := b.op(args[1])
		if err != nil {
			return nil, err
		}
		var filter algebra.Expr
		if len(args) > 2 {
			filter, err = b.expr(args[2])
			if err != nil {
				return nil, err
			}
		}
		return algebra.LeftJoin{Left: l, Right: r, Filter: filter}, nil
	case "union":
		return b.binaryOp(args, func(l, r algebra.Op) algebra.Op { return algebra.Union{Left: l, Right: r} })
	case "minus":
		return b.binaryOp(args, func(l, r algebra.Op) algebra.Op { return algebra.Minus{Left: l, Right: r} })
	case "filter":
		if len(args) < 2 {
			return nil, fmt.Errorf("sexpr: filter needs an expression and a child")
		}
		expr, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		child, err := b.op(args[1])
		if err != nil {
			return nil, err
		}
		return algebra.Filter{Expr: expr, Child: child}, nil
	case "graph":
		if len(args) < 2 {
			return nil, fmt.Errorf("sexpr: graph needs a graph term and a child")
		}
		g, err := b.termNode(args[0])
		if err != nil {
			return nil, err
		}
		child, err := b.op(args[1])
		if err != nil {
			return nil, err
		}
		return algebra.Graph{GraphTerm: g, Child: child}, nil
	case "distinct":
		child, err := b.childOp(args)
		if err != nil {
			return nil, err
		}
		return algebra.Distinct{Child: child}, nil
	case "reduced":
		child, err := b.childOp(args)
		if err != nil {
			return nil, err
		}
		return algebra.Reduced{Child: child}, nil
	case "project":
		if len(args) < 1 {
			return nil, fmt.Errorf("sexpr: project needs a child")
		}
		child, err := b.op(args[len(args)-1])
		if err != nil {
			return nil, err
		}
		var vars []string
		for _, a := range args[:len(args)-1] {
			v, err := b.termNode(a)
			if err != nil {
				return nil, err
			}
			vv, ok := v.(term.Variable)
			if !ok {
				return nil, fmt.Errorf("sexpr: project list must be variables, got %s", a)
			}
			vars = append(vars, string(vv))
		}
		return algebra.Project{Vars: vars, Child: child}, nil
	case "slice":
		return b.slice(args)
	case "order-by":
		return b.orderBy(args)
	case "group":
		return b.group(args)
	}
	return nil, fmt.Errorf("sexpr: unknown operator %q", head.Atom)
}

func (b *builder) childOp(args []Node) (algebra.Op, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("sexpr: expected exactly one child operator")
	}
	return b.op(args[0])
}

func (b *builder) binaryOp(args []Node, mk func(l, r algebra.Op) algebra.Op) (algebra.Op, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("sexpr: expected exactly two child operators")
	}
	l, err := b.op(args[0])
	if err != nil {
		return nil, err
	}
	r, err := b.op(args[1])
	if err != nil {
		return nil, err
	}
	return mk(l, r), nil
}

// slice parses (slice [(limit N)] [(offset N)] CHILD).
func (b *builder) slice(args []Node) (algebra.Op, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("sexpr: slice needs a child")
	}
	s := algebra.Slice{Limit: -1}
	for _, a := range args[:len(args)-1] {
		if a.IsAtom || len(a.List) != 2 {
			return nil, fmt.Errorf("sexpr: malformed slice clause %s", a)
		}
		n, err := strconv.ParseInt(a.List[1].Atom, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sexpr: %s: %w", a.List[0].Atom, err)
		}
		switch a.List[0].Atom {
		case "limit":
			s.Limit = n
		case "offset":
			s.Offset = n
		default:
			return nil, fmt.Errorf("sexpr: unknown slice clause %q", a.List[0].Atom)
		}
	}
	child, err := b.op(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	s.Child = child
	return s, nil
}

// orderBy parses (order-by (asc ?x) (desc ?y) ... CHILD).
func (b *builder) orderBy(args []Node) (algebra.Op, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("sexpr: order-by needs a child")
	}
	var conds []algebra.OrderCondition
	for _, a := range args[:len(args)-1] {
		if a.IsAtom || len(a.List) != 2 {
			return nil, fmt.Errorf("sexpr: malformed order clause %s", a)
		}
		expr, err := b.expr(a.List[1])
		if err != nil {
			return nil, err
		}
		var desc bool
		switch a.List[0].Atom {
		case "asc":
		case "desc":
			desc = true
		default:
			return nil, fmt.Errorf("sexpr: unknown order direction %q", a.List[0].Atom)
		}
		conds = append(conds, algebra.OrderCondition{Expr: expr, Descending: desc})
	}
	child, err := b.op(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	return algebra.OrderBy{Keys: conds, Child: child}, nil
}

var aggFuncs = map[string]algebra.AggFunc{
	"count": algebra.AggCount,
	"sum":   algebra.AggSum,
	"avg":   algebra.AggAvg,
	"min":   algebra.AggMin,
	"max":   algebra.AggMax,
}

// group parses (group (key ?x ...) (count ?y as c) ... CHILD).
func (b *builder) group(args []Node) (algebra.Op, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("sexpr: group needs keys and a child")
	}
	var g algebra.Group
	for _, a := range args[:len(args)-1] {
		if a.IsAtom || len(a.List) == 0 {
			return nil, fmt.Errorf("sexpr: malformed group clause %s", a)
		}
		switch a.List[0].Atom {
		case "key":
			for _, k := range a.List[1:] {
				e, err := b.expr(k)
				if err != nil {
					return nil, err
				}
				g.Keys = append(g.Keys, e)
			}
		default:
			fn, ok := aggFuncs[a.List[0].Atom]
			if !ok {
				return nil, fmt.Errorf("sexpr: unknown aggregate %q", a.List[0].Atom)
			}
			if len(a.List) < 4 || a.List[2].Atom != "as" {
				return nil, fmt.Errorf("sexpr: expected (%s VAR as NAME)", a.List[0].Atom)
			}
			e, err := b.expr(a.List[1])
			if err != nil {
				return nil, err
			}
			g.Aggs = append(g.Aggs, algebra.Aggregation{Func: fn, Expr: e, As: a.List[3].Atom})
		}
	}
	child, err := b.op(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	g.Child = child
	return g, nil
}

func (b *builder) triplePattern(n Node) (algebra.TriplePattern, error) {
	if n.IsAtom || len(n.List) != 4 || n.List[0].Atom != "tp" {
		return algebra.TriplePattern{}, fmt.Errorf("sexpr: expected (tp S P O), got %s", n)
	}
	s, err := b.termNode(n.List[1])
	if err != nil {
		return algebra.TriplePattern{}, err
	}
	p, err := b.termNode(n.List[2])
	if err != nil {
		return algebra.TriplePattern{}, err
	}
	o, err := b.termNode(n.List[3])
	if err != nil {
		return algebra.TriplePattern{}, err
	}
	return algebra.TriplePattern{S: s, P: p, O: o}, nil
}

func (b *builder) template(n Node) ([]algebra.ConstructTemplate, error) {
	if n.IsAtom || len(n.List) == 0 || n.List[0].Atom != "template" {
		return nil, fmt.Errorf("sexpr: expected (template (tp ...)...), got %s", n)
	}
	var out []algebra.ConstructTemplate
	for _, tpn := range n.List[1:] {
		tp, err := b.triplePattern(tpn)
		if err != nil {
			return nil, err
		}
		out = append(out, algebra.ConstructTemplate{S: tp.S, P: tp.P, O: tp.O})
	}
	return out, nil
}

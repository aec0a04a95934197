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

package exec

import (
	"context"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/term"
)

// Result is the outcome of running a QueryForm: exactly one of Rows, Quads
// or Bool is meaningful, depending on which form ran.
type Result struct {
	Rows  []binding.Binding // SELECT
	Quads []term.Quad       // CONSTRUCT/DESCRIBE
	Bool  bool              // ASK
}

// RunQuery dispatches a query form (§3/§4.10), resolving its dataset before
// handing the plan to the operator evaluator.
func (ex *Executor) RunQuery(ctx context.Context, form algebra.QueryForm) (Result, error) {
	res, label, err := ex.runQuery(ctx, form)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MetricQueriesTotal.WithLabelValues(label, outcome).Inc()
	MetricRowsReturned.Add(float64(countRows(res)))
	return res, err
}

func (ex *Executor) runQuery(ctx context.Context, form algebra.QueryForm) (Result, string, error) {
	switch n := form.(type) {
	case algebra.Select:
		rows, err := ex.runWithDataset(ctx, n.Plan, n.Dataset)
		return Result{Rows: rows}, "select", err
	case algebra.Construct:
		rows, err := ex.runWithDataset(ctx, n.Plan, n.Dataset)
		if err != nil {
			return Result{}, "construct", err
		}
		return Result{Quads: ex.buildConstruct(rows, n.Template)}, "construct", nil
	case algebra.Ask:
		rows, err := ex.runWithDataset(ctx, n.Plan, n.Dataset)
		if err != nil {
			return Result{}, "ask", err
		}
		return Result{Bool: len(rows) > 0}, "ask", nil
	case algebra.Describe:
		res, err := ex.runDescribe(ctx, n)
		return res, "describe", err
	}
	return Result{}, "unknown", nil
}

// runWithDataset scopes plan evaluation to form's FROM/FROM NAMED dataset.
// With zero or one FROM graph the scope is a single graphKey binding; with
// more than one, the plan is evaluated once per FROM graph and the results
// are unioned -- an approximation of SPARQL's "merge the named graphs into
// one default graph" semantics, exact for disjoint-data datasets and for
// the common one-FROM case, but not a true cross-graph RDF merge for BGPs
// whose patterns would otherwise only match by combining triples from two
// different FROM graphs at once.
func (ex *Executor) runWithDataset(ctx context.Context, plan algebra.Op, ds algebra.DatasetSpec) ([]binding.Binding, error) {
	prevAllowed := ex.AllowedGraphs
	if len(ds.Named) > 0 {
		allowed := make(map[term.ID]bool, len(ds.Named))
		for _, g := range ds.Named {
			allowed[ex.Dict.Intern(g)] = true
		}
		ex.AllowedGraphs = allowed
		defer func() { ex.AllowedGraphs = prevAllowed }()
	}

	if len(ds.Default) == 0 {
		return ex.eval(ctx, plan, binding.Binding{})
	}
	if len(ds.Default) == 1 {
		gid := ex.Dict.Intern(ds.Default[0])
		return ex.eval(ctx, plan, binding.Binding{}.Extend(graphKey, gid))
	}
	var out []binding.Binding
	for _, g := range ds.Default {
		gid := ex.Dict.Intern(g)
		rows, err := ex.eval(ctx, plan, binding.Binding{}.Extend(graphKey, gid))
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// buildConstruct instantiates template once per row, skipping any
// instantiation that would leave a template variable unbound, and
// deduplicates the resulting ground triples (CONSTRUCT always produces a
// simple graph, not a multiset).
func (ex *Executor) buildConstruct(rows []binding.Binding, template []algebra.ConstructTemplate) []term.Quad {
	seen := map[term.Quad]bool{}
	var out []term.Quad
	for _, row := range rows {
		for _, t := range template {
			s, ok1 := ex.resolveConstructTerm(row, t.S)
			p, ok2 := ex.resolveConstructTerm(row, t.P)
			o, ok3 := ex.resolveConstructTerm(row, t.O)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			q := term.Quad{S: s, P: p, O: o, G: term.None}
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}
	return out
}

func (ex *Executor) resolveConstructTerm(row binding.Binding, t term.Term) (term.ID, bool) {
	if v, ok := t.(term.Variable); ok {
		id, bound := row.Get(string(v))
		return id, bound
	}
	return ex.Dict.Intern(t), true
}

// runDescribe computes the Symmetric Concise Bounded Description of every
// resource named directly in Terms plus every resource bound by Plan's
// projected solutions (§4.10): for each resource, every triple where it is
// subject (recursing into blank-node objects), plus every triple where it
// is object (recursing into blank-node subjects), so a description reaches
// the blank nodes that only make sense attached to their anchor resource.
func (ex *Executor) runDescribe(ctx context.Context, n algebra.Describe) (Result, error) {
	resources := map[term.ID]bool{}
	for _, t := range n.Terms {
		resources[ex.Dict.Intern(t)] = true
	}
	if n.Plan != nil {
		rows, err := ex.runWithDataset(ctx, n.Plan, n.Dataset)
		if err != nil {
			return Result{}, err
		}
		for _, row := range rows {
			for _, v := range row.Vars() {
				if id, ok := row.Get(v); ok {
					resources[id] = true
				}
			}
		}
	}

	visited := map[term.ID]bool{}
	var quads []term.Quad
	for r := range resources {
		more, err := ex.scbd(ctx, r, visited)
		if err != nil {
			return Result{}, err
		}
		quads = append(quads, more...)
	}
	return Result{Quads: quads}, nil
}

func (ex *Executor) scbd(ctx context.Context, node term.ID, visited map[term.ID]bool) ([]term.Quad, error) {
	if visited[node] {
		return nil, nil
	}
	visited[node] = true

	var out []term.Quad

	fwd := ex.Store.Scan(ctx, term.Pattern{S: node})
	for fwd.Next() {
		q := fwd.Quad()
		out = append(out, q)
		if ex.isBlankNode(q.O) {
			more, err := ex.scbd(ctx, q.O, visited)
			if err != nil {
				fwd.Close()
				return nil, err
			}
			out = append(out, more...)
		}
	}
	if err := fwd.Err(); err != nil {
		fwd.Close()
		return nil, err
	}
	fwd.Close()

	inv := ex.Store.Scan(ctx, term.Pattern{O: node})
	for inv.Next() {
		q := inv.Quad()
		out = append(out, q)
		if ex.isBlankNode(q.S) {
			more, err := ex.scbd(ctx, q.S, visited)
			if err != nil {
				inv.Close()
				return nil, err
			}
			out = append(out, more...)
		}
	}
	if err := inv.Err(); err != nil {
		inv.Close()
		return nil, err
	}
	inv.Close()

	return out, nil
}

func (ex *Executor) isBlankNode(id term.ID) bool {
	t, err := ex.Dict.Resolve(id)
	if err != nil {
		return false
	}
	_, ok := t.(term.BlankNode)
	return ok
}

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
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/optimize"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/wcoj"
)

// evalBGP runs the strategy selector of §4.8 over the pattern list, then
// dispatches to the WCOJ kernel for a star or cyclic join and to a
// left-deep nested-loop join (the way the teacher's graph/iterator.And
// composes a chain of LinksTo iterators) otherwise.
func (ex *Executor) evalBGP(ctx context.Context, n algebra.BGP, in binding.Binding) ([]binding.Binding, error) {
	plan := optimize.Choose(n.Patterns, ex.cardinalityEstimator(ctx, in))
	ex.LastPlan = &plan

	if plan.Strategy == optimize.WCOJ {
		return ex.evalBGPWCOJ(ctx, n.Patterns, in)
	}

	rows := []binding.Binding{in}
	for _, tp := range n.Patterns {
		next, err := ex.joinPattern(ctx, rows, tp)
		if err != nil {
			return nil, err
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}

// cardinalityEstimator gives the optimizer a rough per-pattern result-size
// estimate by scanning the pattern resolved against in, capped well short
// of a full scan on a large store. This is explanatory only (§4.8: "used
// only to report an explanation, not to drive alternative plans") -- the
// store keeps no separate per-predicate counters to look this up in O(1),
// so a bounded scan is the simplest accurate-enough stand-in.
func (ex *Executor) cardinalityEstimator(ctx context.Context, in binding.Binding) func(algebra.TriplePattern) float64 {
	const sampleCap = 10000
	return func(tp algebra.TriplePattern) float64 {
		pattern, _ := ex.resolvePattern(in, tp)
		it := ex.Store.Scan(ctx, pattern)
		defer it.Close()
		n := 0
		for n < sampleCap && it.Next() {
			n++
		}
		if n == 0 {
			return 1
		}
		return float64(n)
	}
}

// evalBGPWCOJ resolves each pattern's constants/already-bound variables
// against in, hands the result to the wcoj kernel, and merges each
// discovered solution back into in for the caller.
func (ex *Executor) evalBGPWCOJ(ctx context.Context, patterns []algebra.TriplePattern, in binding.Binding) ([]binding.Binding, error) {
	wpatterns := make([]wcoj.Pattern, len(patterns))
	for i, tp := range patterns {
		pattern, vars := ex.resolvePattern(in, tp)
		wvars := make([]wcoj.Var, len(vars))
		for j, bv := range vars {
			wvars[j] = wcoj.Var{Dir: bv.dir, Name: bv.name}
		}
		wpatterns[i] = wcoj.Pattern{Fixed: pattern, Vars: wvars}
	}

	solutions, err := wcoj.Eval(ctx, ex.Store, wpatterns, func() bool { return ex.cancelled(ctx) }, ex.checkEvery)
	if err != nil {
		return nil, err
	}
	rows := make([]binding.Binding, 0, len(solutions))
	for _, sol := range solutions {
		row := in
		for name, id := range sol {
			row = row.Extend(name, id)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (ex *Executor) joinPattern(ctx context.Context, rows []binding.Binding, tp algebra.TriplePattern) ([]binding.Binding, error) {
	var out []binding.Binding
	for i, row := range rows {
		if i%ex.checkEvery == 0 && ex.cancelled(ctx) {
			return nil, kgerr.ErrCancelled
		}
		pattern, vars := ex.resolvePattern(row, tp)
		it := ex.Store.Scan(ctx, pattern)
		for it.Next() {
			q := it.Quad()
			nb, ok := bindVars(row, vars, q)
			if ok {
				out = append(out, nb)
			}
		}
		if err := it.Err(); err != nil {
			it.Close()
			return nil, err
		}
		it.Close()
	}
	return out, nil
}

// resolvePattern turns a TriplePattern plus the active binding/graph context
// into a term.Pattern ready to scan, and the list of (direction, variable)
// pairs that still need filling in from the matched quad.
func (ex *Executor) resolvePattern(row binding.Binding, tp algebra.TriplePattern) (term.Pattern, []boundVar) {
	var pattern term.Pattern
	var vars []boundVar

	resolve := func(t term.Term, dir term.Direction) term.ID {
		if v, ok := t.(term.Variable); ok {
			if id, bound := row.Get(string(v)); bound {
				return id
			}
			vars = append(vars, boundVar{dir: dir, name: string(v)})
			return term.None
		}
		return ex.Dict.Intern(t)
	}

	pattern.S = resolve(tp.S, term.Subject)
	pattern.P = resolve(tp.P, term.Predicate)
	pattern.O = resolve(tp.O, term.Object)
	if gid, ok := row.Get(graphKey); ok {
		pattern.G = gid
	}
	return pattern, vars
}

type boundVar struct {
	dir  term.Direction
	name string
}

// bindVars extends row with the variables vars names, reading their values
// from q. A variable already bound elsewhere in the same triple pattern
// (e.g. ?x ?p ?x) must agree across all its occurrences.
func bindVars(row binding.Binding, vars []boundVar, q term.Quad) (binding.Binding, bool) {
	nb := row
	for _, v := range vars {
		id := q.Get(v.dir)
		if existing, ok := nb.Get(v.name); ok {
			if existing != id {
				return nil, false
			}
			continue
		}
		nb = nb.Extend(v.name, id)
	}
	return nb, true
}

// evalGraph restricts Child to a named graph. A constant GraphTerm sets the
// active graph context; a Variable additionally enumerates every graph the
// store knows about and binds it in the output rows.
func (ex *Executor) evalGraph(ctx context.Context, n algebra.Graph, in binding.Binding) ([]binding.Binding, error) {
	if v, ok := n.GraphTerm.(term.Variable); ok {
		graphs, err := ex.Store.Graphs(ctx)
		if err != nil {
			return nil, err
		}
		var out []binding.Binding
		for _, gid := range graphs {
			if gid == term.None {
				continue // the default graph is never a named graph
			}
			if ex.AllowedGraphs != nil && !ex.AllowedGraphs[gid] {
				continue
			}
			scoped := in.Extend(graphKey, gid).Extend(string(v), gid)
			rows, err := ex.eval(ctx, n.Child, scoped)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	}
	gid := ex.Dict.Intern(n.GraphTerm)
	scoped := in.Extend(graphKey, gid)
	return ex.eval(ctx, n.Child, scoped)
}

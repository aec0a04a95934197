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

// Package exec is the executor of §4.6: it runs an algebra.Op tree against
// a store.QuadStore and a dict.Dictionary, producing binding sequences.
//
// Each operator's evaluation here is eager (it materializes its result as a
// []binding.Binding rather than pulling lazily stage by stage) -- a
// deliberate simplification for an embeddable core rather than a
// streaming query engine; cooperative cancellation is still checked
// regularly so a caller's ctx cancellation is honored promptly even over a
// large materialized result (§5/§9).
package exec

import (
	"context"
	"sort"
	"strconv"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/eval"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/optimize"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
)

// graphKey is the reserved binding entry that threads the active GRAPH
// context through BGP/Path evaluation. It is stripped before results are
// handed back to a caller.
const graphKey = "\x00graph"

// ServiceFunc lets a caller wire SERVICE execution against a real transport;
// without one, Service always fails (silently or not, per its Silent flag).
type ServiceFunc func(ctx context.Context, endpoint term.Term, child algebra.Op, in binding.Binding) ([]binding.Binding, error)

// Executor runs algebra plans against a single store+dictionary pair.
type Executor struct {
	Store   *store.QuadStore
	Dict    *dict.Dictionary
	Eval    *eval.Evaluator
	Service ServiceFunc

	// AllowedGraphs restricts which graphs `GRAPH ?g` may range over, set
	// by a query's FROM NAMED clauses (§4.10). Nil means unrestricted: every
	// graph the store holds is visible.
	AllowedGraphs map[term.ID]bool

	// LastPlan records the strategy classifier's decision (§4.8) for the
	// most recently evaluated BGP: WCOJ vs iterative, the shape that drove
	// it, and an estimated cost. Nil until the first BGP is evaluated;
	// overwritten by every subsequent one, so it reflects the outcome of a
	// single query's last BGP, not a running history.
	LastPlan *optimize.Plan

	checkEvery int // cancellation-check granularity, default 64 per §9
}

// New builds an Executor. ext may be nil (no extension functions).
func New(s *store.QuadStore, d *dict.Dictionary, ext *eval.ExtRegistry) *Executor {
	ex := &Executor{Store: s, Dict: d, checkEvery: 64}
	ex.Eval = eval.New(d, ex.existsFunc, ext)
	return ex
}

func (ex *Executor) existsFunc(plan algebra.Op, b binding.Binding) (bool, error) {
	rows, err := ex.eval(context.Background(), plan, b)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Run executes op and returns an Iterator over its solutions.
func (ex *Executor) Run(ctx context.Context, op algebra.Op, in binding.Binding) *Iterator {
	rows, err := ex.eval(ctx, op, in)
	return &Iterator{rows: rows, err: err, checkEvery: ex.checkEvery}
}

func (ex *Executor) cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (ex *Executor) eval(ctx context.Context, op algebra.Op, in binding.Binding) ([]binding.Binding, error) {
	if ex.cancelled(ctx) {
		if clog.V(2) {
			clog.Infof("exec: cancelled before evaluating %T", op)
		}
		return nil, kgerr.ErrCancelled
	}
	switch n := op.(type) {
	case nil:
		return []binding.Binding{in}, nil
	case algebra.BGP:
		return ex.evalBGP(ctx, n, in)
	case algebra.Join:
		return ex.evalJoin(ctx, n, in)
	case algebra.LeftJoin:
		return ex.evalLeftJoin(ctx, n, in)
	case algebra.Union:
		return ex.evalUnion(ctx, n, in)
	case algebra.Minus:
		return ex.evalMinus(ctx, n, in)
	case algebra.Filter:
		return ex.evalFilter(ctx, n, in)
	case algebra.Graph:
		return ex.evalGraph(ctx, n, in)
	case algebra.Service:
		return ex.evalService(ctx, n, in)
	case algebra.Extend:
		return ex.evalExtend(ctx, n, in)
	case algebra.Project:
		return ex.evalProject(ctx, n, in)
	case algebra.Distinct:
		rows, err := ex.eval(ctx, n.Child, in)
		if err != nil {
			return nil, err
		}
		return dedup(rows), nil
	case algebra.Reduced:
		// Pass-through: REDUCED permits but does not require deduplication.
		return ex.eval(ctx, n.Child, in)
	case algebra.OrderBy:
		return ex.evalOrderBy(ctx, n, in)
	case algebra.Slice:
		return ex.evalSlice(ctx, n, in)
	case algebra.Group:
		return ex.evalGroup(ctx, n, in)
	case algebra.Table:
		return ex.evalTable(ctx, n, in)
	case algebra.Path:
		return ex.evalPath(ctx, n, in)
	}
	return nil, &kgerr.UnsupportedOperation{What: "unknown algebra operator"}
}

func (ex *Executor) evalJoin(ctx context.Context, n algebra.Join, in binding.Binding) ([]binding.Binding, error) {
	left, err := ex.eval(ctx, n.Left, in)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for i, row := range left {
		if i%ex.checkEvery == 0 && ex.cancelled(ctx) {
			return nil, kgerr.ErrCancelled
		}
		right, err := ex.eval(ctx, n.Right, row)
		if err != nil {
			return nil, err
		}
		out = append(out, right...)
	}
	return out, nil
}

func (ex *Executor) evalLeftJoin(ctx context.Context, n algebra.LeftJoin, in binding.Binding) ([]binding.Binding, error) {
	left, err := ex.eval(ctx, n.Left, in)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, row := range left {
		right, err := ex.eval(ctx, n.Right, row)
		if err != nil {
			return nil, err
		}
		var kept []binding.Binding
		for _, r := range right {
			if n.Filter == nil {
				kept = append(kept, r)
				continue
			}
			v, err := ex.Eval.Eval(r, n.Filter)
			if err != nil {
				continue
			}
			ok, err := eval.EffectiveBoolean(v)
			if err == nil && ok {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			out = append(out, row)
		} else {
			out = append(out, kept...)
		}
	}
	return out, nil
}

func (ex *Executor) evalUnion(ctx context.Context, n algebra.Union, in binding.Binding) ([]binding.Binding, error) {
	left, err := ex.eval(ctx, n.Left, in)
	if err != nil {
		return nil, err
	}
	right, err := ex.eval(ctx, n.Right, in)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (ex *Executor) evalMinus(ctx context.Context, n algebra.Minus, in binding.Binding) ([]binding.Binding, error) {
	left, err := ex.eval(ctx, n.Left, in)
	if err != nil {
		return nil, err
	}
	right, err := ex.eval(ctx, n.Right, in)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, lr := range left {
		excluded := false
		for _, rr := range right {
			if sharesVariable(lr, rr) && lr.Compatible(rr) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, lr)
		}
	}
	return out, nil
}

func sharesVariable(a, b binding.Binding) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func (ex *Executor) evalFilter(ctx context.Context, n algebra.Filter, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}
	var out []binding.Binding
	for _, row := range rows {
		v, err := ex.Eval.Eval(row, n.Expr)
		if err != nil {
			continue // FILTER errors exclude the solution, not propagate.
		}
		ok, err := eval.EffectiveBoolean(v)
		if err == nil && ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (ex *Executor) evalService(ctx context.Context, n algebra.Service, in binding.Binding) ([]binding.Binding, error) {
	if ex.Service == nil {
		if n.Silent {
			return []binding.Binding{in}, nil
		}
		return nil, &kgerr.UnsupportedOperation{What: "SERVICE: no transport configured"}
	}
	rows, err := ex.Service(ctx, n.Endpoint, n.Child, in)
	if err != nil {
		if n.Silent {
			return []binding.Binding{in}, nil
		}
		return nil, err
	}
	return rows, nil
}

func (ex *Executor) evalExtend(ctx context.Context, n algebra.Extend, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}
	out := make([]binding.Binding, len(rows))
	for i, row := range rows {
		v, err := ex.Eval.Eval(row, n.Expr)
		if err != nil {
			// BIND to an erroring expression leaves the variable unbound,
			// not the whole solution discarded.
			out[i] = row
			continue
		}
		id := ex.Dict.Intern(v)
		out[i] = row.Extend(n.Var, id)
	}
	return out, nil
}

func (ex *Executor) evalProject(ctx context.Context, n algebra.Project, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}
	out := make([]binding.Binding, len(rows))
	for i, row := range rows {
		out[i] = row.Project(n.Vars)
	}
	return out, nil
}

func (ex *Executor) evalTable(ctx context.Context, n algebra.Table, in binding.Binding) ([]binding.Binding, error) {
	var out []binding.Binding
	for _, row := range n.Rows {
		b := in.Clone()
		ok := true
		for i, v := range row {
			if v == nil {
				continue
			}
			id := ex.Dict.Intern(v)
			if existing, has := b.Get(n.Vars[i]); has && existing != id {
				ok = false
				break
			}
			b = b.Extend(n.Vars[i], id)
		}
		if ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (ex *Executor) evalOrderBy(ctx context.Context, n algebra.OrderBy, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range n.Keys {
			vi, erri := ex.Eval.Eval(rows[i], key.Expr)
			vj, errj := ex.Eval.Eval(rows[j], key.Expr)
			var c int
			switch {
			case erri != nil && errj != nil:
				c = 0
			case erri != nil:
				c = -1
			case errj != nil:
				c = 1
			default:
				c = eval.CompareForOrder(vi, vj)
			}
			if key.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return rows, nil
}

func (ex *Executor) evalSlice(ctx context.Context, n algebra.Slice, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}
	start := int(n.Offset)
	if start < 0 {
		start = 0
	}
	if start > len(rows) {
		start = len(rows)
	}
	rows = rows[start:]
	if n.Limit >= 0 && int64(len(rows)) > n.Limit {
		rows = rows[:n.Limit]
	}
	return rows, nil
}

func dedup(rows []binding.Binding) []binding.Binding {
	seen := make(map[string]bool, len(rows))
	out := make([]binding.Binding, 0, len(rows))
	for _, row := range rows {
		k := rowKey(row)
		if !seen[k] {
			seen[k] = true
			out = append(out, row)
		}
	}
	return out
}

func rowKey(row binding.Binding) string {
	vars := row.Vars()
	sort.Strings(vars)
	var buf []byte
	for _, v := range vars {
		id, _ := row.Get(v)
		buf = append(buf, v...)
		buf = append(buf, '=')
		buf = strconv.AppendUint(buf, uint64(id), 10)
		buf = append(buf, ';')
	}
	return string(buf)
}

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

package exec_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/kv/memkv"
	"github.com/quadkit/quadkit/optimize"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
)

const (
	ex1 = term.IRI("http://example.org/alice")
	ex2 = term.IRI("http://example.org/bob")
	ex3 = term.IRI("http://example.org/carol")
	knows = term.IRI("http://example.org/knows")
	name  = term.IRI("http://example.org/name")
)

func newExecutor(t *testing.T) (*exec.Executor, *dict.Dictionary, *store.QuadStore) {
	t.Helper()
	d := dict.New()
	qs := store.New(memkv.New())
	return exec.New(qs, d, nil), d, qs
}

func insert(t *testing.T, d *dict.Dictionary, qs *store.QuadStore, s, p, o term.Term) {
	t.Helper()
	q := term.Quad{S: d.Intern(s), P: d.Intern(p), O: d.Intern(o)}
	require.NoError(t, qs.Insert(context.Background(), q))
}

func tp(s, p, o term.Term) algebra.TriplePattern {
	return algebra.TriplePattern{S: s, P: p, O: o}
}

func TestBGPJoinAcrossTwoPatterns(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)
	insert(t, d, qs, ex2, name, term.NewString("Bob"))

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("a"), knows, term.Variable("b")),
		tp(term.Variable("b"), name, term.Variable("n")),
	}}

	it := ex.Run(context.Background(), plan, binding.Binding{})
	var rows []binding.Binding
	for it.Next() {
		rows = append(rows, it.Binding())
	}
	require.NoError(t, it.Err())
	require.Len(t, rows, 1)

	nID, ok := rows[0].Get("n")
	require.True(t, ok)
	val, err := d.Resolve(nID)
	require.NoError(t, err)
	require.Equal(t, term.NewString("Bob"), val)
}

func TestBGPJoinNoMatchYieldsNoRows(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("a"), knows, term.Variable("b")),
		tp(term.Variable("b"), name, term.Variable("n")),
	}}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	require.False(t, it.Next())
	require.NoError(t, it.Err())
}

func TestPropertyPathOneOrMoreFollowsChain(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)
	insert(t, d, qs, ex2, knows, ex3)

	plan := algebra.Path{
		Subject:  ex1,
		PathExpr: algebra.PathOneOrMore{Path: algebra.PathPredicate{IRI: knows}},
		Object:   term.Variable("x"),
	}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	var got []term.ID
	for it.Next() {
		id, _ := it.Binding().Get("x")
		got = append(got, id)
	}
	require.NoError(t, it.Err())
	require.ElementsMatch(t, []term.ID{d.Intern(ex2), d.Intern(ex3)}, got)
}

func TestPropertyPathZeroOrMoreIncludesStart(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.Path{
		Subject:  ex1,
		PathExpr: algebra.PathZeroOrMore{Path: algebra.PathPredicate{IRI: knows}},
		Object:   term.Variable("x"),
	}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	var got []term.ID
	for it.Next() {
		id, _ := it.Binding().Get("x")
		got = append(got, id)
	}
	require.NoError(t, it.Err())
	require.ElementsMatch(t, []term.ID{d.Intern(ex1), d.Intern(ex2)}, got)
}

func TestGroupByWithCountAggregate(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)
	insert(t, d, qs, ex1, knows, ex3)
	insert(t, d, qs, ex2, knows, ex3)

	plan := algebra.Group{
		Child: algebra.BGP{Patterns: []algebra.TriplePattern{
			tp(term.Variable("s"), knows, term.Variable("o")),
		}},
		Keys: []algebra.Expr{algebra.ExprVar{Name: "s"}},
		Aggs: []algebra.Aggregation{
			{Func: algebra.AggCount, As: "c"},
		},
	}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	counts := map[term.ID]int64{}
	for it.Next() {
		row := it.Binding()
		s, _ := row.Get("s")
		cID, ok := row.Get("c")
		require.True(t, ok)
		cv, err := d.Resolve(cID)
		require.NoError(t, err)
		lit := cv.(term.Literal)
		n, err := strconv.ParseInt(lit.Lexical, 10, 64)
		require.NoError(t, err)
		counts[s] = n
	}
	require.NoError(t, it.Err())
	require.EqualValues(t, 2, counts[d.Intern(ex1)])
	require.EqualValues(t, 1, counts[d.Intern(ex2)])
}

func TestDistinctDeduplicatesRows(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)
	insert(t, d, qs, ex3, knows, ex2)

	plan := algebra.Distinct{Child: algebra.Project{Vars: []string{"o"}, Child: algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("s"), knows, term.Variable("o")),
	}}}}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	n := 0
	for it.Next() {
		n++
	}
	require.NoError(t, it.Err())
	require.Equal(t, 1, n)
}

func TestRunQuerySelectHonorsFromGraph(t *testing.T) {
	ex, d, qs := newExecutor(t)
	g := term.IRI("http://example.org/g1")
	q := term.Quad{S: d.Intern(ex1), P: d.Intern(knows), O: d.Intern(ex2), G: d.Intern(g)}
	require.NoError(t, qs.Insert(context.Background(), q))

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("s"), knows, term.Variable("o")),
	}}
	res, err := ex.RunQuery(context.Background(), algebra.Select{
		Plan:    plan,
		Dataset: algebra.DatasetSpec{Default: []term.IRI{g}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	res2, err := ex.RunQuery(context.Background(), algebra.Select{Plan: plan})
	require.NoError(t, err)
	require.Len(t, res2.Rows, 0)
}

func TestRunQueryConstructBuildsGroundTriples(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("s"), knows, term.Variable("o")),
	}}
	res, err := ex.RunQuery(context.Background(), algebra.Construct{
		Plan: plan,
		Template: []algebra.ConstructTemplate{
			{S: term.Variable("o"), P: name, O: term.Variable("s")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Quads, 1)
	require.Equal(t, d.Intern(ex2), res.Quads[0].S)
	require.Equal(t, d.Intern(ex1), res.Quads[0].O)
}

func TestRunQueryAsk(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(ex1, knows, term.Variable("o")),
	}}
	res, err := ex.RunQuery(context.Background(), algebra.Ask{Plan: plan})
	require.NoError(t, err)
	require.True(t, res.Bool)

	plan2 := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(ex3, knows, term.Variable("o")),
	}}
	res2, err := ex.RunQuery(context.Background(), algebra.Ask{Plan: plan2})
	require.NoError(t, err)
	require.False(t, res2.Bool)
}

func TestRunQueryCountsQueriesAndRows(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("s"), knows, term.Variable("o")),
	}}

	beforeOK := testutil.ToFloat64(exec.MetricQueriesTotal.WithLabelValues("select", "ok"))
	beforeRows := testutil.ToFloat64(exec.MetricRowsReturned)
	res, err := ex.RunQuery(context.Background(), algebra.Select{Plan: plan})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, beforeOK+1, testutil.ToFloat64(exec.MetricQueriesTotal.WithLabelValues("select", "ok")))
	require.Equal(t, beforeRows+1, testutil.ToFloat64(exec.MetricRowsReturned))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	beforeErr := testutil.ToFloat64(exec.MetricQueriesTotal.WithLabelValues("select", "error"))
	_, err = ex.RunQuery(cancelled, algebra.Select{Plan: plan})
	require.Error(t, err)
	require.Equal(t, beforeErr+1, testutil.ToFloat64(exec.MetricQueriesTotal.WithLabelValues("select", "error")))
}

func TestBGPStarJoinRoutesThroughWCOJ(t *testing.T) {
	ex, d, qs := newExecutor(t)
	age := term.IRI("http://example.org/age")
	insert(t, d, qs, ex1, name, term.NewString("Alice"))
	insert(t, d, qs, ex1, age, term.NewString("30"))
	insert(t, d, qs, ex1, knows, ex2)

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("p"), name, term.Variable("n")),
		tp(term.Variable("p"), age, term.Variable("a")),
		tp(term.Variable("p"), knows, term.Variable("k")),
	}}
	it := ex.Run(context.Background(), plan, binding.Binding{})
	var rows []binding.Binding
	for it.Next() {
		rows = append(rows, it.Binding())
	}
	require.NoError(t, it.Err())
	require.Len(t, rows, 1)

	require.NotNil(t, ex.LastPlan)
	require.Equal(t, optimize.WCOJ, ex.LastPlan.Strategy)
	require.True(t, ex.LastPlan.Star)

	pID, _ := rows[0].Get("p")
	require.Equal(t, d.Intern(ex1), pID)
	kID, _ := rows[0].Get("k")
	require.Equal(t, d.Intern(ex2), kID)
}

func TestRunCancellationStopsBeforeEvaluating(t *testing.T) {
	ex, d, qs := newExecutor(t)
	insert(t, d, qs, ex1, knows, ex2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := algebra.BGP{Patterns: []algebra.TriplePattern{
		tp(term.Variable("s"), knows, term.Variable("o")),
	}}
	it := ex.Run(ctx, plan, binding.Binding{})
	require.False(t, it.Next())
	require.Error(t, it.Err())
}

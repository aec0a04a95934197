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

package sexpr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/kv/memkv"
	"github.com/quadkit/quadkit/sexpr"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/update"
)

func prefixes() sexpr.Prefixes {
	return sexpr.Prefixes{"": "http://example.org/"}
}

func TestReadRoundTrip(t *testing.T) {
	n, err := sexpr.Read(`(select (bgp (tp ?s :knows ?o)))`)
	require.NoError(t, err)
	require.False(t, n.IsAtom)
	require.Equal(t, "select", n.List[0].Atom)
}

func TestBalancedDetectsIncompleteInput(t *testing.T) {
	require.False(t, sexpr.Balanced(`(select (bgp`))
	require.True(t, sexpr.Balanced(`(select (bgp (tp ?s :knows ?o)))`))
	require.True(t, sexpr.Balanced(``)) // empty input is trivially balanced
}

func TestBuildQuerySelectBGP(t *testing.T) {
	qf, err := sexpr.BuildQuery(`(select (bgp (tp ?s :knows ?o)))`, prefixes())
	require.NoError(t, err)
	sel, ok := qf.(algebra.Select)
	require.True(t, ok)
	bgp, ok := sel.Plan.(algebra.BGP)
	require.True(t, ok)
	require.Len(t, bgp.Patterns, 1)
	require.Equal(t, term.Variable("s"), bgp.Patterns[0].S)
	require.Equal(t, term.IRI("http://example.org/knows"), bgp.Patterns[0].P)
}

func TestBuildQueryAskWithFilter(t *testing.T) {
	qf, err := sexpr.BuildQuery(`(ask (filter (= ?age 30) (bgp (tp ?s :age ?age))))`, prefixes())
	require.NoError(t, err)
	ask, ok := qf.(algebra.Ask)
	require.True(t, ok)
	filter, ok := ask.Plan.(algebra.Filter)
	require.True(t, ok)
	cmp, ok := filter.Expr.(algebra.ExprCompare)
	require.True(t, ok)
	require.Equal(t, algebra.CmpEq, cmp.Op)
}

func TestBuildUpdateInsertData(t *testing.T) {
	op, err := sexpr.BuildUpdate(`(insert-data (tp :alice :knows :bob))`, prefixes())
	require.NoError(t, err)
	ins, ok := op.(algebra.InsertData)
	require.True(t, ok)
	require.Len(t, ins.Quads, 1)
	require.Equal(t, term.IRI("http://example.org/alice"), ins.Quads[0].S)
}

func TestSessionExecutesQueryAndUpdate(t *testing.T) {
	d := dict.New()
	qs := store.New(memkv.New())
	ex := exec.New(qs, d, nil)
	up := update.New(qs, d, ex)
	sess := sexpr.NewSession(ex, up)
	sess.Prefixes[""] = "http://example.org/"

	ctx := context.Background()
	_, err := sess.Execute(ctx, `(insert-data (tp :alice :knows :bob))`)
	require.NoError(t, err)

	res, err := sess.Execute(ctx, `(select (bgp (tp ?s :knows ?o)))`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
}

func TestSessionParseFlagsIncompleteInput(t *testing.T) {
	sess := sexpr.NewSession(nil, nil)
	require.ErrorIs(t, sess.Parse(`(select (bgp`), sexpr.ErrIncomplete)
	require.NoError(t, sess.Parse(`(select (bgp (tp ?s ?p ?o)))`))
}

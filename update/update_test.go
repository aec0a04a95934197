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

package update_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/kv/memkv"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/update"
)

const (
	alice = term.IRI("http://example.org/alice")
	bob   = term.IRI("http://example.org/bob")
	knows = term.IRI("http://example.org/knows")
	g1    = term.IRI("http://example.org/g1")
	g2    = term.IRI("http://example.org/g2")
)

func newUpdateExecutor(t *testing.T) (*update.Executor, *dict.Dictionary, *store.QuadStore) {
	t.Helper()
	d := dict.New()
	qs := store.New(memkv.New())
	qex := exec.New(qs, d, nil)
	return update.New(qs, d, qex), d, qs
}

func TestInsertDataThenAsk(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.InsertData{Quads: []algebra.QuadData{{S: alice, P: knows, O: bob}}},
	}, update.BestEffort)
	require.NoError(t, err)

	ok, err := qs.Ask(term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteDataOnAbsentQuadIsNoOp(t *testing.T) {
	ux, _, _ := newUpdateExecutor(t)
	ctx := context.Background()

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.DeleteData{Quads: []algebra.QuadData{{S: alice, P: knows, O: bob}}},
	}, update.BestEffort)
	require.NoError(t, err)
}

func TestBestEffortContinuesPastFailureAndReportsBatchError(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	ops := []algebra.UpdateOp{
		algebra.InsertData{Quads: []algebra.QuadData{{S: alice, P: knows, O: bob}}},
		algebra.Drop{Graph: algebra.GraphRef{IRI: g1}}, // g1 has no quads -> fails
		algebra.InsertData{Quads: []algebra.QuadData{{S: bob, P: knows, O: alice}}},
	}
	err := ux.ApplyBatch(ctx, ops, update.BestEffort)
	require.Error(t, err)
	var batchErr *update.BatchError
	require.True(t, errors.As(err, &batchErr))
	require.Len(t, batchErr.Failures, 1)
	require.Equal(t, 1, batchErr.Failures[0].Index)

	// both InsertData statements (0 and 2) still applied despite statement 1 failing.
	ok, err := qs.Ask(term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = qs.Ask(term.Quad{S: d.Intern(bob), P: d.Intern(knows), O: d.Intern(alice)})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDropSilentOnMissingGraphSucceeds(t *testing.T) {
	ux, _, _ := newUpdateExecutor(t)
	ctx := context.Background()

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.Drop{Graph: algebra.GraphRef{IRI: g1}, Silent: true},
	}, update.BestEffort)
	require.NoError(t, err)
}

func TestDropNonSilentOnMissingGraphFails(t *testing.T) {
	ux, _, _ := newUpdateExecutor(t)
	ctx := context.Background()

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.Drop{Graph: algebra.GraphRef{IRI: g1}},
	}, update.Transactional)
	require.Error(t, err)
	require.True(t, errors.Is(err, kgerr.ErrGraphNotFound))
}

func TestClearRemovesOnlyTargetedGraph(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	q1 := term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob), G: d.Intern(g1)}
	q2 := term.Quad{S: d.Intern(bob), P: d.Intern(knows), O: d.Intern(alice), G: d.Intern(g2)}
	require.NoError(t, qs.Insert(ctx, q1))
	require.NoError(t, qs.Insert(ctx, q2))

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.Clear{Graph: algebra.GraphRef{IRI: g1}},
	}, update.Transactional)
	require.NoError(t, err)

	ok, err := qs.Ask(q1)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = qs.Ask(q2)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCopyGraphOverwritesDestination(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	src := term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob), G: d.Intern(g1)}
	stale := term.Quad{S: d.Intern(bob), P: d.Intern(knows), O: d.Intern(alice), G: d.Intern(g2)}
	require.NoError(t, qs.Insert(ctx, src))
	require.NoError(t, qs.Insert(ctx, stale))

	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{
		algebra.Copy{From: algebra.GraphRef{IRI: g1}, To: algebra.GraphRef{IRI: g2}},
	}, update.BestEffort)
	require.NoError(t, err)

	ok, err := qs.Ask(stale)
	require.NoError(t, err)
	require.False(t, ok)

	copied := term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob), G: d.Intern(g2)}
	ok, err = qs.Ask(copied)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestModifyDeletesThenInsertsFromWhereBinding(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)}))

	modify := algebra.Modify{
		DeleteTemplate: []algebra.ConstructTemplate{
			{S: term.Variable("s"), P: knows, O: term.Variable("o")},
		},
		InsertTemplate: []algebra.ConstructTemplate{
			{S: term.Variable("o"), P: knows, O: term.Variable("s")},
		},
		Where: algebra.BGP{Patterns: []algebra.TriplePattern{
			{S: term.Variable("s"), P: knows, O: term.Variable("o")},
		}},
	}
	err := ux.ApplyBatch(ctx, []algebra.UpdateOp{modify}, update.BestEffort)
	require.NoError(t, err)

	ok, err := qs.Ask(term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = qs.Ask(term.Quad{S: d.Intern(bob), P: d.Intern(knows), O: d.Intern(alice)})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTransactionalFailsFastWithoutApplyingLaterStatements(t *testing.T) {
	ux, d, qs := newUpdateExecutor(t)
	ctx := context.Background()

	ops := []algebra.UpdateOp{
		algebra.Drop{Graph: algebra.GraphRef{IRI: g1}}, // fails: g1 has no quads
		algebra.InsertData{Quads: []algebra.QuadData{{S: alice, P: knows, O: bob}}},
	}
	err := ux.ApplyBatch(ctx, ops, update.Transactional)
	require.Error(t, err)

	ok, err := qs.Ask(term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)})
	require.NoError(t, err)
	require.False(t, ok)
}

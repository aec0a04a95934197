package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/kv/memkv"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
)

func newStore() *store.QuadStore {
	return store.New(memkv.New())
}

func TestInsertAndAsk(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	q := term.Quad{S: 1, P: 2, O: 3, G: 0}
	require.NoError(t, qs.Insert(ctx, q))
	ok, err := qs.Ask(q)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, qs.Size())
}

func TestInsertIsIdempotent(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	q := term.Quad{S: 1, P: 2, O: 3, G: 0}
	require.NoError(t, qs.Insert(ctx, q))
	require.NoError(t, qs.Insert(ctx, q))
	require.EqualValues(t, 1, qs.Size())
}

func TestDeleteRemovesAllIndexes(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	q := term.Quad{S: 1, P: 2, O: 3, G: 0}
	require.NoError(t, qs.Insert(ctx, q))
	require.NoError(t, qs.Delete(ctx, q))
	ok, err := qs.Ask(q)
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 0, qs.Size())

	// deleting an absent quad is a no-op.
	require.NoError(t, qs.Delete(ctx, q))
}

func TestScanByPatternUsesBestIndex(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	quads := []term.Quad{
		{S: 1, P: 10, O: 100, G: 0},
		{S: 1, P: 10, O: 200, G: 0},
		{S: 1, P: 20, O: 300, G: 0},
		{S: 2, P: 10, O: 100, G: 0},
	}
	for _, q := range quads {
		require.NoError(t, qs.Insert(ctx, q))
	}

	it := qs.Scan(ctx, term.Pattern{S: 1, P: 10})
	var got []term.Quad
	for it.Next() {
		got = append(got, it.Quad())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	require.ElementsMatch(t, []term.Quad{
		{S: 1, P: 10, O: 100, G: 0},
		{S: 1, P: 10, O: 200, G: 0},
	}, got)
}

func TestScanUnboundPatternReturnsEverything(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	quads := []term.Quad{
		{S: 1, P: 10, O: 100, G: 0},
		{S: 2, P: 20, O: 200, G: 1},
	}
	for _, q := range quads {
		require.NoError(t, qs.Insert(ctx, q))
	}
	it := qs.Scan(ctx, term.Pattern{})
	var got []term.Quad
	for it.Next() {
		got = append(got, it.Quad())
	}
	require.NoError(t, it.Err())
	require.ElementsMatch(t, quads, got)
}

func TestClearEmptiesStore(t *testing.T) {
	qs := newStore()
	ctx := context.Background()
	require.NoError(t, qs.Insert(ctx, term.Quad{S: 1, P: 2, O: 3, G: 0}))
	require.NoError(t, qs.Clear())
	require.EqualValues(t, 0, qs.Size())
	it := qs.Scan(ctx, term.Pattern{})
	require.False(t, it.Next())
}

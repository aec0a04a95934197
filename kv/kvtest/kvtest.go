// Package kvtest is a conformance suite shared by every kv.Backend
// implementation, grounded on the teacher's graph/kv/kvtest harness: one
// backend-agnostic set of assertions, run once per concrete backend's
// _test.go with a constructor function.
package kvtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/kv"
)

// Factory builds a fresh, empty backend for a single test and returns a
// cleanup function.
type Factory func(t testing.TB) (kv.Backend, func())

// Run executes the shared conformance suite against the backend gen
// produces.
func Run(t *testing.T, gen Factory) {
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, gen) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, gen) })
	t.Run("ScanOrder", func(t *testing.T) { testScanOrder(t, gen) })
	t.Run("PrefixScan", func(t *testing.T) { testPrefixScan(t, gen) })
	t.Run("Clear", func(t *testing.T) { testClear(t, gen) })
	t.Run("Transaction", func(t *testing.T) { testTransaction(t, gen) })
}

func testPutGet(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	v, ok, err := b.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	_, ok, err = b.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func testDelete(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Delete([]byte("a")))
	_, ok, err := b.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok)
	// deleting an absent key is a no-op, not an error.
	require.NoError(t, b.Delete([]byte("a")))
}

func testScanOrder(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	keys := []string{"b", "a", "d", "c"}
	for _, k := range keys {
		require.NoError(t, b.Put([]byte(k), []byte(k)))
	}
	it := b.Scan(nil, nil)
	defer it.Close()
	var got []string
	for it.Next(context.Background()) {
		got = append(got, string(it.Entry().Key))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func testPrefixScan(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	for _, k := range []string{"p/1", "p/2", "q/1"} {
		require.NoError(t, b.Put([]byte(k), []byte(k)))
	}
	it := b.PrefixScan([]byte("p/"))
	defer it.Close()
	var got []string
	for it.Next(context.Background()) {
		got = append(got, string(it.Entry().Key))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"p/1", "p/2"}, got)
}

func testClear(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Clear())
	_, ok, err := b.Get([]byte("a"))
	require.NoError(t, err)
	require.False(t, ok)
}

func testTransaction(t *testing.T, gen Factory) {
	b, done := gen(t)
	defer done()
	err := kv.WithTransaction(b, func(tx kv.Tx) error {
		return tx.Put([]byte("a"), []byte("1"))
	})
	require.NoError(t, err)
	v, ok, err := b.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	// a failing transaction rolls back cleanly.
	wantErr := errors.New("boom")
	err = kv.WithTransaction(b, func(tx kv.Tx) error {
		_ = tx.Put([]byte("b"), []byte("2"))
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	_, ok, err = b.Get([]byte("b"))
	require.NoError(t, err)
	require.False(t, ok)
}

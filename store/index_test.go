package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/term"
)

func TestEncodeDecodeKeyRoundTrips(t *testing.T) {
	q := term.Quad{S: 1, P: 2, O: 300000, G: 4}
	for _, k := range allIndexes {
		key := encodeKey(k, q)
		got, ok := decodeKey(k, key)
		require.True(t, ok)
		require.Equal(t, q, got)
	}
}

func TestVarintPreservesLexicographicOrder(t *testing.T) {
	ids := []uint64{0, 1, 127, 128, 255, 256, 65535, 65536, 1 << 40}
	var prev []byte
	for _, id := range ids {
		var buf []byte
		buf = appendVarint(buf, id)
		if prev != nil {
			require.True(t, lessBytes(prev, buf), "expected %v < %v for ids", prev, buf)
		}
		prev = buf
	}
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func TestChooseIndexPrefersMoreLeadingFixedPositions(t *testing.T) {
	k, n := chooseIndex(term.Pattern{S: 1, P: 2})
	require.Equal(t, indexSPOG, k)
	require.Equal(t, 2, n)

	k, n = chooseIndex(term.Pattern{P: 1, O: 2, G: 3})
	require.Equal(t, indexPOGS, k)
	require.Equal(t, 3, n)

	k, n = chooseIndex(term.Pattern{O: 1})
	require.Equal(t, indexOSPG, k)
	require.Equal(t, 1, n)

	k, n = chooseIndex(term.Pattern{G: 1})
	require.Equal(t, indexGSPO, k)
	require.Equal(t, 1, n)
}

func TestChooseIndexTieBreaksBySPOGPriority(t *testing.T) {
	k, n := chooseIndex(term.Pattern{})
	require.Equal(t, indexSPOG, k)
	require.Equal(t, 0, n)
}

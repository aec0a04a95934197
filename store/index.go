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

package store

import (
	"encoding/binary"

	"github.com/quadkit/quadkit/term"
)

// indexKind names one of the four permuted orderings the store maintains.
type indexKind byte

const (
	indexSPOG indexKind = 0x01
	indexPOGS indexKind = 0x02
	indexOSPG indexKind = 0x03
	indexGSPO indexKind = 0x04
)

// permutation lists, for an indexKind, which quad direction occupies each
// position of the encoded key, outermost first.
var permutations = map[indexKind][4]term.Direction{
	indexSPOG: {term.Subject, term.Predicate, term.Object, term.Graph},
	indexPOGS: {term.Predicate, term.Object, term.Graph, term.Subject},
	indexOSPG: {term.Object, term.Subject, term.Predicate, term.Graph},
	indexGSPO: {term.Graph, term.Subject, term.Predicate, term.Object},
}

var allIndexes = [4]indexKind{indexSPOG, indexPOGS, indexOSPG, indexGSPO}

func (k indexKind) String() string {
	switch k {
	case indexSPOG:
		return "SPOG"
	case indexPOGS:
		return "POGS"
	case indexOSPG:
		return "OSPG"
	case indexGSPO:
		return "GSPO"
	default:
		return "?"
	}
}

// encodeKey renders a quad as this index's key: tag byte followed by the
// four IDs in permuted order, each as an unsigned big-endian-ordered
// varint (so lexicographic byte order matches numeric order, per §6's
// persisted layout).
func encodeKey(k indexKind, q term.Quad) []byte {
	perm := permutations[k]
	buf := make([]byte, 1, 1+4*binary.MaxVarintLen64)
	buf[0] = byte(k)
	for _, dir := range perm {
		buf = appendVarint(buf, uint64(q.Get(dir)))
	}
	return buf
}

// encodePrefix renders the key prefix fixing only the leading n positions
// of the permutation (n may be 0..4), used with prefix_scan.
func encodePrefix(k indexKind, q term.Quad, n int) []byte {
	perm := permutations[k]
	buf := make([]byte, 1, 1+4*binary.MaxVarintLen64)
	buf[0] = byte(k)
	for i := 0; i < n; i++ {
		buf = appendVarint(buf, uint64(q.Get(perm[i])))
	}
	return buf
}

// appendVarint encodes v as a length-prefixed big-endian varint: one byte
// giving the number of significant bytes, followed by those bytes
// big-endian. This keeps byte-lexicographic order equal to numeric order,
// which encoding/binary's native (little-endian-ish) uvarint does not
// guarantee on its own.
func appendVarint(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	n := 8 - i
	buf = append(buf, byte(n))
	buf = append(buf, tmp[i:]...)
	return buf
}

// decodeKey parses a key produced by encodeKey back into a quad, given the
// index kind the key was encoded with (the caller reads the tag byte to
// learn it).
func decodeKey(k indexKind, key []byte) (term.Quad, bool) {
	if len(key) == 0 || indexKind(key[0]) != k {
		return term.Quad{}, false
	}
	perm := permutations[k]
	var q term.Quad
	pos := key[1:]
	for _, dir := range perm {
		v, rest, ok := readVarint(pos)
		if !ok {
			return term.Quad{}, false
		}
		setDir(&q, dir, term.ID(v))
		pos = rest
	}
	return q, true
}

func readVarint(b []byte) (uint64, []byte, bool) {
	if len(b) == 0 {
		return 0, nil, false
	}
	n := int(b[0])
	b = b[1:]
	if n > 8 || len(b) < n {
		return 0, nil, false
	}
	var tmp [8]byte
	copy(tmp[8-n:], b[:n])
	return binary.BigEndian.Uint64(tmp[:]), b[n:], true
}

func setDir(q *term.Quad, d term.Direction, id term.ID) {
	switch d {
	case term.Subject:
		q.S = id
	case term.Predicate:
		q.P = id
	case term.Object:
		q.O = id
	case term.Graph:
		q.G = id
	}
}

// chooseIndex implements §4.3's selection rule: maximise the number of
// leading fixed positions in the pattern, tie-breaking SPOG > POGS > OSPG
// > GSPO. Returns the chosen index and how many of its leading positions
// the pattern fixes.
func chooseIndex(p term.Pattern) (indexKind, int) {
	best := indexSPOG
	bestN := -1
	for _, k := range allIndexes {
		perm := permutations[k]
		n := 0
		for _, dir := range perm {
			if !p.Bound(dir) {
				break
			}
			n++
		}
		if n > bestN {
			bestN = n
			best = k
		}
	}
	return best, bestN
}

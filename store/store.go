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

// Package store is the quad store: the four-index layout of §4.3, a
// bloom-filter fronted existence check grounded on the teacher's
// graph/kv/quadstore.go and graph/kv/indexing.go, and pattern-directed
// scanning.
package store

import (
	"context"
	"sync"

	boom "github.com/tylertreat/BoomFilters"

	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/term"
)

// QuadStore maintains the four permuted indexes over a kv.Backend.
type QuadStore struct {
	db kv.Backend

	writer sync.Mutex

	existsMu sync.Mutex
	exists   *boom.DeletableBloomFilter

	size int64
}

// New wraps backend with the four-index quad layout. The existence bloom
// filter is sized 1,000,000/20/0.01 (the teacher's 100M/0.05 default, scaled
// down here since this is an embeddable core, not a server sized for a
// pre-provisioned dataset); it and the size counter are seeded from any
// quads the backend already holds.
func New(db kv.Backend) *QuadStore {
	qs := &QuadStore{
		db:     db,
		exists: boom.NewDeletableBloomFilter(1_000_000, 20, 0.01),
	}
	it := db.PrefixScan(encodePrefix(indexSPOG, term.Quad{}, 0))
	defer it.Close()
	for it.Next(context.Background()) {
		if q, ok := decodeKey(indexSPOG, it.Entry().Key); ok {
			qs.exists.Add(bloomKey(q))
			qs.size++
		}
	}
	return qs
}

// Size reports the number of quads currently stored.
func (qs *QuadStore) Size() int64 {
	return qs.size
}

func bloomKey(q term.Quad) []byte {
	return encodeKey(indexSPOG, q)
}

// Insert writes all four index keys for q. Idempotent: re-inserting an
// already-present quad is a no-op against the size counter.
func (qs *QuadStore) Insert(ctx context.Context, q term.Quad) error {
	qs.writer.Lock()
	defer qs.writer.Unlock()

	if qs.probablyExists(q) {
		present, err := qs.hasQuad(q)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
	}

	err := kv.WithTransaction(qs.db, func(tx kv.Tx) error {
		for _, k := range allIndexes {
			if err := tx.Put(encodeKey(k, q), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	qs.size++
	qs.rememberExists(q)
	if clog.V(3) {
		clog.Infof("store: inserted quad s=%d p=%d o=%d g=%d", q.S, q.P, q.O, q.G)
	}
	return nil
}

// Delete removes all four index keys for q. A no-op if q is absent.
func (qs *QuadStore) Delete(ctx context.Context, q term.Quad) error {
	qs.writer.Lock()
	defer qs.writer.Unlock()

	present, err := qs.hasQuad(q)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}

	err = kv.WithTransaction(qs.db, func(tx kv.Tx) error {
		for _, k := range allIndexes {
			if err := tx.Delete(encodeKey(k, q)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	qs.size--
	qs.forgetExists(q)
	return nil
}

func (qs *QuadStore) probablyExists(q term.Quad) bool {
	qs.existsMu.Lock()
	defer qs.existsMu.Unlock()
	return qs.exists.Test(bloomKey(q))
}

func (qs *QuadStore) rememberExists(q term.Quad) {
	qs.existsMu.Lock()
	defer qs.existsMu.Unlock()
	qs.exists.Add(bloomKey(q))
}

func (qs *QuadStore) forgetExists(q term.Quad) {
	qs.existsMu.Lock()
	defer qs.existsMu.Unlock()
	qs.exists.TestAndRemove(bloomKey(q))
}

// hasQuad is a direct backend existence check (the bloom filter only
// short-circuits the common "definitely absent" case on Insert and Ask;
// membership still needs a real key lookup).
func (qs *QuadStore) hasQuad(q term.Quad) (bool, error) {
	_, ok, err := qs.db.Get(encodeKey(indexSPOG, q))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Ask reports whether a fully-bound quad exists in the store, consulting
// the bloom filter first to avoid a backend read on a definite miss.
func (qs *QuadStore) Ask(q term.Quad) (bool, error) {
	if !qs.probablyExists(q) {
		return false, nil
	}
	return qs.hasQuad(q)
}

// Scan returns a lazy sequence of quads matching pattern, choosing the
// index whose leading fixed positions are longest per §4.3.
func (qs *QuadStore) Scan(ctx context.Context, pattern term.Pattern) *Iterator {
	kind, n := chooseIndex(pattern)
	template := term.Quad{S: pattern.S, P: pattern.P, O: pattern.O, G: pattern.G}
	prefix := encodePrefix(kind, template, n)
	if clog.V(4) {
		clog.Infof("store: scanning index %v with %d leading fixed positions", kind, n)
	}
	return &Iterator{
		ctx:     ctx,
		inner:   qs.db.PrefixScan(prefix),
		kind:    kind,
		pattern: pattern,
	}
}

// Iterator decodes raw backend entries back into quads and filters out any
// positions the chosen index's prefix did not already pin.
type Iterator struct {
	ctx     context.Context
	inner   kv.Iterator
	kind    indexKind
	pattern term.Pattern
	cur     term.Quad
	err     error
}

func (it *Iterator) Next() bool {
	for it.inner.Next(it.ctx) {
		q, ok := decodeKey(it.kind, it.inner.Entry().Key)
		if !ok {
			continue
		}
		if !it.pattern.Matches(q) {
			continue
		}
		it.cur = q
		return true
	}
	it.err = it.inner.Err()
	return false
}

func (it *Iterator) Quad() term.Quad { return it.cur }
func (it *Iterator) Err() error      { return it.err }
func (it *Iterator) Close() error    { return it.inner.Close() }

// Graphs returns the distinct graph ids currently in use, including
// term.None for the default graph if it holds any quads. Used by the
// executor to enumerate GRAPH ?g over an unbound graph variable.
func (qs *QuadStore) Graphs(ctx context.Context) ([]term.ID, error) {
	it := qs.Scan(ctx, term.Pattern{})
	defer it.Close()
	seen := make(map[term.ID]bool)
	var out []term.ID
	for it.Next() {
		g := it.Quad().G
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out, it.Err()
}

// SupportsTransactions reports whether the underlying backend can honor a
// multi-statement atomic batch (used by the update executor's transactional
// policy, §4.9).
func (qs *QuadStore) SupportsTransactions() bool {
	tx, err := qs.db.Begin(true)
	if err != nil {
		return false
	}
	_ = tx.Rollback()
	return true
}

// ApplyBatch writes deletes then inserts as one backend transaction,
// grounded on the teacher's graph/kv.ApplyDeltas convention of committing a
// whole delta set atomically. Returns UnsupportedOperation if the backend
// doesn't support transactions; callers needing a best-effort fallback
// should call Insert/Delete individually instead.
func (qs *QuadStore) ApplyBatch(ctx context.Context, deletes, inserts []term.Quad) error {
	qs.writer.Lock()
	defer qs.writer.Unlock()

	var removed, added []term.Quad
	err := kv.WithTransaction(qs.db, func(tx kv.Tx) error {
		for _, q := range deletes {
			if _, ok, err := tx.Get(encodeKey(indexSPOG, q)); err != nil {
				return err
			} else if !ok {
				continue
			}
			removed = append(removed, q)
			for _, k := range allIndexes {
				if err := tx.Delete(encodeKey(k, q)); err != nil {
					return err
				}
			}
		}
		for _, q := range inserts {
			if _, ok, err := tx.Get(encodeKey(indexSPOG, q)); err != nil {
				return err
			} else if ok {
				continue
			}
			added = append(added, q)
			for _, k := range allIndexes {
				if err := tx.Put(encodeKey(k, q), []byte{}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, q := range removed {
		qs.size--
		qs.forgetExists(q)
	}
	for _, q := range added {
		qs.size++
		qs.rememberExists(q)
	}
	return nil
}

// Clear empties the store and resets the existence filter.
func (qs *QuadStore) Clear() error {
	qs.writer.Lock()
	defer qs.writer.Unlock()
	if err := qs.db.Clear(); err != nil {
		return err
	}
	qs.existsMu.Lock()
	qs.exists = boom.NewDeletableBloomFilter(1_000_000, 20, 0.01)
	qs.existsMu.Unlock()
	qs.size = 0
	return nil
}

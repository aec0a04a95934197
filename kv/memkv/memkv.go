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

// Package memkv is the volatile, in-process kv.Backend, grounded on the
// teacher's graph/kv/btree backend. It keeps an ordered slice of keys
// alongside a map of values; readers get a copy-on-write snapshot taken at
// Begin time, matching the §5 "in-memory backend's copy-on-write semantics"
// ordering guarantee without an external dependency -- there's no ecosystem
// library in the pack for a plain sorted in-memory byte-keyed map that beats
// the standard library's sort.Search here.
package memkv

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/kv"
)

const Type = "memory"

func init() {
	kv.Register(Type, kv.Registration{
		Open: func(string, map[string]interface{}) (kv.Backend, error) {
			return New(), nil
		},
		IsPersistent: false,
	})
}

// snapshot is an immutable, sorted view of the store. Writes never mutate a
// snapshot in place; they build a new one and swap it in, which is what
// gives concurrent readers a consistent view for the life of their scan.
type snapshot struct {
	keys [][]byte
	vals map[string][]byte
}

func (s *snapshot) find(key []byte) int {
	return sort.Search(len(s.keys), func(i int) bool {
		return bytes.Compare(s.keys[i], key) >= 0
	})
}

func emptySnapshot() *snapshot {
	return &snapshot{vals: make(map[string][]byte)}
}

// DB is a volatile in-memory Backend.
type DB struct {
	mu   sync.Mutex
	snap *snapshot
}

// New returns an empty in-memory backend.
func New() *DB { return &DB{snap: emptySnapshot()} }

func (db *DB) load() *snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.snap
}

func (db *DB) Get(key []byte) ([]byte, bool, error) {
	s := db.load()
	v, ok := s.vals[string(key)]
	return v, ok, nil
}

func (db *DB) Put(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.snap = putInto(db.snap, key, value)
	return nil
}

func (db *DB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.snap = deleteFrom(db.snap, key)
	return nil
}

func (db *DB) Clear() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.snap = emptySnapshot()
	return nil
}

func (db *DB) Close() error { return nil }

func putInto(s *snapshot, key, value []byte) *snapshot {
	i := s.find(key)
	next := &snapshot{vals: make(map[string][]byte, len(s.vals)+1)}
	for k, v := range s.vals {
		next.vals[k] = v
	}
	next.vals[string(key)] = value
	if i < len(s.keys) && bytes.Equal(s.keys[i], key) {
		next.keys = append(next.keys[:0:0], s.keys...)
	} else {
		next.keys = make([][]byte, 0, len(s.keys)+1)
		next.keys = append(next.keys, s.keys[:i]...)
		next.keys = append(next.keys, append([]byte(nil), key...))
		next.keys = append(next.keys, s.keys[i:]...)
	}
	return next
}

func deleteFrom(s *snapshot, key []byte) *snapshot {
	i := s.find(key)
	if i >= len(s.keys) || !bytes.Equal(s.keys[i], key) {
		return s
	}
	next := &snapshot{vals: make(map[string][]byte, len(s.vals))}
	for k, v := range s.vals {
		if k != string(key) {
			next.vals[k] = v
		}
	}
	next.keys = make([][]byte, 0, len(s.keys)-1)
	next.keys = append(next.keys, s.keys[:i]...)
	next.keys = append(next.keys, s.keys[i+1:]...)
	return next
}

func (db *DB) Scan(start, end []byte) kv.Iterator {
	s := db.load()
	lo := s.find(start)
	hi := len(s.keys)
	if end != nil {
		hi = s.find(end)
	}
	return &iter{snap: s, i: lo - 1, hi: hi}
}

func (db *DB) PrefixScan(prefix []byte) kv.Iterator {
	s := db.load()
	lo := s.find(prefix)
	end := append(append([]byte(nil), prefix...))
	end = incrementPrefix(end)
	hi := len(s.keys)
	if end != nil {
		hi = s.find(end)
	}
	return &iter{snap: s, i: lo - 1, hi: hi}
}

// incrementPrefix returns the smallest byte string greater than every
// string with the given prefix, or nil if prefix is all 0xff (meaning
// "scan to the end").
func incrementPrefix(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

type iter struct {
	snap *snapshot
	i    int
	hi   int
}

func (it *iter) Next(ctx context.Context) bool {
	it.i++
	return it.i < it.hi && it.i < len(it.snap.keys)
}
func (it *iter) Entry() kv.Entry {
	k := it.snap.keys[it.i]
	return kv.Entry{Key: k, Value: it.snap.vals[string(k)]}
}
func (it *iter) Err() error   { return nil }
func (it *iter) Close() error { return nil }

// Begin opens a transaction. Read-only transactions pin the snapshot taken
// at Begin time, giving repeatable reads for their lifetime. Writable
// transactions buffer Put/Delete and apply them atomically on Commit.
func (db *DB) Begin(writable bool) (kv.Tx, error) {
	if !writable {
		return &tx{db: db, ro: true, base: db.load()}, nil
	}
	db.mu.Lock()
	return &tx{db: db, base: db.snap, held: true}, nil
}

type op struct {
	del        bool
	key, value []byte
}

type tx struct {
	db     *DB
	ro     bool
	held   bool
	base   *snapshot
	work   *snapshot
	ops    []op
	closed bool
}

func (t *tx) view() *snapshot {
	if t.work != nil {
		return t.work
	}
	return t.base
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	v, ok := t.view().vals[string(key)]
	return v, ok, nil
}

func (t *tx) Put(key, value []byte) error {
	if t.ro {
		return &kgerr.UnsupportedOperation{What: "write in read-only transaction"}
	}
	t.work = putInto(t.view(), key, value)
	return nil
}

func (t *tx) Delete(key []byte) error {
	if t.ro {
		return &kgerr.UnsupportedOperation{What: "delete in read-only transaction"}
	}
	t.work = deleteFrom(t.view(), key)
	return nil
}

func (t *tx) Clear() error {
	if t.ro {
		return &kgerr.UnsupportedOperation{What: "clear in read-only transaction"}
	}
	t.work = emptySnapshot()
	return nil
}

func (t *tx) Scan(start, end []byte) kv.Iterator {
	s := t.view()
	lo := s.find(start)
	hi := len(s.keys)
	if end != nil {
		hi = s.find(end)
	}
	return &iter{snap: s, i: lo - 1, hi: hi}
}

func (t *tx) PrefixScan(prefix []byte) kv.Iterator {
	s := t.view()
	lo := s.find(prefix)
	end := incrementPrefix(append([]byte(nil), prefix...))
	hi := len(s.keys)
	if end != nil {
		hi = s.find(end)
	}
	return &iter{snap: s, i: lo - 1, hi: hi}
}

func (t *tx) Close() error { return nil }

func (t *tx) Begin(writable bool) (kv.Tx, error) {
	return nil, &kgerr.UnsupportedOperation{What: "nested transactions"}
}

func (t *tx) Commit() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if t.held {
		defer t.db.mu.Unlock()
		if t.work != nil {
			t.db.snap = t.work
		}
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if t.held {
		t.db.mu.Unlock()
	}
	return nil
}

var _ kv.Backend = (*DB)(nil)
var _ kv.Tx = (*tx)(nil)

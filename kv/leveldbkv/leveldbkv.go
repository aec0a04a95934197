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

// Package leveldbkv is a persistent kv.Backend over syndtr/goleveldb,
// grounded on the teacher's graph/kv/leveldb backend.
package leveldbkv

import (
	"context"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/kv"
)

const Type = "leveldb"

func init() {
	kv.Register(Type, kv.Registration{
		Open: func(path string, _ map[string]interface{}) (kv.Backend, error) {
			return Open(path)
		},
		IsPersistent: true,
	})
}

// Open creates dir if needed and opens (or creates) a leveldb database inside it.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	ldb, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	return &DB{db: ldb}, nil
}

type DB struct {
	db *leveldb.DB
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Get(key []byte) ([]byte, bool, error) {
	v, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	return v, true, nil
}

func (d *DB) Put(key, value []byte) error {
	return kgerr.NewBackendError(d.db.Put(key, value, nil))
}

func (d *DB) Delete(key []byte) error {
	return kgerr.NewBackendError(d.db.Delete(key, nil))
}

func (d *DB) Clear() error {
	it := d.db.NewIterator(nil, nil)
	defer it.Release()
	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return kgerr.NewBackendError(err)
	}
	return kgerr.NewBackendError(d.db.Write(batch, nil))
}

func (d *DB) Scan(start, end []byte) kv.Iterator {
	rng := &util.Range{Start: start, Limit: end}
	return newIter(d.db.NewIterator(rng, nil))
}

func (d *DB) PrefixScan(prefix []byte) kv.Iterator {
	return newIter(d.db.NewIterator(util.BytesPrefix(prefix), nil))
}

func (d *DB) Begin(writable bool) (kv.Tx, error) {
	if !writable {
		snap, err := d.db.GetSnapshot()
		if err != nil {
			return nil, kgerr.NewBackendError(err)
		}
		return &tx{snap: snap}, nil
	}
	ltx, err := d.db.OpenTransaction()
	if err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	return &tx{ltx: ltx, writable: true}, nil
}

type iter struct {
	it      iterator.Iterator
	started bool
}

func newIter(it iterator.Iterator) *iter { return &iter{it: it} }

func (it *iter) Next(ctx context.Context) bool {
	if !it.started {
		it.started = true
		return it.it.First()
	}
	return it.it.Next()
}
func (it *iter) Entry() kv.Entry {
	return kv.Entry{Key: append([]byte(nil), it.it.Key()...), Value: append([]byte(nil), it.it.Value()...)}
}
func (it *iter) Err() error { return it.it.Error() }
func (it *iter) Close() error {
	it.it.Release()
	return it.it.Error()
}

type tx struct {
	snap     *leveldb.Snapshot
	ltx      *leveldb.Transaction
	writable bool
	done     bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	var v []byte
	var err error
	if t.writable {
		v, err = t.ltx.Get(key, nil)
	} else {
		v, err = t.snap.Get(key, nil)
	}
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	return v, true, nil
}

func (t *tx) Put(key, value []byte) error {
	if !t.writable {
		return &kgerr.UnsupportedOperation{What: "write in read-only transaction"}
	}
	return t.ltx.Put(key, value, nil)
}

func (t *tx) Delete(key []byte) error {
	if !t.writable {
		return &kgerr.UnsupportedOperation{What: "delete in read-only transaction"}
	}
	return t.ltx.Delete(key, nil)
}

func (t *tx) Clear() error {
	return &kgerr.UnsupportedOperation{What: "clear inside a transaction"}
}

func (t *tx) Scan(start, end []byte) kv.Iterator {
	rng := &util.Range{Start: start, Limit: end}
	if t.writable {
		return newIter(t.ltx.NewIterator(rng, nil))
	}
	return newIter(t.snap.NewIterator(rng, nil))
}

func (t *tx) PrefixScan(prefix []byte) kv.Iterator {
	if t.writable {
		return newIter(t.ltx.NewIterator(util.BytesPrefix(prefix), nil))
	}
	return newIter(t.snap.NewIterator(util.BytesPrefix(prefix), nil))
}

func (t *tx) Close() error { return nil }

func (t *tx) Begin(bool) (kv.Tx, error) {
	return nil, &kgerr.UnsupportedOperation{What: "nested transactions"}
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.writable {
		return t.ltx.Commit()
	}
	t.snap.Release()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.writable {
		t.ltx.Discard()
	} else {
		t.snap.Release()
	}
	return nil
}

var _ kv.Backend = (*DB)(nil)
var _ kv.Tx = (*tx)(nil)

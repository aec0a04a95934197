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

// Package badgerkv is a persistent kv.Backend over dgraph-io/badger,
// grounded on the teacher's graph/kv/badger backend.
package badgerkv

import (
	"bytes"
	"context"
	"os"

	"github.com/dgraph-io/badger"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/kv"
)

const Type = "badger"

func init() {
	kv.Register(Type, kv.Registration{
		Open: func(path string, _ map[string]interface{}) (kv.Backend, error) {
			return Open(path)
		},
		IsPersistent: true,
	})
}

// Open creates dir if needed and opens (or creates) a badger database inside it.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	store, err := badger.Open(opts)
	if err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	return &DB{db: store}, nil
}

type DB struct {
	db     *badger.DB
	closed bool
}

func (d *DB) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *DB) Get(key []byte) ([]byte, bool, error) {
	var v []byte
	var found bool
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		v, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	return v, found, nil
}

func (d *DB) Put(key, value []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Delete(key []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Clear() error {
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, append([]byte(nil), it.Item().Key()...))
		}
		return d.db.Update(func(wtxn *badger.Txn) error {
			for _, k := range keys {
				if err := wtxn.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Scan(start, end []byte) kv.Iterator {
	txn := d.db.NewTransaction(false)
	return newIter(txn, start, end, false, true)
}

func (d *DB) PrefixScan(prefix []byte) kv.Iterator {
	txn := d.db.NewTransaction(false)
	return newIter(txn, prefix, nil, true, true)
}

func (d *DB) Begin(writable bool) (kv.Tx, error) {
	return &tx{txn: d.db.NewTransaction(writable), writable: writable}, nil
}

type iterator struct {
	txn      *badger.Txn
	it       *badger.Iterator
	start    []byte
	end      []byte
	isPrefix bool
	started  bool
	ownsTxn  bool
	err      error
}

func newIter(txn *badger.Txn, start, end []byte, isPrefix, ownsTxn bool) *iterator {
	opts := badger.DefaultIteratorOptions
	return &iterator{txn: txn, it: txn.NewIterator(opts), start: start, end: end, isPrefix: isPrefix, ownsTxn: ownsTxn}
}

func (it *iterator) Next(ctx context.Context) bool {
	if !it.started {
		it.started = true
		if len(it.start) == 0 {
			it.it.Rewind()
		} else {
			it.it.Seek(it.start)
		}
	} else {
		it.it.Next()
	}
	if !it.it.Valid() {
		return false
	}
	if it.isPrefix {
		return it.it.ValidForPrefix(it.start)
	}
	if it.end != nil {
		k := it.it.Item().Key()
		if bytes.Compare(k, it.end) >= 0 {
			return false
		}
	}
	return true
}

func (it *iterator) Entry() kv.Entry {
	item := it.it.Item()
	key := append([]byte(nil), item.Key()...)
	val, err := item.ValueCopy(nil)
	if err != nil {
		it.err = err
	}
	return kv.Entry{Key: key, Value: val}
}
func (it *iterator) Err() error { return it.err }
func (it *iterator) Close() error {
	it.it.Close()
	if it.ownsTxn {
		it.txn.Discard()
	}
	return it.err
}

type tx struct {
	txn      *badger.Txn
	writable bool
	done     bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	item, err := t.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	return v, true, nil
}

func (t *tx) Put(key, value []byte) error {
	if !t.writable {
		return &kgerr.UnsupportedOperation{What: "write in read-only transaction"}
	}
	return t.txn.Set(key, value)
}

func (t *tx) Delete(key []byte) error {
	if !t.writable {
		return &kgerr.UnsupportedOperation{What: "delete in read-only transaction"}
	}
	return t.txn.Delete(key)
}

func (t *tx) Clear() error {
	return &kgerr.UnsupportedOperation{What: "clear inside a transaction"}
}

func (t *tx) Scan(start, end []byte) kv.Iterator {
	return newIter(t.txn, start, end, false, false)
}

func (t *tx) PrefixScan(prefix []byte) kv.Iterator {
	return newIter(t.txn, prefix, nil, true, false)
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
	if !t.writable {
		t.txn.Discard()
		return nil
	}
	return t.txn.Commit(nil)
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.txn.Discard()
	return nil
}

var _ kv.Backend = (*DB)(nil)
var _ kv.Tx = (*tx)(nil)

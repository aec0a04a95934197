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

// Package boltkv is a persistent kv.Backend over go.etcd.io/bbolt, grounded
// on the teacher's graph/kv/bolt2 backend. All index data lives in a single
// top-level bucket; keys already carry the index tag byte (§6), so no
// further bucketing is needed.
package boltkv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/kv"
)

const Type = "bolt"

var rootBucket = []byte("quadkit")

func init() {
	kv.Register(Type, kv.Registration{
		Open: func(path string, _ map[string]interface{}) (kv.Backend, error) {
			return Open(path)
		},
		IsPersistent: true,
	})
}

// Open creates dir if needed and opens (or creates) the bolt file inside it.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	db, err := bolt.Open(filepath.Join(dir, "quadkit.bolt"), 0600, nil)
	if err != nil {
		clog.Errorf("boltkv: open failed: %v", err)
		return nil, kgerr.NewBackendError(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kgerr.NewBackendError(err)
	}
	return &DB{db: db}, nil
}

// DB is a bbolt-backed Backend.
type DB struct {
	db *bolt.DB
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Get(key []byte) ([]byte, bool, error) {
	var v []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		if val := b.Get(key); val != nil {
			v = append([]byte(nil), val...)
		}
		return nil
	})
	if err != nil {
		return nil, false, kgerr.NewBackendError(err)
	}
	return v, v != nil, nil
}

func (d *DB) Put(key, value []byte) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key, value)
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Delete(key []byte) error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key)
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Clear() error {
	err := d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(rootBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(rootBucket)
		return err
	})
	return kgerr.NewBackendError(err)
}

func (d *DB) Scan(start, end []byte) kv.Iterator {
	return d.scan(start, end, false)
}

func (d *DB) PrefixScan(prefix []byte) kv.Iterator {
	return d.scan(prefix, nil, true)
}

func (d *DB) scan(start, end []byte, isPrefix bool) kv.Iterator {
	btx, err := d.db.Begin(false)
	if err != nil {
		return &errIter{err: kgerr.NewBackendError(err)}
	}
	return newCursorIter(btx.Bucket(rootBucket).Cursor(), start, end, isPrefix, btx)
}

func (d *DB) Begin(writable bool) (kv.Tx, error) {
	btx, err := d.db.Begin(writable)
	if err != nil {
		return nil, kgerr.NewBackendError(err)
	}
	return &tx{tx: btx, bucket: btx.Bucket(rootBucket)}, nil
}

type errIter struct{ err error }

func (it *errIter) Next(context.Context) bool { return false }
func (it *errIter) Entry() kv.Entry           { return kv.Entry{} }
func (it *errIter) Err() error                { return it.err }
func (it *errIter) Close() error              { return nil }

type cursorIter struct {
	c        *bolt.Cursor
	start    []byte
	end      []byte
	isPrefix bool
	started  bool
	k, v     []byte
	closeTx  *bolt.Tx
}

func newCursorIter(c *bolt.Cursor, start, end []byte, isPrefix bool, btx *bolt.Tx) *cursorIter {
	return &cursorIter{c: c, start: start, end: end, isPrefix: isPrefix, closeTx: btx}
}

func (it *cursorIter) Next(ctx context.Context) bool {
	if !it.started {
		it.started = true
		if len(it.start) == 0 {
			it.k, it.v = it.c.First()
		} else {
			it.k, it.v = it.c.Seek(it.start)
		}
	} else {
		it.k, it.v = it.c.Next()
	}
	if it.k == nil {
		return false
	}
	if it.isPrefix {
		return bytes.HasPrefix(it.k, it.start)
	}
	if it.end != nil && bytes.Compare(it.k, it.end) >= 0 {
		return false
	}
	return true
}
func (it *cursorIter) Entry() kv.Entry {
	return kv.Entry{Key: append([]byte(nil), it.k...), Value: append([]byte(nil), it.v...)}
}
func (it *cursorIter) Err() error { return nil }
func (it *cursorIter) Close() error {
	if it.closeTx != nil {
		return it.closeTx.Rollback()
	}
	return nil
}

type tx struct {
	tx     *bolt.Tx
	bucket *bolt.Bucket
	done   bool
}

func (t *tx) Get(key []byte) ([]byte, bool, error) {
	v := t.bucket.Get(key)
	if v == nil {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}
func (t *tx) Put(key, value []byte) error {
	if !t.tx.Writable() {
		return &kgerr.UnsupportedOperation{What: "write in read-only transaction"}
	}
	return t.bucket.Put(key, value)
}
func (t *tx) Delete(key []byte) error {
	if !t.tx.Writable() {
		return &kgerr.UnsupportedOperation{What: "delete in read-only transaction"}
	}
	return t.bucket.Delete(key)
}
func (t *tx) Clear() error {
	return &kgerr.UnsupportedOperation{What: "clear inside a transaction"}
}
func (t *tx) Scan(start, end []byte) kv.Iterator {
	return newCursorIter(t.bucket.Cursor(), start, end, false, nil)
}
func (t *tx) PrefixScan(prefix []byte) kv.Iterator {
	return newCursorIter(t.bucket.Cursor(), prefix, nil, true, nil)
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
	return t.tx.Commit()
}
func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

var _ kv.Backend = (*DB)(nil)
var _ kv.Tx = (*tx)(nil)

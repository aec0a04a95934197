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

// Package kv defines the ordered byte-keyed key-value primitive the quad
// store is built on (§4.2), plus a handful of backend implementations. The
// contract is deliberately narrow: Put/Get/Delete, a lexicographic Scan and
// PrefixScan, an optional transactional handle, and Clear. Persistent and
// in-memory backends satisfy the same interface; only durability differs.
package kv

import (
	"bytes"
	"context"
)

// Entry is a single scanned (key, value) pair.
type Entry struct {
	Key, Value []byte
}

// Iterator is a lazy sequence of Entries in ascending key order.
type Iterator interface {
	Next(ctx context.Context) bool
	Entry() Entry
	Err() error
	Close() error
}

// Backend is the narrow ordered byte-KV trait the quad store builds on.
// Implementations must return lexicographic scan order; concurrent readers
// must see a consistent snapshot.
type Backend interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Scan(start, end []byte) Iterator
	PrefixScan(prefix []byte) Iterator
	Clear() error
	Close() error

	// Begin opens a transactional handle with ACID semantics on the
	// handle. Backends that don't support transactions return
	// kgerr.UnsupportedOperation.
	Begin(writable bool) (Tx, error)
}

// Tx is a transactional view over a Backend; it satisfies Backend itself so
// callers can use the same Get/Put/Scan code against either.
type Tx interface {
	Backend
	Commit() error
	Rollback() error
}

// WithTransaction runs fn inside a writable transaction, committing on a
// nil return and rolling back otherwise. If the backend can't begin a
// transaction, Begin's error (UnsupportedOperation for a backend without
// transactions) is returned and fn does not run.
func WithTransaction(b Backend, fn func(tx Tx) error) error {
	tx, err := b.Begin(true)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// HasPrefix reports whether key starts with prefix; a small shared helper
// so backend implementations agree on prefix semantics with the store's own
// prefix-trimming.
func HasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}

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

package exec

import "github.com/quadkit/quadkit/binding"

// Iterator walks a materialized solution sequence, stripping the internal
// graph-context entry before handing rows back to callers.
type Iterator struct {
	rows       []binding.Binding
	err        error
	pos        int
	cur        binding.Binding
	checkEvery int
}

// Next advances to the next solution.
func (it *Iterator) Next() bool {
	if it.err != nil || it.pos >= len(it.rows) {
		return false
	}
	it.cur = stripInternal(it.rows[it.pos])
	it.pos++
	return true
}

// Binding returns the current solution.
func (it *Iterator) Binding() binding.Binding { return it.cur }

// Err returns the first error encountered, if any.
func (it *Iterator) Err() error { return it.err }

// Close releases resources. Since results are already materialized, this
// is a no-op kept for symmetry with store.Iterator.
func (it *Iterator) Close() error { return nil }

func stripInternal(b binding.Binding) binding.Binding {
	if _, ok := b.Get(graphKey); !ok {
		return b
	}
	out := b.Clone()
	delete(out, graphKey)
	return out
}

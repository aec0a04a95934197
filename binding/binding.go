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

// Package binding is the variable-to-term-id mapping that flows through
// the algebra executor (§3's "Binding"). There's no ecosystem immutable-map
// library in the teacher's stack for this; a plain map with copy-on-extend
// is the idiomatic choice and keeps the hot join loops allocation-light.
package binding

import "github.com/quadkit/quadkit/term"

// Binding is a partial mapping from variable name to interned term id. The
// nil/empty Binding is the single solution "true" (arity 0).
type Binding map[string]term.ID

// Get looks up a variable.
func (b Binding) Get(name string) (term.ID, bool) {
	id, ok := b[name]
	return id, ok
}

// Extend returns a new Binding with name bound to id, leaving b untouched.
func (b Binding) Extend(name string, id term.ID) Binding {
	next := make(Binding, len(b)+1)
	for k, v := range b {
		next[k] = v
	}
	next[name] = id
	return next
}

// Clone returns an independent copy.
func (b Binding) Clone() Binding {
	next := make(Binding, len(b))
	for k, v := range b {
		next[k] = v
	}
	return next
}

// Vars lists the bound variable names.
func (b Binding) Vars() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	return out
}

// Compatible reports whether b and other agree on every variable they
// share (the SPARQL join-compatibility test).
func (b Binding) Compatible(other Binding) bool {
	for k, v := range other {
		if ov, ok := b[k]; ok && ov != v {
			return false
		}
	}
	return true
}

// Merge combines b and other, which must be Compatible; the result binds
// every variable either side binds.
func Merge(a, b Binding) Binding {
	next := make(Binding, len(a)+len(b))
	for k, v := range a {
		next[k] = v
	}
	for k, v := range b {
		next[k] = v
	}
	return next
}

// Project restricts a binding to vars, dropping everything else (unbound
// variables are simply absent, matching §6's "bindings do not include
// unselected or unbound variables").
func (b Binding) Project(vars []string) Binding {
	next := make(Binding, len(vars))
	for _, v := range vars {
		if id, ok := b[v]; ok {
			next[v] = id
		}
	}
	return next
}

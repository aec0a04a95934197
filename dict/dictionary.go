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

// Package dict implements the store's term<->id dictionary: the single
// bijection every other component borrows IDs from and re-resolves
// against. Interning is append-only for the lifetime of the store.
package dict

import (
	"strconv"
	"sync"

	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
)

// Dictionary is the store-owned bijection between terms and compact,
// monotonically assigned 64-bit ids. Reads are lock-free once a term has
// been interned (RWMutex read lock only); writes take a short critical
// section to assign the next id.
type Dictionary struct {
	mu      sync.RWMutex
	byKey   map[string]term.ID
	byID    []term.Term // byID[0] is unused (id 0 is reserved)
	quoted  map[string]term.ID
	blanks  uint64
}

// New returns an empty dictionary. IDs start at 1; id 0 is reserved.
func New() *Dictionary {
	return &Dictionary{
		byKey: make(map[string]term.ID),
		byID:  make([]term.Term, 1, 1024),
	}
}

// key computes the map key a term interns under. Structural equality for
// Literal/IRI/BlankNode/Variable is just their N-Triples string form tagged
// by kind, which is cheap and collision-free across term kinds.
func key(t term.Term) string {
	switch v := t.(type) {
	case term.IRI:
		return "I" + string(v)
	case term.BlankNode:
		return "B" + string(v)
	case term.Literal:
		return "L" + v.String()
	case term.Variable:
		return "V" + string(v)
	case term.QuotedTriple:
		return "Q" + v.String()
	default:
		return "?" + t.String()
	}
}

// Intern returns t's id, assigning the next sequential id if t has not been
// seen before. Two interleaved interns of an equal term return the same id;
// quoted triples intern their components first, then the composite, so a
// quoted triple's id is always assigned after its parts.
func (d *Dictionary) Intern(t term.Term) term.ID {
	if qt, ok := t.(term.QuotedTriple); ok {
		// Interning the components first keeps ids ordered: a QuotedTriple's
		// id always sorts after the ids of the terms it contains, which the
		// index encoding relies on for no particular reason but which makes
		// debugging dumps readable in insertion order.
		d.Intern(qt.Subject)
		d.Intern(qt.Predicate)
		d.Intern(qt.Object)
	}
	k := key(t)

	d.mu.RLock()
	if id, ok := d.byKey[k]; ok {
		d.mu.RUnlock()
		return id
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.byKey[k]; ok {
		return id
	}
	id := term.ID(len(d.byID))
	d.byID = append(d.byID, t)
	d.byKey[k] = id
	if clog.V(3) {
		clog.Infof("dict: interned %s as %d", t.String(), id)
	}
	return id
}

// Resolve returns the term that id was assigned to. It fails with
// kgerr.ErrUnknownID for id 0 or any id never assigned by this dictionary.
func (d *Dictionary) Resolve(id term.ID) (term.Term, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id == term.None || uint64(id) >= uint64(len(d.byID)) {
		return nil, kgerr.ErrUnknownID
	}
	return d.byID[id], nil
}

// Contains reports whether t has already been interned, without mutating
// the dictionary.
func (d *Dictionary) Contains(t term.Term) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byKey[key(t)]
	return ok
}

// Len returns the number of interned terms (not counting the reserved id 0).
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID) - 1
}

// NewBlankNode mints a fresh, store-unique blank node. It does not intern
// the result; callers insert it as part of a quad, which interns it.
func (d *Dictionary) NewBlankNode() term.BlankNode {
	d.mu.Lock()
	d.blanks++
	n := d.blanks
	d.mu.Unlock()
	return term.BlankNode("b" + strconv.FormatUint(n, 10))
}

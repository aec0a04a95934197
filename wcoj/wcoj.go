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

// Package wcoj is the worst-case-optimal join kernel (§4.7): LeapFrog
// TrieJoin over the quad store's sorted indexes, used in place of a
// nested-loop join for BGPs whose shared variables form a star or a cycle.
//
// The store has no precomputed per-pattern trie; instead each level of the
// join descends by issuing a fresh prefix scan against the index the
// pattern's already-bound positions select, and reads off the sorted,
// deduplicated set of candidate values for the variable currently being
// solved. That set stands in for the trie's "children at this depth". This
// is functionally equivalent to a LeapFrog TrieJoin for an in-memory-sized
// result (each candidate list is already in index order, so no separate
// sort step is needed) at the cost of repeating a pattern's prefix descent
// across sibling branches of the recursion rather than caching one trie
// object for the whole evaluation.
package wcoj

import (
	"context"
	"sort"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
)

// Var names the variable bound at a pattern's wildcard position.
type Var struct {
	Dir  term.Direction
	Name string
}

// Pattern is one BGP triple pattern with its constants already resolved
// against the binding the BGP is being evaluated under: Fixed pins every
// position already known (term.None marks a wildcard), and Vars names the
// variable occupying each wildcard position.
type Pattern struct {
	Fixed term.Pattern
	Vars  []Var
}

func (p Pattern) dirOf(name string) (term.Direction, bool) {
	for _, v := range p.Vars {
		if v.Name == name {
			return v.Dir, true
		}
	}
	return term.Any, false
}

// Eval runs the LeapFrog TrieJoin over patterns and returns one map per
// solution, each holding only the variables patterns introduces (callers
// merge these into their own binding representation). cancelled is polled
// every checkEvery recursion steps; checkEvery <= 0 disables the check.
func Eval(ctx context.Context, qs *store.QuadStore, patterns []Pattern, cancelled func() bool, checkEvery int) ([]map[string]term.ID, error) {
	var joined []Pattern
	for _, p := range patterns {
		if len(p.Vars) != 0 {
			joined = append(joined, p)
			continue
		}
		// A pattern with every position already resolved is a ground
		// existence check: it constrains nothing further, but if it's
		// absent the whole BGP yields no solutions.
		ok, err := qs.Ask(term.Quad{S: p.Fixed.S, P: p.Fixed.P, O: p.Fixed.O, G: p.Fixed.G})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}
	if len(joined) == 0 {
		return []map[string]term.ID{{}}, nil
	}

	order := chooseVariableOrder(joined)
	steps := 0
	var results []map[string]term.ID
	bound := make(map[string]term.ID, len(order))

	var recurse func(level int) error
	recurse = func(level int) error {
		steps++
		if checkEvery > 0 && steps%checkEvery == 0 && cancelled != nil && cancelled() {
			return kgerr.ErrCancelled
		}
		if level == len(order) {
			cp := make(map[string]term.ID, len(bound))
			for k, v := range bound {
				cp[k] = v
			}
			results = append(results, cp)
			return nil
		}

		v := order[level]
		var lists [][]term.ID
		var owners []Pattern
		for _, p := range joined {
			if _, ok := p.dirOf(v); ok {
				owners = append(owners, p)
			}
		}
		for _, p := range owners {
			vals, err := candidates(ctx, qs, p, bound, v)
			if err != nil {
				return err
			}
			lists = append(lists, vals)
		}

		for _, val := range leapfrogIntersect(lists) {
			bound[v] = val
			if err := recurse(level + 1); err != nil {
				delete(bound, v)
				return err
			}
		}
		delete(bound, v)
		return nil
	}
	if err := recurse(0); err != nil {
		return nil, err
	}
	return results, nil
}

// candidates scans the store for p's matches under the positions already in
// bound, and returns the sorted, deduplicated set of values the variable v
// (one of p's still-wildcard positions) may legally take.
func candidates(ctx context.Context, qs *store.QuadStore, p Pattern, bound map[string]term.ID, v string) ([]term.ID, error) {
	scanPattern := p.Fixed
	for _, pv := range p.Vars {
		if id, ok := bound[pv.Name]; ok {
			setDir(&scanPattern, pv.Dir, id)
		}
	}
	// v may occupy more than one position in the same pattern (e.g. ?x :p
	// ?x): every such position must agree on the candidate value.
	var dirs []term.Direction
	for _, pv := range p.Vars {
		if pv.Name == v {
			dirs = append(dirs, pv.Dir)
		}
	}

	it := qs.Scan(ctx, scanPattern)
	defer it.Close()
	seen := make(map[term.ID]bool)
	var out []term.ID
	for it.Next() {
		q := it.Quad()
		id := q.Get(dirs[0])
		consistent := true
		for _, d := range dirs[1:] {
			if q.Get(d) != id {
				consistent = false
				break
			}
		}
		if !consistent {
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func setDir(p *term.Pattern, d term.Direction, id term.ID) {
	switch d {
	case term.Subject:
		p.S = id
	case term.Predicate:
		p.P = id
	case term.Object:
		p.O = id
	}
}

// leapfrogIntersect computes the sorted intersection of k sorted,
// deduplicated id lists by repeatedly seeking every list's cursor up to the
// running maximum until all cursors agree (the LeapFrog "seek" step).
func leapfrogIntersect(lists [][]term.ID) []term.ID {
	if len(lists) == 0 {
		return nil
	}
	for _, l := range lists {
		if len(l) == 0 {
			return nil
		}
	}
	pos := make([]int, len(lists))
	var out []term.ID
	for {
		max := lists[0][pos[0]]
		for i := 1; i < len(lists); i++ {
			if c := lists[i][pos[i]]; c > max {
				max = c
			}
		}
		allEqual := true
		for i := range lists {
			for pos[i] < len(lists[i]) && lists[i][pos[i]] < max {
				pos[i]++
			}
			if pos[i] >= len(lists[i]) {
				return out
			}
			if lists[i][pos[i]] != max {
				allEqual = false
			}
		}
		if allEqual {
			out = append(out, max)
			pos[0]++
			if pos[0] >= len(lists[0]) {
				return out
			}
		}
	}
}

// chooseVariableOrder ranks variables by descending number of owning
// patterns (§4.7's primary heuristic), breaking ties alphabetically for a
// deterministic plan. True cardinality-based tie-breaking would need
// per-predicate counters the store doesn't maintain; see the package note
// in DESIGN.md.
func chooseVariableOrder(patterns []Pattern) []string {
	count := make(map[string]int)
	var names []string
	for _, p := range patterns {
		for _, v := range p.Vars {
			if count[v.Name] == 0 {
				names = append(names, v.Name)
			}
			count[v.Name]++
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if count[names[i]] != count[names[j]] {
			return count[names[i]] > count[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

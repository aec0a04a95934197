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

package wcoj_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/kv/memkv"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc/xsd"
	"github.com/quadkit/quadkit/wcoj"
)

const (
	name  = term.IRI("http://example.org/name")
	age   = term.IRI("http://example.org/age")
	knows = term.IRI("http://example.org/knows")
	p     = term.IRI("http://example.org/p")
)

func newStore(t *testing.T) (*store.QuadStore, *dict.Dictionary) {
	t.Helper()
	return store.New(memkv.New()), dict.New()
}

// TestStarJoinThreePatterns mirrors the spec's three-pattern star scenario:
// one subject shares name/age/knows, join variable ?person is the only
// one owned by all three patterns.
func TestStarJoinThreePatterns(t *testing.T) {
	qs, d := newStore(t)
	ctx := context.Background()

	alice := term.IRI("http://example.org/alice")
	bob := term.IRI("http://example.org/bob")
	aliceName := term.Literal{Lexical: "Alice"}
	aliceAge := term.Literal{Lexical: "30", Datatype: xsd.Integer}

	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(name), O: d.Intern(aliceName)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(age), O: d.Intern(aliceAge)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)}))

	patterns := []wcoj.Pattern{
		{Fixed: term.Pattern{P: d.Intern(name)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "person"}, {Dir: term.Object, Name: "n"}}},
		{Fixed: term.Pattern{P: d.Intern(age)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "person"}, {Dir: term.Object, Name: "a"}}},
		{Fixed: term.Pattern{P: d.Intern(knows)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "person"}, {Dir: term.Object, Name: "k"}}},
	}

	rows, err := wcoj.Eval(ctx, qs, patterns, nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, d.Intern(alice), rows[0]["person"])
	require.Equal(t, d.Intern(aliceName), rows[0]["n"])
	require.Equal(t, d.Intern(aliceAge), rows[0]["a"])
	require.Equal(t, d.Intern(bob), rows[0]["k"])
}

func TestStarJoinExcludesNonMatchingSubject(t *testing.T) {
	qs, d := newStore(t)
	ctx := context.Background()

	alice := term.IRI("http://example.org/alice")
	carol := term.IRI("http://example.org/carol") // only has a name, not an age
	lit := term.Literal{Lexical: "x"}

	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(name), O: d.Intern(lit)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(age), O: d.Intern(lit)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(carol), P: d.Intern(name), O: d.Intern(lit)}))

	patterns := []wcoj.Pattern{
		{Fixed: term.Pattern{P: d.Intern(name)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "s"}}},
		{Fixed: term.Pattern{P: d.Intern(age)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "s"}}},
	}
	rows, err := wcoj.Eval(ctx, qs, patterns, nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, d.Intern(alice), rows[0]["s"])
}

func TestGroundPatternAbsentYieldsNoRows(t *testing.T) {
	qs, d := newStore(t)
	ctx := context.Background()

	alice := term.IRI("http://example.org/alice")
	bob := term.IRI("http://example.org/bob")
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)}))

	patterns := []wcoj.Pattern{
		{Fixed: term.Pattern{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(alice)}},
	}
	rows, err := wcoj.Eval(ctx, qs, patterns, nil, 0)
	require.NoError(t, err)
	require.Nil(t, rows)
}

func TestAllGroundPatternsPresentYieldsEmptySolution(t *testing.T) {
	qs, d := newStore(t)
	ctx := context.Background()

	alice := term.IRI("http://example.org/alice")
	bob := term.IRI("http://example.org/bob")
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)}))

	patterns := []wcoj.Pattern{
		{Fixed: term.Pattern{S: d.Intern(alice), P: d.Intern(knows), O: d.Intern(bob)}},
	}
	rows, err := wcoj.Eval(ctx, qs, patterns, nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0])
}

func TestCyclicJoinTriangle(t *testing.T) {
	qs, d := newStore(t)
	ctx := context.Background()

	a := term.IRI("http://example.org/a")
	b := term.IRI("http://example.org/b")
	c := term.IRI("http://example.org/c")

	// a-b-c-a triangle under :p
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(a), P: d.Intern(p), O: d.Intern(b)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(b), P: d.Intern(p), O: d.Intern(c)}))
	require.NoError(t, qs.Insert(ctx, term.Quad{S: d.Intern(c), P: d.Intern(p), O: d.Intern(a)}))

	patterns := []wcoj.Pattern{
		{Fixed: term.Pattern{P: d.Intern(p)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "x"}, {Dir: term.Object, Name: "y"}}},
		{Fixed: term.Pattern{P: d.Intern(p)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "y"}, {Dir: term.Object, Name: "z"}}},
		{Fixed: term.Pattern{P: d.Intern(p)}, Vars: []wcoj.Var{{Dir: term.Subject, Name: "z"}, {Dir: term.Object, Name: "x"}}},
	}
	rows, err := wcoj.Eval(ctx, qs, patterns, nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3) // each of the three rotations of the triangle
}

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

package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/optimize"
	"github.com/quadkit/quadkit/term"
)

const (
	name  = term.IRI("http://example.org/name")
	age   = term.IRI("http://example.org/age")
	knows = term.IRI("http://example.org/knows")
	p     = term.IRI("http://example.org/p")
)

func tp(s, o term.Term, pr term.IRI) algebra.TriplePattern {
	return algebra.TriplePattern{S: s, P: pr, O: o}
}

func TestClassifyStarJoin(t *testing.T) {
	person := term.Variable("person")
	patterns := []algebra.TriplePattern{
		tp(person, term.Variable("n"), name),
		tp(person, term.Variable("a"), age),
		tp(person, term.Variable("k"), knows),
	}
	star, cyclic, chain := optimize.Classify(patterns)
	require.True(t, star)
	require.False(t, chain)
	_ = cyclic
}

func TestClassifyChain(t *testing.T) {
	x, y, z := term.Variable("x"), term.Variable("y"), term.Variable("z")
	patterns := []algebra.TriplePattern{
		tp(x, y, knows),
		tp(y, z, knows),
	}
	star, cyclic, chain := optimize.Classify(patterns)
	require.False(t, star)
	require.False(t, cyclic)
	require.True(t, chain)
}

func TestClassifyCycle(t *testing.T) {
	x, y, z := term.Variable("x"), term.Variable("y"), term.Variable("z")
	patterns := []algebra.TriplePattern{
		tp(x, y, p),
		tp(y, z, p),
		tp(z, x, p),
	}
	star, cyclic, chain := optimize.Classify(patterns)
	require.False(t, star)
	require.True(t, cyclic)
	require.False(t, chain)
}

func uniformCardinality(algebra.TriplePattern) float64 { return 10 }

func TestChooseRoutesStarToWCOJ(t *testing.T) {
	person := term.Variable("person")
	patterns := []algebra.TriplePattern{
		tp(person, term.Variable("n"), name),
		tp(person, term.Variable("a"), age),
		tp(person, term.Variable("k"), knows),
	}
	plan := optimize.Choose(patterns, uniformCardinality)
	require.Equal(t, optimize.WCOJ, plan.Strategy)
	require.True(t, plan.Star)
	require.NotEmpty(t, plan.Rationale)
}

func TestChooseRoutesCyclicToWCOJ(t *testing.T) {
	x, y, z := term.Variable("x"), term.Variable("y"), term.Variable("z")
	patterns := []algebra.TriplePattern{
		tp(x, y, p),
		tp(y, z, p),
		tp(z, x, p),
	}
	plan := optimize.Choose(patterns, uniformCardinality)
	require.Equal(t, optimize.WCOJ, plan.Strategy)
	require.True(t, plan.Cyclic)
}

func TestChooseRoutesChainToIterative(t *testing.T) {
	x, y, z := term.Variable("x"), term.Variable("y"), term.Variable("z")
	patterns := []algebra.TriplePattern{
		tp(x, y, knows),
		tp(y, z, knows),
	}
	plan := optimize.Choose(patterns, uniformCardinality)
	require.Equal(t, optimize.Iterative, plan.Strategy)
	require.True(t, plan.Chain)
}

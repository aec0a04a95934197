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

package sexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc/xsd"
)

// Prefixes maps a CURIE prefix (the part before the colon) to its
// expansion, with the empty string as the default prefix for a bare
// ":local" token -- the same shorthand the teacher's sexp ColonIdentifier
// used, generalized to more than one namespace.
type Prefixes map[string]string

// Resolve expands a CURIE "prefix:local" (or, with an empty prefix,
// ":local") against p. An unknown prefix is an error rather than a
// silently-wrong IRI.
func (p Prefixes) Resolve(curie string) (term.IRI, error) {
	i := strings.IndexByte(curie, ':')
	if i < 0 {
		return "", fmt.Errorf("sexpr: %q is not a CURIE", curie)
	}
	prefix, local := curie[:i], curie[i+1:]
	ns, ok := p[prefix]
	if !ok {
		return "", fmt.Errorf("sexpr: unknown prefix %q", prefix)
	}
	return term.IRI(ns + local), nil
}

// termNode parses one leaf atom into a term.Term: <...> full IRIs, ?x / $x
// variables, "..." quoted string literals (with an optional ^^type or @lang
// suffix inside the quotes, see literalWithSuffix), bare numbers as
// xsd:integer/xsd:decimal literals, true/false as xsd:boolean, and
// everything else as a CURIE resolved against prefixes.
func (b *builder) termNode(n Node) (term.Term, error) {
	if !n.IsAtom {
		return nil, fmt.Errorf("sexpr: expected a term, got a list: %s", n)
	}
	if n.Quoted {
		return b.literalWithSuffix(n.Atom)
	}
	a := n.Atom
	switch {
	case strings.HasPrefix(a, "?") || strings.HasPrefix(a, "$"):
		return term.Variable(a[1:]), nil
	case strings.HasPrefix(a, "<") && strings.HasSuffix(a, ">"):
		return term.IRI(a[1 : len(a)-1]), nil
	case strings.HasPrefix(a, "_:"):
		return term.BlankNode(a[2:]), nil
	case a == "true" || a == "false":
		return term.NewTyped(a, xsd.Boolean), nil
	}
	if isNumeric(a) {
		dt := xsd.Integer
		if strings.ContainsAny(a, ".eE") {
			dt = xsd.Decimal
		}
		return term.NewTyped(a, dt), nil
	}
	return b.prefixes.Resolve(a)
}

// literalWithSuffix handles a quoted string immediately followed (no
// whitespace, so it stays one Node from the reader's point of view is not
// possible -- instead the suffix travels as part of the quoted atom's raw
// text when the caller writes "text"^^xsd:int or "text"@en directly; the
// reader hands quoted content back without its quotes, so this only sees
// suffixes present in the literal text itself).
func (b *builder) literalWithSuffix(s string) (term.Term, error) {
	if i := strings.LastIndex(s, "^^"); i >= 0 {
		dt, err := b.prefixes.Resolve(s[i+2:])
		if err != nil {
			return nil, err
		}
		return term.NewTyped(s[:i], dt), nil
	}
	if i := strings.LastIndex(s, "@"); i >= 0 && isLangTag(s[i+1:]) {
		return term.NewLangString(s[:i], s[i+1:]), nil
	}
	return term.NewString(s), nil
}

func isLangTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// iriNode parses a term node that must be a plain graph-name IRI (used for
// GRAPH/CREATE/DROP/etc, which never take a variable).
func (b *builder) iriNode(n Node) (term.IRI, error) {
	t, err := b.termNode(n)
	if err != nil {
		return "", err
	}
	iri, ok := t.(term.IRI)
	if !ok {
		return "", fmt.Errorf("sexpr: expected an IRI, got %s", n)
	}
	return iri, nil
}

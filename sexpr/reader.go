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

// Package sexpr is a small s-expression front end for the algebra package,
// grounded on the teacher's query/sexp in spirit (a parenthesized query
// notation a REPL can read one line at a time) but not its badgerodon/peg
// grammar: peg never earned a place in SPEC_FULL.md's component list (see
// DESIGN.md), so this reader is the plain hand-written kind, fit to the
// grammar's small, fixed shape rather than a general parser combinator.
//
// It is not a SPARQL surface syntax -- the real query language is out of
// scope (see Non-goals) -- it exists so the CLI and REPL have something
// concrete to type an algebra tree in.
package sexpr

import (
	"fmt"
	"strings"
)

// Node is one parsed s-expression: either an Atom (a bare token or quoted
// string) or a List of child Nodes.
type Node struct {
	Atom     string
	Quoted   bool // Atom came from a "..." string literal
	List     []Node
	IsAtom   bool
}

func (n Node) String() string {
	if n.IsAtom {
		if n.Quoted {
			return fmt.Sprintf("%q", n.Atom)
		}
		return n.Atom
	}
	parts := make([]string, len(n.List))
	for i, c := range n.List {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Read parses input as a single top-level s-expression. Trailing
// whitespace after the closing paren is ignored; anything else is an
// error, so callers can tell "valid form" from "garbage after the form".
func Read(input string) (Node, error) {
	p := &parser{src: input}
	p.skipSpace()
	n, err := p.readNode()
	if err != nil {
		return Node{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Node{}, fmt.Errorf("sexpr: unexpected trailing input at %d: %q", p.pos, p.src[p.pos:])
	}
	return n, nil
}

// Balanced reports whether input has balanced parentheses and no unterminated
// string, the same "should the REPL ask for another line" check the
// teacher's sexp.Session.Parse makes by counting parens by hand.
func Balanced(input string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return true // too many closes is a parse error, not "need more input"
			}
		}
	}
	return depth <= 0 && !inString
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == ';' { // line comment, matching the teacher's clog-style terse tooling
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *parser) readNode() (Node, error) {
	if p.pos >= len(p.src) {
		return Node{}, fmt.Errorf("sexpr: unexpected end of input")
	}
	switch p.src[p.pos] {
	case '(':
		return p.readList()
	case '"':
		return p.readString()
	default:
		return p.readAtom()
	}
}

func (p *parser) readList() (Node, error) {
	p.pos++ // consume '('
	var list []Node
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return Node{}, fmt.Errorf("sexpr: unterminated list")
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return Node{List: list}, nil
		}
		n, err := p.readNode()
		if err != nil {
			return Node{}, err
		}
		list = append(list, n)
	}
}

func (p *parser) readString() (Node, error) {
	p.pos++ // consume opening quote
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return Node{}, fmt.Errorf("sexpr: unterminated string literal")
		}
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if c == '"' {
			p.pos++
			break
		}
		sb.WriteByte(c)
		p.pos++
	}
	return Node{IsAtom: true, Quoted: true, Atom: sb.String()}, nil
}

func isAtomChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"', ';':
		return false
	}
	return true
}

func (p *parser) readAtom() (Node, error) {
	start := p.pos
	for p.pos < len(p.src) && isAtomChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return Node{}, fmt.Errorf("sexpr: unexpected character %q at %d", p.src[p.pos], p.pos)
	}
	return Node{IsAtom: true, Atom: p.src[start:p.pos]}, nil
}

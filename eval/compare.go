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

package eval

import (
	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
)

func (e *Evaluator) evalCompare(b binding.Binding, ex algebra.ExprCompare) (term.Term, error) {
	l, err := e.Eval(b, ex.Left)
	if err != nil {
		return nil, err
	}
	r, err := e.Eval(b, ex.Right)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case algebra.CmpEq:
		eq, err := valueEqual(l, r)
		if err != nil {
			return nil, err
		}
		return boolTerm(eq), nil
	case algebra.CmpNe:
		eq, err := valueEqual(l, r)
		if err != nil {
			return nil, err
		}
		return boolTerm(!eq), nil
	default:
		c, err := compareOrdered(l, r)
		if err != nil {
			return nil, err
		}
		switch ex.Op {
		case algebra.CmpLt:
			return boolTerm(c < 0), nil
		case algebra.CmpLe:
			return boolTerm(c <= 0), nil
		case algebra.CmpGt:
			return boolTerm(c > 0), nil
		case algebra.CmpGe:
			return boolTerm(c >= 0), nil
		}
	}
	return nil, &kgerr.TypeMismatch{Expected: "comparison operator", Got: "unknown"}
}

// valueEqual implements SPARQL's `=`: value equality with numeric
// promotion, falling back to structural Term equality for non-numeric
// terms (sameTerm semantics are handled separately by ExprSameTerm).
func valueEqual(l, r term.Term) (bool, error) {
	ln, lerr := asNumeric(l)
	rn, rerr := asNumeric(r)
	if lerr == nil && rerr == nil {
		return numEqual(ln, rn), nil
	}
	llit, lok := l.(term.Literal)
	rlit, rok := r.(term.Literal)
	if lok && rok && llit.Lang == "" && rlit.Lang == "" &&
		(llit.Datatype == "" || llit.Datatype == term.XSDString) &&
		(rlit.Datatype == "" || rlit.Datatype == term.XSDString) {
		return llit.Lexical == rlit.Lexical, nil
	}
	return l.Equal(r), nil
}

func numEqual(a, b numeric) bool {
	if a.kind == numInteger && b.kind == numInteger {
		return a.i == b.i
	}
	return a.asFloat() == b.asFloat()
}

// compareOrdered implements `<`,`<=`,`>`,`>=`: valid only between two
// numerics or two simple/xsd:string literals (SPARQL restricts ordering
// comparisons to these; anything else is a type error).
func compareOrdered(l, r term.Term) (int, error) {
	ln, lerr := asNumeric(l)
	rn, rerr := asNumeric(r)
	if lerr == nil && rerr == nil {
		lf, rf := ln.asFloat(), rn.asFloat()
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	llit, lok := l.(term.Literal)
	rlit, rok := r.(term.Literal)
	if lok && rok && llit.Lang == rlit.Lang &&
		isPlainOrString(llit.Datatype) && isPlainOrString(rlit.Datatype) {
		switch {
		case llit.Lexical < rlit.Lexical:
			return -1, nil
		case llit.Lexical > rlit.Lexical:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, &kgerr.TypeMismatch{Expected: "comparable operands", Got: l.String() + " vs " + r.String()}
}

func isPlainOrString(dt term.IRI) bool {
	return dt == "" || dt == term.XSDString
}

// CompareForOrder implements ORDER BY's total ordering over terms: unlike
// `<`/`>`, it never errors. Numerics and same-kind literals compare the way
// compareOrdered does; anything else (including cross-kind comparisons)
// falls back to comparing the term's N-Triples string form, which is total
// and stable even though it isn't a SPARQL-defined order for those cases.
func CompareForOrder(l, r term.Term) int {
	if c, err := compareOrdered(l, r); err == nil {
		return c
	}
	ls, rs := l.String(), r.String()
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	default:
		return 0
	}
}

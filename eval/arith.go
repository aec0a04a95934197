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

func (e *Evaluator) evalArith(b binding.Binding, ex algebra.ExprArith) (term.Term, error) {
	l, err := e.Eval(b, ex.Left)
	if err != nil {
		return nil, err
	}
	ln, err := asNumeric(l)
	if err != nil {
		return nil, err
	}
	if ex.Op == algebra.ArithNeg {
		if ln.kind == numInteger {
			return numeric{kind: numInteger, i: -ln.i, f: -ln.f}.toTerm(), nil
		}
		return numeric{kind: ln.kind, f: -ln.f}.toTerm(), nil
	}
	r, err := e.Eval(b, ex.Right)
	if err != nil {
		return nil, err
	}
	rn, err := asNumeric(r)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case algebra.ArithAdd:
		return arith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }, ln, rn).toTerm(), nil
	case algebra.ArithSub:
		return arith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b }, ln, rn).toTerm(), nil
	case algebra.ArithMul:
		return arith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }, ln, rn).toTerm(), nil
	case algebra.ArithDiv:
		// SPARQL division always yields xsd:decimal/double, never integer.
		if rn.asFloat() == 0 {
			return nil, &kgerr.TypeMismatch{Expected: "non-zero divisor", Got: "0"}
		}
		kind := promote(promote(ln.kind, rn.kind), numDecimal)
		return numeric{kind: kind, f: ln.asFloat() / rn.asFloat()}.toTerm(), nil
	}
	return nil, &kgerr.TypeMismatch{Expected: "arithmetic operator", Got: "unknown"}
}

func (e *Evaluator) evalIn(b binding.Binding, ex algebra.ExprIn) (term.Term, error) {
	target, err := e.Eval(b, ex.Target)
	if err != nil {
		return nil, err
	}
	found := false
	var firstErr error
	for _, item := range ex.Set {
		v, err := e.Eval(b, item)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		eq, err := valueEqual(target, v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if eq {
			found = true
			break
		}
	}
	if !found && firstErr != nil {
		return nil, firstErr
	}
	if ex.Negate {
		found = !found
	}
	return boolTerm(found), nil
}

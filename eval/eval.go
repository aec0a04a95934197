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

// Package eval is the expression evaluator of §4.5: a pure function over
// (binding, expression, dictionary) producing a term or an error. It never
// touches the store.
package eval

import (
	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
)

// ExistsFunc evaluates a sub-plan under a partial binding for EXISTS/NOT
// EXISTS; it is supplied by the executor, since the evaluator itself has
// no notion of running an algebra plan.
type ExistsFunc func(plan algebra.Op, b binding.Binding) (bool, error)

// Evaluator evaluates algebra.Expr trees against bindings.
type Evaluator struct {
	Dict   *dict.Dictionary
	Exists ExistsFunc
	Ext    *ExtRegistry // may be nil if no extension functions are registered
}

// New builds an Evaluator. ext may be nil.
func New(d *dict.Dictionary, exists ExistsFunc, ext *ExtRegistry) *Evaluator {
	return &Evaluator{Dict: d, Exists: exists, Ext: ext}
}

// Eval evaluates expr against b, resolving variables through the
// dictionary.
func (e *Evaluator) Eval(b binding.Binding, expr algebra.Expr) (term.Term, error) {
	switch ex := expr.(type) {
	case algebra.ExprVar:
		id, ok := b.Get(ex.Name)
		if !ok {
			return nil, &kgerr.TypeMismatch{Expected: "bound variable", Got: "?" + ex.Name + " unbound"}
		}
		return e.Dict.Resolve(id)

	case algebra.ExprLit:
		return ex.Term, nil

	case algebra.ExprLogical:
		l, err := e.Eval(b, ex.Left)
		if err != nil && ex.Op == algebra.OpAnd {
			return nil, err
		}
		var lb bool
		if err == nil {
			lb, err = EffectiveBoolean(l)
		}
		if ex.Op == algebra.OpAnd {
			if err != nil {
				return nil, err
			}
			if !lb {
				return term.NewTyped("false", boolDatatype), nil
			}
			r, err := e.Eval(b, ex.Right)
			if err != nil {
				return nil, err
			}
			rb, err := EffectiveBoolean(r)
			if err != nil {
				return nil, err
			}
			return boolTerm(rb), nil
		}
		// OR: short-circuits to true even if the other side errors.
		if err == nil && lb {
			return boolTerm(true), nil
		}
		r, rerr := e.Eval(b, ex.Right)
		if rerr != nil {
			if err != nil {
				return nil, err
			}
			return nil, rerr
		}
		rb, rberr := EffectiveBoolean(r)
		if rberr != nil {
			if err != nil {
				return nil, err
			}
			return nil, rberr
		}
		if rb {
			return boolTerm(true), nil
		}
		if err != nil {
			return nil, err
		}
		return boolTerm(false), nil

	case algebra.ExprNot:
		v, err := e.Eval(b, ex.Expr)
		if err != nil {
			return nil, err
		}
		bv, err := EffectiveBoolean(v)
		if err != nil {
			return nil, err
		}
		return boolTerm(!bv), nil

	case algebra.ExprCompare:
		return e.evalCompare(b, ex)

	case algebra.ExprArith:
		return e.evalArith(b, ex)

	case algebra.ExprIn:
		return e.evalIn(b, ex)

	case algebra.ExprBound:
		_, ok := b.Get(ex.Var)
		return boolTerm(ok), nil

	case algebra.ExprIf:
		c, err := e.Eval(b, ex.Cond)
		if err != nil {
			return nil, err
		}
		cb, err := EffectiveBoolean(c)
		if err != nil {
			return nil, err
		}
		if cb {
			return e.Eval(b, ex.Then)
		}
		return e.Eval(b, ex.Else)

	case algebra.ExprCoalesce:
		var lastErr error
		for _, a := range ex.Args {
			v, err := e.Eval(b, a)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}
		if lastErr == nil {
			lastErr = &kgerr.TypeMismatch{Expected: "at least one COALESCE argument", Got: "none"}
		}
		return nil, lastErr

	case algebra.ExprSameTerm:
		l, err := e.Eval(b, ex.Left)
		if err != nil {
			return nil, err
		}
		r, err := e.Eval(b, ex.Right)
		if err != nil {
			return nil, err
		}
		return boolTerm(l.Equal(r)), nil

	case algebra.ExprExists:
		ok, err := e.Exists(ex.SubPlan, b)
		if err != nil {
			return nil, err
		}
		if ex.Negate {
			ok = !ok
		}
		return boolTerm(ok), nil

	case algebra.FuncCall:
		return e.evalFuncCall(b, ex)
	}
	return nil, &kgerr.TypeMismatch{Expected: "known expression node", Got: "unknown"}
}

var boolDatatype = term.IRI("http://www.w3.org/2001/XMLSchema#boolean")

func boolTerm(v bool) term.Term {
	if v {
		return term.NewTyped("true", boolDatatype)
	}
	return term.NewTyped("false", boolDatatype)
}

// EffectiveBoolean implements the SPARQL EBV coercion rules used by
// FILTER, logical operators and IF.
func EffectiveBoolean(t term.Term) (bool, error) {
	lit, ok := t.(term.Literal)
	if !ok {
		return false, &kgerr.TypeMismatch{Expected: "boolean-coercible literal", Got: t.String()}
	}
	switch lit.Datatype {
	case boolDatatype:
		return lit.Lexical == "true" || lit.Lexical == "1", nil
	case term.XSDString, "":
		return lit.Lexical != "", nil
	}
	if n, err := asNumeric(lit); err == nil {
		return n.asFloat() != 0, nil
	}
	return false, &kgerr.TypeMismatch{Expected: "boolean-coercible literal", Got: t.String()}
}

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

package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/eval"
	"github.com/quadkit/quadkit/term"
)

func newEvaluator() (*eval.Evaluator, *dict.Dictionary) {
	d := dict.New()
	return eval.New(d, func(algebra.Op, binding.Binding) (bool, error) {
		return false, nil
	}, nil), d
}

func lit(lex string) algebra.Expr {
	return algebra.ExprLit{Term: term.NewString(lex)}
}

func num(lex, dt string) algebra.Expr {
	return algebra.ExprLit{Term: term.NewTyped(lex, term.IRI(dt))}
}

const xsdInt = "http://www.w3.org/2001/XMLSchema#integer"
const xsdDouble = "http://www.w3.org/2001/XMLSchema#double"

func requireBool(t *testing.T, got term.Term, want bool) {
	t.Helper()
	b, err := eval.EffectiveBoolean(got)
	require.NoError(t, err)
	require.Equal(t, want, b)
}

func TestArithPromotesToWidestType(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprArith{Op: algebra.ArithAdd, Left: num("1", xsdInt), Right: num("2.5", xsdDouble)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	lit := got.(term.Literal)
	require.Equal(t, xsdDouble, string(lit.Datatype))
	require.Equal(t, "3.5", lit.Lexical)
}

func TestArithIntegerStaysInteger(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprArith{Op: algebra.ArithMul, Left: num("3", xsdInt), Right: num("4", xsdInt)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	lit := got.(term.Literal)
	require.Equal(t, xsdInt, string(lit.Datatype))
	require.Equal(t, "12", lit.Lexical)
}

func TestDivisionAlwaysPromotesPastInteger(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprArith{Op: algebra.ArithDiv, Left: num("6", xsdInt), Right: num("3", xsdInt)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	lit := got.(term.Literal)
	require.NotEqual(t, xsdInt, string(lit.Datatype))
}

func TestDivisionByZeroErrors(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprArith{Op: algebra.ArithDiv, Left: num("1", xsdInt), Right: num("0", xsdInt)}
	_, err := e.Eval(nil, expr)
	require.Error(t, err)
}

func TestCompareNumericAcrossTypes(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprCompare{Op: algebra.CmpLt, Left: num("1", xsdInt), Right: num("1.5", xsdDouble)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, true)
}

func TestSameTermIsStrict(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprSameTerm{Left: num("1", xsdInt), Right: num("1", xsdDouble)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, false)
}

func TestValueEqualityCrossesNumericTypes(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprCompare{Op: algebra.CmpEq, Left: num("1", xsdInt), Right: num("1.0", xsdDouble)}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, true)
}

func TestLogicalAndShortCircuitsOnFalse(t *testing.T) {
	e, _ := newEvaluator()
	bogus := algebra.ExprCompare{Op: algebra.CmpLt, Left: lit("not a number"), Right: num("1", xsdInt)}
	expr := algebra.ExprLogical{Op: algebra.OpAnd, Left: algebra.ExprLit{Term: term.NewTyped("false", "http://www.w3.org/2001/XMLSchema#boolean")}, Right: bogus}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, false)
}

func TestLogicalOrShortCircuitsOnTrueEvenIfOtherSideErrors(t *testing.T) {
	e, _ := newEvaluator()
	bogus := algebra.ExprCompare{Op: algebra.CmpLt, Left: lit("not a number"), Right: num("1", xsdInt)}
	expr := algebra.ExprLogical{Op: algebra.OpOr, Left: algebra.ExprLit{Term: term.NewTyped("true", "http://www.w3.org/2001/XMLSchema#boolean")}, Right: bogus}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, true)
}

func TestLogicalOrPropagatesErrorWhenNeitherSideIsTrue(t *testing.T) {
	e, _ := newEvaluator()
	bogus := algebra.ExprCompare{Op: algebra.CmpLt, Left: lit("not a number"), Right: num("1", xsdInt)}
	expr := algebra.ExprLogical{Op: algebra.OpOr, Left: algebra.ExprLit{Term: term.NewTyped("false", "http://www.w3.org/2001/XMLSchema#boolean")}, Right: bogus}
	_, err := e.Eval(nil, expr)
	require.Error(t, err)
}

func TestBoundReportsVariableBinding(t *testing.T) {
	e, d := newEvaluator()
	id := d.Intern(term.NewString("x"))
	b := binding.Binding{}.Extend("v", id)

	got, err := e.Eval(b, algebra.ExprBound{Var: "v"})
	require.NoError(t, err)
	requireBool(t, got, true)

	got, err = e.Eval(b, algebra.ExprBound{Var: "w"})
	require.NoError(t, err)
	requireBool(t, got, false)
}

func TestCoalesceReturnsFirstSuccess(t *testing.T) {
	e, d := newEvaluator()
	id := d.Intern(term.NewString("hit"))
	b := binding.Binding{}.Extend("v", id)
	expr := algebra.ExprCoalesce{Args: []algebra.Expr{
		algebra.ExprVar{Name: "missing"},
		algebra.ExprVar{Name: "v"},
	}}
	got, err := e.Eval(b, expr)
	require.NoError(t, err)
	require.Equal(t, "hit", got.(term.Literal).Lexical)
}

func TestInFindsMatchDespiteEarlierComparisonError(t *testing.T) {
	e, _ := newEvaluator()
	expr := algebra.ExprIn{
		Target: num("2", xsdInt),
		Set:    []algebra.Expr{algebra.ExprCompare{Op: algebra.CmpLt, Left: lit("not a number"), Right: num("1", xsdInt)}, num("2", xsdInt)},
	}
	got, err := e.Eval(nil, expr)
	require.NoError(t, err)
	requireBool(t, got, true)
}

func TestFuncCallStrAndStrlen(t *testing.T) {
	e, _ := newEvaluator()
	call := algebra.FuncCall{Name: "STRLEN", Args: []algebra.Expr{lit("hello")}}
	got, err := e.Eval(nil, call)
	require.NoError(t, err)
	require.Equal(t, "5", got.(term.Literal).Lexical)
}

func TestFuncCallConcatUcaseLcase(t *testing.T) {
	e, _ := newEvaluator()
	got, err := e.Eval(nil, algebra.FuncCall{Name: "CONCAT", Args: []algebra.Expr{lit("foo"), lit("bar")}})
	require.NoError(t, err)
	require.Equal(t, "foobar", got.(term.Literal).Lexical)

	got, err = e.Eval(nil, algebra.FuncCall{Name: "UCASE", Args: []algebra.Expr{lit("abc")}})
	require.NoError(t, err)
	require.Equal(t, "ABC", got.(term.Literal).Lexical)
}

func TestFuncCallContainsAndStrAfter(t *testing.T) {
	e, _ := newEvaluator()
	got, err := e.Eval(nil, algebra.FuncCall{Name: "CONTAINS", Args: []algebra.Expr{lit("hello world"), lit("world")}})
	require.NoError(t, err)
	requireBool(t, got, true)

	got, err = e.Eval(nil, algebra.FuncCall{Name: "STRAFTER", Args: []algebra.Expr{lit("hello world"), lit("hello ")}})
	require.NoError(t, err)
	require.Equal(t, "world", got.(term.Literal).Lexical)
}

func TestFuncCallRegexAndReplace(t *testing.T) {
	e, _ := newEvaluator()
	got, err := e.Eval(nil, algebra.FuncCall{Name: "REGEX", Args: []algebra.Expr{lit("Hello"), lit("^hello$"), lit("i")}})
	require.NoError(t, err)
	requireBool(t, got, true)

	got, err = e.Eval(nil, algebra.FuncCall{Name: "REPLACE", Args: []algebra.Expr{lit("abc123"), lit("[0-9]+"), lit("#")}})
	require.NoError(t, err)
	require.Equal(t, "abc#", got.(term.Literal).Lexical)
}

func TestFuncCallTypePredicates(t *testing.T) {
	e, _ := newEvaluator()
	got, err := e.Eval(nil, algebra.FuncCall{Name: "isNumeric", Args: []algebra.Expr{num("1", xsdInt)}})
	require.NoError(t, err)
	requireBool(t, got, true)

	got, err = e.Eval(nil, algebra.FuncCall{Name: "isIRI", Args: []algebra.Expr{lit("not an iri")}})
	require.NoError(t, err)
	requireBool(t, got, false)
}

func TestFuncCallUnknownNameFallsBackToExtensionRegistry(t *testing.T) {
	d := dict.New()
	ext := eval.NewExtRegistry()
	ext.RegisterNative("http://example.org/double", func(args []term.Term) (term.Term, error) {
		lit := args[0].(term.Literal)
		return term.NewString(lit.Lexical + lit.Lexical), nil
	})
	e := eval.New(d, func(algebra.Op, binding.Binding) (bool, error) { return false, nil }, ext)

	got, err := e.Eval(nil, algebra.FuncCall{Name: "http://example.org/double", Args: []algebra.Expr{lit("ab")}})
	require.NoError(t, err)
	require.Equal(t, "abab", got.(term.Literal).Lexical)
}

func TestExistsDelegatesToInjectedCallback(t *testing.T) {
	d := dict.New()
	called := false
	e := eval.New(d, func(algebra.Op, binding.Binding) (bool, error) {
		called = true
		return true, nil
	}, nil)
	got, err := e.Eval(nil, algebra.ExprExists{SubPlan: nil, Negate: true})
	require.NoError(t, err)
	require.True(t, called)
	requireBool(t, got, false)
}

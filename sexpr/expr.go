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

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/term"
)

var cmpOps = map[string]algebra.CmpOp{
	"=": algebra.CmpEq, "!=": algebra.CmpNe,
	"<": algebra.CmpLt, "<=": algebra.CmpLe,
	">": algebra.CmpGt, ">=": algebra.CmpGe,
}

var arithOps = map[string]algebra.ArithOp{
	"+": algebra.ArithAdd, "-": algebra.ArithSub,
	"*": algebra.ArithMul, "/": algebra.ArithDiv,
}

// expr builds one algebra.Expr. A bare variable or literal atom is a leaf;
// everything else is (OP ARG...).
func (b *builder) expr(n Node) (algebra.Expr, error) {
	if n.IsAtom {
		t, err := b.termNode(n)
		if err != nil {
			return nil, err
		}
		if v, ok := t.(term.Variable); ok {
			return algebra.ExprVar{Name: string(v)}, nil
		}
		return algebra.ExprLit{Term: t}, nil
	}
	if len(n.List) == 0 {
		return nil, fmt.Errorf("sexpr: empty expression")
	}
	head := n.List[0].Atom
	args := n.List[1:]

	if op, ok := cmpOps[head]; ok {
		l, r, err := b.expr2(args)
		if err != nil {
			return nil, err
		}
		return algebra.ExprCompare{Op: op, Left: l, Right: r}, nil
	}
	if op, ok := arithOps[head]; ok {
		if head == "-" && len(args) == 1 {
			e, err := b.expr(args[0])
			if err != nil {
				return nil, err
			}
			return algebra.ExprArith{Op: algebra.ArithNeg, Left: e}, nil
		}
		l, r, err := b.expr2(args)
		if err != nil {
			return nil, err
		}
		return algebra.ExprArith{Op: op, Left: l, Right: r}, nil
	}

	switch head {
	case "and":
		l, r, err := b.expr2(args)
		if err != nil {
			return nil, err
		}
		return algebra.ExprLogical{Op: algebra.OpAnd, Left: l, Right: r}, nil
	case "or":
		l, r, err := b.expr2(args)
		if err != nil {
			return nil, err
		}
		return algebra.ExprLogical{Op: algebra.OpOr, Left: l, Right: r}, nil
	case "not":
		if len(args) != 1 {
			return nil, fmt.Errorf("sexpr: not takes exactly one argument")
		}
		e, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		return algebra.ExprNot{Expr: e}, nil
	case "bound":
		if len(args) != 1 {
			return nil, fmt.Errorf("sexpr: bound takes exactly one variable")
		}
		t, err := b.termNode(args[0])
		if err != nil {
			return nil, err
		}
		v, ok := t.(term.Variable)
		if !ok {
			return nil, fmt.Errorf("sexpr: bound's argument must be a variable")
		}
		return algebra.ExprBound{Var: string(v)}, nil
	case "if":
		if len(args) != 3 {
			return nil, fmt.Errorf("sexpr: if takes cond, then, else")
		}
		cond, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		then, err := b.expr(args[1])
		if err != nil {
			return nil, err
		}
		els, err := b.expr(args[2])
		if err != nil {
			return nil, err
		}
		return algebra.ExprIf{Cond: cond, Then: then, Else: els}, nil
	case "same-term":
		l, r, err := b.expr2(args)
		if err != nil {
			return nil, err
		}
		return algebra.ExprSameTerm{Left: l, Right: r}, nil
	case "coalesce":
		var exprs []algebra.Expr
		for _, a := range args {
			e, err := b.expr(a)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		return algebra.ExprCoalesce{Args: exprs}, nil
	case "in", "not-in":
		if len(args) < 1 {
			return nil, fmt.Errorf("sexpr: %s needs a target and a set", head)
		}
		target, err := b.expr(args[0])
		if err != nil {
			return nil, err
		}
		var set []algebra.Expr
		for _, a := range args[1:] {
			e, err := b.expr(a)
			if err != nil {
				return nil, err
			}
			set = append(set, e)
		}
		return algebra.ExprIn{Target: target, Set: set, Negate: head == "not-in"}, nil
	case "exists", "not-exists":
		if len(args) != 1 {
			return nil, fmt.Errorf("sexpr: %s takes exactly one subplan", head)
		}
		sub, err := b.op(args[0])
		if err != nil {
			return nil, err
		}
		return algebra.ExprExists{SubPlan: sub, Negate: head == "not-exists"}, nil
	}

	// Anything else is a function call: a built-in name (STRLEN, REGEX, ...)
	// or an extension function IRI.
	var fargs []algebra.Expr
	for _, a := range args {
		e, err := b.expr(a)
		if err != nil {
			return nil, err
		}
		fargs = append(fargs, e)
	}
	return algebra.FuncCall{Name: head, Args: fargs}, nil
}

func (b *builder) expr2(args []Node) (algebra.Expr, algebra.Expr, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("sexpr: expected exactly two arguments")
	}
	l, err := b.expr(args[0])
	if err != nil {
		return nil, nil, err
	}
	r, err := b.expr(args[1])
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

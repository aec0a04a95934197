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

package exec

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/eval"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc/xsd"
)

// evalGroup partitions Child's rows by the evaluated Keys tuple and computes
// each Aggregation per partition. A key expression that is a bare variable
// reference is also bound under its own name in the output row, matching
// how `GROUP BY ?x` makes ?x available to the outer SELECT without an
// explicit BIND.
func (ex *Executor) evalGroup(ctx context.Context, n algebra.Group, in binding.Binding) ([]binding.Binding, error) {
	rows, err := ex.eval(ctx, n.Child, in)
	if err != nil {
		return nil, err
	}

	type partition struct {
		keyRow binding.Binding
		rows   []binding.Binding
	}
	order := []string{}
	partitions := map[string]*partition{}

	for _, row := range rows {
		keyRow := binding.Binding{}
		var keyParts []string
		for i, k := range n.Keys {
			v, err := ex.Eval.Eval(row, k)
			if err != nil {
				keyParts = append(keyParts, "\x00err")
				continue
			}
			id := ex.Dict.Intern(v)
			keyParts = append(keyParts, strconv.FormatUint(uint64(id), 10))
			if vr, ok := k.(algebra.ExprVar); ok {
				keyRow = keyRow.Extend(vr.Name, id)
			} else {
				keyRow = keyRow.Extend("\x00key"+strconv.Itoa(i), id)
			}
		}
		key := strings.Join(keyParts, ",")
		p, ok := partitions[key]
		if !ok {
			p = &partition{keyRow: keyRow}
			partitions[key] = p
			order = append(order, key)
		}
		p.rows = append(p.rows, row)
	}

	if len(partitions) == 0 && len(n.Keys) == 0 {
		// No GROUP BY keys and no input rows still yields one aggregate row
		// (e.g. COUNT(*) over an empty pattern is 0, not absent).
		partitions[""] = &partition{keyRow: binding.Binding{}}
		order = append(order, "")
	}

	var out []binding.Binding
	for _, key := range order {
		p := partitions[key]
		row := p.keyRow
		for _, agg := range n.Aggs {
			v, err := ex.evalAggregation(agg, p.rows)
			if err != nil {
				continue
			}
			id := ex.Dict.Intern(v)
			row = row.Extend(agg.As, id)
		}
		out = append(out, row)
	}
	return out, nil
}

func (ex *Executor) evalAggregation(agg algebra.Aggregation, rows []binding.Binding) (term.Term, error) {
	var values []term.Term
	seen := map[string]bool{}
	for _, row := range rows {
		if agg.Func == algebra.AggCount && agg.Expr == nil {
			values = append(values, term.NewString("*")) // placeholder, COUNT(*) only needs len()
			continue
		}
		v, err := ex.Eval.Eval(row, agg.Expr)
		if err != nil {
			continue
		}
		if agg.Distinct {
			k := v.String()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch agg.Func {
	case algebra.AggCount:
		return term.NewTyped(strconv.Itoa(len(values)), xsd.Integer), nil
	case algebra.AggSum:
		return aggSum(values)
	case algebra.AggAvg:
		return aggAvg(values)
	case algebra.AggMin:
		return aggExtreme(values, -1)
	case algebra.AggMax:
		return aggExtreme(values, 1)
	case algebra.AggSample:
		if len(values) == 0 {
			return term.NewString(""), nil
		}
		return values[0], nil
	case algebra.AggGroupConcat:
		sep := agg.Sep
		if sep == "" {
			sep = " "
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = lexicalOf(v)
		}
		return term.NewString(strings.Join(parts, sep)), nil
	}
	return term.NewString(""), nil
}

func lexicalOf(t term.Term) string {
	if lit, ok := t.(term.Literal); ok {
		return lit.Lexical
	}
	return t.String()
}

func aggSum(values []term.Term) (term.Term, error) {
	var sum float64
	isInt := true
	for _, v := range values {
		f, integral, err := numericValue(v)
		if err != nil {
			continue
		}
		sum += f
		isInt = isInt && integral
	}
	if isInt {
		return term.NewTyped(strconv.FormatInt(int64(sum), 10), xsd.Integer), nil
	}
	return term.NewTyped(strconv.FormatFloat(sum, 'g', -1, 64), xsd.Double), nil
}

func aggAvg(values []term.Term) (term.Term, error) {
	if len(values) == 0 {
		return term.NewTyped("0", xsd.Integer), nil
	}
	var sum float64
	n := 0
	for _, v := range values {
		f, _, err := numericValue(v)
		if err != nil {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return term.NewTyped("0", xsd.Integer), nil
	}
	return term.NewTyped(strconv.FormatFloat(sum/float64(n), 'g', -1, 64), xsd.Double), nil
}

func aggExtreme(values []term.Term, dir int) (term.Term, error) {
	if len(values) == 0 {
		return term.NewString(""), nil
	}
	best := values[0]
	for _, v := range values[1:] {
		c := eval.CompareForOrder(v, best)
		if (dir < 0 && c < 0) || (dir > 0 && c > 0) {
			best = v
		}
	}
	return best, nil
}

var errNotNumeric = errors.New("aggregate operand is not numeric")

// numericValue reports a term's numeric value and whether it is integral,
// without importing the unexported numeric helpers from eval.
func numericValue(t term.Term) (float64, bool, error) {
	lit, ok := t.(term.Literal)
	if !ok {
		return 0, false, errNotNumeric
	}
	f, err := strconv.ParseFloat(lit.Lexical, 64)
	if err != nil {
		return 0, false, errNotNumeric
	}
	integral := lit.Datatype == xsd.Integer
	return f, integral, nil
}

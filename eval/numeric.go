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
	"strconv"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc/xsd"
)

// numKind ranks the four XSD numeric types §4.5 requires promoting
// between: integer < decimal < float < double.
type numKind int

const (
	numInteger numKind = iota
	numDecimal
	numFloat
	numDouble
)

type numeric struct {
	kind numKind
	i    int64 // valid when kind == numInteger
	f    float64
}

func kindOf(dt term.IRI) (numKind, bool) {
	switch string(dt) {
	case xsd.Integer:
		return numInteger, true
	case xsd.Decimal:
		return numDecimal, true
	case xsd.Float:
		return numFloat, true
	case xsd.Double:
		return numDouble, true
	}
	return 0, false
}

func (k numKind) datatype() term.IRI {
	switch k {
	case numInteger:
		return xsd.Integer
	case numDecimal:
		return xsd.Decimal
	case numFloat:
		return xsd.Float
	default:
		return xsd.Double
	}
}

// asNumeric parses a literal as one of the four XSD numeric types.
func asNumeric(t term.Term) (numeric, error) {
	lit, ok := t.(term.Literal)
	if !ok || lit.Lang != "" {
		return numeric{}, &kgerr.TypeMismatch{Expected: "numeric literal", Got: t.String()}
	}
	kind, ok := kindOf(lit.Datatype)
	if !ok {
		return numeric{}, &kgerr.TypeMismatch{Expected: "numeric literal", Got: string(lit.Datatype)}
	}
	if kind == numInteger {
		i, err := strconv.ParseInt(lit.Lexical, 10, 64)
		if err != nil {
			return numeric{}, &kgerr.InvalidLiteral{Lexical: lit.Lexical, Datatype: string(lit.Datatype)}
		}
		return numeric{kind: numInteger, i: i, f: float64(i)}, nil
	}
	f, err := strconv.ParseFloat(lit.Lexical, 64)
	if err != nil {
		return numeric{}, &kgerr.InvalidLiteral{Lexical: lit.Lexical, Datatype: string(lit.Datatype)}
	}
	return numeric{kind: kind, f: f}, nil
}

// promote returns the wider of a.kind/b.kind, per XSD's numeric promotion
// ladder integer -> decimal -> float -> double.
func promote(a, b numKind) numKind {
	if a > b {
		return a
	}
	return b
}

func (n numeric) toTerm() term.Term {
	k := n.kind
	if k == numInteger {
		return term.NewTyped(strconv.FormatInt(n.i, 10), k.datatype())
	}
	return term.NewTyped(strconv.FormatFloat(n.f, 'g', -1, 64), k.datatype())
}

func (n numeric) asFloat() float64 {
	if n.kind == numInteger {
		return float64(n.i)
	}
	return n.f
}

func arith(op func(a, b float64) float64, opInt func(a, b int64) int64, a, b numeric) numeric {
	kind := promote(a.kind, b.kind)
	if kind == numInteger {
		return numeric{kind: numInteger, i: opInt(a.i, b.i), f: float64(opInt(a.i, b.i))}
	}
	return numeric{kind: kind, f: op(a.asFloat(), b.asFloat())}
}

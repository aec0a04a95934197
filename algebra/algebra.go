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

// Package algebra is the closed, finite set of SPARQL algebra operators of
// §4.4: the data type a parser builds and the optimizer/executor consume.
// Nothing here executes a query; see exec and wcoj for that.
package algebra

import "github.com/quadkit/quadkit/term"

// Op is any algebra operator node.
type Op interface {
	isOp()
}

// TriplePattern is one pattern within a BGP; each field may be a Variable.
type TriplePattern struct {
	S, P, O term.Term
}

// BGP is a basic graph pattern: a set of triple patterns evaluated over a
// single (possibly variable) graph.
type BGP struct {
	Patterns []TriplePattern
}

type Join struct{ Left, Right Op }

// LeftJoin is OPTIONAL: Filter is applied to the joined binding and may be
// nil (always true).
type LeftJoin struct {
	Left, Right Op
	Filter      Expr
}

type Union struct{ Left, Right Op }

type Minus struct{ Left, Right Op }

type Filter struct {
	Child Op
	Expr  Expr
}

// Graph restricts Child to a named graph; GraphTerm may be a Variable, in
// which case the executor iterates over the dataset's named graphs.
type Graph struct {
	GraphTerm term.Term
	Child     Op
}

// Service delegates Child to an external endpoint; endpoint may be a
// Variable (SERVICE VARIABLE) or a constant IRI.
type Service struct {
	Endpoint term.Term
	Child    Op
	Silent   bool
}

// Extend implements BIND(expr AS ?var).
type Extend struct {
	Child Op
	Var   string
	Expr  Expr
}

type Project struct {
	Child Op
	Vars  []string
}

type Distinct struct{ Child Op }

type Reduced struct{ Child Op }

// OrderCondition is one ORDER BY key.
type OrderCondition struct {
	Expr       Expr
	Descending bool
}

type OrderBy struct {
	Child Op
	Keys  []OrderCondition
}

type Slice struct {
	Child         Op
	Offset, Limit int64 // Limit < 0 means unbounded
}

// Aggregation is one projected aggregate, e.g. (SUM(?v) AS ?s).
type Aggregation struct {
	Func     AggFunc
	Expr     Expr // nil for COUNT(*)
	Distinct bool
	Sep      string // GROUP_CONCAT separator, default " "
	As       string
}

type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMin
	AggMax
	AggAvg
	AggSample
	AggGroupConcat
)

type Group struct {
	Child Op
	Keys  []Expr
	Aggs  []Aggregation
}

// Table implements VALUES: a fixed set of rows over named variables. A nil
// entry in a row means that variable is unbound in that row.
type Table struct {
	Vars []string
	Rows [][]term.Term
}

// Path evaluates a property path between Subject and Object.
type Path struct {
	Subject  term.Term
	PathExpr PathExpr
	Object   term.Term
}

func (BGP) isOp()      {}
func (Join) isOp()     {}
func (LeftJoin) isOp() {}
func (Union) isOp()    {}
func (Minus) isOp()    {}
func (Filter) isOp()   {}
func (Graph) isOp()    {}
func (Service) isOp()  {}
func (Extend) isOp()   {}
func (Project) isOp()  {}
func (Distinct) isOp() {}
func (Reduced) isOp()  {}
func (OrderBy) isOp()  {}
func (Slice) isOp()    {}
func (Group) isOp()    {}
func (Table) isOp()    {}
func (Path) isOp()     {}

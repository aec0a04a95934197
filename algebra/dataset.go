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

package algebra

import "github.com/quadkit/quadkit/term"

// DatasetSpec is the ordered collection of FROM / FROM NAMED graphs
// attached to a query (§3, resolved per §4.10).
type DatasetSpec struct {
	Default []term.IRI // FROM clauses
	Named   []term.IRI // FROM NAMED clauses
}

// QueryForm is a complete query: an algebra tree, the dataset it ranges
// over, and which form wraps it.
type QueryForm interface {
	isQueryForm()
}

type Select struct {
	Plan    Op
	Dataset DatasetSpec
}

// ConstructTemplate is one triple pattern in a CONSTRUCT template; terms
// may be Variables.
type ConstructTemplate struct {
	S, P, O term.Term
}

type Construct struct {
	Plan     Op
	Dataset  DatasetSpec
	Template []ConstructTemplate
}

type Ask struct {
	Plan    Op
	Dataset DatasetSpec
}

type Describe struct {
	Plan    Op
	Dataset DatasetSpec
	// Terms names the resources to describe; if Plan is non-nil its
	// projected bindings additionally contribute resources.
	Terms []term.Term
}

func (Select) isQueryForm()    {}
func (Construct) isQueryForm() {}
func (Ask) isQueryForm()       {}
func (Describe) isQueryForm()  {}

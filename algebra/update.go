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

// UpdateOp is any of the §4.9 update operations.
type UpdateOp interface {
	isUpdateOp()
}

// QuadData is a ground (non-variable) quad for INSERT/DELETE DATA.
type QuadData struct {
	S, P, O term.Term
	Graph   term.IRI // zero value is the default graph
}

type InsertData struct{ Quads []QuadData }

type DeleteData struct{ Quads []QuadData }

// Modify is DELETE/INSERT/WHERE. Either template may be empty.
type Modify struct {
	With          term.IRI // USING/WITH graph, zero value means unset
	DeleteTemplate []ConstructTemplate
	InsertTemplate []ConstructTemplate
	Where          Op
	Dataset        DatasetSpec
}

type GraphRef struct {
	IRI     term.IRI
	Default bool // the unnamed default graph
}

type Create struct {
	Graph  term.IRI
	Silent bool
}

type Drop struct {
	Graph  GraphRef
	Silent bool
}

type Clear struct {
	Graph  GraphRef
	Silent bool
}

type Copy struct {
	From, To GraphRef
	Silent   bool
}

type Move struct {
	From, To GraphRef
	Silent   bool
}

type Add struct {
	From, To GraphRef
	Silent   bool
}

func (InsertData) isUpdateOp() {}
func (DeleteData) isUpdateOp() {}
func (Modify) isUpdateOp()     {}
func (Create) isUpdateOp()     {}
func (Drop) isUpdateOp()       {}
func (Clear) isUpdateOp()      {}
func (Copy) isUpdateOp()       {}
func (Move) isUpdateOp()       {}
func (Add) isUpdateOp()        {}

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

// PathExpr is a property path expression (§4.4, §4.6's Path evaluation
// rules).
type PathExpr interface {
	isPathExpr()
}

// PathPredicate is a single predicate IRI edge.
type PathPredicate struct{ IRI term.IRI }

// PathInverse swaps subject/object of the inner path.
type PathInverse struct{ Path PathExpr }

// PathSequence is A/B.
type PathSequence struct{ Left, Right PathExpr }

// PathAlternative is A|B.
type PathAlternative struct{ Left, Right PathExpr }

// PathZeroOrMore is A*.
type PathZeroOrMore struct{ Path PathExpr }

// PathOneOrMore is A+.
type PathOneOrMore struct{ Path PathExpr }

// PathZeroOrOne is A?.
type PathZeroOrOne struct{ Path PathExpr }

// PathNegatedSet is !(p1|p2|...): any predicate not in the listed set, in
// either direction if Inverse entries are marked.
type PathNegatedSetMember struct {
	IRI     term.IRI
	Inverse bool
}

type PathNegatedSet struct {
	Members []PathNegatedSetMember
}

func (PathPredicate) isPathExpr()    {}
func (PathInverse) isPathExpr()      {}
func (PathSequence) isPathExpr()     {}
func (PathAlternative) isPathExpr()  {}
func (PathZeroOrMore) isPathExpr()   {}
func (PathOneOrMore) isPathExpr()    {}
func (PathZeroOrOne) isPathExpr()    {}
func (PathNegatedSet) isPathExpr()   {}

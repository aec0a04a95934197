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
)

// ParseQuadLine reads one bulk-load line, "(tp S P O)" or "(tp S P O G)",
// the same shape BuildUpdate's insert-data bodies use, so `quadkit load`
// and a hand-written INSERT DATA form share one notation.
func ParseQuadLine(line string, prefixes Prefixes) (algebra.QuadData, error) {
	n, err := Read(line)
	if err != nil {
		return algebra.QuadData{}, err
	}
	b := &builder{prefixes: prefixes}
	if n.IsAtom || len(n.List) < 4 || n.List[0].Atom != "tp" {
		return algebra.QuadData{}, fmt.Errorf("sexpr: expected (tp S P O [G]), got %s", n)
	}
	tp, err := b.triplePattern(Node{List: n.List[:4]})
	if err != nil {
		return algebra.QuadData{}, err
	}
	qd := algebra.QuadData{S: tp.S, P: tp.P, O: tp.O}
	if len(n.List) == 5 {
		g, err := b.iriNode(n.List[4])
		if err != nil {
			return algebra.QuadData{}, err
		}
		qd.Graph = g
	}
	return qd, nil
}

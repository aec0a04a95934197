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

// Session defines a running REPL session over this s-expression form,
// grounded on the shape of the teacher's query/sexp.Session: a Parse step
// that tells the REPL apart "wait for more input" from "syntax error", and
// an Execute step that runs one complete form.
package sexpr

import (
	"context"
	"fmt"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/update"
	"github.com/quadkit/quadkit/voc/rdf"
	"github.com/quadkit/quadkit/voc/rdfs"
	"github.com/quadkit/quadkit/voc/schema"
	"github.com/quadkit/quadkit/voc/xsd"
)

// DefaultPrefixes is the prefix map a fresh Session starts with; "" has no
// default expansion, so a bare ":local" is a parse error until the caller
// adds one.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":    rdf.NS,
		"rdfs":   rdfs.NS,
		"xsd":    xsd.NS,
		"schema": schema.NS,
	}
}

// Session runs sexpr forms against a query executor and, if Update is set,
// an update executor too.
type Session struct {
	Query    *exec.Executor
	Update   *update.Executor
	Prefixes Prefixes
}

func NewSession(q *exec.Executor, u *update.Executor) *Session {
	return &Session{Query: q, Update: u, Prefixes: DefaultPrefixes()}
}

// Parse reports whether input is a complete form ready to run (nil), needs
// more input (ErrIncomplete), or is already malformed.
var ErrIncomplete = errIncomplete{}

type errIncomplete struct{}

func (errIncomplete) Error() string { return "sexpr: incomplete form" }

func (s *Session) Parse(input string) error {
	if !Balanced(input) {
		return ErrIncomplete
	}
	_, err := Read(input)
	return err
}

// updateHeads lists the leading keyword of every update form, so Execute
// can tell a query from an update without a second grammar.
var updateHeads = map[string]bool{
	"insert-data": true, "delete-data": true, "modify": true,
	"create": true, "drop": true, "clear": true,
	"copy": true, "move": true, "add": true,
}

// Execute runs one complete form: a query form returns its exec.Result, an
// update form applies its effects and returns a nil Result.
func (s *Session) Execute(ctx context.Context, input string) (*exec.Result, error) {
	root, err := Read(input)
	if err != nil {
		return nil, err
	}
	if root.IsAtom || len(root.List) == 0 {
		return nil, errIncomplete{}
	}
	b := &builder{prefixes: s.Prefixes}

	if updateHeads[root.List[0].Atom] {
		if s.Update == nil {
			return nil, fmt.Errorf("sexpr: session has no update executor")
		}
		op, err := b.updateOp(root)
		if err != nil {
			return nil, err
		}
		policy := update.BestEffort
		err = s.Update.ApplyBatch(ctx, []algebra.UpdateOp{op}, policy)
		return nil, err
	}

	qf, err := b.query(root)
	if err != nil {
		return nil, err
	}
	res, err := s.Query.RunQuery(ctx, qf)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

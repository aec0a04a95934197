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

// Package update is the SPARQL Update executor of §4.9: INSERT/DELETE DATA,
// Modify (DELETE/INSERT/WHERE), and the graph-management statements
// (CREATE/DROP/CLEAR/COPY/MOVE/ADD), run in either best-effort or
// transactional batch policy.
package update

import (
	"context"
	"fmt"

	"github.com/quadkit/quadkit/algebra"
	"github.com/quadkit/quadkit/binding"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/term"
)

// Policy selects how a batch of update statements is applied.
type Policy int

const (
	// BestEffort continues past a failing statement, collecting per-
	// statement errors with their index (§4.9).
	BestEffort Policy = iota
	// Transactional checks up front that the backend supports transactions
	// (failing with UnsupportedOperation otherwise) and stops at the first
	// failing statement. Each statement is applied on its own; statements
	// applied before the failure are not rolled back.
	Transactional
)

// Executor applies UpdateOps against a store, using Query to evaluate a
// Modify statement's WHERE clause.
type Executor struct {
	Store *store.QuadStore
	Dict  *dict.Dictionary
	Query *exec.Executor
}

// New builds an update Executor sharing the store/dictionary/query executor
// a caller already has set up for reads.
func New(s *store.QuadStore, d *dict.Dictionary, q *exec.Executor) *Executor {
	return &Executor{Store: s, Dict: d, Query: q}
}

// BatchError reports the statements that failed during a BestEffort batch.
// Statements that did not fail are not represented; apply their effects as
// normal, they are simply absent here.
type BatchError struct {
	Failures []*kgerr.StatementFailed
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("update batch: %d statement(s) failed", len(e.Failures))
}

// ApplyBatch runs ops in order under policy. Under BestEffort it returns a
// *BatchError (not nil) if any statement failed, having still applied every
// statement that succeeded. Under Transactional it aborts on the first
// failing statement and returns that error directly; statements already
// applied before the failure are not rolled back -- true whole-batch
// rollback would need the quad store to expose a single multi-statement
// transaction spanning arbitrarily many Scan-then-write statements, which
// §4.9's per-statement WHERE evaluation doesn't fit into one kv.Tx. What
// Transactional does guarantee is the backend-capability check up front
// (UnsupportedOperation if the backend can't transact at all) and
// fail-fast instead of BestEffort's collect-and-continue.
func (ex *Executor) ApplyBatch(ctx context.Context, ops []algebra.UpdateOp, policy Policy) error {
	if policy == Transactional && !ex.Store.SupportsTransactions() {
		return &kgerr.UnsupportedOperation{What: "transactional update batch: backend does not support transactions"}
	}

	var failures []*kgerr.StatementFailed
	for i, op := range ops {
		if err := ex.apply(ctx, op); err != nil {
			if policy == Transactional {
				return err
			}
			failures = append(failures, &kgerr.StatementFailed{
				Index:     i,
				Statement: fmt.Sprintf("%T", op),
				Inner:     err,
			})
		}
	}
	if len(failures) > 0 {
		return &BatchError{Failures: failures}
	}
	return nil
}

func (ex *Executor) apply(ctx context.Context, op algebra.UpdateOp) error {
	switch n := op.(type) {
	case algebra.InsertData:
		return ex.insertData(ctx, n.Quads)
	case algebra.DeleteData:
		return ex.deleteData(ctx, n.Quads)
	case algebra.Modify:
		return ex.modify(ctx, n)
	case algebra.Create:
		return nil // no separate graph-existence registry to create into
	case algebra.Drop:
		return ex.dropOrClear(ctx, n.Graph, n.Silent)
	case algebra.Clear:
		return ex.dropOrClear(ctx, n.Graph, n.Silent)
	case algebra.Copy:
		return ex.copyGraph(ctx, n.From, n.To, true)
	case algebra.Move:
		if n.From.Default == n.To.Default && n.From.IRI == n.To.IRI {
			return nil // moving a graph to itself is a no-op
		}
		if err := ex.copyGraph(ctx, n.From, n.To, true); err != nil {
			return err
		}
		return ex.dropOrClear(ctx, n.From, true)
	case algebra.Add:
		return ex.copyGraph(ctx, n.From, n.To, false)
	}
	return &kgerr.UnsupportedOperation{What: fmt.Sprintf("update operation %T", op)}
}

func (ex *Executor) insertData(ctx context.Context, quads []algebra.QuadData) error {
	for _, qd := range quads {
		q := term.Quad{
			S: ex.Dict.Intern(qd.S),
			P: ex.Dict.Intern(qd.P),
			O: ex.Dict.Intern(qd.O),
			G: ex.graphID(qd.Graph),
		}
		if err := ex.Store.Insert(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) deleteData(ctx context.Context, quads []algebra.QuadData) error {
	for _, qd := range quads {
		q := term.Quad{
			S: ex.Dict.Intern(qd.S),
			P: ex.Dict.Intern(qd.P),
			O: ex.Dict.Intern(qd.O),
			G: ex.graphID(qd.Graph),
		}
		if err := ex.Store.Delete(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) graphID(iri term.IRI) term.ID {
	if iri == "" {
		return term.None
	}
	return ex.Dict.Intern(iri)
}

// modify evaluates Where to a binding stream (a snapshot read at the start
// of the statement, per §4.9), then for every binding instantiates the
// delete template and the insert template, skipping any instantiation that
// would leave a template variable unbound. The deletes and inserts are
// applied through a single Store.ApplyBatch call so an external reader
// never observes a state mid-way between the two.
func (ex *Executor) modify(ctx context.Context, n algebra.Modify) error {
	var rows []binding.Binding
	if n.Where != nil {
		res, err := ex.Query.RunQuery(ctx, algebra.Select{Plan: n.Where, Dataset: n.Dataset})
		if err != nil {
			return err
		}
		rows = res.Rows
	} else {
		rows = []binding.Binding{{}}
	}

	gid := ex.graphID(n.With)

	var deletes, inserts []term.Quad
	for _, row := range rows {
		for _, t := range n.DeleteTemplate {
			if q, ok := ex.instantiate(row, t, gid); ok {
				deletes = append(deletes, q)
			}
		}
		for _, t := range n.InsertTemplate {
			if q, ok := ex.instantiate(row, t, gid); ok {
				inserts = append(inserts, q)
			}
		}
	}

	return ex.Store.ApplyBatch(ctx, deletes, inserts)
}

func (ex *Executor) instantiate(row binding.Binding, t algebra.ConstructTemplate, gid term.ID) (term.Quad, bool) {
	s, ok1 := ex.resolveTemplateTerm(row, t.S)
	p, ok2 := ex.resolveTemplateTerm(row, t.P)
	o, ok3 := ex.resolveTemplateTerm(row, t.O)
	if !ok1 || !ok2 || !ok3 {
		return term.Quad{}, false
	}
	return term.Quad{S: s, P: p, O: o, G: gid}, true
}

func (ex *Executor) resolveTemplateTerm(row binding.Binding, t term.Term) (term.ID, bool) {
	if v, ok := t.(term.Variable); ok {
		return row.Get(string(v))
	}
	return ex.Dict.Intern(t), true
}

// dropOrClear removes every quad in ref's graph. The default graph always
// "exists"; a named graph with zero quads is reported as not found unless
// silent is set (§4.9). CLEAR and DROP differ only in intent -- neither
// operation models a graph as anything beyond "the set of quads tagged with
// this graph id", so there is nothing further for DROP to remove once its
// quads are gone.
func (ex *Executor) dropOrClear(ctx context.Context, ref algebra.GraphRef, silent bool) error {
	quads, err := ex.scanGraph(ctx, ref)
	if err != nil {
		return err
	}
	if len(quads) == 0 && !ref.Default && !silent {
		return kgerr.ErrGraphNotFound
	}
	for _, q := range quads {
		if err := ex.Store.Delete(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// copyGraph overwrites (clear=true) or merges (clear=false) From's quads
// into To.
func (ex *Executor) copyGraph(ctx context.Context, from, to algebra.GraphRef, clear bool) error {
	if from.Default == to.Default && from.IRI == to.IRI {
		return nil // copying/moving/adding a graph to itself is a no-op
	}
	toGid := ex.refGraphID(to)

	srcQuads, err := ex.scanGraph(ctx, from)
	if err != nil {
		return err
	}
	if clear {
		dstQuads, err := ex.scanGraph(ctx, to)
		if err != nil {
			return err
		}
		for _, q := range dstQuads {
			if err := ex.Store.Delete(ctx, q); err != nil {
				return err
			}
		}
	}
	for _, q := range srcQuads {
		nq := term.Quad{S: q.S, P: q.P, O: q.O, G: toGid}
		if err := ex.Store.Insert(ctx, nq); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Executor) refGraphID(ref algebra.GraphRef) term.ID {
	if ref.Default {
		return term.None
	}
	return ex.Dict.Intern(ref.IRI)
}

// scanGraph lists every quad in ref's graph. term.None doubles as both "the
// default graph" and Pattern's unbound wildcard (§4.2/term.Quad), so a
// named graph can be scanned directly via Pattern{G: gid}, but the default
// graph must be scanned unconstrained and filtered client-side for
// q.G == term.None -- a Pattern{G: term.None} would otherwise match every
// graph in the store.
func (ex *Executor) scanGraph(ctx context.Context, ref algebra.GraphRef) ([]term.Quad, error) {
	if ref.Default {
		it := ex.Store.Scan(ctx, term.Pattern{})
		defer it.Close()
		var out []term.Quad
		for it.Next() {
			if q := it.Quad(); q.G == term.None {
				out = append(out, q)
			}
		}
		return out, it.Err()
	}
	gid := ex.Dict.Intern(ref.IRI)
	it := ex.Store.Scan(ctx, term.Pattern{G: gid})
	defer it.Close()
	var out []term.Quad
	for it.Next() {
		out = append(out, it.Quad())
	}
	return out, it.Err()
}

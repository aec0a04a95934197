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

func (b *builder) updateOp(n Node) (algebra.UpdateOp, error) {
	if n.IsAtom || len(n.List) == 0 {
		return nil, fmt.Errorf("sexpr: expected an update operation, got %s", n)
	}
	head := n.List[0]
	args := n.List[1:]
	switch head.Atom {
	case "insert-data":
		quads, err := b.quadData(args)
		if err != nil {
			return nil, err
		}
		return algebra.InsertData{Quads: quads}, nil
	case "delete-data":
		quads, err := b.quadData(args)
		if err != nil {
			return nil, err
		}
		return algebra.DeleteData{Quads: quads}, nil
	case "modify":
		return b.modify(args)
	case "create":
		if len(args) == 0 {
			return nil, fmt.Errorf("sexpr: create needs a graph IRI")
		}
		g, err := b.iriNode(lastArg(args))
		if err != nil {
			return nil, err
		}
		return algebra.Create{Graph: g, Silent: hasSilent(args)}, nil
	case "drop":
		ref, err := b.graphRef(lastArg(args))
		if err != nil {
			return nil, err
		}
		return algebra.Drop{Graph: ref, Silent: hasSilent(args)}, nil
	case "clear":
		ref, err := b.graphRef(lastArg(args))
		if err != nil {
			return nil, err
		}
		return algebra.Clear{Graph: ref, Silent: hasSilent(args)}, nil
	case "copy", "move", "add":
		plain := stripSilent(args)
		if len(plain) != 2 {
			return nil, fmt.Errorf("sexpr: %s needs a from and a to graph", head.Atom)
		}
		from, err := b.graphRef(plain[0])
		if err != nil {
			return nil, err
		}
		to, err := b.graphRef(plain[1])
		if err != nil {
			return nil, err
		}
		silent := hasSilent(args)
		switch head.Atom {
		case "copy":
			return algebra.Copy{From: from, To: to, Silent: silent}, nil
		case "move":
			return algebra.Move{From: from, To: to, Silent: silent}, nil
		default:
			return algebra.Add{From: from, To: to, Silent: silent}, nil
		}
	}
	return nil, fmt.Errorf("sexpr: unknown update operation %q", head.Atom)
}

func lastArg(args []Node) Node { return args[len(args)-1] }

func hasSilent(args []Node) bool {
	for _, a := range args {
		if a.IsAtom && a.Atom == "silent" {
			return true
		}
	}
	return false
}

func stripSilent(args []Node) []Node {
	var out []Node
	for _, a := range args {
		if a.IsAtom && a.Atom == "silent" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// graphRef parses "default" or a graph IRI into a GraphRef.
func (b *builder) graphRef(n Node) (algebra.GraphRef, error) {
	if n.IsAtom && n.Atom == "default" {
		return algebra.GraphRef{Default: true}, nil
	}
	iri, err := b.iriNode(n)
	if err != nil {
		return algebra.GraphRef{}, err
	}
	return algebra.GraphRef{IRI: iri}, nil
}

func (b *builder) quadData(args []Node) ([]algebra.QuadData, error) {
	var out []algebra.QuadData
	for _, a := range args {
		if a.IsAtom || len(a.List) == 0 {
			continue
		}
		switch a.List[0].Atom {
		case "tp":
			tp, err := b.triplePattern(a)
			if err != nil {
				return nil, err
			}
			out = append(out, algebra.QuadData{S: tp.S, P: tp.P, O: tp.O})
		case "graph":
			if len(a.List) != 3 {
				return nil, fmt.Errorf("sexpr: expected (graph IRI (tp S P O)), got %s", a)
			}
			g, err := b.iriNode(a.List[1])
			if err != nil {
				return nil, err
			}
			tp, err := b.triplePattern(a.List[2])
			if err != nil {
				return nil, err
			}
			out = append(out, algebra.QuadData{S: tp.S, P: tp.P, O: tp.O, Graph: g})
		default:
			return nil, fmt.Errorf("sexpr: expected (tp ...) or (graph ...), got %s", a)
		}
	}
	return out, nil
}

// modify parses (modify [(with IRI)] [(delete TP...)] [(insert TP...)] (where PLAN)).
func (b *builder) modify(args []Node) (algebra.UpdateOp, error) {
	var m algebra.Modify
	for _, a := range args {
		if a.IsAtom || len(a.List) == 0 {
			continue
		}
		switch a.List[0].Atom {
		case "with":
			g, err := b.iriNode(a.List[1])
			if err != nil {
				return nil, err
			}
			m.With = g
		case "delete":
			tmpl, err := b.templateList(a.List[1:])
			if err != nil {
				return nil, err
			}
			m.DeleteTemplate = tmpl
		case "insert":
			tmpl, err := b.templateList(a.List[1:])
			if err != nil {
				return nil, err
			}
			m.InsertTemplate = tmpl
		case "where":
			if len(a.List) != 2 {
				return nil, fmt.Errorf("sexpr: where takes exactly one plan")
			}
			plan, err := b.op(a.List[1])
			if err != nil {
				return nil, err
			}
			m.Where = plan
		}
	}
	return m, nil
}

func (b *builder) templateList(nodes []Node) ([]algebra.ConstructTemplate, error) {
	var out []algebra.ConstructTemplate
	for _, n := range nodes {
		tp, err := b.triplePattern(n)
		if err != nil {
			return nil, err
		}
		out = append(out, algebra.ConstructTemplate{S: tp.S, P: tp.P, O: tp.O})
	}
	return out, nil
}

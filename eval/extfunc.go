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
	"sync"

	"github.com/dop251/goja"

	"github.com/quadkit/quadkit/kgerr"
	"github.com/quadkit/quadkit/term"
)

// ExtFunc is a natively-implemented SPARQL extension function, keyed by the
// IRI a FuncCall names it with.
type ExtFunc func(args []term.Term) (term.Term, error)

// ExtRegistry holds user-registered SPARQL extension functions, keyed by
// IRI. Functions can be native Go closures or JavaScript registered against
// a shared goja runtime, the same embedding query/gizmo uses for its
// traversal scripts.
type ExtRegistry struct {
	mu     sync.RWMutex
	vm     *goja.Runtime
	native map[string]ExtFunc
	js     map[string]goja.Callable
}

// NewExtRegistry builds an empty registry with its own goja runtime.
func NewExtRegistry() *ExtRegistry {
	return &ExtRegistry{
		vm:     goja.New(),
		native: make(map[string]ExtFunc),
		js:     make(map[string]goja.Callable),
	}
}

// RegisterNative binds iri to a Go function.
func (r *ExtRegistry) RegisterNative(iri string, fn ExtFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.native[iri] = fn
}

// RegisterJS compiles source as a JavaScript function expression (e.g.
// "function(a, b) { return a + b }") and binds iri to it.
func (r *ExtRegistry) RegisterJS(iri, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.vm.RunString("(" + source + ")")
	if err != nil {
		return &kgerr.ParseError{Message: err.Error()}
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return &kgerr.TypeMismatch{Expected: "JavaScript function expression", Got: iri}
	}
	r.js[iri] = fn
	return nil
}

// Call dispatches to a registered extension function by IRI. Terms cross
// the JS boundary as their lexical form; the result comes back as an
// xsd:string literal, since goja has no notion of RDF terms.
func (r *ExtRegistry) Call(iri string, args []term.Term) (term.Term, error) {
	r.mu.RLock()
	native, hasNative := r.native[iri]
	fn, hasJS := r.js[iri]
	r.mu.RUnlock()

	switch {
	case hasNative:
		return native(args)
	case hasJS:
		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = r.vm.ToValue(lexicalOf(a))
		}
		res, err := fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return nil, &kgerr.TypeMismatch{Expected: "extension function without error", Got: err.Error()}
		}
		return term.NewString(res.String()), nil
	}
	return nil, &kgerr.UnsupportedOperation{What: "extension function " + iri}
}

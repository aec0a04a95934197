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

package command

import (
	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/config"
	"github.com/quadkit/quadkit/dict"
	"github.com/quadkit/quadkit/eval"
	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/kv"
	"github.com/quadkit/quadkit/store"
	"github.com/quadkit/quadkit/update"
)

// handle bundles the pieces a subcommand needs: the store and its
// dictionary, plus the read and update executors built over them.
type handle struct {
	Store  *store.QuadStore
	Dict   *dict.Dictionary
	Query  *exec.Executor
	Update *update.Executor

	db kv.Backend
}

func (h *handle) Close() error {
	return h.db.Close()
}

// openStore resolves the active Config and opens its backend, wiring up a
// fresh in-memory dictionary (the store itself keeps no cross-process
// dictionary; see DESIGN.md) and the read/update executors every command
// runs queries or mutations through.
func openStore() (*handle, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	clog.Infof("opening backend %q%s", cfg.DatabaseType, pathSuffix(cfg.DatabasePath))
	db, err := kv.Open(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseOptions)
	if err != nil {
		return nil, err
	}
	// Every backend the CLI opens reports its operation counts to the
	// package's prometheus collectors; serving them is left to whatever
	// process embeds this one, same as exec's query counters.
	db = kv.Instrument(db)
	qs := store.New(db)
	d := dict.New()
	ext := eval.NewExtRegistry()
	q := exec.New(qs, d, ext)
	u := update.New(qs, d, q)
	return &handle{Store: qs, Dict: d, Query: q, Update: u, db: db}, nil
}

func pathSuffix(path string) string {
	if path == "" {
		return ""
	}
	return " (" + path + ")"
}

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

// Package command wires quadkit's subcommands together, grounded on the
// teacher's cmd/cayley/command package: cobra for the command tree, viper
// for flag/env/file-layered configuration, one `openStore` function every
// subcommand that touches the database goes through.
package command

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quadkit/quadkit/config"
	"github.com/quadkit/quadkit/version"

	// Route clog through glog, the way the teacher's own CLI entry point
	// logs, rather than clog's bare-stdlib default.
	_ "github.com/quadkit/quadkit/clog/glog"

	// Register every backend this binary can open a store against.
	_ "github.com/quadkit/quadkit/kv/badgerkv"
	_ "github.com/quadkit/quadkit/kv/boltkv"
	_ "github.com/quadkit/quadkit/kv/leveldbkv"
	_ "github.com/quadkit/quadkit/kv/memkv"
	_ "github.com/quadkit/quadkit/kv/sqlkv"

	// Register the well-known RDF/RDFS/XSD/schema.org prefixes with voc so
	// query output can shorten IRIs to CURIEs (see formatTerm in query.go).
	_ "github.com/quadkit/quadkit/voc/core"
)

// v is the process-wide resolved configuration source: defaults, then the
// config file (if any), then environment variables, then these flags --
// the same layering order config.New documents.
var v *viper.Viper

// NewRootCmd builds the top-level `quadkit` command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quadkit",
		Short:        "An embeddable RDF/SPARQL quad store.",
		Version:      version.Version + " (" + version.GitHash + ")",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to a config file (YAML/JSON/TOML, viper-detected)")
	root.PersistentFlags().String("db", "", "backend name (memory, bolt, badger, leveldb, sql)")
	root.PersistentFlags().String("db-path", "", "backend path or DSN")
	root.PersistentFlags().StringToString("db-option", nil, "backend option, repeatable (key=value)")

	cobra.OnInitialize(func() {
		file, _ := root.PersistentFlags().GetString("config")
		var err error
		v, err = config.New(file)
		if err != nil {
			cobra.CheckErr(err)
		}
		bindGlobalFlags(root)
	})

	root.AddCommand(
		NewInitCmd(),
		NewLoadCmd(),
		NewQueryCmd(),
		NewReplCmd(),
	)
	return root
}

// bindGlobalFlags binds the persistent flags onto the shared viper instance
// after cobra has parsed argv, matching the teacher's cobra.OnInitialize +
// viper.BindPFlag pattern (registerQueryFlags binds --timeout onto the
// global viper instead, since it runs before OnInitialize creates v).
func bindGlobalFlags(root *cobra.Command) {
	v.BindPFlag("database", root.PersistentFlags().Lookup("db"))
	v.BindPFlag("db_path", root.PersistentFlags().Lookup("db-path"))
	if opts, _ := root.PersistentFlags().GetStringToString("db-option"); len(opts) > 0 {
		m := make(map[string]interface{}, len(opts))
		for k, val := range opts {
			m[k] = val
		}
		v.Set("db_options", m)
	}
}

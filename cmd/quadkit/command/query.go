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
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quadkit/quadkit/exec"
	"github.com/quadkit/quadkit/sexpr"
	"github.com/quadkit/quadkit/term"
	"github.com/quadkit/quadkit/voc"
)

const keyQueryTimeout = "query.timeout"

// getContext mirrors the teacher's getContext: a context cancelled either
// by its own caller or by an interrupt signal, whichever comes first.
func getContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
		case <-ctx.Done():
		}
		signal.Stop(ch)
		cancel()
	}()
	return ctx, cancel
}

func registerQueryFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "elapsed time until the query times out")
	viper.BindPFlag(keyQueryTimeout, cmd.Flags().Lookup("timeout"))
}

// NewQueryCmd runs a single sexpr query form (§3 algebra, read via the
// sexpr front end) against the configured database and prints each
// resulting row/quad/boolean as one line of JSON.
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query [FORM]",
		Aliases: []string{"qu"},
		Short:   "Run one query form and print its results.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var form string
			switch len(args) {
			case 0:
				b, err := ioutil.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				form = string(b)
			case 1:
				form = args[0]
			default:
				return fmt.Errorf("query takes one form, or nothing to read it from stdin")
			}

			h, err := openStore()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := getContext()
			defer cancel()
			if timeout := viper.GetDuration(keyQueryTimeout); timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			qf, err := sexpr.BuildQuery(form, sexpr.DefaultPrefixes())
			if err != nil {
				return err
			}
			res, err := h.Query.RunQuery(ctx, qf)
			if err != nil {
				return err
			}
			return printResult(h, res)
		},
	}
	registerQueryFlags(cmd)
	return cmd
}

func printResult(h *handle, res exec.Result) error {
	enc := json.NewEncoder(os.Stdout)
	if len(res.Rows) > 0 {
		for _, row := range res.Rows {
			m := make(map[string]string, len(row.Vars()))
			for _, name := range row.Vars() {
				id, _ := row.Get(name)
				t, err := h.Dict.Resolve(id)
				if err != nil {
					return err
				}
				m[name] = formatTerm(t)
			}
			if err := enc.Encode(m); err != nil {
				return err
			}
		}
		return nil
	}
	if len(res.Quads) > 0 {
		for _, q := range res.Quads {
			s, _ := h.Dict.Resolve(q.S)
			p, _ := h.Dict.Resolve(q.P)
			o, _ := h.Dict.Resolve(q.O)
			if err := enc.Encode(map[string]string{"s": formatTerm(s), "p": formatTerm(p), "o": formatTerm(o)}); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(map[string]bool{"result": res.Bool})
}

// formatTerm renders an IRI bare (no angle brackets) or, under a registered
// vocabulary prefix (see voc/core's blank import in root.go), as a CURIE --
// so query output reads "rdf:type" rather than the N-Triples-style
// "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>" wherever a well-known
// prefix applies. Everything else renders through its own String.
func formatTerm(t term.Term) string {
	if iri, ok := t.(term.IRI); ok {
		if short := voc.ShortIRI(string(iri)); short != string(iri) {
			return short
		}
		return string(iri)
	}
	return t.String()
}

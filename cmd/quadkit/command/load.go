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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/cmd/quadkit/internal/decompressor"
	"github.com/quadkit/quadkit/sexpr"
	"github.com/quadkit/quadkit/term"
)

// NewLoadCmd bulk-loads a quad file into the configured database. Each
// non-blank, non-comment (`;`) line is one `(tp S P O [G])` form -- see
// sexpr.ParseQuadLine -- rather than a surface RDF serialization, since
// parsing those is explicitly out of scope (see SPEC_FULL.md's Non-goals).
// The file may be gzip- or bzip2-compressed; decompressor sniffs it.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Bulk-load a quad file into the database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openStore()
			if err != nil {
				return err
			}
			defer h.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := decompressor.New(f)
			if err != nil {
				return fmt.Errorf("detecting compression: %w", err)
			}

			prefixes := sexpr.DefaultPrefixes()
			ctx := context.Background()
			start := time.Now()
			n := 0
			scanner := bufio.NewScanner(r)
			for lineNo := 1; scanner.Scan(); lineNo++ {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, ";") {
					continue
				}
				qd, err := sexpr.ParseQuadLine(line, prefixes)
				if err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
				q := term.Quad{
					S: h.Dict.Intern(qd.S),
					P: h.Dict.Intern(qd.P),
					O: h.Dict.Intern(qd.O),
				}
				if qd.Graph != "" {
					q.G = h.Dict.Intern(qd.Graph)
				}
				if err := h.Store.Insert(ctx, q); err != nil {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
				n++
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			clog.Infof("loaded %d quads from %s in %v", n, args[0], time.Since(start))
			return nil
		},
	}
	return cmd
}

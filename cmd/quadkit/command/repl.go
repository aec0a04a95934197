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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quadkit/quadkit/clog"
	"github.com/quadkit/quadkit/sexpr"
	"github.com/quadkit/quadkit/voc"
)

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quadkit_history")
}

// NewReplCmd drops into an interactive sexpr session: liner supplies line
// editing and history, sexpr.Session.Parse tells "need another line" from
// "bad form", and Execute runs the completed one. Two bare commands bypass
// the sexpr parser entirely: ":prefixes" lists the registered vocabulary
// prefixes and ":expand CURIE" resolves one to its full IRI.
func NewReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Drop into an interactive session against the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openStore()
			if err != nil {
				return err
			}
			defer h.Close()

			ctx, cancel := getContext()
			defer cancel()
			timeout := viper.GetDuration(keyQueryTimeout)

			return runRepl(ctx, h, timeout)
		},
	}
	registerQueryFlags(cmd)
	return cmd
}

func runRepl(ctx context.Context, h *handle, timeout time.Duration) error {
	sess := sexpr.NewSession(h.Query, h.Update)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if hp := historyPath(); hp != "" {
		if f, err := os.Open(hp); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	var buf string
	prompt := "quadkit> "
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			return err
		}
		if prompt == "quadkit> " && input == ":prefixes" {
			printPrefixes()
			continue
		}
		if prompt == "quadkit> " && strings.HasPrefix(input, ":expand ") {
			fmt.Println(voc.FullIRI(strings.TrimPrefix(input, ":expand ")))
			continue
		}

		buf += input + "\n"
		if perr := sess.Parse(buf); perr != nil {
			if errors.Is(perr, sexpr.ErrIncomplete) {
				prompt = "....... "
				continue
			}
			fmt.Fprintln(os.Stderr, perr)
			buf, prompt = "", "quadkit> "
			continue
		}
		line.AppendHistory(buf)

		qctx := ctx
		var qcancel context.CancelFunc
		if timeout > 0 {
			qctx, qcancel = context.WithTimeout(ctx, timeout)
		}
		res, err := sess.Execute(qctx, buf)
		if qcancel != nil {
			qcancel()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		} else if res != nil {
			if perr := printResult(h, *res); perr != nil {
				fmt.Fprintln(os.Stderr, perr)
			}
		}
		buf, prompt = "", "quadkit> "

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}

	if hp := historyPath(); hp != "" {
		if f, err := os.Create(hp); err == nil {
			line.WriteHistory(f)
			f.Close()
		} else {
			clog.Warningf("repl: could not save history: %v", err)
		}
	}
	return nil
}

// printPrefixes lists every vocabulary prefix voc/core registered, sorted
// by full IRI, the :prefixes REPL command a user reaches for when unsure
// which CURIEs formatTerm will shorten output to.
func printPrefixes() {
	ns := voc.List()
	sort.Sort(voc.ByFullName(ns))
	for _, n := range ns {
		fmt.Printf("%s\t%s\n", n.Prefix, n.Full)
	}
}

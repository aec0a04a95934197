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

package command_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/cmd/quadkit/command"
)

// captureStdout redirects os.Stdout for the duration of fn, since
// printResult writes straight to it rather than the cobra command's
// configured output writer.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	fn()
	require.NoError(t, w.Close())
	os.Stdout = old
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestInitCommandOpensEmptyStore(t *testing.T) {
	root := command.NewRootCmd()
	root.SetArgs([]string{"--db", "memory", "init"})
	require.NoError(t, root.Execute())
}

func TestLoadThenQueryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	quadFile := filepath.Join(dir, "quads.sexp")
	require.NoError(t, os.WriteFile(quadFile, []byte(
		"; comment line, skipped\n"+
			"(tp <http://example.org/alice> <http://example.org/knows> <http://example.org/bob>)\n"+
			"(tp <http://example.org/bob> <http://example.org/knows> <http://example.org/carol>)\n",
	), 0o644))
	dbPath := filepath.Join(dir, "db")

	loadCmd := command.NewRootCmd()
	loadCmd.SetArgs([]string{"--db", "bolt", "--db-path", dbPath, "load", quadFile})
	require.NoError(t, loadCmd.Execute())

	queryCmd := command.NewRootCmd()
	queryCmd.SetArgs([]string{"--db", "bolt", "--db-path", dbPath, "query", "(select (bgp (tp ?s <http://example.org/knows> ?o)))"})
	out := captureStdout(t, func() {
		require.NoError(t, queryCmd.Execute())
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var rows []map[string]string
	for _, line := range lines {
		var row map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &row))
		rows = append(rows, row)
	}
	require.Contains(t, rows, map[string]string{"s": "http://example.org/alice", "o": "http://example.org/bob"})
	require.Contains(t, rows, map[string]string{"s": "http://example.org/bob", "o": "http://example.org/carol"})
}

func TestQueryCommandAsk(t *testing.T) {
	dir := t.TempDir()
	quadFile := filepath.Join(dir, "quads.sexp")
	require.NoError(t, os.WriteFile(quadFile, []byte("(tp <http://example.org/alice> <http://example.org/knows> <http://example.org/bob>)\n"), 0o644))
	dbPath := filepath.Join(dir, "db")

	loadCmd := command.NewRootCmd()
	loadCmd.SetArgs([]string{"--db", "bolt", "--db-path", dbPath, "load", quadFile})
	require.NoError(t, loadCmd.Execute())

	askCmd := command.NewRootCmd()
	askCmd.SetArgs([]string{"--db", "bolt", "--db-path", dbPath, "query", "(ask (bgp (tp <http://example.org/alice> <http://example.org/knows> <http://example.org/bob>)))"})
	out := captureStdout(t, func() {
		require.NoError(t, askCmd.Execute())
	})

	var res map[string]bool
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &res))
	require.True(t, res["result"])
}

func TestQueryCommandRejectsMultipleArgs(t *testing.T) {
	root := command.NewRootCmd()
	root.SetArgs([]string{"--db", "memory", "query", "form-one", "form-two"})
	var errOut bytes.Buffer
	root.SetErr(&errOut)
	require.Error(t, root.Execute())
}

func TestLoadCommandRejectsBadLine(t *testing.T) {
	dir := t.TempDir()
	quadFile := filepath.Join(dir, "quads.sexp")
	require.NoError(t, os.WriteFile(quadFile, []byte("(not-a-tp :alice :knows)\n"), 0o644))

	root := command.NewRootCmd()
	root.SetArgs([]string{"--db", "memory", "--db-path", filepath.Join(dir, "db"), "load", quadFile})
	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}

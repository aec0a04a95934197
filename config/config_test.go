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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quadkit/quadkit/config"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	v, err := config.New("")
	require.NoError(t, err)
	c, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, "memory", c.DatabaseType)
	require.Equal(t, 30*time.Second, c.QueryTimeout)
	require.Equal(t, 10000, c.LoadSize)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quadkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: bolt\ndb_path: /tmp/quadkit.db\n"), 0o644))

	v, err := config.New(path)
	require.NoError(t, err)
	c, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, "bolt", c.DatabaseType)
	require.Equal(t, "/tmp/quadkit.db", c.DatabasePath)
}

func TestEnvVarOverridesDefault(t *testing.T) {
	t.Setenv("QUADKIT_DATABASE", "badger")
	v, err := config.New("")
	require.NoError(t, err)
	c, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, "badger", c.DatabaseType)
}

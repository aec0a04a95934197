// Copyright 2014 The Cayley Authors. All rights reserved.
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

// Package config resolves the settings cmd/quadkit runs with: a backend
// name/path/options triple plus a handful of inert networking fields kept
// only because the original cayley.cfg shape had them (the HTTP server
// itself is out of scope, see SPEC_FULL.md's Non-goals). Resolution order
// is viper's own: flags, then $QUADKIT_* environment variables, then a
// config file, then these defaults -- the same layering the teacher's
// internal/config + cmd/cayley/command flags built by hand with the
// package-level flag vars below.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/quadkit/quadkit/clog"
)

// Config is the resolved set of options a quadkit process runs with.
type Config struct {
	DatabaseType    string                 `mapstructure:"database"`
	DatabasePath    string                 `mapstructure:"db_path"`
	DatabaseOptions map[string]interface{} `mapstructure:"db_options"`

	// ListenHost/ListenPort/ReadOnly are carried for cayley.cfg
	// compatibility but unused: quadkit has no HTTP server.
	ListenHost string `mapstructure:"listen_host"`
	ListenPort string `mapstructure:"listen_port"`
	ReadOnly   bool   `mapstructure:"read_only"`

	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	LoadSize     int           `mapstructure:"load_size"`
}

// defaults mirrors the teacher's package-level flag.String/.Int/.Duration
// default values, applied to viper before any flag/env/file overrides it.
func defaults(v *viper.Viper) {
	v.SetDefault("database", "memory")
	v.SetDefault("db_path", "")
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", "64210")
	v.SetDefault("read_only", false)
	v.SetDefault("query_timeout", 30*time.Second)
	v.SetDefault("load_size", 10000)
}

// New builds a viper instance pre-loaded with defaults, environment
// variables under the QUADKIT_ prefix (QUADKIT_DATABASE, QUADKIT_DB_PATH,
// ...), and, if non-empty, configFile. cmd/quadkit binds cobra flags onto
// the same instance before calling Load.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("quadkit")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		clog.Infof("config: loaded %s", configFile)
	}
	return v, nil
}

// Load decodes v's resolved settings into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

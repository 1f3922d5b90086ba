// Copyright 2026 The ScalarVM Authors
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

package scalarvm

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the runtime's one and only configuration surface: initial
// pool sizing, a cap on live threads, debug verbosity, and the debug
// HTTP listener address. Loaded from TOML, mirroring the teacher's
// JSON caddy.Config but with TOML as the sole native format — there is
// no source-text front end in scope, so there's no adapter chain to
// pick a format for.
type Config struct {
	Pools struct {
		ScalarCapacity  int `toml:"scalar_capacity"`
		ArrayCapacity   int `toml:"array_capacity"`
		HashCapacity    int `toml:"hash_capacity"`
		ChannelCapacity int `toml:"channel_capacity"`
	} `toml:"pools"`

	// MaxThreads caps the number of concurrently live VM threads
	// (the initial thread plus every CORO/FRCORO descendant). Zero
	// means unbounded.
	MaxThreads int `toml:"max_threads"`

	Debug bool `toml:"debug"`

	// DebugListenAddr, if non-empty, starts the loopback-only debug
	// HTTP surface (see debugserver.go) on this address.
	DebugListenAddr string `toml:"debug_listen_addr"`
}

// DefaultConfig returns the configuration used when no TOML file is
// given: matches vm.defaultPoolCapacity for every pool kind, an
// unbounded thread count, and debug features off.
func DefaultConfig() Config {
	var c Config
	c.Pools.ScalarCapacity = 64
	c.Pools.ArrayCapacity = 64
	c.Pools.HashCapacity = 64
	c.Pools.ChannelCapacity = 64
	return c
}

// LoadConfig reads and decodes a TOML config file at path. Missing
// fields retain DefaultConfig's values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("scalarvm: reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("scalarvm: decoding config: %w", err)
	}
	return cfg, nil
}

// Copyright 2022 The Project Oak Authors
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

package main

import (
	"fmt"

	toml "github.com/pelletier/go-toml"
)

// ServerConfig mirrors the command's flags for deployments that prefer a
// checked-in file over a long flag invocation.
type ServerConfig struct {
	BindAddr     string `toml:"bind_addr"`
	KeystoreDir  string `toml:"keystore_dir"`
	RootAgent    string `toml:"root"`
	TrustedRoots string `toml:"trusted_roots"`
	StorePath    string `toml:"store_path"`
}

// LoadServerConfigFromFile loads a ServerConfig from a toml file in the given path.
func LoadServerConfigFromFile(path string) (*ServerConfig, error) {
	tomlTree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't load toml file: %v", err)
	}

	config := ServerConfig{}
	if err := tomlTree.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal toml file: %v", err)
	}

	return &config, nil
}

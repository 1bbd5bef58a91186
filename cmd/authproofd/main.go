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

// Package main runs the authorization-request HTTP server: a thin shell
// around the stateless verification pipeline in pkg/request, with
// submissions persisted via internal/store. The core packages know nothing
// about this one.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/trustfabric/authlogic/internal/keystore"
	applog "github.com/trustfabric/authlogic/internal/log"
	"github.com/trustfabric/authlogic/internal/server"
	"github.com/trustfabric/authlogic/internal/store"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
)

// applyConfig overwrites a flag's value with cfg's corresponding field,
// unless the flag was explicitly set on the command line.
func applyConfig(cfg *ServerConfig, bindAddr, keystoreDir, rootAgentID, trustedRoots, storePath *string) {
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if !explicit["bind_addr"] && cfg.BindAddr != "" {
		*bindAddr = cfg.BindAddr
	}
	if !explicit["keystore_dir"] && cfg.KeystoreDir != "" {
		*keystoreDir = cfg.KeystoreDir
	}
	if !explicit["root"] && cfg.RootAgent != "" {
		*rootAgentID = cfg.RootAgent
	}
	if !explicit["trusted_roots"] && cfg.TrustedRoots != "" {
		*trustedRoots = cfg.TrustedRoots
	}
	if !explicit["store_path"] && cfg.StorePath != "" {
		*storePath = cfg.StorePath
	}
}

func main() {
	configPath := flag.String("config", "",
		"Path to a toml ServerConfig file. When set, its fields override the defaults below; explicit flags still win.")
	bindAddr := flag.String("bind_addr", ":15316", "Address to listen on.")
	keystoreDir := flag.String("keystore_dir", "keystore",
		"Root directory of the server's on-disk keystore (private_keys/, certs/, credentials/).")
	rootAgentID := flag.String("root", "#root",
		"Agent id the server signs acceptance credentials as. Its private key must be in the keystore.")
	trustedRoots := flag.String("trusted_roots", "#root",
		"Comma-separated list of agent ids trusted as self-signed certificate roots.")
	storePath := flag.String("store_path", "authproofd.db",
		"Path to the bbolt submission-log database.")
	flag.Parse()

	if *configPath != "" {
		cfg, err := LoadServerConfigFromFile(*configPath)
		if err != nil {
			log.Fatalf("authproofd: %v", err)
		}
		applyConfig(cfg, bindAddr, keystoreDir, rootAgentID, trustedRoots, storePath)
	}

	l := applog.New(zapcore.AddSync(os.Stderr), zapcore.InfoLevel).Named("authproofd")

	ks := keystore.Open(*keystoreDir)
	rootAgent := logic.Agent(*rootAgentID)
	rootPriv, err := ks.LoadPrivateKey(rootAgent)
	if err != nil {
		log.Fatalf("authproofd: loading root private key: %v", err)
	}

	roots := credential.Roots{}
	for _, id := range strings.Split(*trustedRoots, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			roots[id] = true
		}
	}

	submissionStore, err := store.Open(*storePath, l.Named("store"))
	if err != nil {
		log.Fatalf("authproofd: opening submission store: %v", err)
	}
	defer submissionStore.Close()

	srv := &server.Server{
		Roots:     roots,
		RootAgent: rootAgent,
		RootPriv:  rootPriv,
		Store:     submissionStore,
		Log:       l,
	}

	l.Infow("authproofd listening", "addr", *bindAddr, "root", rootAgent.ID)
	if err := http.ListenAndServe(*bindAddr, srv.Router()); err != nil {
		log.Fatalf("authproofd: %v", err)
	}
}

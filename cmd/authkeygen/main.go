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

// Package main contains a command-line tool for provisioning a new agent: it
// generates an Ed25519 keypair, certifies the public key with a chosen
// issuer's private key, and writes the private key and certificate to the
// on-disk keystore.
package main

import (
	"crypto/ed25519"
	"flag"
	"log"

	"github.com/trustfabric/authlogic/internal/keystore"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
)

func main() {
	keystoreDir := flag.String("keystore_dir", "keystore",
		"Required - Root directory of the on-disk keystore (private_keys/, certs/, credentials/).")
	agentID := flag.String("agent", "",
		"Required - Agent id to provision a key for, e.g. #alice.")
	issuerID := flag.String("issuer", "",
		"Agent id whose private key certifies the new key. Defaults to the new agent itself (self-signed).")
	flag.Parse()

	if *agentID == "" {
		log.Fatalf("authkeygen: -agent is required")
	}
	agent := logic.Agent(*agentID)
	issuer := agent
	if *issuerID != "" {
		issuer = logic.Agent(*issuerID)
	}

	store := keystore.Open(*keystoreDir)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		log.Fatalf("authkeygen: generating key: %v", err)
	}

	signingPriv := priv
	if !issuer.Equal(agent) {
		signingPriv, err = store.LoadPrivateKey(issuer)
		if err != nil {
			log.Fatalf("authkeygen: loading issuer private key: %v", err)
		}
	}

	statement := logic.IsKey(agent, credential.Fingerprint(pub))
	cred, err := credential.NewSigned(statement, issuer, signingPriv)
	if err != nil {
		log.Fatalf("authkeygen: signing certificate: %v", err)
	}
	cert, err := credential.NewCertificate(pub, agent, cred)
	if err != nil {
		log.Fatalf("authkeygen: building certificate: %v", err)
	}

	if err := store.SavePrivateKey(agent, priv); err != nil {
		log.Fatalf("authkeygen: %v", err)
	}
	if err := store.SaveCertificate(cert); err != nil {
		log.Fatalf("authkeygen: %v", err)
	}

	log.Printf("authkeygen: provisioned %s, certified by %s, fingerprint %s", agent.ID, issuer.ID, credential.Fingerprint(pub).ID)
}

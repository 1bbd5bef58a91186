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

// Package keystore loads trusted roots, agent certificates, credentials and
// private keys from named files keyed by agent id, underneath a single root
// directory with three subdirectories (private_keys/*.pem, certs/*.cert,
// credentials/*.cred). The core never imports this package.
package keystore

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/wire"
)

// Store is a directory-backed keystore rooted at Dir, laid out as:
//
//	Dir/private_keys/<agent>.pem   PKCS8 PEM Ed25519 private key
//	Dir/certs/<agent>.cert         wire-encoded Certificate JSON
//	Dir/credentials/*.cred         wire-encoded Credential JSON
//
// <agent> is the agent's ID with its leading '#' stripped.
type Store struct {
	Dir string
}

// Open returns a Store rooted at dir. It does not create dir; the Save
// methods create the subdirectory they write into when it is missing.
func Open(dir string) *Store {
	return &Store{Dir: dir}
}

func filenameFor(agent *logic.Formula) string {
	return strings.TrimPrefix(agent.ID, "#")
}

func (s *Store) privateKeyPath(agent *logic.Formula) string {
	return filepath.Join(s.Dir, "private_keys", filenameFor(agent)+".pem")
}

func (s *Store) certPath(agent *logic.Formula) string {
	return filepath.Join(s.Dir, "certs", filenameFor(agent)+".cert")
}

// LoadPrivateKey reads and parses the PKCS8 PEM private key for agent.
func (s *Store) LoadPrivateKey(agent *logic.Formula) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(s.privateKeyPath(agent))
	if err != nil {
		return nil, fmt.Errorf("keystore: reading private key for %s: %w", agent.ID, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("keystore: private key for %s is not valid PEM", agent.ID)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keystore: parsing private key for %s: %w", agent.ID, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keystore: private key for %s is not Ed25519", agent.ID)
	}
	return priv, nil
}

// SavePrivateKey PEM/PKCS8-encodes priv and writes it for agent, creating
// the private_keys subdirectory if necessary. File permissions are
// restricted to the owner, matching a key file's sensitivity.
func (s *Store) SavePrivateKey(agent *logic.Formula, priv ed25519.PrivateKey) error {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("keystore: marshaling private key for %s: %w", agent.ID, err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	path := s.privateKeyPath(agent)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("keystore: creating private_keys directory: %w", err)
	}
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		return fmt.Errorf("keystore: writing private key for %s: %w", agent.ID, err)
	}
	return nil
}

// LoadCertificate reads and decodes the certificate for agent, without
// verifying its chain: callers must run it through credential.VerifyChain.
func (s *Store) LoadCertificate(agent *logic.Formula) (*credential.Certificate, error) {
	raw, err := os.ReadFile(s.certPath(agent))
	if err != nil {
		return nil, fmt.Errorf("keystore: reading certificate for %s: %w", agent.ID, err)
	}
	cert, err := wire.UnmarshalCertificate(raw)
	if err != nil {
		return nil, fmt.Errorf("keystore: decoding certificate for %s: %w", agent.ID, err)
	}
	return cert, nil
}

// SaveCertificate wire-encodes cert and writes it keyed by its subject's
// agent id, creating the certs subdirectory if necessary.
func (s *Store) SaveCertificate(cert *credential.Certificate) error {
	data, err := wire.MarshalCertificate(cert)
	if err != nil {
		return fmt.Errorf("keystore: encoding certificate for %s: %w", cert.Subject().ID, err)
	}
	path := s.certPath(cert.Subject())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("keystore: creating certs directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("keystore: writing certificate for %s: %w", cert.Subject().ID, err)
	}
	return nil
}

// LoadAllCredentials decodes every *.cred file under Dir/credentials,
// without verifying any signature: callers must check each one under its
// signator's certified key before admitting it as an assumption.
func (s *Store) LoadAllCredentials() ([]*credential.Credential, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "credentials", "*.cred"))
	if err != nil {
		return nil, fmt.Errorf("keystore: listing credentials: %w", err)
	}
	creds := make([]*credential.Credential, 0, len(matches))
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("keystore: reading credential %s: %w", path, err)
		}
		cred, err := wire.UnmarshalCredential(raw)
		if err != nil {
			return nil, fmt.Errorf("keystore: decoding credential %s: %w", path, err)
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// SaveCredential wire-encodes cred into Dir/credentials/<name>.cred.
func (s *Store) SaveCredential(name string, cred *credential.Credential) error {
	data, err := wire.MarshalCredential(cred)
	if err != nil {
		return fmt.Errorf("keystore: encoding credential %s: %w", name, err)
	}
	dir := filepath.Join(s.Dir, "credentials")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("keystore: creating credentials directory: %w", err)
	}
	path := filepath.Join(dir, name+".cred")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("keystore: writing credential %s: %w", name, err)
	}
	return nil
}

// LoadCertificateChain loads agent's certificate and every certificate
// needed to verify its chain, by following cred.Signator() up through
// issuer certificates until a self-signed one is reached. It does not
// itself check the chain against a root set; pair with credential.VerifyChain.
func (s *Store) LoadCertificateChain(agent *logic.Formula) (map[string]*credential.Certificate, error) {
	byAgent := map[string]*credential.Certificate{}
	cur := agent
	for {
		if _, seen := byAgent[cur.ID]; seen {
			break
		}
		cert, err := s.LoadCertificate(cur)
		if err != nil {
			return nil, err
		}
		byAgent[cur.ID] = cert
		if cert.IsRoot() {
			break
		}
		cur = cert.Credential().Signator()
	}
	return byAgent, nil
}

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

package credential

import (
	"crypto/ed25519"
	"fmt"

	"go.uber.org/multierr"

	"github.com/trustfabric/authlogic/logic"
)

// Certificate binds a public key to a subject agent: cred.Statement() must
// be iskey(subject, fingerprint(publicKey)), signed by the issuing agent.
// A root certificate is self-signed (subject == cred.Signator()).
type Certificate struct {
	publicKey ed25519.PublicKey
	subject   *logic.Formula
	cred      *Credential
}

// NewCertificate builds a Certificate, rejecting any combination whose
// credential does not actually state the claimed key binding.
func NewCertificate(pub ed25519.PublicKey, subject *logic.Formula, cred *Credential) (*Certificate, error) {
	want := logic.IsKey(subject, Fingerprint(pub))
	if !cred.Statement().Equal(want) {
		return nil, fmt.Errorf("credential: certificate's credential does not state iskey(%v, fingerprint(publicKey))", subject.ID)
	}
	return &Certificate{publicKey: pub, subject: subject, cred: cred}, nil
}

// PublicKey returns the certified public key.
func (c *Certificate) PublicKey() ed25519.PublicKey { return c.publicKey }

// Subject returns the principal the key is certified for.
func (c *Certificate) Subject() *logic.Formula { return c.subject }

// Credential returns the issuer's signed binding of PublicKey to Subject.
func (c *Certificate) Credential() *Credential { return c.cred }

// IsRoot reports whether this certificate is self-signed: its subject is
// also its own issuer.
func (c *Certificate) IsRoot() bool {
	return c.subject.Equal(c.cred.Signator())
}

// Roots identifies a trusted set of root agent identifiers, keyed by the
// canonical Agent ID (e.g. "#root-ca").
type Roots map[string]bool

// VerifyChain recursively verifies cert up to a trusted, self-signed root:
// cert's own credential must validate under its issuer's certified key, and
// that issuer's certificate must in turn be found in byAgent and verified
// the same way, terminating at a self-signed certificate present in roots.
// byAgent maps an agent's canonical ID to the certificate certifying its
// key. Returns a multierr-aggregated error describing every problem found
// in the chain (not just the first).
func VerifyChain(cert *Certificate, byAgent map[string]*Certificate, roots Roots) error {
	return verifyChain(cert, byAgent, roots, map[string]bool{})
}

func verifyChain(cert *Certificate, byAgent map[string]*Certificate, roots Roots, visiting map[string]bool) error {
	var errs error

	issuer := cert.cred.Signator()
	if cert.IsRoot() {
		if !roots[issuer.ID] {
			multierr.AppendInto(&errs, fmt.Errorf("credential: self-signed certificate for %s is not a trusted root", issuer.ID))
		}
		if !cert.cred.VerifySignature(cert.publicKey) {
			multierr.AppendInto(&errs, fmt.Errorf("credential: root certificate for %s has an invalid self-signature", cert.subject.ID))
		}
		return errs
	}

	if visiting[issuer.ID] {
		multierr.AppendInto(&errs, fmt.Errorf("credential: certificate chain for %s cycles back through %s", cert.subject.ID, issuer.ID))
		return errs
	}

	issuerCert, ok := byAgent[issuer.ID]
	if !ok {
		multierr.AppendInto(&errs, fmt.Errorf("credential: no certificate found for issuer %s of %s's key", issuer.ID, cert.subject.ID))
		return errs
	}
	if !cert.cred.VerifySignature(issuerCert.publicKey) {
		multierr.AppendInto(&errs, fmt.Errorf("credential: certificate for %s has an invalid signature under %s's certified key", cert.subject.ID, issuer.ID))
	}

	visiting = cloneVisiting(visiting)
	visiting[cert.subject.ID] = true
	if err := verifyChain(issuerCert, byAgent, roots, visiting); err != nil {
		multierr.AppendInto(&errs, err)
	}
	return errs
}

func cloneVisiting(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

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

// Package credential implements signed formulas (Credentials) and public-key
// certificates (Certificates) that bind a fingerprint to a principal: the
// cryptographic evidence that elevates a signed formula into an admissible
// logical assumption.
package credential

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
)

// Credential is a formula together with an Ed25519 signature over its
// canonical encoding by a named signator. The fields are private; use
// NewSigned to create one from a private key, or New (as package wire's
// UnmarshalCredential does) to reconstruct one from raw parts. New does not
// check the signature, so callers call VerifySignature before trusting the
// result.
type Credential struct {
	statement *logic.Formula
	signator  *logic.Formula
	signature []byte
}

// NewSigned builds a Credential asserting statement, signed by signator
// using priv.
func NewSigned(statement, signator *logic.Formula, priv ed25519.PrivateKey) (*Credential, error) {
	if signator.Kind != logic.KindAgent {
		return nil, fmt.Errorf("credential: signator must be an Agent, got %v", signator.Kind)
	}
	sig := ed25519.Sign(priv, []byte(canon.Formula(statement)))
	return &Credential{statement: statement, signator: signator, signature: sig}, nil
}

// New reconstructs a Credential from its raw parts without checking the
// signature; used when deserializing off the wire, where the caller is
// expected to call VerifySignature before trusting the result.
func New(statement, signator *logic.Formula, signature []byte) *Credential {
	return &Credential{statement: statement, signator: signator, signature: signature}
}

// Statement returns the formula this credential asserts.
func (c *Credential) Statement() *logic.Formula { return c.statement }

// Signator returns the agent that produced the signature.
func (c *Credential) Signator() *logic.Formula { return c.signator }

// Signature returns the raw Ed25519 signature bytes.
func (c *Credential) Signature() []byte { return c.signature }

// VerifySignature reports whether Signature is a valid Ed25519 signature
// under pub over the canonical encoding of Statement.
func (c *Credential) VerifySignature(pub ed25519.PublicKey) bool {
	return ed25519.Verify(pub, []byte(canon.Formula(c.statement)), c.signature)
}

// Fingerprint derives the stable Key atom identifying pub: a "[...]"-bracketed
// hex-encoded SHA-256 digest of the raw public key bytes, matching the
// canonical encoding's bracket convention for Key atoms.
func Fingerprint(pub ed25519.PublicKey) *logic.Formula {
	digest := sha256.Sum256(pub)
	return logic.Key(fmt.Sprintf("[%x]", digest))
}

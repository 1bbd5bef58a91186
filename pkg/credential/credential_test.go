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
	"testing"

	"github.com/trustfabric/authlogic/logic"
)

func TestNewSigned_verifiesUnderTheSigningKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	statement := logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))

	cred, err := NewSigned(statement, logic.Agent("#alice"), priv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	if !cred.VerifySignature(pub) {
		t.Fatalf("expected signature to verify under the signing key")
	}
}

func TestVerifySignature_rejectsTamperedStatement(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	statement := logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))
	cred, err := NewSigned(statement, logic.Agent("#alice"), priv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}

	tampered := New(logic.Open(logic.Agent("#eve"), logic.Resource("<r1>")), cred.Signator(), cred.Signature())
	if tampered.VerifySignature(pub) {
		t.Fatalf("expected a tampered statement to fail signature verification")
	}
}

func TestVerifyChain_acceptsTwoHopChainToTrustedRoot(t *testing.T) {
	rootPub, rootPriv, _ := ed25519.GenerateKey(nil)
	alicePub, alicePriv, _ := ed25519.GenerateKey(nil)
	_ = alicePriv

	rootAgent := logic.Agent("#root")
	aliceAgent := logic.Agent("#alice")

	rootCred, err := NewSigned(logic.IsKey(rootAgent, Fingerprint(rootPub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned root: %v", err)
	}
	rootCert, err := NewCertificate(rootPub, rootAgent, rootCred)
	if err != nil {
		t.Fatalf("NewCertificate root: %v", err)
	}
	if !rootCert.IsRoot() {
		t.Fatalf("expected a self-signed certificate to report IsRoot")
	}

	aliceCred, err := NewSigned(logic.IsKey(aliceAgent, Fingerprint(alicePub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned alice: %v", err)
	}
	aliceCert, err := NewCertificate(alicePub, aliceAgent, aliceCred)
	if err != nil {
		t.Fatalf("NewCertificate alice: %v", err)
	}

	byAgent := map[string]*Certificate{"#root": rootCert, "#alice": aliceCert}
	roots := Roots{"#root": true}

	if err := VerifyChain(aliceCert, byAgent, roots); err != nil {
		t.Fatalf("expected the chain to verify, got %v", err)
	}
}

func TestVerifyChain_rejectsSelfSignedCertificateNotInRoots(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	agent := logic.Agent("#impostor")
	cred, err := NewSigned(logic.IsKey(agent, Fingerprint(pub)), agent, priv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	cert, err := NewCertificate(pub, agent, cred)
	if err != nil {
		t.Fatalf("NewCertificate: %v", err)
	}

	if err := VerifyChain(cert, map[string]*Certificate{}, Roots{}); err == nil {
		t.Fatalf("expected an untrusted self-signed certificate to be rejected")
	}
}

func TestVerifyChain_rejectsMissingIssuerCertificate(t *testing.T) {
	_, rootPriv, _ := ed25519.GenerateKey(nil)
	alicePub, _, _ := ed25519.GenerateKey(nil)
	rootAgent := logic.Agent("#root")
	aliceAgent := logic.Agent("#alice")

	aliceCred, err := NewSigned(logic.IsKey(aliceAgent, Fingerprint(alicePub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	aliceCert, err := NewCertificate(alicePub, aliceAgent, aliceCred)
	if err != nil {
		t.Fatalf("NewCertificate: %v", err)
	}

	if err := VerifyChain(aliceCert, map[string]*Certificate{}, Roots{"#root": true}); err == nil {
		t.Fatalf("expected verification to fail when the issuer's own certificate is missing from the chain")
	}
}

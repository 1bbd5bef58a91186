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

package request

import (
	"crypto/ed25519"
	"testing"

	"github.com/trustfabric/authlogic/internal/prover"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
)

// fixture wires up a trusted root, a certified requester #a and a signed
// "open" credential from #a, and returns everything a test needs to build
// and verify an AccessRequest over "#a says open(#bob, <r1>)".
type fixture struct {
	rootAgent, aliceAgent   *logic.Formula
	rootPub, alicePub       ed25519.PublicKey
	rootPriv, alicePriv     ed25519.PrivateKey
	rootCert, aliceCert     *credential.Certificate
	openStatement           *logic.Formula
	aliceCred               *credential.Credential
	roots                   credential.Roots
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rootPub, rootPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey root: %v", err)
	}
	alicePub, alicePriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey alice: %v", err)
	}

	rootAgent := logic.Agent("#root")
	aliceAgent := logic.Agent("#a")

	rootCred, err := credential.NewSigned(logic.IsKey(rootAgent, credential.Fingerprint(rootPub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned root cred: %v", err)
	}
	rootCert, err := credential.NewCertificate(rootPub, rootAgent, rootCred)
	if err != nil {
		t.Fatalf("NewCertificate root: %v", err)
	}

	aliceKeyCred, err := credential.NewSigned(logic.IsKey(aliceAgent, credential.Fingerprint(alicePub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned alice key cred: %v", err)
	}
	aliceCert, err := credential.NewCertificate(alicePub, aliceAgent, aliceKeyCred)
	if err != nil {
		t.Fatalf("NewCertificate alice: %v", err)
	}

	openStatement := logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))
	aliceCred, err := credential.NewSigned(openStatement, aliceAgent, alicePriv)
	if err != nil {
		t.Fatalf("NewSigned alice open cred: %v", err)
	}

	return &fixture{
		rootAgent: rootAgent, aliceAgent: aliceAgent,
		rootPub: rootPub, alicePub: alicePub,
		rootPriv: rootPriv, alicePriv: alicePriv,
		rootCert: rootCert, aliceCert: aliceCert,
		openStatement: openStatement,
		aliceCred:     aliceCred,
		roots:         credential.Roots{"#root": true},
	}
}

// buildProof proves "#a says open(#bob, <r1>)" from iskey/sign assumptions
// about #a's certified key, the same way a SignTactic-driven prover would.
func (fx *fixture) buildProof(t *testing.T) *logic.Proof {
	t.Helper()
	key := credential.Fingerprint(fx.alicePub)
	goal := logic.NewSequent([]logic.Judgement{
		logic.Proposition(logic.IsKey(fx.aliceAgent, key)),
		logic.Proposition(logic.Sign(fx.openStatement, key)),
	}, logic.Proposition(logic.Says(fx.aliceAgent, fx.openStatement)))

	tactic := &prover.ThenTactic{Tactics: []prover.Tactic{
		&prover.SignTactic{Agent: fx.aliceAgent, Key: key, Statement: fx.openStatement},
		prover.NewRuleTactic(logic.IdentityRule),
	}}
	pf, ok := prover.GetOneProof(tactic, goal)
	if !ok {
		t.Fatalf("expected SignTactic+id to close %v", goal)
	}
	return pf
}

func TestVerifyRequest_acceptsACertifiedSignedRequest(t *testing.T) {
	fx := newFixture(t)
	pf := fx.buildProof(t)

	req, err := MakeForProof(pf, fx.aliceAgent, fx.alicePriv,
		[]*credential.Credential{fx.aliceCred},
		[]*credential.Certificate{fx.rootCert, fx.aliceCert})
	if err != nil {
		t.Fatalf("MakeForProof: %v", err)
	}

	granted, err := VerifyRequest(req, fx.roots, fx.rootAgent, fx.rootPriv)
	if err != nil {
		t.Fatalf("VerifyRequest: expected acceptance, got error: %v", err)
	}
	wantGoal := logic.Says(fx.aliceAgent, fx.openStatement)
	if !granted.Statement().Equal(wantGoal) {
		t.Fatalf("expected the acceptance credential to state %v, got %v", wantGoal, granted.Statement())
	}
	if !granted.Signator().Equal(fx.rootAgent) {
		t.Fatalf("expected the acceptance credential to be signed by %v, got %v", fx.rootAgent, granted.Signator())
	}
	rootPub, _ := fx.rootPub, fx.rootPriv
	if !granted.VerifySignature(rootPub) {
		t.Fatalf("expected the acceptance credential to verify under the root's public key")
	}
}

func TestVerifyRequest_rejectsUntrustedRoot(t *testing.T) {
	fx := newFixture(t)
	pf := fx.buildProof(t)

	req, err := MakeForProof(pf, fx.aliceAgent, fx.alicePriv,
		[]*credential.Credential{fx.aliceCred},
		[]*credential.Certificate{fx.rootCert, fx.aliceCert})
	if err != nil {
		t.Fatalf("MakeForProof: %v", err)
	}

	if _, err := VerifyRequest(req, credential.Roots{}, fx.rootAgent, fx.rootPriv); err == nil {
		t.Fatalf("expected rejection when the root is not in the trusted set")
	}
}

func TestVerifyRequest_rejectsTamperedRequestSignature(t *testing.T) {
	fx := newFixture(t)
	pf := fx.buildProof(t)

	req, err := MakeForProof(pf, fx.aliceAgent, fx.alicePriv,
		[]*credential.Credential{fx.aliceCred},
		[]*credential.Certificate{fx.rootCert, fx.aliceCert})
	if err != nil {
		t.Fatalf("MakeForProof: %v", err)
	}
	req.Signature = credential.New(logic.Open(logic.Agent("#eve"), logic.Resource("<r1>")), fx.aliceAgent, req.Signature.Signature())

	if _, err := VerifyRequest(req, fx.roots, fx.rootAgent, fx.rootPriv); err == nil {
		t.Fatalf("expected rejection of a tampered request signature")
	}
}

func TestVerifyRequest_rejectsWhenSupportingCredentialIsMissing(t *testing.T) {
	fx := newFixture(t)
	pf := fx.buildProof(t)

	req, err := MakeForProof(pf, fx.aliceAgent, fx.alicePriv,
		nil,
		[]*credential.Certificate{fx.rootCert, fx.aliceCert})
	if err != nil {
		t.Fatalf("MakeForProof: %v", err)
	}

	if _, err := VerifyRequest(req, fx.roots, fx.rootAgent, fx.rootPriv); err == nil {
		t.Fatalf("expected rejection when the sign(...) credential backing the proof is not bundled")
	}
}

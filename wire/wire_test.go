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

package wire

import (
	"crypto/ed25519"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trustfabric/authlogic/internal/prover"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/pkg/request"
)

// formulaComparer lets cmp.Diff walk a logic.Proof tree: Formula carries
// unexported-equivalent recursive structure that's already compared by its
// own Equal method, so defer to that instead of a field-by-field diff.
var formulaComparer = cmp.Comparer(func(a, b *logic.Formula) bool {
	return a.Equal(b)
})

func TestCredentialRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	statement := logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))
	cred, err := credential.NewSigned(statement, logic.Agent("#alice"), priv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}

	data, err := MarshalCredential(cred)
	if err != nil {
		t.Fatalf("MarshalCredential: %v", err)
	}
	got, err := UnmarshalCredential(data)
	if err != nil {
		t.Fatalf("UnmarshalCredential: %v", err)
	}
	if !got.Statement().Equal(cred.Statement()) || !got.Signator().Equal(cred.Signator()) {
		t.Fatalf("expected round-tripped credential to match the original, got %v", got)
	}
	if !got.VerifySignature(pub) {
		t.Fatalf("expected the round-tripped credential's signature to still verify")
	}
}

func TestCertificateRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	agent := logic.Agent("#root")
	cred, err := credential.NewSigned(logic.IsKey(agent, credential.Fingerprint(pub)), agent, priv)
	if err != nil {
		t.Fatalf("NewSigned: %v", err)
	}
	cert, err := credential.NewCertificate(pub, agent, cred)
	if err != nil {
		t.Fatalf("NewCertificate: %v", err)
	}

	data, err := MarshalCertificate(cert)
	if err != nil {
		t.Fatalf("MarshalCertificate: %v", err)
	}
	got, err := UnmarshalCertificate(data)
	if err != nil {
		t.Fatalf("UnmarshalCertificate: %v", err)
	}
	if !got.Subject().Equal(cert.Subject()) {
		t.Fatalf("expected round-tripped certificate subject to match, got %v", got.Subject())
	}
	if !got.IsRoot() {
		t.Fatalf("expected the round-tripped certificate to still be self-signed")
	}
}

func TestAccessRequestRoundTrip(t *testing.T) {
	rootPub, rootPriv, _ := ed25519.GenerateKey(nil)
	alicePub, alicePriv, _ := ed25519.GenerateKey(nil)

	rootAgent := logic.Agent("#root")
	aliceAgent := logic.Agent("#a")

	rootCred, err := credential.NewSigned(logic.IsKey(rootAgent, credential.Fingerprint(rootPub)), rootAgent, rootPriv)
	if err != nil {
		t.Fatalf("NewSigned root: %v", err)
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

	statement := logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))
	aliceCred, err := credential.NewSigned(statement, aliceAgent, alicePriv)
	if err != nil {
		t.Fatalf("NewSigned alice open cred: %v", err)
	}

	key := credential.Fingerprint(alicePub)
	goal := logic.NewSequent([]logic.Judgement{
		logic.Proposition(logic.IsKey(aliceAgent, key)),
		logic.Proposition(logic.Sign(statement, key)),
	}, logic.Proposition(logic.Says(aliceAgent, statement)))
	tactic := &prover.ThenTactic{Tactics: []prover.Tactic{
		&prover.SignTactic{Agent: aliceAgent, Key: key, Statement: statement},
		prover.NewRuleTactic(logic.IdentityRule),
	}}
	pf, ok := prover.GetOneProof(tactic, goal)
	if !ok {
		t.Fatalf("expected a proof for %v", goal)
	}

	req, err := request.MakeForProof(pf, aliceAgent, alicePriv, []*credential.Credential{aliceCred}, []*credential.Certificate{rootCert, aliceCert})
	if err != nil {
		t.Fatalf("MakeForProof: %v", err)
	}

	data, err := MarshalAccessRequest(req)
	if err != nil {
		t.Fatalf("MarshalAccessRequest: %v", err)
	}
	got, err := UnmarshalAccessRequest(data)
	if err != nil {
		t.Fatalf("UnmarshalAccessRequest: %v", err)
	}

	if diff := cmp.Diff(req.Proof, got.Proof, formulaComparer); diff != "" {
		t.Fatalf("proof tree changed across the wire round trip (-want +got):\n%s", diff)
	}

	roots := credential.Roots{"#root": true}
	if _, err := request.VerifyRequest(got, roots, rootAgent, rootPriv); err != nil {
		t.Fatalf("expected the round-tripped request to still verify, got: %v", err)
	}
}

func TestValidateAccessRequest_rejectsMalformedDocument(t *testing.T) {
	if err := ValidateAccessRequest([]byte(`{"proof": {}, "signature": {}}`)); err == nil {
		t.Fatalf("expected schema validation to reject a document missing creds/certs")
	}
}

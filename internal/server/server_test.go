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

package server

import (
	"crypto/ed25519"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/trustfabric/authlogic/internal/prover"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/pkg/request"
	"github.com/trustfabric/authlogic/wire"
)

func mustRequest(t *testing.T) (*request.AccessRequest, *logic.Formula, ed25519.PrivateKey) {
	t.Helper()
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
	return req, rootAgent, rootPriv
}

func TestHandleAccessRequest_grantsAWellFormedRequest(t *testing.T) {
	req, rootAgent, rootPriv := mustRequest(t)
	data, err := wire.MarshalAccessRequest(req)
	if err != nil {
		t.Fatalf("MarshalAccessRequest: %v", err)
	}

	srv := &Server{Roots: credential.Roots{"#root": true}, RootAgent: rootAgent, RootPriv: rootPriv}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/accessrequest", url.Values{"request": {string(data)}})
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleAccessRequest_rejectsAMissingRequestField(t *testing.T) {
	srv := &Server{Roots: credential.Roots{}, RootAgent: logic.Agent("#root")}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/accessrequest", "application/x-www-form-urlencoded", strings.NewReader(""))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestHandleAccessRequest_rejectsAnUntrustedRoot(t *testing.T) {
	req, rootAgent, rootPriv := mustRequest(t)
	data, err := wire.MarshalAccessRequest(req)
	if err != nil {
		t.Fatalf("MarshalAccessRequest: %v", err)
	}

	srv := &Server{Roots: credential.Roots{}, RootAgent: rootAgent, RootPriv: rootPriv}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/accessrequest", url.Values{"request": {string(data)}})
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 when the root is untrusted, got %d", resp.StatusCode)
	}
}

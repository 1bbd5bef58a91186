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

// Package main contains a command-line tool that builds an authorization
// proof on behalf of a requesting agent, assembles a signed AccessRequest
// from it, and optionally submits it to a running authproofd server.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/internal/keystore"
	"github.com/trustfabric/authlogic/internal/prover"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/pkg/request"
	"github.com/trustfabric/authlogic/wire"
)

func main() {
	keystoreDir := flag.String("keystore_dir", "keystore",
		"Required - Root directory of the on-disk keystore (private_keys/, certs/, credentials/).")
	rootAgentID := flag.String("root", "#root",
		"Agent whose say-so the proof must conclude with, e.g. #root.")
	requesterID := flag.String("requester", "",
		"Required - Agent making the request, e.g. #alice.")
	resourceID := flag.String("resource", "",
		"Required - Resource under request, e.g. <shared.txt>.")
	serverURL := flag.String("server_url", "",
		"If set, POST the generated request to this authproofd endpoint instead of printing it.")
	flag.Parse()

	if *requesterID == "" || *resourceID == "" {
		log.Fatalf("authreq: -requester and -resource are required")
	}

	store := keystore.Open(*keystoreDir)
	requester := logic.Agent(*requesterID)
	root := logic.Agent(*rootAgentID)
	resource := logic.Resource(*resourceID)

	creds, err := store.LoadAllCredentials()
	if err != nil {
		log.Fatalf("authreq: loading credentials: %v", err)
	}

	gamma, certs, err := buildContext(store, creds)
	if err != nil {
		log.Fatalf("authreq: building proof context: %v", err)
	}

	goal := logic.Proposition(logic.Says(root, logic.Open(requester, resource)))
	seq := logic.NewSequent(gamma, goal)

	pf, ok := prover.Prove(seq, signTactics(gamma), grounds(gamma, goal))
	if !ok {
		log.Fatalf("authreq: could not find an authorization proof for %s", canonGoal(goal))
	}

	usedCreds, usedCerts := gatherEvidence(pf, store, requester, certs)

	req, err := request.MakeForProof(pf, requester, loadPriv(store, requester), usedCreds, usedCerts)
	if err != nil {
		log.Fatalf("authreq: assembling request: %v", err)
	}

	data, err := wire.MarshalAccessRequest(req)
	if err != nil {
		log.Fatalf("authreq: encoding request: %v", err)
	}

	if *serverURL == "" {
		fmt.Println(string(data))
		return
	}

	sendRequest(*serverURL, data)
}

func loadPriv(store *keystore.Store, agent *logic.Formula) []byte {
	priv, err := store.LoadPrivateKey(agent)
	if err != nil {
		log.Fatalf("authreq: loading private key for %s: %v", agent.ID, err)
	}
	return priv
}

func canonGoal(j logic.Judgement) string {
	return canon.Formula(j.P)
}

// buildContext assembles the admissible assumption set: for
// every loaded credential, it follows the credential's signator up its
// certificate chain to a self-signed root, turning the credential and every
// non-root certificate into sign(...) assumptions and every root
// certificate into ca(...) and iskey(...) assumptions, and returns the certificates
// involved so the caller can bundle only the ones the final proof actually
// used.
func buildContext(store *keystore.Store, creds []*credential.Credential) ([]logic.Judgement, map[string]*credential.Certificate, error) {
	var gamma []logic.Judgement
	certs := map[string]*credential.Certificate{}

	for _, cred := range creds {
		chain, err := store.LoadCertificateChain(cred.Signator())
		if err != nil {
			return nil, nil, fmt.Errorf("loading certificate chain for %s: %w", cred.Signator().ID, err)
		}
		for id, cert := range chain {
			certs[id] = cert
		}
		signatorCert := chain[cred.Signator().ID]
		signKey := credential.Fingerprint(signatorCert.PublicKey())
		gamma = appendUnique(gamma, logic.Proposition(logic.Sign(cred.Statement(), signKey)))
	}

	for _, cert := range certs {
		if cert.IsRoot() {
			gamma = appendUnique(gamma, logic.Proposition(logic.IsCA(cert.Subject())))
			gamma = appendUnique(gamma, logic.Proposition(logic.IsKey(cert.Subject(), credential.Fingerprint(cert.PublicKey()))))
			continue
		}
		issuer, ok := certs[cert.Credential().Signator().ID]
		if !ok {
			continue
		}
		issuerKey := credential.Fingerprint(issuer.PublicKey())
		gamma = appendUnique(gamma, logic.Proposition(logic.Sign(cert.Credential().Statement(), issuerKey)))
	}

	return gamma, certs, nil
}

func appendUnique(gamma []logic.Judgement, j logic.Judgement) []logic.Judgement {
	if logic.GammaContains(gamma, j) {
		return gamma
	}
	return append(gamma, j)
}

// signTactics builds one prover.SignTactic per sign(P, k)/iskey(A, k) pair
// found in gamma, so the prover can lift any of them into a says-assumption
// as part of its search.
func signTactics(gamma []logic.Judgement) []prover.Tactic {
	var tactics []prover.Tactic
	for _, j := range gamma {
		if j.Kind != logic.JudgementProposition || j.P.Kind != logic.KindApp || j.P.Op != logic.OpSign {
			continue
		}
		statement, key := j.P.Args[0], j.P.Args[1]
		for _, k := range gamma {
			if k.Kind != logic.JudgementProposition || k.P.Kind != logic.KindApp || k.P.Op != logic.OpIsKey {
				continue
			}
			if !k.P.Args[1].Equal(key) {
				continue
			}
			tactics = append(tactics, &prover.SignTactic{Agent: k.P.Args[0], Key: key, Statement: statement})
		}
	}
	return tactics
}

// grounds collects every concrete Agent, Key and Resource atom mentioned in
// gamma or the goal, as candidate witnesses for quantifier instantiation.
func grounds(gamma []logic.Judgement, goal logic.Judgement) []*logic.Formula {
	seen := map[string]*logic.Formula{}
	var walk func(f *logic.Formula)
	walk = func(f *logic.Formula) {
		if f == nil {
			return
		}
		switch f.Kind {
		case logic.KindAgent, logic.KindKey, logic.KindResource:
			seen[fmt.Sprintf("%d:%s", f.Kind, f.ID)] = f
		case logic.KindApp:
			for _, a := range f.Args {
				walk(a)
			}
		case logic.KindForall:
			walk(f.Body)
		}
	}
	for _, j := range gamma {
		walk(j.P)
	}
	walk(goal.P)

	out := make([]*logic.Formula, 0, len(seen))
	for _, f := range seen {
		out = append(out, f)
	}
	return out
}

// gatherEvidence walks pf collecting the evidence it leans on: every
// sign(P, k) formula appearing in any sequent of the proof names
// either a certificate binding (sign(iskey(A, k), k')) or a policy
// credential (sign(P, k) for any other P) that the recipient will need.
func gatherEvidence(pf *logic.Proof, store *keystore.Store, requester *logic.Formula, knownCerts map[string]*credential.Certificate) ([]*credential.Credential, []*credential.Certificate) {
	signs := map[string]*logic.Formula{}
	var walkFormula func(f *logic.Formula)
	walkFormula = func(f *logic.Formula) {
		if f == nil || f.Kind != logic.KindApp {
			return
		}
		if f.Op == logic.OpSign {
			signs[canon.Formula(f)] = f
			return
		}
		for _, a := range f.Args {
			walkFormula(a)
		}
	}
	var walkProof func(p *logic.Proof)
	walkProof = func(p *logic.Proof) {
		if p == nil {
			return
		}
		walkFormula(p.Conclusion.Delta.P)
		for _, j := range p.Conclusion.Gamma {
			walkFormula(j.P)
		}
		for _, prem := range p.Premises {
			if !prem.IsOpen() {
				walkProof(prem.Proof)
			}
		}
	}
	walkProof(pf)

	certSet := map[string]*credential.Certificate{}
	if cert, ok := knownCerts[requester.ID]; ok {
		certSet[requester.ID] = cert
	} else if chain, err := store.LoadCertificateChain(requester); err == nil {
		for id, cert := range chain {
			certSet[id] = cert
		}
	}
	var certCreds []*logic.Formula
	var policyCreds []*logic.Formula
	for _, f := range signs {
		statement := f.Args[0]
		if statement.Kind == logic.KindApp && statement.Op == logic.OpIsKey {
			certCreds = append(certCreds, statement)
			continue
		}
		policyCreds = append(policyCreds, statement)
	}
	for _, statement := range certCreds {
		agent := statement.Args[0]
		if cert, ok := knownCerts[agent.ID]; ok {
			certSet[agent.ID] = cert
		}
	}
	for id, cert := range knownCerts {
		if cert.IsRoot() {
			certSet[id] = cert
		}
	}

	var certs []*credential.Certificate
	for _, cert := range certSet {
		if cert != nil {
			certs = append(certs, cert)
		}
	}

	allCreds, err := store.LoadAllCredentials()
	if err != nil {
		log.Fatalf("authreq: reloading credentials: %v", err)
	}
	var creds []*credential.Credential
	for _, statement := range policyCreds {
		for _, cred := range allCreds {
			if cred.Statement().Equal(statement) {
				creds = append(creds, cred)
				break
			}
		}
	}
	return creds, certs
}

func sendRequest(serverURL string, data []byte) {
	form := url.Values{"request": {string(data)}}
	client := &http.Client{Timeout: 100 * time.Second}
	resp, err := client.Post(serverURL, "application/x-www-form-urlencoded", bytes.NewBufferString(form.Encode()))
	if err != nil {
		log.Fatalf("authreq: sending request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("authreq: reading response: %v", err)
	}
	fmt.Printf("server response (%s):\n%s\n", resp.Status, body)
}

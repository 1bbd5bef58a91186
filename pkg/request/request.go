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

// Package request assembles and verifies AccessRequests: a stripped proof
// of "A says open(B, R)" carried alongside the signature, credentials and
// certificates a verifier needs to reconstruct the assumptions the proof
// was built against, and decide whether to grant the request.
package request

import (
	"crypto/ed25519"
	"fmt"

	"go.uber.org/multierr"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/internal/verifier"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
)

// AccessRequest bundles a proof whose Gamma has been stripped (see
// logic.RebaseProof) with the evidence a recipient needs to rebuild that
// Gamma and trust the result: a signature over the requested goal, the
// policy credentials the proof leans on, and the certificates binding every
// signator's key.
type AccessRequest struct {
	Proof     *logic.Proof
	Signature *credential.Credential
	Creds     []*credential.Credential
	Certs     []*credential.Certificate
}

// MakeForProof builds an AccessRequest for pf, whose conclusion must be
// "A says open(B, R) true" for some agent A, B and resource R. agent signs
// the requested goal with priv; the caller supplies the supporting
// credentials and certificates the recipient will need (see
// cmd/authreq for how these are gathered from a proof).
func MakeForProof(pf *logic.Proof, agent *logic.Formula, priv ed25519.PrivateKey, creds []*credential.Credential, certs []*credential.Certificate) (*AccessRequest, error) {
	goal := pf.Conclusion.Delta
	if goal.Kind != logic.JudgementProposition {
		return nil, fmt.Errorf("request: proof conclusion must be a proposition, got an affirmation")
	}
	if goal.P.Kind != logic.KindApp || goal.P.Op != logic.OpSays {
		return nil, fmt.Errorf("request: proof conclusion must be of the form \"A says open(B, R)\", got %s", canon.Formula(goal.P))
	}
	open := goal.P.Args[1]
	if open.Kind != logic.KindApp || open.Op != logic.OpOpen {
		return nil, fmt.Errorf("request: proof conclusion must be of the form \"A says open(B, R)\", got %s", canon.Formula(goal.P))
	}

	sig, err := credential.NewSigned(goal.P, agent, priv)
	if err != nil {
		return nil, fmt.Errorf("request: signing goal: %w", err)
	}

	return &AccessRequest{
		Proof:     logic.RebaseProof(pf, nil),
		Signature: sig,
		Creds:     creds,
		Certs:     certs,
	}, nil
}

// certsByAgent indexes certs by the canonical ID of the agent they certify,
// erroring out if two certificates claim the same subject: Gamma
// reconstruction below needs exactly one certified key per agent.
func certsByAgent(certs []*credential.Certificate) (map[string]*credential.Certificate, error) {
	byAgent := make(map[string]*credential.Certificate, len(certs))
	for _, cert := range certs {
		id := cert.Subject().ID
		if _, dup := byAgent[id]; dup {
			return nil, fmt.Errorf("request: more than one certificate certifies %s's key", id)
		}
		byAgent[id] = cert
	}
	return byAgent, nil
}

// reconstructGamma rebuilds the assumption list an AccessRequest's proof was
// built against, from evidence the recipient has already verified: every
// root (self-signed, trust-anchored) certificate contributes a ca(...) and
// iskey(...) fact about itself; every certificate contributes the sign(...)
// fact binding its issuer's signature to the iskey(...) statement it
// certifies; every bundled credential contributes the sign(...) fact
// binding its signator's certified key to the statement it asserts.
//
// The CA set is reconstructed from the bundled certificates' own
// self-signed-ness: the client strips Gamma to nothing before transmission,
// so the certificates are the only place that information still exists by
// the time a request reaches a verifier.
func reconstructGamma(certs []*credential.Certificate, creds []*credential.Credential, byAgent map[string]*credential.Certificate) []logic.Judgement {
	var gamma []logic.Judgement
	for _, cert := range certs {
		if !cert.IsRoot() {
			continue
		}
		gamma = append(gamma, logic.Proposition(logic.IsCA(cert.Subject())))
		gamma = append(gamma, logic.Proposition(logic.IsKey(cert.Subject(), credential.Fingerprint(cert.PublicKey()))))
	}
	for _, cert := range certs {
		issuer, ok := byAgent[cert.Credential().Signator().ID]
		if !ok {
			continue
		}
		gamma = append(gamma, logic.Proposition(logic.Sign(cert.Credential().Statement(), credential.Fingerprint(issuer.PublicKey()))))
	}
	for _, cred := range creds {
		issuer, ok := byAgent[cred.Signator().ID]
		if !ok {
			continue
		}
		gamma = append(gamma, logic.Proposition(logic.Sign(cred.Statement(), credential.Fingerprint(issuer.PublicKey()))))
	}
	return gamma
}

// VerifyRequest checks req end to end and, if it is accepted, returns a
// fresh Credential asserting the requested goal, signed by rootAgent using
// rootPriv: the server's own acceptance of the request.
//
// Verification proceeds evidence-first: every
// certificate's chain must lead to a trusted root, the outer request
// signature and every bundled credential's signature must check out under
// their certified keys, and only then is Gamma reconstructed from that
// verified evidence, the proof rebased onto it, and the structural proof
// Verifier run. The request is accepted only if the rebased proof has no
// open obligations.
func VerifyRequest(req *AccessRequest, roots credential.Roots, rootAgent *logic.Formula, rootPriv ed25519.PrivateKey) (*credential.Credential, error) {
	byAgent, err := certsByAgent(req.Certs)
	if err != nil {
		return nil, err
	}

	var errs error
	for _, cert := range req.Certs {
		if err := credential.VerifyChain(cert, byAgent, roots); err != nil {
			multierr.AppendInto(&errs, fmt.Errorf("request: certificate for %s: %w", cert.Subject().ID, err))
		}
	}
	if errs != nil {
		return nil, errs
	}

	signatorCert, ok := byAgent[req.Signature.Signator().ID]
	if !ok {
		return nil, fmt.Errorf("request: no certificate for %s's key to check the request signature against", req.Signature.Signator().ID)
	}
	if !req.Signature.VerifySignature(signatorCert.PublicKey()) {
		return nil, fmt.Errorf("request: invalid request signature from %s", req.Signature.Signator().ID)
	}

	for _, cred := range req.Creds {
		issuerCert, ok := byAgent[cred.Signator().ID]
		if !ok {
			multierr.AppendInto(&errs, fmt.Errorf("request: no certificate for %s's key to check a bundled credential against", cred.Signator().ID))
			continue
		}
		if !cred.VerifySignature(issuerCert.PublicKey()) {
			multierr.AppendInto(&errs, fmt.Errorf("request: invalid credential signature from %s", cred.Signator().ID))
		}
	}
	if errs != nil {
		return nil, errs
	}

	gamma := reconstructGamma(req.Certs, req.Creds, byAgent)
	rebased := logic.RebaseProof(req.Proof, gamma)

	wantGoal := logic.Proposition(req.Signature.Statement())
	if !rebased.Conclusion.Delta.Equal(wantGoal) {
		return nil, fmt.Errorf("request: proof conclusion does not match the signed goal %s", canon.Formula(req.Signature.Statement()))
	}

	obligations, diag := verifier.Verify(rebased)
	if diag != nil {
		return nil, fmt.Errorf("request: rejected: %w", diag)
	}
	if len(obligations) > 0 {
		return nil, fmt.Errorf("request: rejected: %d open obligation(s) remain, first is %s", len(obligations), canon.Sequent(obligations[0]))
	}

	granted, err := credential.NewSigned(req.Signature.Statement(), rootAgent, rootPriv)
	if err != nil {
		return nil, fmt.Errorf("request: signing acceptance credential: %w", err)
	}
	return granted, nil
}

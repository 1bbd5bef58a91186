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

// Package wire implements the JSON on-wire form for
// Credentials, Certificates, AccessRequests and proof trees, written in the
// RFC 8785 byte-stable encoding. Signatures cover the canonical formula
// encoding of package canon, not these JSON bytes.
package wire

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/parser"
	"github.com/trustfabric/authlogic/pkg/credential"
)

// Marshal encodes v as JSON and then canonicalizes it per RFC 8785: object
// keys sorted, numbers and strings normalized to their canonical form.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshaling: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("wire: canonicalizing: %w", err)
	}
	return canonical, nil
}

// credentialDoc is the JSON shape of a Credential: {p, signator, signature}.
type credentialDoc struct {
	P         string `json:"p"`
	Signator  string `json:"signator"`
	Signature string `json:"signature"`
}

// MarshalCredential encodes c as its wire document.
func MarshalCredential(c *credential.Credential) ([]byte, error) {
	return Marshal(credentialDoc{
		P:         canon.Formula(c.Statement()),
		Signator:  c.Signator().ID,
		Signature: hex.EncodeToString(c.Signature()),
	})
}

// UnmarshalCredential decodes a Credential off the wire without checking its
// signature: callers must call (*credential.Credential).VerifySignature
// against the signator's certified key before trusting the result.
func UnmarshalCredential(data []byte) (*credential.Credential, error) {
	var doc credentialDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: decoding credential: %w", err)
	}
	statement, err := parser.ParseFormula(doc.P)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding credential statement: %w", err)
	}
	sig, err := hex.DecodeString(doc.Signature)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding credential signature: %w", err)
	}
	return credential.New(statement, logic.Agent(doc.Signator), sig), nil
}

// certificateDoc is the JSON shape of a Certificate:
// {public_key, agent, cred}.
type certificateDoc struct {
	PublicKey string        `json:"public_key"`
	Agent     string        `json:"agent"`
	Cred      credentialDoc `json:"cred"`
}

// marshalPublicKey renders pub as the hex encoding of its PEM-wrapped
// SubjectPublicKeyInfo.
func marshalPublicKey(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("wire: marshaling public key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return hex.EncodeToString(block), nil
}

// unmarshalPublicKey is the inverse of marshalPublicKey.
func unmarshalPublicKey(s string) (ed25519.PublicKey, error) {
	block, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding public key hex: %w", err)
	}
	p, _ := pem.Decode(block)
	if p == nil {
		return nil, fmt.Errorf("wire: public key is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(p.Bytes)
	if err != nil {
		return nil, fmt.Errorf("wire: parsing SubjectPublicKeyInfo: %w", err)
	}
	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("wire: public key is not Ed25519")
	}
	return edPub, nil
}

// MarshalCertificate encodes cert as its wire document.
func MarshalCertificate(cert *credential.Certificate) ([]byte, error) {
	pub, err := marshalPublicKey(cert.PublicKey())
	if err != nil {
		return nil, err
	}
	return Marshal(certificateDoc{
		PublicKey: pub,
		Agent:     cert.Subject().ID,
		Cred: credentialDoc{
			P:         canon.Formula(cert.Credential().Statement()),
			Signator:  cert.Credential().Signator().ID,
			Signature: hex.EncodeToString(cert.Credential().Signature()),
		},
	})
}

// UnmarshalCertificate decodes a Certificate off the wire. It checks that
// the embedded credential actually states the claimed key binding (the same
// check credential.NewCertificate performs), but not any signature: callers
// must verify the chain with credential.VerifyChain before trusting it.
func UnmarshalCertificate(data []byte) (*credential.Certificate, error) {
	var doc certificateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: decoding certificate: %w", err)
	}
	pub, err := unmarshalPublicKey(doc.PublicKey)
	if err != nil {
		return nil, err
	}
	statement, err := parser.ParseFormula(doc.Cred.P)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding certificate credential statement: %w", err)
	}
	sig, err := hex.DecodeString(doc.Cred.Signature)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding certificate credential signature: %w", err)
	}
	cred := credential.New(statement, logic.Agent(doc.Cred.Signator), sig)
	return credential.NewCertificate(pub, logic.Agent(doc.Agent), cred)
}

// proofNodeDoc is the JSON shape of a proof tree node:
// {premises, conclusion, rule}. A premise that is still an open obligation
// is represented as a node with rule "" and no premises, whose conclusion is
// the obligation's Sequent; this keeps the tree a uniform recursive shape on
// the wire instead of a tagged union.
type proofNodeDoc struct {
	Premises   []proofNodeDoc `json:"premises"`
	Conclusion string         `json:"conclusion"`
	Rule       string         `json:"rule"`
}

func proofToDoc(pf *logic.Proof) proofNodeDoc {
	doc := proofNodeDoc{
		Premises:   []proofNodeDoc{},
		Conclusion: canon.Sequent(pf.Conclusion),
		Rule:       pf.Rule.Name,
	}
	for _, prem := range pf.Premises {
		if prem.IsOpen() {
			doc.Premises = append(doc.Premises, proofNodeDoc{Premises: []proofNodeDoc{}, Conclusion: canon.Sequent(*prem.Open)})
			continue
		}
		doc.Premises = append(doc.Premises, proofToDoc(prem.Proof))
	}
	return doc
}

func docToProof(doc proofNodeDoc) (*logic.Proof, error) {
	if doc.Rule == "" {
		return nil, fmt.Errorf("wire: open obligation node %q cannot be converted to a Proof; use docToPremise", doc.Conclusion)
	}
	rule, ok := logic.Calculus[doc.Rule]
	if !ok {
		return nil, fmt.Errorf("wire: unknown rule name %q", doc.Rule)
	}
	conclusion, err := parser.ParseSequent(doc.Conclusion)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding proof conclusion: %w", err)
	}
	premises := make([]logic.Premise, len(doc.Premises))
	for i, pd := range doc.Premises {
		prem, err := docToPremise(pd)
		if err != nil {
			return nil, err
		}
		premises[i] = prem
	}
	return logic.NewProof(rule, premises, conclusion), nil
}

func docToPremise(doc proofNodeDoc) (logic.Premise, error) {
	if doc.Rule == "" {
		seq, err := parser.ParseSequent(doc.Conclusion)
		if err != nil {
			return logic.Premise{}, fmt.Errorf("wire: decoding open obligation: %w", err)
		}
		return logic.PremiseObligation(seq), nil
	}
	pf, err := docToProof(doc)
	if err != nil {
		return logic.Premise{}, err
	}
	return logic.PremiseProof(pf), nil
}

// MarshalProof encodes pf as a wire proof tree.
func MarshalProof(pf *logic.Proof) ([]byte, error) {
	return Marshal(proofToDoc(pf))
}

// UnmarshalProof decodes a proof tree. Unknown rule names are rejected at
// this boundary, before any structural verification is attempted.
func UnmarshalProof(data []byte) (*logic.Proof, error) {
	var doc proofNodeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: decoding proof: %w", err)
	}
	return docToProof(doc)
}

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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/pkg/request"
)

func toCredentialDoc(c *credential.Credential) credentialDoc {
	return credentialDoc{
		P:         canon.Formula(c.Statement()),
		Signator:  c.Signator().ID,
		Signature: hex.EncodeToString(c.Signature()),
	}
}

// accessRequestDoc is the JSON shape of an AccessRequest:
// {proof, signature, creds, certs}.
type accessRequestDoc struct {
	Proof     proofNodeDoc    `json:"proof"`
	Signature credentialDoc   `json:"signature"`
	Creds     []credentialDoc `json:"creds"`
	Certs     []certificateDoc `json:"certs"`
}

// MarshalAccessRequest encodes req as its wire document, validating it
// against the wire JSON Schema first.
func MarshalAccessRequest(req *request.AccessRequest) ([]byte, error) {
	doc := accessRequestDoc{
		Proof:     proofToDoc(req.Proof),
		Signature: toCredentialDoc(req.Signature),
		Creds:     []credentialDoc{},
		Certs:     []certificateDoc{},
	}
	for _, c := range req.Creds {
		doc.Creds = append(doc.Creds, toCredentialDoc(c))
	}
	for _, cert := range req.Certs {
		pub, err := marshalPublicKey(cert.PublicKey())
		if err != nil {
			return nil, err
		}
		doc.Certs = append(doc.Certs, certificateDoc{
			PublicKey: pub,
			Agent:     cert.Subject().ID,
			Cred:      toCredentialDoc(cert.Credential()),
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("wire: marshaling access request: %w", err)
	}
	if err := ValidateAccessRequest(raw); err != nil {
		return nil, fmt.Errorf("wire: access request failed schema validation: %w", err)
	}
	return Marshal(doc)
}

// UnmarshalAccessRequest validates data against the wire JSON Schema and
// decodes it into an AccessRequest. No signature or certificate chain is
// checked here: callers must run request.VerifyRequest before trusting the
// result.
func UnmarshalAccessRequest(data []byte) (*request.AccessRequest, error) {
	if err := ValidateAccessRequest(data); err != nil {
		return nil, fmt.Errorf("wire: access request failed schema validation: %w", err)
	}
	var doc accessRequestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: decoding access request: %w", err)
	}

	pf, err := docToProof(doc.Proof)
	if err != nil {
		return nil, err
	}
	sig, err := decodeCredentialDoc(doc.Signature)
	if err != nil {
		return nil, fmt.Errorf("wire: decoding access request signature: %w", err)
	}

	req := &request.AccessRequest{Proof: pf, Signature: sig}
	for _, cd := range doc.Creds {
		c, err := decodeCredentialDoc(cd)
		if err != nil {
			return nil, fmt.Errorf("wire: decoding access request credential: %w", err)
		}
		req.Creds = append(req.Creds, c)
	}
	for _, cd := range doc.Certs {
		raw, err := json.Marshal(cd)
		if err != nil {
			return nil, fmt.Errorf("wire: re-encoding access request certificate: %w", err)
		}
		cert, err := UnmarshalCertificate(raw)
		if err != nil {
			return nil, fmt.Errorf("wire: decoding access request certificate: %w", err)
		}
		req.Certs = append(req.Certs, cert)
	}
	return req, nil
}

func decodeCredentialDoc(doc credentialDoc) (*credential.Credential, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return UnmarshalCredential(raw)
}

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
	"bytes"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// wireSchemaJSON keeps the credential, certificate and proofNode shapes under
// "definitions" so the top-level access request schema and the recursive
// proof tree can reference them without repeating the shape.
const wireSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://authlogic.trustfabric.example/schema/access-request.json",
  "definitions": {
    "credential": {
      "type": "object",
      "required": ["p", "signator", "signature"],
      "properties": {
        "p": {"type": "string"},
        "signator": {"type": "string"},
        "signature": {"type": "string", "pattern": "^[0-9a-f]*$"}
      },
      "additionalProperties": false
    },
    "certificate": {
      "type": "object",
      "required": ["public_key", "agent", "cred"],
      "properties": {
        "public_key": {"type": "string", "pattern": "^[0-9a-f]*$"},
        "agent": {"type": "string"},
        "cred": {"$ref": "#/definitions/credential"}
      },
      "additionalProperties": false
    },
    "proofNode": {
      "type": "object",
      "required": ["premises", "conclusion", "rule"],
      "properties": {
        "premises": {"type": "array", "items": {"$ref": "#/definitions/proofNode"}},
        "conclusion": {"type": "string"},
        "rule": {"type": "string"}
      },
      "additionalProperties": false
    }
  },
  "type": "object",
  "required": ["proof", "signature", "creds", "certs"],
  "properties": {
    "proof": {"$ref": "#/definitions/proofNode"},
    "signature": {"$ref": "#/definitions/credential"},
    "creds": {"type": "array", "items": {"$ref": "#/definitions/credential"}},
    "certs": {"type": "array", "items": {"$ref": "#/definitions/certificate"}}
  },
  "additionalProperties": false
}`

var wireSchemaLoader = gojsonschema.NewStringLoader(wireSchemaJSON)

// ValidateAccessRequest checks data against the access request wire schema,
// rejecting malformed input at the boundary before it ever reaches proof
// parsing or verification.
func ValidateAccessRequest(data []byte) error {
	result, err := gojsonschema.Validate(wireSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("wire: schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var buf bytes.Buffer
	for _, e := range result.Errors() {
		fmt.Fprintf(&buf, "- %s\n", e.String())
	}
	return fmt.Errorf("wire: access request does not match schema:\n%s", buf.String())
}

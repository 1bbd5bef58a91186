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

// Package server implements the HTTP endpoint: an external collaborator
// that decodes a submitted access request off the wire, runs
// it through pkg/request.VerifyRequest, and reports the outcome. The core
// authorization-logic engine never imports this package; server imports the
// core, not the other way around.
package server

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trustfabric/authlogic/internal/log"
	"github.com/trustfabric/authlogic/internal/store"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/pkg/credential"
	"github.com/trustfabric/authlogic/pkg/request"
	"github.com/trustfabric/authlogic/wire"
)

// Server answers POST /accessrequest, backed by a trusted-root
// set, the server's own signing identity, and an optional submission Store.
type Server struct {
	Roots     credential.Roots
	RootAgent *logic.Formula
	RootPriv  ed25519.PrivateKey
	Store     *store.Store
	Log       log.Logger
}

// Router builds the chi.Router serving this Server's endpoints.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/accessrequest", s.handleAccessRequest)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleAccessRequest decodes the form-urlencoded "request" field into an
// AccessRequest,
// run it through the core verifier, and reply with the granted credential
// or a JSON error. Every outcome is recorded to Store, best-effort.
func (s *Server) handleAccessRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.reject(w, nil, fmt.Errorf("server: parsing form: %w", err))
		return
	}
	raw := []byte(r.FormValue("request"))
	if len(raw) == 0 {
		s.reject(w, raw, fmt.Errorf("server: missing request field"))
		return
	}

	req, err := wire.UnmarshalAccessRequest(raw)
	if err != nil {
		s.reject(w, raw, err)
		return
	}

	granted, err := request.VerifyRequest(req, s.Roots, s.RootAgent, s.RootPriv)
	if err != nil {
		s.reject(w, raw, err)
		return
	}

	data, err := wire.MarshalCredential(granted)
	if err != nil {
		s.reject(w, raw, fmt.Errorf("server: marshaling acceptance credential: %w", err))
		return
	}
	if s.Store != nil {
		s.Store.RecordSubmission(raw, true, "granted")
	}
	if s.Log != nil {
		s.Log.Infow("access request granted", "signator", req.Signature.Signator().ID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) reject(w http.ResponseWriter, raw []byte, err error) {
	if s.Store != nil {
		s.Store.RecordSubmission(raw, false, err.Error())
	}
	if s.Log != nil {
		s.Log.Infow("access request rejected", "error", err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

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

// Package store persists access-request submission records: an external
// collaborator the core does not depend on, written at-least-once,
// best-effort, after every request is accepted or rejected.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/trustfabric/authlogic/internal/log"
)

var submissionsBucket = []byte("submissions")

// Record is one submission's outcome, keyed by a freshly generated UUID so
// concurrent submissions never collide.
type Record struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	RequestRaw []byte    `json:"request_raw"`
	Accepted   bool      `json:"accepted"`
	Detail     string    `json:"detail"`
}

// Store is a bbolt-backed append-only log of Records.
type Store struct {
	db  *bolt.DB
	log log.Logger
}

// Open opens (creating if necessary) a bbolt database at path and ensures
// the submissions bucket exists.
func Open(path string, l log.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0660, nil)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(submissionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating submissions bucket: %w", err)
	}
	if l == nil {
		l = log.Default()
	}
	return &Store{db: db, log: l}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RecordSubmission appends a Record describing the outcome of verifying an
// access request and returns its generated ID. Writes are at-least-once,
// best-effort: a failure to record is logged, not returned, since
// submission bookkeeping must never block or fail the response a requester
// actually receives.
func (s *Store) RecordSubmission(requestRaw []byte, accepted bool, detail string) string {
	rec := Record{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		RequestRaw: requestRaw,
		Accepted:   accepted,
		Detail:     detail,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.log.Errorw("store: marshaling submission record", "id", rec.ID, "error", err)
		return rec.ID
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(submissionsBucket).Put([]byte(rec.ID), data)
	})
	if err != nil {
		s.log.Errorw("store: writing submission record", "id", rec.ID, "error", err)
	}
	return rec.ID
}

// Get looks up a previously recorded submission by ID.
func (s *Store) Get(id string) (*Record, bool, error) {
	var rec Record
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(submissionsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: reading submission %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	return &rec, true, nil
}

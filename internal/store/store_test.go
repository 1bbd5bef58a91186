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

package store

import (
	"path/filepath"
	"testing"
)

func TestRecordSubmission_persistsAnAcceptedRecordFindableByID(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "submissions.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	id := s.RecordSubmission([]byte(`{"proof":{}}`), true, "granted")

	rec, found, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected a record for id %s", id)
	}
	if !rec.Accepted || rec.Detail != "granted" {
		t.Fatalf("expected an accepted record with detail %q, got %+v", "granted", rec)
	}
}

func TestGet_reportsNotFoundForUnknownID(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "submissions.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, found, err := s.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("expected no record for an unknown id")
	}
}

func TestRecordSubmission_persistsARejectedRecordWithDetail(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "submissions.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	id := s.RecordSubmission([]byte(`{"proof":{}}`), false, "request: rejected: 1 open obligation(s) remain")

	rec, found, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected a record for id %s", id)
	}
	if rec.Accepted {
		t.Fatalf("expected a rejected record")
	}
}

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

package parser_test

import (
	"testing"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/parser"
)

func TestParseJudgement_roundTripsBothForms(t *testing.T) {
	judgements := []logic.Judgement{
		logic.Proposition(logic.Open(logic.Agent("#alice"), logic.Resource("<shared.txt>"))),
		logic.Proposition(logic.Says(logic.Agent("#root"), logic.True())),
		logic.Affirmation(logic.Agent("#root"), logic.Open(logic.Agent("#bob"), logic.Resource("<r1>"))),
	}
	for _, j := range judgements {
		encoded := canon.Judgement(j)
		got, err := parser.ParseJudgement(encoded)
		if err != nil {
			t.Fatalf("ParseJudgement(%q): %v", encoded, err)
		}
		if !got.Equal(j) {
			t.Fatalf("parse(canonical(%v)) = %v, want the original judgement back", j, got)
		}
	}
}

func TestParseSequent_roundTripsWithEmptyAndPopulatedGamma(t *testing.T) {
	sequents := []logic.Sequent{
		logic.NewSequent(nil, logic.Proposition(logic.Says(logic.Agent("#root"), logic.Open(logic.Agent("#a"), logic.Resource("<r>"))))),
		logic.NewSequent([]logic.Judgement{
			logic.Proposition(logic.IsKey(logic.Agent("#a"), logic.Key("[abc]"))),
			logic.Proposition(logic.Sign(logic.Open(logic.Agent("#a"), logic.Resource("<r>")), logic.Key("[abc]"))),
		}, logic.Affirmation(logic.Agent("#root"), logic.Open(logic.Agent("#a"), logic.Resource("<r>")))),
	}
	for _, s := range sequents {
		encoded := canon.Sequent(s)
		got, err := parser.ParseSequent(encoded)
		if err != nil {
			t.Fatalf("ParseSequent(%q): %v", encoded, err)
		}
		if !got.Equal(s) {
			t.Fatalf("parse(canonical(%v)) = %v, want the original sequent back", s, got)
		}
	}
}

func TestParseFormula_rejectsTrailingInput(t *testing.T) {
	if _, err := parser.ParseFormula("true garbage"); err == nil {
		t.Fatalf("expected trailing input to be rejected")
	}
}

func TestParseFormula_rejectsUnterminatedAtoms(t *testing.T) {
	for _, s := range []string{"<shared.txt", "[abc"} {
		if _, err := parser.ParseFormula(s); err == nil {
			t.Fatalf("expected %q to be rejected as unterminated", s)
		}
	}
}

func TestParseSequent_rejectsMissingTurnstile(t *testing.T) {
	if _, err := parser.ParseSequent("true true"); err == nil {
		t.Fatalf("expected a sequent without a turnstile to be rejected")
	}
}

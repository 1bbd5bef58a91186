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

package canon_test

import (
	"testing"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
	"github.com/trustfabric/authlogic/parser"
)

func TestFormula_matchesTheBitExactGrammar(t *testing.T) {
	cases := []struct {
		name string
		f    *logic.Formula
		want string
	}{
		{"agent", logic.Agent("#alice"), "#alice"},
		{"resource", logic.Resource("<shared.txt>"), "<shared.txt>"},
		{"true", logic.True(), "true"},
		{"false", logic.False(), "false"},
		{"not", logic.Not(logic.True()), "!(true)"},
		{"and", logic.And(logic.True(), logic.False()), "(true & false)"},
		{"implies", logic.Implies(logic.True(), logic.False()), "(true -> false)"},
		{"says", logic.Says(logic.Agent("#root"), logic.True()), "(#root says true)"},
		{"iskey", logic.IsKey(logic.Agent("#alice"), logic.Key("[abc]")), "iskey(#alice, [abc])"},
		{"sign", logic.Sign(logic.True(), logic.Key("[abc]")), "sign((true), [abc])"},
		{"open", logic.Open(logic.Agent("#alice"), logic.Resource("<shared.txt>")), "open(#alice, <shared.txt>)"},
		{"ca", logic.IsCA(logic.Agent("#root")), "ca(#root)"},
		{
			"forall",
			logic.ForallFormula(logic.Variable("X"), logic.Open(logic.Variable("X"), logic.Resource("<shared.txt>"))),
			"(@X . (open(X, <shared.txt>)))",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := canon.Formula(c.f); got != c.want {
				t.Fatalf("canon.Formula(%+v) = %q, want %q", c.f, got, c.want)
			}
		})
	}
}

func TestFormula_parseRoundTrips(t *testing.T) {
	formulas := []*logic.Formula{
		logic.Open(logic.Agent("#alice"), logic.Resource("<shared.txt>")),
		logic.Says(logic.Agent("#root"), logic.Open(logic.Agent("#bob"), logic.Resource("<secret.txt>"))),
		logic.Sign(logic.IsKey(logic.Agent("#alice"), logic.Key("[abc]")), logic.Key("[def]")),
		logic.Implies(logic.IsCA(logic.Agent("#root")), logic.False()),
	}
	for _, f := range formulas {
		encoded := canon.Formula(f)
		got, err := parser.ParseFormula(encoded)
		if err != nil {
			t.Fatalf("ParseFormula(%q): %v", encoded, err)
		}
		if !got.Equal(f) {
			t.Fatalf("parse(canonical(%+v)) = %+v, want the original formula back", f, got)
		}
	}
}

func TestSequent_joinsJudgementsWithCommaSpace(t *testing.T) {
	s := logic.NewSequent(
		[]logic.Judgement{
			logic.Proposition(logic.IsCA(logic.Agent("#root"))),
			logic.Affirmation(logic.Agent("#alice"), logic.True()),
		},
		logic.Proposition(logic.Open(logic.Agent("#alice"), logic.Resource("<shared.txt>"))),
	)
	want := "ca(#root) true, #alice aff true |- open(#alice, <shared.txt>) true"
	if got := canon.Sequent(s); got != want {
		t.Fatalf("canon.Sequent = %q, want %q", got, want)
	}
}

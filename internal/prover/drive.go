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

package prover

import (
	"github.com/trustfabric/authlogic/internal/verifier"
	"github.com/trustfabric/authlogic/logic"
)

// GetOneProof runs tactic against goal and returns the first resulting
// Proof the Verifier accepts as fully closed (no open obligations, no
// illegal step). It returns false if no candidate the tactic produced
// closes the goal.
func GetOneProof(tactic Tactic, goal logic.Sequent) (*logic.Proof, bool) {
	for _, candidate := range tactic.Apply(goal) {
		obligations, diag := verifier.Verify(candidate)
		if diag == nil && len(obligations) == 0 {
			return candidate, true
		}
	}
	return nil, false
}

// DefaultTactic is the small, fixed search strategy tuned to this calculus:
// try to lift any signed credentials the context already supports, then
// resolve universally quantified assumptions against the supplied ground
// terms, then fall back to a straightforward implication/identity search.
// Open-ended, iterative-deepening search is deliberately out of scope; goals
// outside what this composition can discharge are expected to need a
// custom tactic built from the same combinators.
func DefaultTactic(signTactics []Tactic, grounds []*logic.Formula) Tactic {
	tactics := make([]Tactic, 0, len(signTactics)+3)
	tactics = append(tactics, signTactics...)
	tactics = append(tactics,
		&InstantiateForallTactic{Grounds: grounds},
		NewRuleTactic(logic.ImpLeftRule),
		NewRuleTactic(logic.IdentityRule),
	)
	return &ThenTactic{Tactics: tactics, PassOn: true}
}

// Prove searches for a closed proof of goal using DefaultTactic seeded with
// signTactics (one SignTactic per credential admissible in the caller's
// context) and grounds (the agent/resource/key atoms worth trying as
// quantifier witnesses).
func Prove(goal logic.Sequent, signTactics []Tactic, grounds []*logic.Formula) (*logic.Proof, bool) {
	return GetOneProof(DefaultTactic(signTactics, grounds), goal)
}

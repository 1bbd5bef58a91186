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

package logic

// Rule is a named inference schema: zero or more premise Sequents entail a
// conclusion Sequent. Premises and conclusion are built from shared
// schematic Variables (see rules.go); a concrete Proof step instantiates a
// Rule by substitution.
type Rule struct {
	Name       string
	Premises   []Sequent
	Conclusion Sequent
}

// Premise is one branch of a Proof: either a fully constructed sub-Proof, or
// an open obligation consisting of just the Sequent still left to prove.
// Exactly one of Proof or Open is non-nil.
type Premise struct {
	Proof *Proof
	Open  *Sequent
}

// PremiseProof wraps a closed sub-proof as a Premise.
func PremiseProof(p *Proof) Premise { return Premise{Proof: p} }

// PremiseObligation wraps an as-yet-unproved Sequent as a Premise.
func PremiseObligation(s Sequent) Premise { return Premise{Open: &s} }

// IsOpen reports whether this premise is an unproved obligation.
func (p Premise) IsOpen() bool { return p.Proof == nil }

// Proof is a single step of the calculus: a Rule applied to Premises,
// producing Conclusion. A Proof is "closed" when every Premise recursively
// bottoms out in proof steps with no open obligations remaining; Verify
// (see the verifier package) is what actually establishes closure for a
// candidate Proof, since nothing here prevents constructing a Proof whose
// Rule does not in fact license its Conclusion from its Premises.
type Proof struct {
	Rule       Rule
	Premises   []Premise
	Conclusion Sequent
}

// NewProof constructs a Proof from rule, premises and conclusion exactly as
// given; no field is defaulted from rule.
func NewProof(rule Rule, premises []Premise, conclusion Sequent) *Proof {
	return &Proof{Rule: rule, Premises: premises, Conclusion: conclusion}
}

// Obligations returns every open (unproved) Sequent directly attached to
// this proof step, without recursing into closed sub-proofs. Use the
// verifier package's Verify to collect obligations across the whole tree.
func (p *Proof) Obligations() []Sequent {
	var out []Sequent
	for _, prem := range p.Premises {
		if prem.IsOpen() {
			out = append(out, *prem.Open)
		}
	}
	return out
}

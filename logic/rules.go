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

// Schematic variables shared across rule definitions. These never escape
// this package unsubstituted; RuleTactic-style matching always instantiates
// them before a Proof's Conclusion is exposed to a caller.
var (
	schemaP  = Variable("P")
	schemaQ  = Variable("Q")
	schemaR  = Variable("R")
	schemaA  = Variable("A")
	schemaPk = Variable("pk")
	schemaX  = Variable("x")
	schemaY  = Variable("y")
	schemaE  = Variable("e")
	schemaB  = Variable("B")
)

// The fixed rule catalog. Names match the calculus's conventional short
// names: id, botL, ->R, ->L, ->Laff, @R, @L, @Laff, W, cut, affcut, aff,
// saysL, saysR, sign, cert.
var (
	IdentityRule = Rule{
		Name:       "id",
		Conclusion: NewSequent([]Judgement{Proposition(schemaP)}, Proposition(schemaP)),
	}

	FalseLeftRule = Rule{
		Name:       "botL",
		Conclusion: NewSequent([]Judgement{Proposition(False())}, Proposition(schemaP)),
	}

	ImpRightRule = Rule{
		Name:       "->R",
		Premises:   []Sequent{NewSequent([]Judgement{Proposition(schemaP)}, Proposition(schemaQ))},
		Conclusion: NewSequent(nil, Proposition(Implies(schemaP, schemaQ))),
	}

	ImpLeftRule = Rule{
		Name: "->L",
		Premises: []Sequent{
			NewSequent(nil, Proposition(schemaP)),
			NewSequent([]Judgement{Proposition(schemaQ)}, Proposition(schemaR)),
		},
		Conclusion: NewSequent([]Judgement{Proposition(Implies(schemaP, schemaQ))}, Proposition(schemaR)),
	}

	ImpLeftAffRule = Rule{
		Name: "->Laff",
		Premises: []Sequent{
			NewSequent(nil, Proposition(schemaP)),
			NewSequent([]Judgement{Proposition(schemaQ)}, Affirmation(schemaA, schemaR)),
		},
		Conclusion: NewSequent([]Judgement{Proposition(Implies(schemaP, schemaQ))}, Affirmation(schemaA, schemaR)),
	}

	ForallRightRule = Rule{
		Name:       "@R",
		Premises:   []Sequent{NewSequent(nil, Proposition(Other(schemaP, schemaY)))},
		Conclusion: NewSequent(nil, Proposition(ForallFormula(schemaX, Other(schemaP, schemaX)))),
	}

	ForallLeftRule = Rule{
		Name:       "@L",
		Premises:   []Sequent{NewSequent([]Judgement{Proposition(Other(schemaP, schemaE))}, Proposition(schemaQ))},
		Conclusion: NewSequent([]Judgement{Proposition(ForallFormula(schemaX, Other(schemaP, schemaX)))}, Proposition(schemaQ)),
	}

	ForallLeftAffRule = Rule{
		Name:       "@Laff",
		Premises:   []Sequent{NewSequent([]Judgement{Proposition(Other(schemaP, schemaE))}, Affirmation(schemaA, schemaQ))},
		Conclusion: NewSequent([]Judgement{Proposition(ForallFormula(schemaX, Other(schemaP, schemaX)))}, Affirmation(schemaA, schemaQ)),
	}

	WeakenRule = Rule{
		Name:       "W",
		Premises:   []Sequent{NewSequent([]Judgement{Proposition(schemaQ)}, Proposition(schemaR))},
		Conclusion: NewSequent([]Judgement{Proposition(schemaP), Proposition(schemaQ)}, Proposition(schemaR)),
	}

	CutRule = Rule{
		Name: "cut",
		Premises: []Sequent{
			NewSequent(nil, Proposition(schemaP)),
			NewSequent([]Judgement{Proposition(schemaP)}, Proposition(schemaQ)),
		},
		Conclusion: NewSequent(nil, Proposition(schemaQ)),
	}

	AffCutRule = Rule{
		Name: "affcut",
		Premises: []Sequent{
			NewSequent(nil, Proposition(schemaP)),
			NewSequent([]Judgement{Proposition(schemaP)}, Affirmation(schemaA, schemaQ)),
		},
		Conclusion: NewSequent(nil, Affirmation(schemaA, schemaQ)),
	}

	AffRule = Rule{
		Name:       "aff",
		Premises:   []Sequent{NewSequent(nil, Proposition(schemaP))},
		Conclusion: NewSequent(nil, Affirmation(schemaA, schemaP)),
	}

	SaysLeftRule = Rule{
		Name:       "saysL",
		Premises:   []Sequent{NewSequent([]Judgement{Proposition(schemaP)}, Affirmation(schemaA, schemaQ))},
		Conclusion: NewSequent([]Judgement{Proposition(Says(schemaA, schemaP))}, Affirmation(schemaA, schemaQ)),
	}

	SaysRightRule = Rule{
		Name:       "saysR",
		Premises:   []Sequent{NewSequent(nil, Affirmation(schemaA, schemaP))},
		Conclusion: NewSequent(nil, Proposition(Says(schemaA, schemaP))),
	}

	SignRule = Rule{
		Name: "sign",
		Premises: []Sequent{
			NewSequent(nil, Proposition(IsKey(schemaA, schemaPk))),
			NewSequent(nil, Proposition(Sign(schemaP, schemaPk))),
		},
		Conclusion: NewSequent(nil, Proposition(Says(schemaA, schemaP))),
	}

	CertRule = Rule{
		Name: "cert",
		Premises: []Sequent{
			NewSequent(nil, Proposition(IsCA(schemaA))),
			NewSequent(nil, Proposition(Says(schemaA, IsKey(schemaB, schemaPk)))),
		},
		Conclusion: NewSequent(nil, Proposition(IsKey(schemaB, schemaPk))),
	}
)

// Calculus maps rule name to the Rule itself, for lookup by name (e.g. when
// deserializing a proof tree off the wire, see package wire).
var Calculus = map[string]Rule{}

func init() {
	for _, r := range []Rule{
		IdentityRule, FalseLeftRule, ImpRightRule, ImpLeftRule, ImpLeftAffRule,
		ForallRightRule, ForallLeftRule, ForallLeftAffRule, WeakenRule,
		CutRule, AffCutRule, AffRule, SaysLeftRule, SaysRightRule,
		SignRule, CertRule,
	} {
		Calculus[r.Name] = r
	}
}

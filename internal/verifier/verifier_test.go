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

package verifier

import (
	"testing"

	"github.com/trustfabric/authlogic/logic"
)

func TestVerify_identityClosesWithNoObligations(t *testing.T) {
	p := logic.Variable("P")
	pf := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent([]logic.Judgement{logic.Proposition(p)}, logic.Proposition(p)),
	}
	obligations, diag := Verify(pf)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(obligations) != 0 {
		t.Fatalf("expected no open obligations, got %v", obligations)
	}
}

func TestVerify_identityRejectsMissingAssumption(t *testing.T) {
	p := logic.Variable("P")
	q := logic.Variable("Q")
	pf := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent([]logic.Judgement{logic.Proposition(q)}, logic.Proposition(p)),
	}
	obligations, diag := Verify(pf)
	if diag == nil {
		t.Fatalf("expected a diagnostic")
	}
	if len(obligations) != 1 || !obligations[0].Equal(pf.Conclusion) {
		t.Fatalf("expected obligations to be exactly the offending conclusion, got %v", obligations)
	}
}

func TestVerify_openPremiseSurfacesAsObligation(t *testing.T) {
	p := logic.Variable("P")
	q := logic.Variable("Q")
	open := logic.NewSequent([]logic.Judgement{logic.Proposition(p)}, logic.Proposition(q))
	pf := &logic.Proof{
		Rule:       logic.ImpRightRule,
		Premises:   []logic.Premise{logic.PremiseObligation(open)},
		Conclusion: logic.NewSequent(nil, logic.Proposition(logic.Implies(p, q))),
	}
	obligations, diag := Verify(pf)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(obligations) != 1 || !obligations[0].Equal(open) {
		t.Fatalf("expected the open premise to surface unchanged, got %v", obligations)
	}
}

func TestVerify_forallLeftReplacesTheQuantifiedAssumption(t *testing.T) {
	x := logic.Variable("x")
	agentA := logic.Agent("#a")
	forall := logic.Proposition(logic.ForallFormula(x, logic.IsCA(x)))
	instantiated := logic.Proposition(logic.IsCA(agentA))
	goal := logic.Proposition(logic.IsCA(agentA))

	idProof := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent([]logic.Judgement{instantiated}, goal),
	}
	pf := &logic.Proof{
		Rule:       logic.ForallLeftRule,
		Premises:   []logic.Premise{logic.PremiseProof(idProof)},
		Conclusion: logic.NewSequent([]logic.Judgement{forall}, goal),
	}
	obligations, diag := Verify(pf)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(obligations) != 0 {
		t.Fatalf("expected a closed proof, got obligations %v", obligations)
	}
}

func TestVerify_forallLeftRejectsKeepingTheQuantifiedAssumption(t *testing.T) {
	x := logic.Variable("x")
	agentA := logic.Agent("#a")
	forall := logic.Proposition(logic.ForallFormula(x, logic.IsCA(x)))
	instantiated := logic.Proposition(logic.IsCA(agentA))
	goal := logic.Proposition(logic.IsCA(agentA))

	open := logic.NewSequent([]logic.Judgement{forall, instantiated}, goal)
	pf := &logic.Proof{
		Rule:       logic.ForallLeftRule,
		Premises:   []logic.Premise{logic.PremiseObligation(open)},
		Conclusion: logic.NewSequent([]logic.Judgement{forall}, goal),
	}
	if _, diag := Verify(pf); diag == nil {
		t.Fatalf("expected a premise that keeps the quantified assumption to be rejected")
	}
}

func TestVerify_forallLeftEliminatesANonFirstQuantifiedAssumption(t *testing.T) {
	x := logic.Variable("x")
	y := logic.Variable("y")
	agentA := logic.Agent("#a")
	forallCA := logic.Proposition(logic.ForallFormula(x, logic.IsCA(x)))
	forallOpen := logic.Proposition(logic.ForallFormula(y, logic.Open(y, logic.Resource("<r>"))))
	instantiated := logic.Proposition(logic.Open(agentA, logic.Resource("<r>")))
	goal := logic.Proposition(logic.Open(agentA, logic.Resource("<r>")))

	open := logic.NewSequent([]logic.Judgement{forallCA, instantiated}, goal)
	pf := &logic.Proof{
		Rule:       logic.ForallLeftRule,
		Premises:   []logic.Premise{logic.PremiseObligation(open)},
		Conclusion: logic.NewSequent([]logic.Judgement{forallCA, forallOpen}, goal),
	}
	obligations, diag := Verify(pf)
	if diag != nil {
		t.Fatalf("expected eliminating the second quantified assumption to be legal, got %v", diag)
	}
	if len(obligations) != 1 || !obligations[0].Equal(open) {
		t.Fatalf("expected the open premise to surface unchanged, got %v", obligations)
	}
}

func TestVerify_signSurfacesMalformedSubProofs(t *testing.T) {
	agent := logic.Agent("#alice")
	key := logic.Key("k1")
	statement := logic.Open(logic.Agent("#alice"), logic.Resource("r1"))

	isKeyProof := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent(nil, logic.Proposition(logic.IsKey(agent, key))),
	}
	signProof := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent(nil, logic.Proposition(logic.Sign(statement, key))),
	}
	pf := &logic.Proof{
		Rule:       logic.SignRule,
		Premises:   []logic.Premise{logic.PremiseProof(isKeyProof), logic.PremiseProof(signProof)},
		Conclusion: logic.NewSequent(nil, logic.Proposition(logic.Says(agent, statement))),
	}
	// The sub-proofs are bogus ("id" with no matching assumption) on
	// purpose: verifying sign itself should succeed at this step even
	// though recursively verifying the sub-proofs surfaces their own
	// obligations/diagnostics.
	obligations, diag := Verify(pf)
	if diag == nil {
		t.Fatalf("expected the malformed id sub-proofs to be reported")
	}
	if len(obligations) == 0 {
		t.Fatalf("expected obligations from the malformed sub-proofs")
	}
}

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

// Package verifier structurally checks a logic.Proof: it walks the proof
// tree and, for every step, re-derives the side conditions its Rule must
// satisfy from its Premises and Conclusion. A proof with no illegal steps is
// reduced to the flat list of Sequents still left unproven (its open
// obligations); a proof with an illegal step is reduced to a single-element
// list naming the offending conclusion, alongside a Diagnostic explaining
// why.
package verifier

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
)

// Diagnostic describes why a proof step was rejected.
type Diagnostic struct {
	Rule    string
	Message string
}

func (d *Diagnostic) Error() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("rule %q: %s", d.Rule, d.Message)
}

var (
	cacheMu sync.Mutex
	cache   = map[string]cacheEntry{}
)

type cacheEntry struct {
	obligations []logic.Sequent
	diag        *Diagnostic
}

// proofKey derives a stable memoization key for a proof from its structure:
// the rule name, the canonical encoding of its conclusion, and the keys of
// its premises. This stands in for structural/identity-based hashing since
// logic.Proof holds pointer-typed children that are not otherwise
// comparable.
func proofKey(p *logic.Proof) string {
	key := p.Rule.Name + "\x00" + canon.Sequent(p.Conclusion)
	for _, prem := range p.Premises {
		if prem.IsOpen() {
			key += "\x00open:" + canon.Sequent(*prem.Open)
		} else {
			key += "\x00sub:" + proofKey(prem.Proof)
		}
	}
	return key
}

// Verify recursively validates pf, returning the flat list of open
// (unproved) Sequent leaves across the whole tree when every step is legal,
// or a single-element list containing the first illegal step's conclusion
// otherwise. Results are memoized by proof structure.
func Verify(pf *logic.Proof) ([]logic.Sequent, *Diagnostic) {
	key := proofKey(pf)

	cacheMu.Lock()
	if entry, ok := cache[key]; ok {
		cacheMu.Unlock()
		return entry.obligations, entry.diag
	}
	cacheMu.Unlock()

	obligations, diag := verify(pf)

	cacheMu.Lock()
	cache[key] = cacheEntry{obligations: obligations, diag: diag}
	cacheMu.Unlock()

	return obligations, diag
}

func verify(pf *logic.Proof) ([]logic.Sequent, *Diagnostic) {
	if diag := verifyStep(pf); diag != nil {
		return []logic.Sequent{pf.Conclusion}, diag
	}

	var obligations []logic.Sequent
	for _, prem := range pf.Premises {
		if prem.IsOpen() {
			obligations = append(obligations, *prem.Open)
			continue
		}
		subObligations, subDiag := Verify(prem.Proof)
		if subDiag != nil {
			return subObligations, subDiag
		}
		obligations = append(obligations, subObligations...)
	}
	return obligations, nil
}

// verifyStep checks the single inference represented by pf, dispatching on
// its rule name. It does not recurse into sub-proofs.
func verifyStep(pf *logic.Proof) *Diagnostic {
	switch pf.Rule.Name {
	case "id":
		return verifyIdentity(pf)
	case "botL":
		return verifyFalseLeft(pf)
	case "->R":
		return verifyImpRight(pf)
	case "->L":
		return verifyImpLeft(pf, false)
	case "->Laff":
		return verifyImpLeft(pf, true)
	case "@L":
		return verifyForallLeft(pf, false)
	case "@Laff":
		return verifyForallLeft(pf, true)
	case "@R":
		return verifyForallRight(pf)
	case "W":
		return verifyWeaken(pf)
	case "cut":
		return verifyCut(pf, false)
	case "affcut":
		return verifyCut(pf, true)
	case "aff":
		return verifyAff(pf)
	case "saysL":
		return verifySaysLeft(pf)
	case "saysR":
		return verifySaysRight(pf)
	case "sign":
		return verifySign(pf)
	case "cert":
		return verifyCert(pf)
	default:
		return &Diagnostic{Rule: pf.Rule.Name, Message: "unknown rule"}
	}
}

func fail(pf *logic.Proof, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Rule: pf.Rule.Name, Message: fmt.Sprintf(format, args...)}
}

func verifyIdentity(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if c.Delta.Kind != logic.JudgementProposition {
		return fail(pf, "conclusion goal must be a proposition")
	}
	if !logic.GammaContains(c.Gamma, c.Delta) {
		return fail(pf, "goal %q is not among the assumptions", canon.Judgement(c.Delta))
	}
	return nil
}

func verifyFalseLeft(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if !logic.GammaContains(c.Gamma, logic.Proposition(logic.False())) {
		return fail(pf, "assumptions do not contain false")
	}
	return nil
}

func verifyImpRight(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	if c.Delta.Kind != logic.JudgementProposition || c.Delta.P.Kind != logic.KindApp || c.Delta.P.Op != logic.OpImplies {
		return fail(pf, "conclusion goal must be an implication")
	}
	antecedent := c.Delta.P.Args[0]
	consequent := c.Delta.P.Args[1]

	prem := premiseSequent(pf, 0)
	if !prem.Delta.Equal(logic.Proposition(consequent)) {
		return fail(pf, "premise must prove the implication's consequent")
	}
	extra := logic.GammaDiff(prem.Gamma, logic.GammaAdd(c.Gamma, logic.Proposition(antecedent)))
	if len(extra) != 0 {
		return fail(pf, "premise assumes more than the antecedent and outer context")
	}
	if !logic.GammaSubset(c.Gamma, prem.Gamma) {
		return fail(pf, "premise drops an outer assumption")
	}
	return nil
}

func verifyImpLeft(pf *logic.Proof, aff bool) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 2 {
		return fail(pf, "expects exactly two premises")
	}
	if len(c.Gamma) == 0 {
		return fail(pf, "conclusion has no assumptions")
	}
	var implication *logic.Formula
	var rest []logic.Judgement
	for i, j := range c.Gamma {
		if j.Kind == logic.JudgementProposition && j.P.Kind == logic.KindApp && j.P.Op == logic.OpImplies {
			implication = j.P
			rest = append(append([]logic.Judgement{}, c.Gamma[:i]...), c.Gamma[i+1:]...)
			break
		}
	}
	if implication == nil {
		return fail(pf, "conclusion assumptions do not contain an implication")
	}
	p, q := implication.Args[0], implication.Args[1]

	left := premiseSequent(pf, 0)
	if !left.Delta.Equal(logic.Proposition(p)) {
		return fail(pf, "first premise must prove the antecedent")
	}

	right := premiseSequent(pf, 1)
	if aff {
		if right.Delta.Kind != logic.JudgementAffirmation || !right.Delta.Equal(c.Delta) {
			return fail(pf, "second premise must prove the same affirmation as the conclusion")
		}
	} else {
		if !right.Delta.Equal(c.Delta) {
			return fail(pf, "second premise must prove the same goal as the conclusion")
		}
	}
	extraRightAssumes := logic.GammaDiff(right.Gamma, logic.GammaAdd(rest, logic.Proposition(q)))
	for _, extra := range extraRightAssumes {
		// The implementation may carry over any assumption Q' for which
		// "P -> Q'" is itself one of the conclusion's assumptions.
		ok := false
		for _, j := range c.Gamma {
			if j.Kind == logic.JudgementProposition && j.P.Kind == logic.KindApp && j.P.Op == logic.OpImplies && j.P.Args[1].Equal(extra.P) {
				ok = true
				break
			}
		}
		if !ok {
			return fail(pf, "second premise assumes %q without justification", canon.Judgement(extra))
		}
	}
	if !logic.GammaSubset(rest, right.Gamma) {
		return fail(pf, "second premise drops an outer assumption")
	}
	return nil
}

func verifyForallLeft(pf *logic.Proof, aff bool) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	prem := premiseSequent(pf, 0)
	if aff {
		if prem.Delta.Kind != logic.JudgementAffirmation || !prem.Delta.Equal(c.Delta) {
			return fail(pf, "premise must prove the same affirmation as the conclusion")
		}
	} else if !prem.Delta.Equal(c.Delta) {
		return fail(pf, "premise must prove the same goal as the conclusion")
	}

	// The eliminated assumption and its instantiation are recovered from
	// the symmetric difference of the two Gammas, so a conclusion carrying
	// several quantified assumptions can eliminate any one of them, not
	// just the first.
	removed := logic.GammaDiff(c.Gamma, prem.Gamma)
	if len(removed) != 1 {
		return fail(pf, "premise must replace exactly one conclusion assumption, got %d", len(removed))
	}
	eliminated := removed[0]
	if eliminated.Kind != logic.JudgementProposition || eliminated.P.Kind != logic.KindForall {
		return fail(pf, "replaced assumption %q is not universally quantified", canon.Judgement(eliminated))
	}
	forall := eliminated.P

	added := logic.GammaDiff(prem.Gamma, c.Gamma)
	if len(added) != 1 {
		return fail(pf, "premise must add exactly one instantiated assumption, got %d", len(added))
	}
	instantiated := added[0]
	if instantiated.Kind != logic.JudgementProposition {
		return fail(pf, "instantiated assumption must be a proposition")
	}
	if _, ok := logic.MatchFormulas([]logic.FormulaEq{{Pattern: *forall.Body, Subject: *instantiated.P}}, logic.Substitution{}); !ok {
		return fail(pf, "instantiated assumption %q does not match the quantified body", canon.Judgement(instantiated))
	}
	return nil
}

func verifyForallRight(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	if c.Delta.Kind != logic.JudgementProposition || c.Delta.P.Kind != logic.KindForall {
		return fail(pf, "conclusion goal must be universally quantified")
	}
	prem := premiseSequent(pf, 0)
	bound := c.Delta.P.Bound
	rho, ok := logic.MatchFormulas([]logic.FormulaEq{{Pattern: *c.Delta.P.Body, Subject: *prem.Delta.P}}, logic.Substitution{})
	if !ok {
		return fail(pf, "premise goal does not instantiate the quantified body")
	}
	fresh, ok := rho[bound.ID]
	if !ok {
		return fail(pf, "premise goal does not mention the bound variable")
	}
	for _, v := range logic.SequentVars(c) {
		if fresh.Kind == logic.KindVariable && fresh.ID == v {
			return fail(pf, "instantiation %q is not fresh for the conclusion", fresh.ID)
		}
	}
	if !logic.GammaSetEqual(c.Gamma, prem.Gamma) {
		return fail(pf, "premise must share the conclusion's assumptions exactly")
	}
	return nil
}

func verifyWeaken(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	prem := premiseSequent(pf, 0)
	if !prem.Delta.Equal(c.Delta) {
		return fail(pf, "premise must prove the same goal as the conclusion")
	}
	if !logic.GammaSubset(prem.Gamma, c.Gamma) {
		return fail(pf, "conclusion must assume everything the premise assumes")
	}
	return nil
}

func verifyCut(pf *logic.Proof, aff bool) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 2 {
		return fail(pf, "expects exactly two premises")
	}
	left := premiseSequent(pf, 0)
	right := premiseSequent(pf, 1)
	if left.Delta.Kind != logic.JudgementProposition {
		return fail(pf, "first premise must prove a proposition")
	}
	if aff {
		if right.Delta.Kind != logic.JudgementAffirmation || !right.Delta.Equal(c.Delta) {
			return fail(pf, "second premise must prove the same affirmation as the conclusion")
		}
	} else if !right.Delta.Equal(c.Delta) {
		return fail(pf, "second premise must prove the same goal as the conclusion")
	}
	extra := logic.GammaDiff(right.Gamma, logic.GammaAdd(c.Gamma, left.Delta))
	if len(extra) != 0 {
		return fail(pf, "second premise assumes more than the cut formula and outer context")
	}
	if !logic.GammaSubset(c.Gamma, right.Gamma) {
		return fail(pf, "second premise drops an outer assumption")
	}
	return nil
}

func verifyAff(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	if c.Delta.Kind != logic.JudgementAffirmation {
		return fail(pf, "conclusion goal must be an affirmation")
	}
	prem := premiseSequent(pf, 0)
	if !prem.Delta.Equal(logic.Proposition(c.Delta.P)) {
		return fail(pf, "premise must prove the affirmed proposition")
	}
	if !logic.GammaSetEqual(c.Gamma, prem.Gamma) {
		return fail(pf, "premise must share the conclusion's assumptions exactly")
	}
	return nil
}

func verifySaysLeft(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	var says *logic.Formula
	var rest []logic.Judgement
	for i, j := range c.Gamma {
		if j.Kind == logic.JudgementProposition && j.P.Kind == logic.KindApp && j.P.Op == logic.OpSays {
			says = j.P
			rest = append(append([]logic.Judgement{}, c.Gamma[:i]...), c.Gamma[i+1:]...)
			break
		}
	}
	if says == nil {
		return fail(pf, "conclusion assumptions do not contain a says formula")
	}
	if c.Delta.Kind != logic.JudgementAffirmation {
		return fail(pf, "conclusion goal must be an affirmation")
	}
	prem := premiseSequent(pf, 0)
	if !prem.Delta.Equal(c.Delta) {
		return fail(pf, "premise must prove the same affirmation as the conclusion")
	}
	newAssumes := logic.GammaDiff(prem.Gamma, rest)
	for _, na := range newAssumes {
		if na.Kind != logic.JudgementProposition || na.P.Kind != logic.KindApp || na.P.Op != logic.OpSays {
			return fail(pf, "new assumption %q is not a says formula", canon.Judgement(na))
		}
		if !na.P.Args[0].Equal(says.Args[0]) || !na.P.Args[1].Equal(says.Args[1]) {
			return fail(pf, "new assumption %q does not restate the unpacked says formula", canon.Judgement(na))
		}
	}
	if !logic.GammaSubset(rest, prem.Gamma) {
		return fail(pf, "premise drops an outer assumption")
	}
	return nil
}

func verifySaysRight(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 1 {
		return fail(pf, "expects exactly one premise")
	}
	if c.Delta.Kind != logic.JudgementProposition || c.Delta.P.Kind != logic.KindApp || c.Delta.P.Op != logic.OpSays {
		return fail(pf, "conclusion goal must be a says proposition")
	}
	prem := premiseSequent(pf, 0)
	if prem.Delta.Kind != logic.JudgementAffirmation {
		return fail(pf, "premise goal must be an affirmation")
	}
	if !prem.Delta.Agent.Equal(c.Delta.P.Args[0]) || !prem.Delta.P.Equal(c.Delta.P.Args[1]) {
		return fail(pf, "premise affirmation does not match the says formula")
	}
	if !logic.GammaSetEqual(c.Gamma, prem.Gamma) {
		return fail(pf, "premise must share the conclusion's assumptions exactly")
	}
	return nil
}

func verifySign(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 2 {
		return fail(pf, "expects exactly two premises")
	}
	if c.Delta.Kind != logic.JudgementProposition || c.Delta.P.Kind != logic.KindApp || c.Delta.P.Op != logic.OpSays {
		return fail(pf, "conclusion goal must be a says proposition")
	}
	agent, statement := c.Delta.P.Args[0], c.Delta.P.Args[1]

	left := premiseSequent(pf, 0)
	if left.Delta.Kind != logic.JudgementProposition ||
		left.Delta.P.Kind != logic.KindApp || left.Delta.P.Op != logic.OpIsKey {
		return fail(pf, "first premise must prove an iskey proposition")
	}
	key := left.Delta.P.Args[1]
	if !left.Delta.P.Args[0].Equal(agent) {
		return fail(pf, "first premise's key owner does not match the conclusion's agent")
	}

	right := premiseSequent(pf, 1)
	if right.Delta.Kind != logic.JudgementProposition ||
		right.Delta.P.Kind != logic.KindApp || right.Delta.P.Op != logic.OpSign {
		return fail(pf, "second premise must prove a sign proposition")
	}
	if !right.Delta.P.Args[0].Equal(statement) || !right.Delta.P.Args[1].Equal(key) {
		return fail(pf, "second premise's signature does not match the conclusion's statement and key")
	}
	return nil
}

func verifyCert(pf *logic.Proof) *Diagnostic {
	c := pf.Conclusion
	if len(pf.Premises) != 2 {
		return fail(pf, "expects exactly two premises")
	}
	if c.Delta.Kind != logic.JudgementProposition || c.Delta.P.Kind != logic.KindApp || c.Delta.P.Op != logic.OpIsKey {
		return fail(pf, "conclusion goal must be an iskey proposition")
	}
	subject, key := c.Delta.P.Args[0], c.Delta.P.Args[1]

	left := premiseSequent(pf, 0)
	if left.Delta.Kind != logic.JudgementProposition ||
		left.Delta.P.Kind != logic.KindApp || left.Delta.P.Op != logic.OpIsCA {
		return fail(pf, "first premise must prove a ca proposition")
	}
	ca := left.Delta.P.Args[0]

	right := premiseSequent(pf, 1)
	if right.Delta.Kind != logic.JudgementProposition ||
		right.Delta.P.Kind != logic.KindApp || right.Delta.P.Op != logic.OpSays {
		return fail(pf, "second premise must prove a says proposition")
	}
	inner := right.Delta.P.Args[1]
	if !right.Delta.P.Args[0].Equal(ca) {
		return fail(pf, "second premise's speaker must be the certifying CA")
	}
	if inner.Kind != logic.KindApp || inner.Op != logic.OpIsKey || !inner.Args[0].Equal(subject) || !inner.Args[1].Equal(key) {
		return fail(pf, "second premise's statement must certify the conclusion's key assignment")
	}
	return nil
}

func premiseSequent(pf *logic.Proof, i int) logic.Sequent {
	p := pf.Premises[i]
	if p.IsOpen() {
		return *p.Open
	}
	return p.Proof.Conclusion
}

// Aggregate folds a list of Diagnostics into a single multierr-combined
// error, skipping nil entries.
func Aggregate(diags []*Diagnostic) error {
	var errs error
	for _, d := range diags {
		if d != nil {
			multierr.AppendInto(&errs, d)
		}
	}
	return errs
}

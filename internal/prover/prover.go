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

// Package prover searches for closed proofs of a goal Sequent by composing
// small, named Tactics. A Tactic never fails outright; it returns zero or
// more candidate Proofs, each of which may still carry open obligations for
// a later tactic (or a later call into the same tactic) to close.
package prover

import (
	"github.com/trustfabric/authlogic/canon"
	"github.com/trustfabric/authlogic/logic"
)

// Tactic maps a goal Sequent to a set of candidate Proofs of that goal. The
// returned Proofs are deduplicated by structure but are not required to be
// closed.
type Tactic interface {
	Apply(seq logic.Sequent) []*logic.Proof
}

// structKey derives a dedup key for a candidate Proof from its rule name,
// conclusion and, for every premise, either the open obligation's Sequent or
// a closed sub-Proof's conclusion. A sub-Proof contributes only its
// conclusion, so two candidates that differ only inside a sub-Proof share a
// key.
func structKey(pf *logic.Proof) string {
	key := pf.Rule.Name + "\x00" + canon.Sequent(pf.Conclusion)
	for _, prem := range pf.Premises {
		if prem.IsOpen() {
			key += "\x00" + canon.Sequent(*prem.Open)
		} else {
			key += "\x00!" + canon.Sequent(prem.Proof.Conclusion)
		}
	}
	return key
}

func dedupe(proofs []*logic.Proof) []*logic.Proof {
	seen := make(map[string]bool, len(proofs))
	out := make([]*logic.Proof, 0, len(proofs))
	for _, pf := range proofs {
		k := structKey(pf)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, pf)
	}
	return out
}

// RuleTactic applies a single non-quantifier Rule of the calculus: it
// enumerates every substitution that unifies Rule.Conclusion with the goal
// Sequent and, for each, instantiates the Rule's premises under that
// substitution, folding back whatever assumptions of the goal the match
// didn't consume (so outer context survives the rule application instead of
// being silently dropped).
type RuleTactic struct {
	Rule logic.Rule
}

// NewRuleTactic builds a RuleTactic for rule. The quantifier rules ("@L",
// "@R", "@Laff") are excluded: they require picking a ground witness term,
// which only InstantiateForallTactic knows how to do.
func NewRuleTactic(rule logic.Rule) *RuleTactic {
	switch rule.Name {
	case "@L", "@R", "@Laff":
		panic("prover: " + rule.Name + " must be applied via InstantiateForallTactic, not RuleTactic")
	}
	return &RuleTactic{Rule: rule}
}

func (t *RuleTactic) Apply(seq logic.Sequent) []*logic.Proof {
	var proofs []*logic.Proof
	logic.MatchSequent(t.Rule.Conclusion, seq, logic.Substitution{}, func(rho logic.Substitution) bool {
		matched := logic.ApplySequent(t.Rule.Conclusion, rho)
		leftover := logic.GammaDiff(seq.Gamma, matched.Gamma)

		premises := make([]logic.Premise, len(t.Rule.Premises))
		for i, prem := range t.Rule.Premises {
			inst := logic.ApplySequent(prem, rho)
			inst.Gamma = logic.GammaUnion(inst.Gamma, leftover)
			premises[i] = logic.PremiseObligation(inst)
		}
		proofs = append(proofs, &logic.Proof{Rule: t.Rule, Premises: premises, Conclusion: seq})
		return false // keep enumerating every unifying substitution
	})
	return dedupe(proofs)
}

// InstantiateForallTactic applies the "@L"/"@Laff" quantifier-elimination
// rules: for every universally quantified assumption in the goal's gamma and
// every candidate ground term supplied, it produces a proof whose premise
// replaces that assumption with its instantiated body, skipping any
// instantiation whose result is already present.
type InstantiateForallTactic struct {
	Grounds []*logic.Formula
}

func (t *InstantiateForallTactic) Apply(seq logic.Sequent) []*logic.Proof {
	var proofs []*logic.Proof
	for _, j := range seq.Gamma {
		if j.Kind != logic.JudgementProposition || j.P.Kind != logic.KindForall {
			continue
		}
		forall := j.P
		for _, ground := range t.Grounds {
			instantiated := logic.Proposition(logic.ApplyFormula(forall.Body, logic.Substitution{forall.Bound.ID: ground}))
			if logic.GammaContains(seq.Gamma, instantiated) {
				continue
			}
			rest := logic.GammaDiff(seq.Gamma, []logic.Judgement{j})
			premiseSeq := logic.NewSequent(logic.GammaAdd(rest, instantiated), seq.Delta)

			rule := logic.ForallLeftRule
			if seq.Delta.Kind == logic.JudgementAffirmation {
				rule = logic.ForallLeftAffRule
			}
			proofs = append(proofs, &logic.Proof{
				Rule:       rule,
				Premises:   []logic.Premise{logic.PremiseObligation(premiseSeq)},
				Conclusion: seq,
			})
		}
	}
	return dedupe(proofs)
}

// SignTactic lifts a signed credential into an admissible assumption: given
// a goal that already carries both `sign(statement, key)` and
// `iskey(agent, key)` among its assumptions, and which does not already
// assume `agent says statement`, it produces a proof applying "cut" (or
// "affcut" when the goal itself is an affirmation) whose cut formula is
// `agent says statement`. The cut's left premise closes immediately via rule
// "sign", whose own two premises close via "id" against the very
// assumptions that licensed this tactic; the right premise is the original
// goal with the new says-assumption added.
type SignTactic struct {
	Agent     *logic.Formula
	Key       *logic.Formula
	Statement *logic.Formula
}

func (t *SignTactic) Apply(seq logic.Sequent) []*logic.Proof {
	isKey := logic.Proposition(logic.IsKey(t.Agent, t.Key))
	sign := logic.Proposition(logic.Sign(t.Statement, t.Key))
	if !logic.GammaContains(seq.Gamma, isKey) || !logic.GammaContains(seq.Gamma, sign) {
		return nil
	}
	says := logic.Proposition(logic.Says(t.Agent, t.Statement))
	if logic.GammaContains(seq.Gamma, says) {
		return nil
	}

	idIsKey := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent([]logic.Judgement{isKey}, isKey),
	}
	idSign := &logic.Proof{
		Rule:       logic.IdentityRule,
		Conclusion: logic.NewSequent([]logic.Judgement{sign}, sign),
	}
	signProof := &logic.Proof{
		Rule:       logic.SignRule,
		Premises:   []logic.Premise{logic.PremiseProof(idIsKey), logic.PremiseProof(idSign)},
		Conclusion: logic.NewSequent(nil, says),
	}

	cutRule := logic.CutRule
	if seq.Delta.Kind == logic.JudgementAffirmation {
		cutRule = logic.AffCutRule
	}
	rightGoal := logic.NewSequent(logic.GammaAdd(seq.Gamma, says), seq.Delta)

	proof := &logic.Proof{
		Rule: cutRule,
		Premises: []logic.Premise{
			logic.PremiseProof(signProof),
			logic.PremiseObligation(rightGoal),
		},
		Conclusion: seq,
	}
	return []*logic.Proof{proof}
}

// ThenTactic sequentially composes a list of Tactics: apply the first to the
// goal, then recursively apply the rest to every open obligation of every
// resulting proof, splicing the results back in via chain. When PassOn is
// true, an empty result from one stage falls through to the next tactic
// against the *same* goal rather than aborting the whole composition; this
// mirrors an optional tactic ("try this, and if it does nothing, move on").
type ThenTactic struct {
	Tactics []Tactic
	PassOn  bool
}

func (t *ThenTactic) Apply(seq logic.Sequent) []*logic.Proof {
	if len(t.Tactics) == 0 {
		return nil
	}
	return then(t.Tactics, seq, t.PassOn)
}

// then is only ever called with a non-empty tactics list: Apply guarantees
// this at the top, and the recursive call below only recurses with the same
// (non-empty) rest it already checked.
func then(tactics []Tactic, seq logic.Sequent, passOn bool) []*logic.Proof {
	head, rest := tactics[0], tactics[1:]
	results := head.Apply(seq)
	if len(results) == 0 {
		if passOn && len(rest) != 0 {
			return then(rest, seq, passOn)
		}
		return nil
	}
	if len(rest) == 0 {
		return dedupe(results)
	}

	var out []*logic.Proof
	for _, pf := range results {
		obligations := pf.Obligations()
		if len(obligations) == 0 {
			out = append(out, pf)
			continue
		}
		spliced := []*logic.Proof{pf}
		for _, obl := range obligations {
			continuations := then(rest, obl, passOn)
			if len(continuations) == 0 {
				spliced = nil
				break
			}
			var next []*logic.Proof
			for _, base := range spliced {
				for _, cont := range continuations {
					next = append(next, chain(base, map[string]*logic.Proof{canon.Sequent(obl): cont}))
				}
			}
			spliced = next
		}
		out = append(out, spliced...)
	}
	return dedupe(out)
}

// OrElseTactic returns the first non-empty result among its Tactics, tried
// in order.
type OrElseTactic struct {
	Tactics []Tactic
}

func (t *OrElseTactic) Apply(seq logic.Sequent) []*logic.Proof {
	for _, tac := range t.Tactics {
		if results := tac.Apply(seq); len(results) != 0 {
			return results
		}
	}
	return nil
}

// chain splices the Proofs in replacements into pf: every open-obligation
// leaf whose Sequent's canonical encoding is a key of replacements is
// replaced by the corresponding Proof. Recursion also descends into closed
// sub-proofs, since they may carry their own open leaves. If pf's own
// conclusion is itself a key of replacements, the whole subtree is replaced
// (short-circuiting further descent).
func chain(pf *logic.Proof, replacements map[string]*logic.Proof) *logic.Proof {
	if repl, ok := replacements[canon.Sequent(pf.Conclusion)]; ok {
		return repl
	}
	premises := make([]logic.Premise, len(pf.Premises))
	for i, prem := range pf.Premises {
		if prem.IsOpen() {
			if repl, ok := replacements[canon.Sequent(*prem.Open)]; ok {
				premises[i] = logic.PremiseProof(repl)
			} else {
				premises[i] = prem
			}
			continue
		}
		premises[i] = logic.PremiseProof(chain(prem.Proof, replacements))
	}
	return &logic.Proof{Rule: pf.Rule, Premises: premises, Conclusion: pf.Conclusion}
}

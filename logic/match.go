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

// FormulaEq is one side of a matching problem: a pattern Formula (possibly
// containing schematic Variables, including an OpOther template hole) that
// must unify with a concrete Subject Formula.
type FormulaEq struct {
	Pattern Formula
	Subject Formula
}

func feq(pattern, subject *Formula) FormulaEq {
	return FormulaEq{Pattern: *pattern, Subject: *subject}
}

// MatchFormulas attempts to extend rho so that every pattern in eqs unifies
// with its paired subject. It returns the extended substitution and true on
// success, or (nil, false) if no extension of rho can satisfy every
// equation. rho is never mutated; each successful step returns a fresh map.
//
// The OpOther case implements "predicate hole" matching: the first time a
// schematic predicate P(x) equation is encountered, P is bound directly to
// whatever concrete subformula occupies that position (which may still
// contain the bound variable x free in it), and a synthetic key records the
// argument placeholder x itself. Every subsequent P(e) equation for the same
// P is instead resolved by unifying the previously recorded body against the
// new subject, discovering what the argument must instantiate to.
func MatchFormulas(eqs []FormulaEq, rho Substitution) (Substitution, bool) {
	if rho == nil {
		return nil, false
	}
	if len(eqs) == 0 {
		return rho, true
	}
	eq := eqs[0]
	rest := eqs[1:]
	p, o := &eq.Pattern, &eq.Subject

	switch p.Kind {
	case KindVariable:
		if bound, ok := rho[p.ID]; ok {
			if bound.Equal(o) {
				return MatchFormulas(rest, rho)
			}
			return nil, false
		}
		next := CloneSubstitution(rho)
		next[p.ID] = o
		return MatchFormulas(rest, next)

	case KindApp:
		if p.Op == OpOther {
			return matchOther(p, o, rest, rho)
		}
		if o.Kind != KindApp || o.Op != p.Op || len(o.Args) != len(p.Args) {
			return nil, false
		}
		next := make([]FormulaEq, 0, len(p.Args)+len(rest))
		for i := range p.Args {
			next = append(next, feq(p.Args[i], o.Args[i]))
		}
		next = append(next, rest...)
		return MatchFormulas(next, rho)

	case KindForall:
		if o.Kind != KindForall {
			return nil, false
		}
		shadowed := make(Substitution, len(rho))
		for k, v := range rho {
			if k != p.Bound.ID {
				shadowed[k] = v
			}
		}
		renamedBody := ApplyFormula(o.Body, Substitution{o.Bound.ID: p.Bound})
		inner, ok := MatchFormulas(append([]FormulaEq{feq(p.Body, renamedBody)}, rest...), shadowed)
		if !ok {
			return nil, false
		}
		out := CloneSubstitution(inner)
		delete(out, p.Bound.ID)
		return out, true

	default: // Agent, Key, Resource
		if o.Kind != p.Kind || o.ID != p.ID {
			return nil, false
		}
		return MatchFormulas(rest, rho)
	}
}

// matchOther implements the OpOther branch of MatchFormulas; see its
// doc comment for the intent.
func matchOther(p, o *Formula, rest []FormulaEq, rho Substitution) (Substitution, bool) {
	predVar := p.Args[0]
	argVar := p.Args[1]
	holeKey := "@P" + predVar.ID

	bound, seen := rho[holeKey]
	if !seen {
		next := CloneSubstitution(rho)
		next[predVar.ID] = o
		next[holeKey] = argVar
		return MatchFormulas(rest, next)
	}

	body, hasBody := rho[predVar.ID]
	if !hasBody {
		return nil, false
	}

	seed := CloneSubstitution(rho)
	if argBound, ok := rho[argVar.ID]; ok {
		seed[bound.ID] = argBound
	} else {
		seed[argVar.ID] = bound
	}

	resolved, ok := MatchFormulas([]FormulaEq{feq(body, o)}, seed)
	if !ok {
		return nil, false
	}
	argValue, ok := resolved[bound.ID]
	if !ok {
		return nil, false
	}

	out := make(Substitution, len(resolved))
	for k, v := range resolved {
		if k == bound.ID || k == argVar.ID {
			continue
		}
		out[k] = v
	}
	out[argVar.ID] = argValue
	return MatchFormulas(rest, out)
}

// JudgementEq is one judgement-level matching obligation.
type JudgementEq struct {
	Pattern Judgement
	Subject Judgement
}

// MatchJudgements extends rho so every pattern judgement in eqs unifies with
// its subject: Propositions unify their formulas directly; Affirmations
// additionally bind a schematic agent variable to the subject's agent (or,
// if the pattern names a concrete Agent, require an exact match) before
// unifying the formulas.
func MatchJudgements(eqs []JudgementEq, rho Substitution) (Substitution, bool) {
	if rho == nil {
		return nil, false
	}
	next := CloneSubstitution(rho)
	fmlaEqs := make([]FormulaEq, 0, len(eqs))
	for _, eq := range eqs {
		p, s := eq.Pattern, eq.Subject
		if p.Kind != s.Kind {
			return nil, false
		}
		if p.Kind == JudgementAffirmation {
			if p.Agent.Kind == KindVariable {
				next[p.Agent.ID] = s.Agent
			} else if !p.Agent.Equal(s.Agent) {
				return nil, false
			}
		}
		fmlaEqs = append(fmlaEqs, feq(p.P, s.P))
	}
	return MatchFormulas(fmlaEqs, next)
}

// SubstVisitor is called with each substitution MatchSequent discovers that
// makes pattern provable from some subset of concrete's assumptions. Return
// true to stop the search early (the caller found what it needed).
type SubstVisitor func(rho Substitution) bool

// MatchSequent enumerates every way of choosing len(pattern.Gamma) of
// concrete.Gamma's judgements (in every order, since pattern's assumptions
// are not presumed to be paired positionally with concrete's) together with
// concrete.Delta, such that pattern unifies with that selection under some
// extension of rho. It stops as soon as visit returns true.
func MatchSequent(pattern, concrete Sequent, rho Substitution, visit SubstVisitor) {
	if rho == nil {
		return
	}
	deltaRho, ok := MatchJudgements([]JudgementEq{{pattern.Delta, concrete.Delta}}, rho)
	if !ok {
		return
	}
	if len(pattern.Gamma) == 0 {
		visit(deltaRho)
		return
	}
	if len(pattern.Gamma) > len(concrete.Gamma) {
		return
	}
	permuteChoose(concrete.Gamma, len(pattern.Gamma), func(chosen []Judgement) bool {
		eqs := make([]JudgementEq, len(pattern.Gamma))
		for i := range pattern.Gamma {
			eqs[i] = JudgementEq{pattern.Gamma[i], chosen[i]}
		}
		if result, ok := MatchJudgements(eqs, deltaRho); ok {
			return visit(result)
		}
		return false
	})
}

// permuteChoose calls cb with every ordered selection of k distinct elements
// of items (i.e. every k-permutation), stopping as soon as cb returns true.
func permuteChoose(items []Judgement, k int, cb func([]Judgement) bool) bool {
	n := len(items)
	used := make([]bool, n)
	current := make([]Judgement, 0, k)
	var rec func() bool
	rec = func() bool {
		if len(current) == k {
			return cb(append([]Judgement(nil), current...))
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			current = append(current, items[i])
			stop := rec()
			current = current[:len(current)-1]
			used[i] = false
			if stop {
				return true
			}
		}
		return false
	}
	return rec()
}

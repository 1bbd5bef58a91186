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

// Substitution maps schematic variable identifiers (and the synthetic
// predicate-hole keys the matcher introduces, see match.go) to the concrete
// or partially-concrete Formula they stand for.
type Substitution map[string]*Formula

// CloneSubstitution returns a shallow copy of rho, so that extending it does
// not mutate a substitution another in-progress match still holds a
// reference to.
func CloneSubstitution(rho Substitution) Substitution {
	out := make(Substitution, len(rho))
	for k, v := range rho {
		out[k] = v
	}
	return out
}

// ApplyFormula instantiates every free Variable occurrence in f according to
// rho, leaving Agent/Key/Resource atoms and any Variable not bound in rho
// unchanged. A Forall's bound variable shadows rho for its body. An OpOther
// application "P(x)" is itself rewritten by discarding the argument slot and
// applying rho to the predicate variable P alone: the matcher (match.go)
// is responsible for ever binding a variable to a formula that still has a
// free occurrence of the argument placeholder, which is what gives this its
// intended "apply this predicate's body" meaning.
func ApplyFormula(f *Formula, rho Substitution) *Formula {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case KindVariable:
		if v, ok := rho[f.ID]; ok {
			return v
		}
		return f
	case KindApp:
		if f.Op == OpOther {
			return ApplyFormula(f.Args[0], rho)
		}
		args := make([]*Formula, len(f.Args))
		for i, a := range f.Args {
			args[i] = ApplyFormula(a, rho)
		}
		return &Formula{Kind: KindApp, Op: f.Op, Args: args}
	case KindForall:
		inner := make(Substitution, len(rho))
		for k, v := range rho {
			if k != f.Bound.ID {
				inner[k] = v
			}
		}
		return ForallFormula(f.Bound, ApplyFormula(f.Body, inner))
	default: // Agent, Key, Resource
		return f
	}
}

// ApplyJudgement instantiates a Judgement's agent (if schematic) and
// formula according to rho.
func ApplyJudgement(j Judgement, rho Substitution) Judgement {
	out := Judgement{Kind: j.Kind, P: ApplyFormula(j.P, rho)}
	if j.Kind == JudgementAffirmation {
		agent := j.Agent
		if v, ok := rho[j.Agent.ID]; ok {
			agent = v
		}
		out.Agent = agent
	}
	return out
}

// ApplySequent instantiates every judgement of a Sequent according to rho.
func ApplySequent(s Sequent, rho Substitution) Sequent {
	gamma := make([]Judgement, len(s.Gamma))
	for i, j := range s.Gamma {
		gamma[i] = ApplyJudgement(j, rho)
	}
	return Sequent{Gamma: gamma, Delta: ApplyJudgement(s.Delta, rho)}
}

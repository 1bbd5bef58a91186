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

// RebaseSequent rewrites s so that its Gamma equals gammaNew, preserving its
// Delta. Judgements whose formula is a "sign(...)" proposition are dropped
// unless they already appear in gammaNew: they were derived inside the
// proof, not axiomatic, so they must be re-admitted explicitly by the
// caller (see RebaseProof) rather than silently carried over. Every other
// judgement in s.Gamma survives the rewrite, unioned with gammaNew.
func RebaseSequent(s Sequent, gammaNew []Judgement) Sequent {
	kept := make([]Judgement, 0, len(s.Gamma))
	for _, j := range s.Gamma {
		if j.Kind == JudgementProposition && j.P.Kind == KindApp && j.P.Op == OpSign && !GammaContains(gammaNew, j) {
			continue
		}
		kept = append(kept, j)
	}
	return Sequent{Gamma: GammaUnion(kept, gammaNew), Delta: s.Delta}
}

// RebaseProof rewrites every Sequent in pf (its own conclusion and every
// premise's, recursively, whether the premise is an open obligation or a
// closed sub-proof) so that each shares gammaNew as its Gamma. This is the
// transport-time size optimization of stripping a proof's repeated
// assumption lists down to nothing (gammaNew == nil) before it is carried
// inside an AccessRequest, and the inverse operation of reconstituting them
// from verified evidence before the Verifier runs.
func RebaseProof(pf *Proof, gammaNew []Judgement) *Proof {
	premises := make([]Premise, len(pf.Premises))
	for i, prem := range pf.Premises {
		if prem.IsOpen() {
			rebased := RebaseSequent(*prem.Open, gammaNew)
			premises[i] = PremiseObligation(rebased)
			continue
		}
		premises[i] = PremiseProof(RebaseProof(prem.Proof, gammaNew))
	}
	return &Proof{
		Rule:       pf.Rule,
		Premises:   premises,
		Conclusion: RebaseSequent(pf.Conclusion, gammaNew),
	}
}

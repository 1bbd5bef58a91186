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

// Sequent is an unordered set of assumption Judgements (Gamma) entailing a
// single goal Judgement (Delta): "Gamma |- Delta".
type Sequent struct {
	Gamma []Judgement
	Delta Judgement
}

// NewSequent constructs a Sequent. gamma is copied so callers may safely
// reuse or mutate the slice they passed in.
func NewSequent(gamma []Judgement, delta Judgement) Sequent {
	g := make([]Judgement, len(gamma))
	copy(g, gamma)
	return Sequent{Gamma: g, Delta: delta}
}

// Equal reports whether s and t prove the same goal from the same
// (unordered) set of assumptions.
func (s Sequent) Equal(t Sequent) bool {
	return s.Delta.Equal(t.Delta) && GammaSetEqual(s.Gamma, t.Gamma)
}

// GammaContains reports whether j (up to structural equality) is present in
// gamma.
func GammaContains(gamma []Judgement, j Judgement) bool {
	for _, g := range gamma {
		if g.Equal(j) {
			return true
		}
	}
	return false
}

// GammaSubset reports whether every judgement in a is present in b.
func GammaSubset(a, b []Judgement) bool {
	for _, j := range a {
		if !GammaContains(b, j) {
			return false
		}
	}
	return true
}

// GammaSetEqual reports whether a and b contain the same judgements,
// ignoring order and duplicates.
func GammaSetEqual(a, b []Judgement) bool {
	return GammaSubset(a, b) && GammaSubset(b, a)
}

// GammaUnion returns the deduplicated union of a and b, preserving a's order
// and appending the elements of b not already present.
func GammaUnion(a, b []Judgement) []Judgement {
	out := make([]Judgement, 0, len(a)+len(b))
	out = append(out, a...)
	for _, j := range b {
		if !GammaContains(out, j) {
			out = append(out, j)
		}
	}
	return out
}

// GammaDiff returns the judgements in a that are not present in b.
func GammaDiff(a, b []Judgement) []Judgement {
	var out []Judgement
	for _, j := range a {
		if !GammaContains(b, j) {
			out = append(out, j)
		}
	}
	return out
}

// GammaAdd returns a copy of gamma with j appended if not already present.
func GammaAdd(gamma []Judgement, j Judgement) []Judgement {
	if GammaContains(gamma, j) {
		out := make([]Judgement, len(gamma))
		copy(out, gamma)
		return out
	}
	out := make([]Judgement, len(gamma), len(gamma)+1)
	copy(out, gamma)
	return append(out, j)
}

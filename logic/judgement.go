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

// JudgementKind discriminates a Proposition ("P true") from an Affirmation
// ("A aff P", read "A affirms/speaks for P").
type JudgementKind uint8

const (
	JudgementProposition JudgementKind = iota
	JudgementAffirmation
)

// Judgement is either a bare Proposition about a Formula, or an Affirmation
// naming the Agent (or schematic agent Variable) the Formula is asserted on
// behalf of.
type Judgement struct {
	Kind  JudgementKind
	Agent *Formula // only meaningful when Kind == JudgementAffirmation
	P     *Formula
}

// Proposition constructs the judgement "p true".
func Proposition(p *Formula) Judgement {
	return Judgement{Kind: JudgementProposition, P: p}
}

// Affirmation constructs the judgement "agent aff p".
func Affirmation(agent, p *Formula) Judgement {
	return Judgement{Kind: JudgementAffirmation, Agent: agent, P: p}
}

// Equal reports whether two judgements are structurally identical.
func (j Judgement) Equal(k Judgement) bool {
	if j.Kind != k.Kind {
		return false
	}
	if j.Kind == JudgementAffirmation && !j.Agent.Equal(k.Agent) {
		return false
	}
	return j.P.Equal(k.P)
}

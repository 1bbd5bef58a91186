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

import "fmt"

// AllVars returns every distinct Variable identifier occurring free or bound
// anywhere in f.
func AllVars(f *Formula) []string {
	seen := map[string]bool{}
	var walk func(*Formula)
	walk = func(f *Formula) {
		if f == nil {
			return
		}
		switch f.Kind {
		case KindVariable:
			seen[f.ID] = true
		case KindApp:
			for _, a := range f.Args {
				walk(a)
			}
		case KindForall:
			walk(f.Bound)
			walk(f.Body)
		}
	}
	walk(f)
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return out
}

// SequentVars returns every distinct Variable identifier occurring anywhere
// in a Sequent's assumptions and goal.
func SequentVars(s Sequent) []string {
	seen := map[string]bool{}
	for _, j := range s.Gamma {
		for _, v := range AllVars(j.P) {
			seen[v] = true
		}
		if j.Kind == JudgementAffirmation && j.Agent.Kind == KindVariable {
			seen[j.Agent.ID] = true
		}
	}
	for _, v := range AllVars(s.Delta.P) {
		seen[v] = true
	}
	if s.Delta.Kind == JudgementAffirmation && s.Delta.Agent.Kind == KindVariable {
		seen[s.Delta.Agent.ID] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	return out
}

// FreshVar returns a Variable identifier derived from base that does not
// appear in avoid.
func FreshVar(base string, avoid []string) *Formula {
	taken := map[string]bool{}
	for _, v := range avoid {
		taken[v] = true
	}
	if !taken[base] {
		return Variable(base)
	}
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if !taken[candidate] {
			return Variable(candidate)
		}
	}
}

// Agents returns every distinct Agent atom occurring in f.
func Agents(f *Formula) []*Formula {
	seen := map[string]*Formula{}
	var walk func(*Formula)
	walk = func(f *Formula) {
		if f == nil {
			return
		}
		switch f.Kind {
		case KindAgent:
			seen[f.ID] = f
		case KindApp:
			for _, a := range f.Args {
				walk(a)
			}
		case KindForall:
			walk(f.Body)
		}
	}
	walk(f)
	out := make([]*Formula, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	return out
}

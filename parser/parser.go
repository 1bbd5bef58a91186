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

// Package parser reads back the canonical textual encoding (package canon)
// into Formulas, Judgements and Sequents. It is the inverse of canon:
// round-tripping the canonical encoding is what credential signatures and
// the wire format's proof nodes rely on, so the grammar here matches
// github.com/trustfabric/authlogic/canon byte for byte rather than inventing
// a friendlier surface syntax.
package parser

import (
	"fmt"
	"strings"

	"github.com/trustfabric/authlogic/logic"
)

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipWS() {
	for sc.pos < len(sc.s) && sc.s[sc.pos] == ' ' {
		sc.pos++
	}
}

func (sc *scanner) rest() string { return sc.s[sc.pos:] }

func (sc *scanner) hasPrefix(lit string) bool {
	return strings.HasPrefix(sc.rest(), lit)
}

func (sc *scanner) expect(lit string) error {
	if !sc.hasPrefix(lit) {
		return fmt.Errorf("parser: expected %q at position %d in %q", lit, sc.pos, sc.s)
	}
	sc.pos += len(lit)
	return nil
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}

// keyword reports whether lit occurs at the current position and is not
// itself a prefix of a longer identifier (so "true" doesn't swallow a
// variable named "trueish").
func (sc *scanner) keyword(lit string) bool {
	if !sc.hasPrefix(lit) {
		return false
	}
	next := sc.pos + len(lit)
	return next >= len(sc.s) || !isIdentChar(sc.s[next])
}

// parseAtom reads a bare identifier, or a '#...'-, '<...>'- or
// '[...]'-wrapped atom, and classifies it into the matching Formula kind.
func (sc *scanner) parseAtom() (*logic.Formula, error) {
	sc.skipWS()
	if sc.pos >= len(sc.s) {
		return nil, fmt.Errorf("parser: expected an atom at position %d in %q", sc.pos, sc.s)
	}
	switch sc.s[sc.pos] {
	case '#':
		start := sc.pos
		sc.pos++
		for sc.pos < len(sc.s) && isIdentChar(sc.s[sc.pos]) {
			sc.pos++
		}
		return logic.Agent(sc.s[start:sc.pos]), nil
	case '<':
		end := strings.IndexByte(sc.rest(), '>')
		if end < 0 {
			return nil, fmt.Errorf("parser: unterminated resource atom in %q", sc.s)
		}
		start := sc.pos
		sc.pos += end + 1
		return logic.Resource(sc.s[start:sc.pos]), nil
	case '[':
		end := strings.IndexByte(sc.rest(), ']')
		if end < 0 {
			return nil, fmt.Errorf("parser: unterminated key atom in %q", sc.s)
		}
		start := sc.pos
		sc.pos += end + 1
		return logic.Key(sc.s[start:sc.pos]), nil
	default:
		start := sc.pos
		for sc.pos < len(sc.s) && isIdentChar(sc.s[sc.pos]) {
			sc.pos++
		}
		if sc.pos == start {
			return nil, fmt.Errorf("parser: expected an atom at position %d in %q", sc.pos, sc.s)
		}
		return logic.Variable(sc.s[start:sc.pos]), nil
	}
}

// parseFormula parses the grammar of canon.Formula.
func (sc *scanner) parseFormula() (*logic.Formula, error) {
	sc.skipWS()
	switch {
	case sc.keyword("true"):
		sc.pos += len("true")
		return logic.True(), nil
	case sc.keyword("false"):
		sc.pos += len("false")
		return logic.False(), nil
	case sc.hasPrefix("!("):
		sc.pos += len("!(")
		inner, err := sc.parseFormula()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.Not(inner), nil
	case sc.hasPrefix("ca("):
		sc.pos += len("ca(")
		ag, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.IsCA(ag), nil
	case sc.hasPrefix("sign(("):
		sc.pos += len("sign((")
		inner, err := sc.parseFormula()
		if err != nil {
			return nil, err
		}
		if err := sc.expect("), "); err != nil {
			return nil, err
		}
		key, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.Sign(inner, key), nil
	case sc.hasPrefix("iskey("):
		sc.pos += len("iskey(")
		ag, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(","); err != nil {
			return nil, err
		}
		key, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.IsKey(ag, key), nil
	case sc.hasPrefix("open("):
		sc.pos += len("open(")
		ag, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(","); err != nil {
			return nil, err
		}
		res, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.Open(ag, res), nil
	case sc.hasPrefix("(@"):
		sc.pos += len("(@")
		bound, err := sc.parseAtom()
		if err != nil {
			return nil, err
		}
		if bound.Kind != logic.KindVariable {
			return nil, fmt.Errorf("parser: quantifier bound name must be a variable, got %q", bound.ID)
		}
		if err := sc.expect(" . ("); err != nil {
			return nil, err
		}
		body, err := sc.parseFormula()
		if err != nil {
			return nil, err
		}
		if err := sc.expect("))"); err != nil {
			return nil, err
		}
		return logic.ForallFormula(bound, body), nil
	case sc.hasPrefix("("):
		sc.pos += len("(")
		lhs, err := sc.parseFormula()
		if err != nil {
			return nil, err
		}
		sc.skipWS()
		op, err := sc.parseBinOp()
		if err != nil {
			return nil, err
		}
		sc.skipWS()
		rhs, err := sc.parseFormula()
		if err != nil {
			return nil, err
		}
		if err := sc.expect(")"); err != nil {
			return nil, err
		}
		return logic.App(op, lhs, rhs), nil
	default:
		return sc.parseAtom()
	}
}

func (sc *scanner) parseBinOp() (logic.Operator, error) {
	switch {
	case sc.hasPrefix("-> "):
		sc.pos += len("->")
		return logic.OpImplies, nil
	case sc.hasPrefix("says "):
		sc.pos += len("says")
		return logic.OpSays, nil
	case sc.hasPrefix("& "):
		sc.pos += len("&")
		return logic.OpAnd, nil
	case sc.hasPrefix("| "):
		sc.pos += len("|")
		return logic.OpOr, nil
	default:
		return 0, fmt.Errorf("parser: expected a binary operator at position %d in %q", sc.pos, sc.s)
	}
}

// parseJudgement parses the grammar of canon.Judgement: "A aff P" or
// "P true". Both begin with an atom, so it speculatively parses the
// affirmation form first and backtracks to the proposition form if " aff "
// doesn't follow.
func (sc *scanner) parseJudgement() (logic.Judgement, error) {
	save := sc.pos
	if agent, err := sc.parseAtom(); err == nil && sc.hasPrefix(" aff ") {
		sc.pos += len(" aff ")
		p, err := sc.parseFormula()
		if err != nil {
			return logic.Judgement{}, err
		}
		return logic.Affirmation(agent, p), nil
	}
	sc.pos = save

	p, err := sc.parseFormula()
	if err != nil {
		return logic.Judgement{}, err
	}
	if err := sc.expect(" true"); err != nil {
		return logic.Judgement{}, err
	}
	return logic.Proposition(p), nil
}

// splitTopLevel splits s on every occurrence of sep that falls outside any
// parenthesized group, the same balancing canon's fully-parenthesized
// grammar guarantees for every nested comma.
func splitTopLevel(s, sep string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[last:i])
			i += len(sep) - 1
			last = i + 1
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// ParseFormula parses the canonical encoding of a single Formula.
func ParseFormula(s string) (*logic.Formula, error) {
	sc := &scanner{s: s}
	f, err := sc.parseFormula()
	if err != nil {
		return nil, err
	}
	sc.skipWS()
	if sc.pos != len(sc.s) {
		return nil, fmt.Errorf("parser: unexpected trailing input %q", sc.rest())
	}
	return f, nil
}

// ParseJudgement parses the canonical encoding of a single Judgement.
func ParseJudgement(s string) (logic.Judgement, error) {
	sc := &scanner{s: s}
	j, err := sc.parseJudgement()
	if err != nil {
		return logic.Judgement{}, err
	}
	sc.skipWS()
	if sc.pos != len(sc.s) {
		return logic.Judgement{}, fmt.Errorf("parser: unexpected trailing input %q", sc.rest())
	}
	return j, nil
}

// ParseSequent parses the canonical encoding of a Sequent: a comma-and-space
// joined assumption list, " |- ", then the goal judgement.
func ParseSequent(s string) (logic.Sequent, error) {
	parts := splitTopLevel(s, " |- ")
	if len(parts) != 2 {
		return logic.Sequent{}, fmt.Errorf("parser: expected exactly one top-level %q in %q", " |- ", s)
	}
	var gamma []logic.Judgement
	if parts[0] != "" {
		for _, js := range splitTopLevel(parts[0], ", ") {
			j, err := ParseJudgement(js)
			if err != nil {
				return logic.Sequent{}, err
			}
			gamma = append(gamma, j)
		}
	}
	delta, err := ParseJudgement(parts[1])
	if err != nil {
		return logic.Sequent{}, err
	}
	return logic.NewSequent(gamma, delta), nil
}

// Parse parses s as whichever of Formula, Judgement or Sequent first
// succeeds, in that order.
func Parse(s string) (interface{}, error) {
	if f, err := ParseFormula(s); err == nil {
		return f, nil
	}
	if j, err := ParseJudgement(s); err == nil {
		return j, nil
	}
	if seq, err := ParseSequent(s); err == nil {
		return seq, nil
	}
	return nil, fmt.Errorf("parser: could not parse %q as a formula, judgement or sequent", s)
}

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

// Package canon renders Formulas, Judgements and Sequents to the bit-exact
// canonical textual encoding used wherever a formula's encoding is signed
// over or hashed: credential signatures, proof memoization keys, and the
// wire format's human-auditable fields all rely on the same encoding.
package canon

import (
	"fmt"
	"strings"

	"github.com/trustfabric/authlogic/logic"
)

// Formula renders f using the canonical textual grammar: atoms print their
// ID verbatim; true/false print as literals; unary operators print as
// "op(arg)"; sign, iskey and open have bespoke infix-ish forms; the general
// binary case prints as "(lhs OP rhs)"; Forall prints as "(@x . (body))".
func Formula(f *logic.Formula) string {
	if f == nil {
		return ""
	}
	switch f.Kind {
	case logic.KindVariable, logic.KindAgent, logic.KindKey, logic.KindResource:
		return f.ID
	case logic.KindForall:
		return fmt.Sprintf("(@%s . (%s))", f.Bound.ID, Formula(f.Body))
	case logic.KindApp:
		return appFormula(f)
	default:
		return ""
	}
}

func appFormula(f *logic.Formula) string {
	switch f.Op {
	case logic.OpTrue:
		return "true"
	case logic.OpFalse:
		return "false"
	case logic.OpNot:
		return fmt.Sprintf("!(%s)", Formula(f.Args[0]))
	case logic.OpIsCA:
		return fmt.Sprintf("ca(%s)", Formula(f.Args[0]))
	case logic.OpSign:
		return fmt.Sprintf("sign((%s), %s)", Formula(f.Args[0]), Formula(f.Args[1]))
	case logic.OpIsKey:
		return fmt.Sprintf("iskey(%s, %s)", Formula(f.Args[0]), Formula(f.Args[1]))
	case logic.OpOpen:
		return fmt.Sprintf("open(%s, %s)", Formula(f.Args[0]), Formula(f.Args[1]))
	case logic.OpOther:
		return fmt.Sprintf("%s(%s)", Formula(f.Args[0]), Formula(f.Args[1]))
	default:
		return fmt.Sprintf("(%s %s %s)", Formula(f.Args[0]), binOp(f.Op), Formula(f.Args[1]))
	}
}

func binOp(op logic.Operator) string {
	switch op {
	case logic.OpAnd:
		return "&"
	case logic.OpOr:
		return "|"
	case logic.OpImplies:
		return "->"
	case logic.OpSays:
		return "says"
	default:
		return "?"
	}
}

// Judgement renders a Judgement using the canonical textual grammar: a
// Proposition prints as "<formula> true"; an Affirmation prints as
// "<agent> aff <formula>".
func Judgement(j logic.Judgement) string {
	if j.Kind == logic.JudgementAffirmation {
		return fmt.Sprintf("%s aff %s", Formula(j.Agent), Formula(j.P))
	}
	return fmt.Sprintf("%s true", Formula(j.P))
}

// Sequent renders a Sequent as "<gamma, comma-joined> |- <delta>".
func Sequent(s logic.Sequent) string {
	parts := make([]string, len(s.Gamma))
	for i, j := range s.Gamma {
		parts[i] = Judgement(j)
	}
	return fmt.Sprintf("%s |- %s", strings.Join(parts, ", "), Judgement(s.Delta))
}

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

// Package logic implements the term, judgement, sequent and rule model of the
// constructive authorization logic: a small sequent calculus over formulas
// built from implication, says, signing and quantification, used to express
// and check proofs that some agent may access some resource.
package logic

// Operator identifies the connective or predicate an App formula applies.
type Operator uint8

const (
	OpTrue Operator = iota
	OpFalse
	OpNot
	OpAnd
	OpOr
	OpImplies
	OpSays
	OpIsKey
	OpSign
	OpIsCA
	OpOpen
	// OpOther represents the template hole "P(x)": a schematic predicate
	// variable P applied to an argument placeholder x. It only ever appears
	// inside rule schemas, never inside a formula produced by a concrete
	// proof step.
	OpOther
)

// arity returns the number of arguments an App of this operator carries.
func (op Operator) arity() int {
	switch op {
	case OpTrue, OpFalse:
		return 0
	case OpNot, OpIsCA:
		return 1
	case OpAnd, OpOr, OpImplies, OpSays, OpIsKey, OpSign, OpOpen, OpOther:
		return 2
	default:
		return -1
	}
}

// Kind discriminates the variant held by a Formula.
type Kind uint8

const (
	KindVariable Kind = iota
	KindAgent
	KindKey
	KindResource
	KindApp
	KindForall
)

// Formula is the single tagged-union term representation used throughout the
// logic: a Variable, Agent, Key or Resource atom, an App of some Operator to
// its arguments, or a Forall binding a Variable over a body Formula.
//
// Formula is treated as immutable once constructed: every operation that
// would "change" a Formula (substitution, renaming) returns a new value.
type Formula struct {
	Kind Kind

	// ID holds the atom identifier for Variable, Agent, Key and Resource.
	ID string

	// Op and Args hold the connective/predicate and its operands for App.
	Op   Operator
	Args []*Formula

	// Bound and Body hold the bound variable and scope for Forall. Bound is
	// always a Formula of Kind Variable.
	Bound *Formula
	Body  *Formula
}

// Variable constructs a schematic or bound variable atom.
func Variable(id string) *Formula { return &Formula{Kind: KindVariable, ID: id} }

// Agent constructs a concrete principal atom, conventionally prefixed "#".
func Agent(id string) *Formula { return &Formula{Kind: KindAgent, ID: id} }

// Key constructs a concrete cryptographic key atom.
func Key(id string) *Formula { return &Formula{Kind: KindKey, ID: id} }

// Resource constructs a concrete resource atom.
func Resource(id string) *Formula { return &Formula{Kind: KindResource, ID: id} }

// App constructs an application of op to args. Panics if the argument count
// does not match op's fixed arity, since every caller in this package
// constructs App nodes from constants known at compile time.
func App(op Operator, args ...*Formula) *Formula {
	if n := op.arity(); n >= 0 && len(args) != n {
		panic("logic: wrong arity for operator")
	}
	return &Formula{Kind: KindApp, Op: op, Args: args}
}

// ForallFormula constructs a universally quantified formula.
func ForallFormula(bound, body *Formula) *Formula {
	return &Formula{Kind: KindForall, Bound: bound, Body: body}
}

// Convenience constructors for the fixed connective/predicate set.
func True() *Formula                { return App(OpTrue) }
func False() *Formula               { return App(OpFalse) }
func Not(p *Formula) *Formula       { return App(OpNot, p) }
func And(p, q *Formula) *Formula    { return App(OpAnd, p, q) }
func Or(p, q *Formula) *Formula     { return App(OpOr, p, q) }
func Implies(p, q *Formula) *Formula { return App(OpImplies, p, q) }
func Says(a, p *Formula) *Formula   { return App(OpSays, a, p) }
func IsKey(a, k *Formula) *Formula  { return App(OpIsKey, a, k) }
func Sign(p, k *Formula) *Formula   { return App(OpSign, p, k) }
func IsCA(a *Formula) *Formula      { return App(OpIsCA, a) }
func Open(a, r *Formula) *Formula   { return App(OpOpen, a, r) }
func Other(p, x *Formula) *Formula  { return App(OpOther, p, x) }

// Equal reports whether f and g are structurally identical formulas: same
// atom kind and ID, same operator and argument trees, or same bound variable
// and body (bound-variable names are compared literally; matching performs
// any necessary alpha-renaming before comparing).
func (f *Formula) Equal(g *Formula) bool {
	if f == nil || g == nil {
		return f == g
	}
	if f.Kind != g.Kind {
		return false
	}
	switch f.Kind {
	case KindVariable, KindAgent, KindKey, KindResource:
		return f.ID == g.ID
	case KindApp:
		if f.Op != g.Op || len(f.Args) != len(g.Args) {
			return false
		}
		for i := range f.Args {
			if !f.Args[i].Equal(g.Args[i]) {
				return false
			}
		}
		return true
	case KindForall:
		return f.Bound.Equal(g.Bound) && f.Body.Equal(g.Body)
	default:
		return false
	}
}

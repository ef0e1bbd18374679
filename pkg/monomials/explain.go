// This file defines the explanation contract: the sink interface the core
// appends equality justifications to, and a slice-backed implementation for
// callers that just want to collect them.
package monomials

import "strings"

// Equality is one justification record: the variable Lhs is currently equal
// to the signed representative Rhs under the merges performed so far.
type Equality struct {
	Lhs Var
	Rhs SignedVar
}

// String renders the record as "v1 = v3" or "v1 = -v3".
func (e Equality) String() string {
	return e.Lhs.String() + " = " + e.Rhs.String()
}

// ExplanationSink receives the equality facts that justify a canonical
// form. The core only appends; it never reads back.
type ExplanationSink interface {
	AddEquality(v Var, rep SignedVar)
}

// Explanation is the plain collector implementation of ExplanationSink.
// The zero value is ready to use.
type Explanation struct {
	eqs []Equality
}

// AddEquality appends one justification record.
func (e *Explanation) AddEquality(v Var, rep SignedVar) {
	e.eqs = append(e.eqs, Equality{Lhs: v, Rhs: rep})
}

// Equalities returns the collected records in append order.
func (e *Explanation) Equalities() []Equality {
	return e.eqs
}

// Len returns the number of collected records.
func (e *Explanation) Len() int {
	return len(e.eqs)
}

// Reset clears the collector for reuse.
func (e *Explanation) Reset() {
	e.eqs = e.eqs[:0]
}

// String renders the records comma-separated, e.g. "v1 = v3, v2 = -v4".
func (e *Explanation) String() string {
	parts := make([]string, len(e.eqs))
	for i, eq := range e.eqs {
		parts[i] = eq.String()
	}
	return strings.Join(parts, ", ")
}

// This file defines the two value types of the congruence core: Monomial,
// the immutable definition "v := v1 * v2 * ...", and SignedVars, the
// canonical form of a monomial under the current variable equalities.
package monomials

import "strings"

// Monomial is a declared equality between a defining variable and an ordered
// product of factor variables. The factor sequence is stored exactly as the
// caller gave it: duplicates and ordering are preserved, normalization only
// ever happens in the canonical form. Monomials are immutable once
// registered and are destroyed only when a Pop trims past their creation
// point.
type Monomial struct {
	v    Var
	vars []Var
}

// Var returns the defining variable.
func (m *Monomial) Var() Var { return m.v }

// Vars returns the factor variables as given at registration. The returned
// slice is owned by the store; callers must not modify it.
func (m *Monomial) Vars() []Var { return m.vars }

// Size returns the number of factors, counting duplicates.
func (m *Monomial) Size() int { return len(m.vars) }

// At returns the i-th factor variable.
func (m *Monomial) At(i int) Var { return m.vars[i] }

// String renders the definition, e.g. "v5 := v1 v2".
func (m *Monomial) String() string {
	var b strings.Builder
	b.WriteString(m.v.String())
	b.WriteString(" :=")
	for _, w := range m.vars {
		b.WriteByte(' ')
		b.WriteString(w.String())
	}
	return b.String()
}

// SignedVars is the canonical form of a monomial with respect to the current
// variable equalities: the sorted sequence of the representatives of each
// factor (duplicates preserved, multiplicity matters) and the sign
// accumulated as the XOR of each factor's sign relative to its
// representative.
//
// SignedVars records are cached derived state owned by Emonomials. They are
// kept in sync with the union-find by the merge/unmerge protocol; accessors
// returning them recompute on read if the record has been flagged stale, so
// callers always observe a fresh form.
type SignedVars struct {
	v    Var
	vars []Var
	sign bool
}

// Var returns the defining variable of the monomial this form canonizes.
func (sv *SignedVars) Var() Var { return sv.v }

// Vars returns the sorted canonical factor sequence. The returned slice is
// owned by the cache; callers must not modify it.
func (sv *SignedVars) Vars() []Var { return sv.vars }

// Size returns the number of canonical factors, counting duplicates.
func (sv *SignedVars) Size() int { return len(sv.vars) }

// At returns the i-th canonical factor.
func (sv *SignedVars) At(i int) Var { return sv.vars[i] }

// Sign reports the accumulated sign; true means the canonical product is the
// negation of the defining variable.
func (sv *SignedVars) Sign() bool { return sv.sign }

// Unit returns the accumulated sign as +1 or -1, for callers that fold it
// into coefficient arithmetic.
func (sv *SignedVars) Unit() int {
	if sv.sign {
		return -1
	}
	return 1
}

// reset clears the form for recomputation, keeping the factor slice's
// capacity.
func (sv *SignedVars) reset() {
	sv.sign = false
	sv.vars = sv.vars[:0]
}

// pushVar accumulates one canonized factor.
func (sv *SignedVars) pushVar(f SignedVar) {
	sv.sign = sv.sign != f.Sign()
	sv.vars = append(sv.vars, f.Var())
}

// String renders the canonical form, e.g. "v5 := - v1 v3".
func (sv *SignedVars) String() string {
	var b strings.Builder
	b.WriteString(sv.v.String())
	b.WriteString(" :=")
	if sv.sign {
		b.WriteString(" -")
	}
	for _, w := range sv.vars {
		b.WriteByte(' ')
		b.WriteString(w.String())
	}
	return b.String()
}

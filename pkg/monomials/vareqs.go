// Package monomials maintains canonical forms for algebraic monomials
// (variables defined as products of other variables) under a dynamically
// changing equivalence relation over variables. This file provides the
// equivalence relation itself: a signed union-find over variables with
// scoped (push/pop) backtracking and a synchronous merge observer.
//
// Each union records a parity bit, so a class can assert either x = y or
// x = -y between its members. Find resolves any variable to the class
// representative together with the accumulated sign along the path.
//
// The structure deliberately performs no path compression: parent links are
// only ever written by Merge and restored by Pop, which keeps unmerging an
// exact O(1) reversal and guarantees that Find returns identical results
// before a merge and after its undo.
package monomials

import "fmt"

// Var identifies a solver variable. Variables are dense small integers
// assigned by the caller; they index internal tables directly.
type Var int

// String returns the conventional "v<n>" rendering of a variable.
func (v Var) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// SignedVar pairs a variable with a parity bit. A true sign reads as the
// negation of the variable, so SignedVar{v, true} stands for -v.
type SignedVar struct {
	v   Var
	neg bool
}

// SV constructs a positive signed variable.
func SV(v Var) SignedVar {
	return SignedVar{v: v}
}

// NegSV constructs a negated signed variable.
func NegSV(v Var) SignedVar {
	return SignedVar{v: v, neg: true}
}

// Var returns the underlying variable.
func (sv SignedVar) Var() Var { return sv.v }

// Sign reports the parity bit; true means the variable occurs negated.
func (sv SignedVar) Sign() bool { return sv.neg }

// String renders the signed variable as "v3" or "-v3".
func (sv SignedVar) String() string {
	if sv.neg {
		return "-" + sv.v.String()
	}
	return sv.v.String()
}

// MergeHandler observes the union-find. All three callbacks fire
// synchronously on the caller's stack.
//
// OnMerge fires while a union is being applied: r1's class is being absorbed
// into r2's, where r1 was the representative of v1 and r2 the representative
// of v2. OnMergeSettled fires once the union is fully applied; observers that
// need every related class to have reached its final representative before
// recomputing derived state should do that work here. OnUnmerge fires when a
// Pop undoes the union, in exact reverse order of the corresponding merges.
type MergeHandler interface {
	OnMerge(r2, r1, v2, v1 SignedVar)
	OnMergeSettled(r2, r1, v2, v1 SignedVar)
	OnUnmerge(r2, r1 SignedVar)
}

// mergeRecord is one trail entry: root r1 was attached under root r2 when
// the caller merged v1 with v2.
type mergeRecord struct {
	r1, r2 Var
	v1, v2 Var
}

// VarEqs is a scoped union-find over variables with a sign per union.
//
// Exactly one observer may be registered; the congruence core registers
// itself. Push/Pop on a VarEqs must be driven by a single owner (the
// Emonomials built on top of it) so that scope counts never diverge.
type VarEqs struct {
	parent  []Var  // parent[v] == v for roots
	psign   []bool // parity of v relative to parent[v]
	trail   []mergeRecord
	lim     []int // trail length at each Push
	handler MergeHandler
}

// NewVarEqs returns an empty equivalence relation: every variable is the
// sole, positive member of its own class.
func NewVarEqs() *VarEqs {
	return &VarEqs{}
}

// SetMergeHandler registers the single merge observer. Panics if an observer
// is already registered; the relation supports exactly one.
func (ve *VarEqs) SetMergeHandler(h MergeHandler) {
	if ve.handler != nil {
		panic("monomials: VarEqs already has a merge handler")
	}
	ve.handler = h
}

// ensure grows the parent tables to cover v.
func (ve *VarEqs) ensure(v Var) {
	for Var(len(ve.parent)) <= v {
		ve.parent = append(ve.parent, Var(len(ve.parent)))
		ve.psign = append(ve.psign, false)
	}
}

// Find returns the current representative of v's class together with the
// sign of v relative to it. A variable never touched by a merge is its own
// positive representative.
func (ve *VarEqs) Find(v Var) SignedVar {
	if v < 0 {
		panic(fmt.Sprintf("monomials: Find on negative variable %d", int(v)))
	}
	ve.ensure(v)
	sign := false
	for ve.parent[v] != v {
		sign = sign != ve.psign[v]
		v = ve.parent[v]
	}
	return SignedVar{v: v, neg: sign}
}

// IsRoot reports whether v is currently the representative of its class.
func (ve *VarEqs) IsRoot(v Var) bool {
	ve.ensure(v)
	return ve.parent[v] == v
}

// Merge asserts x = y, unioning their classes.
func (ve *VarEqs) Merge(x, y Var) { ve.MergeSigned(x, y, false) }

// MergeMinus asserts x = -y, unioning their classes with opposite parity.
func (ve *VarEqs) MergeMinus(x, y Var) { ve.MergeSigned(x, y, true) }

// MergeSigned asserts x = y (or x = -y when negated), unioning the two
// classes. The representative of x's class is attached under the
// representative of y's class, the union is trailed for backtracking, and
// the observer is notified. Merging two variables already in the same class
// is a no-op; whether the implied sign relation is consistent is the outer
// solver's concern, not this structure's.
func (ve *VarEqs) MergeSigned(x, y Var, negated bool) {
	sx := ve.Find(x)
	sy := ve.Find(y)
	if sx.Var() == sy.Var() {
		return
	}
	r1 := sx.Var()
	r2 := sy.Var()
	// Parity of r1 relative to r2 so that x and y relate as asserted.
	p := sx.Sign() != sy.Sign()
	if negated {
		p = !p
	}
	ve.parent[r1] = r2
	ve.psign[r1] = p
	ve.trail = append(ve.trail, mergeRecord{r1: r1, r2: r2, v1: x, v2: y})
	if ve.handler != nil {
		sr2 := SV(r2)
		sr1 := SignedVar{v: r1, neg: p}
		sv2 := SV(y)
		sv1 := SignedVar{v: x, neg: negated}
		ve.handler.OnMerge(sr2, sr1, sv2, sv1)
		ve.handler.OnMergeSettled(sr2, sr1, sv2, sv1)
	}
}

// Push opens a scope; all merges performed until the matching Pop will be
// undone by it.
func (ve *VarEqs) Push() {
	ve.lim = append(ve.lim, len(ve.trail))
}

// Pop discards the n most recent scopes, undoing their merges in exact
// reverse order and notifying the observer of each undo before the next one
// is processed. Panics if n exceeds the number of open scopes.
func (ve *VarEqs) Pop(n int) {
	if n < 0 || n > len(ve.lim) {
		panic(fmt.Sprintf("monomials: VarEqs.Pop(%d) with %d open scopes", n, len(ve.lim)))
	}
	if n == 0 {
		return
	}
	mark := ve.lim[len(ve.lim)-n]
	for len(ve.trail) > mark {
		rec := ve.trail[len(ve.trail)-1]
		ve.trail = ve.trail[:len(ve.trail)-1]
		ve.parent[rec.r1] = rec.r1
		ve.psign[rec.r1] = false
		if ve.handler != nil {
			ve.handler.OnUnmerge(SV(rec.r2), SV(rec.r1))
		}
	}
	ve.lim = ve.lim[:len(ve.lim)-n]
}

// NumScopes returns the number of currently open scopes.
func (ve *VarEqs) NumScopes() int {
	return len(ve.lim)
}

// This file implements Emonomials, the congruence-tracking core: the
// monomial store, the canonical-form cache, the per-class use lists, the
// congruence table with its sign-equivalence rings, and the scope manager.
//
// The structure listens to a VarEqs for merge/unmerge events and keeps three
// indexes consistent across arbitrary interleavings of Add, merges, pops and
// queries:
//
//   - use lists: for every class representative, a cyclic singly-linked list
//     of the monomials whose canonical form mentions that class. Lists are
//     spliced in O(1) when classes merge and restored from a trailed
//     boundary snapshot when they unmerge.
//   - canonical cache: one SignedVars record per monomial, recomputed from
//     the union-find whenever a merge or unmerge could have changed it.
//     Records touched by a splice are flagged stale and rehashed either by
//     the settle pass of the merge protocol or on first read, whichever
//     comes first.
//   - congruence table: canonical factor content -> representative monomial.
//     The representative of a congruence group is always its
//     earliest-registered member, and the group's sign-equivalence ring is
//     threaded in registration order. Keeping the grouping canonical makes
//     the table state a pure function of the live membership, which is what
//     lets a Pop restore it exactly.
//
// Cells of the use lists live in an arena and are addressed by index; they
// are unlinked but never freed, and the arena only ever grows. Cells whose
// monomials die in a Pop simply become unreachable.
package monomials

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
)

// nilCell marks an empty use list.
const nilCell = -1

// cell is one occurrence-list node: the monomial slot it files, and the
// arena index of the next cell in the cyclic list.
type cell struct {
	next int
	mono int
}

// headTail addresses one cyclic use list. tail.next == head while the list
// is live; a splice snapshot keeps enough of the old pointers to restore
// both halves on unmerge.
type headTail struct {
	head, tail int
}

// canonRecord is the per-slot cache entry: the canonical form plus the
// sign-equivalence ring links (slot indices, kept in registration order),
// the visited stamp used by factor iteration, and the staleness flag of the
// merge protocol.
type canonRecord struct {
	form    SignedVars
	next    int
	prev    int
	visited uint64
	stale   bool
}

// mergeUndo trails one use-list splice: the two roots involved and verbatim
// snapshots of their list boundaries immediately before the splice.
type mergeUndo struct {
	r1, r2      Var
	root, other headTail
}

// Emonomials associates monomials with congruence-class representatives
// modulo a VarEqs union-find.
//
// Emonomials drives the scoping of its VarEqs: Push and Pop here push and
// pop the union-find, and no other caller may scope it independently,
// because monomials and unions share one scope counter.
type Emonomials struct {
	ve         *VarEqs
	monomials  []Monomial
	var2slot   map[Var]int
	lim        []int // store length at each Push
	canonized  []canonRecord
	cells      []cell // arena; grows monotonically, never shrinks
	useLists   []headTail
	cgTable    map[string]int // canonical key -> representative slot
	mergeTrail []mergeUndo
	visited    uint64
}

// NewEmonomials builds a congruence core on top of ve and registers itself
// as the union-find's merge observer. The VarEqs must not have another
// observer and must not be scoped by anyone else afterwards.
func NewEmonomials(ve *VarEqs) *Emonomials {
	em := &Emonomials{
		ve:       ve,
		var2slot: make(map[Var]int),
		cgTable:  make(map[string]int),
	}
	ve.SetMergeHandler(em)
	return em
}

// Len returns the number of live monomials.
func (em *Emonomials) Len() int {
	return len(em.monomials)
}

// IsMonomialVar reports whether v is the defining variable of a live
// monomial.
func (em *Emonomials) IsMonomialVar(v Var) bool {
	_, ok := em.var2slot[v]
	return ok
}

// slotOf resolves a defining variable to its store slot, panicking on
// unregistered variables per the module's contract-violation policy.
func (em *Emonomials) slotOf(v Var) int {
	slot, ok := em.var2slot[v]
	if !ok {
		panic(fmt.Sprintf("monomials: %s is not a monomial variable", v))
	}
	return slot
}

// Var2Monomial returns the monomial defined by v. Panics if v was never
// registered with Add.
func (em *Emonomials) Var2Monomial(v Var) *Monomial {
	return &em.monomials[em.slotOf(v)]
}

// Add registers the monomial v := factors. The factor sequence is taken as
// given: order and duplicates are preserved in the definition and only
// normalized in the canonical form. Panics if v already defines a monomial
// or if no factors are given.
func (em *Emonomials) Add(v Var, factors ...Var) {
	if _, ok := em.var2slot[v]; ok {
		panic(fmt.Sprintf("monomials: %s already defines a monomial", v))
	}
	if len(factors) == 0 {
		panic("monomials: a monomial needs at least one factor")
	}
	slot := len(em.monomials)
	em.monomials = append(em.monomials, Monomial{v: v, vars: append([]Var(nil), factors...)})
	em.var2slot[v] = slot
	em.canonized = append(em.canonized, canonRecord{form: SignedVars{v: v}, next: slot, prev: slot})
	// One cell per distinct current-representative factor; factor counts
	// are tiny, so a linear membership check beats any set machinery.
	var filed []Var
	for _, w := range factors {
		r := em.ve.Find(w).Var()
		if !slices.Contains(filed, r) {
			em.insertCell(r, slot)
			filed = append(filed, r)
		}
	}
	em.doCanonize(slot)
	em.insertCG(slot)
}

// Canonize returns m's canonical form under the current equalities. The
// result is a read-only view into the cache; it is recomputed here if a
// merge left it stale.
func (em *Emonomials) Canonize(m *Monomial) *SignedVars {
	return em.freshForm(em.slotOf(m.Var()))
}

// Var2Canonical returns the canonical form of the monomial defined by v.
// Panics if v was never registered.
func (em *Emonomials) Var2Canonical(v Var) *SignedVars {
	return em.freshForm(em.slotOf(v))
}

// freshForm settles slot's cache entry if stale and returns it.
func (em *Emonomials) freshForm(slot int) *SignedVars {
	if em.canonized[slot].stale {
		em.rehashCG(slot)
	}
	return &em.canonized[slot].form
}

// doCanonize recomputes slot's canonical form from scratch: resolve each
// factor through the union-find, accumulate the sign, sort the
// representatives. Duplicates stay; multiplicity matters.
func (em *Emonomials) doCanonize(slot int) {
	rec := &em.canonized[slot]
	mon := &em.monomials[slot]
	rec.form.reset()
	for _, w := range mon.vars {
		rec.form.pushVar(em.ve.Find(w))
	}
	slices.Sort(rec.form.vars)
	rec.stale = false
}

// canonKey encodes a sorted canonical factor sequence as a map key. The
// encoding is fixed-width so content equality and key equality coincide.
func canonKey(vars []Var) string {
	buf := make([]byte, 8*len(vars))
	for i, v := range vars {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return string(buf)
}

// FindCanonical looks up whether any live monomial currently has exactly the
// given canonical factor sequence. vars must be sorted (as produced by
// Canonize). Returns the representative's canonical form, or ok=false when
// no monomial matches, which is a normal outcome rather than an error.
func (em *Emonomials) FindCanonical(vars []Var) (*SignedVars, bool) {
	repSlot, ok := em.cgTable[canonKey(vars)]
	if !ok {
		return nil, false
	}
	return &em.canonized[repSlot].form, true
}

// Rep resolves a canonical form to the canonical form of its congruence
// group's representative: the earliest-registered monomial with the same
// canonical factor content. Panics if sv does not belong to a live monomial.
func (em *Emonomials) Rep(sv *SignedVars) *SignedVars {
	repSlot, ok := em.cgTable[canonKey(sv.vars)]
	if !ok {
		panic(fmt.Sprintf("monomials: no live congruence entry for %s", sv))
	}
	return &em.canonized[repSlot].form
}

// OrigSign returns the accumulated sign of sv's group representative, used
// to translate between a queried monomial's sign and its group's canonical
// sign.
func (em *Emonomials) OrigSign(sv *SignedVars) bool {
	return em.Rep(sv).Sign()
}

// CanonizeDivides reports whether m1 divides m2 under the current
// equalities: every canonical factor of m1 occurs in m2's canonical form
// with at least equal multiplicity. Both forms are sorted, so this is a
// single merge pass.
func (em *Emonomials) CanonizeDivides(m1, m2 *Monomial) bool {
	s1 := em.Canonize(m1)
	s2 := em.Canonize(m2)
	return isSubMultiset(s1.vars, s2.vars)
}

// isSubMultiset reports whether sorted a is a sub-multiset of sorted b.
func isSubMultiset(a, b []Var) bool {
	i := 0
	for j := 0; i < len(a) && j < len(b); j++ {
		if a[i] == b[j] {
			i++
		} else if a[i] < b[j] {
			return false
		}
	}
	return i == len(a)
}

// ExplainCanonized appends to sink the variable equalities that justify m's
// current canonical form: one record per factor whose class representative
// differs from the factor itself (or carries a sign). Callable at any time;
// it never mutates solver state.
func (em *Emonomials) ExplainCanonized(m *Monomial, sink ExplanationSink) {
	for _, w := range m.vars {
		sv := em.ve.Find(w)
		if sv.Var() != w || sv.Sign() {
			sink.AddEquality(w, sv)
		}
	}
}

// Push opens a scope: records the store's high-water mark and pushes the
// union-find, keeping the two scope counters in lock step.
func (em *Emonomials) Push() {
	em.lim = append(em.lim, len(em.monomials))
	em.ve.Push()
}

// Pop discards the n most recent scopes. The union-find pops first, firing
// the unmerge cascade that restores use lists, canonical forms and table
// entries for surviving monomials; the store is then trimmed back to the
// recorded boundary, removing every monomial registered since. Panics if n
// exceeds the number of open scopes.
func (em *Emonomials) Pop(n int) {
	if n < 0 || n > len(em.lim) {
		panic(fmt.Sprintf("monomials: Pop(%d) with %d open scopes", n, len(em.lim)))
	}
	if n == 0 {
		return
	}
	em.ve.Pop(n)
	old := em.lim[len(em.lim)-n]
	for i := len(em.monomials) - 1; i >= old; i-- {
		m := &em.monomials[i]
		em.removeCG(i)
		delete(em.var2slot, m.v)
		// Mirror of Add's cell filing; removeCell tolerates cells already
		// orphaned by the unmerge cascade.
		var filed []Var
		for _, w := range m.vars {
			r := em.ve.Find(w).Var()
			if !slices.Contains(filed, r) {
				em.removeCell(r, i)
				filed = append(filed, r)
			}
		}
	}
	em.monomials = em.monomials[:old]
	em.canonized = em.canonized[:old]
	em.lim = em.lim[:len(em.lim)-n]
}

// NumScopes returns the number of currently open scopes.
func (em *Emonomials) NumScopes() int {
	return len(em.lim)
}

// ----- use lists -----

// ensureUseList grows the per-root table to cover v.
func (em *Emonomials) ensureUseList(v Var) {
	for Var(len(em.useLists)) <= v {
		em.useLists = append(em.useLists, headTail{head: nilCell, tail: nilCell})
	}
}

// head returns the head cell of v's class's use list, or nilCell. v is
// resolved to its representative first.
func (em *Emonomials) head(v Var) int {
	r := em.ve.Find(v).Var()
	em.ensureUseList(r)
	return em.useLists[r].head
}

// insertCell prepends a new arena cell filing slot in root r's list, so
// traversal yields most-recently-inserted first.
func (em *Emonomials) insertCell(r Var, slot int) {
	c := len(em.cells)
	em.cells = append(em.cells, cell{next: c, mono: slot})
	em.ensureUseList(r)
	ht := &em.useLists[r]
	if ht.head == nilCell {
		ht.head, ht.tail = c, c
	} else {
		em.cells[c].next = ht.head
		em.cells[ht.tail].next = c
		ht.head = c
	}
}

// removeCell unlinks slot's cell from root r's list. A miss is tolerated:
// cells inserted while a merge was live are detached wholesale when the
// merge's boundary snapshot is restored, so by the time the owning monomial
// is trimmed its cell may already be gone.
func (em *Emonomials) removeCell(r Var, slot int) {
	em.ensureUseList(r)
	ht := &em.useLists[r]
	if ht.head == nilCell {
		return
	}
	prev := ht.tail
	c := ht.head
	for {
		if em.cells[c].mono == slot {
			if prev == c {
				ht.head, ht.tail = nilCell, nilCell
			} else {
				em.cells[prev].next = em.cells[c].next
				if ht.head == c {
					ht.head = em.cells[c].next
				}
				if ht.tail == c {
					ht.tail = prev
				}
			}
			return
		}
		prev = c
		c = em.cells[c].next
		if c == ht.head {
			return
		}
	}
}

// mergeCellLists splices other's list onto root's in O(1): other's segment
// comes first, so the merged traversal order is other's cells then root's.
// The pre-splice boundaries live in the merge trail for the undo.
func (em *Emonomials) mergeCellLists(rootVar, otherVar Var) {
	root := em.useLists[rootVar]
	other := em.useLists[otherVar]
	if other.head == nilCell {
		return
	}
	if root.head == nilCell {
		em.useLists[rootVar] = other
		return
	}
	em.cells[other.tail].next = root.head
	em.cells[root.tail].next = other.head
	root.head = other.head
	em.useLists[rootVar] = root
}

// markListStale flags every monomial filed in ht for recanonization.
func (em *Emonomials) markListStale(ht headTail) {
	if ht.head == nilCell {
		return
	}
	c := ht.head
	for {
		em.canonized[em.cells[c].mono].stale = true
		c = em.cells[c].next
		if c == ht.head {
			return
		}
	}
}

// rehashListStale settles every still-stale monomial filed in ht. Monomials
// appearing in both lists of an unmerge are settled once; the first rehash
// clears the flag.
func (em *Emonomials) rehashListStale(ht headTail) {
	if ht.head == nilCell {
		return
	}
	c := ht.head
	for {
		if slot := em.cells[c].mono; em.canonized[slot].stale {
			em.rehashCG(slot)
		}
		c = em.cells[c].next
		if c == ht.head {
			return
		}
	}
}

// ----- congruence table -----

// insertCG files slot's canonical form in the congruence table, linking it
// into the sign-equivalence ring of any group that already has the same
// canonical factor content. The ring stays in registration order and the
// group representative stays the earliest-registered member, so the table
// state depends only on the live membership, never on merge history.
func (em *Emonomials) insertCG(slot int) {
	key := canonKey(em.canonized[slot].form.vars)
	repSlot, ok := em.cgTable[key]
	if !ok {
		em.cgTable[key] = slot
		return
	}
	var at int
	if slot < repSlot {
		at = em.canonized[repSlot].prev // largest member: new rep goes before the old one
		em.cgTable[key] = slot
	} else {
		at = repSlot
		for em.canonized[at].next != repSlot && em.canonized[at].next < slot {
			at = em.canonized[at].next
		}
	}
	n := em.canonized[at].next
	em.canonized[at].next = slot
	em.canonized[slot].prev = at
	em.canonized[slot].next = n
	em.canonized[n].prev = slot
}

// removeCG unfiles slot from the congruence table: drops or re-points the
// table entry if slot was the group representative, and unlinks slot from
// its sign-equivalence ring.
func (em *Emonomials) removeCG(slot int) {
	rec := &em.canonized[slot]
	key := canonKey(rec.form.vars)
	if repSlot, ok := em.cgTable[key]; ok && repSlot == slot {
		if rec.next == slot {
			delete(em.cgTable, key)
		} else {
			em.cgTable[key] = rec.next // next-in-registration-order member
		}
	}
	if rec.next != slot {
		em.canonized[rec.prev].next = rec.next
		em.canonized[rec.next].prev = rec.prev
		rec.next, rec.prev = slot, slot
	}
}

// rehashCG re-keys slot after its canonical form may have changed: remove
// under the cached key, recompute the form, reinsert under the new key.
func (em *Emonomials) rehashCG(slot int) {
	em.removeCG(slot)
	em.doCanonize(slot)
	em.insertCG(slot)
}

// ----- merge protocol (MergeHandler) -----

// OnMerge splices r1's use list onto r2's and flags every monomial in
// either list stale: their canonical forms may now reference the merged
// representative. Settling is deferred to OnMergeSettled (or to the first
// read) so that cascaded merges can all land before forms are recomputed.
func (em *Emonomials) OnMerge(r2, r1, v2, v1 SignedVar) {
	a, b := r2.Var(), r1.Var()
	em.ensureUseList(a)
	em.ensureUseList(b)
	em.mergeTrail = append(em.mergeTrail, mergeUndo{
		r1: b, r2: a,
		root:  em.useLists[a],
		other: em.useLists[b],
	})
	em.markListStale(em.useLists[a])
	em.markListStale(em.useLists[b])
	em.mergeCellLists(a, b)
}

// OnMergeSettled walks the merged list and rehashes every monomial still
// flagged stale, restoring the invariant that all canonical forms and table
// entries reflect the union-find before any query runs.
func (em *Emonomials) OnMergeSettled(r2, r1, v2, v1 SignedVar) {
	em.rehashListStale(em.useLists[r2.Var()])
}

// OnUnmerge restores the two use lists from the trailed boundary snapshot
// and rehashes their monomials back to the pre-merge canonical forms. The
// union-find has already detached r1 when this fires, so recanonization
// sees the restored representatives. Unmerges arrive in exact reverse merge
// order; anything else is a scope-discipline violation.
func (em *Emonomials) OnUnmerge(r2, r1 SignedVar) {
	if len(em.mergeTrail) == 0 {
		panic("monomials: unmerge without a matching merge")
	}
	u := em.mergeTrail[len(em.mergeTrail)-1]
	if u.r2 != r2.Var() || u.r1 != r1.Var() {
		panic(fmt.Sprintf("monomials: unmerge of (%s, %s) out of order, expected (%s, %s)",
			r2.Var(), r1.Var(), u.r2, u.r1))
	}
	em.mergeTrail = em.mergeTrail[:len(em.mergeTrail)-1]
	em.useLists[u.r2] = u.root
	em.useLists[u.r1] = u.other
	// Re-close both cycles: the splice redirected each tail's next into the
	// other segment, and restoring the boundaries alone would leave the two
	// lists cross-linked. This also orphans any cells prepended while the
	// merge was live; those belong to monomials trimmed by the same pop.
	if u.other.head != nilCell {
		em.cells[u.other.tail].next = u.other.head
	}
	if u.root.head != nilCell {
		em.cells[u.root.tail].next = u.root.head
	}
	em.markListStale(u.other)
	em.markListStale(u.root)
	em.rehashListStale(u.other)
	em.rehashListStale(u.root)
}

// ----- diagnostics -----

// String dumps all monomials with their cached canonical forms. Diagnostic
// output only, not a stable format.
func (em *Emonomials) String() string {
	var b strings.Builder
	for i := range em.monomials {
		b.WriteString(em.monomials[i].String())
		b.WriteString("  [canonical: ")
		b.WriteString(em.canonized[i].form.String())
		b.WriteString("]\n")
	}
	return b.String()
}

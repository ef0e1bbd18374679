// This file provides the enumeration surface of the congruence core:
// iteration over all monomials, over the use list of a class, over the
// monomials a given monomial properly divides, and over sign-equivalent
// monomials. All iteration is callback-based: the callback returns false to
// stop early, and every sequence is finite and re-derivable by calling the
// method again.
package monomials

// IterateMonomials calls f for every live monomial in registration order,
// stopping early if f returns false.
func (em *Emonomials) IterateMonomials(f func(m *Monomial) bool) {
	for i := range em.monomials {
		if !f(&em.monomials[i]) {
			return
		}
	}
}

// IterateUseList calls f for every monomial whose canonical form currently
// mentions v's equivalence class, most recently inserted first. Each
// monomial is filed once per class it mentions, but after a merge it can
// sit in the spliced list through several of its pre-merge classes and be
// reported more than once; callers needing uniqueness deduplicate
// themselves (factor iteration does so with visited stamps). f returns
// false to stop.
func (em *Emonomials) IterateUseList(v Var, f func(m *Monomial) bool) {
	h := em.head(v)
	if h == nilCell {
		return
	}
	c := h
	for {
		if !f(&em.monomials[em.cells[c].mono]) {
			return
		}
		c = em.cells[c].next
		if c == h {
			return
		}
	}
}

// IterateFactorsOf calls f for every monomial that m properly divides under
// the current equalities: every canonical factor of m appears with at least
// equal multiplicity, and the other monomial has strictly more factors.
//
// The scan is confined to the use list of one of m's own canonical factors;
// every proper multiple of m must be filed there. Duplicates are suppressed
// with a visit stamp bumped once per call, never per element, so a multiple
// reached through several factor occurrences is reported once. f returns
// false to stop.
func (em *Emonomials) IterateFactorsOf(m *Monomial, f func(m *Monomial) bool) {
	em.visited++
	slot := em.slotOf(m.Var())
	sv := em.freshForm(slot)
	if sv.Size() == 0 {
		return
	}
	h := em.head(sv.At(0))
	if h == nilCell {
		return
	}
	c := h
	for {
		cand := em.cells[c].mono
		if cand != slot && em.canonized[cand].visited != em.visited {
			csv := em.freshForm(cand)
			if csv.Size() > sv.Size() && isSubMultiset(sv.vars, csv.vars) {
				em.canonized[cand].visited = em.visited
				if !f(&em.monomials[cand]) {
					return
				}
			}
		}
		c = em.cells[c].next
		if c == h {
			return
		}
	}
}

// IterateSignEquivMonomials calls f for every monomial whose canonical
// factor content equals m's, ignoring sign — m's congruence group. m itself
// is always included and comes first; the rest follow in registration
// order. f returns false to stop.
func (em *Emonomials) IterateSignEquivMonomials(m *Monomial, f func(m *Monomial) bool) {
	slot := em.slotOf(m.Var())
	em.freshForm(slot)
	i := slot
	for {
		if !f(&em.monomials[i]) {
			return
		}
		i = em.canonized[i].next
		if i == slot {
			return
		}
	}
}

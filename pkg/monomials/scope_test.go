package monomials

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coreState is a logical snapshot of everything a Pop must restore: the
// store, the canonical cache with its sign-equivalence rings, the
// congruence table, and the traversal contents of every use list. Arena
// internals (cell indices, garbage from popped scopes) and visit stamps are
// deliberately excluded: they are not part of the observable state.
type coreState struct {
	Monomials []string
	Canonical []string
	Rings     [][2]int
	Table     map[string]int
	UseLists  map[Var][]int
}

// snapshot captures the current logical state of the core.
func snapshot(em *Emonomials) coreState {
	s := coreState{
		Table:    map[string]int{},
		UseLists: map[Var][]int{},
	}
	for i := range em.monomials {
		s.Monomials = append(s.Monomials, em.monomials[i].String())
		s.Canonical = append(s.Canonical, em.canonized[i].form.String())
		s.Rings = append(s.Rings, [2]int{em.canonized[i].next, em.canonized[i].prev})
	}
	for k, v := range em.cgTable {
		s.Table[fmt.Sprintf("%x", k)] = v
	}
	for r := range em.useLists {
		ht := em.useLists[r]
		if ht.head == nilCell {
			continue
		}
		var slots []int
		c := ht.head
		for {
			slots = append(slots, em.cells[c].mono)
			c = em.cells[c].next
			if c == ht.head {
				break
			}
		}
		s.UseLists[Var(r)] = slots
	}
	return s
}

func TestPushPop_RestoresStateExactly(t *testing.T) {
	em, ve := newCore()
	a, b, c, d := Var(1), Var(2), Var(3), Var(4)
	em.Add(10, a, b)
	em.Add(11, b, c)
	em.Add(12, a, b) // congruent with v10 from the start

	before := snapshot(em)

	em.Push()
	em.Add(13, c, d)
	em.Add(14, a, c)
	ve.Merge(a, c)
	ve.MergeMinus(b, d)
	em.Pop(1)

	if diff := cmp.Diff(before, snapshot(em)); diff != "" {
		t.Errorf("state not restored after pop (-before +after):\n%s", diff)
	}
}

func TestPushPop_NestedScopes(t *testing.T) {
	em, ve := newCore()
	a, b, c := Var(1), Var(2), Var(3)
	em.Add(10, a, b)

	base := snapshot(em)

	em.Push()
	em.Add(11, b, c)
	ve.Merge(a, c)
	afterScope1 := snapshot(em)

	em.Push()
	em.Add(12, a, a)
	ve.Merge(b, 5)
	em.Push()
	ve.MergeMinus(5, 6)

	// Popping the two inner scopes restores the scope-1 state.
	em.Pop(2)
	if diff := cmp.Diff(afterScope1, snapshot(em)); diff != "" {
		t.Errorf("inner pop not exact (-want +got):\n%s", diff)
	}

	em.Pop(1)
	if diff := cmp.Diff(base, snapshot(em)); diff != "" {
		t.Errorf("outer pop not exact (-want +got):\n%s", diff)
	}
}

func TestPushPop_AddAfterMergeInSameScope(t *testing.T) {
	// A monomial registered while a merge of the same scope is live files
	// its occurrences under the merged representative; the pop must unwind
	// both without disturbing survivors.
	em, ve := newCore()
	a, b, c := Var(1), Var(2), Var(3)
	em.Add(10, a, b)

	before := snapshot(em)

	em.Push()
	ve.Merge(a, c)
	em.Add(11, a, c) // canonizes to c*c under the live merge
	assert.Equal(t, []Var{c, c}, canonVars(em, 11))
	em.Pop(1)

	if diff := cmp.Diff(before, snapshot(em)); diff != "" {
		t.Errorf("state not restored (-want +got):\n%s", diff)
	}
	assert.False(t, em.IsMonomialVar(11))
}

func TestPushPop_UnmergeSplitsUseLists(t *testing.T) {
	// Splicing two use lists rewrites one next pointer in each cycle; the
	// unmerge must put both back, or the retracted classes keep reporting
	// each other's monomials through the stale cross-links.
	em, ve := newCore()
	a, b, c := Var(1), Var(2), Var(3)
	em.Add(10, a, b)
	em.Add(11, c, c)

	before := snapshot(em)

	em.Push()
	ve.Merge(a, c)
	assert.ElementsMatch(t, []Var{10, 11}, collectUseList(em, a))
	em.Pop(1)

	assert.Equal(t, []Var{10}, collectUseList(em, a))
	assert.Equal(t, []Var{11}, collectUseList(em, c))
	if diff := cmp.Diff(before, snapshot(em)); diff != "" {
		t.Errorf("state not restored (-want +got):\n%s", diff)
	}
}

func TestPushPop_NonAdjacentDuplicateFactors(t *testing.T) {
	// Duplicate factors separated by another variable still yield exactly
	// one occurrence cell per class, and the round trip stays exact.
	em, ve := newCore()
	a, b, c := Var(1), Var(2), Var(3)
	em.Add(10, a, b, a)

	before := snapshot(em)

	em.Push()
	em.Add(11, c, b, c)
	ve.Merge(a, c)
	em.Pop(1)

	if diff := cmp.Diff(before, snapshot(em)); diff != "" {
		t.Errorf("state not restored (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Var{10}, collectUseList(em, a))
}

func TestPushPop_InnerPopKeepsOuterAdds(t *testing.T) {
	em, ve := newCore()
	a, b, c := Var(1), Var(2), Var(3)

	em.Push()
	ve.Merge(a, c)
	em.Add(10, a, b) // outer-scope monomial under a live merge

	em.Push()
	em.Add(11, c, b)
	ve.Merge(b, 5)
	em.Pop(1) // v11 and the b-merge go, v10 and the a-merge stay

	require.True(t, em.IsMonomialVar(10))
	assert.False(t, em.IsMonomialVar(11))
	assert.Equal(t, []Var{b, c}, canonVars(em, 10))
	assert.Equal(t, []Var{10}, collectUseList(em, a), "a still resolves to the merged class")

	em.Pop(1)
	assert.Zero(t, em.Len())
	assert.Empty(t, collectUseList(em, a))
}

func TestPushPop_ReaddAfterPop(t *testing.T) {
	// Slots freed by a pop are reused; re-adding the same variable with a
	// different definition must behave like a fresh registration.
	em, _ := newCore()
	em.Add(10, 1, 2)

	em.Push()
	em.Add(11, 2, 3)
	em.Pop(1)

	em.Add(11, 3, 4)
	assert.Equal(t, []Var{3, 4}, canonVars(em, 11))
	assert.Equal(t, 2, em.Len())

	_, ok := em.FindCanonical([]Var{2, 3})
	assert.False(t, ok, "the popped definition must not resurface")
	_, ok = em.FindCanonical([]Var{3, 4})
	assert.True(t, ok)
}

func TestPushPop_EmptyScopes(t *testing.T) {
	em, _ := newCore()
	em.Add(10, 1, 2)
	before := snapshot(em)

	em.Push()
	em.Push()
	em.Pop(2)

	if diff := cmp.Diff(before, snapshot(em)); diff != "" {
		t.Errorf("empty scopes must be free (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, em.NumScopes())
}

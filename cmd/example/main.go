// Package main demonstrates basic usage of the monomial congruence core.
// This example walks through registration, canonicalization, congruence
// queries, factor enumeration and scoped backtracking.
package main

import (
	"fmt"

	"github.com/gitrdm/gocongruence/pkg/monomials"
)

func main() {
	fmt.Println("=== gocongruence Examples ===")
	fmt.Println()

	basicCanonicalForms()
	congruenceDiscovery()
	factorEnumeration()
	scopedBacktracking()
}

// basicCanonicalForms demonstrates registration and canonicalization.
func basicCanonicalForms() {
	fmt.Println("1. Canonical Forms:")

	ve := monomials.NewVarEqs()
	em := monomials.NewEmonomials(ve)

	em.Add(10, 3, 1, 2) // v10 := v3 * v1 * v2
	em.Add(11, 2, 1, 2) // v11 := v2 * v1 * v2

	fmt.Printf("   %v  (factors sorted, duplicates kept)\n", em.Var2Canonical(10))
	fmt.Printf("   %v\n", em.Var2Canonical(11))
	fmt.Println()
}

// congruenceDiscovery demonstrates how merges expose equal monomials.
func congruenceDiscovery() {
	fmt.Println("2. Congruence Discovery:")

	ve := monomials.NewVarEqs()
	em := monomials.NewEmonomials(ve)

	em.Add(10, 1, 2) // v10 := v1 * v2
	em.Add(11, 2, 3) // v11 := v2 * v3

	ve.Merge(1, 3) // the outer solver derived v1 = v3

	s10 := em.Var2Canonical(10)
	s11 := em.Var2Canonical(11)
	fmt.Printf("   after v1 = v3: %v and %v\n", s10, s11)
	fmt.Printf("   representative of both: %v\n", em.Rep(s11).Var())
	fmt.Println()
}

// factorEnumeration demonstrates divisibility and factor queries.
func factorEnumeration() {
	fmt.Println("3. Factors and Divisibility:")

	ve := monomials.NewVarEqs()
	em := monomials.NewEmonomials(ve)

	em.Add(10, 1, 2)       // v1 * v2
	em.Add(11, 1, 1, 2)    // v1^2 * v2
	em.Add(12, 1, 2, 3, 3) // v1 * v2 * v3^2

	m10 := em.Var2Monomial(10)
	fmt.Printf("   %v divides %v: %v\n", m10, em.Var2Monomial(11),
		em.CanonizeDivides(m10, em.Var2Monomial(11)))
	fmt.Println("   proper multiples of v10:")
	em.IterateFactorsOf(m10, func(m *monomials.Monomial) bool {
		fmt.Printf("     %v\n", m)
		return true
	})
	fmt.Println()
}

// scopedBacktracking demonstrates push/pop around hypothetical merges.
func scopedBacktracking() {
	fmt.Println("4. Scoped Backtracking:")

	ve := monomials.NewVarEqs()
	em := monomials.NewEmonomials(ve)

	em.Add(10, 1, 2)

	em.Push()
	ve.MergeMinus(1, 3) // hypothesis: v1 = -v3
	em.Add(11, 3, 2)
	fmt.Printf("   under hypothesis: %v, %v\n", em.Var2Canonical(10), em.Var2Canonical(11))

	em.Pop(1) // retract: v11 and the merge are gone
	fmt.Printf("   after retraction: %v (monomials: %d)\n", em.Var2Canonical(10), em.Len())
	fmt.Println()
}

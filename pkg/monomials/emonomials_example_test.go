package monomials

import "fmt"

// ExampleEmonomials_Canonize shows how canonical forms follow the variable
// equalities supplied by the union-find.
func ExampleEmonomials_Canonize() {
	ve := NewVarEqs()
	em := NewEmonomials(ve)

	em.Add(10, 1, 2) // v10 := v1 * v2
	em.Add(11, 2, 3) // v11 := v2 * v3

	fmt.Println(em.Var2Canonical(10))
	fmt.Println(em.Var2Canonical(11))

	em.Push()
	ve.Merge(1, 3) // v1 = v3
	fmt.Println(em.Var2Canonical(10))

	em.Pop(1)
	fmt.Println(em.Var2Canonical(10))

	// Output:
	// v10 := v1 v2
	// v11 := v2 v3
	// v10 := v2 v3
	// v10 := v1 v2
}

// ExampleEmonomials_IterateUseList enumerates the monomials mentioning a
// class, most recently registered first.
func ExampleEmonomials_IterateUseList() {
	ve := NewVarEqs()
	em := NewEmonomials(ve)

	em.Add(10, 1, 2)
	em.Add(11, 2, 3)
	em.Add(12, 2, 2)

	em.IterateUseList(2, func(m *Monomial) bool {
		fmt.Println(m)
		return true
	})

	// Output:
	// v12 := v2 v2
	// v11 := v2 v3
	// v10 := v1 v2
}

// ExampleEmonomials_IterateFactorsOf enumerates the proper multiples of a
// monomial under the current equalities.
func ExampleEmonomials_IterateFactorsOf() {
	ve := NewVarEqs()
	em := NewEmonomials(ve)

	em.Add(10, 1, 2)    // v1 * v2
	em.Add(11, 1, 1, 2) // v1^2 * v2
	em.Add(12, 2, 3)    // v2 * v3

	em.IterateFactorsOf(em.Var2Monomial(10), func(m *Monomial) bool {
		fmt.Println(m)
		return true
	})

	// Output:
	// v11 := v1 v1 v2
}

// ExampleEmonomials_ExplainCanonized collects the equalities justifying a
// canonical form.
func ExampleEmonomials_ExplainCanonized() {
	ve := NewVarEqs()
	em := NewEmonomials(ve)

	em.Add(10, 1, 2)
	ve.MergeMinus(1, 3) // v1 = -v3

	var exp Explanation
	em.ExplainCanonized(em.Var2Monomial(10), &exp)
	fmt.Println(exp.String())
	fmt.Println(em.Var2Canonical(10))

	// Output:
	// v1 = -v3
	// v10 := - v2 v3
}

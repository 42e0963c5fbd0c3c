//go:build property
// +build property

package types_test

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDimensionEqualityIsReflexiveAndSymmetric checks the dimensional
// soundness property spec.md §8 calls out: a dimension bag always
// equals itself, and Equal never depends on operand order, across
// arbitrarily generated currency/time/count tag combinations.
func TestDimensionEqualityIsReflexiveAndSymmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("dimension equality is reflexive", prop.ForAll(
		func(currencyCode string, timeUnit string) bool {
			d := types.Dimension{"currency": currencyCode, "time": timeUnit}
			return d.Equal(d)
		},
		gen.AlphaString(),
		gen.OneConstOf("d", "w", "mo", "q", "yr", "generic"),
	))

	properties.Property("dimension equality is symmetric", prop.ForAll(
		func(codeA, codeB string) bool {
			a := types.Dimension{"currency": codeA}
			b := types.Dimension{"currency": codeB}
			return a.Equal(b) == b.Equal(a)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("generic time unifies with any specific unit, both directions", prop.ForAll(
		func(unit string) bool {
			generic := types.Dimension{"time": "generic"}
			specific := types.Dimension{"time": unit}
			return generic.Equal(specific) && specific.Equal(generic)
		},
		gen.OneConstOf("d", "w", "mo", "q", "yr"),
	))

	properties.TestingRun(t)
}

// TestCurrencyTypeEqualityMatchesCode verifies the Currency type's Equal
// tracks exactly its currency code and scope, never anything else
// (spec.md §4.3's declared-vs-inferred comparator).
func TestCurrencyTypeEqualityMatchesCode(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same code implies equal, differing code implies unequal", prop.ForAll(
		func(codeA, codeB string) bool {
			a := types.Currency(codeA)
			b := types.Currency(codeB)
			if codeA == codeB {
				return a.Equal(b)
			}
			return !a.Equal(b)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}

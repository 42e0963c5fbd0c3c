//go:build property
// +build property

package ir_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/ir"
)

// TestGenerateIsDeterministic checks spec.md §8's IR-determinism
// property: generating IR twice from the same model and timestamp
// yields the same model_hash, regardless of param value or name
// (mirroring pkg/kernel/addenda_property_test.go's gopter style).
func TestGenerateIsDeterministic(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("same model -> same model_hash", prop.ForAll(
		func(name string, value float64) bool {
			m := &ast.Model{
				Name:     "Startup",
				TimeUnit: "Month",
				Params: []*ast.ParamDecl{
					{
						Name:  name,
						Type:  ast.TypeAnnotation{Kind: ast.TypeCurrency, CurrencyCode: "USD"},
						Value: ast.CurrencyLit{Code: "USD", Value: value},
					},
				},
			}
			ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			doc1, err1 := ir.Generate(m, "x.pel", "0.1.0", ts)
			doc2, err2 := ir.Generate(m, "x.pel", "0.1.0", ts)
			if err1 != nil || err2 != nil {
				return false
			}
			return doc1.Metadata.ModelHash == doc2.Metadata.ModelHash
		},
		gen.RegexMatch(`[a-z][a-z0-9_]{0,8}`),
		gen.Float64Range(-1e6, 1e6),
	))

	props.TestingRun(t)
}

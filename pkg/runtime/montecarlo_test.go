package runtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/Coding-Krakken/pel/pkg/runtime"
)

func distModel() *ast.Model {
	one := 1
	return &ast.Model{
		Name:        "Stochastic",
		TimeUnit:    "Month",
		TimeHorizon: &one,
		Params: []*ast.ParamDecl{
			{
				Name: "churn_rate",
				Value: ast.DistributionExpr{
					Name: "Normal",
					Args: []ast.NamedArg{
						{Name: "mu", Value: ast.NumberLit{Value: 0.1}},
						{Name: "sigma", Value: ast.NumberLit{Value: 0.02}},
					},
				},
			},
		},
		Vars: []*ast.VarDecl{
			{Name: "rate_echo", Value: ast.Identifier{Name: "churn_rate"}},
		},
	}
}

func TestRunMonteCarlo_ClampsAndAggregates(t *testing.T) {
	doc, err := ir.Generate(distModel(), "test.pel", "0.1.0", time.Now())
	require.NoError(t, err)

	eng := runtime.NewEngine(doc)
	result, err := eng.RunMonteCarlo(runtime.Config{
		Mode: runtime.ModeMonteCarlo, Seed: 42, NumRuns: 10, MaxRuns: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.NumRuns)
	assert.Equal(t, 10, result.RequestedRuns)
	require.Len(t, result.Runs, 3)
	assert.Equal(t, 1.0, result.Aggregates.SuccessRate)
}

func TestRunMonteCarlo_ReproducibleGivenSameSeed(t *testing.T) {
	doc, err := ir.Generate(distModel(), "test.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	eng := runtime.NewEngine(doc)

	cfg := runtime.Config{Mode: runtime.ModeMonteCarlo, Seed: 7, NumRuns: 5}
	r1, err := eng.RunMonteCarlo(cfg)
	require.NoError(t, err)
	r2, err := eng.RunMonteCarlo(cfg)
	require.NoError(t, err)

	for i := range r1.Runs {
		v1 := r1.Runs[i].Assumptions[0].Value
		v2 := r2.Runs[i].Assumptions[0].Value
		require.NotNil(t, v1)
		require.NotNil(t, v2)
		assert.Equal(t, *v1, *v2)
	}
}

func TestRunMonteCarlo_DifferentRunsDrawDifferentValues(t *testing.T) {
	doc, err := ir.Generate(distModel(), "test.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	eng := runtime.NewEngine(doc)

	result, err := eng.RunMonteCarlo(runtime.Config{Mode: runtime.ModeMonteCarlo, Seed: 1, NumRuns: 5})
	require.NoError(t, err)

	seen := map[float64]bool{}
	for _, run := range result.Runs {
		seen[*run.Assumptions[0].Value] = true
	}
	assert.Greater(t, len(seen), 1, "expected distinct draws across runs")
}

func TestRunMonteCarlo_InvalidCorrelationCoefficientErrors(t *testing.T) {
	m := distModel()
	m.Params = append(m.Params, &ast.ParamDecl{
		Name: "other",
		Value: ast.DistributionExpr{
			Name: "Normal",
			Args: []ast.NamedArg{
				{Name: "mu", Value: ast.NumberLit{Value: 1}},
				{Name: "sigma", Value: ast.NumberLit{Value: 1}},
			},
		},
	})
	m.Params[0].Provenance = &ast.Provenance{
		Source: "a", Method: "observed", Confidence: 0.5, HasConfidence: true,
		CorrelatedWith: []ast.Correlation{{Name: "other", Coefficient: 1.5}},
	}
	doc, err := ir.Generate(m, "test.pel", "0.1.0", time.Now())
	require.NoError(t, err)

	eng := runtime.NewEngine(doc)
	_, err = eng.RunMonteCarlo(runtime.Config{Mode: runtime.ModeMonteCarlo, Seed: 1, NumRuns: 2})
	require.Error(t, err)
}

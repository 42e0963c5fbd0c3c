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

func compile(t *testing.T, m *ast.Model) *ir.Document {
	t.Helper()
	doc, err := ir.Generate(m, "test.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	return doc
}

func numExpr(v float64) ast.Expr { return ast.NumberLit{Value: v} }

// A simple growth model: customers[0] = seed, customers[t] = customers[t-1] + 10.
func growthModel() *ast.Model {
	seed := int(3)
	return &ast.Model{
		Name:        "Growth",
		TimeUnit:    "Month",
		TimeHorizon: &seed,
		Params: []*ast.ParamDecl{
			{Name: "seed_customers", Value: numExpr(100)},
		},
		Vars: []*ast.VarDecl{
			{
				Name: "customers",
				Value: ast.IfExpr{
					Cond: ast.BinaryExpr{Op: "==", Left: ast.Identifier{Name: "t"}, Right: numExpr(0)},
					Then: ast.Identifier{Name: "seed_customers"},
					Else: ast.BinaryExpr{
						Op:   "+",
						Left: ast.IndexExpr{Target: ast.Identifier{Name: "customers"}, Index: ast.BinaryExpr{Op: "-", Left: ast.Identifier{Name: "t"}, Right: numExpr(1)}},
						Right: numExpr(10),
					},
				},
			},
		},
	}
}

func TestRunDeterministic_GrowthModel(t *testing.T) {
	doc := compile(t, growthModel())
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Mode: runtime.ModeDeterministic, Seed: 1}, nil, false, nil)

	require.Equal(t, "success", result.Status)
	series, ok := result.Variables["customers"].([]float64)
	require.True(t, ok)
	assert.Equal(t, []float64{100, 110, 120}, series)
}

func TestRunDeterministic_FatalConstraintHalts(t *testing.T) {
	m := growthModel()
	msg := "never true"
	m.Constraints = []*ast.ConstraintDecl{
		{Name: "impossible", Condition: ast.BoolLit{Value: false}, Severity: ast.SeverityFatal, Message: &msg},
	}
	doc := compile(t, m)
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Seed: 1}, nil, false, nil)

	require.Equal(t, "failed", result.Status)
	require.Len(t, result.ConstraintViolations, 1)
	assert.Equal(t, "impossible", result.ConstraintViolations[0].Constraint)
}

func TestRunDeterministic_WarningConstraintContinues(t *testing.T) {
	m := growthModel()
	m.Constraints = []*ast.ConstraintDecl{
		{Name: "soft", Condition: ast.BoolLit{Value: false}, Severity: ast.SeverityWarning},
	}
	doc := compile(t, m)
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Seed: 1}, nil, false, nil)

	require.Equal(t, "success", result.Status)
	assert.Len(t, result.ConstraintViolations, 3) // one per timestep (0,1,2)
}

func TestRunDeterministic_PolicyFires(t *testing.T) {
	m := growthModel()
	m.Policies = []*ast.PolicyDecl{
		{
			Name:    "always_fires",
			Trigger: ast.BoolLit{Value: true},
			Action:  ast.ExprAction{Value: numExpr(1)},
		},
	}
	doc := compile(t, m)
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Seed: 1}, nil, false, nil)

	require.Equal(t, "success", result.Status)
	assert.Len(t, result.PolicyExecutions, 3)
}

func TestRunDeterministic_AssumptionsRecordProvenance(t *testing.T) {
	m := growthModel()
	m.Params[0].Provenance = &ast.Provenance{Source: "finance", Method: "observed", Confidence: 0.9, HasConfidence: true}
	doc := compile(t, m)
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Seed: 1}, nil, false, nil)

	require.Len(t, result.Assumptions, 1)
	assert.Equal(t, "finance", result.Assumptions[0].Source)
	assert.Equal(t, 0.9, result.Assumptions[0].Confidence)
}

func TestRunDeterministic_DivisionByZeroIsPositiveInfinity(t *testing.T) {
	m := &ast.Model{
		Name: "DivZero",
		Vars: []*ast.VarDecl{
			{Name: "x", Value: ast.BinaryExpr{Op: "/", Left: numExpr(1), Right: numExpr(0)}},
		},
	}
	one := 1
	m.TimeHorizon = &one
	doc := compile(t, m)
	eng := runtime.NewEngine(doc)
	result := eng.RunDeterministic(runtime.Config{Seed: 1}, nil, false, nil)

	series := result.Variables["x"].([]float64)
	assert.True(t, series[0] > 1e300)
}

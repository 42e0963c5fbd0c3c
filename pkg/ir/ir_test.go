package ir_test

import (
	"testing"
	"time"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *ast.Model {
	return &ast.Model{
		Name:     "Startup",
		TimeUnit: "Month",
		Params: []*ast.ParamDecl{
			{
				Name:  "cac",
				Type:  ast.TypeAnnotation{Kind: ast.TypeCurrency, CurrencyCode: "USD"},
				Value: ast.CurrencyLit{Code: "USD", Value: 500},
				Provenance: &ast.Provenance{
					Source: "finance", Method: "observed", Confidence: 0.8, HasConfidence: true,
				},
			},
		},
		Vars: []*ast.VarDecl{
			{
				Name:  "cash",
				Value: ast.BinaryExpr{Op: "+", Left: ast.Identifier{Name: "cac"}, Right: ast.NumberLit{Value: 1}},
			},
		},
	}
}

func TestGenerate_NodeNumberingAndDependencies(t *testing.T) {
	doc, err := ir.Generate(sampleModel(), "startup.pel", "0.1.0", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, doc.Model.Nodes, 2)
	assert.Equal(t, "param_1", doc.Model.Nodes[0].NodeID)
	assert.Equal(t, "var_2", doc.Model.Nodes[1].NodeID)
	assert.Equal(t, []string{"cac"}, doc.Model.Nodes[1].Dependencies)
}

func TestGenerate_ModelHashStable(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doc1, err := ir.Generate(sampleModel(), "startup.pel", "0.1.0", ts)
	require.NoError(t, err)
	doc2, err := ir.Generate(sampleModel(), "startup.pel", "0.1.0", ts)
	require.NoError(t, err)
	assert.Equal(t, doc1.Metadata.ModelHash, doc2.Metadata.ModelHash)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, doc1.Metadata.ModelHash)
}

func TestGenerate_InvalidCompilerVersion(t *testing.T) {
	_, err := ir.Generate(sampleModel(), "startup.pel", "not-a-version", time.Now())
	require.Error(t, err)
}

func TestGenerate_CompiledAtFormat(t *testing.T) {
	ts := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	doc, err := ir.Generate(sampleModel(), "startup.pel", "1.0.0", ts)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05T12:30:00Z", doc.Metadata.CompiledAt)
}

func TestValidate_ConformsToSchema(t *testing.T) {
	doc, err := ir.Generate(sampleModel(), "startup.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	assert.NoError(t, ir.Validate(doc))
}

func TestGenerate_ConstraintAndPolicyIDs(t *testing.T) {
	m := sampleModel()
	m.Constraints = []*ast.ConstraintDecl{
		{Name: "positive_cash", Condition: ast.Identifier{Name: "cash"}, Severity: ast.SeverityFatal},
	}
	m.Policies = []*ast.PolicyDecl{
		{Name: "raise_prices", Trigger: ast.BoolLit{Value: true}, Action: ast.ExprAction{Value: ast.NumberLit{Value: 1}}},
	}
	doc, err := ir.Generate(m, "startup.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	require.Len(t, doc.Model.Constraints, 1)
	assert.Equal(t, "const_positive_cash", doc.Model.Constraints[0].ID)
	require.Len(t, doc.Model.Policies, 1)
	assert.Equal(t, "policy_raise_prices", doc.Model.Policies[0].ID)
}

// growthModel reproduces spec.md §8 scenario 5's shape: a var with no
// inline value, populated entirely by free top-level assignment
// statements keyed by index shape.
func growthModel() *ast.Model {
	seed := ast.NumberLit{Value: 0}
	return &ast.Model{
		Name:     "M",
		TimeUnit: "Month",
		Params: []*ast.ParamDecl{
			{Name: "seed_customers", Value: ast.NumberLit{Value: 100}},
		},
		Vars: []*ast.VarDecl{
			{Name: "customers", Type: &ast.TypeAnnotation{Kind: ast.TypeTimeSeries, Inner: &ast.TypeAnnotation{Kind: ast.TypeFraction}}},
		},
		Statements: []ast.Stmt{
			ast.AssignStmt{
				Target: ast.IndexExpr{Target: ast.Identifier{Name: "customers"}, Index: seed},
				Value:  ast.Identifier{Name: "seed_customers"},
			},
			ast.AssignStmt{
				Target: ast.IndexExpr{Target: ast.Identifier{Name: "customers"}, Index: ast.BinaryExpr{Op: "+", Left: ast.Identifier{Name: "t"}, Right: ast.NumberLit{Value: 1}}},
				Value:  ast.BinaryExpr{Op: "*", Left: ast.IndexExpr{Target: ast.Identifier{Name: "customers"}, Index: ast.Identifier{Name: "t"}}, Right: ast.NumberLit{Value: 1.1}},
			},
		},
	}
}

func TestGenerate_FreeStatementsGroupIntoVarEquations(t *testing.T) {
	doc, err := ir.Generate(growthModel(), "growth.pel", "0.1.0", time.Now())
	require.NoError(t, err)

	var customers *ir.Node
	for i := range doc.Model.Nodes {
		if doc.Model.Nodes[i].Name == "customers" {
			customers = &doc.Model.Nodes[i]
		}
	}
	require.NotNil(t, customers)
	require.Len(t, customers.Equations, 2)
	assert.Equal(t, ir.EquationInitial, customers.Equations[0].Kind)
	assert.Equal(t, ir.EquationRecurrenceNext, customers.Equations[1].Kind)
	assert.ElementsMatch(t, []string{"seed_customers", "customers", "t"}, customers.Dependencies)
	assert.Nil(t, customers.Value, "a var with only free-statement equations has no single inline value")
}

func TestGenerate_LambdaShadowingIgnoredInDependencies(t *testing.T) {
	m := sampleModel()
	m.Vars = append(m.Vars, &ast.VarDecl{
		Name: "f",
		Value: ast.LambdaExpr{
			Params: []ast.LambdaParam{{Name: "cac"}},
			Body:   ast.BinaryExpr{Op: "*", Left: ast.Identifier{Name: "cac"}, Right: ast.Identifier{Name: "growth"}},
		},
	})
	doc, err := ir.Generate(m, "startup.pel", "0.1.0", time.Now())
	require.NoError(t, err)
	lambdaNode := doc.Model.Nodes[len(doc.Model.Nodes)-1]
	assert.ElementsMatch(t, []string{"cac", "growth"}, lambdaNode.Dependencies)
}

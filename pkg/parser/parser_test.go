package parser_test

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/lexer"
	"github.com/Coding-Krakken/pel/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *ast.Model {
	t.Helper()
	toks, err := lexer.Tokenize(src, "t.pel")
	require.NoError(t, err)
	m, err := parser.Parse(toks)
	require.NoError(t, err)
	return m
}

func TestParse_ParamWithProvenance(t *testing.T) {
	m := parseSrc(t, `model Startup {
  param cac: Currency<USD> = $500 {
    source: "finance team",
    method: "blended CAC last quarter",
    confidence: 0.8,
    correlated_with: [(churn_rate, -0.3)]
  }
}`)
	require.Len(t, m.Params, 1)
	p := m.Params[0]
	assert.Equal(t, "cac", p.Name)
	assert.Equal(t, ast.TypeCurrency, p.Type.Kind)
	require.NotNil(t, p.Provenance)
	assert.Equal(t, "finance team", p.Provenance.Source)
	assert.True(t, p.Provenance.HasConfidence)
	assert.InDelta(t, 0.8, p.Provenance.Confidence, 1e-9)
	require.Len(t, p.Provenance.CorrelatedWith, 1)
	assert.Equal(t, "churn_rate", p.Provenance.CorrelatedWith[0].Name)
	assert.InDelta(t, -0.3, p.Provenance.CorrelatedWith[0].Coefficient, 1e-9)
}

func TestParse_VarAndFunc(t *testing.T) {
	m := parseSrc(t, `model M {
  var growth_rate: Fraction = 0.1
  func revenue(x: Fraction) -> Fraction {
    return x * 2
  }
}`)
	require.Len(t, m.Vars, 1)
	assert.Equal(t, "growth_rate", m.Vars[0].Name)
	require.Len(t, m.Funcs, 1)
	assert.Equal(t, "revenue", m.Funcs[0].Name)
	assert.Equal(t, ast.TypeFraction, m.Funcs[0].ReturnType.Kind)
}

func TestParse_ConstraintAndPolicy(t *testing.T) {
	m := parseSrc(t, `model M {
  constraint positive_cash: cash >= 0 {
    severity: fatal,
    message: "cash cannot go negative",
    for: "all timesteps"
  }
  policy raise_prices {
    when: churn_rate > 0.1,
    then: {
      price = price * 1.1
    }
  }
}`)
	require.Len(t, m.Constraints, 1)
	assert.Equal(t, ast.SeverityFatal, m.Constraints[0].Severity)
	require.Len(t, m.Policies, 1)
	_, ok := m.Policies[0].Action.(ast.BlockAction)
	assert.True(t, ok)
}

func TestParse_IfExpressionVsIfStatement(t *testing.T) {
	m := parseSrc(t, `model M {
  var x: Fraction = if t > 0 then 1 else 0
}`)
	require.Len(t, m.Vars, 1)
	_, ok := m.Vars[0].Value.(ast.IfExpr)
	assert.True(t, ok)
}

func TestParse_ForLoopRange(t *testing.T) {
	m := parseSrc(t, `model M {
  for i in 0..10 {
    cash = cash + 1
  }
}`)
	require.Len(t, m.Statements, 1)
	forStmt, ok := m.Statements[0].(ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Var)
}

func TestParse_LambdaVsParenExpr(t *testing.T) {
	m := parseSrc(t, `model M {
  var f = (x: Fraction) -> x * 2
  var y = (1 + 2) * 3
}`)
	require.Len(t, m.Vars, 2)
	_, isLambda := m.Vars[0].Value.(ast.LambdaExpr)
	assert.True(t, isLambda)
	_, isBinary := m.Vars[1].Value.(ast.BinaryExpr)
	assert.True(t, isBinary)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	m := parseSrc(t, `model M {
  var x = 1 + 2 * 3
}`)
	bin, ok := m.Vars[0].Value.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	rhs, ok := bin.Right.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op)
}

func TestParse_MemberAccessVsRangeDisambiguation(t *testing.T) {
	m := parseSrc(t, `model M {
  var x = a.b
  for i in 0..5 { }
}`)
	member, ok := m.Vars[0].Value.(ast.MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "b", member.Name)
}

func TestParse_DistributionLiteral(t *testing.T) {
	m := parseSrc(t, `model M {
  param x: Fraction = ~Normal(mean: 0.1, stddev: 0.02) {
    source: "survey",
    method: "estimate",
    confidence: 0.5
  }
}`)
	dist, ok := m.Params[0].Value.(ast.DistributionExpr)
	require.True(t, ok)
	assert.Equal(t, "Normal", dist.Name)
	require.Len(t, dist.Args, 2)
}

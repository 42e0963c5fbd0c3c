package types

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc() errcode.Location { return errcode.Location{File: "t.pel", Line: 1, Column: 1} }

func num(v float64) ast.Expr   { return ast.NumberLit{Base: ast.Base{Loc: loc()}, Value: v} }
func ident(name string) ast.Expr { return ast.Identifier{Base: ast.Base{Loc: loc()}, Name: name} }
func currency(code string, v float64) ast.Expr {
	return ast.CurrencyLit{Base: ast.Base{Loc: loc()}, Code: code, Value: v}
}
func duration(unit string, v float64) ast.Expr {
	return ast.DurationLit{Base: ast.Base{Loc: loc()}, Value: v, Unit: unit}
}
func bin(op string, l, r ast.Expr) ast.Expr {
	return ast.BinaryExpr{Base: ast.Base{Loc: loc()}, Op: op, Left: l, Right: r}
}

func newCheckerWith(env map[string]Type) *Checker {
	c := NewChecker()
	for k, v := range env {
		c.env.Define(k, v)
	}
	return c
}

func TestInfer_Literals(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(num(1))
	require.NoError(t, err)
	assert.Equal(t, KindFraction, tp.Kind)

	tp, err = c.infer(currency("USD", 100))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
	assert.Equal(t, "USD", tp.CurrencyCode)

	tp, err = c.infer(duration("mo", 3))
	require.NoError(t, err)
	assert.Equal(t, KindDuration, tp.Kind)
	assert.Equal(t, "mo", tp.DurationUnit)
}

func TestInfer_UndefinedVariable(t *testing.T) {
	c := NewChecker()
	_, err := c.infer(ident("nope"))
	require.Error(t, err)
	ce, ok := err.(*CheckError)
	require.True(t, ok)
	assert.Equal(t, errcode.ETypeUndefinedVariable, ce.Diagnostic.Code)
}

func TestInfer_MulRule1_ScalarPreservesDimensioned(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin("*", num(2), currency("USD", 10)))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
	assert.Equal(t, "USD", tp.CurrencyCode)
}

func TestInfer_MulRule3_RateTimesDuration(t *testing.T) {
	c := newCheckerWith(map[string]Type{"churn": Rate("mo")})
	tp, err := c.infer(bin("*", ident("churn"), duration("mo", 1)))
	require.NoError(t, err)
	assert.Equal(t, KindFraction, tp.Kind)
}

func TestInfer_MulRule4_CountCancelsScopedCurrency(t *testing.T) {
	c := newCheckerWith(map[string]Type{
		"n":   Count("user"),
		"ltv": ScopedCurrency("USD", "user"),
	})
	tp, err := c.infer(bin("*", ident("n"), ident("ltv")))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
	assert.Equal(t, "", tp.ScopedEntity)
}

func TestInfer_MulRule5_CurrencySameCodeCancels(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin("*", currency("USD", 2), currency("USD", 3)))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
}

func TestInfer_MulRule5_CurrencyMismatchErrors(t *testing.T) {
	c := NewChecker()
	_, err := c.infer(bin("*", currency("USD", 2), currency("EUR", 3)))
	require.Error(t, err)
	ce := err.(*CheckError)
	assert.Equal(t, errcode.ECurrencyMismatch, ce.Diagnostic.Code)
}

func TestInfer_DivDimensionlessByDuration_Rate(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin("/", num(1), duration("mo", 1)))
	require.NoError(t, err)
	assert.Equal(t, KindRate, tp.Kind)
	assert.Equal(t, "mo", tp.PerTimeUnit)
}

func TestInfer_DivCurrencyByCurrency(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin("/", currency("USD", 10), currency("USD", 5)))
	require.NoError(t, err)
	assert.Equal(t, KindFraction, tp.Kind)
}

func TestInfer_DivCurrencyByCount_ScopedCurrency(t *testing.T) {
	c := newCheckerWith(map[string]Type{"n": Count("user")})
	tp, err := c.infer(bin("/", currency("USD", 100), ident("n")))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
	assert.Equal(t, "user", tp.ScopedEntity)
}

func TestInfer_DivCurrencyByRate_LTVStyle(t *testing.T) {
	c := newCheckerWith(map[string]Type{"churn": Rate("mo")})
	tp, err := c.infer(bin("/", currency("USD", 100), ident("churn")))
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
}

func TestInfer_DivDurationByDuration_Dimensionless(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin("/", duration("mo", 6), duration("mo", 1)))
	require.NoError(t, err)
	assert.Equal(t, KindFraction, tp.Kind)
}

func TestInfer_AddSub_CurrencyMismatch(t *testing.T) {
	c := NewChecker()
	_, err := c.infer(bin("+", currency("USD", 1), currency("EUR", 1)))
	require.Error(t, err)
	ce := err.(*CheckError)
	assert.Equal(t, errcode.ECurrencyMismatch, ce.Diagnostic.Code)
}

func TestInfer_AddSub_DimMismatch(t *testing.T) {
	c := NewChecker()
	_, err := c.infer(bin("+", currency("USD", 1), duration("mo", 1)))
	require.Error(t, err)
	ce := err.(*CheckError)
	assert.Equal(t, errcode.EDimMismatch, ce.Diagnostic.Code)
	assert.NotEmpty(t, ce.Diagnostic.Hint, "dimension mismatch should hint at an explicit conversion")
}

func TestInfer_Comparison_ReturnsBoolean(t *testing.T) {
	c := NewChecker()
	tp, err := c.infer(bin(">", currency("USD", 1), currency("USD", 2)))
	require.NoError(t, err)
	assert.Equal(t, KindBoolean, tp.Kind)
}

func TestInfer_LogicalRequiresBoolean(t *testing.T) {
	c := NewChecker()
	_, err := c.infer(bin("&&", num(1), num(2)))
	require.Error(t, err)
}

func TestInfer_CallSqrtPreservesDimension(t *testing.T) {
	c := NewChecker()
	call := ast.CallExpr{Base: ast.Base{Loc: loc()}, Callee: ident("sqrt"), Args: []ast.Expr{currency("USD", 4)}}
	tp, err := c.infer(call)
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, tp.Kind)
}

func TestInfer_CallDefaultsToFraction(t *testing.T) {
	c := NewChecker()
	call := ast.CallExpr{Base: ast.Base{Loc: loc()}, Callee: ident("myFunc"), Args: []ast.Expr{currency("USD", 4)}}
	tp, err := c.infer(call)
	require.NoError(t, err)
	assert.Equal(t, KindFraction, tp.Kind)
}

func TestInfer_IfExprBranchesMustAgree(t *testing.T) {
	c := NewChecker()
	ifExpr := ast.IfExpr{
		Base: ast.Base{Loc: loc()},
		Cond: ast.BoolLit{Base: ast.Base{Loc: loc()}, Value: true},
		Then: currency("USD", 1),
		Else: duration("mo", 1),
	}
	_, err := c.infer(ifExpr)
	require.Error(t, err)
}

func TestCheckModel_ParamTypeMismatchRecorded(t *testing.T) {
	m := &ast.Model{
		Params: []*ast.ParamDecl{
			{
				Base:  ast.Base{Loc: loc()},
				Name:  "cac",
				Type:  ast.TypeAnnotation{Kind: ast.TypeCurrency, CurrencyCode: "USD"},
				Value: num(5),
			},
		},
	}
	c := NewChecker()
	diags := c.CheckModel(m)
	require.True(t, diags.HasErrors())
	assert.Equal(t, errcode.ETypeMismatch, diags.Errors[0].Code)
}

package types

import (
	"fmt"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
)

// CheckError wraps a type/dimensional diagnostic as an error, mirroring
// lexer.LexicalError / parser.ParseError.
type CheckError struct {
	errcode.Diagnostic
}

func (e *CheckError) Error() string { return e.Diagnostic.Render() }
func (e *CheckError) Unwrap() error { return e.Diagnostic }

func fail(code errcode.Code, loc errcode.Location, format string, args ...interface{}) error {
	return &CheckError{errcode.New(code, fmt.Sprintf(format, args...)).At(loc).Build()}
}

// dimMismatchHint names the justifications an author might have for a
// dimensional mismatch (unit normalization, index rebasing, currency
// pegging, explicit approximation). There is no contract subsystem to
// attach such a reason to, and the language has no cast expression; the
// hint tells the author to write the conversion out explicitly.
const dimMismatchHint = "if this is an intentional unit normalization, index rebasing, currency peg, or approximation, write the conversion out as explicit arithmetic; there is no cast or implicit conversion between dimensions"

func failDimMismatch(loc errcode.Location, format string, args ...interface{}) error {
	d := errcode.New(errcode.EDimMismatch, fmt.Sprintf(format, args...)).At(loc).WithHint(dimMismatchHint).Build()
	return &CheckError{d}
}

// infer computes an expression's PEL type (spec §4.3). On a recoverable
// fault (undefined variable, dimensional mismatch), the diagnostic is
// returned as an error AND a fallback type (usually
// Fraction) is still usable by the caller, so checking can continue
// (spec §7's "fatal within an expression" recovery policy); the caller
// is responsible for deciding whether to keep going with the fallback.
func (c *Checker) infer(expr ast.Expr) (Type, error) {
	switch e := expr.(type) {
	case ast.NumberLit:
		return Fraction(), nil
	case ast.PercentageLit:
		return Fraction(), nil
	case ast.StringLit:
		return StringT(), nil
	case ast.BoolLit:
		return Boolean(), nil
	case ast.CurrencyLit:
		return Currency(e.Code), nil
	case ast.DurationLit:
		return Duration(e.Unit), nil

	case ast.Identifier:
		if t, ok := c.env.Lookup(e.Name); ok {
			return t, nil
		}
		return Fraction(), fail(errcode.ETypeUndefinedVariable, e.Loc, "undefined variable %q", e.Name)

	case ast.UnaryExpr:
		return c.inferUnary(e)

	case ast.BinaryExpr:
		return c.inferBinary(e)

	case ast.CallExpr:
		return c.inferCall(e)

	case ast.IndexExpr:
		return c.inferIndex(e)

	case ast.ArrayLit:
		return c.inferArray(e)

	case ast.LambdaExpr:
		return c.inferLambda(e)

	case ast.MemberExpr:
		// No field schema is defined for user types in the reference
		// spec; member access type-checks its target for errors and
		// otherwise falls back to Fraction.
		if _, err := c.infer(e.Target); err != nil {
			return Fraction(), err
		}
		return Fraction(), nil

	case ast.IfExpr:
		return c.inferIf(e)

	case ast.DistributionExpr:
		return c.inferDistribution(e)

	case ast.BlockExpr:
		return c.inferBlock(e)
	}
	return Fraction(), fail(errcode.EInternal, expr.Location(), "unhandled expression kind %T", expr)
}

func (c *Checker) inferUnary(e ast.UnaryExpr) (Type, error) {
	operand, err := c.infer(e.Operand)
	if err != nil {
		return operand, err
	}
	switch e.Op {
	case "-":
		return operand, nil
	case "!":
		if operand.Kind != KindBoolean {
			return Boolean(), fail(errcode.ETypeMismatch, e.Loc, "unary ! requires Boolean, got %s", operand.String())
		}
		return Boolean(), nil
	default:
		return operand, fail(errcode.EInternal, e.Loc, "unknown unary operator %q", e.Op)
	}
}

func (c *Checker) inferIndex(e ast.IndexExpr) (Type, error) {
	base, err := c.infer(e.Target)
	if err != nil {
		return base, err
	}
	if _, err := c.infer(e.Index); err != nil {
		return base, err
	}
	switch base.Kind {
	case KindTimeSeries, KindArray:
		if base.Inner != nil {
			return *base.Inner, nil
		}
		return Fraction(), nil
	default:
		// Scalar indexing returns the same scalar type (spec §4.3).
		return base, nil
	}
}

func (c *Checker) inferArray(e ast.ArrayLit) (Type, error) {
	if len(e.Elements) == 0 {
		return Array(Fraction()), nil
	}
	first, err := c.infer(e.Elements[0])
	if err != nil {
		return Array(Fraction()), err
	}
	for _, elem := range e.Elements[1:] {
		t, err := c.infer(elem)
		if err != nil {
			return Array(first), err
		}
		if !t.Equal(first) {
			return Array(first), fail(errcode.ETypeMismatch, elem.Location(),
				"array elements must share a type: %s vs %s", first.String(), t.String())
		}
	}
	return Array(first), nil
}

// inferLambda type-checks the lambda body in a child scope but carries
// no function-type machinery of its own: PEL's surface type grammar
// (spec §4.2) names no function type, so lambdas are only meaningful
// inline (e.g. as a higher-order call argument) and resolve to an
// opaque nominal type.
func (c *Checker) inferLambda(e ast.LambdaExpr) (Type, error) {
	c.env.Push()
	for _, param := range e.Params {
		pt := Fraction()
		if param.Type != nil {
			pt = resolveTypeAnnotation(*param.Type)
		}
		c.env.Define(param.Name, pt)
	}
	_, err := c.infer(e.Body)
	c.env.Pop()
	if err != nil {
		return UserDefined("Function"), err
	}
	return UserDefined("Function"), nil
}

func (c *Checker) inferIf(e ast.IfExpr) (Type, error) {
	condType, err := c.infer(e.Cond)
	if err != nil {
		return Fraction(), err
	}
	if condType.Kind != KindBoolean {
		return Fraction(), fail(errcode.ETypeMismatch, e.Cond.Location(), "if condition must be Boolean, got %s", condType.String())
	}
	thenType, err := c.infer(e.Then)
	if err != nil {
		return thenType, err
	}
	elseType, err := c.infer(e.Else)
	if err != nil {
		return thenType, err
	}
	if !thenType.Equal(elseType) {
		return thenType, fail(errcode.ETypeMismatch, e.Loc,
			"if-then-else branches must agree: %s vs %s", thenType.String(), elseType.String())
	}
	return thenType, nil
}

// inferDistribution types a distribution literal as the type of its
// first named argument's value (spec §4.3): the surface syntax treats
// distributions as values of the declared type they are assigned to,
// so the literal's own shape does not otherwise constrain its type.
func (c *Checker) inferDistribution(e ast.DistributionExpr) (Type, error) {
	if len(e.Args) == 0 {
		return Fraction(), nil
	}
	return c.infer(e.Args[0].Value)
}

func (c *Checker) inferBlock(e ast.BlockExpr) (Type, error) {
	c.env.Push()
	defer c.env.Pop()

	result := Fraction()
	for _, stmt := range e.Statements {
		c.checkStatement(stmt)
		switch st := stmt.(type) {
		case ast.ExprStmt:
			if t, err := c.infer(st.Value); err == nil {
				result = t
			}
		case ast.ReturnStmt:
			if st.Value != nil {
				if t, err := c.infer(st.Value); err == nil {
					result = t
				}
			}
		}
	}
	return result, nil
}

// inferCall implements spec §4.3's function-call rules literally: sqrt
// preserves its argument's dimension, sum returns the array/series
// element type, and every other name (including user-defined ones)
// defaults to Fraction at the call site — user-defined function bodies
// are instead validated independently in checkFunc.
func (c *Checker) inferCall(e ast.CallExpr) (Type, error) {
	name := ""
	if ident, ok := e.Callee.(ast.Identifier); ok {
		name = ident.Name
	}
	for _, arg := range e.Args {
		if _, err := c.infer(arg); err != nil {
			return Fraction(), err
		}
	}
	switch name {
	case "sqrt":
		if len(e.Args) != 1 {
			return Fraction(), fail(errcode.EParseGeneric, e.Loc, "sqrt expects exactly one argument")
		}
		return c.infer(e.Args[0])
	case "sum":
		if len(e.Args) != 1 {
			return Fraction(), fail(errcode.EParseGeneric, e.Loc, "sum expects exactly one argument")
		}
		argType, err := c.infer(e.Args[0])
		if err != nil {
			return Fraction(), err
		}
		if argType.Inner != nil {
			return *argType.Inner, nil
		}
		return Fraction(), nil
	default:
		return Fraction(), nil
	}
}

package types

import (
	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
)

// Checker validates that arithmetic respects economic units and that
// boolean contexts receive booleans (spec §4.3). Errors accumulate
// instead of aborting, the way the teacher's CompilerMetrics/
// conform.Report accumulate structured findings across a whole
// evaluation pass, so the driver can report every error from this
// stage at once (spec §4.3's failure policy, §7).
type Checker struct {
	env         *Env
	diagnostics errcode.Diagnostics
}

// NewChecker creates a Checker with a fresh root environment.
func NewChecker() *Checker {
	return &Checker{env: NewEnv()}
}

// CheckModel runs the four model-level phases from spec §4.3 and
// returns the accumulated diagnostics. Use Diagnostics.First() to get
// the error the driver should abort on.
func (c *Checker) CheckModel(m *ast.Model) *errcode.Diagnostics {
	// Phase 1: params.
	for _, p := range m.Params {
		c.checkParam(p)
	}
	// Phase 2: vars.
	for _, v := range m.Vars {
		c.checkVar(v)
	}
	// Func bodies are checked independently of their call sites (spec
	// §4.3's function-call rule): each gets its own scope seeded with
	// its declared parameters.
	for _, f := range m.Funcs {
		c.checkFunc(f)
	}
	// Phase 3: constraints.
	for _, cons := range m.Constraints {
		c.checkConstraint(cons)
	}
	// Phase 4: policies.
	for _, pol := range m.Policies {
		c.checkPolicy(pol)
	}
	// Free top-level statements.
	for _, s := range m.Statements {
		c.checkStatement(s)
	}
	return &c.diagnostics
}

func (c *Checker) errorAt(code errcode.Code, loc errcode.Location, msg string) {
	c.diagnostics.AddError(errcode.New(code, msg).At(loc).Build())
}

func (c *Checker) checkParam(p *ast.ParamDecl) {
	declared := resolveTypeAnnotation(p.Type)
	if p.Value != nil {
		if _, isDist := p.Value.(ast.DistributionExpr); isDist {
			// The declared type governs; skip value-type comparison
			// (spec §4.3 phase 1 parenthetical).
			c.env.Define(p.Name, declared)
			return
		}
		inferred, err := c.infer(p.Value)
		if err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		} else if !inferred.Equal(declared) && !(inferred.Kind == KindFraction && declared.Kind == KindCount) {
			// A plain number may initialize a Count (a dimensionless
			// count of entities).
			c.errorAt(errcode.ETypeMismatch, p.Value.Location(),
				"param \""+p.Name+"\" declared "+declared.String()+" but value is "+inferred.String())
		}
	}
	c.env.Define(p.Name, declared)
}

func (c *Checker) checkVar(v *ast.VarDecl) {
	var declared Type
	if v.Type != nil {
		declared = resolveTypeAnnotation(*v.Type)
		if v.Value != nil {
			inferred, err := c.infer(v.Value)
			if err != nil {
				c.diagnostics.AddError(err.(*CheckError).Diagnostic)
			} else if !inferred.Equal(declared) {
				c.errorAt(errcode.ETypeMismatch, v.Value.Location(),
					"var \""+v.Name+"\" declared "+declared.String()+" but value is "+inferred.String())
			}
		}
	} else if v.Value != nil {
		inferred, err := c.infer(v.Value)
		if err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
			inferred = Fraction()
		}
		declared = inferred
	} else {
		declared = Fraction()
	}
	c.env.Define(v.Name, declared)
}

func (c *Checker) checkFunc(f *ast.FuncDecl) {
	c.env.Push()
	for _, param := range f.Params {
		c.env.Define(param.Name, resolveTypeAnnotation(param.Type))
	}
	bodyType, err := c.infer(f.Body)
	if err != nil {
		c.diagnostics.AddError(err.(*CheckError).Diagnostic)
	} else {
		declaredReturn := resolveTypeAnnotation(f.ReturnType)
		if !bodyType.Equal(declaredReturn) {
			c.errorAt(errcode.ETypeMismatch, f.Body.Location(),
				"func \""+f.Name+"\" declared return "+declaredReturn.String()+" but body is "+bodyType.String())
		}
	}
	c.env.Pop()
}

func (c *Checker) checkConstraint(cons *ast.ConstraintDecl) {
	t, err := c.infer(cons.Condition)
	if err != nil {
		c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		return
	}
	if t.Kind != KindBoolean {
		c.errorAt(errcode.EConstraintInvalidCondition, cons.Condition.Location(),
			"constraint \""+cons.Name+"\" condition must be Boolean, got "+t.String())
	}
	if scopeExpr, ok := cons.Scope.(ast.ScopeExpr); ok {
		if _, err := c.infer(scopeExpr.Expr); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
	}
}

func (c *Checker) checkPolicy(pol *ast.PolicyDecl) {
	t, err := c.infer(pol.Trigger)
	if err != nil {
		c.diagnostics.AddError(err.(*CheckError).Diagnostic)
	} else if t.Kind != KindBoolean {
		c.errorAt(errcode.ETypeMismatch, pol.Trigger.Location(),
			"policy \""+pol.Name+"\" trigger must be Boolean, got "+t.String())
	}
	c.checkPolicyAction(pol.Action)
}

func (c *Checker) checkPolicyAction(action ast.PolicyAction) {
	switch a := action.(type) {
	case ast.AssignAction:
		if _, err := c.infer(a.Target); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
		if _, err := c.infer(a.Value); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
	case ast.EmitEventAction:
		for _, arg := range a.Args {
			if _, err := c.infer(arg.Value); err != nil {
				c.diagnostics.AddError(err.(*CheckError).Diagnostic)
			}
		}
	case ast.BlockAction:
		c.env.Push()
		for _, s := range a.Statements {
			c.checkStatement(s)
		}
		c.env.Pop()
	case ast.ExprAction:
		if _, err := c.infer(a.Value); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
	}
}

func (c *Checker) checkStatement(s ast.Stmt) {
	switch st := s.(type) {
	case ast.AssignStmt:
		if _, err := c.infer(st.Target); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
		if _, err := c.infer(st.Value); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
	case ast.ReturnStmt:
		if st.Value != nil {
			if _, err := c.infer(st.Value); err != nil {
				c.diagnostics.AddError(err.(*CheckError).Diagnostic)
			}
		}
	case ast.IfStmt:
		t, err := c.infer(st.Cond)
		if err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		} else if t.Kind != KindBoolean {
			c.errorAt(errcode.ETypeMismatch, st.Cond.Location(), "if condition must be Boolean, got "+t.String())
		}
		c.env.Push()
		for _, inner := range st.Then {
			c.checkStatement(inner)
		}
		c.env.Pop()
		if st.Else != nil {
			c.env.Push()
			for _, inner := range st.Else {
				c.checkStatement(inner)
			}
			c.env.Pop()
		}
	case ast.ForStmt:
		if _, err := c.infer(st.Start); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
		if _, err := c.infer(st.End); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
		c.env.Push()
		c.env.Define(st.Var, Fraction())
		for _, inner := range st.Body {
			c.checkStatement(inner)
		}
		c.env.Pop()
	case ast.ExprStmt:
		if _, err := c.infer(st.Value); err != nil {
			c.diagnostics.AddError(err.(*CheckError).Diagnostic)
		}
	}
}

func resolveTypeAnnotation(t ast.TypeAnnotation) Type {
	switch t.Kind {
	case ast.TypeCurrency:
		return Currency(t.CurrencyCode)
	case ast.TypeRate:
		return Rate(t.PerTimeUnit)
	case ast.TypeDuration:
		return Duration("generic")
	case ast.TypeCapacity:
		return Capacity(t.Entity)
	case ast.TypeCount:
		return Count(t.Entity)
	case ast.TypeFraction:
		return Fraction()
	case ast.TypeBoolean:
		return Boolean()
	case ast.TypeString:
		return StringT()
	case ast.TypeArray:
		inner := Fraction()
		if t.Inner != nil {
			inner = resolveTypeAnnotation(*t.Inner)
		}
		return Array(inner)
	case ast.TypeTimeSeries:
		inner := Fraction()
		if t.Inner != nil {
			inner = resolveTypeAnnotation(*t.Inner)
		}
		return TimeSeries(inner)
	case ast.TypeDistribution:
		inner := Fraction()
		if t.Inner != nil {
			inner = resolveTypeAnnotation(*t.Inner)
		}
		return Distribution(inner)
	default:
		return UserDefined(t.Name)
	}
}

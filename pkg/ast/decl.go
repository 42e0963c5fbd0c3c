package ast

import "github.com/Coding-Krakken/pel/pkg/errcode"

// Decl is any top-level model item: param, var, func, constraint, or
// policy (spec §3).
type Decl interface {
	declNode()
	Location() errcode.Location
}

// Correlation is one `(name, coefficient)` pair inside a provenance
// block's `correlated_with` list; coefficients may be negative
// (spec §4.2).
type Correlation struct {
	Name        string
	Coefficient float64
}

// Provenance is a param's required-plus-optional metadata block
// (spec §4.2, §4.4). Freshness, Owner, and Notes are pointers so an
// absent field is distinguishable from an empty one, which matters for
// the provenance checker's completeness score (spec §4.4).
type Provenance struct {
	Loc             errcode.Location
	Source          string
	Method          string
	Confidence      float64
	HasConfidence   bool
	Freshness       *string
	Owner           *string
	Notes           *string
	CorrelatedWith  []Correlation
	// FieldsPresent records which field names literally appeared in the
	// source provenance block, independent of whether parsing could
	// assign them a value; the provenance checker's completeness score
	// is computed over this set (spec §4.4).
	FieldsPresent map[string]bool
}

// ParamDecl is `param NAME : TYPE = EXPR PROVENANCE_BLOCK` (spec §4.2).
type ParamDecl struct {
	Base
	Name       string
	Type       TypeAnnotation
	Value      Expr
	Provenance *Provenance
}

func (ParamDecl) declNode() {}

// VarDecl is `var [mut] NAME [: TYPE] [= EXPR]` (spec §4.2). Type is nil
// when the declared type is omitted, so the checker must infer it.
type VarDecl struct {
	Base
	Name    string
	Type    *TypeAnnotation
	Value   Expr
	Mutable bool
}

func (VarDecl) declNode() {}

// FuncParam is one parameter of a func declaration.
type FuncParam struct {
	Name string
	Type TypeAnnotation
}

// FuncDecl is `func NAME (PARAMS) -> TYPE BLOCK` (spec §4.2).
type FuncDecl struct {
	Base
	Name       string
	Params     []FuncParam
	ReturnType TypeAnnotation
	Body       Expr
}

func (FuncDecl) declNode() {}

// Severity is a constraint's failure class (spec §4.2, §4.6).
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Scope is a constraint's `for:` clause. Per spec §9's Open Question
// decision, this stays polymorphic: it holds either a *ScopeLiteral (the
// bare string "all timesteps") or an Expr (e.g. `t >= 6`), and is not
// normalized into a common structure at parse time.
type Scope interface {
	scopeNode()
}

// ScopeLiteral is the literal-string scope form, e.g. "all timesteps".
type ScopeLiteral struct {
	Value string
	Loc   errcode.Location
}

func (ScopeLiteral) scopeNode() {}

// ScopeExpr wraps an Expr used as a constraint scope, e.g. `t >= 6`.
type ScopeExpr struct {
	Expr Expr
}

func (ScopeExpr) scopeNode() {}

// ConstraintDecl is `constraint NAME : EXPR { severity: ..., ... }`
// (spec §4.2).
type ConstraintDecl struct {
	Base
	Name      string
	Condition Expr
	Severity  Severity
	Message   *string
	Scope     Scope
}

func (ConstraintDecl) declNode() {}

// PolicyAction is the `then:` clause of a policy: assignment, event
// emission, a nested block, or (per spec §4.2's fallback) a bare
// expression.
type PolicyAction interface {
	policyActionNode()
}

// AssignAction is `target = expr` as a policy action.
type AssignAction struct {
	Target Expr
	Value  Expr
}

func (AssignAction) policyActionNode() {}

// EmitEventAction is `emit event(NAME [, k: v]*)` as a policy action.
type EmitEventAction struct {
	Name string
	Args []NamedArg
}

func (EmitEventAction) policyActionNode() {}

// BlockAction is `{ statements }` as a policy action, executed
// sequentially (spec §4.6).
type BlockAction struct {
	Statements []Stmt
}

func (BlockAction) policyActionNode() {}

// ExprAction is the fallback bare-expression action form.
type ExprAction struct {
	Value Expr
}

func (ExprAction) policyActionNode() {}

// PolicyDecl is `policy NAME { when: EXPR, then: ACTION }` (spec §4.2).
type PolicyDecl struct {
	Base
	Name    string
	Trigger Expr
	Action  PolicyAction
}

func (PolicyDecl) declNode() {}

// Model is the top-level parse result: `model NAME { item* }` (spec §3).
type Model struct {
	Name        string
	TimeHorizon *int
	TimeUnit    string
	Params      []*ParamDecl
	Vars        []*VarDecl
	Funcs       []*FuncDecl
	Constraints []*ConstraintDecl
	Policies    []*PolicyDecl
	Statements  []Stmt
	Loc         errcode.Location
}

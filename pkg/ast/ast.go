// Package ast defines PEL's abstract syntax tree: a closed tagged sum of
// expression, statement, and declaration variants (spec §3), encoded the
// idiomatic Go way as small interfaces implemented by concrete struct
// types rather than a class hierarchy with isinstance dispatch (spec §9's
// "Dynamic expression variants" note). Visitors — dependency extraction,
// IR lowering, type inference — are ordinary functions with a type switch
// over the relevant interface, not methods on the node types themselves,
// mirroring the teacher's ObligationAST clause types
// (compliance/compiler.ObligationAST and its SubjectClause/ActionClause/
// ConditionClause family), generalized from a flat legal-clause shape to a
// recursive expression tree.
package ast

import "github.com/Coding-Krakken/pel/pkg/errcode"

// Expr is any PEL expression node.
type Expr interface {
	exprNode()
	Location() errcode.Location
}

// Stmt is any PEL statement node.
type Stmt interface {
	stmtNode()
	Location() errcode.Location
}

// Base embeds a source location into every node, mirroring the teacher's
// convention of attaching a Location to every compiled artifact (e.g.
// rir.Node's SourceLink).
type Base struct {
	Loc errcode.Location
}

func (b Base) Location() errcode.Location { return b.Loc }

// --- Expressions ---

// NumberLit is a plain numeric literal.
type NumberLit struct {
	Base
	Value float64
	Raw   string
}

func (NumberLit) exprNode() {}

// PercentageLit is a numeric literal with a trailing '%'; Value is
// already divided by 100 (spec §4.1).
type PercentageLit struct {
	Base
	Value float64
	Raw   string
}

func (PercentageLit) exprNode() {}

// StringLit is a quoted string literal with escapes already resolved.
type StringLit struct {
	Base
	Value string
}

func (StringLit) exprNode() {}

// BoolLit is the `true` / `false` keyword literal.
type BoolLit struct {
	Base
	Value bool
}

func (BoolLit) exprNode() {}

// CurrencyLit is a `$`/`€`/`£`/`¥`-prefixed numeric literal. Code is
// inferred from the symbol at lex/parse time (spec §4.3); Value is the
// numeric amount with any k/m/M/B/T suffix already applied.
type CurrencyLit struct {
	Base
	Code  string
	Value float64
	Raw   string
}

func (CurrencyLit) exprNode() {}

// DurationLit is an integer followed by a duration unit suffix. Unit is
// one of "d", "w", "mo", "q", "yr", or "generic" when the suffix was
// ambiguous.
type DurationLit struct {
	Base
	Value float64
	Unit  string
	Raw   string
}

func (DurationLit) exprNode() {}

// Identifier is a variable / parameter / function reference.
type Identifier struct {
	Base
	Name string
}

func (Identifier) exprNode() {}

// BinaryExpr is `left OP right`.
type BinaryExpr struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprNode() {}

// UnaryExpr is `OP operand`, OP ∈ {"-", "!"}.
type UnaryExpr struct {
	Base
	Op      string
	Operand Expr
}

func (UnaryExpr) exprNode() {}

// CallExpr is a function call `callee(args...)`.
type CallExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

func (CallExpr) exprNode() {}

// IndexExpr is `target[index]`.
type IndexExpr struct {
	Base
	Target Expr
	Index  Expr
}

func (IndexExpr) exprNode() {}

// ArrayLit is `[ elem, elem, ... ]`.
type ArrayLit struct {
	Base
	Elements []Expr
}

func (ArrayLit) exprNode() {}

// LambdaParam is one parameter of a lambda expression; Type may be nil
// when the surface syntax omits it.
type LambdaParam struct {
	Name string
	Type *TypeAnnotation
}

// LambdaExpr is `(params) -> body`.
type LambdaExpr struct {
	Base
	Params []LambdaParam
	Body   Expr
}

func (LambdaExpr) exprNode() {}

// MemberExpr is `expr.name`.
type MemberExpr struct {
	Base
	Target Expr
	Name   string
}

func (MemberExpr) exprNode() {}

// IfExpr is the expression form of if-then-else; both branches are
// expressions (the statement form is IfStmt).
type IfExpr struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

func (IfExpr) exprNode() {}

// NamedArg is a `name: value` pair, used by distribution literals and
// emit_event actions.
type NamedArg struct {
	Name  string
	Value Expr
}

// DistributionExpr is `~Name(named_args)`.
type DistributionExpr struct {
	Base
	Name string
	Args []NamedArg
}

func (DistributionExpr) exprNode() {}

// BlockExpr is `{ statements }` used in expression position (e.g. a
// func body); the block's value is the evaluation of its statements
// per the runtime's block-evaluation rule.
type BlockExpr struct {
	Base
	Statements []Stmt
}

func (BlockExpr) exprNode() {}

// --- Statements ---

// AssignStmt is `target = expr`.
type AssignStmt struct {
	Base
	Target Expr
	Value  Expr
}

func (AssignStmt) stmtNode() {}

// ReturnStmt is `return [expr]`; Value is nil for a bare return.
type ReturnStmt struct {
	Base
	Value Expr
}

func (ReturnStmt) stmtNode() {}

// IfStmt is the statement form, selected by lookahead for `{` after the
// condition (spec §4.2); Else may be nil.
type IfStmt struct {
	Base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (IfStmt) stmtNode() {}

// ForStmt is `for v in start..end { body }`.
type ForStmt struct {
	Base
	Var   string
	Start Expr
	End   Expr
	Body  []Stmt
}

func (ForStmt) stmtNode() {}

// ExprStmt wraps a bare expression used in statement position.
type ExprStmt struct {
	Base
	Value Expr
}

func (ExprStmt) stmtNode() {}

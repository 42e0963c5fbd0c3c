package ir

import (
	"sort"

	"github.com/Coding-Krakken/pel/pkg/ast"
)

// lowerExpr transcribes an expression as a tagged record with
// "expr_type" set to the AST variant name, all children recursively
// lowered (spec.md §4.5).
func lowerExpr(e ast.Expr) map[string]interface{} {
	switch expr := e.(type) {
	case ast.NumberLit:
		return map[string]interface{}{"expr_type": "NumberLit", "value": expr.Value}
	case ast.PercentageLit:
		return map[string]interface{}{"expr_type": "PercentageLit", "value": expr.Value}
	case ast.StringLit:
		return map[string]interface{}{"expr_type": "StringLit", "value": expr.Value}
	case ast.BoolLit:
		return map[string]interface{}{"expr_type": "BoolLit", "value": expr.Value}
	case ast.CurrencyLit:
		return map[string]interface{}{"expr_type": "CurrencyLit", "code": expr.Code, "value": expr.Value}
	case ast.DurationLit:
		return map[string]interface{}{"expr_type": "DurationLit", "value": expr.Value, "unit": expr.Unit}
	case ast.Identifier:
		return map[string]interface{}{"expr_type": "Identifier", "name": expr.Name}
	case ast.BinaryExpr:
		return map[string]interface{}{
			"expr_type": "BinaryExpr", "op": expr.Op,
			"left": lowerExpr(expr.Left), "right": lowerExpr(expr.Right),
		}
	case ast.UnaryExpr:
		return map[string]interface{}{"expr_type": "UnaryExpr", "op": expr.Op, "operand": lowerExpr(expr.Operand)}
	case ast.CallExpr:
		args := make([]map[string]interface{}, 0, len(expr.Args))
		for _, a := range expr.Args {
			args = append(args, lowerExpr(a))
		}
		return map[string]interface{}{"expr_type": "CallExpr", "callee": lowerExpr(expr.Callee), "args": args}
	case ast.IndexExpr:
		return map[string]interface{}{
			"expr_type": "IndexExpr", "target": lowerExpr(expr.Target), "index": lowerExpr(expr.Index),
		}
	case ast.ArrayLit:
		elems := make([]map[string]interface{}, 0, len(expr.Elements))
		for _, el := range expr.Elements {
			elems = append(elems, lowerExpr(el))
		}
		return map[string]interface{}{"expr_type": "ArrayLit", "elements": elems}
	case ast.LambdaExpr:
		params := make([]map[string]interface{}, 0, len(expr.Params))
		for _, p := range expr.Params {
			pm := map[string]interface{}{"name": p.Name}
			if p.Type != nil {
				pm["type"] = lowerTypeAnnotation(*p.Type)
			}
			params = append(params, pm)
		}
		return map[string]interface{}{"expr_type": "LambdaExpr", "params": params, "body": lowerExpr(expr.Body)}
	case ast.MemberExpr:
		return map[string]interface{}{"expr_type": "MemberExpr", "target": lowerExpr(expr.Target), "name": expr.Name}
	case ast.IfExpr:
		return map[string]interface{}{
			"expr_type": "IfExpr", "cond": lowerExpr(expr.Cond),
			"then": lowerExpr(expr.Then), "else": lowerExpr(expr.Else),
		}
	case ast.DistributionExpr:
		args := make([]map[string]interface{}, 0, len(expr.Args))
		for _, a := range expr.Args {
			args = append(args, map[string]interface{}{"name": a.Name, "value": lowerExpr(a.Value)})
		}
		return map[string]interface{}{"expr_type": "DistributionExpr", "name": expr.Name, "args": args}
	case ast.BlockExpr:
		stmts := make([]map[string]interface{}, 0, len(expr.Statements))
		for _, s := range expr.Statements {
			stmts = append(stmts, lowerStmt(s))
		}
		return map[string]interface{}{"expr_type": "BlockExpr", "statements": stmts}
	default:
		return map[string]interface{}{"expr_type": "Unknown"}
	}
}

func lowerStmt(s ast.Stmt) map[string]interface{} {
	switch st := s.(type) {
	case ast.AssignStmt:
		return map[string]interface{}{
			"stmt_type": "AssignStmt", "target": lowerExpr(st.Target), "value": lowerExpr(st.Value),
		}
	case ast.ReturnStmt:
		out := map[string]interface{}{"stmt_type": "ReturnStmt"}
		if st.Value != nil {
			out["value"] = lowerExpr(st.Value)
		}
		return out
	case ast.IfStmt:
		then := make([]map[string]interface{}, 0, len(st.Then))
		for _, inner := range st.Then {
			then = append(then, lowerStmt(inner))
		}
		out := map[string]interface{}{"stmt_type": "IfStmt", "cond": lowerExpr(st.Cond), "then": then}
		if st.Else != nil {
			els := make([]map[string]interface{}, 0, len(st.Else))
			for _, inner := range st.Else {
				els = append(els, lowerStmt(inner))
			}
			out["else"] = els
		}
		return out
	case ast.ForStmt:
		body := make([]map[string]interface{}, 0, len(st.Body))
		for _, inner := range st.Body {
			body = append(body, lowerStmt(inner))
		}
		return map[string]interface{}{
			"stmt_type": "ForStmt", "var": st.Var,
			"start": lowerExpr(st.Start), "end": lowerExpr(st.End), "body": body,
		}
	case ast.ExprStmt:
		return map[string]interface{}{"stmt_type": "ExprStmt", "value": lowerExpr(st.Value)}
	default:
		return map[string]interface{}{"stmt_type": "Unknown"}
	}
}

// attachFreeEquations lowers a model's free top-level assignment
// statements (e.g. `customers[0] = seed_customers`,
// `customers[t+1] = customers[t] * 1.1`) and groups them onto the var
// node they target, classified by index shape per spec.md §4.6.
// Statements that don't target a declared var by `name[index]`, or
// whose index shape isn't one of the three recognized forms, are left
// alone; they carry no runtime equation semantics this classification
// understands.
func attachFreeEquations(nodes []Node, varIndex map[string]int, statements []ast.Stmt) {
	for _, s := range statements {
		assign, ok := s.(ast.AssignStmt)
		if !ok {
			continue
		}
		idx, ok := assign.Target.(ast.IndexExpr)
		if !ok {
			continue
		}
		target, ok := idx.Target.(ast.Identifier)
		if !ok {
			continue
		}
		nodeIdx, ok := varIndex[target.Name]
		if !ok {
			continue
		}
		kind, ok := classifyIndex(idx.Index)
		if !ok {
			continue
		}

		n := &nodes[nodeIdx]
		n.Equations = append(n.Equations, Equation{Kind: kind, Expr: lowerExpr(assign.Value)})

		deps := map[string]bool{}
		for _, d := range n.Dependencies {
			deps[d] = true
		}
		for _, d := range collectDependencies(assign.Value) {
			deps[d] = true
		}
		names := make([]string, 0, len(deps))
		for d := range deps {
			names = append(names, d)
		}
		sort.Strings(names)
		n.Dependencies = names
	}
}

// classifyIndex determines a time-series assignment's equation kind
// from the shape of its index expression (spec.md §4.6): a literal
// numeric index (`name[0]`) is the variable's initial value, a bare
// reference to the loop variable `t` (`name[t]`) is evaluated fresh
// every timestep, and `t + 1` (`name[t+1]`) binds the next timestep's
// value from the current one.
func classifyIndex(index ast.Expr) (string, bool) {
	switch idx := index.(type) {
	case ast.NumberLit:
		return EquationInitial, true
	case ast.Identifier:
		if idx.Name == "t" {
			return EquationRecurrenceCurrent, true
		}
	case ast.BinaryExpr:
		if idx.Op != "+" {
			return "", false
		}
		left, leftIsT := idx.Left.(ast.Identifier)
		right, rightIsOne := idx.Right.(ast.NumberLit)
		if leftIsT && left.Name == "t" && rightIsOne && right.Value == 1 {
			return EquationRecurrenceNext, true
		}
	}
	return "", false
}

// collectDependencies recursively walks an expression depth-first and
// collects the set of referenced variable names, sorted for
// deterministic output (spec.md §4.5). Lambda parameter shadowing is
// ignored by design: every Identifier encountered is collected,
// including ones a lambda parameter would locally shadow.
func collectDependencies(e ast.Expr) []string {
	seen := map[string]bool{}
	walkExpr(e, seen)
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func walkExpr(e ast.Expr, seen map[string]bool) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case ast.Identifier:
		seen[expr.Name] = true
	case ast.BinaryExpr:
		walkExpr(expr.Left, seen)
		walkExpr(expr.Right, seen)
	case ast.UnaryExpr:
		walkExpr(expr.Operand, seen)
	case ast.CallExpr:
		walkExpr(expr.Callee, seen)
		for _, a := range expr.Args {
			walkExpr(a, seen)
		}
	case ast.IndexExpr:
		walkExpr(expr.Target, seen)
		walkExpr(expr.Index, seen)
	case ast.ArrayLit:
		for _, el := range expr.Elements {
			walkExpr(el, seen)
		}
	case ast.LambdaExpr:
		walkExpr(expr.Body, seen)
	case ast.MemberExpr:
		walkExpr(expr.Target, seen)
	case ast.IfExpr:
		walkExpr(expr.Cond, seen)
		walkExpr(expr.Then, seen)
		walkExpr(expr.Else, seen)
	case ast.DistributionExpr:
		for _, a := range expr.Args {
			walkExpr(a.Value, seen)
		}
	case ast.BlockExpr:
		for _, s := range expr.Statements {
			walkStmt(s, seen)
		}
	}
}

func walkStmt(s ast.Stmt, seen map[string]bool) {
	switch st := s.(type) {
	case ast.AssignStmt:
		walkExpr(st.Target, seen)
		walkExpr(st.Value, seen)
	case ast.ReturnStmt:
		walkExpr(st.Value, seen)
	case ast.IfStmt:
		walkExpr(st.Cond, seen)
		for _, inner := range st.Then {
			walkStmt(inner, seen)
		}
		for _, inner := range st.Else {
			walkStmt(inner, seen)
		}
	case ast.ForStmt:
		walkExpr(st.Start, seen)
		walkExpr(st.End, seen)
		for _, inner := range st.Body {
			walkStmt(inner, seen)
		}
	case ast.ExprStmt:
		walkExpr(st.Value, seen)
	}
}

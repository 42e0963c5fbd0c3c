package parser

import (
	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/lexer"
)

// parseBlockStatements parses `{ stmt* }` and returns the statement list.
func (p *Parser) parseBlockStatements() ([]ast.Stmt, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.isPunct("}") {
		if p.atEOF() {
			return nil, p.unexpected("unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseBlockExpr parses `{ stmt* }` in expression position (spec §3's
// block expression variant; also used as a func body).
func (p *Parser) parseBlockExpr() (ast.Expr, error) {
	loc := p.cur().Loc
	stmts, err := p.parseBlockStatements()
	if err != nil {
		return nil, err
	}
	return ast.BlockExpr{Base: ast.Base{Loc: loc}, Statements: stmts}, nil
}

// parseStatement parses one statement inside a block or at model top
// level (spec §4.2).
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.isKeyword("return"):
		kw := p.advance()
		if p.isPunct("}") {
			return ast.ReturnStmt{Base: ast.Base{Loc: kw.Loc}}, nil
		}
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return ast.ReturnStmt{Base: ast.Base{Loc: kw.Loc}, Value: val}, nil

	case p.isKeyword("for"):
		return p.parseForStmt()

	case p.isKeyword("if"):
		return p.parseIfStmt()

	default:
		loc := p.cur().Loc
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if p.isPunct("=") {
			p.advance()
			val, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			return ast.AssignStmt{Base: ast.Base{Loc: loc}, Target: expr, Value: val}, nil
		}
		return ast.ExprStmt{Base: ast.Base{Loc: loc}, Value: expr}, nil
	}
}

func (p *Parser) parseForStmt() (ast.Stmt, error) {
	kw, err := p.expectKeyword("for")
	if err != nil {
		return nil, err
	}
	varTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	start, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("."); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("."); err != nil {
		return nil, err
	}
	end, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockStatements()
	if err != nil {
		return nil, err
	}
	return ast.ForStmt{Base: ast.Base{Loc: kw.Loc}, Var: varTok.Lexeme, Start: start, End: end, Body: body}, nil
}

// parseIfStmt handles the statement form of if, selected by lookahead
// for `{` immediately after the condition (spec §4.2, §9's
// disambiguation note). If no `{` follows, this call site is only
// reached when a statement was expected, so an expression-form `if`
// appearing bare as a statement is still valid PEL (an if-expression
// used for its side effects is not meaningful, but the grammar permits
// an expression statement built from any expression, including IfExpr).
func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	kw, err := p.expectKeyword("if")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("{") {
		// Not the statement form after all: this is an if-expression
		// used as a bare expression statement, e.g. `if c then a else b`.
		then, err := p.finishIfExpr(kw, cond)
		if err != nil {
			return nil, err
		}
		return p.finishExprOrAssignStmt(kw, then)
	}
	thenBlock, err := p.parseBlockStatements()
	if err != nil {
		return nil, err
	}
	var elseBlock []ast.Stmt
	if p.isKeyword("else") {
		p.advance()
		elseBlock, err = p.parseBlockStatements()
		if err != nil {
			return nil, err
		}
	}
	return ast.IfStmt{Base: ast.Base{Loc: kw.Loc}, Cond: cond, Then: thenBlock, Else: elseBlock}, nil
}

func (p *Parser) finishExprOrAssignStmt(kw lexer.Token, expr ast.Expr) (ast.Stmt, error) {
	if p.isPunct("=") {
		p.advance()
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return ast.AssignStmt{Base: ast.Base{Loc: kw.Loc}, Target: expr, Value: val}, nil
	}
	return ast.ExprStmt{Base: ast.Base{Loc: kw.Loc}, Value: expr}, nil
}

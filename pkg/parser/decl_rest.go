package parser

import (
	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/lexer"
)

func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	kw, err := p.expectKeyword("var")
	if err != nil {
		return nil, err
	}
	mutable := false
	if p.isKeyword("mut") {
		p.advance()
		mutable = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{Base: ast.Base{Loc: kw.Loc}, Name: name.Lexeme, Mutable: mutable}

	if p.isPunct(":") {
		p.advance()
		typ, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		decl.Type = &typ
	}
	if p.isPunct("=") {
		p.advance()
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		decl.Value = val
	}
	return decl, nil
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	kw, err := p.expectKeyword("func")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []ast.FuncParam
	for !p.isPunct(")") {
		pname, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ptyp, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.FuncParam{Name: pname.Lexeme, Type: ptyp})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectOperator("->"); err != nil {
		return nil, err
	}
	retType, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Base: ast.Base{Loc: kw.Loc}, Name: name.Lexeme, Params: params, ReturnType: retType, Body: body}, nil
}

func (p *Parser) parseConstraintDecl() (*ast.ConstraintDecl, error) {
	kw, err := p.expectKeyword("constraint")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	decl := &ast.ConstraintDecl{Base: ast.Base{Loc: kw.Loc}, Name: name.Lexeme, Condition: cond}

	for !p.isPunct("}") {
		if p.atEOF() {
			return nil, p.unexpected("unterminated constraint block")
		}
		var field lexer.Token
		if p.isKeyword("for") {
			field = p.advance()
		} else if field, err = p.expectIdentifier(); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		switch field.Lexeme {
		case "severity":
			sev, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			decl.Severity = ast.Severity(sev.Lexeme)
		case "message":
			s, err := p.expectString()
			if err != nil {
				return nil, err
			}
			decl.Message = &s
		case "for":
			scope, err := p.parseScope()
			if err != nil {
				return nil, err
			}
			decl.Scope = scope
		default:
			// Extra named fields are tolerated and discarded; the
			// data model carries no slot for them (spec §4.2).
			if _, err := p.parseExpression(0); err != nil {
				return nil, err
			}
		}
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseScope handles the `for:` clause's polymorphism: the literal
// string "all timesteps" (written as bare words or a quoted string), or
// a fallback expression (spec §4.2, §9 Open Question).
func (p *Parser) parseScope() (ast.Scope, error) {
	if p.cur().Kind == lexer.KindString {
		tok := p.advance()
		return ast.ScopeLiteral{Value: tok.Literal, Loc: tok.Loc}, nil
	}
	if p.cur().Kind == lexer.KindIdentifier && p.cur().Lexeme == "all" &&
		p.at(1).Kind == lexer.KindIdentifier && p.at(1).Lexeme == "timesteps" {
		loc := p.cur().Loc
		p.advance()
		p.advance()
		return ast.ScopeLiteral{Value: "all timesteps", Loc: loc}, nil
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return ast.ScopeExpr{Expr: expr}, nil
}

func (p *Parser) parsePolicyDecl() (*ast.PolicyDecl, error) {
	kw, err := p.expectKeyword("policy")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("when"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	trigger, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(","); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	action, err := p.parsePolicyAction()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.PolicyDecl{Base: ast.Base{Loc: kw.Loc}, Name: name.Lexeme, Trigger: trigger, Action: action}, nil
}

func (p *Parser) parsePolicyAction() (ast.PolicyAction, error) {
	switch {
	case p.isPunct("{"):
		stmts, err := p.parseBlockStatements()
		if err != nil {
			return nil, err
		}
		return ast.BlockAction{Statements: stmts}, nil
	case p.isKeyword("emit"):
		p.advance()
		if _, err := p.expectKeyword("event"); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		nameTok, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		var args []ast.NamedArg
		for p.isPunct(",") {
			p.advance()
			argName, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(":"); err != nil {
				return nil, err
			}
			val, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.NamedArg{Name: argName.Lexeme, Value: val})
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.EmitEventAction{Name: nameTok.Lexeme, Args: args}, nil
	default:
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
			return ast.AssignAction{Target: expr, Value: val}, nil
		}
		return ast.ExprAction{Value: expr}, nil
	}
}

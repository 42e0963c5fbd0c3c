package parser

import (
	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/lexer"
)

// binaryPrecedence is the operator-precedence table from spec §4.2,
// descending priority: ^, then * / %, then + -, then comparisons, then
// equality, then &&, then ||. Per spec §9's Open Question decision, ^
// is kept left-associative (the reference's tested behavior) rather
// than the right-associativity its own comment claims but never
// implements.
var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
	"^": 7,
}

// parseExpression implements precedence climbing. minBP is the minimum
// binding power an operator must have to be consumed at this recursion
// level.
func (p *Parser) parseExpression(minBP int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Kind != lexer.KindOperator {
			break
		}
		bp, ok := binaryPrecedence[tok.Lexeme]
		if !ok || bp < minBP {
			break
		}
		p.advance()
		// Left-associative: the recursive call requires strictly
		// higher binding power than this operator's own, so a
		// same-precedence operator to the right does not nest under
		// the one just consumed.
		right, err := p.parseExpression(bp + 1)
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Base: ast.Base{Loc: tok.Loc}, Op: tok.Lexeme, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isOperator("-") || p.isOperator("!") {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryExpr{Base: ast.Base{Loc: tok.Loc}, Op: tok.Lexeme, Operand: operand}, nil
	}
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(primary)
}

// parsePostfix builds call/index/member-access chains. Member access is
// distinguished from the `..` range operator by requiring an identifier
// immediately after the dot (spec §4.2); when it is not, the dot is left
// unconsumed for the caller (e.g. a for-statement or array range) to
// handle.
func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		switch {
		case p.isPunct("("):
			loc := p.cur().Loc
			p.advance()
			var args []ast.Expr
			for !p.isPunct(")") {
				arg, err := p.parseExpression(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.isPunct(",") {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			expr = ast.CallExpr{Base: ast.Base{Loc: loc}, Callee: expr, Args: args}

		case p.isPunct("["):
			loc := p.cur().Loc
			p.advance()
			idx, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = ast.IndexExpr{Base: ast.Base{Loc: loc}, Target: expr, Index: idx}

		case p.isPunct(".") && p.at(1).Kind == lexer.KindIdentifier:
			loc := p.cur().Loc
			p.advance()
			name := p.advance()
			expr = ast.MemberExpr{Base: ast.Base{Loc: loc}, Target: expr, Name: name.Lexeme}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.KindNumber:
		p.advance()
		v, err := parseNumberLiteral(tok)
		if err != nil {
			return nil, err
		}
		return ast.NumberLit{Base: ast.Base{Loc: tok.Loc}, Value: v, Raw: tok.Lexeme}, nil

	case lexer.KindPercentage:
		p.advance()
		v, err := parseNumberLiteral(tok)
		if err != nil {
			return nil, err
		}
		return ast.PercentageLit{Base: ast.Base{Loc: tok.Loc}, Value: v, Raw: tok.Lexeme}, nil

	case lexer.KindString:
		p.advance()
		return ast.StringLit{Base: ast.Base{Loc: tok.Loc}, Value: tok.Literal}, nil

	case lexer.KindCurrency:
		p.advance()
		code, v, err := parseCurrencyLiteral(tok)
		if err != nil {
			return nil, err
		}
		return ast.CurrencyLit{Base: ast.Base{Loc: tok.Loc}, Code: code, Value: v, Raw: tok.Lexeme}, nil

	case lexer.KindDuration:
		p.advance()
		v, unit, err := parseDurationLiteral(tok)
		if err != nil {
			return nil, err
		}
		return ast.DurationLit{Base: ast.Base{Loc: tok.Loc}, Value: v, Unit: unit, Raw: tok.Lexeme}, nil

	case lexer.KindIdentifier:
		p.advance()
		return ast.Identifier{Base: ast.Base{Loc: tok.Loc}, Name: tok.Lexeme}, nil

	case lexer.KindKeyword:
		switch tok.Lexeme {
		case "true":
			p.advance()
			return ast.BoolLit{Base: ast.Base{Loc: tok.Loc}, Value: true}, nil
		case "false":
			p.advance()
			return ast.BoolLit{Base: ast.Base{Loc: tok.Loc}, Value: false}, nil
		case "if":
			p.advance()
			cond, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			return p.finishIfExpr(tok, cond)
		}
		return nil, p.unexpected("unexpected keyword in expression")

	case lexer.KindOperator:
		if tok.Lexeme == "~" {
			return p.parseDistribution()
		}
		return nil, p.unexpected("unexpected operator in expression")

	case lexer.KindPunct:
		switch tok.Lexeme {
		case "(":
			return p.parseParenOrLambda()
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseBlockExpr()
		}
	}
	return nil, p.unexpected("unexpected token in expression")
}

// finishIfExpr completes `if COND then THEN else ELSE` after "if" and
// COND have already been consumed.
func (p *Parser) finishIfExpr(ifTok lexer.Token, cond ast.Expr) (ast.Expr, error) {
	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	return ast.IfExpr{Base: ast.Base{Loc: ifTok.Loc}, Cond: cond, Then: thenExpr, Else: elseExpr}, nil
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	loc := p.cur().Loc
	p.advance() // '['
	var elems []ast.Expr
	for !p.isPunct("]") {
		e, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return ast.ArrayLit{Base: ast.Base{Loc: loc}, Elements: elems}, nil
}

func (p *Parser) parseDistribution() (ast.Expr, error) {
	tildeTok, err := p.expectOperator("~")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.NamedArg
	for !p.isPunct(")") {
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
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.DistributionExpr{Base: ast.Base{Loc: tildeTok.Loc}, Name: nameTok.Lexeme, Args: args}, nil
}

// parseParenOrLambda implements spec §4.2's backtracking rule: try a
// lambda parameter list first; any parse failure backtracks to a plain
// parenthesized expression.
func (p *Parser) parseParenOrLambda() (ast.Expr, error) {
	mark := p.mark()
	if lambda, ok := p.tryParseLambda(); ok {
		return lambda, nil
	}
	p.reset(mark)

	loc := p.cur().Loc
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	_ = loc
	return inner, nil
}

// tryParseLambda attempts `(params) -> body`, returning ok=false on any
// failure without reporting an error (the caller backtracks instead).
func (p *Parser) tryParseLambda() (ast.Expr, bool) {
	openTok := p.cur()
	if !p.isPunct("(") {
		return nil, false
	}
	p.advance()

	var params []ast.LambdaParam
	for !p.isPunct(")") {
		if p.cur().Kind != lexer.KindIdentifier {
			return nil, false
		}
		pname := p.advance()
		var ptyp *ast.TypeAnnotation
		if p.isPunct(":") {
			p.advance()
			t, err := p.parseTypeAnnotation()
			if err != nil {
				return nil, false
			}
			ptyp = &t
		}
		params = append(params, ast.LambdaParam{Name: pname.Lexeme, Type: ptyp})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.isPunct(")") {
		return nil, false
	}
	p.advance()
	if !p.isOperator("->") {
		return nil, false
	}
	p.advance()
	body, err := p.parseExpression(0)
	if err != nil {
		return nil, false
	}
	return ast.LambdaExpr{Base: ast.Base{Loc: openTok.Loc}, Params: params, Body: body}, true
}

// Package parser implements PEL's recursive-descent parser with
// precedence climbing (spec §4.2). There is no literal recursive-descent
// parser in the retrieval pack to copy line-for-line — the pack's
// "parsers" are CSV/XML/regex extractors — so the construction follows
// the teacher's general discipline of building validated, staged trees
// (prg.Compiler.Compile assembling a Graph from a RequirementSet while
// sorting and validating keys) rather than any one file's algorithm, and
// its backtracking style follows the same "try, fall back" shape the
// teacher uses for optional constructs.
package parser

import (
	"fmt"

	"github.com/Coding-Krakken/pel/pkg/ast"
	"github.com/Coding-Krakken/pel/pkg/errcode"
	"github.com/Coding-Krakken/pel/pkg/lexer"
)

// ParseError wraps a parser diagnostic as an error.
type ParseError struct {
	errcode.Diagnostic
}

func (e *ParseError) Error() string { return e.Diagnostic.Render() }
func (e *ParseError) Unwrap() error { return e.Diagnostic }

// Parser consumes a token sequence and builds a Model AST.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse tokenizes nothing itself; it consumes an already-lexed token
// sequence and returns the parsed Model.
func Parse(tokens []lexer.Token) (*ast.Model, error) {
	p := &Parser{tokens: tokens}
	return p.parseModel()
}

// --- token cursor helpers ---

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) at(offset int) lexer.Token {
	idx := p.pos + offset
	if idx < 0 || idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.KindEOF }

func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == lexer.KindKeyword && t.Lexeme == kw
}

func (p *Parser) isPunct(s string) bool {
	t := p.cur()
	return t.Kind == lexer.KindPunct && t.Lexeme == s
}

func (p *Parser) isOperator(s string) bool {
	t := p.cur()
	return t.Kind == lexer.KindOperator && t.Lexeme == s
}

func (p *Parser) unexpected(hint string) error {
	t := p.cur()
	return &ParseError{errcode.New(errcode.EParseUnexpectedToken,
		fmt.Sprintf("unexpected token %s %q", t.Kind, t.Lexeme)).
		At(t.Loc).WithHint(hint).Build()}
}

func (p *Parser) expectKeyword(kw string) (lexer.Token, error) {
	if !p.isKeyword(kw) {
		return lexer.Token{}, p.unexpected(fmt.Sprintf("expected keyword %q", kw))
	}
	return p.advance(), nil
}

func (p *Parser) expectPunct(s string) (lexer.Token, error) {
	if !p.isPunct(s) {
		return lexer.Token{}, p.unexpected(fmt.Sprintf("expected %q", s))
	}
	return p.advance(), nil
}

func (p *Parser) expectOperator(s string) (lexer.Token, error) {
	if !p.isOperator(s) {
		return lexer.Token{}, p.unexpected(fmt.Sprintf("expected %q", s))
	}
	return p.advance(), nil
}

func (p *Parser) expectIdentifier() (lexer.Token, error) {
	if p.cur().Kind != lexer.KindIdentifier {
		return lexer.Token{}, p.unexpected("expected identifier")
	}
	return p.advance(), nil
}

// mark/reset implement the lambda-vs-paren backtracking spec §4.2 calls
// for: "any parse failure backtracks to plain parenthesized expression".
func (p *Parser) mark() int     { return p.pos }
func (p *Parser) reset(m int)   { p.pos = m }

// --- top level ---

func (p *Parser) parseModel() (*ast.Model, error) {
	if _, err := p.expectKeyword("model"); err != nil {
		return nil, err
	}
	nameTok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	m := &ast.Model{Name: nameTok.Lexeme, TimeUnit: "Month", Loc: nameTok.Loc}

	for !p.isPunct("}") {
		if p.atEOF() {
			return nil, p.unexpected("unterminated model body")
		}
		switch {
		case p.isKeyword("param"):
			decl, err := p.parseParamDecl()
			if err != nil {
				return nil, err
			}
			m.Params = append(m.Params, decl)
		case p.isKeyword("var"):
			decl, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			m.Vars = append(m.Vars, decl)
		case p.isKeyword("func"):
			decl, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			m.Funcs = append(m.Funcs, decl)
		case p.isKeyword("constraint"):
			decl, err := p.parseConstraintDecl()
			if err != nil {
				return nil, err
			}
			m.Constraints = append(m.Constraints, decl)
		case p.isKeyword("policy"):
			decl, err := p.parsePolicyDecl()
			if err != nil {
				return nil, err
			}
			m.Policies = append(m.Policies, decl)
		default:
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			m.Statements = append(m.Statements, stmt)
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return m, nil
}

// --- declarations ---

func (p *Parser) parseTypeAnnotation() (ast.TypeAnnotation, error) {
	tok := p.cur()
	loc := tok.Loc

	if tok.Kind == lexer.KindTypeKeyword {
		p.advance()
		switch tok.Lexeme {
		case "Currency":
			code, err := p.parseAngledName()
			if err != nil {
				return ast.TypeAnnotation{}, err
			}
			return ast.TypeAnnotation{Kind: ast.TypeCurrency, CurrencyCode: code, Loc: loc}, nil
		case "Rate":
			unit := ""
			if p.isKeyword("per") {
				p.advance()
			}
			if p.cur().Kind == lexer.KindIdentifier {
				unit = p.advance().Lexeme
			}
			return ast.TypeAnnotation{Kind: ast.TypeRate, PerTimeUnit: unit, Loc: loc}, nil
		case "Duration":
			return ast.TypeAnnotation{Kind: ast.TypeDuration, Loc: loc}, nil
		case "Capacity":
			entity, err := p.parseAngledName()
			if err != nil {
				return ast.TypeAnnotation{}, err
			}
			return ast.TypeAnnotation{Kind: ast.TypeCapacity, Entity: entity, Loc: loc}, nil
		case "Count":
			entity, err := p.parseAngledName()
			if err != nil {
				return ast.TypeAnnotation{}, err
			}
			return ast.TypeAnnotation{Kind: ast.TypeCount, Entity: entity, Loc: loc}, nil
		case "Fraction":
			return ast.TypeAnnotation{Kind: ast.TypeFraction, Loc: loc}, nil
		case "TimeSeries":
			inner, err := p.parseAngledType()
			if err != nil {
				return ast.TypeAnnotation{}, err
			}
			return ast.TypeAnnotation{Kind: ast.TypeTimeSeries, Inner: inner, Loc: loc}, nil
		case "Distribution":
			inner, err := p.parseAngledType()
			if err != nil {
				return ast.TypeAnnotation{}, err
			}
			return ast.TypeAnnotation{Kind: ast.TypeDistribution, Inner: inner, Loc: loc}, nil
		}
	}

	if tok.Kind == lexer.KindIdentifier {
		p.advance()
		switch tok.Lexeme {
		case "Boolean":
			return ast.TypeAnnotation{Kind: ast.TypeBoolean, Loc: loc}, nil
		case "String":
			return ast.TypeAnnotation{Kind: ast.TypeString, Loc: loc}, nil
		default:
			return ast.TypeAnnotation{Kind: ast.TypeUserDefined, Name: tok.Lexeme, Loc: loc}, nil
		}
	}

	return ast.TypeAnnotation{}, p.unexpected("expected type annotation")
}

func (p *Parser) parseAngledName() (string, error) {
	if _, err := p.expectOperator("<"); err != nil {
		return "", err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return "", err
	}
	if _, err := p.expectOperator(">"); err != nil {
		return "", err
	}
	return name.Lexeme, nil
}

func (p *Parser) parseAngledType() (*ast.TypeAnnotation, error) {
	if _, err := p.expectOperator("<"); err != nil {
		return nil, err
	}
	inner, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOperator(">"); err != nil {
		return nil, err
	}
	return &inner, nil
}

func (p *Parser) parseParamDecl() (*ast.ParamDecl, error) {
	kw, err := p.expectKeyword("param")
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
	typ, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	prov, err := p.parseProvenanceBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ParamDecl{Base: ast.Base{Loc: kw.Loc}, Name: name.Lexeme, Type: typ, Value: value, Provenance: prov}, nil
}

func (p *Parser) parseProvenanceBlock() (*ast.Provenance, error) {
	openTok, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	prov := &ast.Provenance{Loc: openTok.Loc, FieldsPresent: map[string]bool{}}

	for !p.isPunct("}") {
		if p.atEOF() {
			return nil, p.unexpected("unterminated provenance block")
		}
		fieldTok, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		field := fieldTok.Lexeme
		prov.FieldsPresent[field] = true

		switch field {
		case "source":
			v, err := p.expectString()
			if err != nil {
				return nil, err
			}
			prov.Source = v
		case "method":
			v, err := p.expectString()
			if err != nil {
				return nil, err
			}
			prov.Method = v
		case "confidence":
			v, err := p.expectNumber()
			if err != nil {
				return nil, err
			}
			prov.Confidence = v
			prov.HasConfidence = true
		case "freshness":
			v, err := p.expectString()
			if err != nil {
				return nil, err
			}
			prov.Freshness = &v
		case "owner":
			v, err := p.expectString()
			if err != nil {
				return nil, err
			}
			prov.Owner = &v
		case "notes":
			v, err := p.expectString()
			if err != nil {
				return nil, err
			}
			prov.Notes = &v
		case "correlated_with":
			corrs, err := p.parseCorrelationList()
			if err != nil {
				return nil, err
			}
			prov.CorrelatedWith = corrs
		default:
			// Forward-compatible: an unrecognized field is parsed as an
			// arbitrary expression and discarded, mirroring the
			// teacher's tolerant schema validators.
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
	return prov, nil
}

func (p *Parser) expectString() (string, error) {
	if p.cur().Kind != lexer.KindString {
		return "", p.unexpected("expected string literal")
	}
	return p.advance().Literal, nil
}

func (p *Parser) expectNumber() (float64, error) {
	tok := p.cur()
	if tok.Kind != lexer.KindNumber && tok.Kind != lexer.KindPercentage {
		return 0, p.unexpected("expected number literal")
	}
	p.advance()
	return parseNumberLiteral(tok)
}

// parseCorrelationList parses `[(name, coefficient), ...]`.
func (p *Parser) parseCorrelationList() ([]ast.Correlation, error) {
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var out []ast.Correlation
	for !p.isPunct("]") {
		if p.atEOF() {
			return nil, p.unexpected("unterminated correlated_with list")
		}
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(","); err != nil {
			return nil, err
		}
		coefTok := p.cur()
		sign := 1.0
		if p.isOperator("-") {
			p.advance()
			sign = -1.0
		}
		coef, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		_ = coefTok
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		out = append(out, ast.Correlation{Name: name.Lexeme, Coefficient: sign * coef})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return out, nil
}

package lexer

import "github.com/Coding-Krakken/pel/pkg/errcode"

// Kind tags a Token's lexical category (spec §3).
type Kind string

const (
	KindNumber     Kind = "NUMBER"
	KindPercentage Kind = "PERCENTAGE"
	KindDuration   Kind = "DURATION"
	KindCurrency   Kind = "CURRENCY"
	KindString     Kind = "STRING"
	KindIdentifier Kind = "IDENTIFIER"
	KindKeyword    Kind = "KEYWORD"
	KindTypeKeyword Kind = "TYPE_KEYWORD"
	KindOperator   Kind = "OPERATOR"
	KindPunct      Kind = "PUNCT"
	KindEOF        Kind = "EOF"
)

// Keywords recognized by spec §3.
var Keywords = map[string]bool{
	"model": true, "param": true, "var": true, "mut": true, "func": true,
	"constraint": true, "policy": true, "if": true, "then": true, "else": true,
	"for": true, "when": true, "per": true, "emit": true, "event": true,
	"return": true, "simulate": true, "true": true, "false": true, "in": true,
}

// TypeKeywords recognized by spec §3.
var TypeKeywords = map[string]bool{
	"Currency": true, "Rate": true, "Duration": true, "Capacity": true,
	"Count": true, "Fraction": true, "TimeSeries": true, "Distribution": true,
}

// Token is a tagged lexeme with source location, per spec §3.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal string // for most kinds, same as Lexeme; held separately to allow normalization
	Loc     errcode.Location
}

func (t Token) String() string {
	return string(t.Kind) + "(" + t.Lexeme + ")"
}

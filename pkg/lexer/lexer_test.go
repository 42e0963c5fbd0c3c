package lexer_test

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	out := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_NumberSuffixes(t *testing.T) {
	toks, err := lexer.Tokenize("10k 5M 2B 1T 0.5m", "t.pel")
	require.NoError(t, err)
	for _, tok := range toks[:5] {
		assert.Equal(t, lexer.KindNumber, tok.Kind)
	}
}

func TestTokenize_Percentage(t *testing.T) {
	toks, err := lexer.Tokenize("12.5%", "t.pel")
	require.NoError(t, err)
	require.Len(t, toks, 2) // percentage + EOF
	assert.Equal(t, lexer.KindPercentage, toks[0].Kind)
}

func TestTokenize_DurationVsNumericSuffix(t *testing.T) {
	toks, err := lexer.Tokenize("3mo 5m", "t.pel")
	require.NoError(t, err)
	assert.Equal(t, lexer.KindDuration, toks[0].Kind)
	assert.Equal(t, lexer.KindNumber, toks[1].Kind)
}

func TestTokenize_Currency(t *testing.T) {
	toks, err := lexer.Tokenize("$100k €50", "t.pel")
	require.NoError(t, err)
	assert.Equal(t, lexer.KindCurrency, toks[0].Kind)
	assert.Equal(t, lexer.KindCurrency, toks[1].Kind)
}

func TestTokenize_RangeDotsVsDecimal(t *testing.T) {
	toks, err := lexer.Tokenize("0..x", "t.pel")
	require.NoError(t, err)
	require.True(t, len(toks) >= 4)
	assert.Equal(t, lexer.KindNumber, toks[0].Kind)
	assert.Equal(t, lexer.KindPunct, toks[1].Kind)
	assert.Equal(t, ".", toks[1].Lexeme)
	assert.Equal(t, lexer.KindPunct, toks[2].Kind)
	assert.Equal(t, ".", toks[2].Lexeme)
	assert.Equal(t, lexer.KindIdentifier, toks[3].Kind)
}

func TestTokenize_String(t *testing.T) {
	toks, err := lexer.Tokenize(`"hello\nworld"`, "t.pel")
	require.NoError(t, err)
	assert.Equal(t, lexer.KindString, toks[0].Kind)
	assert.Equal(t, "hello\nworld", toks[0].Literal)
}

func TestTokenize_UnterminatedStringIsError(t *testing.T) {
	_, err := lexer.Tokenize(`"unterminated`, "t.pel")
	require.Error(t, err)
}

func TestTokenize_CyrillicHomographSuffix(t *testing.T) {
	// а Cyrillic К (U+041A) standing in for Latin K in a numeric suffix.
	toks, err := lexer.Tokenize("10К", "t.pel")
	require.NoError(t, err)
	assert.Equal(t, lexer.KindNumber, toks[0].Kind)
}

func TestTokenize_UnexpectedCharIsError(t *testing.T) {
	_, err := lexer.Tokenize("@@@", "t.pel")
	require.Error(t, err)
}

func TestTokenize_KeywordsAndIdentifiers(t *testing.T) {
	toks, err := lexer.Tokenize("param x model", "t.pel")
	require.NoError(t, err)
	assert.Equal(t, lexer.KindKeyword, toks[0].Kind)
	assert.Equal(t, lexer.KindIdentifier, toks[1].Kind)
	assert.Equal(t, lexer.KindKeyword, toks[2].Kind)
}

func TestTokenize_OperatorsLongestMatchFirst(t *testing.T) {
	toks, err := lexer.Tokenize("<= -> == &&", "t.pel")
	require.NoError(t, err)
	want := []string{"<=", "->", "==", "&&"}
	for i, tok := range toks[:4] {
		assert.Equal(t, want[i], tok.Lexeme)
	}
}

package parser

import (
	"strconv"
	"strings"

	"github.com/Coding-Krakken/pel/pkg/lexer"
)

// numericSuffixMultiplier mirrors the lexer's numeric suffix alphabet
// (spec §4.1): k = thousand, m = milli (SI-style, distinct from the
// duration unit "mo"), M = million, B = billion, T = trillion.
var numericSuffixMultiplier = map[byte]float64{
	'k': 1e3,
	'm': 1e-3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// parseNumberLiteral converts a NUMBER or PERCENTAGE token into its
// numeric value, applying any multiplier suffix and the percentage
// divide-by-100 rule (spec §4.1).
func parseNumberLiteral(tok lexer.Token) (float64, error) {
	digits := strings.ReplaceAll(tok.Literal, "_", "")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, err
	}
	if tok.Kind == lexer.KindPercentage {
		return value / 100, nil
	}
	if len(tok.Lexeme) > len(tok.Literal) {
		suffix := tok.Lexeme[len(tok.Literal)]
		if mult, ok := numericSuffixMultiplier[suffix]; ok {
			value *= mult
		}
	}
	return value, nil
}

// parseDurationLiteral splits a DURATION token into its numeric value
// and unit suffix (one of d, w, mo, q, yr).
func parseDurationLiteral(tok lexer.Token) (float64, string, error) {
	digits := strings.ReplaceAll(tok.Literal, "_", "")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, "", err
	}
	unit := tok.Lexeme[len(tok.Literal):]
	if unit == "" {
		unit = "generic"
	}
	return value, unit, nil
}

// parseCurrencyLiteral splits a CURRENCY token into its currency code
// and numeric amount, applying the same digit/suffix rules as a plain
// number (spec §4.1, §4.3).
func parseCurrencyLiteral(tok lexer.Token) (string, float64, error) {
	runes := []rune(tok.Lexeme)
	symbol := runes[0]
	code := lexer.CurrencySymbolCode[symbol]
	rest := string(runes[1:])

	digits := rest
	var suffix byte
	if n := len(rest); n > 0 {
		last := rest[n-1]
		if _, ok := numericSuffixMultiplier[last]; ok {
			digits = rest[:n-1]
			suffix = last
		}
	}
	digits = strings.ReplaceAll(digits, "_", "")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return "", 0, err
	}
	if mult, ok := numericSuffixMultiplier[suffix]; ok {
		value *= mult
	}
	return code, value, nil
}

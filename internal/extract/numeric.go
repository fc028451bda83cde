package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// digitConfusions maps letters the OCR engine systematically misreads onto
// the digits they resemble. Applied to candidate numeric tokens only, never
// to prose.
var digitConfusions = map[rune]rune{
	'O': '0', 'o': '0', 'Q': '0',
	'I': '1', 'l': '1', '|': '1',
	'Z': '2', 'z': '2',
	'S': '5', 's': '5',
	'G': '6',
	'B': '8',
}

// moneyPattern accepts thousands-separated amounts with exactly two decimal
// digits, e.g. "1,234.56" or "500.00".
var moneyPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2}`)

// plainNumberPattern matches bare numeric tokens (quantities and the like).
var plainNumberPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// normalizeDigits rewrites confusable letters to digits across the whole
// string. Use only on strings expected to be numeric.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := digitConfusions[r]; ok {
			return d
		}
		return r
	}, s)
}

// repairCode fixes garbled alphanumeric codes (part numbers such as
// "TIRE R22.5"): confusable letters flanked by digits become digits, and a
// comma wedged between digits becomes a decimal point. Letters elsewhere are
// left alone so real words survive.
func repairCode(s string) string {
	runes := []rune(s)
	out := make([]rune, len(runes))
	copy(out, runes)

	isDigit := func(i int) bool {
		return i >= 0 && i < len(runes) && runes[i] >= '0' && runes[i] <= '9'
	}

	for i, r := range runes {
		nextToDigit := isDigit(i-1) || isDigit(i+1)
		if !nextToDigit {
			continue
		}
		if d, ok := digitConfusions[r]; ok {
			out[i] = d
		} else if r == ',' && isDigit(i-1) && isDigit(i+1) {
			out[i] = '.'
		}
	}
	return string(out)
}

// parseMoney converts one money-shaped token into a decimal amount.
func parseMoney(token string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(token, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// findMoney scans a fragment's text for the first money-shaped amount,
// tolerating OCR digit confusion.
func findMoney(text string) (decimal.Decimal, bool) {
	match := moneyPattern.FindString(normalizeDigits(text))
	if match == "" {
		return decimal.Zero, false
	}
	return parseMoney(match)
}

// findAllMoney returns every money-shaped amount in the text, left to right.
func findAllMoney(text string) []decimal.Decimal {
	matches := moneyPattern.FindAllString(normalizeDigits(text), -1)
	amounts := make([]decimal.Decimal, 0, len(matches))
	for _, m := range matches {
		if d, ok := parseMoney(m); ok {
			amounts = append(amounts, d)
		}
	}
	return amounts
}

// isMoneyToken reports whether the whole token is a single money amount.
func isMoneyToken(text string) bool {
	normalized := normalizeDigits(strings.TrimSpace(text))
	return moneyPattern.FindString(normalized) == normalized
}

// isPlainNumber reports whether the token is a bare number (a quantity
// candidate). Money-shaped tokens are excluded so prices are never taken
// for quantities.
func isPlainNumber(text string) bool {
	normalized := normalizeDigits(strings.TrimSpace(text))
	return plainNumberPattern.MatchString(normalized) && !isMoneyToken(normalized)
}

// round2 rounds a money value to exactly 2 decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

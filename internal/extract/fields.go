package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// strategy is one recognition attempt over the fragment set. Strategies are
// composed into ordered chains, tried in decreasing specificity; a strategy
// reports not-found rather than failing.
type strategy func(fragments []Fragment) (string, bool)

func firstMatch(fragments []Fragment, chain ...strategy) (string, bool) {
	for _, attempt := range chain {
		if value, ok := attempt(fragments); ok {
			return value, true
		}
	}
	return "", false
}

// --- Supplier ---

// Receipts put the supplier name in the masthead, so only the top of the
// page is considered. Candidates are scored by length plus bonuses for
// company-suffix keywords and for sitting in the very top band.
var companySuffixes = []string{
	"corporation", "incorporated", "enterprises", "enterprise",
	"trading", "merchandise", "marketing", "industries", "hardware",
	"corp", "inc", "ltd", "co.",
}

const (
	supplierBand        = 0.30
	supplierTopBand     = 0.15
	supplierSuffixBonus = 25
	supplierTopBonus    = 10
)

// ExtractSupplier picks the highest-scoring masthead fragment as the
// supplier name.
func ExtractSupplier(fragments []Fragment) (string, bool) {
	top, bottom, ok := pageExtent(fragments)
	if !ok {
		return "", false
	}
	height := bottom - top

	var best string
	bestScore := 0
	for _, f := range pageBand(fragments, 0, supplierBand) {
		text := strings.TrimSpace(f.Text)
		if len(text) < 4 || !containsLetter(text) {
			continue
		}

		score := len(text)
		lower := strings.ToLower(text)
		for _, suffix := range companySuffixes {
			if strings.Contains(lower, suffix) {
				score += supplierSuffixBonus
				break
			}
		}
		if height == 0 || (f.CenterY-top)/height <= supplierTopBand {
			score += supplierTopBonus
		}

		if score > bestScore {
			best = text
			bestScore = score
		}
	}

	return best, best != ""
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// --- Transaction date ---

var (
	dateLabelPattern = regexp.MustCompile(`(?i)\bdated?\b\s*:?\s*(.*)`)
	dateTokenPattern = regexp.MustCompile(`(?i)[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{2,4}|\d{1,4}[/-]\d{1,2}[/-]\d{2,4}`)
)

// dateFormats is the ordered list of accepted layouts; the first successful
// parse wins. Month-name forms come first because they are unambiguous.
var dateFormats = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
}

// isoDateTime is the normalized output form for transaction dates.
const isoDateTime = "2006-01-02T15:04:05"

// ExtractDate finds the transaction date: first a label-anchored "Date:"
// match (value in the same fragment or one of the two following ones), then
// any standalone date-shaped fragment.
func ExtractDate(fragments []Fragment) (string, bool) {
	return firstMatch(fragments, dateByLabel, dateStandalone)
}

func dateByLabel(fragments []Fragment) (string, bool) {
	for i, f := range fragments {
		m := dateLabelPattern.FindStringSubmatch(f.Text)
		if m == nil {
			continue
		}
		if date, ok := parseDateText(m[1]); ok {
			return date, true
		}
		// Label and value often land in separate fragments.
		for j := i + 1; j < len(fragments) && j <= i+2; j++ {
			if date, ok := parseDateText(fragments[j].Text); ok {
				return date, true
			}
		}
	}
	return "", false
}

func dateStandalone(fragments []Fragment) (string, bool) {
	for _, f := range fragments {
		if date, ok := parseDateText(f.Text); ok {
			return date, true
		}
	}
	return "", false
}

// parseDateText extracts a date-shaped token from the text and parses it
// against the accepted formats, returning the normalized ISO form.
func parseDateText(text string) (string, bool) {
	token := dateTokenPattern.FindString(text)
	if token == "" {
		return "", false
	}
	token = strings.TrimSpace(token)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, token); err == nil {
			return t.Format(isoDateTime), true
		}
	}
	return "", false
}

// --- Payment terms ---

var (
	termsLabelPattern = regexp.MustCompile(`(?i)\bterms?\b\s*:?\s*(.*)`)
	netDaysPattern    = regexp.MustCompile(`(?i)\bnet\s*(\d{1,3})\s*days?\b`)
	cashTermsPattern  = regexp.MustCompile(`(?i)\b(cash|c\.?o\.?d\.?)\b`)
)

const termsBandFrom = 0.60 // bottom 40% of the page

// ExtractTerms recognizes payment terms: label-anchored first, then a
// standalone "Net N Days" anywhere, then the terms vocabulary restricted to
// the bottom of the page where payment blocks usually sit.
func ExtractTerms(fragments []Fragment) (string, bool) {
	return firstMatch(fragments, termsByLabel, termsNetDays, termsBottomBand)
}

func termsByLabel(fragments []Fragment) (string, bool) {
	for i, f := range fragments {
		m := termsLabelPattern.FindStringSubmatch(f.Text)
		if m == nil {
			continue
		}
		if terms, ok := parseTermsText(m[1]); ok {
			return terms, true
		}
		for j := i + 1; j < len(fragments) && j <= i+2; j++ {
			if terms, ok := parseTermsText(fragments[j].Text); ok {
				return terms, true
			}
		}
	}
	return "", false
}

func termsNetDays(fragments []Fragment) (string, bool) {
	for _, f := range fragments {
		if m := netDaysPattern.FindStringSubmatch(repairCode(f.Text)); m != nil {
			return fmt.Sprintf("Net %s Days", m[1]), true
		}
	}
	return "", false
}

func termsBottomBand(fragments []Fragment) (string, bool) {
	for _, f := range pageBand(fragments, termsBandFrom, 1) {
		if terms, ok := parseTermsText(f.Text); ok {
			return terms, true
		}
	}
	return "", false
}

// parseTermsText matches the terms vocabulary. Digit repair is positional
// (repairCode) so the trailing s of "Days" is not misread as a 5.
func parseTermsText(text string) (string, bool) {
	if m := netDaysPattern.FindStringSubmatch(repairCode(text)); m != nil {
		return fmt.Sprintf("Net %s Days", m[1]), true
	}
	if m := cashTermsPattern.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "cash") {
			return "Cash", true
		}
		return "COD", true
	}
	return "", false
}

// --- Tax registration id ---

var (
	tinFullPattern     = regexp.MustCompile(`\d{3}-\d{3}-\d{3}-\d{3,5}`)
	tinShortPattern    = regexp.MustCompile(`\d{3}-\d{3}-\d{3}`)
	tinKeywordPattern  = regexp.MustCompile(`(?i)\b(?:tin|vat|reg)\b`)
	tinDigitGroupsFind = regexp.MustCompile(`\d{2,5}(?:-\d{2,5}){2,4}`)
)

// ExtractTaxID recognizes the supplier's dash-delimited tax registration id.
// Digit confusion is normalized before matching, so a letter O misread in
// place of a zero still yields a valid id. The chain prefers the full
// four-group form, then the three-group form, then any digit-group run
// embedded in a fragment carrying a TIN/VAT/REG keyword.
func ExtractTaxID(fragments []Fragment) (string, bool) {
	return firstMatch(fragments, taxIDFull, taxIDShort, taxIDByKeyword)
}

func taxIDFull(fragments []Fragment) (string, bool) {
	for _, f := range fragments {
		if id := tinFullPattern.FindString(normalizeDigits(f.Text)); id != "" {
			return id, true
		}
	}
	return "", false
}

func taxIDShort(fragments []Fragment) (string, bool) {
	for _, f := range fragments {
		if id := tinShortPattern.FindString(normalizeDigits(f.Text)); id != "" {
			return id, true
		}
	}
	return "", false
}

func taxIDByKeyword(fragments []Fragment) (string, bool) {
	for _, f := range fragments {
		if !tinKeywordPattern.MatchString(f.Text) {
			continue
		}
		if id := tinDigitGroupsFind.FindString(normalizeDigits(f.Text)); id != "" {
			return id, true
		}
	}
	return "", false
}

// --- Money fields ---

// moneyFieldSpec describes one label-anchored money search: where on the
// page to look, which labels anchor it, and the plausible magnitude band
// that guards against adopting an unrelated mis-parsed number.
type moneyFieldSpec struct {
	label    *regexp.Regexp
	exclude  *regexp.Regexp
	bandFrom float64
	bandTo   float64
	min      decimal.Decimal
	max      decimal.Decimal
}

// lookahead is how many fragments past a label are searched for its value;
// label and amount frequently land in separate fragments on the same line.
const moneyLookahead = 3

var (
	subtotalSpec = moneyFieldSpec{
		label:    regexp.MustCompile(`(?i)\bsub[\s-]?total\b|\btotal\s+amount\b`),
		exclude:  regexp.MustCompile(`(?i)\bdue\b`),
		bandFrom: 0, bandTo: 1,
		min: decimal.NewFromInt(1),
		max: decimal.NewFromInt(10_000_000),
	}
	vatSpec = moneyFieldSpec{
		label:    regexp.MustCompile(`(?i)\bvat\b|\btax\b`),
		exclude:  regexp.MustCompile(`(?i)\b(?:tin|reg)\b`),
		bandFrom: 0, bandTo: 1,
		min: decimal.NewFromInt(1),
		max: decimal.NewFromInt(1_000_000),
	}
	amountDueSpec = moneyFieldSpec{
		label:    regexp.MustCompile(`(?i)\btotal\s+amount\s+due\b|\bamount\s+due\b|\btotal\s+due\b|\bbalance\s+due\b`),
		bandFrom: 0.60, bandTo: 1,
		min: decimal.NewFromInt(100),
		max: decimal.NewFromInt(10_000_000),
	}
)

// ExtractSubtotal finds the pre-tax total amount.
func ExtractSubtotal(fragments []Fragment) (decimal.Decimal, bool) {
	return extractMoneyField(fragments, subtotalSpec)
}

// ExtractVAT finds the tax amount.
func ExtractVAT(fragments []Fragment) (decimal.Decimal, bool) {
	return extractMoneyField(fragments, vatSpec)
}

// ExtractAmountDue finds the final payable total; restricted to the bottom
// of the page where grand totals are printed.
func ExtractAmountDue(fragments []Fragment) (decimal.Decimal, bool) {
	return extractMoneyField(fragments, amountDueSpec)
}

func extractMoneyField(fragments []Fragment, spec moneyFieldSpec) (decimal.Decimal, bool) {
	region := pageBand(fragments, spec.bandFrom, spec.bandTo)
	for i, f := range region {
		if !spec.label.MatchString(f.Text) {
			continue
		}
		if spec.exclude != nil && spec.exclude.MatchString(f.Text) {
			continue
		}
		if amount, ok := findMoney(f.Text); ok && spec.plausible(amount) {
			return round2(amount), true
		}
		for j := i + 1; j < len(region) && j <= i+moneyLookahead; j++ {
			if amount, ok := findMoney(region[j].Text); ok && spec.plausible(amount) {
				return round2(amount), true
			}
		}
	}
	return decimal.Zero, false
}

func (s moneyFieldSpec) plausible(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(s.min) && amount.LessThanOrEqual(s.max)
}

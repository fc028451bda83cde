package extract

import (
	"strings"

	"github.com/agext/levenshtein"
)

const (
	// similarityThreshold is the minimum Levenshtein ratio for a fragment
	// to count as supporting a field value.
	similarityThreshold = 0.70

	// confidenceFloor keeps the overall score from dropping to values this
	// heuristic process cannot meaningfully distinguish.
	confidenceFloor = 0.67

	// Fallback confidences when no supporting fragment is found: numeric
	// values verified by an exact digit contains-check rate higher than
	// values supported by nothing at all.
	numericFallbackConfidence = 0.80
	defaultFallbackConfidence = 0.60
)

// ScoreField derives a confidence for a field value from the fragments that
// support it: any fragment whose text contains the value, is contained in
// it, or is textually similar above the threshold. The score is the mean
// OCR confidence of those fragments; with no match, a type-based heuristic
// applies.
func ScoreField(value string, fragments []Fragment) float64 {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return defaultFallbackConfidence
	}

	var sum float64
	var count int
	for _, f := range fragments {
		hay := strings.ToLower(strings.TrimSpace(f.Text))
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) ||
			levenshtein.Similarity(hay, needle, nil) >= similarityThreshold {
			sum += f.Confidence
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}

	if digits := digitsOf(needle); digits != "" {
		for _, f := range fragments {
			if strings.Contains(digitsOf(normalizeDigits(f.Text)), digits) {
				return numericFallbackConfidence
			}
		}
	}
	return defaultFallbackConfidence
}

// OverallConfidence is the mean OCR confidence across all fragments,
// clamped into [confidenceFloor, 1].
func OverallConfidence(fragments []Fragment) float64 {
	if len(fragments) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fragments {
		sum += f.Confidence
	}
	mean := sum / float64(len(fragments))
	if mean < confidenceFloor {
		return confidenceFloor
	}
	if mean > 1 {
		return 1
	}
	return mean
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

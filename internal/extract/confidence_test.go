package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreFieldUsesSupportingFragments(t *testing.T) {
	fragments := []Fragment{
		{Text: "MEGA PARTS TRADING CORP", Confidence: 0.9},
		{Text: "unrelated line", Confidence: 0.3},
	}

	score := ScoreField("MEGA PARTS TRADING CORP", fragments)
	assert.InDelta(t, 0.9, score, 0.001)
}

func TestScoreFieldSimilarityMatch(t *testing.T) {
	// OCR mangled one character; the fragment still supports the value.
	fragments := []Fragment{
		{Text: "MEGA PARTS TRAD1NG CORP", Confidence: 0.8},
	}

	score := ScoreField("MEGA PARTS TRADING CORP", fragments)
	assert.InDelta(t, 0.8, score, 0.001)
}

func TestScoreFieldNumericFallback(t *testing.T) {
	// The formatted value never appears verbatim but its digits do.
	fragments := []Fragment{
		{Text: "totals: 5600.00", Confidence: 0.9},
	}

	score := ScoreField("5,600.00", fragments)
	assert.InDelta(t, numericFallbackConfidence, score, 0.001)
}

func TestScoreFieldDefaultFallback(t *testing.T) {
	fragments := []Fragment{
		{Text: "nothing related", Confidence: 0.9},
	}

	score := ScoreField("completely absent value", fragments)
	assert.InDelta(t, defaultFallbackConfidence, score, 0.001)
}

func TestOverallConfidenceMean(t *testing.T) {
	fragments := []Fragment{
		{Confidence: 0.9},
		{Confidence: 0.8},
	}
	assert.InDelta(t, 0.85, OverallConfidence(fragments), 0.001)
}

func TestOverallConfidenceFloor(t *testing.T) {
	fragments := []Fragment{
		{Confidence: 0.3},
		{Confidence: 0.4},
	}
	assert.InDelta(t, confidenceFloor, OverallConfidence(fragments), 0.001)
}

func TestOverallConfidenceEmpty(t *testing.T) {
	assert.Zero(t, OverallConfidence(nil))
}

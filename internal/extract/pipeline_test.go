package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/receipt-ocr-service/internal/models"
	"github.com/fleetops/receipt-ocr-service/internal/ocr"
)

// span builds one OCR result with a 10-unit-tall box at the given position.
func span(text string, conf, x, y float64) ocr.Result {
	return ocr.Result{
		Text:       text,
		Confidence: conf,
		BBox:       [][]float64{{x, y}, {x + 80, y}, {x + 80, y + 10}, {x, y + 10}},
	}
}

// sampleReceipt lays out a complete hardware receipt: masthead, header
// fields, one item row in the middle band, totals and terms at the bottom.
func sampleReceipt() []ocr.Result {
	return []ocr.Result{
		span("MEGA PARTS TRADING CORP", 0.95, 10, 0),
		span("VAT REG TIN: 123-456-789-000", 0.92, 10, 40),
		span("Date: Apr 5 2025", 0.90, 10, 80),
		span("TIRE R22.5", 0.88, 10, 250),
		span("10", 0.91, 200, 250),
		span("500.00", 0.93, 300, 250),
		span("5,000.00", 0.93, 400, 250),
		span("Sub-Total", 0.94, 10, 400),
		span("5,000.00", 0.94, 300, 400),
		span("VAT", 0.92, 10, 420),
		span("600.00", 0.92, 300, 420),
		span("TOTAL AMOUNT DUE", 0.95, 10, 440),
		span("5,600.00", 0.95, 300, 440),
		span("Terms: Net 30 Days", 0.90, 10, 460),
	}
}

func TestExtractFullReceipt(t *testing.T) {
	record, err := Extract(sampleReceipt())
	require.NoError(t, err)
	require.True(t, record.Success)
	assert.Empty(t, record.Error)

	data := record.ExtractedData
	assert.Equal(t, "MEGA PARTS TRADING CORP", data.Supplier)
	assert.Equal(t, "2025-04-05T00:00:00", data.TransactionDate)
	assert.Equal(t, "Net 30 Days", data.PaymentTerms)
	assert.Equal(t, "123-456-789-000", data.VATRegTIN)
	assert.Equal(t, 5000.0, data.TotalAmount)
	assert.Equal(t, 600.0, data.VATAmount)
	assert.Equal(t, 5600.0, data.TotalAmountDue)

	require.Len(t, data.Items, 1)
	item := data.Items[0]
	assert.Equal(t, "TIRE R22.5", item.ItemName)
	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, 500.0, item.UnitPrice)
	assert.Equal(t, 5000.0, item.TotalPrice)
	assert.Equal(t, models.CategoryVehicleParts, item.Category)
	assert.Equal(t, models.UnitPCS, item.Unit)

	assert.Len(t, record.RawText, len(sampleReceipt()))
	assert.NotEmpty(t, record.Keywords)
	assert.GreaterOrEqual(t, record.OverallConfidence, 0.67)
	assert.LessOrEqual(t, record.OverallConfidence, 1.0)

	// Every reported field carries a confidence score.
	fieldNames := make(map[string]bool)
	for _, f := range record.OCRFields {
		fieldNames[f.FieldName] = true
		assert.Greater(t, f.ConfidenceScore, 0.0)
		assert.NotEmpty(t, f.ExtractedValue)
	}
	for _, name := range []string{
		models.FieldSupplier, models.FieldTransactionDate, models.FieldPaymentTerms,
		models.FieldVATRegTIN, models.FieldTotalAmount, models.FieldVATAmount,
		models.FieldTotalAmountDue,
	} {
		assert.True(t, fieldNames[name], "missing field %s", name)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	first, err := Extract(sampleReceipt())
	require.NoError(t, err)
	second, err := Extract(sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractEmptyInput(t *testing.T) {
	record, err := Extract(nil)
	require.NoError(t, err)
	assert.False(t, record.Success)
	assert.NotEmpty(t, record.Error)
	assert.Zero(t, record.OverallConfidence)
	assert.Empty(t, record.ExtractedData.Items)
	assert.Empty(t, record.OCRFields)
}

func TestExtractAllNoise(t *testing.T) {
	record, err := Extract([]ocr.Result{
		span("barely visible", 0.1, 0, 0),
		span("smudge", 0.05, 0, 40),
	})
	require.NoError(t, err)
	assert.False(t, record.Success)
}

func TestExtractMalformedInput(t *testing.T) {
	_, err := Extract([]ocr.Result{
		{Text: "bad", Confidence: 0.9, BBox: [][]float64{{0, 0}}},
	})
	require.Error(t, err)
}

func TestExtractCollectionsNeverNil(t *testing.T) {
	record, err := Extract(nil)
	require.NoError(t, err)
	assert.NotNil(t, record.ExtractedData.Items)
	assert.NotNil(t, record.OCRFields)
	assert.NotNil(t, record.Keywords)
	assert.NotNil(t, record.RawText)
}

func TestKeywords(t *testing.T) {
	keywords := Keywords([]string{
		"MEGA PARTS TRADING CORP",
		"the and for",      // stop words
		"ab",               // too short
		"12345",            // no letters
		"mega parts again", // duplicates
	})
	assert.Equal(t, []string{"mega", "parts", "trading", "corp", "again"}, keywords)
}

func TestKeywordsCap(t *testing.T) {
	lines := []string{
		"alpha bravo charlie delta echo foxtrot golf hotel india juliet",
		"kilo lima mike november oscar papa quebec romeo sierra tango",
		"uniform victor whiskey xray yankee zulu",
	}
	keywords := Keywords(lines)
	assert.Len(t, keywords, 20)
}

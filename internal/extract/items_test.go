package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/receipt-ocr-service/internal/models"
)

// itemRow builds a row of fragments on one line, left to right.
func itemRow(y float64, texts ...string) []Fragment {
	fragments := make([]Fragment, len(texts))
	for i, text := range texts {
		fragments[i] = Fragment{Text: text, Confidence: 0.9, CenterX: float64(i * 100), CenterY: y}
	}
	return fragments
}

func TestParseItemsTireScenario(t *testing.T) {
	// Header and totals push the item row into the page's middle band.
	fragments := []Fragment{
		{Text: "MEGA PARTS TRADING CORP", CenterY: 0},
		{Text: "Date: Apr 5 2025", CenterY: 50},
	}
	fragments = append(fragments, itemRow(250, "TIRE R22.5", "10", "500.00", "5,000.00")...)
	fragments = append(fragments,
		Fragment{Text: "Sub-Total 5,000.00", CenterY: 450},
		Fragment{Text: "TOTAL AMOUNT DUE 5,600.00", CenterY: 500},
	)

	items := ParseItems(fragments)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "TIRE R22.5", item.ItemName)
	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, 500.0, item.UnitPrice)
	assert.Equal(t, 5000.0, item.TotalPrice)
	assert.Equal(t, models.CategoryVehicleParts, item.Category)
	assert.Equal(t, models.UnitPCS, item.Unit)
}

func TestParseItemRowRejectsNonItemRows(t *testing.T) {
	row := Row{Fragments: itemRow(0, "Sub-Total", "1", "500.00")}
	_, ok := parseItemRow(row)
	assert.False(t, ok)
}

func TestParseItemRowRejectsMissingQuantity(t *testing.T) {
	row := Row{Fragments: itemRow(0, "OIL FILTER", "large", "500.00")}
	_, ok := parseItemRow(row)
	assert.False(t, ok)
}

func TestParseItemRowRejectsImplausibleQuantity(t *testing.T) {
	row := Row{Fragments: itemRow(0, "OIL FILTER", "5000", "500.00")}
	_, ok := parseItemRow(row)
	assert.False(t, ok)

	row = Row{Fragments: itemRow(0, "OIL FILTER", "0", "500.00")}
	_, ok = parseItemRow(row)
	assert.False(t, ok)
}

func TestParseItemRowRejectsMissingPrice(t *testing.T) {
	row := Row{Fragments: itemRow(0, "OIL FILTER", "2", "each")}
	_, ok := parseItemRow(row)
	assert.False(t, ok)
}

func TestParseItemRowSinglePriceIsTotal(t *testing.T) {
	row := Row{Fragments: itemRow(0, "DIESEL", "4", "2,000.00")}
	item, ok := parseItemRow(row)
	require.True(t, ok)
	assert.Equal(t, 2000.0, item.TotalPrice)
	assert.Equal(t, 500.0, item.UnitPrice)
	assert.Equal(t, models.CategoryFuel, item.Category)
}

func TestParseItemRowRecognizesUnitToken(t *testing.T) {
	row := Row{Fragments: itemRow(0, "HAMMER", "2", "pcs", "150.00", "300.00")}
	item, ok := parseItemRow(row)
	require.True(t, ok)
	assert.Equal(t, "HAMMER", item.ItemName)
	assert.Equal(t, models.UnitPCS, item.Unit)
	assert.Equal(t, models.CategoryTools, item.Category)

	row = Row{Fragments: itemRow(0, "GENERATOR", "1", "unit", "30,000.00")}
	item, ok = parseItemRow(row)
	require.True(t, ok)
	assert.Equal(t, models.UnitUnit, item.Unit)
	assert.Equal(t, models.CategoryEquipment, item.Category)
}

func TestParseItemRowRepairsGarbledName(t *testing.T) {
	row := Row{Fragments: itemRow(0, "TIRE R22,5", "2", "500.00", "1,000.00")}
	item, ok := parseItemRow(row)
	require.True(t, ok)
	assert.Equal(t, "TIRE R22.5", item.ItemName)
}

func TestReconcileItemPricesToleranceBreach(t *testing.T) {
	// 100 x 10 = 1000 strays far from the printed 5000 total; the total
	// wins and the unit price is recomputed.
	unit, total := reconcileItemPrices(
		[]decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(5000)}, 10)
	assert.True(t, total.Equal(decimal.NewFromInt(5000)))
	assert.True(t, unit.Equal(decimal.NewFromInt(500)))
}

func TestReconcileItemPricesWithinTolerance(t *testing.T) {
	unit, total := reconcileItemPrices(
		[]decimal.Decimal{decimal.NewFromInt(500), decimal.NewFromInt(5000)}, 10)
	assert.True(t, unit.Equal(decimal.NewFromInt(500)))
	assert.True(t, total.Equal(decimal.NewFromInt(5000)))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, models.CategoryVehicleParts, categorize("BRAKE PAD SET"))
	assert.Equal(t, models.CategoryFuel, categorize("Premium Gasoline"))
	assert.Equal(t, models.CategoryTools, categorize("socket wrench"))
	assert.Equal(t, models.CategoryEquipment, categorize("AIR COMPRESSOR"))
	assert.Equal(t, models.CategorySupplies, categorize("Hand Soap"))
	assert.Equal(t, models.CategoryOther, categorize("mystery thing"))
}

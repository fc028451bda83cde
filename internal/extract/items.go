package extract

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fleetops/receipt-ocr-service/internal/models"
)

// The item table sits between the header fields and the totals block;
// empirically that is the middle band of the page.
const (
	itemBandFrom = 0.35
	itemBandTo   = 0.65

	maxQuantity = 1000

	// itemPriceTolerance is the allowed relative slack between
	// unit price x quantity and the printed row total.
	itemPriceTolerance = 0.15
)

// nonItemKeywords flag rows that belong to other receipt sections: totals,
// tax lines, header labels, address and contact lines.
var nonItemKeywords = []string{
	"vat", "tax", "subtotal", "sub-total", "sub total", "total", "amount",
	"due", "change", "tendered", "tin", "invoice", "receipt", "official",
	"date", "terms", "address", "tel", "phone", "fax", "cashier", "thank",
	"page", "signature", "approved", "customer", "sold to", "qty",
	"quantity", "description", "price",
}

// unitTokens maps recognized unit spellings to their canonical form.
var unitTokens = map[string]string{
	"pcs":    models.UnitPCS,
	"pc":     models.UnitPC,
	"ea":     models.UnitEA,
	"unit":   models.UnitUnit,
	"units":  models.UnitUnit,
	"piece":  models.UnitPiece,
	"pieces": models.UnitPiece,
}

// categoryKeywords is checked in order; the first keyword found in the item
// name decides the category. Order matters for determinism.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{models.CategoryVehicleParts, []string{
		"tire", "tyre", "brake", "engine", "filter", "battery", "clutch",
		"bearing", "piston", "radiator", "alternator", "muffler", "wheel",
		"spring", "gasket", "axle", "bushing", "fan belt", "spark plug",
	}},
	{models.CategoryFuel, []string{
		"diesel", "gasoline", "petrol", "fuel", "kerosene", "lpg",
	}},
	{models.CategoryTools, []string{
		"wrench", "hammer", "screwdriver", "pliers", "drill", "grinder",
		"saw", "socket", "tool",
	}},
	{models.CategoryEquipment, []string{
		"compressor", "generator", "welder", "hoist", "jack", "machine",
		"equipment",
	}},
	{models.CategorySupplies, []string{
		"paper", "ink", "tape", "cleaner", "soap", "rag", "glove",
		"marker", "supplies", "grease", "oil",
	}},
}

// ParseItems reconstructs the line-item table. It restricts attention to
// the page's middle band, clusters it into rows, and derives an item per
// row. A row that produces no valid item is silently dropped; it never
// aborts processing of subsequent rows.
func ParseItems(fragments []Fragment) []models.LineItem {
	band := pageBand(fragments, itemBandFrom, itemBandTo)
	rows := ClusterRows(band)

	items := make([]models.LineItem, 0, len(rows))
	for _, row := range rows {
		if item, ok := parseItemRow(row); ok {
			items = append(items, item)
		}
	}
	return items
}

// parseItemRow derives quantity, prices, name, unit and category from one
// candidate row, per the validation chain: reject non-item rows, require a
// plausible quantity and at least one price, reconcile unit price against
// the row total.
func parseItemRow(row Row) (models.LineItem, bool) {
	if isNonItemRow(row.Text()) {
		return models.LineItem{}, false
	}

	quantity, qtyIndex, ok := rowQuantity(row)
	if !ok {
		return models.LineItem{}, false
	}

	prices, priceIndexes := rowPrices(row)
	if len(prices) == 0 {
		return models.LineItem{}, false
	}

	name, unit := rowNameAndUnit(row, qtyIndex, priceIndexes)
	if name == "" {
		return models.LineItem{}, false
	}

	unitPrice, totalPrice := reconcileItemPrices(prices, quantity)

	return models.LineItem{
		ItemName:   name,
		Quantity:   quantity,
		UnitPrice:  toFloat(round2(unitPrice)),
		TotalPrice: toFloat(round2(totalPrice)),
		Category:   categorize(name),
		Unit:       unit,
	}, true
}

func isNonItemRow(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range nonItemKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// rowQuantity finds the first plain-numeric fragment and validates it as a
// quantity. Rows without one, or with an implausible one, are rejected.
func rowQuantity(row Row) (float64, int, bool) {
	for i, f := range row.Fragments {
		if !isPlainNumber(f.Text) {
			continue
		}
		q, err := strconv.ParseFloat(normalizeDigits(strings.TrimSpace(f.Text)), 64)
		if err != nil || q <= 0 || q > maxQuantity {
			return 0, 0, false
		}
		return q, i, true
	}
	return 0, 0, false
}

// rowPrices collects every money-shaped fragment as a price candidate.
func rowPrices(row Row) ([]decimal.Decimal, map[int]bool) {
	var prices []decimal.Decimal
	indexes := make(map[int]bool)
	for i, f := range row.Fragments {
		if !isMoneyToken(f.Text) {
			continue
		}
		if d, ok := findMoney(f.Text); ok {
			prices = append(prices, d)
			indexes[i] = true
		}
	}
	return prices, indexes
}

// rowNameAndUnit builds the item name from the textual fragments left over
// after quantity, prices, unit tokens and non-item keywords are removed.
// Garbled alphanumeric codes are repaired along the way.
func rowNameAndUnit(row Row, qtyIndex int, priceIndexes map[int]bool) (string, string) {
	unit := models.UnitPCS
	var parts []string

	for i, f := range row.Fragments {
		if i == qtyIndex || priceIndexes[i] {
			continue
		}
		text := strings.TrimSpace(f.Text)
		if text == "" || isPlainNumber(text) || isMoneyToken(text) {
			continue
		}
		if canonical, ok := unitTokens[strings.ToLower(text)]; ok {
			unit = canonical
			continue
		}
		if isNonItemRow(text) {
			continue
		}
		parts = append(parts, repairCode(text))
	}

	return strings.Join(parts, " "), unit
}

// reconcileItemPrices resolves unit and total price from the candidates.
// With two or more candidates the smallest is the unit price and the
// largest the total; when unit x qty strays more than the tolerance from
// the total, the total is trusted and the unit price recomputed. A single
// candidate is treated as the row total.
func reconcileItemPrices(prices []decimal.Decimal, quantity float64) (unitPrice, totalPrice decimal.Decimal) {
	qty := decimal.NewFromFloat(quantity)

	if len(prices) == 1 {
		totalPrice = prices[0]
		unitPrice = totalPrice.Div(qty)
		return unitPrice, totalPrice
	}

	unitPrice, totalPrice = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(unitPrice) {
			unitPrice = p
		}
		if p.GreaterThan(totalPrice) {
			totalPrice = p
		}
	}

	expected := unitPrice.Mul(qty)
	tolerance := totalPrice.Mul(decimal.NewFromFloat(itemPriceTolerance))
	if expected.Sub(totalPrice).Abs().GreaterThan(tolerance) {
		unitPrice = totalPrice.Div(qty)
	}
	return unitPrice, totalPrice
}

func categorize(name string) string {
	lower := strings.ToLower(name)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return models.CategoryOther
}

// toFloat converts a money decimal to the float64 surfaced in JSON.
func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

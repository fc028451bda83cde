package extract

import (
	"github.com/shopspring/decimal"
)

// reconcileTolerance is the numeric slack within which two money figures
// are treated as the same number.
var reconcileTolerance = decimal.NewFromInt(1)

// Amounts carries the three money fields through reconciliation. The Has*
// flags distinguish a genuinely extracted zero from an absent field.
type Amounts struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Due      decimal.Decimal

	HasSubtotal bool
	HasVAT      bool
	HasDue      bool
}

// Reconcile cross-checks the three money fields and recomputes any missing
// or contradictory one from the other two. It is a fixed-order rule chain,
// not a general solver: each rule fires only when its precondition holds,
// so the outcome is deterministic given the independently extracted inputs.
// All derived values are rounded to 2 decimals.
func Reconcile(a Amounts, fragments []Fragment) Amounts {
	// Collision: subtotal and amount-due resolved to the same number while
	// a positive tax exists. One of the two extractions latched onto the
	// wrong figure. Recompute due = subtotal + tax and prefer a fragment
	// amount near that; failing that, trust due and back-derive subtotal.
	if a.HasSubtotal && a.HasDue && a.HasVAT && a.VAT.IsPositive() &&
		a.Subtotal.Sub(a.Due).Abs().LessThanOrEqual(reconcileTolerance) {
		computed := a.Subtotal.Add(a.VAT)
		if found, ok := findAmountNear(fragments, computed, reconcileTolerance); ok {
			a.Due = found
		} else {
			a.Subtotal = a.Due.Sub(a.VAT)
		}
	}

	// Derive a missing amount-due from the subtotal.
	if !a.HasDue && a.HasSubtotal {
		a.Due = a.Subtotal
		if a.HasVAT && a.VAT.IsPositive() {
			a.Due = a.Subtotal.Add(a.VAT)
		}
		a.HasDue = true
	}

	// Symmetric: derive a missing subtotal from the amount-due.
	if !a.HasSubtotal && a.HasDue {
		a.Subtotal = a.Due
		if a.HasVAT && a.VAT.IsPositive() {
			a.Subtotal = a.Due.Sub(a.VAT)
		}
		a.HasSubtotal = true
	}

	a.Subtotal = round2(a.Subtotal)
	a.VAT = round2(a.VAT)
	a.Due = round2(a.Due)
	return a
}

// findAmountNear searches the fragment set for a money amount within
// tolerance of the target, in reading order.
func findAmountNear(fragments []Fragment, target, tolerance decimal.Decimal) (decimal.Decimal, bool) {
	for _, f := range fragments {
		for _, amount := range findAllMoney(f.Text) {
			if amount.Sub(target).Abs().LessThanOrEqual(tolerance) {
				return amount, true
			}
		}
	}
	return decimal.Zero, false
}

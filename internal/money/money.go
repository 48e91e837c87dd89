// Package money does line and invoice arithmetic on exact decimals.
// Components are summed before rounding; Round2 is applied only when a
// value is persisted or displayed.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/validation"
)

var hundred = decimal.NewFromInt(100)

// Line is one billable row: quantity times unit price, taxed at a
// percentage rate.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
}

// Amounts are the derived values of a single line.
type Amounts struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Totals aggregate all lines of an invoice.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Compute derives a line's amounts without validating the inputs. The
// draft editor uses it so a half-typed line still previews.
func Compute(l Line) Amounts {
	sub := l.Quantity.Mul(l.UnitPrice)
	tax := sub.Mul(l.TaxRate).Div(hundred)
	return Amounts{Subtotal: sub, Tax: tax, Total: sub.Add(tax)}
}

func validateLine(prefix func(string) string, l Line, v validation.Violations) {
	validation.PositiveDecimal(prefix("quantity"), l.Quantity, v)
	validation.NonNegativeDecimal(prefix("unit_price"), l.UnitPrice, v)
	validation.NonNegativeDecimal(prefix("tax_rate"), l.TaxRate, v)
}

// LineAmounts validates l and derives its amounts.
func LineAmounts(l Line) (Amounts, error) {
	v := validation.Violations{}
	validateLine(func(f string) string { return f }, l, v)
	if !v.Empty() {
		return Amounts{}, apperr.New(apperr.Validation, "invalid_line").WithFields(v)
	}
	return Compute(l), nil
}

// InvoiceTotals validates every line and sums the unrounded components.
// An empty slice yields zero totals.
func InvoiceTotals(lines []Line) (Totals, error) {
	v := validation.Violations{}
	for i, l := range lines {
		idx := i
		validateLine(func(f string) string { return validation.ItemField(idx, f) }, l, v)
	}
	if !v.Empty() {
		return Totals{}, apperr.New(apperr.Validation, "invalid_items").WithFields(v)
	}
	t := Totals{Subtotal: decimal.Zero, TaxTotal: decimal.Zero, GrandTotal: decimal.Zero}
	for _, l := range lines {
		a := Compute(l)
		t.Subtotal = t.Subtotal.Add(a.Subtotal)
		t.TaxTotal = t.TaxTotal.Add(a.Tax)
	}
	t.GrandTotal = t.Subtotal.Add(t.TaxTotal)
	return t, nil
}

// Round2 rounds half away from zero to two places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

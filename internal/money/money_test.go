package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/apperr"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestInvoiceTotalsTwoLines(t *testing.T) {
	// two lines of 100 at 21% tax
	lines := []Line{
		{Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("21")},
		{Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: dec("21")},
	}
	totals, err := InvoiceTotals(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Round2(totals.Subtotal).String(); got != "200" {
		t.Fatalf("subtotal = %s, want 200", got)
	}
	if got := Round2(totals.TaxTotal).String(); got != "42" {
		t.Fatalf("tax total = %s, want 42", got)
	}
	if got := Round2(totals.GrandTotal).StringFixed(2); got != "242.00" {
		t.Fatalf("grand total = %s, want 242.00", got)
	}
}

func TestInvoiceTotalsEmpty(t *testing.T) {
	totals, err := InvoiceTotals(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Subtotal.IsZero() || !totals.TaxTotal.IsZero() || !totals.GrandTotal.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestInvoiceTotalsMonotonic(t *testing.T) {
	lines := []Line{{Quantity: dec("2"), UnitPrice: dec("50"), TaxRate: dec("10")}}
	before, err := InvoiceTotals(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines = append(lines, Line{Quantity: dec("1"), UnitPrice: dec("10"), TaxRate: dec("0")})
	after, err := InvoiceTotals(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !after.GrandTotal.GreaterThan(before.GrandTotal) {
		t.Fatalf("grand total did not grow: %s -> %s", before.GrandTotal, after.GrandTotal)
	}
}

func TestInvoiceTotalsIndexedViolations(t *testing.T) {
	lines := []Line{
		{Quantity: dec("1"), UnitPrice: dec("10"), TaxRate: dec("21")},
		{Quantity: dec("0"), UnitPrice: dec("-5"), TaxRate: dec("21")},
	}
	_, err := InvoiceTotals(lines)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
	fields := apperr.FieldsOf(err)
	if fields["items.1.quantity"] != "must_be_positive" {
		t.Fatalf("missing quantity violation: %v", fields)
	}
	if fields["items.1.unit_price"] != "must_not_be_negative" {
		t.Fatalf("missing unit price violation: %v", fields)
	}
	if _, ok := fields["items.0.quantity"]; ok {
		t.Fatalf("valid line flagged: %v", fields)
	}
}

func TestLineAmountsValid(t *testing.T) {
	a, err := LineAmounts(Line{Quantity: dec("3"), UnitPrice: dec("19.99"), TaxRate: dec("21")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Round2(a.Subtotal).StringFixed(2); got != "59.97" {
		t.Fatalf("subtotal = %s, want 59.97", got)
	}
	if !a.Total.Equal(a.Subtotal.Add(a.Tax)) {
		t.Fatalf("total %s != subtotal %s + tax %s", a.Total, a.Subtotal, a.Tax)
	}
}

func TestRoundingAfterSummation(t *testing.T) {
	// each line's tax is 0.105; rounding per line would give 0.11 + 0.11,
	// summing first gives 0.21
	lines := []Line{
		{Quantity: dec("1"), UnitPrice: dec("0.50"), TaxRate: dec("21")},
		{Quantity: dec("1"), UnitPrice: dec("0.50"), TaxRate: dec("21")},
	}
	totals, err := InvoiceTotals(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Round2(totals.TaxTotal).StringFixed(2); got != "0.21" {
		t.Fatalf("tax total = %s, want 0.21", got)
	}
}

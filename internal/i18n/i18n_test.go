package i18n

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/apperr"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("CS-cz") != "cs" {
		t.Fatalf("expected cs for CS-cz")
	}
	if DetectLanguage("fr-FR,cs;q=0.8") != "cs" {
		t.Fatalf("expected cs fallback")
	}
	if DetectLanguage("") != "en" {
		t.Fatalf("expected default en")
	}
}

func TestTranslations(t *testing.T) {
	if T("cs", "subtotal") != "Mezisoučet" {
		t.Fatalf("expected Mezisoučet")
	}
	if T("en", "ico") != "Company ID" {
		t.Fatalf("expected Company ID")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to en translation if exists
	if T("de", "subtotal") != "Subtotal" {
		t.Fatalf("expected en fallback for de lang")
	}
}

func TestFormatAmountEnglish(t *testing.T) {
	got, err := FormatAmount(decimal.NewFromFloat(1234.56), "USD", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "$1,234.56" {
		t.Fatalf("got %q, want $1,234.56", got)
	}
}

func TestFormatAmountExactAtLargeMagnitude(t *testing.T) {
	amount, err := decimal.NewFromString("9007199254740992.25")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := FormatAmount(amount, "USD", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "$9,007,199,254,740,992.25" {
		t.Fatalf("got %q, want $9,007,199,254,740,992.25", got)
	}
}

func TestFormatAmountNegative(t *testing.T) {
	got, err := FormatAmount(decimal.NewFromFloat(-1234.5), "USD", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "$-1,234.50" {
		t.Fatalf("got %q, want $-1,234.50", got)
	}
}

func TestFormatAmountCzech(t *testing.T) {
	got, err := FormatAmount(decimal.NewFromInt(1500), "CZK", "cs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, " Kč") {
		t.Fatalf("got %q, want Kč suffix", got)
	}
	if !strings.Contains(got, "500") {
		t.Fatalf("got %q, digits missing", got)
	}
}

func TestFormatAmountUnsupportedCurrency(t *testing.T) {
	_, err := FormatAmount(decimal.NewFromInt(10), "ZZZ", "en")
	if !apperr.IsKind(err, apperr.UnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
	if got := FormatAmountOrFallback(decimal.NewFromInt(10), "ZZZ", "en"); got != "10.00" {
		t.Fatalf("fallback = %q, want 10.00", got)
	}
}

func TestParseAmountRoundTrip(t *testing.T) {
	orig := decimal.NewFromFloat(1234.56)
	formatted, err := FormatAmount(orig, "USD", "en")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	parsed, err := ParseAmount(formatted, "en")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(orig) {
		t.Fatalf("round trip %s -> %q -> %s", orig, formatted, parsed)
	}
}

func TestParseAmountCzechSeparator(t *testing.T) {
	parsed, err := ParseAmount("1 234,56 Kč", "cs")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.StringFixed(2) != "1234.56" {
		t.Fatalf("got %s, want 1234.56", parsed)
	}
}

func TestParseAmountGarbage(t *testing.T) {
	if _, err := ParseAmount("abc", "en"); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFormatDate(t *testing.T) {
	d := mustDate(t, "2026-03-05")
	if got := FormatDate(d, "cs"); got != "5. 3. 2026" {
		t.Fatalf("cs date = %q", got)
	}
	if got := FormatDate(d, "en"); got != "Mar 5, 2026" {
		t.Fatalf("en date = %q", got)
	}
}

package i18n

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/fakturio/fakturio/internal/apperr"
)

var symbols = map[string]string{
	"CZK": "Kč",
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// CLDR separators for the supported languages. Czech groups with a
// non-breaking space.
var numSeps = map[string]struct{ group, dec string }{
	"en": {group: ",", dec: "."},
	"cs": {group: " ", dec: ","},
}

// formatNumber renders amount to two places from its digit string, so
// it stays exact at any magnitude.
func formatNumber(amount decimal.Decimal, lang string) string {
	sep, ok := numSeps[lang]
	if !ok {
		sep = numSeps["en"]
	}
	s := amount.Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(sep.group)
		}
		b.WriteByte(whole[i])
	}
	b.WriteString(sep.dec)
	b.WriteString(frac)
	return b.String()
}

// FormatAmount renders amount with the currency's symbol in lang's
// number format. Unknown ISO codes are rejected; known codes without a
// symbol entry fall back to the code itself.
func FormatAmount(amount decimal.Decimal, code, lang string) (string, error) {
	code = strings.ToUpper(code)
	if _, err := currency.ParseISO(code); err != nil {
		return "", apperr.New(apperr.UnsupportedCurrency, "unsupported_currency").
			WithFields(map[string]string{"currency": "unsupported_currency"})
	}
	sym, ok := symbols[code]
	if !ok {
		sym = code
	}

	num := formatNumber(amount, lang)

	if lang == "en" {
		if utf8.RuneCountInString(sym) == 1 {
			return sym + num, nil
		}
		return sym + " " + num, nil
	}
	return num + " " + sym, nil
}

// FormatAmountOrFallback never fails; it degrades to a plain fixed-point
// string when the currency is unknown.
func FormatAmountOrFallback(amount decimal.Decimal, code, lang string) string {
	s, err := FormatAmount(amount, code, lang)
	if err != nil {
		return amount.StringFixed(2)
	}
	return s
}

// ParseAmount reads a user-entered amount in lang's format. Grouping
// characters and symbols are dropped; only digits, the sign and the
// locale's decimal separator survive.
func ParseAmount(s, lang string) (decimal.Decimal, error) {
	sep := ','
	if lang == "en" {
		sep = '.'
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == sep:
			b.WriteRune('.')
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Decimal{}, apperr.New(apperr.Validation, "invalid_amount").
			WithFields(map[string]string{"amount": "invalid_amount"})
	}
	return d, nil
}

// FormatDate renders t the way the language's invoices conventionally
// print dates.
func FormatDate(t time.Time, lang string) string {
	if lang == "cs" {
		return t.Format("2. 1. 2006")
	}
	return t.Format("Jan 2, 2006")
}

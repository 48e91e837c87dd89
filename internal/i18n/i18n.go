// Package i18n holds the label dictionaries and the locale-aware amount
// and date formatting used by list views and PDF export.
package i18n

import "strings"

const defaultLanguage = "en"

var labels = map[string]map[string]string{
	"en": {
		"invoice":             "Invoice",
		"supplier":            "Supplier",
		"client":              "Bill to",
		"issue_date":          "Date of issue",
		"due_date":            "Due date",
		"reference":           "Reference",
		"payment_method":      "Payment method",
		"payment_method_bank": "Bank transfer",
		"payment_method_card": "Card",
		"payment_method_cash": "Cash",
		"bank_account":        "Bank account",
		"description":         "Description",
		"quantity":            "Qty",
		"unit_price":          "Unit price",
		"tax_rate":            "Tax",
		"line_total":          "Total",
		"subtotal":            "Subtotal",
		"tax_total":           "Tax",
		"grand_total":         "Total",
		"notes":               "Notes",
		"ico":                 "Company ID",
		"dic":                 "VAT ID",
		"required":            "Required",
		"search_failed":       "Company lookup failed",
		"no_invoices":         "No invoices yet",
		"no_matches":          "No invoices match the filter",
	},
	"cs": {
		"invoice":             "Faktura",
		"supplier":            "Dodavatel",
		"client":              "Odběratel",
		"issue_date":          "Datum vystavení",
		"due_date":            "Datum splatnosti",
		"reference":           "Variabilní symbol",
		"payment_method":      "Způsob platby",
		"payment_method_bank": "Bankovním převodem",
		"payment_method_card": "Kartou",
		"payment_method_cash": "Hotově",
		"bank_account":        "Bankovní účet",
		"description":         "Popis",
		"quantity":            "Množství",
		"unit_price":          "Cena za jednotku",
		"tax_rate":            "DPH",
		"line_total":          "Celkem",
		"subtotal":            "Mezisoučet",
		"tax_total":           "DPH",
		"grand_total":         "Celkem",
		"notes":               "Poznámky",
		"ico":                 "IČO",
		"dic":                 "DIČ",
		"required":            "Povinné",
		"search_failed":       "Vyhledání firmy selhalo",
		"no_invoices":         "Zatím žádné faktury",
		"no_matches":          "Žádné faktury neodpovídají filtru",
	},
}

// Supported reports whether lang has a dictionary.
func Supported(lang string) bool {
	_, ok := labels[lang]
	return ok
}

// DetectLanguage picks a supported language from an Accept-Language
// header, defaulting to English.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if i := strings.IndexAny(tag, "-;"); i >= 0 {
			tag = tag[:i]
		}
		if Supported(tag) {
			return tag
		}
	}
	return defaultLanguage
}

// T translates code for lang, falling back to English and then to the
// code itself.
func T(lang, code string) string {
	if m, ok := labels[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := labels[defaultLanguage][code]; ok {
		return s
	}
	return code
}

// Labels returns the full dictionary for lang, falling back to English.
func Labels(lang string) map[string]string {
	if m, ok := labels[lang]; ok {
		return m
	}
	return labels[defaultLanguage]
}

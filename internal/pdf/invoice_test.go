package pdf

import (
	"bytes"
	"testing"
)

func sampleData() InvoiceData {
	return InvoiceData{
		Title:         "Invoice",
		InvoiceNumber: "2026-001",
		IssueDate:     "Jan 10, 2026",
		DueDate:       "Jan 24, 2026",
		Supplier:      Party{Name: "Acme s.r.o.", ICO: "12345678", Address: "Business 1", City: "Praha", Zip: "12000"},
		Client:        Party{Name: "Customer Ltd", City: "Brno"},
		Items: []Item{
			{Description: "Consulting", Quantity: "2", UnitPrice: "$100.00", TaxRate: "21 %", Total: "$242.00"},
		},
		Subtotal:      "$200.00",
		TaxTotal:      "$42.00",
		GrandTotal:    "$242.00",
		PaymentMethod: "Bank transfer",
		BankAccount:   "123456789/0800",
		Notes:         "Thank you",
		AccentColor:   "#4f46e5",
	}
}

func TestInvoicePDFGenerates(t *testing.T) {
	data, err := InvoicePDF(sampleData())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a pdf, starts with %q", data[:min(8, len(data))])
	}
}

func TestInvoicePDFBadAccentColor(t *testing.T) {
	d := sampleData()
	d.AccentColor = "not-a-color"
	if _, err := InvoicePDF(d); err != nil {
		t.Fatalf("bad accent color must not fail export: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	c := parseHexColor("#4f46e5")
	if c.Red != 0x4f || c.Green != 0x46 || c.Blue != 0xe5 {
		t.Fatalf("parsed %+v", c)
	}
	if c := parseHexColor("zzzzzz"); c.Red != 0 || c.Green != 0 || c.Blue != 0 {
		t.Fatalf("malformed input not defaulted: %+v", c)
	}
}

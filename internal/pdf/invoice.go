// Package pdf renders the styled invoice document. Input is fully
// preformatted (localized labels, formatted amounts and dates) so
// rendering is deterministic and carries no locale logic of its own.
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type Party struct {
	Name    string
	ICO     string
	DIC     string
	Address string
	City    string
	Zip     string
}

type Item struct {
	Description string
	Quantity    string
	UnitPrice   string
	TaxRate     string
	Total       string
}

// InvoiceData is the render input. Amount and date fields arrive already
// formatted for the invoice's locale.
type InvoiceData struct {
	Title         string
	InvoiceNumber string
	Reference     string
	IssueDate     string
	DueDate       string

	Supplier Party
	Client   Party

	Items []Item

	Subtotal   string
	TaxTotal   string
	GrandTotal string

	PaymentMethod string
	BankAccount   string
	Notes         string

	AccentColor string // hex, e.g. "#4f46e5"
	Labels      map[string]string
}

func (d InvoiceData) label(key, fallback string) string {
	if s, ok := d.Labels[key]; ok {
		return s
	}
	return fallback
}

// InvoicePDF builds the document and returns its bytes.
func InvoicePDF(data InvoiceData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "{current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)
	accent := parseHexColor(data.AccentColor)

	m.AddRow(14,
		text.NewCol(8, data.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
			Color: accent,
		}),
		text.NewCol(4, data.InvoiceNumber, props.Text{
			Size:  14,
			Align: align.Right,
			Top:   3,
		}),
	)

	meta := []string{
		data.label("issue_date", "Date of issue") + ": " + data.IssueDate,
		data.label("due_date", "Due date") + ": " + data.DueDate,
	}
	if data.Reference != "" {
		meta = append(meta, data.label("reference", "Reference")+": "+data.Reference)
	}
	metaCol := col.New(6)
	for i, s := range meta {
		metaCol.Add(text.New(s, props.Text{Size: 9, Top: float64(i * 4)}))
	}
	m.AddRow(16, metaCol, col.New(6))

	m.AddRow(34,
		partyCol(6, data.label("supplier", "Supplier"), data.Supplier, data),
		partyCol(6, data.label("client", "Bill to"), data.Client, data),
	)

	if data.BankAccount != "" || data.PaymentMethod != "" {
		payCol := col.New(12)
		top := 0.0
		if data.PaymentMethod != "" {
			payCol.Add(text.New(data.label("payment_method", "Payment method")+": "+data.PaymentMethod, props.Text{Size: 9, Top: top}))
			top += 4
		}
		if data.BankAccount != "" {
			payCol.Add(text.New(data.label("bank_account", "Bank account")+": "+data.BankAccount, props.Text{Size: 9, Top: top}))
		}
		m.AddRow(12, payCol)
	}

	// items table
	m.AddRow(8,
		text.NewCol(5, data.label("description", "Description"), props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.label("quantity", "Qty"), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, data.label("unit_price", "Unit price"), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(1, data.label("tax_rate", "Tax"), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, data.label("line_total", "Total"), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	for _, it := range data.Items {
		m.AddRow(7,
			text.NewCol(5, it.Description, props.Text{Size: 9}),
			text.NewCol(2, it.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(1, it.TaxRate, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.Total, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	m.AddRow(6,
		col.New(8),
		text.NewCol(2, data.label("subtotal", "Subtotal"), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(6,
		col.New(8),
		text.NewCol(2, data.label("tax_total", "Tax"), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.TaxTotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, data.label("grand_total", "Total"), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, data.GrandTotal, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Color: accent}),
	)

	if data.Notes != "" {
		m.AddRow(14,
			col.New(12).Add(
				text.New(data.label("notes", "Notes"), props.Text{Style: fontstyle.Bold, Size: 9}),
				text.New(data.Notes, props.Text{Size: 9, Top: 4}),
			),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func partyCol(size int, title string, p Party, data InvoiceData) core.Col {
	c := col.New(size)
	c.Add(text.New(title, props.Text{Size: 9, Style: fontstyle.Bold}))
	top := 5.0
	add := func(s string) {
		if s == "" {
			return
		}
		c.Add(text.New(s, props.Text{Size: 9, Top: top}))
		top += 4
	}
	add(p.Name)
	add(p.Address)
	add(strings.TrimSpace(p.Zip + " " + p.City))
	if p.ICO != "" {
		add(data.label("ico", "Company ID") + ": " + p.ICO)
	}
	if p.DIC != "" {
		add(data.label("dic", "VAT ID") + ": " + p.DIC)
	}
	return c
}

// parseHexColor turns "#rrggbb" into a maroto color, defaulting to black
// on malformed input so a bad accent never fails an export.
func parseHexColor(s string) *props.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return &props.Color{}
	}
	r, err1 := strconv.ParseUint(s[0:2], 16, 8)
	g, err2 := strconv.ParseUint(s[2:4], 16, 8)
	b, err3 := strconv.ParseUint(s[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return &props.Color{}
	}
	return &props.Color{Red: int(r), Green: int(g), Blue: int(b)}
}

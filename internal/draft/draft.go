// Package draft models an invoice being composed: a mutex-guarded
// aggregate whose derived totals stay consistent as line items change,
// with a small state machine gating submission.
package draft

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/money"
	"github.com/fakturio/fakturio/internal/validation"
)

type State string

const (
	StateEmpty     State = "empty"
	StateEditing   State = "editing"
	StateValid     State = "valid"
	StateSubmitted State = "submitted"
	StateRejected  State = "rejected"
)

type Party struct {
	Name    string `json:"name"`
	ICO     string `json:"ico,omitempty"`
	DIC     string `json:"dic,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

type Item struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Total       decimal.Decimal `json:"total"` // derived
}

type Settings struct {
	PaymentMethod     string `json:"payment_method"`
	BankAccount       string `json:"bank_account,omitempty"`
	RoutingNumber     string `json:"routing_number,omitempty"`
	ConstantSymbol    string `json:"constant_symbol,omitempty"`
	SpecificSymbol    string `json:"specific_symbol,omitempty"`
	ShowIBAN          bool   `json:"show_iban"`
	TradeRegisterInfo string `json:"trade_register_info,omitempty"`
	Currency          string `json:"currency"`
	Rounding          string `json:"rounding"`
	Language          string `json:"language"`
	Color             string `json:"color"`
	Style             string `json:"style"`
}

// Snapshot is a consistent copy of the draft, safe to render or persist
// while the original stays editable.
type Snapshot struct {
	ID      string `json:"id"`
	OwnerID string `json:"-"`
	State   State  `json:"state"`

	InvoiceType   string    `json:"invoice_type"`
	InvoiceNumber string    `json:"invoice_number"`
	Reference     string    `json:"reference,omitempty"`
	IssuedBy      string    `json:"issued_by"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`

	Supplier Party    `json:"supplier"`
	Client   Party    `json:"client"`
	Items    []Item   `json:"items"`
	Settings Settings `json:"settings"`
	Notes    string   `json:"notes,omitempty"`

	Totals      money.Totals          `json:"totals"`
	FieldErrors validation.Violations `json:"field_errors,omitempty"`
}

// Persister is the persistence collaborator a draft is handed to on
// submit.
type Persister interface {
	CreateInvoice(ctx context.Context, snap Snapshot) (string, error)
}

type Draft struct {
	mu         sync.Mutex
	snap       Snapshot
	submitting bool
}

// New starts a draft with the editor's defaults.
func New(ownerID string) *Draft {
	now := time.Now()
	return &Draft{snap: Snapshot{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		State:       StateEmpty,
		InvoiceType: "invoice",
		IssueDate:   now,
		DueDate:     now.AddDate(0, 0, 14),
		Items:       []Item{},
		Settings: Settings{
			PaymentMethod: "bank",
			Currency:      "USD",
			Rounding:      "none",
			Language:      "en",
			Color:         "#4f46e5",
			Style:         "modern",
		},
	}}
}

func (d *Draft) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap.ID
}

func (d *Draft) OwnerID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap.OwnerID
}

// Snapshot deep-copies the draft under its lock, so PDF export renders a
// consistent view while editing continues.
func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Draft) snapshotLocked() Snapshot {
	s := d.snap
	s.Items = make([]Item, len(d.snap.Items))
	copy(s.Items, d.snap.Items)
	if len(d.snap.FieldErrors) > 0 {
		s.FieldErrors = validation.Violations{}
		for k, v := range d.snap.FieldErrors {
			s.FieldErrors[k] = v
		}
	}
	return s
}

var errSubmitted = apperr.New(apperr.Validation, "draft_already_submitted")

// AddItem appends a line with the editor defaults and recomputes totals.
func (d *Draft) AddItem() (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap.State == StateSubmitted {
		return Snapshot{}, errSubmitted
	}
	d.snap.Items = append(d.snap.Items, Item{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
		TaxRate:   decimal.Zero,
	})
	d.recomputeLocked()
	return d.snapshotLocked(), nil
}

// ItemPatch carries the fields to change on a line; nil means keep.
type ItemPatch struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

func (d *Draft) UpdateItem(index int, patch ItemPatch) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap.State == StateSubmitted {
		return Snapshot{}, errSubmitted
	}
	if index < 0 || index >= len(d.snap.Items) {
		return Snapshot{}, apperr.New(apperr.Validation, "item_index_out_of_range")
	}
	it := &d.snap.Items[index]
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		it.UnitPrice = *patch.UnitPrice
	}
	if patch.TaxRate != nil {
		it.TaxRate = *patch.TaxRate
	}
	d.recomputeLocked()
	return d.snapshotLocked(), nil
}

// RemoveItem deletes a line. Removing the last remaining line is allowed
// while editing; the >= 1 item rule is enforced at submit time.
func (d *Draft) RemoveItem(index int) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap.State == StateSubmitted {
		return Snapshot{}, errSubmitted
	}
	if index < 0 || index >= len(d.snap.Items) {
		return Snapshot{}, apperr.New(apperr.Validation, "item_index_out_of_range")
	}
	d.snap.Items = append(d.snap.Items[:index], d.snap.Items[index+1:]...)
	d.recomputeLocked()
	return d.snapshotLocked(), nil
}

// UpdateField sets a header, supplier, client, or settings field by its
// dotted path. Switching paymentMethod away from "bank" intentionally
// keeps bankAccount so the value survives re-selection.
func (d *Draft) UpdateField(path, value string) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap.State == StateSubmitted {
		return Snapshot{}, errSubmitted
	}
	if err := d.setFieldLocked(path, value); err != nil {
		return Snapshot{}, err
	}
	d.recomputeLocked()
	return d.snapshotLocked(), nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (d *Draft) setFieldLocked(path, value string) error {
	badField := func() error {
		return apperr.New(apperr.Validation, "invalid_field").
			WithFields(validation.Violations{path: "invalid_value"})
	}
	switch path {
	case "invoiceType":
		d.snap.InvoiceType = value
	case "invoiceNumber":
		d.snap.InvoiceNumber = value
	case "reference":
		d.snap.Reference = value
	case "issuedBy":
		d.snap.IssuedBy = value
	case "notes":
		d.snap.Notes = value
	case "issueDate":
		t, err := parseDate(value)
		if err != nil {
			return badField()
		}
		d.snap.IssueDate = t
	case "dueDate":
		t, err := parseDate(value)
		if err != nil {
			return badField()
		}
		d.snap.DueDate = t
	default:
		return d.setNestedFieldLocked(path, value, badField)
	}
	return nil
}

func (d *Draft) setNestedFieldLocked(path, value string, badField func() error) error {
	prefix, field, ok := strings.Cut(path, ".")
	if !ok {
		return apperr.New(apperr.Validation, "unknown_field").
			WithFields(validation.Violations{path: "unknown"})
	}
	switch prefix {
	case "supplier", "client":
		p := &d.snap.Supplier
		if prefix == "client" {
			p = &d.snap.Client
		}
		switch field {
		case "name":
			p.Name = value
		case "ico":
			p.ICO = value
		case "dic":
			p.DIC = value
		case "address":
			p.Address = value
		case "city":
			p.City = value
		case "zip":
			p.Zip = value
		default:
			return badField()
		}
	case "settings":
		s := &d.snap.Settings
		switch field {
		case "paymentMethod":
			s.PaymentMethod = value
		case "bankAccount":
			s.BankAccount = value
		case "routingNumber":
			s.RoutingNumber = value
		case "constantSymbol":
			s.ConstantSymbol = value
		case "specificSymbol":
			s.SpecificSymbol = value
		case "showIBAN":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return badField()
			}
			s.ShowIBAN = b
		case "tradeRegisterInfo":
			s.TradeRegisterInfo = value
		case "currency":
			s.Currency = strings.ToUpper(value)
		case "rounding":
			s.Rounding = value
		case "language":
			s.Language = value
		case "color":
			s.Color = value
		case "style":
			s.Style = value
		default:
			return badField()
		}
	default:
		return apperr.New(apperr.Validation, "unknown_field").
			WithFields(validation.Violations{path: "unknown"})
	}
	return nil
}

// recomputeLocked refreshes per-line and aggregate totals and the state.
// Raw math is used so transiently invalid lines keep the preview live;
// strict validation runs at submit.
func (d *Draft) recomputeLocked() {
	totals := money.Totals{
		Subtotal:   decimal.Zero,
		TaxTotal:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}
	for i := range d.snap.Items {
		it := &d.snap.Items[i]
		a := money.Compute(money.Line{
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			TaxRate:   it.TaxRate,
		})
		it.Total = a.Total
		totals.Subtotal = totals.Subtotal.Add(a.Subtotal)
		totals.TaxTotal = totals.TaxTotal.Add(a.Tax)
	}
	totals.GrandTotal = totals.Subtotal.Add(totals.TaxTotal)
	d.snap.Totals = totals

	switch d.snap.State {
	case StateSubmitted:
		return
	default:
		if len(d.snap.Items) == 0 {
			d.snap.State = StateEmpty
			return
		}
		if d.validateLocked().Empty() {
			d.snap.State = StateValid
		} else {
			d.snap.State = StateEditing
		}
	}
}

func (d *Draft) validateLocked() validation.Violations {
	v := validation.Violations{}
	validation.Required("invoiceNumber", d.snap.InvoiceNumber, v)
	validation.Required("issuedBy", d.snap.IssuedBy, v)
	validation.Required("client.name", d.snap.Client.Name, v)
	if len(d.snap.Items) == 0 {
		v["items"] = "required"
		return v
	}
	lines := make([]money.Line, len(d.snap.Items))
	for i, it := range d.snap.Items {
		validation.Required(validation.ItemField(i, "description"), it.Description, v)
		lines[i] = money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	}
	if _, err := money.InvoiceTotals(lines); err != nil {
		for field, msg := range apperr.FieldsOf(err) {
			v[field] = msg
		}
	}
	return v
}

// Submit runs full validation and hands the draft to the persistence
// collaborator. The draft stays editable while the save is in flight; a
// second submit during that window is rejected rather than raced.
func (d *Draft) Submit(ctx context.Context, p Persister) (string, error) {
	d.mu.Lock()
	if d.snap.State == StateSubmitted {
		d.mu.Unlock()
		return "", errSubmitted
	}
	if d.submitting {
		d.mu.Unlock()
		return "", apperr.New(apperr.Validation, "submit_in_progress")
	}
	if v := d.validateLocked(); !v.Empty() {
		d.snap.State = StateRejected
		d.snap.FieldErrors = v
		d.mu.Unlock()
		return "", apperr.New(apperr.Validation, "validation_failed").WithFields(v)
	}
	d.snap.State = StateValid
	d.snap.FieldErrors = nil
	d.submitting = true
	snap := d.snapshotLocked()
	d.mu.Unlock()

	id, err := p.CreateInvoice(ctx, snap)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if err != nil {
		d.snap.State = StateRejected
		var ae *apperr.Error
		if errors.As(err, &ae) && len(ae.Fields) > 0 {
			d.snap.FieldErrors = validation.Violations(ae.Fields)
		}
		return "", err
	}
	d.snap.State = StateSubmitted
	return id, nil
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/auth"
	"github.com/fakturio/fakturio/internal/draft"
	"github.com/fakturio/fakturio/internal/filter"
	"github.com/fakturio/fakturio/internal/httpx"
	"github.com/fakturio/fakturio/internal/i18n"
	"github.com/fakturio/fakturio/internal/lifecycle"
	"github.com/fakturio/fakturio/internal/models"
	"github.com/fakturio/fakturio/internal/money"
	pdfgen "github.com/fakturio/fakturio/internal/pdf"
	"github.com/fakturio/fakturio/internal/services"
)

type InvoiceHandler struct {
	Svc *services.InvoiceService
	Bus *lifecycle.Bus
}

func NewInvoiceHandler(svc *services.InvoiceService, bus *lifecycle.Bus) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc, Bus: bus}
}

func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/invoices", h.collection)
	mux.HandleFunc("/invoices/get", h.get)
	mux.HandleFunc("/invoices/delete", h.delete)
	mux.HandleFunc("/invoices/status", h.status)
	mux.HandleFunc("/invoices/pdf", h.pdf)
	mux.HandleFunc("/invoices/events", h.events)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	}
	return uid, ok
}

func queryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return "", false
	}
	return id, true
}

func (h *InvoiceHandler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func parseCriteria(r *http.Request) (filter.Criteria, error) {
	q := r.URL.Query()
	var c filter.Criteria
	c.Status = q.Get("status")
	if c.Status != "" && c.Status != filter.StatusAll {
		if !lifecycle.ValidStatus(c.Status) && c.Status != string(lifecycle.StatusOverdue) {
			return c, apperr.New(apperr.Validation, "invalid_status").
				WithFields(map[string]string{"status": "invalid_status"})
		}
	}
	badParam := func(name string) error {
		return apperr.New(apperr.Validation, "invalid_filter").
			WithFields(map[string]string{name: "invalid_value"})
	}
	if v := q.Get("dateFrom"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c, badParam("dateFrom")
		}
		c.DateFrom = &t
	}
	if v := q.Get("dateTo"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c, badParam("dateTo")
		}
		c.DateTo = &t
	}
	if v := q.Get("minAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c, badParam("minAmount")
		}
		c.MinAmount = &d
	}
	if v := q.Get("maxAmount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c, badParam("maxAmount")
		}
		c.MaxAmount = &d
	}
	return c, nil
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	c, err := parseCriteria(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	items, empty, err := h.Svc.ListSummaries(r.Context(), uid, c)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":       items,
		"total":       len(items),
		"empty_state": empty,
	})
}

// createReq mirrors the submitted draft shape so the endpoint can also
// serve clients that build the invoice in one request.
type createReq struct {
	InvoiceType   string `json:"invoice_type"`
	InvoiceNumber string `json:"invoice_number"`
	Reference     string `json:"reference"`
	IssuedBy      string `json:"issued_by"`
	IssueDate     string `json:"issue_date"`
	DueDate       string `json:"due_date"`
	Notes         string `json:"notes"`

	Supplier draft.Party `json:"supplier"`
	Client   draft.Party `json:"client"`

	Items []struct {
		Description string          `json:"description"`
		Quantity    decimal.Decimal `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		TaxRate     decimal.Decimal `json:"tax_rate"`
	} `json:"items"`

	Settings draft.Settings `json:"settings"`
}

func (h *InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req createReq
	if !decodeJSON(w, r, &req) {
		return
	}

	snap := draft.Snapshot{
		OwnerID:       uid,
		InvoiceType:   req.InvoiceType,
		InvoiceNumber: req.InvoiceNumber,
		Reference:     req.Reference,
		IssuedBy:      req.IssuedBy,
		Notes:         req.Notes,
		Supplier:      req.Supplier,
		Client:        req.Client,
		Settings:      req.Settings,
	}
	if snap.InvoiceType == "" {
		snap.InvoiceType = "invoice"
	}
	if snap.Settings.Currency == "" {
		snap.Settings.Currency = "USD"
	}
	if snap.Settings.PaymentMethod == "" {
		snap.Settings.PaymentMethod = "bank"
	}

	v := map[string]string{}
	parse := func(field, value string, dst *time.Time, def time.Time) {
		if value == "" {
			*dst = def
			return
		}
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			v[field] = "invalid_date"
			return
		}
		*dst = t
	}
	now := time.Now()
	parse("issue_date", req.IssueDate, &snap.IssueDate, now)
	parse("due_date", req.DueDate, &snap.DueDate, now.AddDate(0, 0, 14))

	if req.InvoiceNumber == "" {
		v["invoiceNumber"] = "required"
	}
	if req.IssuedBy == "" {
		v["issuedBy"] = "required"
	}
	if req.Client.Name == "" {
		v["client.name"] = "required"
	}
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.Description) == "" {
			v["items."+fmt.Sprint(i)+".description"] = "required"
		}
		snap.Items = append(snap.Items, draft.Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	if len(v) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	id, err := h.Svc.CreateInvoice(r.Context(), snap)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoiceResponse(inv))
}

func (h *InvoiceHandler) delete(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *InvoiceHandler) status(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.Svc.UpdateStatus(r.Context(), uid, id, req.Status)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"id": inv.ID, "status": inv.Status})
}

func (h *InvoiceHandler) pdf(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	data, err := pdfgen.InvoicePDF(invoicePDFData(inv))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+inv.InvoiceNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// events streams invoice lifecycle changes as server-sent events until
// the client disconnects.
func (h *InvoiceHandler) events(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.JSONError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}
	ch, cancel := h.Bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				return
			}
			if e.OwnerID != uid {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: {\"invoice_id\":%q,\"status\":%q}\n\n",
				e.Type, e.InvoiceID, e.Status)
			flusher.Flush()
		}
	}
}

func invoiceResponse(inv *models.Invoice) map[string]any {
	items := make([]map[string]any, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]any{
			"id":          it.ID,
			"description": it.Description,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice,
			"tax_rate":    it.TaxRate,
			"total":       it.Total,
		})
	}
	return map[string]any{
		"id":             inv.ID,
		"invoice_type":   inv.InvoiceType,
		"invoice_number": inv.InvoiceNumber,
		"issued_by":      inv.IssuedBy,
		"issue_date":     inv.IssueDate,
		"due_date":       inv.DueDate,
		"currency":       inv.Currency,
		"status":         inv.Status,
		"display_status": string(lifecycle.DisplayStatus(lifecycle.Status(inv.Status), inv.DueDate, time.Now())),
		"total_amount":   inv.TotalAmount,
		"notes":          inv.Notes,
		"supplier": map[string]string{
			"name": inv.SupplierName, "ico": inv.SupplierICO, "dic": inv.SupplierDIC,
			"address": inv.SupplierAddress, "city": inv.SupplierCity, "zip": inv.SupplierZip,
		},
		"client": map[string]string{
			"name": inv.ClientName, "ico": inv.ClientICO, "dic": inv.ClientDIC,
			"address": inv.ClientAddress, "city": inv.ClientCity, "zip": inv.ClientZip,
		},
		"items": items,
		"settings": map[string]any{
			"payment_method":      inv.Settings.PaymentMethod,
			"bank_account":        inv.Settings.BankAccount,
			"routing_number":      inv.Settings.RoutingNumber,
			"constant_symbol":     inv.Settings.ConstantSymbol,
			"specific_symbol":     inv.Settings.SpecificSymbol,
			"show_iban":           inv.Settings.ShowIBAN,
			"language":            inv.Settings.Language,
			"color":               inv.Settings.Color,
			"style":               inv.Settings.Style,
			"rounding":            inv.Settings.Rounding,
			"reference":           inv.Settings.Reference,
			"trade_register_info": inv.Settings.TradeRegisterInfo,
		},
	}
}

func invoicePDFData(inv *models.Invoice) pdfgen.InvoiceData {
	lang := inv.Settings.Language
	if !i18n.Supported(lang) {
		lang = "en"
	}
	cur := inv.Currency

	items := make([]pdfgen.Item, 0, len(inv.Items))
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, it := range inv.Items {
		a := money.Compute(money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate})
		subtotal = subtotal.Add(a.Subtotal)
		taxTotal = taxTotal.Add(a.Tax)
		items = append(items, pdfgen.Item{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   i18n.FormatAmountOrFallback(it.UnitPrice, cur, lang),
			TaxRate:     it.TaxRate.String() + " %",
			Total:       i18n.FormatAmountOrFallback(it.Total, cur, lang),
		})
	}

	return pdfgen.InvoiceData{
		Title:         i18n.T(lang, "invoice"),
		InvoiceNumber: inv.InvoiceNumber,
		Reference:     inv.Settings.Reference,
		IssueDate:     i18n.FormatDate(inv.IssueDate, lang),
		DueDate:       i18n.FormatDate(inv.DueDate, lang),
		Supplier: pdfgen.Party{
			Name: inv.SupplierName, ICO: inv.SupplierICO, DIC: inv.SupplierDIC,
			Address: inv.SupplierAddress, City: inv.SupplierCity, Zip: inv.SupplierZip,
		},
		Client: pdfgen.Party{
			Name: inv.ClientName, ICO: inv.ClientICO, DIC: inv.ClientDIC,
			Address: inv.ClientAddress, City: inv.ClientCity, Zip: inv.ClientZip,
		},
		Items:         items,
		Subtotal:      i18n.FormatAmountOrFallback(money.Round2(subtotal), cur, lang),
		TaxTotal:      i18n.FormatAmountOrFallback(money.Round2(taxTotal), cur, lang),
		GrandTotal:    i18n.FormatAmountOrFallback(inv.TotalAmount, cur, lang),
		PaymentMethod: i18n.T(lang, "payment_method_"+inv.Settings.PaymentMethod),
		BankAccount:   inv.Settings.BankAccount,
		Notes:         inv.Notes,
		AccentColor:   inv.Settings.Color,
		Labels:        i18n.Labels(lang),
	}
}

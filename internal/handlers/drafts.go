package handlers

import (
	"net/http"
	"strconv"

	"github.com/fakturio/fakturio/internal/draft"
	"github.com/fakturio/fakturio/internal/httpx"
	"github.com/fakturio/fakturio/internal/i18n"
	"github.com/fakturio/fakturio/internal/money"
	pdfgen "github.com/fakturio/fakturio/internal/pdf"
	"github.com/fakturio/fakturio/internal/services"
)

type DraftHandler struct {
	Store     *draft.Store
	Invoices  *services.InvoiceService
	Suppliers *services.SupplierService
}

func NewDraftHandler(store *draft.Store, inv *services.InvoiceService, sup *services.SupplierService) *DraftHandler {
	return &DraftHandler{Store: store, Invoices: inv, Suppliers: sup}
}

func (h *DraftHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/drafts", h.create)
	mux.HandleFunc("/drafts/get", h.get)
	mux.HandleFunc("/drafts/discard", h.discard)
	mux.HandleFunc("/drafts/items/add", h.addItem)
	mux.HandleFunc("/drafts/items/update", h.updateItem)
	mux.HandleFunc("/drafts/items/remove", h.removeItem)
	mux.HandleFunc("/drafts/field", h.field)
	mux.HandleFunc("/drafts/submit", h.submit)
	mux.HandleFunc("/drafts/pdf", h.pdf)
}

// create opens a fresh draft, prefilled from the user's default supplier
// when one exists.
func (h *DraftHandler) create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	d := h.Store.Create(uid)
	if sup, err := h.Suppliers.Default(r.Context(), uid); err == nil && sup != nil {
		for path, value := range map[string]string{
			"supplier.name":    sup.Name,
			"supplier.ico":     sup.ICO,
			"supplier.dic":     sup.DIC,
			"supplier.address": sup.Address,
			"supplier.city":    sup.City,
			"supplier.zip":     sup.Zip,
			"issuedBy":         sup.Name,
		} {
			if value != "" {
				_, _ = d.UpdateField(path, value)
			}
		}
		if sup.BankAccount != "" {
			_, _ = d.UpdateField("settings.bankAccount", sup.BankAccount)
		}
		if sup.TradeRegisterInfo != "" {
			_, _ = d.UpdateField("settings.tradeRegisterInfo", sup.TradeRegisterInfo)
		}
	}
	httpx.JSON(w, http.StatusCreated, d.Snapshot())
}

func (h *DraftHandler) load(w http.ResponseWriter, r *http.Request) (*draft.Draft, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}
	id, ok := queryID(w, r)
	if !ok {
		return nil, false
	}
	d, err := h.Store.Get(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return nil, false
	}
	return d, true
}

func (h *DraftHandler) get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, d.Snapshot())
}

func (h *DraftHandler) discard(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Store.Discard(uid, id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func (h *DraftHandler) addItem(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	snap, err := d.AddItem()
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func itemIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_index", nil)
		return 0, false
	}
	return idx, true
}

func (h *DraftHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	idx, ok := itemIndex(w, r)
	if !ok {
		return
	}
	var patch draft.ItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	snap, err := d.UpdateItem(idx, patch)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *DraftHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	idx, ok := itemIndex(w, r)
	if !ok {
		return
	}
	snap, err := d.RemoveItem(idx)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *DraftHandler) field(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	var req struct {
		Path  string `json:"path"`
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := d.UpdateField(req.Path, req.Value)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *DraftHandler) submit(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	id, err := d.Submit(r.Context(), h.Invoices)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	// the aggregate is persisted; drop the frozen draft
	_ = h.Store.Discard(d.OwnerID(), d.ID())
	httpx.JSON(w, http.StatusCreated, map[string]string{"invoice_id": id})
}

// pdf exports a preview of the draft as it stands; the draft stays
// editable.
func (h *DraftHandler) pdf(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	snap := d.Snapshot()
	data, err := pdfgen.InvoicePDF(draftPDFData(snap))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	name := snap.InvoiceNumber
	if name == "" {
		name = "draft"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+name+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func draftPDFData(snap draft.Snapshot) pdfgen.InvoiceData {
	lang := snap.Settings.Language
	if !i18n.Supported(lang) {
		lang = "en"
	}
	cur := snap.Settings.Currency

	items := make([]pdfgen.Item, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, pdfgen.Item{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   i18n.FormatAmountOrFallback(it.UnitPrice, cur, lang),
			TaxRate:     it.TaxRate.String() + " %",
			Total:       i18n.FormatAmountOrFallback(money.Round2(it.Total), cur, lang),
		})
	}

	return pdfgen.InvoiceData{
		Title:         i18n.T(lang, "invoice"),
		InvoiceNumber: snap.InvoiceNumber,
		Reference:     snap.Reference,
		IssueDate:     i18n.FormatDate(snap.IssueDate, lang),
		DueDate:       i18n.FormatDate(snap.DueDate, lang),
		Supplier: pdfgen.Party{
			Name: snap.Supplier.Name, ICO: snap.Supplier.ICO, DIC: snap.Supplier.DIC,
			Address: snap.Supplier.Address, City: snap.Supplier.City, Zip: snap.Supplier.Zip,
		},
		Client: pdfgen.Party{
			Name: snap.Client.Name, ICO: snap.Client.ICO, DIC: snap.Client.DIC,
			Address: snap.Client.Address, City: snap.Client.City, Zip: snap.Client.Zip,
		},
		Items:         items,
		Subtotal:      i18n.FormatAmountOrFallback(money.Round2(snap.Totals.Subtotal), cur, lang),
		TaxTotal:      i18n.FormatAmountOrFallback(money.Round2(snap.Totals.TaxTotal), cur, lang),
		GrandTotal:    i18n.FormatAmountOrFallback(money.Round2(snap.Totals.GrandTotal), cur, lang),
		PaymentMethod: i18n.T(lang, "payment_method_"+snap.Settings.PaymentMethod),
		BankAccount:   snap.Settings.BankAccount,
		Notes:         snap.Notes,
		AccentColor:   snap.Settings.Color,
		Labels:        i18n.Labels(lang),
	}
}

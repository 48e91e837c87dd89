package handlers

import (
	"net/http"
	"strings"

	"github.com/fakturio/fakturio/internal/httpx"
	"github.com/fakturio/fakturio/internal/registry"
)

// CompanyHandler proxies the public business registry so the client app
// can prefill party details from a company identifier.
type CompanyHandler struct {
	Registry *registry.Client
}

func NewCompanyHandler(c *registry.Client) *CompanyHandler {
	return &CompanyHandler{Registry: c}
}

func (h *CompanyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/company/search", h.search)
}

func (h *CompanyHandler) search(w http.ResponseWriter, r *http.Request) {
	if _, ok := userID(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	info, err := h.Registry.Lookup(r.Context(), query)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

package handlers

import (
	"net/http"

	"github.com/fakturio/fakturio/internal/httpx"
	"github.com/fakturio/fakturio/internal/services"
)

type SupplierHandler struct {
	Svc *services.SupplierService
}

func NewSupplierHandler(svc *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{Svc: svc}
}

func (h *SupplierHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/suppliers", h.collection)
	mux.HandleFunc("/suppliers/update", h.update)
	mux.HandleFunc("/suppliers/delete", h.delete)
	mux.HandleFunc("/suppliers/default", h.setDefault)
}

func (h *SupplierHandler) collection(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		items, err := h.Svc.List(r.Context(), uid)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	case http.MethodPost:
		var in services.SupplierInput
		if !decodeJSON(w, r, &in) {
			return
		}
		sup, err := h.Svc.Create(r.Context(), uid, in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, sup)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *SupplierHandler) update(w http.ResponseWriter, r *http.Request) {
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
	var in services.SupplierInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sup, err := h.Svc.Update(r.Context(), uid, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

func (h *SupplierHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (h *SupplierHandler) setDefault(w http.ResponseWriter, r *http.Request) {
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
	sup, err := h.Svc.SetDefault(r.Context(), uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

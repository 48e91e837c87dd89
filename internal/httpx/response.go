package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakturio/fakturio/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps an apperr kind to its HTTP status and writes the boundary
// form of err: code plus field details, never internal error text.
func Error(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	var details any
	if len(ae.Fields) > 0 {
		details = ae.Fields
	}
	JSONError(w, statusFor(kind), ae.Code, details)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.UnsupportedCurrency:
		return http.StatusBadRequest
	case apperr.AuthRequired:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

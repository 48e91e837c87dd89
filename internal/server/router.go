package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fakturio/fakturio/internal/auth"
	"github.com/fakturio/fakturio/internal/draft"
	"github.com/fakturio/fakturio/internal/handlers"
	"github.com/fakturio/fakturio/internal/httpx"
	"github.com/fakturio/fakturio/internal/lifecycle"
	"github.com/fakturio/fakturio/internal/logger"
	"github.com/fakturio/fakturio/internal/models"
	"github.com/fakturio/fakturio/internal/registry"
	"github.com/fakturio/fakturio/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()
	log := logger.WithComponent("http")

	// RequireAuth verifies the session's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid string) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	handlers.NewAuthHandler(db).Register(mux)

	bus := lifecycle.NewBus()
	invSvc := services.NewInvoiceService(db, bus, logger.WithComponent("invoices"))
	supSvc := services.NewSupplierService(db, logger.WithComponent("suppliers"))
	drafts := draft.NewStore()

	protected := http.NewServeMux()
	handlers.NewInvoiceHandler(invSvc, bus).Register(protected)
	handlers.NewSupplierHandler(supSvc).Register(protected)
	handlers.NewDraftHandler(drafts, invSvc, supSvc).Register(protected)
	handlers.NewCompanyHandler(registry.New()).Register(protected)
	for _, prefix := range []string{"/invoices", "/suppliers", "/drafts", "/company"} {
		mux.Handle(prefix, auth.RequireAuth(protected))
		mux.Handle(prefix+"/", auth.RequireAuth(protected))
	}

	return auth.Middleware(withRecover(withLogging(mux, log)))
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the logging wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

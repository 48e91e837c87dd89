package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fakturio/fakturio/internal/apperr"
)

func TestLookupMockCompany(t *testing.T) {
	// the well-known test identifier never hits the network
	c := New(WithBaseURL("http://127.0.0.1:0"))
	info, err := c.Lookup(context.Background(), "27273838")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if info.Name != "Test Company s.r.o." || info.DIC != "CZ27273838" {
		t.Fatalf("unexpected company %+v", info)
	}
	if info.City != "Praha" || info.Zip != "12000" {
		t.Fatalf("unexpected address %+v", info)
	}
}

func TestLookupEmptyQuery(t *testing.T) {
	c := New()
	_, err := c.Lookup(context.Background(), "")
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupParsesSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/12345678" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ico": "12345678",
			"obchodniJmeno": "Vzorová firma a.s.",
			"dic": "CZ12345678",
			"sidlo": {
				"nazevUlice": "Dlouhá",
				"cisloDomovni": 12,
				"cisloOrientacni": 3,
				"nazevObce": "Brno",
				"psc": 60200
			}
		}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	info, err := c.Lookup(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if info.Name != "Vzorová firma a.s." {
		t.Fatalf("name = %q", info.Name)
	}
	if info.Address != "Dlouhá 12/3" {
		t.Fatalf("address = %q", info.Address)
	}
	if info.City != "Brno" || info.Zip != "60200" {
		t.Fatalf("city/zip = %q/%q", info.City, info.Zip)
	}
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "99999999")
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "11111111")
	if !apperr.IsKind(err, apperr.Upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestLookupTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := New(WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Lookup(context.Background(), "11111111")
	if !apperr.IsKind(err, apperr.Upstream) {
		t.Fatalf("expected upstream error on timeout, got %v", err)
	}
}

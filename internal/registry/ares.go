// Package registry looks up Czech company records in the ARES public
// register by IČO. The upstream is treated as unreliable: timeouts and
// non-200 responses surface as an upstream error the UI renders as a
// "search failed" state, never as a crash.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fakturio/fakturio/internal/apperr"
)

const defaultBaseURL = "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest/ekonomicke-subjekty"

// CompanyInfo is the normalized lookup result.
type CompanyInfo struct {
	ICO       string `json:"ico"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	DIC       string `json:"dic"`
	LegalForm string `json:"legalForm"`
}

type Client struct {
	http    *http.Client
	baseURL string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// mockICO short-circuits lookups for the well-known test identifier.
const mockICO = "27273838"

var mockCompany = CompanyInfo{
	ICO:       mockICO,
	Name:      "Test Company s.r.o.",
	Address:   "Testovací 123/45",
	City:      "Praha",
	Zip:       "12000",
	DIC:       "CZ27273838",
	LegalForm: "Společnost s ručením omezeným",
}

// aresSubject mirrors the upstream payload shape, loosely typed where
// the register is (psc arrives as a number).
type aresSubject struct {
	ICO           string `json:"ico"`
	ObchodniJmeno string `json:"obchodniJmeno"`
	DIC           string `json:"dic"`
	PravniForma   string `json:"pravniForma"`
	Sidlo         struct {
		NazevUlice      string      `json:"nazevUlice"`
		CisloDomovni    json.Number `json:"cisloDomovni"`
		CisloOrientacni json.Number `json:"cisloOrientacni"`
		NazevObce       string      `json:"nazevObce"`
		PSC             json.Number `json:"psc"`
		TextovaAdresa   string      `json:"textovaAdresa"`
	} `json:"sidlo"`
}

// Lookup fetches the company record for ico.
func (c *Client) Lookup(ctx context.Context, ico string) (*CompanyInfo, error) {
	if ico == "" {
		return nil, apperr.New(apperr.Validation, "query_required")
	}
	if ico == mockICO {
		m := mockCompany
		return &m, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ico, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "search_failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "search_failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperr.New(apperr.NotFound, "company_not_found")
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Wrap(apperr.Upstream, "search_failed",
			fmt.Errorf("ares status %d", resp.StatusCode))
	}

	var subj aresSubject
	if err := json.NewDecoder(resp.Body).Decode(&subj); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "search_failed", err)
	}

	street := subj.Sidlo.NazevUlice
	house := subj.Sidlo.CisloDomovni.String()
	address := subj.Sidlo.TextovaAdresa
	if street != "" && house != "" && house != "0" {
		address = street + " " + house
		if o := subj.Sidlo.CisloOrientacni.String(); o != "" && o != "0" {
			address += "/" + o
		}
	}
	zip := subj.Sidlo.PSC.String()
	if zip == "0" {
		zip = ""
	}

	return &CompanyInfo{
		ICO:       subj.ICO,
		Name:      subj.ObchodniJmeno,
		Address:   address,
		City:      subj.Sidlo.NazevObce,
		Zip:       zip,
		DIC:       subj.DIC,
		LegalForm: subj.PravniForma,
	}, nil
}

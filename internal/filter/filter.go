// Package filter evaluates list criteria over invoice summaries. It is a
// pure function of its inputs; absence of a criterion imposes no
// constraint and all provided criteria combine with AND semantics.
package filter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturio/fakturio/internal/models"
)

// StatusAll disables the status criterion, as does an empty string.
const StatusAll = "all"

type Criteria struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (c Criteria) matches(s models.InvoiceSummary) bool {
	issued := day(s.IssueDate)
	if c.DateFrom != nil && issued.Before(day(*c.DateFrom)) {
		return false
	}
	if c.DateTo != nil && issued.After(day(*c.DateTo)) {
		return false
	}
	if c.Status != "" && c.Status != StatusAll {
		// match against the derived display status so "overdue" works
		status := s.DisplayStatus
		if status == "" {
			status = s.Status
		}
		if status != c.Status {
			return false
		}
	}
	if c.MinAmount != nil && s.TotalAmount.LessThan(*c.MinAmount) {
		return false
	}
	if c.MaxAmount != nil && s.TotalAmount.GreaterThan(*c.MaxAmount) {
		return false
	}
	return true
}

// Apply returns the summaries matching c, preserving order.
func Apply(all []models.InvoiceSummary, c Criteria) []models.InvoiceSummary {
	out := make([]models.InvoiceSummary, 0, len(all))
	for _, s := range all {
		if c.matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// EmptyState distinguishes "no invoices at all" from "no matches after
// filtering" so callers can render different empty-state messaging.
type EmptyState string

const (
	EmptyNone       EmptyState = ""
	EmptyNoInvoices EmptyState = "no_invoices"
	EmptyNoMatches  EmptyState = "no_matches"
)

func Empty(input, output []models.InvoiceSummary) EmptyState {
	if len(input) == 0 {
		return EmptyNoInvoices
	}
	if len(output) == 0 {
		return EmptyNoMatches
	}
	return EmptyNone
}

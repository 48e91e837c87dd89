// Package lifecycle owns invoice status transitions and the in-process
// event bus that keeps open list views consistent after a status change
// or deletion.
package lifecycle

import (
	"time"

	"github.com/fakturio/fakturio/internal/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusCanceled Status = "canceled"
	// StatusOverdue is a display-only derivation, never stored.
	StatusOverdue Status = "overdue"
)

// ValidStatus reports whether s is a storable boundary value.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusCanceled:
		return true
	}
	return false
}

// Transition validates from -> to. Same-state transitions are idempotent
// no-ops. Paid and canceled are terminal; there is no paid -> pending path.
func Transition(from, to Status) error {
	if from == to {
		return nil
	}
	if from == StatusPending && (to == StatusPaid || to == StatusCanceled) {
		return nil
	}
	return apperr.New(apperr.Validation, "invalid_status_transition").
		WithFields(map[string]string{"status": string(from) + "->" + string(to)})
}

// DisplayStatus derives the view status: a pending invoice past its due
// date shows as overdue. Computed once where summaries are built, so
// every view agrees.
func DisplayStatus(status Status, dueDate, now time.Time) Status {
	if status == StatusPending && dueDate.Before(now) {
		return StatusOverdue
	}
	return status
}

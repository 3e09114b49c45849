package model

import "strings"

// Canonical booking statuses. CONFIRMED and CHECKED-IN are two
// historical spellings of the same state and both normalize to
// CHECKED_IN on every boundary.
const (
	StatusPending   = "PENDING"
	StatusCheckedIn = "CHECKED_IN"
	StatusPaid      = "PAID"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

const (
	PaymentMethodCash      = "CASH"
	PaymentMethodPromptPay = "PROMPTPAY"
)

// OccupyingStatuses are the statuses that hold a room/date/slot against
// other bookings. PENDING only occupies while younger than the hold
// window, which callers enforce with a creation-time cutoff.
var OccupyingStatuses = []string{StatusPending, StatusCheckedIn, StatusPaid, StatusCompleted}

// confirmedOccupying is OccupyingStatuses minus PENDING, for queries
// that age-gate PENDING separately.
var ConfirmedOccupyingStatuses = []string{StatusCheckedIn, StatusPaid, StatusCompleted}

// ExpirableMethods are payment methods whose PENDING holds lapse after
// the abandonment window. Cash bookings are confirmed in person and
// never auto-expire.
var ExpirableMethods = []string{PaymentMethodPromptPay}

// NormalizeStatus maps any accepted spelling onto a canonical status.
func NormalizeStatus(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusPending:
		return StatusPending, true
	case StatusCheckedIn, "CHECKED-IN", "CONFIRMED":
		return StatusCheckedIn, true
	case StatusPaid:
		return StatusPaid, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusRefunded:
		return StatusRefunded, true
	default:
		return "", false
	}
}

// NormalizePaymentMethod maps accepted payment method spellings onto
// canonical values. STRIPE is a legacy alias for PROMPTPAY.
func NormalizePaymentMethod(method string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case PaymentMethodCash:
		return PaymentMethodCash, true
	case PaymentMethodPromptPay, "STRIPE":
		return PaymentMethodPromptPay, true
	default:
		return "", false
	}
}

// IsTerminal reports whether a canonical status admits no further
// transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// IsOccupying reports whether a canonical status belongs to the
// occupying set.
func IsOccupying(status string) bool {
	for _, occupying := range OccupyingStatuses {
		if status == occupying {
			return true
		}
	}

	return false
}

// CanTransition reports whether the state machine permits moving a
// booking from one canonical status to another. Same-status moves are
// not transitions, callers treat those as idempotent no-ops.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}

	switch from {
	case StatusPending:
		return to == StatusCheckedIn || to == StatusPaid || to == StatusCancelled
	case StatusCheckedIn:
		return to == StatusPaid || to == StatusCancelled
	case StatusPaid:
		return to == StatusCompleted || to == StatusRefunded || to == StatusCancelled
	default:
		return false
	}
}

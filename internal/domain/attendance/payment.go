package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/event"
)

// PaidStatus is the payment state of a record.
type PaidStatus string

// Payment states.
const (
	PaidUnpaid   PaidStatus = "unpaid"
	PaidPending  PaidStatus = "pending"
	PaidPaid     PaidStatus = "paid"
	PaidRejected PaidStatus = "rejected"
)

// Decision is an admin verdict on a pending payment.
type Decision string

// Decisions.
const (
	DecisionConfirm Decision = "confirm"
	DecisionReject  Decision = "reject"
)

// Payment errors
var (
	ErrAlreadyPaid      = apperr.InvalidState("payment is already confirmed")
	ErrNotBillable      = apperr.InvalidState("payment can be marked once attendance has been confirmed")
	ErrNotPending       = apperr.InvalidState("payment is not awaiting confirmation")
	ErrInvalidDecision  = apperr.Validation("decision must be 'confirm' or 'reject'")
	ErrInvalidStatus    = apperr.Validation("unknown payment status")
	ErrNegativeOverride = apperr.Validation("fee due cannot be negative")
)

// ParsePaidStatus validates a stored or submitted status. Empty means unpaid.
func ParsePaidStatus(s string) (PaidStatus, error) {
	switch PaidStatus(s) {
	case "", PaidUnpaid:
		return PaidUnpaid, nil
	case PaidPending, PaidPaid, PaidRejected:
		return PaidStatus(s), nil
	}
	return "", ErrInvalidStatus
}

// Status returns the payment status with the empty value normalised.
func (r *Record) Status() PaidStatus {
	if r.PaidStatus == "" {
		return PaidUnpaid
	}
	return r.PaidStatus
}

// Billable reports whether the record counts toward payment totals.
// INVARIANT: billable iff an admin confirmed attendance
func (r *Record) Billable() bool {
	return r.Attended
}

// Outstanding reports a billable record still owing money. Rejected
// submissions owe money again but stay distinguishable as rejected.
func (r *Record) Outstanding() bool {
	if !r.Billable() {
		return false
	}
	s := r.Status()
	return s == PaidUnpaid || s == PaidRejected
}

// CheckSubmitPayment reports whether the profile may declare "I have paid".
// Membership-fee events have no attendance gate.
func (r *Record) CheckSubmitPayment(e event.Event) error {
	if r.Status() == PaidPaid {
		return ErrAlreadyPaid
	}
	if !e.IsMembershipFee() && !r.Billable() {
		return ErrNotBillable
	}
	return nil
}

// CanMarkPaid drives the profile-facing "mark paid" action.
func (r *Record) CanMarkPaid(e event.Event) bool {
	s := r.Status()
	return (s == PaidUnpaid || s == PaidRejected) && r.CheckSubmitPayment(e) == nil
}

// SubmitPayment moves unpaid or rejected to pending.
// PRE: caller is the owning profile or its parent
// POST: status pending; repeat while pending is a no-op; paid is terminal
func (r *Record) SubmitPayment(e event.Event, now time.Time) (changed bool, err error) {
	if err := r.CheckSubmitPayment(e); err != nil {
		return false, err
	}
	if r.Status() == PaidPending {
		return false, nil
	}
	r.PaidStatus = PaidPending
	r.PaymentMarkedAt = now
	r.UpdatedAt = now
	return true, nil
}

// Decide applies an admin verdict to a pending payment.
// PRE: caller is an admin
// POST: pending becomes paid or rejected; FeeDue and history are kept
func (r *Record) Decide(d Decision, now time.Time) error {
	var next PaidStatus
	switch d {
	case DecisionConfirm:
		next = PaidPaid
	case DecisionReject:
		next = PaidRejected
	default:
		return ErrInvalidDecision
	}
	if r.Status() != PaidPending {
		return ErrNotPending
	}
	r.PaidStatus = next
	r.PaymentConfirmedAt = now
	r.UpdatedAt = now
	return nil
}

// SetFeeDue sets or clears the admin fee override.
// PRE: caller is an admin
// POST: FeeDue is amount rounded to 2dp, or nil when amount is nil
func (r *Record) SetFeeDue(amount *decimal.Decimal, now time.Time) error {
	if amount != nil && amount.IsNegative() {
		return ErrNegativeOverride
	}
	if amount != nil {
		rounded := amount.Round(2)
		amount = &rounded
	}
	r.FeeDue = amount
	r.UpdatedAt = now
	return nil
}

package participation

import (
	"strings"
	"time"

	"clubhouse/internal/domain/apperr"
)

// Request status constants
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// MaxNoteLength bounds the free-text note on a request.
const MaxNoteLength = 500

// Domain errors
var (
	ErrEmptyEventID   = apperr.Validation("event id is required")
	ErrEmptyProfileID = apperr.Validation("profile id is required")
	ErrNoteTooLong    = apperr.Validation("note cannot exceed 500 characters")
	ErrAlreadyDecided = apperr.InvalidState("participation request has already been decided")
	ErrDuplicate      = apperr.InvalidState("a participation request is already pending for this event")
	ErrInvalidVerdict = apperr.Validation("decision must be 'approve' or 'reject'")
)

// Request asks an admin to let a profile attend after the self-service
// window has closed.
type Request struct {
	ID          string
	EventID     string
	ProfileID   string
	RequestedBy string // account that raised it (owner or parent)
	Note        string
	Status      string
	CreatedAt   time.Time
	DecidedBy   string
	DecidedAt   time.Time
}

// Validate checks the request's required fields.
// PRE: none
// POST: returns nil if valid
func (r *Request) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return ErrEmptyEventID
	}
	if strings.TrimSpace(r.ProfileID) == "" {
		return ErrEmptyProfileID
	}
	if len(r.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// IsPending reports whether an admin has yet to decide.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Decide records an admin verdict.
// PRE: approve is the admin's verdict; adminID is the deciding account
// POST: Status is approved or rejected; pending is the only legal source
func (r *Request) Decide(approve bool, adminID string, now time.Time) error {
	if !r.IsPending() {
		return ErrAlreadyDecided
	}
	if approve {
		r.Status = StatusApproved
	} else {
		r.Status = StatusRejected
	}
	r.DecidedBy = adminID
	r.DecidedAt = now
	return nil
}

// ParseVerdict maps the wire verdict to approve/reject.
func ParseVerdict(s string) (approve bool, err error) {
	switch s {
	case "approve":
		return true, nil
	case "reject":
		return false, nil
	}
	return false, ErrInvalidVerdict
}

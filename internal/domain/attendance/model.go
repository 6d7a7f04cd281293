package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/profile"
)

// Attending is a profile's stated intention for an event.
type Attending string

// Attending values. The zero value means the profile has not answered.
const (
	AttendingUnset Attending = ""
	AttendingYes   Attending = "yes"
	AttendingNo    Attending = "no"
)

// Domain errors
var (
	ErrInvalidAttending = apperr.Validation("attending must be 'yes' or 'no'")
	ErrWindowClosed     = apperr.InvalidState("attendance for this event is closed")
	ErrCutoffPassed     = apperr.InvalidState("attendance closed 48 hours before net practice; request participation instead")
	ErrEventCancelled   = apperr.InvalidState("event has been cancelled")
	ErrBirthDateMissing = apperr.InvalidState("a birth date is needed to check age eligibility")
)

// EligibilityError rejects a child outside the event's age range.
type EligibilityError struct {
	Name  string
	Age   int
	Range string
}

// Error implements error.
func (e *EligibilityError) Error() string {
	return fmt.Sprintf("%s is %d and this event is for ages %s", e.Name, e.Age, e.Range)
}

// Unwrap classifies the error as an invalid state transition.
func (e *EligibilityError) Unwrap() error {
	return apperr.ErrInvalidState
}

// Record is the single fact per (event, profile): intention, admin-confirmed
// presence and payment status. Created lazily on first action, never deleted.
type Record struct {
	EventID             string
	ProfileID           string
	Attending           Attending
	Attended            bool // admin-confirmed presence
	PaidStatus          PaidStatus
	FeeDue              *decimal.Decimal // admin override of the computed fee
	AttendingMarkedAt   time.Time
	AttendedConfirmedAt time.Time
	PaymentMarkedAt     time.Time
	PaymentConfirmedAt  time.Time
	UpdatedAt           time.Time
	Version             int // storage revision the record was read at; 0 when never stored
}

// NewRecord returns the implicit record for a pair that has no stored document.
func NewRecord(eventID, profileID string) Record {
	return Record{EventID: eventID, ProfileID: profileID, PaidStatus: PaidUnpaid}
}

// Exists reports whether the record carries any fact. A record with no
// intention and no admin-set fields does not exist for visibility purposes.
func (r *Record) Exists() bool {
	return r.Attending != AttendingUnset ||
		r.Attended ||
		(r.Status() != PaidUnpaid) ||
		r.FeeDue != nil
}

// IsGoing reports attending=yes.
func (r *Record) IsGoing() bool {
	return r.Attending == AttendingYes
}

// Guard carries what the attendance window and age checks need.
// Profile is nil when the profile document is not materialized.
type Guard struct {
	Now     time.Time
	Event   event.Event
	Profile *profile.Profile
}

// CheckAttending runs the transition guards without mutating the record.
// PRE: value is yes or no
// POST: nil if the self-service transition is legal at g.Now
func CheckAttending(value Attending, g Guard) error {
	if value != AttendingYes && value != AttendingNo {
		return ErrInvalidAttending
	}
	if g.Event.Cancelled {
		return ErrEventCancelled
	}
	if !g.Event.IsWindowOpen(g.Now) {
		if g.Event.CanRequestParticipation(g.Now) {
			return ErrCutoffPassed
		}
		return ErrWindowClosed
	}
	if value == AttendingYes && g.Profile != nil {
		return CheckEligibility(g.Event, *g.Profile, g.Now)
	}
	return nil
}

// CheckEligibility applies the age range of e to child profiles at now.
// Adults and events without a range always pass.
func CheckEligibility(e event.Event, p profile.Profile, now time.Time) error {
	if !p.IsChild() || !e.HasAgeRange() {
		return nil
	}
	age, ok := p.AgeAt(now)
	if !ok {
		return ErrBirthDateMissing
	}
	if !e.AgeEligible(age) {
		return &EligibilityError{Name: p.Name, Age: age, Range: e.AgeRangeLabel()}
	}
	return nil
}

// SetAttending applies a self-service intention change.
// PRE: caller is the owning profile or a parent of the child profile
// POST: Attending updated; Attended is never touched; repeat is a no-op
func (r *Record) SetAttending(value Attending, g Guard) (changed bool, err error) {
	if err := CheckAttending(value, g); err != nil {
		return false, err
	}
	if r.Attending == value {
		return false, nil
	}
	r.Attending = value
	r.AttendingMarkedAt = g.Now
	r.UpdatedAt = g.Now
	return true, nil
}

// ForceAttending sets the intention without the window guard. Used only when
// an admin approves a participation request.
// PRE: caller is an admin
// POST: Attending is yes
func (r *Record) ForceAttending(value Attending, now time.Time) (changed bool, err error) {
	if value != AttendingYes && value != AttendingNo {
		return false, ErrInvalidAttending
	}
	if r.Attending == value {
		return false, nil
	}
	r.Attending = value
	r.AttendingMarkedAt = now
	r.UpdatedAt = now
	return true, nil
}

// SetAttended records admin-confirmed presence.
// PRE: caller is an admin
// POST: Attended updated; payment fields untouched
func (r *Record) SetAttended(value bool, now time.Time) (changed bool) {
	if r.Attended == value {
		return false
	}
	r.Attended = value
	r.AttendedConfirmedAt = now
	r.UpdatedAt = now
	return true
}

// Package lifecycle evaluates one (event, profile) attendance fact into the
// view every read path renders. All annotation of events for a profile goes
// through Evaluate so the window, age and billing rules are applied once.
package lifecycle

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/fee"
	"clubhouse/internal/domain/profile"
)

// Fact is everything known about one (event, profile) pair.
// Record is the implicit record when nothing has been stored yet.
type Fact struct {
	Event   event.Event
	Profile profile.Profile
	Record  attendance.Record
}

// NewFact builds a fact, substituting the implicit record when rec is nil.
func NewFact(e event.Event, p profile.Profile, rec *attendance.Record) Fact {
	f := Fact{Event: e, Profile: p}
	if rec != nil {
		f.Record = *rec
	} else {
		f.Record = attendance.NewRecord(e.ID, p.ID)
	}
	return f
}

// View is the profile-facing state of a fact at a given instant.
type View struct {
	EventID   string
	ProfileID string

	Visible      bool
	Attending    attendance.Attending
	Attended     bool
	PaidStatus   attendance.PaidStatus
	WindowOpen   bool
	CloseTime    time.Time
	CanToggleYes bool
	CanToggleNo  bool
	// CanRequestParticipation is set inside the net-practice cutoff.
	CanRequestParticipation bool
	// EligibilityMessage explains why attending=yes would be refused.
	EligibilityMessage string

	AmountDue   decimal.Decimal
	FeeOverride bool
	Billable    bool
	Outstanding bool
	CanMarkPaid bool
}

// Evaluate computes the view of f at now.
// PRE: f.Record belongs to f.Event and f.Profile
// POST: pure; f is not modified
func Evaluate(f Fact, now time.Time) View {
	e, p, r := f.Event, f.Profile, f.Record
	v := View{
		EventID:     e.ID,
		ProfileID:   p.ID,
		Visible:     event.VisibleTo(e, p),
		Attending:   r.Attending,
		Attended:    r.Attended,
		PaidStatus:  r.Status(),
		WindowOpen:  !e.Cancelled && e.IsWindowOpen(now),
		CloseTime:   e.CloseTime(),
		AmountDue:   fee.AmountDue(r.FeeDue, fee.InputFor(e, p)),
		FeeOverride: r.FeeDue != nil,
		Billable:    r.Billable(),
		Outstanding: r.Outstanding(),
		CanMarkPaid: r.CanMarkPaid(e),
	}

	g := attendance.Guard{Now: now, Event: e, Profile: &p}
	yesErr := attendance.CheckAttending(attendance.AttendingYes, g)
	v.CanToggleYes = yesErr == nil && r.Attending != attendance.AttendingYes
	v.CanToggleNo = attendance.CheckAttending(attendance.AttendingNo, g) == nil && r.Attending != attendance.AttendingNo
	v.CanRequestParticipation = e.CanRequestParticipation(now) && r.Attending != attendance.AttendingYes

	var elig *attendance.EligibilityError
	if errors.As(yesErr, &elig) || errors.Is(yesErr, attendance.ErrBirthDateMissing) {
		v.EligibilityMessage = apperr.Reason(yesErr)
	}
	return v
}

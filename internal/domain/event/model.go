package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/profile"
)

// Event kinds.
const (
	KindNetPractice   = "net-practice"
	KindLeagueMatch   = "league-match"
	KindFriendlyMatch = "friendly-match"
	KindFamilyEvent   = "family-event"
	KindSocial        = "social"
	KindMembershipFee = "membership-fee"
)

// ValidKinds contains all valid event kinds.
var ValidKinds = []string{KindNetPractice, KindLeagueMatch, KindFriendlyMatch, KindFamilyEvent, KindSocial, KindMembershipFee}

// LegacyGroupAll opens a legacy event to every profile in its universe.
const LegacyGroupAll = "all"

// NetPracticeCutoff is how long before start a net-practice window closes.
const NetPracticeCutoff = 48 * time.Hour

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("event title cannot be empty")
	ErrTitleTooLong     = errors.New("event title cannot exceed 200 characters")
	ErrDescTooLong      = errors.New("event description cannot exceed 4000 characters")
	ErrInvalidKind      = errors.New("event kind is not recognised")
	ErrMissingStart     = errors.New("event start time is required")
	ErrNegativeFee      = errors.New("event fee cannot be negative")
	ErrInvalidAgeRange  = errors.New("event age range is invalid")
	ErrAlreadyStarted   = errors.New("event has already started and can no longer be edited")
	ErrAlreadyCancelled = errors.New("event is already cancelled")
)

// Event is a scheduled club activity that profiles attend and pay for.
// INVARIANT: Fee >= 0. AgeMin <= AgeMax when both are set.
type Event struct {
	ID           string
	Title        string
	Kind         string
	Description  string // markdown
	StartTime    time.Time
	Fee          decimal.Decimal
	TargetGroups []string
	LegacyGroup  string // superseded by TargetGroups
	IsChildEvent bool
	AgeMin       *int
	AgeMax       *int
	Cancelled    bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if !isValidKind(e.Kind) {
		return ErrInvalidKind
	}
	if e.StartTime.IsZero() {
		return ErrMissingStart
	}
	if e.Fee.IsNegative() {
		return ErrNegativeFee
	}
	if (e.AgeMin != nil && *e.AgeMin < 0) || (e.AgeMax != nil && *e.AgeMax < 0) {
		return ErrInvalidAgeRange
	}
	if e.AgeMin != nil && e.AgeMax != nil && *e.AgeMin > *e.AgeMax {
		return ErrInvalidAgeRange
	}
	return nil
}

// MembershipFeeDate returns the nominal start used for a year's membership fee.
func MembershipFeeDate(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// IsMembershipFee reports a membership-fee event.
func (e *Event) IsMembershipFee() bool {
	return e.Kind == KindMembershipFee
}

// HasStarted reports whether now is at or past the start time.
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartTime)
}

// CloseTime returns the instant the self-service attendance window closes.
// Net-practice events close NetPracticeCutoff before start; others at start.
func (e *Event) CloseTime() time.Time {
	if e.Kind == KindNetPractice {
		return e.StartTime.Add(-NetPracticeCutoff)
	}
	return e.StartTime
}

// IsWindowOpen reports whether profiles may still toggle attendance.
func (e *Event) IsWindowOpen(now time.Time) bool {
	return now.Before(e.CloseTime())
}

// CanRequestParticipation reports whether the exception path is offered:
// the window has closed by cutoff but the event has not started.
func (e *Event) CanRequestParticipation(now time.Time) bool {
	if e.Cancelled || e.IsWindowOpen(now) {
		return false
	}
	return now.Before(e.StartTime)
}

// HasAgeRange reports whether either age bound is declared.
func (e *Event) HasAgeRange() bool {
	return e.AgeMin != nil || e.AgeMax != nil
}

// AgeEligible reports whether age is within the declared range, inclusive.
func (e *Event) AgeEligible(age int) bool {
	if e.AgeMin != nil && age < *e.AgeMin {
		return false
	}
	if e.AgeMax != nil && age > *e.AgeMax {
		return false
	}
	return true
}

// AgeRangeLabel renders the declared range for messages.
func (e *Event) AgeRangeLabel() string {
	switch {
	case e.AgeMin != nil && e.AgeMax != nil:
		return fmt.Sprintf("%d-%d", *e.AgeMin, *e.AgeMax)
	case e.AgeMin != nil:
		return fmt.Sprintf("%d+", *e.AgeMin)
	case e.AgeMax != nil:
		return fmt.Sprintf("up to %d", *e.AgeMax)
	}
	return ""
}

// TargetsYouth reports whether any target group is a youth group.
func (e *Event) TargetsYouth() bool {
	for _, g := range e.TargetGroups {
		if profile.IsYouthGroup(g) {
			return true
		}
	}
	return false
}

// Edit carries the admin-editable fields. Nil fields are left unchanged.
type Edit struct {
	Title     *string
	Fee       *decimal.Decimal
	StartTime *time.Time
}

// ApplyEdit updates title, fee and start time.
// PRE: now is the current instant
// POST: fields updated and revalidated, or ErrAlreadyStarted once started
func (e *Event) ApplyEdit(edit Edit, now time.Time) error {
	if e.HasStarted(now) {
		return ErrAlreadyStarted
	}
	next := *e
	if edit.Title != nil {
		next.Title = *edit.Title
	}
	if edit.Fee != nil {
		next.Fee = *edit.Fee
	}
	if edit.StartTime != nil {
		next.StartTime = *edit.StartTime
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	*e = next
	return nil
}

// Cancel marks the event cancelled.
func (e *Event) Cancel(now time.Time) error {
	if e.Cancelled {
		return ErrAlreadyCancelled
	}
	e.Cancelled = true
	e.UpdatedAt = now
	return nil
}

func isValidKind(kind string) bool {
	for _, k := range ValidKinds {
		if kind == k {
			return true
		}
	}
	return false
}

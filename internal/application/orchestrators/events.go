package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/event"
)

// EventStore is the event persistence the admin commands need.
type EventStore interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
}

// CreateEventInput carries input for a new event.
type CreateEventInput struct {
	AdminID      string
	Title        string
	Kind         string
	Description  string
	StartTime    time.Time
	Year         int // membership-fee events only; derives StartTime
	Fee          decimal.Decimal
	TargetGroups []string
	IsChildEvent bool
	AgeMin       *int
	AgeMax       *int
}

// CreateEventDeps holds dependencies for CreateEvent.
type CreateEventDeps struct {
	Events     EventStore
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateEvent validates and stores a new event.
// PRE: caller is an admin
// POST: event persisted with a fresh ID; invalid input is a validation error
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (event.Event, error) {
	now := deps.Now()
	e := event.Event{
		ID:           deps.GenerateID(),
		Title:        input.Title,
		Kind:         input.Kind,
		Description:  input.Description,
		StartTime:    input.StartTime,
		Fee:          input.Fee,
		TargetGroups: input.TargetGroups,
		IsChildEvent: input.IsChildEvent,
		AgeMin:       input.AgeMin,
		AgeMax:       input.AgeMax,
		CreatedBy:    input.AdminID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if e.IsMembershipFee() && input.Year > 0 {
		e.StartTime = event.MembershipFeeDate(input.Year)
	}
	if err := e.Validate(); err != nil {
		return event.Event{}, classify(err, apperr.ErrValidation)
	}
	if err := deps.Events.Save(ctx, e); err != nil {
		return event.Event{}, err
	}
	slog.Info("event_event", "event", "created", "event_id", e.ID, "kind", e.Kind,
		"start", e.StartTime, "admin_id", input.AdminID)
	return e, nil
}

// EditEventInput carries admin edits. Nil fields are unchanged.
type EditEventInput struct {
	AdminID   string
	EventID   string
	Title     *string
	Fee       *decimal.Decimal
	StartTime *time.Time
}

// EditEventDeps holds dependencies for EditEvent and CancelEvent.
type EditEventDeps struct {
	Events EventStore
	Now    func() time.Time
}

// ExecuteEditEvent changes title, fee or start time before the event starts.
// PRE: caller is an admin
// POST: edit applied, or InvalidState once the event has started
func ExecuteEditEvent(ctx context.Context, input EditEventInput, deps EditEventDeps) (event.Event, error) {
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return event.Event{}, err
	}
	edit := event.Edit{Title: input.Title, Fee: input.Fee, StartTime: input.StartTime}
	if err := e.ApplyEdit(edit, deps.Now()); err != nil {
		if errors.Is(err, event.ErrAlreadyStarted) {
			return event.Event{}, classify(err, apperr.ErrInvalidState)
		}
		return event.Event{}, classify(err, apperr.ErrValidation)
	}
	if err := deps.Events.Save(ctx, e); err != nil {
		return event.Event{}, err
	}
	slog.Info("event_event", "event", "edited", "event_id", e.ID, "admin_id", input.AdminID)
	return e, nil
}

// ExecuteCancelEvent flags the event as cancelled. Records are kept.
// PRE: caller is an admin
// POST: event cancelled; a second cancel is InvalidState
func ExecuteCancelEvent(ctx context.Context, adminID, eventID string, deps EditEventDeps) (event.Event, error) {
	e, err := deps.Events.GetByID(ctx, eventID)
	if err != nil {
		return event.Event{}, err
	}
	if err := e.Cancel(deps.Now()); err != nil {
		return event.Event{}, classify(err, apperr.ErrInvalidState)
	}
	if err := deps.Events.Save(ctx, e); err != nil {
		return event.Event{}, err
	}
	slog.Info("event_event", "event", "cancelled", "event_id", e.ID, "admin_id", adminID)
	return e, nil
}

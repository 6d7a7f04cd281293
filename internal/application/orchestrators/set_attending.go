package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	storeAttendance "clubhouse/internal/adapters/storage/attendance"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
)

// ErrEventNotOpenToProfile is returned when the visibility filter hides the event.
var ErrEventNotOpenToProfile = apperr.Forbidden("this event is not open to this profile")

// ErrConcurrentChange asks the caller to reload after a lost compare-and-swap.
var ErrConcurrentChange = apperr.InvalidState("the record was changed by someone else; reload and try again")

// SetAttendingInput carries input for the self-service attendance toggle.
type SetAttendingInput struct {
	Actor     Actor
	EventID   string
	ProfileID string
	Attending string
}

// SetAttendingDeps holds dependencies for SetAttending.
type SetAttendingDeps struct {
	Events   EventReader
	Profiles ProfileLookup
	Records  RecordStore
	Now      func() time.Time
}

// ExecuteSetAttending records a profile's yes/no for an event.
// PRE: caller owns the profile or is its parent
// POST: record's Attending updated, Attended untouched; repeat is a no-op
func ExecuteSetAttending(ctx context.Context, input SetAttendingInput, deps SetAttendingDeps) (attendance.Record, error) {
	value := attendance.Attending(input.Attending)
	if value != attendance.AttendingYes && value != attendance.AttendingNo {
		return attendance.Record{}, attendance.ErrInvalidAttending
	}
	if input.EventID == "" {
		return attendance.Record{}, apperr.Validation("event id is required")
	}

	p, err := AuthorizeActor(ctx, input.Actor, input.ProfileID, deps.Profiles)
	if err != nil {
		return attendance.Record{}, err
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return attendance.Record{}, err
	}
	if p != nil && !event.VisibleTo(e, *p) {
		return attendance.Record{}, ErrEventNotOpenToProfile
	}

	rec, err := loadRecord(ctx, deps.Records, e.ID, input.ProfileID)
	if err != nil {
		return attendance.Record{}, err
	}
	changed, err := rec.SetAttending(value, attendance.Guard{Now: deps.Now(), Event: e, Profile: p})
	if err != nil {
		slog.Info("attendance_event", "event", "attending_rejected", "event_id", e.ID,
			"profile_id", input.ProfileID, "reason", apperr.Reason(err))
		return attendance.Record{}, err
	}
	if !changed {
		return rec, nil
	}
	if err := saveRecord(ctx, deps.Records, rec); err != nil {
		return attendance.Record{}, err
	}

	slog.Info("attendance_event", "event", "attending_set", "event_id", e.ID,
		"profile_id", input.ProfileID, "attending", string(value), "account_id", input.Actor.AccountID)
	return rec, nil
}

// saveRecord writes rec guarded on the revision it was read at.
func saveRecord(ctx context.Context, records RecordStore, rec attendance.Record) error {
	err := records.SaveIfUnchanged(ctx, rec)
	if errors.Is(err, storeAttendance.ErrConflict) {
		slog.Warn("attendance_event", "event", "write_conflict", "event_id", rec.EventID, "profile_id", rec.ProfileID)
		return ErrConcurrentChange
	}
	return err
}

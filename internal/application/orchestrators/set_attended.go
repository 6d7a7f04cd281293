package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
)

// SetAttendedInput carries an admin's presence confirmation.
type SetAttendedInput struct {
	AdminID   string
	EventID   string
	ProfileID string
	Attended  bool
}

// SetAttendedDeps holds dependencies for SetAttended.
type SetAttendedDeps struct {
	Events  EventReader
	Records RecordStore
	Now     func() time.Time
}

// ExecuteSetAttended confirms or clears a profile's presence at an event.
// PRE: caller is an admin
// POST: Attended updated; intention and payment fields untouched
func ExecuteSetAttended(ctx context.Context, input SetAttendedInput, deps SetAttendedDeps) (attendance.Record, error) {
	if input.EventID == "" || input.ProfileID == "" {
		return attendance.Record{}, apperr.Validation("event id and profile id are required")
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return attendance.Record{}, err
	}
	rec, err := loadRecord(ctx, deps.Records, e.ID, input.ProfileID)
	if err != nil {
		return attendance.Record{}, err
	}
	if !rec.SetAttended(input.Attended, deps.Now()) {
		return rec, nil
	}
	if err := saveRecord(ctx, deps.Records, rec); err != nil {
		return attendance.Record{}, err
	}
	slog.Info("attendance_event", "event", "attended_set", "event_id", e.ID,
		"profile_id", input.ProfileID, "attended", input.Attended, "admin_id", input.AdminID)
	return rec, nil
}

// MarkAllAttendedInput names the event whose "yes" list is confirmed.
type MarkAllAttendedInput struct {
	AdminID string
	EventID string
}

// MarkAllAttendedDeps holds dependencies for MarkAllAttended.
type MarkAllAttendedDeps struct {
	Events  EventReader
	Records RecordLister
	Now     func() time.Time
}

// ExecuteMarkAllAttended sets Attended on every record that said yes.
// PRE: caller is an admin
// POST: each failure is reported and the batch continues
func ExecuteMarkAllAttended(ctx context.Context, input MarkAllAttendedInput, deps MarkAllAttendedDeps) (BulkResult, error) {
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return BulkResult{}, err
	}
	records, err := deps.Records.ListByEvent(ctx, e.ID)
	if err != nil {
		return BulkResult{}, err
	}

	now := deps.Now()
	var result BulkResult
	for _, rec := range records {
		if !rec.IsGoing() {
			continue
		}
		if !rec.SetAttended(true, now) {
			continue
		}
		if err := saveRecord(ctx, deps.Records, rec); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{EventID: e.ID, ProfileID: rec.ProfileID, Reason: apperr.Reason(err)})
			continue
		}
		result.Updated++
	}

	slog.Info("attendance_event", "event", "mark_all_attended", "event_id", e.ID,
		"updated", result.Updated, "failed", result.Failed, "admin_id", input.AdminID)
	return result, nil
}

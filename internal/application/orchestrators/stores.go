package orchestrators

import (
	"context"

	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
)

// EventReader loads events for the lifecycle commands.
type EventReader interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// RecordStore reads and conditionally writes attendance records.
type RecordStore interface {
	Find(ctx context.Context, eventID, profileID string) (*attendance.Record, error)
	SaveIfUnchanged(ctx context.Context, rec attendance.Record) error
}

// RecordLister lists the records of one event for bulk admin actions.
type RecordLister interface {
	RecordStore
	ListByEvent(ctx context.Context, eventID string) ([]attendance.Record, error)
}

// BulkResult reports a continue-on-error batch.
type BulkResult struct {
	Updated int
	Failed  int
	Errors  []ItemError
}

// ItemError names one failed item in a batch.
type ItemError struct {
	EventID   string
	ProfileID string
	Reason    string
}

// loadRecord returns the stored record for the pair or the implicit one.
func loadRecord(ctx context.Context, records RecordStore, eventID, profileID string) (attendance.Record, error) {
	rec, err := records.Find(ctx, eventID, profileID)
	if err != nil {
		return attendance.Record{}, err
	}
	if rec == nil {
		return attendance.NewRecord(eventID, profileID), nil
	}
	return *rec, nil
}

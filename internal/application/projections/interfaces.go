package projections

import (
	"context"
	"time"

	domainAttendance "clubhouse/internal/domain/attendance"
	domainEvent "clubhouse/internal/domain/event"
	domainProfile "clubhouse/internal/domain/profile"
)

// ProfileStore interface for profile queries.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (domainProfile.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]domainProfile.Profile, error)
	ListActive(ctx context.Context) ([]domainProfile.Profile, error)
}

// EventStore interface for event queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (domainEvent.Event, error)
	ListByStartRange(ctx context.Context, from, to time.Time) ([]domainEvent.Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]domainEvent.Event, error)
}

// RecordStore interface for attendance record queries.
type RecordStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]domainAttendance.Record, error)
	ListByProfile(ctx context.Context, profileID string) ([]domainAttendance.Record, error)
}

// recordIndex keys records by event ID.
func recordIndex(records []domainAttendance.Record) map[string]*domainAttendance.Record {
	idx := make(map[string]*domainAttendance.Record, len(records))
	for i := range records {
		idx[records[i].EventID] = &records[i]
	}
	return idx
}

func profileIndex(profiles []domainProfile.Profile) map[string]domainProfile.Profile {
	idx := make(map[string]domainProfile.Profile, len(profiles))
	for _, p := range profiles {
		idx[p.ID] = p
	}
	return idx
}

func eventIndex(events []domainEvent.Event) map[string]domainEvent.Event {
	idx := make(map[string]domainEvent.Event, len(events))
	for _, e := range events {
		idx[e.ID] = e
	}
	return idx
}

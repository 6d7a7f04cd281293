package attendance

import (
	"context"
	"errors"

	domain "clubhouse/internal/domain/attendance"
)

// ErrConflict is returned by SaveIfUnchanged when the stored record has moved
// past the revision the caller read.
var ErrConflict = errors.New("attendance record was changed by someone else")

// Store persists attendance records keyed by (event, profile).
type Store interface {
	// Find returns nil, nil when no record has been written for the pair.
	Find(ctx context.Context, eventID, profileID string) (*domain.Record, error)
	Save(ctx context.Context, rec domain.Record) error
	SaveIfUnchanged(ctx context.Context, rec domain.Record) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Record, error)
	ListByProfile(ctx context.Context, profileID string) ([]domain.Record, error)
	ListByPaidStatus(ctx context.Context, status domain.PaidStatus) ([]domain.Record, error)
	ListOutstanding(ctx context.Context) ([]domain.Record, error)
}

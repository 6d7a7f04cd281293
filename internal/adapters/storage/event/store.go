package event

import (
	"context"
	"time"

	domain "clubhouse/internal/domain/event"
)

// Store persists Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	ListByStartRange(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Event, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit            int
	Offset           int
	IncludeCancelled bool
}

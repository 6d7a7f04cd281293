package participation

import (
	"context"

	domain "clubhouse/internal/domain/participation"
)

// Store persists participation requests.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)
	Save(ctx context.Context, value domain.Request) error
	// FindPending returns nil, nil when the pair has no open request.
	FindPending(ctx context.Context, eventID, profileID string) (*domain.Request, error)
	ListPending(ctx context.Context) ([]domain.Request, error)
}

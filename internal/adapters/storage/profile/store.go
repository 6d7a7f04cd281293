package profile

import (
	"context"

	domain "clubhouse/internal/domain/profile"
)

// Store persists Profile state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	ListByAccountID(ctx context.Context, accountID string) ([]domain.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error)
	ListActive(ctx context.Context) ([]domain.Profile, error)
}

package participation

import (
	"context"
	"database/sql"
	"fmt"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/domain/apperr"
	domain "clubhouse/internal/domain/participation"
)

const selectColumns = `SELECT id, event_id, profile_id, requested_by, note, status, created_at, decided_by, decided_at
	FROM participation_request`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new participation request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Request by its ID.
// PRE: id is non-empty
// POST: Returns the request or an apperr.ErrNotFound error
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Request{}, apperr.NotFound("participation request")
	}
	return r, err
}

// Save persists a Request (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, r domain.Request) error {
	var decidedBy any
	if r.DecidedBy != "" {
		decidedBy = r.DecidedBy
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO participation_request
		(id, event_id, profile_id, requested_by, note, status, created_at, decided_by, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			note=excluded.note, status=excluded.status,
			decided_by=excluded.decided_by, decided_at=excluded.decided_at`,
		r.ID, r.EventID, r.ProfileID, r.RequestedBy, r.Note, r.Status,
		storage.FormatTime(r.CreatedAt),
		decidedBy,
		storage.NullTime(r.DecidedAt),
	)
	return err
}

// FindPending returns the open request for (eventID, profileID), if any.
func (s *SQLiteStore) FindPending(ctx context.Context, eventID, profileID string) (*domain.Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		selectColumns+" WHERE event_id = ? AND profile_id = ? AND status = ? LIMIT 1",
		eventID, profileID, domain.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListPending returns open requests, oldest first.
func (s *SQLiteStore) ListPending(ctx context.Context) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE status = ? ORDER BY created_at", domain.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (domain.Request, error) {
	var r domain.Request
	var createdAt string
	var decidedBy, decidedAt sql.NullString
	if err := row.Scan(&r.ID, &r.EventID, &r.ProfileID, &r.RequestedBy, &r.Note, &r.Status,
		&createdAt, &decidedBy, &decidedAt); err != nil {
		return domain.Request{}, err
	}
	var err error
	if r.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Request{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.DecidedAt, err = storage.ParseNullTime(decidedAt); err != nil {
		return domain.Request{}, fmt.Errorf("failed to parse decided_at: %w", err)
	}
	r.DecidedBy = decidedBy.String
	return r, nil
}

package event

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/domain/apperr"
	domain "clubhouse/internal/domain/event"
)

const selectColumns = `SELECT id, title, kind, description, start_time, fee, target_groups, legacy_group,
	is_child_event, age_min, age_max, cancelled, created_by, created_at, updated_at FROM event`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the event or an apperr.ErrNotFound error
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return domain.Event{}, apperr.NotFound("event")
	}
	return e, err
}

// Save persists an Event (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	var ageMin, ageMax any
	if e.AgeMin != nil {
		ageMin = *e.AgeMin
	}
	if e.AgeMax != nil {
		ageMax = *e.AgeMax
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO event
		(id, title, kind, description, start_time, fee, target_groups, legacy_group,
		 is_child_event, age_min, age_max, cancelled, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, kind=excluded.kind, description=excluded.description,
			start_time=excluded.start_time, fee=excluded.fee, target_groups=excluded.target_groups,
			legacy_group=excluded.legacy_group, is_child_event=excluded.is_child_event,
			age_min=excluded.age_min, age_max=excluded.age_max, cancelled=excluded.cancelled,
			updated_at=excluded.updated_at`,
		e.ID, e.Title, e.Kind, e.Description,
		storage.FormatTime(e.StartTime),
		e.Fee.StringFixed(2),
		storage.JoinList(e.TargetGroups),
		e.LegacyGroup,
		storage.BoolToInt(e.IsChildEvent),
		ageMin, ageMax,
		storage.BoolToInt(e.Cancelled),
		e.CreatedBy,
		storage.FormatTime(e.CreatedAt),
		storage.NullTime(e.UpdatedAt),
	)
	return err
}

// ListByStartRange returns events starting in [from, to), cancelled included,
// ordered by start time.
// PRE: from <= to
// POST: Returns matching events
func (s *SQLiteStore) ListByStartRange(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	return s.query(ctx, selectColumns+" WHERE start_time >= ? AND start_time < ? ORDER BY start_time",
		storage.FormatTime(from), storage.FormatTime(to))
}

// ListByIDs returns the events with the given IDs; unknown IDs are skipped.
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return s.query(ctx, fmt.Sprintf("%s WHERE id IN (%s) ORDER BY start_time", selectColumns, strings.Join(placeholders, ",")), args...)
}

// List retrieves events newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	where := " WHERE cancelled = 0"
	if filter.IncludeCancelled {
		where = ""
	}
	return s.query(ctx, selectColumns+where+" ORDER BY start_time DESC LIMIT ? OFFSET ?", filter.Limit, filter.Offset)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.Event, error) {
	var e domain.Event
	var start, fee, groups, createdAt string
	var ageMin, ageMax sql.NullInt64
	var childEvent, cancelled int
	var updatedAt sql.NullString
	if err := row.Scan(&e.ID, &e.Title, &e.Kind, &e.Description, &start, &fee, &groups, &e.LegacyGroup,
		&childEvent, &ageMin, &ageMax, &cancelled, &e.CreatedBy, &createdAt, &updatedAt); err != nil {
		return domain.Event{}, err
	}

	var err error
	if e.StartTime, err = storage.ParseTime(start); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if e.UpdatedAt, err = storage.ParseNullTime(updatedAt); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if e.Fee, err = decimal.NewFromString(fee); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse fee: %w", err)
	}
	e.TargetGroups = storage.SplitList(groups)
	e.IsChildEvent = childEvent == 1
	e.Cancelled = cancelled == 1
	if ageMin.Valid {
		v := int(ageMin.Int64)
		e.AgeMin = &v
	}
	if ageMax.Valid {
		v := int(ageMax.Int64)
		e.AgeMax = &v
	}
	return e, nil
}

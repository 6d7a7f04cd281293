package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/attendance"
)

const selectColumns = `SELECT event_id, profile_id, attending, attended, paid_status, fee_due,
	attending_marked_at, attended_confirmed_at, payment_marked_at, payment_confirmed_at, updated_at, version
	FROM attendance_record`

const upsert = `INSERT INTO attendance_record
	(event_id, profile_id, attending, attended, paid_status, fee_due,
	 attending_marked_at, attended_confirmed_at, payment_marked_at, payment_confirmed_at, updated_at, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(event_id, profile_id) DO UPDATE SET
		attending=excluded.attending, attended=excluded.attended, paid_status=excluded.paid_status,
		fee_due=excluded.fee_due, attending_marked_at=excluded.attending_marked_at,
		attended_confirmed_at=excluded.attended_confirmed_at, payment_marked_at=excluded.payment_marked_at,
		payment_confirmed_at=excluded.payment_confirmed_at, updated_at=excluded.updated_at,
		version=attendance_record.version + 1`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance record store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Find retrieves the record for (eventID, profileID).
// PRE: both IDs are non-empty
// POST: Returns nil, nil when the pair has no stored record
func (s *SQLiteStore) Find(ctx context.Context, eventID, profileID string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE event_id = ? AND profile_id = ?", eventID, profileID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save merges the record into storage unconditionally, creating it on first write.
// PRE: rec.EventID and rec.ProfileID are set
// POST: the single row for the pair holds rec at the next revision
func (s *SQLiteStore) Save(ctx context.Context, rec domain.Record) error {
	_, err := s.db.ExecContext(ctx, upsert, recordArgs(rec, rec.Version+1)...)
	return err
}

// SaveIfUnchanged writes rec only if the stored row is still at rec.Version.
// A missing row counts as revision 0.
// PRE: rec was read through Find (or is a new record at Version 0)
// POST: rec written at Version+1, or ErrConflict and nothing written
func (s *SQLiteStore) SaveIfUnchanged(ctx context.Context, rec domain.Record) error {
	next := rec.Version + 1
	query := upsert + " WHERE attendance_record.version = ?"
	args := append(recordArgs(rec, next), rec.Version)

	if rec.Version > 0 {
		// A stored revision means the row must still exist.
		query = `UPDATE attendance_record SET
			attending = ?, attended = ?, paid_status = ?, fee_due = ?,
			attending_marked_at = ?, attended_confirmed_at = ?, payment_marked_at = ?,
			payment_confirmed_at = ?, updated_at = ?, version = ?
			WHERE event_id = ? AND profile_id = ? AND version = ?`
		full := recordArgs(rec, next)
		args = append(full[2:], rec.EventID, rec.ProfileID, rec.Version)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListByEvent returns every stored record for an event.
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Record, error) {
	return s.query(ctx, selectColumns+" WHERE event_id = ? ORDER BY profile_id", eventID)
}

// ListByProfile returns every stored record for a profile.
func (s *SQLiteStore) ListByProfile(ctx context.Context, profileID string) ([]domain.Record, error) {
	return s.query(ctx, selectColumns+" WHERE profile_id = ? ORDER BY event_id", profileID)
}

// ListByPaidStatus returns records in the given payment state.
func (s *SQLiteStore) ListByPaidStatus(ctx context.Context, status domain.PaidStatus) ([]domain.Record, error) {
	return s.query(ctx, selectColumns+" WHERE paid_status = ? ORDER BY payment_marked_at", string(status))
}

// ListOutstanding returns billable records still owing money.
// INVARIANT: mirrors Record.Outstanding; attended = 0 rows never appear
func (s *SQLiteStore) ListOutstanding(ctx context.Context) ([]domain.Record, error) {
	return s.query(ctx, selectColumns+" WHERE attended = 1 AND paid_status IN (?, ?) ORDER BY event_id, profile_id",
		string(domain.PaidUnpaid), string(domain.PaidRejected))
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func recordArgs(rec domain.Record, version int) []any {
	var feeDue any
	if rec.FeeDue != nil {
		feeDue = rec.FeeDue.StringFixed(2)
	}
	return []any{
		rec.EventID,
		rec.ProfileID,
		string(rec.Attending),
		storage.BoolToInt(rec.Attended),
		string(rec.Status()),
		feeDue,
		storage.NullTime(rec.AttendingMarkedAt),
		storage.NullTime(rec.AttendedConfirmedAt),
		storage.NullTime(rec.PaymentMarkedAt),
		storage.NullTime(rec.PaymentConfirmedAt),
		storage.NullTime(rec.UpdatedAt),
		version,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var rec domain.Record
	var attending, paid string
	var attended int
	var feeDue, attendingAt, attendedAt, paymentAt, confirmedAt, updatedAt sql.NullString
	if err := row.Scan(&rec.EventID, &rec.ProfileID, &attending, &attended, &paid, &feeDue,
		&attendingAt, &attendedAt, &paymentAt, &confirmedAt, &updatedAt, &rec.Version); err != nil {
		return domain.Record{}, err
	}
	rec.Attending = domain.Attending(attending)
	rec.Attended = attended == 1

	status, err := domain.ParsePaidStatus(paid)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse paid_status %q: %w", paid, err)
	}
	rec.PaidStatus = status

	if feeDue.Valid {
		d, err := decimal.NewFromString(feeDue.String)
		if err != nil {
			return domain.Record{}, fmt.Errorf("failed to parse fee_due: %w", err)
		}
		rec.FeeDue = &d
	}

	times := []struct {
		dst    *time.Time
		src    sql.NullString
		column string
	}{
		{&rec.AttendingMarkedAt, attendingAt, "attending_marked_at"},
		{&rec.AttendedConfirmedAt, attendedAt, "attended_confirmed_at"},
		{&rec.PaymentMarkedAt, paymentAt, "payment_marked_at"},
		{&rec.PaymentConfirmedAt, confirmedAt, "payment_confirmed_at"},
		{&rec.UpdatedAt, updatedAt, "updated_at"},
	}
	for _, f := range times {
		t, err := storage.ParseNullTime(f.src)
		if err != nil {
			return domain.Record{}, fmt.Errorf("failed to parse %s: %w", f.column, err)
		}
		*f.dst = t
	}
	return rec, nil
}

package account

import (
	"context"
	"database/sql"
	"fmt"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/account"
	"clubhouse/internal/domain/apperr"
)

const selectColumns = "SELECT id, email, password_hash, role, created_at, failed_logins, locked_until FROM account"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the account or an apperr.ErrNotFound error
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.get(ctx, selectColumns+" WHERE id = ?", id)
}

// GetByEmail retrieves an Account by its normalised email.
// PRE: email is non-empty
// POST: Returns the account or an apperr.ErrNotFound error
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.get(ctx, selectColumns+" WHERE email = ?", domain.NormalizeEmail(email))
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted with a normalised email
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO account (id, email, password_hash, role, created_at, failed_logins, locked_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email, password_hash=excluded.password_hash, role=excluded.role,
			failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`,
		a.ID,
		domain.NormalizeEmail(a.Email),
		a.PasswordHash,
		a.Role,
		storage.FormatTime(a.CreatedAt),
		a.FailedLogins,
		storage.NullTime(a.LockedUntil),
	)
	return err
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	return n, err
}

func (s *SQLiteStore) get(ctx context.Context, query string, arg string) (domain.Account, error) {
	var a domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &createdAt, &a.FailedLogins, &lockedUntil,
	)
	if err == sql.ErrNoRows {
		return domain.Account{}, apperr.NotFound("account")
	}
	if err != nil {
		return domain.Account{}, err
	}
	if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if a.LockedUntil, err = storage.ParseNullTime(lockedUntil); err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse locked_until: %w", err)
	}
	return a, nil
}

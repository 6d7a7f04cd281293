package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/domain/apperr"
	domain "clubhouse/internal/domain/profile"
)

const selectColumns = `SELECT id, account_id, name, kind, gender, has_payment_manager, legacy_group,
	membership_type, group_tags, birth_date, parent_ids, child_ids, status FROM profile`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Profile by its ID.
// PRE: id is non-empty
// POST: Returns the profile or an apperr.ErrNotFound error
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return domain.Profile{}, apperr.NotFound("profile")
	}
	return p, err
}

// Save persists a Profile (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, p domain.Profile) error {
	var accountID, birthDate any
	if p.AccountID != "" {
		accountID = p.AccountID
	}
	if !p.BirthDate.IsZero() {
		birthDate = p.BirthDate.Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO profile
		(id, account_id, name, kind, gender, has_payment_manager, legacy_group,
		 membership_type, group_tags, birth_date, parent_ids, child_ids, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id=excluded.account_id, name=excluded.name, kind=excluded.kind,
			gender=excluded.gender, has_payment_manager=excluded.has_payment_manager,
			legacy_group=excluded.legacy_group, membership_type=excluded.membership_type,
			group_tags=excluded.group_tags, birth_date=excluded.birth_date, parent_ids=excluded.parent_ids,
			child_ids=excluded.child_ids, status=excluded.status`,
		p.ID, accountID, p.Name, p.Kind, p.Gender,
		storage.BoolToInt(p.HasPaymentManager),
		p.LegacyGroup, p.MembershipType,
		storage.JoinList(p.Groups),
		birthDate,
		storage.JoinList(p.ParentIDs),
		storage.JoinList(p.ChildIDs),
		p.Status,
	)
	return err
}

// ListByAccountID returns the profiles owned by a login account.
func (s *SQLiteStore) ListByAccountID(ctx context.Context, accountID string) ([]domain.Profile, error) {
	return s.query(ctx, selectColumns+" WHERE account_id = ? ORDER BY name", accountID)
}

// ListByIDs returns the profiles with the given IDs; unknown IDs are skipped.
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return s.query(ctx, fmt.Sprintf("%s WHERE id IN (%s) ORDER BY name", selectColumns, strings.Join(placeholders, ",")), args...)
}

// ListActive returns every active profile, adults and children.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]domain.Profile, error) {
	return s.query(ctx, selectColumns+" WHERE status = ? ORDER BY name", domain.StatusActive)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (domain.Profile, error) {
	var p domain.Profile
	var accountID, birthDate sql.NullString
	var manager int
	var groups, parents, children string
	if err := row.Scan(&p.ID, &accountID, &p.Name, &p.Kind, &p.Gender, &manager, &p.LegacyGroup,
		&p.MembershipType, &groups, &birthDate, &parents, &children, &p.Status); err != nil {
		return domain.Profile{}, err
	}
	p.AccountID = accountID.String
	p.HasPaymentManager = manager == 1
	p.Groups = storage.SplitList(groups)
	p.ParentIDs = storage.SplitList(parents)
	p.ChildIDs = storage.SplitList(children)
	bd, err := storage.ParseNullTime(birthDate)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to parse birth_date: %w", err)
	}
	p.BirthDate = bd
	return p, nil
}

package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	statements  []string
}

// migrations is the ordered schema history. Never edit an applied step;
// append a new one.
var migrations = []migration{
	{
		version:     1,
		description: "baseline: accounts, profiles, events, attendance records",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS profile (
				id TEXT PRIMARY KEY,
				account_id TEXT,
				name TEXT NOT NULL,
				kind TEXT NOT NULL,
				gender TEXT NOT NULL DEFAULT '',
				has_payment_manager INTEGER NOT NULL DEFAULT 0,
				legacy_group TEXT NOT NULL DEFAULT '',
				membership_type TEXT NOT NULL DEFAULT '',
				group_tags TEXT NOT NULL DEFAULT '',
				birth_date TEXT,
				parent_ids TEXT NOT NULL DEFAULT '',
				child_ids TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_profile_account ON profile(account_id)`,
			`CREATE TABLE IF NOT EXISTS event (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				kind TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				start_time TEXT NOT NULL,
				fee TEXT NOT NULL DEFAULT '0',
				target_groups TEXT NOT NULL DEFAULT '',
				legacy_group TEXT NOT NULL DEFAULT '',
				is_child_event INTEGER NOT NULL DEFAULT 0,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_event_start ON event(start_time)`,
			`CREATE TABLE IF NOT EXISTS attendance_record (
				event_id TEXT NOT NULL,
				profile_id TEXT NOT NULL,
				attending TEXT NOT NULL DEFAULT '',
				attended INTEGER NOT NULL DEFAULT 0,
				paid_status TEXT NOT NULL DEFAULT 'unpaid',
				fee_due TEXT,
				attending_marked_at TEXT,
				attended_confirmed_at TEXT,
				payment_marked_at TEXT,
				payment_confirmed_at TEXT,
				updated_at TEXT,
				PRIMARY KEY (event_id, profile_id),
				FOREIGN KEY (event_id) REFERENCES event(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_attendance_profile ON attendance_record(profile_id)`,
		},
	},
	{
		version:     2,
		description: "event cancellation, age ranges and participation requests",
		statements: []string{
			`ALTER TABLE event ADD COLUMN cancelled INTEGER NOT NULL DEFAULT 0`,
			`ALTER TABLE event ADD COLUMN age_min INTEGER`,
			`ALTER TABLE event ADD COLUMN age_max INTEGER`,
			`CREATE TABLE IF NOT EXISTS participation_request (
				id TEXT PRIMARY KEY,
				event_id TEXT NOT NULL,
				profile_id TEXT NOT NULL,
				requested_by TEXT NOT NULL,
				note TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				created_at TEXT NOT NULL,
				decided_by TEXT,
				decided_at TEXT,
				FOREIGN KEY (event_id) REFERENCES event(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_participation_status ON participation_request(status)`,
		},
	},
	{
		version:     3,
		description: "attendance record revision for conditional writes",
		statements: []string{
			`ALTER TABLE attendance_record ADD COLUMN version INTEGER NOT NULL DEFAULT 0`,
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid database connection
// POST: returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion. File databases are
// copied with VACUUM INTO before any pending step runs.
// PRE: db is a valid database connection; dbPath is its file path or ":memory:"
// POST: WAL and foreign keys enabled, every migration applied exactly once
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && isFileDB(dbPath) {
		backup := fmt.Sprintf("%s.v%d.bak", dbPath, current)
		if _, err := db.Exec("VACUUM INTO ?", backup); err != nil {
			return fmt.Errorf("failed to back up database before migration: %w", err)
		}
		slog.Info("migration_event", "event", "backup_written", "path", backup)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		slog.Info("migration_event", "event", "applied", "version", m.version, "description", m.description)
	}
	return nil
}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			// Pre-tracking databases may already carry a column.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
		m.version, m.description, FormatTime(time.Now())); err != nil {
		return err
	}
	return tx.Commit()
}

func isFileDB(path string) bool {
	return path != "" && path != ":memory:" && !strings.HasPrefix(path, "file::memory:")
}

package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/attendance"
)

var now = time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	for _, id := range []string{"e1", "e2"} {
		if _, err := db.Exec(`INSERT INTO event (id, title, kind, start_time, created_at) VALUES (?, 'Match', 'league-match', ?, ?)`,
			id, storage.FormatTime(now), storage.FormatTime(now)); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_FindMissing verifies an unwritten pair reads as nil.
func TestSQLiteStore_FindMissing(t *testing.T) {
	s := openStore(t)
	rec, err := s.Find(context.Background(), "e1", "p1")
	if err != nil || rec != nil {
		t.Fatalf("Find() = %v, %v; want nil, nil", rec, err)
	}
}

// TestSQLiteStore_SaveRoundTrip verifies all fields survive storage.
func TestSQLiteStore_SaveRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	fee := decimal.RequireFromString("7.5")
	rec := domain.Record{
		EventID: "e1", ProfileID: "p1",
		Attending: domain.AttendingYes, Attended: true,
		PaidStatus: domain.PaidPending, FeeDue: &fee,
		AttendingMarkedAt: now, PaymentMarkedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Find(ctx, "e1", "p1")
	if err != nil || got == nil {
		t.Fatalf("Find: %v, %v", got, err)
	}
	if got.Attending != domain.AttendingYes || !got.Attended || got.PaidStatus != domain.PaidPending {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.FeeDue == nil || got.FeeDue.StringFixed(2) != "7.50" {
		t.Errorf("FeeDue = %v, want 7.50", got.FeeDue)
	}
	if !got.AttendingMarkedAt.Equal(now) || !got.AttendedConfirmedAt.IsZero() {
		t.Errorf("timestamps not preserved: %+v", got)
	}
}

// TestSQLiteStore_SaveIfUnchanged verifies the conditional write rejects stale reads.
func TestSQLiteStore_SaveIfUnchanged(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := domain.NewRecord("e1", "p1")
	rec.Attended = true
	rec.PaidStatus = domain.PaidPending
	if err := s.SaveIfUnchanged(ctx, rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.SaveIfUnchanged(ctx, rec); !errors.Is(err, ErrConflict) {
		t.Fatalf("second insert from the same empty read: got %v, want ErrConflict", err)
	}

	// Two admins read the same pending record.
	read, _ := s.Find(ctx, "e1", "p1")
	if read.Version != 1 {
		t.Fatalf("Version after insert = %d, want 1", read.Version)
	}
	first, second := *read, *read
	first.PaidStatus = domain.PaidPaid
	second.PaidStatus = domain.PaidRejected

	if err := s.SaveIfUnchanged(ctx, first); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if err := s.SaveIfUnchanged(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("second decision: got %v, want ErrConflict", err)
	}

	got, _ := s.Find(ctx, "e1", "p1")
	if got.PaidStatus != domain.PaidPaid || got.Version != 2 {
		t.Errorf("got status %q version %d, want paid at 2", got.PaidStatus, got.Version)
	}

	missing := domain.NewRecord("e2", "p1")
	missing.Version = 3
	if err := s.SaveIfUnchanged(ctx, missing); !errors.Is(err, ErrConflict) {
		t.Errorf("guarded update of missing row: got %v, want ErrConflict", err)
	}
}

// TestSQLiteStore_StaleToggleKeepsAttended verifies a self-service write based on
// an old read cannot wipe an admin's attendance confirmation.
func TestSQLiteStore_StaleToggleKeepsAttended(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := domain.NewRecord("e1", "p1")
	rec.Attending = domain.AttendingYes
	if err := s.SaveIfUnchanged(ctx, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	self, _ := s.Find(ctx, "e1", "p1")
	admin, _ := s.Find(ctx, "e1", "p1")

	admin.SetAttended(true, now)
	if err := s.SaveIfUnchanged(ctx, *admin); err != nil {
		t.Fatalf("admin save: %v", err)
	}

	self.Attending = domain.AttendingNo
	if err := s.SaveIfUnchanged(ctx, *self); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale self save: got %v, want ErrConflict", err)
	}

	got, _ := s.Find(ctx, "e1", "p1")
	if !got.Attended || got.Attending != domain.AttendingYes {
		t.Errorf("record after stale write = attended %v attending %q; want true, yes", got.Attended, got.Attending)
	}
}

// TestSQLiteStore_Listings verifies the per-event, per-profile and billing listings.
func TestSQLiteStore_Listings(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	records := []domain.Record{
		{EventID: "e1", ProfileID: "p1", Attending: domain.AttendingYes, Attended: true, PaidStatus: domain.PaidUnpaid},
		{EventID: "e1", ProfileID: "p2", Attending: domain.AttendingYes, PaidStatus: domain.PaidUnpaid},
		{EventID: "e1", ProfileID: "p3", Attended: true, PaidStatus: domain.PaidRejected},
		{EventID: "e2", ProfileID: "p1", Attended: true, PaidStatus: domain.PaidPending},
	}
	for _, r := range records {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	byEvent, err := s.ListByEvent(ctx, "e1")
	if err != nil || len(byEvent) != 3 {
		t.Errorf("ListByEvent = %d, %v; want 3", len(byEvent), err)
	}
	byProfile, err := s.ListByProfile(ctx, "p1")
	if err != nil || len(byProfile) != 2 {
		t.Errorf("ListByProfile = %d, %v; want 2", len(byProfile), err)
	}
	pending, err := s.ListByPaidStatus(ctx, domain.PaidPending)
	if err != nil || len(pending) != 1 || pending[0].EventID != "e2" {
		t.Errorf("ListByPaidStatus = %+v, %v", pending, err)
	}

	outstanding, err := s.ListOutstanding(ctx)
	if err != nil {
		t.Fatalf("ListOutstanding: %v", err)
	}
	if len(outstanding) != 2 {
		t.Fatalf("ListOutstanding = %d records, want 2", len(outstanding))
	}
	for _, r := range outstanding {
		if !r.Outstanding() {
			t.Errorf("listed record is not outstanding: %+v", r)
		}
	}
}

package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
	"clubhouse/internal/adapters/storage"
	accountStore "clubhouse/internal/adapters/storage/account"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	eventStore "clubhouse/internal/adapters/storage/event"
	participationStore "clubhouse/internal/adapters/storage/participation"
	profileStore "clubhouse/internal/adapters/storage/profile"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/profile"
)

// clubNow is a Tuesday evening training slot.
var clubNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

const testPassword = "correct-horse-battery"

type harness struct {
	t         *testing.T
	handler   http.Handler
	stores    Stores
	collector *perf.Collector
	now       time.Time
	nextID    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	h := &harness{t: t, now: clubNow, collector: perf.NewCollector(1000)}
	tdb := storage.NewTimedDB(db, h.collector, time.Second)
	h.stores = Stores{
		Accounts: accountStore.NewSQLiteStore(tdb),
		Profiles: profileStore.NewSQLiteStore(tdb),
		Events:   eventStore.NewSQLiteStore(tdb),
		Records:  attendanceStore.NewSQLiteStore(tdb),
		Requests: participationStore.NewSQLiteStore(tdb),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.handler = NewMux(ctx, h.stores, Options{
		CSRF:               middleware.CSRFOptions{Key: []byte(strings.Repeat("k", 32))},
		RateLimitPerSecond: 10000,
		SlowRequest:        time.Second,
		Collector:          h.collector,
		Now:                func() time.Time { return h.now },
		GenerateID:         h.id,
	})
	return h
}

func (h *harness) id() string {
	h.nextID++
	return fmt.Sprintf("id-%03d", h.nextID)
}

// account creates a login and returns its ID.
func (h *harness) account(email, role string) string {
	h.t.Helper()
	acct, err := orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email: email, Password: testPassword, Role: role,
	}, orchestrators.CreateAccountDeps{
		AccountStore: h.stores.Accounts,
		GenerateID:   h.id,
		Now:          func() time.Time { return h.now },
	})
	if err != nil {
		h.t.Fatalf("create account %s: %v", email, err)
	}
	return acct.ID
}

func (h *harness) saveProfile(p profile.Profile) profile.Profile {
	h.t.Helper()
	if err := h.stores.Profiles.Save(context.Background(), p); err != nil {
		h.t.Fatalf("save profile %s: %v", p.ID, err)
	}
	return p
}

func (h *harness) player(id, accountID, name, membership string) profile.Profile {
	return h.saveProfile(profile.Profile{
		ID: id, AccountID: accountID, Name: name,
		Kind: profile.KindAdult, Gender: profile.GenderMale,
		MembershipType: membership, Status: profile.StatusActive,
	})
}

func (h *harness) match(id string, start time.Time, fee string) event.Event {
	h.t.Helper()
	e := event.Event{
		ID: id, Title: "League match " + id, Kind: event.KindLeagueMatch,
		Description:  "Meet at **the pavilion**",
		StartTime:    start,
		Fee:          decimal.RequireFromString(fee),
		TargetGroups: []string{profile.GroupMen},
		CreatedBy:    "seed",
		CreatedAt:    h.now,
	}
	if err := h.stores.Events.Save(context.Background(), e); err != nil {
		h.t.Fatalf("save event %s: %v", id, err)
	}
	return e
}

// login returns the session cookie for email.
func (h *harness) login(email string) *http.Cookie {
	h.t.Helper()
	rr := h.do("POST", "/api/login", map[string]string{"email": email, "password": testPassword}, nil)
	if rr.Code != http.StatusOK {
		h.t.Fatalf("login %s: status %d: %s", email, rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == "clubhouse_session" {
			return c
		}
	}
	h.t.Fatalf("login %s: no session cookie", email)
	return nil
}

func (h *harness) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:40000"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

// club seeds an admin and one standard and one student player.
type club struct {
	admin, sam, alex *http.Cookie
	samID, alexID    string
}

func (h *harness) seedClub() club {
	h.t.Helper()
	h.account("admin@club.test", account.RoleAdmin)
	samAcct := h.account("sam@club.test", account.RolePlayer)
	alexAcct := h.account("alex@club.test", account.RolePlayer)
	h.player("p-sam", samAcct, "Sam", profile.MembershipStandard)
	h.player("p-alex", alexAcct, "Alex", profile.MembershipStudent)
	return club{
		admin: h.login("admin@club.test"),
		sam:   h.login("sam@club.test"),
		alex:  h.login("alex@club.test"),
		samID: "p-sam", alexID: "p-alex",
	}
}

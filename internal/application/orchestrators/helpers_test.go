package orchestrators

import (
	"context"
	"sync"
	"time"

	emailAdapter "clubhouse/internal/adapters/email"
	storeAttendance "clubhouse/internal/adapters/storage/attendance"
	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/participation"
	"clubhouse/internal/domain/profile"
)

var clubNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return clubNow }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

// mockEvents implements EventStore.
type mockEvents struct {
	events map[string]event.Event
}

func newMockEvents(es ...event.Event) *mockEvents {
	m := &mockEvents{events: make(map[string]event.Event)}
	for _, e := range es {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEvents) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return event.Event{}, apperr.NotFound("event")
	}
	return e, nil
}

func (m *mockEvents) Save(_ context.Context, e event.Event) error {
	m.events[e.ID] = e
	return nil
}

// mockProfiles implements ProfileLookup and ProfileStore.
type mockProfiles struct {
	profiles map[string]profile.Profile
}

func newMockProfiles(ps ...profile.Profile) *mockProfiles {
	m := &mockProfiles{profiles: make(map[string]profile.Profile)}
	for _, p := range ps {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *mockProfiles) GetByID(_ context.Context, id string) (profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, apperr.NotFound("profile")
	}
	return p, nil
}

func (m *mockProfiles) ListByAccountID(_ context.Context, accountID string) ([]profile.Profile, error) {
	var out []profile.Profile
	for _, p := range m.profiles {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfiles) Save(_ context.Context, p profile.Profile) error {
	m.profiles[p.ID] = p
	return nil
}

// mockRecords implements RecordLister with the same compare-and-swap rule
// as the SQLite store.
type mockRecords struct {
	mu        sync.Mutex
	records   map[[2]string]attendance.Record
	interfere func(rec *attendance.Record) // a concurrent write landing before the revision check
}

func newMockRecords(recs ...attendance.Record) *mockRecords {
	m := &mockRecords{records: make(map[[2]string]attendance.Record)}
	for _, r := range recs {
		m.records[[2]string{r.EventID, r.ProfileID}] = r
	}
	return m
}

func (m *mockRecords) Find(_ context.Context, eventID, profileID string) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[[2]string{eventID, profileID}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mockRecords) SaveIfUnchanged(_ context.Context, rec attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{rec.EventID, rec.ProfileID}
	if m.interfere != nil {
		stored := m.records[key]
		m.interfere(&stored)
		stored.Version++
		m.records[key] = stored
	}
	stored, ok := m.records[key]
	if (ok && stored.Version != rec.Version) || (!ok && rec.Version != 0) {
		return storeAttendance.ErrConflict
	}
	rec.Version++
	m.records[key] = rec
	return nil
}

func (m *mockRecords) ListByEvent(_ context.Context, eventID string) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Record
	for k, r := range m.records {
		if k[0] == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecords) get(eventID, profileID string) attendance.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[[2]string{eventID, profileID}]
}

// mockRequests implements ParticipationStore.
type mockRequests struct {
	requests map[string]participation.Request
}

func newMockRequests(rs ...participation.Request) *mockRequests {
	m := &mockRequests{requests: make(map[string]participation.Request)}
	for _, r := range rs {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockRequests) GetByID(_ context.Context, id string) (participation.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return participation.Request{}, apperr.NotFound("participation request")
	}
	return r, nil
}

func (m *mockRequests) Save(_ context.Context, r participation.Request) error {
	m.requests[r.ID] = r
	return nil
}

func (m *mockRequests) FindPending(_ context.Context, eventID, profileID string) (*participation.Request, error) {
	for _, r := range m.requests {
		if r.EventID == eventID && r.ProfileID == profileID && r.IsPending() {
			return &r, nil
		}
	}
	return nil, nil
}

// mockAccounts implements the account store interfaces.
type mockAccounts struct {
	accounts map[string]account.Account
}

func newMockAccounts(as ...account.Account) *mockAccounts {
	m := &mockAccounts{accounts: make(map[string]account.Account)}
	for _, a := range as {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccounts) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, apperr.NotFound("account")
	}
	return a, nil
}

func (m *mockAccounts) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == account.NormalizeEmail(email) {
			return a, nil
		}
	}
	return account.Account{}, apperr.NotFound("account")
}

func (m *mockAccounts) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccounts) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

// captureSender records outbound email.
type captureSender struct {
	sent []emailAdapter.SendRequest
	err  error
}

func (c *captureSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	if c.err != nil {
		return emailAdapter.SendResult{}, c.err
	}
	c.sent = append(c.sent, req)
	return emailAdapter.SendResult{MessageID: "msg-1", SentAt: clubNow}, nil
}

// --- fixtures ---

func adultProfile(id, accountID string) profile.Profile {
	return profile.Profile{
		ID: id, AccountID: accountID, Name: "Sam", Kind: profile.KindAdult,
		Gender: profile.GenderMale, MembershipType: profile.MembershipStandard,
		Status: profile.StatusActive,
	}
}

func childProfile(id string, parentIDs ...string) profile.Profile {
	return profile.Profile{
		ID: id, Name: "Ava", Kind: profile.KindChild, Groups: []string{profile.GroupU15},
		BirthDate: clubNow.AddDate(-14, 0, -10), ParentIDs: parentIDs, Status: profile.StatusActive,
	}
}

func mensMatch(id string, start time.Time) event.Event {
	return event.Event{ID: id, Title: "League v Rivals", Kind: event.KindLeagueMatch,
		StartTime: start, TargetGroups: []string{profile.GroupMen}}
}

func player(accountID string) Actor {
	return Actor{AccountID: accountID, Role: account.RolePlayer}
}

package web

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/profile"
)

func TestLogin(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()

	t.Run("me returns the session", func(t *testing.T) {
		rr := h.do("GET", "/api/me", nil, c.sam)
		expectStatus(t, rr, http.StatusOK)
		got := decodeBody[sessionResponse](t, rr)
		if got.Email != "sam@club.test" || got.Role != "player" {
			t.Errorf("me = %+v", got)
		}
		if len(got.ProfileIDs) != 1 || got.ProfileIDs[0] != c.samID {
			t.Errorf("profileIds = %v, want [%s]", got.ProfileIDs, c.samID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := h.do("POST", "/api/login", map[string]string{"email": "sam@club.test", "password": "not-the-password"}, nil)
		expectStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("anonymous me", func(t *testing.T) {
		expectStatus(t, h.do("GET", "/api/me", nil, nil), http.StatusUnauthorized)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		cookie := h.login("alex@club.test")
		expectStatus(t, h.do("POST", "/api/logout", nil, cookie), http.StatusNoContent)
		expectStatus(t, h.do("GET", "/api/me", nil, cookie), http.StatusUnauthorized)
	})
}

func TestSetAttending_Ownership(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.match("e-1", clubNow.Add(72*time.Hour), "10")

	rr := h.do("POST", "/api/attendance/attending",
		map[string]string{"eventId": "e-1", "profileId": c.samID, "attending": "yes"}, c.sam)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[recordJSON](t, rr); got.Attending != "yes" || got.PaidStatus != "unpaid" {
		t.Errorf("record = %+v", got)
	}

	rr = h.do("POST", "/api/attendance/attending",
		map[string]string{"eventId": "e-1", "profileId": c.alexID, "attending": "yes"}, c.sam)
	expectStatus(t, rr, http.StatusForbidden)
}

func TestSetAttending_WindowClosed(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.match("e-past", clubNow.Add(-time.Hour), "10")

	rr := h.do("POST", "/api/attendance/attending",
		map[string]string{"eventId": "e-past", "profileId": c.samID, "attending": "yes"}, c.sam)
	if rr.Code == http.StatusOK {
		t.Fatalf("expected rejection after start, got 200: %s", rr.Body.String())
	}
}

func TestPaymentLifecycle(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.match("e-1", clubNow.Add(72*time.Hour), "10")
	ref := map[string]string{"eventId": "e-1", "profileId": c.samID}

	expectStatus(t, h.do("POST", "/api/attendance/attending",
		map[string]string{"eventId": "e-1", "profileId": c.samID, "attending": "yes"}, c.sam), http.StatusOK)

	// Not billable until an admin confirms attendance.
	expectStatus(t, h.do("POST", "/api/payments/submit", ref, c.sam), http.StatusConflict)

	expectStatus(t, h.do("POST", "/api/admin/attendance/attended",
		map[string]any{"eventId": "e-1", "profileId": c.samID, "attended": true}, c.admin), http.StatusOK)

	rr := h.do("POST", "/api/payments/submit", ref, c.sam)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[recordJSON](t, rr); got.PaidStatus != "pending" {
		t.Fatalf("paidStatus after submit = %q, want pending", got.PaidStatus)
	}

	rr = h.do("GET", "/api/admin/payments", nil, c.admin)
	expectStatus(t, rr, http.StatusOK)
	queue := decodeBody[paymentQueueJSON](t, rr)
	if len(queue.Pending) != 1 || queue.PendingTotal != "10.00" {
		t.Errorf("queue = %+v", queue)
	}

	decide := map[string]any{"decision": "confirm", "items": []map[string]string{ref}}
	rr = h.do("POST", "/api/admin/payments/decide", decide, c.admin)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[bulkResultJSON](t, rr); got.Updated != 1 {
		t.Errorf("decide result = %+v", got)
	}

	expectStatus(t, h.do("POST", "/api/admin/payments/decide", decide, c.admin), http.StatusConflict)

	rec, err := h.stores.Records.Find(t.Context(), "e-1", c.samID)
	if err != nil || rec == nil {
		t.Fatalf("Find() = %v, %v", rec, err)
	}
	if string(rec.Status()) != "paid" {
		t.Errorf("stored status = %q, want paid", rec.Status())
	}
}

func TestBulkDecidePayments(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.match("e-1", clubNow.Add(72*time.Hour), "10")

	for _, p := range []struct {
		id     string
		cookie *http.Cookie
	}{{c.samID, c.sam}, {c.alexID, c.alex}} {
		expectStatus(t, h.do("POST", "/api/admin/attendance/attended",
			map[string]any{"eventId": "e-1", "profileId": p.id, "attended": true}, c.admin), http.StatusOK)
	}
	expectStatus(t, h.do("POST", "/api/payments/submit",
		map[string]string{"eventId": "e-1", "profileId": c.samID}, c.sam), http.StatusOK)

	rr := h.do("POST", "/api/admin/payments/decide", map[string]any{
		"decision": "reject",
		"items": []map[string]string{
			{"eventId": "e-1", "profileId": c.samID},
			{"eventId": "e-1", "profileId": c.alexID},
		},
	}, c.admin)
	expectStatus(t, rr, http.StatusOK)
	got := decodeBody[bulkResultJSON](t, rr)
	if got.Updated != 1 || got.Failed != 1 {
		t.Fatalf("bulk result = %+v, want 1 updated and 1 failed", got)
	}
	if len(got.Errors) != 1 || got.Errors[0].ProfileID != c.alexID {
		t.Errorf("errors = %+v", got.Errors)
	}

	expectStatus(t, h.do("POST", "/api/admin/payments/decide",
		map[string]any{"decision": "confirm", "items": []map[string]string{}}, c.admin), http.StatusBadRequest)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()

	for _, path := range []string{"/api/admin/payments", "/api/admin/participation", "/api/admin/perf", "/api/admin/events"} {
		t.Run(path, func(t *testing.T) {
			expectStatus(t, h.do("GET", path, nil, c.sam), http.StatusForbidden)
			expectStatus(t, h.do("GET", path, nil, nil), http.StatusUnauthorized)
		})
	}
}

func TestCreateAndEditEvent(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()

	rr := h.do("POST", "/api/admin/events", map[string]any{
		"title":        "Friendly v Hill Park",
		"kind":         "friendly-match",
		"description":  "Bring **whites**",
		"startTime":    clubNow.Add(48 * time.Hour).Format(time.RFC3339),
		"fee":          "12.50",
		"targetGroups": []string{"Men"},
	}, c.admin)
	expectStatus(t, rr, http.StatusCreated)
	created := decodeBody[eventJSON](t, rr)
	if created.Fee != "12.50" {
		t.Errorf("fee = %q", created.Fee)
	}
	if !strings.Contains(created.DescriptionHTML, "<strong>whites</strong>") {
		t.Errorf("descriptionHtml = %q", created.DescriptionHTML)
	}

	rr = h.do("POST", "/api/admin/events/"+created.ID, map[string]any{"fee": "15"}, c.admin)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeBody[eventJSON](t, rr); got.Fee != "15.00" {
		t.Errorf("edited fee = %q", got.Fee)
	}

	h.now = clubNow.Add(49 * time.Hour)
	expectStatus(t, h.do("POST", "/api/admin/events/"+created.ID, map[string]any{"fee": "20"}, c.admin), http.StatusConflict)

	expectStatus(t, h.do("POST", "/api/admin/events/missing", map[string]any{"fee": "20"}, c.admin), http.StatusNotFound)
}

func TestProfileEvents_StudentDiscount(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.match("e-1", clubNow.Add(72*time.Hour), "10")

	rr := h.do("GET", "/api/profiles/"+c.alexID+"/events?year=2026&month=3", nil, c.alex)
	expectStatus(t, rr, http.StatusOK)
	views := decodeBody[[]eventViewJSON](t, rr)
	if len(views) != 1 {
		t.Fatalf("got %d events, want 1", len(views))
	}
	lc := views[0].Lifecycle
	if lc.AmountDue != "7.50" {
		t.Errorf("amountDue = %q, want 7.50", lc.AmountDue)
	}
	if !lc.Visible || !lc.WindowOpen || !lc.CanToggleYes {
		t.Errorf("lifecycle = %+v", lc)
	}

	expectStatus(t, h.do("GET", "/api/profiles/"+c.alexID+"/events", nil, c.sam), http.StatusForbidden)
	expectStatus(t, h.do("GET", "/api/profiles/"+c.alexID+"/events", nil, c.admin), http.StatusOK)
}

func TestStrictDecode(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()

	expectStatus(t, h.do("POST", "/api/attendance/attending", `{"eventId":`, c.sam), http.StatusBadRequest)
	expectStatus(t, h.do("POST", "/api/attendance/attending",
		`{"eventId":"e-1","profileId":"p-sam","attending":"yes","extra":1}`, c.sam), http.StatusBadRequest)
}

func TestPerfSnapshot(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	h.do("GET", "/api/me", nil, c.sam)

	rr := h.do("GET", "/api/admin/perf?minutes=5&top=3", nil, c.admin)
	expectStatus(t, rr, http.StatusOK)
	got := decodeBody[perfSnapshotJSON](t, rr)
	if got.WindowMinutes != 5 {
		t.Errorf("windowMinutes = %d", got.WindowMinutes)
	}
	if got.Requests == 0 || got.TotalRecorded == 0 {
		t.Errorf("expected recorded requests, got %+v", got)
	}
	if len(got.SlowestQueries) == 0 || len(got.SlowestQueries) > 3 {
		t.Errorf("slowestQueries = %+v", got.SlowestQueries)
	}
}

func TestParticipationRequest(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	e := h.match("e-nets", clubNow.Add(24*time.Hour), "5")
	e.Kind = "net-practice"
	if err := h.stores.Events.Save(t.Context(), e); err != nil {
		t.Fatalf("save event: %v", err)
	}

	// Self-service closed 48h before start.
	expectStatus(t, h.do("POST", "/api/attendance/attending",
		map[string]string{"eventId": "e-nets", "profileId": c.samID, "attending": "yes"}, c.sam), http.StatusConflict)

	rr := h.do("POST", "/api/attendance/request",
		map[string]string{"eventId": "e-nets", "profileId": c.samID, "note": "can bowl"}, c.sam)
	expectStatus(t, rr, http.StatusCreated)
	created := decodeBody[requestJSON](t, rr)

	rr = h.do("GET", "/api/admin/participation", nil, c.admin)
	expectStatus(t, rr, http.StatusOK)
	queue := decodeBody[[]participationQueueItemJSON](t, rr)
	if len(queue) != 1 || queue[0].ProfileName != "Sam" {
		t.Fatalf("queue = %+v", queue)
	}

	decide := map[string]string{"requestId": created.ID, "decision": "approve"}
	expectStatus(t, h.do("POST", "/api/admin/participation/decide", decide, c.admin), http.StatusOK)
	expectStatus(t, h.do("POST", "/api/admin/participation/decide", decide, c.admin), http.StatusConflict)

	rec, err := h.stores.Records.Find(t.Context(), "e-nets", c.samID)
	if err != nil || rec == nil || !rec.IsGoing() {
		t.Fatalf("record after approval = %+v, %v", rec, err)
	}
}

func TestListEvents_Paging(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	for i := range 11 {
		h.match(fmt.Sprintf("e-%02d", i), clubNow.Add(time.Duration(i+1)*24*time.Hour), "10")
	}

	rr := h.do("GET", "/api/admin/events?per_page=10", nil, c.admin)
	expectStatus(t, rr, http.StatusOK)
	first := decodeBody[eventPageJSON](t, rr)
	if len(first.Events) != 10 || !first.HasMore {
		t.Fatalf("page 1: %d events, hasMore %v", len(first.Events), first.HasMore)
	}
	if first.Events[0].ID != "e-10" {
		t.Errorf("newest first: got %s", first.Events[0].ID)
	}

	rr = h.do("GET", "/api/admin/events?per_page=10&page=2", nil, c.admin)
	expectStatus(t, rr, http.StatusOK)
	second := decodeBody[eventPageJSON](t, rr)
	if len(second.Events) != 1 || second.HasMore {
		t.Errorf("page 2: %d events, hasMore %v", len(second.Events), second.HasMore)
	}
}

func TestFriends_RequiresVisibleProfile(t *testing.T) {
	h := newHarness(t)
	c := h.seedClub()
	patAcct := h.account("pat@club.test", account.RolePlayer)
	h.saveProfile(profile.Profile{
		ID: "p-pat", AccountID: patAcct, Name: "Pat", Kind: profile.KindAdult,
		MembershipType: profile.MembershipStandard, Status: profile.StatusActive, ChildIDs: []string{"p-kid"},
	})
	h.saveProfile(profile.Profile{
		ID: "p-kid", Name: "Robin", Kind: profile.KindChild, Status: profile.StatusActive,
		ParentIDs: []string{"p-pat"}, BirthDate: time.Date(2017, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	pat := h.login("pat@club.test")

	kids := event.Event{
		ID: "ce1", Title: "Kids nets", Kind: event.KindNetPractice, StartTime: clubNow.Add(96 * time.Hour),
		LegacyGroup: event.LegacyGroupAll, IsChildEvent: true, CreatedBy: "seed", CreatedAt: clubNow,
	}
	if err := h.stores.Events.Save(t.Context(), kids); err != nil {
		t.Fatalf("save event: %v", err)
	}
	rec := attendance.NewRecord("ce1", "p-kid")
	rec.Attending = attendance.AttendingYes
	if err := h.stores.Records.Save(t.Context(), rec); err != nil {
		t.Fatalf("save record: %v", err)
	}

	tests := []struct {
		name   string
		query  string
		cookie *http.Cookie
		want   int
	}{
		{"adult profile outside the child universe", "?profileId=" + c.samID, c.sam, http.StatusForbidden},
		{"someone else's child", "?profileId=p-kid", c.sam, http.StatusForbidden},
		{"no profile named", "", c.sam, http.StatusBadRequest},
		{"parent acting for the child", "?profileId=p-kid", pat, http.StatusOK},
		{"admin", "", c.admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.do("GET", "/api/events/ce1/friends"+tt.query, nil, tt.cookie)
			expectStatus(t, rr, tt.want)
			if tt.want != http.StatusOK && strings.Contains(rr.Body.String(), "Robin") {
				t.Errorf("denied response leaks attendee names: %s", rr.Body.String())
			}
		})
	}

	rr := h.do("GET", "/api/events/ce1/friends?profileId=p-kid", nil, pat)
	if !strings.Contains(rr.Body.String(), "Robin") {
		t.Errorf("parent view should list the attending child: %s", rr.Body.String())
	}
}

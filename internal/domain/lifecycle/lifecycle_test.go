package lifecycle_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/lifecycle"
	"clubhouse/internal/domain/profile"
)

var now = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

func student() profile.Profile {
	return profile.Profile{
		ID: "p1", Name: "Sam", Kind: profile.KindAdult, Gender: profile.GenderMale,
		MembershipType: profile.MembershipStudent, Status: profile.StatusActive,
	}
}

// checkFlags compares the boolean facts of a view by name.
func checkFlags(t *testing.T, v lifecycle.View, want map[string]bool) {
	t.Helper()
	got := map[string]bool{
		"Visible":                 v.Visible,
		"WindowOpen":              v.WindowOpen,
		"CanToggleYes":            v.CanToggleYes,
		"CanToggleNo":             v.CanToggleNo,
		"CanRequestParticipation": v.CanRequestParticipation,
		"FeeOverride":             v.FeeOverride,
		"Billable":                v.Billable,
		"Outstanding":             v.Outstanding,
		"CanMarkPaid":             v.CanMarkPaid,
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
}

func TestEvaluate_OpenEvent(t *testing.T) {
	e := event.Event{ID: "e1", Kind: event.KindLeagueMatch, StartTime: now.Add(72 * time.Hour),
		Fee: decimal.NewFromInt(10), TargetGroups: []string{profile.GroupMen}}

	v := lifecycle.Evaluate(lifecycle.NewFact(e, student(), nil), now)

	checkFlags(t, v, map[string]bool{
		"Visible": true, "WindowOpen": true, "CanToggleYes": true, "CanToggleNo": true,
		"CanRequestParticipation": false, "FeeOverride": false, "Billable": false, "CanMarkPaid": false,
	})
	if v.AmountDue.StringFixed(2) != "7.50" {
		t.Errorf("AmountDue = %s, want 7.50", v.AmountDue.StringFixed(2))
	}
	if v.PaidStatus != attendance.PaidUnpaid {
		t.Errorf("PaidStatus = %q, want unpaid", v.PaidStatus)
	}
}

func TestEvaluate_NetPracticeInsideCutoff(t *testing.T) {
	e := event.Event{ID: "e1", Kind: event.KindNetPractice, StartTime: now.Add(40 * time.Hour),
		TargetGroups: []string{profile.GroupMen}}

	v := lifecycle.Evaluate(lifecycle.NewFact(e, student(), nil), now)

	checkFlags(t, v, map[string]bool{"WindowOpen": false, "CanToggleYes": false, "CanRequestParticipation": true})
	if want := e.StartTime.Add(-48 * time.Hour); !v.CloseTime.Equal(want) {
		t.Errorf("CloseTime = %v, want %v", v.CloseTime, want)
	}
}

func TestEvaluate_OverrideAndBilling(t *testing.T) {
	e := event.Event{ID: "e1", Kind: event.KindSocial, StartTime: now.Add(-time.Hour),
		Fee: decimal.NewFromInt(10), LegacyGroup: event.LegacyGroupAll}
	override := decimal.RequireFromString("2.5")
	rec := attendance.Record{EventID: "e1", ProfileID: "p1", Attending: attendance.AttendingYes,
		Attended: true, PaidStatus: attendance.PaidRejected, FeeDue: &override}

	v := lifecycle.Evaluate(lifecycle.NewFact(e, student(), &rec), now)

	checkFlags(t, v, map[string]bool{
		"FeeOverride": true, "Billable": true, "Outstanding": true, "CanMarkPaid": true, "WindowOpen": false,
	})
	if v.AmountDue.StringFixed(2) != "2.50" {
		t.Errorf("AmountDue = %s, want 2.50", v.AmountDue.StringFixed(2))
	}
}

func TestEvaluate_AgeIneligibleChild(t *testing.T) {
	kid := profile.Profile{ID: "c1", Name: "Ava", Kind: profile.KindChild,
		BirthDate: now.AddDate(-14, 0, -10), ParentIDs: []string{"p1"}, Status: profile.StatusActive}
	e := event.Event{ID: "e2", Kind: event.KindFamilyEvent, StartTime: now.Add(24 * time.Hour),
		IsChildEvent: true, LegacyGroup: event.LegacyGroupAll, AgeMin: intPtr(16), AgeMax: intPtr(18)}

	v := lifecycle.Evaluate(lifecycle.NewFact(e, kid, nil), now)

	checkFlags(t, v, map[string]bool{"Visible": true, "CanToggleYes": false, "CanToggleNo": true})
	if want := "Ava is 14 and this event is for ages 16-18"; v.EligibilityMessage != want {
		t.Errorf("EligibilityMessage = %q, want %q", v.EligibilityMessage, want)
	}
}

func TestEvaluate_CancelledEventIsClosed(t *testing.T) {
	e := event.Event{ID: "e1", Kind: event.KindSocial, StartTime: now.Add(24 * time.Hour),
		LegacyGroup: event.LegacyGroupAll, Cancelled: true}

	v := lifecycle.Evaluate(lifecycle.NewFact(e, student(), nil), now)

	checkFlags(t, v, map[string]bool{"WindowOpen": false, "CanToggleYes": false, "CanRequestParticipation": false})
}

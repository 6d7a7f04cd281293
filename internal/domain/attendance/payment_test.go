package attendance_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
)

// TestPayment_Lifecycle walks reject, resubmit and confirm.
func TestPayment_Lifecycle(t *testing.T) {
	e := event.Event{Kind: event.KindLeagueMatch, StartTime: now.Add(-24 * time.Hour)}
	r := attendance.NewRecord("e1", "a1")
	r.Attending = attendance.AttendingYes

	if _, err := r.SubmitPayment(e, now); !errors.Is(err, attendance.ErrNotBillable) {
		t.Fatalf("got %v, want ErrNotBillable before attendance is confirmed", err)
	}
	if r.CanMarkPaid(e) {
		t.Error("mark paid must not be offered before attendance is confirmed")
	}

	r.SetAttended(true, now)
	if !r.CanMarkPaid(e) {
		t.Error("mark paid should be offered once billable")
	}

	if changed, err := r.SubmitPayment(e, now); err != nil || !changed {
		t.Fatalf("submit: changed=%v err=%v", changed, err)
	}
	if r.Status() != attendance.PaidPending {
		t.Fatalf("status = %q, want pending", r.Status())
	}
	if changed, err := r.SubmitPayment(e, now); err != nil || changed {
		t.Errorf("repeat submit should be a no-op, got changed=%v err=%v", changed, err)
	}

	if err := r.Decide(attendance.DecisionReject, now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if r.Status() != attendance.PaidRejected || !r.Outstanding() {
		t.Errorf("rejected record should be outstanding, status=%q", r.Status())
	}

	if err := r.Decide(attendance.DecisionConfirm, now); !errors.Is(err, attendance.ErrNotPending) {
		t.Errorf("confirm from rejected: got %v, want ErrNotPending", err)
	}

	if _, err := r.SubmitPayment(e, now); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if r.Status() != attendance.PaidPending {
		t.Fatalf("status = %q after resubmit, want pending", r.Status())
	}

	if err := r.Decide(attendance.DecisionConfirm, now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r.Status() != attendance.PaidPaid || r.Outstanding() {
		t.Errorf("paid record should not be outstanding, status=%q", r.Status())
	}

	if _, err := r.SubmitPayment(e, now); !errors.Is(err, attendance.ErrAlreadyPaid) {
		t.Errorf("paid is terminal: got %v, want ErrAlreadyPaid", err)
	}
	if err := r.Decide(attendance.DecisionReject, now); !errors.Is(err, attendance.ErrNotPending) {
		t.Errorf("reject after paid: got %v, want ErrNotPending", err)
	}
}

// TestPayment_MembershipFeeHasNoAttendanceGate verifies membership fees are payable any time.
func TestPayment_MembershipFeeHasNoAttendanceGate(t *testing.T) {
	e := event.Event{Kind: event.KindMembershipFee, StartTime: event.MembershipFeeDate(2026)}
	r := attendance.NewRecord("e1", "a1")
	if _, err := r.SubmitPayment(e, now); err != nil {
		t.Errorf("membership fee should be payable without attendance: %v", err)
	}
}

// TestPayment_DecideRequiresPending verifies admins cannot skip the pending state.
func TestPayment_DecideRequiresPending(t *testing.T) {
	r := attendance.NewRecord("e1", "a1")
	r.Attended = true
	for _, d := range []attendance.Decision{attendance.DecisionConfirm, attendance.DecisionReject} {
		if err := r.Decide(d, now); !errors.Is(err, attendance.ErrNotPending) {
			t.Errorf("%s from unpaid: got %v, want ErrNotPending", d, err)
		}
	}
	if err := r.Decide("refund", now); !errors.Is(err, attendance.ErrInvalidDecision) {
		t.Errorf("got %v, want ErrInvalidDecision", err)
	}
}

// TestBillingGate verifies unconfirmed records are never outstanding.
func TestBillingGate(t *testing.T) {
	for _, s := range []attendance.PaidStatus{attendance.PaidUnpaid, attendance.PaidPending, attendance.PaidPaid, attendance.PaidRejected} {
		r := attendance.Record{PaidStatus: s, Attending: attendance.AttendingYes}
		if r.Outstanding() || r.Billable() {
			t.Errorf("status %q with attended=false must not be billable", s)
		}
	}
}

// TestSetFeeDue tests override rounding, clearing and validation.
func TestSetFeeDue(t *testing.T) {
	r := attendance.NewRecord("e1", "a1")
	amt := decimal.RequireFromString("4.255")
	if err := r.SetFeeDue(&amt, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.FeeDue.StringFixed(2) != "4.26" {
		t.Errorf("FeeDue = %s, want 4.26", r.FeeDue.StringFixed(2))
	}
	neg := decimal.NewFromInt(-1)
	if err := r.SetFeeDue(&neg, now); !errors.Is(err, attendance.ErrNegativeOverride) {
		t.Errorf("got %v, want ErrNegativeOverride", err)
	}
	if err := r.SetFeeDue(nil, now); err != nil || r.FeeDue != nil {
		t.Errorf("clearing failed: err=%v FeeDue=%v", err, r.FeeDue)
	}
}

// TestParsePaidStatus tests status parsing.
func TestParsePaidStatus(t *testing.T) {
	if s, err := attendance.ParsePaidStatus(""); err != nil || s != attendance.PaidUnpaid {
		t.Errorf("empty: got %q, %v", s, err)
	}
	if _, err := attendance.ParsePaidStatus("refunded"); err == nil {
		t.Error("expected error for unknown status")
	}
}

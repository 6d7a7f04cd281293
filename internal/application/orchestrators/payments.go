package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
)

// --- Submit payment ---

// SubmitPaymentInput carries a profile's "I have paid" declaration.
type SubmitPaymentInput struct {
	Actor     Actor
	EventID   string
	ProfileID string
}

// SubmitPaymentDeps holds dependencies for SubmitPayment.
type SubmitPaymentDeps struct {
	Events   EventReader
	Profiles ProfileLookup
	Records  RecordStore
	Now      func() time.Time
}

// ExecuteSubmitPayment moves the record to pending.
// PRE: caller owns the profile or is its parent
// POST: status pending; repeat is a no-op; paid is never left
func ExecuteSubmitPayment(ctx context.Context, input SubmitPaymentInput, deps SubmitPaymentDeps) (attendance.Record, error) {
	if input.EventID == "" {
		return attendance.Record{}, apperr.Validation("event id is required")
	}
	p, err := AuthorizeActor(ctx, input.Actor, input.ProfileID, deps.Profiles)
	if err != nil {
		return attendance.Record{}, err
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return attendance.Record{}, err
	}
	if p != nil && !e.IsMembershipFee() && !event.VisibleTo(e, *p) {
		return attendance.Record{}, ErrEventNotOpenToProfile
	}

	rec, err := loadRecord(ctx, deps.Records, e.ID, input.ProfileID)
	if err != nil {
		return attendance.Record{}, err
	}
	prior := rec.Status()
	changed, err := rec.SubmitPayment(e, deps.Now())
	if err != nil {
		return attendance.Record{}, err
	}
	if !changed {
		return rec, nil
	}
	if err := saveRecord(ctx, deps.Records, rec); err != nil {
		return attendance.Record{}, err
	}
	slog.Info("payment_event", "event", "submitted", "event_id", e.ID,
		"profile_id", input.ProfileID, "from", string(prior), "account_id", input.Actor.AccountID)
	return rec, nil
}

// --- Decide payments ---

// PaymentRef names one (event, profile) record.
type PaymentRef struct {
	EventID   string
	ProfileID string
}

// DecidePaymentInput carries a single admin verdict.
type DecidePaymentInput struct {
	AdminID  string
	Ref      PaymentRef
	Decision string // confirm | reject
}

// DecidePaymentDeps holds dependencies for the payment decision commands.
type DecidePaymentDeps struct {
	Records RecordStore
	Now     func() time.Time
}

// ExecuteDecidePayment confirms or rejects one pending payment.
// PRE: caller is an admin
// POST: pending becomes paid or rejected; any other status is refused
func ExecuteDecidePayment(ctx context.Context, input DecidePaymentInput, deps DecidePaymentDeps) (attendance.Record, error) {
	d, err := parseDecision(input.Decision)
	if err != nil {
		return attendance.Record{}, err
	}
	return decideOne(ctx, input.AdminID, input.Ref, d, deps)
}

// BulkDecidePaymentsInput carries one verdict applied to many records.
type BulkDecidePaymentsInput struct {
	AdminID  string
	Refs     []PaymentRef
	Decision string
}

// ExecuteBulkDecidePayments applies a verdict to each pending record.
// PRE: caller is an admin
// POST: Updated counts records that moved; non-pending items are reported as failed
func ExecuteBulkDecidePayments(ctx context.Context, input BulkDecidePaymentsInput, deps DecidePaymentDeps) (BulkResult, error) {
	d, err := parseDecision(input.Decision)
	if err != nil {
		return BulkResult{}, err
	}
	if len(input.Refs) == 0 {
		return BulkResult{}, apperr.Validation("no payments selected")
	}

	var result BulkResult
	for _, ref := range input.Refs {
		if _, err := decideOne(ctx, input.AdminID, ref, d, deps); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{EventID: ref.EventID, ProfileID: ref.ProfileID, Reason: apperr.Reason(err)})
			continue
		}
		result.Updated++
	}
	slog.Info("payment_event", "event", "bulk_decided", "decision", string(d),
		"updated", result.Updated, "failed", result.Failed, "admin_id", input.AdminID)
	return result, nil
}

func parseDecision(s string) (attendance.Decision, error) {
	d := attendance.Decision(s)
	if d != attendance.DecisionConfirm && d != attendance.DecisionReject {
		return "", attendance.ErrInvalidDecision
	}
	return d, nil
}

func decideOne(ctx context.Context, adminID string, ref PaymentRef, d attendance.Decision, deps DecidePaymentDeps) (attendance.Record, error) {
	rec, err := deps.Records.Find(ctx, ref.EventID, ref.ProfileID)
	if err != nil {
		return attendance.Record{}, err
	}
	if rec == nil {
		return attendance.Record{}, attendance.ErrNotPending
	}
	if err := rec.Decide(d, deps.Now()); err != nil {
		return attendance.Record{}, err
	}
	if err := saveRecord(ctx, deps.Records, *rec); err != nil {
		return attendance.Record{}, err
	}
	slog.Info("payment_event", "event", "decided", "decision", string(d),
		"event_id", ref.EventID, "profile_id", ref.ProfileID, "admin_id", adminID)
	return *rec, nil
}

// --- Fee override ---

// SetFeeDueInput carries an admin fee override; nil Amount clears it.
type SetFeeDueInput struct {
	AdminID   string
	EventID   string
	ProfileID string
	Amount    *decimal.Decimal
}

// SetFeeDueDeps holds dependencies for SetFeeDue.
type SetFeeDueDeps struct {
	Events  EventReader
	Records RecordStore
	Now     func() time.Time
}

// ExecuteSetFeeDue sets or clears the per-record fee override.
// PRE: caller is an admin
// POST: amount due for the pair is the override when set, the computed fee otherwise
func ExecuteSetFeeDue(ctx context.Context, input SetFeeDueInput, deps SetFeeDueDeps) (attendance.Record, error) {
	if input.EventID == "" || input.ProfileID == "" {
		return attendance.Record{}, apperr.Validation("event id and profile id are required")
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return attendance.Record{}, err
	}
	rec, err := loadRecord(ctx, deps.Records, e.ID, input.ProfileID)
	if err != nil {
		return attendance.Record{}, err
	}
	if err := rec.SetFeeDue(input.Amount, deps.Now()); err != nil {
		return attendance.Record{}, err
	}
	if err := saveRecord(ctx, deps.Records, rec); err != nil {
		return attendance.Record{}, err
	}

	amount := "cleared"
	if rec.FeeDue != nil {
		amount = rec.FeeDue.StringFixed(2)
	}
	slog.Info("payment_event", "event", "fee_due_set", "event_id", e.ID,
		"profile_id", input.ProfileID, "amount", amount, "admin_id", input.AdminID)
	return rec, nil
}

package orchestrators

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	emailAdapter "clubhouse/internal/adapters/email"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/participation"
)

// ParticipationStore persists participation requests.
type ParticipationStore interface {
	GetByID(ctx context.Context, id string) (participation.Request, error)
	Save(ctx context.Context, r participation.Request) error
	FindPending(ctx context.Context, eventID, profileID string) (*participation.Request, error)
}

// Participation errors
var (
	ErrRequestNotOffered = apperr.InvalidState("participation requests open once self-service attendance has closed and before the event starts")
	ErrAlreadyAttending  = apperr.InvalidState("this profile is already marked as attending")
)

// --- Request participation ---

// RequestParticipationInput carries input for a late participation request.
type RequestParticipationInput struct {
	Actor     Actor
	EventID   string
	ProfileID string
	Note      string
}

// RequestParticipationDeps holds dependencies for RequestParticipation.
type RequestParticipationDeps struct {
	Events     EventReader
	Profiles   ProfileLookup
	Records    RecordStore
	Requests   ParticipationStore
	Sender     emailAdapter.Sender // optional: nil skips the admin notice
	NotifyTo   string
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteRequestParticipation queues an exception request for an admin.
// PRE: caller owns the profile or is its parent
// POST: one pending request per (event, profile); admins emailed best-effort
func ExecuteRequestParticipation(ctx context.Context, input RequestParticipationInput, deps RequestParticipationDeps) (participation.Request, error) {
	now := deps.Now()
	req := participation.Request{
		ID:          deps.GenerateID(),
		EventID:     input.EventID,
		ProfileID:   input.ProfileID,
		RequestedBy: input.Actor.AccountID,
		Note:        input.Note,
		Status:      participation.StatusPending,
		CreatedAt:   now,
	}
	if err := req.Validate(); err != nil {
		return participation.Request{}, err
	}

	p, err := AuthorizeActor(ctx, input.Actor, input.ProfileID, deps.Profiles)
	if err != nil {
		return participation.Request{}, err
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return participation.Request{}, err
	}
	if !e.CanRequestParticipation(now) {
		return participation.Request{}, ErrRequestNotOffered
	}
	if p != nil {
		if !event.VisibleTo(e, *p) {
			return participation.Request{}, ErrEventNotOpenToProfile
		}
		if err := attendance.CheckEligibility(e, *p, now); err != nil {
			return participation.Request{}, err
		}
	}

	rec, err := deps.Records.Find(ctx, e.ID, input.ProfileID)
	if err != nil {
		return participation.Request{}, err
	}
	if rec != nil && rec.IsGoing() {
		return participation.Request{}, ErrAlreadyAttending
	}
	existing, err := deps.Requests.FindPending(ctx, e.ID, input.ProfileID)
	if err != nil {
		return participation.Request{}, err
	}
	if existing != nil {
		return participation.Request{}, participation.ErrDuplicate
	}

	if err := deps.Requests.Save(ctx, req); err != nil {
		return participation.Request{}, err
	}
	slog.Info("participation_event", "event", "requested", "request_id", req.ID,
		"event_id", e.ID, "profile_id", req.ProfileID, "account_id", req.RequestedBy)

	notifyAdmins(ctx, deps, e, req)
	return req, nil
}

func notifyAdmins(ctx context.Context, deps RequestParticipationDeps, e event.Event, req participation.Request) {
	if deps.Sender == nil || deps.NotifyTo == "" {
		return
	}
	name := req.ProfileID
	if p, err := deps.Profiles.GetByID(ctx, req.ProfileID); err == nil {
		name = p.Name
	}
	body := fmt.Sprintf("<p><strong>%s</strong> asked to join <strong>%s</strong> on %s.</p>",
		html.EscapeString(name), html.EscapeString(e.Title), e.StartTime.Format("Mon 2 Jan 15:04"))
	if req.Note != "" {
		body += "<blockquote>" + html.EscapeString(req.Note) + "</blockquote>"
	}
	_, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{deps.NotifyTo},
		Subject: "Participation request: " + e.Title,
		HTML:    body,
	})
	if err != nil {
		slog.Error("participation_event", "event", "notify_failed", "request_id", req.ID, "error", err)
	}
}

// --- Decide participation ---

// DecideParticipationInput carries an admin verdict.
type DecideParticipationInput struct {
	AdminID   string
	RequestID string
	Verdict   string // approve | reject
}

// DecideParticipationDeps holds dependencies for DecideParticipation.
type DecideParticipationDeps struct {
	Events   EventReader
	Records  RecordStore
	Requests ParticipationStore
	Now      func() time.Time
}

// ExecuteDecideParticipation approves or rejects a pending request.
// PRE: caller is an admin
// POST: approval sets attending=yes bypassing the window; rejection changes no record
func ExecuteDecideParticipation(ctx context.Context, input DecideParticipationInput, deps DecideParticipationDeps) (participation.Request, error) {
	approve, err := participation.ParseVerdict(input.Verdict)
	if err != nil {
		return participation.Request{}, err
	}
	req, err := deps.Requests.GetByID(ctx, input.RequestID)
	if err != nil {
		return participation.Request{}, err
	}
	now := deps.Now()
	if err := req.Decide(approve, input.AdminID, now); err != nil {
		return participation.Request{}, err
	}

	if approve {
		e, err := deps.Events.GetByID(ctx, req.EventID)
		if err != nil {
			return participation.Request{}, err
		}
		if e.Cancelled {
			return participation.Request{}, attendance.ErrEventCancelled
		}
		rec, err := loadRecord(ctx, deps.Records, req.EventID, req.ProfileID)
		if err != nil {
			return participation.Request{}, err
		}
		changed, err := rec.ForceAttending(attendance.AttendingYes, now)
		if err != nil {
			return participation.Request{}, err
		}
		if changed {
			if err := saveRecord(ctx, deps.Records, rec); err != nil {
				return participation.Request{}, err
			}
		}
	}

	if err := deps.Requests.Save(ctx, req); err != nil {
		return participation.Request{}, err
	}
	slog.Info("participation_event", "event", req.Status, "request_id", req.ID,
		"event_id", req.EventID, "profile_id", req.ProfileID, "admin_id", input.AdminID)
	return req, nil
}

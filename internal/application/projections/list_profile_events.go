package projections

import (
	"context"
	"time"

	"clubhouse/internal/domain/apperr"
	domainEvent "clubhouse/internal/domain/event"
	"clubhouse/internal/domain/lifecycle"
)

// EventView is an event annotated with one profile's lifecycle view.
type EventView struct {
	Event domainEvent.Event
	View  lifecycle.View
}

// ListProfileEventsQuery carries input for the month listing.
type ListProfileEventsQuery struct {
	ProfileID string
	Year      int
	Month     int       // 1-12
	Now       time.Time // optional: if zero, time.Now() is used
}

// ListProfileEventsDeps holds dependencies for the month listing.
type ListProfileEventsDeps struct {
	ProfileStore ProfileStore
	EventStore   EventStore
	RecordStore  RecordStore
}

// QueryListProfileEvents returns the month's events visible to a profile,
// each evaluated through the lifecycle rules.
// PRE: Month in 1..12
// POST: Events the profile cannot see appear only when it already has a record for them
func QueryListProfileEvents(ctx context.Context, query ListProfileEventsQuery, deps ListProfileEventsDeps) ([]EventView, error) {
	if query.Month < 1 || query.Month > 12 {
		return nil, apperr.Validation("month must be between 1 and 12")
	}
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	p, err := deps.ProfileStore.GetByID(ctx, query.ProfileID)
	if err != nil {
		return nil, err
	}
	from := time.Date(query.Year, time.Month(query.Month), 1, 0, 0, 0, 0, time.UTC)
	events, err := deps.EventStore.ListByStartRange(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	records, err := deps.RecordStore.ListByProfile(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	byEvent := recordIndex(records)

	out := make([]EventView, 0, len(events))
	for _, e := range events {
		rec := byEvent[e.ID]
		if !domainEvent.VisibleTo(e, p) && (rec == nil || !rec.Exists()) {
			continue
		}
		out = append(out, EventView{Event: e, View: lifecycle.Evaluate(lifecycle.NewFact(e, p, rec), now)})
	}
	return out, nil
}

package projections

import (
	"context"
	"sort"
	"time"

	domainEvent "clubhouse/internal/domain/event"
	"clubhouse/internal/domain/lifecycle"
	domainProfile "clubhouse/internal/domain/profile"
)

// Dashboard selection limits.
const (
	DashboardLookAround   = 30 * 24 * time.Hour
	DashboardMaxUpcoming  = 7
	DashboardFriendsLimit = 3
)

// UpcomingEvent is an upcoming event; Friends is set on the first few only.
type UpcomingEvent struct {
	EventView
	Friends *FriendsSummary
}

// Dashboard is the landing view for one profile.
type Dashboard struct {
	Profile   domainProfile.Profile
	NextEvent *EventView
	LastEvent *EventView
	Upcoming  []UpcomingEvent
	Stats     EventStats
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	ProfileID string
	Now       time.Time // optional: if zero, time.Now() is used
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	ProfileStore ProfileStore
	EventStore   EventStore
	RecordStore  RecordStore
}

// QueryGetDashboard selects the next and last events around now and the
// current year's attendance stats.
// PRE: query.ProfileID is non-empty
// POST: cancelled events are never selected; at most DashboardMaxUpcoming
// upcoming events, with friends summaries on the first DashboardFriendsLimit
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (Dashboard, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	statsDeps := StatsDeps{ProfileStore: deps.ProfileStore, EventStore: deps.EventStore, RecordStore: deps.RecordStore}
	p, facts, err := loadFacts(ctx, query.ProfileID, statsDeps)
	if err != nil {
		return Dashboard{}, err
	}
	byEvent := make(map[string]lifecycle.Fact, len(facts))
	for _, f := range facts {
		byEvent[f.Event.ID] = f
	}

	events, err := deps.EventStore.ListByStartRange(ctx, now.Add(-DashboardLookAround), now.Add(DashboardLookAround))
	if err != nil {
		return Dashboard{}, err
	}
	var past, future []domainEvent.Event
	for _, e := range events {
		if e.Cancelled || !domainEvent.VisibleTo(e, p) {
			continue
		}
		if e.StartTime.Before(now) {
			past = append(past, e)
		} else {
			future = append(future, e)
		}
	}
	sort.SliceStable(future, func(i, j int) bool { return future[i].StartTime.Before(future[j].StartTime) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].StartTime.After(past[j].StartTime) })

	view := func(e domainEvent.Event) EventView {
		f, ok := byEvent[e.ID]
		if !ok {
			f = lifecycle.NewFact(e, p, nil)
		}
		return EventView{Event: e, View: lifecycle.Evaluate(f, now)}
	}

	d := Dashboard{Profile: p, Stats: ComputeEventStats(now.UTC().Year(), facts)}
	if len(past) > 0 {
		v := view(past[0])
		d.LastEvent = &v
	}
	if len(future) > 0 {
		v := view(future[0])
		d.NextEvent = &v
	}
	if len(future) > DashboardMaxUpcoming {
		future = future[:DashboardMaxUpcoming]
	}

	var active []domainProfile.Profile
	if len(future) > 0 {
		if active, err = deps.ProfileStore.ListActive(ctx); err != nil {
			return Dashboard{}, err
		}
	}
	for i, e := range future {
		u := UpcomingEvent{EventView: view(e)}
		if i < DashboardFriendsLimit {
			records, err := deps.RecordStore.ListByEvent(ctx, e.ID)
			if err != nil {
				return Dashboard{}, err
			}
			s := SummarizeFriends(e, active, records)
			u.Friends = &s
		}
		d.Upcoming = append(d.Upcoming, u)
	}
	return d, nil
}

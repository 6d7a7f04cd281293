package projections

import (
	"context"
	"sort"

	domainAttendance "clubhouse/internal/domain/attendance"
	domainEvent "clubhouse/internal/domain/event"
	domainProfile "clubhouse/internal/domain/profile"
)

// FriendsPerson is one profile attending an event.
type FriendsPerson struct {
	ProfileID string
	Name      string
}

// FriendsBucket counts one category for an event.
// INVARIANT: Yes <= Total and len(People) == Yes
type FriendsBucket struct {
	Category domainProfile.Category
	Yes      int
	Total    int
	People   []FriendsPerson
}

// FriendsSummary is who is coming to an event, by category.
type FriendsSummary struct {
	EventID string
	Buckets []FriendsBucket
}

// Bucket returns the bucket for c.
func (s FriendsSummary) Bucket(c domainProfile.Category) (FriendsBucket, bool) {
	for _, b := range s.Buckets {
		if b.Category == c {
			return b, true
		}
	}
	return FriendsBucket{}, false
}

// EligibleTotal sums the bucket totals.
func (s FriendsSummary) EligibleTotal() int {
	n := 0
	for _, b := range s.Buckets {
		n += b.Total
	}
	return n
}

// SummarizeFriends folds the records of one event into category buckets.
// PRE: records belong to e
// POST: totals count active profiles that can see e; yes counts only those
// profiles; child events have a single kids bucket, adult events have men
// and women plus juniors when any junior is eligible
func SummarizeFriends(e domainEvent.Event, profiles []domainProfile.Profile, records []domainAttendance.Record) FriendsSummary {
	order := []domainProfile.Category{domainProfile.CategoryMen, domainProfile.CategoryWomen, domainProfile.CategoryJuniors}
	if e.IsChildEvent {
		order = []domainProfile.Category{domainProfile.CategoryKids}
	}
	buckets := make(map[domainProfile.Category]*FriendsBucket, len(order))
	for _, c := range order {
		buckets[c] = &FriendsBucket{Category: c}
	}

	eligible := make(map[string]domainProfile.Profile)
	for _, p := range profiles {
		if !p.IsActive() || !domainEvent.VisibleTo(e, p) {
			continue
		}
		b, ok := buckets[p.Category()]
		if !ok {
			continue
		}
		eligible[p.ID] = p
		b.Total++
	}

	for _, r := range records {
		if !r.IsGoing() {
			continue
		}
		p, ok := eligible[r.ProfileID]
		if !ok {
			continue
		}
		b := buckets[p.Category()]
		b.Yes++
		b.People = append(b.People, FriendsPerson{ProfileID: p.ID, Name: p.Name})
	}

	summary := FriendsSummary{EventID: e.ID}
	for _, c := range order {
		b := buckets[c]
		if c == domainProfile.CategoryJuniors && b.Total == 0 {
			continue
		}
		sort.Slice(b.People, func(i, j int) bool { return b.People[i].Name < b.People[j].Name })
		summary.Buckets = append(summary.Buckets, *b)
	}
	return summary
}

// GetFriendsSummaryDeps holds dependencies for the friends summary projection.
type GetFriendsSummaryDeps struct {
	EventStore   EventStore
	ProfileStore ProfileStore
	RecordStore  RecordStore
}

// QueryGetFriendsSummary loads an event's records and summarizes them.
// PRE: eventID is non-empty
// POST: Returns the summary or the store's not-found error
func QueryGetFriendsSummary(ctx context.Context, eventID string, deps GetFriendsSummaryDeps) (FriendsSummary, error) {
	e, err := deps.EventStore.GetByID(ctx, eventID)
	if err != nil {
		return FriendsSummary{}, err
	}
	profiles, err := deps.ProfileStore.ListActive(ctx)
	if err != nil {
		return FriendsSummary{}, err
	}
	records, err := deps.RecordStore.ListByEvent(ctx, e.ID)
	if err != nil {
		return FriendsSummary{}, err
	}
	return SummarizeFriends(e, profiles, records), nil
}

package projections

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	domainAttendance "clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/fee"
	domainParticipation "clubhouse/internal/domain/participation"
	domainProfile "clubhouse/internal/domain/profile"
)

// PaymentQueueRecordStore lists records by payment state.
type PaymentQueueRecordStore interface {
	ListByPaidStatus(ctx context.Context, status domainAttendance.PaidStatus) ([]domainAttendance.Record, error)
	ListOutstanding(ctx context.Context) ([]domainAttendance.Record, error)
}

// PaymentQueueItem is one record awaiting admin attention.
type PaymentQueueItem struct {
	EventID     string
	EventTitle  string
	EventStart  time.Time
	ProfileID   string
	ProfileName string
	Amount      decimal.Decimal
	Status      domainAttendance.PaidStatus
	MarkedAt    time.Time
}

// PaymentQueue is the admin payments list.
type PaymentQueue struct {
	Pending          []PaymentQueueItem
	Outstanding      []PaymentQueueItem
	PendingTotal     decimal.Decimal
	OutstandingTotal decimal.Decimal
}

// GetPaymentQueueDeps holds dependencies for the payment queue.
type GetPaymentQueueDeps struct {
	RecordStore  PaymentQueueRecordStore
	EventStore   EventStore
	ProfileStore ProfileStore
}

// QueryGetPaymentQueue lists pending submissions and outstanding billable records.
// PRE: caller is an admin
// POST: Outstanding holds exactly the records for which Record.Outstanding is true
func QueryGetPaymentQueue(ctx context.Context, deps GetPaymentQueueDeps) (PaymentQueue, error) {
	pending, err := deps.RecordStore.ListByPaidStatus(ctx, domainAttendance.PaidPending)
	if err != nil {
		return PaymentQueue{}, err
	}
	outstanding, err := deps.RecordStore.ListOutstanding(ctx)
	if err != nil {
		return PaymentQueue{}, err
	}
	filtered := outstanding[:0]
	for _, r := range outstanding {
		if r.Outstanding() {
			filtered = append(filtered, r)
		}
	}
	outstanding = filtered

	eventIDs, profileIDs := refIDs(pending, outstanding)
	events, err := deps.EventStore.ListByIDs(ctx, eventIDs)
	if err != nil {
		return PaymentQueue{}, err
	}
	profiles, err := deps.ProfileStore.ListByIDs(ctx, profileIDs)
	if err != nil {
		return PaymentQueue{}, err
	}
	evIdx, prIdx := eventIndex(events), profileIndex(profiles)

	build := func(records []domainAttendance.Record) ([]PaymentQueueItem, decimal.Decimal) {
		items := make([]PaymentQueueItem, 0, len(records))
		total := decimal.Zero
		for _, r := range records {
			e, ok := evIdx[r.EventID]
			if !ok {
				continue
			}
			p, ok := prIdx[r.ProfileID]
			name := p.Name
			if !ok {
				p = domainProfile.Profile{ID: r.ProfileID}
				name = r.ProfileID
			}
			amount := fee.AmountDue(r.FeeDue, fee.InputFor(e, p))
			total = total.Add(amount)
			items = append(items, PaymentQueueItem{
				EventID: e.ID, EventTitle: e.Title, EventStart: e.StartTime,
				ProfileID: r.ProfileID, ProfileName: name,
				Amount: amount, Status: r.Status(), MarkedAt: r.PaymentMarkedAt,
			})
		}
		sort.SliceStable(items, func(i, j int) bool {
			if !items[i].EventStart.Equal(items[j].EventStart) {
				return items[i].EventStart.Before(items[j].EventStart)
			}
			return items[i].ProfileName < items[j].ProfileName
		})
		return items, total
	}

	var q PaymentQueue
	q.Pending, q.PendingTotal = build(pending)
	q.Outstanding, q.OutstandingTotal = build(outstanding)
	return q, nil
}

func refIDs(lists ...[]domainAttendance.Record) (eventIDs, profileIDs []string) {
	seenE, seenP := make(map[string]bool), make(map[string]bool)
	for _, records := range lists {
		for _, r := range records {
			if !seenE[r.EventID] {
				seenE[r.EventID] = true
				eventIDs = append(eventIDs, r.EventID)
			}
			if !seenP[r.ProfileID] {
				seenP[r.ProfileID] = true
				profileIDs = append(profileIDs, r.ProfileID)
			}
		}
	}
	return eventIDs, profileIDs
}

// ParticipationQueueStore lists open requests.
type ParticipationQueueStore interface {
	ListPending(ctx context.Context) ([]domainParticipation.Request, error)
}

// ParticipationQueueItem is a pending request with display names.
type ParticipationQueueItem struct {
	Request     domainParticipation.Request
	EventTitle  string
	EventStart  time.Time
	ProfileName string
}

// GetParticipationQueueDeps holds dependencies for the participation queue.
type GetParticipationQueueDeps struct {
	RequestStore ParticipationQueueStore
	EventStore   EventStore
	ProfileStore ProfileStore
}

// QueryGetParticipationQueue lists pending participation requests, oldest first.
// PRE: caller is an admin
func QueryGetParticipationQueue(ctx context.Context, deps GetParticipationQueueDeps) ([]ParticipationQueueItem, error) {
	requests, err := deps.RequestStore.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	var eventIDs, profileIDs []string
	for _, r := range requests {
		eventIDs = append(eventIDs, r.EventID)
		profileIDs = append(profileIDs, r.ProfileID)
	}
	events, err := deps.EventStore.ListByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	profiles, err := deps.ProfileStore.ListByIDs(ctx, profileIDs)
	if err != nil {
		return nil, err
	}
	evIdx, prIdx := eventIndex(events), profileIndex(profiles)

	items := make([]ParticipationQueueItem, 0, len(requests))
	for _, r := range requests {
		item := ParticipationQueueItem{Request: r, EventTitle: r.EventID, ProfileName: r.ProfileID}
		if e, ok := evIdx[r.EventID]; ok {
			item.EventTitle, item.EventStart = e.Title, e.StartTime
		}
		if p, ok := prIdx[r.ProfileID]; ok {
			item.ProfileName = p.Name
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Request.CreatedAt.Before(items[j].Request.CreatedAt) })
	return items, nil
}

package projections

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	domainAttendance "clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/fee"
	"clubhouse/internal/domain/lifecycle"
	domainProfile "clubhouse/internal/domain/profile"
)

// DefaultRecentPayments is the breakdown length when none is requested.
const DefaultRecentPayments = 10

// MonthAttendance is one month of attendance stats.
type MonthAttendance struct {
	Month    time.Month
	Total    int
	Attended int
	Rate     int // percent
}

// EventStats rolls attendance up by month for one year.
type EventStats struct {
	Year     int
	Months   []MonthAttendance // always 12 entries
	Total    int
	Attended int
	Rate     int
}

// MonthPayments is one month of payment totals.
type MonthPayments struct {
	Month       time.Month
	Paid        decimal.Decimal
	Pending     decimal.Decimal
	Outstanding decimal.Decimal
}

// PaymentLine is one event in the recent payments breakdown.
type PaymentLine struct {
	EventID    string
	EventTitle string
	Date       time.Time
	Amount     decimal.Decimal
	Status     domainAttendance.PaidStatus
}

// PaymentStats rolls payments up by month for one year.
type PaymentStats struct {
	Year        int
	Months      []MonthPayments // always 12 entries
	Paid        decimal.Decimal
	Pending     decimal.Decimal
	Outstanding decimal.Decimal
	Recent      []PaymentLine
}

// ProfileStats bundles both rollups.
type ProfileStats struct {
	Events   EventStats
	Payments PaymentStats
}

// StatsQuery carries input for the stats projections.
type StatsQuery struct {
	ProfileID string
	Year      int
	RecentN   int // payment breakdown length; 0 uses DefaultRecentPayments
}

// StatsDeps holds dependencies for the stats projections.
type StatsDeps struct {
	ProfileStore ProfileStore
	EventStore   EventStore
	RecordStore  RecordStore
}

// rate returns attended/total as a percentage rounded half-up.
func rate(attended, total int) int {
	if total == 0 {
		return 0
	}
	return (200*attended + total) / (2 * total)
}

// ComputeEventStats buckets facts by the month of their event.
// PRE: facts belong to one profile
// POST: cancelled and membership-fee events are not counted; attended
// counts records with attending=yes
func ComputeEventStats(year int, facts []lifecycle.Fact) EventStats {
	stats := EventStats{Year: year, Months: make([]MonthAttendance, 12)}
	for i := range stats.Months {
		stats.Months[i].Month = time.Month(i + 1)
	}
	for _, f := range facts {
		start := f.Event.StartTime.UTC()
		if start.Year() != year || f.Event.Cancelled || f.Event.IsMembershipFee() || !f.Record.Exists() {
			continue
		}
		m := &stats.Months[start.Month()-1]
		m.Total++
		stats.Total++
		if f.Record.IsGoing() {
			m.Attended++
			stats.Attended++
		}
	}
	for i := range stats.Months {
		stats.Months[i].Rate = rate(stats.Months[i].Attended, stats.Months[i].Total)
	}
	stats.Rate = rate(stats.Attended, stats.Total)
	return stats
}

// ComputePaymentStats totals paid, pending and outstanding amounts by month.
// PRE: facts belong to one profile; recentN > 0
// POST: outstanding uses Record.Outstanding so non-billable records never count
func ComputePaymentStats(year int, facts []lifecycle.Fact, recentN int) PaymentStats {
	stats := PaymentStats{Year: year, Months: make([]MonthPayments, 12)}
	for i := range stats.Months {
		stats.Months[i].Month = time.Month(i + 1)
	}
	var lines []PaymentLine
	for _, f := range facts {
		start := f.Event.StartTime.UTC()
		if start.Year() != year {
			continue
		}
		r := f.Record
		amount := fee.AmountDue(r.FeeDue, fee.InputFor(f.Event, f.Profile))
		m := &stats.Months[start.Month()-1]
		switch {
		case r.Status() == domainAttendance.PaidPaid:
			m.Paid = m.Paid.Add(amount)
			stats.Paid = stats.Paid.Add(amount)
		case r.Status() == domainAttendance.PaidPending:
			m.Pending = m.Pending.Add(amount)
			stats.Pending = stats.Pending.Add(amount)
		case r.Outstanding():
			m.Outstanding = m.Outstanding.Add(amount)
			stats.Outstanding = stats.Outstanding.Add(amount)
		default:
			continue
		}
		lines = append(lines, PaymentLine{
			EventID:    f.Event.ID,
			EventTitle: f.Event.Title,
			Date:       f.Event.StartTime,
			Amount:     amount,
			Status:     r.Status(),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Date.After(lines[j].Date) })
	if len(lines) > recentN {
		lines = lines[:recentN]
	}
	stats.Recent = lines
	return stats
}

// loadFacts returns the profile and one fact per stored record whose event exists.
func loadFacts(ctx context.Context, profileID string, deps StatsDeps) (domainProfile.Profile, []lifecycle.Fact, error) {
	p, err := deps.ProfileStore.GetByID(ctx, profileID)
	if err != nil {
		return domainProfile.Profile{}, nil, err
	}
	records, err := deps.RecordStore.ListByProfile(ctx, p.ID)
	if err != nil {
		return domainProfile.Profile{}, nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.EventID)
	}
	events, err := deps.EventStore.ListByIDs(ctx, ids)
	if err != nil {
		return domainProfile.Profile{}, nil, err
	}
	byID := eventIndex(events)

	facts := make([]lifecycle.Fact, 0, len(records))
	for i := range records {
		e, ok := byID[records[i].EventID]
		if !ok {
			continue
		}
		facts = append(facts, lifecycle.NewFact(e, p, &records[i]))
	}
	return p, facts, nil
}

// QueryGetEventStats returns a profile's attendance stats for a year.
// PRE: query.ProfileID is non-empty
// POST: Returns 12 monthly buckets and the year summary
func QueryGetEventStats(ctx context.Context, query StatsQuery, deps StatsDeps) (EventStats, error) {
	_, facts, err := loadFacts(ctx, query.ProfileID, deps)
	if err != nil {
		return EventStats{}, err
	}
	return ComputeEventStats(query.Year, facts), nil
}

// QueryGetPaymentStats returns a profile's payment stats for a year.
// PRE: query.ProfileID is non-empty
// POST: Recent holds at most RecentN lines, newest first
func QueryGetPaymentStats(ctx context.Context, query StatsQuery, deps StatsDeps) (PaymentStats, error) {
	_, facts, err := loadFacts(ctx, query.ProfileID, deps)
	if err != nil {
		return PaymentStats{}, err
	}
	return ComputePaymentStats(query.Year, facts, recentOrDefault(query.RecentN)), nil
}

// QueryGetProfileStats returns both rollups from one read of the profile's records.
func QueryGetProfileStats(ctx context.Context, query StatsQuery, deps StatsDeps) (ProfileStats, error) {
	_, facts, err := loadFacts(ctx, query.ProfileID, deps)
	if err != nil {
		return ProfileStats{}, err
	}
	return ProfileStats{
		Events:   ComputeEventStats(query.Year, facts),
		Payments: ComputePaymentStats(query.Year, facts, recentOrDefault(query.RecentN)),
	}, nil
}

func recentOrDefault(n int) int {
	if n <= 0 {
		return DefaultRecentPayments
	}
	return n
}

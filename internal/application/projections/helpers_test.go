package projections

import (
	"context"
	"time"

	"clubhouse/internal/domain/apperr"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainEvent "clubhouse/internal/domain/event"
	domainParticipation "clubhouse/internal/domain/participation"
	domainProfile "clubhouse/internal/domain/profile"
)

var testNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

type mockProfileStore struct {
	profiles []domainProfile.Profile
}

func (m *mockProfileStore) GetByID(_ context.Context, id string) (domainProfile.Profile, error) {
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return domainProfile.Profile{}, apperr.NotFound("profile")
}

func (m *mockProfileStore) ListByIDs(_ context.Context, ids []string) ([]domainProfile.Profile, error) {
	var out []domainProfile.Profile
	for _, id := range ids {
		if p, err := m.GetByID(context.Background(), id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfileStore) ListActive(_ context.Context) ([]domainProfile.Profile, error) {
	var out []domainProfile.Profile
	for _, p := range m.profiles {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockEventStore struct {
	events []domainEvent.Event
}

func (m *mockEventStore) GetByID(_ context.Context, id string) (domainEvent.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domainEvent.Event{}, apperr.NotFound("event")
}

func (m *mockEventStore) ListByStartRange(_ context.Context, from, to time.Time) ([]domainEvent.Event, error) {
	var out []domainEvent.Event
	for _, e := range m.events {
		if !e.StartTime.Before(from) && e.StartTime.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventStore) ListByIDs(_ context.Context, ids []string) ([]domainEvent.Event, error) {
	var out []domainEvent.Event
	for _, id := range ids {
		if e, err := m.GetByID(context.Background(), id); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockRecordStore struct {
	records []domainAttendance.Record
}

func (m *mockRecordStore) ListByEvent(_ context.Context, eventID string) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordStore) ListByProfile(_ context.Context, profileID string) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordStore) ListByPaidStatus(_ context.Context, status domainAttendance.PaidStatus) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if r.Status() == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListOutstanding deliberately over-returns unattended rows so the
// projection's own predicate is exercised.
func (m *mockRecordStore) ListOutstanding(_ context.Context) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if s := r.Status(); s == domainAttendance.PaidUnpaid || s == domainAttendance.PaidRejected {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockRequestStore struct {
	requests []domainParticipation.Request
}

func (m *mockRequestStore) ListPending(_ context.Context) ([]domainParticipation.Request, error) {
	var out []domainParticipation.Request
	for _, r := range m.requests {
		if r.IsPending() {
			out = append(out, r)
		}
	}
	return out, nil
}

func adult(id, name, gender string) domainProfile.Profile {
	return domainProfile.Profile{ID: id, Name: name, Kind: domainProfile.KindAdult, Gender: gender,
		MembershipType: domainProfile.MembershipStandard, Status: domainProfile.StatusActive}
}

func going(eventID, profileID string) domainAttendance.Record {
	return domainAttendance.Record{EventID: eventID, ProfileID: profileID, Attending: domainAttendance.AttendingYes}
}

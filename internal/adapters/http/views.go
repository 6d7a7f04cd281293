package web

import (
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/event"
	"clubhouse/internal/domain/lifecycle"
	"clubhouse/internal/domain/participation"
	"clubhouse/internal/domain/profile"
)

// money renders an amount with two decimals, the way it is stored.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type profileJSON struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	Category       string     `json:"category"`
	Gender         string     `json:"gender,omitempty"`
	MembershipType string     `json:"membershipType,omitempty"`
	Groups         []string   `json:"groups"`
	BirthDate      *time.Time `json:"birthDate,omitempty"`
	ParentIDs      []string   `json:"parentIds,omitempty"`
	ChildIDs       []string   `json:"childIds,omitempty"`
	Status         string     `json:"status"`
}

func toProfileJSON(p profile.Profile) profileJSON {
	return profileJSON{
		ID:             p.ID,
		Name:           p.Name,
		Kind:           p.Kind,
		Category:       string(p.Category()),
		Gender:         p.Gender,
		MembershipType: p.MembershipType,
		Groups:         p.EffectiveGroups(),
		BirthDate:      optionalTime(p.BirthDate),
		ParentIDs:      p.ParentIDs,
		ChildIDs:       p.ChildIDs,
		Status:         p.Status,
	}
}

type eventJSON struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Kind            string     `json:"kind"`
	Description     string     `json:"description,omitempty"`
	DescriptionHTML string     `json:"descriptionHtml,omitempty"`
	StartTime       time.Time  `json:"startTime"`
	CloseTime       time.Time  `json:"closeTime"`
	Fee             string     `json:"fee"`
	TargetGroups    []string   `json:"targetGroups"`
	IsChildEvent    bool       `json:"isChildEvent"`
	AgeRange        string     `json:"ageRange,omitempty"`
	Cancelled       bool       `json:"cancelled"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

func toEventJSON(e event.Event) eventJSON {
	groups := e.TargetGroups
	if len(groups) == 0 && e.LegacyGroup != "" {
		groups = []string{e.LegacyGroup}
	}
	out := eventJSON{
		ID:              e.ID,
		Title:           e.Title,
		Kind:            e.Kind,
		Description:     e.Description,
		DescriptionHTML: renderMarkdown(e.Description),
		StartTime:       e.StartTime,
		CloseTime:       e.CloseTime(),
		Fee:             money(e.Fee),
		TargetGroups:    groups,
		IsChildEvent:    e.IsChildEvent,
		Cancelled:       e.Cancelled,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       optionalTime(e.UpdatedAt),
	}
	if e.HasAgeRange() {
		out.AgeRange = e.AgeRangeLabel()
	}
	return out
}

type lifecycleJSON struct {
	Visible                 bool   `json:"visible"`
	Attending               string `json:"attending"`
	Attended                bool   `json:"attended"`
	PaidStatus              string `json:"paidStatus"`
	WindowOpen              bool   `json:"windowOpen"`
	CanToggleYes            bool   `json:"canToggleYes"`
	CanToggleNo             bool   `json:"canToggleNo"`
	CanRequestParticipation bool   `json:"canRequestParticipation"`
	EligibilityMessage      string `json:"eligibilityMessage,omitempty"`
	AmountDue               string `json:"amountDue"`
	FeeOverride             bool   `json:"feeOverride"`
	Billable                bool   `json:"billable"`
	Outstanding             bool   `json:"outstanding"`
	CanMarkPaid             bool   `json:"canMarkPaid"`
}

func toLifecycleJSON(v lifecycle.View) lifecycleJSON {
	return lifecycleJSON{
		Visible:                 v.Visible,
		Attending:               string(v.Attending),
		Attended:                v.Attended,
		PaidStatus:              string(v.PaidStatus),
		WindowOpen:              v.WindowOpen,
		CanToggleYes:            v.CanToggleYes,
		CanToggleNo:             v.CanToggleNo,
		CanRequestParticipation: v.CanRequestParticipation,
		EligibilityMessage:      v.EligibilityMessage,
		AmountDue:               money(v.AmountDue),
		FeeOverride:             v.FeeOverride,
		Billable:                v.Billable,
		Outstanding:             v.Outstanding,
		CanMarkPaid:             v.CanMarkPaid,
	}
}

type eventViewJSON struct {
	Event     eventJSON     `json:"event"`
	Lifecycle lifecycleJSON `json:"lifecycle"`
}

func toEventViewJSON(ev projections.EventView) eventViewJSON {
	return eventViewJSON{Event: toEventJSON(ev.Event), Lifecycle: toLifecycleJSON(ev.View)}
}

func toEventViewsJSON(evs []projections.EventView) []eventViewJSON {
	out := make([]eventViewJSON, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEventViewJSON(ev))
	}
	return out
}

type recordJSON struct {
	EventID            string     `json:"eventId"`
	ProfileID          string     `json:"profileId"`
	Attending          string     `json:"attending"`
	Attended           bool       `json:"attended"`
	PaidStatus         string     `json:"paidStatus"`
	FeeDue             *string    `json:"feeDue"`
	PaymentMarkedAt    *time.Time `json:"paymentMarkedAt,omitempty"`
	PaymentConfirmedAt *time.Time `json:"paymentConfirmedAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

func toRecordJSON(r attendance.Record) recordJSON {
	out := recordJSON{
		EventID:            r.EventID,
		ProfileID:          r.ProfileID,
		Attending:          string(r.Attending),
		Attended:           r.Attended,
		PaidStatus:         string(r.Status()),
		PaymentMarkedAt:    optionalTime(r.PaymentMarkedAt),
		PaymentConfirmedAt: optionalTime(r.PaymentConfirmedAt),
		UpdatedAt:          optionalTime(r.UpdatedAt),
	}
	if r.FeeDue != nil {
		s := money(*r.FeeDue)
		out.FeeDue = &s
	}
	return out
}

type requestJSON struct {
	ID          string     `json:"id"`
	EventID     string     `json:"eventId"`
	ProfileID   string     `json:"profileId"`
	RequestedBy string     `json:"requestedBy"`
	Note        string     `json:"note,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	DecidedBy   string     `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

func toRequestJSON(r participation.Request) requestJSON {
	return requestJSON{
		ID:          r.ID,
		EventID:     r.EventID,
		ProfileID:   r.ProfileID,
		RequestedBy: r.RequestedBy,
		Note:        r.Note,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		DecidedBy:   r.DecidedBy,
		DecidedAt:   optionalTime(r.DecidedAt),
	}
}

type itemErrorJSON struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
	Reason    string `json:"reason"`
}

type bulkResultJSON struct {
	Updated int             `json:"updated"`
	Failed  int             `json:"failed"`
	Errors  []itemErrorJSON `json:"errors,omitempty"`
}

func toBulkResultJSON(res orchestrators.BulkResult) bulkResultJSON {
	out := bulkResultJSON{Updated: res.Updated, Failed: res.Failed}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, itemErrorJSON(e))
	}
	return out
}

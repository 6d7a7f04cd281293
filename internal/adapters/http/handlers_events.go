package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	eventStore "clubhouse/internal/adapters/storage/event"
	"clubhouse/internal/application/listutil"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/event"
)

func parseFee(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, apperr.Validation("fee must be a decimal number")
	}
	return d, nil
}

type eventPageJSON struct {
	Events  []eventJSON `json:"events"`
	Page    int         `json:"page"`
	PerPage int         `json:"perPage"`
	HasMore bool        `json:"hasMore"`
}

// handleListEvents handles GET /api/admin/events?page=&per_page=&cancelled=
func (s *server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := listutil.ParsePage(q)
	events, err := s.stores.Events.List(r.Context(), eventStore.ListFilter{
		Limit:            page.Probe(),
		Offset:           page.Offset(),
		IncludeCancelled: listutil.Flag(q, "cancelled"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	events, more := listutil.Trim(events, page)
	out := eventPageJSON{Events: make([]eventJSON, 0, len(events)), Page: page.Number, PerPage: page.PerPage, HasMore: more}
	for _, e := range events {
		out.Events = append(out.Events, toEventJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

type createEventRequest struct {
	Title        string   `json:"title"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description"`
	StartTime    string   `json:"startTime"`
	Year         int      `json:"year"`
	Fee          string   `json:"fee"`
	TargetGroups []string `json:"targetGroups"`
	IsChildEvent bool     `json:"isChildEvent"`
	AgeMin       *int     `json:"ageMin"`
	AgeMax       *int     `json:"ageMax"`
}

// handleCreateEvent handles POST /api/admin/events
func (s *server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	fee, err := parseFee(req.Fee)
	if err != nil {
		writeError(w, err)
		return
	}
	var start time.Time
	if req.StartTime != "" {
		if start, err = parseInstant("startTime", req.StartTime); err != nil {
			writeError(w, err)
			return
		}
	}

	created, err := orchestrators.ExecuteCreateEvent(r.Context(), orchestrators.CreateEventInput{
		AdminID:      session(r).AccountID,
		Title:        req.Title,
		Kind:         req.Kind,
		Description:  req.Description,
		StartTime:    start,
		Year:         req.Year,
		Fee:          fee,
		TargetGroups: req.TargetGroups,
		IsChildEvent: req.IsChildEvent,
		AgeMin:       req.AgeMin,
		AgeMax:       req.AgeMax,
	}, orchestrators.CreateEventDeps{
		Events:     s.stores.Events,
		GenerateID: s.generateID,
		Now:        s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventJSON(created))
}

type editEventRequest struct {
	Title     *string `json:"title"`
	Fee       *string `json:"fee"`
	StartTime *string `json:"startTime"`
}

// handleEditEvent handles POST /api/admin/events/{id}. Omitted fields are unchanged.
func (s *server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	var req editEventRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	input := orchestrators.EditEventInput{
		AdminID: session(r).AccountID,
		EventID: r.PathValue("id"),
		Title:   req.Title,
	}
	if req.Fee != nil {
		fee, err := parseFee(*req.Fee)
		if err != nil {
			writeError(w, err)
			return
		}
		input.Fee = &fee
	}
	if req.StartTime != nil {
		start, err := parseInstant("startTime", *req.StartTime)
		if err != nil {
			writeError(w, err)
			return
		}
		input.StartTime = &start
	}

	updated, err := orchestrators.ExecuteEditEvent(r.Context(), input, orchestrators.EditEventDeps{
		Events: s.stores.Events,
		Now:    s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(updated))
}

// handleCancelEvent handles POST /api/admin/events/{id}/cancel
func (s *server) handleCancelEvent(w http.ResponseWriter, r *http.Request) {
	cancelled, err := orchestrators.ExecuteCancelEvent(r.Context(), session(r).AccountID, r.PathValue("id"),
		orchestrators.EditEventDeps{Events: s.stores.Events, Now: s.now})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(cancelled))
}

type friendsPersonJSON struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
}

type friendsBucketJSON struct {
	Category string              `json:"category"`
	Yes      int                 `json:"yes"`
	Total    int                 `json:"total"`
	People   []friendsPersonJSON `json:"people"`
}

type friendsSummaryJSON struct {
	EventID string              `json:"eventId"`
	Buckets []friendsBucketJSON `json:"buckets"`
}

func toFriendsSummaryJSON(fs projections.FriendsSummary) friendsSummaryJSON {
	out := friendsSummaryJSON{EventID: fs.EventID, Buckets: make([]friendsBucketJSON, 0, len(fs.Buckets))}
	for _, b := range fs.Buckets {
		people := make([]friendsPersonJSON, 0, len(b.People))
		for _, p := range b.People {
			people = append(people, friendsPersonJSON(p))
		}
		out.Buckets = append(out.Buckets, friendsBucketJSON{
			Category: string(b.Category),
			Yes:      b.Yes,
			Total:    b.Total,
			People:   people,
		})
	}
	return out
}

// handleFriends handles GET /api/events/{id}/friends?profileId=.
// Non-admins must name a profile they act for that can see the event.
func (s *server) handleFriends(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if err := s.authorizeEventRead(r, eventID, r.URL.Query().Get("profileId")); err != nil {
		writeError(w, err)
		return
	}
	summary, err := projections.QueryGetFriendsSummary(r.Context(), eventID, projections.GetFriendsSummaryDeps{
		EventStore:   s.stores.Events,
		ProfileStore: s.stores.Profiles,
		RecordStore:  s.stores.Records,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFriendsSummaryJSON(summary))
}

func (s *server) authorizeEventRead(r *http.Request, eventID, profileID string) error {
	sess := session(r)
	if sess.IsAdmin() {
		return nil
	}
	p, err := orchestrators.AuthorizeActor(r.Context(), actorFrom(sess), profileID, s.stores.Profiles)
	if err != nil {
		return err
	}
	e, err := s.stores.Events.GetByID(r.Context(), eventID)
	if err != nil {
		return err
	}
	// A child not stored yet has no groups to match against.
	if p == nil || !event.VisibleTo(e, *p) {
		return orchestrators.ErrEventNotOpenToProfile
	}
	return nil
}

// handleProfileEvents handles GET /api/profiles/{id}/events?year=&month=.
// Year and month default to the current ones.
func (s *server) handleProfileEvents(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")
	if err := s.authorizeProfileRead(r, profileID); err != nil {
		writeError(w, err)
		return
	}
	now := s.now()
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := projections.QueryListProfileEvents(r.Context(), projections.ListProfileEventsQuery{
		ProfileID: profileID,
		Year:      year,
		Month:     month,
		Now:       now,
	}, projections.ListProfileEventsDeps{
		ProfileStore: s.stores.Profiles,
		EventStore:   s.stores.Events,
		RecordStore:  s.stores.Records,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventViewsJSON(views))
}

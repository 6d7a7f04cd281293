package web

import (
	"net/http"
	"time"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
)

type setAttendingRequest struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
	Attending string `json:"attending"`
}

// handleSetAttending handles POST /api/attendance/attending
func (s *server) handleSetAttending(w http.ResponseWriter, r *http.Request) {
	var req setAttendingRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteSetAttending(r.Context(), orchestrators.SetAttendingInput{
		Actor:     actorFrom(session(r)),
		EventID:   req.EventID,
		ProfileID: req.ProfileID,
		Attending: req.Attending,
	}, orchestrators.SetAttendingDeps{
		Events:   s.stores.Events,
		Profiles: s.stores.Profiles,
		Records:  s.stores.Records,
		Now:      s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

type requestParticipationRequest struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
	Note      string `json:"note"`
}

// handleRequestParticipation handles POST /api/attendance/request
func (s *server) handleRequestParticipation(w http.ResponseWriter, r *http.Request) {
	var req requestParticipationRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := orchestrators.ExecuteRequestParticipation(r.Context(), orchestrators.RequestParticipationInput{
		Actor:     actorFrom(session(r)),
		EventID:   req.EventID,
		ProfileID: req.ProfileID,
		Note:      req.Note,
	}, orchestrators.RequestParticipationDeps{
		Events:     s.stores.Events,
		Profiles:   s.stores.Profiles,
		Records:    s.stores.Records,
		Requests:   s.stores.Requests,
		Sender:     s.sender,
		NotifyTo:   s.notifyTo,
		GenerateID: s.generateID,
		Now:        s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestJSON(created))
}

type participationQueueItemJSON struct {
	Request     requestJSON `json:"request"`
	EventTitle  string      `json:"eventTitle"`
	EventStart  time.Time   `json:"eventStart"`
	ProfileName string      `json:"profileName"`
}

// handleParticipationQueue handles GET /api/admin/participation
func (s *server) handleParticipationQueue(w http.ResponseWriter, r *http.Request) {
	items, err := projections.QueryGetParticipationQueue(r.Context(), projections.GetParticipationQueueDeps{
		RequestStore: s.stores.Requests,
		EventStore:   s.stores.Events,
		ProfileStore: s.stores.Profiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]participationQueueItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, participationQueueItemJSON{
			Request:     toRequestJSON(it.Request),
			EventTitle:  it.EventTitle,
			EventStart:  it.EventStart,
			ProfileName: it.ProfileName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type decideParticipationRequest struct {
	RequestID string `json:"requestId"`
	Decision  string `json:"decision"`
}

// handleDecideParticipation handles POST /api/admin/participation/decide
func (s *server) handleDecideParticipation(w http.ResponseWriter, r *http.Request) {
	var req decideParticipationRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	decided, err := orchestrators.ExecuteDecideParticipation(r.Context(), orchestrators.DecideParticipationInput{
		AdminID:   session(r).AccountID,
		RequestID: req.RequestID,
		Verdict:   req.Decision,
	}, orchestrators.DecideParticipationDeps{
		Events:   s.stores.Events,
		Records:  s.stores.Records,
		Requests: s.stores.Requests,
		Now:      s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestJSON(decided))
}

type setAttendedRequest struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
	Attended  bool   `json:"attended"`
}

// handleSetAttended handles POST /api/admin/attendance/attended
func (s *server) handleSetAttended(w http.ResponseWriter, r *http.Request) {
	var req setAttendedRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteSetAttended(r.Context(), orchestrators.SetAttendedInput{
		AdminID:   session(r).AccountID,
		EventID:   req.EventID,
		ProfileID: req.ProfileID,
		Attended:  req.Attended,
	}, orchestrators.SetAttendedDeps{
		Events:  s.stores.Events,
		Records: s.stores.Records,
		Now:     s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

// handleMarkAllAttended handles POST /api/admin/events/{id}/mark-all-attended
func (s *server) handleMarkAllAttended(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteMarkAllAttended(r.Context(), orchestrators.MarkAllAttendedInput{
		AdminID: session(r).AccountID,
		EventID: r.PathValue("id"),
	}, orchestrators.MarkAllAttendedDeps{
		Events:  s.stores.Events,
		Records: s.stores.Records,
		Now:     s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBulkResultJSON(res))
}

package web

import (
	"net/http"
	"time"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/profile"
)

type upcomingEventJSON struct {
	eventViewJSON
	Friends *friendsSummaryJSON `json:"friends,omitempty"`
}

type dashboardJSON struct {
	Profile   profileJSON         `json:"profile"`
	NextEvent *eventViewJSON      `json:"nextEvent"`
	LastEvent *eventViewJSON      `json:"lastEvent"`
	Upcoming  []upcomingEventJSON `json:"upcoming"`
	Stats     eventStatsJSON      `json:"stats"`
}

func optionalEventView(ev *projections.EventView) *eventViewJSON {
	if ev == nil {
		return nil
	}
	v := toEventViewJSON(*ev)
	return &v
}

// handleDashboard handles GET /api/profiles/{id}/dashboard
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")
	if err := s.authorizeProfileRead(r, profileID); err != nil {
		writeError(w, err)
		return
	}
	d, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		ProfileID: profileID,
		Now:       s.now(),
	}, projections.GetDashboardDeps{
		ProfileStore: s.stores.Profiles,
		EventStore:   s.stores.Events,
		RecordStore:  s.stores.Records,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := dashboardJSON{
		Profile:   toProfileJSON(d.Profile),
		NextEvent: optionalEventView(d.NextEvent),
		LastEvent: optionalEventView(d.LastEvent),
		Upcoming:  make([]upcomingEventJSON, 0, len(d.Upcoming)),
		Stats:     toEventStatsJSON(d.Stats),
	}
	for _, u := range d.Upcoming {
		item := upcomingEventJSON{eventViewJSON: toEventViewJSON(u.EventView)}
		if u.Friends != nil {
			f := toFriendsSummaryJSON(*u.Friends)
			item.Friends = &f
		}
		out.Upcoming = append(out.Upcoming, item)
	}
	writeJSON(w, http.StatusOK, out)
}

type monthAttendanceJSON struct {
	Month    int `json:"month"`
	Total    int `json:"total"`
	Attended int `json:"attended"`
	Rate     int `json:"rate"`
}

type eventStatsJSON struct {
	Year     int                   `json:"year"`
	Months   []monthAttendanceJSON `json:"months"`
	Total    int                   `json:"total"`
	Attended int                   `json:"attended"`
	Rate     int                   `json:"rate"`
}

func toEventStatsJSON(st projections.EventStats) eventStatsJSON {
	out := eventStatsJSON{Year: st.Year, Total: st.Total, Attended: st.Attended, Rate: st.Rate}
	for _, m := range st.Months {
		out.Months = append(out.Months, monthAttendanceJSON{Month: int(m.Month), Total: m.Total, Attended: m.Attended, Rate: m.Rate})
	}
	return out
}

type monthPaymentsJSON struct {
	Month       int    `json:"month"`
	Paid        string `json:"paid"`
	Pending     string `json:"pending"`
	Outstanding string `json:"outstanding"`
}

type paymentLineJSON struct {
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	Date       time.Time `json:"date"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
}

type paymentStatsJSON struct {
	Year        int                 `json:"year"`
	Months      []monthPaymentsJSON `json:"months"`
	Paid        string              `json:"paid"`
	Pending     string              `json:"pending"`
	Outstanding string              `json:"outstanding"`
	Recent      []paymentLineJSON   `json:"recent"`
}

func toPaymentStatsJSON(st projections.PaymentStats) paymentStatsJSON {
	out := paymentStatsJSON{
		Year:        st.Year,
		Paid:        money(st.Paid),
		Pending:     money(st.Pending),
		Outstanding: money(st.Outstanding),
		Recent:      make([]paymentLineJSON, 0, len(st.Recent)),
	}
	for _, m := range st.Months {
		out.Months = append(out.Months, monthPaymentsJSON{
			Month:       int(m.Month),
			Paid:        money(m.Paid),
			Pending:     money(m.Pending),
			Outstanding: money(m.Outstanding),
		})
	}
	for _, l := range st.Recent {
		out.Recent = append(out.Recent, paymentLineJSON{
			EventID:    l.EventID,
			EventTitle: l.EventTitle,
			Date:       l.Date,
			Amount:     money(l.Amount),
			Status:     string(l.Status),
		})
	}
	return out
}

type profileStatsJSON struct {
	Events   eventStatsJSON   `json:"events"`
	Payments paymentStatsJSON `json:"payments"`
}

// handleStats handles GET /api/profiles/{id}/stats?year=&recent=
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	profileID := r.PathValue("id")
	if err := s.authorizeProfileRead(r, profileID); err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt(r, "year", s.now().UTC().Year())
	if err != nil {
		writeError(w, err)
		return
	}
	recent, err := queryInt(r, "recent", projections.DefaultRecentPayments)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := projections.QueryGetProfileStats(r.Context(), projections.StatsQuery{
		ProfileID: profileID,
		Year:      year,
		RecentN:   recent,
	}, projections.StatsDeps{
		ProfileStore: s.stores.Profiles,
		EventStore:   s.stores.Events,
		RecordStore:  s.stores.Records,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileStatsJSON{
		Events:   toEventStatsJSON(st.Events),
		Payments: toPaymentStatsJSON(st.Payments),
	})
}

type saveProfileRequest struct {
	ID                string   `json:"id"`
	AccountID         string   `json:"accountId"`
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	Gender            string   `json:"gender"`
	HasPaymentManager bool     `json:"hasPaymentManager"`
	MembershipType    string   `json:"membershipType"`
	Groups            []string `json:"groups"`
	BirthDate         string   `json:"birthDate"` // YYYY-MM-DD
	ParentIDs         []string `json:"parentIds"`
	ChildIDs          []string `json:"childIds"`
	Status            string   `json:"status"`
}

// handleSaveProfile handles POST /api/admin/profiles (create or update).
func (s *server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p := profile.Profile{
		ID:                req.ID,
		AccountID:         req.AccountID,
		Name:              req.Name,
		Kind:              req.Kind,
		Gender:            req.Gender,
		HasPaymentManager: req.HasPaymentManager,
		MembershipType:    req.MembershipType,
		Groups:            req.Groups,
		ParentIDs:         req.ParentIDs,
		ChildIDs:          req.ChildIDs,
		Status:            req.Status,
	}
	if req.BirthDate != "" {
		bd, err := parseDate("birthDate", req.BirthDate)
		if err != nil {
			writeError(w, err)
			return
		}
		p.BirthDate = bd
	}

	saved, err := orchestrators.ExecuteSaveProfile(r.Context(), session(r).AccountID, p, orchestrators.SaveProfileDeps{
		Profiles:   s.stores.Profiles,
		GenerateID: s.generateID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, toProfileJSON(saved))
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type accountJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleCreateAccount handles POST /api/admin/accounts
func (s *server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, orchestrators.CreateAccountDeps{
		AccountStore: s.stores.Accounts,
		GenerateID:   s.generateID,
		Now:          s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountJSON{ID: acct.ID, Email: acct.Email, Role: acct.Role, CreatedAt: acct.CreatedAt})
}

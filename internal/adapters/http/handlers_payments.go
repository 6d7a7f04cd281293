package web

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/apperr"
)

type submitPaymentRequest struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
}

// handleSubmitPayment handles POST /api/payments/submit
func (s *server) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req submitPaymentRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteSubmitPayment(r.Context(), orchestrators.SubmitPaymentInput{
		Actor:     actorFrom(session(r)),
		EventID:   req.EventID,
		ProfileID: req.ProfileID,
	}, orchestrators.SubmitPaymentDeps{
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

type paymentRefJSON struct {
	EventID   string `json:"eventId"`
	ProfileID string `json:"profileId"`
}

type decidePaymentsRequest struct {
	Decision string           `json:"decision"`
	Items    []paymentRefJSON `json:"items"`
}

// handleDecidePayments handles POST /api/admin/payments/decide. A single item
// fails with its own status; a batch continues past failures and reports them.
func (s *server) handleDecidePayments(w http.ResponseWriter, r *http.Request) {
	var req decidePaymentsRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	adminID := session(r).AccountID
	deps := orchestrators.DecidePaymentDeps{Records: s.stores.Records, Now: s.now}

	if len(req.Items) == 1 {
		_, err := orchestrators.ExecuteDecidePayment(r.Context(), orchestrators.DecidePaymentInput{
			AdminID:  adminID,
			Ref:      orchestrators.PaymentRef(req.Items[0]),
			Decision: req.Decision,
		}, deps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bulkResultJSON{Updated: 1})
		return
	}

	refs := make([]orchestrators.PaymentRef, 0, len(req.Items))
	for _, it := range req.Items {
		refs = append(refs, orchestrators.PaymentRef(it))
	}
	res, err := orchestrators.ExecuteBulkDecidePayments(r.Context(), orchestrators.BulkDecidePaymentsInput{
		AdminID:  adminID,
		Refs:     refs,
		Decision: req.Decision,
	}, deps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBulkResultJSON(res))
}

type setFeeDueRequest struct {
	EventID   string  `json:"eventId"`
	ProfileID string  `json:"profileId"`
	Amount    *string `json:"amount"` // null clears the override
}

// handleSetFeeDue handles POST /api/admin/payments/fee-due
func (s *server) handleSetFeeDue(w http.ResponseWriter, r *http.Request) {
	var req setFeeDueRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	var amount *decimal.Decimal
	if req.Amount != nil {
		d, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			writeError(w, apperr.Validation("amount must be a decimal number"))
			return
		}
		amount = &d
	}
	rec, err := orchestrators.ExecuteSetFeeDue(r.Context(), orchestrators.SetFeeDueInput{
		AdminID:   session(r).AccountID,
		EventID:   req.EventID,
		ProfileID: req.ProfileID,
		Amount:    amount,
	}, orchestrators.SetFeeDueDeps{
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

type paymentQueueItemJSON struct {
	EventID     string     `json:"eventId"`
	EventTitle  string     `json:"eventTitle"`
	EventStart  time.Time  `json:"eventStart"`
	ProfileID   string     `json:"profileId"`
	ProfileName string     `json:"profileName"`
	Amount      string     `json:"amount"`
	Status      string     `json:"status"`
	MarkedAt    *time.Time `json:"markedAt,omitempty"`
}

type paymentQueueJSON struct {
	Pending          []paymentQueueItemJSON `json:"pending"`
	Outstanding      []paymentQueueItemJSON `json:"outstanding"`
	PendingTotal     string                 `json:"pendingTotal"`
	OutstandingTotal string                 `json:"outstandingTotal"`
}

func toPaymentQueueItems(items []projections.PaymentQueueItem) []paymentQueueItemJSON {
	out := make([]paymentQueueItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, paymentQueueItemJSON{
			EventID:     it.EventID,
			EventTitle:  it.EventTitle,
			EventStart:  it.EventStart,
			ProfileID:   it.ProfileID,
			ProfileName: it.ProfileName,
			Amount:      money(it.Amount),
			Status:      string(it.Status),
			MarkedAt:    optionalTime(it.MarkedAt),
		})
	}
	return out
}

// handlePaymentQueue handles GET /api/admin/payments
func (s *server) handlePaymentQueue(w http.ResponseWriter, r *http.Request) {
	q, err := projections.QueryGetPaymentQueue(r.Context(), projections.GetPaymentQueueDeps{
		RecordStore:  s.stores.Records,
		EventStore:   s.stores.Events,
		ProfileStore: s.stores.Profiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentQueueJSON{
		Pending:          toPaymentQueueItems(q.Pending),
		Outstanding:      toPaymentQueueItems(q.Outstanding),
		PendingTotal:     money(q.PendingTotal),
		OutstandingTotal: money(q.OutstandingTotal),
	})
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/idempotency"
)

type ticketJSON struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	UserID      string `json:"user_id"`
	Code        string `json:"ticket_code"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	PurchasedAt string `json:"purchased_at"`

	EventTitle     string `json:"event_title,omitempty"`
	EventDate      string `json:"event_date,omitempty"`
	EventTimeStart string `json:"event_time_start,omitempty"`
	EventLocation  string `json:"event_location,omitempty"`
	EventImageURL  string `json:"event_image_url,omitempty"`
}

func ticketResponse(t domain.Ticket) ticketJSON {
	return ticketJSON{
		ID:          t.ID.String(),
		EventID:     t.EventID.String(),
		UserID:      t.UserID.String(),
		Code:        t.Code,
		Quantity:    t.Quantity,
		Status:      string(t.Status),
		PurchasedAt: t.PurchasedAt.Format(time.RFC3339),
	}
}

// PurchaseTicket replays a stored response when the Idempotency-Key was
// seen before, so a retried request cannot decrement capacity twice.
func (h *Handlers) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	purchaser, _ := RequesterFromContext(r.Context())

	key := r.Header.Get("Idempotency-Key")
	if h.idemp != nil && key != "" {
		existing, err := h.idemp.Get(r.Context(), key)
		if err != nil {
			h.logger.Error("idempotency lookup failed: ", err)
		} else if existing != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(existing.Status)
			w.Write(existing.Body)
			return
		}
	}

	var req struct {
		EventID  uuid.UUID `json:"event_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	if req.EventID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing event_id"})
		return
	}

	ticket, err := h.inventory.Purchase(r.Context(), req.EventID, purchaser, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	body, _ := json.Marshal(ticketResponse(*ticket))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)

	if h.idemp != nil && key != "" {
		if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Body: body}); err != nil {
			h.logger.Error("idempotency store failed: ", err)
		}
	}
}

func (h *Handlers) MyTickets(w http.ResponseWriter, r *http.Request) {
	requester, _ := RequesterFromContext(r.Context())

	tickets, err := h.inventory.ListForUser(r.Context(), requester.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ticketJSON, 0, len(tickets))
	for _, t := range tickets {
		tj := ticketResponse(t.Ticket)
		tj.EventTitle = t.EventTitle
		tj.EventDate = t.EventDate.Format(dateLayout)
		tj.EventTimeStart = t.EventTimeStart
		tj.EventLocation = t.EventLocation
		tj.EventImageURL = t.EventImageURL
		out = append(out, tj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) EventTickets(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	tickets, err := h.inventory.ListForEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ticketJSON, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/approval"
	"github.com/robertarktes/college-event-tickets/internal/domain"
)

const dateLayout = "2006-01-02"

// eventPayload is the submission body shared by admin creation, the
// moderated request path, and descriptive updates.
type eventPayload struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
	Date         string  `json:"date"`
	TimeStart    string  `json:"time_start"`
	TimeEnd      string  `json:"time_end"`
	Location     string  `json:"location"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	TotalTickets int     `json:"total_tickets"`
}

func (p eventPayload) details() (domain.EventDetails, error) {
	d := domain.EventDetails{
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		TimeStart:   p.TimeStart,
		TimeEnd:     p.TimeEnd,
		Location:    p.Location,
		Category:    p.Category,
		Price:       p.Price,
	}
	if p.Date != "" {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			return d, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		d.Date = date
	}
	return d, nil
}

type eventJSON struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	ImageURL          string  `json:"image_url"`
	Date              string  `json:"date"`
	TimeStart         string  `json:"time_start"`
	TimeEnd           string  `json:"time_end"`
	Location          string  `json:"location"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	TotalCapacity     int     `json:"total_capacity"`
	RemainingCapacity int     `json:"remaining_capacity"`
	CreatedBy         string  `json:"created_by"`
	OrganizerName     string  `json:"organizer_name,omitempty"`
}

func eventResponse(ev domain.Event, organizer string) eventJSON {
	return eventJSON{
		ID:                ev.ID.String(),
		Title:             ev.Title,
		Description:       ev.Description,
		ImageURL:          ev.ImageURL,
		Date:              ev.Date.Format(dateLayout),
		TimeStart:         ev.TimeStart,
		TimeEnd:           ev.TimeEnd,
		Location:          ev.Location,
		Category:          ev.Category,
		Price:             ev.Price,
		TotalCapacity:     ev.TotalCapacity,
		RemainingCapacity: ev.RemainingCapacity,
		CreatedBy:         ev.CreatedBy.String(),
		OrganizerName:     organizer,
	}
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse(ev.Event, ev.OrganizerName))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	ev, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse(ev.Event, ev.OrganizerName))
}

// SubmitEvent is the single entry point for event creation: admins get
// a published event back, everyone else a pending request reference.
func (h *Handlers) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	requester, _ := RequesterFromContext(r.Context())

	var p eventPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	details, err := p.details()
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.approval.Submit(r.Context(), approval.SubmitInput{
		Details:      details,
		TotalTickets: p.TotalTickets,
	}, requester)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Event != nil {
		writeJSON(w, http.StatusCreated, eventResponse(*result.Event, ""))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "event request submitted and is pending approval",
		"request_id": result.Request.ID,
		"status":     result.Request.Status,
	})
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var p eventPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	details, err := p.details()
	if err != nil {
		writeError(w, err)
		return
	}
	ev, err := h.catalog.Update(r.Context(), id, details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse(ev.Event, ev.OrganizerName))
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *Handlers) ListPendingEvents(w http.ResponseWriter, r *http.Request) {
	requests, err := h.approval.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type pendingJSON struct {
		ID            string  `json:"id"`
		Title         string  `json:"title"`
		Date          string  `json:"date"`
		TimeStart     string  `json:"time_start"`
		TimeEnd       string  `json:"time_end"`
		Location      string  `json:"location"`
		Category      string  `json:"category"`
		Price         float64 `json:"price"`
		TotalTickets  int     `json:"total_tickets"`
		RequesterID   string  `json:"requester_id"`
		RequesterName string  `json:"requester_name"`
		Status        string  `json:"status"`
		CreatedAt     string  `json:"created_at"`
	}
	out := make([]pendingJSON, 0, len(requests))
	for _, req := range requests {
		out = append(out, pendingJSON{
			ID:            req.ID.String(),
			Title:         req.Title,
			Date:          req.Date.Format(dateLayout),
			TimeStart:     req.TimeStart,
			TimeEnd:       req.TimeEnd,
			Location:      req.Location,
			Category:      req.Category,
			Price:         req.Price,
			TotalTickets:  req.TotalTickets,
			RequesterID:   req.RequesterID.String(),
			RequesterName: req.RequesterName,
			Status:        string(req.Status),
			CreatedAt:     req.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) DecidePendingEvent(w http.ResponseWriter, r *http.Request) {
	moderator, _ := RequesterFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}
	decision, err := approval.ParseDecision(req.Status, req.AdminNotes)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.approval.Decide(r.Context(), id, decision, moderator)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"success": true, "status": result.Status}
	if result.EventID != nil {
		resp["event_id"] = result.EventID
	}
	writeJSON(w, http.StatusOK, resp)
}

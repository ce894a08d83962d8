// Package storetest provides an in-memory store used by service and
// handler tests. A single mutex serializes every operation, giving the
// same atomicity the postgres adapter gets from transactions.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
)

type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	emails   map[string]uuid.UUID
	events   map[uuid.UUID]*domain.Event
	requests map[uuid.UUID]*domain.PendingEventRequest
	tickets  []domain.Ticket
	codes    map[string]bool
	records  []outbox.Record

	// FailWith, when set, makes every operation return the error.
	FailWith error
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		emails:   make(map[string]uuid.UUID),
		events:   make(map[uuid.UUID]*domain.Event),
		requests: make(map[uuid.UUID]*domain.PendingEventRequest),
		codes:    make(map[string]bool),
	}
}

// --- auth.Store ---

func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, taken := s.emails[u.Email]; taken {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	id, ok := s.emails[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// --- approval.Store ---

func (s *Store) InsertEvent(ctx context.Context, ev domain.Event, rec outbox.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	copied := ev
	s.events[ev.ID] = &copied
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) InsertPendingRequest(ctx context.Context, req domain.PendingEventRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	copied := req
	s.requests[req.ID] = &copied
	return nil
}

func (s *Store) GetPendingRequest(ctx context.Context, id uuid.UUID) (*domain.PendingEventRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]domain.PendingRequestWithRequester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []domain.PendingRequestWithRequester
	for _, req := range s.requests {
		if req.Status != domain.RequestPending {
			continue
		}
		out = append(out, domain.PendingRequestWithRequester{
			PendingEventRequest: *req,
			RequesterName:       s.users[req.RequesterID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ApproveRequest(ctx context.Context, requestID uuid.UUID, notes string, ev domain.Event, rec outbox.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	req, ok := s.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return fmt.Errorf("request already %s: %w", req.Status, domain.ErrConflict)
	}
	req.Status = domain.RequestApproved
	req.AdminNotes = notes
	copied := ev
	s.events[ev.ID] = &copied
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) RejectRequest(ctx context.Context, requestID uuid.UUID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	req, ok := s.requests[requestID]
	if !ok {
		return domain.ErrNotFound
	}
	if req.Status != domain.RequestPending {
		return fmt.Errorf("request already %s: %w", req.Status, domain.ErrConflict)
	}
	req.Status = domain.RequestRejected
	req.AdminNotes = notes
	return nil
}

// --- inventory.Store ---

func (s *Store) PurchaseTicket(ctx context.Context, t domain.Ticket, rec outbox.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	ev, ok := s.events[t.EventID]
	if !ok {
		return domain.ErrNotFound
	}
	if ev.RemainingCapacity < t.Quantity {
		return domain.ErrSoldOut
	}
	if s.codes[t.Code] {
		return domain.ErrDuplicateCode
	}
	ev.RemainingCapacity -= t.Quantity
	s.codes[t.Code] = true
	s.tickets = append(s.tickets, t)
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) TicketsForUser(ctx context.Context, userID uuid.UUID) ([]domain.TicketWithEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []domain.TicketWithEvent
	for _, t := range s.tickets {
		if t.UserID != userID {
			continue
		}
		ev := s.events[t.EventID]
		out = append(out, domain.TicketWithEvent{
			Ticket:         t,
			EventTitle:     ev.Title,
			EventDate:      ev.Date,
			EventTimeStart: ev.TimeStart,
			EventLocation:  ev.Location,
			EventImageURL:  ev.ImageURL,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PurchasedAt.After(out[j].PurchasedAt)
	})
	return out, nil
}

func (s *Store) TicketsForEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []domain.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- catalog.Store ---

func (s *Store) ListEvents(ctx context.Context, category string) ([]domain.EventWithOrganizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []domain.EventWithOrganizer
	for _, ev := range s.events {
		if category != "" && ev.Category != category {
			continue
		}
		out = append(out, domain.EventWithOrganizer{
			Event:         *ev,
			OrganizerName: s.users[ev.CreatedBy].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*domain.EventWithOrganizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	ev, ok := s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.EventWithOrganizer{
		Event:         *ev,
		OrganizerName: s.users[ev.CreatedBy].Name,
	}, nil
}

func (s *Store) UpdateEventDetails(ctx context.Context, id uuid.UUID, d domain.EventDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	ev, ok := s.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	ev.EventDetails = d
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.events, id)
	var kept []domain.Ticket
	for _, t := range s.tickets {
		if t.EventID != id {
			kept = append(kept, t)
		}
	}
	s.tickets = kept
	return nil
}

// --- inspection helpers ---

func (s *Store) Event(id uuid.UUID) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return domain.Event{}, false
	}
	return *ev, true
}

func (s *Store) Request(id uuid.UUID) (domain.PendingEventRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return domain.PendingEventRequest{}, false
	}
	return *req, true
}

func (s *Store) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Store) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *Store) OutboxRecords() []outbox.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Record(nil), s.records...)
}

// Package approval implements the event moderation workflow: admin
// submissions publish immediately, everyone else's go through a
// pending queue that an admin approves or rejects exactly once.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/observability"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
)

// Store persists approval state. ApproveRequest must apply the status
// transition (conditional on the request still being pending), insert
// the materialized event, and record rec as one atomic unit.
type Store interface {
	InsertEvent(ctx context.Context, ev domain.Event, rec outbox.Record) error
	InsertPendingRequest(ctx context.Context, req domain.PendingEventRequest) error
	GetPendingRequest(ctx context.Context, id uuid.UUID) (*domain.PendingEventRequest, error)
	ListPendingRequests(ctx context.Context) ([]domain.PendingRequestWithRequester, error)
	ApproveRequest(ctx context.Context, requestID uuid.UUID, notes string, ev domain.Event, rec outbox.Record) error
	RejectRequest(ctx context.Context, requestID uuid.UUID, notes string) error
}

// Auditor records moderation activity. Failures are logged, never
// surfaced: the audit trail is best-effort by contract.
type Auditor interface {
	LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]any) error
}

type Service struct {
	store   Store
	audit   Auditor
	logger  observability.Logger
	timeout time.Duration
}

func NewService(store Store, audit Auditor, logger observability.Logger, storageTimeout time.Duration) *Service {
	return &Service{store: store, audit: audit, logger: logger, timeout: storageTimeout}
}

// SubmitInput carries the descriptive fields of an event submission.
type SubmitInput struct {
	Details      domain.EventDetails
	TotalTickets int
}

// SubmitResult is either a published event (admin path) or a pending
// request (moderated path); exactly one field is set.
type SubmitResult struct {
	Event   *domain.Event
	Request *domain.PendingEventRequest
}

// Submit publishes the event directly when the requester is an admin,
// otherwise files a pending request. Exactly one record is persisted.
func (s *Service) Submit(ctx context.Context, in SubmitInput, requester domain.Requester) (SubmitResult, error) {
	if requester.IsAdmin() {
		ev, err := domain.NewEvent(in.Details, in.TotalTickets, requester.ID)
		if err != nil {
			return SubmitResult{}, err
		}
		rec := outbox.NewRecord("event", ev.ID, outbox.EventPublished, map[string]any{
			"event_id": ev.ID,
			"title":    ev.Title,
		})
		if err := s.withTimeout(ctx, func(ctx context.Context) error {
			return s.store.InsertEvent(ctx, ev, rec)
		}); err != nil {
			return SubmitResult{}, fmt.Errorf("insert event: %w", err)
		}
		observability.EventsPublished.Inc()
		return SubmitResult{Event: &ev}, nil
	}

	req, err := domain.NewPendingEventRequest(in.Details, in.TotalTickets, requester.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.InsertPendingRequest(ctx, req)
	}); err != nil {
		return SubmitResult{}, fmt.Errorf("insert pending request: %w", err)
	}
	return SubmitResult{Request: &req}, nil
}

// Decision is the moderator's verdict on a pending request.
type Decision struct {
	Approve bool
	Notes   string
}

// ParseDecision maps the wire status value onto a Decision.
func ParseDecision(status, notes string) (Decision, error) {
	switch domain.RequestStatus(status) {
	case domain.RequestApproved:
		return Decision{Approve: true, Notes: notes}, nil
	case domain.RequestRejected:
		return Decision{Approve: false, Notes: notes}, nil
	}
	return Decision{}, fmt.Errorf("%w: status must be approved or rejected", domain.ErrInvalidInput)
}

// DecideResult reports the request's new terminal status and, on
// approval, the identifier of the event that was created.
type DecideResult struct {
	Status  domain.RequestStatus
	EventID *uuid.UUID
}

// Decide applies a moderation decision. The status transition is
// conditional on the request still being pending, so a concurrent
// duplicate call observes domain.ErrConflict and creates nothing.
func (s *Service) Decide(ctx context.Context, requestID uuid.UUID, dec Decision, moderator domain.Requester) (DecideResult, error) {
	var req *domain.PendingEventRequest
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.store.GetPendingRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return DecideResult{}, err
	}
	if req.Status != domain.RequestPending {
		return DecideResult{}, fmt.Errorf("request already %s: %w", req.Status, domain.ErrConflict)
	}

	if !dec.Approve {
		if err := s.withTimeout(ctx, func(ctx context.Context) error {
			return s.store.RejectRequest(ctx, requestID, dec.Notes)
		}); err != nil {
			return DecideResult{}, err
		}
		observability.ApprovalDecisions.WithLabelValues("rejected").Inc()
		s.auditDecision(ctx, moderator, req, domain.RequestRejected, nil)
		return DecideResult{Status: domain.RequestRejected}, nil
	}

	ev := domain.EventFromRequest(*req)
	rec := outbox.NewRecord("event", ev.ID, outbox.EventApproved, map[string]any{
		"event_id":   ev.ID,
		"request_id": requestID,
		"title":      ev.Title,
	})
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.ApproveRequest(ctx, requestID, dec.Notes, ev, rec)
	}); err != nil {
		return DecideResult{}, err
	}
	observability.ApprovalDecisions.WithLabelValues("approved").Inc()
	observability.EventsPublished.Inc()
	s.auditDecision(ctx, moderator, req, domain.RequestApproved, &ev.ID)
	return DecideResult{Status: domain.RequestApproved, EventID: &ev.ID}, nil
}

// ListPending returns the moderation queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]domain.PendingRequestWithRequester, error) {
	var out []domain.PendingRequestWithRequester
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.store.ListPendingRequests(ctx)
		return err
	})
	return out, err
}

func (s *Service) auditDecision(ctx context.Context, moderator domain.Requester, req *domain.PendingEventRequest, status domain.RequestStatus, eventID *uuid.UUID) {
	if s.audit == nil {
		return
	}
	data := map[string]any{
		"request_id": req.ID,
		"status":     status,
		"requester":  req.RequesterID,
	}
	if eventID != nil {
		data["event_id"] = *eventID
	}
	if err := s.audit.LogEvent(ctx, "request."+string(status), moderator.ID, data); err != nil {
		s.logger.Error("audit log failed: ", err)
	}
}

// withTimeout bounds a storage call and maps a deadline hit to the
// retryable storage-timeout error, provided the caller's own context is
// still live.
func (s *Service) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := fn(tctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrStorageTimeout
	}
	return err
}

// Package catalog serves the public event listing and the admin-only
// descriptive edits. Capacity is out of its reach: only the inventory
// ledger mutates remaining capacity, and total capacity is immutable.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
)

type Store interface {
	ListEvents(ctx context.Context, category string) ([]domain.EventWithOrganizer, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.EventWithOrganizer, error)
	UpdateEventDetails(ctx context.Context, id uuid.UUID, d domain.EventDetails) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store   Store
	timeout time.Duration
}

func NewService(store Store, storageTimeout time.Duration) *Service {
	return &Service{store: store, timeout: storageTimeout}
}

// List returns published events ordered by date, optionally filtered by
// category.
func (s *Service) List(ctx context.Context, category string) ([]domain.EventWithOrganizer, error) {
	var out []domain.EventWithOrganizer
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.store.ListEvents(ctx, category)
		return err
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.EventWithOrganizer, error) {
	var out *domain.EventWithOrganizer
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.store.GetEvent(ctx, id)
		return err
	})
	return out, err
}

// Update rewrites the descriptive fields of an event. Capacity fields
// are not part of EventDetails and cannot change here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, d domain.EventDetails) (*domain.EventWithOrganizer, error) {
	if err := domain.ValidateDetails(d); err != nil {
		return nil, err
	}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.UpdateEventDetails(ctx, id, d)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an event and its tickets. An explicit admin action,
// outside the ledger's monotonic-capacity contract.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.DeleteEvent(ctx, id)
	})
}

func (s *Service) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := fn(tctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrStorageTimeout
	}
	return err
}

// Package inventory is the ticket ledger: the only code path allowed to
// decrement an event's remaining capacity. The conditional decrement and
// the ticket insert form one atomic unit, so concurrent purchases can
// never oversell.
package inventory

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

// codeAttempts bounds retries when a generated ticket code collides
// with the unique constraint.
const codeAttempts = 3

// Store persists tickets and capacity. PurchaseTicket must, atomically:
// decrement the event's remaining capacity on the condition that at
// least t.Quantity remains (domain.ErrSoldOut otherwise,
// domain.ErrNotFound when the event does not exist), insert the ticket
// (domain.ErrDuplicateCode on a code collision), and record rec.
type Store interface {
	PurchaseTicket(ctx context.Context, t domain.Ticket, rec outbox.Record) error
	TicketsForUser(ctx context.Context, userID uuid.UUID) ([]domain.TicketWithEvent, error)
	TicketsForEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error)
}

// Auditor mirrors approval.Auditor; the trail is best-effort.
type Auditor interface {
	LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]any) error
}

type Ledger struct {
	store   Store
	audit   Auditor
	logger  observability.Logger
	timeout time.Duration
}

func NewLedger(store Store, audit Auditor, logger observability.Logger, storageTimeout time.Duration) *Ledger {
	return &Ledger{store: store, audit: audit, logger: logger, timeout: storageTimeout}
}

// Purchase sells quantity tickets against an event. A zero quantity
// means one ticket. Returns the confirmed ticket, including its code.
func (l *Ledger) Purchase(ctx context.Context, eventID uuid.UUID, purchaser domain.Requester, quantity int) (*domain.Ticket, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", domain.ErrInvalidInput)
	}

	var ticket domain.Ticket
	for attempt := 0; ; attempt++ {
		ticket = domain.NewTicket(eventID, purchaser.ID, quantity, newTicketCode())
		rec := outbox.NewRecord("ticket", ticket.ID, outbox.TicketPurchased, map[string]any{
			"ticket_id": ticket.ID,
			"event_id":  eventID,
			"user_id":   purchaser.ID,
			"quantity":  quantity,
		})
		err := l.withTimeout(ctx, func(ctx context.Context) error {
			return l.store.PurchaseTicket(ctx, ticket, rec)
		})
		if errors.Is(err, domain.ErrDuplicateCode) && attempt < codeAttempts-1 {
			continue
		}
		if errors.Is(err, domain.ErrSoldOut) {
			observability.SoldOutRejections.Inc()
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		break
	}

	observability.TicketsSold.Add(float64(quantity))
	if l.audit != nil {
		if err := l.audit.LogEvent(ctx, "ticket.purchased", purchaser.ID, map[string]any{
			"ticket_id": ticket.ID,
			"event_id":  eventID,
			"code":      ticket.Code,
			"quantity":  quantity,
		}); err != nil {
			l.logger.Error("audit log failed: ", err)
		}
	}
	return &ticket, nil
}

// ListForUser returns the user's tickets joined with event display
// fields, most recent purchase first.
func (l *Ledger) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.TicketWithEvent, error) {
	var out []domain.TicketWithEvent
	err := l.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.store.TicketsForUser(ctx, userID)
		return err
	})
	return out, err
}

// ListForEvent returns every ticket sold for an event, for moderation
// and auditing.
func (l *Ledger) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := l.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = l.store.TicketsForEvent(ctx, eventID)
		return err
	})
	return out, err
}

func (l *Ledger) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	err := fn(tctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.ErrStorageTimeout
	}
	return err
}

package inventory

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/observability"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
	"github.com/robertarktes/college-event-tickets/internal/storetest"
)

func newLedger(store *storetest.Store) *Ledger {
	return NewLedger(store, nil, observability.NewLogger("error"), time.Second)
}

func seedEvent(t *testing.T, store *storetest.Store, capacity int) domain.Event {
	t.Helper()
	ev, err := domain.NewEvent(domain.EventDetails{
		Title:     "Career Fair",
		Date:      time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC),
		TimeStart: "10:00",
		TimeEnd:   "16:00",
		Location:  "Gym",
		Price:     0,
	}, capacity, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertEvent(context.Background(), ev, outbox.NewRecord("event", ev.ID, outbox.EventPublished, nil)); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestPurchase(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	ev := seedEvent(t, store, 10)
	buyer := domain.Requester{ID: uuid.New(), Role: domain.RoleStudent}

	ticket, err := ledger.Purchase(context.Background(), ev.ID, buyer, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Quantity != 3 || ticket.UserID != buyer.ID || ticket.EventID != ev.ID {
		t.Errorf("unexpected ticket %+v", ticket)
	}
	if !strings.HasPrefix(ticket.Code, "TCK-") {
		t.Errorf("ticket code %q missing prefix", ticket.Code)
	}
	if ticket.Status != domain.TicketConfirmed {
		t.Errorf("expected confirmed ticket, got %s", ticket.Status)
	}

	got, _ := store.Event(ev.ID)
	if got.RemainingCapacity != 7 {
		t.Errorf("expected remaining capacity 7, got %d", got.RemainingCapacity)
	}
	if got.TotalCapacity != 10 {
		t.Errorf("total capacity must not change, got %d", got.TotalCapacity)
	}
}

func TestPurchase_ZeroQuantityMeansOne(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	ev := seedEvent(t, store, 5)

	ticket, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", ticket.Quantity)
	}
}

func TestPurchase_NegativeQuantity(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	ev := seedEvent(t, store, 5)

	_, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, -2)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPurchase_SoldOutLeavesCapacityUntouched(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	ev := seedEvent(t, store, 3)

	_, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, 5)
	if !errors.Is(err, domain.ErrSoldOut) {
		t.Fatalf("expected ErrSoldOut, got %v", err)
	}
	got, _ := store.Event(ev.ID)
	if got.RemainingCapacity != 3 {
		t.Errorf("failed purchase must not touch capacity, got %d", got.RemainingCapacity)
	}
	if store.TicketCount() != 0 {
		t.Error("failed purchase must not create a ticket")
	}
}

func TestPurchase_UnknownEvent(t *testing.T) {
	ledger := newLedger(storetest.New())
	_, err := ledger.Purchase(context.Background(), uuid.New(), domain.Requester{ID: uuid.New()}, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// dupStore forces a code collision on the first insert to exercise the
// regeneration retry.
type dupStore struct {
	*storetest.Store
	rejected atomic.Int32
}

func (d *dupStore) PurchaseTicket(ctx context.Context, tk domain.Ticket, rec outbox.Record) error {
	if d.rejected.CompareAndSwap(0, 1) {
		return domain.ErrDuplicateCode
	}
	return d.Store.PurchaseTicket(ctx, tk, rec)
}

func TestPurchase_RetriesOnDuplicateCode(t *testing.T) {
	inner := storetest.New()
	store := &dupStore{Store: inner}
	ledger := NewLedger(store, nil, observability.NewLogger("error"), time.Second)
	ev := seedEvent(t, inner, 5)

	ticket, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ticket == nil || ticket.Code == "" {
		t.Fatal("expected a ticket after retry")
	}
	if store.rejected.Load() != 1 {
		t.Errorf("expected one rejected attempt, got %d", store.rejected.Load())
	}
}

// alwaysDupStore never accepts a code, so the retry budget must run out.
type alwaysDupStore struct{ *storetest.Store }

func (alwaysDupStore) PurchaseTicket(context.Context, domain.Ticket, outbox.Record) error {
	return domain.ErrDuplicateCode
}

func TestPurchase_GivesUpAfterCodeRetries(t *testing.T) {
	ledger := NewLedger(alwaysDupStore{storetest.New()}, nil, observability.NewLogger("error"), time.Second)
	_, err := ledger.Purchase(context.Background(), uuid.New(), domain.Requester{ID: uuid.New()}, 1)
	if !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode after exhausting retries, got %v", err)
	}
}

func TestPurchase_ConcurrentNeverOversells(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	const capacity = 20
	const buyers = 25
	ev := seedEvent(t, store, capacity)

	var sold, rejected atomic.Int32
	g := new(errgroup.Group)
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			_, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, 1)
			switch {
			case err == nil:
				sold.Add(1)
			case errors.Is(err, domain.ErrSoldOut):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if sold.Load() != capacity || rejected.Load() != buyers-capacity {
		t.Errorf("expected %d sales and %d rejections, got %d and %d",
			capacity, buyers-capacity, sold.Load(), rejected.Load())
	}
	got, _ := store.Event(ev.ID)
	if got.RemainingCapacity != 0 {
		t.Errorf("expected remaining capacity 0, got %d", got.RemainingCapacity)
	}
	if store.TicketCount() != capacity {
		t.Errorf("expected %d tickets, got %d", capacity, store.TicketCount())
	}
}

func TestListForUser(t *testing.T) {
	store := storetest.New()
	ledger := newLedger(store)
	ev := seedEvent(t, store, 10)
	buyer := domain.Requester{ID: uuid.New()}

	for i := 0; i < 3; i++ {
		if _, err := ledger.Purchase(context.Background(), ev.ID, buyer, 1); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ledger.Purchase(context.Background(), ev.ID, domain.Requester{ID: uuid.New()}, 1); err != nil {
		t.Fatal(err)
	}

	tickets, err := ledger.ListForUser(context.Background(), buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(tickets))
	}
	for i := 1; i < len(tickets); i++ {
		if tickets[i].PurchasedAt.After(tickets[i-1].PurchasedAt) {
			t.Error("tickets not ordered most recent first")
		}
	}
	if tickets[0].EventTitle != ev.Title {
		t.Errorf("expected event title %q, got %q", ev.Title, tickets[0].EventTitle)
	}
}

func TestPurchase_StorageTimeout(t *testing.T) {
	store := storetest.New()
	store.FailWith = context.DeadlineExceeded
	ledger := newLedger(store)

	_, err := ledger.Purchase(context.Background(), uuid.New(), domain.Requester{ID: uuid.New()}, 1)
	if !errors.Is(err, domain.ErrStorageTimeout) {
		t.Fatalf("expected ErrStorageTimeout, got %v", err)
	}
}

package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cet",
				"POSTGRES_PASSWORD": "cet",
				"POSTGRES_DB":       "cet",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	dsn := "postgresql://cet:cet@" + host + ":" + port.Port() + "/cet?sslmode=disable"
	var pool *pgxpool.Pool
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres never became ready: %v", err)
		}
		time.Sleep(time.Second)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}
	return pool
}

func seedUser(t *testing.T, repo *Repository, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        uuid.NewString() + "@campus.edu",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.InsertUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func seedEvent(t *testing.T, repo *Repository, createdBy uuid.UUID, capacity int) domain.Event {
	t.Helper()
	ev, err := domain.NewEvent(domain.EventDetails{
		Title:     "Homecoming",
		Date:      time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC),
		TimeStart: "17:00",
		TimeEnd:   "23:00",
		Location:  "Stadium",
		Category:  "sports",
		Price:     20,
	}, capacity, createdBy)
	if err != nil {
		t.Fatal(err)
	}
	rec := outbox.NewRecord("event", ev.ID, outbox.EventPublished, map[string]any{"event_id": ev.ID})
	if err := repo.InsertEvent(context.Background(), ev, rec); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := startPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		u := seedUser(t, repo, domain.RoleStudent)

		got, err := repo.GetUserByEmail(ctx, u.Email)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != u.ID || got.Role != domain.RoleStudent {
			t.Errorf("got %+v, want %+v", got, u)
		}

		dup := u
		dup.ID = uuid.New()
		if err := repo.InsertUser(ctx, dup); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("duplicate email: expected ErrConflict, got %v", err)
		}
		if _, err := repo.GetUserByEmail(ctx, "nobody@campus.edu"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("unknown email: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("purchase decrements capacity atomically", func(t *testing.T) {
		admin := seedUser(t, repo, domain.RoleAdmin)
		buyer := seedUser(t, repo, domain.RoleStudent)
		ev := seedEvent(t, repo, admin.ID, 3)

		ticket := domain.NewTicket(ev.ID, buyer.ID, 2, "TCK-TEST0001")
		rec := outbox.NewRecord("ticket", ticket.ID, outbox.TicketPurchased, nil)
		if err := repo.PurchaseTicket(ctx, ticket, rec); err != nil {
			t.Fatal(err)
		}

		got, err := repo.GetEvent(ctx, ev.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.RemainingCapacity != 1 {
			t.Errorf("expected remaining 1, got %d", got.RemainingCapacity)
		}

		over := domain.NewTicket(ev.ID, buyer.ID, 2, "TCK-TEST0002")
		if err := repo.PurchaseTicket(ctx, over, outbox.NewRecord("ticket", over.ID, outbox.TicketPurchased, nil)); !errors.Is(err, domain.ErrSoldOut) {
			t.Fatalf("expected ErrSoldOut, got %v", err)
		}
		got, _ = repo.GetEvent(ctx, ev.ID)
		if got.RemainingCapacity != 1 {
			t.Errorf("failed purchase touched capacity: %d", got.RemainingCapacity)
		}

		dupCode := domain.NewTicket(ev.ID, buyer.ID, 1, "TCK-TEST0001")
		if err := repo.PurchaseTicket(ctx, dupCode, outbox.NewRecord("ticket", dupCode.ID, outbox.TicketPurchased, nil)); !errors.Is(err, domain.ErrDuplicateCode) {
			t.Fatalf("expected ErrDuplicateCode, got %v", err)
		}
		got, _ = repo.GetEvent(ctx, ev.ID)
		if got.RemainingCapacity != 1 {
			t.Errorf("rolled-back purchase touched capacity: %d", got.RemainingCapacity)
		}

		missing := domain.NewTicket(uuid.New(), buyer.ID, 1, "TCK-TEST0003")
		if err := repo.PurchaseTicket(ctx, missing, outbox.NewRecord("ticket", missing.ID, outbox.TicketPurchased, nil)); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent purchases never oversell", func(t *testing.T) {
		admin := seedUser(t, repo, domain.RoleAdmin)
		ev := seedEvent(t, repo, admin.ID, 10)

		var sold, rejected atomic.Int32
		g := new(errgroup.Group)
		for i := 0; i < 15; i++ {
			buyer := seedUser(t, repo, domain.RoleStudent)
			g.Go(func() error {
				for {
					ticket := domain.NewTicket(ev.ID, buyer.ID, 1, "TCK-"+uuid.NewString())
					err := repo.PurchaseTicket(ctx, ticket, outbox.NewRecord("ticket", ticket.ID, outbox.TicketPurchased, nil))
					switch {
					case err == nil:
						sold.Add(1)
					case errors.Is(err, domain.ErrSoldOut):
						rejected.Add(1)
					case errors.Is(err, domain.ErrSerializationFailure):
						continue
					default:
						return err
					}
					return nil
				}
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
		if sold.Load() != 10 || rejected.Load() != 5 {
			t.Errorf("expected 10 sales and 5 rejections, got %d and %d", sold.Load(), rejected.Load())
		}
		got, _ := repo.GetEvent(ctx, ev.ID)
		if got.RemainingCapacity != 0 {
			t.Errorf("expected remaining 0, got %d", got.RemainingCapacity)
		}
	})

	t.Run("approval transition happens once", func(t *testing.T) {
		student := seedUser(t, repo, domain.RoleStudent)
		req, err := domain.NewPendingEventRequest(domain.EventDetails{
			Title:     "Poetry Slam",
			Date:      time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
			TimeStart: "19:00",
			TimeEnd:   "21:00",
			Location:  "Library",
			Price:     0,
		}, 30, student.ID)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.InsertPendingRequest(ctx, req); err != nil {
			t.Fatal(err)
		}

		queue, err := repo.ListPendingRequests(ctx)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, q := range queue {
			if q.ID == req.ID {
				found = true
				if q.RequesterName != student.Name {
					t.Errorf("requester name not joined: %q", q.RequesterName)
				}
			}
		}
		if !found {
			t.Fatal("pending request missing from queue")
		}

		ev := domain.EventFromRequest(req)
		rec := outbox.NewRecord("event", ev.ID, outbox.EventApproved, nil)
		if err := repo.ApproveRequest(ctx, req.ID, "ok", ev, rec); err != nil {
			t.Fatal(err)
		}

		stored, err := repo.GetPendingRequest(ctx, req.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status != domain.RequestApproved || stored.AdminNotes != "ok" {
			t.Errorf("request not approved with notes: %+v", stored)
		}
		if _, err := repo.GetEvent(ctx, ev.ID); err != nil {
			t.Errorf("approved event not queryable: %v", err)
		}

		if err := repo.RejectRequest(ctx, req.ID, "nope"); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("second decision: expected ErrConflict, got %v", err)
		}
		ev2 := domain.EventFromRequest(req)
		if err := repo.ApproveRequest(ctx, req.ID, "again", ev2, outbox.NewRecord("event", ev2.ID, outbox.EventApproved, nil)); !errors.Is(err, domain.ErrConflict) {
			t.Errorf("repeat approval: expected ErrConflict, got %v", err)
		}
		if _, err := repo.GetEvent(ctx, ev2.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Error("conflicting approval must not create a second event")
		}

		if err := repo.RejectRequest(ctx, uuid.New(), ""); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("unknown request: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("catalog", func(t *testing.T) {
		admin := seedUser(t, repo, domain.RoleAdmin)
		ev := seedEvent(t, repo, admin.ID, 40)

		d := ev.EventDetails
		d.Title = "Homecoming Weekend"
		if err := repo.UpdateEventDetails(ctx, ev.ID, d); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetEvent(ctx, ev.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Homecoming Weekend" {
			t.Errorf("title not updated: %q", got.Title)
		}
		if got.OrganizerName != admin.Name {
			t.Errorf("organizer name not joined: %q", got.OrganizerName)
		}

		if err := repo.DeleteEvent(ctx, ev.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.GetEvent(ctx, ev.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.DeleteEvent(ctx, ev.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("outbox drain", func(t *testing.T) {
		admin := seedUser(t, repo, domain.RoleAdmin)
		ev := seedEvent(t, repo, admin.ID, 5)

		pending, err := repo.GetUnpublishedOutbox(ctx, 100)
		if err != nil {
			t.Fatal(err)
		}
		var rec *outbox.Record
		for i := range pending {
			if pending[i].AggregateID == ev.ID {
				rec = &pending[i]
			}
		}
		if rec == nil {
			t.Fatal("event insert did not enqueue an outbox record")
		}
		if rec.EventType != outbox.EventPublished {
			t.Errorf("unexpected event type %s", rec.EventType)
		}

		if err := repo.MarkPublished(ctx, rec.ID, time.Now().UTC(), rec.DedupeKey); err != nil {
			t.Fatal(err)
		}
		after, err := repo.GetUnpublishedOutbox(ctx, 100)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range after {
			if a.ID == rec.ID {
				t.Error("published record still returned as unpublished")
			}
		}
	})
}

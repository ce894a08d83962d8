package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/robertarktes/college-event-tickets/internal/observability"
)

type fakeSource struct {
	records   []Record
	published map[uuid.UUID]bool
}

func (s *fakeSource) GetUnpublishedOutbox(ctx context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, r := range s.records {
		if !s.published[r.ID] {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeSource) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time, dedupeKey string) error {
	s.published[id] = true
	return nil
}

type fakeBroker struct {
	failKeys map[string]bool
	sent     []amqp.Publishing
	keys     []string
}

func (b *fakeBroker) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	if b.failKeys[key] {
		return errors.New("broker down")
	}
	b.sent = append(b.sent, msg)
	b.keys = append(b.keys, key)
	return nil
}

func TestDrain_PublishesAndMarks(t *testing.T) {
	recs := []Record{
		NewRecord("event", uuid.New(), EventPublished, map[string]any{"n": 1}),
		NewRecord("ticket", uuid.New(), TicketPurchased, map[string]any{"n": 2}),
	}
	for i := range recs {
		recs[i].CreatedAt = time.Now()
	}
	source := &fakeSource{records: recs, published: make(map[uuid.UUID]bool)}
	broker := &fakeBroker{}
	p := NewPublisher(source, broker, observability.NewLogger("error"))

	p.drain(context.Background())

	if len(broker.sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(broker.sent))
	}
	if broker.keys[0] != EventPublished || broker.keys[1] != TicketPurchased {
		t.Errorf("unexpected routing keys %v", broker.keys)
	}
	if broker.sent[0].MessageId != recs[0].DedupeKey {
		t.Error("message id should carry the dedupe key")
	}
	for _, r := range recs {
		if !source.published[r.ID] {
			t.Errorf("record %s not marked published", r.ID)
		}
	}

	// A second drain finds nothing new.
	p.drain(context.Background())
	if len(broker.sent) != 2 {
		t.Errorf("drained already-published records, %d publishes", len(broker.sent))
	}
}

func TestDrain_FailedPublishStaysQueued(t *testing.T) {
	rec := NewRecord("event", uuid.New(), EventApproved, nil)
	rec.CreatedAt = time.Now()
	source := &fakeSource{records: []Record{rec}, published: make(map[uuid.UUID]bool)}
	broker := &fakeBroker{failKeys: map[string]bool{EventApproved: true}}
	p := NewPublisher(source, broker, observability.NewLogger("error"))

	p.drain(context.Background())
	if source.published[rec.ID] {
		t.Fatal("failed publish must not be marked published")
	}

	// Broker recovers, the next tick delivers it.
	broker.failKeys = nil
	p.drain(context.Background())
	if !source.published[rec.ID] {
		t.Fatal("record not retried after broker recovery")
	}
	if len(broker.sent) != 1 {
		t.Errorf("expected 1 publish, got %d", len(broker.sent))
	}
}

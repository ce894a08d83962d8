package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/college-event-tickets/internal/observability"
)

// Source is the storage side of the outbox, implemented by the postgres
// repository.
type Source interface {
	GetUnpublishedOutbox(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time, dedupeKey string) error
}

// Broker publishes a message under a routing key.
type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	source Source
	broker Broker
	logger observability.Logger

	interval  time.Duration
	batchSize int
}

func NewPublisher(source Source, broker Broker, logger observability.Logger) *Publisher {
	return &Publisher{
		source:    source,
		broker:    broker,
		logger:    logger,
		interval:  5 * time.Second,
		batchSize: 50,
	}
}

// Run drains unpublished records until ctx is cancelled. A record that
// fails to publish stays NEW and is retried on the next tick.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.source.GetUnpublishedOutbox(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("outbox fetch failed: ", err)
		return
	}
	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.broker.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("event_type", rec.EventType).Error("outbox publish failed: ", err)
			observability.RabbitPublishRetries.Inc()
			continue
		}
		if err := p.source.MarkPublished(ctx, rec.ID, time.Now(), rec.DedupeKey); err != nil {
			p.logger.Error("outbox mark published failed: ", err)
		}
		observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
	}
}

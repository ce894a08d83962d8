// Package outbox implements transactional event publishing: domain
// events are written to storage in the same transaction as the state
// change they describe, then drained to the message broker by a
// standalone publisher process.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Routing keys published on the topic exchange.
const (
	EventPublished  = "event.published"
	EventApproved   = "event.approved"
	TicketPurchased = "ticket.purchased"
)

type Record struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Status        string // NEW, PUBLISHED, FAILED
	DedupeKey     string
}

// NewRecord marshals payload and stamps a fresh dedupe key.
func NewRecord(aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]any) Record {
	body, _ := json.Marshal(payload)
	return Record{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
		DedupeKey:     uuid.New().String(),
	}
}

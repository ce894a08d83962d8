package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Requester is the resolved identity attached to a request. The core
// trusts the role as resolved by the auth collaborator.
type Requester struct {
	ID   uuid.UUID
	Role Role
}

func (r Requester) IsAdmin() bool { return r.Role == RoleAdmin }

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type TicketStatus string

const TicketConfirmed TicketStatus = "confirmed"

// EventDetails holds the descriptive fields shared by a published Event
// and a PendingEventRequest awaiting moderation.
type EventDetails struct {
	Title       string
	Description string
	ImageURL    string
	Date        time.Time
	TimeStart   string
	TimeEnd     string
	Location    string
	Category    string
	Price       float64
}

// Event is a published, bookable occurrence. TotalCapacity is immutable
// after creation; RemainingCapacity only decreases, via the inventory
// ledger, and always satisfies 0 <= remaining <= total.
type Event struct {
	ID uuid.UUID
	EventDetails
	TotalCapacity     int
	RemainingCapacity int
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
}

// EventWithOrganizer joins an Event with its creator's display name for
// catalog responses.
type EventWithOrganizer struct {
	Event
	OrganizerName string
}

// PendingEventRequest is a non-admin submission awaiting an admin
// decision. Status moves pending->approved or pending->rejected exactly
// once; terminal states never transition again.
type PendingEventRequest struct {
	ID uuid.UUID
	EventDetails
	TotalTickets int
	RequesterID  uuid.UUID
	Status       RequestStatus
	AdminNotes   string
	CreatedAt    time.Time
}

// PendingRequestWithRequester joins a pending request with the
// requester's display name for the moderation queue.
type PendingRequestWithRequester struct {
	PendingEventRequest
	RequesterName string
}

// Ticket is one confirmed booking. It is created atomically with the
// capacity decrement and never mutated afterward.
type Ticket struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	UserID      uuid.UUID
	Code        string
	Quantity    int
	Status      TicketStatus
	PurchasedAt time.Time
}

// TicketWithEvent joins a ticket with its event's display fields for
// listings.
type TicketWithEvent struct {
	Ticket
	EventTitle     string
	EventDate      time.Time
	EventTimeStart string
	EventLocation  string
	EventImageURL  string
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidateDetails checks the required descriptive fields of an event
// submission. The returned error wraps ErrInvalidInput and names the
// offending field.
func ValidateDetails(d EventDetails) error {
	switch {
	case d.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case d.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case d.TimeStart == "":
		return fmt.Errorf("%w: time_start is required", ErrInvalidInput)
	case d.TimeEnd == "":
		return fmt.Errorf("%w: time_end is required", ErrInvalidInput)
	case d.Location == "":
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	case d.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

func validateSubmission(d EventDetails, capacity int) error {
	if err := ValidateDetails(d); err != nil {
		return err
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: total_tickets must be a positive integer", ErrInvalidInput)
	}
	return nil
}

// NewEvent builds a published event with the full capacity still
// sellable.
func NewEvent(d EventDetails, capacity int, createdBy uuid.UUID) (Event, error) {
	if err := validateSubmission(d, capacity); err != nil {
		return Event{}, err
	}
	return Event{
		ID:                uuid.New(),
		EventDetails:      d,
		TotalCapacity:     capacity,
		RemainingCapacity: capacity,
		CreatedBy:         createdBy,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// NewPendingEventRequest builds a moderation request for a non-admin
// submission.
func NewPendingEventRequest(d EventDetails, totalTickets int, requesterID uuid.UUID) (PendingEventRequest, error) {
	if err := validateSubmission(d, totalTickets); err != nil {
		return PendingEventRequest{}, err
	}
	return PendingEventRequest{
		ID:           uuid.New(),
		EventDetails: d,
		TotalTickets: totalTickets,
		RequesterID:  requesterID,
		Status:       RequestPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// EventFromRequest materializes the event an approved request describes.
// Capacity and creator come from the request, not the moderator.
func EventFromRequest(req PendingEventRequest) Event {
	return Event{
		ID:                uuid.New(),
		EventDetails:      req.EventDetails,
		TotalCapacity:     req.TotalTickets,
		RemainingCapacity: req.TotalTickets,
		CreatedBy:         req.RequesterID,
		CreatedAt:         time.Now().UTC(),
	}
}

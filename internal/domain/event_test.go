package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validDetails() EventDetails {
	return EventDetails{
		Title:     "Hack Night",
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TimeStart: "18:00",
		TimeEnd:   "21:00",
		Location:  "Lab 3",
		Price:     10,
	}
}

func TestNewEvent_Validation(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*EventDetails, *int)
		wantFrag string
	}{
		{"missing title", func(d *EventDetails, c *int) { d.Title = "" }, "title"},
		{"missing date", func(d *EventDetails, c *int) { d.Date = time.Time{} }, "date"},
		{"missing time_start", func(d *EventDetails, c *int) { d.TimeStart = "" }, "time_start"},
		{"missing time_end", func(d *EventDetails, c *int) { d.TimeEnd = "" }, "time_end"},
		{"missing location", func(d *EventDetails, c *int) { d.Location = "" }, "location"},
		{"negative price", func(d *EventDetails, c *int) { d.Price = -1 }, "price"},
		{"zero capacity", func(d *EventDetails, c *int) { *c = 0 }, "total_tickets"},
		{"negative capacity", func(d *EventDetails, c *int) { *c = -5 }, "total_tickets"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDetails()
			capacity := 50
			tc.mutate(&d, &capacity)

			_, err := NewEvent(d, capacity, uuid.New())
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantFrag) {
				t.Errorf("error %q does not name field %q", err, tc.wantFrag)
			}
		})
	}
}

func TestNewEvent_FullCapacityRemaining(t *testing.T) {
	creator := uuid.New()
	ev, err := NewEvent(validDetails(), 100, creator)
	if err != nil {
		t.Fatal(err)
	}
	if ev.TotalCapacity != 100 || ev.RemainingCapacity != 100 {
		t.Errorf("expected capacity 100/100, got %d/%d", ev.RemainingCapacity, ev.TotalCapacity)
	}
	if ev.CreatedBy != creator {
		t.Errorf("expected creator %s, got %s", creator, ev.CreatedBy)
	}
}

func TestNewPendingEventRequest_StartsPending(t *testing.T) {
	req, err := NewPendingEventRequest(validDetails(), 50, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != RequestPending {
		t.Errorf("expected pending status, got %s", req.Status)
	}
}

func TestEventFromRequest(t *testing.T) {
	requester := uuid.New()
	req, err := NewPendingEventRequest(validDetails(), 50, requester)
	if err != nil {
		t.Fatal(err)
	}

	ev := EventFromRequest(req)
	if ev.TotalCapacity != 50 || ev.RemainingCapacity != 50 {
		t.Errorf("expected capacity 50/50, got %d/%d", ev.RemainingCapacity, ev.TotalCapacity)
	}
	if ev.CreatedBy != requester {
		t.Errorf("event creator should be the requester, got %s", ev.CreatedBy)
	}
	if ev.Title != req.Title || ev.Location != req.Location {
		t.Error("descriptive fields not copied from request")
	}
}

func TestRetryable(t *testing.T) {
	for _, err := range []error{ErrStorageTimeout, ErrStorageUnavailable, ErrSerializationFailure} {
		if !Retryable(err) {
			t.Errorf("%v should be retryable", err)
		}
	}
	for _, err := range []error{ErrNotFound, ErrConflict, ErrSoldOut, ErrInvalidInput} {
		if Retryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}

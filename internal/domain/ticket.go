package domain

import (
	"time"

	"github.com/google/uuid"
)

func NewTicket(eventID, userID uuid.UUID, quantity int, code string) Ticket {
	return Ticket{
		ID:          uuid.New(),
		EventID:     eventID,
		UserID:      userID,
		Code:        code,
		Quantity:    quantity,
		Status:      TicketConfirmed,
		PurchasedAt: time.Now().UTC(),
	}
}

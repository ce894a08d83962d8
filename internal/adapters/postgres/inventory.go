package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
)

// PurchaseTicket is the oversell guard. The decrement is conditional on
// enough capacity remaining and the affected-row count decides the
// outcome, so two concurrent purchases of the last ticket serialize
// into one success and one domain.ErrSoldOut.
func (r *Repository) PurchaseTicket(ctx context.Context, t domain.Ticket, rec outbox.Record) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE events SET remaining_capacity = remaining_capacity - $2
			WHERE id = $1 AND remaining_capacity >= $2
		`, t.EventID, t.Quantity)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx, `SELECT true FROM events WHERE id = $1`, t.EventID).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
			return domain.ErrSoldOut
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO tickets (id, event_id, user_id, ticket_code, quantity, status, purchased_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, t.ID, t.EventID, t.UserID, t.Code, t.Quantity, t.Status, t.PurchasedAt)
		if isUniqueViolation(err, "tickets_ticket_code_key") {
			return domain.ErrDuplicateCode
		}
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, rec)
	})
}

func (r *Repository) TicketsForUser(ctx context.Context, userID uuid.UUID) ([]domain.TicketWithEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.event_id, t.user_id, t.ticket_code, t.quantity, t.status, t.purchased_at,
			e.title, e.event_date, e.time_start, e.location, e.image_url
		FROM tickets t
		JOIN events e ON t.event_id = e.id
		WHERE t.user_id = $1
		ORDER BY t.purchased_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TicketWithEvent
	for rows.Next() {
		var t domain.TicketWithEvent
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.Code, &t.Quantity, &t.Status, &t.PurchasedAt,
			&t.EventTitle, &t.EventDate, &t.EventTimeStart, &t.EventLocation, &t.EventImageURL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) TicketsForEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, user_id, ticket_code, quantity, status, purchased_at
		FROM tickets WHERE event_id = $1
		ORDER BY purchased_at DESC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.Code, &t.Quantity, &t.Status, &t.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

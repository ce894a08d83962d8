package postgres

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/outbox"
)

func insertEvent(ctx context.Context, tx pgx.Tx, ev domain.Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO events (id, title, description, image_url, event_date, time_start, time_end,
			location, category, price, total_capacity, remaining_capacity, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, ev.ID, ev.Title, ev.Description, ev.ImageURL, ev.Date, ev.TimeStart, ev.TimeEnd,
		ev.Location, ev.Category, ev.Price, ev.TotalCapacity, ev.RemainingCapacity, ev.CreatedBy, ev.CreatedAt)
	return err
}

// InsertEvent persists an admin-created event and its outbox record in
// one transaction.
func (r *Repository) InsertEvent(ctx context.Context, ev domain.Event, rec outbox.Record) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, rec)
	})
}

func (r *Repository) InsertPendingRequest(ctx context.Context, req domain.PendingEventRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pending_events (id, title, description, image_url, event_date, time_start, time_end,
			location, category, price, total_tickets, requester_id, status, admin_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, req.ID, req.Title, req.Description, req.ImageURL, req.Date, req.TimeStart, req.TimeEnd,
		req.Location, req.Category, req.Price, req.TotalTickets, req.RequesterID, req.Status, req.AdminNotes, req.CreatedAt)
	return err
}

func (r *Repository) GetPendingRequest(ctx context.Context, id uuid.UUID) (*domain.PendingEventRequest, error) {
	var req domain.PendingEventRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description, image_url, event_date, time_start, time_end,
			location, category, price, total_tickets, requester_id, status, admin_notes, created_at
		FROM pending_events WHERE id = $1
	`, id).Scan(&req.ID, &req.Title, &req.Description, &req.ImageURL, &req.Date, &req.TimeStart, &req.TimeEnd,
		&req.Location, &req.Category, &req.Price, &req.TotalTickets, &req.RequesterID, &req.Status, &req.AdminNotes, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) ListPendingRequests(ctx context.Context) ([]domain.PendingRequestWithRequester, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pe.id, pe.title, pe.description, pe.image_url, pe.event_date, pe.time_start, pe.time_end,
			pe.location, pe.category, pe.price, pe.total_tickets, pe.requester_id, pe.status,
			pe.admin_notes, pe.created_at, u.name
		FROM pending_events pe
		JOIN users u ON pe.requester_id = u.id
		WHERE pe.status = 'pending'
		ORDER BY pe.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingRequestWithRequester
	for rows.Next() {
		var req domain.PendingRequestWithRequester
		if err := rows.Scan(&req.ID, &req.Title, &req.Description, &req.ImageURL, &req.Date, &req.TimeStart,
			&req.TimeEnd, &req.Location, &req.Category, &req.Price, &req.TotalTickets, &req.RequesterID,
			&req.Status, &req.AdminNotes, &req.CreatedAt, &req.RequesterName); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// decideRequest flips the status, conditional on the request still
// being pending. Exactly one row must be affected; a zero count is
// resolved into not-found versus already-decided.
func decideRequest(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, status domain.RequestStatus, notes string) error {
	res, err := tx.Exec(ctx, `
		UPDATE pending_events SET status = $2, admin_notes = $3
		WHERE id = $1 AND status = 'pending'
	`, requestID, status, notes)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM pending_events WHERE id = $1`, requestID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("request already %s: %w", current, domain.ErrConflict)
	}
	return nil
}

// ApproveRequest transitions the request to approved and materializes
// the event; both land or neither does.
func (r *Repository) ApproveRequest(ctx context.Context, requestID uuid.UUID, notes string, ev domain.Event, rec outbox.Record) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := decideRequest(ctx, tx, requestID, domain.RequestApproved, notes); err != nil {
			return err
		}
		if err := insertEvent(ctx, tx, ev); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, rec)
	})
}

func (r *Repository) RejectRequest(ctx context.Context, requestID uuid.UUID, notes string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		return decideRequest(ctx, tx, requestID, domain.RequestRejected, notes)
	})
}

package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/college-event-tickets/internal/domain"
)

const eventColumns = `e.id, e.title, e.description, e.image_url, e.event_date, e.time_start, e.time_end,
	e.location, e.category, e.price, e.total_capacity, e.remaining_capacity, e.created_by, e.created_at, u.name`

func scanEventWithOrganizer(row pgx.Row) (*domain.EventWithOrganizer, error) {
	var ev domain.EventWithOrganizer
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.ImageURL, &ev.Date, &ev.TimeStart, &ev.TimeEnd,
		&ev.Location, &ev.Category, &ev.Price, &ev.TotalCapacity, &ev.RemainingCapacity,
		&ev.CreatedBy, &ev.CreatedAt, &ev.OrganizerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *Repository) ListEvents(ctx context.Context, category string) ([]domain.EventWithOrganizer, error) {
	query := `SELECT ` + eventColumns + ` FROM events e JOIN users u ON e.created_by = u.id`
	args := []any{}
	if category != "" {
		query += ` WHERE e.category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY e.event_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EventWithOrganizer
	for rows.Next() {
		ev, err := scanEventWithOrganizer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.EventWithOrganizer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e JOIN users u ON e.created_by = u.id WHERE e.id = $1`, id)
	return scanEventWithOrganizer(row)
}

// UpdateEventDetails rewrites descriptive fields only; capacity columns
// are untouchable outside the ledger.
func (r *Repository) UpdateEventDetails(ctx context.Context, id uuid.UUID, d domain.EventDetails) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE events SET title = $2, description = $3, image_url = $4, event_date = $5,
			time_start = $6, time_end = $7, location = $8, category = $9, price = $10
		WHERE id = $1
	`, id, d.Title, d.Description, d.ImageURL, d.Date, d.TimeStart, d.TimeEnd, d.Location, d.Category, d.Price)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event; tickets cascade via the foreign key.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Package postgres is the relational adapter. It owns the transactional
// guarantees the core services rely on: SERIALIZABLE transactions,
// conditional updates checked through affected-row counts, and mapping
// of driver errors onto the domain taxonomy.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/college-event-tickets/internal/domain"
	"github.com/robertarktes/college-event-tickets/internal/observability"
)

const (
	serializationFailureCode = "40001"
	uniqueViolationCode      = "23505"

	// txAttempts bounds automatic retries of serialization failures
	// before the error surfaces as retryable to the caller.
	txAttempts = 3
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a SERIALIZABLE transaction, retrying
// serialization failures up to txAttempts times.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = r.runTx(ctx, fn)
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}
	}
	return err
}

func (r *Repository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE"); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return mapSerialization(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapSerialization(err)
	}
	return nil
}

func mapSerialization(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
		return domain.ErrSerializationFailure
	}
	return err
}

// isUniqueViolation reports whether err is a unique-constraint hit on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolationCode &&
		pgErr.ConstraintName == constraint
}

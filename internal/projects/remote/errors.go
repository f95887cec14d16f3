package remote

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

var errUnconfigured = fmt.Errorf("%w: no database configured", domain.ErrRemoteUnavailable)

const uniqueViolation = "23505"

// classify maps driver errors onto the domain taxonomy while keeping the
// original error in the chain for errors.As.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, domain.ErrRemoteRejected) || errors.Is(err, domain.ErrRemoteUnavailable) {
		return err
	}

	// The server answered: constraint, validation or permission failure.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteRejected, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteRejected, err)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteUnavailable, err)
}

// IsUniqueViolation reports whether err carries a Postgres unique_violation
// from either driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fkhayef/billsplit/internal/apperrors"
)

// pqLockNotAvailable is raised when lock_timeout expires
const pqLockNotAvailable = "55P03"

// LockEvent takes the transaction-scoped advisory lock that serializes writes
// to one event. It waits at most timeout and then fails with
// apperrors.ErrConflict. The lock is released when tx ends.
func LockEvent(ctx context.Context, tx *sql.Tx, eventID string, timeout time.Duration) error {
	// SET cannot take bind parameters
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable {
			return apperrors.Conflict("event %s is being modified, retry", eventID)
		}
		return fmt.Errorf("failed to lock event: %w", err)
	}
	return nil
}

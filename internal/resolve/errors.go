package resolve

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError marks a raw posting missing a required field. The posting
// is skipped and counted; the batch continues.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("raw posting missing required field %q", e.Field)
}

// StorageError wraps a catalog-store failure that is fatal for the whole
// batch. Per-posting errors never wear this type.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Two concurrent batches racing to create the same canonical row
// surface here, and the loser retries as a merge.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsStorageUnavailable reports whether err means the catalog store itself is
// unreachable, as opposed to a problem with one posting's data. Covers
// connection-class and shutdown-class SQLSTATEs, bad driver connections,
// network errors, and deadline expiry.
func IsStorageUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08 connection exception, 53 insufficient resources, 57 operator
		// intervention (includes admin shutdown and crash shutdown).
		for _, class := range []string{"08", "53", "57"} {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

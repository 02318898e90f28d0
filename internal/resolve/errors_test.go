package resolve

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected 23505 to classify as unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("insert posting: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatalf("expected wrapped 23505 to classify as unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a unique violation")
	}
}

func TestIsStorageUnavailable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"bad driver conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("commit: %w", driver.ErrBadConn), true},
		{"validation", &ValidationError{Field: "title"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsStorageUnavailable(tc.err); got != tc.want {
				t.Fatalf("IsStorageUnavailable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := driver.ErrBadConn
	wrapped := &StorageError{Op: "process batch", Err: cause}
	if !IsStorageUnavailable(wrapped) {
		t.Fatalf("StorageError should preserve the unavailability classification")
	}
}

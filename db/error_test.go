package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgconn"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/o11y"
)

func connRefused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
}

func TestMapError(t *testing.T) {
	for _, tt := range []struct {
		name      string
		err       error
		wantIs    error
		wantClass string
		warning   bool
	}{
		{
			name:      "statement canceled",
			err:       &pgconn.PgError{Code: "57014", Message: "canceling statement due to user request"},
			wantIs:    ErrCanceled,
			wantClass: "canceled",
			warning:   true,
		},
		{
			name:      "syntax error",
			err:       &pgconn.PgError{Code: "42601", Message: "syntax error at or near \"SELEC\""},
			wantIs:    ErrQuery,
			wantClass: "query",
		},
		{
			name:      "undefined table",
			err:       fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`}),
			wantIs:    ErrQuery,
			wantClass: "query",
		},
		{
			name:      "too many connections",
			err:       &pgconn.PgError{Code: "53300", Message: "sorry, too many clients already"},
			wantIs:    ErrUnavailable,
			wantClass: "unavailable",
		},
		{
			name:      "admin shutdown",
			err:       &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"},
			wantIs:    ErrUnavailable,
			wantClass: "unavailable",
		},
		{
			name:      "connection refused",
			err:       fmt.Errorf("failed to connect: %w", connRefused()),
			wantIs:    ErrUnavailable,
			wantClass: "unavailable",
		},
		{
			name:      "bad connection",
			err:       driver.ErrBadConn,
			wantIs:    ErrBadConn,
			wantClass: "bad_conn",
			warning:   true,
		},
		{
			name:      "context canceled",
			err:       context.Canceled,
			wantIs:    context.Canceled,
			wantClass: "context",
		},
		{
			name:      "unique violation is not mapped",
			err:       &pgconn.PgError{Code: "23505"},
			wantClass: "unknown",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			assert.Check(t, cmp.ErrorIs(got, tt.err))
			if tt.wantIs != nil {
				assert.Check(t, cmp.ErrorIs(got, tt.wantIs))
			}
			assert.Check(t, cmp.Equal(o11y.IsWarning(got), tt.warning))
			assert.Check(t, cmp.Equal(ErrorClass(tt.err), tt.wantClass))

			assert.Check(t, cmp.Equal(mapError(got), got), "mapping is idempotent")
		})
	}
}

func TestMapError_KeepsDriverError(t *testing.T) {
	err := mapError(&pgconn.PgError{Severity: "ERROR", Code: "42703", Message: `column "nope" does not exist`})

	pgErr := &pgconn.PgError{}
	assert.Assert(t, errors.As(err, &pgErr))
	assert.Check(t, cmp.Equal(pgErr.Code, "42703"))
	assert.Check(t, cmp.ErrorContains(err, `invalid query: ERROR: column "nope" does not exist`))
}

func TestMapError_Nil(t *testing.T) {
	assert.Check(t, mapError(nil))
	assert.Check(t, cmp.Equal(ErrorClass(nil), ""))
}

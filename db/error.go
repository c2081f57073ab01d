package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgconn"

	"github.com/circleci/sample-app/o11y"
)

var (
	ErrNop         = o11y.NewWarning("no results")
	ErrCanceled    = o11y.NewWarning("statement canceled")
	ErrBadConn     = o11y.NewWarning("bad connection")
	ErrUnavailable = errors.New("database unavailable")
	ErrQuery       = errors.New("invalid query")
)

const (
	pgStatementCanceled = "57014"

	pgClassConnectionException   = "08"
	pgClassInvalidAuthorization  = "28"
	pgClassSyntaxOrAccessRule    = "42"
	pgClassInsufficientResources = "53"
	pgClassOperatorIntervention  = "57"
)

// mapError maps driver errors to errors defined in this package, wrapping the original error so
// it is still available to errors.As. Errors that are already mapped, and errors with no
// mapping, are returned unchanged.
func mapError(err error) error {
	if err == nil || mapped(err) {
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrBadConn, err)
	}

	pgErr := &pgconn.PgError{}
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgStatementCanceled:
			return fmt.Errorf("%w: %w", ErrCanceled, err)
		case hasClass(pgErr.Code, pgClassSyntaxOrAccessRule):
			return fmt.Errorf("%w: %w", ErrQuery, err)
		case hasClass(pgErr.Code, pgClassConnectionException, pgClassInvalidAuthorization,
			pgClassInsufficientResources, pgClassOperatorIntervention):
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	// Failures to establish a connection (refused, DNS, unreachable) surface as net errors.
	opErr := &net.OpError{}
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func mapped(err error) bool {
	for _, e := range []error{ErrNop, ErrCanceled, ErrBadConn, ErrUnavailable, ErrQuery} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func hasClass(code string, classes ...string) bool {
	for _, c := range classes {
		if strings.HasPrefix(code, c) {
			return true
		}
	}
	return false
}

// ErrorClass names the kind of failure for logs and span fields.
func ErrorClass(err error) string {
	err = mapError(err)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrBadConn):
		return "bad_conn"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrQuery):
		return "query"
	case errors.Is(err, ErrNop):
		return "no_results"
	}
	return "unknown"
}

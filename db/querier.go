package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is implemented by *sqlx.DB and *sqlx.Tx, and by the error mapping wrapper returned
// from NewQuerier.
type Querier interface {
	// ExecContext executes the query with placeholder parameters that match the args.
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// GetContext expects placeholder parameters in the query and will bind args to them.
	// A single row result will be mapped to dest.
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// SelectContext scans each resultant row into dest, which must be a slice.
	// This method never returns sql.ErrNoRows, instead the dest slice will be empty.
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// QueryxContext returns the rows for callers that do not know the shape of the result ahead
	// of time. The caller must close the rows.
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

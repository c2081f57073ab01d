// Package users reads user records from the users table.
package users

import (
	"context"
	"errors"

	"github.com/circleci/sample-app/db"
)

// Record is a row of the users table. The columns are passed through as they are, so the shape
// follows whatever the table holds.
type Record = map[string]any

// ErrDataAccess is matched by every error returned from Store.
var ErrDataAccess = errors.New("data access failed")

type accessError struct {
	err error
}

func (e *accessError) Error() string {
	return ErrDataAccess.Error() + ": " + e.err.Error()
}

func (e *accessError) Is(target error) bool {
	return target == ErrDataAccess
}

func (e *accessError) Unwrap() error {
	return e.err
}

type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

// List returns every user. An empty table gives an empty, non nil, slice.
func (s *Store) List(ctx context.Context) (_ []Record, err error) {
	ctx, span := db.Span(ctx, "users", "list")
	defer db.EndSpan(span, &err)

	rows, err := db.SelectMaps(ctx, s.q, listQuery)
	if err != nil {
		return nil, &accessError{err: err}
	}

	span.AddField("rows", len(rows))
	return rows, nil
}

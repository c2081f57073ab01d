package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// NewQuerier wraps q so every method returns the errors defined in this package.
func NewQuerier(q Querier) Querier {
	return unifiedQuerier{q: q}
}

type unifiedQuerier struct {
	q Querier
}

func (u unifiedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := u.q.ExecContext(ctx, query, args...)
	return result, mapError(err)
}

func (u unifiedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := u.q.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNop
	}
	return mapError(err)
}

func (u unifiedQuerier) SelectContext(ctx context.Context,
	dest interface{}, query string, args ...interface{}) error {

	return mapError(u.q.SelectContext(ctx, dest, query, args...))
}

func (u unifiedQuerier) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	rows, err := u.q.QueryxContext(ctx, query, args...)
	return rows, mapError(err)
}

// Package fakedb provides sqlx handles over go-sqlmock, with result columns that report their
// PostgreSQL type names the way the pgx driver does.
package fakedb

import (
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"gotest.tools/v3/assert"
)

// New returns a handle registered under the pgx driver name, so sqlx binds $n placeholders.
// Queries are matched exactly, in any order, and pings must be expected with ExpectPing.
func New(t testing.TB) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	assert.NilError(t, err)
	mock.MatchExpectationsInOrder(false)

	db := sqlx.NewDb(conn, "pgx")
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// Columns builds a result set from "name TYPE" specs, eg. Columns("id INT8", "prefs JSONB").
// A spec without a type reports TEXT.
func Columns(specs ...string) *sqlmock.Rows {
	cols := make([]*sqlmock.Column, 0, len(specs))
	for _, s := range specs {
		name, typ, ok := strings.Cut(strings.TrimSpace(s), " ")
		if !ok {
			typ = "TEXT"
		}
		typ = strings.ToUpper(strings.TrimSpace(typ))
		cols = append(cols, sqlmock.NewColumn(name).OfType(typ, sample(typ)).Nullable(true))
	}
	return sqlmock.NewRowsWithColumnDefinition(cols...)
}

// sample gives the Go type pgx scans each PostgreSQL type into.
func sample(typ string) any {
	switch typ {
	case "INT2", "INT4", "INT8":
		return int64(0)
	case "FLOAT4", "FLOAT8":
		return float64(0)
	case "BOOL":
		return false
	case "TIMESTAMP", "TIMESTAMPTZ", "DATE":
		return time.Time{}
	case "BYTEA", "JSON", "JSONB":
		return []byte(nil)
	}
	return ""
}

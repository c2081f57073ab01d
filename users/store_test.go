package users

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/db"
	"github.com/circleci/sample-app/internal/syncbuffer"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/otel"
	"github.com/circleci/sample-app/testing/fakedb"
	"github.com/circleci/sample-app/testing/fakemetrics"
	"github.com/circleci/sample-app/testing/testcontext"
)

func newStore(t *testing.T) (sqlmock.Sqlmock, *Store) {
	t.Helper()
	conn, mock := fakedb.New(t)
	return mock, NewStore(db.NewQuerier(conn))
}

func TestStore_List(t *testing.T) {
	mock, store := newStore(t)
	mock.ExpectQuery("SELECT * FROM users").WillReturnRows(
		fakedb.Columns("id INT4", "name TEXT", "email TEXT").
			AddRow(int64(1), "Ada", "ada@example.com").
			AddRow(int64(2), "Grace", "grace@example.com").
			AddRow(int64(3), "Linus", nil),
	)

	got, err := store.List(testcontext.Background())
	assert.Assert(t, err)
	assert.Check(t, cmp.DeepEqual(got, []Record{
		{"id": int64(1), "name": "Ada", "email": "ada@example.com"},
		{"id": int64(2), "name": "Grace", "email": "grace@example.com"},
		{"id": int64(3), "name": "Linus", "email": nil},
	}))
	assert.Check(t, mock.ExpectationsWereMet())
}

func TestStore_List_Empty(t *testing.T) {
	mock, store := newStore(t)
	mock.ExpectQuery(listQuery).WillReturnRows(fakedb.Columns("id INT4"))

	got, err := store.List(testcontext.Background())
	assert.Assert(t, err)

	b, err := json.Marshal(got)
	assert.Assert(t, err)
	assert.Check(t, cmp.Equal(string(b), "[]"))
}

func TestStore_List_Errors(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		is   error
	}{
		{
			name: "connection refused",
			err:  connRefused(),
			is:   db.ErrUnavailable,
		},
		{
			name: "missing table",
			err:  &pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`},
			is:   db.ErrQuery,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newStore(t)
			mock.ExpectQuery(listQuery).WillReturnError(tt.err)

			got, err := store.List(testcontext.Background())
			assert.Check(t, got == nil)
			assert.Check(t, cmp.ErrorIs(err, ErrDataAccess))
			assert.Check(t, cmp.ErrorIs(err, tt.is))
			assert.Check(t, cmp.ErrorContains(err, "data access failed: "))
		})
	}
}

func TestStore_List_O11y(t *testing.T) {
	b := &syncbuffer.SyncBuffer{}
	m := &fakemetrics.Provider{}
	p, err := otel.New(otel.Config{Writer: b, Test: true, Metrics: m})
	assert.Assert(t, err)
	ctx := o11y.WithProvider(context.Background(), p)

	mock, store := newStore(t)
	mock.ExpectQuery(listQuery).WillReturnError(&pgconn.PgError{Code: "42601", Message: "syntax error"})

	_, err = store.List(ctx)
	assert.Check(t, cmp.ErrorIs(err, ErrDataAccess))

	assert.Check(t, cmp.Contains(b.String(), "db: users.list"))
	assert.Check(t, cmp.Contains(b.String(), "db.error_class=query"))

	calls := m.Named("db.query")
	assert.Assert(t, cmp.Len(calls, 1))
	assert.Check(t, cmp.DeepEqual(calls[0].Tags, []string{"db.entity:users", "db.query_name:list", "result:error"}))
}

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gotest.tools/v3/assert"

	"github.com/circleci/sample-app/db"
	"github.com/circleci/sample-app/internal/syncbuffer"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/otel"
	"github.com/circleci/sample-app/testing/fakedb"
	"github.com/circleci/sample-app/testing/fakemetrics"
	"github.com/circleci/sample-app/users"
)

type fixture struct {
	url  string
	db   sqlmock.Sqlmock
	logs *syncbuffer.SyncBuffer
}

// startAPI serves the API over a users store backed by a mocked database.
func startAPI(t testing.TB) *fixture {
	t.Helper()

	conn, mock := fakedb.New(t)
	fix := startAPIWith(t, users.NewStore(db.NewQuerier(conn)))
	fix.db = mock
	return fix
}

func startAPIWith(t testing.TB, store UserLister) *fixture {
	t.Helper()

	logs := &syncbuffer.SyncBuffer{}
	p, err := otel.New(otel.Config{
		Writer:  logs,
		Test:    true,
		Metrics: &fakemetrics.Provider{},
	})
	assert.Assert(t, err)
	ctx := o11y.WithProvider(context.Background(), p)

	a := New(ctx, Options{Store: store})
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	return &fixture{
		url:  srv.URL,
		logs: logs,
	}
}

func (f *fixture) get(t testing.TB, path string) (status int, body string, hdr http.Header) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.url+path, nil)
	assert.Assert(t, err)
	req.Header.Set("Origin", "https://frontend.example")

	resp, err := http.DefaultClient.Do(req)
	assert.Assert(t, err)
	defer func() {
		assert.Check(t, resp.Body.Close())
	}()

	b, err := io.ReadAll(resp.Body)
	assert.Assert(t, err)

	return resp.StatusCode, string(b), resp.Header
}

package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/db"
	"github.com/circleci/sample-app/testing/dbfixture"
	"github.com/circleci/sample-app/testing/testcontext"
	"github.com/circleci/sample-app/users"
)

// language=PostgreSQL
const usersSchema = `
CREATE TABLE users (
	id    SERIAL PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT
);
`

func TestAPI_listUsers_PostgreSQL(t *testing.T) {
	ctx := testcontext.Background()
	fix := dbfixture.SetupDB(ctx, t, usersSchema, dbfixture.LocalConnection())

	conn, err := db.New(ctx, db.Config{URL: fix.URL(), AppName: "api-test"})
	assert.Assert(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	srv := startAPIWith(t, users.NewStore(db.NewQuerier(conn)))

	t.Run("empty table", func(t *testing.T) {
		status, body, _ := srv.get(t, "/api/users")
		assert.Check(t, cmp.Equal(status, http.StatusOK))
		assert.Check(t, cmp.Equal(body, "[]"))
	})

	t.Run("rows", func(t *testing.T) {
		_, err := fix.DB.ExecContext(ctx, `INSERT INTO users (name, email) VALUES ('Ada', 'ada@example.com'), ('Grace', NULL)`)
		assert.Assert(t, err)

		status, body, _ := srv.get(t, "/api/users")
		assert.Check(t, cmp.Equal(status, http.StatusOK))

		var got []map[string]any
		assert.Assert(t, json.Unmarshal([]byte(body), &got))
		assert.Check(t, cmp.DeepEqual(got, []map[string]any{
			{"id": 1.0, "name": "Ada", "email": "ada@example.com"},
			{"id": 2.0, "name": "Grace", "email": nil},
		}))
	})

	t.Run("query fails", func(t *testing.T) {
		_, err := fix.DB.ExecContext(ctx, `DROP TABLE users`)
		assert.Assert(t, err)

		status, body, _ := srv.get(t, "/api/users")
		assert.Check(t, cmp.Equal(status, http.StatusInternalServerError))
		assert.Check(t, cmp.Equal(body, dbErrorBody))
		assert.Check(t, cmp.Contains(srv.logs.String(), `relation "users" does not exist`))
	})
}

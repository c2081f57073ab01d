package dbfixture

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/testing/testcontext"
)

func TestSetupDB(t *testing.T) {
	ctx := testcontext.Background()
	fix := SetupDB(ctx, t, `CREATE TABLE things (id SERIAL PRIMARY KEY, name TEXT)`, LocalConnection())

	assert.Check(t, cmp.DeepEqual(fix.tables, []string{"things"}))

	_, err := fix.DB.ExecContext(ctx, `INSERT INTO things (name) VALUES ('a'), ('b')`)
	assert.NilError(t, err)

	var n int
	assert.NilError(t, fix.DB.GetContext(ctx, &n, `SELECT count(*) FROM things`))
	assert.Check(t, cmp.Equal(n, 2))

	t.Run("reset", func(t *testing.T) {
		assert.NilError(t, fix.Reset(ctx))
		assert.NilError(t, fix.DB.GetContext(ctx, &n, `SELECT count(*) FROM things`))
		assert.Check(t, cmp.Equal(n, 0))
	})
}

func TestDBName(t *testing.T) {
	name := dbName(strings.Repeat("x", 100))
	assert.Check(t, cmp.Len(name, 63))
	assert.Check(t, name[6] == '-')
}

func TestURL(t *testing.T) {
	fix := &Fixture{DBName: "abc-Test", Host: "db:5432", User: "postgres", Password: "s3cret"}
	u := fix.URL()
	assert.Check(t, cmp.Equal(u.Raw(), "postgres://postgres:s3cret@db:5432/abc-Test?connect_timeout=5&sslmode=disable"))
	assert.Check(t, !strings.Contains(u.String(), "s3cret"))
}

// Package dbfixture creates a throwaway PostgreSQL database per test, with a schema applied.
//
// Tests are skipped when no server is reachable, unless CI=true, in which case they fail.
package dbfixture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4"
	_ "github.com/jackc/pgx/v4/stdlib" // registers the pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"gotest.tools/v3/assert"

	"github.com/circleci/sample-app/config/secret"
	"github.com/circleci/sample-app/o11y"
)

var mustRun = os.Getenv("CI") == "true"

var shared struct {
	once sync.Once
	m    *manager
	err  error
}

type Connection struct {
	// Host is host:port of the server
	Host     string
	User     string
	Password secret.String
}

// LocalConnection describes the server from TEST_DB_HOST, TEST_DB_USER and TEST_DB_PASSWORD,
// defaulting to postgres:postgres@localhost:5432.
func LocalConnection() Connection {
	return Connection{
		Host:     envOr("TEST_DB_HOST", "localhost:5432"),
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: secret.String(envOr("TEST_DB_PASSWORD", "postgres")),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type Fixture struct {
	DBName   string
	Host     string
	User     string
	Password secret.String
	// DB is connected to the fixture database
	DB *sqlx.DB

	tables []string
	drop   func(ctx context.Context) error
}

// URL is the connection string for the fixture database, as DATABASE_URL would hold it.
func (f *Fixture) URL() secret.String {
	return secret.String(connURL(Connection{Host: f.Host, User: f.User, Password: f.Password}, f.DBName))
}

// SetupDB creates a database named after the test, applies schema and drops it again when the
// test finishes. Set TEST_PRESERVE_DB to keep it for inspection.
func SetupDB(ctx context.Context, t testing.TB, schema string, con Connection) *Fixture {
	t.Helper()

	shared.once.Do(func() {
		shared.m, shared.err = newManager(con)
	})
	if shared.err != nil {
		var noDB *NoDBError
		if errors.As(shared.err, &noDB) && !mustRun {
			t.Skip(noDB.Error())
		}
		t.Fatal(shared.err.Error())
	}

	fix, err := shared.m.newDB(ctx, con, dbName(t.Name()), schema)
	assert.NilError(t, err)
	t.Cleanup(func() {
		p := o11y.FromContext(ctx)
		ctx, cancel := context.WithTimeout(o11y.WithProvider(context.Background(), p), 10*time.Second)
		defer cancel()
		assert.Check(t, fix.drop(ctx))
	})
	return fix
}

// Reset empties every table the schema created.
func (f *Fixture) Reset(ctx context.Context) error {
	for _, table := range f.tables {
		//#nosec:G201 // table names come from the catalog and are quoted
		_, err := f.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", pgx.Identifier{table}.Sanitize()))
		if err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

type manager struct {
	admin *sqlx.DB
}

func newManager(con Connection) (*manager, error) {
	admin, err := open(con, "postgres")
	if err != nil {
		return nil, err
	}
	return &manager{admin: admin}, nil
}

// language=PostgreSQL
const tablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema = 'public'
`

func (m *manager) newDB(ctx context.Context, con Connection, name, schema string) (_ *Fixture, err error) {
	ctx, span := o11y.StartSpan(ctx, "dbfixture: new-db")
	defer o11y.End(span, &err)
	span.AddField("dbname", name)
	span.AddField("host", con.Host)

	_, err = m.admin.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	if err != nil {
		return nil, err
	}

	fix := &Fixture{DBName: name, Host: con.Host, User: con.User, Password: con.Password}
	fix.drop = func(ctx context.Context) error {
		return m.drop(ctx, fix)
	}
	defer func() {
		if err != nil {
			_ = fix.drop(ctx)
		}
	}()

	fix.DB, err = open(con, name)
	if err != nil {
		return nil, err
	}

	if schema != "" {
		o11y.Log(ctx, "dbfixture: applying schema")
		if _, err = fix.DB.ExecContext(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err = fix.DB.SelectContext(ctx, &fix.tables, tablesQuery); err != nil {
		return nil, fmt.Errorf("could not list tables: %w", err)
	}
	return fix, nil
}

func (m *manager) drop(ctx context.Context, fix *Fixture) error {
	var result *multierror.Error
	if fix.DB != nil {
		result = multierror.Append(result, fix.DB.Close())
	}

	if os.Getenv("TEST_PRESERVE_DB") == "" {
		name := pgx.Identifier{fix.DBName}.Sanitize()
		_, err := m.admin.ExecContext(ctx,
			`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
			fix.DBName)
		if err != nil {
			o11y.LogError(ctx, "dbfixture: terminate connections", err)
		}
		if _, err = m.admin.ExecContext(ctx, "DROP DATABASE "+name); err != nil {
			result = multierror.Append(result, fmt.Errorf("drop db: %w", err))
		}
	}

	return result.ErrorOrNil()
}

type NoDBError struct {
	err error
}

func (e *NoDBError) Error() string {
	return fmt.Sprintf("no database available: %s", e.err)
}

func (e *NoDBError) Unwrap() error {
	return e.err
}

func connURL(con Connection, name string) string {
	params := url.Values{}
	params.Set("connect_timeout", "5")
	params.Set("sslmode", "disable")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(con.User, con.Password.Raw()),
		Host:     con.Host,
		Path:     name,
		RawQuery: params.Encode(),
	}
	return u.String()
}

func open(con Connection, name string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", connURL(con, name))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, &NoDBError{err: err}
	}
	return db, nil
}

// dbName prefixes the test name with a random suffix, within PostgreSQL's 63 byte limit.
func dbName(testName string) string {
	b := make([]byte, 3)
	suffix := "000000"
	if _, err := rand.Read(b); err == nil {
		suffix = hex.EncodeToString(b)
	}
	s := suffix + "-" + strings.ReplaceAll(testName, "/", "_")
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}

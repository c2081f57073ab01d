package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/circleci/sample-app/config/secret"
	"github.com/circleci/sample-app/o11y"
)

type Config struct {
	// URL is a PostgreSQL connection string, either URL or keyword/value form.
	URL secret.String
	// AppName is reported to the server as application_name.
	AppName string
}

// New creates the connection pool. No connection is made until the pool is first used, so an
// unreachable database does not stop the service starting.
func New(ctx context.Context, cfg Config) (db *sqlx.DB, err error) {
	_, span := o11y.StartSpan(ctx, "config: connect to database")
	defer o11y.End(span, &err)

	span.AddField("url", cfg.URL.RedactURL())

	connConfig, err := pgx.ParseConfig(cfg.URL.Raw())
	if err != nil {
		return nil, fmt.Errorf("invalid database connection string: %w", err)
	}
	if cfg.AppName != "" {
		connConfig.RuntimeParams["application_name"] = cfg.AppName
	}

	span.AddField("host", connConfig.Host)
	span.AddField("port", int(connConfig.Port))
	span.AddField("dbname", connConfig.Database)
	span.AddField("username", connConfig.User)

	return sqlx.NewDb(stdlib.OpenDB(*connConfig), "pgx"), nil
}

// Package setup contains common wiring/setup code used by the service commands.
package setup

import (
	"context"
	"fmt"
	_ "time/tzdata" // include embedded timezone data

	"github.com/gwatts/rootcerts"

	"github.com/circleci/sample-app/config/o11y"
	"github.com/circleci/sample-app/config/secret"
	"github.com/circleci/sample-app/db"
	"github.com/circleci/sample-app/system"
)

type CLI struct {
	AdminAddr string `env:"ADMIN_ADDR" default:":3001" help:"The address for the admin api to listen on"`

	O11yStatsd          string        `name:"o11y-statsd" env:"O11Y_STATSD" help:"Address to send statsd metrics, metrics are discarded if empty"`
	O11yGrpcHostAndPort string        `name:"o11y-grpc-host-and-port" env:"O11Y_GRPC_HOST_AND_PORT" help:"OTLP gRPC collector to send traces to"`
	O11yDataset         string        `name:"o11y-dataset" env:"O11Y_DATASET" default:"sample-app"`
	O11yRollbarToken    secret.String `name:"o11y-rollbar-token" env:"O11Y_ROLLBAR_TOKEN"`
	O11yRollbarEnv      string        `name:"o11y-rollbar-env" env:"O11Y_ROLLBAR_ENV" default:"production"`

	DatabaseURL secret.String `name:"database-url" env:"DATABASE_URL" help:"PostgreSQL connection string"`
}

func init() {
	err := rootcerts.UpdateDefaultTransport()
	if err != nil {
		panic(fmt.Errorf("failed to inject rootcerts: %w", err))
	}
}

func LoadO11y(version, mode string, cli CLI) (context.Context, func(context.Context), error) {
	return o11y.Otel(context.Background(), o11y.OtelConfig{
		GrpcHostAndPort:   cli.O11yGrpcHostAndPort,
		Dataset:           cli.O11yDataset,
		Statsd:            cli.O11yStatsd,
		StatsNamespace:    "sample_app.",
		RollbarToken:      cli.O11yRollbarToken,
		RollbarEnv:        cli.O11yRollbarEnv,
		RollbarServerRoot: "github.com/circleci/sample-app",
		Version:           version,
		Service:           "sample-app",
		Mode:              mode,
	})
}

func LoadDB(ctx context.Context, cli CLI, sys *system.System) (db.Querier, error) {
	return db.Load(ctx, "sample-app", db.Config{
		URL:     cli.DatabaseURL,
		AppName: "sample-app",
	}, sys)
}

package db

import (
	"context"

	"github.com/circleci/sample-app/system"
)

// Load opens the pool and registers its readiness check, pool gauges and close with the system.
func Load(ctx context.Context, name string, cfg Config, sys *system.System) (Querier, error) {
	db, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dbCheck := &HealthCheck{Name: name + "-db", DB: db}
	sys.AddMetrics(dbCheck)
	sys.AddHealthCheck(dbCheck)
	sys.AddCleanup(func(ctx context.Context) error {
		return db.Close()
	})

	return NewQuerier(db), nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// HealthCheck reports readiness and pool gauges for a database. It has no liveness check, a
// database outage makes the service unready but it is still alive.
type HealthCheck struct {
	Name string
	DB   *sqlx.DB
}

func (h *HealthCheck) HealthChecks() (name string, ready, live func(ctx context.Context) error) {
	return h.Name, newPGHealthCheck(h.DB), nil
}

func (h *HealthCheck) MetricName() string {
	return h.Name
}

func (h *HealthCheck) Gauges(_ context.Context) map[string]float64 {
	stats := h.DB.Stats()
	return map[string]float64{
		"open":                 float64(stats.OpenConnections),
		"in_use":               float64(stats.InUse),
		"idle":                 float64(stats.Idle),
		"wait_count":           float64(stats.WaitCount),
		"wait_duration":        float64(stats.WaitDuration / time.Millisecond),
		"max_idle_closed":      float64(stats.MaxIdleClosed),
		"max_idle_time_closed": float64(stats.MaxIdleTimeClosed),
		"max_lifetime_closed":  float64(stats.MaxLifetimeClosed),
	}
}

// newPGHealthCheck verifies the database by pinging it, then selecting the server version.
func newPGHealthCheck(db *sqlx.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgreSQL health check failed on ping: %w", mapError(err))
		}

		var version string
		if err := db.GetContext(ctx, &version, `SELECT VERSION()`); err != nil {
			return fmt.Errorf("postgreSQL health check failed on select: %w", mapError(err))
		}
		return nil
	}
}

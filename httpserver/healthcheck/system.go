package healthcheck

import (
	"context"
	"fmt"

	"github.com/circleci/sample-app/httpserver"
	"github.com/circleci/sample-app/system"
)

// Load starts the admin server on addr, serving the health checks registered with sys so far.
func Load(ctx context.Context, addr string, sys *system.System) (*httpserver.HTTPServer, error) {
	healthAPI, err := New(ctx, sys.HealthChecks())
	if err != nil {
		return nil, fmt.Errorf("error creating health check API: %w", err)
	}

	return httpserver.Load(ctx, httpserver.Config{
		Name:    "admin",
		Addr:    addr,
		Handler: healthAPI.Handler(),
	}, sys)
}

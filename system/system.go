package system

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/termination"
)

// HealthChecker is implemented by anything that wants to report readiness or liveness on the
// admin API. Either returned func may be nil.
type HealthChecker interface {
	HealthChecks() (name string, ready, live func(ctx context.Context) error)
}

type System struct {
	group           *errgroup.Group
	ctx             context.Context
	services        []func(context.Context) error
	healthChecks    []HealthChecker
	metricProducers []MetricProducer
	cleanups        []func(ctx context.Context) error

	metricsInterval time.Duration
}

func New(ctx context.Context) *System {
	group, ctx := errgroup.WithContext(ctx)
	return &System{
		group:           group,
		ctx:             ctx,
		metricsInterval: 10 * time.Second,
	}
}

var terminationTestHook = termination.Handle

// Run starts every service and blocks until one of them fails or the process is terminated.
// The delay is how long to keep serving after a termination signal arrives.
func (r *System) Run(delay time.Duration) (err error) {
	_, uptimeSpan := o11y.StartSpan(r.ctx, "system: run")
	defer o11y.End(uptimeSpan, &err)
	uptimeSpan.RecordMetric(o11y.Timing("system.run", "result"))

	r.group.Go(func() error {
		return terminationTestHook(r.ctx, delay)
	})

	for _, f := range r.services {
		f := f
		r.group.Go(func() error {
			return f(r.ctx)
		})
	}

	if len(r.metricProducers) > 0 {
		r.group.Go(metricsReporter(r.ctx, r.metricsInterval, r.metricProducers))
	}

	return r.group.Wait()
}

func (r *System) AddService(s func(ctx context.Context) error) {
	r.services = append(r.services, s)
}

func (r *System) AddHealthCheck(h HealthChecker) {
	r.healthChecks = append(r.healthChecks, h)
}

func (r *System) AddMetrics(m MetricProducer) {
	r.metricProducers = append(r.metricProducers, m)
}

func (r *System) AddCleanup(c func(ctx context.Context) error) {
	r.cleanups = append(r.cleanups, c)
}

func (r *System) HealthChecks() []HealthChecker {
	return r.healthChecks
}

// Cleanup runs the cleanups in reverse order of registration.
func (r *System) Cleanup(ctx context.Context) {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](ctx); err != nil {
			o11y.LogError(ctx, "system: cleanup error", err)
		}
	}
}

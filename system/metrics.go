package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/worker"
)

type MetricProducer interface {
	// MetricName is the name for this group of metrics
	MetricName() string
	// Gauges are instantaneous name value pairs
	Gauges(context.Context) map[string]float64
}

func traceMetrics(ctx context.Context, producers []MetricProducer) {
	metrics := o11y.FromContext(ctx).MetricsProvider()
	for _, producer := range producers {
		traceMetric(ctx, metrics, producer)
	}
}

func traceMetric(ctx context.Context, provider o11y.MetricsProvider, producer MetricProducer) {
	producerName := strings.ReplaceAll(producer.MetricName(), "-", "_")
	for f, v := range producer.Gauges(ctx) {
		_ = provider.Gauge(fmt.Sprintf("gauge.%s.%s", producerName, f), v, []string{}, 1)
	}
}

// metricsReporter returns a func for errgroup.Go that runs a worker publishing the gauges from
// the producers immediately and then every interval until the context is done.
func metricsReporter(ctx context.Context, interval time.Duration, mps []MetricProducer) func() error {
	return func() error {
		worker.Run(ctx, worker.Config{
			Name:          "metric-loop",
			MaxWorkTime:   time.Second,
			NoWorkBackOff: backoff.NewConstantBackOff(interval),
			WorkFunc: func(ctx context.Context) error {
				traceMetrics(ctx, mps)
				return worker.ErrShouldBackoff
			},
		})
		return nil
	}
}

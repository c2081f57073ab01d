// Package o11y wires the otel o11y provider, statsd metrics and rollbar from process configuration.
package o11y

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/cenkalti/backoff/v4"
	"github.com/rollbar/rollbar-go"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/circleci/sample-app/config/secret"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/otel"
)

// OtelConfig contains all the things we need to configure for otel based instrumentation.
type OtelConfig struct {
	GrpcHostAndPort string
	Dataset         string

	// DisableText prevents output to stdout. Ignored if no collector is configured.
	DisableText bool

	Test bool

	Statsd                  string
	StatsNamespace          string
	StatsdTelemetryDisabled bool
	// StatsdConnectAttempts bounds how many times creating the statsd client is tried, a second apart.
	StatsdConnectAttempts uint64

	RollbarToken      secret.String
	RollbarEnv        string
	RollbarServerRoot string
	RollbarDisabled   bool

	Version string
	Service string
	Mode    string
}

// Otel is the primary entrypoint to initialize the o11y system. The returned function closes
// the provider, flushing any buffered spans and metrics.
func Otel(ctx context.Context, o OtelConfig) (context.Context, func(context.Context), error) {
	hostname, _ := os.Hostname()

	mProv, err := metricsProvider(ctx, o, hostname)
	if err != nil {
		return ctx, nil, fmt.Errorf("metrics provider failed: %w", err)
	}

	otelProvider, err := otel.New(otel.Config{
		GrpcHostAndPort: o.GrpcHostAndPort,
		Dataset:         o.Dataset,
		ResourceAttributes: []attribute.KeyValue{
			semconv.ServiceNameKey.String(o.Service),
			semconv.ServiceVersionKey.String(o.Version),
			attribute.String("service.mode", o.Mode),
		},
		DisableText: o.DisableText,
		Test:        o.Test,
		Metrics:     mProv,
	})
	if err != nil {
		return ctx, nil, err
	}

	var provider o11y.Provider = otelProvider
	provider.AddGlobalField("service", o.Service)
	provider.AddGlobalField("version", o.Version)
	if o.Mode != "" {
		provider.AddGlobalField("mode", o.Mode)
	}

	if o.RollbarToken != "" {
		client := rollbar.NewAsync(o.RollbarToken.Raw(), o.RollbarEnv, o.Version, hostname, o.RollbarServerRoot)
		client.SetEnabled(!o.RollbarDisabled)
		client.Message(rollbar.INFO, "Deployment")
		provider = rollbarProvider{
			Provider:      provider,
			rollBarClient: client,
		}
	}

	return o11y.WithProvider(ctx, provider), provider.Close, nil
}

func metricsProvider(ctx context.Context, o OtelConfig, hostname string) (o11y.ClosableMetricsProvider, error) {
	if o.Statsd == "" {
		return &statsd.NoOpClient{}, nil
	}

	tags := []string{
		"service:" + o.Service,
		"version:" + o.Version,
		"hostname:" + hostname,
	}
	if o.Mode != "" {
		tags = append(tags, "mode:"+o.Mode)
	}

	opts := []statsd.Option{
		statsd.WithNamespace(o.StatsNamespace),
		statsd.WithTags(tags),
	}
	if o.StatsdTelemetryDisabled {
		opts = append(opts, statsd.WithoutTelemetry())
	}

	attempts := o.StatsdConnectAttempts
	if attempts == 0 {
		attempts = 30
	}

	var stats *statsd.Client
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), attempts-1)
	err := backoff.Retry(func() (err error) {
		stats, err = statsd.New(o.Statsd, opts...)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type rollbarProvider struct {
	o11y.Provider
	rollBarClient *rollbar.Client
}

func (p rollbarProvider) Close(ctx context.Context) {
	p.Provider.Close(ctx)
	_ = p.rollBarClient.Close()
}

func (p rollbarProvider) RollBarClient() *rollbar.Client {
	return p.rollBarClient
}

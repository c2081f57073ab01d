// Package otel contains the o11y.Provider built on the OpenTelemetry SDK.
//
// Spans are always written to a text console exporter, and additionally to an OTLP gRPC
// collector when one is configured.
package otel

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/otel/texttrace"
)

type Config struct {
	Dataset            string
	GrpcHostAndPort    string
	ResourceAttributes []attribute.KeyValue

	// DisableText stops console output. It is ignored unless a gRPC collector is configured.
	DisableText bool
	// Writer receives the console output, it defaults to a coloured stdout.
	Writer io.Writer
	// Test exports spans synchronously so output is visible as soon as a span ends.
	Test bool

	Metrics o11y.ClosableMetricsProvider
}

type Provider struct {
	metricsProvider o11y.ClosableMetricsProvider
	tracer          trace.Tracer
	tp              *sdktrace.TracerProvider
	propagator      propagation.TextMapPropagator
	globalFields    *annotator
}

func New(conf Config) (*Provider, error) {
	exporters, err := newExporters(conf)
	if err != nil {
		return nil, err
	}

	globalFields := &annotator{}
	tp := traceProvider(conf, exporters, globalFields)

	return &Provider{
		metricsProvider: conf.Metrics,
		tracer:          tp.Tracer(""),
		tp:              tp,
		propagator:      propagation.NewCompositeTextMapPropagator(propagation.Baggage{}, propagation.TraceContext{}),
		globalFields:    globalFields,
	}, nil
}

func newExporters(conf Config) ([]sdktrace.SpanExporter, error) {
	var exporters []sdktrace.SpanExporter

	if conf.GrpcHostAndPort != "" {
		grpc, err := newGRPC(context.Background(), conf.GrpcHostAndPort, conf.Dataset)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		exporters = append(exporters, grpc)
	}

	if len(exporters) == 0 || !conf.DisableText {
		w := conf.Writer
		var opts []texttrace.Option
		if w == nil {
			w = os.Stdout
		} else {
			opts = append(opts, texttrace.WithoutColour())
		}
		exporters = append(exporters, texttrace.New(w, opts...))
	}
	return exporters, nil
}

func traceProvider(conf Config, exporters []sdktrace.SpanExporter, globalFields *annotator) *sdktrace.TracerProvider {
	ra := append([]attribute.KeyValue{
		attribute.String("x-honeycomb-dataset", conf.Dataset),
	}, conf.ResourceAttributes...)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, ra...)),
		sdktrace.WithSpanProcessor(globalFields),
	}
	for _, e := range exporters {
		if conf.Test {
			opts = append(opts, sdktrace.WithSyncer(e))
		} else {
			opts = append(opts, sdktrace.WithBatcher(e))
		}
	}
	return sdktrace.NewTracerProvider(opts...)
}

func newGRPC(ctx context.Context, endpoint, dataset string) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithHeaders(map[string]string{"x-honeycomb-dataset": dataset}),
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

type spanCtxKey struct{}

func (o *Provider) AddGlobalField(key string, val interface{}) {
	mustValidateKey(key)
	o.globalFields.addField(key, val)
}

func (o *Provider) StartSpan(ctx context.Context, name string, opts ...o11y.SpanOpt) (context.Context, o11y.Span) {
	var startOpts []trace.SpanStartOption
	if cfg := o11y.ApplySpanOpts(opts...); cfg.Kind != 0 {
		startOpts = append(startOpts, trace.WithSpanKind(trace.SpanKind(cfg.Kind)))
	}

	ctx, sp := o.tracer.Start(ctx, name, startOpts...)
	s := o.wrapSpan(sp)
	return context.WithValue(ctx, spanCtxKey{}, s), s
}

// GetSpan returns the active span in the given context. It will return nil if there is no span available.
func (o *Provider) GetSpan(ctx context.Context) o11y.Span {
	if s, ok := ctx.Value(spanCtxKey{}).(*span); ok {
		return s
	}
	return nil
}

func (o *Provider) AddField(ctx context.Context, key string, val interface{}) {
	if s, ok := ctx.Value(spanCtxKey{}).(*span); ok {
		s.AddField(key, val)
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attr("app."+key, val))
}

func (o *Provider) AddFieldToTrace(ctx context.Context, key string, val interface{}) {
	o.AddField(ctx, key, val)
}

func (o *Provider) Log(ctx context.Context, name string, fields ...o11y.Pair) {
	_, s := o.StartSpan(ctx, name)
	for _, f := range fields {
		s.AddField(f.Key, f.Value)
	}
	s.End()
}

func (o *Provider) Close(ctx context.Context) {
	_ = o.tp.Shutdown(ctx)
	if o.metricsProvider != nil {
		_ = o.metricsProvider.Close()
	}
}

func (o *Provider) MetricsProvider() o11y.MetricsProvider {
	return o.metricsProvider
}

func (o *Provider) Helpers() o11y.Helpers {
	return helpers{p: o}
}

func (o *Provider) wrapSpan(s trace.Span) *span {
	return &span{
		metricsProvider: o.metricsProvider,
		span:            s,
		start:           time.Now(),
		fields:          map[string]interface{}{},
	}
}

type span struct {
	span            trace.Span
	metrics         []o11y.Metric
	metricsProvider o11y.ClosableMetricsProvider
	start           time.Time
	fields          map[string]interface{}
}

func (s *span) AddField(key string, val interface{}) {
	s.AddRawField("app."+key, val)
}

func (s *span) AddRawField(key string, val interface{}) {
	mustValidateKey(key)
	s.fields[key] = val
	if key == "name" {
		if v, ok := val.(string); ok {
			s.span.SetName(v)
		}
	}
	s.span.SetAttributes(attr(key, val))
}

// RecordMetric will only emit a metric when End is called
func (s *span) RecordMetric(metric o11y.Metric) {
	s.metrics = append(s.metrics, metric)
}

func (s *span) End() {
	s.sendMetrics()
	s.span.End()
}

func (s *span) sendMetrics() {
	if s.metricsProvider == nil || len(s.metrics) == 0 {
		return
	}
	s.fields["duration_ms"] = time.Since(s.start)
	sendMetrics(s.metricsProvider, s.metrics, s.fields)
}

func mustValidateKey(key string) {
	if strings.Contains(key, "-") {
		panic(fmt.Errorf("key %q cannot contain '-'", key))
	}
}

// Package tracing builds a stand-alone OpenTelemetry tracer that writes each finished span to a
// console sink as soon as it ends.
//
// Nothing in the service starts spans with it, and it is not installed as the global tracer
// provider. The service's own request tracing goes through the o11y package.
package tracing

import (
	"context"
	"io"
	"os"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/circleci/sample-app/o11y/otel/texttrace"
)

// TracerName is the instrumentation name of the tracer.
const TracerName = "my-app-frontend"

type Bootstrap struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

type Option func(*options)

type options struct {
	w io.Writer
}

// WithWriter sends spans to w instead of stdout. Colour is disabled.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.w = w
	}
}

// New creates the tracer provider with a console exporter behind a simple, synchronous, span
// processor and obtains the named tracer.
func New(opts ...Option) *Bootstrap {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var exporter *texttrace.Exporter
	if o.w == nil {
		exporter = texttrace.New(os.Stdout)
	} else {
		exporter = texttrace.New(o.w, texttrace.WithoutColour())
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	return &Bootstrap{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}
}

// Tracer starts and ends named spans.
func (b *Bootstrap) Tracer() trace.Tracer {
	return b.tracer
}

// Shutdown stops the provider. Spans ended afterwards are dropped.
func (b *Bootstrap) Shutdown(ctx context.Context) error {
	return b.provider.Shutdown(ctx)
}

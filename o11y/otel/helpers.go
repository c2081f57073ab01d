package otel

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/circleci/sample-app/o11y"
)

type helpers struct {
	p *Provider
}

// ExtractPropagation pulls propagation information out of the context
func (h helpers) ExtractPropagation(ctx context.Context) o11y.PropagationContext {
	hdr := http.Header{}
	h.p.propagator.Inject(ctx, propagation.HeaderCarrier(hdr))
	return o11y.PropagationContext{Headers: hdr}
}

// InjectPropagation always returns a new span. If the propagation context carries a valid parent
// the span joins that trace, otherwise it is the root of a new one. The span is named "root" and
// callers are expected to rename it.
func (h helpers) InjectPropagation(ctx context.Context, pc o11y.PropagationContext,
	opts ...o11y.SpanOpt) (context.Context, o11y.Span) {

	if pc.Headers != nil {
		ctx = h.p.propagator.Extract(ctx, propagation.HeaderCarrier(pc.Headers))
	}
	return h.p.StartSpan(ctx, "root", opts...)
}

func (h helpers) TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanProcessor = &annotator{}

// annotator is a SpanProcessor that adds the global fields to all started spans.
type annotator struct {
	mu    sync.RWMutex
	attrs []attribute.KeyValue
}

func (a *annotator) addField(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attrs = append(a.attrs, attr(key, value))
}

func (a *annotator) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s.SetAttributes(a.attrs...)
}

func (a *annotator) Shutdown(context.Context) error   { return nil }
func (a *annotator) ForceFlush(context.Context) error { return nil }
func (a *annotator) OnEnd(sdktrace.ReadOnlySpan)      {}

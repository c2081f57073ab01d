// Package texttrace is a span exporter for otel that writes one human-readable line per span
package texttrace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/circleci/sample-app/colourise"
)

var _ trace.SpanExporter = &Exporter{}

type Option func(*Exporter)

// WithoutColour disables ANSI colouring of trace ids, span names and errors.
func WithoutColour() Option {
	return func(e *Exporter) {
		e.colour = false
	}
}

// New creates an Exporter writing to w.
func New(w io.Writer, opts ...Option) *Exporter {
	e := &Exporter{
		w:      w,
		colour: true,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Exporter writes each span as a single line to its writer.
type Exporter struct {
	colour bool

	mu      sync.Mutex
	w       io.Writer
	stopped bool
}

// ExportSpans writes spans to the writer. Nothing is written after Shutdown.
func (e *Exporter) ExportSpans(_ context.Context, spans []trace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped || len(spans) == 0 {
		return nil
	}

	stubs := tracetest.SpanStubsFromReadOnlySpans(spans)
	for i := range stubs {
		if _, err := e.w.Write(e.format(&stubs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops the exporter writing any further spans.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	return ctx.Err()
}

func (e *Exporter) format(ev *tracetest.SpanStub) []byte {
	buf := new(bytes.Buffer)
	_, _ = fmt.Fprintf(buf, "%s %s %.3fms %s",
		ev.EndTime.Format("15:04:05"),
		e.applyColour(shortTraceID(ev.SpanContext.TraceID().String())),
		float64(ev.EndTime.Sub(ev.StartTime).Microseconds())/1000,
		e.applyColour(ev.Name),
	)

	data := map[string]any{}
	for _, a := range ev.Attributes {
		data[string(a.Key)] = a.Value.Emit()
	}

	for _, k := range sortedKeys(ev.Attributes) {
		if exclude(k) {
			continue
		}
		label := k
		if k == "error" && e.colour {
			label = colourise.Error(k)
		}
		_, _ = fmt.Fprintf(buf, " %s=%v", label, data[k])
	}
	buf.WriteString("\n")
	return buf.Bytes()
}

func exclude(k string) bool {
	switch k {
	case "name", "version", "service", "duration_ms":
		return true
	}
	for _, prefix := range []string{"trace.", "meta."} {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (e *Exporter) applyColour(value string) string {
	if !e.colour {
		return value
	}
	return colourise.Hashed(value)
}

func shortTraceID(raw string) string {
	return raw[len(raw)-5:]
}

func sortedKeys(kvs []attribute.KeyValue) []string {
	keys := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		keys = append(keys, string(kv.Key))
	}
	sort.Strings(keys)
	return keys
}

package o11y

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestFromContext(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		p := FromContext(context.Background())
		assert.Check(t, cmp.Equal(p, Provider(defaultProvider)))
	})

	t.Run("with provider in context", func(t *testing.T) {
		expected := &noopProvider{}
		ctx := WithProvider(context.Background(), expected)
		assert.Check(t, cmp.Equal(FromContext(ctx), Provider(expected)))
	})
}

func TestLog_WithoutProvider(t *testing.T) {
	Log(context.Background(), "foo", Field("name", "value"))
	LogError(context.Background(), "foo", errors.New("bar"), Field("name", "value"))
}

func TestStartSpan_WithoutProvider(t *testing.T) {
	ctx := context.Background()

	nCtx, span := StartSpan(ctx, "foo")
	assert.Check(t, span != nil, "should have returned a noop span")
	assert.Check(t, cmp.Equal(ctx, nCtx), "should have returned ctx unmodified")
}

func TestHandlePanic(t *testing.T) {
	ctx := context.Background()
	span := &recordingSpan{fields: map[string]interface{}{}}

	var err error
	func() {
		defer func() {
			err = HandlePanic(ctx, span, recover(), nil)
		}()
		panic("oh no")
	}()

	assert.Check(t, cmp.ErrorContains(err, "oh no"))
	assert.Check(t, cmp.Equal(span.fields["has_panicked"], "true"))
	assert.Check(t, cmp.Len(span.metrics, 1))
	assert.Check(t, cmp.Equal(span.metrics[0].Name, "panics"))
}

func TestAddResultToSpan(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		result  string
		error   string
		warning string
	}{
		{
			name:   "all-good",
			result: "success",
		},
		{
			name:   "normal-error",
			err:    errors.New("my error"),
			result: "error",
			error:  "my error",
		},
		{
			name:    "warning",
			err:     NewWarning("handled error"),
			result:  "success",
			warning: "handled error",
		},
		{
			name:    "wrapped-warning",
			err:     fmt.Errorf("wrapped: %w", NewWarning("bad connection")),
			result:  "success",
			warning: "wrapped: bad connection",
		},
		{
			name:    "context-canceled",
			err:     context.Canceled,
			result:  "canceled",
			warning: "context canceled",
		},
		{
			name:    "wrapped-deadline-exceeded",
			err:     fmt.Errorf("wrapped: %w", context.DeadlineExceeded),
			result:  "canceled",
			warning: "wrapped: context deadline exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := &recordingSpan{fields: map[string]interface{}{}}
			AddResultToSpan(span, tt.err)

			assert.Check(t, cmp.Equal(asString(span.fields["result"]), tt.result))
			assert.Check(t, cmp.Equal(asString(span.fields["error"]), tt.error))
			assert.Check(t, cmp.Equal(asString(span.fields["warning"]), tt.warning))
		})
	}
}

func TestEnd_CapturesLastAssignedError(t *testing.T) {
	span := &recordingSpan{fields: map[string]interface{}{}}

	func() (err error) {
		defer End(span, &err)
		err = errors.New("first")
		err = errors.New("second")
		return err
	}()

	assert.Check(t, cmp.Equal(span.fields["error"], "second"))
	assert.Check(t, span.ended)
}

func TestApplySpanOpts(t *testing.T) {
	assert.Check(t, cmp.Equal(ApplySpanOpts().Kind, SpanKind(0)))
	assert.Check(t, cmp.Equal(ApplySpanOpts(WithSpanKind(SpanKindServer)).Kind, SpanKindServer))
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	return v.(string)
}

type recordingSpan struct {
	fields  map[string]interface{}
	metrics []Metric
	ended   bool
}

func (s *recordingSpan) AddField(key string, val interface{})    { s.fields["app."+key] = val }
func (s *recordingSpan) AddRawField(key string, val interface{}) { s.fields[key] = val }
func (s *recordingSpan) RecordMetric(metric Metric)              { s.metrics = append(s.metrics, metric) }
func (s *recordingSpan) End()                                    { s.ended = true }

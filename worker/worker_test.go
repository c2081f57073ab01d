package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/internal/syncbuffer"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/otel"
	"github.com/circleci/sample-app/testing/fakemetrics"
	"github.com/circleci/sample-app/testing/testcontext"
)

type countingBackOff struct {
	delay  time.Duration
	nexts  int
	resets int
}

func (b *countingBackOff) NextBackOff() time.Duration {
	b.nexts++
	return b.delay
}

func (b *countingBackOff) Reset() {
	b.resets++
}

var _ backoff.BackOff = &countingBackOff{}

func TestRun_WaitsAfterNoWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	var waits []time.Duration
	b := &countingBackOff{delay: 10 * time.Second}
	Run(ctx, Config{
		Name:          "gauges",
		NoWorkBackOff: b,
		WorkFunc: func(ctx context.Context) error {
			calls++
			if calls == 4 {
				cancel()
			}
			return ErrShouldBackoff
		},
		waiter: func(_ context.Context, d time.Duration) {
			waits = append(waits, d)
		},
	})

	assert.Check(t, cmp.Equal(calls, 4))
	assert.Check(t, cmp.Equal(b.nexts, 4))
	assert.Check(t, cmp.Len(waits, 4))
	assert.Check(t, cmp.Equal(waits[0], 10*time.Second))
	assert.Check(t, cmp.Equal(b.resets, 1), "only reset when starting")
}

func TestRun_NoWaitAfterWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	b := &countingBackOff{}
	Run(ctx, Config{
		NoWorkBackOff: b,
		WorkFunc: func(ctx context.Context) error {
			calls++
			if calls == 3 {
				cancel()
			}
			return nil
		},
		waiter: func(context.Context, time.Duration) {
			t.Error("should not wait after an iteration that did work")
		},
	})

	assert.Check(t, cmp.Equal(calls, 3))
	assert.Check(t, cmp.Equal(b.nexts, 0))
	assert.Check(t, cmp.Equal(b.resets, 4), "reset on start and after each iteration with work")
}

func TestRun_ErrorsDoNotStopTheLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	Run(ctx, Config{
		WorkFunc: func(ctx context.Context) error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errors.New("gauge read failed")
		},
		waiter: func(context.Context, time.Duration) {},
	})
	assert.Check(t, cmp.Equal(calls, 2))
}

func TestRun_RecoversPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	waited := false
	Run(ctx, Config{
		NoWorkBackOff: &countingBackOff{delay: time.Millisecond},
		WorkFunc: func(ctx context.Context) error {
			calls++
			if calls == 2 {
				cancel()
				return nil
			}
			panic("boom")
		},
		waiter: func(context.Context, time.Duration) { waited = true },
	})
	assert.Check(t, cmp.Equal(calls, 2))
	assert.Check(t, waited, "a panicking iteration backs off")
}

func TestRun_IterationContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testcontext.Background())
	defer cancel()

	var deadline atomic.Bool
	var provider atomic.Bool
	Run(ctx, Config{
		MaxWorkTime: time.Minute,
		WorkFunc: func(ictx context.Context) error {
			_, ok := ictx.Deadline()
			deadline.Store(ok)
			provider.Store(o11y.FromContext(ictx) == o11y.FromContext(ctx))
			cancel()
			return nil
		},
	})
	assert.Check(t, deadline.Load(), "iterations are bounded by MaxWorkTime")
	assert.Check(t, provider.Load(), "iterations carry the o11y provider")
}

func TestRun_RecordsLoopTiming(t *testing.T) {
	m := &fakemetrics.Provider{}
	p, err := otel.New(otel.Config{Writer: &syncbuffer.SyncBuffer{}, Test: true, Metrics: m})
	assert.NilError(t, err)
	ctx, cancel := context.WithCancel(o11y.WithProvider(context.Background(), p))
	defer cancel()

	Run(ctx, Config{
		Name: "gauges",
		WorkFunc: func(context.Context) error {
			cancel()
			return nil
		},
	})

	calls := m.Calls()
	assert.Assert(t, cmp.Len(calls, 1))
	assert.Check(t, cmp.Equal(calls[0].Name, "worker_loop"))
	assert.Check(t, cmp.DeepEqual(calls[0].Tags, []string{"loop_name:gauges", "result:success"}))
}

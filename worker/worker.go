// Package worker runs a function in a loop, with a span per iteration, backing off when the
// function reports there was nothing to do.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/circleci/sample-app/o11y"
)

// ErrShouldBackoff is returned by a WorkFunc to wait for the next NoWorkBackOff interval
// before being called again.
var ErrShouldBackoff = errors.New("should back off")

type Config struct {
	// Name appears in the iteration span name and the worker_loop metric tags.
	Name string
	// NoWorkBackOff is consulted after each ErrShouldBackoff. It defaults to an exponential
	// backoff from 50ms up to 5s.
	NoWorkBackOff backoff.BackOff
	// MaxWorkTime bounds a single iteration. It defaults to 10s.
	MaxWorkTime time.Duration
	WorkFunc    func(ctx context.Context) error

	waiter func(ctx context.Context, delay time.Duration)
}

// Run calls WorkFunc until ctx is done. Iterations get a fresh context carrying the o11y
// provider, so an iteration in progress is not cut short by cancellation of ctx.
func Run(ctx context.Context, cfg Config) {
	cfg = withDefaults(cfg)
	cfg.NoWorkBackOff.Reset()
	provider := o11y.FromContext(ctx)

	for ctx.Err() == nil {
		delay := iterate(provider, cfg)
		if delay < 0 {
			cfg.NoWorkBackOff.Reset()
			continue
		}
		cfg.waiter(ctx, delay)
	}
}

func withDefaults(cfg Config) Config {
	if cfg.waiter == nil {
		cfg.waiter = sleep
	}
	if cfg.MaxWorkTime == 0 {
		cfg.MaxWorkTime = 10 * time.Second
	}
	if cfg.NoWorkBackOff == nil {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 50 * time.Millisecond
		b.MaxInterval = 5 * time.Second
		b.MaxElapsedTime = 0
		cfg.NoWorkBackOff = b
	}
	return cfg
}

func sleep(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// iterate returns how long to wait before the next call, or -1 to call again straight away.
func iterate(provider o11y.Provider, cfg Config) (delay time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MaxWorkTime)
	defer cancel()

	ctx = o11y.WithProvider(ctx, provider)
	ctx, span := provider.StartSpan(ctx, "worker loop: "+cfg.Name)
	span.AddField("loop_name", cfg.Name)
	span.RecordMetric(o11y.Timing("worker_loop", "loop_name", "result"))

	var err error
	defer o11y.End(span, &err)

	defer func() {
		if r := recover(); r != nil {
			err = o11y.HandlePanic(ctx, span, r, nil)
			delay = cfg.NoWorkBackOff.NextBackOff()
		}
	}()

	delay = -1
	err = cfg.WorkFunc(ctx)
	if errors.Is(err, ErrShouldBackoff) {
		delay = cfg.NoWorkBackOff.NextBackOff()
		err = nil
	}

	span.AddField("backoff_ms", delay.Milliseconds())
	return delay
}

// Package termination turns process termination signals into an error for an errgroup.
package termination

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/circleci/sample-app/o11y"
)

var ErrTerminated = errors.New("terminated")

// Handle blocks until SIGINT or SIGTERM is received, then waits for delay before returning
// ErrTerminated. It returns nil if the context is done first.
func Handle(ctx context.Context, delay time.Duration) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	return wait(ctx, quit, delay)
}

func wait(ctx context.Context, quit <-chan os.Signal, delay time.Duration) error {
	select {
	case sig := <-quit:
		o11y.Log(ctx, "termination: signal received",
			o11y.Field("signal", sig.String()),
			o11y.Field("delay", delay),
		)
	case <-ctx.Done():
		return nil
	}

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return ErrTerminated
}

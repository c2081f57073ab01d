// Package testcontext provides a context carrying a real o11y provider, so tests produce
// readable span output.
package testcontext

import (
	"context"
	"sync"

	"github.com/circleci/sample-app/config/o11y"
)

var (
	once sync.Once
	ctx  context.Context
)

// Background returns a context for use in tests which contains a working o11y provider writing
// spans synchronously to stdout.
func Background() context.Context {
	once.Do(func() {
		cx, _, err := o11y.Otel(context.Background(), o11y.OtelConfig{
			Service: "test-service",
			Test:    true,
		})
		if err != nil {
			panic(err)
		}
		ctx = cx
	})
	return ctx
}

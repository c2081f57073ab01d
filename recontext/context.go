// Package recontext derives contexts that outlive the cancellation of their parent while
// keeping its values, such as the o11y provider and active span.
package recontext

import (
	"context"
	"time"
)

type detached struct{ context.Context }

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }

// WithNewTimeout ignores the parent's deadline and cancellation. The timeout is mandatory
// so the derived context can never hang forever.
func WithNewTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(detached{parent}, timeout)
}

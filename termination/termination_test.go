package termination

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/sample-app/testing/testcontext"
)

func TestWait_Signal(t *testing.T) {
	quit := make(chan os.Signal, 1)
	quit <- syscall.SIGTERM

	start := time.Now()
	err := wait(testcontext.Background(), quit, 50*time.Millisecond)
	assert.Check(t, cmp.ErrorIs(err, ErrTerminated))
	assert.Check(t, time.Since(start) >= 50*time.Millisecond)
}

func TestWait_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(testcontext.Background())
	cancel()

	err := wait(ctx, make(chan os.Signal), time.Hour)
	assert.Check(t, err)
}

func TestWait_ContextDoneDuringDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(testcontext.Background(), 20*time.Millisecond)
	defer cancel()

	quit := make(chan os.Signal, 1)
	quit <- os.Interrupt

	err := wait(ctx, quit, time.Hour)
	assert.Check(t, cmp.ErrorIs(err, ErrTerminated))
}

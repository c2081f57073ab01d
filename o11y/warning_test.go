package o11y

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestWarning(t *testing.T) {
	origErr := NewWarning("statement canceled")
	assert.Check(t, cmp.Equal(origErr.Error(), "statement canceled"))
	assert.Check(t, IsWarning(origErr))

	err := fmt.Errorf("query users: %w", origErr)
	assert.Check(t, errors.Is(err, origErr))
	assert.Check(t, cmp.ErrorContains(err, "statement canceled"))
	assert.Check(t, IsWarning(err))

	assert.Check(t, !IsWarning(errors.New("plain")))
}

func TestWarning_TwoWarningsNotIs(t *testing.T) {
	assert.Check(t, !errors.Is(NewWarning("warning 1"), NewWarning("warning 2")))
}

func TestDontErrorTrace(t *testing.T) {
	assert.Check(t, DontErrorTrace(NewWarning("warn")))
	assert.Check(t, DontErrorTrace(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.Check(t, DontErrorTrace(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Check(t, !DontErrorTrace(errors.New("boom")))
}

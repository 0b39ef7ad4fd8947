// internal/browser/context_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	type ctxKey string
	const key ctxKey = "session"

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		ctx1 := context.WithValue(context.Background(), key, "tab-1")
		combinedCtx, cancel := CombineContext(ctx1, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combinedCtx.Value(key))
		assert.NoError(t, combinedCtx.Err())
	})

	t.Run("CancelledBySecondary", func(t *testing.T) {
		ctx2, cancel2 := context.WithCancel(context.Background())
		combinedCtx, cancel := CombineContext(context.Background(), ctx2)
		defer cancel()

		cancel2()
		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 5*time.Millisecond)
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		ctx1, cancel1 := context.WithCancel(context.Background())
		combinedCtx, cancel := CombineContext(ctx1, context.Background())
		defer cancel()

		cancel1()
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "k"

	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), key, "v"), time.Millisecond)
	cancel()

	detached := Detach(parent)
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
	assert.Equal(t, "v", detached.Value(key))
}

func TestWithBound(t *testing.T) {
	ctx, cancel := withBound(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok, "zero timeout leaves the context unbounded")

	ctx2, cancel2 := withBound(context.Background(), time.Minute)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, Chrome, ParseKind(" Chrome "))
	assert.Equal(t, Firefox, ParseKind("FIREFOX"))
	assert.Equal(t, Kind("safari"), ParseKind("Safari"))
}

func TestLaunchOptionsWaitOr(t *testing.T) {
	opts := LaunchOptions{ExplicitWait: 15 * time.Second}
	assert.Equal(t, 15*time.Second, opts.waitOr(0))
	assert.Equal(t, 2*time.Second, opts.waitOr(2*time.Second))
}

// internal/browser/chrome_test.go
package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStartSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("SessionContextOutlivesLaunch", func(t *testing.T) {
		sessionCtx, sessionCancel := context.WithCancel(context.Background())
		defer sessionCancel()
		launchCtx, launchCancel := context.WithCancel(context.Background())

		var seen context.Context
		err := startSession(launchCtx, sessionCtx, func(c context.Context) error {
			seen = c
			return nil
		}, sessionCancel)
		launchCancel()

		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.NoError(t, seen.Err(), "the browser context must survive the launch context")
	})

	t.Run("StartError", func(t *testing.T) {
		boom := errors.New("exec: chrome not found")
		aborted := false
		err := startSession(context.Background(), context.Background(),
			func(context.Context) error { return boom },
			func() { aborted = true })

		assert.ErrorIs(t, err, boom)
		assert.False(t, aborted)
	})

	t.Run("LaunchCanceledAbortsSession", func(t *testing.T) {
		sessionCtx, sessionCancel := context.WithCancel(context.Background())
		defer sessionCancel()
		launchCtx, launchCancel := context.WithCancel(context.Background())
		launchCancel()

		err := startSession(launchCtx, sessionCtx, func(c context.Context) error {
			<-c.Done()
			return c.Err()
		}, sessionCancel)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Error(t, sessionCtx.Err())
	})
}

func TestJSNotVisibleAcceptsMissingElement(t *testing.T) {
	assert.Contains(t, jsNotVisible, "if (!el) return true")
	assert.Contains(t, jsNotVisible, "display === 'none'")
}

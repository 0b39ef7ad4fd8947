// File: cmd/autologin/main_test.go
package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/autologin/cmd"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
	execute = cmd.Execute
}

func TestMainExitCode(t *testing.T) {
	t.Cleanup(resetMocks)

	var got int
	osExit = func(code int) { got = code }
	execute = func(ctx context.Context) int {
		require.NoError(t, ctx.Err())
		return 3
	}

	main()
	assert.Equal(t, 3, got, "the command's exit code reaches the process")
}

func TestHandlePanic(t *testing.T) {
	t.Run("WritesPanicLog", func(t *testing.T) {
		t.Cleanup(resetMocks)

		var (
			code    = -1
			path    string
			content []byte
		)
		osExit = func(c int) { code = c }
		osWriteFile = func(name string, data []byte, _ os.FileMode) error {
			path, content = name, data
			return nil
		}

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, code)
		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, string(content), "panic: boom")
		assert.Contains(t, string(content), "goroutine", "stack trace included")
	})

	t.Run("LogWriteFails", func(t *testing.T) {
		t.Cleanup(resetMocks)

		code := -1
		osExit = func(c int) { code = c }
		osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only filesystem") }

		func() {
			defer handlePanic()
			panic("boom")
		}()

		assert.Equal(t, 2, code)
	})

	t.Run("NoPanic", func(t *testing.T) {
		t.Cleanup(resetMocks)

		called := false
		osExit = func(int) { called = true }

		func() {
			defer handlePanic()
		}()

		assert.False(t, called)
	})
}

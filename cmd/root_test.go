// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/autologin/internal/suite"
)

const testSuite = `<suite name="CLI Suite">
  <test name="Smoke">
    <groups><run><include name="smoke"/></run></groups>
    <classes><class name="TestLogin"/></classes>
  </test>
  <test name="Nightly" enabled="false">
    <groups><run><include name="regression"/></run></groups>
  </test>
</suite>`

// recordingExecutor stands in for go test.
type recordingExecutor struct {
	mu       sync.Mutex
	commands []suite.Command
	code     int
}

func (r *recordingExecutor) Execute(_ context.Context, cmd suite.Command, stdout, _ io.Writer) (int, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
	fmt.Fprintln(stdout, `{"Action":"pass","Package":"example/e2e","Test":"TestLogin","Elapsed":0.1}`)
	return r.code, nil
}

func (r *recordingExecutor) calls() []suite.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]suite.Command(nil), r.commands...)
}

type cliResult struct {
	code   int
	out    string
	stderr string
	logs   *observer.ObservedLogs
	exec   *recordingExecutor
}

// createTempConfig writes a suite document and a config file pointing at it.
func createTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	suitePath := filepath.Join(dir, "testng.xml")
	require.NoError(t, os.WriteFile(suitePath, []byte(testSuite), 0o644))

	cfgPath := filepath.Join(dir, "autologin.yaml")
	content := fmt.Sprintf("suite:\n  file: %q\n  work_dir: %q\nreporting:\n  report_path: %q\n",
		suitePath, dir, filepath.Join(dir, "reports"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func executeCLI(t *testing.T, code int, args ...string) cliResult {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	exec := &recordingExecutor{code: code}
	out := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	root := NewRootCommand(
		WithLogger(zap.New(core)),
		WithRunnerOptions(
			suite.WithExecutor(exec),
			suite.WithFs(afero.NewMemMapFs()),
			suite.WithOutput(out, io.Discard),
		),
	)
	root.SetOut(out)
	root.SetErr(out)

	rc := run(context.Background(), root, args, stderr)
	return cliResult{code: rc, out: out.String(), stderr: stderr.String(), logs: logs, exec: exec}
}

func TestNoSubcommandLists(t *testing.T) {
	res := executeCLI(t, 0, "-c", createTempConfig(t))

	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.out, "Smoke")
	assert.Contains(t, res.out, "Nightly")
	assert.Contains(t, res.out, "Usage:")
	assert.Empty(t, res.exec.calls())
}

func TestListCmd(t *testing.T) {
	res := executeCLI(t, 0, "list", "--config", createTempConfig(t))

	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.out, "ENABLED")
	assert.Contains(t, res.out, "DISABLED")
	assert.Empty(t, res.exec.calls())
}

func TestRunCmd(t *testing.T) {
	cfg := createTempConfig(t)

	t.Run("KnownSuite", func(t *testing.T) {
		res := executeCLI(t, 0, "run", "Smoke", "-c", cfg)

		assert.Equal(t, 0, res.code)
		calls := res.exec.calls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].Args, "^(TestLogin)$")
		assert.Contains(t, calls[0].Env, "AUTOLOGIN_GROUPS=smoke")
		assert.Equal(t, filepath.Dir(cfg), calls[0].Dir)
	})

	t.Run("ExitCodePassesThrough", func(t *testing.T) {
		res := executeCLI(t, 2, "run", "Smoke", "-c", cfg)
		assert.Equal(t, 2, res.code)
	})

	t.Run("UnknownSuite", func(t *testing.T) {
		res := executeCLI(t, 0, "run", "Weekly", "-c", cfg)

		assert.Equal(t, 1, res.code)
		assert.Empty(t, res.exec.calls())
		assert.Equal(t, 1, res.logs.FilterMessage("Suite not found").Len())
	})

	t.Run("MissingNameListsAndFails", func(t *testing.T) {
		res := executeCLI(t, 0, "run", "-c", cfg)

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.out, "Smoke")
		assert.Empty(t, res.exec.calls())
	})
}

func TestGroupCmd(t *testing.T) {
	cfg := createTempConfig(t)

	t.Run("Group", func(t *testing.T) {
		res := executeCLI(t, 0, "group", "regression", "-c", cfg)

		assert.Equal(t, 0, res.code)
		calls := res.exec.calls()
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0].Env, "AUTOLOGIN_GROUPS=regression")
	})

	t.Run("MissingName", func(t *testing.T) {
		res := executeCLI(t, 0, "group", "-c", cfg)

		assert.Equal(t, 1, res.code)
		assert.Equal(t, 1, res.logs.FilterMessage("Specify group name").Len())
		assert.Empty(t, res.exec.calls())
	})
}

func TestParallelCmd(t *testing.T) {
	cfg := createTempConfig(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantArgs string
	}{
		{name: "Default", args: nil, wantCode: 0, wantArgs: "-p 4 -parallel 4"},
		{name: "Explicit", args: []string{"8"}, wantCode: 0, wantArgs: "-p 8 -parallel 8"},
		{name: "NotANumber", args: []string{"many"}, wantCode: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"parallel", "-c", cfg}, tt.args...)
			res := executeCLI(t, 0, args...)

			assert.Equal(t, tt.wantCode, res.code)
			calls := res.exec.calls()
			if tt.wantArgs == "" {
				assert.Empty(t, calls)
				return
			}
			require.Len(t, calls, 1)
			assert.Contains(t, strings.Join(calls[0].Args, " "), tt.wantArgs)
			assert.Contains(t, calls[0].Env, "AUTOLOGIN_PARALLEL=1")
		})
	}
}

func TestSuiteFlagOverridesConfig(t *testing.T) {
	cfg := createTempConfig(t)
	other := filepath.Join(t.TempDir(), "other.xml")
	require.NoError(t, os.WriteFile(other, []byte(`<suite name="Other"><test name="Solo"/></suite>`), 0o644))

	res := executeCLI(t, 0, "list", "-c", cfg, "--suite", other)

	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.out, "Solo")
	assert.NotContains(t, res.out, "Nightly")
}

func TestMissingSuiteFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "autologin.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("suite:\n  file: "+filepath.Join(dir, "absent.xml")+"\n"), 0o644))

	res := executeCLI(t, 0, "run", "Smoke", "-c", cfgPath)

	assert.Equal(t, 1, res.code)
	assert.Equal(t, 1, res.logs.FilterMessage("Suite file not found").Len())
	assert.Equal(t, 1, res.logs.FilterMessage("Suite not found").Len())
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suite: [unterminated"), 0o644))

	res := executeCLI(t, 0, "list", "-c", path)

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "failed to initialize configuration")
}

func TestUnknownCommand(t *testing.T) {
	res := executeCLI(t, 0, "priority")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestVersion(t *testing.T) {
	t.Run("Subcommand", func(t *testing.T) {
		res := executeCLI(t, 0, "version")
		assert.Equal(t, 0, res.code)
		assert.Contains(t, res.out, "autologin "+Version)
	})

	t.Run("Flag", func(t *testing.T) {
		res := executeCLI(t, 0, "--version")
		assert.Equal(t, 0, res.code)
		assert.Contains(t, res.out, Version)
	})
}

func TestRun_ExitMapping(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, runE(t, nil, &stderr))
	assert.Equal(t, 7, runE(t, &ExitError{Code: 7}, &stderr))
	assert.Equal(t, 7, runE(t, fmt.Errorf("wrapped: %w", &ExitError{Code: 7}), &stderr))
	assert.Equal(t, 130, runE(t, context.Canceled, &stderr))
	assert.Equal(t, 1, runE(t, errors.New("boom"), &stderr))
	assert.Contains(t, stderr.String(), "Error: boom")
}

// runE drives run with a bare command returning err.
func runE(t *testing.T, err error, stderr io.Writer) int {
	t.Helper()
	root := NewRootCommand()
	root.PersistentPreRunE = nil
	root.RunE = func(*cobra.Command, []string) error { return err }
	return run(context.Background(), root, nil, stderr)
}

// syncCounter counts Sync calls reaching the logger's core.
type syncCounter struct {
	zapcore.Core
	syncs *int
}

func (s syncCounter) Sync() error {
	*s.syncs++
	return s.Core.Sync()
}

func TestRun_SyncsLoggerOnEveryExit(t *testing.T) {
	cfg := createTempConfig(t)

	for _, tc := range []struct {
		name string
		code int
		args []string
	}{
		{"Success", 0, []string{"run", "Smoke", "-c", cfg}},
		{"RunnerFailure", 2, []string{"run", "Smoke", "-c", cfg}},
		{"UnknownSuite", 0, []string{"run", "Weekly", "-c", cfg}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			syncs := 0
			core, _ := observer.New(zapcore.DebugLevel)
			root := NewRootCommand(
				WithLogger(zap.New(syncCounter{Core: core, syncs: &syncs})),
				WithRunnerOptions(
					suite.WithExecutor(&recordingExecutor{code: tc.code}),
					suite.WithFs(afero.NewMemMapFs()),
					suite.WithOutput(io.Discard, io.Discard),
				),
			)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)

			run(context.Background(), root, tc.args, io.Discard)
			assert.Equal(t, 1, syncs)
		})
	}
}

// internal/suite/executor.go
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// Command is one invocation of the host test runner.
type Command struct {
	Name string
	Args []string
	// Env is appended to the inherited environment.
	Env []string
	Dir string
}

// Executor runs a command to completion, streaming its output. A non-zero
// exit is reported through the code, not the error; the error is reserved
// for failing to run at all.
type Executor interface {
	Execute(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error)
}

// ExecExecutor runs commands as child processes.
type ExecExecutor struct{}

var _ Executor = ExecExecutor{}

func (ExecExecutor) Execute(ctx context.Context, c Command, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return 1, fmt.Errorf("failed to attach stdout: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return 1, fmt.Errorf("failed to attach stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	// Both pipes must be drained before Wait closes them.
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(stdout, outPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(stderr, errPipe)
		return err
	})
	copyErr := g.Wait()

	waitErr := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		return exitErr.ExitCode(), nil
	case waitErr != nil:
		return 1, waitErr
	case copyErr != nil:
		return 1, fmt.Errorf("failed to stream output: %w", copyErr)
	}
	return 0, nil
}

// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/config"
	"github.com/xkilldash9x/autologin/internal/observability"
	"github.com/xkilldash9x/autologin/internal/suite"
)

// ExitError carries a process exit code out of a command. Commands return it
// instead of calling os.Exit so the code survives tests and deferred cleanup.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// exitWith turns a runner result into a command result.
func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// app is what PersistentPreRunE builds for the subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	runner *suite.Runner
}

type appKey struct{}

// session lets run reach the app built inside the command tree once
// ExecuteContext returns, whatever the command's result.
type session struct{ app *app }

type sessionKey struct{}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok || a == nil {
		return nil, errors.New("application not initialized")
	}
	return a, nil
}

type options struct {
	logger     *zap.Logger
	runnerOpts []suite.RunnerOption
}

// Option customizes the root command.
type Option func(*options)

// WithLogger replaces the logger built from configuration.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithRunnerOptions is passed through to suite.NewRunner.
func WithRunnerOptions(opts ...suite.RunnerOption) Option {
	return func(o *options) { o.runnerOpts = append(o.runnerOpts, opts...) }
}

// NewRootCommand builds the autologin command tree. Each call returns an
// independent tree, so flags never leak between invocations.
func NewRootCommand(opts ...Option) *cobra.Command {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfgFile, suiteFile string

	root := &cobra.Command{
		Use:   "autologin",
		Short: "Runs TestNG style browser suites through go test.",
		Long: `autologin reads a TestNG suite document and runs the selected tests,
groups or everything in parallel as go test invocations, passing the exit
code of go test through.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Prepare(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			if err := v.BindPFlag("suite.file", cmd.Flags().Lookup("suite")); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			logger := o.logger
			if logger == nil {
				logger, err = observability.NewStdout(cfg.Logging())
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			logger.Debug("Starting autologin", zap.String("version", Version))

			doc := suite.Load(cfg.Suite().File, logger)
			a := &app{
				cfg:    cfg,
				logger: logger,
				runner: suite.NewRunner(doc, cfg, logger, o.runnerOpts...),
			}
			if s, ok := cmd.Context().Value(sessionKey{}).(*session); ok {
				s.app = a
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		// No subcommand lists the suites along with usage, and succeeds.
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			a.runner.List(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())
			return cmd.Usage()
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./autologin.yaml)")
	root.PersistentFlags().StringVarP(&suiteFile, "suite", "s", "", "suite document, overrides suite.file")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newListCmd(),
		newRunCmd(),
		newGroupCmd(),
		newParallelCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args and returns the process exit
// code.
func Execute(ctx context.Context) int {
	return run(ctx, NewRootCommand(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	s := &session{}
	root.SetArgs(args)
	err := root.ExecuteContext(context.WithValue(ctx, sessionKey{}, s))
	// PersistentPostRun is skipped when a command fails, so flush here.
	if s.app != nil {
		observability.SafeSync(s.app.logger)
	}
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Aborted.")
		return 130
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

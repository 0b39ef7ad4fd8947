// Package harness wires configuration, logging, the test registry and the
// driver factory together for browser tests. A test binary builds one
// Environment in TestMain and opens a T per test with Begin.
package harness

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/annotate"
	"github.com/xkilldash9x/autologin/internal/browser"
	"github.com/xkilldash9x/autologin/internal/config"
	"github.com/xkilldash9x/autologin/internal/observability"
	"github.com/xkilldash9x/autologin/internal/registry"
	"github.com/xkilldash9x/autologin/internal/screenshot"
)

// Environment holds the handles shared by every test in a binary.
type Environment struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *registry.Registry
	Annotator *annotate.Annotator
	Factory   *browser.Factory

	// Fs receives screenshots.
	Fs afero.Fs
}

// Setup loads configuration from configPath (empty means the default
// search), builds the logger and returns a ready environment.
func Setup(configPath string) (*Environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := observability.NewStdout(cfg.Logging())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	env := NewEnvironment(cfg, logger)
	logger.Info("Test environment ready",
		zap.String("browser", cfg.Browser().Name),
		zap.Bool("headless", cfg.Browser().Headless),
		zap.String("base_url", cfg.Application().BaseURL),
	)
	return env, nil
}

// NewEnvironment assembles an environment from already built parts.
func NewEnvironment(cfg *config.Config, logger *zap.Logger, opts ...browser.FactoryOption) *Environment {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := registry.New()
	return &Environment{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Annotator: annotate.New(reg, logger),
		Factory:   browser.NewFactory(cfg, logger, opts...),
		Fs:        afero.NewOsFs(),
	}
}

// Close prunes old screenshots down to screenshot.keep and flushes the
// logger.
func (e *Environment) Close() {
	e.pruneScreenshots()
	e.Logger.Info("Test session finished", zap.Int("registered_tests", e.Registry.Len()))
	observability.SafeSync(e.Logger)
}

func (e *Environment) pruneScreenshots() {
	sc := e.Config.Screenshot()
	if ok, _ := afero.DirExists(e.Fs, sc.Path); !ok {
		return
	}
	shots, err := screenshot.New(e.Fs, sc.Path, e.Logger)
	if err != nil {
		e.Logger.Warn("Skipping screenshot cleanup", zap.Error(err))
		return
	}
	if removed := shots.Cleanup(sc.Keep); removed > 0 {
		e.Logger.Info("Old screenshots removed", zap.Int("removed", removed), zap.Int("keep", sc.Keep))
	}
}

// internal/browser/factory.go
package browser

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/config"
)

// Launcher starts a session for one browser kind.
type Launcher func(ctx context.Context, opts LaunchOptions, logger *zap.Logger) (Driver, error)

// Factory creates driver sessions from configuration.
type Factory struct {
	cfg       config.Interface
	logger    *zap.Logger
	launchers map[Kind]Launcher
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithLauncher registers or replaces the launcher for kind.
func WithLauncher(kind Kind, l Launcher) FactoryOption {
	return func(f *Factory) { f.launchers[kind] = l }
}

// NewFactory returns a factory knowing chrome and chromium (chromedp) and
// firefox and webkit (playwright).
func NewFactory(cfg config.Interface, logger *zap.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:    cfg,
		logger: logger.Named("driver_factory"),
		launchers: map[Kind]Launcher{
			Chrome:   launchChrome,
			Chromium: launchChrome,
			Firefox:  launchPlaywright,
			WebKit:   launchPlaywright,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Supported lists the browser names the factory can launch.
func (f *Factory) Supported() []string {
	names := make([]string, 0, len(f.launchers))
	for k := range f.launchers {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// New starts a session. An empty name means browser.name from config and a
// nil headless means browser.headless. Names are case insensitive; an unknown
// one yields ErrUnsupportedBrowser.
func (f *Factory) New(ctx context.Context, name string, headless *bool) (Driver, error) {
	bc := f.cfg.Browser()
	if name == "" {
		name = bc.Name
	}
	kind := ParseKind(name)

	launch, ok := f.launchers[kind]
	if !ok {
		f.logger.Error("Unsupported browser requested", zap.String("browser", name), zap.Strings("supported", f.Supported()))
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBrowser, name)
	}

	opts := LaunchOptions{
		Kind:         kind,
		Headless:     bc.Headless,
		Args:         bc.Args,
		WindowWidth:  bc.WindowWidth,
		WindowHeight: bc.WindowHeight,
		ExecPath:     bc.ExecPath,
		Install:      bc.Install,
		ImplicitWait: f.cfg.Wait().Implicit(),
		ExplicitWait: f.cfg.Wait().Explicit(),
	}
	if headless != nil {
		opts.Headless = *headless
	}

	f.logger.Info("Initializing browser",
		zap.String("browser", string(kind)),
		zap.Bool("headless", opts.Headless),
		zap.Duration("implicit_wait", opts.ImplicitWait),
	)

	drv, err := launch(ctx, opts, f.logger)
	if err != nil {
		f.logger.Error("Failed to initialize driver", zap.String("browser", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to launch %s: %w", kind, err)
	}
	f.logger.Info("Driver initialized", zap.String("browser", string(kind)), zap.String("session_id", drv.ID()))
	return drv, nil
}

// Quit closes d, logging instead of returning any failure. A nil driver is a
// no-op.
func (f *Factory) Quit(ctx context.Context, d Driver) {
	if d == nil {
		return
	}
	quitCtx, cancel := context.WithTimeout(Detach(ctx), 15*time.Second)
	defer cancel()

	if err := d.Quit(quitCtx); err != nil {
		f.logger.Error("Error quitting driver", zap.String("session_id", d.ID()), zap.Error(err))
		return
	}
	f.logger.Info("Driver quit successfully", zap.String("session_id", d.ID()))
}

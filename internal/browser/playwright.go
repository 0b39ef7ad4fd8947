// internal/browser/playwright.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/locator"
)

const (
	playwrightInstallTimeout = 5 * time.Minute
	playwrightLaunchTimeout  = 60 * time.Second
)

// LaunchOptionsFor builds playwright's launch options for opts.
func LaunchOptionsFor(opts LaunchOptions) playwright.BrowserTypeLaunchOptions {
	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Timeout:  playwright.Float(float64(playwrightLaunchTimeout.Milliseconds())),
	}
	if len(opts.Args) > 0 {
		launchOptions.Args = append([]string{}, opts.Args...)
	}
	if opts.ExecPath != "" {
		launchOptions.ExecutablePath = playwright.String(opts.ExecPath)
	}
	return launchOptions
}

// playwrightDriver drives firefox or webkit through playwright.
type playwrightDriver struct {
	id     string
	kind   Kind
	opts   LaunchOptions
	logger *zap.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	dialogs chan playwright.Dialog

	mu       sync.Mutex
	isClosed bool
}

var _ Driver = (*playwrightDriver)(nil)

func launchPlaywright(ctx context.Context, opts LaunchOptions, logger *zap.Logger) (Driver, error) {
	if opts.Install {
		if err := ensureInstallation(ctx, opts.Kind, logger); err != nil {
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Kind {
	case Firefox:
		bt = pw.Firefox
	case WebKit:
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	browser, err := bt.Launch(LaunchOptionsFor(opts))
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		pageOpts.Viewport = &playwright.Size{Width: opts.WindowWidth, Height: opts.WindowHeight}
	}
	pg, err := browser.NewPage(pageOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	pg.SetDefaultTimeout(float64(opts.ImplicitWait.Milliseconds()))
	pg.SetDefaultNavigationTimeout(float64(playwrightLaunchTimeout.Milliseconds()))

	sessionID := uuid.New().String()
	d := &playwrightDriver{
		id:      sessionID,
		kind:    opts.Kind,
		opts:    opts,
		logger:  logger.With(zap.String("session_id", sessionID)),
		pw:      pw,
		browser: browser,
		page:    pg,
		dialogs: make(chan playwright.Dialog, 1),
	}
	// A registered handler owns the dialog until HandleAlert answers it.
	pg.OnDialog(func(dlg playwright.Dialog) {
		select {
		case d.dialogs <- dlg:
		default:
			_ = dlg.Dismiss()
		}
	})

	d.logger.Debug("Browser launched.", zap.String("browser_version", browser.Version()))
	return d, nil
}

func ensureInstallation(ctx context.Context, kind Kind, logger *zap.Logger) error {
	logger.Info("Verifying Playwright browser installation...", zap.String("browser", string(kind)))
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	// Install blocks, so race it against the context.
	errCh := make(chan error, 1)
	go func() {
		errCh <- playwright.Install(&playwright.RunOptions{Browsers: []string{string(kind)}})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to install playwright browsers: %w", err)
		}
		return nil
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

func (d *playwrightDriver) ID() string { return d.id }
func (d *playwrightDriver) Kind() Kind { return d.kind }

func (d *playwrightDriver) loc(l locator.Locator) playwright.Locator {
	return d.page.Locator(l.Playwright()).First()
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// guard runs fn unless ctx is already done. Playwright calls are bounded by
// their own timeouts rather than by ctx.
func guard(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func (d *playwrightDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating to URL", zap.String("url", url))
	return guard(ctx, func() error {
		if _, err := d.page.Goto(url); err != nil {
			return fmt.Errorf("navigation failed: %w", err)
		}
		return nil
	})
}

func (d *playwrightDriver) Refresh(ctx context.Context) error {
	return guard(ctx, func() error {
		_, err := d.page.Reload()
		return err
	})
}

func (d *playwrightDriver) Back(ctx context.Context) error {
	return guard(ctx, func() error {
		_, err := d.page.GoBack()
		return err
	})
}

func (d *playwrightDriver) Forward(ctx context.Context) error {
	return guard(ctx, func() error {
		_, err := d.page.GoForward()
		return err
	})
}

func (d *playwrightDriver) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.Title()
}

func (d *playwrightDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.URL(), nil
}

func (d *playwrightDriver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.Content()
}

func (d *playwrightDriver) Click(ctx context.Context, l locator.Locator) error {
	return guard(ctx, func() error {
		if err := d.loc(l).Click(); err != nil {
			return fmt.Errorf("click action failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) DoubleClick(ctx context.Context, l locator.Locator) error {
	return guard(ctx, func() error {
		if err := d.loc(l).Dblclick(); err != nil {
			return fmt.Errorf("double click failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) RightClick(ctx context.Context, l locator.Locator) error {
	return guard(ctx, func() error {
		err := d.loc(l).Click(playwright.LocatorClickOptions{Button: playwright.MouseButtonRight})
		if err != nil {
			return fmt.Errorf("right click failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) Hover(ctx context.Context, l locator.Locator) error {
	return guard(ctx, func() error {
		if err := d.loc(l).Hover(); err != nil {
			return fmt.Errorf("hover failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) SendKeys(ctx context.Context, l locator.Locator, text string) error {
	d.logger.Debug("Typing into element", zap.Stringer("locator", l), zap.Int("text_length", len(text)))
	return guard(ctx, func() error {
		if err := d.loc(l).PressSequentially(text); err != nil {
			return fmt.Errorf("type action failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) Clear(ctx context.Context, l locator.Locator) error {
	return guard(ctx, func() error {
		if err := d.loc(l).Clear(); err != nil {
			return fmt.Errorf("clear failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) Text(ctx context.Context, l locator.Locator) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := d.loc(l).InnerText()
	if err != nil {
		return "", fmt.Errorf("reading text failed for '%s': %w", l, err)
	}
	return strings.TrimSpace(text), nil
}

func (d *playwrightDriver) Attribute(ctx context.Context, l locator.Locator, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := d.loc(l).GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("reading attribute '%s' failed for '%s': %w", name, l, err)
	}
	return value, nil
}

func (d *playwrightDriver) IsDisplayed(ctx context.Context, l locator.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// IsVisible does not wait, so give the element the implicit wait to show up.
	err := d.loc(l).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(d.opts.ImplicitWait),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *playwrightDriver) IsEnabled(ctx context.Context, l locator.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.loc(l).IsEnabled()
}

func (d *playwrightDriver) IsSelected(ctx context.Context, l locator.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.loc(l).IsChecked()
}

func (d *playwrightDriver) SelectByText(ctx context.Context, l locator.Locator, text string) error {
	return guard(ctx, func() error {
		_, err := d.loc(l).SelectOption(playwright.SelectOptionValues{Labels: &[]string{text}})
		if err != nil {
			return fmt.Errorf("select by text failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) SelectByValue(ctx context.Context, l locator.Locator, value string) error {
	return guard(ctx, func() error {
		_, err := d.loc(l).SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
		if err != nil {
			return fmt.Errorf("select by value failed for '%s': %w", l, err)
		}
		return nil
	})
}

func (d *playwrightDriver) waitFor(ctx context.Context, l locator.Locator, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	return guard(ctx, func() error {
		return d.loc(l).WaitFor(playwright.LocatorWaitForOptions{
			State:   state,
			Timeout: millis(d.opts.waitOr(timeout)),
		})
	})
}

func (d *playwrightDriver) WaitVisible(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	return d.waitFor(ctx, l, playwright.WaitForSelectorStateVisible, timeout)
}

func (d *playwrightDriver) WaitPresent(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	return d.waitFor(ctx, l, playwright.WaitForSelectorStateAttached, timeout)
}

func (d *playwrightDriver) WaitInvisible(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	return d.waitFor(ctx, l, playwright.WaitForSelectorStateHidden, timeout)
}

// WaitClickable uses a trial click: playwright runs every actionability check
// without dispatching the click.
func (d *playwrightDriver) WaitClickable(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	return guard(ctx, func() error {
		return d.loc(l).Click(playwright.LocatorClickOptions{
			Trial:   playwright.Bool(true),
			Timeout: millis(d.opts.waitOr(timeout)),
		})
	})
}

func (d *playwrightDriver) WaitText(ctx context.Context, l locator.Locator, text string, timeout time.Duration) error {
	return guard(ctx, func() error {
		filtered := d.page.Locator(l.Playwright()).Filter(playwright.LocatorFilterOptions{HasText: text}).First()
		return filtered.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: millis(d.opts.waitOr(timeout)),
		})
	})
}

func (d *playwrightDriver) WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error {
	return guard(ctx, func() error {
		return d.page.WaitForURL(regexp.MustCompile(regexp.QuoteMeta(fragment)), playwright.PageWaitForURLOptions{
			Timeout: millis(d.opts.waitOr(timeout)),
		})
	})
}

func (d *playwrightDriver) WaitTitleContains(ctx context.Context, fragment string, timeout time.Duration) error {
	return guard(ctx, func() error {
		_, err := d.page.WaitForFunction(`(want) => document.title.includes(want)`, fragment,
			playwright.PageWaitForFunctionOptions{Timeout: millis(d.opts.waitOr(timeout))})
		return err
	})
}

func (d *playwrightDriver) HandleAlert(ctx context.Context, accept bool) (string, error) {
	waitCtx, cancel := withBound(ctx, d.opts.ExplicitWait)
	defer cancel()

	var dlg playwright.Dialog
	select {
	case dlg = <-d.dialogs:
	case <-waitCtx.Done():
		return "", fmt.Errorf("no alert appeared: %w", waitCtx.Err())
	}

	msg := dlg.Message()
	var err error
	if accept {
		err = dlg.Accept()
	} else {
		err = dlg.Dismiss()
	}
	if err != nil {
		return msg, fmt.Errorf("failed to handle alert: %w", err)
	}
	return msg, nil
}

func (d *playwrightDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := d.page.Screenshot(playwright.PageScreenshotOptions{Type: playwright.ScreenshotTypePng})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Quit closes the page, the browser and the playwright driver. Calling it
// again is a no-op.
func (d *playwrightDriver) Quit(ctx context.Context) error {
	d.mu.Lock()
	if d.isClosed {
		d.mu.Unlock()
		return nil
	}
	d.isClosed = true
	d.mu.Unlock()

	d.logger.Debug("Closing browser session.")

	var errs []error
	if err := d.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

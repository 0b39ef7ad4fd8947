// internal/harness/harness.go
package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/browser"
	"github.com/xkilldash9x/autologin/internal/locator"
	"github.com/xkilldash9x/autologin/internal/pages"
	"github.com/xkilldash9x/autologin/internal/screenshot"
)

const banner = "============================================================"

// teardownTimeout bounds the failure screenshot taken after the test context
// has already been canceled.
const teardownTimeout = 30 * time.Second

// ErrInvalidAlertAction is returned by CloseAlert for anything other than
// accept or dismiss.
var ErrInvalidAlertAction = errors.New("invalid alert action")

// T is the per-test view of the environment: a live driver session, page
// helpers and screenshot capture bound to one test.
type T struct {
	testing.TB

	Ctx    context.Context
	Driver browser.Driver
	Pages  *pages.Helper
	Shots  *screenshot.Handler
	Logger *zap.Logger

	env *Environment
}

// Begin opens a browser session for t and arranges teardown. When t fails
// and screenshot.on_failure is set, a FAILURE_ capture is taken before the
// driver quits.
func (e *Environment) Begin(t testing.TB) *T {
	t.Helper()
	logger := e.Logger.Named("test").With(zap.String("test", t.Name()))

	logger.Info(banner)
	logger.Info("Starting test: " + t.Name())
	logger.Info(banner)

	ctx := t.Context()
	drv, err := e.Factory.New(ctx, "", nil)
	if err != nil {
		t.Fatalf("failed to start browser: %v", err)
	}

	shots, err := screenshot.New(e.Fs, e.Config.Screenshot().Path, logger)
	if err != nil {
		e.Factory.Quit(ctx, drv)
		t.Fatalf("failed to prepare screenshots: %v", err)
	}

	ht := &T{
		TB:     t,
		Ctx:    ctx,
		Driver: drv,
		Pages:  pages.NewHelper(drv, logger, e.Config.Wait().Explicit()),
		Shots:  shots,
		Logger: logger,
		env:    e,
	}
	t.Cleanup(ht.teardown)
	return ht
}

func (ht *T) teardown() {
	ctx, cancel := context.WithTimeout(browser.Detach(ht.Ctx), teardownTimeout)
	defer cancel()

	ht.Logger.Info(banner)
	ht.Logger.Info("Finishing test: " + ht.Name())
	ht.Logger.Info(banner)

	switch {
	case ht.Failed():
		if ht.env.Config.Screenshot().OnFailure {
			if _, err := ht.Shots.CaptureOnFailure(ctx, ht.Driver, ht.Name()); err != nil {
				ht.Logger.Error("Failed to capture failure screenshot", zap.Error(err))
			}
		}
		ht.Logger.Error("Test FAILED")
	case ht.Skipped():
		ht.Logger.Info("Test SKIPPED")
	default:
		ht.Logger.Info("Test PASSED")
	}

	ht.env.Factory.Quit(ctx, ht.Driver)
}

// Login returns the login page bound to this session.
func (ht *T) Login() *pages.LoginPage { return pages.NewLoginPage(ht.Pages) }

// Dashboard returns the dashboard page bound to this session.
func (ht *T) Dashboard() *pages.DashboardPage { return pages.NewDashboardPage(ht.Pages) }

// NavigateToApp opens application.base_url and fails the test if it cannot.
func (ht *T) NavigateToApp() {
	ht.Helper()
	baseURL := ht.env.Config.Application().BaseURL
	if err := ht.Pages.NavigateTo(ht.Ctx, baseURL); err != nil {
		ht.Logger.Error("Error navigating to application", zap.Error(err))
		ht.TakeScreenshot("navigation_error")
		ht.Fatalf("navigate to %s: %v", baseURL, err)
	}
	ht.Logger.Info("Navigated to base URL", zap.String("url", baseURL))
}

// TakeScreenshot saves <test>_<prefix>.png (or <test>.png) and returns its
// path, or "" if the capture failed.
func (ht *T) TakeScreenshot(prefix string) string {
	name := screenshot.SanitizeName(ht.Name())
	if prefix != "" {
		name += "_" + prefix
	}
	path, err := ht.Shots.Capture(ht.Ctx, ht.Driver, name+".png", "")
	if err != nil {
		ht.Logger.Error("Error taking screenshot", zap.Error(err))
		return ""
	}
	return path
}

// failed logs, captures and stops the test after a failed assertion.
func (ht *T) failed(shot, msg string) {
	ht.Helper()
	ht.Logger.Error("Assertion failed: " + msg)
	ht.TakeScreenshot(shot)
	ht.FailNow()
}

// AssertTextInPage checks that text appears in the element at loc, or in the
// page source when no locator is given.
func (ht *T) AssertTextInPage(text string, loc ...locator.Locator) {
	ht.Helper()
	var haystack string
	var err error
	if len(loc) > 0 {
		haystack, err = ht.Pages.Text(ht.Ctx, loc[0])
	} else {
		haystack, err = ht.Driver.PageSource(ht.Ctx)
	}
	if !assert.NoError(ht, err) || !assert.Contains(ht, haystack, text) {
		ht.failed("text_assertion_failed", fmt.Sprintf("text %q not found", text))
		return
	}
	ht.Logger.Info("Text found in page", zap.String("text", text))
}

// AssertElementVisible checks that the element at loc is displayed.
func (ht *T) AssertElementVisible(loc locator.Locator) {
	ht.Helper()
	if !assert.True(ht, ht.Pages.IsDisplayed(ht.Ctx, loc), "element %s is not visible", loc) {
		ht.failed("visibility_assertion_failed", fmt.Sprintf("element %s is not visible", loc))
		return
	}
	ht.Logger.Info("Element is visible", zap.Stringer("locator", loc))
}

// AssertURLContains waits for the current URL to contain fragment.
func (ht *T) AssertURLContains(fragment string) {
	ht.Helper()
	_ = ht.Pages.WaitForURL(ht.Ctx, fragment)
	current, err := ht.Pages.CurrentURL(ht.Ctx)
	if !assert.NoError(ht, err) || !assert.Contains(ht, current, fragment) {
		ht.failed("url_assertion_failed", fmt.Sprintf("url %q does not contain %q", current, fragment))
		return
	}
	ht.Logger.Info("URL contains expected text", zap.String("fragment", fragment))
}

// AssertTitleContains waits for the page title to contain fragment.
func (ht *T) AssertTitleContains(fragment string) {
	ht.Helper()
	_ = ht.Pages.WaitForTitle(ht.Ctx, fragment)
	title, err := ht.Pages.Title(ht.Ctx)
	if !assert.NoError(ht, err) || !assert.Contains(ht, title, fragment) {
		ht.failed("title_assertion_failed", fmt.Sprintf("title %q does not contain %q", title, fragment))
		return
	}
	ht.Logger.Info("Title contains expected text", zap.String("fragment", fragment))
}

// WaitForLoadingToComplete waits out the common loading spinners.
func (ht *T) WaitForLoadingToComplete(timeout time.Duration) {
	ht.Pages.WaitForLoadingToComplete(ht.Ctx, timeout)
}

// CloseAlert accepts or dismisses the open JavaScript dialog and returns its
// message.
func (ht *T) CloseAlert(action string) (string, error) {
	var accept bool
	switch strings.ToLower(action) {
	case "accept":
		accept = true
	case "dismiss":
	default:
		ht.Logger.Error("Error handling alert", zap.String("action", action))
		return "", fmt.Errorf("%w: %s", ErrInvalidAlertAction, action)
	}

	msg, err := ht.Driver.HandleAlert(ht.Ctx, accept)
	if err != nil {
		ht.Logger.Error("Error handling alert", zap.Error(err))
		return "", fmt.Errorf("handle alert: %w", err)
	}
	if accept {
		ht.Logger.Info("Alert accepted", zap.String("text", msg))
	} else {
		ht.Logger.Info("Alert dismissed", zap.String("text", msg))
	}
	return msg, nil
}

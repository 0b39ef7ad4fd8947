// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xkilldash9x/autologin/internal/locator"
)

// ErrUnsupportedBrowser is returned by the factory for a browser name it has
// no launcher for.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Kind identifies a browser engine.
type Kind string

const (
	Chrome   Kind = "chrome"
	Chromium Kind = "chromium"
	Firefox  Kind = "firefox"
	WebKit   Kind = "webkit"
)

// ParseKind normalizes a configured browser name.
func ParseKind(name string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(name)))
}

// Driver is a live browser session. Element operations are bounded by the
// implicit wait; the Wait* calls use the explicit wait unless timeout is
// positive.
type Driver interface {
	ID() string
	Kind() Kind

	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)

	Click(ctx context.Context, loc locator.Locator) error
	DoubleClick(ctx context.Context, loc locator.Locator) error
	RightClick(ctx context.Context, loc locator.Locator) error
	Hover(ctx context.Context, loc locator.Locator) error
	SendKeys(ctx context.Context, loc locator.Locator, text string) error
	Clear(ctx context.Context, loc locator.Locator) error
	Text(ctx context.Context, loc locator.Locator) (string, error)
	// Attribute returns "" when the element lacks the attribute.
	Attribute(ctx context.Context, loc locator.Locator, name string) (string, error)
	IsDisplayed(ctx context.Context, loc locator.Locator) (bool, error)
	IsEnabled(ctx context.Context, loc locator.Locator) (bool, error)
	// IsSelected covers checkboxes, radio buttons and options.
	IsSelected(ctx context.Context, loc locator.Locator) (bool, error)
	SelectByText(ctx context.Context, loc locator.Locator, text string) error
	SelectByValue(ctx context.Context, loc locator.Locator, value string) error

	WaitVisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error
	WaitPresent(ctx context.Context, loc locator.Locator, timeout time.Duration) error
	WaitClickable(ctx context.Context, loc locator.Locator, timeout time.Duration) error
	WaitInvisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error
	WaitText(ctx context.Context, loc locator.Locator, text string, timeout time.Duration) error
	WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error
	WaitTitleContains(ctx context.Context, fragment string, timeout time.Duration) error

	// HandleAlert accepts or dismisses the open JavaScript dialog and returns
	// its message. It waits up to the explicit wait for a dialog to appear.
	HandleAlert(ctx context.Context, accept bool) (string, error)
	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
	Quit(ctx context.Context) error
}

// LaunchOptions is everything a launcher needs to start a session.
type LaunchOptions struct {
	Kind         Kind
	Headless     bool
	Args         []string
	WindowWidth  int
	WindowHeight int
	ExecPath     string
	// Install downloads the playwright driver and browser before launching.
	Install      bool
	ImplicitWait time.Duration
	ExplicitWait time.Duration
}

func (o LaunchOptions) waitOr(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return o.ExplicitWait
}

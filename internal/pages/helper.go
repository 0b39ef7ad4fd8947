// internal/pages/helper.go
package pages

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/browser"
	"github.com/xkilldash9x/autologin/internal/locator"
)

// spinnerLocators are the loading indicators WaitForLoadingToComplete waits out.
var spinnerLocators = []locator.Locator{
	locator.ByClassName("spinner"),
	locator.ByClassName("loader"),
	locator.ByClassName("loading"),
	locator.ByID("loading"),
}

// Helper carries the element interactions every page object shares. Page
// objects hold one rather than extending a base type.
//
// Actions wait for the element, act, and return any failure after logging
// it. Probes (IsDisplayed, IsEnabled, IsSelected) never fail: anything that
// goes wrong reads as false.
type Helper struct {
	drv    browser.Driver
	logger *zap.Logger
	wait   time.Duration
}

// NewHelper binds a helper to drv. explicitWait bounds every element wait.
func NewHelper(drv browser.Driver, logger *zap.Logger, explicitWait time.Duration) *Helper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helper{drv: drv, logger: logger, wait: explicitWait}
}

// Driver exposes the session the helper drives.
func (h *Helper) Driver() browser.Driver { return h.drv }

// Logger is the helper's named logger.
func (h *Helper) Logger() *zap.Logger { return h.logger }

// fail logs an action failure and wraps it for the caller.
func (h *Helper) fail(action string, loc locator.Locator, err error) error {
	h.logger.Error("Error "+action, zap.Stringer("locator", loc), zap.Error(err))
	return fmt.Errorf("%s %s: %w", action, loc, err)
}

// -- Element interaction --

func (h *Helper) Click(ctx context.Context, loc locator.Locator) error {
	if err := h.drv.WaitClickable(ctx, loc, h.wait); err != nil {
		return h.fail("clicking element", loc, err)
	}
	if err := h.drv.Click(ctx, loc); err != nil {
		return h.fail("clicking element", loc, err)
	}
	h.logger.Info("Clicked element", zap.Stringer("locator", loc))
	return nil
}

// SendKeys clears the field and types text. The log shows at most the first
// twenty characters.
func (h *Helper) SendKeys(ctx context.Context, loc locator.Locator, text string) error {
	if err := h.typeInto(ctx, loc, text); err != nil {
		return err
	}
	h.logger.Info("Sent keys to element", zap.Stringer("locator", loc), zap.String("text", preview(text)))
	return nil
}

// SendSecret is SendKeys without the text in the log.
func (h *Helper) SendSecret(ctx context.Context, loc locator.Locator, text string) error {
	if err := h.typeInto(ctx, loc, text); err != nil {
		return err
	}
	h.logger.Info("Sent keys to element", zap.Stringer("locator", loc), zap.String("text", "***"))
	return nil
}

func (h *Helper) typeInto(ctx context.Context, loc locator.Locator, text string) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("sending keys to", loc, err)
	}
	if err := h.drv.Clear(ctx, loc); err != nil {
		return h.fail("sending keys to", loc, err)
	}
	if err := h.drv.SendKeys(ctx, loc, text); err != nil {
		return h.fail("sending keys to", loc, err)
	}
	return nil
}

func (h *Helper) Clear(ctx context.Context, loc locator.Locator) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("clearing", loc, err)
	}
	if err := h.drv.Clear(ctx, loc); err != nil {
		return h.fail("clearing", loc, err)
	}
	h.logger.Info("Cleared element", zap.Stringer("locator", loc))
	return nil
}

func (h *Helper) Text(ctx context.Context, loc locator.Locator) (string, error) {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return "", h.fail("getting text from", loc, err)
	}
	text, err := h.drv.Text(ctx, loc)
	if err != nil {
		return "", h.fail("getting text from", loc, err)
	}
	h.logger.Debug("Got text from element", zap.Stringer("locator", loc), zap.String("text", text))
	return text, nil
}

func (h *Helper) Attribute(ctx context.Context, loc locator.Locator, name string) (string, error) {
	if err := h.drv.WaitPresent(ctx, loc, h.wait); err != nil {
		return "", h.fail("getting attribute "+name+" from", loc, err)
	}
	value, err := h.drv.Attribute(ctx, loc, name)
	if err != nil {
		return "", h.fail("getting attribute "+name+" from", loc, err)
	}
	h.logger.Debug("Got attribute", zap.Stringer("locator", loc), zap.String("attribute", name), zap.String("value", value))
	return value, nil
}

// probe runs a state check after waiting for presence, folding every
// failure into false.
func (h *Helper) probe(ctx context.Context, what string, loc locator.Locator, check func(context.Context, locator.Locator) (bool, error)) bool {
	if err := h.drv.WaitPresent(ctx, loc, h.wait); err != nil {
		h.logger.Debug("Element not "+what, zap.Stringer("locator", loc), zap.Error(err))
		return false
	}
	ok, err := check(ctx, loc)
	if err != nil {
		h.logger.Debug("Error checking if element "+what, zap.Stringer("locator", loc), zap.Error(err))
		return false
	}
	h.logger.Debug("Element state", zap.Stringer("locator", loc), zap.Bool(what, ok))
	return ok
}

func (h *Helper) IsDisplayed(ctx context.Context, loc locator.Locator) bool {
	return h.probe(ctx, "displayed", loc, h.drv.IsDisplayed)
}

func (h *Helper) IsEnabled(ctx context.Context, loc locator.Locator) bool {
	return h.probe(ctx, "enabled", loc, h.drv.IsEnabled)
}

// IsSelected reports the checked state of a checkbox or radio button.
func (h *Helper) IsSelected(ctx context.Context, loc locator.Locator) bool {
	return h.probe(ctx, "selected", loc, h.drv.IsSelected)
}

// -- Advanced interaction --

func (h *Helper) Hover(ctx context.Context, loc locator.Locator) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("hovering over", loc, err)
	}
	if err := h.drv.Hover(ctx, loc); err != nil {
		return h.fail("hovering over", loc, err)
	}
	h.logger.Info("Hovered over element", zap.Stringer("locator", loc))
	return nil
}

func (h *Helper) DoubleClick(ctx context.Context, loc locator.Locator) error {
	if err := h.drv.WaitClickable(ctx, loc, h.wait); err != nil {
		return h.fail("double clicking", loc, err)
	}
	if err := h.drv.DoubleClick(ctx, loc); err != nil {
		return h.fail("double clicking", loc, err)
	}
	h.logger.Info("Double clicked element", zap.Stringer("locator", loc))
	return nil
}

func (h *Helper) RightClick(ctx context.Context, loc locator.Locator) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("right clicking", loc, err)
	}
	if err := h.drv.RightClick(ctx, loc); err != nil {
		return h.fail("right clicking", loc, err)
	}
	h.logger.Info("Right clicked element", zap.Stringer("locator", loc))
	return nil
}

// SelectByText picks the dropdown option whose visible text is text.
func (h *Helper) SelectByText(ctx context.Context, loc locator.Locator, text string) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("selecting option in", loc, err)
	}
	if err := h.drv.SelectByText(ctx, loc, text); err != nil {
		return h.fail("selecting option in", loc, err)
	}
	h.logger.Info("Selected dropdown option", zap.Stringer("locator", loc), zap.String("text", text))
	return nil
}

// SelectByValue picks the dropdown option whose value attribute is value.
func (h *Helper) SelectByValue(ctx context.Context, loc locator.Locator, value string) error {
	if err := h.drv.WaitVisible(ctx, loc, h.wait); err != nil {
		return h.fail("selecting option in", loc, err)
	}
	if err := h.drv.SelectByValue(ctx, loc, value); err != nil {
		return h.fail("selecting option in", loc, err)
	}
	h.logger.Info("Selected dropdown option", zap.Stringer("locator", loc), zap.String("value", value))
	return nil
}

// -- Navigation --

func (h *Helper) NavigateTo(ctx context.Context, url string) error {
	if err := h.drv.Navigate(ctx, url); err != nil {
		h.logger.Error("Error navigating", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	h.logger.Info("Navigated", zap.String("url", url))
	return nil
}

func (h *Helper) Refresh(ctx context.Context) error {
	return h.history(ctx, "refresh", h.drv.Refresh)
}

func (h *Helper) Back(ctx context.Context) error {
	return h.history(ctx, "back", h.drv.Back)
}

func (h *Helper) Forward(ctx context.Context) error {
	return h.history(ctx, "forward", h.drv.Forward)
}

func (h *Helper) history(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		h.logger.Error("Error during navigation", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	h.logger.Info("Navigation complete", zap.String("op", op))
	return nil
}

// -- Page state --

func (h *Helper) Title(ctx context.Context) (string, error) {
	title, err := h.drv.Title(ctx)
	if err != nil {
		h.logger.Error("Error getting page title", zap.Error(err))
		return "", fmt.Errorf("get page title: %w", err)
	}
	h.logger.Debug("Got page title", zap.String("title", title))
	return title, nil
}

func (h *Helper) CurrentURL(ctx context.Context) (string, error) {
	url, err := h.drv.CurrentURL(ctx)
	if err != nil {
		h.logger.Error("Error getting current URL", zap.Error(err))
		return "", fmt.Errorf("get current url: %w", err)
	}
	h.logger.Debug("Got current URL", zap.String("url", url))
	return url, nil
}

// WaitForTitle blocks until the title contains text.
func (h *Helper) WaitForTitle(ctx context.Context, text string) error {
	if err := h.drv.WaitTitleContains(ctx, text, h.wait); err != nil {
		return fmt.Errorf("wait for title containing %q: %w", text, err)
	}
	return nil
}

// WaitForURL blocks until the current URL contains text.
func (h *Helper) WaitForURL(ctx context.Context, text string) error {
	if err := h.drv.WaitURLContains(ctx, text, h.wait); err != nil {
		return fmt.Errorf("wait for url containing %q: %w", text, err)
	}
	return nil
}

// WaitForLoadingToComplete waits for the usual spinner elements to go away.
// It never fails; a spinner that outlives timeout is logged and ignored.
func (h *Helper) WaitForLoadingToComplete(ctx context.Context, timeout time.Duration) {
	for _, loc := range spinnerLocators {
		if err := h.drv.WaitInvisible(ctx, loc, timeout); err != nil {
			h.logger.Debug("Loading indicator still present", zap.Stringer("locator", loc), zap.Error(err))
		}
	}
	h.logger.Info("Loading complete")
}

func preview(text string) string {
	const limit = 20
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

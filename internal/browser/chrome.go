// internal/browser/chrome.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/locator"
)

// Flag is one command line switch handed to Chrome.
type Flag struct {
	Name  string
	Value interface{}
}

// AllocatorFlags lists the Chrome switches for opts on top of chromedp's
// defaults.
func AllocatorFlags(opts LaunchOptions) []Flag {
	flags := []Flag{
		{Name: "no-sandbox", Value: true},
		{Name: "disable-dev-shm-usage", Value: true},
		{Name: "disable-blink-features", Value: "AutomationControlled"},
		{Name: "disable-gpu", Value: true},
	}

	if opts.Headless {
		flags = append(flags, Flag{Name: "headless", Value: "new"})
	} else {
		flags = append(flags,
			Flag{Name: "headless", Value: false},
			Flag{Name: "start-maximized", Value: true},
		)
	}

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		flags = append(flags, Flag{Name: "window-size", Value: fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight)})
	}

	for _, arg := range opts.Args {
		if f, ok := parseFlag(arg); ok {
			flags = append(flags, f)
		}
	}
	return flags
}

// parseFlag turns "--name=value" or "--name" into a Flag.
func parseFlag(arg string) (Flag, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return Flag{}, false
	}
	if name, value, ok := strings.Cut(arg, "="); ok {
		return Flag{Name: name, Value: value}, true
	}
	return Flag{Name: arg, Value: true}, true
}

// DefaultAllocatorOptions builds the chromedp allocator options for opts.
func DefaultAllocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range AllocatorFlags(opts) {
		allocOpts = append(allocOpts, chromedp.Flag(f.Name, f.Value))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

// chromeDriver drives Chrome over the DevTools protocol.
type chromeDriver struct {
	id     string
	kind   Kind
	opts   LaunchOptions
	logger *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	dialogs chan string

	mu       sync.Mutex
	isClosed bool
}

var _ Driver = (*chromeDriver)(nil)

func launchChrome(ctx context.Context, opts LaunchOptions, logger *zap.Logger) (Driver, error) {
	sessionID := uuid.New().String()

	// The browser lives as long as the session, not as long as ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	d := &chromeDriver{
		id:          sessionID,
		kind:        opts.Kind,
		opts:        opts,
		logger:      logger.With(zap.String("session_id", sessionID)),
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		dialogs:     make(chan string, 1),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			select {
			case d.dialogs <- e.Message:
			default:
			}
		}
	})

	abort := func() {
		tabCancel()
		allocCancel()
	}
	start := func(c context.Context) error { return chromedp.Run(c) }
	if err := startSession(ctx, tabCtx, start, abort); err != nil {
		abort()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	return d, nil
}

// startSession runs start on sessionCtx and aborts the session if ctx ends
// first. chromedp binds the browser process to the context of the first Run,
// so start must never see a context that is canceled when launch returns.
func startSession(ctx, sessionCtx context.Context, start func(context.Context) error, abort func()) error {
	done := make(chan error, 1)
	go func() { done <- start(sessionCtx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		abort()
		<-done
		return ctx.Err()
	}
}

func (d *chromeDriver) ID() string { return d.id }
func (d *chromeDriver) Kind() Kind { return d.kind }

// run executes actions bounded by both the session and ctx, plus timeout.
func (d *chromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()
	boundCtx, boundCancel := withBound(runCtx, timeout)
	defer boundCancel()
	return chromedp.Run(boundCtx, actions...)
}

func queryOpts(loc locator.Locator) []chromedp.QueryOption {
	if loc.IsXPath() {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Debug("Navigating to URL", zap.String("url", url))
	if err := d.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (d *chromeDriver) Refresh(ctx context.Context) error {
	return d.run(ctx, 0, chromedp.Reload())
}

func (d *chromeDriver) Back(ctx context.Context) error {
	return d.run(ctx, 0, chromedp.NavigateBack())
}

func (d *chromeDriver) Forward(ctx context.Context) error {
	return d.run(ctx, 0, chromedp.NavigateForward())
}

func (d *chromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, d.opts.ImplicitWait, chromedp.Title(&title))
	return title, err
}

func (d *chromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, d.opts.ImplicitWait, chromedp.Location(&url))
	return url, err
}

func (d *chromeDriver) PageSource(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, d.opts.ImplicitWait, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *chromeDriver) Click(ctx context.Context, loc locator.Locator) error {
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.ScrollIntoView(sel, opts...),
		chromedp.WaitVisible(sel, opts...),
		chromedp.Click(sel, opts...),
	)
	if err != nil {
		return fmt.Errorf("click action failed for '%s': %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) DoubleClick(ctx context.Context, loc locator.Locator) error {
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.ScrollIntoView(sel, opts...),
		chromedp.WaitVisible(sel, opts...),
		chromedp.DoubleClick(sel, opts...),
	)
	if err != nil {
		return fmt.Errorf("double click failed for '%s': %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) RightClick(ctx context.Context, loc locator.Locator) error {
	err := d.withNode(ctx, loc, func(ctx context.Context, n *cdp.Node) error {
		return chromedp.MouseClickNode(n, chromedp.ButtonRight).Do(ctx)
	})
	if err != nil {
		return fmt.Errorf("right click failed for '%s': %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Hover(ctx context.Context, loc locator.Locator) error {
	err := d.withNode(ctx, loc, func(ctx context.Context, n *cdp.Node) error {
		quads, err := dom.GetContentQuads().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		if len(quads) == 0 || len(quads[0]) < 8 {
			return fmt.Errorf("element has no layout box")
		}
		q := quads[0]
		x := (q[0] + q[2] + q[4] + q[6]) / 4
		y := (q[1] + q[3] + q[5] + q[7]) / 4
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})
	if err != nil {
		return fmt.Errorf("hover failed for '%s': %w", loc, err)
	}
	return nil
}

// withNode resolves loc to a visible node and runs fn against it.
func (d *chromeDriver) withNode(ctx context.Context, loc locator.Locator, fn func(context.Context, *cdp.Node) error) error {
	sel, opts := loc.Selector(), queryOpts(loc)
	var nodes []*cdp.Node
	return d.run(ctx, d.opts.ImplicitWait,
		chromedp.ScrollIntoView(sel, opts...),
		chromedp.WaitVisible(sel, opts...),
		chromedp.Nodes(sel, &nodes, opts...),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(nodes) == 0 {
				return fmt.Errorf("no element matches '%s'", loc)
			}
			return fn(ctx, nodes[0])
		}),
	)
}

func (d *chromeDriver) SendKeys(ctx context.Context, loc locator.Locator, text string) error {
	d.logger.Debug("Typing into element", zap.Stringer("locator", loc), zap.Int("text_length", len(text)))
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.ScrollIntoView(sel, opts...),
		chromedp.WaitVisible(sel, opts...),
		chromedp.SendKeys(sel, text, opts...),
	)
	if err != nil {
		return fmt.Errorf("type action failed for '%s': %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Clear(ctx context.Context, loc locator.Locator) error {
	sel, opts := loc.Selector(), queryOpts(loc)
	if err := d.run(ctx, d.opts.ImplicitWait, chromedp.Clear(sel, opts...)); err != nil {
		return fmt.Errorf("clear failed for '%s': %w", loc, err)
	}
	return nil
}

func (d *chromeDriver) Text(ctx context.Context, loc locator.Locator) (string, error) {
	var text string
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.WaitVisible(sel, opts...),
		chromedp.Text(sel, &text, opts...),
	)
	if err != nil {
		return "", fmt.Errorf("reading text failed for '%s': %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}

func (d *chromeDriver) Attribute(ctx context.Context, loc locator.Locator, name string) (string, error) {
	var (
		value string
		ok    bool
	)
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.WaitReady(sel, opts...),
		chromedp.AttributeValue(sel, name, &value, &ok, opts...),
	)
	if err != nil {
		return "", fmt.Errorf("reading attribute '%s' failed for '%s': %w", name, loc, err)
	}
	return value, nil
}

// elementState evaluates a boolean JavaScript predicate against the element.
func (d *chromeDriver) elementState(ctx context.Context, loc locator.Locator, fn string) (bool, error) {
	var (
		nodes  []*cdp.Node
		result bool
	)
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.WaitReady(sel, opts...),
		chromedp.Nodes(sel, &nodes, opts...),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(nodes) == 0 {
				return fmt.Errorf("no element matches '%s'", loc)
			}
			return callFunctionOnNode(ctx, nodes[0], fn, &result)
		}),
	)
	return result, err
}

// callFunctionOnNode calls fn with this bound to node. chromedp v0.14.2
// keeps its equivalent helper unexported, so this mirrors it.
func callFunctionOnNode(ctx context.Context, node *cdp.Node, fn string, res any, args ...any) error {
	r, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
	if err != nil {
		return err
	}
	err = chromedp.CallFunctionOn(fn, res,
		func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(r.ObjectID)
		},
		args...,
	).Do(ctx)
	if err != nil {
		return err
	}
	_ = runtime.ReleaseObject(r.ObjectID).Do(ctx)
	return nil
}

const (
	jsIsEnabled  = `function() { return !this.disabled; }`
	jsIsSelected = `function() { return !!(this.checked || this.selected); }`
)

const jsIsDisplayed = `function() {
	const s = window.getComputedStyle(this);
	const r = this.getBoundingClientRect();
	return s.visibility !== 'hidden' && s.display !== 'none' && r.width > 0 && r.height > 0;
}`

const jsHasText = `(sel, isXPath, want) => {
	const el = isXPath
		? document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue
		: document.querySelector(sel);
	return !!el && (el.innerText || el.textContent || '').includes(want);
}`

// jsNotVisible holds when no element matches or the match is not rendered.
const jsNotVisible = `(sel, isXPath) => {
	const el = isXPath
		? document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue
		: document.querySelector(sel);
	if (!el) return true;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return true;
	return !(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
}`

// jsSelectBy picks the first option whose text (field "text") or value
// (field "value") matches, then fires input and change.
const jsSelectBy = `function(field, want) {
	for (const o of this.options || []) {
		const got = field === 'text' ? o.text.trim() : o.value;
		if (got === want) {
			this.value = o.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

func (d *chromeDriver) IsDisplayed(ctx context.Context, loc locator.Locator) (bool, error) {
	return d.elementState(ctx, loc, jsIsDisplayed)
}

func (d *chromeDriver) IsEnabled(ctx context.Context, loc locator.Locator) (bool, error) {
	return d.elementState(ctx, loc, jsIsEnabled)
}

func (d *chromeDriver) IsSelected(ctx context.Context, loc locator.Locator) (bool, error) {
	return d.elementState(ctx, loc, jsIsSelected)
}

func (d *chromeDriver) selectBy(ctx context.Context, loc locator.Locator, field, want string) error {
	var nodes []*cdp.Node
	var found bool
	sel, opts := loc.Selector(), queryOpts(loc)
	err := d.run(ctx, d.opts.ImplicitWait,
		chromedp.WaitVisible(sel, opts...),
		chromedp.Nodes(sel, &nodes, opts...),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(nodes) == 0 {
				return fmt.Errorf("no element matches '%s'", loc)
			}
			return callFunctionOnNode(ctx, nodes[0], jsSelectBy, &found, field, want)
		}),
	)
	if err != nil {
		return fmt.Errorf("select by %s failed for '%s': %w", field, loc, err)
	}
	if !found {
		return fmt.Errorf("no option with %s %q in '%s'", field, want, loc)
	}
	return nil
}

func (d *chromeDriver) SelectByText(ctx context.Context, loc locator.Locator, text string) error {
	return d.selectBy(ctx, loc, "text", text)
}

func (d *chromeDriver) SelectByValue(ctx context.Context, loc locator.Locator, value string) error {
	return d.selectBy(ctx, loc, "value", value)
}

func (d *chromeDriver) WaitVisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return d.run(ctx, d.opts.waitOr(timeout), chromedp.WaitVisible(loc.Selector(), queryOpts(loc)...))
}

func (d *chromeDriver) WaitPresent(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return d.run(ctx, d.opts.waitOr(timeout), chromedp.WaitReady(loc.Selector(), queryOpts(loc)...))
}

func (d *chromeDriver) WaitClickable(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	sel, opts := loc.Selector(), queryOpts(loc)
	return d.run(ctx, d.opts.waitOr(timeout),
		chromedp.WaitVisible(sel, opts...),
		chromedp.WaitEnabled(sel, opts...),
	)
}

func (d *chromeDriver) WaitInvisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	var ok bool
	return d.run(ctx, d.opts.waitOr(timeout),
		chromedp.PollFunction(jsNotVisible, &ok,
			chromedp.WithPollingArgs(loc.Selector(), loc.IsXPath()),
			chromedp.WithPollingInterval(250*time.Millisecond)),
	)
}

func (d *chromeDriver) WaitText(ctx context.Context, loc locator.Locator, text string, timeout time.Duration) error {
	var ok bool
	return d.run(ctx, d.opts.waitOr(timeout),
		chromedp.PollFunction(jsHasText, &ok,
			chromedp.WithPollingArgs(loc.Selector(), loc.IsXPath(), text),
			chromedp.WithPollingInterval(250*time.Millisecond)),
	)
}

func (d *chromeDriver) WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error {
	var ok bool
	return d.run(ctx, d.opts.waitOr(timeout),
		chromedp.PollFunction(`(want) => window.location.href.includes(want)`, &ok,
			chromedp.WithPollingArgs(fragment), chromedp.WithPollingInterval(250*time.Millisecond)),
	)
}

func (d *chromeDriver) WaitTitleContains(ctx context.Context, fragment string, timeout time.Duration) error {
	var ok bool
	return d.run(ctx, d.opts.waitOr(timeout),
		chromedp.PollFunction(`(want) => document.title.includes(want)`, &ok,
			chromedp.WithPollingArgs(fragment), chromedp.WithPollingInterval(250*time.Millisecond)),
	)
}

func (d *chromeDriver) HandleAlert(ctx context.Context, accept bool) (string, error) {
	waitCtx, cancel := withBound(ctx, d.opts.ExplicitWait)
	defer cancel()

	var msg string
	select {
	case msg = <-d.dialogs:
	case <-waitCtx.Done():
		return "", fmt.Errorf("no alert appeared: %w", waitCtx.Err())
	}

	if err := d.run(ctx, d.opts.ImplicitWait, page.HandleJavaScriptDialog(accept)); err != nil {
		return msg, fmt.Errorf("failed to handle alert: %w", err)
	}
	return msg, nil
}

func (d *chromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, d.opts.ImplicitWait, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Quit closes the tab and then the browser process. Calling it again is a no-op.
func (d *chromeDriver) Quit(ctx context.Context) error {
	d.mu.Lock()
	if d.isClosed {
		d.mu.Unlock()
		return nil
	}
	d.isClosed = true
	d.mu.Unlock()

	d.logger.Debug("Closing browser session.")

	var err error
	if cerr := chromedp.Cancel(d.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
		err = fmt.Errorf("failed to close chrome: %w", cerr)
	}
	d.cancel()
	d.allocCancel()
	return err
}

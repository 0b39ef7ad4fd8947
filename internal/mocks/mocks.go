// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/autologin/internal/browser"
	"github.com/xkilldash9x/autologin/internal/locator"
)

// -- Driver Mock --

// MockDriver mocks browser.Driver. Every method records its arguments; the
// return values come from the expectations set with On.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDriver) Kind() browser.Kind {
	args := m.Called()
	return args.Get(0).(browser.Kind)
}

// --- Navigation ---

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) Refresh(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockDriver) Back(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockDriver) Forward(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockDriver) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) PageSource(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// --- Element Interaction ---

func (m *MockDriver) Click(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) DoubleClick(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) RightClick(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) Hover(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) SendKeys(ctx context.Context, loc locator.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}

func (m *MockDriver) Clear(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockDriver) Text(ctx context.Context, loc locator.Locator) (string, error) {
	args := m.Called(ctx, loc)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Attribute(ctx context.Context, loc locator.Locator, name string) (string, error) {
	args := m.Called(ctx, loc, name)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) IsDisplayed(ctx context.Context, loc locator.Locator) (bool, error) {
	args := m.Called(ctx, loc)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) IsEnabled(ctx context.Context, loc locator.Locator) (bool, error) {
	args := m.Called(ctx, loc)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) IsSelected(ctx context.Context, loc locator.Locator) (bool, error) {
	args := m.Called(ctx, loc)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) SelectByText(ctx context.Context, loc locator.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}

func (m *MockDriver) SelectByValue(ctx context.Context, loc locator.Locator, value string) error {
	return m.Called(ctx, loc, value).Error(0)
}

// --- Waits ---

func (m *MockDriver) WaitVisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return m.Called(ctx, loc, timeout).Error(0)
}

func (m *MockDriver) WaitPresent(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return m.Called(ctx, loc, timeout).Error(0)
}

func (m *MockDriver) WaitClickable(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return m.Called(ctx, loc, timeout).Error(0)
}

func (m *MockDriver) WaitInvisible(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return m.Called(ctx, loc, timeout).Error(0)
}

func (m *MockDriver) WaitText(ctx context.Context, loc locator.Locator, text string, timeout time.Duration) error {
	return m.Called(ctx, loc, text, timeout).Error(0)
}

func (m *MockDriver) WaitURLContains(ctx context.Context, fragment string, timeout time.Duration) error {
	return m.Called(ctx, fragment, timeout).Error(0)
}

func (m *MockDriver) WaitTitleContains(ctx context.Context, fragment string, timeout time.Duration) error {
	return m.Called(ctx, fragment, timeout).Error(0)
}

// --- Session ---

func (m *MockDriver) HandleAlert(ctx context.Context, accept bool) (string, error) {
	args := m.Called(ctx, accept)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var buf []byte
	if b := args.Get(0); b != nil {
		buf = b.([]byte)
	}
	return buf, args.Error(1)
}

func (m *MockDriver) Quit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

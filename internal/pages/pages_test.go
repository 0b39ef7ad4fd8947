// internal/pages/pages_test.go
package pages_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/autologin/internal/locator"
	"github.com/xkilldash9x/autologin/internal/mocks"
	"github.com/xkilldash9x/autologin/internal/pages"
)

const wait = 5 * time.Second

var errNoSuchElement = errors.New("no such element")

func setup(t *testing.T) (*mocks.MockDriver, *pages.Helper, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	drv := new(mocks.MockDriver)
	return drv, pages.NewHelper(drv, zap.New(core), wait), logs
}

// shown makes loc visible to the probe helpers.
func shown(drv *mocks.MockDriver, loc locator.Locator, visible bool) {
	drv.On("WaitPresent", mock.Anything, loc, wait).Return(nil)
	drv.On("IsDisplayed", mock.Anything, loc).Return(visible, nil)
}

func absent(drv *mocks.MockDriver, loc locator.Locator) {
	drv.On("WaitPresent", mock.Anything, loc, wait).Return(errNoSuchElement)
}

func typing(drv *mocks.MockDriver, loc locator.Locator, text string) {
	drv.On("WaitVisible", mock.Anything, loc, wait).Return(nil)
	drv.On("Clear", mock.Anything, loc).Return(nil)
	drv.On("SendKeys", mock.Anything, loc, text).Return(nil)
}

func clickable(drv *mocks.MockDriver, loc locator.Locator) {
	drv.On("WaitClickable", mock.Anything, loc, wait).Return(nil)
	drv.On("Click", mock.Anything, loc).Return(nil)
}

func TestHelperClick(t *testing.T) {
	ctx := context.Background()
	btn := locator.ByID("submit")

	t.Run("Success", func(t *testing.T) {
		drv, h, logs := setup(t)
		clickable(drv, btn)

		require.NoError(t, h.Click(ctx, btn))
		assert.Equal(t, 1, logs.FilterMessage("Clicked element").Len())
		drv.AssertExpectations(t)
	})

	t.Run("NotClickable", func(t *testing.T) {
		drv, h, logs := setup(t)
		drv.On("WaitClickable", mock.Anything, btn, wait).Return(errNoSuchElement)

		err := h.Click(ctx, btn)
		require.Error(t, err)
		assert.ErrorIs(t, err, errNoSuchElement)
		assert.Contains(t, err.Error(), "id=submit")
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		drv.AssertNotCalled(t, "Click", mock.Anything, btn)
	})
}

func TestHelperSendKeysPreview(t *testing.T) {
	drv, h, logs := setup(t)
	field := locator.ByName("q")
	long := "abcdefghijklmnopqrstuvwxyz"
	typing(drv, field, long)

	require.NoError(t, h.SendKeys(context.Background(), field, long))
	entries := logs.FilterMessage("Sent keys to element").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abcdefghijklmnopqrst...", entries[0].ContextMap()["text"])
}

func TestHelperProbesNeverFail(t *testing.T) {
	ctx := context.Background()
	box := locator.ByID("agree")

	t.Run("Absent", func(t *testing.T) {
		drv, h, _ := setup(t)
		absent(drv, box)
		assert.False(t, h.IsDisplayed(ctx, box))
		assert.False(t, h.IsEnabled(ctx, box))
		assert.False(t, h.IsSelected(ctx, box))
	})

	t.Run("CheckErrors", func(t *testing.T) {
		drv, h, _ := setup(t)
		drv.On("WaitPresent", mock.Anything, box, wait).Return(nil)
		drv.On("IsSelected", mock.Anything, box).Return(true, errors.New("stale element"))
		assert.False(t, h.IsSelected(ctx, box))
	})

	t.Run("Present", func(t *testing.T) {
		drv, h, _ := setup(t)
		drv.On("WaitPresent", mock.Anything, box, wait).Return(nil)
		drv.On("IsEnabled", mock.Anything, box).Return(true, nil)
		assert.True(t, h.IsEnabled(ctx, box))
	})
}

func TestHelperNavigation(t *testing.T) {
	ctx := context.Background()
	drv, h, _ := setup(t)
	drv.On("Navigate", mock.Anything, "http://localhost:8080").Return(nil)
	drv.On("Back", mock.Anything).Return(errors.New("no history"))
	drv.On("Title", mock.Anything).Return("Login", nil)
	drv.On("WaitURLContains", mock.Anything, "dashboard", wait).Return(context.DeadlineExceeded)

	assert.NoError(t, h.NavigateTo(ctx, "http://localhost:8080"))
	assert.EqualError(t, h.Back(ctx), "back: no history")

	title, err := h.Title(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "Login", title)

	assert.ErrorIs(t, h.WaitForURL(ctx, "dashboard"), context.DeadlineExceeded)
}

func TestWaitForLoadingToCompleteSwallowsErrors(t *testing.T) {
	drv, h, logs := setup(t)
	drv.On("WaitInvisible", mock.Anything, mock.Anything, 2*time.Second).Return(context.DeadlineExceeded)

	assert.NotPanics(t, func() { h.WaitForLoadingToComplete(context.Background(), 2*time.Second) })
	drv.AssertNumberOfCalls(t, "WaitInvisible", 4)
	assert.Equal(t, 1, logs.FilterMessage("Loading complete").Len())
}

func TestLoginHappyPath(t *testing.T) {
	ctx := context.Background()
	drv, h, logs := setup(t)
	login := pages.NewLoginPage(h)
	loc := login.Locators

	shown(drv, loc.PageTitle, true)
	shown(drv, loc.UsernameInput, true)
	shown(drv, loc.PasswordInput, true)
	typing(drv, loc.UsernameInput, "testuser@example.com")
	typing(drv, loc.PasswordInput, "TestPassword123!")
	drv.On("WaitPresent", mock.Anything, loc.RememberMeCheckbox, wait).Return(nil)
	drv.On("IsSelected", mock.Anything, loc.RememberMeCheckbox).Return(false, nil)
	clickable(drv, loc.RememberMeCheckbox)
	clickable(drv, loc.LoginButton)

	require.NoError(t, login.Login(ctx, "testuser@example.com", "TestPassword123!", true))
	drv.AssertExpectations(t)

	for _, e := range logs.All() {
		for _, v := range e.ContextMap() {
			assert.NotEqual(t, "TestPassword123!", v, "password leaked in %q", e.Message)
		}
	}
	assert.Equal(t, 1, logs.FilterMessage("Login process completed").Len())
}

func TestLoginRefusesWhenPageMissing(t *testing.T) {
	drv, h, _ := setup(t)
	login := pages.NewLoginPage(h)
	absent(drv, login.Locators.PageTitle)

	err := login.Login(context.Background(), "u", "p", false)
	assert.ErrorIs(t, err, pages.ErrPageNotLoaded)
	drv.AssertNotCalled(t, "SendKeys", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckRememberMeIsIdempotent(t *testing.T) {
	drv, h, _ := setup(t)
	login := pages.NewLoginPage(h)
	box := login.Locators.RememberMeCheckbox
	drv.On("WaitPresent", mock.Anything, box, wait).Return(nil)
	drv.On("IsSelected", mock.Anything, box).Return(true, nil)

	require.NoError(t, login.CheckRememberMe(context.Background()))
	drv.AssertNotCalled(t, "Click", mock.Anything, box)
}

func TestLoginAndVerifyError(t *testing.T) {
	ctx := context.Background()

	setupForm := func(t *testing.T) (*mocks.MockDriver, *pages.LoginPage) {
		drv, h, _ := setup(t)
		login := pages.NewLoginPage(h)
		login.LoadingTimeout = time.Second
		loc := login.Locators
		shown(drv, loc.PageTitle, true)
		shown(drv, loc.UsernameInput, true)
		shown(drv, loc.PasswordInput, true)
		typing(drv, loc.UsernameInput, "invalid@example.com")
		typing(drv, loc.PasswordInput, "x")
		clickable(drv, loc.LoginButton)
		drv.On("WaitInvisible", mock.Anything, mock.Anything, time.Second).Return(nil)
		return drv, login
	}

	t.Run("MessageShown", func(t *testing.T) {
		drv, login := setupForm(t)
		errLoc := login.Locators.ErrorMessage
		shown(drv, errLoc, true)
		drv.On("WaitVisible", mock.Anything, errLoc, wait).Return(nil)
		drv.On("Text", mock.Anything, errLoc).Return("Invalid credentials", nil)

		msg, err := login.LoginAndVerifyError(ctx, "invalid@example.com", "x")
		require.NoError(t, err)
		assert.Equal(t, "Invalid credentials", msg)
	})

	t.Run("NoMessage", func(t *testing.T) {
		drv, login := setupForm(t)
		absent(drv, login.Locators.ErrorMessage)

		_, err := login.LoginAndVerifyError(ctx, "invalid@example.com", "x")
		assert.ErrorIs(t, err, pages.ErrNoErrorMessage)
	})
}

func TestLoginReadersDefaultToEmpty(t *testing.T) {
	ctx := context.Background()
	drv, h, _ := setup(t)
	login := pages.NewLoginPage(h)
	loc := login.Locators

	drv.On("WaitVisible", mock.Anything, loc.ErrorMessage, wait).Return(errNoSuchElement)
	drv.On("WaitPresent", mock.Anything, loc.UsernameInput, wait).Return(nil)
	drv.On("Attribute", mock.Anything, loc.UsernameInput, "placeholder").Return("Email", nil)
	drv.On("WaitPresent", mock.Anything, loc.PasswordInput, wait).Return(errNoSuchElement)

	assert.Equal(t, "", login.ErrorMessage(ctx))
	assert.Equal(t, "Email", login.UsernamePlaceholder(ctx))
	assert.Equal(t, "", login.PasswordPlaceholder(ctx))
}

func TestIsLoginSuccessful(t *testing.T) {
	ctx := context.Background()
	drv, h, _ := setup(t)
	login := pages.NewLoginPage(h)
	loc := login.Locators
	absent(drv, loc.ErrorMessage)
	absent(drv, loc.SuccessMessage)
	absent(drv, loc.UsernameInput)

	assert.True(t, login.IsLoginSuccessful(ctx))
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Displayed", func(t *testing.T) {
		drv, h, logs := setup(t)
		dash := pages.NewDashboardPage(h)
		shown(drv, dash.Locators.MainContent, true)
		shown(drv, dash.Locators.WelcomeMessage, false)

		assert.False(t, dash.IsDashboardDisplayed(ctx))
		assert.Equal(t, 1, logs.FilterMessage("Dashboard not fully loaded").Len())
	})

	t.Run("NotificationCount", func(t *testing.T) {
		cases := []struct {
			name  string
			text  string
			err   error
			count int
		}{
			{name: "Numeric", text: " 3 ", count: 3},
			{name: "Empty", text: "", count: 0},
			{name: "NotANumber", text: "9+", count: 0},
			{name: "Missing", err: errNoSuchElement, count: 0},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				drv, h, _ := setup(t)
				dash := pages.NewDashboardPage(h)
				badge := dash.Locators.NotificationBadge
				drv.On("WaitVisible", mock.Anything, badge, wait).Return(tc.err)
				drv.On("Text", mock.Anything, badge).Return(tc.text, nil)

				assert.Equal(t, tc.count, dash.NotificationCount(ctx))
			})
		}
	})

	t.Run("WelcomeMessageFailure", func(t *testing.T) {
		drv, h, _ := setup(t)
		dash := pages.NewDashboardPage(h)
		drv.On("WaitVisible", mock.Anything, dash.Locators.WelcomeMessage, wait).Return(errNoSuchElement)
		assert.Equal(t, "", dash.WelcomeMessage(ctx))
	})

	t.Run("Logout", func(t *testing.T) {
		drv, h, _ := setup(t)
		dash := pages.NewDashboardPage(h)
		clickable(drv, dash.Locators.LogoutButton)
		require.NoError(t, dash.Logout(ctx))
		drv.AssertExpectations(t)
	})
}

func TestLocatorTables(t *testing.T) {
	login := pages.DefaultLoginLocators()
	assert.Equal(t, "id=username", login.UsernameInput.String())
	assert.Equal(t, "link text=Forgot Password?", login.ForgotPasswordLink.String())
	assert.Len(t, locator.Collect(login), 9)

	dash := pages.DefaultDashboardLocators()
	assert.Equal(t, "class name=notification-badge", dash.NotificationBadge.String())
	assert.Len(t, locator.Collect(dash), 10)
}

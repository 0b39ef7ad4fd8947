// internal/pages/login.go
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autologin/internal/locator"
)

var (
	// ErrPageNotLoaded means the page's identifying elements were not visible.
	ErrPageNotLoaded = errors.New("page not properly loaded")
	// ErrNoErrorMessage means a failed login produced no error message.
	ErrNoErrorMessage = errors.New("expected error message not displayed")
)

// LoginPage drives the login form.
type LoginPage struct {
	*Helper
	Locators LoginLocators

	// LoadingTimeout bounds the spinner wait in LoginAndVerifyError.
	LoadingTimeout time.Duration
}

// NewLoginPage returns a login page over h using the default locators.
func NewLoginPage(h *Helper) *LoginPage {
	return &LoginPage{
		Helper:         &Helper{drv: h.drv, logger: h.logger.Named("LoginPage"), wait: h.wait},
		Locators:       DefaultLoginLocators(),
		LoadingTimeout: 10 * time.Second,
	}
}

// IsLoginPageDisplayed checks the heading and both credential fields.
func (p *LoginPage) IsLoginPageDisplayed(ctx context.Context) bool {
	shown := p.IsDisplayed(ctx, p.Locators.PageTitle) &&
		p.IsDisplayed(ctx, p.Locators.UsernameInput) &&
		p.IsDisplayed(ctx, p.Locators.PasswordInput)
	if shown {
		p.logger.Info("Login page is displayed")
	} else {
		p.logger.Warn("Login page components not displayed")
	}
	return shown
}

func (p *LoginPage) EnterUsername(ctx context.Context, username string) error {
	if err := p.SendKeys(ctx, p.Locators.UsernameInput, username); err != nil {
		return err
	}
	p.logger.Info("Entered username", zap.String("username", username))
	return nil
}

// EnterPassword types the password. The value never reaches the log.
func (p *LoginPage) EnterPassword(ctx context.Context, password string) error {
	if err := p.SendSecret(ctx, p.Locators.PasswordInput, password); err != nil {
		return err
	}
	p.logger.Info("Password entered")
	return nil
}

func (p *LoginPage) ClearUsername(ctx context.Context) error {
	return p.Clear(ctx, p.Locators.UsernameInput)
}

func (p *LoginPage) ClearPassword(ctx context.Context) error {
	return p.Clear(ctx, p.Locators.PasswordInput)
}

func (p *LoginPage) ClickLoginButton(ctx context.Context) error {
	return p.Click(ctx, p.Locators.LoginButton)
}

func (p *LoginPage) ClickForgotPassword(ctx context.Context) error {
	return p.Click(ctx, p.Locators.ForgotPasswordLink)
}

func (p *LoginPage) ClickSignUp(ctx context.Context) error {
	return p.Click(ctx, p.Locators.SignUpLink)
}

// CheckRememberMe ticks the checkbox unless it already is.
func (p *LoginPage) CheckRememberMe(ctx context.Context) error {
	if p.IsRememberMeChecked(ctx) {
		return nil
	}
	if err := p.Click(ctx, p.Locators.RememberMeCheckbox); err != nil {
		return err
	}
	p.logger.Info("'Remember Me' checkbox checked")
	return nil
}

// UncheckRememberMe clears the checkbox if it is ticked.
func (p *LoginPage) UncheckRememberMe(ctx context.Context) error {
	if !p.IsRememberMeChecked(ctx) {
		return nil
	}
	if err := p.Click(ctx, p.Locators.RememberMeCheckbox); err != nil {
		return err
	}
	p.logger.Info("'Remember Me' checkbox unchecked")
	return nil
}

// Login fills in the form and submits it. It refuses to type anything when
// the login page is not showing.
func (p *LoginPage) Login(ctx context.Context, username, password string, rememberMe bool) error {
	p.logger.Info("Starting login process")

	if !p.IsLoginPageDisplayed(ctx) {
		p.logger.Error("Error during login", zap.Error(ErrPageNotLoaded))
		return fmt.Errorf("login: %w", ErrPageNotLoaded)
	}
	if err := p.EnterUsername(ctx, username); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if rememberMe {
		if err := p.CheckRememberMe(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	if err := p.ClickLoginButton(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	p.logger.Info("Login process completed")
	return nil
}

// LoginAndVerifyError logs in expecting rejection and returns the error
// message shown. ErrNoErrorMessage is returned when none appears.
func (p *LoginPage) LoginAndVerifyError(ctx context.Context, username, password string) (string, error) {
	if err := p.Login(ctx, username, password, false); err != nil {
		return "", err
	}
	p.WaitForLoadingToComplete(ctx, p.LoadingTimeout)

	if !p.IsErrorMessageDisplayed(ctx) {
		p.logger.Error("Error in login and verify error", zap.Error(ErrNoErrorMessage))
		return "", ErrNoErrorMessage
	}
	msg := p.ErrorMessage(ctx)
	p.logger.Info("Error message received", zap.String("message", msg))
	return msg, nil
}

// ErrorMessage is the error banner text, or "" when there is none.
func (p *LoginPage) ErrorMessage(ctx context.Context) string {
	text, err := p.Text(ctx, p.Locators.ErrorMessage)
	if err != nil {
		p.logger.Debug("No error message found", zap.Error(err))
		return ""
	}
	p.logger.Warn("Error message displayed", zap.String("message", text))
	return text
}

// SuccessMessage is the success banner text, or "" when there is none.
func (p *LoginPage) SuccessMessage(ctx context.Context) string {
	text, err := p.Text(ctx, p.Locators.SuccessMessage)
	if err != nil {
		p.logger.Debug("No success message found", zap.Error(err))
		return ""
	}
	p.logger.Info("Success message displayed", zap.String("message", text))
	return text
}

func (p *LoginPage) IsErrorMessageDisplayed(ctx context.Context) bool {
	return p.IsDisplayed(ctx, p.Locators.ErrorMessage)
}

func (p *LoginPage) IsSuccessMessageDisplayed(ctx context.Context) bool {
	return p.IsDisplayed(ctx, p.Locators.SuccessMessage)
}

func (p *LoginPage) IsRememberMeChecked(ctx context.Context) bool {
	return p.IsSelected(ctx, p.Locators.RememberMeCheckbox)
}

func (p *LoginPage) UsernamePlaceholder(ctx context.Context) string {
	return p.placeholder(ctx, "username", p.Locators.UsernameInput)
}

func (p *LoginPage) PasswordPlaceholder(ctx context.Context) string {
	return p.placeholder(ctx, "password", p.Locators.PasswordInput)
}

func (p *LoginPage) IsLoginButtonEnabled(ctx context.Context) bool {
	return p.IsEnabled(ctx, p.Locators.LoginButton)
}

// IsLoginSuccessful reports whether the form went away without an error
// banner.
func (p *LoginPage) IsLoginSuccessful(ctx context.Context) bool {
	if p.IsErrorMessageDisplayed(ctx) {
		return false
	}
	return p.IsSuccessMessageDisplayed(ctx) || !p.IsDisplayed(ctx, p.Locators.UsernameInput)
}

func (p *LoginPage) placeholder(ctx context.Context, field string, loc locator.Locator) string {
	value, err := p.Attribute(ctx, loc, "placeholder")
	if err != nil {
		p.logger.Debug("Error getting placeholder", zap.String("field", field), zap.Error(err))
		return ""
	}
	return value
}

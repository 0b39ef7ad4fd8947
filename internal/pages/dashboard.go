// internal/pages/dashboard.go
package pages

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DashboardPage drives the landing page shown after login.
type DashboardPage struct {
	*Helper
	Locators DashboardLocators
}

func NewDashboardPage(h *Helper) *DashboardPage {
	return &DashboardPage{
		Helper:   &Helper{drv: h.drv, logger: h.logger.Named("DashboardPage"), wait: h.wait},
		Locators: DefaultDashboardLocators(),
	}
}

// IsDashboardDisplayed checks the main content area and the welcome banner.
func (p *DashboardPage) IsDashboardDisplayed(ctx context.Context) bool {
	shown := p.IsDisplayed(ctx, p.Locators.MainContent) &&
		p.IsDisplayed(ctx, p.Locators.WelcomeMessage)
	if shown {
		p.logger.Info("Dashboard is displayed")
	} else {
		p.logger.Warn("Dashboard not fully loaded")
	}
	return shown
}

func (p *DashboardPage) ClickUserProfile(ctx context.Context) error {
	return p.Click(ctx, p.Locators.UserProfileButton)
}

func (p *DashboardPage) Logout(ctx context.Context) error {
	if err := p.Click(ctx, p.Locators.LogoutButton); err != nil {
		return err
	}
	p.logger.Info("Clicked logout button")
	return nil
}

func (p *DashboardPage) ClickSettings(ctx context.Context) error {
	return p.Click(ctx, p.Locators.SettingsLink)
}

// WelcomeMessage returns the banner text, or "" if it cannot be read.
func (p *DashboardPage) WelcomeMessage(ctx context.Context) string {
	msg, err := p.Text(ctx, p.Locators.WelcomeMessage)
	if err != nil {
		return ""
	}
	p.logger.Info("Welcome message", zap.String("message", msg))
	return msg
}

// NotificationCount reads the badge. A missing, empty, or non-numeric badge
// counts as zero.
func (p *DashboardPage) NotificationCount(ctx context.Context) int {
	text, err := p.Text(ctx, p.Locators.NotificationBadge)
	if err != nil {
		p.logger.Debug("Error getting notification count", zap.Error(err))
		return 0
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		p.logger.Debug("Notification badge is not a number", zap.String("text", text))
		return 0
	}
	return n
}

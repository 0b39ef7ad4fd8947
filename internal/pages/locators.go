// internal/pages/locators.go
package pages

import "github.com/xkilldash9x/autologin/internal/locator"

// LoginLocators is the element table of the login page.
type LoginLocators struct {
	UsernameInput      locator.Locator
	PasswordInput      locator.Locator
	LoginButton        locator.Locator
	RememberMeCheckbox locator.Locator
	ForgotPasswordLink locator.Locator
	SignUpLink         locator.Locator
	ErrorMessage       locator.Locator
	SuccessMessage     locator.Locator
	PageTitle          locator.Locator
}

// DefaultLoginLocators returns the locators of the stock login page.
func DefaultLoginLocators() LoginLocators {
	return LoginLocators{
		UsernameInput:      locator.ByID("username"),
		PasswordInput:      locator.ByID("password"),
		LoginButton:        locator.ByXPath("//button[contains(text(), 'Login')]"),
		RememberMeCheckbox: locator.ByID("rememberMe"),
		ForgotPasswordLink: locator.ByLinkText("Forgot Password?"),
		SignUpLink:         locator.ByLinkText("Sign Up"),
		ErrorMessage:       locator.ByClassName("error-message"),
		SuccessMessage:     locator.ByClassName("success-message"),
		PageTitle:          locator.ByXPath("//h1[contains(text(), 'Login')]"),
	}
}

// DashboardLocators is the element table of the dashboard.
type DashboardLocators struct {
	// Header
	UserProfileButton locator.Locator
	LogoutButton      locator.Locator
	WelcomeMessage    locator.Locator

	// Navigation
	SidebarMenu   locator.Locator
	DashboardLink locator.Locator
	SettingsLink  locator.Locator

	// Content
	MainContent locator.Locator
	DataTable   locator.Locator

	// Notifications
	NotificationBell  locator.Locator
	NotificationBadge locator.Locator
}

func DefaultDashboardLocators() DashboardLocators {
	return DashboardLocators{
		UserProfileButton: locator.ByID("user-profile"),
		LogoutButton:      locator.ByXPath("//button[contains(text(), 'Logout')]"),
		WelcomeMessage:    locator.ByClassName("welcome-text"),
		SidebarMenu:       locator.ByID("sidebar-menu"),
		DashboardLink:     locator.ByLinkText("Dashboard"),
		SettingsLink:      locator.ByLinkText("Settings"),
		MainContent:       locator.ByID("main-content"),
		DataTable:         locator.ByID("data-table"),
		NotificationBell:  locator.ByClassName("notification-bell"),
		NotificationBadge: locator.ByClassName("notification-badge"),
	}
}

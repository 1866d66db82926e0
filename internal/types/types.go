// Package types provides common type definitions for the dashboard backend.
package types

// Theme represents the UI theme a user selected
type Theme string

const (
	// ThemeLight is the default light theme
	ThemeLight Theme = "light"
	// ThemeDark is the dark theme
	ThemeDark Theme = "dark"
	// ThemeSystem follows the operating system preference
	ThemeSystem Theme = "system"
)

// IsValid reports whether the theme is one of the known values
func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// ColorScheme represents the accent color scheme of the dashboard
type ColorScheme string

const (
	ColorSchemeEmerald ColorScheme = "emerald"
	ColorSchemeBlue    ColorScheme = "blue"
	ColorSchemePurple  ColorScheme = "purple"
	ColorSchemeOrange  ColorScheme = "orange"
)

// IsValid reports whether the color scheme is one of the known values
func (c ColorScheme) IsValid() bool {
	switch c {
	case ColorSchemeEmerald, ColorSchemeBlue, ColorSchemePurple, ColorSchemeOrange:
		return true
	}
	return false
}

// PaymentMethodType represents the kind of a stored payment method
type PaymentMethodType string

const (
	// PaymentMethodBank is a linked bank account
	PaymentMethodBank PaymentMethodType = "bank"
	// PaymentMethodCard is a debit or credit card
	PaymentMethodCard PaymentMethodType = "card"
)

// IsValid reports whether the payment method type is known
func (p PaymentMethodType) IsValid() bool {
	return p == PaymentMethodBank || p == PaymentMethodCard
}

// SessionTimeout is the idle timeout in minutes, kept as a string the way
// the settings form submits it
type SessionTimeout string

const (
	SessionTimeout5   SessionTimeout = "5"
	SessionTimeout15  SessionTimeout = "15"
	SessionTimeout30  SessionTimeout = "30"
	SessionTimeout60  SessionTimeout = "60"
	SessionTimeout120 SessionTimeout = "120"
)

// IsValid reports whether the timeout is one of the offered options
func (s SessionTimeout) IsValid() bool {
	switch s {
	case SessionTimeout5, SessionTimeout15, SessionTimeout30, SessionTimeout60, SessionTimeout120:
		return true
	}
	return false
}

// SaveStatus is the state of the settings save indicator
type SaveStatus string

const (
	SaveStatusIdle   SaveStatus = "idle"
	SaveStatusSaving SaveStatus = "saving"
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusError  SaveStatus = "error"
)

// DataSource tells whether market data came from the provider or the
// embedded fallback dataset
type DataSource string

const (
	// SourceLive means the upstream provider answered
	SourceLive DataSource = "live"
	// SourceFallback means the embedded dataset was served
	SourceFallback DataSource = "fallback"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

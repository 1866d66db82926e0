// Package models provides data models for the dashboard backend.
package models

import (
	"time"

	"github.com/crypto-dashboard/internal/types"
)

// Default profile values used when a profile is created without them
const (
	DefaultFullName       = "John Doe"
	DefaultPhone          = "+1 (555) 123-4567"
	DefaultCountry        = "us"
	DefaultBio            = "Crypto enthusiast and investor since 2017."
	DefaultProfilePicture = "/images/user-logo.svg"
)

// User represents the profile of the dashboard user
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	FullName       string    `json:"full_name" db:"full_name"`
	Phone          string    `json:"phone" db:"phone"`
	Country        string    `json:"country" db:"country"`
	Bio            string    `json:"bio" db:"bio"`
	ProfilePicture string    `json:"profile_picture" db:"profile_picture"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserFields carries the editable profile fields of a create-or-update call
type UserFields struct {
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	Country        string `json:"country"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

// WithDefaults returns a copy where every empty field takes the profile template value
func (f UserFields) WithDefaults() UserFields {
	if f.FullName == "" {
		f.FullName = DefaultFullName
	}
	if f.Phone == "" {
		f.Phone = DefaultPhone
	}
	if f.Country == "" {
		f.Country = DefaultCountry
	}
	if f.Bio == "" {
		f.Bio = DefaultBio
	}
	if f.ProfilePicture == "" {
		f.ProfilePicture = DefaultProfilePicture
	}
	return f
}

// NotificationPreferences holds the eight independent notification toggles
type NotificationPreferences struct {
	Email          bool `json:"email"`
	Push           bool `json:"push"`
	SMS            bool `json:"sms"`
	Browser        bool `json:"browser"`
	PriceAlerts    bool `json:"priceAlerts"`
	TradingAlerts  bool `json:"tradingAlerts"`
	SecurityAlerts bool `json:"securityAlerts"`
	MarketNews     bool `json:"marketNews"`
}

// DefaultNotifications returns the notification toggles a new user starts with
func DefaultNotifications() NotificationPreferences {
	return NotificationPreferences{
		Email:          true,
		Push:           true,
		SMS:            false,
		Browser:        true,
		PriceAlerts:    true,
		TradingAlerts:  true,
		SecurityAlerts: true,
		MarketNews:     false,
	}
}

// SecurityPreferences holds the persisted part of the security form.
// Password change fields are never part of it.
type SecurityPreferences struct {
	LoginNotifications     bool                 `json:"loginNotifications"`
	DeviceManagement       bool                 `json:"deviceManagement"`
	SessionTimeout         types.SessionTimeout `json:"sessionTimeout"`
	IPWhitelist            string               `json:"ipWhitelist"`
	WithdrawalConfirmation bool                 `json:"withdrawalConfirmation"`
	APIAccess              bool                 `json:"apiAccess"`
}

// DefaultSecurity returns the security preferences a new user starts with
func DefaultSecurity() SecurityPreferences {
	return SecurityPreferences{
		LoginNotifications:     true,
		DeviceManagement:       true,
		SessionTimeout:         types.SessionTimeout30,
		WithdrawalConfirmation: true,
		APIAccess:              false,
	}
}

// UserSettings represents the one settings row a user owns
type UserSettings struct {
	ID               string                  `json:"id" db:"id"`
	UserID           string                  `json:"user_id" db:"user_id"`
	Theme            types.Theme             `json:"theme" db:"theme"`
	ColorScheme      types.ColorScheme       `json:"color_scheme" db:"color_scheme"`
	Language         string                  `json:"language" db:"language"`
	Currency         string                  `json:"currency" db:"currency"`
	Notifications    NotificationPreferences `json:"notifications" db:"notifications"`
	SecuritySettings SecurityPreferences     `json:"security_settings" db:"security_settings"`
	TwoFactorEnabled bool                    `json:"two_factor_enabled" db:"two_factor_enabled"`
	AccountActivity  bool                    `json:"account_activity" db:"account_activity"`
	TradingActivity  bool                    `json:"trading_activity" db:"trading_activity"`
	CreatedAt        time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at" db:"updated_at"`
}

// SettingsFields carries the values of a save-settings call.
// Nil nested records and nil flags mean "not supplied".
type SettingsFields struct {
	Theme            types.Theme              `json:"theme"`
	ColorScheme      types.ColorScheme        `json:"color_scheme"`
	Language         string                   `json:"language"`
	Currency         string                   `json:"currency"`
	Notifications    *NotificationPreferences `json:"notifications,omitempty"`
	SecuritySettings *SecurityPreferences     `json:"security_settings,omitempty"`
	TwoFactorEnabled *bool                    `json:"two_factor_enabled,omitempty"`
	AccountActivity  *bool                    `json:"account_activity,omitempty"`
	TradingActivity  *bool                    `json:"trading_activity,omitempty"`
}

// DefaultSettingsFields returns the settings seeded for a new user
func DefaultSettingsFields() SettingsFields {
	notifications := DefaultNotifications()
	security := DefaultSecurity()
	enabled, disabled := true, false
	return SettingsFields{
		Theme:            types.ThemeLight,
		ColorScheme:      types.ColorSchemeEmerald,
		Language:         "english",
		Currency:         "usd",
		Notifications:    &notifications,
		SecuritySettings: &security,
		TwoFactorEnabled: &disabled,
		AccountActivity:  &enabled,
		TradingActivity:  &enabled,
	}
}

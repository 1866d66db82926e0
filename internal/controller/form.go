// Package controller holds the server-side state of the settings page and
// the profile header shown by the dashboard layout.
package controller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

// DefaultPaymentMethodName is the name given to a payment method added without one
const DefaultPaymentMethodName = "New Payment Method"

// FormState is the editable state of the settings page
type FormState struct {
	Theme            types.Theme                    `json:"theme"`
	ColorScheme      types.ColorScheme              `json:"colorScheme"`
	Notifications    models.NotificationPreferences `json:"notifications"`
	Language         string                         `json:"language"`
	Currency         string                         `json:"currency"`
	TwoFactorEnabled bool                           `json:"twoFactorEnabled"`
	AccountActivity  bool                           `json:"accountActivity"`
	TradingActivity  bool                           `json:"tradingActivity"`
	FormData         models.ProfileForm             `json:"formData"`
	SecuritySettings models.SecurityPreferences     `json:"securitySettings"`
	PaymentMethods   []models.PaymentMethodForm     `json:"paymentMethods"`
}

// DefaultFormState returns the state of a page that has not loaded anything
func DefaultFormState() FormState {
	return FormState{
		Theme:            types.ThemeLight,
		ColorScheme:      types.ColorSchemeEmerald,
		Notifications:    models.DefaultNotifications(),
		Language:         "english",
		Currency:         "usd",
		TwoFactorEnabled: false,
		AccountActivity:  true,
		TradingActivity:  true,
		FormData: models.ProfileForm{
			Country:        models.DefaultCountry,
			ProfilePicture: models.DefaultProfilePicture,
		},
		SecuritySettings: models.DefaultSecurity(),
		PaymentMethods: []models.PaymentMethodForm{
			{ID: 1, Type: types.PaymentMethodBank, Name: "Chase Bank ****1234", IsDefault: true, Verified: true, AddedDate: "2023-10-15"},
			{ID: 2, Type: types.PaymentMethodCard, Name: "Visa ****5678", IsDefault: false, Verified: true, AddedDate: "2023-11-02"},
		},
	}
}

// clone returns a deep copy
func (f FormState) clone() FormState {
	out := f
	out.PaymentMethods = append([]models.PaymentMethodForm(nil), f.PaymentMethods...)
	return out
}

// Validate checks the enumerated fields
func (f FormState) Validate() error {
	if !f.Theme.IsValid() {
		return apperrors.NewValidationError("theme", fmt.Sprintf("unsupported theme: %s", f.Theme))
	}
	if !f.ColorScheme.IsValid() {
		return apperrors.NewValidationError("colorScheme", fmt.Sprintf("unsupported color scheme: %s", f.ColorScheme))
	}
	if !f.SecuritySettings.SessionTimeout.IsValid() {
		return apperrors.NewValidationError("securitySettings.sessionTimeout",
			fmt.Sprintf("unsupported session timeout: %s", f.SecuritySettings.SessionTimeout))
	}
	seen := make(map[int64]bool, len(f.PaymentMethods))
	for i, m := range f.PaymentMethods {
		if !m.Type.IsValid() {
			return apperrors.NewValidationError(fmt.Sprintf("paymentMethods[%d].type", i),
				fmt.Sprintf("unsupported payment method type: %s", m.Type))
		}
		if seen[m.ID] {
			return apperrors.NewValidationError(fmt.Sprintf("paymentMethods[%d].id", i),
				fmt.Sprintf("duplicate payment method id: %d", m.ID))
		}
		if m.AddedDate != "" {
			if _, err := time.Parse(models.AddedDateLayout, m.AddedDate); err != nil {
				return apperrors.NewValidationError(fmt.Sprintf("paymentMethods[%d].addedDate", i),
					fmt.Sprintf("addedDate must be YYYY-MM-DD: %s", m.AddedDate))
			}
		}
		seen[m.ID] = true
	}
	return nil
}

func (f FormState) userFields() models.UserFields {
	return models.UserFields{
		FullName:       f.FormData.FullName,
		Phone:          f.FormData.Phone,
		Country:        f.FormData.Country,
		Bio:            f.FormData.Bio,
		ProfilePicture: f.FormData.ProfilePicture,
	}
}

func (f FormState) settingsFields() models.SettingsFields {
	notifications := f.Notifications
	security := f.SecuritySettings
	accountActivity := f.AccountActivity
	tradingActivity := f.TradingActivity
	twoFactor := f.TwoFactorEnabled
	return models.SettingsFields{
		Theme:            f.Theme,
		ColorScheme:      f.ColorScheme,
		Language:         f.Language,
		Currency:         f.Currency,
		Notifications:    &notifications,
		SecuritySettings: &security,
		TwoFactorEnabled: &twoFactor,
		AccountActivity:  &accountActivity,
		TradingActivity:  &tradingActivity,
	}
}

func (f FormState) paymentMethods() []models.PaymentMethod {
	out := make([]models.PaymentMethod, 0, len(f.PaymentMethods))
	for _, m := range f.PaymentMethods {
		out = append(out, models.PaymentMethod{
			Type:      m.Type,
			Name:      m.Name,
			IsDefault: m.IsDefault,
			Verified:  m.Verified,
			AddedDate: m.AddedDate,
		})
	}
	return out
}

// snapshot builds the backup blob of the state
func (f FormState) snapshot(savedAt time.Time) models.FormSnapshot {
	c := f.clone()
	if c.PaymentMethods == nil {
		c.PaymentMethods = []models.PaymentMethodForm{}
	}
	savedAt = savedAt.UTC()
	return models.FormSnapshot{
		Theme:            &c.Theme,
		ColorScheme:      &c.ColorScheme,
		Notifications:    &c.Notifications,
		Language:         &c.Language,
		Currency:         &c.Currency,
		TwoFactorEnabled: &c.TwoFactorEnabled,
		AccountActivity:  &c.AccountActivity,
		TradingActivity:  &c.TradingActivity,
		FormData:         &c.FormData,
		SecuritySettings: &c.SecuritySettings,
		PaymentMethods:   c.PaymentMethods,
		SavedAt:          &savedAt,
	}
}

// applyUser copies a backend profile into the form
func (f *FormState) applyUser(u *models.User) {
	country := u.Country
	if country == "" {
		country = models.DefaultCountry
	}
	picture := u.ProfilePicture
	if picture == "" {
		picture = models.DefaultProfilePicture
	}
	f.FormData = models.ProfileForm{
		FullName:       u.FullName,
		Email:          u.Email,
		Phone:          u.Phone,
		Country:        country,
		Bio:            u.Bio,
		ProfilePicture: picture,
	}
}

// applySettings copies a backend settings row into the form
func (f *FormState) applySettings(s *models.UserSettings) {
	if s.Theme != "" {
		f.Theme = s.Theme
	}
	if s.ColorScheme != "" {
		f.ColorScheme = s.ColorScheme
	}
	f.Notifications = s.Notifications
	if s.Language != "" {
		f.Language = s.Language
	}
	if s.Currency != "" {
		f.Currency = s.Currency
	}
	f.TwoFactorEnabled = s.TwoFactorEnabled
	f.AccountActivity = s.AccountActivity
	f.TradingActivity = s.TradingActivity
	f.SecuritySettings = s.SecuritySettings
	if f.SecuritySettings.SessionTimeout == "" {
		f.SecuritySettings.SessionTimeout = types.SessionTimeout30
	}
}

// formID derives the page-local id of a backend payment method from the
// last eight hex digits of its identifier.
func formID(backendID string, fallback int64) int64 {
	if len(backendID) >= 8 {
		if id, err := strconv.ParseInt(backendID[len(backendID)-8:], 16, 64); err == nil {
			return id
		}
	}
	return fallback
}

// applyPaymentMethods replaces the form's payment methods with backend rows
func (f *FormState) applyPaymentMethods(methods []*models.PaymentMethod) {
	out := make([]models.PaymentMethodForm, 0, len(methods))
	used := make(map[int64]bool, len(methods))
	for i, m := range methods {
		id := formID(m.ID, int64(i+1))
		for used[id] {
			id++
		}
		used[id] = true
		out = append(out, models.PaymentMethodForm{
			ID:        id,
			Type:      m.Type,
			Name:      m.Name,
			IsDefault: m.IsDefault,
			Verified:  m.Verified,
			AddedDate: m.AddedDate,
		})
	}
	f.PaymentMethods = out
}

// applySnapshot overlays whichever fields raw carries. Nested security
// preferences merge over the current ones. On a parse error f is unchanged.
func (f *FormState) applySnapshot(raw []byte) error {
	var snap models.FormSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	next := f.clone()
	if snap.FormData != nil {
		next.FormData = *snap.FormData
	}
	if snap.Theme != nil && *snap.Theme != "" {
		next.Theme = *snap.Theme
	}
	if snap.ColorScheme != nil && *snap.ColorScheme != "" {
		next.ColorScheme = *snap.ColorScheme
	}
	if snap.Notifications != nil {
		next.Notifications = *snap.Notifications
	}
	if snap.Language != nil && *snap.Language != "" {
		next.Language = *snap.Language
	}
	if snap.Currency != nil && *snap.Currency != "" {
		next.Currency = *snap.Currency
	}
	if snap.TwoFactorEnabled != nil {
		next.TwoFactorEnabled = *snap.TwoFactorEnabled
	}
	if snap.AccountActivity != nil {
		next.AccountActivity = *snap.AccountActivity
	}
	if snap.TradingActivity != nil {
		next.TradingActivity = *snap.TradingActivity
	}
	if rawSecurity, ok := fields["securitySettings"]; ok && snap.SecuritySettings != nil {
		security := next.SecuritySettings
		if err := json.Unmarshal(rawSecurity, &security); err != nil {
			return fmt.Errorf("failed to parse snapshot security settings: %w", err)
		}
		next.SecuritySettings = security
	}
	if snap.PaymentMethods != nil {
		next.PaymentMethods = append([]models.PaymentMethodForm(nil), snap.PaymentMethods...)
	}

	*f = next
	return nil
}

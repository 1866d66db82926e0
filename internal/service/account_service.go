// Package service implements the account operations of the dashboard user.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/storage"
	"github.com/crypto-dashboard/internal/types"
)

const backendName = "account backend"

// ErrUserNotFound is returned by writes that need an existing profile
var ErrUserNotFound = &types.ServiceError{
	Code:    apperrors.CodeUserNotFound,
	Message: "user not found",
}

// AccountService persists the profile, settings, payment methods and
// watchlist of the session user. Reads never fail on backend errors: they
// log and return an empty result. Writes return backend errors.
type AccountService struct {
	backend *Backend
	market  marketdata.Fetcher
}

// NewAccountService creates the service. A nil backend makes every read
// empty and every write fail with SERVICE_UNAVAILABLE.
func NewAccountService(backend *Backend, market marketdata.Fetcher) *AccountService {
	return &AccountService{
		backend: backend,
		market:  market,
	}
}

// Available reports whether a backend is configured
func (s *AccountService) Available() bool {
	return s.backend != nil
}

// Ping checks the backend
func (s *AccountService) Ping(ctx context.Context) error {
	if s.backend == nil {
		return apperrors.NewServiceUnavailableError(backendName)
	}
	if s.backend.Health == nil {
		return nil
	}
	return s.backend.Health.Ping(ctx)
}

func (s *AccountService) writable(ctx context.Context) (*session.Session, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if s.backend == nil {
		return nil, apperrors.NewServiceUnavailableError(backendName)
	}
	return sess, nil
}

// lookupUser returns the profile of email, nil when absent
func (s *AccountService) lookupUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.backend.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// requireUser returns the profile of email or ErrUserNotFound
func (s *AccountService) requireUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.lookupUser(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// readUser is the read-path lookup: failures are logged and collapse to nil
func (s *AccountService) readUser(ctx context.Context) (*models.User, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if s.backend == nil {
		logging.FromContext(ctx).Warn("Account backend not configured")
		return nil, nil
	}

	user, err := s.lookupUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Error getting user from backend")
		return nil, nil
	}
	return user, nil
}

// GetUser returns the session user's profile, nil when absent or unreachable
func (s *AccountService) GetUser(ctx context.Context) (*models.User, error) {
	return s.readUser(ctx)
}

// CreateOrUpdateUser overwrites the editable profile fields of an existing
// profile, or creates one with empty fields taken from the profile template.
func (s *AccountService) CreateOrUpdateUser(ctx context.Context, fields models.UserFields) (*models.User, error) {
	sess, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.lookupUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error creating/updating user")
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	if existing != nil {
		existing.FullName = fields.FullName
		existing.Phone = fields.Phone
		existing.Country = fields.Country
		existing.Bio = fields.Bio
		existing.ProfilePicture = fields.ProfilePicture

		if err := s.backend.Users.Update(ctx, existing); err != nil {
			logging.FromContext(ctx).WithError(err).Error("Error creating/updating user")
			return nil, apperrors.NewDatabaseError("update user", err)
		}
		return existing, nil
	}

	defaults := fields.WithDefaults()
	user := &models.User{
		Email:          sess.Email,
		FullName:       defaults.FullName,
		Phone:          defaults.Phone,
		Country:        defaults.Country,
		Bio:            defaults.Bio,
		ProfilePicture: defaults.ProfilePicture,
	}
	if err := s.backend.Users.Create(ctx, user); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error creating/updating user")
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("create user", err)
	}
	return user, nil
}

// GetUserSettings returns the session user's settings, nil when absent or unreachable
func (s *AccountService) GetUserSettings(ctx context.Context) (*models.UserSettings, error) {
	user, err := s.readUser(ctx)
	if err != nil || user == nil {
		return nil, err
	}

	settings, err := s.backend.Settings.GetByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).WithError(err).Warn("Error getting user settings from backend")
		}
		return nil, nil
	}
	return settings, nil
}

func validateSettings(fields models.SettingsFields) error {
	if fields.Theme != "" && !fields.Theme.IsValid() {
		return apperrors.NewValidationError("theme", fmt.Sprintf("unsupported theme: %s", fields.Theme))
	}
	if fields.ColorScheme != "" && !fields.ColorScheme.IsValid() {
		return apperrors.NewValidationError("color_scheme", fmt.Sprintf("unsupported color scheme: %s", fields.ColorScheme))
	}
	if fields.SecuritySettings != nil && fields.SecuritySettings.SessionTimeout != "" &&
		!fields.SecuritySettings.SessionTimeout.IsValid() {
		return apperrors.NewValidationError("security_settings.sessionTimeout",
			fmt.Sprintf("unsupported session timeout: %s", fields.SecuritySettings.SessionTimeout))
	}
	return nil
}

// newSettings builds the row inserted for a user without settings
func newSettings(userID string, fields models.SettingsFields) *models.UserSettings {
	defaults := models.DefaultSettingsFields()

	settings := &models.UserSettings{
		UserID:           userID,
		Theme:            defaults.Theme,
		ColorScheme:      defaults.ColorScheme,
		Language:         defaults.Language,
		Currency:         defaults.Currency,
		AccountActivity:  true,
		TradingActivity:  true,
	}
	applySettings(settings, fields)
	return settings
}

// applySettings overwrites the supplied fields. Empty strings and nil
// records leave the current value.
func applySettings(settings *models.UserSettings, fields models.SettingsFields) {
	if fields.Theme != "" {
		settings.Theme = fields.Theme
	}
	if fields.ColorScheme != "" {
		settings.ColorScheme = fields.ColorScheme
	}
	if fields.Language != "" {
		settings.Language = fields.Language
	}
	if fields.Currency != "" {
		settings.Currency = fields.Currency
	}
	if fields.Notifications != nil {
		settings.Notifications = *fields.Notifications
	}
	if fields.SecuritySettings != nil {
		settings.SecuritySettings = *fields.SecuritySettings
	}
	if fields.TwoFactorEnabled != nil {
		settings.TwoFactorEnabled = *fields.TwoFactorEnabled
	}
	if fields.AccountActivity != nil {
		settings.AccountActivity = *fields.AccountActivity
	}
	if fields.TradingActivity != nil {
		settings.TradingActivity = *fields.TradingActivity
	}
}

// SaveUserSettings updates the settings row of the session user, inserting
// it with defaults for unspecified fields when absent. The profile must exist.
func (s *AccountService) SaveUserSettings(ctx context.Context, fields models.SettingsFields) (*models.UserSettings, error) {
	sess, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(fields); err != nil {
		return nil, err
	}

	user, err := s.requireUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving user settings")
		return nil, err
	}

	existing, err := s.backend.Settings.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.FromContext(ctx).WithError(err).Error("Error saving user settings")
		return nil, apperrors.NewDatabaseError("get user settings", err)
	}

	if existing != nil {
		applySettings(existing, fields)
		if err := s.backend.Settings.Update(ctx, existing); err != nil {
			logging.FromContext(ctx).WithError(err).Error("Error saving user settings")
			return nil, apperrors.NewDatabaseError("update user settings", err)
		}
		return existing, nil
	}

	settings := newSettings(user.ID, fields)
	if err := s.backend.Settings.Create(ctx, settings); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving user settings")
		return nil, apperrors.NewDatabaseError("create user settings", err)
	}
	return settings, nil
}

// GetPaymentMethods returns the session user's payment methods, newest first.
// Failures yield an empty list.
func (s *AccountService) GetPaymentMethods(ctx context.Context) ([]*models.PaymentMethod, error) {
	user, err := s.readUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []*models.PaymentMethod{}, nil
	}

	methods, err := s.backend.Payments.ListByUserID(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error getting payment methods")
		return []*models.PaymentMethod{}, nil
	}
	return methods, nil
}

// SavePaymentMethods replaces every payment method of the session user with
// methods. Callers pass the full desired set.
func (s *AccountService) SavePaymentMethods(ctx context.Context, methods []models.PaymentMethod) ([]*models.PaymentMethod, error) {
	sess, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.PaymentMethod, 0, len(methods))
	for i := range methods {
		m := methods[i]
		if !m.Type.IsValid() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("payment_methods[%d].type", i),
				fmt.Sprintf("unsupported payment method type: %s", m.Type))
		}
		if strings.TrimSpace(m.Name) == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("payment_methods[%d].name", i), "name is required")
		}
		if m.AddedDate == "" {
			m.AddedDate = time.Now().Format(models.AddedDateLayout)
		} else if _, err := time.Parse(models.AddedDateLayout, m.AddedDate); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("payment_methods[%d].added_date", i),
				fmt.Sprintf("added_date must be YYYY-MM-DD: %s", m.AddedDate))
		}
		rows = append(rows, &m)
	}

	user, err := s.requireUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving payment methods")
		return nil, err
	}

	if err := s.backend.Payments.ReplaceAll(ctx, user.ID, rows); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving payment methods")
		return nil, apperrors.NewDatabaseError("save payment methods", err)
	}
	return rows, nil
}

// GetWatchlist returns the session user's watchlist, newest first. Failures
// yield an empty list.
func (s *AccountService) GetWatchlist(ctx context.Context) ([]*models.WatchlistItem, error) {
	user, err := s.readUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []*models.WatchlistItem{}, nil
	}

	items, err := s.backend.Watchlist.ListByUserID(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error getting watchlist")
		return []*models.WatchlistItem{}, nil
	}
	return items, nil
}

// NormalizeSymbol trims and upper-cases a ticker symbol
func NormalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", apperrors.NewInvalidParameterError("symbol", "symbol is required")
	}
	return normalized, nil
}

// SaveWatchlistItem adds symbol, upper-cased, to the watchlist. A symbol
// already on the list yields CONFLICT.
func (s *AccountService) SaveWatchlistItem(ctx context.Context, symbol string) (*models.WatchlistItem, error) {
	sess, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	user, err := s.requireUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving watchlist item")
		return nil, err
	}

	item := &models.WatchlistItem{UserID: user.ID, Symbol: normalized}
	if err := s.backend.Watchlist.Add(ctx, item); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error saving watchlist item")
		return nil, apperrors.NewDatabaseError("save watchlist item", err)
	}
	return item, nil
}

// RemoveWatchlistItem removes symbol, upper-cased, from the watchlist
func (s *AccountService) RemoveWatchlistItem(ctx context.Context, symbol string) error {
	sess, err := s.writable(ctx)
	if err != nil {
		return err
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}

	user, err := s.requireUser(ctx, sess.Email)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error removing watchlist item")
		return err
	}

	if err := s.backend.Watchlist.Remove(ctx, user.ID, normalized); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error removing watchlist item")
		return apperrors.NewDatabaseError("remove watchlist item", err)
	}
	return nil
}

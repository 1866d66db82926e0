package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crypto-dashboard/internal/models"
)

// SettingsRepository handles user_settings persistence.
// The two nested preference records are stored as JSONB.
type SettingsRepository struct {
	db *PostgresDB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *PostgresDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func marshalPreferences(s *models.UserSettings) (notifications, security []byte, err error) {
	notifications, err = json.Marshal(s.Notifications)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal notifications: %w", err)
	}
	security, err = json.Marshal(s.SecuritySettings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal security settings: %w", err)
	}
	return notifications, security, nil
}

// Create inserts the settings row of a user
func (r *SettingsRepository) Create(ctx context.Context, settings *models.UserSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}

	now := time.Now()
	settings.CreatedAt = now
	settings.UpdatedAt = now

	notificationsJSON, securityJSON, err := marshalPreferences(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_settings (
			id, user_id, theme, color_scheme, language, currency,
			notifications, security_settings, two_factor_enabled,
			account_activity, trading_activity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		settings.ID,
		settings.UserID,
		settings.Theme,
		settings.ColorScheme,
		settings.Language,
		settings.Currency,
		notificationsJSON,
		securityJSON,
		settings.TwoFactorEnabled,
		settings.AccountActivity,
		settings.TradingActivity,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("create user settings", err, fmt.Sprintf("settings already exist for user %s", settings.UserID))
	}

	return nil
}

// GetByUserID retrieves the settings row of a user
func (r *SettingsRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT id, user_id, theme, color_scheme, language, currency,
		       notifications, security_settings, two_factor_enabled,
		       account_activity, trading_activity, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var settings models.UserSettings
	var notificationsJSON, securityJSON []byte

	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(
		&settings.ID,
		&settings.UserID,
		&settings.Theme,
		&settings.ColorScheme,
		&settings.Language,
		&settings.Currency,
		&notificationsJSON,
		&securityJSON,
		&settings.TwoFactorEnabled,
		&settings.AccountActivity,
		&settings.TradingActivity,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("settings for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	if len(notificationsJSON) > 0 {
		if err := json.Unmarshal(notificationsJSON, &settings.Notifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notifications: %w", err)
		}
	}
	if len(securityJSON) > 0 {
		if err := json.Unmarshal(securityJSON, &settings.SecuritySettings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal security settings: %w", err)
		}
	}

	return &settings, nil
}

// Update overwrites the settings row of settings.UserID
func (r *SettingsRepository) Update(ctx context.Context, settings *models.UserSettings) error {
	settings.UpdatedAt = time.Now()

	notificationsJSON, securityJSON, err := marshalPreferences(settings)
	if err != nil {
		return err
	}

	query := `
		UPDATE user_settings
		SET theme = $2, color_scheme = $3, language = $4, currency = $5,
		    notifications = $6, security_settings = $7, two_factor_enabled = $8,
		    account_activity = $9, trading_activity = $10, updated_at = $11
		WHERE user_id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		settings.UserID,
		settings.Theme,
		settings.ColorScheme,
		settings.Language,
		settings.Currency,
		notificationsJSON,
		securityJSON,
		settings.TwoFactorEnabled,
		settings.AccountActivity,
		settings.TradingActivity,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("settings for user %s: %w", settings.UserID, ErrNotFound)
	}

	return nil
}

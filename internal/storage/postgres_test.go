package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

func createTestUser(t *testing.T, db *PostgresDB) *models.User {
	t.Helper()

	fields := models.UserFields{}.WithDefaults()
	user := &models.User{
		Email:          "demo@example.com",
		FullName:       fields.FullName,
		Phone:          fields.Phone,
		Country:        fields.Country,
		Bio:            fields.Bio,
		ProfilePicture: fields.ProfilePicture,
	}
	require.NoError(t, NewUserRepository(db).Create(testContext(t), user))
	return user
}

func TestPostgresDB_Ping(t *testing.T) {
	db := newTestPostgres(t)

	if err := db.Ping(testContext(t)); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.Pool() == nil {
		t.Error("Pool() returned nil")
	}
}

func TestUserRepository_CreateGetUpdate(t *testing.T) {
	db := newTestPostgres(t)
	repo := NewUserRepository(db)
	ctx := testContext(t)

	user := createTestUser(t, db)
	assert.NotEmpty(t, user.ID)

	got, err := repo.GetByEmail(ctx, "demo@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultFullName, got.FullName)

	got.Bio = "Long-term holder."
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Long-term holder.", again.Bio)
	assert.True(t, again.UpdatedAt.After(user.UpdatedAt) || again.UpdatedAt.Equal(user.UpdatedAt))

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = repo.Create(ctx, &models.User{Email: "demo@example.com"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	db := newTestPostgres(t)
	user := createTestUser(t, db)
	repo := NewSettingsRepository(db)
	ctx := testContext(t)

	_, err := repo.GetByUserID(ctx, user.ID)
	require.True(t, errors.Is(err, ErrNotFound))

	notifications := models.DefaultNotifications()
	notifications.MarketNews = true
	security := models.DefaultSecurity()
	security.SessionTimeout = types.SessionTimeout120
	security.IPWhitelist = "10.0.0.1"

	settings := &models.UserSettings{
		UserID:           user.ID,
		Theme:            types.ThemeDark,
		ColorScheme:      types.ColorSchemePurple,
		Language:         "german",
		Currency:         "eur",
		Notifications:    notifications,
		SecuritySettings: security,
		AccountActivity:  true,
	}
	require.NoError(t, repo.Create(ctx, settings))

	got, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, notifications, got.Notifications)
	assert.Equal(t, security, got.SecuritySettings)
	assert.False(t, got.TradingActivity)

	got.TwoFactorEnabled = true
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.TwoFactorEnabled)
}

func TestPaymentMethodRepository_ReplaceAll(t *testing.T) {
	db := newTestPostgres(t)
	user := createTestUser(t, db)
	repo := NewPaymentMethodRepository(db)
	ctx := testContext(t)

	listA := []*models.PaymentMethod{
		{Type: types.PaymentMethodBank, Name: "Chase Bank ****1234", IsDefault: true, Verified: true, AddedDate: "2023-10-15"},
		{Type: types.PaymentMethodCard, Name: "Visa ****5678", Verified: true, AddedDate: "2023-11-02"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, user.ID, listA))

	listB := []*models.PaymentMethod{
		{Type: types.PaymentMethodCard, Name: "Amex ****0005", IsDefault: true, AddedDate: "2024-01-20"},
	}
	require.NoError(t, repo.ReplaceAll(ctx, user.ID, listB))

	got, err := repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Amex ****0005", got[0].Name)
	assert.Equal(t, "2024-01-20", got[0].AddedDate)

	require.NoError(t, repo.ReplaceAll(ctx, user.ID, nil))
	got, err = repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPaymentMethodRepository_KeepsSavedOrder(t *testing.T) {
	db := newTestPostgres(t)
	user := createTestUser(t, db)
	repo := NewPaymentMethodRepository(db)
	ctx := testContext(t)

	methods := []*models.PaymentMethod{}
	for _, m := range models.DefaultPaymentMethods() {
		m := m
		methods = append(methods, &m)
	}
	require.NoError(t, repo.ReplaceAll(ctx, user.ID, methods))

	got, err := repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chase Bank ****1234", got[0].Name)
	assert.Equal(t, "Visa ****5678", got[1].Name)
}

func TestWatchlistRepository(t *testing.T) {
	db := newTestPostgres(t)
	user := createTestUser(t, db)
	repo := NewWatchlistRepository(db)
	ctx := testContext(t)

	require.NoError(t, repo.Add(ctx, &models.WatchlistItem{UserID: user.ID, Symbol: "btc"}))

	items, err := repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BTC", items[0].Symbol)

	dup := &models.WatchlistItem{UserID: user.ID, Symbol: "BTC"}
	require.NoError(t, repo.Add(ctx, dup))
	assert.Equal(t, items[0].ID, dup.ID)
	items, err = repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Remove(ctx, user.ID, "Btc"))
	items, err = repo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// removing an absent symbol is a no-op
	assert.NoError(t, repo.Remove(ctx, user.ID, "ETH"))
}

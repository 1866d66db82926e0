package service

import (
	"context"

	"github.com/crypto-dashboard/internal/circuitbreaker"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/storage"
)

// Repository interfaces for dependency injection

// UserRepository interface for profile operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetPasswordHash(ctx context.Context, userID string, hash string) error
}

// SettingsRepository interface for settings operations
type SettingsRepository interface {
	Create(ctx context.Context, settings *models.UserSettings) error
	GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error)
	Update(ctx context.Context, settings *models.UserSettings) error
}

// PaymentMethodRepository interface for payment method operations
type PaymentMethodRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*models.PaymentMethod, error)
	ReplaceAll(ctx context.Context, userID string, methods []*models.PaymentMethod) error
}

// WatchlistRepository interface for watchlist operations
type WatchlistRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*models.WatchlistItem, error)
	Add(ctx context.Context, item *models.WatchlistItem) error
	Remove(ctx context.Context, userID string, symbol string) error
}

// Pinger checks backend connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend groups the repositories of the relational backend
type Backend struct {
	Users     UserRepository
	Settings  SettingsRepository
	Payments  PaymentMethodRepository
	Watchlist WatchlistRepository
	Health    Pinger
}

// NewPostgresBackend wires the Postgres repositories of db
func NewPostgresBackend(db *storage.PostgresDB) *Backend {
	return &Backend{
		Users:     storage.NewUserRepository(db),
		Settings:  storage.NewSettingsRepository(db),
		Payments:  storage.NewPaymentMethodRepository(db),
		Watchlist: storage.NewWatchlistRepository(db),
		Health:    NewGuardedPinger(db, circuitbreaker.DefaultConfig("postgres")),
	}
}

// GuardedPinger fails fast while the backend circuit is open
type GuardedPinger struct {
	pinger  Pinger
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedPinger wraps pinger with a circuit breaker
func NewGuardedPinger(pinger Pinger, config *circuitbreaker.Config) *GuardedPinger {
	return &GuardedPinger{
		pinger:  pinger,
		breaker: circuitbreaker.NewCircuitBreaker(config),
	}
}

// Ping checks connectivity through the breaker
func (g *GuardedPinger) Ping(ctx context.Context) error {
	return g.breaker.Execute(ctx, func() error {
		return g.pinger.Ping(ctx)
	})
}

// State reports the breaker state
func (g *GuardedPinger) State() circuitbreaker.State {
	return g.breaker.State()
}

// Package servicetest provides an in-memory account backend for tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/storage"
)

// Memory stores the four account entities in maps. Setting Err makes every
// call fail with it, which stands in for an unreachable backend.
type Memory struct {
	mu        sync.Mutex
	users     map[string]*models.User
	settings  map[string]*models.UserSettings
	payments  map[string][]*models.PaymentMethod
	watchlist map[string][]*models.WatchlistItem
	err       error
	calls     map[string]int
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]*models.User),
		settings:  make(map[string]*models.UserSettings),
		payments:  make(map[string][]*models.PaymentMethod),
		watchlist: make(map[string][]*models.WatchlistItem),
		calls:     make(map[string]int),
	}
}

// SetErr makes every subsequent call return err; nil restores the store
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times op was invoked
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) enter(op string) error {
	m.calls[op]++
	return m.err
}

// Users returns the user repository view
func (m *Memory) Users() *Users { return &Users{m} }

// Settings returns the settings repository view
func (m *Memory) Settings() *Settings { return &Settings{m} }

// Payments returns the payment method repository view
func (m *Memory) Payments() *Payments { return &Payments{m} }

// Watchlist returns the watchlist repository view
func (m *Memory) Watchlist() *Watchlist { return &Watchlist{m} }

// Ping fails while an error is set
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enter("ping")
}

// Users implements the user repository
type Users struct{ m *Memory }

func (r *Users) Create(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("users.create"); err != nil {
		return err
	}
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return apperrors.NewConflictError(fmt.Sprintf("user already exists: %s", user.Email))
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.m.users[user.ID] = &cp
	return nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("users.get"); err != nil {
		return nil, err
	}
	for _, u := range r.m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func (r *Users) Update(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("users.update"); err != nil {
		return err
	}
	stored, ok := r.m.users[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrNotFound)
	}
	user.UpdatedAt = time.Now()
	stored.FullName = user.FullName
	stored.Phone = user.Phone
	stored.Country = user.Country
	stored.Bio = user.Bio
	stored.ProfilePicture = user.ProfilePicture
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *Users) SetPasswordHash(ctx context.Context, userID string, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("users.password"); err != nil {
		return err
	}
	stored, ok := r.m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	stored.PasswordHash = hash
	return nil
}

// Settings implements the settings repository
type Settings struct{ m *Memory }

func (r *Settings) Create(ctx context.Context, settings *models.UserSettings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("settings.create"); err != nil {
		return err
	}
	if _, ok := r.m.settings[settings.UserID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("settings already exist for user %s", settings.UserID))
	}
	if settings.ID == "" {
		settings.ID = uuid.New().String()
	}
	now := time.Now()
	settings.CreatedAt, settings.UpdatedAt = now, now
	cp := *settings
	r.m.settings[settings.UserID] = &cp
	return nil
}

func (r *Settings) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("settings.get"); err != nil {
		return nil, err
	}
	s, ok := r.m.settings[userID]
	if !ok {
		return nil, fmt.Errorf("settings for user %s: %w", userID, storage.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r *Settings) Update(ctx context.Context, settings *models.UserSettings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("settings.update"); err != nil {
		return err
	}
	if _, ok := r.m.settings[settings.UserID]; !ok {
		return fmt.Errorf("settings for user %s: %w", settings.UserID, storage.ErrNotFound)
	}
	settings.UpdatedAt = time.Now()
	cp := *settings
	r.m.settings[settings.UserID] = &cp
	return nil
}

// Payments implements the payment method repository
type Payments struct{ m *Memory }

func (r *Payments) ListByUserID(ctx context.Context, userID string) ([]*models.PaymentMethod, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("payments.list"); err != nil {
		return nil, err
	}
	out := make([]*models.PaymentMethod, 0, len(r.m.payments[userID]))
	for _, p := range r.m.payments[userID] {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Payments) ReplaceAll(ctx context.Context, userID string, methods []*models.PaymentMethod) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("payments.replace"); err != nil {
		return err
	}
	now := time.Now()
	stored := make([]*models.PaymentMethod, 0, len(methods))
	for i, p := range methods {
		p.ID = uuid.New().String()
		p.UserID = userID
		p.CreatedAt = now.Add(-time.Duration(i) * time.Microsecond)
		if p.AddedDate == "" {
			p.AddedDate = now.Format(models.AddedDateLayout)
		}
		cp := *p
		stored = append(stored, &cp)
	}
	r.m.payments[userID] = stored
	return nil
}

// Watchlist implements the watchlist repository
type Watchlist struct{ m *Memory }

func (r *Watchlist) ListByUserID(ctx context.Context, userID string) ([]*models.WatchlistItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("watchlist.list"); err != nil {
		return nil, err
	}
	out := make([]*models.WatchlistItem, 0, len(r.m.watchlist[userID]))
	for i := len(r.m.watchlist[userID]) - 1; i >= 0; i-- {
		cp := *r.m.watchlist[userID][i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *Watchlist) Add(ctx context.Context, item *models.WatchlistItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("watchlist.add"); err != nil {
		return err
	}
	item.Symbol = strings.ToUpper(item.Symbol)
	for _, existing := range r.m.watchlist[item.UserID] {
		if existing.Symbol == item.Symbol {
			*item = *existing
			return nil
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.AddedAt = time.Now()
	cp := *item
	r.m.watchlist[item.UserID] = append(r.m.watchlist[item.UserID], &cp)
	return nil
}

func (r *Watchlist) Remove(ctx context.Context, userID string, symbol string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.enter("watchlist.remove"); err != nil {
		return err
	}
	symbol = strings.ToUpper(symbol)
	kept := r.m.watchlist[userID][:0]
	for _, item := range r.m.watchlist[userID] {
		if item.Symbol != symbol {
			kept = append(kept, item)
		}
	}
	r.m.watchlist[userID] = kept
	return nil
}

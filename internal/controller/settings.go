package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/service"
	"github.com/crypto-dashboard/internal/sink"
	"github.com/crypto-dashboard/internal/storage"
	"github.com/crypto-dashboard/internal/types"
)

// Accounts is the part of the account service the controllers use
type Accounts interface {
	Ping(ctx context.Context) error
	GetUser(ctx context.Context) (*models.User, error)
	GetUserSettings(ctx context.Context) (*models.UserSettings, error)
	GetPaymentMethods(ctx context.Context) ([]*models.PaymentMethod, error)
	CreateOrUpdateUser(ctx context.Context, fields models.UserFields) (*models.User, error)
	SaveUserSettings(ctx context.Context, fields models.SettingsFields) (*models.UserSettings, error)
	SavePaymentMethods(ctx context.Context, methods []models.PaymentMethod) ([]*models.PaymentMethod, error)
	ChangePassword(ctx context.Context, change service.PasswordChange) error
}

// SnapshotStore keeps the backup blob of each user
type SnapshotStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Sink names reported by Save
const (
	SinkBackend  = "backend"
	SinkSnapshot = "snapshot"
)

// LoadSource says where Load took the form state from
type LoadSource string

const (
	LoadSourceBackend  LoadSource = "backend"
	LoadSourceSnapshot LoadSource = "snapshot"
	LoadSourceDefaults LoadSource = "defaults"
)

// LoadResult is the outcome of Load
type LoadResult struct {
	Source LoadSource `json:"source"`
	State  FormState  `json:"state"`
}

// SaveResult is the outcome of Save
type SaveResult struct {
	Status      types.SaveStatus `json:"status"`
	BackendErr  error            `json:"-"`
	SnapshotErr error            `json:"-"`
	Succeeded   []string         `json:"succeeded"`
	SavedAt     time.Time        `json:"savedAt"`
}

// Degraded reports whether the save reached only the snapshot store
func (r SaveResult) Degraded() bool {
	return r.BackendErr != nil && r.SnapshotErr == nil
}

// Options configures a SettingsController
type Options struct {
	KeyPrefix        string
	StatusResetDelay time.Duration
}

// saveJob is the value written to every sink by one Save
type saveJob struct {
	state    FormState
	password service.PasswordChange
	savedAt  time.Time
}

// SettingsController owns the settings page state of one user. Edits are
// serialized; concurrent saves are not guarded against and the later one
// decides the status.
type SettingsController struct {
	email     string
	accounts  Accounts
	snapshots SnapshotStore
	keyPrefix string
	status    *StatusTracker
	writer    *sink.Writer[*saveJob]
	now       func() time.Time

	mu       sync.Mutex
	state    FormState
	password service.PasswordChange
	lastID   int64
}

// NewSettingsController creates the controller of email with default state
func NewSettingsController(email string, accounts Accounts, snapshots SnapshotStore, opts Options) *SettingsController {
	c := &SettingsController{
		email:     email,
		accounts:  accounts,
		snapshots: snapshots,
		keyPrefix: opts.KeyPrefix,
		status:    NewStatusTracker(opts.StatusResetDelay),
		now:       time.Now,
		state:     DefaultFormState(),
	}

	c.writer = sink.NewWriter[*saveJob](sink.BestEffort,
		sink.Func[*saveJob]{SinkName: SinkBackend, WriteFn: c.writeBackend},
		sink.Func[*saveJob]{SinkName: SinkSnapshot, WriteFn: c.writeSnapshot},
	)
	return c
}

func (c *SettingsController) snapshotKey() string {
	return storage.SnapshotKey(c.keyPrefix, c.email)
}

func (c *SettingsController) logger(ctx context.Context) *logging.Logger {
	return logging.FromContext(ctx).WithFields(map[string]interface{}{
		logging.FieldComponent: "settings",
		logging.FieldUser:      c.email,
	})
}

// State returns a copy of the form state
func (c *SettingsController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Status returns the save status
func (c *SettingsController) Status() types.SaveStatus {
	return c.status.Status()
}

// StatusChangedAt returns when the save status last changed
func (c *SettingsController) StatusChangedAt() time.Time {
	return c.status.ChangedAt()
}

// PasswordPending reports whether a password change waits for the next save
func (c *SettingsController) PasswordPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.password.Empty()
}

// Close stops the pending status reset
func (c *SettingsController) Close() {
	c.status.Stop()
}

// Load reads the profile, settings and payment methods from the backend.
// When the backend fails, the snapshot is applied field by field instead.
// A missing or unreadable snapshot leaves the state as it was.
func (c *SettingsController) Load(ctx context.Context) (LoadResult, error) {
	logger := c.logger(ctx)

	c.mu.Lock()
	next := c.state.clone()
	c.mu.Unlock()

	err := c.loadBackend(ctx, &next)
	if err == nil {
		c.mu.Lock()
		c.state = next
		c.mu.Unlock()
		return LoadResult{Source: LoadSourceBackend, State: next.clone()}, nil
	}
	if apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		return LoadResult{}, err
	}
	logger.WithError(err).Warn("Failed to load user data, trying snapshot")

	source := LoadSourceDefaults
	if c.snapshots != nil {
		raw, serr := c.snapshots.Load(ctx, c.snapshotKey())
		switch {
		case errors.Is(serr, storage.ErrNotFound):
		case serr != nil:
			logger.WithError(serr).Warn("Failed to read settings snapshot")
		default:
			c.mu.Lock()
			cur := c.state.clone()
			if perr := cur.applySnapshot(raw); perr != nil {
				logger.WithError(perr).Error("Failed to load saved settings")
			} else {
				c.state = cur
				source = LoadSourceSnapshot
			}
			c.mu.Unlock()
		}
	}

	return LoadResult{Source: source, State: c.State()}, nil
}

func (c *SettingsController) loadBackend(ctx context.Context, next *FormState) error {
	if err := c.accounts.Ping(ctx); err != nil {
		return err
	}

	user, err := c.accounts.GetUser(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		next.applyUser(user)
	}

	settings, err := c.accounts.GetUserSettings(ctx)
	if err != nil {
		return err
	}
	if settings != nil {
		next.applySettings(settings)
	}

	methods, err := c.accounts.GetPaymentMethods(ctx)
	if err != nil {
		return err
	}
	if len(methods) > 0 {
		next.applyPaymentMethods(methods)
	}
	return nil
}

// Save writes the form to the backend and to the snapshot store. The status
// ends saved when the snapshot was written, whatever the backend outcome.
func (c *SettingsController) Save(ctx context.Context) SaveResult {
	c.status.Begin()

	c.mu.Lock()
	job := &saveJob{
		state:    c.state.clone(),
		password: c.password,
		savedAt:  c.now(),
	}
	c.mu.Unlock()

	report := c.writer.Write(ctx, job)

	result := SaveResult{SavedAt: job.savedAt, Succeeded: report.Succeeded()}
	for _, o := range report.Outcomes {
		switch o.Sink {
		case SinkBackend:
			result.BackendErr = o.Err
		case SinkSnapshot:
			result.SnapshotErr = o.Err
		}
	}

	if result.BackendErr == nil && !job.password.Empty() {
		c.mu.Lock()
		if c.password == job.password {
			c.password = service.PasswordChange{}
		}
		c.mu.Unlock()
	}

	c.status.Finish(result.SnapshotErr == nil)
	result.Status = c.status.Status()

	logger := c.logger(ctx)
	switch {
	case report.OK():
		logger.Info("Settings saved")
	case result.Degraded():
		logger.WithError(result.BackendErr).Warn("Settings saved to snapshot only")
	default:
		logger.WithError(report.Err()).Error("Failed to save settings")
	}
	return result
}

func (c *SettingsController) writeBackend(ctx context.Context, job *saveJob) error {
	if _, err := c.accounts.CreateOrUpdateUser(ctx, job.state.userFields()); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if _, err := c.accounts.SaveUserSettings(ctx, job.state.settingsFields()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if !job.password.Empty() {
		if err := c.accounts.ChangePassword(ctx, job.password); err != nil {
			return fmt.Errorf("failed to change password: %w", err)
		}
	}
	if _, err := c.accounts.SavePaymentMethods(ctx, job.state.paymentMethods()); err != nil {
		return fmt.Errorf("failed to save payment methods: %w", err)
	}
	return nil
}

func (c *SettingsController) writeSnapshot(ctx context.Context, job *saveJob) error {
	if c.snapshots == nil {
		return apperrors.NewServiceUnavailableError("snapshot store")
	}
	data, err := json.Marshal(job.state.snapshot(job.savedAt))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.snapshots.Save(ctx, c.snapshotKey(), data); err != nil {
		return apperrors.NewSnapshotError("save", err)
	}
	return nil
}

// Edit operations

// UpdateProfile sets profile form fields by name. Unknown names reject the
// whole update.
func (c *SettingsController) UpdateProfile(fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.FormData
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := fields[name]
		switch name {
		case "fullName":
			next.FullName = value
		case "email":
			next.Email = value
		case "phone":
			next.Phone = value
		case "country":
			next.Country = value
		case "bio":
			next.Bio = value
		case "profilePicture":
			next.ProfilePicture = value
		default:
			return apperrors.NewInvalidParameterError(name, "unknown profile field")
		}
	}
	c.state.FormData = next
	return nil
}

// UpdateProfileField sets one profile form field
func (c *SettingsController) UpdateProfileField(field, value string) error {
	return c.UpdateProfile(map[string]string{field: value})
}

// SetNotifications sets notification toggles by name. Unknown names reject
// the whole update.
func (c *SettingsController) SetNotifications(toggles map[string]bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.Notifications
	for name, value := range toggles {
		switch name {
		case "email":
			next.Email = value
		case "push":
			next.Push = value
		case "sms":
			next.SMS = value
		case "browser":
			next.Browser = value
		case "priceAlerts":
			next.PriceAlerts = value
		case "tradingAlerts":
			next.TradingAlerts = value
		case "securityAlerts":
			next.SecurityAlerts = value
		case "marketNews":
			next.MarketNews = value
		default:
			return apperrors.NewInvalidParameterError(name, "unknown notification")
		}
	}
	c.state.Notifications = next
	return nil
}

// SetNotification sets one notification toggle
func (c *SettingsController) SetNotification(field string, value bool) error {
	return c.SetNotifications(map[string]bool{field: value})
}

// SecurityUpdate carries the security form fields to change. Password
// fields are held until the next save and never stored in the snapshot.
type SecurityUpdate struct {
	CurrentPassword        *string               `json:"currentPassword,omitempty"`
	NewPassword            *string               `json:"newPassword,omitempty"`
	ConfirmPassword        *string               `json:"confirmPassword,omitempty"`
	TwoFactorEnabled       *bool                 `json:"twoFactorEnabled,omitempty"`
	LoginNotifications     *bool                 `json:"loginNotifications,omitempty"`
	DeviceManagement       *bool                 `json:"deviceManagement,omitempty"`
	SessionTimeout         *types.SessionTimeout `json:"sessionTimeout,omitempty"`
	IPWhitelist            *string               `json:"ipWhitelist,omitempty"`
	WithdrawalConfirmation *bool                 `json:"withdrawalConfirmation,omitempty"`
	APIAccess              *bool                 `json:"apiAccess,omitempty"`
}

// UpdateSecurity applies the supplied security fields
func (c *SettingsController) UpdateSecurity(u SecurityUpdate) error {
	if u.SessionTimeout != nil && !u.SessionTimeout.IsValid() {
		return apperrors.NewValidationError("sessionTimeout", fmt.Sprintf("unsupported session timeout: %s", *u.SessionTimeout))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sec := &c.state.SecuritySettings
	if u.CurrentPassword != nil {
		c.password.CurrentPassword = *u.CurrentPassword
	}
	if u.NewPassword != nil {
		c.password.NewPassword = *u.NewPassword
	}
	if u.ConfirmPassword != nil {
		c.password.ConfirmPassword = *u.ConfirmPassword
	}
	if u.TwoFactorEnabled != nil {
		c.state.TwoFactorEnabled = *u.TwoFactorEnabled
	}
	if u.LoginNotifications != nil {
		sec.LoginNotifications = *u.LoginNotifications
	}
	if u.DeviceManagement != nil {
		sec.DeviceManagement = *u.DeviceManagement
	}
	if u.SessionTimeout != nil {
		sec.SessionTimeout = *u.SessionTimeout
	}
	if u.IPWhitelist != nil {
		sec.IPWhitelist = *u.IPWhitelist
	}
	if u.WithdrawalConfirmation != nil {
		sec.WithdrawalConfirmation = *u.WithdrawalConfirmation
	}
	if u.APIAccess != nil {
		sec.APIAccess = *u.APIAccess
	}
	return nil
}

// PreferencesUpdate carries the appearance, locale and activity fields to change
type PreferencesUpdate struct {
	Theme           *types.Theme       `json:"theme,omitempty"`
	ColorScheme     *types.ColorScheme `json:"colorScheme,omitempty"`
	Language        *string            `json:"language,omitempty"`
	Currency        *string            `json:"currency,omitempty"`
	AccountActivity *bool              `json:"accountActivity,omitempty"`
	TradingActivity *bool              `json:"tradingActivity,omitempty"`
}

// UpdatePreferences applies the supplied preference fields
func (c *SettingsController) UpdatePreferences(u PreferencesUpdate) error {
	if u.Theme != nil && !u.Theme.IsValid() {
		return apperrors.NewValidationError("theme", fmt.Sprintf("unsupported theme: %s", *u.Theme))
	}
	if u.ColorScheme != nil && !u.ColorScheme.IsValid() {
		return apperrors.NewValidationError("colorScheme", fmt.Sprintf("unsupported color scheme: %s", *u.ColorScheme))
	}
	if u.Language != nil && strings.TrimSpace(*u.Language) == "" {
		return apperrors.NewValidationError("language", "language cannot be empty")
	}
	if u.Currency != nil && strings.TrimSpace(*u.Currency) == "" {
		return apperrors.NewValidationError("currency", "currency cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if u.Theme != nil {
		c.state.Theme = *u.Theme
	}
	if u.ColorScheme != nil {
		c.state.ColorScheme = *u.ColorScheme
	}
	if u.Language != nil {
		c.state.Language = *u.Language
	}
	if u.Currency != nil {
		c.state.Currency = *u.Currency
	}
	if u.AccountActivity != nil {
		c.state.AccountActivity = *u.AccountActivity
	}
	if u.TradingActivity != nil {
		c.state.TradingActivity = *u.TradingActivity
	}
	return nil
}

// PaymentMethodInput describes a payment method to add. Empty fields take
// the values of a new unverified card.
type PaymentMethodInput struct {
	Type types.PaymentMethodType `json:"type"`
	Name string                  `json:"name"`
}

// AddPaymentMethod appends an unverified, non-default payment method added today
func (c *SettingsController) AddPaymentMethod(in PaymentMethodInput) (models.PaymentMethodForm, error) {
	if in.Type == "" {
		in.Type = types.PaymentMethodCard
	}
	if !in.Type.IsValid() {
		return models.PaymentMethodForm{}, apperrors.NewValidationError("type", fmt.Sprintf("unsupported payment method type: %s", in.Type))
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = DefaultPaymentMethodName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	id := now.UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	for c.indexOf(id) >= 0 {
		id++
	}
	c.lastID = id

	method := models.PaymentMethodForm{
		ID:        id,
		Type:      in.Type,
		Name:      in.Name,
		IsDefault: false,
		Verified:  false,
		AddedDate: now.Format(models.AddedDateLayout),
	}
	c.state.PaymentMethods = append(c.state.PaymentMethods, method)
	return method, nil
}

func (c *SettingsController) indexOf(id int64) int {
	for i, m := range c.state.PaymentMethods {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// RemovePaymentMethod removes the payment method with the page-local id
func (c *SettingsController) RemovePaymentMethod(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return apperrors.NewNotFoundError("payment method", fmt.Sprint(id))
	}
	methods := make([]models.PaymentMethodForm, 0, len(c.state.PaymentMethods)-1)
	methods = append(methods, c.state.PaymentMethods[:i]...)
	methods = append(methods, c.state.PaymentMethods[i+1:]...)
	c.state.PaymentMethods = methods
	return nil
}

// SetDefaultPaymentMethod makes id the only default payment method
func (c *SettingsController) SetDefaultPaymentMethod(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) < 0 {
		return apperrors.NewNotFoundError("payment method", fmt.Sprint(id))
	}
	for i := range c.state.PaymentMethods {
		c.state.PaymentMethods[i].IsDefault = c.state.PaymentMethods[i].ID == id
	}
	return nil
}

// ReplaceForm replaces the whole form state
func (c *SettingsController) ReplaceForm(state FormState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state.clone()
	if c.state.PaymentMethods == nil {
		c.state.PaymentMethods = []models.PaymentMethodForm{}
	}
	return nil
}

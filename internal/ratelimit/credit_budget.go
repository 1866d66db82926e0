// Package ratelimit tracks market-data provider credit consumption in Redis so
// that every dashboard instance draws from one shared budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crypto-dashboard/internal/logging"
)

// Default budget configuration values.
const (
	DefaultWindow        = 24 * time.Hour
	DefaultReservedShare = 0.4 // share of the budget only interactive requests may use
	DefaultKeyPrefix     = "credits:"
	keyTTLBuffer         = time.Minute
)

// Priority levels for budget allocation.
type Priority int

const (
	// PriorityHigh is for requests a user is waiting on.
	PriorityHigh Priority = iota
	// PriorityLow is for background widget polling.
	PriorityLow
)

// String returns a string representation of the priority level.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

type priorityKey struct{}

// WithPriority tags ctx with the budget priority of the calls made under it
func WithPriority(ctx context.Context, p Priority) context.Context {
	return context.WithValue(ctx, priorityKey{}, p)
}

// PriorityFromContext returns the priority of ctx, PriorityHigh when unset
func PriorityFromContext(ctx context.Context) Priority {
	if p, ok := ctx.Value(priorityKey{}).(Priority); ok {
		return p
	}
	return PriorityHigh
}

// CreditBudgetConfig holds configuration for the credit budget.
type CreditBudgetConfig struct {
	// Redis is the client shared by all instances. Required.
	Redis redis.Cmdable

	// Budget is the number of credits per window. Required.
	Budget int

	// Reserved is the part of Budget kept for PriorityHigh. Zero leaves the
	// whole budget to PriorityLow.
	// Default (nil): Budget * DefaultReservedShare.
	Reserved *int

	// Window is the fixed window length. Default: 24h.
	Window time.Duration

	// KeyPrefix namespaces the Redis keys. Default: "credits:".
	KeyPrefix string
}

// Validate checks if the configuration is valid.
func (c *CreditBudgetConfig) Validate() error {
	if c.Redis == nil {
		return errors.New("redis client is required")
	}
	if c.Budget <= 0 {
		return errors.New("budget must be positive")
	}
	if c.Reserved != nil {
		if *c.Reserved < 0 {
			return errors.New("reserved credits cannot be negative")
		}
		if *c.Reserved > c.Budget {
			return fmt.Errorf("reserved credits (%d) cannot exceed budget (%d)", *c.Reserved, c.Budget)
		}
	}
	if c.Window < 0 {
		return errors.New("window cannot be negative")
	}
	return nil
}

// Usage contains the consumption of the current window.
type Usage struct {
	Used        int
	SharedUsed  int // credits consumed by PriorityLow
	Budget      int
	Reserved    int
	WindowStart time.Time
}

// Remaining returns the credits left for priority p
func (u *Usage) Remaining(p Priority) int {
	left := u.Budget - u.Used
	if p == PriorityLow {
		if shared := u.Budget - u.Reserved - u.SharedUsed; shared < left {
			left = shared
		}
	}
	if left < 0 {
		return 0
	}
	return left
}

// CreditBudget is a fixed-window credit counter kept in Redis.
type CreditBudget struct {
	redis     redis.Cmdable
	budget    int
	reserved  int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewCreditBudget creates a budget with the given configuration.
func NewCreditBudget(cfg *CreditBudgetConfig) (*CreditBudget, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reserved := int(float64(cfg.Budget) * DefaultReservedShare)
	if cfg.Reserved != nil {
		reserved = *cfg.Reserved
	}
	window := cfg.Window
	if window == 0 {
		window = DefaultWindow
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &CreditBudget{
		redis:     cfg.Redis,
		budget:    cfg.Budget,
		reserved:  reserved,
		window:    window,
		keyPrefix: prefix,
		now:       time.Now,
	}, nil
}

func (b *CreditBudget) windowStart() time.Time {
	return b.now().Truncate(b.window)
}

func (b *CreditBudget) keys(start time.Time) (totalKey, sharedKey string) {
	ts := strconv.FormatInt(start.Unix(), 10)
	return b.keyPrefix + "total:" + ts, b.keyPrefix + "shared:" + ts
}

// consumeScript checks both counters and increments them atomically.
// ARGV[3] is the shared limit, or -1 when the caller is not bound by it.
var consumeScript = redis.NewScript(`
	local totalKey = KEYS[1]
	local sharedKey = KEYS[2]
	local credits = tonumber(ARGV[1])
	local budget = tonumber(ARGV[2])
	local sharedLimit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local used = tonumber(redis.call('GET', totalKey) or '0')
	local sharedUsed = tonumber(redis.call('GET', sharedKey) or '0')

	if used + credits > budget then
		return {0, used, sharedUsed}
	end
	if sharedLimit >= 0 and sharedUsed + credits > sharedLimit then
		return {0, used, sharedUsed}
	end

	redis.call('INCRBY', totalKey, credits)
	redis.call('EXPIRE', totalKey, ttl)
	if sharedLimit >= 0 then
		redis.call('INCRBY', sharedKey, credits)
		redis.call('EXPIRE', sharedKey, ttl)
		sharedUsed = sharedUsed + credits
	end

	return {1, used + credits, sharedUsed}
`)

// TryConsume attempts to take credits for the priority carried by ctx.
// When refused, the returned duration is the time until the window resets.
// A Redis failure lets the call through so the budget never blocks the
// provider on its own outage.
func (b *CreditBudget) TryConsume(ctx context.Context, credits int) (bool, time.Duration) {
	if credits <= 0 {
		return true, 0
	}

	start := b.windowStart()
	totalKey, sharedKey := b.keys(start)
	priority := PriorityFromContext(ctx)

	sharedLimit := -1
	if priority == PriorityLow {
		sharedLimit = b.budget - b.reserved
	}

	ttlSeconds := int((b.window + keyTTLBuffer).Seconds())

	result, err := consumeScript.Run(ctx, b.redis, []string{totalKey, sharedKey},
		credits, b.budget, sharedLimit, ttlSeconds).Int64Slice()
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Credit budget unavailable, allowing provider call")
		return true, 0
	}

	if result[0] != 1 {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"credits":  credits,
			"used":     result[1],
			"budget":   b.budget,
			"priority": priority.String(),
		}).Warn("Provider credit budget exhausted")
		return false, b.untilReset(start)
	}
	return true, 0
}

func (b *CreditBudget) untilReset(start time.Time) time.Duration {
	wait := start.Add(b.window).Sub(b.now())
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Usage returns the consumption of the current window.
func (b *CreditBudget) Usage(ctx context.Context) (*Usage, error) {
	start := b.windowStart()
	totalKey, sharedKey := b.keys(start)

	pipe := b.redis.Pipeline()
	totalCmd := pipe.Get(ctx, totalKey)
	sharedCmd := pipe.Get(ctx, sharedKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read credit usage: %w", err)
	}

	return &Usage{
		Used:        parseIntOrZero(totalCmd),
		SharedUsed:  parseIntOrZero(sharedCmd),
		Budget:      b.budget,
		Reserved:    b.reserved,
		WindowStart: start,
	}, nil
}

// parseIntOrZero parses a Redis string command result as int, returning 0 on error.
func parseIntOrZero(cmd *redis.StringCmd) int {
	val, err := cmd.Int()
	if err != nil {
		return 0
	}
	return val
}

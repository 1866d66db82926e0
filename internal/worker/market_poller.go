// Package worker runs the background pollers that keep dashboard widgets fresh.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crypto-dashboard/internal/config"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/ratelimit"
	"github.com/crypto-dashboard/internal/types"
)

// Widget describes one polled dashboard widget
type Widget struct {
	Name     string
	Endpoint string
	Limit    int
	Interval time.Duration
}

// Widget names
const (
	WidgetWatchlist      = "watchlist"
	WidgetExploreMarket  = "explore-market"
	WidgetPortfolioStats = "portfolio-stats"
	WidgetMarketTrades   = "market-trades"
)

// DefaultWidgets returns the dashboard widgets with intervals from cfg
func DefaultWidgets(cfg config.PollingConfig) []Widget {
	return []Widget{
		{Name: WidgetWatchlist, Endpoint: marketdata.DefaultEndpoint, Limit: 100, Interval: cfg.Watchlist},
		{Name: WidgetExploreMarket, Endpoint: marketdata.DefaultEndpoint, Limit: 20, Interval: cfg.ExploreMarket},
		{Name: WidgetPortfolioStats, Endpoint: marketdata.DefaultEndpoint, Limit: 10, Interval: cfg.PortfolioStats},
		{Name: WidgetMarketTrades, Endpoint: marketdata.DefaultEndpoint, Limit: 10, Interval: cfg.MarketTrades},
	}
}

// MarketPoller refreshes one widget on a fixed interval. Each tick is an
// independent fetch; ticks do not overlap because they run on one goroutine.
type MarketPoller struct {
	widget  Widget
	fetcher marketdata.Fetcher
	board   *Board
	logger  *logging.Logger

	mu       sync.RWMutex
	running  bool
	lastPoll time.Time
	polls    int
	fallback int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// PollerStatus is a point-in-time view of a poller
type PollerStatus struct {
	Widget        string        `json:"widget"`
	Running       bool          `json:"running"`
	Interval      time.Duration `json:"interval"`
	LastPollTime  time.Time     `json:"last_poll_time"`
	Polls         int           `json:"polls"`
	FallbackPolls int           `json:"fallback_polls"`
}

// NewMarketPoller creates a poller for widget
func NewMarketPoller(widget Widget, fetcher marketdata.Fetcher, board *Board) (*MarketPoller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if board == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	if widget.Name == "" {
		return nil, fmt.Errorf("widget name cannot be empty")
	}
	if widget.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", widget.Interval)
	}

	return &MarketPoller{
		widget:  widget,
		fetcher: fetcher,
		board:   board,
		logger:  logging.WithFields(map[string]interface{}{logging.FieldComponent: "poller", "widget": widget.Name}),
	}, nil
}

// Start fetches once immediately and then on every interval until Stop or ctx is done
func (p *MarketPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller for widget %s is already running", p.widget.Name)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	p.logger.Infof("Starting poller with interval %v", p.widget.Interval)

	go p.pollLoop(ctx)
	return nil
}

// Stop signals the loop and waits for it to exit
func (p *MarketPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller for widget %s is not running", p.widget.Name)
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.Info("Poller stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Poller stop timed out")
		return ctx.Err()
	}
}

func (p *MarketPoller) pollLoop(ctx context.Context) {
	defer close(p.doneCh)

	p.Poll(ctx)

	ticker := time.NewTicker(p.widget.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one fetch and publishes it to the board. Polls draw on the
// low-priority share of the provider credit budget.
func (p *MarketPoller) Poll(ctx context.Context) {
	ctx = ratelimit.WithPriority(ctx, ratelimit.PriorityLow)
	resp, source := p.fetcher.FetchCryptoData(ctx, p.widget.Endpoint, p.widget.Limit)

	p.mu.Lock()
	p.lastPoll = time.Now()
	p.polls++
	if source == types.SourceFallback {
		p.fallback++
	}
	p.mu.Unlock()

	p.board.Publish(p.widget.Name, resp.Data, source)

	if source == types.SourceFallback {
		p.logger.Debug("Widget refreshed from fallback data")
	}
}

// GetStatus returns the poller status
func (p *MarketPoller) GetStatus() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PollerStatus{
		Widget:        p.widget.Name,
		Running:       p.running,
		Interval:      p.widget.Interval,
		LastPollTime:  p.lastPoll,
		Polls:         p.polls,
		FallbackPolls: p.fallback,
	}
}

// Pool starts and stops a set of pollers together
type Pool struct {
	pollers []*MarketPoller
}

// NewPool creates one poller per widget, all publishing to board
func NewPool(widgets []Widget, fetcher marketdata.Fetcher, board *Board) (*Pool, error) {
	pool := &Pool{}
	for _, w := range widgets {
		p, err := NewMarketPoller(w, fetcher, board)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", w.Name, err)
		}
		pool.pollers = append(pool.pollers, p)
	}
	return pool, nil
}

// Start starts every poller
func (p *Pool) Start(ctx context.Context) error {
	for _, poller := range p.pollers {
		if err := poller.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every running poller and returns the first error
func (p *Pool) Stop(ctx context.Context) error {
	var firstErr error
	for _, poller := range p.pollers {
		if !poller.GetStatus().Running {
			continue
		}
		if err := poller.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Statuses returns the status of every poller
func (p *Pool) Statuses() []PollerStatus {
	out := make([]PollerStatus, 0, len(p.pollers))
	for _, poller := range p.pollers {
		out = append(out, poller.GetStatus())
	}
	return out
}

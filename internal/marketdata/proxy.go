package marketdata

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/crypto-dashboard/internal/config"
	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/types"
)

var endpointPattern = regexp.MustCompile(`^[a-z0-9_-]+(/[a-z0-9_-]+)*$`)

// Request is one proxy call
type Request struct {
	Endpoint string
	Limit    int
	Symbol   string
}

// ParseRequest reads endpoint, limit and symbol from query parameters.
// A missing, non-numeric or negative limit becomes DefaultLimit.
func ParseRequest(q url.Values) (Request, error) {
	req := Request{
		Endpoint: q.Get("endpoint"),
		Symbol:   strings.TrimSpace(q.Get("symbol")),
		Limit:    DefaultLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Limit = n
		}
	}

	req = req.normalized()
	if err := validateEndpoint(req.Endpoint); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) normalized() Request {
	if r.Endpoint == "" {
		r.Endpoint = DefaultEndpoint
	}
	if r.Limit < 0 {
		r.Limit = DefaultLimit
	}
	return r
}

func validateEndpoint(endpoint string) error {
	if strings.Contains(endpoint, "..") || !endpointPattern.MatchString(endpoint) {
		return apperrors.NewInvalidParameterError("endpoint", "must be a provider path of [a-z0-9_-] segments")
	}
	return nil
}

// Result is a proxy response body and where it came from
type Result struct {
	Payload json.RawMessage
	Source  types.DataSource
}

// Proxy forwards requests to the provider and substitutes the embedded
// dataset when no provider is configured or the call fails. Nothing is cached
// between calls.
type Proxy struct {
	provider *Provider
}

// NewProxy creates a proxy. provider may be nil, in which case every call is
// served from the fallback dataset.
func NewProxy(provider *Provider) *Proxy {
	return &Proxy{provider: provider}
}

// NewProxyFromConfig creates a proxy with a provider only when an API key is configured
func NewProxyFromConfig(cfg *config.MarketDataConfig) *Proxy {
	if cfg.APIKey == "" {
		return NewProxy(nil)
	}
	return NewProxy(NewProvider(cfg.BaseURL, cfg.APIKey, cfg.RequestTimeout))
}

// SetBudget rations the provider's credits with b. It has no effect when
// no provider is configured.
func (p *Proxy) SetBudget(b Budget) {
	if p.provider != nil {
		p.provider.budget = b
	}
}

// Live reports whether a provider is configured
func (p *Proxy) Live() bool {
	return p.provider != nil
}

// Fetch answers req, live when possible and from the fallback dataset otherwise
func (p *Proxy) Fetch(ctx context.Context, req Request) Result {
	req = req.normalized()
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"endpoint": req.Endpoint,
		"limit":    req.Limit,
	})

	switch {
	case p.provider == nil:
		logger.Debug("Market data API key not configured, using fallback data")
	case validateEndpoint(req.Endpoint) != nil:
		logger.Warn("Rejected market data endpoint, using fallback data")
	default:
		body, err := p.provider.Fetch(ctx, req)
		if err == nil {
			return Result{Payload: body, Source: types.SourceLive}
		}
		logger.WithError(err).Warn("Market data provider failed, using fallback data")
	}

	payload, err := json.Marshal(fallbackResponse(req))
	if err != nil {
		// the embedded dataset always encodes
		panic(err)
	}
	return Result{Payload: payload, Source: types.SourceFallback}
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/crypto-dashboard/internal/errors"
)

const (
	providerName      = "coinmarketcap"
	apiKeyHeader      = "X-CMC_PRO_API_KEY"
	maxUpstreamBody   = 8 << 20
	defaultUpstreamTO = 10 * time.Second
	listingsPerCredit = 200
)

// Budget rations provider credits across instances
type Budget interface {
	TryConsume(ctx context.Context, credits int) (bool, time.Duration)
}

// Provider is a CoinMarketCap REST client
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	budget  Budget
}

// NewProvider creates a provider client. timeout <= 0 uses 10s.
func NewProvider(baseURL, apiKey string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = defaultUpstreamTO
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// requestURL builds {base}/{endpoint}?limit=N, or ?symbol=S for symbol lookups
func (p *Provider) requestURL(req Request) string {
	params := url.Values{}
	if isSymbolLookup(req) {
		params.Set("symbol", req.Symbol)
	} else {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	return fmt.Sprintf("%s/%s?%s", p.baseURL, req.Endpoint, params.Encode())
}

// CreditCost returns the provider credits req consumes: one per
// started block of 200 listings, one for a symbol lookup.
func CreditCost(req Request) int {
	if isSymbolLookup(req) || req.Limit <= 0 {
		return 1
	}
	return (req.Limit + listingsPerCredit - 1) / listingsPerCredit
}

// Fetch performs one upstream call and returns the body unchanged. Non-2xx
// statuses, transport errors and non-JSON bodies are errors.
func (p *Provider) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if p.budget != nil {
		if ok, wait := p.budget.TryConsume(ctx, CreditCost(req)); !ok {
			return nil, apperrors.NewProviderError(providerName, fmt.Errorf("credit budget exhausted, resets in %s", wait.Round(time.Second)))
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(apiKeyHeader, p.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewProviderError(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, apperrors.NewProviderError(providerName, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewProviderError(providerName, fmt.Errorf("status %d", resp.StatusCode))
	}

	if !json.Valid(body) {
		return nil, apperrors.NewProviderError(providerName, fmt.Errorf("response is not valid JSON"))
	}

	return body, nil
}

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

	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

// Fetcher is what widgets and services read market data through. Failures
// never surface: they yield a single-record substitute and SourceFallback.
type Fetcher interface {
	FetchCryptoData(ctx context.Context, endpoint string, limit int) (*models.ListingsResponse, types.DataSource)
	FetchCryptoDetails(ctx context.Context, symbol string) (*models.QuotesResponse, types.DataSource)
}

// Client reads market data from the proxy endpoint over HTTP
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the proxy served at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultUpstreamTO
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCryptoData requests listings from the proxy
func (c *Client) FetchCryptoData(ctx context.Context, endpoint string, limit int) (*models.ListingsResponse, types.DataSource) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{}
	params.Set("endpoint", endpoint)
	params.Set("limit", strconv.Itoa(limit))

	var resp models.ListingsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("endpoint", endpoint).
			Error("Error fetching crypto data")
		return singleRecordListings(), types.SourceFallback
	}
	return &resp, types.SourceLive
}

// FetchCryptoDetails requests the quote of one symbol from the proxy
func (c *Client) FetchCryptoDetails(ctx context.Context, symbol string) (*models.QuotesResponse, types.DataSource) {
	params := url.Values{}
	params.Set("endpoint", QuotesEndpoint)
	params.Set("symbol", symbol)

	var resp models.QuotesResponse
	if err := c.get(ctx, params, &resp); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("symbol", symbol).
			Error("Error fetching crypto details")
		return singleRecordQuote(symbol), types.SourceFallback
	}
	return &resp, types.SourceLive
}

func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s/api/crypto?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ProxyFetcher reads market data from an in-process Proxy
type ProxyFetcher struct {
	proxy *Proxy
}

// NewProxyFetcher creates a fetcher over proxy
func NewProxyFetcher(proxy *Proxy) *ProxyFetcher {
	return &ProxyFetcher{proxy: proxy}
}

// FetchCryptoData implements Fetcher. The source reports whether the proxy
// answered live or from its fallback dataset.
func (f *ProxyFetcher) FetchCryptoData(ctx context.Context, endpoint string, limit int) (*models.ListingsResponse, types.DataSource) {
	res := f.proxy.Fetch(ctx, Request{Endpoint: endpoint, Limit: limit})

	var resp models.ListingsResponse
	if err := json.Unmarshal(res.Payload, &resp); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Unexpected listings payload, using fallback record")
		return singleRecordListings(), types.SourceFallback
	}
	return &resp, res.Source
}

// FetchCryptoDetails implements Fetcher
func (f *ProxyFetcher) FetchCryptoDetails(ctx context.Context, symbol string) (*models.QuotesResponse, types.DataSource) {
	res := f.proxy.Fetch(ctx, Request{Endpoint: QuotesEndpoint, Limit: DefaultLimit, Symbol: symbol})

	var resp models.QuotesResponse
	if err := json.Unmarshal(res.Payload, &resp); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Unexpected quotes payload, using fallback record")
		return singleRecordQuote(symbol), types.SourceFallback
	}
	return &resp, res.Source
}

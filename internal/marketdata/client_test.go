package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-dashboard/internal/types"
)

// proxyServer serves a Proxy the way the API layer does
func proxyServer(t *testing.T, proxy *Proxy) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := ParseRequest(r.URL.Query())
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(proxy.Fetch(r.Context(), req).Payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchCryptoData(t *testing.T) {
	srv := proxyServer(t, NewProxy(nil))
	client := NewClient(srv.URL, time.Second)

	resp, source := client.FetchCryptoData(context.Background(), "", 5)
	assert.Equal(t, types.SourceLive, source)
	assert.Len(t, resp.Data, 5)
}

func TestClient_FetchCryptoDetails(t *testing.T) {
	srv := proxyServer(t, NewProxy(nil))
	client := NewClient(srv.URL, time.Second)

	resp, source := client.FetchCryptoDetails(context.Background(), "ADA")
	assert.Equal(t, types.SourceLive, source)
	q, ok := resp.Find("ADA")
	require.True(t, ok)
	assert.Equal(t, "Cardano", q.Name)
}

func TestClient_FallbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewClient(srv.URL, time.Second)

	listings, source := client.FetchCryptoData(context.Background(), DefaultEndpoint, 10)
	assert.Equal(t, types.SourceFallback, source)
	require.Len(t, listings.Data, 1)
	assert.Equal(t, "BTC", listings.Data[0].Symbol)

	tests := []struct {
		symbol    string
		wantName  string
		wantPrice float64
	}{
		{"BTC", "Bitcoin", 43250.75},
		{"ETH", "ETH", 2650.3},
		{"XYZ", "XYZ", 2650.3},
	}
	for _, tt := range tests {
		details, source := client.FetchCryptoDetails(context.Background(), tt.symbol)
		assert.Equal(t, types.SourceFallback, source)
		q, ok := details.Find(tt.symbol)
		require.True(t, ok)
		assert.Equal(t, tt.wantName, q.Name)
		assert.Equal(t, tt.wantPrice, q.Quote.USD.Price)
		require.NotNil(t, q.MaxSupply)
		assert.Equal(t, 21000000.0, *q.MaxSupply)
	}
}

func TestClient_MalformedBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	resp, source := NewClient(srv.URL, time.Second).FetchCryptoData(context.Background(), "", 10)
	assert.Equal(t, types.SourceFallback, source)
	assert.Len(t, resp.Data, 1)
}

func TestProxyFetcher(t *testing.T) {
	fetcher := NewProxyFetcher(NewProxy(nil))

	listings, source := fetcher.FetchCryptoData(context.Background(), DefaultEndpoint, 3)
	assert.Equal(t, types.SourceFallback, source)
	assert.Len(t, listings.Data, 3)

	details, _ := fetcher.FetchCryptoDetails(context.Background(), "DOGE")
	q, ok := details.Find("DOGE")
	require.True(t, ok)
	assert.Equal(t, 0.0825, q.Quote.USD.Price)

	// unknown symbol yields listings from the proxy, which do not decode as quotes
	details, source = fetcher.FetchCryptoDetails(context.Background(), "NOPE")
	assert.Equal(t, types.SourceFallback, source)
	_, ok = details.Find("NOPE")
	assert.True(t, ok)
}

func TestSingleRecordQuoteShape(t *testing.T) {
	b, err := json.Marshal(singleRecordQuote("BTC"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":{"BTC":[{"id":1,"name":"Bitcoin"`)
}

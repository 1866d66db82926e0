// Package marketdata serves cryptocurrency listings and quotes from an
// upstream provider, substituting an embedded dataset when it is unavailable.
package marketdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crypto-dashboard/internal/models"
)

// Defaults applied to proxy requests
const (
	DefaultEndpoint      = "cryptocurrency/listings/latest"
	QuotesEndpoint       = "cryptocurrency/quotes/latest"
	DefaultLimit         = 10
	quotesEndpointMarker = "quotes/latest"
)

//go:embed fallback.json
var fallbackJSON []byte

var fallbackListings = mustParseFallback(fallbackJSON)

func mustParseFallback(b []byte) []models.AssetQuote {
	var resp models.ListingsResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		panic(fmt.Sprintf("marketdata: invalid embedded fallback dataset: %v", err))
	}
	return resp.Data
}

// FallbackListings returns a copy of the embedded ten-asset dataset
func FallbackListings() []models.AssetQuote {
	out := make([]models.AssetQuote, len(fallbackListings))
	copy(out, fallbackListings)
	return out
}

// isSymbolLookup reports whether req asks for a single symbol's quote
func isSymbolLookup(req Request) bool {
	return req.Symbol != "" && strings.Contains(req.Endpoint, quotesEndpointMarker)
}

// fallbackResponse builds the substitute body for req. A symbol lookup that
// matches a record yields {"data": {SYM: [record]}}; anything else yields the
// first limit listings.
func fallbackResponse(req Request) interface{} {
	if isSymbolLookup(req) {
		for _, q := range fallbackListings {
			if q.Symbol == req.Symbol {
				return models.QuotesResponse{
					Data: map[string]models.AssetList{req.Symbol: {q}},
				}
			}
		}
	}

	n := req.Limit
	if n > len(fallbackListings) {
		n = len(fallbackListings)
	}
	return models.ListingsResponse{Data: FallbackListings()[:n]}
}

// singleRecordListings is the client-side substitute for a failed listings fetch
func singleRecordListings() *models.ListingsResponse {
	return &models.ListingsResponse{Data: []models.AssetQuote{fallbackListings[0]}}
}

// singleRecordQuote is the client-side substitute for a failed symbol lookup
func singleRecordQuote(symbol string) *models.QuotesResponse {
	maxSupply := 21000000.0
	name, price := symbol, 2650.3
	if symbol == "BTC" {
		name, price = "Bitcoin", 43250.75
	}

	return &models.QuotesResponse{
		Data: map[string]models.AssetList{
			symbol: {{
				ID:                1,
				Name:              name,
				Symbol:            symbol,
				CirculatingSupply: 19500000,
				MaxSupply:         &maxSupply,
				Quote: models.QuoteSet{USD: models.USDQuote{
					Price:            price,
					PercentChange24h: 2.45,
					MarketCap:        843875625000,
					Volume24h:        28500000000,
				}},
			}},
		},
	}
}

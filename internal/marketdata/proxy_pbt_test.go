package marketdata

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/crypto-dashboard/internal/models"
)

func TestFallbackProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	proxy := NewProxy(nil)

	symbols := make([]interface{}, 0, len(fallbackListings))
	for _, q := range fallbackListings {
		symbols = append(symbols, q.Symbol)
	}

	properties.Property("listings length is min(limit, 10)", prop.ForAll(
		func(limit int) bool {
			res := proxy.Fetch(context.Background(), Request{Endpoint: DefaultEndpoint, Limit: limit})
			var resp models.ListingsResponse
			if err := json.Unmarshal(res.Payload, &resp); err != nil {
				return false
			}
			want := limit
			if want > 10 {
				want = 10
			}
			return len(resp.Data) == want
		},
		gen.IntRange(0, 100),
	))

	properties.Property("known symbol yields one record keyed by symbol", prop.ForAll(
		func(symbol string) bool {
			res := proxy.Fetch(context.Background(), Request{Endpoint: QuotesEndpoint, Symbol: symbol})
			var resp models.QuotesResponse
			if err := json.Unmarshal(res.Payload, &resp); err != nil {
				return false
			}
			return len(resp.Data) == 1 && len(resp.Data[symbol]) == 1 && resp.Data[symbol][0].Symbol == symbol
		},
		gen.OneConstOf(symbols...),
	))

	properties.TestingRun(t)
}

package models

import (
	"bytes"
	"encoding/json"
)

// USDQuote holds the USD-denominated market figures of an asset
type USDQuote struct {
	Price            float64 `json:"price"`
	PercentChange24h float64 `json:"percent_change_24h"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
}

// QuoteSet groups quotes by fiat currency. Only USD is requested.
type QuoteSet struct {
	USD USDQuote `json:"USD"`
}

// AssetQuote is a single asset record as served by the market-data proxy
type AssetQuote struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	CirculatingSupply float64  `json:"circulating_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	Quote             QuoteSet `json:"quote"`
}

// ListingsResponse is the listings shape: {"data": [...]}
type ListingsResponse struct {
	Data []AssetQuote `json:"data"`
}

// AssetList decodes either a JSON array of records or a single record
type AssetList []AssetQuote

// UnmarshalJSON implements json.Unmarshaler
func (l *AssetList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one AssetQuote
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*l = AssetList{one}
		return nil
	}
	var many []AssetQuote
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// QuotesResponse is the symbol-keyed shape: {"data": {"BTC": [...]}}
type QuotesResponse struct {
	Data map[string]AssetList `json:"data"`
}

// Find returns the first record listed under symbol
func (r *QuotesResponse) Find(symbol string) (AssetQuote, bool) {
	if r == nil || len(r.Data[symbol]) == 0 {
		return AssetQuote{}, false
	}
	return r.Data[symbol][0], true
}

// BySymbol indexes listings by symbol, keeping the first occurrence
func (r *ListingsResponse) BySymbol() map[string]AssetQuote {
	out := make(map[string]AssetQuote, len(r.Data))
	for _, q := range r.Data {
		if _, seen := out[q.Symbol]; !seen {
			out[q.Symbol] = q
		}
	}
	return out
}

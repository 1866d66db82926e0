package service

import (
	"context"

	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

// watchlistQuoteLimit is the listings depth the watchlist is joined against
const watchlistQuoteLimit = 100

// WatchlistQuote is one watched symbol with its latest market record.
// Quote is nil when the symbol is not in the listings.
type WatchlistQuote struct {
	Symbol string             `json:"symbol"`
	Quote  *models.AssetQuote `json:"quote"`
}

// WatchlistQuotes joins the session user's watchlist with the latest
// listings. An empty watchlist uses the default symbols.
func (s *AccountService) WatchlistQuotes(ctx context.Context) ([]WatchlistQuote, types.DataSource, error) {
	items, err := s.GetWatchlist(ctx)
	if err != nil {
		return nil, "", err
	}

	symbols := make([]string, 0, len(items))
	for _, item := range items {
		symbols = append(symbols, item.Symbol)
	}
	if len(symbols) == 0 {
		symbols = append(symbols, models.DefaultWatchlistSymbols...)
	}

	if s.market == nil {
		out := make([]WatchlistQuote, 0, len(symbols))
		for _, symbol := range symbols {
			out = append(out, WatchlistQuote{Symbol: symbol})
		}
		return out, types.SourceFallback, nil
	}

	listings, source := s.market.FetchCryptoData(ctx, marketdata.DefaultEndpoint, watchlistQuoteLimit)
	bySymbol := listings.BySymbol()

	out := make([]WatchlistQuote, 0, len(symbols))
	for _, symbol := range symbols {
		wq := WatchlistQuote{Symbol: symbol}
		if q, ok := bySymbol[symbol]; ok {
			q := q
			wq.Quote = &q
		}
		out = append(out, wq)
	}
	return out, source, nil
}

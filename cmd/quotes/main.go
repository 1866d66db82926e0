// Package main provides a CLI that prints market listings through the
// dashboard's market-data proxy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/crypto-dashboard/internal/config"
	"github.com/crypto-dashboard/internal/format"
	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

func main() {
	var (
		proxyURL = flag.String("proxy", "", "Proxy base URL (default: MARKET_PROXY_URL)")
		endpoint = flag.String("endpoint", marketdata.DefaultEndpoint, "Provider endpoint")
		limit    = flag.Int("limit", 10, "Number of listings")
		symbol   = flag.String("symbol", "", "Show a single symbol's quote instead of listings")
		direct   = flag.Bool("direct", false, "Call the provider in-process instead of a running proxy")
		field    = flag.String("field", "", "Print one value by dot path, e.g. data.0.quote.USD.price")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var fetcher marketdata.Fetcher
	if *direct {
		fetcher = marketdata.NewProxyFetcher(marketdata.NewProxyFromConfig(&cfg.MarketData))
	} else {
		base := cfg.MarketData.ProxyURL
		if *proxyURL != "" {
			base = *proxyURL
		}
		fetcher = marketdata.NewClient(base, cfg.MarketData.RequestTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MarketData.RequestTimeout+cfg.MarketData.RequestTimeout)
	defer cancel()

	var (
		quotes []models.AssetQuote
		source types.DataSource
		raw    interface{}
	)
	if *symbol != "" {
		resp, src := fetcher.FetchCryptoDetails(ctx, *symbol)
		source, raw = src, resp
		if q, ok := resp.Find(*symbol); ok {
			quotes = append(quotes, q)
		}
	} else {
		resp, src := fetcher.FetchCryptoData(ctx, *endpoint, *limit)
		quotes, source, raw = resp.Data, src, resp
	}

	if *field != "" {
		value, err := lookupField(raw, *field)
		if err != nil {
			log.Fatalf("Failed to read field: %v", err)
		}
		fmt.Println(value)
		return
	}

	printQuotes(quotes)
	fmt.Printf("\nsource: %s\n", source)
}

func printQuotes(quotes []models.AssetQuote) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\t24H\tMARKET CAP\tVOLUME\t")
	for _, q := range quotes {
		usd := q.Quote.USD
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			q.Symbol,
			q.Name,
			format.FormatNumber(usd.Price, format.DefaultPrecision),
			format.FormatPercentChange(usd.PercentChange24h),
			format.FormatNumber(usd.MarketCap, format.DefaultPrecision),
			format.FormatNumber(usd.Volume24h, format.DefaultPrecision),
		)
	}
	tw.Flush()
}

// lookupField reads path from the JSON form of resp
func lookupField(resp interface{}, path string) (interface{}, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return format.SafeGet(doc, path, format.NotAvailable), nil
}

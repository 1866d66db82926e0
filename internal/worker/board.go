package worker

import (
	"sync"
	"time"

	"github.com/crypto-dashboard/internal/format"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/types"
)

// Row is one asset as a widget displays it
type Row struct {
	Symbol      string       `json:"symbol"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	PriceText   string       `json:"price_text"`
	Change      string       `json:"change"`
	ChangeColor format.Color `json:"change_color"`
	MarketCap   string       `json:"market_cap"`
	Volume      string       `json:"volume"`
}

// NewRow renders an asset quote with the display helpers
func NewRow(q models.AssetQuote) Row {
	usd := q.Quote.USD
	return Row{
		Symbol:      q.Symbol,
		Name:        q.Name,
		Price:       usd.Price,
		PriceText:   format.FormatNumber(usd.Price, format.DefaultPrecision),
		Change:      format.FormatPercentChange(usd.PercentChange24h),
		ChangeColor: format.ChangeColor(usd.PercentChange24h),
		MarketCap:   format.FormatNumber(usd.MarketCap, format.DefaultPrecision),
		Volume:      format.FormatNumber(usd.Volume24h, format.DefaultPrecision),
	}
}

// WidgetData is the latest published content of a widget
type WidgetData struct {
	Widget    string           `json:"widget"`
	Source    types.DataSource `json:"source"`
	UpdatedAt time.Time        `json:"updated_at"`
	Rows      []Row            `json:"rows"`
}

// Board holds the latest result per widget. Later publishes replace earlier ones.
type Board struct {
	mu      sync.RWMutex
	widgets map[string]WidgetData
	now     func() time.Time
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{
		widgets: make(map[string]WidgetData),
		now:     time.Now,
	}
}

// Publish replaces the content of widget
func (b *Board) Publish(widget string, quotes []models.AssetQuote, source types.DataSource) {
	rows := make([]Row, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, NewRow(q))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.widgets[widget] = WidgetData{
		Widget:    widget,
		Source:    source,
		UpdatedAt: b.now(),
		Rows:      rows,
	}
}

// Get returns the latest content of widget
func (b *Board) Get(widget string) (WidgetData, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.widgets[widget]
	return d, ok
}

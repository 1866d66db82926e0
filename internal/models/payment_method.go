package models

import (
	"time"

	"github.com/crypto-dashboard/internal/types"
)

// AddedDateLayout is the format of PaymentMethod.AddedDate
const AddedDateLayout = "2006-01-02"

// PaymentMethod represents a bank account or card linked to the user
type PaymentMethod struct {
	ID        string                  `json:"id" db:"id"`
	UserID    string                  `json:"user_id" db:"user_id"`
	Type      types.PaymentMethodType `json:"type" db:"type"`
	Name      string                  `json:"name" db:"name"`
	IsDefault bool                    `json:"is_default" db:"is_default"`
	Verified  bool                    `json:"verified" db:"verified"`
	AddedDate string                  `json:"added_date" db:"added_date"`
	CreatedAt time.Time               `json:"created_at" db:"created_at"`
}

// DefaultPaymentMethods returns the payment methods seeded for a new user
func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{
			Type:      types.PaymentMethodBank,
			Name:      "Chase Bank ****1234",
			IsDefault: true,
			Verified:  true,
			AddedDate: "2023-10-15",
		},
		{
			Type:      types.PaymentMethodCard,
			Name:      "Visa ****5678",
			IsDefault: false,
			Verified:  true,
			AddedDate: "2023-11-02",
		},
	}
}

// WatchlistItem represents one tracked symbol
type WatchlistItem struct {
	ID      string    `json:"id" db:"id"`
	UserID  string    `json:"user_id" db:"user_id"`
	Symbol  string    `json:"symbol" db:"symbol"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// DefaultWatchlistSymbols is the watchlist a new user starts with. It also
// stands in for an empty watchlist when quotes are joined.
var DefaultWatchlistSymbols = []string{"BTC", "ETH", "BNB", "XRP", "ADA", "SOL", "DOGE", "DOT"}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFields_WithDefaults(t *testing.T) {
	got := UserFields{FullName: "Ada Lovelace", Country: "uk"}.WithDefaults()

	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, "uk", got.Country)
	assert.Equal(t, DefaultPhone, got.Phone)
	assert.Equal(t, DefaultBio, got.Bio)
	assert.Equal(t, DefaultProfilePicture, got.ProfilePicture)
}

func TestDefaultSettingsFields(t *testing.T) {
	f := DefaultSettingsFields()

	require.NotNil(t, f.Notifications)
	assert.True(t, f.Notifications.Email)
	assert.False(t, f.Notifications.SMS)
	assert.False(t, f.Notifications.MarketNews)
	require.NotNil(t, f.SecuritySettings)
	assert.Equal(t, "30", string(f.SecuritySettings.SessionTimeout))
	assert.True(t, *f.AccountActivity)
	assert.True(t, *f.TradingActivity)
}

func TestQuotesResponse_DecodesArrayAndObject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"single-element list", `{"data":{"BTC":[{"id":1,"name":"Bitcoin","symbol":"BTC","quote":{"USD":{"price":43250.75}}}]}}`},
		{"bare object", `{"data":{"BTC":{"id":1,"name":"Bitcoin","symbol":"BTC","quote":{"USD":{"price":43250.75}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp QuotesResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			q, ok := resp.Find("BTC")
			require.True(t, ok)
			assert.Equal(t, "Bitcoin", q.Name)
			assert.Equal(t, 43250.75, q.Quote.USD.Price)
			assert.Nil(t, q.MaxSupply)
		})
	}
}

func TestListingsResponse_BySymbol(t *testing.T) {
	resp := ListingsResponse{Data: []AssetQuote{
		{ID: 1, Symbol: "BTC"},
		{ID: 1027, Symbol: "ETH"},
		{ID: 99, Symbol: "BTC"},
	}}

	idx := resp.BySymbol()
	assert.Len(t, idx, 2)
	assert.Equal(t, 1, idx["BTC"].ID)
}

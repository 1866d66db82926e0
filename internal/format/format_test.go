package format

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name      string
		num       float64
		precision int
		want      string
	}{
		{"below thousand has no suffix", 999, 2, "$999.00"},
		{"exactly one thousand", 1000, 2, "$1.00K"},
		{"millions", 28_500_000, 2, "$28.50M"},
		{"billions", 843_875_625_000, 2, "$843.88B"},
		{"exactly one trillion", 1_000_000_000_000, 2, "$1.00T"},
		{"custom precision", 1_234_567, 3, "$1.235M"},
		{"zero precision", 45_800_000_000, 0, "$46B"},
		{"small value", 0.0825, 4, "$0.0825"},
		{"negative values are not abbreviated", -5000, 2, "$-5000.00"},
		{"NaN", math.NaN(), 2, "N/A"},
		{"infinity", math.Inf(1), 2, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.num, tt.precision); got != tt.want {
				t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.num, tt.precision, got, tt.want)
			}
		})
	}
}

func TestFormatPercentChange(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    string
	}{
		{"positive", 2.45, "+2.45%"},
		{"negative", -1.25, "-1.25%"},
		{"zero gets a plus sign", 0, "+0.00%"},
		{"negative zero gets a plus sign", math.Copysign(0, -1), "+0.00%"},
		{"rounds to two decimals", 5.757, "+5.76%"},
		{"tiny negative", -0.001, "-0.00%"},
		{"NaN", math.NaN(), "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPercentChange(tt.percent); got != tt.want {
				t.Errorf("FormatPercentChange(%v) = %q, want %q", tt.percent, got, tt.want)
			}
		})
	}
}

func TestChangeColor(t *testing.T) {
	if got := ChangeColor(math.NaN()); got != ColorNeutral {
		t.Errorf("ChangeColor(NaN) = %q, want %q", got, ColorNeutral)
	}
	if got := ChangeColor(0); got != ColorPositive {
		t.Errorf("ChangeColor(0) = %q, want %q", got, ColorPositive)
	}
	if got := ChangeColor(-2.35); got != ColorNegative {
		t.Errorf("ChangeColor(-2.35) = %q, want %q", got, ColorNegative)
	}
}

func TestSafeGet(t *testing.T) {
	obj := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{
				"symbol": "BTC",
				"quote": map[string]interface{}{
					"USD": map[string]interface{}{"price": 43250.75},
				},
				"max_supply": nil,
			},
		},
	}

	tests := []struct {
		name string
		path string
		want interface{}
	}{
		{"nested map and array", "data.0.quote.USD.price", 43250.75},
		{"string leaf", "data.0.symbol", "BTC"},
		{"missing key", "data.0.quote.EUR.price", "default"},
		{"index out of range", "data.3.symbol", "default"},
		{"null value", "data.0.max_supply", "default"},
		{"descending into scalar", "data.0.symbol.length", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeGet(obj, tt.path, "default"); got != tt.want {
				t.Errorf("SafeGet(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// Package format converts market figures into the display strings used by
// the dashboard widgets.
package format

import (
	"math"
	"strconv"
	"strings"
)

// NotAvailable is rendered for missing or non-finite figures
const NotAvailable = "N/A"

// Color is the CSS class that tints a change figure
type Color string

const (
	// ColorNeutral is used when the change is unknown
	ColorNeutral Color = "text-muted-foreground"
	// ColorPositive is used for zero or positive changes
	ColorPositive Color = "text-emerald-500"
	// ColorNegative is used for negative changes
	ColorNegative Color = "text-red-500"
)

// DefaultPrecision is the number of decimals FormatNumber uses by default
const DefaultPrecision = 2

type unit struct {
	threshold float64
	suffix    string
}

// units is ordered largest first; the first threshold met wins
var units = []unit{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatNumber renders a dollar amount abbreviated with the largest unit
// suffix (T, B, M, K) whose threshold the amount reaches.
func FormatNumber(num float64, precision int) string {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return NotAvailable
	}
	if precision < 0 {
		precision = 0
	}

	for _, u := range units {
		if num >= u.threshold {
			return "$" + fixed(num/u.threshold, precision) + u.suffix
		}
	}
	return "$" + fixed(num, precision)
}

// FormatPercentChange renders a percentage with two decimals and a leading
// plus sign for zero and positive values.
func FormatPercentChange(percent float64) string {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return NotAvailable
	}
	// -0 formats as "-0.00" otherwise
	if percent == 0 {
		percent = 0
	}

	formatted := fixed(percent, 2)
	if percent >= 0 {
		return "+" + formatted + "%"
	}
	return formatted + "%"
}

// ChangeColor classifies a percentage change
func ChangeColor(percent float64) Color {
	if math.IsNaN(percent) {
		return ColorNeutral
	}
	if percent >= 0 {
		return ColorPositive
	}
	return ColorNegative
}

// SafeGet walks a decoded JSON value along a dot-separated path and returns
// def as soon as a segment is missing. Numeric segments index into arrays.
func SafeGet(obj interface{}, path string, def interface{}) interface{} {
	current := obj
	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[key]
			if !ok || next == nil {
				return def
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) || node[idx] == nil {
				return def
			}
			current = node[idx]
		default:
			return def
		}
	}
	return current
}

func fixed(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

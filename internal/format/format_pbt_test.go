package format

import (
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func decimals(s string) int {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	n := 0
	for _, r := range s[idx+1:] {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

func TestFormatPercentChangeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("plus sign iff non-negative", prop.ForAll(
		func(p float64) bool {
			return strings.HasPrefix(FormatPercentChange(p), "+") == (p >= 0)
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("always two decimals and a percent sign", prop.ForAll(
		func(p float64) bool {
			s := FormatPercentChange(p)
			return strings.HasSuffix(s, "%") && decimals(s) == 2
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

func TestFormatNumberProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	expectedSuffix := func(m float64) string {
		switch {
		case m >= 1e12:
			return "T"
		case m >= 1e9:
			return "B"
		case m >= 1e6:
			return "M"
		case m >= 1e3:
			return "K"
		}
		return ""
	}

	properties.Property("largest reached unit is chosen", prop.ForAll(
		func(m float64, precision int) bool {
			s := FormatNumber(m, precision)
			suffix := expectedSuffix(m)
			if suffix == "" {
				last := s[len(s)-1]
				return last >= '0' && last <= '9'
			}
			return strings.HasSuffix(s, suffix)
		},
		gen.Float64Range(0, 1e15),
		gen.IntRange(0, 4),
	))

	properties.Property("scaled value carries the requested precision", prop.ForAll(
		func(m float64, precision int) bool {
			return decimals(FormatNumber(m, precision)) == precision
		},
		gen.Float64Range(0, 1e15),
		gen.IntRange(0, 4),
	))

	properties.Property("dollar prefix on every finite value", prop.ForAll(
		func(m float64) bool {
			return strings.HasPrefix(FormatNumber(m, DefaultPrecision), "$")
		},
		gen.Float64Range(-1e15, 1e15),
	))

	properties.TestingRun(t)
}

func TestChangeColorProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total and idempotent", prop.ForAll(
		func(p float64) bool {
			c := ChangeColor(p)
			if c != ChangeColor(p) {
				return false
			}
			if p >= 0 {
				return c == ColorPositive
			}
			return c == ColorNegative
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)

	if ChangeColor(math.NaN()) != ColorNeutral {
		t.Error("NaN must map to the neutral color")
	}
}

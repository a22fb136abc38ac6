package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// numberNoise is stripped before parsing: no-break space, space, thousands
// separator and currency sign
var numberNoise = strings.NewReplacer("\u00a0", "", " ", "", ",", "", "$", "")

// maxExponent bounds the decimal exponent accepted from a cell.
// float64 tops out near 1e308, and huge exponents make conversion slow.
const maxExponent = 400

// Number parses loosely formatted numeric text such as "$1,234.56".
// ok is false for empty, malformed or non-finite input; it never returns an error.
func Number(raw string) (float64, bool) {
	cleaned := numberNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !IsFinite(f) {
		return 0, false
	}
	return f, true
}

// IsFinite reports whether v is neither NaN nor ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds half away from zero to 2 decimals for presentation.
// Non-finite values come back unchanged.
func Round2(v float64) float64 {
	if !IsFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round2Ptr rounds a nullable value. nil and non-finite values become nil.
func Round2Ptr(v *float64) *float64 {
	if v == nil || !IsFinite(*v) {
		return nil
	}
	r := Round2(*v)
	return &r
}

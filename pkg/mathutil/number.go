// Package mathutil provides common numeric utility functions.
package mathutil

import (
	"math"
	"strconv"

	"github.com/iwvelando/option-calculator/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Only used when rendering; stored prices keep full precision.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// ParseFinite parses raw as a float64 and rejects NaN, infinities and
// out-of-range values.
func ParseFinite(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !IsFinite(v) {
		return 0, false
	}
	return v, true
}

// Package format renders option prices for display.
package format

import (
	"fmt"
	"math"

	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Price returns amount rounded to two decimals with a currency symbol and
// thousands separators (e.g., "¥1,234.56", "-$0.50").
func Price(symbol string, amount float64) string {
	if !mathutil.IsFinite(amount) {
		return symbol + "NaN"
	}
	rounded := mathutil.Round(amount)
	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.2f", math.Abs(rounded))
	if rounded < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// Numeric returns the two-decimal amount without a symbol or separators,
// suitable for machine-readable output.
func Numeric(amount float64) string {
	return fmt.Sprintf("%.*f", constants.PriceDecimals, mathutil.Round(amount))
}

// Package output provides utilities for formatting and displaying priced quotes.
package output

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/format"
	"github.com/iwvelando/option-calculator/pkg/mathutil"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Quote pairs a submitted request with the pricing service answer.
type Quote struct {
	Request        pricing.Request `json:"request"`
	Result         pricing.Result  `json:"result"`
	CurrencySymbol string          `json:"-"`
}

// Display returns the rounded price with its currency symbol.
func (q Quote) Display() string {
	return format.Price(q.CurrencySymbol, q.Result.OptionPrice)
}

// PrettyFormat outputs a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, q Quote) error {
	req := q.Request
	lines := []struct {
		label string
		value string
	}{
		{"Option type", q.Result.OptionType},
		{"Spot price", format.Price(q.CurrencySymbol, req.SpotPrice)},
		{"Strike price", format.Price(q.CurrencySymbol, req.StrikePrice)},
		{"Maturity (years)", fmt.Sprintf("%.6g", req.TimeToMaturity)},
		{"Risk-free rate", fmt.Sprintf("%.4g%%", req.RiskFreeRate*constants.PercentageMultiplier)},
		{"Volatility", fmt.Sprintf("%.4g%%", req.Volatility*constants.PercentageMultiplier)},
		{"Dividend yield", fmt.Sprintf("%.4g%%", req.Q*constants.PercentageMultiplier)},
		{"Option price", q.Display()},
	}

	if _, err := fmt.Fprintf(w, "--- Option quote ---\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-17s| %s\n", line.label, line.value); err != nil {
			return err
		}
	}
	return nil
}

type csvRow struct {
	OptionType     string  `csv:"option_type"`
	IsCall         bool    `csv:"is_call"`
	SpotPrice      float64 `csv:"spot_price"`
	StrikePrice    float64 `csv:"strike_price"`
	TimeToMaturity float64 `csv:"time_to_maturity"`
	RiskFreeRate   float64 `csv:"risk_free_rate"`
	Volatility     float64 `csv:"volatility"`
	Q              float64 `csv:"q"`
	OptionPrice    string  `csv:"option_price"`
}

// CsvFormat outputs quotes in comma-separated value format with a header row.
func CsvFormat(w io.Writer, quotes []Quote) error {
	rows := make([]*csvRow, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, &csvRow{
			OptionType:     q.Result.OptionType,
			IsCall:         q.Request.IsCall,
			SpotPrice:      q.Request.SpotPrice,
			StrikePrice:    q.Request.StrikePrice,
			TimeToMaturity: q.Request.TimeToMaturity,
			RiskFreeRate:   q.Request.RiskFreeRate,
			Volatility:     q.Request.Volatility,
			Q:              q.Request.Q,
			OptionPrice:    format.Numeric(q.Result.OptionPrice),
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv output: %w", err)
	}
	return nil
}

type jsonQuote struct {
	Quote
	Rounded     float64 `json:"rounded_price"`
	DisplayText string  `json:"display"`
}

// JSONFormat outputs the quote as an indented JSON document. The service's
// unrounded price is kept next to the rounded display value.
func JSONFormat(w io.Writer, q Quote) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := jsonQuote{
		Quote:       q,
		Rounded:     mathutil.Round(q.Result.OptionPrice),
		DisplayText: q.Display(),
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write json output: %w", err)
	}
	return nil
}

// Package pricing turns validated form input into pricing service requests,
// talks to the pricing service, and maps its answers onto display outcomes.
package pricing

import (
	"errors"
	"fmt"

	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/mathutil"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
	"github.com/shopspring/decimal"
)

// ErrUnvalidatedInput means Build was handed input that does not pass field
// validation. Callers must validate first; reaching this is a bug.
var ErrUnvalidatedInput = errors.New("pricing input was not validated")

// Input is the raw form content. Numeric values stay as typed until Build.
type Input struct {
	IsCall bool
	Values map[validation.Field]string
}

// NewInput returns an empty call-option input.
func NewInput() Input {
	values := make(map[validation.Field]string, len(validation.Rules))
	for _, field := range validation.Fields() {
		values[field] = ""
	}
	return Input{IsCall: true, Values: values}
}

// Clone returns a deep copy so the caller can keep a snapshot.
func (in Input) Clone() Input {
	values := make(map[validation.Field]string, len(in.Values))
	for field, value := range in.Values {
		values[field] = value
	}
	return Input{IsCall: in.IsCall, Values: values}
}

// Request is the body posted to the pricing service. Rates are decimals and
// the maturity is in years.
type Request struct {
	IsCall         bool    `json:"is_call"`
	SpotPrice      float64 `json:"spot_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToMaturity float64 `json:"time_to_maturity"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Volatility     float64 `json:"volatility"`
	Q              float64 `json:"q"`
}

// Result is the pricing service answer. The price is kept unrounded.
type Result struct {
	OptionType  string  `json:"option_type"`
	OptionPrice float64 `json:"option_price"`
}


// Build converts validated input into a pricing request. The time to
// maturity is expressed in years using unit, and percentage fields are
// rescaled to decimals.
func Build(input Input, unit timeunit.Unit) (Request, error) {
	for _, field := range validation.Fields() {
		if err := validation.Validate(field, input.Values[field]); err != nil {
			return Request{}, fmt.Errorf("%w: %s: %w", ErrUnvalidatedInput, field, err)
		}
	}

	req := Request{IsCall: input.IsCall}
	var err error

	if req.SpotPrice, err = parseNumber(input, validation.SpotPrice); err != nil {
		return Request{}, err
	}
	if req.StrikePrice, err = parseNumber(input, validation.StrikePrice); err != nil {
		return Request{}, err
	}

	years, err := timeunit.ToYears(input.Values[validation.TimeToMaturity], unit)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %s: %w", ErrUnvalidatedInput, validation.TimeToMaturity, err)
	}
	if !mathutil.IsFinite(years) {
		return Request{}, fmt.Errorf("%w: %s: non-finite duration", ErrUnvalidatedInput, validation.TimeToMaturity)
	}
	req.TimeToMaturity = years

	if req.RiskFreeRate, err = parsePercentage(input, validation.RiskFreeInterest); err != nil {
		return Request{}, err
	}
	if req.Volatility, err = parsePercentage(input, validation.Volatility); err != nil {
		return Request{}, err
	}
	if req.Q, err = parsePercentage(input, validation.DividendYield); err != nil {
		return Request{}, err
	}

	return req, nil
}

func parseNumber(input Input, field validation.Field) (float64, error) {
	raw := input.Values[field]
	v, ok := mathutil.ParseFinite(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %s: cannot parse %q", ErrUnvalidatedInput, field, raw)
	}
	return v, nil
}

// parsePercentage shifts the decimal point rather than dividing: Div rounds
// at the default division precision and turns tiny rates into zero. The only
// rounding left is the final conversion back to float64.
func parsePercentage(input Input, field validation.Field) (float64, error) {
	v, err := parseNumber(input, field)
	if err != nil {
		return 0, err
	}
	rate, _ := decimal.NewFromFloat(v).Shift(constants.PercentageShift).Float64()
	return rate, nil
}

package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/iwvelando/option-calculator/pkg/mathutil"
)

// Field names one input of the pricing form. The value doubles as the form
// key and the JSON key used by the web UI.
type Field string

// Form fields in display order.
const (
	SpotPrice        Field = "spot_price"
	StrikePrice      Field = "strike_price"
	TimeToMaturity   Field = "time_to_maturity"
	RiskFreeInterest Field = "risk_free_interest"
	Volatility       Field = "volatility"
	DividendYield    Field = "q"
)

var fieldOrder = []Field{
	SpotPrice,
	StrikePrice,
	TimeToMaturity,
	RiskFreeInterest,
	Volatility,
	DividendYield,
}

// Fields returns every form field in display order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ParseField resolves a field name, rejecting anything outside the rule table.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := Rules[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// RuleKind selects the matcher applied to a field.
type RuleKind int

const (
	// Currency accepts an integer with an optional one or two digit fraction.
	Currency RuleKind = iota + 1
	// SignedInteger accepts an optional leading minus followed by digits.
	SignedInteger
	// Percentage accepts any finite number.
	Percentage
)

func (k RuleKind) String() string {
	switch k {
	case Currency:
		return "currency"
	case SignedInteger:
		return "signed-integer"
	case Percentage:
		return "percentage"
	}
	return "unknown"
}

// Rule describes how a field is validated and how it is presented.
type Rule struct {
	Kind  RuleKind
	Label string
	Hint  string
}

// Rules maps each form field to its validation rule. Adding a field to the
// form means adding an entry here.
var Rules = map[Field]Rule{
	SpotPrice:        {Kind: Currency, Label: "Spot price", Hint: "up to two decimal places, e.g. 0.02"},
	StrikePrice:      {Kind: Currency, Label: "Strike price", Hint: "up to two decimal places, e.g. 0.02"},
	TimeToMaturity:   {Kind: SignedInteger, Label: "Time to maturity", Hint: "whole number, unit selectable"},
	RiskFreeInterest: {Kind: Percentage, Label: "Risk-free rate", Hint: "current risk-free rate in %"},
	Volatility:       {Kind: Percentage, Label: "Volatility", Hint: "underlying volatility in %"},
	DividendYield:    {Kind: Percentage, Label: "Dividend yield", Hint: "current dividend yield in %"},
}

// Validation failures. Callers compare with errors.Is.
var (
	ErrRequired        = errors.New("this field is required")
	ErrNotANumber      = errors.New("please enter a valid number")
	ErrTooManyDecimals = errors.New("no more than two digits are allowed after the decimal point")
	ErrMalformedAmount = errors.New("please enter a non-negative amount with up to two decimal places")
	ErrNotInteger      = errors.New("please enter a whole number")
	ErrUnknownField    = errors.New("unknown field")
)

// FieldError is a validation failure bound to one field.
type FieldError struct {
	Field Field
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

var (
	currencyPattern       = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	excessFractionPattern = regexp.MustCompile(`^\d+\.\d{3,}$`)
	signedIntegerPattern  = regexp.MustCompile(`^-?\d+$`)
)

var matchers = map[RuleKind]func(string) error{
	Currency:      matchCurrency,
	SignedInteger: matchSignedInteger,
	Percentage:    matchPercentage,
}

// Validate checks a raw field value against the field's rule. It returns nil
// when the value is acceptable and a *FieldError otherwise.
func Validate(field Field, raw string) error {
	rule, ok := Rules[field]
	if !ok {
		return &FieldError{Field: field, Err: ErrUnknownField}
	}
	// "0" is a legitimate value, only the empty string is missing.
	if raw == "" {
		return &FieldError{Field: field, Err: ErrRequired}
	}
	if err := matchers[rule.Kind](raw); err != nil {
		return &FieldError{Field: field, Err: err}
	}
	return nil
}

// Message returns the display message for a raw field value, or "" when the
// value is valid.
func Message(field Field, raw string) string {
	if err := Validate(field, raw); err != nil {
		return err.Error()
	}
	return ""
}

func matchCurrency(raw string) error {
	if currencyPattern.MatchString(raw) {
		return nil
	}
	if _, ok := mathutil.ParseFinite(raw); !ok {
		return ErrNotANumber
	}
	if excessFractionPattern.MatchString(raw) {
		return ErrTooManyDecimals
	}
	return ErrMalformedAmount
}

func matchSignedInteger(raw string) error {
	if signedIntegerPattern.MatchString(raw) {
		return nil
	}
	if _, ok := mathutil.ParseFinite(raw); !ok {
		return ErrNotANumber
	}
	return ErrNotInteger
}

func matchPercentage(raw string) error {
	if _, ok := mathutil.ParseFinite(raw); !ok {
		return ErrNotANumber
	}
	return nil
}

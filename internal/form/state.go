// Package form holds the pricing form state, the reducer that applies user
// edits to it, and the controller that runs submissions.
package form

import (
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
)

// State is everything the form displays. Values are replaced, never shared:
// every reducer returns a fresh State.
type State struct {
	Input   pricing.Input
	Unit    timeunit.Unit
	Errors  map[validation.Field]string
	Result  *pricing.Result
	Error   string
	Loading bool
}

// NewState returns an empty form for a call option measured in years.
func NewState() State {
	return State{
		Input:  pricing.NewInput(),
		Unit:   timeunit.Year,
		Errors: make(map[validation.Field]string, len(validation.Rules)),
	}
}

// Update sets one field and recomputes that field's error only. Other
// fields keep whatever error they had.
func Update(s State, field validation.Field, value string) State {
	next := s.clone()
	next.Input.Values[field] = value
	next.Errors[field] = validation.Message(field, value)
	return next
}

// SetUnit selects the unit the time to maturity is expressed in.
func SetUnit(s State, unit timeunit.Unit) State {
	next := s.clone()
	next.Unit = unit
	return next
}

// SetOptionType switches between a call and a put.
func SetOptionType(s State, isCall bool) State {
	next := s.clone()
	next.Input.IsCall = isCall
	return next
}

// ValidateAll recomputes the error of every field, including fields the user
// never touched.
func ValidateAll(s State) State {
	next := s.clone()
	for _, field := range validation.Fields() {
		next.Errors[field] = validation.Message(field, next.Input.Values[field])
	}
	return next
}

// Valid reports whether every field currently holds an acceptable value.
func (s State) Valid() bool {
	for _, field := range validation.Fields() {
		if validation.Validate(field, s.Input.Values[field]) != nil {
			return false
		}
	}
	return true
}

// FieldErrors returns the non-empty field errors.
func (s State) FieldErrors() map[validation.Field]string {
	out := make(map[validation.Field]string)
	for field, msg := range s.Errors {
		if msg != "" {
			out[field] = msg
		}
	}
	return out
}

func (s State) clone() State {
	next := s
	next.Input = s.Input.Clone()
	if next.Input.Values == nil {
		next.Input.Values = make(map[validation.Field]string)
	}
	next.Errors = make(map[validation.Field]string, len(s.Errors))
	for field, msg := range s.Errors {
		next.Errors[field] = msg
	}
	if s.Result != nil {
		result := *s.Result
		next.Result = &result
	}
	return next
}

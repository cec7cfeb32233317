// Package timeunit converts a duration expressed in years, months or trading
// days into years.
package timeunit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/option-calculator/pkg/constants"
)

// Unit is the unit a duration was entered in. The zero value is Year.
type Unit int

// Supported units.
const (
	Year Unit = iota
	Month
	Day
)

// ErrUnknownUnit is returned when a tag does not name a supported unit.
var ErrUnknownUnit = errors.New("unknown time unit")

type descriptor struct {
	tag     string
	label   string
	divisor float64
}

// Day uses the trading-day convention, not calendar days.
var descriptors = map[Unit]descriptor{
	Year:  {tag: "year", label: "Years", divisor: 1},
	Month: {tag: "month", label: "Months", divisor: constants.MonthsPerYear},
	Day:   {tag: "day", label: "Trading days", divisor: constants.TradingDaysPerYear},
}

// Units returns the supported units in display order.
func Units() []Unit {
	return []Unit{Year, Month, Day}
}

// ParseUnit looks a unit up by its stable tag ("year", "month", "day").
func ParseUnit(tag string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	for u, d := range descriptors {
		if d.tag == key {
			return u, nil
		}
	}
	return Year, fmt.Errorf("%w: %q", ErrUnknownUnit, tag)
}

// String returns the stable tag.
func (u Unit) String() string {
	if d, ok := descriptors[u]; ok {
		return d.tag
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

// Label returns the display label.
func (u Unit) Label() string {
	return descriptors[u].label
}

// Divisor returns how many of this unit make up one year.
func (u Unit) Divisor() float64 {
	return descriptors[u].divisor
}

// Factor returns the fraction of a year one unit represents.
func (u Unit) Factor() float64 {
	return 1 / u.Divisor()
}

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	_, ok := descriptors[u]
	return ok
}

// MarshalText encodes the unit as its tag.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText decodes a unit tag.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ToYears parses raw as a number and expresses it in years. The value is
// divided by the unit's divisor rather than multiplied by its factor so that
// 12 months and 252 days give exactly 1.
func ToYears(raw string, unit Unit) (float64, error) {
	if !unit.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownUnit, int(unit))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", raw, err)
	}
	return v / unit.Divisor(), nil
}

// Package constants provides shared constants for the option-calculator application.
package constants

import "time"

// Time conversion constants
const (
	// TradingDaysPerYear is the trading-day convention used to turn day
	// durations into years.
	TradingDaysPerYear = 252

	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12
)

// Rate constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// PercentageShift moves the decimal point of a percentage to give a rate
	PercentageShift = -2

	// PriceDecimals is the number of decimals a price is rendered with
	PriceDecimals = 2

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. OPTION_CALCULATOR_PRICING_ENDPOINT
	EnvPrefix = "OPTION_CALCULATOR"
)

// Pricing service defaults
const (
	// DefaultPricingEndpoint is the base URL of the pricing service
	DefaultPricingEndpoint = "http://127.0.0.1:8000"

	// DefaultPricingPath is the pricing route on the service
	DefaultPricingPath = "/api/price"

	// DefaultPricingTimeout bounds a single pricing call
	DefaultPricingTimeout = 10 * time.Second

	// RequestIDHeader carries the per-submission identifier
	RequestIDHeader = "X-Request-ID"
)

// Form defaults
const (
	// DefaultTimeUnit is the unit selected when the form is created
	DefaultTimeUnit = "year"

	// DefaultCurrencySymbol prefixes rendered prices
	DefaultCurrencySymbol = "¥"

	// DefaultFallbackMessage is shown when the pricing service gives no usable detail
	DefaultFallbackMessage = "An error occurred while calculating the option price. Please check your input and try again."
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultShutdownTimeout is how long the server waits for in-flight requests
	DefaultShutdownTimeout = 15 * time.Second
)

// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for option-calculator.
type Configuration struct {
	Pricing PricingConfig `yaml:"pricing"`
	Form    FormConfig    `yaml:"form"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// PricingConfig locates the remote pricing service.
type PricingConfig struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Path     string        `yaml:"path" validate:"required,startswith=/"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// URL returns the full pricing route.
func (p PricingConfig) URL() string {
	return strings.TrimRight(p.Endpoint, "/") + p.Path
}

// FormConfig holds form presentation defaults.
type FormConfig struct {
	DefaultUnit     string `yaml:"defaultUnit" validate:"oneof=year month day"`
	CurrencySymbol  string `yaml:"currencySymbol"`
	FallbackMessage string `yaml:"fallbackMessage" validate:"required"`
}

// Unit resolves the configured default time unit.
func (f FormConfig) Unit() (timeunit.Unit, error) {
	return timeunit.ParseUnit(f.DefaultUnit)
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn warning error"` // debug, info, warn, error
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`                 // json, console
	OutputFile string `yaml:"outputFile,omitempty"`                                                     // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=pretty csv json"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("pricing.endpoint", constants.DefaultPricingEndpoint)
	v.SetDefault("pricing.path", constants.DefaultPricingPath)
	v.SetDefault("pricing.timeout", constants.DefaultPricingTimeout)
	v.SetDefault("form.defaultUnit", constants.DefaultTimeUnit)
	v.SetDefault("form.currencySymbol", constants.DefaultCurrencySymbol)
	v.SetDefault("form.fallbackMessage", constants.DefaultFallbackMessage)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	// Report problems with the YAML key names users actually write.
	val.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return val
}

// Validate checks the configuration and returns every problem found.
func (c *Configuration) Validate() error {
	return ValidateStruct(c)
}

// ValidateStruct runs the validate tags of s and joins every failure into one
// error. Problems are reported by YAML key path, e.g. "pricing.timeout".
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	problems := make([]error, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		key := fieldErr.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if fieldErr.Param() != "" {
			problems = append(problems, fmt.Errorf("%s: failed %s=%s (got %v)", key, fieldErr.Tag(), fieldErr.Param(), fieldErr.Value()))
		} else {
			problems = append(problems, fmt.Errorf("%s: failed %s (got %v)", key, fieldErr.Tag(), fieldErr.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
}

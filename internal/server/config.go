package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/option-calculator/internal/config"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address" validate:"required,hostname_port"`
	MaxBodySize     ByteSize             `yaml:"maxBodySize" validate:"gt=0"`
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout" validate:"gt=0"`
	Logging         config.LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the settings used when no server config file exists.
func DefaultConfig() *Config {
	return &Config{
		Address:         constants.DefaultServerAddress,
		MaxBodySize:     ByteSize(constants.DefaultMaxBodySizeBytes),
		ShutdownTimeout: constants.DefaultShutdownTimeout,
	}
}

// LoadConfig reads the YAML server config at path over the defaults. A
// missing file is not an error; unknown keys are.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open server config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid server setting.
func (c *Config) Validate() error {
	return config.ValidateStruct(c)
}

// ByteSize is a byte count that reads from YAML either as a plain number or
// as a human size such as "64K".
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler. A null value keeps the default.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return nil
	}
	size, err := ParseSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = ByteSize(size)
	return nil
}

// String renders the size with the largest unit that divides it evenly.
func (b ByteSize) String() string {
	for _, u := range sizeUnits {
		if len(u.suffix) == 1 && u.factor > 1 && b > 0 && int64(b)%u.factor == 0 {
			return strconv.FormatInt(int64(b)/u.factor, 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(b), 10)
}

// Longer suffixes first so "MB" is not read as "M" plus a stray "B".
var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"M", 1 << 20},
	{"K", 1 << 10},
	{"B", 1},
}

// ParseSize converts a byte string such as "512", "256K" or "1MB" into bytes.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return 0, errors.New("empty size")
	}

	factor := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			factor = u.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", value)
	}
	if n > math.MaxInt64/factor {
		return 0, fmt.Errorf("invalid size %q: overflows int64", value)
	}
	return n * factor, nil
}

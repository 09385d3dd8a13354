package mosaic

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the tunable heuristics and hard resource bounds of a run.
// Threshold, MaxDepth, SplitsPerTick and MaxNodes can change while a run is in
// progress; MinBlockSize takes effect at the next Start.
type Config struct {
	// Threshold is the error score a leaf must exceed to be split.
	Threshold float64 `yaml:"threshold" validate:"gte=0"`
	// MaxDepth bounds leaf depth; 0 keeps the root unsplit.
	MaxDepth int `yaml:"max_depth" validate:"gte=0,lte=30"`
	// SplitsPerTick bounds the work done by one Tick.
	SplitsPerTick int `yaml:"splits_per_tick" validate:"gte=1"`
	// MinBlockSize is the narrowest width or height a child may have.
	MinBlockSize int `yaml:"min_block_size" validate:"gte=1"`
	// MaxNodes caps NodeCount; reaching it stops the run.
	MaxNodes int `yaml:"max_nodes" validate:"gte=1"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Threshold:     10,
		MaxDepth:      10,
		SplitsPerTick: 64,
		MinBlockSize:  2,
		MaxNodes:      200_000,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid setting, wrapped around ErrInvalidConfig.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Wrapf(ErrInvalidConfig, "%s must be %s %s, got %v",
				fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// ParseConfig decodes YAML settings on top of DefaultConfig and validates the
// result. Keys absent from data keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML settings file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// Package config settles and validates generation parameters merged
// from flags, environment variables, and an optional config file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/amorin/promptforge/imaging"
	"github.com/amorin/promptforge/schedule"
)

// Bounds on images per multimodal request accepted by chat completion
// endpoints
const (
	MinImagesPerRequest = 1
	MaxImagesPerRequest = 120
)

// ErrInvalidImageCount indicates an images-per-request value outside the
// accepted range
var ErrInvalidImageCount = errors.New("images per request must be between 1 and 120")

// Config holds the settled parameters for one generation run
type Config struct {
	OutputFile       string  `mapstructure:"output-file" validate:"required"`
	ImageDir         string  `mapstructure:"image-dir"`
	TextFile         string  `mapstructure:"text-file"`
	TotalMessages    int     `mapstructure:"total-messages" validate:"gte=1"`
	Ratio            float64 `mapstructure:"request-ratio" validate:"gte=0,lte=1"`
	ImagesPerRequest int     `mapstructure:"images-per-request" validate:"gte=1,lte=120"`
	Quality          string  `mapstructure:"quality-mode" validate:"oneof=low high"`
	SystemPrompt     string  `mapstructure:"system-prompt"`
	Seed             int64   `mapstructure:"seed"`
	Workers          int     `mapstructure:"workers" validate:"gte=0"`
	ManifestFile     string  `mapstructure:"manifest"`
	NoProgress       bool    `mapstructure:"no-progress"`
	Verbose          bool    `mapstructure:"verbose"`
}

// Load settles the configuration from viper's merged sources and
// validates it. Validation happens before any filesystem access, so a
// bad parameter can never leave partial output behind.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile merges a config file into viper before flags are settled
func LoadFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate checks bounds and cross-field requirements, mapping range
// failures onto the domain sentinels so callers can branch on them.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return c.fieldError(fieldErrs[0])
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Ratio > 0 && c.ImageDir == "" {
		return fmt.Errorf("image-dir is required when request-ratio is above zero")
	}
	return nil
}

// fieldError translates a struct tag failure into the matching domain
// error
func (c *Config) fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "Ratio":
		return fmt.Errorf("%w: got %g", schedule.ErrInvalidRatio, c.Ratio)
	case "ImagesPerRequest":
		return fmt.Errorf("%w: got %d", ErrInvalidImageCount, c.ImagesPerRequest)
	case "Quality":
		return fmt.Errorf("invalid quality mode %q (valid: low, high)", c.Quality)
	case "OutputFile":
		return fmt.Errorf("output-file is required")
	case "TotalMessages":
		return fmt.Errorf("total-messages must be at least 1, got %d", c.TotalMessages)
	case "Workers":
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	default:
		return fmt.Errorf("invalid configuration: %s", fe)
	}
}

// QualityMode returns the parsed quality enum. Only meaningful after
// Validate has passed.
func (c *Config) QualityMode() imaging.Quality {
	q, err := imaging.ParseQuality(c.Quality)
	if err != nil {
		return imaging.QualityHigh
	}
	return q
}

// SettleSeed fills in a time-derived seed when none was supplied, so
// every run stays replayable from its recorded seed.
func (c *Config) SettleSeed(explicit bool) {
	if !explicit {
		c.Seed = time.Now().UnixNano()
	}
}

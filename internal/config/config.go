package config

import (
	"os"
	"strconv"

	"countglm/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data  DataConfig
	Model ModelConfig
}

// DataConfig holds dataset location and column mapping
type DataConfig struct {
	FilePath       string `validate:"required"`
	ValueColumn    string `validate:"required"`
	CategoryColumn string `validate:"required"`
}

// ModelConfig holds discretization and fitting policy. Every knob has
// the canonical default so an empty environment reproduces the
// standard analysis.
type ModelConfig struct {
	BinWidth       float64
	IQRMultiplier  float64
	ReferenceLevel string // empty means lexicographically first level
	Tolerance      float64
	MaxIterations  int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			FilePath:       os.Getenv("DATA_FILE"),
			ValueColumn:    getEnvOrDefault("VALUE_COLUMN", "arr_delay"),
			CategoryColumn: getEnvOrDefault("CATEGORY_COLUMN", "carrier"),
		},
		Model: ModelConfig{
			BinWidth:       getEnvFloatOrDefault("BIN_WIDTH", 5),
			IQRMultiplier:  getEnvFloatOrDefault("IQR_MULTIPLIER", 1.5),
			ReferenceLevel: getEnvOrDefault("REFERENCE_LEVEL", ""),
			Tolerance:      getEnvFloatOrDefault("FIT_TOLERANCE", 1e-8),
			MaxIterations:  getEnvIntOrDefault("FIT_MAX_ITERATIONS", 25),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.FilePath == "" {
		return errors.ConfigInvalid("DATA_FILE is required")
	}
	if config.Model.BinWidth <= 0 {
		return errors.ConfigInvalid("BIN_WIDTH must be > 0")
	}
	if config.Model.MaxIterations <= 0 {
		return errors.ConfigInvalid("FIT_MAX_ITERATIONS must be > 0")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

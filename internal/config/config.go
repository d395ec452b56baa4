// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	errInvalidReportFormat = errors.New("report format must be 'log' or 'table'")
	errNoTotalKeys         = errors.New("at least one total key is required")
	errNegativeEpochs      = errors.New("epochs cannot be negative")
)

// Config holds the application configuration
type Config struct {
	LogLevel     logrus.Level
	ReportFormat string
	TotalKeys    []string
	PlanPath     string
	// Epochs overrides the plan's epoch count when non-zero.
	Epochs int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
// Values are parsed but not validated, callers apply their overrides and then call Validate.
func FromEnv() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv(EnvLogLevel, DefaultLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}

	epochs, err := strconv.Atoi(getEnv(EnvEpochs, "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvEpochs, err)
	}

	cfg := &Config{
		LogLevel:     level,
		ReportFormat: strings.ToLower(getEnv(EnvReportFormat, ReportFormatLog)),
		TotalKeys:    parseList(getEnv(EnvTotalKeys, DefaultTotalKeys)),
		PlanPath:     getEnv(EnvPlan, ""),
		Epochs:       epochs,
	}

	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.ReportFormat {
	case ReportFormatLog, ReportFormatTable:
	default:
		return fmt.Errorf("%w, got %q", errInvalidReportFormat, c.ReportFormat)
	}

	if len(c.TotalKeys) == 0 {
		return errNoTotalKeys
	}

	if c.Epochs < 0 {
		return errNegativeEpochs
	}

	return nil
}

func (c *Config) String() string {
	planDisplay := c.PlanPath
	if planDisplay == "" {
		planDisplay = "(built-in)"
	}

	epochsDisplay := "(from plan)"
	if c.Epochs > 0 {
		epochsDisplay = strconv.Itoa(c.Epochs)
	}

	return fmt.Sprintf(`Current Configuration:
======================
Log Level:      %s
Report Format:  %s
Total Keys:     %s
Plan:           %s
Epochs:         %s`,
		c.LogLevel,
		c.ReportFormat,
		strings.Join(c.TotalKeys, ", "),
		planDisplay,
		epochsDisplay,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseList parses a comma-separated list, dropping empty items.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}

	return items
}

// =============================================================================
// sheet2csv - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file. Every setting has a
// default, so the extractor runs without any file at all; command-line flags
// override whatever the file sets.
//
// EXAMPLE (sheet2csv.yaml):
//
//   selection:
//     sheet_index: 0
//     table_index: 0
//   reader:
//     raw_values: false
//   validation:
//     header_rows: 2
//     header_keywords: ["week number", "week ending"]
//   output:
//     delimiter: ","
//     crlf: false
//     verify: true
//   logging:
//     level: info
//     format: text
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/sheet2csv/internal/csvio"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the extractor configuration.
type Config struct {
	Selection  SelectionConfig  `yaml:"selection"`
	Reader     ReaderConfig     `yaml:"reader"`
	Validation ValidationConfig `yaml:"validation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SelectionConfig picks the table to export. Indices are 0-based.
type SelectionConfig struct {
	// SheetIndex is the sheet to read.
	// Default: 0 (first sheet)
	SheetIndex int `yaml:"sheet_index"`

	// TableIndex is the table to export within the selected sheet.
	// Default: 0 (first table)
	TableIndex int `yaml:"table_index"`
}

// ReaderConfig controls how cell values are read from the document.
type ReaderConfig struct {
	// RawValues exports stored values instead of formatted display text.
	// Default: false
	RawValues bool `yaml:"raw_values"`
}

// ValidationConfig controls the header check.
type ValidationConfig struct {
	// HeaderRows is the number of leading rows searched for keywords.
	// Default: 2
	HeaderRows int `yaml:"header_rows"`

	// HeaderKeywords are the keywords that identify the expected table.
	// Default: ["week number", "week ending"]
	HeaderKeywords []string `yaml:"header_keywords"`
}

// OutputConfig controls the CSV dialect and post-write checks.
type OutputConfig struct {
	// Delimiter separates fields.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// CRLF terminates rows with "\r\n".
	// Default: false
	CRLF bool `yaml:"crlf"`

	// Verify re-reads the written file and compares the row count.
	// Default: true
	Verify *bool `yaml:"verify"`
}

// LoggingConfig controls progress output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format"`
}

// ShouldVerify reports whether the written file is re-read.
func (o OutputConfig) ShouldVerify() bool {
	return o.Verify == nil || *o.Verify
}

// CSVSettings returns the CSV dialect for the csvio package.
func (o OutputConfig) CSVSettings() csvio.Settings {
	return csvio.Settings{Delimiter: o.Delimiter, UseCRLF: o.CRLF}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is given.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// Load reads the configuration from a YAML file. An empty path returns the
// defaults.
//
// RETURNS:
//   - The configuration with defaults applied.
//   - An error if the file cannot be read or parsed, or holds invalid values.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.Validation.HeaderRows == 0 {
		config.Validation.HeaderRows = 2
	}
	if len(config.Validation.HeaderKeywords) == 0 {
		config.Validation.HeaderKeywords = []string{"week number", "week ending"}
	}
	if config.Output.Delimiter == "" {
		config.Output.Delimiter = ","
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error

	if c.Selection.SheetIndex < 0 {
		errs = append(errs, fmt.Errorf("selection.sheet_index must not be negative (got %d)", c.Selection.SheetIndex))
	}
	if c.Selection.TableIndex < 0 {
		errs = append(errs, fmt.Errorf("selection.table_index must not be negative (got %d)", c.Selection.TableIndex))
	}
	if c.Validation.HeaderRows < 0 {
		errs = append(errs, fmt.Errorf("validation.header_rows must be positive (got %d)", c.Validation.HeaderRows))
	}
	for _, keyword := range c.Validation.HeaderKeywords {
		if strings.TrimSpace(keyword) == "" {
			errs = append(errs, errors.New("validation.header_keywords must not contain empty keywords"))
			break
		}
	}
	if _, err := c.Output.CSVSettings().Comma(); err != nil {
		errs = append(errs, fmt.Errorf("output.delimiter: %w", err))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

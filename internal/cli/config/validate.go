package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var validOutputs = []string{"auto", "text", "markdown", "md", "json", "csv"}

// Validate checks if the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if !isValidOutput(c.OutputFormat) {
		errs = append(errs, fmt.Errorf("invalid output %q (valid: auto, text, markdown, json, csv)", c.OutputFormat))
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			errs = append(errs, fmt.Errorf("invalid locale %q: %w", c.Locale, err))
		}
	}
	if c.Currency != "" {
		if _, err := currency.ParseISO(c.Currency); err != nil {
			errs = append(errs, fmt.Errorf("invalid currency %q: %w", c.Currency, err))
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
		}
	}
	if c.PageSize < 0 {
		errs = append(errs, fmt.Errorf("page_size must not be negative, got %d", c.PageSize))
	}
	for name, ds := range c.Datasets {
		if ds.PageSize < 0 {
			errs = append(errs, fmt.Errorf("datasets.%s.page_size must not be negative, got %d", name, ds.PageSize))
		}
	}
	if c.Server != nil && (c.Server.Port < 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s\nHint: Create the directory or use --data-dir to specify a different path", c.DataDir)
	}
	return nil
}

func isValidOutput(s string) bool {
	return s == "" || slices.Contains(validOutputs, s)
}

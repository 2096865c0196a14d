// Package config provides configuration management for the leapview CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/leapview/internal/erp"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	Watch             bool          `koanf:"watch"`
	Debounce          time.Duration `koanf:"debounce"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:              DefaultPort,
		Watch:             true,
		Debounce:          DefaultDebounce,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
}

// GetServerConfig returns the server config with defaults applied for any unset values.
func (c *Config) GetServerConfig() *ServerConfig {
	if c.Server == nil {
		return DefaultServerConfig()
	}
	s := *c.Server
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Debounce == 0 {
		s.Debounce = DefaultDebounce
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	return &s
}

// DatasetConfig overrides the defaults of one dataset.
type DatasetConfig struct {
	DefaultSort  string   `koanf:"default_sort"`
	PageSize     int      `koanf:"page_size"`
	SearchFields []string `koanf:"search_fields"`
}

// Config holds all CLI configuration options.
type Config struct {
	DataDir      string                   `koanf:"data_dir"`
	StatePath    string                   `koanf:"state_path"`
	Verbose      bool                     `koanf:"verbose"`
	OutputFormat string                   `koanf:"output"`
	Locale       string                   `koanf:"locale"`
	Currency     string                   `koanf:"currency"`
	Timezone     string                   `koanf:"timezone"`
	PageSize     int                      `koanf:"page_size"`
	Server       *ServerConfig            `koanf:"server"`
	Datasets     map[string]DatasetConfig `koanf:"datasets"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Settings converts the dataset overrides for the loader. The global page
// size applies to every dataset without its own.
func (c *Config) Settings() map[string]erp.Settings {
	out := make(map[string]erp.Settings, len(c.Datasets))
	for _, def := range erp.Definitions() {
		name := def.DatasetName()
		ds := c.Datasets[name]
		s := erp.Settings{
			DefaultSort:  ds.DefaultSort,
			PageSize:     ds.PageSize,
			SearchFields: ds.SearchFields,
		}
		if s.PageSize == 0 {
			s.PageSize = c.PageSize
		}
		out[name] = s
	}
	return out
}

// Location returns the configured time zone, or the local zone when unset.
// The zone is checked by Validate.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Default configuration values.
const (
	DefaultDataDir           = "data"
	DefaultStateFile         = ".leapview/state.db"
	DefaultOutput            = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLocale            = "en"
	DefaultCurrency          = "INR"
	DefaultPort              = 8766
	DefaultDebounce          = 250 * time.Millisecond
	DefaultReadHeaderTimeout = 10 * time.Second
)

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapview/internal/cli/config"
	"github.com/leapstack-labs/leapview/internal/cli/output"
	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/state"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Catalog  *erp.Catalog
	Options  view.Options
}

// NewCommandContext loads the datasets and creates the renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc, err := NewCommandContextWithoutCatalog(cmd)
	if err != nil {
		return nil, err
	}
	if err := cc.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}
	catalog, err := erp.Load(cmd.Context(), cc.Cfg.DataDir, cc.Cfg.Settings(), cc.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}
	cc.Catalog = catalog
	return cc, nil
}

// NewCommandContextWithoutCatalog creates a CommandContext without loading
// datasets. Useful for commands that only touch the state store.
func NewCommandContextWithoutCatalog(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return nil, err
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	r.SetFormatter(format)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Options: view.Options{
			Language: format.Language(),
			Location: cfg.Location(),
		},
	}, nil
}

// Dataset returns a loaded dataset by name.
func (c *CommandContext) Dataset(name string) (erp.Dataset, error) {
	return c.Catalog.Get(name)
}

// Now returns the current time in the configured zone.
func (c *CommandContext) Now() time.Time {
	return time.Now().In(c.Cfg.Location())
}

// OpenStore opens the state database, creating its directory and schema.
// The caller must close the store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	path := c.Cfg.StatePath
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	c.Logger.Debug("opened state store", "path", path)
	return store, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	pageSize, _ := strconv.Atoi(os.Getenv("LEAPVIEW_PAGE_SIZE"))
	return &config.Config{
		DataDir:      getEnvOrDefault("LEAPVIEW_DATA_DIR", config.DefaultDataDir),
		StatePath:    getEnvOrDefault("LEAPVIEW_STATE_PATH", config.DefaultStateFile),
		Verbose:      os.Getenv("LEAPVIEW_VERBOSE") == "true",
		OutputFormat: os.Getenv("LEAPVIEW_OUTPUT"),
		Locale:       getEnvOrDefault("LEAPVIEW_LOCALE", config.DefaultLocale),
		Currency:     getEnvOrDefault("LEAPVIEW_CURRENCY", config.DefaultCurrency),
		Timezone:     os.Getenv("LEAPVIEW_TIMEZONE"),
		PageSize:     pageSize,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

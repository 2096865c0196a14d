package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/loader"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// LoadCatalog creates one table per dataset, named after the dataset. CSV
// sources are read natively when the engine supports it; other datasets are
// written row by row from their typed records.
func LoadCatalog(ctx context.Context, a Adapter, c *erp.Catalog, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	csv, native := a.(CSVLoader)
	for _, ds := range c.All() {
		info := ds.Info()
		if native && info.Format == loader.FormatCSV && info.Source != "" {
			if err := csv.LoadCSV(ctx, info.Name, info.Source); err != nil {
				return fmt.Errorf("failed to load dataset %s: %w", info.Name, err)
			}
			logger.Debug("loaded dataset into SQL engine", "dataset", info.Name, "engine", a.Engine(), "mode", "csv")
			continue
		}

		tbl, err := ds.Run(core.Query{}, view.Options{})
		if err != nil {
			return fmt.Errorf("failed to read dataset %s: %w", info.Name, err)
		}
		if err := a.LoadTable(ctx, info.Name, tbl); err != nil {
			return fmt.Errorf("failed to load dataset %s: %w", info.Name, err)
		}
		logger.Debug("loaded dataset into SQL engine", "dataset", info.Name, "engine", a.Engine(), "rows", len(tbl.Rows))
	}
	return nil
}

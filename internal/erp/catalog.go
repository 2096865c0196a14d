package erp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapview/internal/loader"
	"golang.org/x/sync/errgroup"
)

// Catalog holds the loaded datasets by name.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{datasets: make(map[string]Dataset)}
}

// Register adds a dataset, replacing any dataset of the same name.
func (c *Catalog) Register(ds Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasets[ds.Info().Name] = ds
}

// Get returns the named dataset.
func (c *Catalog) Get(name string) (Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return ds, nil
}

// Names returns the dataset names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns the datasets ordered by name.
func (c *Catalog) All() []Dataset {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Dataset, 0, len(names))
	for _, name := range names {
		if ds, ok := c.datasets[name]; ok {
			out = append(out, ds)
		}
	}
	return out
}

// Count returns the number of datasets.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

// Replace swaps the whole content of the catalog with other's datasets.
func (c *Catalog) Replace(other *Catalog) {
	other.mu.RLock()
	next := make(map[string]Dataset, len(other.datasets))
	for k, v := range other.datasets {
		next[k] = v
	}
	other.mu.RUnlock()

	c.mu.Lock()
	c.datasets = next
	c.mu.Unlock()
}

// Load opens every known dataset that has a data file in dir. Datasets are
// loaded concurrently; a dataset without a file is skipped. settings is
// keyed by dataset name.
func Load(ctx context.Context, dir string, settings map[string]Settings, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defs := Definitions()
	loaded := make([]Dataset, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := def.DatasetName()
			path, err := loader.Find(dir, name)
			if errors.Is(err, loader.ErrNotFound) {
				logger.Debug("no data file for dataset", "dataset", name, "dir", dir)
				return nil
			}
			if err != nil {
				return err
			}
			ds, err := def.Open(path, settings[name])
			if err != nil {
				return fmt.Errorf("failed to load dataset %s: %w", name, err)
			}
			logger.Info("loaded dataset", "dataset", name, "records", ds.Info().Records, "source", path)
			loaded[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := NewCatalog()
	for _, ds := range loaded {
		if ds != nil {
			c.Register(ds)
		}
	}
	return c, nil
}

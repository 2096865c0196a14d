package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/internal/loader"
)

// watchFiles reloads the catalog when a data file in the data directory is
// written, created, removed or renamed. Bursts of events within the
// debounce interval cause a single reload.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.dataDir); err != nil {
		s.logger.Error("failed to watch data directory", "dir", s.dataDir, "error", err)
		<-ctx.Done()
		return nil
	}
	s.logger.Debug("watching data directory", "dir", s.dataDir)

	pending := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			s.logger.Debug("data file changed", "file", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			_ = s.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "" || base[0] == '.' {
		return false
	}
	_, err := loader.FormatOf(event.Name)
	return err == nil
}

// Reload loads the data directory again and swaps the catalog content. On
// failure the current datasets stay in place.
func (s *Server) Reload(ctx context.Context) error {
	next, err := erp.Load(ctx, s.dataDir, s.settings, s.logger)
	s.metrics.ObserveReload(err)
	if err != nil {
		s.logger.Error("reload failed, keeping current datasets", "error", err)
		return err
	}
	s.catalog.Replace(next)
	s.metrics.ObserveCatalog(s.catalog)
	s.logger.Info("catalog reloaded", "datasets", s.catalog.Count())
	s.notifier.Broadcast()
	return nil
}

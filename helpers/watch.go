package helpers

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce batches the burst of events one save produces.
const DefaultDebounce = 300 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	logger   zerolog.Logger
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithWatchLogger routes watcher events to l.
func WithWatchLogger(l zerolog.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = l }
}

// Watch re-reads path whenever it changes and hands the result to onChange.
// The parent directory is watched so editors that save by rename are seen.
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(Table, error), opts ...WatchOption) error {
	cfg := watchConfig{debounce: DefaultDebounce, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	cfg.logger.Info().Str("path", abs).Msg("watching dataset file")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(cfg.debounce)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cfg.logger.Warn().Err(err).Msg("watcher error")

		case <-fire:
			fire = nil
			t, err := ReadFile(abs)
			cfg.logger.Debug().Str("path", abs).Err(err).Int("rows", len(t.Rows)).Msg("dataset file changed")
			onChange(t, err)
		}
	}
}

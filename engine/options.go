package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	logger zerolog.Logger
	now    func() time.Time
}

// WithLogger routes executor debug output (dropped filters, match counts).
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock overrides the clock used to measure execution time.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

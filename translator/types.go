package translator

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/engine"
)

// ============================================================================
// TRANSLATOR — question → Plan
// ============================================================================
// The planner asks the language model first and falls back to the rule
// table on any failure. It never sees records, only column metadata.
// It only fails for a missing dataset or a blank question.
// ============================================================================

var (
	// ErrNoDataset is returned when no snapshot is loaded.
	ErrNoDataset = errors.New("translator: no dataset loaded")
	// ErrNotUnderstood is returned for blank questions.
	ErrNotUnderstood = errors.New("translator: could not understand the question")
)

// Source tells where a plan came from.
type Source string

const (
	SourceModel Source = "model"
	SourceRules Source = "rules"
)

// Result is a planned question.
type Result struct {
	Plan     engine.Plan
	Source   Source
	Rule     string // rule name when Source is SourceRules
	ModelErr error  // why the model path was not used, nil on success
}

// Degraded reports whether the model could not be reached.
func (r Result) Degraded() bool {
	return r.ModelErr != nil && isUnavailable(r.ModelErr)
}

// Config holds planner configuration.
type Config struct {
	Model         string  // primary model (empty = client default)
	FallbackModel string  // retried once on overload
	Temperature   float32 // 0 = client default
	Logger        zerolog.Logger
	Now           func() time.Time
}

// DefaultConfig returns a Config with a silent logger.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.1,
		Logger:      zerolog.Nop(),
		Now:         time.Now,
	}
}

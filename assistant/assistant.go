// Package assistant answers natural-language questions about one loaded
// table. It owns the current snapshot and runs the question pipeline:
// keyword search, planning, execution and formatting.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/formatter"
	"github.com/spektr-org/tabula/helpers"
	"github.com/spektr-org/tabula/llm"
	"github.com/spektr-org/tabula/schema"
	"github.com/spektr-org/tabula/translator"
)

// ============================================================================
// ASSISTANT — question pipeline
// ============================================================================
//   start → keyword search ─┬─ hits ──────────────────────┐
//                           └─ none → plan → execute ──────┴→ format → done
//
// Every path ends in an Outcome. Model failures degrade to local answers;
// only a missing dataset, a blank question or a recovered panic produce a
// failure Outcome.
// ============================================================================

var (
	// ErrNoDataset is returned when a question arrives before any load.
	ErrNoDataset = errors.New("assistant: no dataset loaded")
	// ErrBlankQuestion is returned for empty questions.
	ErrBlankQuestion = errors.New("assistant: could not understand the question")
	// ErrInternal wraps a recovered panic.
	ErrInternal = errors.New("assistant: internal error")
)

// User-facing messages.
const (
	NoDatasetMessage  = "No dataset loaded. Please load a file first."
	BlankMessage      = "Could not understand the question. Please ask something about the loaded data."
	InternalMessage   = "Something went wrong while answering. Please try again."
	UnavailableNote   = "Note: AI unavailable. This answer was produced locally from the data."
	keywordDescPrefix = "records containing "
)

// Path is the route a question took through the pipeline.
type Path string

const (
	PathKeyword Path = "keyword"
	PathPlan    Path = "plan"
)

// Outcome is the settled result of one question.
type Outcome struct {
	RequestID    string            `json:"requestId"`
	Answer       string            `json:"answer,omitempty"`
	Error        string            `json:"error,omitempty"`
	Err          error             `json:"-"`
	Path         Path              `json:"path,omitempty"`
	Intent       engine.Intent     `json:"intent,omitempty"`
	Description  string            `json:"description,omitempty"`
	Total        int               `json:"total"`
	PlanSource   translator.Source `json:"planSource,omitempty"`
	AnswerSource formatter.Source  `json:"answerSource,omitempty"`
	Degraded     bool              `json:"degraded"`
	Duration     time.Duration     `json:"duration"`
}

// OK reports whether the question was answered.
func (o Outcome) OK() bool { return o.Err == nil }

// ============================================================================
// OPTIONS
// ============================================================================

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger shared by every stage.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assistant) { a.log = l }
}

// WithLimits sets the keyword index limits used on load.
func WithLimits(l schema.Limits) Option {
	return func(a *Assistant) { a.limits = l }
}

// WithPlannerConfig overrides the planner configuration.
func WithPlannerConfig(cfg translator.Config) Option {
	return func(a *Assistant) { a.plannerCfg = cfg }
}

// WithFormatterConfig overrides the formatter configuration.
func WithFormatterConfig(cfg formatter.Config) Option {
	return func(a *Assistant) { a.formatterCfg = cfg }
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// ============================================================================
// ASSISTANT
// ============================================================================

// Assistant answers questions about the current snapshot. It is safe for
// concurrent use; each question runs against the snapshot current when it
// started.
type Assistant struct {
	snap atomic.Pointer[dataset.Snapshot]

	planner   *translator.Planner
	formatter *formatter.Formatter

	limits       schema.Limits
	plannerCfg   translator.Config
	formatterCfg formatter.Config
	log          zerolog.Logger
	now          func() time.Time
}

// New creates an Assistant. A nil client answers every question locally.
func New(client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{
		limits:       schema.DefaultLimits(),
		plannerCfg:   translator.DefaultConfig(),
		formatterCfg: formatter.DefaultConfig(),
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.plannerCfg.Logger = a.log
	a.plannerCfg.Now = a.now
	a.formatterCfg.Logger = a.log
	a.planner = translator.NewPlanner(client, a.plannerCfg)
	a.formatter = formatter.New(client, a.formatterCfg)
	return a
}

// Load builds a snapshot from header + rows and makes it current.
func (a *Assistant) Load(ctx context.Context, name string, header []string, rows []dataset.RawRow) error {
	snap, err := dataset.Build(ctx, name, header, rows, a.limits)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	a.snap.Store(snap)
	a.log.Info().
		Str("dataset", snap.ID).
		Str("name", name).
		Int("records", snap.Len()).
		Int("columns", len(snap.Headers)).
		Int("tokens", snap.Index.Len()).
		Msg("dataset loaded")
	return nil
}

// LoadTable loads a table produced by the helpers readers.
func (a *Assistant) LoadTable(ctx context.Context, t helpers.Table) error {
	return a.Load(ctx, t.Name, t.Header, t.Rows)
}

// Clear drops the current snapshot.
func (a *Assistant) Clear() {
	if old := a.snap.Swap(nil); old != nil {
		a.log.Info().Str("dataset", old.ID).Msg("dataset cleared")
	}
}

// Snapshot returns the current snapshot or nil.
func (a *Assistant) Snapshot() *dataset.Snapshot {
	return a.snap.Load()
}

// AskAsync runs Ask in a goroutine. The channel yields exactly one Outcome
// and is then closed.
func (a *Assistant) AskAsync(ctx context.Context, question string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- a.Ask(ctx, question)
	}()
	return ch
}

// Ask answers one question. It never panics and never returns without an
// Outcome.
func (a *Assistant) Ask(ctx context.Context, question string) (out Outcome) {
	start := a.now()
	id := uuid.NewString()
	log := a.log.With().Str("request_id", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("question pipeline panicked")
			out = failure(id, fmt.Errorf("%w: %v", ErrInternal, r), InternalMessage)
		}
		out.Duration = a.now().Sub(start)
	}()

	snap := a.snap.Load()
	if snap == nil {
		return failure(id, ErrNoDataset, NoDatasetMessage)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return failure(id, ErrBlankQuestion, BlankMessage)
	}

	out = Outcome{RequestID: id}
	result, err := a.resolve(ctx, snap, question, &out, log)
	if err != nil {
		return failure(id, err, errorMessage(err))
	}

	answer := a.formatter.Format(ctx, question, result)
	out.AnswerSource = answer.Source
	out.Degraded = out.Degraded || answer.Degraded()
	out.Answer = answer.Text
	if out.Degraded {
		out.Answer += "\n\n" + UnavailableNote
	}
	out.Intent = result.Intent()
	out.Description = result.Description
	out.Total = result.Total

	log.Info().
		Str("path", string(out.Path)).
		Str("intent", string(out.Intent)).
		Int("total", out.Total).
		Str("plan_source", string(out.PlanSource)).
		Str("answer_source", string(out.AnswerSource)).
		Bool("degraded", out.Degraded).
		Msg("question answered")
	return out
}

// resolve picks the records that answer question: keyword hits narrowed by
// any date, month or year in the question, otherwise a planned and executed
// query.
func (a *Assistant) resolve(ctx context.Context, snap *dataset.Snapshot, question string, out *Outcome, log zerolog.Logger) (*engine.Result, error) {
	hits := snap.Search(question)
	if !hits.Empty() {
		out.Path = PathKeyword
		intent := translator.ClassifyIntent(question, snap)
		records, applied := engine.Narrow(snap, hits.Records, translator.TemporalFilters(question))
		desc := describeTokens(hits.Tokens)
		if len(applied) > 0 {
			desc += " AND " + engine.Describe(applied)
		}
		log.Debug().
			Strs("tokens", hits.Tokens).
			Int("hits", len(hits.Records)).
			Int("matched", len(records)).
			Msg("keyword search matched")
		return engine.FromRecords(snap, records, intent, desc), nil
	}

	out.Path = PathPlan
	planned, err := a.planner.Plan(ctx, snap, question)
	if err != nil {
		return nil, err
	}
	out.PlanSource = planned.Source
	out.Degraded = planned.Degraded()

	return engine.Execute(snap, planned.Plan, engine.WithLogger(log), engine.WithClock(a.now))
}

func describeTokens(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return keywordDescPrefix + strings.Join(quoted, " and ")
}

func failure(id string, err error, msg string) Outcome {
	return Outcome{RequestID: id, Err: err, Error: msg}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, translator.ErrNoDataset), errors.Is(err, engine.ErrNoSnapshot):
		return NoDatasetMessage
	case errors.Is(err, translator.ErrNotUnderstood):
		return BlankMessage
	default:
		return InternalMessage
	}
}

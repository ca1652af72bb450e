package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/llm"
)

// ============================================================================
// RESPONSE FORMATTER — Result → answer text
// ============================================================================
// The model phrases the answer from the matched records. Any failure
// (unreachable, overloaded twice, unparseable, empty answer) drops to the
// manual renderer, which always produces an answer.
// Empty results never reach the model.
// ============================================================================

// ErrInvalidAnswer is returned when the model reply is not a usable answer.
var ErrInvalidAnswer = errors.New("formatter: invalid answer")

// Source tells who produced an answer.
type Source string

const (
	SourceModel  Source = "model"
	SourceManual Source = "manual"
)

// Config holds formatter configuration.
type Config struct {
	MaxPromptRecords int // records sent to the model
	FullListLimit    int // lists up to this size are rendered in full
	PreviewCount     int // blocks shown for longer lists
	UniqueLimit      int // distinct values listed per column

	Model         string
	FallbackModel string
	Temperature   float32
	Logger        zerolog.Logger
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxPromptRecords: 50,
		FullListLimit:    10,
		PreviewCount:     5,
		UniqueLimit:      10,
		Temperature:      0.2,
		Logger:           zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxPromptRecords <= 0 {
		c.MaxPromptRecords = def.MaxPromptRecords
	}
	if c.FullListLimit <= 0 {
		c.FullListLimit = def.FullListLimit
	}
	if c.PreviewCount <= 0 {
		c.PreviewCount = def.PreviewCount
	}
	if c.UniqueLimit <= 0 {
		c.UniqueLimit = def.UniqueLimit
	}
	return c
}

// Answer is a formatted reply.
type Answer struct {
	Text     string
	Source   Source
	Basis    string // the model's "source" note, empty for manual answers
	ModelErr error
}

// Degraded reports whether the model could not be reached.
func (a Answer) Degraded() bool {
	return a.ModelErr != nil && llm.IsUnavailable(a.ModelErr)
}

// Formatter turns results into answer text.
type Formatter struct {
	client llm.Client
	cfg    Config
	log    zerolog.Logger
}

// New creates a formatter. A nil client means manual rendering only.
func New(client llm.Client, cfg Config) *Formatter {
	cfg = cfg.withDefaults()
	f := &Formatter{cfg: cfg, log: cfg.Logger}
	if client != nil {
		f.client = llm.Fallback{Client: client, FallbackModel: cfg.FallbackModel, Logger: cfg.Logger}
	}
	return f
}

// Config returns the effective configuration.
func (f *Formatter) Config() Config { return f.cfg }

// Format produces the answer for one executed question.
func (f *Formatter) Format(ctx context.Context, question string, result *engine.Result) Answer {
	if result.Empty() {
		return Answer{Text: Render(result, f.cfg), Source: SourceManual}
	}

	text, basis, err := f.formatWithModel(ctx, question, result)
	if err == nil {
		return Answer{Text: text, Source: SourceModel, Basis: basis}
	}

	f.log.Info().
		Err(err).
		Str("stage", "format").
		Str("intent", string(result.Intent())).
		Msg("model answer unavailable, rendering manually")
	return Answer{Text: Render(result, f.cfg), Source: SourceManual, ModelErr: err}
}

func (f *Formatter) formatWithModel(ctx context.Context, question string, result *engine.Result) (string, string, error) {
	if f.client == nil {
		return "", "", &llm.Error{Kind: llm.KindUnavailable, Err: llm.ErrNoClient}
	}

	raw, err := f.client.Generate(ctx, llm.Request{
		Prompt:      BuildPrompt(question, result, f.cfg.MaxPromptRecords),
		Model:       f.cfg.Model,
		Temperature: f.cfg.Temperature,
		JSON:        true,
	})
	if err != nil {
		return "", "", err
	}

	answer, basis, err := ParseAnswer(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse answer: %w", err)
	}
	return answer, basis, nil
}

// ============================================================================
// RESPONSE PARSER
// ============================================================================

type wireAnswer struct {
	Answer *string `json:"answer"`
	Source *string `json:"source"`
}

// ParseAnswer extracts the answer and its source note from model output.
func ParseAnswer(raw string) (answer, source string, err error) {
	wire, err := llm.DecodeResponse[wireAnswer](raw)
	if err != nil {
		return "", "", err
	}
	if wire.Answer == nil {
		return "", "", fmt.Errorf("%w: missing answer", ErrInvalidAnswer)
	}
	answer = strings.TrimSpace(*wire.Answer)
	if answer == "" {
		return "", "", fmt.Errorf("%w: empty answer", ErrInvalidAnswer)
	}
	if wire.Source != nil {
		source = strings.TrimSpace(*wire.Source)
	}
	return answer, source, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ============================================================================
// GEMINI CLIENT — google.golang.org/genai
// ============================================================================
// The only file that talks to an external model. Errors are classified
// before they leave this file.
// ============================================================================

// DefaultModel is used when GeminiConfig.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string        // endpoint override, mainly for tests
	Timeout     time.Duration // per request; 0 = no client-side timeout
	Temperature float32
	Logger      zerolog.Logger
}

// Gemini implements Client on the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	timeout     time.Duration
	temperature float32
	log         zerolog.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required: %w", ErrNoClient)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		log:         cfg.Logger,
	}, nil
}

// Model returns the default model name.
func (g *Gemini) Model() string { return g.model }

// Generate sends one prompt and returns the response text.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{}
	if t := req.Temperature; t > 0 {
		cfg.Temperature = genai.Ptr(t)
	} else if g.temperature > 0 {
		cfg.Temperature = genai.Ptr(g.temperature)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		wrapped := Wrap(err, model)
		g.log.Warn().Err(err).Str("model", model).Str("kind", string(KindOf(wrapped))).Msg("gemini call failed")
		return "", wrapped
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &Error{Kind: KindGeneric, Model: model, Err: ErrEmptyResponse}
	}

	g.log.Debug().Str("model", model).Dur("latency", time.Since(start)).Int("chars", len(text)).Msg("gemini call ok")
	return text, nil
}

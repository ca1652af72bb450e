package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/llm"
)

// Planner turns questions into plans.
type Planner struct {
	client llm.Client
	cfg    Config
	log    zerolog.Logger
}

// NewPlanner creates a planner. A nil client means rules only.
func NewPlanner(client llm.Client, cfg Config) *Planner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	p := &Planner{cfg: cfg, log: cfg.Logger}
	if client != nil {
		p.client = llm.Fallback{Client: client, FallbackModel: cfg.FallbackModel, Logger: cfg.Logger}
	}
	return p
}

// Plan plans one question against snap.
func (p *Planner) Plan(ctx context.Context, snap *dataset.Snapshot, question string) (Result, error) {
	if snap == nil {
		return Result{}, ErrNoDataset
	}
	if strings.TrimSpace(question) == "" {
		return Result{}, ErrNotUnderstood
	}

	plan, err := p.planWithModel(ctx, snap, question)
	if err == nil {
		p.log.Debug().Str("stage", "plan").Str("source", string(SourceModel)).Str("intent", string(plan.Intent)).Msg("plan ready")
		return Result{Plan: plan, Source: SourceModel}, nil
	}

	rulePlan, rule := PlanFromRules(question, snap)
	p.log.Info().
		Err(err).
		Str("stage", "plan").
		Str("source", string(SourceRules)).
		Str("rule", rule).
		Str("intent", string(rulePlan.Intent)).
		Msg("model plan unavailable, using rule table")
	return Result{Plan: rulePlan, Source: SourceRules, Rule: rule, ModelErr: err}, nil
}

func (p *Planner) planWithModel(ctx context.Context, snap *dataset.Snapshot, question string) (plan engine.Plan, err error) {
	if p.client == nil {
		return engine.Plan{}, &llm.Error{Kind: llm.KindUnavailable, Err: llm.ErrNoClient}
	}

	prompt := BuildPrompt(snap.Schema, question, p.cfg.Now())
	raw, err := p.client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Model:       p.cfg.Model,
		Temperature: p.cfg.Temperature,
		JSON:        true,
	})
	if err != nil {
		return engine.Plan{}, err
	}

	plan, err = ParsePlan(raw)
	if err != nil {
		return engine.Plan{}, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}

func isUnavailable(err error) bool {
	return llm.IsUnavailable(err)
}

package brandgen

import (
	"context"
	"strings"
)

// Generator orchestrates one user-initiated generation: validate, compile,
// quota check, dispatch, poll, finalize, record. The order is fixed; each
// step blocks the caller until resolved. There is no worker pool or
// background scheduler behind it.
type Generator struct {
	quota      *QuotaManager
	dispatcher *Dispatcher
	poller     *Poller
	finalizer  *Finalizer
	plans      map[PlanTier]PlanConfig
	logger     Logger
	metrics    Metrics
}

// GeneratorDeps collects the collaborators for NewGenerator.
type GeneratorDeps struct {
	Quota      *QuotaManager
	Dispatcher *Dispatcher
	Poller     *Poller
	Finalizer  *Finalizer
	Plans      map[PlanTier]PlanConfig
	Logger     Logger
	Metrics    Metrics
}

// NewGenerator creates the orchestrator.
func NewGenerator(deps GeneratorDeps) (*Generator, error) {
	if deps.Quota == nil || deps.Dispatcher == nil || deps.Poller == nil || deps.Finalizer == nil {
		return nil, ErrStorageUnavailable
	}
	if deps.Plans == nil {
		deps.Plans = DefaultPlans()
	}
	if deps.Logger == nil {
		deps.Logger = &NoopLogger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = &NoopMetrics{}
	}
	return &Generator{
		quota:      deps.Quota,
		dispatcher: deps.Dispatcher,
		poller:     deps.Poller,
		finalizer:  deps.Finalizer,
		plans:      deps.Plans,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}, nil
}

// Generate runs one generation end to end.
//
// Validation and quota rejections happen before any external call. A
// timed-out poll returns a zero-asset result with TimedOut set and no
// error: nothing was produced, which is not the same as the provider
// failing. Usage is recorded only after output exists, charging the
// images actually produced.
func (g *Generator) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	if strings.TrimSpace(req.Answers.BusinessName) == "" {
		return nil, ErrMissingBusinessName
	}
	if _, ok := g.plans[req.Plan]; !ok {
		return nil, ErrUnknownPlan
	}

	prompt := CompilePrompt(req.Answers)

	status, err := g.quota.Check(ctx, req.OwnerID, req.ToolID, req.Plan)
	if err != nil {
		return nil, err
	}
	if !status.CanSubmit {
		return nil, ErrQuotaExceeded
	}

	sub, err := g.dispatcher.Dispatch(ctx, req.Plan, prompt)
	if err != nil {
		g.metrics.RecordGeneration(req.ToolID, req.Plan, 0, false)
		return nil, err
	}

	urls := sub.Images
	if sub.Mode != ModeDirect {
		outcome, err := g.poller.PollAll(ctx, sub.Jobs)
		if err != nil {
			g.metrics.RecordGeneration(req.ToolID, req.Plan, 0, false)
			return nil, err
		}
		if outcome.TimedOut {
			g.logger.Warn("generation produced no result before timeout",
				Field{Key: "owner", Value: req.OwnerID},
				Field{Key: "tool", Value: req.ToolID},
			)
			return &GenerationResult{Prompt: prompt, TimedOut: true}, nil
		}
		urls = outcome.Output
	}

	assets := g.finalizer.Finalize(ctx, req, urls)

	// The results in hand stay valid even if the ledger write fails.
	if err := g.quota.Record(ctx, req.OwnerID, req.ToolID, req.Plan, len(assets)); err != nil {
		g.logger.Error("usage record failed after generation",
			Field{Key: "owner", Value: req.OwnerID},
			Field{Key: "tool", Value: req.ToolID},
			Field{Key: "error", Value: err.Error()},
		)
	}
	g.metrics.RecordGeneration(req.ToolID, req.Plan, len(assets), true)

	return &GenerationResult{Prompt: prompt, Assets: assets}, nil
}

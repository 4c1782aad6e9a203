package brandgen

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DispatcherConfig holds submission retry settings.
type DispatcherConfig struct {
	// MaxAttempts is the total number of submission attempts before a
	// rate-limit error becomes fatal (default: 3).
	MaxAttempts int

	// BackoffBase is the base for exponential backoff when the provider
	// gives no retry-after hint (default: 10s). The n-th retry waits
	// BackoffBase * 2^n.
	BackoffBase time.Duration

	// RetryMargin is added on top of a provider retry-after hint
	// (default: 1s).
	RetryMargin time.Duration
}

// DefaultDispatcherConfig returns the stock retry settings.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts: 3,
		BackoffBase: 10 * time.Second,
		RetryMargin: time.Second,
	}
}

// Dispatcher builds plan-specific provider requests, submits them under a
// retry-with-backoff wrapper, and classifies the response into exactly one
// execution mode. The wrapper covers only the initial submission, never
// the polling phase.
type Dispatcher struct {
	provider Provider
	plans    map[PlanTier]PlanConfig
	config   DispatcherConfig
	logger   Logger
	metrics  Metrics
	clock    Clock
}

// NewDispatcher creates a dispatcher over the given provider.
func NewDispatcher(provider Provider, plans map[PlanTier]PlanConfig, config DispatcherConfig, logger Logger, metrics Metrics) (*Dispatcher, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if plans == nil {
		plans = DefaultPlans()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 10 * time.Second
	}
	if config.RetryMargin <= 0 {
		config.RetryMargin = time.Second
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Dispatcher{
		provider: provider,
		plans:    plans,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		clock:    SystemClock,
	}, nil
}

// WithClock overrides the time source, for tests.
func (d *Dispatcher) WithClock(clock Clock) *Dispatcher {
	d.clock = clock
	return d
}

// Dispatch submits the compiled prompt with the tier's parameters and
// returns the normalized submission.
func (d *Dispatcher) Dispatch(ctx context.Context, plan PlanTier, prompt string) (*Submission, error) {
	cfg, ok := d.plans[plan]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}

	req := &SubmitRequest{
		Prompt: prompt,
		Plan:   plan,
		Params: OutputParams{
			NumOutputs:     cfg.NumOutputs,
			Quality:        cfg.Quality,
			InferenceSteps: cfg.InferenceSteps,
		},
	}

	resp, err := d.submitWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	return classify(resp)
}

// submitWithRetry retries the same request on rate-limit errors only. The
// wait honors the provider's retry-after hint plus a margin when present,
// otherwise exponential backoff. Any other failure, or exhaustion of the
// attempt cap, propagates immediately.
func (d *Dispatcher) submitWithRetry(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	var lastErr error
	for attempt := 0; attempt < d.config.MaxAttempts; attempt++ {
		resp, err := d.provider.Submit(ctx, req)
		if err == nil {
			return resp, nil
		}

		var rle *RateLimitError
		if !errors.As(err, &rle) {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		lastErr = err
		if attempt+1 >= d.config.MaxAttempts {
			break
		}

		wait := d.config.BackoffBase << attempt
		if rle.RetryAfter > 0 {
			wait = rle.RetryAfter + d.config.RetryMargin
		}
		d.metrics.RecordSubmissionRetry(req.Plan)
		d.logger.Warn("submission rate limited, backing off",
			Field{Key: "plan", Value: string(req.Plan)},
			Field{Key: "attempt", Value: attempt + 1},
			Field{Key: "wait", Value: wait.String()},
		)
		if err := d.clock.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// classify resolves the provider response shape into exactly one mode.
// Concrete output values win over job references; a single reference that
// resolves to a collection is batch; a reference list is individual.
func classify(resp *SubmitResponse) (*Submission, error) {
	switch {
	case resp == nil:
		return nil, fmt.Errorf("%w: empty provider response", ErrGenerationFailed)
	case len(resp.Images) > 0:
		return &Submission{Mode: ModeDirect, Images: resp.Images}, nil
	case resp.Mode == ModeBatch && len(resp.JobIDs) == 1:
		return &Submission{Mode: ModeBatch, Jobs: resp.JobIDs}, nil
	case len(resp.JobIDs) > 0:
		return &Submission{Mode: ModeIndividual, Jobs: resp.JobIDs}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized provider response shape", ErrGenerationFailed)
	}
}

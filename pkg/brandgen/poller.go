package brandgen

import (
	"context"
	"fmt"
	"time"
)

// PollerConfig bounds the status-polling loop.
type PollerConfig struct {
	// Interval is the sleep between status queries (default: 1s).
	Interval time.Duration

	// MaxAttempts is the number of status queries before the job is
	// declared timed out (default: 120, roughly two minutes).
	MaxAttempts int
}

// DefaultPollerConfig returns the stock polling settings.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    time.Second,
		MaxAttempts: 120,
	}
}

// PollOutcome is the determinate result of a bounded poll. TimedOut set
// with no error means the attempt cap was exhausted without a terminal
// state; the caller decides how to report it.
type PollOutcome struct {
	Output   []string
	TimedOut bool
}

// Poller resolves provider job references through the status endpoint.
// There is no explicit cancellation signal beyond the context: the loop
// terminates on a terminal status or on attempt exhaustion, never later.
type Poller struct {
	provider Provider
	config   PollerConfig
	logger   Logger
	metrics  Metrics
	clock    Clock
}

// NewPoller creates a poller over the given provider.
func NewPoller(provider Provider, config PollerConfig, logger Logger, metrics Metrics) (*Poller, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 120
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Poller{
		provider: provider,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		clock:    SystemClock,
	}, nil
}

// WithClock overrides the time source, for tests.
func (p *Poller) WithClock(clock Clock) *Poller {
	p.clock = clock
	return p
}

// Poll queries one job reference until a terminal state or the attempt cap.
// The first query happens immediately; sleeps only separate attempts. A
// terminal failure or cancel is fatal and carries the provider's message.
func (p *Poller) Poll(ctx context.Context, jobID string) (*PollOutcome, error) {
	for attempt := 0; attempt < p.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := p.clock.Sleep(ctx, p.config.Interval); err != nil {
				return nil, err
			}
		}

		status, err := p.provider.JobStatus(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("%w: status query: %v", ErrGenerationFailed, err)
		}

		switch status.State {
		case JobSucceeded:
			return &PollOutcome{Output: status.Output}, nil
		case JobFailed, JobCanceled:
			msg := status.Error
			if msg == "" {
				msg = string(status.State)
			}
			return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
		}
	}

	p.metrics.RecordPollTimeout()
	p.logger.Warn("polling exhausted without terminal state",
		Field{Key: "job", Value: jobID},
		Field{Key: "attempts", Value: p.config.MaxAttempts},
	)
	return &PollOutcome{TimedOut: true}, nil
}

// PollAll resolves job references one after another, collecting outputs
// positionally. A single fatal failure aborts the whole batch; there is no
// partial-success path. One timed-out job makes the whole outcome a
// timeout.
func (p *Poller) PollAll(ctx context.Context, jobIDs []string) (*PollOutcome, error) {
	outputs := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		outcome, err := p.Poll(ctx, id)
		if err != nil {
			return nil, err
		}
		if outcome.TimedOut {
			return &PollOutcome{TimedOut: true}, nil
		}
		outputs = append(outputs, outcome.Output...)
	}
	return &PollOutcome{Output: outputs}, nil
}

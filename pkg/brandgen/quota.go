package brandgen

import (
	"context"
	"fmt"
)

// QuotaManager answers "may this caller submit?" and records consumption
// against the per-(owner, tool, plan) ledger.
//
// Check and Record are deliberately two separate operations with no lock
// between them: two concurrent submissions from the same owner can both
// pass the check before either records usage. The caller population is
// one browser session per owner, so the window is tolerated rather than
// closed with pessimistic locking. Each store's AddUsage is still a
// single atomic operation, so the counters themselves never tear.
type QuotaManager struct {
	ledger  LedgerStore
	plans   map[PlanTier]PlanConfig
	logger  Logger
	metrics Metrics
	clock   Clock
}

// NewQuotaManager creates a quota manager over the given ledger store.
func NewQuotaManager(ledger LedgerStore, plans map[PlanTier]PlanConfig, logger Logger, metrics Metrics) (*QuotaManager, error) {
	if ledger == nil {
		return nil, ErrStorageUnavailable
	}
	if plans == nil {
		plans = DefaultPlans()
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &QuotaManager{
		ledger:  ledger,
		plans:   plans,
		logger:  logger,
		metrics: metrics,
		clock:   SystemClock,
	}, nil
}

// WithClock overrides the time source, for tests.
func (m *QuotaManager) WithClock(clock Clock) *QuotaManager {
	m.clock = clock
	return m
}

// Check loads (lazily creating) the ledger entry and computes the caller's
// standing against the plan limits. It is read-only and reserves nothing.
func (m *QuotaManager) Check(ctx context.Context, ownerID, toolID string, plan PlanTier) (*QuotaStatus, error) {
	cfg, ok := m.plans[plan]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}

	start := m.clock.Now()
	entry, err := m.ledger.GetOrCreateEntry(ctx, LedgerKey{OwnerID: ownerID, ToolID: toolID, Plan: plan})
	m.metrics.RecordQuotaCheck(toolID, plan, m.clock.Now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("failed to load quota ledger: %w", err)
	}

	status := &QuotaStatus{
		GenerationsUsed: entry.GenerationCount,
		ImagesUsed:      entry.ImageCount,
	}

	if cfg.GenerationLimit == Unlimited {
		status.GenerationsRemaining = Unlimited
		status.ImagesRemaining = Unlimited
		status.CanSubmit = true
		return status, nil
	}

	status.GenerationsRemaining = clampRemaining(cfg.GenerationLimit - entry.GenerationCount)
	imageLimit := cfg.GenerationLimit * cfg.ImagesPerGeneration
	status.ImagesRemaining = clampRemaining(imageLimit - entry.ImageCount)
	status.CanSubmit = status.GenerationsRemaining > 0 &&
		status.ImagesRemaining >= cfg.ImagesPerGeneration

	return status, nil
}

// Record charges one generation and the images it actually produced to the
// ledger. Called only after a generation attempt produced output; the
// increments are unconditional.
func (m *QuotaManager) Record(ctx context.Context, ownerID, toolID string, plan PlanTier, imagesProduced int) error {
	key := LedgerKey{OwnerID: ownerID, ToolID: toolID, Plan: plan}
	start := m.clock.Now()
	err := m.ledger.AddUsage(ctx, key, 1, imagesProduced, start)
	m.metrics.RecordStorageOperation("add_usage", m.clock.Now().Sub(start), err)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	m.logger.Debug("usage recorded",
		Field{Key: "owner", Value: ownerID},
		Field{Key: "tool", Value: toolID},
		Field{Key: "plan", Value: string(plan)},
		Field{Key: "images", Value: imagesProduced},
	)
	return nil
}

// clampRemaining keeps remaining counts inside [0, limit].
func clampRemaining(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

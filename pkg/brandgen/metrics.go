package brandgen

import "time"

// Metrics defines the interface for tracking generation and quota operations.
type Metrics interface {
	// RecordGeneration records one completed generation attempt.
	RecordGeneration(tool string, plan PlanTier, images int, success bool)

	// RecordQuotaCheck records the duration of a quota check.
	RecordQuotaCheck(tool string, plan PlanTier, duration time.Duration)

	// RecordSubmissionRetry records one rate-limited submission retry.
	RecordSubmissionRetry(plan PlanTier)

	// RecordPollTimeout records a polling loop that exhausted its attempts.
	RecordPollTimeout()

	// RecordUploadFallback records an asset kept on its ephemeral URL after
	// a failed durable-storage copy.
	RecordUploadFallback()

	// RecordStorageOperation records the duration and status of a storage operation.
	RecordStorageOperation(operation string, duration time.Duration, err error)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordGeneration(tool string, plan PlanTier, images int, success bool)  {}
func (n *NoopMetrics) RecordQuotaCheck(tool string, plan PlanTier, duration time.Duration)    {}
func (n *NoopMetrics) RecordSubmissionRetry(plan PlanTier)                                    {}
func (n *NoopMetrics) RecordPollTimeout()                                                     {}
func (n *NoopMetrics) RecordUploadFallback()                                                  {}
func (n *NoopMetrics) RecordStorageOperation(operation string, duration time.Duration, err error) {
}

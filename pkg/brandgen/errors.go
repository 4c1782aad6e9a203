package brandgen

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingBusinessName is returned when the required prompt field is absent
	ErrMissingBusinessName = errors.New("business name is required")

	// ErrUnknownPlan is returned for a plan tier with no configuration
	ErrUnknownPlan = errors.New("unknown plan tier")

	// ErrQuotaExceeded is returned when the plan's generation budget is spent
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrGenerationFailed is returned for terminal provider failures
	ErrGenerationFailed = errors.New("generation failed")

	// ErrAssetNotFound is returned when an asset id does not resolve for the owner
	ErrAssetNotFound = errors.New("asset not found")

	// ErrStorageUnavailable is returned when a required store is missing
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// RateLimitError signals that the provider rejected a submission with a
// rate-limit status. RetryAfter carries the provider's hint when one was
// given, zero otherwise.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
	}
	if e.Message != "" {
		return "rate limited: " + e.Message
	}
	return "rate limited"
}

package brandgen

import "context"

// OutputParams are the provider-facing generation parameters selected by
// plan tier.
type OutputParams struct {
	NumOutputs     int
	Quality        string
	InferenceSteps int
}

// SubmitRequest is the provider-agnostic submission payload.
type SubmitRequest struct {
	Prompt string
	Plan   PlanTier
	Params OutputParams
}

// SubmitResponse is the raw provider response before mode classification.
// Exactly one of Images or JobIDs is expected to be populated.
type SubmitResponse struct {
	Mode   ExecutionMode
	Images []string
	JobIDs []string
}

// JobState is a provider-reported job lifecycle state.
type JobState string

const (
	JobStarting   JobState = "starting"
	JobProcessing JobState = "processing"
	JobSucceeded  JobState = "succeeded"
	JobFailed     JobState = "failed"
	JobCanceled   JobState = "canceled"
)

// Terminal reports whether the state ends the polling loop.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCanceled
}

// JobStatus is one status-endpoint observation for a job reference.
// Output is normalized to a slice whether the provider returned a single
// URL or a collection.
type JobStatus struct {
	State    JobState
	Output   []string
	Progress float64
	Error    string
}

// Provider is the external asynchronous image-generation service.
// Submissions are at-least-once: a retried submit may reach the provider
// twice and that is accepted.
type Provider interface {
	// Submit sends one generation request. A rate-limited rejection is
	// reported as a *RateLimitError so callers can back off and retry.
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)

	// JobStatus queries the status endpoint for one job reference.
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// Uploader copies ephemeral provider-hosted output to durable storage,
// returning the permanent URL. Fallible; callers fall back to the
// ephemeral URL.
type Uploader interface {
	Upload(ctx context.Context, tempURL, ownerID, filename string) (string, error)
}

package brandgen

import "time"

// PlanTier identifies the subscription level controlling output quality,
// output count, and quota limits.
type PlanTier string

const (
	// PlanFree is the default tier: unlimited generations, three standard
	// quality images per generation.
	PlanFree PlanTier = "free"
	// PlanPremium is the paid tier: a small fixed generation cap, one high
	// quality image per generation.
	PlanPremium PlanTier = "premium"
)

// Unlimited is the sentinel for plans without a generation cap. A free
// ledger's remaining capacity is reported as this sentinel, never as a
// large finite number.
const Unlimited = -1

// PlanConfig defines the limits and provider parameters for one tier.
// Limits are configuration, not code: deployments can vary them without
// touching the core.
type PlanConfig struct {
	// GenerationLimit is the total number of generations allowed, or
	// Unlimited for no cap.
	GenerationLimit int

	// ImagesPerGeneration is how many images one generation is expected
	// to yield for this tier.
	ImagesPerGeneration int

	// NumOutputs is the output count requested from the provider.
	NumOutputs int

	// Quality is the provider-facing fidelity setting.
	Quality string

	// InferenceSteps is the provider-facing sampling depth.
	InferenceSteps int
}

// DefaultPlans returns the stock free/premium plan configuration.
func DefaultPlans() map[PlanTier]PlanConfig {
	return map[PlanTier]PlanConfig{
		PlanFree: {
			GenerationLimit:     Unlimited,
			ImagesPerGeneration: 3,
			NumOutputs:          3,
			Quality:             "standard",
			InferenceSteps:      28,
		},
		PlanPremium: {
			GenerationLimit:     5,
			ImagesPerGeneration: 1,
			NumOutputs:          1,
			Quality:             "high",
			InferenceSteps:      50,
		},
	}
}

// BrandAnswers is the structured wizard answer set. BusinessName is the
// only required field; absent optional fields are omitted from the
// compiled prompt, not defaulted.
type BrandAnswers struct {
	BusinessName string   `json:"businessName"`
	Category     string   `json:"category,omitempty"`
	Style        string   `json:"style,omitempty"`
	Mood         string   `json:"mood,omitempty"`
	Palette      string   `json:"palette,omitempty"`
	Icons        []string `json:"icons,omitempty"` // at most three are used
	Tagline      string   `json:"tagline,omitempty"`
}

// GenerationRequest describes one user-initiated generation. It is owned
// by the call that created it and never persisted.
type GenerationRequest struct {
	OwnerID string
	ToolID  string
	Plan    PlanTier
	Answers BrandAnswers
}

// GenerationResult is what one generation call hands back to the caller.
// TimedOut marks polling exhaustion: no result was produced, which is
// distinct from the provider reporting a failure.
type GenerationResult struct {
	Prompt   string
	Assets   []GeneratedAsset
	TimedOut bool
}

// QuotaStatus is the user-facing quota standing for one (owner, tool,
// plan) ledger entry. Remaining counts use Unlimited for uncapped plans.
type QuotaStatus struct {
	CanSubmit            bool
	GenerationsUsed      int
	GenerationsRemaining int
	ImagesUsed           int
	ImagesRemaining      int
}

// LedgerKey is the composite key of a quota ledger entry.
type LedgerKey struct {
	OwnerID string
	ToolID  string
	Plan    PlanTier
}

// LedgerEntry holds the persisted usage counters for one key. Counts are
// monotonically non-decreasing; entries are created lazily on first check
// and never deleted by this subsystem.
type LedgerEntry struct {
	Key             LedgerKey
	GenerationCount int
	ImageCount      int
	LastUsedAt      time.Time
}

// GeneratedAsset is the persisted record of one finished output. The
// compiled answer fields are denormalized alongside the image URL so the
// asset can be re-displayed without the original wizard state.
type GeneratedAsset struct {
	ID         string
	OwnerID    string
	ToolID     string
	Plan       PlanTier
	ImageURL   string
	Answers    BrandAnswers
	IsSelected bool
	CreatedAt  time.Time
}

// ExecutionMode classifies the shape of a provider submission response.
// It is resolved exactly once at the dispatcher boundary.
type ExecutionMode string

const (
	// ModeDirect means the provider already returned final output URLs.
	ModeDirect ExecutionMode = "direct"
	// ModeBatch means one job reference whose terminal output is itself a
	// collection of URLs.
	ModeBatch ExecutionMode = "batch"
	// ModeIndividual means N independent job references, each yielding one
	// output.
	ModeIndividual ExecutionMode = "individual"
)

// Submission is the dispatcher's normalized view of a successful provider
// response: either finished images or a list of pending job references.
type Submission struct {
	Mode   ExecutionMode
	Images []string
	Jobs   []string
}

package api

import (
	"encoding/json"
	"time"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Remaining serializes a remaining count, rendering the unlimited
// sentinel as the string "unlimited" instead of a large finite number.
type Remaining int

// MarshalJSON implements json.Marshaler.
func (r Remaining) MarshalJSON() ([]byte, error) {
	if r < 0 {
		return json.Marshal("unlimited")
	}
	return json.Marshal(int(r))
}

// QuotaResponse is the user-facing quota standing.
type QuotaResponse struct {
	CanSubmit            bool      `json:"canSubmit"`
	GenerationsUsed      int       `json:"generationsUsed"`
	GenerationsRemaining Remaining `json:"generationsRemaining"`
	ImagesUsed           int       `json:"imagesUsed"`
	ImagesRemaining      Remaining `json:"imagesRemaining"`
}

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	Tool    string                `json:"tool"`
	Plan    brandgen.PlanTier     `json:"plan"`
	Answers brandgen.BrandAnswers `json:"answers"`
}

// AssetResponse is one generated asset in API responses.
type AssetResponse struct {
	ID         string    `json:"id"`
	ImageURL   string    `json:"imageUrl"`
	Plan       string    `json:"plan"`
	IsSelected bool      `json:"isSelected"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GenerateResponse is the POST /api/generate result.
type GenerateResponse struct {
	Prompt   string          `json:"prompt"`
	Assets   []AssetResponse `json:"assets"`
	TimedOut bool            `json:"timedOut,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toAssetResponse(asset brandgen.GeneratedAsset) AssetResponse {
	return AssetResponse{
		ID:         asset.ID,
		ImageURL:   asset.ImageURL,
		Plan:       string(asset.Plan),
		IsSelected: asset.IsSelected,
		CreatedAt:  asset.CreatedAt,
	}
}

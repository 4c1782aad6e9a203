// Package httpprovider implements the brandgen.Provider interface over the
// rendering service's HTTP API: a submission endpoint and a status
// endpoint resolved by job id.
package httpprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Config holds provider client configuration.
type Config struct {
	// BaseURL is the root of the rendering service API.
	BaseURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

// Client talks to the rendering service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a provider client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: config.BaseURL,
		token:   config.Token,
		http:    httpClient,
	}, nil
}

type submitPayload struct {
	Prompt       string             `json:"prompt"`
	Plan         string             `json:"plan"`
	OutputParams submitOutputParams `json:"outputParams"`
}

type submitOutputParams struct {
	NumOutputs     int    `json:"numOutputs"`
	Quality        string `json:"quality"`
	InferenceSteps int    `json:"inferenceSteps,omitempty"`
}

type submitResult struct {
	Mode   string   `json:"mode"`
	Images []string `json:"images"`
	IDs    []string `json:"ids"`
}

// Submit implements brandgen.Provider. An HTTP 429 becomes a
// *brandgen.RateLimitError carrying the Retry-After hint when the
// provider supplied one.
func (c *Client) Submit(ctx context.Context, req *brandgen.SubmitRequest) (*brandgen.SubmitResponse, error) {
	payload := submitPayload{
		Prompt: req.Prompt,
		Plan:   string(req.Plan),
		OutputParams: submitOutputParams{
			NumOutputs:     req.Params.NumOutputs,
			Quality:        req.Params.Quality,
			InferenceSteps: req.Params.InferenceSteps,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitError(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("submission returned status %d: %s", resp.StatusCode, bodySnippet(resp.Body))
	}

	var result submitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode submission response: %w", err)
	}
	return &brandgen.SubmitResponse{
		Mode:   brandgen.ExecutionMode(result.Mode),
		Images: result.Images,
		JobIDs: result.IDs,
	}, nil
}

type statusResult struct {
	Status   string          `json:"status"`
	Output   json.RawMessage `json:"output"`
	Progress float64         `json:"progress"`
	Error    string          `json:"error"`
}

// JobStatus implements brandgen.Provider. The output field is normalized
// whether the provider returned a single URL or a collection.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*brandgen.JobStatus, error) {
	statusURL := fmt.Sprintf("%s/status?id=%s", c.baseURL, url.QueryEscape(jobID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned status %d: %s", resp.StatusCode, bodySnippet(resp.Body))
	}

	var result statusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	output, err := normalizeOutput(result.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode job output: %w", err)
	}
	return &brandgen.JobStatus{
		State:    brandgen.JobState(result.Status),
		Output:   output,
		Progress: result.Progress,
		Error:    result.Error,
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// rateLimitError builds the typed error from a 429 response, parsing the
// Retry-After header as whole seconds when present.
func rateLimitError(resp *http.Response) error {
	rle := &brandgen.RateLimitError{Message: bodySnippet(resp.Body)}
	if hint := resp.Header.Get("Retry-After"); hint != "" {
		if secs, err := strconv.Atoi(hint); err == nil && secs > 0 {
			rle.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return rle
}

// normalizeOutput accepts a JSON string, a JSON array of strings, or null.
func normalizeOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []string{one}, nil
}

func bodySnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(data))
}

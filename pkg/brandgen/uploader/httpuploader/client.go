// Package httpuploader implements the brandgen.Uploader interface over
// the asset service's upload endpoint, which copies an ephemeral URL to
// durable storage and returns the permanent location.
package httpuploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config holds uploader client configuration.
type Config struct {
	// UploadURL is the full URL of the upload endpoint.
	UploadURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// HTTPClient overrides the default client (60s timeout; uploads copy
	// image bytes server-side and can be slow).
	HTTPClient *http.Client
}

// Client talks to the asset upload service.
type Client struct {
	uploadURL string
	token     string
	http      *http.Client
}

// New creates an uploader client.
func New(config Config) (*Client, error) {
	if config.UploadURL == "" {
		return nil, fmt.Errorf("upload URL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		uploadURL: config.UploadURL,
		token:     config.Token,
		http:      httpClient,
	}, nil
}

type uploadPayload struct {
	TempURL  string `json:"tempUrl"`
	OwnerID  string `json:"ownerId"`
	Filename string `json:"filename"`
}

type uploadResult struct {
	PermanentURL string `json:"permanentUrl"`
}

// Upload implements brandgen.Uploader.
func (c *Client) Upload(ctx context.Context, tempURL, ownerID, filename string) (string, error) {
	body, err := json.Marshal(uploadPayload{TempURL: tempURL, OwnerID: ownerID, Filename: filename})
	if err != nil {
		return "", fmt.Errorf("failed to encode upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload returned status %d", resp.StatusCode)
	}

	var result uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.PermanentURL == "" {
		return "", fmt.Errorf("upload response missing permanent URL")
	}
	return result.PermanentURL, nil
}

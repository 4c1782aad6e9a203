// Package api provides the HTTP surface for the generation and quota
// core: quota standing, generation, asset listing, selection and
// deletion. Session exchange happens upstream; the owner arrives as an
// already-authenticated user id.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

const maxUserIDLen = 255

// Handler provides the HTTP endpoints.
type Handler struct {
	config Config
}

// NewHandler creates a handler from the given configuration.
func NewHandler(config Config) (*Handler, error) {
	if config.Generator == nil || config.Quota == nil || config.Selection == nil {
		return nil, fmt.Errorf("generator, quota and selection are required")
	}
	if config.GetUserID == nil {
		return nil, fmt.Errorf("user id extractor is required")
	}
	if config.DefaultTool == "" {
		config.DefaultTool = "logo"
	}
	if config.Logger == nil {
		config.Logger = &brandgen.NoopLogger{}
	}
	return &Handler{config: config}, nil
}

// Routes mounts the API on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/quota", h.GetQuota)
	r.Post("/generate", h.Generate)
	r.Get("/assets", h.ListAssets)
	r.Post("/assets/{assetID}/select", h.SelectAsset)
	r.Delete("/assets/{assetID}", h.DeleteAsset)
	return r
}

// GetQuota returns the caller's quota standing for a tool and plan.
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	tool := r.URL.Query().Get("tool")
	if tool == "" {
		tool = h.config.DefaultTool
	}
	plan := brandgen.PlanTier(r.URL.Query().Get("plan"))
	if plan == "" {
		plan = brandgen.PlanFree
	}

	status, err := h.config.Quota.Check(r.Context(), userID, tool, plan)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, QuotaResponse{
		CanSubmit:            status.CanSubmit,
		GenerationsUsed:      status.GenerationsUsed,
		GenerationsRemaining: Remaining(status.GenerationsRemaining),
		ImagesUsed:           status.ImagesUsed,
		ImagesRemaining:      Remaining(status.ImagesRemaining),
	})
}

// Generate runs one generation for the caller.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tool == "" {
		req.Tool = h.config.DefaultTool
	}
	if req.Plan == "" {
		req.Plan = brandgen.PlanFree
	}

	result, err := h.config.Generator.Generate(r.Context(), &brandgen.GenerationRequest{
		OwnerID: userID,
		ToolID:  req.Tool,
		Plan:    req.Plan,
		Answers: req.Answers,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := GenerateResponse{Prompt: result.Prompt, TimedOut: result.TimedOut, Assets: make([]AssetResponse, 0, len(result.Assets))}
	for _, asset := range result.Assets {
		resp.Assets = append(resp.Assets, toAssetResponse(asset))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ListAssets returns the caller's generated assets, newest first.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	assets, err := h.config.Selection.List(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]AssetResponse, 0, len(assets))
	for _, asset := range assets {
		resp = append(resp, toAssetResponse(asset))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SelectAsset marks one asset as the caller's chosen one.
func (h *Handler) SelectAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if err := h.config.Selection.Select(r.Context(), userID, assetID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAsset removes one of the caller's assets.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	assetID := chi.URLParam(r, "assetID")
	if err := h.config.Selection.Delete(r.Context(), userID, assetID); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := h.config.GetUserID(r)
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "user ID not found")
		return "", false
	}
	if len(userID) > maxUserIDLen {
		h.writeError(w, http.StatusBadRequest, "invalid user ID format")
		return "", false
	}
	return userID, true
}

// handleError maps core errors onto HTTP statuses following the error
// taxonomy: validation 400, quota 429, rate-limit 429, asset lookup 404,
// provider failures 502, everything else 500.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var rle *brandgen.RateLimitError
	switch {
	case errors.Is(err, brandgen.ErrMissingBusinessName), errors.Is(err, brandgen.ErrUnknownPlan):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, brandgen.ErrQuotaExceeded):
		h.writeError(w, http.StatusTooManyRequests, "out of credits")
	case errors.As(err, &rle):
		h.writeError(w, http.StatusTooManyRequests, "the image service is busy, try again shortly")
	case errors.Is(err, brandgen.ErrAssetNotFound):
		h.writeError(w, http.StatusNotFound, "asset not found")
	case errors.Is(err, brandgen.ErrGenerationFailed):
		h.writeError(w, http.StatusBadGateway, "generation failed")
	default:
		h.config.Logger.Error("request failed",
			brandgen.Field{Key: "path", Value: r.URL.Path},
			brandgen.Field{Key: "error", Value: err.Error()},
		)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.config.Logger.Error("response encoding failed",
			brandgen.Field{Key: "error", Value: err.Error()},
		)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

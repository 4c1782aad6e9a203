package api

import (
	"net/http"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// UserIDExtractor extracts the owner id from an HTTP request.
// Return empty string if the user is not authenticated.
type UserIDExtractor func(r *http.Request) string

// Config holds API handler configuration.
type Config struct {
	// Generator runs generations (required).
	Generator *brandgen.Generator

	// Quota answers quota-standing queries (required).
	Quota *brandgen.QuotaManager

	// Selection manages asset selection and listing (required).
	Selection *brandgen.SelectionManager

	// GetUserID extracts the owner id from a request (required).
	GetUserID UserIDExtractor

	// DefaultTool is used when a request names no tool (default: "logo").
	DefaultTool string

	// Logger is used for request-scoped logging (default: NoopLogger).
	Logger brandgen.Logger
}

// FromHeader returns a UserIDExtractor that reads a header.
func FromHeader(headerName string) UserIDExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

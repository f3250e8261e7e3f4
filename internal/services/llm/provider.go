// Package llm generates report commentary through a configurable AI
// provider. Exactly one generation attempt is made per run; a failed or
// empty response surfaces as *UnavailableError and the caller falls back
// to placeholder text.
package llm

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Prompt            string
	SystemInstruction string
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider common.LLMProvider
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	ProviderType() common.LLMProvider
	Close() error
}

// parseTimeout converts a config duration string, falling back to the
// default on blank or unparseable values.
func parseTimeout(logger arbor.ILogger, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		if logger != nil {
			logger.Warn().Str("timeout", value).Msg("Invalid timeout, using default")
		}
		return fallback
	}
	return timeout
}

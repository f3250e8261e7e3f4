package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
)

// NewProvider creates the provider selected by [llm] provider in config.
func NewProvider(ctx context.Context, config *common.Config, logger arbor.ILogger) (Provider, error) {
	switch config.LLM.Provider {
	case common.LLMProviderClaude:
		return NewClaudeProvider(&config.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiProvider(ctx, &config.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want %q or %q)",
			config.LLM.Provider, common.LLMProviderGemini, common.LLMProviderClaude)
	}
}

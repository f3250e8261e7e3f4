package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
)

const systemInstruction = "You are an equity analyst writing concise commentary for a one-page stock report. " +
	"Respond in plain markdown with exactly the requested sections and nothing else. " +
	"No preamble, no closing remarks, no investment advice disclaimers."

// NarrativeService turns comparison verdicts into report commentary.
type NarrativeService struct {
	provider Provider
	logger   arbor.ILogger
}

// NewNarrativeService creates a narrative service on top of a provider.
func NewNarrativeService(provider Provider, logger arbor.ILogger) *NarrativeService {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &NarrativeService{
		provider: provider,
		logger:   logger,
	}
}

// Generate produces the commentary sections as markdown. The provider is
// called once; any failure comes back as *UnavailableError so the caller
// can substitute placeholder text and keep rendering.
func (s *NarrativeService) Generate(ctx context.Context, stockID string, rows []models.Verdict) (string, error) {
	if s.provider == nil {
		return "", &UnavailableError{Err: fmt.Errorf("no language model provider configured")}
	}

	request := &ContentRequest{
		Prompt:            buildPrompt(stockID, rows),
		SystemInstruction: systemInstruction,
	}

	resp, err := s.provider.GenerateContent(ctx, request)
	if err != nil {
		return "", &UnavailableError{Provider: s.provider.ProviderType(), Err: err}
	}

	s.logger.Debug().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("chars", len(resp.Text)).
		Msg("Narrative generated")

	return strings.TrimSpace(resp.Text), nil
}

// buildPrompt serializes the verdict rows into the commentary prompt.
func buildPrompt(stockID string, rows []models.Verdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write commentary for %s based on this peer comparison:\n\n", stockID)

	if len(rows) == 0 {
		b.WriteString("(no metric data available)\n")
	}
	for _, row := range rows {
		if row.Rating == models.RatingUndetermined {
			fmt.Fprintf(&b, "- %s: %.2f (no peer data)\n", row.Metric, row.StockValue)
			continue
		}
		fmt.Fprintf(&b, "- %s: %.2f vs peer average %.2f (%s)\n",
			row.Metric, row.StockValue, row.PeerMean, row.Rating)
	}

	b.WriteString("\nProduce exactly three sections:\n")
	b.WriteString("## Strengths\nThe top 3 strengths, one bullet each.\n")
	b.WriteString("## Growth catalysts\nThe top 3 growth catalysts, one bullet each.\n")
	b.WriteString("## Risks and mitigations\nThe top 2 risks, one bullet each, ending with the likely mitigation.\n")

	return b.String()
}

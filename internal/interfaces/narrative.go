package interfaces

import (
	"context"

	"github.com/ternarybob/prospectus/internal/models"
)

// NarrativeGenerator produces the commentary block for a report.
type NarrativeGenerator interface {
	// Generate returns markdown commentary for the stock built from its
	// metric verdicts. Failures are recoverable; the caller substitutes a
	// placeholder and continues.
	Generate(ctx context.Context, stockID string, rows []models.Verdict) (string, error)
}

package interfaces

import (
	"context"

	"github.com/ternarybob/prospectus/internal/models"
)

// MarketDataFetcher retrieves supplementary live figures for a stock from a
// public source. The page structure is outside this system's control, so
// callers must tolerate failure and render the affected fields as
// unavailable.
type MarketDataFetcher interface {
	Fetch(ctx context.Context, stockID string) (*models.Snapshot, error)
}

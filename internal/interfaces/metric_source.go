package interfaces

import "github.com/ternarybob/prospectus/internal/models"

// MetricSource exposes the loaded spreadsheet data for one run.
type MetricSource interface {
	// MetricsFor returns the target stock's metrics in dataset column order.
	MetricsFor(stockID string) []models.MetricRecord

	// PeerValuesFor returns the comparable-company values recorded for the
	// given target stock and metric. The slice may be empty.
	PeerValuesFor(stockID, metric string) []float64

	// Stocks lists the identifiers present in the primary dataset.
	Stocks() []string
}

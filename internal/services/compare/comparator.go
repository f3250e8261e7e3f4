// Package compare rates a stock's metric values against the arithmetic
// mean of its peer values.
package compare

import (
	"math"
	"strings"

	"github.com/ternarybob/prospectus/internal/interfaces"
	"github.com/ternarybob/prospectus/internal/models"
)

// Comparator applies the direction rule to metric values. For most metrics
// a value below the peer mean is favorable (valuation ratios); metrics
// named in the higher-is-better list flip the direction (yields).
type Comparator struct {
	higherIsBetter map[string]bool
}

// New creates a comparator. Metric names in higherIsBetter are matched
// case-insensitively against incoming metric names.
func New(higherIsBetter []string) *Comparator {
	set := make(map[string]bool, len(higherIsBetter))
	for _, name := range higherIsBetter {
		key := strings.ToLower(strings.TrimSpace(name))
		if key != "" {
			set[key] = true
		}
	}
	return &Comparator{higherIsBetter: set}
}

// HigherIsBetter reports whether larger values are favorable for the metric.
func (c *Comparator) HigherIsBetter(metricName string) bool {
	return c.higherIsBetter[strings.ToLower(strings.TrimSpace(metricName))]
}

// Rate produces the verdict for one metric value against its peer values.
// A value exactly on the peer mean is unfavorable regardless of direction.
// With no peer values the verdict is undetermined, PeerMean is NaN and
// PeerCount is zero.
func (c *Comparator) Rate(metric string, stockValue float64, peerValues []float64) models.Verdict {
	if len(peerValues) == 0 {
		return models.Verdict{
			Metric:     metric,
			StockValue: stockValue,
			PeerMean:   math.NaN(),
			PeerCount:  0,
			Rating:     models.RatingUndetermined,
		}
	}

	mean := Mean(peerValues)

	rating := models.RatingUnfavorable
	if c.HigherIsBetter(metric) {
		if stockValue > mean {
			rating = models.RatingFavorable
		}
	} else if stockValue < mean {
		rating = models.RatingFavorable
	}

	return models.Verdict{
		Metric:     metric,
		StockValue: stockValue,
		PeerMean:   mean,
		PeerCount:  len(peerValues),
		Rating:     rating,
	}
}

// RateAll rates every metric the source holds for the stock, preserving
// the source's metric order.
func (c *Comparator) RateAll(source interfaces.MetricSource, stockID string) []models.Verdict {
	rows := source.MetricsFor(stockID)

	verdicts := make([]models.Verdict, 0, len(rows))
	for _, row := range rows {
		peers := source.PeerValuesFor(stockID, row.Name)
		verdicts = append(verdicts, c.Rate(row.Name, row.Value, peers))
	}
	return verdicts
}

package compare

import (
	"math"
	"testing"

	"github.com/ternarybob/prospectus/internal/models"
)

func TestRate(t *testing.T) {
	c := New([]string{"Dividend Yield"})

	tests := []struct {
		name       string
		metric     string
		stockValue float64
		peerValues []float64
		want       models.Rating
	}{
		// Default direction: below the peer mean is favorable
		{"ratio below mean", "Trailing P/E", 10, []float64{12, 18}, models.RatingFavorable},
		{"ratio above mean", "Trailing P/E", 20, []float64{12, 18}, models.RatingUnfavorable},
		{"ratio equal to mean", "Trailing P/E", 15, []float64{10, 20}, models.RatingUnfavorable},

		// Higher-is-better metrics flip the direction
		{"yield above mean", "Dividend Yield", 5, []float64{2, 4}, models.RatingFavorable},
		{"yield below mean", "Dividend Yield", 2, []float64{3, 5}, models.RatingUnfavorable},
		{"yield equal to mean", "Dividend Yield", 3, []float64{2, 4}, models.RatingUnfavorable},

		// Direction list matching is case-insensitive
		{"yield lowercase name", "dividend yield", 5, []float64{2, 4}, models.RatingFavorable},

		// Single peer: the mean is that peer's value
		{"single peer below", "Price/Book", 1.1, []float64{2.2}, models.RatingFavorable},

		// No peers: nothing to compare against
		{"no peers", "Trailing P/E", 10, nil, models.RatingUndetermined},
		{"empty peers", "Trailing P/E", 10, []float64{}, models.RatingUndetermined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Rate(tt.metric, tt.stockValue, tt.peerValues)

			if got.Rating != tt.want {
				t.Errorf("Rate(%q, %v, %v).Rating = %q, want %q", tt.metric, tt.stockValue, tt.peerValues, got.Rating, tt.want)
			}
			if got.Metric != tt.metric {
				t.Errorf("Metric = %q, want %q", got.Metric, tt.metric)
			}
			if got.StockValue != tt.stockValue {
				t.Errorf("StockValue = %v, want %v", got.StockValue, tt.stockValue)
			}
		})
	}
}

func TestRateUndeterminedFields(t *testing.T) {
	c := New(nil)

	got := c.Rate("Trailing P/E", 12.5, nil)

	if got.Rating != models.RatingUndetermined {
		t.Fatalf("Rating = %q, want %q", got.Rating, models.RatingUndetermined)
	}
	if !math.IsNaN(got.PeerMean) {
		t.Errorf("PeerMean = %v, want NaN", got.PeerMean)
	}
	if got.PeerCount != 0 {
		t.Errorf("PeerCount = %d, want 0", got.PeerCount)
	}
	if got.Favorable() {
		t.Error("Favorable() = true for undetermined verdict")
	}
}

func TestRatePeerMean(t *testing.T) {
	c := New(nil)

	got := c.Rate("EV/EBITDA", 8, []float64{10, 20})

	if math.Abs(got.PeerMean-15) > 0.001 {
		t.Errorf("PeerMean = %f, want 15", got.PeerMean)
	}
	if got.PeerCount != 2 {
		t.Errorf("PeerCount = %d, want 2", got.PeerCount)
	}
	if got.Rating != models.RatingFavorable {
		t.Errorf("Rating = %q, want %q", got.Rating, models.RatingFavorable)
	}
}

func TestHigherIsBetter(t *testing.T) {
	c := New([]string{"Dividend Yield", "  Return on Equity  "})

	tests := []struct {
		metric string
		want   bool
	}{
		{"Dividend Yield", true},
		{"DIVIDEND YIELD", true},
		{"Return on Equity", true},
		{"Trailing P/E", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := c.HigherIsBetter(tt.metric); got != tt.want {
			t.Errorf("HigherIsBetter(%q) = %v, want %v", tt.metric, got, tt.want)
		}
	}
}

// stubSource is a minimal MetricSource for RateAll tests.
type stubSource struct {
	rows  []models.MetricRecord
	peers map[string][]float64
}

func (s *stubSource) MetricsFor(stockID string) []models.MetricRecord { return s.rows }

func (s *stubSource) PeerValuesFor(stockID, metric string) []float64 { return s.peers[metric] }

func (s *stubSource) Stocks() []string { return []string{"MIN"} }

func TestRateAll(t *testing.T) {
	source := &stubSource{
		rows: []models.MetricRecord{
			{StockID: "MIN", Name: "Trailing P/E", Value: 10},
			{StockID: "MIN", Name: "Dividend Yield", Value: 5},
			{StockID: "MIN", Name: "Price/Book", Value: 3},
		},
		peers: map[string][]float64{
			"Trailing P/E":   {12, 18},
			"Dividend Yield": {2, 4},
			// Price/Book intentionally has no peer values
		},
	}

	c := New([]string{"Dividend Yield"})
	verdicts := c.RateAll(source, "MIN")

	if len(verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(verdicts))
	}

	// Order follows the source's metric order
	wantMetrics := []string{"Trailing P/E", "Dividend Yield", "Price/Book"}
	wantRatings := []models.Rating{models.RatingFavorable, models.RatingFavorable, models.RatingUndetermined}

	for i, v := range verdicts {
		if v.Metric != wantMetrics[i] {
			t.Errorf("verdicts[%d].Metric = %q, want %q", i, v.Metric, wantMetrics[i])
		}
		if v.Rating != wantRatings[i] {
			t.Errorf("verdicts[%d].Rating = %q, want %q", i, v.Rating, wantRatings[i])
		}
	}
}

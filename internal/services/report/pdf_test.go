package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestRenderPriceChart(t *testing.T) {
	png, err := renderPriceChart(testSnapshot())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic), "chart output should be a PNG")
	assert.Greater(t, len(png), 1000)
}

func TestRenderPriceChartShortHistory(t *testing.T) {
	snapshot := &models.Snapshot{
		History: []models.Candle{
			{Date: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), Close: 10.0},
		},
	}

	_, err := renderPriceChart(snapshot)
	assert.Error(t, err)
}

func TestSMAOverlayShortHistory(t *testing.T) {
	xValues := []time.Time{time.Now(), time.Now().Add(24 * time.Hour)}
	closes := []float64{10, 11}

	_, ok := smaOverlay("SMA 50", xValues, closes, 50, "f59e0b")
	assert.False(t, ok, "overlay needs more closes than its window")
}

func TestBuildFigures(t *testing.T) {
	t.Run("nil snapshot renders all slots as n/a", func(t *testing.T) {
		figures := buildFigures(nil)
		require.Len(t, figures, 10)
		for _, f := range figures {
			assert.Equal(t, "n/a", f.value, "figure %q", f.label)
		}
	})

	t.Run("full snapshot keeps display values verbatim", func(t *testing.T) {
		figures := buildFigures(testSnapshot())
		byLabel := make(map[string]string, len(figures))
		for _, f := range figures {
			byLabel[f.label] = f.value
		}

		assert.Equal(t, "6.09B", byLabel["Market cap"])
		assert.Equal(t, "0.44%", byLabel["Dividend yield"])
		assert.Equal(t, "13.80 - 69.46", byLabel["52-wk range"])
		assert.NotEqual(t, "n/a", byLabel["SMA 50"])
		assert.NotEqual(t, "n/a", byLabel["SMA 200"])
	})

	t.Run("snapshot without history drops the averages", func(t *testing.T) {
		s := testSnapshot()
		s.History = nil
		figures := buildFigures(s)
		byLabel := make(map[string]string, len(figures))
		for _, f := range figures {
			byLabel[f.label] = f.value
		}

		assert.Equal(t, "n/a", byLabel["SMA 50"])
		assert.Equal(t, "n/a", byLabel["SMA 200"])
		assert.Equal(t, "6.09B", byLabel["Market cap"])
	})
}

func TestBuildPDFPlaceholderNarrative(t *testing.T) {
	report := &models.Report{
		StockID:              "ASX:MIN",
		RunID:                "run_test",
		GeneratedAt:          time.Date(2025, 8, 20, 9, 30, 0, 0, time.UTC),
		Rows:                 []models.Verdict{{Metric: "Trailing P/E", StockValue: 10, PeerMean: 15, PeerCount: 2, Rating: models.RatingFavorable}},
		Narrative:            narrativePlaceholder,
		NarrativePlaceholder: true,
	}

	data, err := newPDFBuilder(arbor.NewLogger()).build(report, nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestBuildPDFNoMetrics(t *testing.T) {
	report := &models.Report{
		StockID:     "ASX:MIN",
		RunID:       "run_test",
		GeneratedAt: time.Now(),
		Narrative:   "Plain sentence with no markdown structure.",
	}

	data, err := newPDFBuilder(arbor.NewLogger()).build(report, nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRatingColor(t *testing.T) {
	tests := []struct {
		rating models.Rating
		r, g   int
		b      int
	}{
		{models.RatingFavorable, 0, 128, 0},
		{models.RatingUnfavorable, 178, 34, 34},
		{models.RatingUndetermined, 105, 105, 105},
		{models.Rating("bogus"), 105, 105, 105},
	}

	for _, tt := range tests {
		r, g, b := ratingColor(tt.rating)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("ratingColor(%q) = (%d,%d,%d), want (%d,%d,%d)", tt.rating, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestRatingLabel(t *testing.T) {
	if got := ratingLabel(models.RatingFavorable); got != "Favorable" {
		t.Errorf("ratingLabel favorable = %q", got)
	}
	if got := ratingLabel(models.RatingUndetermined); got != "Undetermined" {
		t.Errorf("ratingLabel undetermined = %q", got)
	}
}

func TestFormatPeerMean(t *testing.T) {
	undetermined := models.Verdict{Metric: "Price/Book", StockValue: 2, PeerMean: math.NaN(), PeerCount: 0, Rating: models.RatingUndetermined}
	if got := formatPeerMean(undetermined); got != "n/a" {
		t.Errorf("formatPeerMean undetermined = %q, want n/a", got)
	}

	rated := models.Verdict{Metric: "Trailing P/E", StockValue: 10, PeerMean: 15, PeerCount: 3, Rating: models.RatingFavorable}
	if got := formatPeerMean(rated); got != "15.00  (n=3)" {
		t.Errorf("formatPeerMean rated = %q", got)
	}
}

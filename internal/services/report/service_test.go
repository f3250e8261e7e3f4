package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
	"github.com/ternarybob/prospectus/internal/services/llm"
	"github.com/ternarybob/prospectus/internal/services/market"
)

type stubNarrative struct {
	text string
	err  error
}

func (s *stubNarrative) Generate(ctx context.Context, stockID string, rows []models.Verdict) (string, error) {
	return s.text, s.err
}

type stubMarket struct {
	snapshot *models.Snapshot
	err      error
}

func (s *stubMarket) Fetch(ctx context.Context, stockID string) (*models.Snapshot, error) {
	return s.snapshot, s.err
}

type stubSource struct {
	metrics map[string][]models.MetricRecord
	peers   map[string]map[string][]float64
}

func (s *stubSource) MetricsFor(stockID string) []models.MetricRecord {
	return s.metrics[stockID]
}

func (s *stubSource) PeerValuesFor(stockID, metric string) []float64 {
	return s.peers[stockID][metric]
}

func (s *stubSource) Stocks() []string {
	stocks := make([]string, 0, len(s.metrics))
	for k := range s.metrics {
		stocks = append(stocks, k)
	}
	return stocks
}

func testSource() *stubSource {
	return &stubSource{
		metrics: map[string][]models.MetricRecord{
			"ASX:MIN": {
				{StockID: "ASX:MIN", Name: "Trailing P/E", Value: 10.0},
				{StockID: "ASX:MIN", Name: "Price/Book", Value: 2.0},
				{StockID: "ASX:MIN", Name: "Dividend Yield", Value: 4.1},
			},
		},
		peers: map[string]map[string][]float64{
			"ASX:MIN": {
				"Trailing P/E":   {12.0, 18.0},
				"Dividend Yield": {3.0, 3.5},
			},
		},
	}
}

// testSnapshot carries enough history for both moving-average overlays.
func testSnapshot() *models.Snapshot {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	history := make([]models.Candle, 220)
	for i := range history {
		price := 20.0 + float64(i)*0.05
		history[i] = models.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   price - 0.1,
			High:   price + 0.2,
			Low:    price - 0.3,
			Close:  price,
			Volume: 1000000 + int64(i),
		}
	}

	return &models.Snapshot{
		StockID:        "ASX:MIN",
		Name:           "Mineral Resources Limited",
		Price:          30.95,
		PreviousClose:  30.30,
		ChangePct:      2.15,
		Currency:       "AUD",
		Week52High:     69.46,
		Week52Low:      13.80,
		History:        history,
		MarketCap:      "6.09B",
		TrailingPE:     "152.04",
		PriceSales:     "1.17",
		PriceBook:      "3.42",
		EVToEBITDA:     "10.84",
		DividendYield:  "0.44%",
		ExDividendDate: "2/09/2025",
		FetchedAt:      time.Now(),
	}
}

func testNarrativeMarkdown() string {
	return "## Strengths\n\n" +
		"- Diversified revenue across mining services and lithium\n" +
		"- Net cash position after the asset sell-down\n\n" +
		"## Growth catalysts\n\n" +
		"- Onslow iron ore ramp to full run rate\n\n" +
		"## Risks and mitigations\n\n" +
		"- Commodity price cyclicality, partly offset by the services book"
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Report.OutputDir = t.TempDir()
	return cfg
}

func readOutput(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	return data
}

func TestServiceGenerate(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg,
		&stubNarrative{text: testNarrativeMarkdown()},
		&stubMarket{snapshot: testSnapshot()},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.NoError(t, err)

	wantName := fmt.Sprintf("ASX-MIN-%s.pdf", time.Now().Format("2006-01-02"))
	assert.Equal(t, wantName, filepath.Base(path))

	data := readOutput(t, path)
	assert.Equal(t, "%PDF", string(data[:4]))
	assert.Greater(t, len(data), 5000, "a full report with a chart should carry substantial content")

	pdfCtx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, pdfCtx.PageCount, "the report is a one-pager")
}

func TestServiceGenerateNarrativeFailure(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg,
		&stubNarrative{err: &llm.UnavailableError{Provider: common.LLMProviderGemini, Err: errors.New("quota exceeded")}},
		&stubMarket{snapshot: testSnapshot()},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.NoError(t, err, "narrative failure must degrade, not abort")

	data := readOutput(t, path)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestServiceGenerateMarketFailure(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg,
		&stubNarrative{text: testNarrativeMarkdown()},
		&stubMarket{err: &market.UnavailableError{StockID: "ASX:MIN", Err: errors.New("endpoints offline")}},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.NoError(t, err, "market failure must degrade, not abort")

	data := readOutput(t, path)
	assert.Equal(t, "%PDF", string(data[:4]))

	pdfCtx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, pdfCtx.PageCount)
}

func TestServiceGenerateFullyDegraded(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg,
		&stubNarrative{err: errors.New("model offline")},
		&stubMarket{err: errors.New("host unreachable")},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.NoError(t, err, "verdicts alone still make a report")

	data := readOutput(t, path)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestServiceGenerateUnwritableDir(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("not a directory"), 0644))

	cfg := common.NewDefaultConfig()
	cfg.Report.OutputDir = filepath.Join(blocked, "reports")

	svc := NewService(cfg,
		&stubNarrative{text: testNarrativeMarkdown()},
		&stubMarket{snapshot: testSnapshot()},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.Error(t, err)
	assert.Empty(t, path)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, renderErr.Path, "blocked")
}

func TestServiceOutputFileOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.OutputFile = filepath.Join(t.TempDir(), "custom-report.pdf")

	svc := NewService(cfg,
		&stubNarrative{text: testNarrativeMarkdown()},
		&stubMarket{snapshot: testSnapshot()},
		arbor.NewLogger())

	path, err := svc.Generate(context.Background(), testSource(), "ASX:MIN")
	require.NoError(t, err)
	assert.Equal(t, cfg.Report.OutputFile, path)

	data := readOutput(t, path)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestSanitizeFileStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ASX:MIN", "ASX-MIN"},
		{"MIN.AX", "MIN.AX"},
		{"BRK.B", "BRK.B"},
		{"odd id", "odd-id"},
		{"  ASX:MIN  ", "ASX-MIN"},
	}

	for _, tt := range tests {
		if got := sanitizeFileStem(tt.in); got != tt.want {
			t.Errorf("sanitizeFileStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

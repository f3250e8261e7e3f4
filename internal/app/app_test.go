package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/metrics"
)

const appMetricsCSV = `stock,Trailing P/E,Price/Book,Dividend Yield
ASX:MIN,10.0,2.0,4.1
ASX:BHP,12.5,3.1,5.0
`

const appPeersCSV = `stock,metric,value
ASX:MIN,Trailing P/E,12.0
ASX:MIN,Trailing P/E,18.0
ASX:MIN,Dividend Yield,3.0
`

// blankLLMEnv clears every credential source so provider construction fails
// and the narrative degrades to its placeholder.
func blankLLMEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROSPECTUS_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PROSPECTUS_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
}

func testAppConfig(t *testing.T, marketURL string) *common.Config {
	t.Helper()
	dir := t.TempDir()

	metricsPath := filepath.Join(dir, "metrics.csv")
	require.NoError(t, os.WriteFile(metricsPath, []byte(appMetricsCSV), 0644))
	peersPath := filepath.Join(dir, "peers.csv")
	require.NoError(t, os.WriteFile(peersPath, []byte(appPeersCSV), 0644))

	cfg := common.NewDefaultConfig()
	cfg.Data.MetricsFile = metricsPath
	cfg.Data.PeersFile = peersPath
	cfg.Report.OutputDir = filepath.Join(dir, "reports")
	cfg.Market.BaseURL = marketURL
	cfg.Market.ChartBaseURL = marketURL
	cfg.Market.RequestTimeout = "5s"
	cfg.Market.RequestGap = "0s"
	return cfg
}

func TestAppRunFullyDegraded(t *testing.T) {
	blankLLMEnv(t)

	// Every market request fails, so the report renders with n/a figures
	// and placeholder commentary.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testAppConfig(t, srv.URL)

	application, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err, "missing LLM credentials must not fail startup")
	defer application.Close()

	assert.Nil(t, application.Provider)

	path, err := application.Run(context.Background(), "ASX:MIN")
	require.NoError(t, err, "degraded sources still produce a report")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestAppRunUnknownStock(t *testing.T) {
	blankLLMEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	application, err := New(context.Background(), testAppConfig(t, srv.URL), arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	_, err = application.Run(context.Background(), "ASX:ZZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = application.Run(context.Background(), "   ")
	require.Error(t, err)
}

func TestAppRunTrimsIdentifier(t *testing.T) {
	blankLLMEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	application, err := New(context.Background(), testAppConfig(t, srv.URL), arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	path, err := application.Run(context.Background(), "  ASX:MIN  ")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "ASX-MIN")
}

func TestNewMissingDataFile(t *testing.T) {
	blankLLMEnv(t)

	cfg := common.NewDefaultConfig()
	cfg.Data.MetricsFile = filepath.Join(t.TempDir(), "absent.csv")
	cfg.Data.PeersFile = filepath.Join(t.TempDir(), "alsoabsent.csv")

	_, err := New(context.Background(), cfg, arbor.NewLogger())
	require.Error(t, err)

	var loadErr *metrics.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

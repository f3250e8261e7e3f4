package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "data/stocks.xlsx", config.Data.MetricsFile)
	assert.Equal(t, "data/peers.xlsx", config.Data.PeersFile)
	assert.Equal(t, "stock", config.Data.IdentifierColumn)
	assert.Equal(t, []string{"Dividend Yield"}, config.Compare.HigherIsBetter)
	assert.Equal(t, LLMProviderGemini, config.LLM.Provider)
	assert.Equal(t, "reports", config.Report.OutputDir)
	assert.Equal(t, "1y", config.Market.HistoryRange)
	assert.Equal(t, "info", config.Logging.Level)

	assert.NoError(t, config.Validate(), "default config should validate")
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[data]
metrics_file = "fixtures/stocks.csv"
peers_file = "fixtures/peers.csv"

[llm]
provider = "claude"
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[data]
peers_file = "fixtures/peers-override.csv"

[report]
output_dir = "out"
`), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Values from the first file survive unless the second file overrides them
	assert.Equal(t, "fixtures/stocks.csv", config.Data.MetricsFile)
	assert.Equal(t, "fixtures/peers-override.csv", config.Data.PeersFile)
	assert.Equal(t, LLMProviderClaude, config.LLM.Provider)
	assert.Equal(t, "out", config.Report.OutputDir)

	// Untouched sections keep their defaults
	assert.Equal(t, "stock", config.Data.IdentifierColumn)
	assert.Equal(t, "gemini-3-flash-preview", config.Gemini.Model)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestLoadFromFilesSkipsEmptyPaths(t *testing.T) {
	config, err := LoadFromFiles("", "")
	require.NoError(t, err)
	assert.Equal(t, "reports", config.Report.OutputDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROSPECTUS_LLM_PROVIDER", "claude")
	t.Setenv("PROSPECTUS_DATA_METRICS_FILE", "/tmp/metrics.xlsx")
	t.Setenv("PROSPECTUS_COMPARE_HIGHER_IS_BETTER", "Dividend Yield, Return on Equity")
	t.Setenv("PROSPECTUS_MARKET_REQUEST_GAP", "not-a-duration")
	t.Setenv("PROSPECTUS_CLAUDE_MAX_TOKENS", "4096")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, LLMProviderClaude, config.LLM.Provider)
	assert.Equal(t, "/tmp/metrics.xlsx", config.Data.MetricsFile)
	assert.Equal(t, []string{"Dividend Yield", "Return on Equity"}, config.Compare.HigherIsBetter)
	assert.Equal(t, 4096, config.Claude.MaxTokens)

	// Unparseable durations are ignored rather than breaking the config
	assert.Equal(t, "2s", config.Market.RequestGap)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "")
	assert.Empty(t, config.Report.OutputFile)

	ApplyFlagOverrides(config, "/tmp/custom.pdf")
	assert.Equal(t, "/tmp/custom.pdf", config.Report.OutputFile)
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("prefixed env wins over standard env", func(t *testing.T) {
		t.Setenv("PROSPECTUS_GEMINI_API_KEY", "prefixed-key")
		t.Setenv("GEMINI_API_KEY", "standard-key")

		key, err := ResolveAPIKey("gemini_api_key", "config-key")
		require.NoError(t, err)
		assert.Equal(t, "prefixed-key", key)
	})

	t.Run("standard env used when prefixed absent", func(t *testing.T) {
		t.Setenv("PROSPECTUS_CLAUDE_API_KEY", "")
		t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

		key, err := ResolveAPIKey("anthropic_api_key", "")
		require.NoError(t, err)
		assert.Equal(t, "anthropic-key", key)
	})

	t.Run("config fallback", func(t *testing.T) {
		t.Setenv("PROSPECTUS_GEMINI_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")

		key, err := ResolveAPIKey("gemini_api_key", "config-key")
		require.NoError(t, err)
		assert.Equal(t, "config-key", key)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("PROSPECTUS_GEMINI_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")

		_, err := ResolveAPIKey("gemini_api_key", "")
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }, true},
		{"missing metrics file", func(c *Config) { c.Data.MetricsFile = "" }, true},
		{"bad history range", func(c *Config) { c.Market.HistoryRange = "10y" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad timeout string", func(c *Config) { c.Gemini.Timeout = "ten minutes" }, true},
		{"temperature out of range", func(c *Config) { c.Claude.Temperature = 1.5 }, true},
		{"empty timeout tolerated", func(c *Config) { c.Market.RequestTimeout = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

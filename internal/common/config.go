package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Data    DataConfig    `toml:"data"`
	Compare CompareConfig `toml:"compare"`
	LLM     LLMConfig     `toml:"llm"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Claude  ClaudeConfig  `toml:"claude"`
	Market  MarketConfig  `toml:"market"`
	Report  ReportConfig  `toml:"report"`
	Logging LoggingConfig `toml:"logging"`
}

// DataConfig locates the two spreadsheet inputs. Paths are configuration
// values, never CLI arguments.
type DataConfig struct {
	MetricsFile      string `toml:"metrics_file" validate:"required"`      // Primary dataset: one row per stock, one column per metric
	PeersFile        string `toml:"peers_file" validate:"required"`        // Peer dataset: one row per comparable-company value
	IdentifierColumn string `toml:"identifier_column" validate:"required"` // Header of the stock identifier column (default: "stock")
}

// CompareConfig controls the favorability direction rule.
type CompareConfig struct {
	// HigherIsBetter lists the metric names where beating the peer mean on
	// the upside is favorable (e.g. "Dividend Yield"). Every other metric
	// is favorable below the mean. Matching is case-insensitive. Extend
	// this list as metric columns are added to the primary dataset.
	HigherIsBetter []string `toml:"higher_is_better"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the narrative provider.
type LLMConfig struct {
	Provider LLMProvider `toml:"provider" validate:"oneof=gemini claude"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`                            // Resolved env-first; see ResolveAPIKey
	Model       string  `toml:"model" validate:"required"`          // Default: "gemini-3-flash-preview"
	Timeout     string  `toml:"timeout"`                            // Call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=2"` // Default: 0.4
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`                            // Resolved env-first; see ResolveAPIKey
	Model       string  `toml:"model" validate:"required"`          // Default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`         // Default: 2048
	Timeout     string  `toml:"timeout"`                            // Call timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=1"` // Default: 0.4
}

// MarketConfig points the fetcher at the public finance site. Base URLs are
// configurable so tests can serve fixtures locally.
type MarketConfig struct {
	BaseURL         string `toml:"base_url" validate:"required,url"`       // Statistics page host
	ChartBaseURL    string `toml:"chart_base_url" validate:"required,url"` // Chart JSON endpoint host
	UserAgent       string `toml:"user_agent"`                             // Desktop browser string; the page rejects default Go clients
	RequestTimeout  string `toml:"request_timeout"`                        // Per-request timeout as duration string (default: "30s")
	RequestGap      string `toml:"request_gap"`                            // Minimum spacing between outbound requests (default: "2s")
	HistoryRange    string `toml:"history_range" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
	DefaultExchange string `toml:"default_exchange"` // Qualifies bare stock codes ("MIN" -> "ASX:MIN")
}

// ReportConfig controls where the rendered page is written.
type ReportConfig struct {
	OutputDir string `toml:"output_dir" validate:"required"` // Default: "reports"; file name is <STOCK>-<date>.pdf
	// OutputFile, when set (normally via the -output flag), overrides the
	// derived path entirely.
	OutputFile string `toml:"output_file"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // Default: "info"
	Format string   `toml:"format" validate:"oneof=text json"`            // Default: "text"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in prospectus.toml; technical
// parameters are hardcoded here.
func NewDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			MetricsFile:      "data/stocks.xlsx",
			PeersFile:        "data/peers.xlsx",
			IdentifierColumn: "stock",
		},
		Compare: CompareConfig{
			HigherIsBetter: []string{"Dividend Yield"},
		},
		LLM: LLMConfig{
			Provider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (env or config)
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.4,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.4,
		},
		Market: MarketConfig{
			BaseURL:         "https://finance.yahoo.com",
			ChartBaseURL:    "https://query1.finance.yahoo.com",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:  "30s",
			RequestGap:      "2s",
			HistoryRange:    "1y",
			DefaultExchange: "ASX",
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override every file.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Data configuration
	if v := os.Getenv("PROSPECTUS_DATA_METRICS_FILE"); v != "" {
		config.Data.MetricsFile = v
	}
	if v := os.Getenv("PROSPECTUS_DATA_PEERS_FILE"); v != "" {
		config.Data.PeersFile = v
	}
	if v := os.Getenv("PROSPECTUS_DATA_IDENTIFIER_COLUMN"); v != "" {
		config.Data.IdentifierColumn = v
	}

	// Comparison configuration
	if v := os.Getenv("PROSPECTUS_COMPARE_HIGHER_IS_BETTER"); v != "" {
		names := []string{}
		for _, n := range splitString(v, ",") {
			if trimmed := trimSpace(n); trimmed != "" {
				names = append(names, trimmed)
			}
		}
		if len(names) > 0 {
			config.Compare.HigherIsBetter = names
		}
	}

	// LLM provider selection
	if v := os.Getenv("PROSPECTUS_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = LLMProvider(v)
	}

	// Gemini configuration
	if v := os.Getenv("PROSPECTUS_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("PROSPECTUS_GEMINI_MODEL"); v != "" {
		config.Gemini.Model = v
	}
	if v := os.Getenv("PROSPECTUS_GEMINI_TIMEOUT"); v != "" {
		config.Gemini.Timeout = v
	}
	if v := os.Getenv("PROSPECTUS_GEMINI_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("PROSPECTUS_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v // PROSPECTUS_ prefix takes priority
	}
	if v := os.Getenv("PROSPECTUS_CLAUDE_MODEL"); v != "" {
		config.Claude.Model = v
	}
	if v := os.Getenv("PROSPECTUS_CLAUDE_MAX_TOKENS"); v != "" {
		if mt, err := strconv.Atoi(v); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if v := os.Getenv("PROSPECTUS_CLAUDE_TIMEOUT"); v != "" {
		config.Claude.Timeout = v
	}
	if v := os.Getenv("PROSPECTUS_CLAUDE_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// Market configuration
	if v := os.Getenv("PROSPECTUS_MARKET_BASE_URL"); v != "" {
		config.Market.BaseURL = v
	}
	if v := os.Getenv("PROSPECTUS_MARKET_CHART_BASE_URL"); v != "" {
		config.Market.ChartBaseURL = v
	}
	if v := os.Getenv("PROSPECTUS_MARKET_USER_AGENT"); v != "" {
		config.Market.UserAgent = v
	}
	if v := os.Getenv("PROSPECTUS_MARKET_REQUEST_TIMEOUT"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			config.Market.RequestTimeout = v
		}
	}
	if v := os.Getenv("PROSPECTUS_MARKET_REQUEST_GAP"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			config.Market.RequestGap = v
		}
	}
	if v := os.Getenv("PROSPECTUS_MARKET_HISTORY_RANGE"); v != "" {
		config.Market.HistoryRange = v
	}
	if v := os.Getenv("PROSPECTUS_MARKET_DEFAULT_EXCHANGE"); v != "" {
		config.Market.DefaultExchange = v
	}

	// Report configuration
	if v := os.Getenv("PROSPECTUS_REPORT_OUTPUT_DIR"); v != "" {
		config.Report.OutputDir = v
	}

	// Logging configuration
	if v := os.Getenv("PROSPECTUS_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PROSPECTUS_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("PROSPECTUS_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range splitString(v, ",") {
			if trimmed := trimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, outputFile string) {
	// Command-line flags have highest priority
	if outputFile != "" {
		config.Report.OutputFile = outputFile
	}
}

// Validate checks the merged configuration using go-playground/validator
// tags plus the duration strings the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, value := range map[string]string{
		"gemini.timeout":         c.Gemini.Timeout,
		"claude.timeout":         c.Claude.Timeout,
		"market.request_timeout": c.Market.RequestTimeout,
		"market.request_gap":     c.Market.RequestGap,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s %q is not a duration: %w", name, value, err)
		}
	}

	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variables -> config fallback ->
// error. PROSPECTUS_* variables always win over the providers' standard
// variable names.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"PROSPECTUS_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"PROSPECTUS_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// Package app wires the report pipeline components for one invocation.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/httpclient"
	"github.com/ternarybob/prospectus/internal/services/llm"
	"github.com/ternarybob/prospectus/internal/services/market"
	"github.com/ternarybob/prospectus/internal/services/metrics"
	"github.com/ternarybob/prospectus/internal/services/report"
)

// App holds the assembled pipeline for one run.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Store    *metrics.Store
	Provider llm.Provider
	Report   *report.Service
}

// New initializes the application in dependency order. Data layer failures
// are fatal; a missing language model credential only degrades commentary,
// so startup continues without a provider.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if logger == nil {
		logger = common.GetLogger()
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	common.SetDefaultExchange(cfg.Market.DefaultExchange)

	store := metrics.NewStore(logger, cfg.Data.IdentifierColumn)
	if err := store.Load(cfg.Data.MetricsFile, cfg.Data.PeersFile); err != nil {
		return nil, err
	}
	app.Store = store

	provider, err := llm.NewProvider(ctx, cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Language model provider unavailable, commentary will use placeholder text")
		logger.Info().Msg("To enable commentary, set PROSPECTUS_GEMINI_API_KEY or PROSPECTUS_CLAUDE_API_KEY")
	} else {
		app.Provider = provider
	}
	narrative := llm.NewNarrativeService(app.Provider, logger)

	marketClient, err := app.newMarketClient()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market client: %w", err)
	}

	app.Report = report.NewService(cfg, narrative, marketClient, logger)

	logger.Info().
		Int("stocks", len(store.Stocks())).
		Str("provider", string(cfg.LLM.Provider)).
		Bool("narrative_enabled", app.Provider != nil).
		Msg("Application initialization complete")

	return app, nil
}

// newMarketClient builds the fetcher from the [market] config section.
func (a *App) newMarketClient() (*market.Client, error) {
	timeout := parseDuration(a.Config.Market.RequestTimeout, market.DefaultTimeout)
	gap := parseDuration(a.Config.Market.RequestGap, market.DefaultRequestGap)

	httpClient, err := httpclient.NewBrowserHTTPClient(timeout)
	if err != nil {
		return nil, err
	}

	return market.NewClient(
		market.WithBaseURL(a.Config.Market.BaseURL),
		market.WithChartBaseURL(a.Config.Market.ChartBaseURL),
		market.WithUserAgent(a.Config.Market.UserAgent),
		market.WithHistoryRange(a.Config.Market.HistoryRange),
		market.WithHTTPClient(httpClient),
		market.WithLogger(a.Logger),
		market.WithRequestGap(gap),
	), nil
}

// Run generates the report for one stock and returns the output path. The
// identifier must appear in the primary dataset; the market fetcher applies
// its own exchange qualification separately.
func (a *App) Run(ctx context.Context, stockID string) (string, error) {
	stockID = strings.TrimSpace(stockID)
	if stockID == "" {
		return "", fmt.Errorf("empty stock identifier")
	}

	if !a.Store.HasStock(stockID) {
		return "", fmt.Errorf("stock %q not found in %s (available: %s)",
			stockID, a.Config.Data.MetricsFile, strings.Join(a.Store.Stocks(), ", "))
	}

	return a.Report.Generate(ctx, a.Store, stockID)
}

// Close releases the language model connection.
func (a *App) Close() error {
	if a.Provider != nil {
		if err := a.Provider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close language model provider")
		}
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

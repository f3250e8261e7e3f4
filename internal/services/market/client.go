// Package market fetches live supplementary figures for a stock from the
// public Yahoo Finance endpoints: scraped key statistics from the quote page
// and daily candles from the chart JSON API. Both sources are outside this
// system's control, so every fetch is best effort. A snapshot with a partial
// field set is a success; only the total absence of data is an error.
package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/httpclient"
	"github.com/ternarybob/prospectus/internal/interfaces"
	"github.com/ternarybob/prospectus/internal/models"
)

const (
	// DefaultBaseURL serves the quote pages the statistics scrape reads.
	DefaultBaseURL = "https://finance.yahoo.com"

	// DefaultChartBaseURL serves the JSON chart endpoint.
	DefaultChartBaseURL = "https://query1.finance.yahoo.com"

	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestGap spaces consecutive requests to a public endpoint.
	DefaultRequestGap = 2 * time.Second

	// DefaultHistoryRange is the chart window requested for the price graph.
	DefaultHistoryRange = "1y"

	// DefaultUserAgent mirrors a desktop browser. The quote pages serve a
	// consent interstitial instead of content to generic Go clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client fetches quote statistics and price history for one stock at a time.
type Client struct {
	baseURL      string
	chartBaseURL string
	userAgent    string
	historyRange string
	httpClient   *http.Client
	logger       arbor.ILogger
	limiter      *rate.Limiter
}

var _ interfaces.MarketDataFetcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the quote page host.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithChartBaseURL overrides the chart endpoint host.
func WithChartBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.chartBaseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHistoryRange overrides the chart window, e.g. "6mo" or "2y".
func WithHistoryRange(historyRange string) ClientOption {
	return func(c *Client) {
		if historyRange != "" {
			c.historyRange = historyRange
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestGap sets the minimum spacing between outbound requests. A zero
// or negative gap disables pacing, which tests rely on.
func WithRequestGap(gap time.Duration) ClientOption {
	return func(c *Client) {
		if gap > 0 {
			c.limiter = rate.NewLimiter(rate.Every(gap), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// NewClient creates a market data client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		chartBaseURL: DefaultChartBaseURL,
		userAgent:    DefaultUserAgent,
		historyRange: DefaultHistoryRange,
		httpClient:   httpclient.NewDefaultHTTPClient(DefaultTimeout),
		logger:       common.GetLogger(),
		limiter:      rate.NewLimiter(rate.Every(DefaultRequestGap), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch retrieves the snapshot for a stock. The statistics scrape and the
// chart fetch run independently; a failure in one leaves the other's fields
// in place and is logged as a warning. Fetch returns an UnavailableError
// only when both sources fail, so the caller can drop the market section
// from the report as a whole.
func (c *Client) Fetch(ctx context.Context, stockID string) (*models.Snapshot, error) {
	ticker := common.ParseTicker(stockID)
	if ticker.Code == "" {
		return nil, fmt.Errorf("empty stock identifier")
	}

	snapshot := &models.Snapshot{
		StockID:   ticker.String(),
		FetchedAt: time.Now(),
	}

	statsErr := c.fetchKeyStatistics(ctx, ticker, snapshot)
	if statsErr != nil && c.logger != nil {
		c.logger.Warn().
			Err(statsErr).
			Str("stock", ticker.String()).
			Msg("Key statistics unavailable, continuing with chart data only")
	}

	chartErr := c.fetchChart(ctx, ticker, snapshot)
	if chartErr != nil && c.logger != nil {
		c.logger.Warn().
			Err(chartErr).
			Str("stock", ticker.String()).
			Msg("Price history unavailable, continuing with scraped figures only")
	}

	if statsErr != nil && chartErr != nil {
		return nil, &UnavailableError{
			StockID: ticker.String(),
			Err:     errors.Join(statsErr, chartErr),
		}
	}

	if c.logger != nil {
		c.logger.Info().
			Str("stock", ticker.String()).
			Str("symbol", ticker.QuoteSymbol()).
			Int("candles", len(snapshot.History)).
			Bool("statistics", statsErr == nil).
			Msg("Fetched market snapshot")
	}

	return snapshot, nil
}

// get performs a paced GET request with browser-like headers and returns the
// response body for 200 responses. Other status codes produce an APIError.
func (c *Client) get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if c.logger != nil {
		c.logger.Debug().Str("url", url).Msg("Market data request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   url,
		}
	}

	return resp.Body, nil
}

package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
)

// fetchChart retrieves daily candles from the chart endpoint and fills the
// price fields of the snapshot. Sessions with a zero close are skipped; the
// endpoint pads holidays that way.
func (c *Client) fetchChart(ctx context.Context, ticker common.Ticker, snapshot *models.Snapshot) error {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.chartBaseURL, ticker.QuoteSymbol(), c.historyRange)

	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	defer body.Close()

	var apiResp chartResponse
	if err := json.NewDecoder(body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode chart response: %w", err)
	}

	if apiResp.Chart.Error != nil {
		return fmt.Errorf("chart endpoint error %s: %s",
			apiResp.Chart.Error.Code, apiResp.Chart.Error.Description)
	}
	if len(apiResp.Chart.Result) == 0 {
		return fmt.Errorf("no chart data for %s", ticker.QuoteSymbol())
	}

	result := apiResp.Chart.Result[0]

	meta := result.Meta
	if snapshot.Name == "" && meta.LongName != "" {
		snapshot.Name = meta.LongName
	}
	snapshot.Currency = meta.Currency
	snapshot.Price = meta.RegularMarketPrice
	if snapshot.Week52High == 0 {
		snapshot.Week52High = meta.FiftyTwoWeekHigh
	}
	if snapshot.Week52Low == 0 {
		snapshot.Week52Low = meta.FiftyTwoWeekLow
	}

	if len(result.Indicators.Quote) == 0 {
		return fmt.Errorf("no quote data for %s", ticker.QuoteSymbol())
	}
	quote := result.Indicators.Quote[0]

	var candles []models.Candle
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == 0 {
			continue
		}

		candle := models.Candle{
			Date:  time.Unix(ts, 0).UTC(),
			Close: quote.Close[i],
		}
		if i < len(quote.Open) {
			candle.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			candle.High = quote.High[i]
		}
		if i < len(quote.Low) {
			candle.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			candle.Volume = quote.Volume[i]
		}

		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return fmt.Errorf("chart response for %s held no usable candles", ticker.QuoteSymbol())
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})
	snapshot.History = candles

	if snapshot.Price == 0 {
		snapshot.Price = candles[len(candles)-1].Close
	}

	prevClose := meta.PreviousClose
	if prevClose == 0 && len(candles) >= 2 {
		prevClose = candles[len(candles)-2].Close
	}
	snapshot.PreviousClose = prevClose
	if snapshot.Price > 0 && prevClose > 0 {
		snapshot.ChangePct = (snapshot.Price - prevClose) / prevClose * 100
	}

	return nil
}

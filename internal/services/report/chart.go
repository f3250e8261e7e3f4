package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ternarybob/prospectus/internal/models"
	"github.com/ternarybob/prospectus/internal/services/market"
)

const (
	chartWidthPx  = 900
	chartHeightPx = 300
)

// renderPriceChart draws the closing-price series with 50 and 200 day
// moving-average overlays and returns raw PNG bytes.
func renderPriceChart(snapshot *models.Snapshot) ([]byte, error) {
	if !snapshot.HasHistory() {
		return nil, fmt.Errorf("need at least 2 candles, got %d", len(snapshot.History))
	}

	xValues := make([]time.Time, len(snapshot.History))
	closes := make([]float64, len(snapshot.History))
	for i, candle := range snapshot.History {
		xValues[i] = candle.Date
		closes[i] = candle.Close
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Close",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.0,
			},
			XValues: xValues,
			YValues: closes,
		},
	}

	if overlay, ok := smaOverlay("SMA 50", xValues, closes, 50, "f59e0b"); ok {
		series = append(series, overlay)
	}
	if overlay, ok := smaOverlay("SMA 200", xValues, closes, 200, "9333ea"); ok {
		series = append(series, overlay)
	}

	graph := chart.Chart{
		Width:  chartWidthPx,
		Height: chartHeightPx,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// smaOverlay builds a moving-average series clipped to where its window is
// full, so the overlay begins partway through the chart. Histories shorter
// than the window omit the overlay entirely.
func smaOverlay(name string, xValues []time.Time, closes []float64, period int, hexColor string) (chart.TimeSeries, bool) {
	if len(closes) < period+1 {
		return chart.TimeSeries{}, false
	}

	values := market.SMASeries(closes, period)
	return chart.TimeSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex(hexColor),
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{4.0, 3.0},
		},
		XValues: xValues[period-1:],
		YValues: values[period-1:],
	}, true
}

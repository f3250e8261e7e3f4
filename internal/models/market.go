package models

import "time"

// Candle is a single daily price bar from the public chart endpoint.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Snapshot holds the supplementary live figures for a stock. Numeric fields
// are zero when unavailable; scraped display fields are empty strings when
// the source page did not carry them. The renderer prints "n/a" for both.
type Snapshot struct {
	StockID string `json:"stock_id"`
	Name    string `json:"name,omitempty"`

	// From the chart endpoint.
	Price         float64  `json:"price,omitempty"`
	PreviousClose float64  `json:"previous_close,omitempty"`
	ChangePct     float64  `json:"change_percent,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Week52High    float64  `json:"week_52_high,omitempty"`
	Week52Low     float64  `json:"week_52_low,omitempty"`
	History       []Candle `json:"history,omitempty"`

	// Display values scraped from the statistics page, kept as shown there
	// (e.g. "1.23T", "24.57", "0.44%").
	MarketCap      string `json:"market_cap,omitempty"`
	TrailingPE     string `json:"trailing_pe,omitempty"`
	PriceSales     string `json:"price_sales,omitempty"`
	PriceBook      string `json:"price_book,omitempty"`
	EVToEBITDA     string `json:"ev_to_ebitda,omitempty"`
	DividendYield  string `json:"dividend_yield,omitempty"`
	ExDividendDate string `json:"ex_dividend_date,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// HasPrice reports whether the chart endpoint produced a usable price.
func (s *Snapshot) HasPrice() bool {
	return s != nil && s.Price > 0
}

// HasHistory reports whether enough candles arrived to draw a chart.
func (s *Snapshot) HasHistory() bool {
	return s != nil && len(s.History) >= 2
}

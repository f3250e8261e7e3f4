package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
)

// figure is one label/value row lifted from the statistics tables, in page
// order. Page order matters: lookups take the first match so duplicate
// labels lower on the page cannot shadow the headline figures.
type figure struct {
	label string
	value string
}

// fetchKeyStatistics scrapes the quote key-statistics page and fills the
// display fields of the snapshot. Values stay exactly as the page shows
// them ("13.66B", "0.44%") because the report prints them verbatim.
func (c *Client) fetchKeyStatistics(ctx context.Context, ticker common.Ticker, snapshot *models.Snapshot) error {
	url := fmt.Sprintf("%s/quote/%s/key-statistics/", c.baseURL, ticker.QuoteSymbol())

	body, err := c.get(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("failed to parse statistics page: %w", err)
	}

	figures := extractFigures(doc)
	if len(figures) == 0 {
		return fmt.Errorf("no statistics rows found on %s", url)
	}

	if name := companyName(doc); name != "" {
		snapshot.Name = name
	}

	snapshot.MarketCap = figureFor(figures, "market cap")
	snapshot.TrailingPE = figureFor(figures, "trailing p/e")
	snapshot.PriceSales = figureFor(figures, "price/sales")
	snapshot.PriceBook = figureFor(figures, "price/book")
	snapshot.EVToEBITDA = figureFor(figures, "enterprise value/ebitda")
	snapshot.DividendYield = figureFor(figures, "forward annual dividend yield")
	snapshot.ExDividendDate = figureFor(figures, "ex-dividend date")

	if v, ok := parseFigure(figureFor(figures, "52 week high")); ok {
		snapshot.Week52High = v
	}
	if v, ok := parseFigure(figureFor(figures, "52 week low")); ok {
		snapshot.Week52Low = v
	}

	return nil
}

// extractFigures walks every table row on the page and collects rows that
// look like a label followed by a value. The page renders each statistic as
// a two-cell row with the current-period value in the second cell.
func extractFigures(doc *goquery.Document) []figure {
	var figures []figure

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}

		label := normalizeLabel(cells.First().Text())
		if label == "" {
			return
		}

		value := strings.TrimSpace(cells.Eq(1).Text())
		if value == "" || strings.EqualFold(value, "N/A") {
			return
		}

		figures = append(figures, figure{label: label, value: value})
	})

	return figures
}

// figureFor returns the first value whose label starts with the given
// prefix. Labels on the page carry period qualifiers and footnote markers
// ("Price/Book (mrq)", "52 Week High 3") that prefix matching ignores.
func figureFor(figures []figure, prefix string) string {
	for _, f := range figures {
		if strings.HasPrefix(f.label, prefix) {
			return f.value
		}
	}
	return ""
}

// normalizeLabel lowercases a label cell and strips trailing footnote
// digits so "Ex-Dividend Date 4" matches "ex-dividend date".
func normalizeLabel(text string) string {
	label := strings.ToLower(strings.TrimSpace(text))
	label = strings.TrimRight(label, " 0123456789")
	return strings.TrimSpace(label)
}

// companyName pulls the display name from the page heading, which renders
// as "Company Name (SYMBOL)".
func companyName(doc *goquery.Document) string {
	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		return ""
	}
	if idx := strings.LastIndex(name, " ("); idx > 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// parseFigure converts a scraped display value to a float. Thousands
// separators are dropped; anything non-numeric ("N/A", dates) fails.
func parseFigure(value string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

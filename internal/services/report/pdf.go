package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
	"github.com/ternarybob/prospectus/internal/services/market"
)

const (
	pageContentWidth = 190.0 // A4 width minus the 10mm margins

	narrativePlaceholder = "Commentary unavailable for this run."
)

// pdfBuilder lays out the one-page report. Auto page break stays off: the
// report contract is a single page and the layout budgets keep content
// inside it.
type pdfBuilder struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	logger    arbor.ILogger
}

func newPDFBuilder(logger arbor.ILogger) *pdfBuilder {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	return &pdfBuilder{
		pdf: pdf,
		// Core fonts are cp1252; map scraped and generated text onto it.
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		logger:    logger,
	}
}

// build composes all report sections and returns the PDF bytes.
func (b *pdfBuilder) build(report *models.Report, chartPNG []byte) ([]byte, error) {
	b.header(report)
	b.figuresStrip(report.Snapshot)
	b.verdictTable(report.Rows)
	b.chartPanel(chartPNG)
	b.narrativeBlock(report)
	b.footer(report)

	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *pdfBuilder) header(report *models.Report) {
	title := report.StockID
	if s := report.Snapshot; s != nil && s.Name != "" {
		title = s.Name
	}

	b.pdf.SetFont("Arial", "B", 16)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.CellFormat(125, 9, b.translate(title), "", 0, "L", false, 0, "")

	// Live price block on the right, colored by the daily move.
	if s := report.Snapshot; s.HasPrice() {
		if s.ChangePct >= 0 {
			b.pdf.SetTextColor(0, 128, 0)
		} else {
			b.pdf.SetTextColor(178, 34, 34)
		}
		b.pdf.SetFont("Arial", "B", 14)
		price := fmt.Sprintf("%.2f %s", s.Price, s.Currency)
		b.pdf.CellFormat(65, 9, price, "", 1, "R", false, 0, "")

		b.pdf.SetFont("Arial", "", 9)
		b.pdf.CellFormat(125, 5, b.subtitle(report), "", 0, "L", false, 0, "")
		b.pdf.CellFormat(65, 5, fmt.Sprintf("%+.2f%% on prev close", s.ChangePct), "", 1, "R", false, 0, "")
	} else {
		b.pdf.Ln(9)
		b.pdf.SetFont("Arial", "", 9)
		b.pdf.CellFormat(0, 5, b.subtitle(report), "", 1, "L", false, 0, "")
	}

	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.Ln(2)
	b.pdf.SetDrawColor(180, 180, 180)
	b.pdf.Line(10, b.pdf.GetY(), 200, b.pdf.GetY())
	b.pdf.Ln(2)
}

func (b *pdfBuilder) subtitle(report *models.Report) string {
	return fmt.Sprintf("%s  |  generated %s", report.StockID, report.GeneratedAt.Format("2 Jan 2006"))
}

// headerFigure is one label/value pair in the supplementary figures strip.
type headerFigure struct {
	label string
	value string
}

// buildFigures assembles the strip content. Every slot renders; absent
// values show as n/a so a degraded report keeps its shape.
func buildFigures(s *models.Snapshot) []headerFigure {
	display := func(v string) string {
		if v == "" {
			return "n/a"
		}
		return v
	}
	number := func(v float64) string {
		if v <= 0 || math.IsNaN(v) {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", v)
	}

	if s == nil {
		s = &models.Snapshot{}
	}

	week52 := "n/a"
	if s.Week52Low > 0 && s.Week52High > 0 {
		week52 = fmt.Sprintf("%.2f - %.2f", s.Week52Low, s.Week52High)
	}

	sma50, sma200 := "n/a", "n/a"
	if s.HasHistory() {
		closes := market.Closes(s.History)
		sma50 = number(market.SMA(closes, 50))
		sma200 = number(market.SMA(closes, 200))
	}

	return []headerFigure{
		{"Market cap", display(s.MarketCap)},
		{"Trailing P/E", display(s.TrailingPE)},
		{"Price/Sales", display(s.PriceSales)},
		{"Price/Book", display(s.PriceBook)},
		{"EV/EBITDA", display(s.EVToEBITDA)},
		{"Dividend yield", display(s.DividendYield)},
		{"Ex-dividend", display(s.ExDividendDate)},
		{"52-wk range", week52},
		{"SMA 50", sma50},
		{"SMA 200", sma200},
	}
}

func (b *pdfBuilder) figuresStrip(s *models.Snapshot) {
	figures := buildFigures(s)

	const perRow = 5
	cellWidth := pageContentWidth / perRow

	for start := 0; start < len(figures); start += perRow {
		end := start + perRow
		if end > len(figures) {
			end = len(figures)
		}

		b.pdf.SetFont("Arial", "", 6.5)
		b.pdf.SetTextColor(120, 120, 120)
		for _, f := range figures[start:end] {
			b.pdf.CellFormat(cellWidth, 3.5, f.label, "", 0, "L", false, 0, "")
		}
		b.pdf.Ln(3.5)

		b.pdf.SetFont("Arial", "B", 9)
		b.pdf.SetTextColor(0, 0, 0)
		for _, f := range figures[start:end] {
			b.pdf.CellFormat(cellWidth, 5, b.translate(f.value), "", 0, "L", false, 0, "")
		}
		b.pdf.Ln(6.5)
	}

	b.pdf.Ln(1)
}

func (b *pdfBuilder) verdictTable(rows []models.Verdict) {
	b.sectionTitle("Peer comparison")

	if len(rows) == 0 {
		b.pdf.SetFont("Arial", "I", 9)
		b.pdf.SetTextColor(105, 105, 105)
		b.pdf.CellFormat(0, 6, "No metric data recorded for this stock.", "", 1, "L", false, 0, "")
		b.pdf.SetTextColor(0, 0, 0)
		b.pdf.Ln(2)
		return
	}

	widths := []float64{70, 40, 40, 40}
	headers := []string{"Metric", "Value", "Peer mean", "Standing"}

	b.pdf.SetFont("Arial", "B", 8.5)
	b.pdf.SetFillColor(230, 230, 230)
	b.pdf.SetDrawColor(180, 180, 180)
	for i, h := range headers {
		b.pdf.CellFormat(widths[i], 6, h, "1", 0, "L", true, 0, "")
	}
	b.pdf.Ln(6)

	b.pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		red, green, blue := ratingColor(row.Rating)

		b.pdf.SetTextColor(0, 0, 0)
		b.pdf.CellFormat(widths[0], 6, b.translate(row.Metric), "1", 0, "L", false, 0, "")

		b.pdf.SetTextColor(red, green, blue)
		b.pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.2f", row.StockValue), "1", 0, "R", false, 0, "")

		b.pdf.SetTextColor(0, 0, 0)
		b.pdf.CellFormat(widths[2], 6, formatPeerMean(row), "1", 0, "R", false, 0, "")

		b.pdf.SetTextColor(red, green, blue)
		b.pdf.CellFormat(widths[3], 6, ratingLabel(row.Rating), "1", 0, "L", false, 0, "")
		b.pdf.Ln(6)
	}

	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.Ln(3)
}

func (b *pdfBuilder) chartPanel(chartPNG []byte) {
	if len(chartPNG) == 0 {
		b.pdf.SetFont("Arial", "I", 9)
		b.pdf.SetTextColor(105, 105, 105)
		b.pdf.CellFormat(0, 6, "Price history unavailable.", "", 1, "L", false, 0, "")
		b.pdf.SetTextColor(0, 0, 0)
		b.pdf.Ln(2)
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	b.pdf.RegisterImageOptionsReader("price-chart", opts, bytes.NewReader(chartPNG))

	// The chart is rendered at a fixed aspect ratio, so the placed height
	// follows from the content width.
	height := pageContentWidth * float64(chartHeightPx) / float64(chartWidthPx)
	b.pdf.ImageOptions("price-chart", 10, b.pdf.GetY(), pageContentWidth, 0, false, opts, 0, "")
	b.pdf.SetY(b.pdf.GetY() + height + 3)
}

func (b *pdfBuilder) narrativeBlock(report *models.Report) {
	b.sectionTitle("Analyst commentary")

	if report.NarrativePlaceholder {
		b.pdf.SetFont("Arial", "I", 9)
		b.pdf.SetTextColor(105, 105, 105)
		b.pdf.CellFormat(0, 6, b.translate(report.Narrative), "", 1, "L", false, 0, "")
		b.pdf.SetTextColor(0, 0, 0)
		return
	}

	source := []byte(report.Narrative)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	renderer := &narrativeRenderer{
		pdf:       b.pdf,
		translate: b.translate,
		source:    source,
		font:      "Arial",
		size:      9,
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		// Fall back to the raw text rather than losing the commentary.
		if b.logger != nil {
			b.logger.Warn().Err(err).Msg("Markdown walk failed, rendering narrative as plain text")
		}
		b.pdf.SetFont("Arial", "", 9)
		b.pdf.MultiCell(0, 4.5, b.translate(report.Narrative), "", "L", false)
	}
}

func (b *pdfBuilder) footer(report *models.Report) {
	b.pdf.SetY(-16)
	b.pdf.SetDrawColor(180, 180, 180)
	b.pdf.Line(10, b.pdf.GetY(), 200, b.pdf.GetY())

	b.pdf.SetFont("Arial", "", 7)
	b.pdf.SetTextColor(120, 120, 120)
	left := fmt.Sprintf("prospectus %s", common.GetVersion())
	right := fmt.Sprintf("%s  |  %s", report.RunID, report.GeneratedAt.Format(time.RFC3339))
	b.pdf.CellFormat(60, 6, left, "", 0, "L", false, 0, "")
	b.pdf.CellFormat(130, 6, right, "", 1, "R", false, 0, "")
	b.pdf.SetTextColor(0, 0, 0)
}

func (b *pdfBuilder) sectionTitle(title string) {
	b.pdf.SetFont("Arial", "B", 11)
	b.pdf.SetTextColor(0, 0, 0)
	b.pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	b.pdf.Ln(1)
}

func ratingColor(rating models.Rating) (int, int, int) {
	switch rating {
	case models.RatingFavorable:
		return 0, 128, 0
	case models.RatingUnfavorable:
		return 178, 34, 34
	default:
		return 105, 105, 105
	}
}

func ratingLabel(rating models.Rating) string {
	switch rating {
	case models.RatingFavorable:
		return "Favorable"
	case models.RatingUnfavorable:
		return "Unfavorable"
	default:
		return "Undetermined"
	}
}

// formatPeerMean prints the peer average with its group size, or n/a when
// no peers were recorded.
func formatPeerMean(row models.Verdict) string {
	if row.PeerCount == 0 || math.IsNaN(row.PeerMean) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f  (n=%d)", row.PeerMean, row.PeerCount)
}

// narrativeRenderer walks the commentary markdown AST and writes it into
// the PDF. The narrative prompt requests plain markdown, so headings,
// paragraphs, emphasis and lists cover what the model produces.
type narrativeRenderer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	source    []byte
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (r *narrativeRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *narrativeRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(6)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(4.5, r.translate(string(n.Text(r.source))))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindList:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(5)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(4.5)
			indent := float64(r.listLevel) * 4.0
			r.pdf.SetX(10 + indent)
			r.pdf.Write(4.5, "- ")
		}
	}
	return ast.WalkContinue, nil
}

func (r *narrativeRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(3)
		size := 10.0
		if n.Level <= 2 {
			size = 10.5
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(5.5)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

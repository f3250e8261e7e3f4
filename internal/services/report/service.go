// Package report composes and renders the one-page comparison report. The
// pipeline rates metrics against peer groups, gathers commentary and market
// data concurrently, and lays the result out as a single PDF page.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/interfaces"
	"github.com/ternarybob/prospectus/internal/models"
	"github.com/ternarybob/prospectus/internal/services/compare"
)

// Service runs the report pipeline for one stock per invocation.
type Service struct {
	config    *common.Config
	logger    arbor.ILogger
	narrative interfaces.NarrativeGenerator
	market    interfaces.MarketDataFetcher
}

// NewService creates the report service. Narrative and market failures are
// absorbed as degraded content; only load and render failures abort a run.
func NewService(config *common.Config, narrative interfaces.NarrativeGenerator, market interfaces.MarketDataFetcher, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		config:    config,
		logger:    logger,
		narrative: narrative,
		market:    market,
	}
}

// Generate produces the report for stockID from the loaded metric source and
// writes it to the configured output location. It returns the output path.
func (s *Service) Generate(ctx context.Context, source interfaces.MetricSource, stockID string) (string, error) {
	started := time.Now()

	report := &models.Report{
		StockID:     stockID,
		RunID:       common.NewRunID(),
		GeneratedAt: started,
	}

	comparator := compare.New(s.config.Compare.HigherIsBetter)
	report.Rows = comparator.RateAll(source, stockID)

	s.logger.Info().
		Str("stock", stockID).
		Str("run_id", report.RunID).
		Int("metrics", len(report.Rows)).
		Msg("Rated metrics against peer groups")

	// The two network calls are independent; run both at once and join
	// before rendering. Each goroutine writes only its own result slot.
	var (
		wg            sync.WaitGroup
		narrativeText string
		narrativeErr  error
		snapshot      *models.Snapshot
		marketErr     error
	)

	common.SafeGo(&wg, s.logger, "narrative", func() {
		narrativeText, narrativeErr = s.narrative.Generate(ctx, stockID, report.Rows)
	})
	common.SafeGo(&wg, s.logger, "market-data", func() {
		snapshot, marketErr = s.market.Fetch(ctx, stockID)
	})
	wg.Wait()

	// A goroutine that panicked leaves both slots zero, which lands in the
	// same degraded paths as an explicit error.
	switch {
	case narrativeErr != nil:
		s.logger.Warn().
			Err(narrativeErr).
			Str("stock", stockID).
			Msg("Narrative unavailable, using placeholder (continuing)")
		report.Narrative = narrativePlaceholder
		report.NarrativePlaceholder = true
	case strings.TrimSpace(narrativeText) == "":
		report.Narrative = narrativePlaceholder
		report.NarrativePlaceholder = true
	default:
		report.Narrative = narrativeText
	}

	if marketErr != nil {
		s.logger.Warn().
			Err(marketErr).
			Str("stock", stockID).
			Msg("Market snapshot unavailable, figures will show n/a (continuing)")
	} else {
		report.Snapshot = snapshot
	}

	var chartPNG []byte
	if report.Snapshot.HasHistory() {
		png, err := renderPriceChart(report.Snapshot)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Price chart render failed, omitting panel (continuing)")
		} else {
			chartPNG = png
		}
	}

	outputPath := s.outputPath(stockID, started)

	data, err := newPDFBuilder(s.logger).build(report, chartPNG)
	if err != nil {
		return "", &RenderError{Path: outputPath, Err: err}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", &RenderError{Path: outputPath, Err: err}
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", &RenderError{Path: outputPath, Err: err}
	}

	s.verifyOutput(outputPath)

	s.logger.Info().
		Str("stock", stockID).
		Str("path", outputPath).
		Int("size_bytes", len(data)).
		Bool("degraded", report.NarrativePlaceholder || report.Snapshot == nil).
		Str("elapsed", time.Since(started).Round(time.Millisecond).String()).
		Msg("Report written")

	return outputPath, nil
}

// outputPath resolves the destination file: an explicit override from
// config or the -output flag, else <output_dir>/<STOCKID>-<date>.pdf.
func (s *Service) outputPath(stockID string, ts time.Time) string {
	if s.config.Report.OutputFile != "" {
		return s.config.Report.OutputFile
	}
	name := fmt.Sprintf("%s-%s.pdf", sanitizeFileStem(stockID), ts.Format("2006-01-02"))
	return filepath.Join(s.config.Report.OutputDir, name)
}

// sanitizeFileStem keeps identifiers filesystem-safe: "ASX:MIN" -> "ASX-MIN".
func sanitizeFileStem(stockID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(stockID) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// verifyOutput re-reads the written file and checks the page count against
// the one-page contract. Verification problems are logged, never fatal: the
// file is already on disk.
func (s *Service) verifyOutput(path string) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Post-write PDF verification failed")
		return
	}

	if pdfCtx.PageCount != 1 {
		s.logger.Warn().
			Int("pages", pdfCtx.PageCount).
			Str("path", path).
			Msg("Report exceeded one page")
		return
	}

	s.logger.Debug().Str("path", path).Msg("Verified single-page output")
}

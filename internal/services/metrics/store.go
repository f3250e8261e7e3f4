// Package metrics loads the primary and peer spreadsheets and serves
// metric lookups for the comparison stage.
package metrics

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/models"
)

// Store holds the loaded metric data in memory. Lookups are
// case-insensitive on stock identifiers and metric names; returned records
// keep the spreadsheet's original casing.
//
// The primary file is wide: one row per stock, the identifier column plus
// one column per metric. The peer file is long: one row per peer value,
// keyed by the TARGET stock's identifier with "metric" and "value" columns.
type Store struct {
	logger           arbor.ILogger
	identifierColumn string

	records map[string][]models.MetricRecord // lower(stock id) -> records in column order
	peers   map[string]map[string][]float64  // lower(stock id) -> lower(metric) -> values in row order
	stocks  []string                         // primary-file row order, original casing
}

// NewStore creates an empty store. The identifier column defaults to
// "stock" when blank.
func NewStore(logger arbor.ILogger, identifierColumn string) *Store {
	if logger == nil {
		logger = common.GetLogger()
	}
	if identifierColumn == "" {
		identifierColumn = "stock"
	}

	return &Store{
		logger:           logger,
		identifierColumn: identifierColumn,
		records:          make(map[string][]models.MetricRecord),
		peers:            make(map[string]map[string][]float64),
	}
}

// Load reads the primary dataset and the peer dataset. Both files must
// parse; any failure is reported as a *LoadError.
func (s *Store) Load(primaryPath, peerPath string) error {
	if err := s.loadPrimary(primaryPath); err != nil {
		return newLoadError(primaryPath, err)
	}
	if err := s.loadPeers(peerPath); err != nil {
		return newLoadError(peerPath, err)
	}

	s.logger.Info().
		Int("stocks", len(s.stocks)).
		Str("primary", primaryPath).
		Str("peers", peerPath).
		Msg("Metric data loaded")

	return nil
}

func (s *Store) loadPrimary(path string) error {
	rows, err := readTable(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("file has no rows")
	}

	header := rows[0]
	idCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), s.identifierColumn) {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return fmt.Errorf("identifier column %q not found in header", s.identifierColumn)
	}

	for rowNum, row := range rows[1:] {
		if idCol >= len(row) {
			continue
		}
		stockID := strings.TrimSpace(row[idCol])
		if stockID == "" {
			continue
		}

		key := strings.ToLower(stockID)
		if _, exists := s.records[key]; exists {
			// Last row wins on duplicate identifiers
			s.logger.Warn().
				Str("stock", stockID).
				Int("row", rowNum+2).
				Msg("Duplicate stock row replaces earlier values")
			s.records[key] = nil
		} else {
			s.stocks = append(s.stocks, stockID)
			s.records[key] = nil
		}

		for col, name := range header {
			if col == idCol {
				continue
			}
			metric := strings.TrimSpace(name)
			if metric == "" {
				continue
			}

			cell := ""
			if col < len(row) {
				cell = row[col]
			}

			value, ok := parseNumeric(cell)
			if !ok {
				// Blank cells just mean the metric is absent for this stock
				if strings.TrimSpace(cell) != "" {
					s.logger.Warn().
						Str("stock", stockID).
						Str("metric", metric).
						Str("cell", cell).
						Msg("Skipping non-numeric metric cell")
				}
				continue
			}

			s.records[key] = append(s.records[key], models.MetricRecord{
				StockID: stockID,
				Name:    metric,
				Value:   value,
			})
		}
	}

	return nil
}

func (s *Store) loadPeers(path string) error {
	rows, err := readTable(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("file has no rows")
	}

	header := rows[0]
	idCol, metricCol, valueCol := -1, -1, -1
	for i, name := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(name), s.identifierColumn):
			idCol = i
		case strings.EqualFold(strings.TrimSpace(name), "metric"):
			metricCol = i
		case strings.EqualFold(strings.TrimSpace(name), "value"):
			valueCol = i
		}
	}
	if idCol < 0 || metricCol < 0 || valueCol < 0 {
		return fmt.Errorf("peer file header must contain %q, \"metric\" and \"value\" columns", s.identifierColumn)
	}

	maxCol := idCol
	if metricCol > maxCol {
		maxCol = metricCol
	}
	if valueCol > maxCol {
		maxCol = valueCol
	}

	for _, row := range rows[1:] {
		if maxCol >= len(row) {
			continue
		}

		stockID := strings.TrimSpace(row[idCol])
		metric := strings.TrimSpace(row[metricCol])
		if stockID == "" || metric == "" {
			continue
		}

		value, ok := parseNumeric(row[valueCol])
		if !ok {
			if strings.TrimSpace(row[valueCol]) != "" {
				s.logger.Warn().
					Str("stock", stockID).
					Str("metric", metric).
					Str("cell", row[valueCol]).
					Msg("Skipping non-numeric peer value")
			}
			continue
		}

		key := strings.ToLower(stockID)
		metricKey := strings.ToLower(metric)
		if s.peers[key] == nil {
			s.peers[key] = make(map[string][]float64)
		}
		s.peers[key][metricKey] = append(s.peers[key][metricKey], value)
	}

	return nil
}

// MetricsFor returns the stock's metric records in spreadsheet column order.
func (s *Store) MetricsFor(stockID string) []models.MetricRecord {
	return s.records[strings.ToLower(strings.TrimSpace(stockID))]
}

// PeerValuesFor returns the peer values recorded for the stock and metric,
// in peer-file row order.
func (s *Store) PeerValuesFor(stockID, metric string) []float64 {
	byMetric := s.peers[strings.ToLower(strings.TrimSpace(stockID))]
	if byMetric == nil {
		return nil
	}
	return byMetric[strings.ToLower(strings.TrimSpace(metric))]
}

// Stocks returns every stock in the primary dataset, in file order.
func (s *Store) Stocks() []string {
	return s.stocks
}

// HasStock reports whether the primary dataset contains the stock.
func (s *Store) HasStock(stockID string) bool {
	_, ok := s.records[strings.ToLower(strings.TrimSpace(stockID))]
	return ok
}

package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readTable reads a spreadsheet into rows of cells. The format is chosen by
// file extension: .xlsx workbooks (first sheet only) or .csv files.
func readTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheet)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // rows may be ragged
	return reader.ReadAll()
}

// parseNumeric converts a spreadsheet cell to a float. Thousands separators
// and percent signs are stripped; placeholder cells ("N/A", "-", "--")
// report no value.
func parseNumeric(cell string) (float64, bool) {
	cleaned := strings.TrimSpace(cell)
	if cleaned == "" {
		return 0, false
	}

	switch strings.ToUpper(cleaned) {
	case "N/A", "NA", "-", "--":
		return 0, false
	}

	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

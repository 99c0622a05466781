package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoData        = errors.New("spreadsheet has no data rows")
	ErrMissingColumn = errors.New("spreadsheet is missing a required column")
)

// NormalizeHeader maps "Candidate ID" and "candidate-id" to "candidate_id".
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// ReadRows reads the first sheet of an xlsx file. The first row is the
// header; every following row becomes a map keyed by normalized header.
// Cells are trimmed and missing trailing cells are left out of the map.
func ReadRows(r io.Reader, required ...string) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = NormalizeHeader(h)
		seen[header[i]] = true
	}
	for _, col := range required {
		if !seen[col] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		item := make(map[string]string, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				item[header[i]] = v
			}
		}
		out = append(out, item)
	}
	return out, nil
}

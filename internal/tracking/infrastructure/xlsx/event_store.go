package xlsx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	tracking "fastrack/internal/tracking/domain"
)

// EventStore reads the traceability sheets from a workbook on disk.
// The file is reopened on every load so edits show up without a restart.
type EventStore struct {
	path string
}

// NewEventStore constructs a workbook-backed store.
func NewEventStore(path string) (*EventStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("xlsx event store: empty path")
	}
	return &EventStore{path: path}, nil
}

// Load reads one sheet. The first row is the header; shorter rows are padded.
// Cells are read unformatted. Date and time cells stored as spreadsheet
// serials come out in the canonical layouts of the domain normalizer.
func (s *EventStore) Load(ctx context.Context, sheet string) (tracking.Table, error) {
	if err := ctx.Err(); err != nil {
		return tracking.Table{}, wrap(err)
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	defer f.Close()

	name := findSheet(f.GetSheetList(), sheet)
	if name == "" {
		return tracking.Table{}, wrap(fmt.Errorf("sheet %q not found", sheet))
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	table := tracking.Table{Name: strings.ToUpper(strings.TrimSpace(sheet))}
	if len(rows) == 0 {
		return table, nil
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return tracking.Table{}, wrap(err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	table.Header = rows[0]
	width := len(table.Header)
	temporal := temporalColumns(table.Header)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		for col, layout := range temporal {
			if col >= width || strings.TrimSpace(padded[col]) == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return tracking.Table{}, wrap(err)
			}
			cellType, err := f.GetCellType(name, cell)
			if err != nil {
				return tracking.Table{}, wrap(err)
			}
			if value, ok := formatTemporal(padded[col], cellType, date1904, layout); ok {
				padded[col] = value
			}
		}
		table.Rows = append(table.Rows, padded)
	}
	return table, nil
}

// temporalColumns maps the FECHA and HORA column indexes to their output layout.
func temporalColumns(header []string) map[int]string {
	out := make(map[int]string, 2)
	for i, name := range header {
		switch tracking.NormalizeHeader(name) {
		case tracking.ColDate:
			out[i] = tracking.CanonicalDateLayout
		case tracking.ColTime:
			out[i] = tracking.CanonicalTimeLayout
		}
	}
	return out
}

// formatTemporal renders a numeric serial or an ISO 8601 date cell in layout.
// Text cells are left for the normalizer.
func formatTemporal(raw string, cellType excelize.CellType, date1904 bool, layout string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", false
		}
		value, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return "", false
		}
		return value.Format(layout), true
	case excelize.CellTypeDate:
		for _, iso := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
			if value, err := time.Parse(iso, raw); err == nil {
				return value.Format(layout), true
			}
		}
	}
	return "", false
}

func findSheet(names []string, sheet string) string {
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(sheet)) {
			return name
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func wrap(err error) error {
	return fmt.Errorf("xlsx event store: %w: %w", tracking.ErrStoreUnavailable, err)
}

package tracking

import (
	"fmt"
	"strings"
)

// Sheet names of the traceability log.
const (
	SheetProcess = "PROCESO"
	SheetDetail  = "DETALLE"
)

// Column names after header normalization.
const (
	ColEventID     = "IDPROC"
	ColDate        = "FECHA"
	ColTime        = "HORA"
	ColKind        = "PROCESO"
	ColCustomer    = "CLIENTE"
	ColLocation    = "UBICACION"
	ColSerial      = "SERIE"
	ColServiceType = "SERVICIO"
)

var (
	processColumns = []string{ColEventID, ColDate, ColTime, ColKind, ColCustomer, ColLocation}
	detailColumns  = []string{ColEventID, ColSerial, ColServiceType}
)

// Table is a raw sheet as read from the event store. Every cell is text.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NormalizeHeader returns the canonical form of a column name.
func NormalizeHeader(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Normalize returns a copy of the table with canonical header names.
// Rows are shared with the receiver and never modified.
func (t Table) Normalize() Table {
	header := make([]string, len(t.Header))
	for i, name := range t.Header {
		header[i] = NormalizeHeader(name)
	}
	return Table{Name: t.Name, Header: header, Rows: t.Rows}
}

// Index returns the position of a column, or -1 when absent.
// The first matching column wins when headers repeat.
func (t Table) Index(column string) int {
	column = NormalizeHeader(column)
	for i, name := range t.Header {
		if NormalizeHeader(name) == column {
			return i
		}
	}
	return -1
}

// Require reports every column that is absent from the table.
func (t Table) Require(columns ...string) error {
	var missing []string
	for _, column := range columns {
		if t.Index(column) < 0 {
			missing = append(missing, column)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Sheet: t.Name, Columns: missing}
}

// Cell returns the trimmed value at row i, column idx. Short rows read as empty.
func (t Table) Cell(i, idx int) string {
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MissingColumnsError names the columns a sheet is lacking.
type MissingColumnsError struct {
	Sheet   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("tracking: sheet %s missing columns %s", e.Sheet, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumn }

package application

import (
	"strings"
	"time"

	"github.com/google/uuid"

	tracking "fastrack/internal/tracking/domain"
)

// Mode identifies one of the report query shapes.
type Mode string

const (
	ModeMovements Mode = "movements"
	ModeCustomer  Mode = "customer"
	ModeOverdue   Mode = "overdue"
	ModeLocation  Mode = "location"
	ModeRange     Mode = "range"
)

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeMovements:
		return ModeMovements, true
	case ModeCustomer:
		return ModeCustomer, true
	case ModeOverdue:
		return ModeOverdue, true
	case ModeLocation:
		return ModeLocation, true
	case ModeRange:
		return ModeRange, true
	default:
		return "", false
	}
}

var modeColumns = map[Mode][]string{
	ModeMovements: {tracking.ColDate, tracking.ColTime, tracking.ColEventID, tracking.ColKind, tracking.ColCustomer, tracking.ColLocation, tracking.ColSerial, tracking.ColServiceType},
	ModeCustomer:  {tracking.ColSerial, tracking.ColEventID, tracking.ColDate, tracking.ColTime, tracking.ColKind, tracking.ColServiceType},
	ModeOverdue:   {tracking.ColSerial, tracking.ColEventID, tracking.ColDate, tracking.ColKind, tracking.ColCustomer, tracking.ColServiceType},
	ModeLocation:  {tracking.ColSerial, tracking.ColEventID, tracking.ColDate, tracking.ColKind, tracking.ColCustomer, tracking.ColServiceType, tracking.ColLocation},
	ModeRange:     {tracking.ColDate, tracking.ColEventID, tracking.ColKind, tracking.ColCustomer, tracking.ColLocation, tracking.ColSerial, tracking.ColServiceType},
}

// Columns returns the column subset rendered for a mode.
func Columns(mode Mode) []string {
	cols := modeColumns[mode]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// Report is the rendered result of one query.
// An empty Rows slice comes with a Warning; it is not an error.
type Report struct {
	ID          string     `json:"id"`
	Mode        Mode       `json:"mode"`
	Title       string     `json:"title"`
	FileBase    string     `json:"file_base"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Warning     string     `json:"warning,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Empty reports whether the query matched nothing.
func (r *Report) Empty() bool { return r == nil || len(r.Rows) == 0 }

// FileName returns the download name for the given extension.
func (r *Report) FileName(ext string) string {
	base := "reporte"
	if r != nil && r.FileBase != "" {
		base = sanitizeFileName(r.FileBase)
	}
	return base + "." + strings.TrimPrefix(ext, ".")
}

func newReport(mode Mode, title, fileBase, warning string, movements []tracking.Movement, now time.Time) *Report {
	cols := Columns(mode)
	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		row := make([]string, len(cols))
		for i, col := range cols {
			row[i] = m.Field(col)
		}
		rows = append(rows, row)
	}
	report := &Report{
		ID:          uuid.NewString(),
		Mode:        mode,
		Title:       title,
		FileBase:    fileBase,
		Columns:     cols,
		Rows:        rows,
		GeneratedAt: now.UTC(),
	}
	if len(rows) == 0 {
		report.Warning = warning
	}
	return report
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

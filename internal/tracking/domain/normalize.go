package tracking

import (
	"strings"
	"time"
)

// Default layouts accepted for FECHA and HORA. Dates are day-first.
var (
	DefaultDateLayouts = []string{"02/01/2006", "2/1/2006", "02-01-2006", CanonicalDateLayout, time.RFC3339Nano}
	DefaultTimeLayouts = []string{CanonicalTimeLayout, "15:04", "3:04:05 PM", "3:04 PM"}
)

// Canonical layouts are what storage adapters emit for typed date and time
// cells. Every normalizer accepts them.
const (
	CanonicalDateLayout = "2006-01-02"
	CanonicalTimeLayout = "15:04:05"
)

// NormalizeSerial returns the canonical text form of a cylinder serial:
// thousands separators and whitespace removed, spreadsheet float suffix dropped.
func NormalizeSerial(raw string) string {
	return NormalizeKey(strings.ReplaceAll(raw, ",", ""))
}

// NormalizeKey returns the canonical text form of an identifier cell.
func NormalizeKey(raw string) string {
	value := strings.Join(strings.Fields(raw), "")
	if strings.HasSuffix(value, ".0") && isDigits(strings.TrimSuffix(value, ".0")) {
		value = strings.TrimSuffix(value, ".0")
	}
	return value
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Timestamp is the parsed FECHA/HORA pair of an event.
// Date is the event day at midnight; At adds the time of day.
// Either is zero when it could not be parsed.
type Timestamp struct {
	Date time.Time
	At   time.Time
}

// Valid reports whether the timestamp can be ordered.
func (t Timestamp) Valid() bool { return !t.At.IsZero() }

// HasDate reports whether the event day is known.
func (t Timestamp) HasDate() bool { return !t.Date.IsZero() }

// After orders valid timestamps before invalid ones.
func (t Timestamp) After(other Timestamp) bool {
	if !t.Valid() {
		return false
	}
	if !other.Valid() {
		return true
	}
	return t.At.After(other.At)
}

// Normalizer parses raw date and time cells.
type Normalizer struct {
	DateLayouts []string
	TimeLayouts []string
	Location    *time.Location
}

// NewNormalizer builds a normalizer; empty arguments fall back to defaults.
func NewNormalizer(dateLayouts, timeLayouts []string, loc *time.Location) Normalizer {
	if len(dateLayouts) == 0 {
		dateLayouts = DefaultDateLayouts
	}
	if len(timeLayouts) == 0 {
		timeLayouts = DefaultTimeLayouts
	}
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{
		DateLayouts: withLayout(dateLayouts, CanonicalDateLayout),
		TimeLayouts: withLayout(timeLayouts, CanonicalTimeLayout),
		Location:    loc,
	}
}

func withLayout(layouts []string, layout string) []string {
	for _, existing := range layouts {
		if existing == layout {
			return layouts
		}
	}
	out := make([]string, 0, len(layouts)+1)
	out = append(out, layouts...)
	return append(out, layout)
}

// Timestamp combines a date and a time cell. A blank time means midnight.
func (n Normalizer) Timestamp(rawDate, rawTime string) Timestamp {
	day, ok := n.parseDate(rawDate)
	if !ok {
		return Timestamp{}
	}
	ts := Timestamp{Date: day}
	clock, ok := n.parseTime(rawTime)
	if !ok {
		return ts
	}
	ts.At = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location())
	return ts
}

// Date parses a date cell into midnight of that day.
func (n Normalizer) Date(raw string) (time.Time, bool) {
	return n.parseDate(raw)
}

func (n Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

func (n Normalizer) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := n.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	loc := n.location()
	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		// calendar day as written, whatever offset the cell carries
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

func (n Normalizer) parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	layouts := n.TimeLayouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return parsed, true
	}
	return time.Time{}, false
}

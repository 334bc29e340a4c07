package application

import (
	"fmt"
	"time"

	tracking "fastrack/internal/tracking/domain"
)

// DateLayout is the calendar-day format of range bounds.
const DateLayout = "2006-01-02"

// DefaultRangeDays is how far back a range query reaches when "from" is omitted.
const DefaultRangeDays = 7

// ResolveRange parses the bounds of a range query in loc, filling missing ones:
// "to" defaults to today and "from" to rangeDays before "to".
func ResolveRange(now time.Time, loc *time.Location, rangeDays int, from, to string) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if rangeDays <= 0 {
		rangeDays = DefaultRangeDays
	}
	now = now.In(loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if to != "" {
		parsed, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q is not YYYY-MM-DD", tracking.ErrInvalidRange, to)
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -rangeDays)
	if from != "" {
		parsed, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q is not YYYY-MM-DD", tracking.ErrInvalidRange, from)
		}
		start = parsed
	}
	return start, end, nil
}

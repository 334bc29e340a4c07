package tracking

import (
	"context"
	"time"
)

// EventStore reads a sheet of the traceability log.
// Implementations return the sheet fresh on every call and wrap
// read failures with ErrStoreUnavailable.
type EventStore interface {
	Load(ctx context.Context, sheet string) (Table, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

package tracking

import "errors"

var (
	// ErrStoreUnavailable is returned when the event store cannot be read.
	ErrStoreUnavailable = errors.New("tracking: store unavailable")
	// ErrMissingColumn is returned when a source sheet lacks a required column.
	ErrMissingColumn = errors.New("tracking: missing column")
	// ErrEmptySerial is returned when a cylinder serial is empty after normalization.
	ErrEmptySerial = errors.New("tracking: empty serial")
	// ErrEmptyCustomer is returned when a customer filter is empty.
	ErrEmptyCustomer = errors.New("tracking: empty customer")
	// ErrEmptyLocation is returned when a location filter is empty.
	ErrEmptyLocation = errors.New("tracking: empty location")
	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("tracking: invalid date range")
	// ErrInvalidPolicy is returned when a report policy cannot classify movements.
	ErrInvalidPolicy = errors.New("tracking: invalid policy")
)

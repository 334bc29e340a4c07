package application

import (
	"errors"
	"testing"
	"time"

	tracking "fastrack/internal/tracking/domain"
)

func TestResolveRangeDefaults(t *testing.T) {
	loc := time.FixedZone("CLT", -3*60*60)
	// 01:30 UTC is still the previous day at -03:00
	now := time.Date(2024, 1, 6, 1, 30, 0, 0, time.UTC)

	start, end, err := ResolveRange(now, loc, 7, "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !end.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, loc)) {
		t.Fatalf("expected to=2024-01-05 local, got %s", end)
	}
	if !start.Equal(time.Date(2023, 12, 29, 0, 0, 0, 0, loc)) {
		t.Fatalf("expected from=2023-12-29, got %s", start)
	}

	start, _, err = ResolveRange(now, nil, 0, "", "2024-02-10")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if start.Format(DateLayout) != "2024-02-03" {
		t.Fatalf("expected default range days, got %s", start)
	}
}

func TestResolveRangeExplicitBounds(t *testing.T) {
	start, end, err := ResolveRange(time.Now(), time.UTC, 7, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if start.Format(DateLayout) != "2024-01-01" || end.Format(DateLayout) != "2024-01-31" {
		t.Fatalf("unexpected bounds %s %s", start, end)
	}
	if _, _, err := ResolveRange(time.Now(), time.UTC, 7, "01/01/2024", ""); !errors.Is(err, tracking.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for bad from, got %v", err)
	}
	if _, _, err := ResolveRange(time.Now(), time.UTC, 7, "", "tomorrow"); !errors.Is(err, tracking.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for bad to, got %v", err)
	}
}

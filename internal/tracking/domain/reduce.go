package tracking

import (
	"sort"
	"strings"
	"time"
)

// DefaultOverdueAfter is how long a delivered cylinder may stay out.
const DefaultOverdueAfter = 30 * 24 * time.Hour

// Policy classifies movement kinds for the state reducer.
type Policy struct {
	DeliveryKinds []Kind
	ReturnKinds   []Kind
	OverdueAfter  time.Duration
}

// DefaultPolicy returns the classification used by the traceability log.
func DefaultPolicy() Policy {
	return Policy{
		DeliveryKinds: []Kind{KindDispatch, KindDelivery},
		ReturnKinds:   []Kind{KindPickup, KindReception},
		OverdueAfter:  DefaultOverdueAfter,
	}
}

// Validate checks the policy can classify movements.
func (p Policy) Validate() error {
	if len(p.DeliveryKinds) == 0 || len(p.ReturnKinds) == 0 {
		return ErrInvalidPolicy
	}
	if p.OverdueAfter <= 0 {
		return ErrInvalidPolicy
	}
	for _, kind := range p.DeliveryKinds {
		if p.IsReturn(kind) {
			return ErrInvalidPolicy
		}
	}
	return nil
}

// IsDelivery reports whether the kind leaves a cylinder at a customer.
func (p Policy) IsDelivery(kind Kind) bool { return containsKind(p.DeliveryKinds, kind) }

// IsReturn reports whether the kind brings a cylinder back.
func (p Policy) IsReturn(kind Kind) bool { return containsKind(p.ReturnKinds, kind) }

func containsKind(kinds []Kind, kind Kind) bool {
	for _, k := range kinds {
		if NormalizeKind(string(k)) == kind {
			return true
		}
	}
	return false
}

// newerFirst orders valid timestamps descending, then later source rows first.
// Invalid timestamps go last.
func newerFirst(a, b Movement) bool {
	ta, tb := a.Event.Timestamp, b.Event.Timestamp
	switch {
	case ta.Valid() && !tb.Valid():
		return true
	case !ta.Valid() && tb.Valid():
		return false
	case ta.Valid() && !ta.At.Equal(tb.At):
		return ta.At.After(tb.At)
	}
	return a.Detail.Seq > b.Detail.Seq
}

// olderFirst orders valid timestamps ascending, then earlier source rows first.
// Invalid timestamps go last.
func olderFirst(a, b Movement) bool {
	ta, tb := a.Event.Timestamp, b.Event.Timestamp
	switch {
	case ta.Valid() && !tb.Valid():
		return true
	case !ta.Valid() && tb.Valid():
		return false
	case ta.Valid() && !ta.At.Equal(tb.At):
		return ta.At.Before(tb.At)
	}
	return a.Detail.Seq < b.Detail.Seq
}

// ForSerial returns every movement of one cylinder in chronological order.
func ForSerial(movements []Movement, serial string) []Movement {
	serial = NormalizeSerial(serial)
	var out []Movement
	for _, m := range movements {
		if m.Detail.Serial == serial {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return olderFirst(out[i], out[j]) })
	return out
}

// LatestBySerial keeps the most recent movement of each cylinder.
// The result is ordered newest first. Rows without a serial are skipped.
func LatestBySerial(movements []Movement) []Movement {
	return latestWhere(movements, func(Movement) bool { return true })
}

func latestWhere(movements []Movement, keep func(Movement) bool) []Movement {
	sorted := make([]Movement, 0, len(movements))
	for _, m := range movements {
		if m.Detail.Serial == "" || !keep(m) {
			continue
		}
		sorted = append(sorted, m)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return newerFirst(sorted[i], sorted[j]) })

	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	for _, m := range sorted {
		if _, ok := seen[m.Detail.Serial]; ok {
			continue
		}
		seen[m.Detail.Serial] = struct{}{}
		out = append(out, m)
	}
	return out
}

// AtCustomer filters a latest-per-serial view to cylinders delivered to customer.
func AtCustomer(latest []Movement, customer string, policy Policy) []Movement {
	customer = strings.TrimSpace(customer)
	var out []Movement
	for _, m := range latest {
		if !m.HasEvent || !policy.IsDelivery(m.Event.Kind) {
			continue
		}
		if strings.EqualFold(m.Event.Customer, customer) {
			out = append(out, m)
		}
	}
	return out
}

// AtLocation filters a latest-per-serial view to cylinders whose last event was at location.
// It does not reduce per location: pass LatestBySerial over every movement.
func AtLocation(latest []Movement, location string) []Movement {
	location = strings.TrimSpace(location)
	var out []Movement
	for _, m := range latest {
		if m.HasEvent && strings.EqualFold(m.Event.Location, location) {
			out = append(out, m)
		}
	}
	return out
}

// Overdue returns the latest delivery of every cylinder delivered before
// now minus policy.OverdueAfter that has no return strictly after it.
func Overdue(movements []Movement, now time.Time, policy Policy) []Movement {
	deliveries := latestWhere(movements, func(m Movement) bool {
		return m.HasEvent && policy.IsDelivery(m.Event.Kind)
	})
	returns := latestWhere(movements, func(m Movement) bool {
		return m.HasEvent && policy.IsReturn(m.Event.Kind)
	})

	cutoff := now.Add(-policy.OverdueAfter)
	delivered := make(map[string]Movement, len(deliveries))
	for _, d := range deliveries {
		if d.Event.Timestamp.Valid() && d.Event.Timestamp.At.Before(cutoff) {
			delivered[d.Detail.Serial] = d
		}
	}
	returned := make(map[string]struct{}, len(returns))
	for _, r := range returns {
		d, ok := delivered[r.Detail.Serial]
		if ok && r.Event.Timestamp.After(d.Event.Timestamp) {
			returned[r.Detail.Serial] = struct{}{}
		}
	}

	var out []Movement
	for _, d := range deliveries {
		if _, ok := delivered[d.Detail.Serial]; !ok {
			continue
		}
		if _, ok := returned[d.Detail.Serial]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// EventsInRange returns events dated within [start, end], both ends inclusive.
// Only the calendar day is compared; events without a date are excluded.
func EventsInRange(events []ProcessEvent, start, end time.Time) ([]ProcessEvent, error) {
	from, to := dayKey(start), dayKey(end)
	if from > to {
		return nil, ErrInvalidRange
	}
	var out []ProcessEvent
	for _, evt := range events {
		if !evt.Timestamp.HasDate() {
			continue
		}
		day := dayKey(evt.Timestamp.Date)
		if day >= from && day <= to {
			out = append(out, evt)
		}
	}
	return out, nil
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Customers lists distinct non-empty customers in first-seen order.
func Customers(events []ProcessEvent) []string {
	return distinct(events, func(evt ProcessEvent) string { return evt.Customer })
}

// Locations lists distinct non-empty locations in first-seen order.
func Locations(events []ProcessEvent) []string {
	return distinct(events, func(evt ProcessEvent) string { return evt.Location })
}

func distinct(events []ProcessEvent, field func(ProcessEvent) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, evt := range events {
		value := strings.TrimSpace(field(evt))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

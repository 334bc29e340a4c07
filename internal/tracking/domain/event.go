package tracking

import "strings"

// Kind is the movement type logged in PROCESO.
type Kind string

const (
	KindDispatch  Kind = "DESPACHO"
	KindDelivery  Kind = "ENTREGA"
	KindPickup    Kind = "RETIRO"
	KindReception Kind = "RECEPCION"
)

// NormalizeKind trims and upcases a raw kind cell.
func NormalizeKind(raw string) Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(raw)))
}

// ProcessEvent is one row of the process sheet.
type ProcessEvent struct {
	EventID   string
	RawDate   string
	RawTime   string
	Timestamp Timestamp
	Kind      Kind
	Customer  string
	Location  string
	Seq       int
}

// MovementDetail is one cylinder line of an event.
type MovementDetail struct {
	EventID     string
	Serial      string
	ServiceType string
	Seq         int
}

// Movement is a detail row joined with its parent event.
// HasEvent is false when the parent is absent from the process sheet;
// the event fields are then empty and the timestamp is invalid.
type Movement struct {
	Event    ProcessEvent
	Detail   MovementDetail
	HasEvent bool
}

// Serial returns the cylinder serial of the movement.
func (m Movement) Serial() string { return m.Detail.Serial }

// EventID returns the event id, taken from the detail when the parent is missing.
func (m Movement) EventID() string {
	if m.HasEvent {
		return m.Event.EventID
	}
	return m.Detail.EventID
}

// Field renders a column of the movement as text.
func (m Movement) Field(column string) string {
	switch NormalizeHeader(column) {
	case ColEventID:
		return m.EventID()
	case ColDate:
		if m.Event.Timestamp.HasDate() {
			return m.Event.Timestamp.Date.Format("2006-01-02")
		}
		return m.Event.RawDate
	case ColTime:
		return m.Event.RawTime
	case ColKind:
		return string(m.Event.Kind)
	case ColCustomer:
		return m.Event.Customer
	case ColLocation:
		return m.Event.Location
	case ColSerial:
		return m.Detail.Serial
	case ColServiceType:
		return m.Detail.ServiceType
	default:
		return ""
	}
}

// ParseProcessEvents builds events from a normalized process sheet.
// Rows are never dropped; unparseable dates only invalidate the timestamp.
func ParseProcessEvents(t Table, n Normalizer) ([]ProcessEvent, error) {
	t = t.Normalize()
	if t.Name == "" {
		t.Name = SheetProcess
	}
	if err := t.Require(processColumns...); err != nil {
		return nil, err
	}
	var (
		idIdx       = t.Index(ColEventID)
		dateIdx     = t.Index(ColDate)
		timeIdx     = t.Index(ColTime)
		kindIdx     = t.Index(ColKind)
		customerIdx = t.Index(ColCustomer)
		locationIdx = t.Index(ColLocation)
	)
	events := make([]ProcessEvent, 0, len(t.Rows))
	for i := range t.Rows {
		rawDate := t.Cell(i, dateIdx)
		rawTime := t.Cell(i, timeIdx)
		events = append(events, ProcessEvent{
			EventID:   NormalizeKey(t.Cell(i, idIdx)),
			RawDate:   rawDate,
			RawTime:   rawTime,
			Timestamp: n.Timestamp(rawDate, rawTime),
			Kind:      NormalizeKind(t.Cell(i, kindIdx)),
			Customer:  t.Cell(i, customerIdx),
			Location:  t.Cell(i, locationIdx),
			Seq:       i,
		})
	}
	return events, nil
}

// ParseMovementDetails builds detail lines from a normalized detail sheet.
// Columns duplicated from the process sheet are ignored.
func ParseMovementDetails(t Table) ([]MovementDetail, error) {
	t = t.Normalize()
	if t.Name == "" {
		t.Name = SheetDetail
	}
	if err := t.Require(detailColumns...); err != nil {
		return nil, err
	}
	var (
		idIdx      = t.Index(ColEventID)
		serialIdx  = t.Index(ColSerial)
		serviceIdx = t.Index(ColServiceType)
	)
	details := make([]MovementDetail, 0, len(t.Rows))
	for i := range t.Rows {
		details = append(details, MovementDetail{
			EventID:     NormalizeKey(t.Cell(i, idIdx)),
			Serial:      NormalizeSerial(t.Cell(i, serialIdx)),
			ServiceType: t.Cell(i, serviceIdx),
			Seq:         i,
		})
	}
	return details, nil
}

package tracking

func indexEvents(events []ProcessEvent) map[string]ProcessEvent {
	byID := make(map[string]ProcessEvent, len(events))
	for _, evt := range events {
		if _, seen := byID[evt.EventID]; seen {
			continue
		}
		byID[evt.EventID] = evt
	}
	return byID
}

// Join left-joins detail lines to their parent events.
// Every detail appears exactly once, in source order.
func Join(events []ProcessEvent, details []MovementDetail) []Movement {
	byID := indexEvents(events)
	movements := make([]Movement, 0, len(details))
	for _, detail := range details {
		evt, ok := byID[detail.EventID]
		movements = append(movements, Movement{Event: evt, Detail: detail, HasEvent: ok})
	}
	return movements
}

// JoinEvents left-joins events to their detail lines, one row per line.
// An event without lines yields a single row with empty detail fields.
func JoinEvents(events []ProcessEvent, details []MovementDetail) []Movement {
	byEvent := make(map[string][]MovementDetail, len(events))
	for _, detail := range details {
		byEvent[detail.EventID] = append(byEvent[detail.EventID], detail)
	}
	movements := make([]Movement, 0, len(events))
	for _, evt := range events {
		lines := byEvent[evt.EventID]
		if len(lines) == 0 {
			movements = append(movements, Movement{
				Event:    evt,
				Detail:   MovementDetail{EventID: evt.EventID, Seq: -1},
				HasEvent: true,
			})
			continue
		}
		for _, detail := range lines {
			movements = append(movements, Movement{Event: evt, Detail: detail, HasEvent: true})
		}
	}
	return movements
}

package notifier

import (
	"iter"

	"MoveSentinel/internal/model"
)

// FirstN pulls at most n events from seq and stops. An error from the
// sequence is returned together with the events pulled before it.
func FirstN(seq iter.Seq2[model.ChangeEvent, error], n int) ([]model.ChangeEvent, error) {
	if n <= 0 {
		return nil, nil
	}
	events := make([]model.ChangeEvent, 0, min(n, 64))
	for ev, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
		if len(events) >= n {
			break
		}
	}
	return events, nil
}

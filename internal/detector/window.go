package detector

import "MoveSentinel/internal/model"

// pairWindow holds the two most recent records of a pass.
type pairWindow struct {
	previous, current       model.Record
	hasPrevious, hasCurrent bool
}

// push fills the first empty slot and reports whether both slots are now full.
func (w *pairWindow) push(r model.Record) bool {
	if !w.hasPrevious {
		w.previous, w.hasPrevious = r, true
		return false
	}
	w.current, w.hasCurrent = r, true
	return true
}

// slide moves current into previous and empties current.
func (w *pairWindow) slide() {
	w.previous = w.current
	w.current, w.hasCurrent = model.Record{}, false
}

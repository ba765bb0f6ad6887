package sequencer

// Loopable is an unordered collection of row-addressed events.
// Containers (Pattern, Phrase, Timeline) embed it and supply their own length.
//
// Insertion keeps the invariant that no two closed events on the same row
// overlap, including across the loop point.
type Loopable[P any] struct {
	events []Event[P]
}

// Events returns the events slice (do not retain across mutations)
func (l *Loopable[P]) Events() []Event[P] {
	return l.events
}

// Len returns the number of events
func (l *Loopable[P]) Len() int {
	return len(l.events)
}

// Clear removes all events, keeping the backing array
func (l *Loopable[P]) Clear() {
	l.events = l.events[:0]
}

// HasContent returns true if there is at least one closed event
func (l *Loopable[P]) HasContent() bool {
	for i := range l.events {
		if !l.events[i].Open {
			return true
		}
	}
	return false
}

// AddComplete inserts a closed event. Same-row events it fully contains are
// dropped, the rest are truncated or split around it.
func (l *Loopable[P]) AddComplete(ev Event[P], length uint32) {
	ev.Open = false

	kept := l.events[:0]
	for _, e := range l.events {
		if e.Row == ev.Row && !e.Open && ev.Contains(&e, length) {
			continue
		}
		kept = append(kept, e)
	}
	l.events = kept

	n := len(l.events)
	for i := 0; i < n; i++ {
		e := &l.events[i]
		if e.Row != ev.Row || e.Open {
			continue
		}
		if tail, split := e.ResizeToFit(&ev, length); split {
			l.events = append(l.events, tail)
		}
	}

	l.events = append(l.events, ev)
}

// AddOpen starts recording an event. Only one open event per row is allowed,
// so a previous open event on the row is closed at the new start.
func (l *Loopable[P]) AddOpen(ev Event[P], length uint32) {
	l.CloseOpen(ev.Row, ev.Start, length, nil)
	ev.Open = true
	l.events = append(l.events, ev)
}

// CloseOpen finds the most recent open event on row, closes it at stop and
// re-inserts it with conflict resolution. Returns false (and does nothing)
// when the row has no open event.
func (l *Loopable[P]) CloseOpen(row uint8, stop, length uint32, update func(*P)) bool {
	idx := -1
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Row == row && l.events[i].Open {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	ev := l.events[idx]
	l.events = append(l.events[:idx], l.events[idx+1:]...)

	ev.Stop = stop % length
	if ev.Stop == ev.Start {
		// a zero length recording would encode a full loop
		ev.Stop = (ev.Start + 1) % length
	}
	if update != nil {
		update(&ev.Value)
	}
	l.AddComplete(ev, length)
	return true
}

// HasOpen reports whether a row has an event being recorded
func (l *Loopable[P]) HasOpen(row uint8) bool {
	for i := range l.events {
		if l.events[i].Row == row && l.events[i].Open {
			return true
		}
	}
	return false
}

// RemoveStartingIn deletes closed events on row whose start lies in r.
// Returns the number of removed events.
func (l *Loopable[P]) RemoveStartingIn(row uint8, r TickRange) int {
	removed := 0
	kept := l.events[:0]
	for _, e := range l.events {
		if e.Row == row && !e.Open && r.Contains(e.Start) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	l.events = kept
	return removed
}

// StartsIn reports whether an event on row starts inside r
func (l *Loopable[P]) StartsIn(row uint8, r TickRange) bool {
	for i := range l.events {
		e := &l.events[i]
		if e.Row == row && r.Contains(e.Start) {
			return true
		}
	}
	return false
}

// furthestTick returns the highest container tick reached by a closed event
func (l *Loopable[P]) furthestTick() uint32 {
	var furthest uint32
	for i := range l.events {
		e := &l.events[i]
		end := e.Start + 1
		if !e.Open && e.Stop > e.Start {
			end = e.Stop
		}
		furthest = max(furthest, end)
	}
	return furthest
}

package sequencer

// Note is the payload of a pattern event. Row holds the MIDI key.
type Note struct {
	Velocity     uint8
	StopVelocity uint8
}

// Placement is the payload of pattern placements on a phrase and phrase
// placements on a timeline. Row holds the placed pattern/phrase index.
type Placement struct{}

// Event is one row-addressed item placed in a Loopable.
//
// Open events are still being recorded and have no meaningful Stop.
// A closed event with Stop <= Start wraps past the container end and
// resumes at tick 0.
type Event[P any] struct {
	Start uint32
	Stop  uint32
	Open  bool
	Row   uint8
	Value P
}

// NoteEvent is a note inside a pattern
type NoteEvent = Event[Note]

// PlacementEvent places a pattern in a phrase or a phrase on a timeline
type PlacementEvent = Event[Placement]

// NewEvent creates a closed event
func NewEvent[P any](start, stop uint32, row uint8, value P) Event[P] {
	return Event[P]{Start: start, Stop: stop, Row: row, Value: value}
}

// Range returns the event's tick range
func (e *Event[P]) Range() TickRange {
	return TickRange{Start: e.Start, Stop: e.Stop}
}

// IsLooping returns true if the closed event wraps around the container end
func (e *Event[P]) IsLooping() bool {
	return !e.Open && e.Stop <= e.Start
}

// Length returns the event length inside a container of the given length.
// Open events have no length yet.
func (e *Event[P]) Length(containerLength uint32) uint32 {
	if e.Open {
		return 0
	}
	return e.Range().Length(containerLength)
}

// ContainsTick reports whether the event covers a container-relative tick
func (e *Event[P]) ContainsTick(tick, containerLength uint32) bool {
	if e.Open {
		return false
	}
	if e.IsLooping() {
		return tick >= e.Start || tick < e.Stop
	}
	return tick >= e.Start && tick < e.Stop
}

// OverlapsTickRange reports whether the event shares a tick with a linear
// container-relative range. A looping event covers [Start, end) and [0, Stop).
func (e *Event[P]) OverlapsTickRange(r TickRange) bool {
	if e.Open || r.Empty() {
		return false
	}
	if e.IsLooping() {
		return r.Stop > e.Start || r.Start < e.Stop
	}
	return r.Start < e.Stop && e.Start < r.Stop
}

// Overlaps reports whether two closed events share a tick in a container
func (e *Event[P]) Overlaps(o *Event[P], containerLength uint32) bool {
	if e.Open || o.Open {
		return false
	}
	a, b, n := o.Range().segments(containerLength)
	if e.OverlapsTickRange(a) {
		return true
	}
	return n == 2 && e.OverlapsTickRange(b)
}

// Contains reports whether every tick of o lies inside e.
// A non-looping event only contains a looping one when it spans the whole container.
func (e *Event[P]) Contains(o *Event[P], containerLength uint32) bool {
	if e.Open || o.Open {
		return false
	}
	if e.Length(containerLength) >= containerLength {
		return true
	}
	a, b, n := o.Range().segments(containerLength)
	if !e.containsSegment(a, containerLength) {
		return false
	}
	return n == 1 || e.containsSegment(b, containerLength)
}

func (e *Event[P]) containsSegment(s TickRange, containerLength uint32) bool {
	a, b, n := e.Range().segments(containerLength)
	if s.Start >= a.Start && s.Stop <= a.Stop {
		return true
	}
	return n == 2 && s.Start >= b.Start && s.Stop <= b.Stop
}

// ResizeToFit shrinks e so that it no longer overlaps o.
// When o lies strictly inside e, e keeps the part before o and the part
// after o is returned as a second event.
func (e *Event[P]) ResizeToFit(o *Event[P], containerLength uint32) (Event[P], bool) {
	if !e.Overlaps(o, containerLength) {
		return Event[P]{}, false
	}

	last := (e.Stop + containerLength - 1) % containerLength
	startIn := o.ContainsTick(e.Start%containerLength, containerLength)
	endIn := o.ContainsTick(last, containerLength)

	switch {
	case startIn && endIn:
		// o wraps around e, only the gap between its end and start survives
		e.Start, e.Stop = o.Stop, o.Start
	case startIn:
		e.Start = o.Stop
	case endIn:
		e.Stop = o.Start
	default:
		tail := *e
		e.Stop = o.Start
		tail.Start = o.Stop
		return tail, true
	}
	return Event[P]{}, false
}

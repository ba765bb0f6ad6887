package surface

import (
	"apc-sequence/midi"
	"apc-sequence/sequencer"
)

// Timing windows in microseconds
const (
	DoublePressWindow = 300_000
	IndicatorDuration = 200_000
)

// Held is a button that is down, keyed by the channel offset of its device
type Held struct {
	Offset int
	Button midi.Button
	Time   uint64
}

const (
	maxHeld    = 32
	maxPresses = 32
)

// ButtonMemory remembers held buttons for chords and recent presses for
// double press detection. Its storage is fixed after construction.
type ButtonMemory struct {
	held    []Held
	presses []Held
}

// NewButtonMemory creates an empty memory
func NewButtonMemory() *ButtonMemory {
	return &ButtonMemory{
		held:    make([]Held, 0, maxHeld),
		presses: make([]Held, 0, maxPresses),
	}
}

// Press records a button going down
func (m *ButtonMemory) Press(offset int, b midi.Button, now uint64) {
	h := Held{Offset: offset, Button: b, Time: now}
	if len(m.held) == maxHeld {
		m.held = append(m.held[:0], m.held[1:]...)
	}
	m.held = append(m.held, h)

	if len(m.presses) == maxPresses {
		m.presses = append(m.presses[:0], m.presses[1:]...)
	}
	m.presses = append(m.presses, h)
}

// Release removes the most recent matching held button. Releasing a button
// that was never pressed is a no-op and returns false.
func (m *ButtonMemory) Release(offset int, b midi.Button) bool {
	for i := len(m.held) - 1; i >= 0; i-- {
		if m.held[i].Offset == offset && m.held[i].Button == b {
			m.held = append(m.held[:i], m.held[i+1:]...)
			return true
		}
	}
	return false
}

// IsHeld reports whether a button is down
func (m *ButtonMemory) IsHeld(offset int, b midi.Button) bool {
	for i := range m.held {
		if m.held[i].Offset == offset && m.held[i].Button == b {
			return true
		}
	}
	return false
}

// Modifier returns the most recent other held button of the same device.
// Holding A and pressing B makes A the modifier of B.
func (m *ButtonMemory) Modifier(offset int, b midi.Button) (Held, bool) {
	for i := len(m.held) - 1; i >= 0; i-- {
		h := m.held[i]
		if h.Offset == offset && h.Button != b {
			return h, true
		}
	}
	return Held{}, false
}

// GlobalModifier is Modifier across devices
func (m *ButtonMemory) GlobalModifier(offset int, b midi.Button) (Held, bool) {
	for i := len(m.held) - 1; i >= 0; i-- {
		h := m.held[i]
		if h.Offset != offset || h.Button != b {
			return h, true
		}
	}
	return Held{}, false
}

// IsDoublePress reports whether the same button was pressed within
// DoublePressWindow before now. Call it before Press records the new press.
// Presses older than the window are forgotten first.
func (m *ButtonMemory) IsDoublePress(offset int, b midi.Button, now uint64) bool {
	kept := m.presses[:0]
	for _, p := range m.presses {
		if p.Time+DoublePressWindow >= now {
			kept = append(kept, p)
		}
	}
	m.presses = kept

	for i := len(m.presses) - 1; i >= 0; i-- {
		if m.presses[i].Offset == offset && m.presses[i].Button == b && m.presses[i].Time <= now {
			return true
		}
	}
	return false
}

// ForgetPresses clears press history so that a handled double press does not
// chain into a triple press
func (m *ButtonMemory) ForgetPresses(offset int, b midi.Button) {
	kept := m.presses[:0]
	for _, p := range m.presses {
		if p.Offset != offset || p.Button != b {
			kept = append(kept, p)
		}
	}
	m.presses = kept
}

// ReleaseDevice drops every held button of a device, e.g. when it disconnects
func (m *ButtonMemory) ReleaseDevice(offset int) {
	kept := m.held[:0]
	for _, h := range m.held {
		if h.Offset != offset {
			kept = append(kept, h)
		}
	}
	m.held = kept
}

// EventKind names something the user touched
type EventKind int

const (
	EventZoom EventKind = iota
	EventOffset
	EventLength
	EventBaseKey
	EventStop
	numEventKinds
)

// EventKey identifies an event source
type EventKey struct {
	Offset int
	Kind   EventKind
}

// EventMemory keeps the time of the last occurrence of each event kind per device
type EventMemory struct {
	last map[EventKey]uint64
}

// NewEventMemory creates an empty memory
func NewEventMemory() *EventMemory {
	return &EventMemory{last: make(map[EventKey]uint64, 2*int(numEventKinds))}
}

// Register records an occurrence at now (microseconds)
func (m *EventMemory) Register(key EventKey, now uint64) {
	m.last[key] = now
}

// LastOccurrence returns the latest time any of keys occurred
func (m *EventMemory) LastOccurrence(keys ...EventKey) (uint64, bool) {
	var latest uint64
	found := false
	for _, k := range keys {
		if t, ok := m.last[k]; ok && (!found || t > latest) {
			latest, found = t, true
		}
	}
	return latest, found
}

// OccurredSince reports whether any of keys occurred after since
func (m *EventMemory) OccurredSince(since uint64, keys ...EventKey) bool {
	t, ok := m.LastOccurrence(keys...)
	return ok && t > since
}

// Indicator tells whether an overlay is visible during a cycle and, if it
// ends inside the cycle, at which frame to hide it.
type Indicator struct {
	Show      bool
	Hides     bool
	HideFrame uint32
}

// TimedIndicator shows an overlay for duration after any of keys occurred
func (m *EventMemory) TimedIndicator(c *sequencer.Cycle, duration uint64, keys ...EventKey) Indicator {
	t, ok := m.LastOccurrence(keys...)
	if !ok {
		return Indicator{}
	}
	hideAt := t + duration
	if hideAt <= c.TimeStart {
		return Indicator{}
	}
	ind := Indicator{Show: true}
	if frame, ok := c.TimeToFrame(hideAt); ok {
		ind.Hides = true
		ind.HideFrame = frame
	}
	return ind
}

// Package surface holds what the control surface shows and remembers:
// the active view, per channel selections, zoom and scroll, plus the button
// and event memories used to interpret chords, double presses and overlays.
// It owns no musical data.
package surface

import (
	"apc-sequence/sequencer"
)

// View is what the grids show
type View int

const (
	ViewChannel View = iota
	ViewSequence
	ViewTimeline
)

func (v View) String() string {
	switch v {
	case ViewSequence:
		return "sequence"
	case ViewTimeline:
		return "timeline"
	}
	return "channel"
}

// Kind is the loopable a zoom/offset applies to
type Kind int

const (
	KindPattern Kind = iota
	KindPhrase
	KindTimeline
	numKinds
)

// Grid geometry shared by all supported devices
const (
	GridWidth  = 8
	GridHeight = 5
)

// DefaultBaseKey is the key of the bottom grid row in pattern view
const DefaultBaseKey = 60

// zoomLevels are ticks per grid column
var zoomLevels = [...]uint32{
	sequencer.TicksPerBeat / 8,
	sequencer.TicksPerBeat / 4,
	sequencer.TicksPerBeat / 2,
	sequencer.TicksPerBeat,
	sequencer.TicksPerBar / 2,
	sequencer.TicksPerBar,
	2 * sequencer.TicksPerBar,
	4 * sequencer.TicksPerBar,
}

var defaultZoom = [numKinds]int{
	KindPattern:  2, // 8 columns = 1 bar
	KindPhrase:   4, // 8 columns = 4 bars
	KindTimeline: 5,
}

type scroll struct {
	zoom   int
	offset uint32
}

// Surface is the shared view state of all connected controllers
type Surface struct {
	view          View
	focused       int
	shownSequence int
	shownPattern  [sequencer.NumChannels]int
	shownPhrase   [sequencer.NumChannels]int
	scroll        [numKinds][sequencer.NumChannels]scroll
	baseKey       [sequencer.NumChannels]uint8
	recording     bool

	Buttons *ButtonMemory
	Events  *EventMemory
}

// New creates a surface in channel view focused on channel 0
func New() *Surface {
	s := &Surface{
		Buttons: NewButtonMemory(),
		Events:  NewEventMemory(),
	}
	for k := range s.scroll {
		for ch := range s.scroll[k] {
			s.scroll[k][ch].zoom = defaultZoom[k]
		}
	}
	for ch := range s.baseKey {
		s.baseKey[ch] = DefaultBaseKey
	}
	return s
}

// View returns the active view
func (s *Surface) View() View { return s.view }

// SetView activates a view
func (s *Surface) SetView(v View) { s.view = v }

// Focused returns the focused channel
func (s *Surface) Focused() int { return s.focused }

// Focus selects the channel the channel view edits
func (s *Surface) Focus(ch int) {
	if ch >= 0 && ch < sequencer.NumChannels {
		s.focused = ch
	}
}

// ShownSequence returns the sequence the sequence view edits
func (s *Surface) ShownSequence() int { return s.shownSequence }

// ShowSequence selects the sequence the sequence view edits
func (s *Surface) ShowSequence(i int) {
	if i >= 0 && i < sequencer.NumSequences {
		s.shownSequence = i
	}
}

// ShownPattern returns the pattern shown for a channel
func (s *Surface) ShownPattern(ch int) int {
	if ch < 0 || ch >= sequencer.NumChannels {
		return 0
	}
	return s.shownPattern[ch]
}

// ShowPattern selects the pattern shown for a channel
func (s *Surface) ShowPattern(ch, pattern int) {
	if ch >= 0 && ch < sequencer.NumChannels && pattern >= 0 && pattern < sequencer.NumPatterns {
		s.shownPattern[ch] = pattern
	}
}

// ShownPhrase returns the phrase shown for a channel
func (s *Surface) ShownPhrase(ch int) int {
	if ch < 0 || ch >= sequencer.NumChannels {
		return 0
	}
	return s.shownPhrase[ch]
}

// ShowPhrase selects the phrase shown for a channel
func (s *Surface) ShowPhrase(ch, phrase int) {
	if ch >= 0 && ch < sequencer.NumChannels && phrase >= 0 && phrase < sequencer.NumPhrases {
		s.shownPhrase[ch] = phrase
	}
}

func (s *Surface) scrollOf(k Kind, ch int) *scroll {
	if k < 0 || k >= numKinds || ch < 0 || ch >= sequencer.NumChannels {
		return nil
	}
	return &s.scroll[k][ch]
}

// Zoom returns ticks per grid column
func (s *Surface) Zoom(k Kind, ch int) uint32 {
	if sc := s.scrollOf(k, ch); sc != nil {
		return zoomLevels[sc.zoom]
	}
	return zoomLevels[defaultZoom[KindPattern]]
}

// ChangeZoom moves steps zoom levels out (positive) or in (negative).
// The offset is aligned to the new column size.
func (s *Surface) ChangeZoom(k Kind, ch, steps int) {
	sc := s.scrollOf(k, ch)
	if sc == nil {
		return
	}
	sc.zoom = min(max(sc.zoom+steps, 0), len(zoomLevels)-1)
	z := zoomLevels[sc.zoom]
	sc.offset = sc.offset / z * z
}

// Offset returns the tick of the first grid column
func (s *Surface) Offset(k Kind, ch int) uint32 {
	if sc := s.scrollOf(k, ch); sc != nil {
		return sc.offset
	}
	return 0
}

// Scroll moves the view by whole columns, limited to [0, length)
func (s *Surface) Scroll(k Kind, ch, columns int, length uint32) {
	sc := s.scrollOf(k, ch)
	if sc == nil {
		return
	}
	z := int64(zoomLevels[sc.zoom])
	offset := int64(sc.offset) + int64(columns)*z
	last := max(int64(length)-z, 0) / z * z
	sc.offset = uint32(min(max(offset, 0), last))
}

// Column returns the tick range a grid column covers
func (s *Surface) Column(k Kind, ch, x int) sequencer.TickRange {
	z := s.Zoom(k, ch)
	start := s.Offset(k, ch) + uint32(x)*z
	return sequencer.TickRange{Start: start, Stop: start + z}
}

// ColumnAt returns the column showing tick, ok=false when it is off screen
func (s *Surface) ColumnAt(k Kind, ch int, tick uint32) (int, bool) {
	offset, z := s.Offset(k, ch), s.Zoom(k, ch)
	if tick < offset {
		return 0, false
	}
	x := int((tick - offset) / z)
	return x, x < GridWidth
}

// BaseKey returns the key of the bottom grid row of a channel's pattern
func (s *Surface) BaseKey(ch int) uint8 {
	if ch < 0 || ch >= sequencer.NumChannels {
		return DefaultBaseKey
	}
	return s.baseKey[ch]
}

// ShiftBaseKey transposes the pattern rows, keeping every row a valid key
func (s *Surface) ShiftBaseKey(ch, semitones int) {
	if ch < 0 || ch >= sequencer.NumChannels {
		return
	}
	key := min(max(int(s.baseKey[ch])+semitones, 0), 127-(GridHeight-1))
	s.baseKey[ch] = uint8(key)
}

// RowKey returns the key of grid row y (row 0 is the top)
func (s *Surface) RowKey(ch, y int) uint8 {
	return s.BaseKey(ch) + uint8(GridHeight-1-y)
}

// KeyRow returns the grid row of a key, ok=false when it is off screen
func (s *Surface) KeyRow(ch int, key uint8) (int, bool) {
	base := s.BaseKey(ch)
	if key < base || key > base+GridHeight-1 {
		return 0, false
	}
	return GridHeight - 1 - int(key-base), true
}

// Recording reports whether keyboard input is recorded
func (s *Surface) Recording() bool { return s.recording }

// ToggleRecording flips keyboard recording
func (s *Surface) ToggleRecording() { s.recording = !s.recording }

package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apc-sequence/midi"
	"apc-sequence/sequencer"
)

var (
	gridA = midi.Button{Kind: midi.ButtonGrid, X: 1, Y: 2}
	gridB = midi.Button{Kind: midi.ButtonGrid, X: 5, Y: 2}
	shift = midi.Button{Kind: midi.ButtonShift}
)

func TestDoublePress(t *testing.T) {
	m := NewButtonMemory()
	m.Press(0, gridA, 0)
	m.Release(0, gridA)

	assert.True(t, m.IsDoublePress(0, gridA, 250_000))
	assert.False(t, m.IsDoublePress(8, gridA, 250_000), "other device")
	assert.False(t, m.IsDoublePress(0, gridB, 250_000))
	assert.False(t, m.IsDoublePress(0, gridA, 350_000))
	assert.False(t, m.IsDoublePress(0, gridA, 250_000), "pruned presses stay forgotten")
}

func TestForgetPresses(t *testing.T) {
	m := NewButtonMemory()
	m.Press(0, gridA, 0)
	m.Press(0, gridA, 100_000)
	m.ForgetPresses(0, gridA)
	assert.False(t, m.IsDoublePress(0, gridA, 150_000))
}

func TestReleaseWithoutPress(t *testing.T) {
	m := NewButtonMemory()
	assert.False(t, m.Release(0, gridA))

	m.Press(0, gridA, 0)
	m.Press(0, gridA, 10)
	assert.True(t, m.Release(0, gridA))
	assert.True(t, m.IsHeld(0, gridA), "only the most recent press is released")
	assert.True(t, m.Release(0, gridA))
	assert.False(t, m.IsHeld(0, gridA))
}

func TestModifier(t *testing.T) {
	m := NewButtonMemory()
	m.Press(8, shift, 0)
	m.Press(0, gridA, 10)
	m.Press(0, gridB, 20)

	mod, ok := m.Modifier(0, gridB)
	require.True(t, ok)
	assert.Equal(t, gridA, mod.Button)

	_, ok = m.Modifier(8, shift)
	assert.False(t, ok, "nothing else held on that device")

	mod, ok = m.GlobalModifier(8, shift)
	require.True(t, ok)
	assert.Equal(t, gridB, mod.Button)

	m.ReleaseDevice(0)
	assert.False(t, m.IsHeld(0, gridA))
	assert.True(t, m.IsHeld(8, shift))
}

func TestEventMemory(t *testing.T) {
	m := NewEventMemory()
	zoom := EventKey{Offset: 0, Kind: EventZoom}
	offset := EventKey{Offset: 0, Kind: EventOffset}

	_, ok := m.LastOccurrence(zoom, offset)
	assert.False(t, ok)

	m.Register(zoom, 1000)
	m.Register(offset, 3000)
	last, ok := m.LastOccurrence(zoom, offset)
	require.True(t, ok)
	assert.Equal(t, uint64(3000), last)

	assert.True(t, m.OccurredSince(2000, zoom, offset))
	assert.False(t, m.OccurredSince(2000, zoom))
	assert.False(t, m.OccurredSince(0, EventKey{Offset: 8, Kind: EventZoom}))
}

func TestTimedIndicator(t *testing.T) {
	m := NewEventMemory()
	key := EventKey{Kind: EventLength}
	m.Register(key, 1_000_000)

	// 48 kHz, 480 frames = 10ms
	c := sequencer.Cycle{TimeStart: 1_100_000, TimeStop: 1_110_000, Frames: 480}
	assert.Equal(t, Indicator{Show: true}, m.TimedIndicator(&c, IndicatorDuration, key))

	c = sequencer.Cycle{TimeStart: 1_195_000, TimeStop: 1_205_000, Frames: 480}
	assert.Equal(t, Indicator{Show: true, Hides: true, HideFrame: 240}, m.TimedIndicator(&c, IndicatorDuration, key))

	c = sequencer.Cycle{TimeStart: 1_205_000, TimeStop: 1_215_000, Frames: 480}
	assert.Equal(t, Indicator{}, m.TimedIndicator(&c, IndicatorDuration, key))

	assert.Equal(t, Indicator{}, m.TimedIndicator(&c, IndicatorDuration, EventKey{Kind: EventZoom}))
}

func TestKnobSteps(t *testing.T) {
	var k Knobs

	assert.Equal(t, 1, DecodeRelative(0x01))
	assert.Equal(t, -1, DecodeRelative(0x7F))
	assert.Equal(t, -64, DecodeRelative(0x40))
	assert.Equal(t, 63, DecodeRelative(0x3F))

	assert.Equal(t, 1, k.Turn(3, 0x01, 0), "first turn steps at once")
	assert.Equal(t, 0, k.Turn(3, 0x03, 1000))
	assert.Equal(t, 3, k.Accumulated(3))

	assert.Equal(t, 1, k.Turn(3, 0x05, 2000), "threshold reached exactly")
	assert.Equal(t, 0, k.Accumulated(3))

	assert.Equal(t, 1, k.Turn(3, KnobStepThreshold+3, 3000))
	assert.Equal(t, 3, k.Accumulated(3), "remainder is kept")

	assert.Equal(t, 0, k.Turn(3, 0x7F, 4000), "a reversed turn takes from the remainder")
	assert.Equal(t, 2, k.Accumulated(3))

	assert.Equal(t, -1, k.Turn(3, 0x70, 4100), "2-16 crosses one step down")
	assert.Equal(t, -6, k.Accumulated(3))
	assert.Equal(t, 0, k.Turn(3, 0x05, 4200))
	assert.Equal(t, -1, k.Accumulated(3))

	assert.Equal(t, -1, k.Turn(3, 0x7E, 4200+KnobIdle), "idle knob steps at once")
	assert.Equal(t, 0, k.Turn(3, 0x00, 4200+KnobIdle+1))
	assert.Equal(t, 0, k.Turn(NumKnobs, 0x01, 0))
}

func TestSurfaceSelection(t *testing.T) {
	s := New()
	assert.Equal(t, ViewChannel, s.View())

	s.SetView(ViewTimeline)
	assert.Equal(t, ViewTimeline, s.View())

	s.Focus(9)
	assert.Equal(t, 9, s.Focused())
	s.Focus(sequencer.NumChannels)
	assert.Equal(t, 9, s.Focused())

	s.ShowPattern(9, 4)
	s.ShowPattern(9, 5)
	assert.Equal(t, 4, s.ShownPattern(9))

	s.ShowPhrase(2, 3)
	assert.Equal(t, 3, s.ShownPhrase(2))

	s.ShowSequence(2)
	s.ShowSequence(-1)
	assert.Equal(t, 2, s.ShownSequence())

	assert.False(t, s.Recording())
	s.ToggleRecording()
	assert.True(t, s.Recording())
}

func TestSurfaceScroll(t *testing.T) {
	s := New()
	zoom := s.Zoom(KindPattern, 0)
	assert.Equal(t, uint32(sequencer.TicksPerBeat/2), zoom)

	s.Scroll(KindPattern, 0, 3, 2*sequencer.TicksPerBar)
	assert.Equal(t, 3*zoom, s.Offset(KindPattern, 0))
	assert.Equal(t, sequencer.TickRange{Start: 4 * zoom, Stop: 5 * zoom}, s.Column(KindPattern, 0, 1))

	x, ok := s.ColumnAt(KindPattern, 0, 5*zoom+1)
	assert.True(t, ok)
	assert.Equal(t, 2, x)
	_, ok = s.ColumnAt(KindPattern, 0, 0)
	assert.False(t, ok)

	s.Scroll(KindPattern, 0, -10, 2*sequencer.TicksPerBar)
	assert.Equal(t, uint32(0), s.Offset(KindPattern, 0))

	s.Scroll(KindPattern, 0, 100, 2*sequencer.TicksPerBar)
	assert.Equal(t, 2*sequencer.TicksPerBar-zoom, s.Offset(KindPattern, 0))

	s.ChangeZoom(KindPattern, 0, 1)
	assert.Equal(t, uint32(sequencer.TicksPerBeat), s.Zoom(KindPattern, 0))
	assert.Equal(t, uint32(0), s.Offset(KindPattern, 0)%sequencer.TicksPerBeat)

	s.ChangeZoom(KindPattern, 0, -100)
	assert.Equal(t, uint32(sequencer.TicksPerBeat/8), s.Zoom(KindPattern, 0))
	assert.Equal(t, uint32(sequencer.TicksPerBeat/2), s.Zoom(KindPattern, 1), "zoom is per channel")
}

func TestBaseKey(t *testing.T) {
	s := New()
	assert.Equal(t, uint8(DefaultBaseKey+4), s.RowKey(0, 0))
	assert.Equal(t, uint8(DefaultBaseKey), s.RowKey(0, 4))

	y, ok := s.KeyRow(0, DefaultBaseKey+1)
	assert.True(t, ok)
	assert.Equal(t, 3, y)
	_, ok = s.KeyRow(0, DefaultBaseKey+5)
	assert.False(t, ok)

	s.ShiftBaseKey(0, 200)
	assert.Equal(t, uint8(127), s.RowKey(0, 0))
	s.ShiftBaseKey(0, -300)
	assert.Equal(t, uint8(0), s.BaseKey(0))
}

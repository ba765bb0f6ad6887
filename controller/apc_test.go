package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apc-sequence/midi"
	"apc-sequence/sequencer"
	"apc-sequence/surface"
)

type fakeTransport struct {
	rolling bool
	plays   int
	stops   int
	rewinds int
}

func (t *fakeTransport) Play()         { t.plays++; t.rolling = true }
func (t *fakeTransport) Stop()         { t.stops++; t.rolling = false }
func (t *fakeTransport) Rewind()       { t.rewinds++ }
func (t *fakeTransport) Rolling() bool { return t.rolling }

func identityReply(device, local uint8) midi.Input {
	return midi.Input{Msg: midi.NewMessage(0xF0, 0x7E, 0x00, 0x06, 0x02, midi.ManufacturerAkai, device,
		0x00, 0x19, 0x00, 0x00, 0x01, 0x00, local, 0x00, 0xF7)}
}

// stopped is a cycle at 48 kHz with the transport stopped
func stopped(now uint64) *sequencer.Cycle {
	return &sequencer.Cycle{TimeStart: now, TimeStop: now + 10_000, Frames: 480, FrameRate: 48000}
}

func identify(t *testing.T, a *APC) {
	t.Helper()
	a.HandleInputs([]midi.Input{identityReply(a.cfg.DeviceID, 1)})
	for range midi.IdentifyCycles {
		a.Render(stopped(0), nil)
	}
	require.Equal(t, midi.HandshakeReady, a.State())
}

func newTestAPC(t *testing.T, cfg midi.DeviceConfig) (*APC, *sequencer.Sequencer, *surface.Surface, *fakeTransport) {
	seq := sequencer.New()
	surf := surface.New()
	tr := &fakeTransport{}
	a := NewAPC("test", 1, cfg, seq, surf, tr)
	identify(t, a)
	return a, seq, surf, tr
}

func press(a *APC, b midi.Button, now uint64) {
	a.Handle(midi.InputEvent{Type: midi.InputPressed, Button: b, Velocity: 127}, now)
}

func release(a *APC, b midi.Button) {
	a.Handle(midi.InputEvent{Type: midi.InputReleased, Button: b}, 0)
}

func tap(a *APC, b midi.Button, now uint64) {
	press(a, b, now)
	release(a, b)
}

func grid(x, y uint8) midi.Button {
	return midi.Button{Kind: midi.ButtonGrid, X: x, Y: y}
}

func TestIdentificationBeforeInput(t *testing.T) {
	seq := sequencer.New()
	a := NewAPC("test", 3, midi.APC40Config(), seq, surface.New(), &fakeTransport{})

	out := a.Render(stopped(0), nil)
	require.Len(t, out, 1)
	assert.Equal(t, midi.Timed{Port: 3, Msg: midi.InquiryMsg()}, out[0])

	a.HandleInputs([]midi.Input{{Msg: midi.NoteOnMsg(0, midi.NoteGrid, 127)}})
	assert.False(t, seq.Channel(0).Patterns[0].HasContent(), "input is ignored until identified")

	a.HandleInputs([]midi.Input{identityReply(midi.DeviceAPC20, 1)})
	assert.Equal(t, midi.HandshakeAwaiting, a.State(), "reply of another model")

	a.HandleInputs([]midi.Input{identityReply(midi.DeviceAPC40, 4)})
	assert.Equal(t, midi.HandshakeIdentifying, a.State())

	for range midi.IdentifyCycles {
		out = a.Render(stopped(0), nil)
		require.Len(t, out, 1)
		assert.Equal(t, midi.IntroductionMsg(4, midi.DeviceAPC40, midi.ModePartialHostLEDs), out[0].Msg)
	}
	assert.Equal(t, midi.HandshakeReady, a.State())

	out = a.Render(stopped(0), nil)
	assert.Greater(t, len(out), 40, "first frame repaints every LED")
	for _, m := range out {
		assert.Equal(t, 3, m.Port)
	}
	assert.Empty(t, a.Render(stopped(0), nil), "nothing changed")

	a.Reset()
	out = a.Render(stopped(0), nil)
	require.Len(t, out, 1)
	assert.Equal(t, midi.InquiryMsg(), out[0].Msg)
}

func TestGridTogglesNotes(t *testing.T) {
	a, seq, surf, _ := newTestAPC(t, midi.APC40Config())
	p := &seq.Channel(0).Patterns[0]
	zoom := surf.Zoom(surface.KindPattern, 0)

	// bottom row is the base key
	tap(a, grid(0, 4), 0)
	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint8(surface.DefaultBaseKey), events[0].Row)
	assert.Equal(t, uint32(0), events[0].Start)
	assert.Equal(t, zoom, events[0].Stop)

	a.Render(stopped(0), nil)
	assert.Equal(t, midi.LEDYellow, a.grid.Sent(0, 4))

	tap(a, grid(0, 4), 1_000_000)
	assert.False(t, p.HasContent())

	a.Render(stopped(0), nil)
	assert.Equal(t, midi.LEDOff, a.grid.Sent(0, 4))
}

func TestGridChordPlacesLongNote(t *testing.T) {
	a, seq, surf, _ := newTestAPC(t, midi.APC40Config())
	zoom := surf.Zoom(surface.KindPattern, 0)

	press(a, grid(1, 0), 0)
	press(a, grid(3, 0), 10)
	release(a, grid(3, 0))
	release(a, grid(1, 0))

	events := seq.Channel(0).Patterns[0].Events()
	require.Len(t, events, 1, "the long note replaces the one placed by the held cell")
	assert.Equal(t, zoom, events[0].Start)
	assert.Equal(t, 4*zoom, events[0].Stop)

	a.Render(stopped(0), nil)
	assert.Equal(t, midi.LEDYellow, a.grid.Sent(1, 0))
	assert.Equal(t, midi.LEDGreen, a.grid.Sent(2, 0))
	assert.Equal(t, midi.LEDGreen, a.grid.Sent(3, 0))
	assert.Equal(t, midi.LEDOff, a.grid.Sent(4, 0))
}

func TestSequenceView(t *testing.T) {
	a, seq, surf, _ := newTestAPC(t, midi.APC40Config())
	master := midi.Button{Kind: midi.ButtonMaster}
	side := midi.Button{Kind: midi.ButtonSide, Y: 2}

	tap(a, master, 0)
	require.Equal(t, surface.ViewSequence, surf.View())

	tap(a, side, 1_000_000)
	assert.Equal(t, 2, surf.ShownSequence())
	_, queued := seq.Queued()
	assert.False(t, queued)

	tap(a, side, 1_100_000)
	q, queued := seq.Queued()
	require.True(t, queued)
	assert.Equal(t, 2, q)

	tap(a, grid(3, 1), 2_000_000)
	phrase, ok := seq.Sequence(2).Phrase(3)
	require.True(t, ok)
	assert.Equal(t, 1, phrase)

	a.Render(stopped(0), nil)
	assert.Equal(t, midi.LEDRedBlink, a.side.Sent(0, 2))
	assert.Equal(t, midi.LEDGreen, a.side.Sent(0, 0), "playing sequence")
	assert.Equal(t, midi.LEDYellow, a.grid.Sent(3, 1))
	assert.Equal(t, midi.LEDRed, a.master.Sent(0, 0))

	tap(a, grid(3, 1), 3_000_000)
	_, ok = seq.Sequence(2).Phrase(3)
	assert.False(t, ok)

	tap(a, master, 4_000_000)
	assert.Equal(t, surface.ViewChannel, surf.View())
}

func TestTransportButtons(t *testing.T) {
	a, seq, _, tr := newTestAPC(t, midi.APC40Config())
	shift := midi.Button{Kind: midi.ButtonShift}
	play := midi.Button{Kind: midi.ButtonPlay}
	stop := midi.Button{Kind: midi.ButtonStop}

	tap(a, play, 0)
	assert.Equal(t, 1, tr.plays)

	press(a, shift, 100)
	tap(a, play, 200)
	release(a, shift)
	assert.Equal(t, 1, tr.plays)
	assert.Equal(t, sequencer.ModeTimeline, seq.Mode())

	tap(a, stop, 1_000_000)
	assert.Equal(t, 1, tr.stops)
	assert.Equal(t, 0, tr.rewinds)

	tap(a, stop, 1_200_000)
	assert.Equal(t, 1, tr.rewinds)

	tap(a, stop, 1_300_000)
	assert.Equal(t, 1, tr.rewinds, "a double press does not chain")
}

func TestKnobSetsLengthAndShowsOverlay(t *testing.T) {
	a, seq, _, _ := newTestAPC(t, midi.APC40Config())
	now := uint64(5_000_000)

	a.Handle(midi.InputEvent{Type: midi.InputKnob, Knob: midi.KnobDeviceControl + 1, Value: 0x01}, now)
	assert.Equal(t, uint32(2*sequencer.TicksPerBar), seq.Channel(0).Patterns[0].Length())

	// the grid shows the first half of the pattern
	a.Render(stopped(now), nil)
	for x := range 4 {
		assert.Equal(t, midi.LEDYellow, a.clipStop.Sent(x, 0), "cell %d", x)
	}
	for x := 4; x < 8; x++ {
		assert.Equal(t, midi.LEDOff, a.clipStop.Sent(x, 0), "cell %d", x)
	}

	// the overlay hides inside the buffer 200ms later
	c := stopped(now + surface.IndicatorDuration - 5_000)
	out := a.Render(c, nil)
	require.NotEmpty(t, out)
	assert.Equal(t, uint32(240), out[len(out)-1].Frame)
	assert.Equal(t, midi.LEDOff, a.clipStop.Sent(0, 0))
}

func TestPlayheadFollowsPattern(t *testing.T) {
	a, seq, _, tr := newTestAPC(t, midi.APC40Config())
	tr.rolling = true

	c := &sequencer.Cycle{
		Ticks:     sequencer.TickRange{Start: 1000, Stop: 1960},
		Frames:    960,
		FrameRate: 48000,
		TimeStop:  20_000,
		Rolling:   true,
	}
	seq.Process(c, nil)
	a.Render(c, nil)

	assert.Equal(t, midi.LEDGreen, a.clipStop.Sent(1, 0))
	assert.Equal(t, midi.LEDOff, a.clipStop.Sent(0, 0))
	assert.Equal(t, midi.LEDGreen, a.play.Sent(0, 0))
}

func TestFadersSendVolume(t *testing.T) {
	a, seq, surf, _ := newTestAPC(t, midi.APC20Config())
	surf.Focus(2)

	a.Handle(midi.InputEvent{Type: midi.InputFader, Fader: 3, Value: 90}, 0)
	a.Handle(midi.InputEvent{Type: midi.InputFader, Fader: midi.FaderMaster, Value: 20}, 0)
	a.Handle(midi.InputEvent{Type: midi.InputFader, Fader: midi.FaderCrossfade, Value: 20}, 0)

	out := seq.Process(stopped(0), nil)
	require.Len(t, out, 2)
	assert.Equal(t, midi.ControlChangeMsg(11, 7, 90), out[0].Msg)
	assert.Equal(t, midi.ControlChangeMsg(2, 7, 20), out[1].Msg)
}

func TestAPC20EditsPhrases(t *testing.T) {
	a, seq, surf, _ := newTestAPC(t, midi.APC20Config())

	tap(a, midi.Button{Kind: midi.ButtonTrackSelect, X: 2}, 0)
	require.Equal(t, 10, surf.Focused())

	tap(a, grid(0, 1), 0)
	ph := &seq.Channel(10).Phrases[0]
	assert.True(t, ph.StartsIn(1, sequencer.TickRange{Start: 0, Stop: 1}))

	a.Render(stopped(0), nil)
	assert.Equal(t, midi.LEDYellow, a.grid.Sent(0, 1))
	assert.Equal(t, midi.LEDRed, a.trackSelect.Sent(2, 0))
	assert.Equal(t, midi.LEDRed, a.side.Sent(0, 0))

	tap(a, midi.Button{Kind: midi.ButtonSide, Y: 3}, 0)
	assert.Equal(t, 3, surf.ShownPhrase(10))
	assert.Equal(t, 0, surf.ShownPattern(10))
}

func TestShiftModifiesAcrossDevices(t *testing.T) {
	seq := sequencer.New()
	surf := surface.New()
	apc40 := NewAPC("apc40", 1, midi.APC40Config(), seq, surf, &fakeTransport{})
	apc20 := NewAPC("apc20", 2, midi.APC20Config(), seq, surf, &fakeTransport{})
	identify(t, apc40)
	identify(t, apc20)
	shift := midi.Button{Kind: midi.ButtonShift}
	master := midi.Button{Kind: midi.ButtonMaster}

	press(apc40, shift, 0)
	tap(apc20, master, 100)
	assert.Equal(t, surface.ViewTimeline, surf.View())

	press(apc40, grid(0, 0), 200)
	tap(apc20, master, 1_000_000)
	assert.Equal(t, surface.ViewChannel, surf.View(), "the latest held button is the modifier")
	release(apc40, grid(0, 0))
	release(apc40, shift)

	tap(apc20, master, 2_000_000)
	assert.Equal(t, surface.ViewSequence, surf.View())
}

package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apc-sequence/midi"
	"apc-sequence/sequencer"
	"apc-sequence/surface"
)

func rolling(start, stop uint32) *sequencer.Cycle {
	return &sequencer.Cycle{
		Ticks:     sequencer.TickRange{Start: start, Stop: stop},
		Frames:    stop - start,
		FrameRate: 48000,
		Rolling:   true,
	}
}

func key(on bool, k, velocity uint8) midi.Input {
	if on {
		return midi.Input{Msg: midi.NoteOnMsg(0, k, velocity)}
	}
	return midi.Input{Msg: midi.NoteOffMsg(0, k, velocity)}
}

func TestKeyboardEchoesToFocusedChannel(t *testing.T) {
	seq := sequencer.New()
	surf := surface.New()
	kb := NewKeyboard(seq, surf, &fakeTransport{})

	surf.Focus(4)
	out := kb.Process(stopped(0), []midi.Input{key(true, 62, 80)}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, midi.Timed{Port: midi.SynthPort, Msg: midi.NoteOnMsg(4, 62, 80)}, out[0])

	// the note off follows the note even when the focus moved
	surf.Focus(5)
	out = kb.Process(stopped(0), []midi.Input{key(false, 62, 0), key(false, 63, 0)}, nil)
	require.Len(t, out, 1)
	assert.Equal(t, midi.NoteOffMsg(4, 62, 0), out[0].Msg)

	assert.False(t, seq.Channel(4).Patterns[0].HasContent(), "not recording")
}

func TestKeyboardRecords(t *testing.T) {
	seq := sequencer.New()
	surf := surface.New()
	kb := NewKeyboard(seq, surf, &fakeTransport{rolling: true})
	surf.ToggleRecording()
	surf.ShowPattern(0, 2)

	c := rolling(1000, 1480)
	seq.Process(c, nil)
	kb.Process(c, []midi.Input{key(true, 60, 100)}, nil)

	p := &seq.Channel(0).Patterns[2]
	assert.True(t, p.HasOpen(60))

	c = rolling(2000, 2480)
	seq.Process(c, nil)
	kb.Process(c, []midi.Input{key(false, 60, 40)}, nil)

	events := p.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Open)
	assert.Equal(t, uint32(1000), events[0].Start)
	assert.Equal(t, uint32(2000), events[0].Stop)
	assert.Equal(t, sequencer.Note{Velocity: 100, StopVelocity: 40}, events[0].Value)
}

func TestKeyboardRepeatedNoteOn(t *testing.T) {
	kb := NewKeyboard(sequencer.New(), surface.New(), &fakeTransport{})

	out := kb.Process(stopped(0), []midi.Input{key(true, 60, 100), key(true, 60, 90)}, nil)
	require.Len(t, out, 3)
	assert.Equal(t, midi.NoteOffMsg(0, 60, 0), out[1].Msg)

	out = kb.Release(nil)
	require.Len(t, out, 1)
	assert.Equal(t, midi.NoteOffMsg(0, 60, 0), out[0].Msg)
	assert.Empty(t, kb.Release(nil))
}

func TestKeyboardTakeGrowsPattern(t *testing.T) {
	seq := sequencer.New()
	surf := surface.New()
	kb := NewKeyboard(seq, surf, &fakeTransport{rolling: true})
	surf.ToggleRecording()

	start := uint32(2*sequencer.TicksPerBar + 100)
	c := rolling(start, start+480)
	seq.Process(c, nil)
	kb.Process(c, []midi.Input{key(true, 64, 100)}, nil)

	c = rolling(start+480, start+960)
	seq.Process(c, nil)
	kb.Process(c, []midi.Input{key(false, 64, 0)}, nil)

	p := &seq.Channel(0).Patterns[0]
	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, sequencer.TickRange{Start: start, Stop: start + 480}, events[0].Range())
	assert.Equal(t, uint32(3*sequencer.TicksPerBar), p.Length())
}

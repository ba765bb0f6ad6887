package controller

import (
	"apc-sequence/midi"
	"apc-sequence/sequencer"
)

type heldKey struct {
	channel int
	pattern int
	down    bool
}

// Keyboard plays keyboard notes on the focused channel. While recording and
// rolling, notes are also written into the channel's shown pattern.
type Keyboard struct {
	seq       *sequencer.Sequencer
	surf      surfaceState
	transport Transport

	held [128]heldKey
}

// surfaceState is what the keyboard needs of the surface
type surfaceState interface {
	Focused() int
	ShownPattern(ch int) int
	Recording() bool
}

// NewKeyboard creates a keyboard recorder
func NewKeyboard(seq *sequencer.Sequencer, surf surfaceState, transport Transport) *Keyboard {
	return &Keyboard{seq: seq, surf: surf, transport: transport}
}

// Process echoes the received notes at the start of the buffer and records them
func (k *Keyboard) Process(c *sequencer.Cycle, inputs []midi.Input, out []midi.Timed) []midi.Timed {
	for i := range inputs {
		ev, ok := midi.DecodeKey(&inputs[i].Msg)
		if !ok {
			continue
		}
		if ev.On {
			out = k.noteOn(c, ev, out)
		} else {
			out = k.noteOff(c, ev, out)
		}
	}
	return out
}

func (k *Keyboard) recording(c *sequencer.Cycle) bool {
	return k.surf.Recording() && c.Rolling && k.transport.Rolling()
}

func (k *Keyboard) noteOn(c *sequencer.Cycle, ev midi.KeyEvent, out []midi.Timed) []midi.Timed {
	ch := k.surf.Focused()
	pattern := k.surf.ShownPattern(ch)

	// a repeated note on releases the previous one first
	if prev := k.held[ev.Key]; prev.down {
		out = k.noteOff(c, midi.KeyEvent{Key: ev.Key}, out)
	}
	k.held[ev.Key] = heldKey{channel: ch, pattern: pattern, down: true}

	out = append(out, midi.Timed{Port: midi.SynthPort, Msg: midi.NoteOnMsg(uint8(ch), ev.Key, ev.Velocity)})

	if k.recording(c) {
		tick := k.seq.PatternTick(ch, pattern, c.Ticks.Start)
		k.seq.Channel(ch).Patterns[pattern].StartNote(tick, ev.Key, ev.Velocity)
	}
	return out
}

func (k *Keyboard) noteOff(c *sequencer.Cycle, ev midi.KeyEvent, out []midi.Timed) []midi.Timed {
	held := k.held[ev.Key]
	if !held.down {
		return out
	}
	k.held[ev.Key] = heldKey{}

	out = append(out, midi.Timed{Port: midi.SynthPort, Msg: midi.NoteOffMsg(uint8(held.channel), ev.Key, ev.Velocity)})

	p := &k.seq.Channel(held.channel).Patterns[held.pattern]
	if p.HasOpen(ev.Key) {
		tick := k.seq.PatternTick(held.channel, held.pattern, c.Ticks.Start)
		p.StopNote(tick, ev.Key, ev.Velocity)
	}
	return out
}

// Release sends note offs for every held key, e.g. when the keyboard disconnects
func (k *Keyboard) Release(out []midi.Timed) []midi.Timed {
	for key := range k.held {
		if held := k.held[key]; held.down {
			out = append(out, midi.Timed{Port: midi.SynthPort, Msg: midi.NoteOffMsg(uint8(held.channel), uint8(key), 0)})
			k.held[key] = heldKey{}
		}
	}
	return out
}

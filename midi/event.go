package midi

import (
	"cmp"
	"slices"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status nibbles
const (
	NoteOn   uint8 = 0x90
	NoteOff  uint8 = 0x80
	CC       uint8 = 0xB0
	SysEx    uint8 = 0xF0
	SysExEnd uint8 = 0xF7
)

// maxMessageSize covers channel messages, the introduction and a whole
// identity reply including its serial number and F7
const maxMessageSize = 48

// Message is a raw MIDI message stored inline so that building one in the
// real-time path does not allocate.
type Message struct {
	data [maxMessageSize]byte
	n    uint8
}

// NewMessage copies raw bytes into a message (truncated to maxMessageSize)
func NewMessage(raw ...byte) Message {
	var m Message
	m.n = uint8(copy(m.data[:], raw))
	return m
}

// NoteOnMsg builds a note on message
func NoteOnMsg(channel, key, velocity uint8) Message {
	return NewMessage(NoteOn|channel&0x0F, key&0x7F, velocity&0x7F)
}

// NoteOffMsg builds a note off message
func NoteOffMsg(channel, key, velocity uint8) Message {
	return NewMessage(NoteOff|channel&0x0F, key&0x7F, velocity&0x7F)
}

// ControlChangeMsg builds a control change message
func ControlChangeMsg(channel, controller, value uint8) Message {
	return NewMessage(CC|channel&0x0F, controller&0x7F, value&0x7F)
}

// Len returns the number of bytes
func (m *Message) Len() int {
	return int(m.n)
}

// Bytes returns the message bytes (aliases the message storage)
func (m *Message) Bytes() []byte {
	return m.data[:m.n]
}

// Gomidi returns the message as a gomidi message for sending
func (m *Message) Gomidi() gomidi.Message {
	return gomidi.Message(m.data[:m.n])
}

// Status returns the status byte (0 for an empty message)
func (m *Message) Status() uint8 {
	if m.n == 0 {
		return 0
	}
	return m.data[0]
}

// IsNoteOff reports note offs, including note on with velocity 0
func (m *Message) IsNoteOff() bool {
	return m.Gomidi().GetNoteEnd(nil, nil)
}

// String formats the message like gomidi does
func (m *Message) String() string {
	return m.Gomidi().String()
}

// Timed is an outgoing message scheduled at a frame offset in the current
// buffer, addressed to an output port.
type Timed struct {
	Frame uint32
	Port  int
	Msg   Message
}

// SortTimed orders messages by frame; at equal frames note offs come first so
// that a retriggered key is not cut by its own release.
func SortTimed(msgs []Timed) {
	slices.SortStableFunc(msgs, func(a, b Timed) int {
		if c := cmp.Compare(a.Frame, b.Frame); c != 0 {
			return c
		}
		return cmp.Compare(offRank(&a.Msg), offRank(&b.Msg))
	})
}

func offRank(m *Message) int {
	if m.IsNoteOff() {
		return 0
	}
	return 1
}

// Input is a raw message received from a device, stamped with the wall clock
// time in microseconds.
type Input struct {
	Time uint64
	Msg  Message
}

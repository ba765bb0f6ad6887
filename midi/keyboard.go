package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController handles a standard MIDI keyboard (input only)
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	inputs chan Input
}

// NewKeyboardController opens a keyboard input. Only note messages are kept.
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:     id,
		inPort: inPort,
		inputs: make(chan Input, InputQueueSize),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if msg.GetNoteStart(nil, nil, nil) || msg.GetNoteEnd(nil, nil) {
				push(kb.inputs, msg.Bytes())
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) Model() Model {
	return ModelUnknown
}

func (kb *KeyboardController) Inputs() <-chan Input {
	return kb.inputs
}

// Send is a no-op for keyboards
func (kb *KeyboardController) Send(msg Message) error {
	return nil
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	return nil
}

// KeyEvent is a decoded keyboard note
type KeyEvent struct {
	On       bool
	Key      uint8
	Velocity uint8
}

// DecodeKey decodes a keyboard note message
func DecodeKey(m *Message) (KeyEvent, bool) {
	msg := m.Gomidi()
	var ev KeyEvent
	switch {
	case msg.GetNoteStart(nil, &ev.Key, &ev.Velocity):
		ev.On = true
	case msg.GetNoteEnd(nil, &ev.Key):
		msg.GetNoteOff(nil, nil, &ev.Velocity)
	default:
		return KeyEvent{}, false
	}
	return ev, true
}

package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// InputType classifies a decoded controller message
type InputType int

const (
	InputUnknown InputType = iota
	InputPressed
	InputReleased
	InputKnob
	InputFader
	InputIdentity
)

func (t InputType) String() string {
	switch t {
	case InputPressed:
		return "pressed"
	case InputReleased:
		return "released"
	case InputKnob:
		return "knob"
	case InputFader:
		return "fader"
	case InputIdentity:
		return "identity"
	}
	return "unknown"
}

// ButtonKind is the role of a button on the surface
type ButtonKind uint8

const (
	ButtonNone ButtonKind = iota
	ButtonGrid
	ButtonSide
	ButtonClipStop
	ButtonTrackSelect
	ButtonActivator
	ButtonSolo
	ButtonArm
	ButtonMaster
	ButtonStopAll
	ButtonPlay
	ButtonStop
	ButtonRecord
	ButtonUp
	ButtonDown
	ButtonRight
	ButtonLeft
	ButtonShift
	ButtonTap
	ButtonNudgeMinus
	ButtonNudgePlus
	ButtonDevice
	ButtonKnobMode
)

var buttonNames = [...]string{
	ButtonNone:        "none",
	ButtonGrid:        "grid",
	ButtonSide:        "side",
	ButtonClipStop:    "clip-stop",
	ButtonTrackSelect: "track-select",
	ButtonActivator:   "activator",
	ButtonSolo:        "solo",
	ButtonArm:         "arm",
	ButtonMaster:      "master",
	ButtonStopAll:     "stop-all",
	ButtonPlay:        "play",
	ButtonStop:        "stop",
	ButtonRecord:      "record",
	ButtonUp:          "up",
	ButtonDown:        "down",
	ButtonRight:       "right",
	ButtonLeft:        "left",
	ButtonShift:       "shift",
	ButtonTap:         "tap",
	ButtonNudgeMinus:  "nudge-",
	ButtonNudgePlus:   "nudge+",
	ButtonDevice:      "device",
	ButtonKnobMode:    "knob-mode",
}

func (k ButtonKind) String() string {
	if int(k) < len(buttonNames) {
		return buttonNames[k]
	}
	return "none"
}

// Button identifies one physical button. X is the device-local column for
// per-track buttons, Y the row inside grid and side columns.
type Button struct {
	Kind ButtonKind
	X, Y uint8
}

func (b Button) String() string {
	return fmt.Sprintf("%s(%d,%d)", b.Kind, b.X, b.Y)
}

// Knob and fader indices
const (
	KnobTrackControl  = 0 // 0-7
	KnobDeviceControl = 8 // 8-15
	KnobCue           = 16

	FaderMaster    = 8
	FaderCrossfade = 9
)

// InputEvent is the semantic meaning of one controller message
type InputEvent struct {
	Type     InputType
	Button   Button
	Velocity uint8
	Knob     uint8
	Fader    uint8
	Value    uint8
	DeviceID uint8
	LocalID  uint8
}

// Offsets into the body of a universal identity reply, between F0 and F7
const (
	identitySubID1   = 2
	identitySubID2   = 3
	identityManuf    = 4
	identityDevice   = 5
	identityLocal    = 12
	identityMinBytes = identityLocal + 1
)

// Decode turns raw bytes from a controller into an InputEvent. It is pure and
// never fails: anything it does not recognize is InputUnknown.
func Decode(raw []byte, cfg *DeviceConfig) InputEvent {
	msg := gomidi.Message(raw)
	var channel, key, value uint8
	var body []byte

	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		return decodeNote(InputPressed, key, channel, value, cfg)
	case msg.GetNoteEnd(&channel, &key):
		// release velocity is only carried by a real note off
		msg.GetNoteOff(nil, nil, &value)
		return decodeNote(InputReleased, key, channel, value, cfg)
	case msg.GetControlChange(&channel, &key, &value):
		return decodeControl(key, channel, value)
	case msg.GetSysEx(&body):
		return decodeIdentity(body, cfg)
	}
	return InputEvent{}
}

func decodeNote(typ InputType, note, channel, velocity uint8, cfg *DeviceConfig) InputEvent {
	button, ok := decodeButton(note, channel, cfg)
	if !ok {
		return InputEvent{}
	}
	return InputEvent{Type: typ, Button: button, Velocity: velocity}
}

func decodeButton(note, channel uint8, cfg *DeviceConfig) (Button, bool) {
	if cfg != nil && cfg.Roles[note] != ButtonNone {
		return Button{Kind: cfg.Roles[note], X: channel}, true
	}

	track := func(kind ButtonKind) (Button, bool) {
		if channel > 7 {
			return Button{}, false
		}
		return Button{Kind: kind, X: channel}, true
	}

	switch {
	case note == 0x30:
		return track(ButtonArm)
	case note == 0x31:
		return track(ButtonSolo)
	case note == 0x32:
		return track(ButtonActivator)
	case note == 0x33:
		return track(ButtonTrackSelect)
	case note == 0x34:
		return track(ButtonClipStop)
	case note >= 0x35 && note <= 0x39:
		b, ok := track(ButtonGrid)
		b.Y = note - 0x35
		return b, ok
	case note >= 0x3A && note <= 0x41:
		return Button{Kind: ButtonDevice, X: note - 0x3A}, true
	case note == 0x50:
		return Button{Kind: ButtonMaster}, true
	case note == 0x51:
		return Button{Kind: ButtonStopAll}, true
	case note >= 0x52 && note <= 0x56:
		return Button{Kind: ButtonSide, Y: note - 0x52}, true
	case note >= 0x57 && note <= 0x5A:
		return Button{Kind: ButtonKnobMode, X: note - 0x57}, true
	}

	transport := [...]ButtonKind{
		ButtonPlay, ButtonStop, ButtonRecord, ButtonUp, ButtonDown,
		ButtonRight, ButtonLeft, ButtonShift, ButtonTap, ButtonNudgeMinus, ButtonNudgePlus,
	}
	if note >= 0x5B && int(note-0x5B) < len(transport) {
		return Button{Kind: transport[note-0x5B]}, true
	}
	return Button{}, false
}

func decodeControl(cc, channel, value uint8) InputEvent {
	switch {
	case cc == 0x07 && channel <= 7:
		return InputEvent{Type: InputFader, Fader: channel, Value: value}
	case cc == 0x0E:
		return InputEvent{Type: InputFader, Fader: FaderMaster, Value: value}
	case cc == 0x0F:
		return InputEvent{Type: InputFader, Fader: FaderCrossfade, Value: value}
	case cc >= 0x30 && cc <= 0x37:
		return InputEvent{Type: InputKnob, Knob: KnobTrackControl + cc - 0x30, Value: value}
	case cc >= 0x10 && cc <= 0x17:
		return InputEvent{Type: InputKnob, Knob: KnobDeviceControl + cc - 0x10, Value: value}
	case cc == 0x2F:
		return InputEvent{Type: InputKnob, Knob: KnobCue, Value: value}
	}
	return InputEvent{}
}

// decodeIdentity reads the sysex body of an identity reply
func decodeIdentity(body []byte, cfg *DeviceConfig) InputEvent {
	if len(body) < identityMinBytes ||
		body[identitySubID1] != 0x06 ||
		body[identitySubID2] != 0x02 ||
		body[identityManuf] != ManufacturerAkai {
		return InputEvent{}
	}
	device := body[identityDevice]
	if cfg != nil && cfg.DeviceID != device {
		return InputEvent{}
	}
	return InputEvent{
		Type:     InputIdentity,
		DeviceID: device,
		LocalID:  body[identityLocal],
	}
}

// InquiryMsg is the universal device inquiry
func InquiryMsg() Message {
	return NewMessage(SysEx, 0x7E, 0x00, 0x06, 0x01, SysExEnd)
}

// IntroductionMsg sets the device mode after identification
func IntroductionMsg(localID, deviceID, mode uint8) Message {
	return NewMessage(SysEx, ManufacturerAkai, localID, deviceID, 0x60, 0x00, 0x04, mode, 0x00, 0x00, 0x00, SysExEnd)
}

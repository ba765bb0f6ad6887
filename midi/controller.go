package midi

import (
	"fmt"
	"sync/atomic"
	"time"

	"apc-sequence/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerAPC
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerAPC:
		return "apc"
	case ControllerKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// InputQueueSize bounds the messages buffered between the driver thread and
// the real-time cycle. Messages are dropped when it is full.
const InputQueueSize = 256

// Controller is a connected MIDI device
type Controller interface {
	ID() string
	Type() ControllerType
	Model() Model

	// Inputs delivers raw messages stamped with Now()
	Inputs() <-chan Input

	// Send writes one message to the device (no-op for input only devices)
	Send(msg Message) error

	Close() error
}

var epoch = time.Now()

// Now returns the wall clock in microseconds on the clock inputs are stamped with
func Now() uint64 {
	return uint64(time.Since(epoch).Microseconds())
}

var dropped uint64

// Dropped returns how many input messages were lost to full queues
func Dropped() uint64 {
	return atomic.LoadUint64(&dropped)
}

func push(ch chan Input, raw []byte) {
	select {
	case ch <- Input{Time: Now(), Msg: NewMessage(raw...)}:
	default:
		if n := atomic.AddUint64(&dropped, 1); n%100 == 1 {
			debug.Log("midi", "input queue full, dropped=%d", n)
		}
	}
}

// APCController is the port pair of an APC40 or APC20
type APCController struct {
	id       string
	model    Model
	inPort   drivers.In
	outPort  drivers.Out
	send     func(msg gomidi.Message) error
	stopFunc func()

	inputs chan Input
}

// NewAPCController opens the ports of an APC. outPort may be nil for a
// monitor-only connection.
func NewAPCController(id string, model Model, inPort drivers.In, outPort drivers.Out) (*APCController, error) {
	c := &APCController{
		id:      id,
		model:   model,
		inPort:  inPort,
		outPort: outPort,
		inputs:  make(chan Input, InputQueueSize),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", outPort, err)
		}
		c.send = send
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			push(c.inputs, msg.Bytes())
		}, gomidi.UseSysEx(), gomidi.SysExBufferSize(1024))
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", inPort, err)
		}
		c.stopFunc = stop
	}

	return c, nil
}

func (c *APCController) ID() string {
	return c.id
}

func (c *APCController) Type() ControllerType {
	return ControllerAPC
}

func (c *APCController) Model() Model {
	return c.model
}

func (c *APCController) Inputs() <-chan Input {
	return c.inputs
}

func (c *APCController) Send(msg Message) error {
	if c.send == nil {
		return nil
	}
	return c.send(msg.Gomidi())
}

// Close turns every LED off and releases the ports
func (c *APCController) Close() error {
	if c.send != nil {
		for col := uint8(0); col < 8; col++ {
			for note := NoteArm; note <= NoteGrid+4; note++ {
				c.send(gomidi.NoteOff(col, note))
			}
		}
		for note := NoteMaster; note <= NoteRecord; note++ {
			c.send(gomidi.NoteOff(0, note))
		}
	}
	if c.stopFunc != nil {
		c.stopFunc()
	}
	return nil
}

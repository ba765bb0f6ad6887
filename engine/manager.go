// Package engine runs the real-time cycle: it attaches controllers as they
// come and go, feeds their input to the surface, resolves playback and hands
// the merged, frame ordered output to the MIDI ports.
package engine

import (
	"context"
	"runtime"
	"time"

	"apc-sequence/controller"
	"apc-sequence/debug"
	"apc-sequence/midi"
	"apc-sequence/sequencer"
	"apc-sequence/surface"
)

// Output receives the messages of one cycle, sorted by frame
type Output interface {
	Write(msgs []midi.Timed)
}

// MaxControllers is the number of APCs driven at once. Controller i sends
// on output port i+1; port 0 is the synth.
const MaxControllers = midi.MaxPorts - 1

type slot struct {
	device midi.Controller
	apc    *controller.APC
}

// Ports is where a Manager attaches controller outputs
type Ports interface {
	SetPort(port int, s midi.Sender)
}

// Manager owns the sequencer, the surface and the attached controllers.
// Process must be called from a single goroutine.
type Manager struct {
	seq   *sequencer.Sequencer
	surf  *surface.Surface
	clock *Clock

	out    Output
	ports  Ports
	events <-chan midi.DeviceEvent

	slots    [MaxControllers]slot
	keyboard midi.Controller
	kb       *controller.Keyboard

	inputs  []midi.Input
	msgs    []midi.Timed
	lastBar uint32
}

// NewManager creates a manager writing to out. ports may be nil when
// controller LEDs are not wired to real ports.
func NewManager(seq *sequencer.Sequencer, clock *Clock, out Output, ports Ports, events <-chan midi.DeviceEvent) *Manager {
	surf := surface.New()
	return &Manager{
		seq:    seq,
		surf:   surf,
		clock:  clock,
		out:    out,
		ports:  ports,
		events: events,
		kb:     controller.NewKeyboard(seq, surf, clock),
		inputs: make([]midi.Input, 0, midi.InputQueueSize),
		msgs:   make([]midi.Timed, 0, 1024),
	}
}

func (m *Manager) Sequencer() *sequencer.Sequencer { return m.seq }

func (m *Manager) Surface() *surface.Surface { return m.surf }

func (m *Manager) Clock() *Clock { return m.clock }

// Controller returns the APC in a slot, nil if the slot is free
func (m *Manager) Controller(i int) *controller.APC {
	if i < 0 || i >= MaxControllers {
		return nil
	}
	return m.slots[i].apc
}

// Process runs one cycle of frames and returns the messages it wrote
// (valid until the next call).
func (m *Manager) Process(frames uint32) []midi.Timed {
	m.msgs = m.msgs[:0]
	m.pollDevice()

	c := sequencer.NewCycle(m.clock.Position(), frames, midi.Now())

	for i := range m.slots {
		s := &m.slots[i]
		if s.apc == nil {
			continue
		}
		m.inputs = drain(s.device.Inputs(), m.inputs[:0])
		s.apc.HandleInputs(m.inputs)
	}

	if m.keyboard != nil {
		m.inputs = drain(m.keyboard.Inputs(), m.inputs[:0])
		m.msgs = m.kb.Process(&c, m.inputs, m.msgs)
	}

	m.msgs = m.seq.Process(&c, m.msgs)

	if m.seq.Switched() {
		for i := range m.slots {
			if m.slots[i].apc != nil {
				m.slots[i].apc.ResetLEDs()
			}
		}
	}

	for i := range m.slots {
		if m.slots[i].apc != nil {
			m.msgs = m.slots[i].apc.Render(&c, m.msgs)
		}
	}

	midi.SortTimed(m.msgs)
	m.out.Write(m.msgs)

	m.logBar(&c)
	m.clock.Advance(frames)
	return m.msgs
}

func (m *Manager) logBar(c *sequencer.Cycle) {
	if !c.Rolling {
		return
	}
	bar := c.Ticks.Start/sequencer.TicksPerBar + 1
	if bar != m.lastBar {
		m.lastBar = bar
		debug.Log("clock", "bar %d (%s)", bar, m.clock.BBT())
	}
}

// drain moves the queued inputs into buf without blocking
func drain(ch <-chan midi.Input, buf []midi.Input) []midi.Input {
	for len(buf) < cap(buf) {
		select {
		case in, ok := <-ch:
			if !ok {
				return buf
			}
			buf = append(buf, in)
		default:
			return buf
		}
	}
	return buf
}

// pollDevice applies at most one attach/detach per cycle
func (m *Manager) pollDevice() {
	if m.events == nil {
		return
	}
	select {
	case ev, ok := <-m.events:
		if !ok {
			m.events = nil
			return
		}
		if ev.Type == midi.DeviceConnected {
			m.attach(ev.Controller)
		} else {
			m.detach(ev.ID)
		}
	default:
	}
}

func (m *Manager) attach(d midi.Controller) {
	switch d.Type() {
	case midi.ControllerKeyboard:
		if m.keyboard != nil {
			m.detach(m.keyboard.ID())
		}
		m.keyboard = d
		debug.Log("engine", "keyboard %s attached", d.ID())
		return
	case midi.ControllerAPC:
		cfg, ok := midi.ConfigFor(d.Model())
		if !ok {
			debug.Warn("engine", "no config for %s (%s)", d.ID(), d.Model())
			break
		}
		for i := range m.slots {
			if m.slots[i].apc != nil {
				continue
			}
			port := i + 1
			m.slots[i] = slot{device: d, apc: controller.NewAPC(d.ID(), port, cfg, m.seq, m.surf, m.clock)}
			if m.ports != nil {
				m.ports.SetPort(port, d)
			}
			debug.Log("engine", "%s attached on port %d", d.ID(), port)
			return
		}
		debug.Warn("engine", "no free slot for %s", d.ID())
	}
	d.Close()
}

// detach stops routing to a device before closing it
func (m *Manager) detach(id string) {
	if m.keyboard != nil && m.keyboard.ID() == id {
		m.keyboard.Close()
		m.keyboard = nil
		m.msgs = m.kb.Release(m.msgs)
		debug.Log("engine", "keyboard %s detached", id)
		return
	}
	for i := range m.slots {
		s := &m.slots[i]
		if s.apc == nil || s.apc.ID() != id {
			continue
		}
		if m.ports != nil {
			m.ports.SetPort(s.apc.Port(), nil)
		}
		s.device.Close()
		m.surf.Buttons.ReleaseDevice(s.apc.Config().ChannelOffset)
		*s = slot{}
		debug.Log("engine", "%s detached", id)
		return
	}
}

// Close detaches and closes every device, including the ones announced but
// not attached yet. Call it from the goroutine that calls Process.
func (m *Manager) Close() {
	if m.keyboard != nil {
		m.detach(m.keyboard.ID())
	}
	for i := range m.slots {
		if m.slots[i].apc != nil {
			m.detach(m.slots[i].apc.ID())
		}
	}
	for m.events != nil {
		select {
		case ev, ok := <-m.events:
			if !ok {
				m.events = nil
			} else if ev.Type == midi.DeviceConnected {
				ev.Controller.Close()
			}
		default:
			m.events = nil
		}
	}
}

// Run calls Process every bufferSize frames until ctx is done. It emulates
// the callback of an audio driver on a locked OS thread.
func (m *Manager) Run(ctx context.Context, bufferSize uint32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pos := m.clock.Position()
	period := time.Duration(uint64(bufferSize) * uint64(time.Second) / uint64(pos.FrameRate))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	debug.Log("engine", "running, %d frames at %d Hz (%s)", bufferSize, pos.FrameRate, period)

	for {
		select {
		case <-ctx.Done():
			// one stopped cycle releases sounding notes
			m.clock.Stop()
			m.Process(bufferSize)
			m.out.Write(m.kb.Release(m.msgs[:0]))
			m.Close()
			return
		case <-ticker.C:
			m.Process(bufferSize)
		}
	}
}

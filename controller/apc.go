// Package controller drives APC40/APC20 surfaces: it interprets their input
// against the shared Surface, edits the Sequencer and draws the LEDs.
package controller

import (
	"apc-sequence/debug"
	"apc-sequence/midi"
	"apc-sequence/sequencer"
	"apc-sequence/surface"
)

// DefaultVelocity is the velocity of notes entered on the grid
const DefaultVelocity = 100

// MaxLengthBars bounds pattern and phrase lengths set by knob
const MaxLengthBars = 64

// Transport is the part of the clock the surface controls
type Transport interface {
	Play()
	Stop()
	Rewind()
	Rolling() bool
}

// APC is one connected APC. Several may share a Surface; each covers the
// channels starting at its config's channel offset.
type APC struct {
	id   string
	port int
	cfg  midi.DeviceConfig

	handshake midi.Handshake
	knobs     surface.Knobs

	grid        *midi.Grid
	side        *midi.Side
	clipStop    *midi.Row
	trackSelect *midi.Row
	activator   *midi.Row
	solo        *midi.Row
	arm         *midi.Row
	master      *midi.Single
	play        *midi.Single
	record      *midi.Single

	seq       *sequencer.Sequencer
	surf      *surface.Surface
	transport Transport
}

// NewAPC creates the controller of a device sending on output port
func NewAPC(id string, port int, cfg midi.DeviceConfig, seq *sequencer.Sequencer, surf *surface.Surface, transport Transport) *APC {
	return &APC{
		id:          id,
		port:        port,
		cfg:         cfg,
		handshake:   midi.NewHandshake(cfg.DeviceID, cfg.Mode),
		grid:        midi.NewGrid(midi.NoteGrid),
		side:        midi.NewSide(midi.NoteSide),
		clipStop:    midi.NewRow(midi.NoteClipStop),
		trackSelect: midi.NewRow(midi.NoteTrackSelect),
		activator:   midi.NewRow(midi.NoteActivator),
		solo:        midi.NewRow(midi.NoteSolo),
		arm:         midi.NewRow(midi.NoteArm),
		master:      midi.NewSingle(0, midi.NoteMaster),
		play:        midi.NewSingle(0, midi.NotePlay),
		record:      midi.NewSingle(0, midi.NoteRecord),
		seq:         seq,
		surf:        surf,
		transport:   transport,
	}
}

func (a *APC) ID() string { return a.id }

// Port returns the output port LED messages are addressed to
func (a *APC) Port() int { return a.port }

// Config returns the device config
func (a *APC) Config() *midi.DeviceConfig { return &a.cfg }

// State returns the identification state
func (a *APC) State() midi.HandshakeState { return a.handshake.State() }

func (a *APC) offset() int { return a.cfg.ChannelOffset }

func (a *APC) leds() [10]*midi.LEDs {
	return [10]*midi.LEDs{
		&a.grid.LEDs, &a.side.LEDs, &a.clipStop.LEDs, &a.trackSelect.LEDs,
		&a.activator.LEDs, &a.solo.LEDs, &a.arm.LEDs,
		&a.master.LEDs, &a.play.LEDs, &a.record.LEDs,
	}
}

// ResetLEDs forces a full repaint on the next render
func (a *APC) ResetLEDs() {
	for _, l := range a.leds() {
		l.Reset()
	}
}

// Reset restarts identification, e.g. after a reconnect
func (a *APC) Reset() {
	a.handshake.Reset()
	a.ResetLEDs()
	a.knobs = surface.Knobs{}
	a.surf.Buttons.ReleaseDevice(a.offset())
}

// HandleInputs decodes and applies the raw messages received since the last cycle
func (a *APC) HandleInputs(inputs []midi.Input) {
	for i := range inputs {
		ev := midi.Decode(inputs[i].Msg.Bytes(), &a.cfg)
		if ev.Type == midi.InputIdentity {
			if a.handshake.Receive(ev) {
				debug.Log("apc", "%s identified, local id %d", a.cfg.Name, ev.LocalID)
				a.ResetLEDs()
			}
			continue
		}
		if !a.handshake.Ready() {
			continue
		}
		a.Handle(ev, inputs[i].Time)
	}
}

// Handle applies one decoded event received at now (µs)
func (a *APC) Handle(ev midi.InputEvent, now uint64) {
	switch ev.Type {
	case midi.InputPressed:
		double := a.surf.Buttons.IsDoublePress(a.offset(), ev.Button, now)
		a.surf.Buttons.Press(a.offset(), ev.Button, now)
		if double {
			a.surf.Buttons.ForgetPresses(a.offset(), ev.Button)
		}
		a.pressed(ev.Button, double, now)
	case midi.InputReleased:
		a.surf.Buttons.Release(a.offset(), ev.Button)
	case midi.InputKnob:
		if steps := a.knobs.Turn(int(ev.Knob), ev.Value, now); steps != 0 {
			a.turned(ev.Knob, steps, now)
		}
	case midi.InputFader:
		a.faded(ev.Fader, ev.Value)
	}
}

func (a *APC) pressed(b midi.Button, double bool, now uint64) {
	mod, held := a.surf.Buttons.GlobalModifier(a.offset(), b)
	shift := held && mod.Button.Kind == midi.ButtonShift

	switch b.Kind {
	case midi.ButtonGrid:
		a.gridPressed(b)
	case midi.ButtonSide:
		a.sidePressed(int(b.Y), double)
	case midi.ButtonTrackSelect:
		a.surf.Focus(a.offset() + int(b.X))
	case midi.ButtonActivator:
		a.seq.Sequence(a.surf.ShownSequence()).ToggleActive(a.offset() + int(b.X))
	case midi.ButtonClipStop:
		if a.surf.View() == surface.ViewSequence {
			a.seq.Sequence(a.surf.ShownSequence()).UnsetPhrase(a.offset() + int(b.X))
		}
	case midi.ButtonMaster:
		switch {
		case shift:
			a.surf.SetView(surface.ViewTimeline)
		case a.surf.View() == surface.ViewChannel:
			a.surf.SetView(surface.ViewSequence)
		default:
			a.surf.SetView(surface.ViewChannel)
		}
	case midi.ButtonPlay:
		if shift {
			a.seq.ToggleMode()
			debug.Log("apc", "play mode %s", a.seq.Mode())
		} else {
			a.transport.Play()
		}
	case midi.ButtonStop:
		if double {
			a.transport.Rewind()
			a.seq.Rewind()
		} else {
			a.transport.Stop()
		}
		a.surf.Events.Register(a.key(surface.EventStop), now)
	case midi.ButtonRecord:
		a.surf.ToggleRecording()
	case midi.ButtonLeft, midi.ButtonRight:
		columns := 1
		if b.Kind == midi.ButtonLeft {
			columns = -1
		}
		if shift {
			columns *= surface.GridWidth
		}
		a.scroll(columns, now)
	case midi.ButtonUp, midi.ButtonDown:
		semitones := 1
		if b.Kind == midi.ButtonDown {
			semitones = -1
		}
		if shift {
			semitones *= 12
		}
		a.surf.ShiftBaseKey(a.surf.Focused(), semitones)
		a.surf.Events.Register(a.key(surface.EventBaseKey), now)
	}
}

func (a *APC) key(kind surface.EventKind) surface.EventKey {
	return surface.EventKey{Offset: a.offset(), Kind: kind}
}

// kind returns the loopable the grid edits in the active view
func (a *APC) kind() surface.Kind {
	switch a.surf.View() {
	case surface.ViewTimeline:
		return surface.KindTimeline
	case surface.ViewChannel:
		if a.cfg.Shows == midi.ShowPhrase {
			return surface.KindPhrase
		}
	}
	return surface.KindPattern
}

// length returns the length of what the grid shows
func (a *APC) length(kind surface.Kind) uint32 {
	ch := a.seq.Channel(a.surf.Focused())
	switch kind {
	case surface.KindPhrase:
		return ch.Phrases[a.surf.ShownPhrase(ch.Index)].Length()
	case surface.KindTimeline:
		return ch.Timeline.Length()
	}
	return ch.Patterns[a.surf.ShownPattern(ch.Index)].Length()
}

func (a *APC) scroll(columns int, now uint64) {
	if a.surf.View() == surface.ViewSequence {
		return
	}
	kind := a.kind()
	a.surf.Scroll(kind, a.surf.Focused(), columns, a.length(kind))
	a.surf.Events.Register(a.key(surface.EventOffset), now)
}

func (a *APC) sidePressed(y int, double bool) {
	ch := a.seq.Channel(a.surf.Focused())

	switch a.surf.View() {
	case surface.ViewSequence:
		a.surf.ShowSequence(y)
		if double {
			a.seq.Queue(y)
			debug.Log("apc", "queued sequence %d", y)
		}
	case surface.ViewTimeline:
		a.surf.ShowPhrase(ch.Index, y)
	case surface.ViewChannel:
		if a.cfg.Shows == midi.ShowPhrase {
			a.surf.ShowPhrase(ch.Index, y)
			if double {
				ch.Phrases[y].Reset()
			}
			return
		}
		a.surf.ShowPattern(ch.Index, y)
		if double {
			ch.Patterns[y].Reset()
		}
	}
}

// span returns the ticks from column x0 to column x1 inclusive, in either order
func (a *APC) span(kind surface.Kind, ch, x0, x1 int) sequencer.TickRange {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	return sequencer.TickRange{
		Start: a.surf.Column(kind, ch, x0).Start,
		Stop:  a.surf.Column(kind, ch, x1).Stop,
	}
}

// gridPressed toggles the event starting in a cell. With another cell of the
// same row held, it places one event spanning both.
func (a *APC) gridPressed(b midi.Button) {
	x, y := int(b.X), int(b.Y)

	chord := -1
	if mod, ok := a.surf.Buttons.Modifier(a.offset(), b); ok && mod.Button.Kind == midi.ButtonGrid && int(mod.Button.Y) == y {
		chord = int(mod.Button.X)
	}

	if a.surf.View() == surface.ViewSequence {
		ch := a.offset() + x
		seq := a.seq.Sequence(a.surf.ShownSequence())
		if phrase, ok := seq.Phrase(ch); ok && phrase == y {
			seq.UnsetPhrase(ch)
		} else {
			seq.SetPhrase(ch, y)
		}
		return
	}

	ch := a.seq.Channel(a.surf.Focused())
	kind := a.kind()
	col := a.surf.Column(kind, ch.Index, x)
	if chord >= 0 {
		col = a.span(kind, ch.Index, chord, x)
	}

	switch kind {
	case surface.KindPattern:
		p := &ch.Patterns[a.surf.ShownPattern(ch.Index)]
		key := a.surf.RowKey(ch.Index, y)
		if chord < 0 && p.StartsIn(key, col) {
			p.RemoveStartingIn(key, col)
			return
		}
		p.AddNote(col.Start, col.Stop, key, DefaultVelocity)

	case surface.KindPhrase:
		p := &ch.Phrases[a.surf.ShownPhrase(ch.Index)]
		row := uint8(y)
		if chord < 0 && p.StartsIn(row, col) {
			p.RemoveStartingIn(row, col)
			return
		}
		if col.Start >= p.Length() {
			return
		}
		p.Place(y, col.Start, min(col.Stop, p.Length()))

	case surface.KindTimeline:
		tl := &ch.Timeline
		row := uint8(y)
		if chord < 0 && tl.StartsIn(row, col) {
			tl.RemoveStartingIn(row, col)
			return
		}
		if chord < 0 {
			// a single press places the whole phrase
			col.Stop = col.Start + ch.Phrases[y].Length()
		}
		tl.Place(y, col.Start, col.Stop)
	}
}

func (a *APC) turned(knob uint8, steps int, now uint64) {
	ch := a.seq.Channel(a.surf.Focused())
	kind := a.kind()

	switch knob {
	case midi.KnobCue:
		a.scroll(steps, now)
	case midi.KnobDeviceControl:
		a.surf.ChangeZoom(kind, ch.Index, steps)
		a.surf.Events.Register(a.key(surface.EventZoom), now)
	case midi.KnobDeviceControl + 1:
		switch kind {
		case surface.KindPattern:
			p := &ch.Patterns[a.surf.ShownPattern(ch.Index)]
			bars := int(p.Length() / sequencer.TicksPerBar)
			p.SetLengthOverride(uint32(min(max(bars+steps, 1), MaxLengthBars)))
		case surface.KindPhrase:
			p := &ch.Phrases[a.surf.ShownPhrase(ch.Index)]
			bars := int(p.Length() / sequencer.TicksPerBar)
			p.SetLength(uint32(min(max(bars+steps, 1), MaxLengthBars)))
		default:
			return
		}
		a.surf.Events.Register(a.key(surface.EventLength), now)
	}
}

// Channel volume controller
const ccVolume = 7

func (a *APC) faded(fader, value uint8) {
	switch {
	case fader < 8:
		a.seq.ControlChange(a.offset()+int(fader), ccVolume, value)
	case fader == midi.FaderMaster:
		a.seq.ControlChange(a.surf.Focused(), ccVolume, value)
	}
}

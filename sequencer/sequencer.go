package sequencer

import (
	"apc-sequence/debug"
	"apc-sequence/midi"
)

// Mode selects where channels take their phrases from
type Mode int

const (
	ModeSequence Mode = iota // the playing sequence loops
	ModeTimeline             // each channel follows its timeline
)

func (m Mode) String() string {
	if m == ModeTimeline {
		return "timeline"
	}
	return "sequence"
}

const maxPendingControls = 32

// Sequencer owns all channels and sequences and resolves, once per cycle,
// which notes sound.
type Sequencer struct {
	channels  [NumChannels]*Channel
	sequences [NumSequences]Sequence

	mode          Mode
	playing       int
	queued        int // -1 = none
	sequenceStart uint32
	switched      bool

	sounding     [NumChannels][128]bool
	wasRolling   bool
	flushPending bool

	controls    [maxPendingControls]midi.Message
	numControls int

	// per cycle results, reused between cycles
	phrases  []PlayingPhrase
	patterns []PlayingPattern

	phraseBuf  []Instance[Placement]
	patternBuf []Instance[Placement]
	noteBuf    []Instance[Note]
}

// New creates a sequencer with default channels; sequence 0 plays phrase 0
// on every channel.
func New() *Sequencer {
	s := &Sequencer{
		queued:     -1,
		phrases:    make([]PlayingPhrase, 0, NumChannels*4),
		patterns:   make([]PlayingPattern, 0, NumChannels*16),
		phraseBuf:  make([]Instance[Placement], 0, 16),
		patternBuf: make([]Instance[Placement], 0, 32),
		noteBuf:    make([]Instance[Note], 0, 256),
	}
	for i := range s.channels {
		s.channels[i] = NewChannel(i)
	}
	for i := range s.sequences {
		s.sequences[i] = NewSequence()
	}
	for ch := range s.channels {
		s.sequences[0].SetPhrase(ch, 0)
	}
	return s
}

// Channel returns a channel by index (nil if out of range)
func (s *Sequencer) Channel(i int) *Channel {
	if i < 0 || i >= NumChannels {
		return nil
	}
	return s.channels[i]
}

// Sequence returns a sequence by index (nil if out of range)
func (s *Sequencer) Sequence(i int) *Sequence {
	if i < 0 || i >= NumSequences {
		return nil
	}
	return &s.sequences[i]
}

// SequenceLength returns the loop length of a sequence
func (s *Sequencer) SequenceLength(i int) uint32 {
	if seq := s.Sequence(i); seq != nil {
		return seq.Length(&s.channels)
	}
	return TicksPerBar
}

// Playing returns the playing sequence index
func (s *Sequencer) Playing() int {
	return s.playing
}

// Queued returns the queued sequence, ok=false if none
func (s *Sequencer) Queued() (int, bool) {
	return s.queued, s.queued >= 0
}

// Queue schedules a sequence to replace the playing one at its next loop
// boundary. Queueing the playing sequence cancels the queue.
func (s *Sequencer) Queue(i int) {
	if i < 0 || i >= NumSequences {
		return
	}
	if i == s.playing {
		s.queued = -1
		return
	}
	s.queued = i
}

// Mode returns the current play mode
func (s *Sequencer) Mode() Mode {
	return s.mode
}

// SetMode switches between sequence and timeline playback
func (s *Sequencer) SetMode(m Mode) {
	if m != s.mode {
		s.mode = m
		s.flushPending = true
	}
}

// ToggleMode flips the play mode
func (s *Sequencer) ToggleMode() {
	if s.mode == ModeSequence {
		s.SetMode(ModeTimeline)
	} else {
		s.SetMode(ModeSequence)
	}
}

// Rewind restarts the playing sequence from tick 0; sounding notes are
// released on the next cycle.
func (s *Sequencer) Rewind() {
	s.sequenceStart = 0
	s.flushPending = true
}

// Switched reports whether the last Process promoted a queued sequence
func (s *Sequencer) Switched() bool {
	return s.switched
}

// SequenceStart returns the absolute tick the playing sequence started at
func (s *Sequencer) SequenceStart() uint32 {
	return s.sequenceStart
}

// Sounding reports whether a key is held on a channel
func (s *Sequencer) Sounding(ch int, key uint8) bool {
	return ch >= 0 && ch < NumChannels && s.sounding[ch][key&0x7F]
}

// ChannelSounding reports whether any key is held on a channel
func (s *Sequencer) ChannelSounding(ch int) bool {
	if ch < 0 || ch >= NumChannels {
		return false
	}
	for _, on := range s.sounding[ch] {
		if on {
			return true
		}
	}
	return false
}

// PlayingPhrases returns the phrase instances of the last cycle
func (s *Sequencer) PlayingPhrases() []PlayingPhrase {
	return s.phrases
}

// PlayingPatterns returns the pattern instances of the last cycle
func (s *Sequencer) PlayingPatterns() []PlayingPattern {
	return s.patterns
}

// PlayingPattern returns the first instance of a channel's pattern in the
// last cycle
func (s *Sequencer) PlayingPattern(ch, pattern int) (PlayingPattern, bool) {
	for _, p := range s.patterns {
		if p.Channel == ch && p.Pattern == pattern {
			return p, true
		}
	}
	return PlayingPattern{}, false
}

// PlayingPhrase returns the first instance of a channel's phrase in the last cycle
func (s *Sequencer) PlayingPhrase(ch, phrase int) (PlayingPhrase, bool) {
	for _, p := range s.phrases {
		if p.Channel == ch && p.Phrase == phrase {
			return p, true
		}
	}
	return PlayingPhrase{}, false
}

// PatternTick maps an absolute tick to a tick inside a channel's pattern,
// following the playing instance when there is one. Without a length
// override the tick is not wrapped, so recording past the end of the
// pattern makes it longer.
func (s *Sequencer) PatternTick(ch, pattern int, tick uint32) uint32 {
	c := s.Channel(ch)
	if c == nil || c.Pattern(pattern) == nil {
		return 0
	}
	p := &c.Patterns[pattern]
	length := p.Length()
	playing, ok := s.PlayingPattern(ch, pattern)
	switch {
	case !ok:
		return tick % length
	case p.LengthOverride() > 0:
		return playing.Position(tick, length)
	}
	return playing.Offset(tick)
}

// ControlChange queues a control change for the channel's output, sent at
// the start of the next cycle. Dropped when the queue is full.
func (s *Sequencer) ControlChange(ch int, controller, value uint8) {
	if ch < 0 || ch >= NumChannels || s.numControls >= maxPendingControls {
		return
	}
	s.controls[s.numControls] = midi.ControlChangeMsg(uint8(ch), controller, value)
	s.numControls++
}

// Process resolves the cycle and appends note and control messages to out
// (Port 0, the synth output).
func (s *Sequencer) Process(c *Cycle, out []midi.Timed) []midi.Timed {
	s.switched = false
	s.phrases = s.phrases[:0]
	s.patterns = s.patterns[:0]

	for i := 0; i < s.numControls; i++ {
		out = append(out, midi.Timed{Msg: s.controls[i]})
	}
	s.numControls = 0

	if s.flushPending || (!c.Rolling && s.wasRolling) {
		out = s.flush(out)
		s.flushPending = false
	}
	s.wasRolling = c.Rolling
	if !c.Rolling || c.Ticks.Empty() {
		return out
	}

	if s.mode == ModeTimeline {
		for ch := range s.channels {
			out = s.resolveTimeline(c, ch, out)
		}
		return out
	}
	return s.resolveSequences(c, out)
}

// flush releases every sounding note at the start of the buffer
func (s *Sequencer) flush(out []midi.Timed) []midi.Timed {
	for ch := range s.sounding {
		for key, on := range s.sounding[ch] {
			if on {
				out = append(out, midi.Timed{Msg: midi.NoteOffMsg(uint8(ch), uint8(key), 0)})
				s.sounding[ch][key] = false
			}
		}
	}
	return out
}

func nextBoundary(start, length, tick uint32) uint32 {
	if tick <= start || length == 0 {
		return start
	}
	n := (tick - start + length - 1) / length
	return start + n*length
}

func (s *Sequencer) resolveSequences(c *Cycle, out []midi.Timed) []midi.Timed {
	if s.sequenceStart > c.Ticks.Start {
		s.sequenceStart = c.Ticks.Start
	}

	if s.queued >= 0 {
		length := s.SequenceLength(s.playing)
		boundary := nextBoundary(s.sequenceStart, length, c.Ticks.Start)
		if boundary < c.Ticks.Stop {
			// the old sequence plays up to the boundary, the new one from it
			out = s.resolveSequence(c, s.playing, s.sequenceStart, boundary, out)
			debug.Log("seq", "sequence %d -> %d at tick %d", s.playing, s.queued, boundary)
			s.playing, s.queued = s.queued, -1
			s.sequenceStart = boundary
			s.switched = true
		}
	}

	return s.resolveSequence(c, s.playing, s.sequenceStart, Unbounded, out)
}

func (s *Sequencer) resolveSequence(c *Cycle, index int, origin, end uint32, out []midi.Timed) []midi.Timed {
	seq := &s.sequences[index]
	for ch := range s.channels {
		phrase, ok := seq.Plays(ch)
		if !ok {
			continue
		}
		out = s.resolvePhrase(c, ch, phrase, origin, 0, end, out)
	}
	return out
}

func (s *Sequencer) resolveTimeline(c *Cycle, ch int, out []midi.Timed) []midi.Timed {
	timeline := &s.channels[ch].Timeline
	length := timeline.Length()

	s.phraseBuf = collectInstances(s.phraseBuf[:0], c.Ticks, 0, 0, length, length, timeline.Events())
	for _, inst := range s.phraseBuf {
		if int(inst.Event.Row) >= NumPhrases {
			continue
		}
		out = s.resolvePhrase(c, ch, int(inst.Event.Row), inst.Start, inst.Phase, inst.Stop, out)
	}
	return out
}

// resolvePhrase plays a phrase instance that loops from origin until end,
// entering it phase ticks in
func (s *Sequencer) resolvePhrase(c *Cycle, ch, index int, origin, phase, end uint32, out []midi.Timed) []midi.Timed {
	phrase := &s.channels[ch].Phrases[index]
	s.phrases = append(s.phrases, PlayingPhrase{Channel: ch, Phrase: index, Start: origin, Stop: end, Phase: phase})

	s.patternBuf = collectInstances(s.patternBuf[:0], c.Ticks, origin, phase, end, phrase.Length(), phrase.Events())
	for _, inst := range s.patternBuf {
		pattern := int(inst.Event.Row)
		if pattern >= NumPatterns {
			continue
		}
		s.patterns = append(s.patterns, PlayingPattern{
			Channel: ch,
			Phrase:  index,
			Pattern: pattern,
			Start:   inst.Start,
			Stop:    inst.Stop,
			Phase:   inst.Phase,
			Range:   inst.Range,
		})
		out = s.resolvePattern(c, ch, pattern, inst.Start, inst.Phase, inst.Stop, out)
	}
	return out
}

// resolvePattern emits note ons and offs of a pattern instance
func (s *Sequencer) resolvePattern(c *Cycle, ch, index int, origin, phase, end uint32, out []midi.Timed) []midi.Timed {
	pattern := &s.channels[ch].Patterns[index]

	s.noteBuf = collectInstances(s.noteBuf[:0], c.Ticks, origin, phase, end, pattern.Length(), pattern.Events())
	for i := range s.noteBuf {
		note := &s.noteBuf[i]
		key := note.Event.Row & 0x7F
		if frame, ok := c.TickToFrame(note.Start); ok {
			out = append(out, midi.Timed{Frame: frame, Msg: midi.NoteOnMsg(uint8(ch), key, note.Event.Value.Velocity)})
			s.sounding[ch][key] = true
		}
		if frame, ok := c.TickToFrame(note.Stop); ok {
			out = append(out, midi.Timed{Frame: frame, Msg: midi.NoteOffMsg(uint8(ch), key, note.Event.Value.StopVelocity)})
			s.sounding[ch][key] = false
		}
	}
	return out
}

package sequencer

// Sequence chooses one phrase per channel plus an activity flag.
// A channel without a phrase is silent.
type Sequence struct {
	phrases [NumChannels]uint8
	set     [NumChannels]bool
	active  [NumChannels]bool
}

// NewSequence creates a sequence with every channel unset and active
func NewSequence() Sequence {
	var s Sequence
	for i := range s.active {
		s.active[i] = true
	}
	return s
}

// SetPhrase selects a phrase for a channel
func (s *Sequence) SetPhrase(ch, phrase int) {
	if ch < 0 || ch >= NumChannels || phrase < 0 || phrase >= NumPhrases {
		return
	}
	s.phrases[ch] = uint8(phrase)
	s.set[ch] = true
}

// UnsetPhrase silences a channel in this sequence
func (s *Sequence) UnsetPhrase(ch int) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	s.set[ch] = false
}

// Phrase returns the channel's phrase, ok=false if unset
func (s *Sequence) Phrase(ch int) (int, bool) {
	if ch < 0 || ch >= NumChannels || !s.set[ch] {
		return 0, false
	}
	return int(s.phrases[ch]), true
}

// SetActive sets the channel's active flag
func (s *Sequence) SetActive(ch int, active bool) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	s.active[ch] = active
}

// ToggleActive flips the channel's active flag
func (s *Sequence) ToggleActive(ch int) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	s.active[ch] = !s.active[ch]
}

// IsActive returns the channel's active flag
func (s *Sequence) IsActive(ch int) bool {
	return ch >= 0 && ch < NumChannels && s.active[ch]
}

// Plays reports whether a channel is active and has a phrase
func (s *Sequence) Plays(ch int) (int, bool) {
	phrase, ok := s.Phrase(ch)
	return phrase, ok && s.active[ch]
}

// Length returns the longest phrase among playing channels (at least one bar)
func (s *Sequence) Length(channels *[NumChannels]*Channel) uint32 {
	length := uint32(TicksPerBar)
	for ch := range channels {
		if phrase, ok := s.Plays(ch); ok {
			length = max(length, channels[ch].Phrases[phrase].Length())
		}
	}
	return length
}

package sequencer

// Bank sizes
const (
	NumChannels  = 16
	NumPatterns  = 5
	NumPhrases   = 5
	NumSequences = 5
)

// Channel is one instrument lane. It owns a fixed bank of patterns and
// phrases plus its timeline; nothing is allocated after construction.
type Channel struct {
	Index    int
	Patterns [NumPatterns]Pattern
	Phrases  [NumPhrases]Phrase
	Timeline Timeline
}

// NewChannel creates a channel with default content: phrase 0 loops
// pattern 0 over its whole length.
func NewChannel(index int) *Channel {
	c := &Channel{Index: index}
	for i := range c.Phrases {
		c.Phrases[i] = NewPhrase()
	}
	c.Phrases[0].Place(0, 0, 0)
	return c
}

// Pattern returns a pattern by index (nil if out of range)
func (c *Channel) Pattern(i int) *Pattern {
	if i < 0 || i >= NumPatterns {
		return nil
	}
	return &c.Patterns[i]
}

// Phrase returns a phrase by index (nil if out of range)
func (c *Channel) Phrase(i int) *Phrase {
	if i < 0 || i >= NumPhrases {
		return nil
	}
	return &c.Phrases[i]
}

// ContentMask returns which patterns have notes
func (c *Channel) ContentMask() [NumPatterns]bool {
	var mask [NumPatterns]bool
	for i := range c.Patterns {
		mask[i] = c.Patterns[i].HasContent()
	}
	return mask
}

package sequencer

// DefaultPhraseBars is the length of a fresh phrase
const DefaultPhraseBars = 4

// Phrase arranges pattern placements; the row is the pattern index.
type Phrase struct {
	Loopable[Placement]
	length uint32
}

// NewPhrase creates an empty phrase of the default length
func NewPhrase() Phrase {
	return Phrase{length: DefaultPhraseBars * TicksPerBar}
}

// Length returns the phrase length in ticks
func (p *Phrase) Length() uint32 {
	if p.length == 0 {
		return DefaultPhraseBars * TicksPerBar
	}
	return p.length
}

// SetLength sets the phrase length in bars (minimum one)
func (p *Phrase) SetLength(bars uint32) {
	p.length = max(bars, 1) * TicksPerBar
}

// Place puts pattern at [start, stop) inside the phrase; stop <= start loops
func (p *Phrase) Place(pattern int, start, stop uint32) {
	p.AddComplete(NewEvent(start, stop, uint8(pattern), Placement{}), p.Length())
}

// Reset removes all placements and restores the default length
func (p *Phrase) Reset() {
	p.Clear()
	p.length = DefaultPhraseBars * TicksPerBar
}

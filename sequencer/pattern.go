package sequencer

// Pattern is one instrument take: notes keyed by MIDI key (row).
// Its length follows the content unless an explicit override is set.
type Pattern struct {
	Loopable[Note]
	lengthOverride uint32 // 0 = derived from content
}

// Length returns the loop length of the pattern in ticks (at least one bar)
func (p *Pattern) Length() uint32 {
	if p.lengthOverride > 0 {
		return p.lengthOverride
	}
	return roundUpToBar(p.furthestTick())
}

// SetLengthOverride fixes the pattern length to a number of bars; 0 clears it
func (p *Pattern) SetLengthOverride(bars uint32) {
	p.lengthOverride = bars * TicksPerBar
}

// LengthOverride returns the override in bars (0 = none)
func (p *Pattern) LengthOverride() uint32 {
	return p.lengthOverride / TicksPerBar
}

// AddNote inserts a closed note
func (p *Pattern) AddNote(start, stop uint32, key, velocity uint8) {
	length := max(p.Length(), roundUpToBar(max(start+1, stop)))
	p.AddComplete(NewEvent(start, stop, key, Note{Velocity: velocity, StopVelocity: velocity}), length)
}

// StartNote begins recording a held note. A start past the end grows the
// pattern unless its length is fixed.
func (p *Pattern) StartNote(start uint32, key, velocity uint8) {
	p.AddOpen(NewEvent(start, start, key, Note{Velocity: velocity}), p.lengthFor(start+1))
}

// StopNote closes the held note on key. Returns false if none was held.
func (p *Pattern) StopNote(stop uint32, key, velocity uint8) bool {
	return p.CloseOpen(key, stop, p.lengthFor(stop), func(n *Note) {
		n.StopVelocity = velocity
	})
}

// lengthFor returns the length the pattern has once it reaches tick
func (p *Pattern) lengthFor(tick uint32) uint32 {
	if p.lengthOverride > 0 {
		return p.lengthOverride
	}
	return max(p.Length(), roundUpToBar(tick))
}

// Reset removes all notes and the length override
func (p *Pattern) Reset() {
	p.Clear()
	p.lengthOverride = 0
}

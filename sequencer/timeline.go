package sequencer

// TimelineMargin is appended after the furthest placement
const TimelineMargin = 4 * TicksPerBar

// Timeline arranges phrase placements of one channel across song time.
// The row is the phrase index; the length is open-ended.
type Timeline struct {
	Loopable[Placement]
}

// Length returns the furthest placement end plus a margin
func (t *Timeline) Length() uint32 {
	end := t.furthestTick()
	if end == 0 {
		return TimelineMargin
	}
	return roundUpToBar(end) + TimelineMargin
}

// Place puts phrase at [start, stop) on the timeline
func (t *Timeline) Place(phrase int, start, stop uint32) {
	if stop <= start {
		// the timeline never wraps
		return
	}
	t.AddComplete(NewEvent(start, stop, uint8(phrase), Placement{}), max(t.Length(), roundUpToBar(stop)+TimelineMargin))
}

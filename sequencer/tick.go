package sequencer

// Musical clock resolution
const (
	TicksPerBeat = 1920
	BeatsPerBar  = 4
	TicksPerBar  = TicksPerBeat * BeatsPerBar
)

// Unbounded marks an instance with no end (a sequence phrase that loops until switched)
const Unbounded = ^uint32(0)

// TickRange is a half-open interval [Start, Stop).
// Stop <= Start encodes a range that wraps past the container end back to 0.
type TickRange struct {
	Start uint32
	Stop  uint32
}

// NewTickRange creates a range
func NewTickRange(start, stop uint32) TickRange {
	return TickRange{Start: start, Stop: stop}
}

// IsLooping returns true if the range wraps around the container end
func (r TickRange) IsLooping() bool {
	return r.Stop <= r.Start
}

// Empty returns true for a non-looping range without ticks.
// Only meaningful for absolute windows, which never loop.
func (r TickRange) Empty() bool {
	return r.Stop <= r.Start
}

// Length returns the number of ticks covered, given the container length
func (r TickRange) Length(containerLength uint32) uint32 {
	if r.IsLooping() {
		return r.Stop + containerLength - r.Start
	}
	return r.Stop - r.Start
}

// Contains reports whether tick lies inside a non-looping range
func (r TickRange) Contains(tick uint32) bool {
	return tick >= r.Start && tick < r.Stop
}

// Overlaps reports whether two non-looping ranges share a tick
func (r TickRange) Overlaps(o TickRange) bool {
	return r.Start < o.Stop && o.Start < r.Stop
}

// Intersect returns the overlap of two non-looping ranges (Empty if none)
func (r TickRange) Intersect(o TickRange) TickRange {
	out := TickRange{Start: max(r.Start, o.Start), Stop: min(r.Stop, o.Stop)}
	if out.Stop < out.Start {
		out.Stop = out.Start
	}
	return out
}

// segments splits a possibly looping range into at most two linear pieces
// inside [0, containerLength).
func (r TickRange) segments(containerLength uint32) (a, b TickRange, n int) {
	if !r.IsLooping() {
		return r, TickRange{}, 1
	}
	a = TickRange{Start: r.Start, Stop: containerLength}
	b = TickRange{Start: 0, Stop: r.Stop}
	if b.Stop == 0 {
		return a, TickRange{}, 1
	}
	if a.Start >= a.Stop {
		return b, TickRange{}, 1
	}
	return a, b, 2
}

// roundUpToBar rounds a tick count up to the next bar multiple (minimum one bar)
func roundUpToBar(ticks uint32) uint32 {
	bars := (ticks + TicksPerBar - 1) / TicksPerBar
	if bars == 0 {
		bars = 1
	}
	return bars * TicksPerBar
}

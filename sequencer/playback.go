package sequencer

// Instance is one occurrence of a container event in absolute time.
// Stop is truncated to the end of the parent instance. Range is the part of
// the cycle window the occurrence covers; it is empty when only the stop
// tick falls into the window. Phase is how far into the event the
// occurrence begins: non-zero when the event started before the parent did.
type Instance[P any] struct {
	Event Event[P]
	Start uint32
	Stop  uint32
	Phase uint32
	Range TickRange
}

// StartsIn reports whether the occurrence begins inside the window
func (i *Instance[P]) StartsIn(window TickRange) bool {
	return window.Contains(i.Start)
}

// StopsIn reports whether the occurrence ends inside the window
func (i *Instance[P]) StopsIn(window TickRange) bool {
	return window.Contains(i.Stop)
}

// LoopWindow is the part of an absolute window that falls into one
// iteration of a looping container.
type LoopWindow struct {
	Iteration uint32
	Absolute  TickRange
	Relative  TickRange
}

// LoopWindows splits an absolute window into per-iteration pieces of a
// container of the given length that started looping at origin.
func LoopWindows(window TickRange, origin, length uint32) []LoopWindow {
	if length == 0 || window.Empty() || window.Stop <= origin {
		return nil
	}
	from := max(window.Start, origin)
	var out []LoopWindow
	for k := (from - origin) / length; ; k++ {
		base := origin + k*length
		if base >= window.Stop {
			break
		}
		abs := window.Intersect(TickRange{Start: base, Stop: base + length})
		if abs.Empty() {
			continue
		}
		out = append(out, LoopWindow{Iteration: k, Absolute: abs, Relative: TickRange{Start: abs.Start - base, Stop: abs.Stop - base}})
	}
	return out
}

// collectInstances appends every occurrence of events that sounds in window
// or stops in it. The container loops with length until end; at origin it is
// phase ticks into an iteration.
//
// Each loop iteration that can reach the window is visited once, so a window
// straddling a loop point is split implicitly and no occurrence is reported
// twice. Occurrences that began before origin, like the wrapped tail of a
// looping event, play from origin.
func collectInstances[P any](buf []Instance[P], window TickRange, origin, phase, end, length uint32, events []Event[P]) []Instance[P] {
	if length == 0 || window.Empty() || window.Stop <= origin || window.Start > end || end <= origin {
		return buf
	}

	l := int64(length)
	lo, hi := int64(origin), int64(end)
	zero := lo - int64(phase%length)

	from := max(int64(window.Start), lo)
	// an occurrence can last up to a full iteration beyond the one it starts in
	first := (from-zero)/l - 2
	last := (min(int64(window.Stop), hi) - 1 - zero) / l

	for k := first; k <= last; k++ {
		base := zero + k*l
		for i := range events {
			ev := &events[i]
			if ev.Open || ev.Start >= length {
				continue
			}
			at := base + int64(ev.Start)
			stop := at + int64(ev.Length(length))
			if stop <= lo {
				continue
			}
			start := max(at, lo)
			if start >= hi || start >= int64(window.Stop) {
				continue
			}
			stop = min(stop, hi)
			if stop < int64(window.Start) {
				continue
			}
			buf = append(buf, Instance[P]{
				Event: *ev,
				Start: uint32(start),
				Stop:  uint32(stop),
				Phase: uint32(start - at),
				Range: window.Intersect(TickRange{Start: uint32(start), Stop: uint32(stop)}),
			})
		}
	}
	return buf
}

// PlayingPhrase is a phrase instance sounding during the current cycle
type PlayingPhrase struct {
	Channel int
	Phrase  int
	Start   uint32 // absolute start of the instance
	Stop    uint32 // absolute end of the instance (Unbounded in sequence mode)
	Phase   uint32 // phrase tick at Start
}

// PlayingPattern is a pattern instance sounding during the current cycle
type PlayingPattern struct {
	Channel int
	Phrase  int
	Pattern int
	Start   uint32 // absolute start of the instance
	Stop    uint32
	Phase   uint32 // pattern tick at Start, before wrapping
	Range   TickRange
}

// Offset returns the unwrapped pattern tick of an absolute tick inside the
// instance
func (p *PlayingPattern) Offset(tick uint32) uint32 {
	if tick < p.Start {
		return p.Phase
	}
	return tick - p.Start + p.Phase
}

// Position returns the pattern-relative tick of an absolute tick
func (p *PlayingPattern) Position(tick, length uint32) uint32 {
	if length == 0 {
		return 0
	}
	return p.Offset(tick) % length
}

// Position returns the phrase-relative tick of an absolute tick
func (p *PlayingPhrase) Position(tick, length uint32) uint32 {
	if length == 0 {
		return 0
	}
	if tick < p.Start {
		return p.Phase % length
	}
	return (tick - p.Start + p.Phase) % length
}

package sequencer

// Position is what the transport reports at the start of a callback
type Position struct {
	Frame     uint64
	FrameRate uint32
	BPM       float64
	Rolling   bool
}

// FrameToTick converts an absolute frame to an absolute tick
func FrameToTick(frame uint64, frameRate uint32, bpm float64) uint32 {
	if frameRate == 0 {
		return 0
	}
	return uint32(float64(frame) / float64(frameRate) / 60 * bpm * TicksPerBeat)
}

// BBT converts an absolute frame to bar, beat (both 1-based) and tick.
// Runs inside the real-time callback, so it stays allocation free.
func BBT(frame uint64, frameRate uint32, bpm float64, ticksPerBeat uint32) (bar, beat, tick uint32) {
	abs := uint64(float64(frame) / float64(max(frameRate, 1)) / 60 * bpm * float64(ticksPerBeat))
	beats := abs / uint64(max(ticksPerBeat, 1))
	return uint32(beats/BeatsPerBar) + 1, uint32(beats%BeatsPerBar) + 1, uint32(abs % uint64(max(ticksPerBeat, 1)))
}

// Cycle describes one driver callback: the absolute tick window covered by the
// buffer, wall clock bounds in microseconds and the transport state.
type Cycle struct {
	Ticks     TickRange
	TimeStart uint64
	TimeStop  uint64
	Frames    uint32
	FrameRate uint32
	Rolling   bool
}

// NewCycle builds the cycle for a buffer of frames starting at pos.
// now is the wall clock time of the buffer start in microseconds.
func NewCycle(pos Position, frames uint32, now uint64) Cycle {
	start := FrameToTick(pos.Frame, pos.FrameRate, pos.BPM)
	stop := start
	if pos.Rolling {
		stop = FrameToTick(pos.Frame+uint64(frames), pos.FrameRate, pos.BPM)
	}

	var duration uint64
	if pos.FrameRate > 0 {
		duration = uint64(frames) * 1_000_000 / uint64(pos.FrameRate)
	}

	return Cycle{
		Ticks:     TickRange{Start: start, Stop: stop},
		TimeStart: now,
		TimeStop:  now + duration,
		Frames:    frames,
		FrameRate: pos.FrameRate,
		Rolling:   pos.Rolling,
	}
}

// TickToFrame maps an absolute tick inside the window to a frame offset.
// ok is false when the tick lies outside the window.
func (c *Cycle) TickToFrame(tick uint32) (uint32, bool) {
	if !c.Ticks.Contains(tick) {
		return 0, false
	}
	span := uint64(c.Ticks.Stop - c.Ticks.Start)
	return uint32(uint64(tick-c.Ticks.Start) * uint64(c.Frames) / span), true
}

// FrameToTime returns the wall clock time of a frame offset in microseconds
func (c *Cycle) FrameToTime(frame uint32) uint64 {
	if c.Frames == 0 {
		return c.TimeStart
	}
	return c.TimeStart + uint64(frame)*(c.TimeStop-c.TimeStart)/uint64(c.Frames)
}

// TimeToFrame maps a wall clock time inside the buffer to a frame offset.
// ok is false when the time lies outside the buffer.
func (c *Cycle) TimeToFrame(time uint64) (uint32, bool) {
	if time < c.TimeStart || time >= c.TimeStop {
		return 0, false
	}
	return uint32((time - c.TimeStart) * uint64(c.Frames) / (c.TimeStop - c.TimeStart)), true
}

package engine

import (
	"fmt"
	"sync"

	"apc-sequence/sequencer"
)

// BPM limits
const (
	MinBPM = 20
	MaxBPM = 300
)

// Clock is the internal transport. It counts frames while rolling and is
// advanced once per cycle.
type Clock struct {
	mu        sync.Mutex
	frame     uint64
	frameRate uint32
	bpm       float64
	rolling   bool
}

// NewClock creates a stopped clock at frame 0
func NewClock(frameRate uint32, bpm float64) *Clock {
	return &Clock{frameRate: max(frameRate, 1), bpm: clampBPM(bpm)}
}

func clampBPM(bpm float64) float64 {
	return min(max(bpm, MinBPM), MaxBPM)
}

func (c *Clock) Play() {
	c.mu.Lock()
	c.rolling = true
	c.mu.Unlock()
}

func (c *Clock) Stop() {
	c.mu.Lock()
	c.rolling = false
	c.mu.Unlock()
}

// Rewind moves the transport back to frame 0
func (c *Clock) Rewind() {
	c.mu.Lock()
	c.frame = 0
	c.mu.Unlock()
}

func (c *Clock) Rolling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rolling
}

// SetBPM changes the tempo keeping the current tick in place
func (c *Clock) SetBPM(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bpm = clampBPM(bpm)
	c.frame = uint64(float64(c.frame) * c.bpm / bpm)
	c.bpm = bpm
}

func (c *Clock) BPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// Position returns the transport state at the start of the next cycle
func (c *Clock) Position() sequencer.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sequencer.Position{Frame: c.frame, FrameRate: c.frameRate, BPM: c.bpm, Rolling: c.rolling}
}

// Advance moves the transport past a processed buffer
func (c *Clock) Advance(frames uint32) {
	c.mu.Lock()
	if c.rolling {
		c.frame += uint64(frames)
	}
	c.mu.Unlock()
}

// BBT formats the position as bar.beat.tick
func (c *Clock) BBT() string {
	pos := c.Position()
	bar, beat, tick := sequencer.BBT(pos.Frame, pos.FrameRate, pos.BPM, sequencer.TicksPerBeat)
	return fmt.Sprintf("%d.%d.%04d", bar, beat, tick)
}

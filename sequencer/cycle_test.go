package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameToTick(t *testing.T) {
	assert.Equal(t, uint32(0), FrameToTick(0, 48000, 120))
	assert.Equal(t, uint32(2*TicksPerBeat), FrameToTick(48000, 48000, 120))
	assert.Equal(t, uint32(0), FrameToTick(48000, 0, 120))
}

func TestBBT(t *testing.T) {
	bar, beat, tick := BBT(0, 48000, 120, TicksPerBeat)
	assert.Equal(t, [3]uint32{1, 1, 0}, [3]uint32{bar, beat, tick})

	bar, beat, tick = BBT(48000, 48000, 120, TicksPerBeat)
	assert.Equal(t, [3]uint32{1, 3, 0}, [3]uint32{bar, beat, tick})

	bar, beat, tick = BBT(96000, 48000, 120, TicksPerBeat)
	assert.Equal(t, [3]uint32{2, 1, 0}, [3]uint32{bar, beat, tick})
}

func TestNewCycle(t *testing.T) {
	c := NewCycle(Position{Frame: 48000, FrameRate: 48000, BPM: 120, Rolling: true}, 480, 1_000_000)
	assert.Equal(t, uint32(3840), c.Ticks.Start)
	assert.Greater(t, c.Ticks.Stop, c.Ticks.Start)
	assert.Equal(t, uint64(1_000_000), c.TimeStart)
	assert.Equal(t, uint64(1_010_000), c.TimeStop)

	stopped := NewCycle(Position{Frame: 48000, FrameRate: 48000, BPM: 120}, 480, 0)
	assert.True(t, stopped.Ticks.Empty())
	assert.False(t, stopped.Rolling)
}

func TestCycleConversions(t *testing.T) {
	c := Cycle{
		Ticks:     TickRange{Start: 1000, Stop: 2000},
		TimeStart: 0,
		TimeStop:  10_000,
		Frames:    500,
	}

	frame, ok := c.TickToFrame(1500)
	assert.True(t, ok)
	assert.Equal(t, uint32(250), frame)

	_, ok = c.TickToFrame(2000)
	assert.False(t, ok)
	_, ok = c.TickToFrame(999)
	assert.False(t, ok)

	frame, ok = c.TimeToFrame(5000)
	assert.True(t, ok)
	assert.Equal(t, uint32(250), frame)
	_, ok = c.TimeToFrame(10_000)
	assert.False(t, ok)

	assert.Equal(t, uint64(2000), c.FrameToTime(100))
}

package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopWindowsStraddle(t *testing.T) {
	windows := LoopWindows(TickRange{Start: 15, Stop: 25}, 0, 20)

	require.Len(t, windows, 2)
	assert.Equal(t, LoopWindow{
		Iteration: 0,
		Absolute:  TickRange{Start: 15, Stop: 20},
		Relative:  TickRange{Start: 15, Stop: 20},
	}, windows[0])
	assert.Equal(t, LoopWindow{
		Iteration: 1,
		Absolute:  TickRange{Start: 20, Stop: 25},
		Relative:  TickRange{Start: 0, Stop: 5},
	}, windows[1])
}

func TestLoopWindowsBeforeOrigin(t *testing.T) {
	assert.Empty(t, LoopWindows(TickRange{Start: 0, Stop: 10}, 10, 20))

	windows := LoopWindows(TickRange{Start: 5, Stop: 15}, 10, 20)
	require.Len(t, windows, 1)
	assert.Equal(t, TickRange{Start: 0, Stop: 5}, windows[0].Relative)
}

func TestCollectInstancesStraddle(t *testing.T) {
	events := []Event[Note]{NewEvent(10, 20, 60, Note{})}
	window := TickRange{Start: 15, Stop: 25}

	got := collectInstances(nil, window, 0, 0, Unbounded, 20, events)

	require.Len(t, got, 1, "the event is reported once")
	assert.Equal(t, uint32(10), got[0].Start)
	assert.Equal(t, uint32(20), got[0].Stop)
	assert.False(t, got[0].StartsIn(window))
	assert.True(t, got[0].StopsIn(window))
	assert.Equal(t, TickRange{Start: 15, Stop: 20}, got[0].Range)
}

func TestCollectInstancesNextIteration(t *testing.T) {
	events := []Event[Note]{NewEvent(0, 5, 60, Note{})}
	window := TickRange{Start: 15, Stop: 25}

	got := collectInstances(nil, window, 0, 0, Unbounded, 20, events)

	require.Len(t, got, 1)
	assert.Equal(t, uint32(20), got[0].Start)
	assert.Equal(t, uint32(25), got[0].Stop)
	assert.True(t, got[0].StartsIn(window))
	assert.False(t, got[0].StopsIn(window))
}

func TestCollectInstancesLoopingEvent(t *testing.T) {
	events := []Event[Note]{NewEvent(15, 5, 60, Note{})}

	got := collectInstances(nil, TickRange{Start: 18, Stop: 27}, 0, 0, Unbounded, 20, events)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(15), got[0].Start)
	assert.Equal(t, uint32(25), got[0].Stop)

	// the wrapped tail of the iteration before the origin plays from the origin
	got = collectInstances(got[:0], TickRange{Start: 0, Stop: 6}, 0, 0, Unbounded, 20, events)
	require.Len(t, got, 1)
	assert.Equal(t, Instance[Note]{Event: events[0], Start: 0, Stop: 5, Phase: 5, Range: TickRange{Start: 0, Stop: 5}}, got[0])

	got = collectInstances(got[:0], TickRange{Start: 100, Stop: 110}, 100, 0, Unbounded, 20, events)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(100), got[0].Start)
	assert.Equal(t, uint32(105), got[0].Stop)
}

func TestCollectInstancesPhase(t *testing.T) {
	events := []Event[Note]{NewEvent(0, 4, 60, Note{}), NewEvent(8, 12, 61, Note{})}

	// entering the container 10 ticks in: the second note is already sounding
	got := collectInstances(nil, TickRange{Start: 50, Stop: 62}, 50, 10, Unbounded, 20, events)
	require.Len(t, got, 2)
	assert.Equal(t, uint8(61), got[0].Event.Row)
	assert.Equal(t, uint32(50), got[0].Start)
	assert.Equal(t, uint32(52), got[0].Stop)
	assert.Equal(t, uint32(2), got[0].Phase)
	assert.Equal(t, uint8(60), got[1].Event.Row)
	assert.Equal(t, uint32(60), got[1].Start)
	assert.Equal(t, uint32(0), got[1].Phase)
}

func TestCollectInstancesTruncatedByParent(t *testing.T) {
	events := []Event[Note]{NewEvent(15, 5, 60, Note{})}
	window := TickRange{Start: 20, Stop: 30}

	got := collectInstances(nil, window, 0, 0, 22, 20, events)

	require.Len(t, got, 1)
	assert.Equal(t, uint32(22), got[0].Stop)
	assert.True(t, got[0].StopsIn(window))
}

func TestCollectInstancesEveryIterationOnce(t *testing.T) {
	events := []Event[Note]{NewEvent(0, 10, 60, Note{}), NewEvent(10, 20, 61, Note{})}

	ons := map[uint32]int{}
	offs := map[uint32]int{}
	var buf []Instance[Note]
	for start := uint32(0); start < 200; start += 7 {
		window := TickRange{Start: start, Stop: start + 7}
		buf = collectInstances(buf[:0], window, 0, 0, Unbounded, 20, events)
		for i := range buf {
			if buf[i].StartsIn(window) {
				ons[buf[i].Start]++
			}
			if buf[i].StopsIn(window) {
				offs[buf[i].Stop]++
			}
		}
	}

	for tick := uint32(0); tick < 196; tick += 10 {
		assert.Equal(t, 1, ons[tick], "note on at %d", tick)
	}
	for tick := uint32(10); tick < 196; tick += 10 {
		assert.Equal(t, 1, offs[tick], "note off at %d", tick)
	}
}

func TestPlayingPatternPosition(t *testing.T) {
	p := PlayingPattern{Start: 1000}
	assert.Equal(t, uint32(0), p.Position(500, 100))
	assert.Equal(t, uint32(50), p.Position(1250, 100))
	assert.Equal(t, uint32(250), p.Offset(1250))

	tail := PlayingPattern{Start: 1000, Phase: 80}
	assert.Equal(t, uint32(30), tail.Position(1050, 100))
	assert.Equal(t, uint32(130), tail.Offset(1050))
}

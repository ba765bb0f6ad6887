package surface

// Relative encoder settings
const (
	KnobStepThreshold = 8
	KnobIdle          = 500_000 // µs without turning before a turn steps at once
	NumKnobs          = 17
)

// DecodeRelative decodes a 7 bit two's complement encoder value
func DecodeRelative(raw uint8) int {
	return int(int8(raw<<1) / 2)
}

// Knobs turns relative encoder deltas into discrete steps
type Knobs struct {
	acc    [NumKnobs]int
	last   [NumKnobs]uint64
	turned [NumKnobs]bool
}

// Turn feeds a raw knob value and returns the number of steps to apply.
// The first turn after the knob rested for KnobIdle steps once right away;
// after that deltas accumulate in both directions and every
// KnobStepThreshold makes a step, the remainder carried over.
func (k *Knobs) Turn(knob int, raw uint8, now uint64) int {
	if knob < 0 || knob >= NumKnobs {
		return 0
	}
	delta := DecodeRelative(raw)
	if delta == 0 {
		return 0
	}

	idle := !k.turned[knob] || now-k.last[knob] >= KnobIdle
	k.turned[knob] = true
	k.last[knob] = now

	if idle {
		k.acc[knob] = 0
		if delta > 0 {
			return 1
		}
		return -1
	}

	// a reversed turn eats the remainder before stepping back
	k.acc[knob] += delta
	steps := k.acc[knob] / KnobStepThreshold
	k.acc[knob] -= steps * KnobStepThreshold
	return steps
}

// Accumulated returns the delta not yet turned into steps
func (k *Knobs) Accumulated(knob int) int {
	if knob < 0 || knob >= NumKnobs {
		return 0
	}
	return k.acc[knob]
}

package midi

// ledUnknown marks a cell whose device state is unknown. It is outside the
// palette, so the next Output sends the cell whatever was drawn.
const ledUnknown uint8 = 0xFF

// LEDs is a rectangle of LEDs addressed as channel+x, note+y. It keeps what
// was last sent (state) and what is being drawn for the next output (next).
type LEDs struct {
	width, height int
	channel, note uint8
	state, next   []uint8
}

func newLEDs(width, height int, channel, note uint8) LEDs {
	l := LEDs{
		width:   width,
		height:  height,
		channel: channel,
		note:    note,
		state:   make([]uint8, width*height),
		next:    make([]uint8, width*height),
	}
	l.Reset()
	return l
}

// Width returns the number of columns
func (l *LEDs) Width() int { return l.width }

// Height returns the number of rows
func (l *LEDs) Height() int { return l.height }

func (l *LEDs) set(x, y int, color uint8) {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return
	}
	l.next[y*l.width+x] = color & 0x7F
}

// Pending returns the color drawn for the next output
func (l *LEDs) Pending(x, y int) uint8 {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return LEDOff
	}
	return l.next[y*l.width+x]
}

// Sent returns the color last sent to the device (0xFF if unknown)
func (l *LEDs) Sent(x, y int) uint8 {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return ledUnknown
	}
	return l.state[y*l.width+x]
}

// Fill draws every cell
func (l *LEDs) Fill(color uint8) {
	for i := range l.next {
		l.next[i] = color & 0x7F
	}
}

// Output appends one message per cell that differs from what the device
// shows, then starts a fresh frame with every cell off.
func (l *LEDs) Output(frame uint32, port int, out []Timed) []Timed {
	for i, color := range l.next {
		if color != l.state[i] {
			channel := l.channel + uint8(i%l.width)
			note := l.note + uint8(i/l.width)
			msg := NoteOnMsg(channel, note, color)
			if color == LEDOff {
				msg = NoteOffMsg(channel, note, 0)
			}
			out = append(out, Timed{Frame: frame, Port: port, Msg: msg})
			l.state[i] = color
		}
		l.next[i] = LEDOff
	}
	return out
}

// Reset forgets the device state so that the next output repaints every cell
func (l *LEDs) Reset() {
	for i := range l.state {
		l.state[i] = ledUnknown
	}
}

// Single is one LED at a fixed note and channel
type Single struct{ LEDs }

// NewSingle creates a single LED
func NewSingle(channel, note uint8) *Single {
	return &Single{newLEDs(1, 1, channel, note)}
}

// Draw sets the LED color
func (s *Single) Draw(color uint8) { s.set(0, 0, color) }

// Row is a row of 8 LEDs, one per track, sharing a note
type Row struct{ LEDs }

// NewRow creates a track row at note
func NewRow(note uint8) *Row {
	return &Row{newLEDs(8, 1, 0, note)}
}

// Draw sets the color of column x
func (r *Row) Draw(x int, color uint8) { r.set(x, 0, color) }

// Side is a column of 5 LEDs on channel 0
type Side struct{ LEDs }

// NewSide creates a column starting at note
func NewSide(note uint8) *Side {
	return &Side{newLEDs(1, 5, 0, note)}
}

// Draw sets the color of row y
func (s *Side) Draw(y int, color uint8) { s.set(0, y, color) }

// Grid is the 8x5 clip matrix
type Grid struct{ LEDs }

// NewGrid creates a grid whose rows start at note
func NewGrid(note uint8) *Grid {
	return &Grid{newLEDs(8, 5, 0, note)}
}

// Draw sets the color of cell (x, y)
func (g *Grid) Draw(x, y int, color uint8) { g.set(x, y, color) }

// APC LED layout
const (
	NoteClipStop    uint8 = 0x34
	NoteGrid        uint8 = 0x35
	NoteSide        uint8 = 0x52
	NoteTrackSelect uint8 = 0x33
	NoteActivator   uint8 = 0x32
	NoteSolo        uint8 = 0x31
	NoteArm         uint8 = 0x30
	NoteMaster      uint8 = 0x50
	NotePlay        uint8 = 0x5B
	NoteStop        uint8 = 0x5C
	NoteRecord      uint8 = 0x5D
)

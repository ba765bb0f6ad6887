package midi

// HandshakeState is the identification progress of a controller
type HandshakeState int

const (
	HandshakeUninitialized HandshakeState = iota
	HandshakeAwaiting
	HandshakeIdentifying
	HandshakeReady
)

func (s HandshakeState) String() string {
	switch s {
	case HandshakeAwaiting:
		return "awaiting"
	case HandshakeIdentifying:
		return "identifying"
	case HandshakeReady:
		return "ready"
	}
	return "uninitialized"
}

// IdentifyCycles is how many cycles the introduction is repeated
const IdentifyCycles = 3

// Handshake identifies a controller: inquiry until a matching reply, then
// the introduction for IdentifyCycles cycles.
type Handshake struct {
	state     HandshakeState
	remaining int
	deviceID  uint8
	localID   uint8
	mode      uint8
}

// NewHandshake creates a handshake for a device id and introduction mode
func NewHandshake(deviceID, mode uint8) Handshake {
	return Handshake{deviceID: deviceID, mode: mode}
}

// State returns the current state
func (h *Handshake) State() HandshakeState {
	return h.state
}

// Ready reports whether the device is identified
func (h *Handshake) Ready() bool {
	return h.state == HandshakeReady
}

// LocalID returns the id the device reported
func (h *Handshake) LocalID() uint8 {
	return h.localID
}

// Receive handles an identity reply. It returns true when the reply
// identified the device; the caller must then reset its LEDs.
func (h *Handshake) Receive(ev InputEvent) bool {
	if ev.Type != InputIdentity || ev.DeviceID != h.deviceID {
		return false
	}
	if h.state == HandshakeIdentifying || h.state == HandshakeReady {
		return false
	}
	h.localID = ev.LocalID
	h.state = HandshakeIdentifying
	h.remaining = IdentifyCycles
	return true
}

// Cycle returns the message to send this cycle, ok=false once ready
func (h *Handshake) Cycle() (Message, bool) {
	switch h.state {
	case HandshakeUninitialized, HandshakeAwaiting:
		h.state = HandshakeAwaiting
		return InquiryMsg(), true
	case HandshakeIdentifying:
		h.remaining--
		if h.remaining <= 0 {
			h.state = HandshakeReady
		}
		return IntroductionMsg(h.localID, h.deviceID, h.mode), true
	}
	return Message{}, false
}

// Reset restarts identification, e.g. after a reconnect
func (h *Handshake) Reset() {
	h.state = HandshakeUninitialized
	h.remaining = 0
	h.localID = 0
}

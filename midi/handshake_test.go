package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshake(t *testing.T) {
	h := NewHandshake(DeviceAPC40, ModePartialHostLEDs)
	assert.Equal(t, HandshakeUninitialized, h.State())

	for range 3 {
		msg, ok := h.Cycle()
		require.True(t, ok)
		assert.Equal(t, InquiryMsg(), msg, "inquiry every cycle until a reply")
	}
	assert.Equal(t, HandshakeAwaiting, h.State())

	assert.False(t, h.Receive(InputEvent{Type: InputIdentity, DeviceID: DeviceAPC20, LocalID: 1}))
	assert.False(t, h.Receive(InputEvent{Type: InputPressed}))
	assert.True(t, h.Receive(InputEvent{Type: InputIdentity, DeviceID: DeviceAPC40, LocalID: 2}))
	assert.Equal(t, HandshakeIdentifying, h.State())
	assert.Equal(t, uint8(2), h.LocalID())

	// late replies to earlier inquiries are ignored
	assert.False(t, h.Receive(InputEvent{Type: InputIdentity, DeviceID: DeviceAPC40, LocalID: 3}))

	for i := range IdentifyCycles {
		assert.False(t, h.Ready())
		msg, ok := h.Cycle()
		require.True(t, ok, "cycle %d", i)
		assert.Equal(t, IntroductionMsg(2, DeviceAPC40, ModePartialHostLEDs), msg)
	}
	assert.True(t, h.Ready())

	_, ok := h.Cycle()
	assert.False(t, ok)

	h.Reset()
	assert.Equal(t, HandshakeUninitialized, h.State())
	msg, ok := h.Cycle()
	require.True(t, ok)
	assert.Equal(t, InquiryMsg(), msg)
}

package midi

import "strings"

// APC LED palette (velocity values of an LED note on)
const (
	LEDOff         uint8 = 0
	LEDGreen       uint8 = 1
	LEDGreenBlink  uint8 = 2
	LEDRed         uint8 = 3
	LEDRedBlink    uint8 = 4
	LEDYellow      uint8 = 5
	LEDYellowBlink uint8 = 6
)

// Akai identifiers used by the identification handshake
const (
	ManufacturerAkai uint8 = 0x47
	DeviceAPC40      uint8 = 0x73
	DeviceAPC20      uint8 = 0x7B
)

// Introduction mode bytes
const (
	ModePartialHostLEDs uint8 = 0x41
	ModeFullHostLEDs    uint8 = 0x42
)

// Model identifies a supported controller model
type Model int

const (
	ModelUnknown Model = iota
	ModelAPC40
	ModelAPC20
)

func (m Model) String() string {
	switch m {
	case ModelAPC40:
		return "apc40"
	case ModelAPC20:
		return "apc20"
	}
	return "unknown"
}

// ParseModel maps a config name to a model
func ParseModel(name string) Model {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "apc40", "apc40mk1":
		return ModelAPC40
	case "apc20":
		return ModelAPC20
	}
	return ModelUnknown
}

// ShownKind is the loopable a device's grid edits in channel view
type ShownKind int

const (
	ShowPattern ShownKind = iota
	ShowPhrase
)

// Colors assigns palette entries to what the controller draws
type Colors struct {
	Content   uint8 // cells where an event starts
	Hold      uint8 // cells an event continues through
	Playhead  uint8 // current position
	Selected  uint8 // shown pattern/phrase/sequence
	Queued    uint8 // queued sequence
	Active    uint8 // channel activity, activators
	Recording uint8
	Overlay   uint8 // length/offset indicator
}

// DeviceConfig describes the differences between supported devices.
// One engine drives every model from its config.
type DeviceConfig struct {
	Model         Model
	Name          string
	DeviceID      uint8
	ChannelOffset int
	Shows         ShownKind
	Mode          uint8
	Colors        Colors

	// Roles overrides the button decoded for a note number (ButtonNone = default)
	Roles [128]ButtonKind
}

var defaultColors = Colors{
	Content:   LEDYellow,
	Hold:      LEDGreen,
	Playhead:  LEDGreen,
	Selected:  LEDRed,
	Queued:    LEDRedBlink,
	Active:    LEDGreen,
	Recording: LEDRed,
	Overlay:   LEDYellow,
}

// APC40Config returns the config of an APC40. It covers channels 0-7 and
// edits patterns.
func APC40Config() DeviceConfig {
	return DeviceConfig{
		Model:         ModelAPC40,
		Name:          "APC40",
		DeviceID:      DeviceAPC40,
		ChannelOffset: 0,
		Shows:         ShowPattern,
		Mode:          ModePartialHostLEDs,
		Colors:        defaultColors,
	}
}

// APC20Config returns the config of an APC20. It covers channels 8-15 and
// edits phrases. It has no transport section, so stop all clips stops.
func APC20Config() DeviceConfig {
	cfg := DeviceConfig{
		Model:         ModelAPC20,
		Name:          "APC20",
		DeviceID:      DeviceAPC20,
		ChannelOffset: 8,
		Shows:         ShowPhrase,
		Mode:          ModePartialHostLEDs,
		Colors:        defaultColors,
	}
	cfg.Roles[0x51] = ButtonStop
	return cfg
}

// ConfigFor returns the config of a model
func ConfigFor(m Model) (DeviceConfig, bool) {
	switch m {
	case ModelAPC40:
		return APC40Config(), true
	case ModelAPC20:
		return APC20Config(), true
	}
	return DeviceConfig{}, false
}

// ModelForPort guesses the model from a port name
func ModelForPort(name string) Model {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "apc40"):
		return ModelAPC40
	case strings.Contains(name, "apc20"):
		return ModelAPC20
	}
	return ModelUnknown
}

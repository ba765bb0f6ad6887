// Package widgets renders APC LED state in the terminal for diagnostics.
package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"apc-sequence/midi"
)

// Glyphs
const (
	Lit = "■"
	Off = "·"
)

var ledColors = map[uint8]lipgloss.Color{
	midi.LEDGreen:       "#3ddc84",
	midi.LEDGreenBlink:  "#3ddc84",
	midi.LEDRed:         "#ff4040",
	midi.LEDRedBlink:    "#ff4040",
	midi.LEDYellow:      "#ffd23f",
	midi.LEDYellowBlink: "#ffd23f",
}

var offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))

// RenderLED renders one LED in its palette color. Blinking colors blink.
func RenderLED(color uint8) string {
	c, ok := ledColors[color]
	if !ok {
		return offStyle.Render(Off)
	}
	style := lipgloss.NewStyle().Foreground(c)
	switch color {
	case midi.LEDGreenBlink, midi.LEDRedBlink, midi.LEDYellowBlink:
		style = style.Blink(true)
	}
	return style.Render(Lit)
}

// RenderLEDs renders the last sent state of an LED rectangle, row 0 on top
func RenderLEDs(l *midi.LEDs) string {
	lines := make([]string, 0, l.Height())
	for y := range l.Height() {
		var line strings.Builder
		for x := range l.Width() {
			if x > 0 {
				line.WriteString(" ")
			}
			line.WriteString(RenderLED(l.Sent(x, y)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderSurface joins the clip grid with the scene column to its right
func RenderSurface(grid *midi.LEDs, side *midi.LEDs, rows ...*midi.LEDs) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, RenderLEDs(grid), "   ", RenderLEDs(side))
	parts := []string{top}
	for _, r := range rows {
		parts = append(parts, RenderLEDs(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderLED(color), name, desc)
}

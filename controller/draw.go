package controller

import (
	"apc-sequence/midi"
	"apc-sequence/sequencer"
	"apc-sequence/surface"
)

// Render appends the messages this controller sends during the cycle:
// handshake messages until it is identified, diffed LED updates after.
func (a *APC) Render(c *sequencer.Cycle, out []midi.Timed) []midi.Timed {
	if !a.handshake.Ready() {
		if msg, ok := a.handshake.Cycle(); ok {
			out = append(out, midi.Timed{Port: a.port, Msg: msg})
		}
		return out
	}

	a.draw()

	ind := surface.Indicator{}
	if a.surf.View() != surface.ViewSequence {
		ind = a.surf.Events.TimedIndicator(c, surface.IndicatorDuration,
			a.key(surface.EventZoom), a.key(surface.EventOffset), a.key(surface.EventLength))
	}
	if ind.Show {
		a.drawOverlay()
	} else {
		a.drawPlayhead(c)
	}

	for _, l := range a.leds() {
		out = l.Output(0, a.port, out)
	}

	if ind.Hides {
		a.drawPlayhead(c)
		out = a.clipStop.Output(ind.HideFrame, a.port, out)
	}
	return out
}

func (a *APC) draw() {
	switch a.surf.View() {
	case surface.ViewSequence:
		a.drawSequence()
	case surface.ViewTimeline:
		a.drawTimeline()
	default:
		if a.cfg.Shows == midi.ShowPhrase {
			a.drawPhrase()
		} else {
			a.drawPattern()
		}
	}
	a.drawTracks()
}

// drawEvent lights the columns an event covers on row y: its start column in
// the content color, the columns it sustains through in the hold color.
func drawEvent[P any](a *APC, kind surface.Kind, ch int, ev *sequencer.Event[P], y int, length uint32) {
	if ev.Open {
		if x, ok := a.surf.ColumnAt(kind, ch, ev.Start); ok {
			a.grid.Draw(x, y, a.cfg.Colors.Recording)
		}
		return
	}
	for x := range surface.GridWidth {
		col := a.surf.Column(kind, ch, x)
		if col.Start >= length {
			break
		}
		switch {
		case col.Contains(ev.Start):
			a.grid.Draw(x, y, a.cfg.Colors.Content)
		case ev.OverlapsTickRange(col) && a.grid.Pending(x, y) == midi.LEDOff:
			a.grid.Draw(x, y, a.cfg.Colors.Hold)
		}
	}
}

func (a *APC) drawPattern() {
	ch := a.seq.Channel(a.surf.Focused())
	shown := a.surf.ShownPattern(ch.Index)
	p := &ch.Patterns[shown]
	length := p.Length()

	events := p.Events()
	for i := range events {
		if y, ok := a.surf.KeyRow(ch.Index, events[i].Row); ok {
			drawEvent(a, surface.KindPattern, ch.Index, &events[i], y, length)
		}
	}

	content := ch.ContentMask()
	for y := range sequencer.NumPatterns {
		switch {
		case y == shown:
			a.side.Draw(y, a.cfg.Colors.Selected)
		case content[y]:
			a.side.Draw(y, a.cfg.Colors.Content)
		}
	}
}

func (a *APC) drawPhrase() {
	ch := a.seq.Channel(a.surf.Focused())
	shown := a.surf.ShownPhrase(ch.Index)
	p := &ch.Phrases[shown]
	length := p.Length()

	events := p.Events()
	for i := range events {
		drawEvent(a, surface.KindPhrase, ch.Index, &events[i], int(events[i].Row), length)
	}
	a.drawPhraseSide(ch, shown)
}

func (a *APC) drawPhraseSide(ch *sequencer.Channel, shown int) {
	for y := range sequencer.NumPhrases {
		switch {
		case y == shown:
			a.side.Draw(y, a.cfg.Colors.Selected)
		case ch.Phrases[y].HasContent():
			a.side.Draw(y, a.cfg.Colors.Content)
		}
	}
}

func (a *APC) drawTimeline() {
	ch := a.seq.Channel(a.surf.Focused())
	length := ch.Timeline.Length()

	events := ch.Timeline.Events()
	for i := range events {
		drawEvent(a, surface.KindTimeline, ch.Index, &events[i], int(events[i].Row), length)
	}
	a.drawPhraseSide(ch, a.surf.ShownPhrase(ch.Index))
}

func (a *APC) drawSequence() {
	shown := a.surf.ShownSequence()
	seq := a.seq.Sequence(shown)
	playing := a.seq.Playing() == shown

	for x := range surface.GridWidth {
		ch := a.offset() + x
		phrase, ok := seq.Phrase(ch)
		if !ok {
			continue
		}
		color := a.cfg.Colors.Content
		if playing && seq.IsActive(ch) {
			color = a.cfg.Colors.Playhead
		}
		a.grid.Draw(x, phrase, color)
	}

	queued, isQueued := a.seq.Queued()
	for y := range sequencer.NumSequences {
		switch {
		case isQueued && y == queued:
			a.side.Draw(y, a.cfg.Colors.Queued)
		case y == shown:
			a.side.Draw(y, a.cfg.Colors.Selected)
		case y == a.seq.Playing():
			a.side.Draw(y, a.cfg.Colors.Playhead)
		}
	}
}

func (a *APC) drawTracks() {
	focused := a.surf.Focused()
	seq := a.seq.Sequence(a.surf.ShownSequence())

	for x := range surface.GridWidth {
		ch := a.offset() + x
		if ch == focused {
			a.trackSelect.Draw(x, a.cfg.Colors.Selected)
			if a.surf.Recording() {
				a.arm.Draw(x, a.cfg.Colors.Recording)
			}
		}
		if seq.IsActive(ch) {
			a.activator.Draw(x, a.cfg.Colors.Active)
		}
		if a.seq.ChannelSounding(ch) {
			a.solo.Draw(x, a.cfg.Colors.Active)
		}
	}

	if a.surf.View() != surface.ViewChannel {
		a.master.Draw(a.cfg.Colors.Selected)
	}
	if a.transport.Rolling() {
		color := a.cfg.Colors.Playhead
		if a.seq.Mode() == sequencer.ModeTimeline {
			color = a.cfg.Colors.Content
		}
		a.play.Draw(color)
	}
	if a.surf.Recording() {
		a.record.Draw(a.cfg.Colors.Recording)
	}
}

// drawPlayhead marks the playing column on the clip stop row. In sequence
// view the row shows which channels sound.
func (a *APC) drawPlayhead(c *sequencer.Cycle) {
	ch := a.surf.Focused()
	tick := c.Ticks.Start

	switch a.surf.View() {
	case surface.ViewSequence:
		for x := range surface.GridWidth {
			if a.seq.ChannelSounding(a.offset() + x) {
				a.clipStop.Draw(x, a.cfg.Colors.Active)
			}
		}
		return
	case surface.ViewTimeline:
		if a.seq.Mode() != sequencer.ModeTimeline || !c.Rolling {
			return
		}
	default:
		kind := a.kind()
		length := a.length(kind)
		if kind == surface.KindPhrase {
			p, ok := a.seq.PlayingPhrase(ch, a.surf.ShownPhrase(ch))
			if !ok {
				return
			}
			tick = p.Position(tick, length)
		} else {
			p, ok := a.seq.PlayingPattern(ch, a.surf.ShownPattern(ch))
			if !ok {
				return
			}
			tick = p.Position(tick, length)
		}
	}

	if x, ok := a.surf.ColumnAt(a.kind(), ch, tick); ok {
		a.clipStop.Draw(x, a.cfg.Colors.Playhead)
	}
}

// drawOverlay shows on the clip stop row which part of the loopable the
// grid displays: each cell stands for an eighth of the length.
func (a *APC) drawOverlay() {
	ch := a.surf.Focused()
	kind := a.kind()
	length := uint64(a.length(kind))
	start := uint64(a.surf.Offset(kind, ch))
	stop := start + uint64(a.surf.Zoom(kind, ch))*surface.GridWidth

	for x := range surface.GridWidth {
		cellStart := uint64(x) * length / surface.GridWidth
		cellStop := uint64(x+1) * length / surface.GridWidth
		if cellStart < stop && cellStop > start {
			a.clipStop.Draw(x, a.cfg.Colors.Overlay)
		}
	}
}

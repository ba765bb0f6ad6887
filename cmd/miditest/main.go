package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"apc-sequence/midi"
	"apc-sequence/widgets"
)

var opts struct {
	port    string
	model   string
	timeout time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "miditest",
	Short: "MIDI diagnostics for APC40/APC20 controllers",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.port, "port", "p", "apc",
		"Port name (case-insensitive substring)")
	rootCmd.PersistentFlags().StringVarP(&opts.model, "model", "m", "",
		"Controller model: apc40 or apc20 (default: from port name)")
	rootCmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", 3*time.Second,
		"How long to wait for ports and replies")

	rootCmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List all MIDI ports", RunE: listPorts},
		&cobra.Command{Use: "inquiry", Short: "Identify a controller and switch it to host LED mode", RunE: inquiry},
		&cobra.Command{Use: "leds", Short: "Light every LED color on the clip grid", RunE: testLEDs},
		&cobra.Command{Use: "monitor", Short: "Print decoded input until interrupted", RunE: monitor},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type ports struct {
	ins  []drivers.In
	outs []drivers.Out
}

// scan enumerates ports; CoreMIDI is known to hang here
func scan() (ports, error) {
	ch := make(chan ports, 1)
	go func() {
		ch <- ports{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()
	select {
	case p := <-ch:
		return p, nil
	case <-time.After(opts.timeout):
		return ports{}, errors.New("port enumeration timed out (fix: sudo killall coreaudiod midiserver)")
	}
}

func listPorts(cmd *cobra.Command, args []string) error {
	p, err := scan()
	if err != nil {
		return err
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, in := range p.ins {
		fmt.Printf("  %d: %s%s\n", i, in.String(), modelHint(in.String()))
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, out := range p.outs {
		fmt.Printf("  %d: %s%s\n", i, out.String(), modelHint(out.String()))
	}
	return nil
}

func modelHint(name string) string {
	if m := midi.ModelForPort(name); m != midi.ModelUnknown {
		return fmt.Sprintf("  [%s]", m)
	}
	return ""
}

// device is an opened controller port pair
type device struct {
	name  string
	cfg   midi.DeviceConfig
	send  func(gomidi.Message) error
	input chan []byte
	stop  func()
}

func open() (*device, error) {
	p, err := scan()
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(opts.port)
	var in drivers.In
	var out drivers.Out
	for _, port := range p.ins {
		if strings.Contains(strings.ToLower(port.String()), want) {
			in = port
			break
		}
	}
	for _, port := range p.outs {
		if strings.Contains(strings.ToLower(port.String()), want) {
			out = port
			break
		}
	}
	if in == nil || out == nil {
		return nil, fmt.Errorf("no port pair matching %q", opts.port)
	}

	model := midi.ParseModel(opts.model)
	if model == midi.ModelUnknown {
		model = midi.ModelForPort(in.String())
	}
	cfg, ok := midi.ConfigFor(model)
	if !ok {
		return nil, fmt.Errorf("cannot tell the model of %s, use --model", in.String())
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}

	d := &device{name: in.String(), cfg: cfg, send: send, input: make(chan []byte, midi.InputQueueSize)}
	d.stop, err = gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		select {
		case d.input <- append([]byte(nil), msg.Bytes()...):
		default:
		}
	}, gomidi.UseSysEx())
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return d, nil
}

func (d *device) write(msgs []midi.Timed) error {
	for i := range msgs {
		if err := d.send(msgs[i].Msg.Gomidi()); err != nil {
			return err
		}
	}
	return nil
}

// identify runs the handshake until the device accepts host LED mode
func (d *device) identify() (midi.InputEvent, error) {
	h := midi.NewHandshake(d.cfg.DeviceID, d.cfg.Mode)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(opts.timeout)

	var reply midi.InputEvent
	for !h.Ready() {
		select {
		case raw := <-d.input:
			if ev := midi.Decode(raw, &d.cfg); h.Receive(ev) {
				reply = ev
			}
		case <-ticker.C:
			if msg, ok := h.Cycle(); ok {
				if err := d.send(msg.Gomidi()); err != nil {
					return reply, fmt.Errorf("send %s: %w", h.State(), err)
				}
			}
		case <-deadline:
			return reply, fmt.Errorf("%s: no identity reply (state %s)", d.name, h.State())
		}
	}
	return reply, nil
}

func inquiry(cmd *cobra.Command, args []string) error {
	d, err := open()
	if err != nil {
		return err
	}
	defer d.stop()

	fmt.Printf("Sending inquiry to %s (%s)...\n", d.name, d.cfg.Name)
	reply, err := d.identify()
	if err != nil {
		return err
	}
	fmt.Printf("Identified %s, local id %d\n", d.cfg.Name, reply.LocalID)
	spew.Dump(reply)
	return nil
}

func testLEDs(cmd *cobra.Command, args []string) error {
	d, err := open()
	if err != nil {
		return err
	}
	defer d.stop()

	if _, err := d.identify(); err != nil {
		return err
	}

	grid := midi.NewGrid(midi.NoteGrid)
	side := midi.NewSide(midi.NoteSide)
	clipStop := midi.NewRow(midi.NoteClipStop)

	colors := []uint8{midi.LEDGreen, midi.LEDGreenBlink, midi.LEDRed, midi.LEDRedBlink, midi.LEDYellow, midi.LEDYellowBlink}
	for y := range grid.Height() {
		for x := range grid.Width() {
			grid.Draw(x, y, colors[(x+y)%len(colors)])
		}
		side.Draw(y, colors[y%len(colors)])
	}
	clipStop.Fill(midi.LEDGreen)

	var out []midi.Timed
	out = grid.Output(0, 0, out)
	out = side.Output(0, 0, out)
	out = clipStop.Output(0, 0, out)
	if err := d.write(out); err != nil {
		return err
	}

	fmt.Println(widgets.RenderSurface(&grid.LEDs, &side.LEDs, &clipStop.LEDs))
	fmt.Println()
	fmt.Println(widgets.RenderLegendItem(midi.LEDGreen, "green", "playhead, active"))
	fmt.Println(widgets.RenderLegendItem(midi.LEDRed, "red", "selected, recording"))
	fmt.Println(widgets.RenderLegendItem(midi.LEDYellow, "yellow", "content, overlay"))
	fmt.Println(widgets.RenderLegendItem(midi.LEDRedBlink, "red blink", "queued"))
	fmt.Println("\nPress Enter to clear...")
	fmt.Scanln()

	// grid, side and clip stop row are drawn off after each output
	out = grid.Output(0, 0, out[:0])
	out = side.Output(0, 0, out)
	out = clipStop.Output(0, 0, out)
	return d.write(out)
}

func monitor(cmd *cobra.Command, args []string) error {
	d, err := open()
	if err != nil {
		return err
	}
	defer d.stop()

	if _, err := d.identify(); err != nil {
		return err
	}
	fmt.Printf("Monitoring %s, Ctrl+C to exit\n", d.name)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
	for {
		select {
		case <-sig:
			return nil
		case raw := <-d.input:
			ev := midi.Decode(raw, &d.cfg)
			fmt.Printf("[%s] % X\n", time.Now().Format("15:04:05.000"), raw)
			if ev.Type != midi.InputUnknown {
				fmt.Print(cs.Sdump(ev))
			}
		}
	}
}

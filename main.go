package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"apc-sequence/config"
	"apc-sequence/debug"
	"apc-sequence/engine"
	"apc-sequence/midi"
	"apc-sequence/sequencer"
)

func main() {
	var (
		configPath string
		debugOn    bool
		bpm        float64
		synth      string
		save       bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/apc-sequence/config.yaml)")
	pflag.BoolVarP(&debugOn, "debug", "d", false, "write a debug log")
	pflag.Float64Var(&bpm, "bpm", 0, "tempo (default from config)")
	pflag.StringVarP(&synth, "synth", "s", "", "synth output port (case-insensitive substring)")
	pflag.BoolVar(&save, "save-config", false, "write the effective config and exit")
	pflag.Parse()

	if save {
		if err := saveConfig(configPath, bpm, synth); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(configPath, debugOn, bpm, synth); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debugOn bool, bpm float64, synth string) error {
	cfg, err := effectiveConfig(configPath, bpm, synth)
	if err != nil {
		return err
	}

	if debugOn || cfg.Debug.Enabled {
		if cfg.Debug.Path == "" {
			err = debug.Enable()
		} else {
			err = debug.EnableFile(cfg.Debug.Path)
		}
		if err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := &midi.Router{}
	if cfg.SynthOutput.PortName != "" {
		sender, name, err := midi.OpenOutput(cfg.SynthOutput.PortName)
		if err != nil {
			return err
		}
		router.SetPort(midi.SynthPort, sender)
		fmt.Printf("Synth output: %s\n", name)
	} else {
		fmt.Println("No synth output configured, notes are not sent")
	}

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager()
	deviceMgr.SetAutoDetect(cfg.AutoDetect)
	deviceMgr.SetPollRate(cfg.PollInterval)
	for _, ctrl := range cfg.AutoConnectControllers() {
		deviceMgr.AddPort(ctrl.PortName, midi.ParseModel(string(ctrl.Model)))
	}
	deviceMgr.SetKeyboard(cfg.Keyboard.PortName)
	go deviceMgr.Run(ctx)

	clock := engine.NewClock(cfg.FrameRate, cfg.BPM)
	manager := engine.NewManager(sequencer.New(), clock, router, router, deviceMgr.Events())

	fmt.Printf("apc-sequence at %.1f BPM, %d frames at %d Hz\n", clock.BPM(), cfg.BufferSize, cfg.FrameRate)
	fmt.Println("Connect APC40/APC20 controllers any time - they'll be detected automatically")

	manager.Run(ctx, cfg.BufferSize)

	if n := router.Errors(); n > 0 {
		fmt.Printf("%d MIDI writes failed\n", n)
	}
	return nil
}

// effectiveConfig loads the config file and applies the flags over it
func effectiveConfig(path string, bpm float64, synth string) (*config.Config, error) {
	load := config.Load
	if path != "" {
		load = func() (*config.Config, error) { return config.LoadFile(path) }
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if bpm > 0 {
		cfg.BPM = bpm
	}
	if synth != "" {
		cfg.SynthOutput.PortName = synth
	}
	return cfg, nil
}

func saveConfig(path string, bpm float64, synth string) error {
	cfg, err := effectiveConfig(path, bpm, synth)
	if err != nil {
		return err
	}
	if path != "" {
		err = cfg.SaveFile(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("Config saved")
	return nil
}

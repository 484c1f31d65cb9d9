package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/lixenwraith/harmonium/audio"
	"github.com/lixenwraith/harmonium/input"
	"github.com/lixenwraith/harmonium/service"
	"github.com/lixenwraith/harmonium/settings"
)

var (
	sampleFlag      = flag.String("sample", "", "Instrument sample path or URL (overrides HARMONIUM_SAMPLE)")
	impulseFlag     = flag.String("impulse", "", "Reverb impulse response path or URL (overrides HARMONIUM_IMPULSE)")
	backendFlag     = flag.String("backend", "", "Audio output: auto, speaker, pipe, none")
	loopEndFlag     = flag.String("loop-end", "", "Sample loop end: buffer, fixed")
	settingsFlag    = flag.String("settings", "", "Settings file (default: user config dir)")
	midiDeviceFlag  = flag.String("midi-device", "", "Accept MIDI only from this device, 'none' accepts all")
	midiChannelFlag = flag.Int("midi-channel", 0, "Accept MIDI only on this channel 1-16, 0 accepts all")
	keyHoldFlag     = flag.Duration("key-hold", 0, "Key hold window, must exceed the auto-repeat delay (overrides HARMONIUM_KEY_HOLD)")
	debugFlag       = flag.Bool("debug", false, "Write debug log to logs/harmonium.log")
)

func main() {
	var screen tcell.Screen

	// Panic Recovery: Ensure terminal is reset even if the control loop crashes
	defer func() {
		if r := recover(); r != nil {
			if screen != nil {
				screen.Fini()
			}
			fmt.Fprintf(os.Stderr, "\n\x1b[31mHARMONIUM CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	if logFile := setupLogging(*debugFlag); logFile != nil {
		defer logFile.Close()
	}

	cfg := audio.LoadAudioConfig()
	applyFlags(cfg)

	storePath := *settingsFlag
	if storePath == "" {
		storePath = settings.DefaultPath()
	}
	store := settings.NewStore(storePath)
	initial, err := store.Load()
	if err != nil {
		slog.Warn("settings load failed, using defaults", "path", storePath, "error", err)
	}
	if *midiDeviceFlag != "" {
		initial.MIDIDevice = *midiDeviceFlag
	}

	queue := input.NewEventQueue()
	engine := audio.NewEngine(cfg, initial, slog.Default())
	watcher, closeMIDI := newMIDIWatcher(queue, input.NewDeviceFilter(initial.MIDIDevice, *midiChannelFlag))
	defer closeMIDI()

	hub := service.NewHub(slog.Default())
	if err := hub.Register(audio.NewService(engine, audio.AutoSource{}, slog.Default())); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register audio: %v\n", err)
		os.Exit(1)
	}
	if err := hub.Register(input.NewMIDIService(watcher, "audio")); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register midi: %v\n", err)
		os.Exit(1)
	}

	screen, err = tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create terminal screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	// Normal exit terminal cleanup
	defer screen.Fini()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(screen, engine, queue, watcher, store, keyHold())

	// Loading state is visible while assets are fetched
	a.draw()
	if err := hub.InitAll(ctx); err != nil {
		slog.Error("service init failed", "error", err)
	}
	if err := hub.StartAll(); err != nil {
		slog.Error("service start failed", "error", err)
	}
	defer hub.StopAll()

	a.run(ctx)
}

// applyFlags overrides environment configuration with explicitly set flags
func applyFlags(cfg *audio.AudioConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sample":
			cfg.Sample = *sampleFlag
		case "impulse":
			cfg.Impulse = *impulseFlag
		case "backend":
			cfg.Backend = *backendFlag
		case "loop-end":
			cfg.LoopEnd = audio.ParseLoopEnd(*loopEndFlag)
		}
	})
}

// keyHold returns the -key-hold flag when set, otherwise the environment value
func keyHold() time.Duration {
	if *keyHoldFlag > 0 {
		return *keyHoldFlag
	}
	return input.LoadKeyHold()
}

// newMIDIWatcher opens the rtmidi driver; without it MIDI is reported unsupported
func newMIDIWatcher(sink input.Sink, filter *input.DeviceFilter) (*input.MIDIWatcher, func()) {
	var lister input.PortLister
	closeDriver := func() {}

	drv, err := rtmididrv.New()
	if err != nil {
		slog.Warn("MIDI driver unavailable", "error", err)
	} else {
		lister = input.DriverLister{Driver: drv}
		closeDriver = func() { drv.Close() }
	}
	return input.NewMIDIWatcher(lister, input.ListenDriverPort, sink, filter, slog.Default()), closeDriver
}

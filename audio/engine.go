package audio

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"

	"github.com/lixenwraith/harmonium/constant"
	"github.com/lixenwraith/harmonium/input"
	"github.com/lixenwraith/harmonium/settings"
)

// Engine is the instrument: voice bank, router, reverb send and output
// Setters, note calls and Handle run on the control goroutine
type Engine struct {
	config *AudioConfig
	rate   beep.SampleRate
	log    *slog.Logger

	state    atomic.Int32
	settings settings.Settings

	sample *Sample
	bank   *VoiceBank
	router *NoteRouter
	send   *ReverbSend
	bus    *Bus
	out    Output

	running atomic.Bool
}

// Stats is a snapshot for the status display
type Stats struct {
	State    EngineState
	Active   int
	Rebuilds uint64
	Backend  BackendType
	Silent   bool
	Reverb   bool // Impulse response available
}

// NewEngine creates an engine in the loading state with clamped initial settings
func NewEngine(cfg *AudioConfig, initial settings.Settings, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultAudioConfig()
	}
	cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		config:   cfg,
		rate:     beep.SampleRate(cfg.SampleRate),
		log:      logger.With("component", "engine"),
		settings: initial.Clamp(),
	}
	e.state.Store(int32(StateLoading))
	return e
}

// Load fetches the sample and impulse response and builds the voice graph
// A sample failure leaves the engine inert; an impulse failure only disables reverb
func (e *Engine) Load(ctx context.Context, src AssetSource) error {
	if e.State() != StateLoading {
		return errors.Errorf("engine already %s", e.State())
	}

	sample, err := LoadSample(ctx, src, e.config.Sample, e.config.LoopEnd)
	if err != nil {
		e.state.Store(int32(StateFailed))
		e.log.Error("sample load failed, engine inert", "asset", e.config.Sample, "error", err)
		return errors.Wrap(err, "load sample")
	}
	e.sample = sample

	var conv *Convolver
	if e.config.Impulse != "" {
		irBuf, err := LoadImpulse(ctx, src, e.config.Impulse)
		if err != nil {
			e.log.Error("impulse load failed, reverb disabled", "asset", e.config.Impulse, "error", err)
		} else {
			ir := ImpulseFromBuffer(irBuf, e.rate, e.config.ResampleQuality)
			conv = NewConvolver(ir, e.config.ReverbBlock)
		}
	}

	e.bank = NewVoiceBank(sample, ComputePitchMap(e.settings.Transpose), e.rate, e.config.ResampleQuality, e.log)
	e.router = NewNoteRouter(e.bank, e.settings.Octave, e.settings.AdditionalReeds)
	e.send = NewReverbSend(conv, e.config.ReverbWet, e.log)
	e.send.SetEnabled(e.settings.ReverbEnabled)
	e.bus = NewBus(e.bank, e.send)
	e.bus.SetGain(volumeGain(e.settings.Volume))

	e.state.Store(int32(StateReady))
	e.log.Info("engine ready",
		"sample_frames", sample.Len(),
		"sample_rate", int(sample.Format().SampleRate),
		"reverb", conv != nil,
	)
	return nil
}

// Start opens the configured output and begins rendering
func (e *Engine) Start() error {
	switch e.State() {
	case StateFailed:
		return ErrEngineInert
	case StateLoading:
		return ErrNotLoaded
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	e.out = OpenOutput(e.config.Backend, e.rate, e.log)
	if err := e.out.Start(e.bus); err != nil {
		e.running.Store(false)
		return errors.Wrap(err, "start output")
	}
	return nil
}

// Stop halts rendering and releases the output
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	if e.out != nil {
		e.out.Stop()
	}
}

// State returns the asset lifecycle state
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// ready reports whether the voice graph exists
func (e *Engine) ready() bool {
	return e.State() == StateReady
}

// SetVolume sets master volume in percent
func (e *Engine) SetVolume(v int) {
	e.settings.Volume = settings.ClampVolume(v)
	if e.bus != nil {
		e.bus.SetGain(volumeGain(e.settings.Volume))
	}
}

// SetReverbEnabled connects or disconnects the reverb send
func (e *Engine) SetReverbEnabled(on bool) {
	e.settings.ReverbEnabled = on
	if e.send != nil {
		e.send.SetEnabled(on)
	}
}

// SetTranspose retunes the whole bank when the value changes, silencing sounding voices
func (e *Engine) SetTranspose(t int) {
	t = settings.ClampTranspose(t)
	if t == e.settings.Transpose {
		return
	}
	e.settings.Transpose = t
	if e.bank != nil {
		e.bank.RetuneAll(ComputePitchMap(t))
	}
}

// SetOctave moves future notes to a new octave, reeds are pulled down to fit
func (e *Engine) SetOctave(o int) {
	e.settings.Octave = settings.ClampOctave(o)
	e.settings.AdditionalReeds = settings.ClampReeds(e.settings.AdditionalReeds, e.settings.Octave)
	e.applyLayout()
}

// SetAdditionalReeds sets the reed layer count for future notes
func (e *Engine) SetAdditionalReeds(r int) {
	e.settings.AdditionalReeds = settings.ClampReeds(r, e.settings.Octave)
	e.applyLayout()
}

func (e *Engine) applyLayout() {
	if e.router != nil {
		e.router.SetLayout(e.settings.Octave, e.settings.AdditionalReeds)
	}
}

// Apply pushes a full settings value through the setters
func (e *Engine) Apply(s settings.Settings) {
	s = s.Clamp()
	e.settings.MIDIDevice = s.MIDIDevice
	e.SetVolume(s.Volume)
	e.SetReverbEnabled(s.ReverbEnabled)
	e.SetTranspose(s.Transpose)
	e.SetOctave(s.Octave)
	e.SetAdditionalReeds(s.AdditionalReeds)
}

// Settings returns the current settings value
func (e *Engine) Settings() settings.Settings {
	return e.settings
}

// NoteOn starts the note across its reed layers
func (e *Engine) NoteOn(note int) {
	if e.ready() {
		e.router.NoteOn(note)
	}
}

// NoteOff stops the note across its reed layers
func (e *Engine) NoteOff(note int) {
	if e.ready() {
		e.router.NoteOff(note)
	}
}

// Handle applies one input event, reporting whether a settings value changed and whether to quit
func (e *Engine) Handle(ev input.Event) (changed, quit bool) {
	switch ev.Kind {
	case input.KindNote:
		if e.ready() {
			e.router.Route(ev.Note)
		}
		return false, false

	case input.KindVolume:
		before := e.settings
		e.SetVolume(ev.Value)
		return before != e.settings, false

	case input.KindControl:
		if ev.Control == input.ControlQuit {
			return false, true
		}
		before := e.settings
		e.control(ev.Control)
		return before != e.settings, false
	}
	return false, false
}

// control applies a relative adjustment from a control key
func (e *Engine) control(c input.Control) {
	s := e.settings
	switch c {
	case input.ControlOctaveUp:
		e.SetOctave(s.Octave + 1)
	case input.ControlOctaveDown:
		e.SetOctave(s.Octave - 1)
	case input.ControlTransposeUp:
		e.SetTranspose(s.Transpose + 1)
	case input.ControlTransposeDown:
		e.SetTranspose(s.Transpose - 1)
	case input.ControlReedsUp:
		e.SetAdditionalReeds(s.AdditionalReeds + 1)
	case input.ControlReedsDown:
		e.SetAdditionalReeds(s.AdditionalReeds - 1)
	case input.ControlVolumeUp:
		e.SetVolume(s.Volume + constant.VolumeStep)
	case input.ControlVolumeDown:
		// The slider never goes below 1, a lower value set over MIDI is kept
		v := s.Volume - constant.VolumeStep
		if v < constant.VolumeUIMin {
			v = min(s.Volume, constant.VolumeUIMin)
		}
		e.SetVolume(v)
	case input.ControlToggleReverb:
		e.SetReverbEnabled(!s.ReverbEnabled)
	}
}

// Slots returns the slots a note currently resolves to
func (e *Engine) Slots(note int) []int {
	if !e.ready() {
		return nil
	}
	return e.router.Slots(note)
}

// Voice returns the voice record of a slot
func (e *Engine) Voice(slot int) Voice {
	if !e.ready() {
		return Voice{Slot: slot}
	}
	return e.bank.Voice(slot)
}

// Bus returns the render streamer, nil before Load
func (e *Engine) Bus() *Bus {
	return e.bus
}

// Reverb returns the send, nil before Load
func (e *Engine) Reverb() *ReverbSend {
	return e.send
}

// Stats returns counters for display
func (e *Engine) Stats() Stats {
	st := Stats{State: e.State(), Backend: BackendNone, Silent: true}
	if e.bank != nil {
		st.Active = e.bank.ActiveCount()
		st.Rebuilds = e.bank.Rebuilds()
	}
	if e.send != nil {
		st.Reverb = e.send.Available()
	}
	if e.out != nil {
		st.Backend = e.out.Backend()
		st.Silent = e.out.Silent()
	}
	return st
}

// volumeGain maps percent to linear gain
func volumeGain(v int) float64 {
	return float64(v) / 100
}

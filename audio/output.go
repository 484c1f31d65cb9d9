package audio

import (
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"

	"github.com/lixenwraith/harmonium/constant"
)

// Output drives a render streamer into a device
type Output interface {
	Start(s beep.Streamer) error
	Stop()
	Backend() BackendType
	// Silent reports whether audio is being discarded
	Silent() bool
}

// OpenOutput selects a backend by mode (auto, speaker, pipe, none)
// Every failure degrades to the next candidate and finally to silent output
func OpenOutput(mode string, rate beep.SampleRate, logger *slog.Logger) Output {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "output")

	var candidates []func() (Output, error)
	speakerOut := func() (Output, error) { return newSpeakerOutput(rate) }
	pipeOut := func() (Output, error) { return newPipeOutput(rate, log) }

	switch mode {
	case "none":
	case "speaker":
		candidates = append(candidates, speakerOut)
	case "pipe":
		candidates = append(candidates, pipeOut)
	default:
		candidates = append(candidates, speakerOut, pipeOut)
	}

	for _, open := range candidates {
		out, err := open()
		if err != nil {
			log.Warn("output backend unavailable", "error", err)
			continue
		}
		log.Info("output backend selected", "backend", out.Backend())
		return out
	}

	if mode != "none" {
		log.Warn("no audio output, running silent")
	}
	return &silentOutput{}
}

// silentOutput discards audio, used when no backend is available and in tests
type silentOutput struct{}

func (silentOutput) Start(beep.Streamer) error { return nil }
func (silentOutput) Stop()                     {}
func (silentOutput) Backend() BackendType      { return BackendNone }
func (silentOutput) Silent() bool              { return true }

// speakerOutput plays through the beep speaker (oto)
type speakerOutput struct {
	rate    beep.SampleRate
	started atomic.Bool
}

func newSpeakerOutput(rate beep.SampleRate) (*speakerOutput, error) {
	if err := speaker.Init(rate, rate.N(constant.SpeakerBufferDuration)); err != nil {
		return nil, errors.Wrap(err, "speaker init")
	}
	return &speakerOutput{rate: rate}, nil
}

func (o *speakerOutput) Start(s beep.Streamer) error {
	if !o.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	speaker.Play(s)
	return nil
}

func (o *speakerOutput) Stop() {
	if o.started.CompareAndSwap(true, false) {
		speaker.Clear()
	}
	speaker.Close()
}

func (o *speakerOutput) Backend() BackendType { return BackendSpeaker }
func (o *speakerOutput) Silent() bool         { return false }

// pipeOutput pumps raw s16le stereo into a CLI player or an OSS device
type pipeOutput struct {
	backend *BackendConfig
	rate    beep.SampleRate
	cmd     *exec.Cmd
	writer  io.WriteCloser

	running atomic.Bool
	closed  atomic.Bool
	silent  atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup

	log *slog.Logger
}

func newPipeOutput(rate beep.SampleRate, log *slog.Logger) (*pipeOutput, error) {
	backend, err := DetectBackend(int(rate))
	if err != nil {
		return nil, err
	}

	o := &pipeOutput{
		backend: backend,
		rate:    rate,
		stop:    make(chan struct{}),
		log:     log,
	}

	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", backend.Path)
		}
		o.writer = f
		return o, nil
	}

	cmd := exec.Command(backend.Path, backend.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "%s stdin", backend.Name)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, errors.Wrapf(err, "start %s", backend.Name)
	}
	o.cmd = cmd
	o.writer = stdin

	o.wg.Add(1)
	go o.monitorProcess()
	return o, nil
}

func (o *pipeOutput) Start(s beep.Streamer) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	o.wg.Add(1)
	go o.pump(s)
	return nil
}

// pump renders one buffer per tick and writes it to the pipe
func (o *pipeOutput) pump(s beep.Streamer) {
	defer o.wg.Done()

	ticker := time.NewTicker(constant.AudioBufferDuration)
	defer ticker.Stop()

	frames := o.rate.N(constant.AudioBufferDuration)
	mix := make([][2]float64, frames)
	out := make([]byte, frames*constant.AudioBytesPerFrame)

	for {
		select {
		case <-o.stop:
			return
		case <-ticker.C:
			s.Stream(mix)
			framesToBytes(mix, out)
			if _, err := o.writer.Write(out); err != nil {
				o.silent.Store(true)
				o.log.Error("audio pipe write failed", "backend", o.backend.Name,
					"error", errors.WithMessage(ErrPipeClosed, err.Error()))
				return
			}
		}
	}
}

// monitorProcess watches for player exit
func (o *pipeOutput) monitorProcess() {
	defer o.wg.Done()

	err := o.cmd.Wait()
	if err != nil && !o.closed.Load() && !o.silent.Load() {
		o.silent.Store(true)
		o.log.Warn("audio player exited", "backend", o.backend.Name, "error", err)
	}
}

func (o *pipeOutput) Stop() {
	if o.closed.Swap(true) {
		return
	}
	if o.running.Swap(false) {
		close(o.stop)
	}
	o.writer.Close()
	if o.cmd != nil && o.cmd.Process != nil {
		o.cmd.Process.Kill()
	}
	o.wg.Wait()
}

func (o *pipeOutput) Backend() BackendType { return o.backend.Type }
func (o *pipeOutput) Silent() bool         { return o.silent.Load() }

// framesToBytes converts stereo frames to interleaved int16 LE bytes with a hard clip
func framesToBytes(in [][2]float64, out []byte) {
	for i, f := range in {
		idx := i * constant.AudioBytesPerFrame
		binary.LittleEndian.PutUint16(out[idx:], uint16(toInt16(f[0])))   // L
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(toInt16(f[1]))) // R
	}
}

func toInt16(v float64) int16 {
	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return int16(v * 32767)
}

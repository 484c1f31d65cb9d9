package audio

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/madelynnblue/go-dsp/fft"
)

// Convolver applies a mono impulse response to both channels of a stereo stream
// Uniformly partitioned overlap-save: each block of B frames is transformed once at size 2B
// and multiplied against every IR partition through a frequency-domain delay line.
// Output lags input by one block.
type Convolver struct {
	block int
	parts [][]complex128 // IR partition spectra

	// Per channel state
	prev [2][]float64      // Previous input block
	fdl  [2][][]complex128 // Input spectra ring, newest at head
	head int

	// Frame FIFOs
	in   [2][]float64
	out  [2][]float64
	fill int

	// Block scratch, render goroutine only
	window []float64
	acc    []complex128

	irLen   int
	silence int // Consecutive silent input frames
}

// NewConvolver partitions ir into block-sized segments, block is rounded up to a power of two
func NewConvolver(ir []float64, block int) *Convolver {
	b := 1
	for b < block {
		b <<= 1
	}

	nparts := (len(ir) + b - 1) / b
	if nparts == 0 {
		nparts = 1
	}

	c := &Convolver{
		block:  b,
		parts:  make([][]complex128, nparts),
		window: make([]float64, 2*b),
		acc:    make([]complex128, 2*b),
		irLen:  len(ir),
	}

	seg := make([]float64, 2*b)
	for p := range c.parts {
		clear(seg)
		lo := p * b
		hi := min(lo+b, len(ir))
		if lo < hi {
			copy(seg, ir[lo:hi])
		}
		c.parts[p] = fft.FFTReal(seg)
	}

	for ch := range 2 {
		c.prev[ch] = make([]float64, b)
		c.in[ch] = make([]float64, b)
		c.out[ch] = make([]float64, b)
		c.fdl[ch] = make([][]complex128, nparts)
		for p := range c.fdl[ch] {
			c.fdl[ch][p] = make([]complex128, 2*b)
		}
	}

	// Start idle, nothing has been fed yet
	c.silence = c.tailFrames()
	return c
}

// BlockSize returns the partition length in frames
func (c *Convolver) BlockSize() int {
	return c.block
}

// Process convolves in into out frame by frame, len(out) must be at least len(in)
func (c *Convolver) Process(in, out [][2]float64) {
	for i := range in {
		c.in[0][c.fill] = in[i][0]
		c.in[1][c.fill] = in[i][1]
		out[i][0] = c.out[0][c.fill]
		out[i][1] = c.out[1][c.fill]

		c.fill++
		if c.fill == c.block {
			c.processBlock()
			c.fill = 0
		}
	}
}

// Idle reports whether the tail has fully decayed and blocks are being skipped
func (c *Convolver) Idle() bool {
	return c.silence >= c.tailFrames()
}

func (c *Convolver) tailFrames() int {
	return c.irLen + 2*c.block
}

func (c *Convolver) processBlock() {
	if isSilent(c.in[0]) && isSilent(c.in[1]) {
		if c.Idle() {
			clear(c.out[0])
			clear(c.out[1])
			return
		}
		c.silence += c.block
	} else {
		c.silence = 0
	}

	n := len(c.parts)
	c.head = (c.head + n - 1) % n

	window, acc := c.window, c.acc

	for ch := range 2 {
		copy(window, c.prev[ch])
		copy(window[c.block:], c.in[ch])
		copy(c.prev[ch], c.in[ch])

		c.fdl[ch][c.head] = fft.FFTReal(window)

		clear(acc)
		for p, h := range c.parts {
			x := c.fdl[ch][(c.head+p)%n]
			for k := range acc {
				acc[k] += x[k] * h[k]
			}
		}

		y := fft.IFFT(acc)
		for k := 0; k < c.block; k++ {
			c.out[ch][k] = real(y[c.block+k])
		}
	}
}

func isSilent(buf []float64) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}

// ImpulseFromBuffer mixes an IR buffer to mono at rate, normalized to unit energy
func ImpulseFromBuffer(buf *beep.Buffer, rate beep.SampleRate, quality int) []float64 {
	var src beep.Streamer = buf.Streamer(0, buf.Len())
	if from := buf.Format().SampleRate; from != rate {
		src = beep.Resample(quality, from, rate, src)
	}

	var ir []float64
	frames := make([][2]float64, 512)
	for {
		n, ok := src.Stream(frames)
		for i := 0; i < n; i++ {
			ir = append(ir, (frames[i][0]+frames[i][1])/2)
		}
		if !ok || n == 0 {
			break
		}
	}

	var energy float64
	for _, v := range ir {
		energy += v * v
	}
	if energy > 0 {
		scale := 1 / math.Sqrt(energy)
		for i := range ir {
			ir[i] *= scale
		}
	}
	return ir
}

// wetTap hands the convolver output of the current quantum to the return stage
type wetTap struct {
	buf [][2]float64
}

func (t *wetTap) Stream(samples [][2]float64) (int, bool) {
	n := copy(samples, t.buf)
	return n, true
}

func (t *wetTap) Err() error {
	return nil
}

// ReverbSend is the switchable edge from the main bus into the convolution bus
// Toggling only changes routing, voices are never touched. With the edge disconnected
// the convolver is fed silence so the tail rings out instead of cutting.
type ReverbSend struct {
	conv      *Convolver // Nil when no impulse response is loaded
	enabled   atomic.Bool
	connected atomic.Bool

	// Render goroutine only
	ret   *effects.Volume
	tap   *wetTap
	feed  [][2]float64
	wet   [][2]float64
	level [][2]float64

	log *slog.Logger
}

// NewReverbSend creates a disconnected send, conv may be nil
func NewReverbSend(conv *Convolver, wet float64, logger *slog.Logger) *ReverbSend {
	if logger == nil {
		logger = slog.Default()
	}
	tap := &wetTap{}
	s := &ReverbSend{
		conv: conv,
		tap:  tap,
		ret: &effects.Volume{
			Streamer: tap,
			Base:     2,
			Volume:   math.Log2(max(wet, 1e-9)),
			Silent:   wet <= 0,
		},
		log: logger.With("component", "reverb"),
	}
	return s
}

// Available reports whether an impulse response is bound
func (s *ReverbSend) Available() bool {
	return s.conv != nil
}

// SetEnabled connects or disconnects the send edge and reports whether the requested state changed
// Without an impulse response only the requested state is recorded
func (s *ReverbSend) SetEnabled(on bool) bool {
	if s.enabled.Swap(on) == on {
		return false
	}
	if s.conv == nil {
		s.log.Debug("reverb unavailable, state recorded", "enabled", on)
		return true
	}
	// Disconnecting an absent edge is a no-op
	s.connected.Store(on)
	return true
}

// Enabled returns the requested state
func (s *ReverbSend) Enabled() bool {
	return s.enabled.Load()
}

// Connected reports whether the main bus currently feeds the convolver
func (s *ReverbSend) Connected() bool {
	return s.connected.Load()
}

// Process feeds dry into the convolver and adds the wet return into out
func (s *ReverbSend) Process(dry, out [][2]float64) {
	if s.conv == nil {
		return
	}
	n := len(dry)
	s.feed = grow(s.feed, n)
	s.wet = grow(s.wet, n)
	s.level = grow(s.level, n)

	if s.connected.Load() {
		copy(s.feed, dry)
	} else {
		if s.conv.Idle() {
			return
		}
		clear(s.feed)
	}

	s.conv.Process(s.feed, s.wet)
	s.tap.buf = s.wet
	s.ret.Stream(s.level)
	for i := 0; i < n; i++ {
		out[i][0] += s.level[i][0]
		out[i][1] += s.level[i][1]
	}
}

// grow returns buf resliced to n frames, reallocating when capacity is short
func grow(buf [][2]float64, n int) [][2]float64 {
	if cap(buf) < n {
		return make([][2]float64, n)
	}
	return buf[:n]
}

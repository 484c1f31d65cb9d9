package audio

import (
	"sync/atomic"

	"github.com/gopxl/beep"
)

// Generator is one looped, detuned playback of the shared sample
// Detune and loop region are bound at construction and never change; retuning builds a new Generator
type Generator struct {
	slot   int
	detune int

	// Owned by the render goroutine after publication
	src beep.Streamer

	playing atomic.Bool
	retired atomic.Bool
}

// newGenerator binds a fresh read cursor, loop region and resample ratio for one slot
func newGenerator(s *Sample, slot, cents int, outRate beep.SampleRate, quality int) *Generator {
	ratio := DetuneRatio(cents) * float64(s.Format().SampleRate) / float64(outRate)

	return &Generator{
		slot:   slot,
		detune: cents,
		src:    beep.ResampleRatio(quality, ratio, s.loop()),
	}
}

// Slot returns the voice slot the generator was built for
func (g *Generator) Slot() int {
	return g.slot
}

// Detune returns the bound detune in cents
func (g *Generator) Detune() int {
	return g.detune
}

// Playing reports whether the render path should pull audio from the generator
func (g *Generator) Playing() bool {
	return g.playing.Load() && !g.retired.Load()
}

// Retired reports whether the generator was hard-stopped and discarded
func (g *Generator) Retired() bool {
	return g.retired.Load()
}

// start begins playback at the loop origin, a retired or running generator is left alone
func (g *Generator) start() bool {
	if g.retired.Load() {
		return false
	}
	return g.playing.CompareAndSwap(false, true)
}

// retire hard-stops the generator; it is never restarted
func (g *Generator) retire() {
	g.retired.Store(true)
	g.playing.Store(false)
}

// Stream implements beep.Streamer
// Emits silence until started and drains (ok=false) once retired
func (g *Generator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.retired.Load() {
		return 0, false
	}
	if !g.playing.Load() {
		clear(samples)
		return len(samples), true
	}

	got, _ := g.src.Stream(samples)
	if got < len(samples) {
		clear(samples[got:])
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (g *Generator) Err() error {
	return nil
}

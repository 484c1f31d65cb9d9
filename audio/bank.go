package audio

import (
	"log/slog"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/harmonium/constant"
)

// VoiceState is the tagged state of a voice slot
type VoiceState uint8

const (
	VoiceIdle VoiceState = iota
	VoicePlaying
)

func (s VoiceState) String() string {
	if s == VoicePlaying {
		return "playing"
	}
	return "idle"
}

// Voice is one slot record of the bank arena
type Voice struct {
	Slot        int
	State       VoiceState
	DetuneCents int
	gen         *Generator
}

// Generator returns the live generator bound to the voice
func (v Voice) Generator() *Generator {
	return v.gen
}

// VoiceBank owns the 128 voice slots and their generators
// Allocate, Start, Stop and RetuneAll run on the control goroutine only
// Stream runs on the render goroutine and sees generators through the published table
type VoiceBank struct {
	sample  *Sample
	rate    beep.SampleRate
	quality int
	pitch   PitchTable

	voices    [constant.SlotCount]Voice
	published [constant.SlotCount]atomic.Pointer[Generator]

	active   atomic.Int32
	rebuilds atomic.Uint64

	// Render goroutine only
	scratch [][2]float64

	log *slog.Logger
}

// NewVoiceBank builds an idle generator for every slot
func NewVoiceBank(sample *Sample, pitch PitchTable, rate beep.SampleRate, quality int, logger *slog.Logger) *VoiceBank {
	if logger == nil {
		logger = slog.Default()
	}
	b := &VoiceBank{
		sample:  sample,
		rate:    rate,
		quality: quality,
		pitch:   pitch,
		log:     logger.With("component", "voicebank"),
	}
	for slot := range b.voices {
		b.voices[slot].Slot = slot
		b.Allocate(slot)
	}
	return b
}

// Allocate discards the slot's generator and binds a fresh idle one at the current pitch
func (b *VoiceBank) Allocate(slot int) {
	if !ValidSlot(slot) {
		b.log.Debug("allocate ignored", "slot", slot)
		return
	}

	v := &b.voices[slot]
	if v.gen != nil {
		v.gen.retire()
		if v.State == VoicePlaying {
			b.active.Add(-1)
		}
	}

	cents := b.pitch.DetuneCents(slot)
	g := newGenerator(b.sample, slot, cents, b.rate, b.quality)

	v.gen = g
	v.State = VoiceIdle
	v.DetuneCents = cents
	b.published[slot].Store(g)
	b.rebuilds.Add(1)
}

// Start plays an idle slot from the loop origin, a playing slot is left alone
func (b *VoiceBank) Start(slot int) {
	if !ValidSlot(slot) {
		b.log.Debug("start ignored", "slot", slot)
		return
	}

	v := &b.voices[slot]
	if v.State != VoiceIdle {
		return
	}
	if v.gen.start() {
		v.State = VoicePlaying
		b.active.Add(1)
	}
}

// Stop rebuilds the slot fresh and idle
func (b *VoiceBank) Stop(slot int) {
	b.Allocate(slot)
}

// RetuneAll rebinds every slot to the new table, silencing sounding voices
func (b *VoiceBank) RetuneAll(pitch PitchTable) {
	b.pitch = pitch
	for slot := range b.voices {
		b.Allocate(slot)
	}
}

// Voice returns a copy of the slot record
func (b *VoiceBank) Voice(slot int) Voice {
	if !ValidSlot(slot) {
		return Voice{Slot: slot}
	}
	return b.voices[slot]
}

// State returns the slot state, out-of-range slots read as idle
func (b *VoiceBank) State(slot int) VoiceState {
	if !ValidSlot(slot) {
		return VoiceIdle
	}
	return b.voices[slot].State
}

// Pitch returns the table generators are currently built from
func (b *VoiceBank) Pitch() PitchTable {
	return b.pitch
}

// ActiveCount returns the number of playing slots
func (b *VoiceBank) ActiveCount() int {
	return int(b.active.Load())
}

// Rebuilds returns the number of generators constructed so far
func (b *VoiceBank) Rebuilds() uint64 {
	return b.rebuilds.Load()
}

// Stream implements beep.Streamer by summing every playing generator
func (b *VoiceBank) Stream(samples [][2]float64) (n int, ok bool) {
	clear(samples)
	if cap(b.scratch) < len(samples) {
		b.scratch = make([][2]float64, len(samples))
	}
	buf := b.scratch[:len(samples)]

	for slot := range b.published {
		g := b.published[slot].Load()
		if g == nil || !g.Playing() {
			continue
		}
		got, _ := g.Stream(buf)
		for i := 0; i < got; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (b *VoiceBank) Err() error {
	return nil
}

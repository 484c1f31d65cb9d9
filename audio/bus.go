package audio

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
)

// Bus is the main mix: voices, master gain, reverb send and return, soft limiter
type Bus struct {
	voices beep.Streamer
	send   *ReverbSend
	gain   atomic.Uint64 // float64 bits

	// Render goroutine only
	dry [][2]float64
}

// NewBus creates a bus over the voice mix, send may be nil
func NewBus(voices beep.Streamer, send *ReverbSend) *Bus {
	b := &Bus{voices: voices, send: send}
	b.SetGain(1)
	return b
}

// SetGain sets the linear master gain, picked up at the next render quantum
func (b *Bus) SetGain(g float64) {
	b.gain.Store(math.Float64bits(max(g, 0)))
}

// Gain returns the linear master gain
func (b *Bus) Gain() float64 {
	return math.Float64frombits(b.gain.Load())
}

// Stream implements beep.Streamer
func (b *Bus) Stream(samples [][2]float64) (n int, ok bool) {
	n = len(samples)
	b.dry = grow(b.dry, n)

	b.voices.Stream(b.dry)

	g := b.Gain()
	for i := range b.dry {
		b.dry[i][0] *= g
		b.dry[i][1] *= g
	}
	copy(samples, b.dry)

	if b.send != nil {
		b.send.Process(b.dry, samples)
	}

	for i := range samples {
		samples[i][0] = softLimit(samples[i][0])
		samples[i][1] = softLimit(samples[i][1])
	}
	return n, true
}

// Err implements beep.Streamer
func (b *Bus) Err() error {
	return nil
}

// softLimit compresses peaks above 0.8 and hard clips at unity
func softLimit(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}

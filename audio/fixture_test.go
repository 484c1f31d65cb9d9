package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

var testFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// tone is a finite sine streamer used to build fixtures
type tone struct {
	frames int
	pos    int
	freq   float64
	amp    float64
	rate   float64
}

func newTone(frames int) *tone {
	return &tone{frames: frames, freq: 293.66, amp: 0.5, rate: float64(testFormat.SampleRate)}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.frames {
		return 0, false
	}
	i := 0
	for ; i < len(samples) && t.pos < t.frames; i++ {
		v := t.amp * math.Sin(2*math.Pi*t.freq*float64(t.pos)/t.rate)
		samples[i] = [2]float64{v, v}
		t.pos++
	}
	return i, true
}

func (t *tone) Err() error { return nil }

// testBuffer returns an in-memory tone buffer of the given length
func testBuffer(frames int) *beep.Buffer {
	buf := beep.NewBuffer(testFormat)
	buf.Append(newTone(frames))
	return buf
}

// testSample returns a one second looped sample
func testSample() *Sample {
	return NewSample(testBuffer(int(testFormat.SampleRate)), LoopEndBuffer)
}

// writeWAV encodes a tone fixture of the given length into dir
func writeWAV(t *testing.T, dir, name string, frames int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()
	if err := wav.Encode(f, newTone(frames), testFormat); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return path
}

// slotRecorder is a SlotPlayer that records calls
type slotRecorder struct {
	started []int
	stopped []int
}

func (r *slotRecorder) Start(slot int) { r.started = append(r.started, slot) }
func (r *slotRecorder) Stop(slot int)  { r.stopped = append(r.stopped, slot) }

// nonSilent reports whether any frame carries signal
func nonSilent(frames [][2]float64) bool {
	for _, f := range frames {
		if f[0] != 0 || f[1] != 0 {
			return true
		}
	}
	return false
}

// ramp is a finite streamer whose frame i carries i/frames on both channels
type ramp struct {
	frames int
	pos    int
}

func (r *ramp) Stream(samples [][2]float64) (int, bool) {
	if r.pos >= r.frames {
		return 0, false
	}
	i := 0
	for ; i < len(samples) && r.pos < r.frames; i++ {
		v := float64(r.pos) / float64(r.frames)
		samples[i] = [2]float64{v, -v}
		r.pos++
	}
	return i, true
}

func (r *ramp) Err() error { return nil }

// rampBuffer returns an in-memory buffer where every frame position is distinguishable
func rampBuffer(frames int) *beep.Buffer {
	buf := beep.NewBuffer(testFormat)
	buf.Append(&ramp{frames: frames})
	return buf
}

// readFrames streams exactly n frames from s
func readFrames(t *testing.T, s beep.Streamer, n int) [][2]float64 {
	t.Helper()
	out := make([][2]float64, n)
	for got := 0; got < n; {
		k, ok := s.Stream(out[got:])
		if !ok {
			t.Fatalf("stream ended after %d of %d frames", got+k, n)
		}
		got += k
	}
	return out
}

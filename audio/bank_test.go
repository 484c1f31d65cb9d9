package audio

import (
	"testing"

	"github.com/lixenwraith/harmonium/constant"
)

func newTestBank(transpose int) *VoiceBank {
	return NewVoiceBank(testSample(), ComputePitchMap(transpose), testFormat.SampleRate, 1, nil)
}

// TestVoiceBankInitialState verifies every slot starts idle with its detune bound
func TestVoiceBankInitialState(t *testing.T) {
	b := newTestBank(0)

	for slot := 0; slot < constant.SlotCount; slot++ {
		v := b.Voice(slot)
		if v.State != VoiceIdle {
			t.Fatalf("slot %d not idle", slot)
		}
		if v.DetuneCents != (slot-62)*100 {
			t.Fatalf("slot %d detune %d", slot, v.DetuneCents)
		}
		if v.Generator() == nil || v.Generator().Detune() != v.DetuneCents {
			t.Fatalf("slot %d generator not bound", slot)
		}
	}
	if b.Rebuilds() != constant.SlotCount {
		t.Errorf("Expected %d initial builds, got %d", constant.SlotCount, b.Rebuilds())
	}
	if b.ActiveCount() != 0 {
		t.Errorf("Expected no active voices, got %d", b.ActiveCount())
	}
}

// TestVoiceBankStartIdempotent verifies a second start on a playing slot is a no-op
func TestVoiceBankStartIdempotent(t *testing.T) {
	b := newTestBank(0)
	gen := b.Voice(60).Generator()

	b.Start(60)
	b.Start(60)

	if b.State(60) != VoicePlaying {
		t.Fatalf("Expected slot 60 playing")
	}
	if b.Voice(60).Generator() != gen {
		t.Error("Start must not replace the generator")
	}
	if b.ActiveCount() != 1 {
		t.Errorf("Expected one active voice, got %d", b.ActiveCount())
	}
}

// TestVoiceBankStopRebuilds verifies stop discards the generator and leaves a fresh idle one
func TestVoiceBankStopRebuilds(t *testing.T) {
	b := newTestBank(0)
	b.Start(60)
	old := b.Voice(60).Generator()
	builds := b.Rebuilds()

	b.Stop(60)

	v := b.Voice(60)
	if v.State != VoiceIdle {
		t.Error("Expected idle after stop")
	}
	if v.Generator() == old {
		t.Error("Expected a new generator after stop")
	}
	if !old.Retired() || old.Playing() {
		t.Error("Expected the old generator to be retired")
	}
	if v.Generator().Playing() || v.Generator().Retired() {
		t.Error("Expected the new generator idle and live")
	}
	if b.Rebuilds() != builds+1 {
		t.Errorf("Expected one rebuild, got %d", b.Rebuilds()-builds)
	}
	if b.ActiveCount() != 0 {
		t.Errorf("Expected no active voices, got %d", b.ActiveCount())
	}
}

// TestVoiceBankStopIdle verifies stopping a never-started slot is not an error
func TestVoiceBankStopIdle(t *testing.T) {
	b := newTestBank(0)
	b.Stop(10)
	if b.State(10) != VoiceIdle {
		t.Error("Expected idle slot")
	}
	if b.ActiveCount() != 0 {
		t.Errorf("Active count went to %d", b.ActiveCount())
	}
}

// TestVoiceBankOutOfRange verifies invalid slots are ignored
func TestVoiceBankOutOfRange(t *testing.T) {
	b := newTestBank(0)
	builds := b.Rebuilds()

	for _, slot := range []int{-1, 128, 500} {
		b.Allocate(slot)
		b.Start(slot)
		b.Stop(slot)
		if b.State(slot) != VoiceIdle {
			t.Errorf("slot %d reported playing", slot)
		}
	}
	if b.Rebuilds() != builds {
		t.Error("Out-of-range calls must not build generators")
	}
	if b.ActiveCount() != 0 {
		t.Errorf("Active count went to %d", b.ActiveCount())
	}
}

// TestVoiceBankRetuneAll verifies retune silences playing voices and binds new detune
func TestVoiceBankRetuneAll(t *testing.T) {
	b := newTestBank(0)
	b.Start(60)
	b.Start(72)

	b.RetuneAll(ComputePitchMap(5))

	for _, slot := range []int{60, 72} {
		v := b.Voice(slot)
		if v.State != VoiceIdle {
			t.Errorf("slot %d still playing after retune", slot)
		}
		if want := (slot - 62 + 5) * 100; v.DetuneCents != want {
			t.Errorf("slot %d detune %d, want %d", slot, v.DetuneCents, want)
		}
	}
	if b.ActiveCount() != 0 {
		t.Errorf("Expected no active voices, got %d", b.ActiveCount())
	}
	if b.Pitch() != ComputePitchMap(5) {
		t.Error("Expected the bank to keep the new table")
	}
}

// TestVoiceBankStream verifies only playing voices reach the mix
func TestVoiceBankStream(t *testing.T) {
	b := newTestBank(0)
	buf := make([][2]float64, 512)

	n, ok := b.Stream(buf)
	if n != len(buf) || !ok {
		t.Fatalf("Stream = (%d, %v)", n, ok)
	}
	if nonSilent(buf) {
		t.Error("Expected silence with no voices playing")
	}

	b.Start(62)
	b.Stream(buf)
	if !nonSilent(buf) {
		t.Error("Expected signal from a playing voice")
	}

	b.Stop(62)
	b.Stream(buf)
	if nonSilent(buf) {
		t.Error("Expected silence after stop")
	}
}

// TestGeneratorLoops verifies a playing generator keeps producing past the sample end
func TestGeneratorLoops(t *testing.T) {
	s := testSample()
	g := newGenerator(s, 62, 0, testFormat.SampleRate, 1)

	buf := make([][2]float64, 4096)
	if !g.start() {
		t.Fatal("Expected first start to succeed")
	}
	if g.start() {
		t.Error("Expected second start to report no change")
	}

	// Three seconds of a one second sample
	for i := 0; i < 3*int(testFormat.SampleRate)/len(buf); i++ {
		n, ok := g.Stream(buf)
		if n != len(buf) || !ok {
			t.Fatalf("Stream ended at block %d", i)
		}
	}
	if !nonSilent(buf) {
		t.Error("Expected looped signal after the sample end")
	}

	g.retire()
	if g.start() {
		t.Error("A retired generator must not restart")
	}
	if n, ok := g.Stream(buf); n != 0 || ok {
		t.Errorf("Expected drained stream, got (%d, %v)", n, ok)
	}
}

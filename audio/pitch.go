package audio

import (
	"math"

	"github.com/lixenwraith/harmonium/constant"
)

// PitchTable holds the semitone offset of every slot relative to the sample's native pitch
type PitchTable [constant.SlotCount]int

// ComputePitchMap returns offset[i] = i - RootKey + transpose for the full slot space
func ComputePitchMap(transpose int) PitchTable {
	var t PitchTable
	for i := range t {
		t[i] = i - constant.RootKey + transpose
	}
	return t
}

// DetuneCents returns the detune bound to a generator built for slot
func (t *PitchTable) DetuneCents(slot int) int {
	return t[slot] * constant.CentsPerSemitone
}

// DetuneRatio converts cents to a playback speed ratio, 1200 cents = 2x
func DetuneRatio(cents int) float64 {
	return math.Exp2(float64(cents) / 1200)
}

// ValidSlot reports whether slot addresses a voice
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < constant.SlotCount
}

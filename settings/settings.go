// Package settings holds the user-facing instrument settings and their persistence.
// The audio engine reads these values through its setters; it never persists them
package settings

import (
	"strconv"

	"github.com/lixenwraith/harmonium/constant"
)

// Settings is the persisted instrument configuration
type Settings struct {
	Volume          int    `toml:"volume"`
	ReverbEnabled   bool   `toml:"use_reverb"`
	Transpose       int    `toml:"transpose"`
	Octave          int    `toml:"octave"`
	AdditionalReeds int    `toml:"stack"`
	MIDIDevice      string `toml:"midi_device"`
}

// Default returns the factory settings
func Default() Settings {
	return Settings{
		Volume:          constant.DefaultVolume,
		Transpose:       constant.DefaultTranspose,
		Octave:          constant.DefaultOctave,
		AdditionalReeds: constant.DefaultReeds,
	}
}

// Clamp returns a copy with every field forced into range
// Octave is clamped first so the reed ceiling is derived from the final octave
func (s Settings) Clamp() Settings {
	s.Volume = ClampVolume(s.Volume)
	s.Transpose = ClampTranspose(s.Transpose)
	s.Octave = ClampOctave(s.Octave)
	s.AdditionalReeds = ClampReeds(s.AdditionalReeds, s.Octave)
	return s
}

// ClampVolume forces v into [0,100]
func ClampVolume(v int) int {
	return clamp(v, constant.VolumeMin, constant.VolumeMax)
}

// ClampTranspose forces t into [-11,11]
func ClampTranspose(t int) int {
	return clamp(t, constant.TransposeMin, constant.TransposeMax)
}

// ClampOctave forces o into [0,6]
func ClampOctave(o int) int {
	return clamp(o, constant.OctaveMin, constant.OctaveMax)
}

// ClampReeds forces r into [0, 6-octave]
func ClampReeds(r, octave int) int {
	return clamp(r, constant.ReedsMin, constant.MaxStack-ClampOctave(octave))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// RootNoteName returns the tonic name shown next to the transpose value
func RootNoteName(transpose int) string {
	semitone := transpose % 12
	if semitone < 0 {
		semitone += 12
	}
	return noteNames[semitone]
}

// NoteName formats a MIDI note number as name and octave, 60 = C4
func NoteName(note int) string {
	if note < 0 || note > constant.MIDIValueMax {
		return "?"
	}
	return noteNames[note%12] + strconv.Itoa(note/12-1)
}

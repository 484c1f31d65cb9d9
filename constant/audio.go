package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration determines output latency and pipe pump tick rate
	AudioBufferDuration = 50 * time.Millisecond

	// AudioBufferSamples is frames per pump tick at 44.1kHz
	AudioBufferSamples = (AudioSampleRate * 50) / 1000 // 2205

	// SpeakerBufferDuration is the beep speaker buffer size
	SpeakerBufferDuration = 100 * time.Millisecond
)

// Voice Slot Space
const (
	// SlotCount is the number of addressable voices, equal to the MIDI note space
	SlotCount = 128

	// RootKey is the slot at which the sample plays at its native pitch
	RootKey = 62

	// CentsPerSemitone converts pitch table offsets to detune
	CentsPerSemitone = 100

	// DefaultResampleQuality is passed to beep.ResampleRatio
	DefaultResampleQuality = 4
)

// OctaveOffsets maps octave setting to slot shift in semitones
var OctaveOffsets = [OctaveCount]int{-36, -24, -12, 0, 12, 24, 36}

// OctaveCount is the number of octave positions, also the reed layer ceiling
const OctaveCount = 7

// Sample Loop Region
const (
	// LoopStart skips the reed attack on every loop pass
	LoopStart = 500 * time.Millisecond

	// LoopEndFixed is the loop end used by the fixed variant
	LoopEndFixed = 7500 * time.Millisecond
)

// Reverb
const (
	// ReverbBlockSize is the partition length of the convolution engine (power of two)
	ReverbBlockSize = 1024

	// ReverbWetLevel is the linear gain of the reverb return
	ReverbWetLevel = 0.6
)

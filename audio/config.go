package audio

import (
	"os"
	"strconv"
	"strings"

	"github.com/lixenwraith/harmonium/constant"
)

// AudioConfig holds engine configuration resolved from environment and flags
type AudioConfig struct {
	Backend         string  // auto, speaker, pipe, none
	SampleRate      int     // Output rate
	Sample          string  // Instrument sample path or URL
	Impulse         string  // Reverb impulse response path or URL, empty disables reverb
	LoopEnd         LoopEnd // Loop region end variant
	ResampleQuality int     // beep resampler quality, 1..64
	ReverbWet       float64 // Linear reverb return gain
	ReverbBlock     int     // Convolution partition length
}

// DefaultAudioConfig returns the built-in configuration
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Backend:         "auto",
		SampleRate:      constant.AudioSampleRate,
		Sample:          "assets/harmonium.wav",
		Impulse:         "assets/reverb.wav",
		LoopEnd:         LoopEndBuffer,
		ResampleQuality: constant.DefaultResampleQuality,
		ReverbWet:       constant.ReverbWetLevel,
		ReverbBlock:     constant.ReverbBlockSize,
	}
}

// LoadAudioConfig loads audio configuration from environment variables
func LoadAudioConfig() *AudioConfig {
	cfg := DefaultAudioConfig()

	if backend := os.Getenv("HARMONIUM_AUDIO_BACKEND"); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}

	if sampleRate := os.Getenv("HARMONIUM_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if sample := os.Getenv("HARMONIUM_SAMPLE"); sample != "" {
		cfg.Sample = sample
	}

	// Present but empty disables reverb
	if impulse, ok := os.LookupEnv("HARMONIUM_IMPULSE"); ok {
		cfg.Impulse = impulse
	}

	if loopEnd := os.Getenv("HARMONIUM_LOOP_END"); loopEnd != "" {
		cfg.LoopEnd = ParseLoopEnd(loopEnd)
	}

	if quality := os.Getenv("HARMONIUM_RESAMPLE_QUALITY"); quality != "" {
		if val, err := strconv.Atoi(quality); err == nil {
			cfg.ResampleQuality = val
		}
	}

	if wet := os.Getenv("HARMONIUM_REVERB_WET"); wet != "" {
		if val, err := strconv.ParseFloat(wet, 64); err == nil {
			cfg.ReverbWet = val
		}
	}

	if block := os.Getenv("HARMONIUM_REVERB_BLOCK"); block != "" {
		if val, err := strconv.Atoi(block); err == nil {
			cfg.ReverbBlock = val
		}
	}

	cfg.normalize()
	return cfg
}

// normalize pulls numeric fields into their valid ranges
func (c *AudioConfig) normalize() {
	switch c.Backend {
	case "auto", "speaker", "pipe", "none":
	default:
		c.Backend = "auto"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = constant.AudioSampleRate
	}
	c.ResampleQuality = max(1, min(c.ResampleQuality, 64))
	c.ReverbWet = max(0, min(c.ReverbWet, 1))
	if c.ReverbBlock < 64 {
		c.ReverbBlock = constant.ReverbBlockSize
	}
}

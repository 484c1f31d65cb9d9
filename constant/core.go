package constant

import "time"

// Control Loop Timing
const (
	// ControlTickInterval drives key release expiry, event draining and status redraw
	ControlTickInterval = 20 * time.Millisecond

	// MIDIRescanInterval is the minimum interval between MIDI port scans
	MIDIRescanInterval = 1000 * time.Millisecond

	// KeyHoldTimeout is the window in which a repeated key press counts as the same hold
	// Must exceed the desktop auto-repeat initial delay (X11 660ms, KDE 600ms)
	KeyHoldTimeout = 750 * time.Millisecond
)

// EventQueueSize is the number of pending input events accepted before overflow
const EventQueueSize = 512

// Settings Ranges
const (
	VolumeMin    = 0
	VolumeMax    = 100
	VolumeUIMin  = 1
	VolumeStep   = 5
	TransposeMin = -11
	TransposeMax = 11
	OctaveMin    = 0
	OctaveMax    = 6
	ReedsMin     = 0

	// MaxStack bounds octave + additional reeds
	MaxStack = 6
)

// Settings Defaults
const (
	DefaultVolume    = 30
	DefaultTranspose = 0
	DefaultOctave    = 3
	DefaultReeds     = 0
)

// MIDI
const (
	// MIDIVolumeController is the channel volume control change number
	MIDIVolumeController = 7

	// MIDIValueMax is the largest 7-bit data byte
	MIDIValueMax = 127
)

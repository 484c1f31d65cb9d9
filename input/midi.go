package input

import (
	"math"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"

	"github.com/lixenwraith/harmonium/constant"
)

// DecodeMIDI converts a channel voice message into an engine event
// Note-on with velocity 0 decodes as note-off. Controller 7 becomes a volume request
// scaled from [0,127] to [0,100]. Anything else is ignored
func DecodeMIDI(msg midi.Message, device string) (Event, bool) {
	var ch, key, vel, ctrl, val uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOn(int(key), SourceMIDI, device), true
	case msg.GetNoteEnd(&ch, &key):
		return NoteOff(int(key), SourceMIDI, device), true
	case msg.GetControlChange(&ch, &ctrl, &val):
		if ctrl != constant.MIDIVolumeController {
			return Event{}, false
		}
		return VolumeSet(ScaleVolume(val)), true
	default:
		return Event{}, false
	}
}

// ScaleVolume maps a 7-bit controller value linearly onto [0,100], rounding to nearest
func ScaleVolume(v uint8) int {
	return int(math.Round(float64(constant.VolumeMax) * float64(v) / constant.MIDIValueMax))
}

// messageChannel extracts the 1-based channel of a channel voice message, 0 otherwise
func messageChannel(msg midi.Message) uint8 {
	if len(msg) == 0 {
		return 0
	}
	status := msg[0]
	if status < 0x80 || status >= 0xF0 {
		return 0
	}
	return status&0x0F + 1
}

// DeviceFilter drops events from devices other than the selected one
// Empty selection (or "none") accepts every device
type DeviceFilter struct {
	selected atomic.Pointer[string]
	channel  atomic.Uint32 // 0 = omni, 1..16
}

// NewDeviceFilter creates a filter with the given device selection and channel (0 = omni)
func NewDeviceFilter(device string, channel int) *DeviceFilter {
	f := &DeviceFilter{}
	f.Select(device)
	f.SetChannel(channel)
	return f
}

// Select changes the accepted device, safe to call while listeners run
func (f *DeviceFilter) Select(device string) {
	if device == "none" {
		device = ""
	}
	f.selected.Store(&device)
}

// Selected returns the accepted device, empty when all devices pass
func (f *DeviceFilter) Selected() string {
	if p := f.selected.Load(); p != nil {
		return *p
	}
	return ""
}

// SetChannel restricts accepted messages to a 1-based channel, 0 accepts all
func (f *DeviceFilter) SetChannel(channel int) {
	if channel < 0 || channel > 16 {
		channel = 0
	}
	f.channel.Store(uint32(channel))
}

// Channel returns the channel restriction, 0 = omni
func (f *DeviceFilter) Channel() int {
	return int(f.channel.Load())
}

// Pass reports whether a message from device should reach the router
func (f *DeviceFilter) Pass(device string, msg midi.Message) bool {
	if sel := f.Selected(); sel != "" && sel != device {
		return false
	}
	if ch := f.channel.Load(); ch != 0 {
		if mc := messageChannel(msg); mc != 0 && uint32(mc) != ch {
			return false
		}
	}
	return true
}

// Package input turns keyboard and MIDI activity into engine events
// Producers (terminal poller, MIDI listeners) push into an EventQueue; the control loop is the single consumer
package input

// Source identifies where a note event originated
type Source uint8

const (
	SourceKeyboard Source = iota
	SourceMIDI
)

func (s Source) String() string {
	switch s {
	case SourceKeyboard:
		return "keyboard"
	case SourceMIDI:
		return "midi"
	default:
		return "unknown"
	}
}

// NoteEvent is a single note-on or note-off
type NoteEvent struct {
	Note     int
	Down     bool
	Source   Source
	DeviceID string // Empty for keyboard
}

// Kind discriminates Event payloads
type Kind uint8

const (
	KindNote    Kind = iota
	KindVolume       // Absolute volume request, Value in [0,100]
	KindControl      // Relative settings change from control keys
)

// Control is a settings adjustment issued by a control key
type Control uint8

const (
	ControlNone Control = iota
	ControlOctaveUp
	ControlOctaveDown
	ControlTransposeUp
	ControlTransposeDown
	ControlReedsUp
	ControlReedsDown
	ControlVolumeUp
	ControlVolumeDown
	ControlToggleReverb
	ControlQuit
)

// Event is the queued unit consumed by the control loop
type Event struct {
	Kind    Kind
	Note    NoteEvent
	Value   int
	Control Control
}

// Sink accepts events from a producer
type Sink interface {
	Push(Event)
}

// NoteOn builds a note-on event
func NoteOn(note int, src Source, device string) Event {
	return Event{Kind: KindNote, Note: NoteEvent{Note: note, Down: true, Source: src, DeviceID: device}}
}

// NoteOff builds a note-off event
func NoteOff(note int, src Source, device string) Event {
	return Event{Kind: KindNote, Note: NoteEvent{Note: note, Down: false, Source: src, DeviceID: device}}
}

// VolumeSet builds an absolute volume request
func VolumeSet(v int) Event {
	return Event{Kind: KindVolume, Value: v}
}

// ControlEvent builds a control key event
func ControlEvent(c Control) Event {
	return Event{Kind: KindControl, Control: c}
}

package input

import (
	"os"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/harmonium/constant"
)

// NoteKeys maps computer keyboard runes to MIDI notes, two rows spanning F3..G5
// Upper-case letters alias their lower-case key so Shift does not change pitch
var NoteKeys = map[rune]int{
	's': 53, 'S': 53,
	'a': 54, 'A': 54,
	'`': 55,
	'1': 56,
	'q': 57, 'Q': 57,
	'2': 58,
	'w': 59, 'W': 59,
	'e': 60, 'E': 60,
	'4': 61,
	'r': 62, 'R': 62,
	'5': 63,
	't': 64, 'T': 64,
	'y': 65, 'Y': 65,
	'7': 66,
	'u': 67, 'U': 67,
	'8': 68,
	'i': 69, 'I': 69,
	'9': 70,
	'o': 71, 'O': 71,
	'p': 72, 'P': 72,
	'-':  73,
	'[':  74,
	'=':  75,
	']':  76,
	'\\': 77,
	'\'': 78,
	';':  79,
}

// ControlKeys maps special keys to settings adjustments
var ControlKeys = map[tcell.Key]Control{
	tcell.KeyUp:     ControlOctaveUp,
	tcell.KeyDown:   ControlOctaveDown,
	tcell.KeyRight:  ControlTransposeUp,
	tcell.KeyLeft:   ControlTransposeDown,
	tcell.KeyPgUp:   ControlReedsUp,
	tcell.KeyPgDn:   ControlReedsDown,
	tcell.KeyF6:     ControlVolumeUp,
	tcell.KeyF5:     ControlVolumeDown,
	tcell.KeyCtrlR:  ControlToggleReverb,
	tcell.KeyEscape: ControlQuit,
	tcell.KeyCtrlC:  ControlQuit,
}

// LoadKeyHold reads the hold window from HARMONIUM_KEY_HOLD
// Accepts a Go duration ("800ms") or plain milliseconds; missing or invalid selects constant.KeyHoldTimeout
func LoadKeyHold() time.Duration {
	v := os.Getenv("HARMONIUM_KEY_HOLD")
	if v == "" {
		return constant.KeyHoldTimeout
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return constant.KeyHoldTimeout
}

// Keyboard converts terminal key presses into note events
// Terminals deliver no key release, only auto-repeat presses while a key is held:
// a note stays down while presses keep arriving within the hold window and is released
// by Expire once the window passes without a repeat
type Keyboard struct {
	sink Sink
	hold time.Duration
	held map[int]time.Time // note -> last press
}

// NewKeyboard creates a keyboard adapter pushing into sink
// hold <= 0 selects constant.KeyHoldTimeout
func NewKeyboard(sink Sink, hold time.Duration) *Keyboard {
	if hold <= 0 {
		hold = constant.KeyHoldTimeout
	}
	return &Keyboard{
		sink: sink,
		hold: hold,
		held: make(map[int]time.Time),
	}
}

// HandleKey processes a tcell key event, returns false if the key is not bound
func (k *Keyboard) HandleKey(ev *tcell.EventKey, now time.Time) bool {
	if ev.Key() == tcell.KeyRune {
		return k.Press(ev.Rune(), now)
	}
	if c, ok := ControlKeys[ev.Key()]; ok {
		k.sink.Push(ControlEvent(c))
		return true
	}
	return false
}

// Press registers a rune press, emitting note-on only for the first press of a hold
func (k *Keyboard) Press(r rune, now time.Time) bool {
	note, ok := NoteKeys[r]
	if !ok {
		return false
	}

	if _, down := k.held[note]; !down {
		k.sink.Push(NoteOn(note, SourceKeyboard, ""))
	}
	k.held[note] = now
	return true
}

// Expire releases notes whose last press is older than the hold window
func (k *Keyboard) Expire(now time.Time) {
	for note, last := range k.held {
		if now.Sub(last) >= k.hold {
			delete(k.held, note)
			k.sink.Push(NoteOff(note, SourceKeyboard, ""))
		}
	}
}

// ReleaseAll emits note-off for every held note
func (k *Keyboard) ReleaseAll() {
	for note := range k.held {
		delete(k.held, note)
		k.sink.Push(NoteOff(note, SourceKeyboard, ""))
	}
}

// Held returns the number of notes currently held
func (k *Keyboard) Held() int {
	return len(k.held)
}

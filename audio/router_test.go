package audio

import (
	"reflect"
	"testing"

	"github.com/lixenwraith/harmonium/input"
)

// TestRouterSlots verifies note to slot resolution across octave and reed layers
func TestRouterSlots(t *testing.T) {
	tests := []struct {
		name   string
		octave int
		reeds  int
		note   int
		want   []int
	}{
		{"middle octave", 3, 0, 60, []int{60}},
		{"two reeds", 3, 2, 60, []int{60, 72, 84}},
		{"lowest octave", 0, 0, 60, []int{24}},
		{"full stack", 0, 6, 60, []int{24, 36, 48, 60, 72, 84, 96}},
		{"upper layer dropped", 5, 1, 100, []int{124}},
		{"above range dropped", 6, 0, 100, []int{}},
		{"lower layer dropped", 0, 1, 30, []int{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewNoteRouter(&slotRecorder{}, tt.octave, tt.reeds)
			if got := r.Slots(tt.note); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Slots(%d) = %v, want %v", tt.note, got, tt.want)
			}
		})
	}
}

// TestRouterLayoutClamp verifies reed layers never index past the offset table
func TestRouterLayoutClamp(t *testing.T) {
	r := NewNoteRouter(&slotRecorder{}, 5, 4)
	if o, reeds := r.Layout(); o != 5 || reeds != 1 {
		t.Errorf("Layout = (%d, %d), want (5, 1)", o, reeds)
	}

	r.SetLayout(9, -2)
	if o, reeds := r.Layout(); o != 6 || reeds != 0 {
		t.Errorf("Layout = (%d, %d), want (6, 0)", o, reeds)
	}
}

// TestRouterNoteOnOff verifies start and unconditional stop fan-out
func TestRouterNoteOnOff(t *testing.T) {
	rec := &slotRecorder{}
	r := NewNoteRouter(rec, 3, 1)

	r.Route(input.NoteEvent{Note: 60, Down: true})
	r.NoteOff(64)

	if !reflect.DeepEqual(rec.started, []int{60, 72}) {
		t.Errorf("started %v", rec.started)
	}
	if !reflect.DeepEqual(rec.stopped, []int{64, 76}) {
		t.Errorf("stopped %v", rec.stopped)
	}
}

// TestRouterLayoutChangeLeavesVoices verifies an octave change only affects future notes
func TestRouterLayoutChangeLeavesVoices(t *testing.T) {
	b := newTestBank(0)
	r := NewNoteRouter(b, 3, 0)

	r.NoteOn(60)
	r.SetLayout(4, 0)

	if b.State(60) != VoicePlaying {
		t.Error("Layout change must not stop sounding voices")
	}

	// Release now resolves to the new octave, the old slot keeps sounding
	r.NoteOff(60)
	if b.State(60) != VoicePlaying {
		t.Error("Expected slot 60 still playing")
	}
	if b.State(72) != VoiceIdle {
		t.Error("Expected slot 72 idle")
	}
}

// TestRouterSlotCollisionLastCallWins flags the unresolved collision between a reed layer
// and another note's primary slot. No priority exists: whichever call reaches the slot last wins.
func TestRouterSlotCollisionLastCallWins(t *testing.T) {
	b := newTestBank(0)
	r := NewNoteRouter(b, 3, 1)

	r.NoteOn(60) // slots 60, 72
	r.NoteOn(72) // slots 72, 84; 72 is already playing and stays untouched
	if b.ActiveCount() != 3 {
		t.Fatalf("Expected 3 active voices, got %d", b.ActiveCount())
	}

	// Releasing 72 silences the reed layer still held by 60
	r.NoteOff(72)
	if b.State(72) != VoiceIdle {
		t.Error("Expected shared slot 72 idle after the later note-off")
	}
	if b.State(60) != VoicePlaying {
		t.Error("Expected slot 60 still playing")
	}
}

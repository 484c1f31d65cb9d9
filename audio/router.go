package audio

import (
	"github.com/lixenwraith/harmonium/constant"
	"github.com/lixenwraith/harmonium/input"
)

// SlotPlayer is the voice surface the router drives
type SlotPlayer interface {
	Start(slot int)
	Stop(slot int)
}

// NoteRouter resolves notes to voice slots across the primary octave and reed layers
// Layout changes only affect future events, sounding slots are never touched
type NoteRouter struct {
	player SlotPlayer
	octave int
	reeds  int
}

// NewNoteRouter creates a router over player with the given layout
func NewNoteRouter(player SlotPlayer, octave, reeds int) *NoteRouter {
	r := &NoteRouter{player: player}
	r.SetLayout(octave, reeds)
	return r
}

// SetLayout updates octave and reed count, keeping every layer inside the offset table
func (r *NoteRouter) SetLayout(octave, reeds int) {
	octave = max(0, min(octave, constant.OctaveCount-1))
	reeds = max(0, min(reeds, constant.OctaveCount-1-octave))
	r.octave, r.reeds = octave, reeds
}

// Layout returns the current octave and reed count
func (r *NoteRouter) Layout() (octave, reeds int) {
	return r.octave, r.reeds
}

// Slots returns the in-range slots a note resolves to, primary layer first
func (r *NoteRouter) Slots(note int) []int {
	slots := make([]int, 0, r.reeds+1)
	for layer := 0; layer <= r.reeds; layer++ {
		slot := note + constant.OctaveOffsets[r.octave+layer]
		if ValidSlot(slot) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// NoteOn starts every slot the note resolves to
func (r *NoteRouter) NoteOn(note int) {
	for _, slot := range r.Slots(note) {
		r.player.Start(slot)
	}
}

// NoteOff stops every slot the note resolves to, whether or not it was started
func (r *NoteRouter) NoteOff(note int) {
	for _, slot := range r.Slots(note) {
		r.player.Stop(slot)
	}
}

// Route dispatches a note event
func (r *NoteRouter) Route(ev input.NoteEvent) {
	if ev.Down {
		r.NoteOn(ev.Note)
	} else {
		r.NoteOff(ev.Note)
	}
}

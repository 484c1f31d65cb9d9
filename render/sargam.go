package render

import "github.com/lixenwraith/harmonium/input"

// SargamTonic is the keyboard note labelled S (the 'e' key)
const SargamTonic = 60

const (
	dotBelow = '\u0323' // Lower octave
	dotAbove = '\u0307' // Upper octave
)

// sargamSwaras names the twelve semitones from S, komal and shuddha share a letter
var sargamSwaras = [12]rune{'S', 'R', 'R', 'G', 'G', 'M', 'M', 'P', 'D', 'D', 'N', 'N'}

// legendKeys is the note key order of the legend, lowest note first
var legendKeys = []rune{'s', 'a', '`', '1', 'q', '2', 'w', 'e', '4', 'r', '5', 't', 'y', '7', 'u', '8', 'i', '9', 'o', 'p', '-', '[', '=', ']', '\\', '\'', ';'}

// Sargam returns the swara letter of note and its octave mark, 0 for the middle octave
func Sargam(note int) (swara, mark rune) {
	off := note - SargamTonic
	octave := off / 12
	if off < 0 && off%12 != 0 {
		octave--
	}
	swara = sargamSwaras[off-octave*12]
	switch {
	case octave < 0:
		mark = dotBelow
	case octave > 0:
		mark = dotAbove
	}
	return swara, mark
}

// legendNote returns the note bound to a legend key
func legendNote(key rune) int {
	return input.NoteKeys[key]
}

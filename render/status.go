// Package render draws the instrument status panel on a tcell screen
package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/harmonium/audio"
	"github.com/lixenwraith/harmonium/constant"
	"github.com/lixenwraith/harmonium/settings"
)

// Status is the snapshot drawn each frame
type Status struct {
	Settings      settings.Settings
	Engine        audio.Stats
	MIDISupported bool
	MIDIDevices   []string
	HeldKeys      int
}

// Panel renders Status into the top-left corner of the screen
type Panel struct {
	screen tcell.Screen
}

var (
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleOK     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn   = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleMeter  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleLegend = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
)

// meterWidth is the volume bar length in cells
const meterWidth = 20

// NewPanel creates a panel drawing on screen
func NewPanel(screen tcell.Screen) *Panel {
	return &Panel{screen: screen}
}

// Draw clears the screen, renders the snapshot and shows it
func (p *Panel) Draw(st Status) {
	p.screen.Clear()

	y := 0
	p.text(0, y, "HARMONIUM", styleTitle)
	label, style := engineLabel(st.Engine)
	p.text(12, y, label, style)
	y += 2

	s := st.Settings

	// Volume meter
	p.text(0, y, "Volume", styleLabel)
	filled := s.Volume * meterWidth / constant.VolumeMax
	p.text(12, y, strings.Repeat("█", filled)+strings.Repeat("░", meterWidth-filled), styleMeter)
	p.text(12+meterWidth+1, y, fmt.Sprintf("%3d%%", s.Volume), styleValue)
	y++

	p.field(y, "Octave", fmt.Sprintf("%d", s.Octave))
	y++
	p.field(y, "Reeds", fmt.Sprintf("+%d (max %d)", s.AdditionalReeds, constant.MaxStack-s.Octave))
	y++
	p.field(y, "Transpose", fmt.Sprintf("%+d  root %s", s.Transpose, settings.RootNoteName(s.Transpose)))
	y++

	p.text(0, y, "Reverb", styleLabel)
	switch {
	case !st.Engine.Reverb && st.Engine.State == audio.StateReady:
		p.text(12, y, "unavailable", styleWarn)
	case s.ReverbEnabled:
		p.text(12, y, "on", styleOK)
	default:
		p.text(12, y, "off", styleValue)
	}
	y++

	p.text(0, y, "MIDI", styleLabel)
	switch {
	case !st.MIDISupported:
		p.text(12, y, "not supported", styleWarn)
	case len(st.MIDIDevices) == 0:
		p.text(12, y, "no devices", styleValue)
	default:
		p.text(12, y, strings.Join(st.MIDIDevices, ", "), styleOK)
	}
	if s.MIDIDevice != "" {
		p.text(0, y+1, "  filter", styleLabel)
		p.text(12, y+1, s.MIDIDevice, styleValue)
		y++
	}
	y++

	p.field(y, "Voices", fmt.Sprintf("%d active  %d held  %d built", st.Engine.Active, st.HeldKeys, st.Engine.Rebuilds))
	y++
	output := st.Engine.Backend.String()
	if st.Engine.Silent {
		output += " (silent)"
	}
	p.field(y, "Output", output)
	y += 2

	p.text(0, y, "Keys", styleLabel)
	p.text(0, y+1, "Sargam", styleLabel)
	for i, key := range legendKeys {
		x := 8 + 2*i
		p.cell(x, y, key, 0, styleLegend)
		swara, mark := Sargam(legendNote(key))
		p.cell(x, y+1, swara, mark, styleValue)
	}
	y += 2
	p.text(0, y, "Up/Down octave  Left/Right transpose  PgUp/PgDn reeds", styleLegend)
	y++
	p.text(0, y, "F5/F6 volume  Ctrl-R reverb  Esc quit", styleLegend)

	p.screen.Show()
}

func (p *Panel) field(y int, label, value string) {
	p.text(0, y, label, styleLabel)
	p.text(12, y, value, styleValue)
}

// cell writes one rune with an optional combining mark, clipped at the screen edge
func (p *Panel) cell(x, y int, r, mark rune, style tcell.Style) {
	w, h := p.screen.Size()
	if x < 0 || x >= w || y < 0 || y >= h {
		return
	}
	var comb []rune
	if mark != 0 {
		comb = []rune{mark}
	}
	p.screen.SetContent(x, y, r, comb, style)
}

// text writes a single line, clipped at the screen edge
func (p *Panel) text(x, y int, s string, style tcell.Style) {
	w, h := p.screen.Size()
	if y < 0 || y >= h {
		return
	}
	for _, r := range s {
		if x >= w {
			return
		}
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func engineLabel(st audio.Stats) (string, tcell.Style) {
	switch st.State {
	case audio.StateLoading:
		return "loading...", styleWarn
	case audio.StateFailed:
		return "sample unavailable, audio disabled", styleError
	default:
		return "ready", styleOK
	}
}

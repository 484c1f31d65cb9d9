package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/harmonium/audio"
	"github.com/lixenwraith/harmonium/settings"
)

func newTestScreen(t *testing.T, w, h int) tcell.Screen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

// screenText returns the full screen as lines with trailing blanks trimmed
func screenText(screen tcell.Screen) []string {
	w, h := screen.Size()
	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		for x := 0; x < w; x++ {
			r, _, _, _ := screen.GetContent(x, y)
			if r == 0 {
				r = ' '
			}
			sb.WriteRune(r)
		}
		lines[y] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

func contains(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// TestPanelReady verifies the main fields of a ready engine
func TestPanelReady(t *testing.T) {
	screen := newTestScreen(t, 100, 24)
	s := settings.Default()
	s.Transpose = 2
	s.ReverbEnabled = true

	NewPanel(screen).Draw(Status{
		Settings:      s,
		Engine:        audio.Stats{State: audio.StateReady, Active: 3, Rebuilds: 131, Backend: audio.BackendSpeaker, Reverb: true},
		MIDISupported: true,
		MIDIDevices:   []string{"Keystation 49"},
		HeldKeys:      1,
	})

	lines := screenText(screen)
	for _, want := range []string{
		"HARMONIUM", "ready", " 30%", "Octave", "+0 (max 3)", "+2  root D",
		"on", "Keystation 49", "3 active  1 held  131 built", "speaker",
	} {
		if !contains(lines, want) {
			t.Errorf("Expected %q on screen:\n%s", want, strings.Join(lines, "\n"))
		}
	}
}

// TestPanelDegraded verifies inert engine, missing reverb and MIDI messages
func TestPanelDegraded(t *testing.T) {
	screen := newTestScreen(t, 100, 24)

	NewPanel(screen).Draw(Status{
		Settings: settings.Default(),
		Engine:   audio.Stats{State: audio.StateFailed, Backend: audio.BackendNone, Silent: true},
	})
	lines := screenText(screen)
	for _, want := range []string{"audio disabled", "not supported", "none (silent)", "off"} {
		if !contains(lines, want) {
			t.Errorf("Expected %q on screen", want)
		}
	}

	NewPanel(screen).Draw(Status{
		Settings:      settings.Default(),
		Engine:        audio.Stats{State: audio.StateReady},
		MIDISupported: true,
	})
	lines = screenText(screen)
	for _, want := range []string{"unavailable", "no devices"} {
		if !contains(lines, want) {
			t.Errorf("Expected %q on screen", want)
		}
	}
}

// TestPanelClipsSmallScreen verifies drawing on a tiny screen does not panic
func TestPanelClipsSmallScreen(t *testing.T) {
	screen := newTestScreen(t, 10, 3)
	NewPanel(screen).Draw(Status{Settings: settings.Default()})
	if lines := screenText(screen); !strings.HasPrefix(lines[0], "HARMONIUM") {
		t.Errorf("Expected title in first row, got %q", lines[0])
	}
}

// TestSargam verifies swara letters and octave marks relative to the 'e' key
func TestSargam(t *testing.T) {
	tests := []struct {
		note  int
		swara rune
		mark  rune
	}{
		{55, 'P', dotBelow},
		{59, 'N', dotBelow},
		{60, 'S', 0},
		{62, 'R', 0},
		{67, 'P', 0},
		{71, 'N', 0},
		{72, 'S', dotAbove},
		{77, 'M', dotAbove},
		{48, 'S', dotBelow},
	}

	for _, tt := range tests {
		swara, mark := Sargam(tt.note)
		if swara != tt.swara || mark != tt.mark {
			t.Errorf("Sargam(%d) = %q %q, want %q %q", tt.note, swara, mark, tt.swara, tt.mark)
		}
	}
}

// TestPanelSargamLegend verifies each note key is drawn above its swara
func TestPanelSargamLegend(t *testing.T) {
	screen := newTestScreen(t, 100, 24)
	NewPanel(screen).Draw(Status{Settings: settings.Default()})

	lines := screenText(screen)
	row := -1
	for y, l := range lines {
		if strings.HasPrefix(l, "Keys") {
			row = y
		}
	}
	if row < 0 {
		t.Fatalf("Expected a Keys legend row:\n%s", strings.Join(lines, "\n"))
	}

	for i, key := range legendKeys {
		x := 8 + 2*i
		if r, _, _, _ := screen.GetContent(x, row); r != key {
			t.Errorf("Key column %d = %q, want %q", i, r, key)
		}
		wantSwara, wantMark := Sargam(legendNote(key))
		r, comb, _, _ := screen.GetContent(x, row+1)
		if r != wantSwara {
			t.Errorf("Swara under %q = %q, want %q", key, r, wantSwara)
		}
		if wantMark != 0 && (len(comb) != 1 || comb[0] != wantMark) {
			t.Errorf("Mark under %q = %q, want %q", key, comb, wantMark)
		}
	}

	// 'e' is the tonic
	if r, _, _, _ := screen.GetContent(8+2*7, row+1); r != 'S' {
		t.Errorf("Expected S under the e key, got %q", r)
	}
}

package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/harmonium/audio"
	"github.com/lixenwraith/harmonium/constant"
	"github.com/lixenwraith/harmonium/input"
	"github.com/lixenwraith/harmonium/settings"
)

func newTestApp(t *testing.T) (*app, *settings.Store) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(100, 24)
	t.Cleanup(screen.Fini)

	cfg := audio.DefaultAudioConfig()
	cfg.Backend = "none"
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.toml"))
	engine := audio.NewEngine(cfg, settings.Default(), nil)
	return newApp(screen, engine, input.NewEventQueue(), nil, store, constant.KeyHoldTimeout), store
}

// TestAppControlKeysPersist verifies control keys change settings and are saved
func TestAppControlKeysPersist(t *testing.T) {
	a, store := newTestApp(t)
	now := time.Now()

	a.handleEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), now)
	a.handleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), now)
	if quit := a.drain(); quit {
		t.Fatal("Expected no quit")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := settings.Default()
	if got.Octave != want.Octave+1 || got.Transpose != want.Transpose+1 {
		t.Errorf("Expected saved octave %d transpose %d, got %d %d",
			want.Octave+1, want.Transpose+1, got.Octave, got.Transpose)
	}
}

// TestAppQuit verifies Escape ends the control loop
func TestAppQuit(t *testing.T) {
	a, _ := newTestApp(t)
	a.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), time.Now())
	if !a.drain() {
		t.Error("Expected quit after Escape")
	}
}

// TestAppShutdownReleasesKeys verifies held notes are released on shutdown
func TestAppShutdownReleasesKeys(t *testing.T) {
	a, _ := newTestApp(t)
	now := time.Now()
	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone), now)
	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), now)
	if a.keyboard.Held() != 2 {
		t.Fatalf("Expected 2 held keys, got %d", a.keyboard.Held())
	}

	a.shutdown()
	if a.keyboard.Held() != 0 {
		t.Errorf("Expected no held keys after shutdown, got %d", a.keyboard.Held())
	}
	if n := a.queue.Len(); n != 0 {
		t.Errorf("Expected drained queue, got %d events", n)
	}
}

// TestAppDrainAppliesBatchBeforeQuit verifies events queued after quit are still applied
func TestAppDrainAppliesBatchBeforeQuit(t *testing.T) {
	a, store := newTestApp(t)
	a.queue.Push(input.ControlEvent(input.ControlQuit))
	a.queue.Push(input.ControlEvent(input.ControlTransposeUp))

	if !a.drain() {
		t.Fatal("Expected quit")
	}
	if got := a.engine.Settings().Transpose; got != settings.Default().Transpose+1 {
		t.Errorf("Expected transpose applied after quit, got %d", got)
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.Transpose != settings.Default().Transpose+1 {
		t.Errorf("Expected transpose saved, got %d", saved.Transpose)
	}
}

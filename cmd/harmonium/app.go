package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/harmonium/audio"
	"github.com/lixenwraith/harmonium/constant"
	"github.com/lixenwraith/harmonium/input"
	"github.com/lixenwraith/harmonium/render"
	"github.com/lixenwraith/harmonium/settings"
)

// app is the control goroutine: it owns the engine, the keyboard adapter and the settings store
type app struct {
	screen   tcell.Screen
	engine   *audio.Engine
	queue    *input.EventQueue
	keyboard *input.Keyboard
	watcher  *input.MIDIWatcher
	store    *settings.Store
	panel    *render.Panel
	log      *slog.Logger
}

func newApp(screen tcell.Screen, engine *audio.Engine, queue *input.EventQueue, watcher *input.MIDIWatcher, store *settings.Store, hold time.Duration) *app {
	return &app{
		screen:   screen,
		engine:   engine,
		queue:    queue,
		keyboard: input.NewKeyboard(queue, hold),
		watcher:  watcher,
		store:    store,
		panel:    render.NewPanel(screen),
		log:      slog.Default().With("component", "app"),
	}
}

// run polls the terminal and drives the control loop until quit or ctx cancellation
func (a *app) run(ctx context.Context) {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(constant.ControlTickInterval)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return

		case ev, ok := <-events:
			if !ok {
				a.shutdown()
				return
			}
			a.handleEvent(ev, time.Now())

		case <-a.queue.Ready():
			// MIDI and other producers, drained below

		case now := <-ticker.C:
			a.keyboard.Expire(now)
		}

		if a.drain() {
			a.shutdown()
			return
		}
		a.draw()
	}
}

// handleEvent feeds terminal events into the keyboard adapter
func (a *app) handleEvent(ev tcell.Event, now time.Time) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.keyboard.HandleKey(ev, now)
	case *tcell.EventResize:
		a.screen.Sync()
	}
}

// drain applies the whole queued batch to the engine, saving settings on change, and reports quit
func (a *app) drain() bool {
	dirty, quit := false, false
	for _, ev := range a.queue.Consume() {
		changed, q := a.engine.Handle(ev)
		dirty = dirty || changed
		quit = quit || q
	}
	if dirty {
		a.save()
	}
	return quit
}

func (a *app) save() {
	s := a.engine.Settings()
	if a.watcher != nil {
		s.MIDIDevice = a.watcher.Filter().Selected()
	}
	if err := a.store.Save(s); err != nil {
		a.log.Warn("settings save failed", "error", err)
	}
}

// shutdown releases held keys so no voice is left sounding and persists settings
func (a *app) shutdown() {
	a.keyboard.ReleaseAll()
	for _, ev := range a.queue.Consume() {
		a.engine.Handle(ev)
	}
	a.save()
}

func (a *app) draw() {
	st := render.Status{
		Settings: a.engine.Settings(),
		Engine:   a.engine.Stats(),
		HeldKeys: a.keyboard.Held(),
	}
	if a.watcher != nil {
		st.MIDISupported = a.watcher.Supported()
		st.MIDIDevices = a.watcher.Devices()
		st.Settings.MIDIDevice = a.watcher.Filter().Selected()
	}
	a.panel.Draw(st)
}

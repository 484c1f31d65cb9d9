package input

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/harmonium/constant"
)

// EventQueue is a bounded multi-producer queue drained by the control loop
// Producers are the terminal poller and MIDI listener goroutines
//
// Overflow policy when EventQueueSize events are pending:
//   - note-off is always accepted, up to a hard limit of twice the size, so no voice is left sounding
//   - any other event is dropped and counted
//
// Consecutive volume events coalesce into the latest, a fader sweep costs one slot
type EventQueue struct {
	mu      sync.Mutex
	pending []Event
	spare   []Event
	ready   chan struct{}
	dropped atomic.Uint64
}

func NewEventQueue() *EventQueue {
	return &EventQueue{
		pending: make([]Event, 0, constant.EventQueueSize),
		spare:   make([]Event, 0, constant.EventQueueSize),
		ready:   make(chan struct{}, 1),
	}
}

// Push enqueues ev and wakes the consumer, safe for concurrent producers
func (eq *EventQueue) Push(ev Event) {
	eq.mu.Lock()
	n := len(eq.pending)
	switch {
	case ev.Kind == KindVolume && n > 0 && eq.pending[n-1].Kind == KindVolume:
		eq.pending[n-1] = ev
	case n < constant.EventQueueSize, releases(ev) && n < 2*constant.EventQueueSize:
		eq.pending = append(eq.pending, ev)
	default:
		eq.mu.Unlock()
		eq.dropped.Add(1)
		return
	}
	eq.mu.Unlock()

	select {
	case eq.ready <- struct{}{}:
	default:
	}
}

func releases(ev Event) bool {
	return ev.Kind == KindNote && !ev.Note.Down
}

// Consume returns pending events in push order, nil when empty
// The slice is reused by the next Consume, single consumer only
func (eq *EventQueue) Consume() []Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if len(eq.pending) == 0 {
		return nil
	}
	out := eq.pending
	eq.pending, eq.spare = eq.spare[:0], out
	return out
}

// Ready is signalled after a Push, letting the consumer wake before its next tick
func (eq *EventQueue) Ready() <-chan struct{} {
	return eq.ready
}

// Len returns the pending event count
func (eq *EventQueue) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return len(eq.pending)
}

// Dropped returns the number of events lost to overflow
func (eq *EventQueue) Dropped() uint64 {
	return eq.dropped.Load()
}

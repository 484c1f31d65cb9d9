package input

import (
	"sync"
	"testing"

	"github.com/lixenwraith/harmonium/constant"
)

// TestEventQueueFIFO verifies events are consumed in push order
func TestEventQueueFIFO(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < 10; i++ {
		q.Push(NoteOn(50+i, SourceKeyboard, ""))
	}

	if q.Len() != 10 {
		t.Errorf("Expected 10 pending events, got %d", q.Len())
	}

	events := q.Consume()
	if len(events) != 10 {
		t.Fatalf("Expected 10 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Note.Note != 50+i {
			t.Errorf("Event %d: expected note %d, got %d", i, 50+i, ev.Note.Note)
		}
	}

	if q.Consume() != nil {
		t.Error("Expected empty queue after consume")
	}
	if q.Len() != 0 {
		t.Errorf("Expected Len 0, got %d", q.Len())
	}
}

// TestEventQueueVolumeCoalesce verifies a run of volume events keeps only the latest
func TestEventQueueVolumeCoalesce(t *testing.T) {
	q := NewEventQueue()
	q.Push(NoteOn(60, SourceMIDI, "pad"))
	for v := 0; v <= 100; v += 10 {
		q.Push(VolumeSet(v))
	}
	q.Push(NoteOff(60, SourceMIDI, "pad"))
	q.Push(VolumeSet(5))

	events := q.Consume()
	want := []Event{NoteOn(60, SourceMIDI, "pad"), VolumeSet(100), NoteOff(60, SourceMIDI, "pad"), VolumeSet(5)}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

// TestEventQueueOverflowKeepsReleases verifies note-on is dropped when full but note-off is kept
func TestEventQueueOverflowKeepsReleases(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < constant.EventQueueSize; i++ {
		q.Push(NoteOn(i%128, SourceMIDI, ""))
	}
	q.Push(NoteOn(1, SourceMIDI, ""))
	q.Push(ControlEvent(ControlOctaveUp))
	q.Push(NoteOff(1, SourceMIDI, ""))

	if got := q.Dropped(); got != 2 {
		t.Errorf("Expected 2 dropped events, got %d", got)
	}
	events := q.Consume()
	if len(events) != constant.EventQueueSize+1 {
		t.Fatalf("Expected %d events, got %d", constant.EventQueueSize+1, len(events))
	}
	if last := events[len(events)-1]; last != NoteOff(1, SourceMIDI, "") {
		t.Errorf("Expected trailing note-off, got %+v", last)
	}
}

// TestEventQueueReady verifies a push signals the consumer once
func TestEventQueueReady(t *testing.T) {
	q := NewEventQueue()
	select {
	case <-q.Ready():
		t.Fatal("Unexpected signal on empty queue")
	default:
	}

	q.Push(NoteOn(60, SourceKeyboard, ""))
	q.Push(NoteOn(61, SourceKeyboard, ""))
	select {
	case <-q.Ready():
	default:
		t.Fatal("Expected ready signal after push")
	}
	select {
	case <-q.Ready():
		t.Error("Expected signals to collapse into one")
	default:
	}
}

// TestEventQueueConcurrentProducers verifies no event is lost below capacity
func TestEventQueueConcurrentProducers(t *testing.T) {
	q := NewEventQueue()
	const producers = 4
	const perProducer = 64

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(NoteOn(i, SourceMIDI, string(rune('a'+p))))
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[NoteEvent]bool)
	for _, ev := range q.Consume() {
		seen[ev.Note] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("Expected %d distinct events, got %d", producers*perProducer, len(seen))
	}
}

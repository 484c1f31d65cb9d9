package input

import (
	"context"
	"sync"
	"time"

	"github.com/lixenwraith/harmonium/constant"
)

// MIDIService wraps MIDIWatcher as a Service
// Unavailable MIDI degrades to keyboard-only operation, never an error
type MIDIService struct {
	watcher *MIDIWatcher
	deps    []string

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMIDIService creates the service; deps names services that must initialize first
func NewMIDIService(w *MIDIWatcher, deps ...string) *MIDIService {
	return &MIDIService{watcher: w, deps: deps}
}

// Name implements Service
func (s *MIDIService) Name() string {
	return "midi"
}

// Dependencies implements Service
func (s *MIDIService) Dependencies() []string {
	return s.deps
}

// Init performs the first port scan; refusal only clears the support flag
func (s *MIDIService) Init(context.Context) error {
	_ = s.watcher.Scan()
	return nil
}

// Start implements Service - launches the hot-plug rescan goroutine
func (s *MIDIService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || !s.watcher.Supported() {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.rescanLoop(ctx)
	return nil
}

func (s *MIDIService) rescanLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(constant.MIDIRescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.watcher.Tick(now)
		}
	}
}

// Stop implements Service
func (s *MIDIService) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
	s.watcher.Close()
	return nil
}

// Degraded reports keyboard-only operation
func (s *MIDIService) Degraded() bool {
	return !s.watcher.Supported()
}

// Watcher returns the underlying watcher
func (s *MIDIService) Watcher() *MIDIWatcher {
	return s.watcher
}

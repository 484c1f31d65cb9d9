package audio

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// AudioService wraps Engine as a Service
// Asset or output failure degrades the service instead of failing the hub
type AudioService struct {
	engine   *Engine
	source   AssetSource
	disabled atomic.Bool
	log      *slog.Logger
}

// NewService creates an audio service loading assets from src
func NewService(engine *Engine, src AssetSource, logger *slog.Logger) *AudioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioService{engine: engine, source: src, log: logger.With("component", "audio-service")}
}

// Name implements Service
func (s *AudioService) Name() string {
	return "audio"
}

// Dependencies implements Service
func (s *AudioService) Dependencies() []string {
	return nil
}

// Init loads assets, ctx cancels the fetch
// Failure leaves the service degraded rather than failing the hub
func (s *AudioService) Init(ctx context.Context) error {
	if err := s.engine.Load(ctx, s.source); err != nil {
		s.disabled.Store(true)
		s.log.Warn("audio disabled", "error", err)
	}
	return nil
}

// Start implements Service
// Opens the output; sets disabled on failure (no error returned)
func (s *AudioService) Start() error {
	if s.disabled.Load() {
		return nil
	}
	if err := s.engine.Start(); err != nil {
		s.disabled.Store(true)
		s.log.Warn("audio output failed", "error", err)
	}
	return nil
}

// Stop implements Service
func (s *AudioService) Stop() error {
	s.engine.Stop()
	return nil
}

// Degraded reports an inert engine or a failed output
func (s *AudioService) Degraded() bool {
	return s.disabled.Load()
}

// Engine returns the wrapped engine, which stays usable for settings even when disabled
func (s *AudioService) Engine() *Engine {
	return s.engine
}

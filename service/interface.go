// Package service runs the long-lived subsystems (audio output, MIDI ports) in dependency order
package service

import "context"

// Service is a subsystem with an explicit lifecycle
// Init may block on I/O such as asset fetches; ctx cancels it
// Start launches background work, Stop releases it and must tolerate repeated calls
type Service interface {
	Name() string
	Dependencies() []string
	Init(ctx context.Context) error
	Start() error
	Stop() error
}

// Degradable is implemented by services that keep running in a reduced mode instead of failing
type Degradable interface {
	Degraded() bool
}

package audio

import (
	"github.com/pkg/errors"
)

// BackendType identifies the audio output backend
type BackendType int

const (
	BackendSpeaker BackendType = iota // beep speaker (oto)
	BackendPulse
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
	BackendNone // Silent mode
)

func (b BackendType) String() string {
	switch b {
	case BackendSpeaker:
		return "speaker"
	case BackendPulse:
		return "pacat"
	case BackendPipeWire:
		return "pw-cat"
	case BackendALSA:
		return "aplay"
	case BackendSoX:
		return "sox"
	case BackendFFplay:
		return "ffplay"
	case BackendOSS:
		return "oss"
	default:
		return "none"
	}
}

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// EngineState is the asset lifecycle of the engine
type EngineState int32

const (
	StateLoading EngineState = iota
	StateReady
	StateFailed // Asset failure, inert for the session
)

func (s EngineState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
	ErrAssetFetch     = errors.New("asset fetch failed")
	ErrAssetDecode    = errors.New("asset decode failed")
	ErrEmptyAsset     = errors.New("asset contains no samples")
	ErrEngineInert    = errors.New("audio engine is inert")
	ErrNotLoaded      = errors.New("audio engine assets not loaded")
	ErrAlreadyRunning = errors.New("audio engine already running")
)

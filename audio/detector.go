package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/lixenwraith/harmonium/constant"
)

// pipePlayer is a CLI program that plays raw s16le stereo from stdin
type pipePlayer struct {
	typ  BackendType
	bin  string
	args func(rate, latencyMs string) []string
}

// pipePlayers is the search order: sound servers first, heavyweight fallbacks last
var pipePlayers = []pipePlayer{
	{BackendPulse, "pacat", func(rate, lat string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=" + lat, "--playback"}
	}},
	{BackendPipeWire, "pw-cat", func(rate, lat string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=" + lat + "ms", "-"}
	}},
	{BackendALSA, "aplay", func(rate, _ string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"}
	}},
	{BackendSoX, "play", func(rate, _ string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", func(rate, _ string) []string {
		return []string{
			"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet",
		}
	}},
}

// ossDevice is written directly on FreeBSD when no player is installed
const ossDevice = "/dev/dsp"

// DetectBackend returns the first installed pipe player configured for rate
func DetectBackend(rate int) (*BackendConfig, error) {
	sr := strconv.Itoa(rate)
	lat := strconv.Itoa(int(constant.AudioBufferDuration.Milliseconds()))

	for _, p := range pipePlayers {
		path, err := exec.LookPath(p.bin)
		if err != nil {
			continue
		}
		return &BackendConfig{
			Type: p.typ,
			Name: p.typ.String(),
			Path: path,
			Args: p.args(sr, lat),
		}, nil
	}

	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat(ossDevice); err == nil {
			return &BackendConfig{Type: BackendOSS, Name: BackendOSS.String(), Path: ossDevice}, nil
		}
	}
	return nil, ErrNoAudioBackend
}

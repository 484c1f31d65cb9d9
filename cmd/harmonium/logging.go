package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	logDir      = "logs"
	logFileName = "harmonium.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging routes slog and the standard logger to logs/harmonium.log
// The terminal belongs to tcell, so nothing is ever written to stdout or stderr
// With debug every level is written; otherwise only Warn and above, and the file
// is created on the first such record so a clean session leaves no log behind
func setupLogging(debug bool) io.Closer {
	if !debug {
		w := &lazyLogFile{}
		slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn})))
		log.SetOutput(io.Discard)
		return w
	}

	f, err := openLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		log.SetOutput(io.Discard)
		return nil
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
	return f
}

// openLogFile creates logs/, rotates an oversized log to a timestamped file and opens for append
func openLogFile() (*os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("harmonium-%s.log", time.Now().Format("20060102-150405")))
		os.Rename(logPath, rotated)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// lazyLogFile opens the log file on first write; a failed open discards from then on
type lazyLogFile struct {
	mu     sync.Mutex
	f      *os.File
	failed bool
}

func (l *lazyLogFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil && !l.failed {
		f, err := openLogFile()
		if err != nil {
			l.failed = true
		} else {
			l.f = f
		}
	}
	if l.f == nil {
		return len(p), nil
	}
	return l.f.Write(p)
}

func (l *lazyLogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ErrStorePath is returned when a Store is used without a file path
var ErrStorePath = errors.New("settings store has no path")

// Store persists Settings as a TOML document
// Keys absent from the file keep their default values
type Store struct {
	path string
	mu   sync.Mutex
	last Settings
	have bool
}

// NewStore creates a store backed by the file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user settings location, falling back to the working directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "harmonium.toml"
	}
	return filepath.Join(dir, "harmonium", "settings.toml")
}

// Path returns the backing file path
func (st *Store) Path() string {
	return st.path
}

// Load reads settings from disk
// A missing file yields defaults without error; the result is always clamped
func (st *Store) Load() (Settings, error) {
	s := Default()
	if st.path == "" {
		return s, ErrStorePath
	}

	if _, err := toml.DecodeFile(st.path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Default(), errors.Wrapf(err, "decode settings %s", st.path)
	}

	s = s.Clamp()
	st.mu.Lock()
	st.last, st.have = s, true
	st.mu.Unlock()
	return s, nil
}

// Save writes settings atomically via a temporary file and rename
// Unchanged settings are not rewritten
func (st *Store) Save(s Settings) error {
	if st.path == "" {
		return ErrStorePath
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.have && st.last == s {
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return errors.Wrap(err, "encode settings")
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
		return errors.Wrap(err, "create settings directory")
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(err, "write settings")
	}
	if err := os.Rename(tmp, st.path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "replace settings")
	}

	st.last, st.have = s, true
	return nil
}

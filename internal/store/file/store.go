// Package file persists game saves as YAML documents on local disk.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zappabad/marketsim/internal/game"
)

// ErrNoSave is returned by Load when the save file does not exist.
var ErrNoSave = errors.New("no save file")

// Store reads and writes one save file.
type Store struct {
	path string
}

// New creates a Store for path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the save file location.
func (s *Store) Path() string { return s.path }

// Save writes st atomically: the document goes to a temp file in the same
// directory which is then renamed over the target.
func (s *Store) Save(st game.State) error {
	raw, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".save-*.yaml")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// Load reads the save file.
func (s *Store) Load() (game.State, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return game.State{}, ErrNoSave
	}
	if err != nil {
		return game.State{}, fmt.Errorf("store: read: %w", err)
	}
	var st game.State
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return game.State{}, fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	return st, nil
}

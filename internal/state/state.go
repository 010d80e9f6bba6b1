package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SeenState is the persisted memory of one monitor: identity key to the
// last-recorded value or label, plus the date of the last completed run.
// Entries never expire; growth is bounded only by source volume.
type SeenState struct {
	Entries     map[string]string `json:"entries"`
	LastRunDate string            `json:"last_run_date,omitempty"`
}

// Get returns the recorded value for an identity.
func (s *SeenState) Get(id string) (string, bool) {
	v, ok := s.Entries[id]
	return v, ok
}

// Has reports whether an identity has been seen.
func (s *SeenState) Has(id string) bool {
	_, ok := s.Entries[id]
	return ok
}

// Set records a value for an identity.
func (s *SeenState) Set(id, value string) {
	if s.Entries == nil {
		s.Entries = make(map[string]string)
	}
	s.Entries[id] = value
}

// Clear drops all entries, keeping the last-run marker.
func (s *SeenState) Clear() {
	s.Entries = make(map[string]string)
}

// Store persists SeenState documents as JSON files under a directory, one
// file per monitor.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore constructs a file-backed state store.
func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, logger: logger.With().Str("component", "state_store").Logger()}
}

// Load reads the named state document. A missing or corrupt file degrades to
// an empty state; the pipeline must never crash on unreadable state.
func (s *Store) Load(name string) *SeenState {
	st := &SeenState{Entries: make(map[string]string)}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("state", name).Msg("state unreadable, starting empty")
		}
		return st
	}

	if err := json.Unmarshal(data, st); err != nil {
		s.logger.Warn().Err(err).Str("state", name).Msg("state corrupt, starting empty")
		return &SeenState{Entries: make(map[string]string)}
	}
	if st.Entries == nil {
		st.Entries = make(map[string]string)
	}
	return st
}

// Save writes the named state document atomically: a temp file in the same
// directory is renamed over the previous one, so a crash mid-save cannot
// corrupt previously persisted entries.
func (s *Store) Save(name string, st *SeenState) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close state: %w", err)
	}

	if err := os.Rename(tmpName, s.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

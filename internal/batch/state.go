package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// State tracks progress for resumable batch runs.
type State struct {
	StartedAt       time.Time `json:"started_at"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	Processed       []string  `json:"processed"`
	Remaining       int       `json:"remaining"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	NeedsAttention  int       `json:"needs_attention"`
	Errors          []string  `json:"errors"`

	path string // not serialized
}

// LoadState reads the state file at path, or starts a fresh state when it
// does not exist yet.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				StartedAt: time.Now().UTC(),
				path:      path,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = path
	return &s, nil
}

// Save persists the state, replacing the previous file atomically.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// IsProcessed returns true if the thread has already been analyzed.
func (s *State) IsProcessed(threadID string) bool {
	return slices.Contains(s.Processed, threadID)
}

func (s *State) MarkProcessed(threadID string) {
	s.Processed = append(s.Processed, threadID)
}

func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

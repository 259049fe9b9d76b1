// SPDX-License-Identifier: MIT

package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// StateFile persists the latest session snapshot so a restarted daemon can
// report what was last playing. Writes are atomic; a torn file is never
// observable.
type StateFile struct {
	path string
}

// NewStateFile creates a state file handle for the given path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Save atomically writes the snapshot to disk.
func (f *StateFile) Save(snap PlaybackSession) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := renameio.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write session snapshot: %w", err)
	}
	return nil
}

// Load reads the last persisted snapshot. A missing file yields an idle
// session and no error. A snapshot that decodes but violates the session
// invariants is treated the same as a corrupt file.
func (f *StateFile) Load() (PlaybackSession, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return PlaybackSession{Status: StatusIdle}, nil
	}
	if err != nil {
		return PlaybackSession{}, fmt.Errorf("read session snapshot: %w", err)
	}
	var snap PlaybackSession
	if err := json.Unmarshal(data, &snap); err != nil {
		return PlaybackSession{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	if !snap.Valid() {
		return PlaybackSession{}, fmt.Errorf("decode session snapshot: inconsistent state %q", snap.Status)
	}
	return snap, nil
}

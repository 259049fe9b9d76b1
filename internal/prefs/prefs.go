// SPDX-License-Identifier: MIT

// Package prefs is the durable store for player preferences. Values are
// written by the settings UI and read by mounting player instances and the
// auto-progress machine, which subscribe for changes.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Preferences are the persisted player settings.
type Preferences struct {
	SubtitleTrackName string `json:"subtitleTrackName,omitempty"`
	AudioTrackName    string `json:"audioTrackName,omitempty"`
	QualityLabel      string `json:"qualityLabel,omitempty"`
	SubtitleSizePct   int    `json:"subtitleSizePct"`
	PlayNextEnabled   bool   `json:"playNextEnabled"`
	ShowThresholdSec  int    `json:"showThresholdSec"`
	AutoThresholdSec  int    `json:"autoThresholdSec"`
}

const (
	// MinShowThresholdSec and MaxShowThresholdSec bound the prompt window.
	MinShowThresholdSec = 15
	MaxShowThresholdSec = 45

	// MinThresholdGapSec is the required gap between showing the prompt and
	// auto-navigating. The auto-progress machine assumes this holds and does
	// not re-validate it.
	MinThresholdGapSec = 3
)

// Defaults returns the out-of-the-box preferences.
func Defaults() Preferences {
	return Preferences{
		SubtitleSizePct:  100,
		PlayNextEnabled:  true,
		ShowThresholdSec: 30,
		AutoThresholdSec: 5,
	}
}

// ErrInvalidThresholds rejects writes violating the threshold constraints.
var ErrInvalidThresholds = errors.New("prefs: invalid auto-progress thresholds")

// Validate checks the threshold constraints.
func (p Preferences) Validate() error {
	if p.ShowThresholdSec < MinShowThresholdSec || p.ShowThresholdSec > MaxShowThresholdSec {
		return fmt.Errorf("%w: show threshold %ds outside [%d,%d]",
			ErrInvalidThresholds, p.ShowThresholdSec, MinShowThresholdSec, MaxShowThresholdSec)
	}
	if p.AutoThresholdSec < 1 || p.AutoThresholdSec > p.ShowThresholdSec-MinThresholdGapSec {
		return fmt.Errorf("%w: auto threshold %ds must be in [1,%d]",
			ErrInvalidThresholds, p.AutoThresholdSec, p.ShowThresholdSec-MinThresholdGapSec)
	}
	return nil
}

const prefsKey = "prefs:player"

// Store persists preferences in a badger database.
type Store struct {
	db *badger.DB

	mu   sync.Mutex
	subs []func(Preferences)
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the stored preferences, or the defaults if none were written.
func (s *Store) Get() (Preferences, error) {
	out := Defaults()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	return out, nil
}

// Put validates and persists the preferences, then notifies subscribers.
func (s *Store) Put(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	buf, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefsKey), buf)
	})
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}

	s.mu.Lock()
	subs := make([]func(Preferences), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
	return nil
}

// Subscribe registers fn for change notification after every successful Put.
func (s *Store) Subscribe(fn func(Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

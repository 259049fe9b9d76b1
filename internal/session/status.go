// SPDX-License-Identifier: MIT

// Package session owns the playback session record and its transitions.
// All state changes go through the Store so the source-url/status invariant
// stays enforceable in one place.
package session

import (
	"encoding/json"
	"fmt"
)

// PlaybackStatus represents the current status of a playback session.
type PlaybackStatus string

const (
	// StatusIdle indicates no playback intent exists.
	StatusIdle PlaybackStatus = "idle"

	// StatusResolving indicates a source resolution is in flight.
	StatusResolving PlaybackStatus = "resolving"

	// StatusPlaying indicates an active playback intent with a resolved source.
	StatusPlaying PlaybackStatus = "playing"

	// StatusStopped indicates playback ended normally.
	StatusStopped PlaybackStatus = "stopped"

	// StatusError indicates playback failed to start or aborted fatally.
	StatusError PlaybackStatus = "error"
)

// String implements fmt.Stringer.
func (s PlaybackStatus) String() string {
	return string(s)
}

// IsValid checks whether the playback status is valid.
func (s PlaybackStatus) IsValid() bool {
	for _, known := range AllPlaybackStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive reports whether a decoder is expected to be mounted for this status.
func (s PlaybackStatus) IsActive() bool {
	return s == StatusPlaying
}

// MarshalJSON implements json.Marshaler.
func (s PlaybackStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *PlaybackStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParsePlaybackStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// ParsePlaybackStatus parses a string into a PlaybackStatus.
func ParsePlaybackStatus(s string) (PlaybackStatus, error) {
	status := PlaybackStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid playback status: %q", s)
	}
	return status, nil
}

// AllPlaybackStatuses returns all defined playback statuses.
func AllPlaybackStatuses() []PlaybackStatus {
	return []PlaybackStatus{
		StatusIdle,
		StatusResolving,
		StatusPlaying,
		StatusStopped,
		StatusError,
	}
}

// MediaType classifies the item a session plays.
type MediaType string

const (
	MediaMovie   MediaType = "movie"
	MediaEpisode MediaType = "episode"
	MediaSeries  MediaType = "series"
)

// IsValid checks whether the media type is valid.
func (t MediaType) IsValid() bool {
	switch t {
	case MediaMovie, MediaEpisode, MediaSeries:
		return true
	default:
		return false
	}
}

// Playable reports whether this media type can be played directly.
// A series is only ever resolved into an episode, never played itself.
func (t MediaType) Playable() bool {
	return t == MediaMovie || t == MediaEpisode
}

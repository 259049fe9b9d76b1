// SPDX-License-Identifier: MIT

package telemetry

import "time"

// Range is a half-open time interval in seconds, used for buffered and
// seekable ranges.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Snapshot is a point-in-time summary of playback state.
type Snapshot struct {
	PositionSec     float64 `json:"positionSec"`
	DurationSec     float64 `json:"durationSec,omitempty"`
	Buffered        []Range `json:"buffered,omitempty"`
	Seekable        []Range `json:"seekable,omitempty"`
	AudioTrack      int     `json:"audioTrack"`
	SubtitleTrack   int     `json:"subtitleTrack"`
	Volume          float64 `json:"volume"`
	Muted           bool    `json:"muted"`
	BitrateEstimate int64   `json:"bitrateEstimate,omitempty"`
	Paused          bool    `json:"paused"`
}

// Report is one delivery unit sent to the collector.
type Report struct {
	SessionID string    `json:"sessionId"`
	PlayerID  string    `json:"playerId"`
	MediaID   string    `json:"mediaId,omitempty"`
	Intent    Intent    `json:"intent"`
	Snapshot  Snapshot  `json:"snapshot"`
	SentAt    time.Time `json:"sentAt"`
}

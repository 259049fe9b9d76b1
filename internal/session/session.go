// SPDX-License-Identifier: MIT

package session

import "context"

// PlaybackSession is the source of truth for "what is currently meant to be
// playing", independent of whether a decoder is mounted.
type PlaybackSession struct {
	SessionID     string         `json:"sessionId"`
	MediaID       string         `json:"mediaId,omitempty"`
	MediaType     MediaType      `json:"mediaType,omitempty"`
	SourceURL     string         `json:"sourceUrl,omitempty"`
	MediaSourceID string         `json:"mediaSourceId,omitempty"`
	Status        PlaybackStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	UpdatedAtUnix int64          `json:"updatedAtUnix"`
}

// Valid reports whether the record satisfies the session invariants.
// SourceURL must be set if and only if the status is playing, and an error
// message may only be present in the error status.
func (s PlaybackSession) Valid() bool {
	if !s.Status.IsValid() {
		return false
	}
	if (s.SourceURL != "") != (s.Status == StatusPlaying) {
		return false
	}
	if s.Error != "" && s.Status != StatusError {
		return false
	}
	return true
}

// Source is a resolved playable source for a media item.
type Source struct {
	PlaybackURL   string   `json:"playbackUrl"`
	MediaSourceID string   `json:"mediaSourceId"`
	Subtitles     []string `json:"subtitles,omitempty"`
	Chapters      []string `json:"chapters,omitempty"`
}

// SourceResolver resolves media ids into playable sources and delivers the
// end-of-session notification to the remote media server.
type SourceResolver interface {
	Resolve(ctx context.Context, mediaID string) (Source, error)
	NotifyStopped(ctx context.Context, sessionID string, positionSec float64) error
}

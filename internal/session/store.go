// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/log"
	"github.com/monobar/playd/internal/metrics"
)

// ErrSuperseded is returned when an Initialize call was overtaken by a newer
// one before its resolution finished. The stale result is discarded.
var ErrSuperseded = errors.New("session: initialize superseded by a newer request")

// ErrNotPlayable is returned when the requested media type cannot be played
// directly.
var ErrNotPlayable = errors.New("session: media type is not directly playable")

const stopNotifyTimeout = 5 * time.Second

// Store holds the single playback session and exposes its transitions.
// All mutation goes through Initialize/Stop/StopSilent; readers get copies.
type Store struct {
	resolver SourceResolver
	logger   zerolog.Logger
	state    *StateFile // optional, best-effort persistence

	mu   sync.Mutex
	sess PlaybackSession
	gen  uint64
	subs []func(PlaybackSession)
}

// Option configures a Store.
type Option func(*Store)

// WithStateFile enables best-effort persistence of session snapshots.
func WithStateFile(sf *StateFile) Option {
	return func(s *Store) { s.state = sf }
}

// NewStore creates a session store backed by the given resolver.
func NewStore(resolver SourceResolver, opts ...Option) *Store {
	s := &Store{
		resolver: resolver,
		logger:   log.WithComponent("session"),
		sess: PlaybackSession{
			SessionID:     uuid.NewString(),
			Status:        StatusIdle,
			UpdatedAtUnix: time.Now().Unix(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionID returns the stable identifier for this store's session.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.SessionID
}

// Snapshot returns a copy of the current session record.
func (s *Store) Snapshot() PlaybackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// Subscribe registers fn to be called with a snapshot after every transition.
// Callbacks run outside the store lock, in transition order.
func (s *Store) Subscribe(fn func(PlaybackSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Initialize resolves a playable source for mediaID and transitions the
// session to playing. If it is called again before a previous call resolves,
// the last call wins: stale resolutions are discarded with ErrSuperseded and
// never overwrite newer state.
func (s *Store) Initialize(ctx context.Context, mediaID string, mediaType MediaType) (PlaybackSession, error) {
	if !mediaType.Playable() {
		return s.Snapshot(), fmt.Errorf("%w: %s", ErrNotPlayable, mediaType)
	}

	s.mu.Lock()
	s.gen++
	myGen := s.gen
	s.sess.MediaID = mediaID
	s.sess.MediaType = mediaType
	s.sess.Status = StatusResolving
	s.sess.SourceURL = ""
	s.sess.MediaSourceID = ""
	s.sess.Error = ""
	s.sess.UpdatedAtUnix = time.Now().Unix()
	snap := s.sess
	s.mu.Unlock()
	s.notify(snap)

	src, err := s.resolver.Resolve(ctx, mediaID)

	s.mu.Lock()
	if s.gen != myGen {
		s.mu.Unlock()
		s.logger.Debug().
			Str(log.FieldMediaID, mediaID).
			Msg("discarding stale source resolution")
		return s.Snapshot(), ErrSuperseded
	}

	if err != nil {
		s.sess.Status = StatusError
		s.sess.SourceURL = ""
		s.sess.MediaSourceID = ""
		s.sess.Error = fmt.Sprintf("failed to resolve playback source: %v", err)
	} else if src.PlaybackURL == "" {
		s.sess.Status = StatusError
		s.sess.SourceURL = ""
		s.sess.MediaSourceID = ""
		s.sess.Error = "playback source resolution returned no url"
	} else {
		s.sess.Status = StatusPlaying
		s.sess.SourceURL = src.PlaybackURL
		s.sess.MediaSourceID = src.MediaSourceID
		s.sess.Error = ""
	}
	s.sess.UpdatedAtUnix = time.Now().Unix()
	snap = s.sess
	s.mu.Unlock()

	metrics.IncSessionStart(snap.Status == StatusPlaying, startFailureReason(err, snap))
	if snap.Status == StatusError {
		s.logger.Warn().
			Str(log.FieldMediaID, mediaID).
			Str("error", snap.Error).
			Msg("playback initialization failed")
	} else {
		s.logger.Info().
			Str(log.FieldMediaID, mediaID).
			Str(log.FieldNewState, snap.Status.String()).
			Msg("playback initialized")
	}

	s.persist(snap)
	s.notify(snap)
	return snap, nil
}

// Stop notifies the remote media server that the session ended, then
// transitions to stopped. The notification is fire-and-forget: a failure or
// hang never delays the transition and is only logged.
func (s *Store) Stop(ctx context.Context, positionSec float64) PlaybackSession {
	s.mu.Lock()
	sessionID := s.sess.SessionID
	s.mu.Unlock()

	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopNotifyTimeout)
		defer cancel()
		if err := s.resolver.NotifyStopped(nctx, sessionID, positionSec); err != nil {
			s.logger.Warn().Err(err).Msg("stop notification failed")
		}
	}()

	return s.stop("client")
}

// StopSilent performs the stopped transition without the remote notification.
// Used when the caller already reported the stop, to avoid duplicate events.
func (s *Store) StopSilent() PlaybackSession {
	return s.stop("silent")
}

// Fail transitions the session into the error status with the given message.
// Used by the player manager when a fatal decoder error tears playback down.
func (s *Store) Fail(message string) PlaybackSession {
	if message == "" {
		message = "unknown playback error"
	}
	s.mu.Lock()
	s.gen++ // invalidate any in-flight resolution
	s.sess.Status = StatusError
	s.sess.SourceURL = ""
	s.sess.MediaSourceID = ""
	s.sess.Error = message
	s.sess.UpdatedAtUnix = time.Now().Unix()
	snap := s.sess
	s.mu.Unlock()

	metrics.IncSessionStop("fatal_error")
	s.logger.Error().Str("error", message).Msg("playback failed")
	s.persist(snap)
	s.notify(snap)
	return snap
}

func (s *Store) stop(cause string) PlaybackSession {
	s.mu.Lock()
	s.gen++ // invalidate any in-flight resolution
	s.sess.Status = StatusStopped
	s.sess.SourceURL = ""
	s.sess.MediaSourceID = ""
	s.sess.Error = ""
	s.sess.UpdatedAtUnix = time.Now().Unix()
	snap := s.sess
	s.mu.Unlock()

	metrics.IncSessionStop(cause)
	s.logger.Info().Str(log.FieldCause, cause).Msg("playback stopped")
	s.persist(snap)
	s.notify(snap)
	return snap
}

func (s *Store) notify(snap PlaybackSession) {
	s.mu.Lock()
	subs := make([]func(PlaybackSession), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) persist(snap PlaybackSession) {
	if s.state == nil {
		return
	}
	if err := s.state.Save(snap); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session snapshot")
	}
}

func startFailureReason(err error, snap PlaybackSession) string {
	switch {
	case snap.Status == StatusPlaying:
		return "none"
	case err != nil:
		return "resolve_failed"
	default:
		return "missing_url"
	}
}

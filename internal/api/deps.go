// SPDX-License-Identifier: MIT

package api

import (
	"context"

	"github.com/monobar/playd/internal/player"
	"github.com/monobar/playd/internal/prefs"
	"github.com/monobar/playd/internal/series"
	"github.com/monobar/playd/internal/session"
)

// SessionStore is the session lifecycle surface the API drives.
// Implemented by session.Store.
type SessionStore interface {
	Initialize(ctx context.Context, mediaID string, mediaType session.MediaType) (session.PlaybackSession, error)
	Stop(ctx context.Context, positionSec float64) session.PlaybackSession
	StopSilent() session.PlaybackSession
	Snapshot() session.PlaybackSession
}

// PlayerManager is the lifecycle surface of the active decoder instance.
// Implemented by player.Manager.
type PlayerManager interface {
	Current() *player.Instance
	Mount(ctx context.Context, sess session.PlaybackSession, opts player.MountOptions) (*player.Instance, error)
	Teardown(cause player.TeardownCause) error
	Inject(ev player.EngineEvent) error
}

// ProgressMachine is the auto-progress control surface exposed to clients.
// Implemented by autoprogress.Machine.
type ProgressMachine interface {
	Arm(episodeID string, successor series.Episode, ok bool)
	Dismiss()
	PlayNow()
	SetFullscreen(active bool)
}

// SeriesSource fetches episode graphs for successor lookups.
// Implemented by mediaapi.Client.
type SeriesSource interface {
	SeriesGraph(ctx context.Context, seriesID string) (series.Graph, error)
}

// PrefStore persists player preferences. Implemented by prefs.Store.
type PrefStore interface {
	Get() (prefs.Preferences, error)
	Put(p prefs.Preferences) error
}

// HistoryStore serves saved resume positions. Implemented by history.Store.
type HistoryStore interface {
	Position(ctx context.Context, mediaID string) (float64, error)
	Forget(ctx context.Context, mediaID string) error
}

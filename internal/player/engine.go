// SPDX-License-Identifier: MIT

package player

import "context"

// EngineEventKind labels events surfaced by the adaptive-streaming engine.
type EngineEventKind string

const (
	EnginePlay           EngineEventKind = "play"
	EnginePause          EngineEventKind = "pause"
	EngineEnded          EngineEventKind = "ended"
	EngineSeeked         EngineEventKind = "seeked"
	EngineTimeUpdate     EngineEventKind = "timeupdate"
	EngineTrackChange    EngineEventKind = "trackchange"
	EngineManifestParsed EngineEventKind = "manifestparsed"
	EngineLevelSwitched  EngineEventKind = "levelswitched"
	EngineErr            EngineEventKind = "error"
)

// EngineError describes an engine failure. Only fatal errors tear the
// instance down; everything else is logged and ignored.
type EngineError struct {
	Code    string
	Message string
	Fatal   bool
}

// EngineEvent is one event emitted by the engine.
type EngineEvent struct {
	Kind          EngineEventKind
	PositionSec   float64
	DurationSec   float64
	AudioTrack    int
	SubtitleTrack int
	Volume        float64
	Muted         bool
	Level         int
	BitrateBPS    int64
	Err           *EngineError
}

// Engine is the opaque adaptive-streaming decoder handle. Its lifetime is
// strictly nested inside the owning instance: StopLoad must be called before
// Destroy, and Destroy before the instance is released.
type Engine interface {
	// LoadSource points the engine at an adaptive manifest URL.
	LoadSource(ctx context.Context, url string) error

	// Attach binds the engine to a rendering container.
	Attach(container string) error

	// StopLoad halts segment fetching immediately. It is the first step of
	// every teardown because continued fetching is the only unbounded leak.
	StopLoad()

	// Destroy releases the engine. The handle is unusable afterwards.
	Destroy()

	// Subscribe registers an event callback and returns its remover.
	Subscribe(fn func(EngineEvent)) (unsubscribe func())
}

// EngineFactory mints a fresh engine for each mount.
type EngineFactory func() Engine

// SPDX-License-Identifier: MIT

package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/log"
	"github.com/monobar/playd/internal/metrics"
	"github.com/monobar/playd/internal/session"
	"github.com/monobar/playd/internal/telemetry"
)

// Hooks are callbacks the manager invokes outside its lock. All are
// optional.
type Hooks struct {
	// OnPosition fires for every observed timeupdate.
	OnPosition func(positionSec, durationSec float64)

	// OnEnded fires after the teardown caused by natural completion.
	OnEnded func(lastPositionSec float64)

	// OnFatal fires after the teardown caused by a fatal engine error.
	OnFatal func(message string)

	// OnTeardown fires after any completed teardown, with its cause.
	OnTeardown func(cause TeardownCause)
}

// MountOptions carry the per-mount parameters.
type MountOptions struct {
	Container         string
	Autoplay          bool
	ResumePositionSec float64
}

// Manager enforces the single-active-player invariant and owns the one
// teardown path. All phase changes of the current instance go through it.
type Manager struct {
	engines  EngineFactory
	reporter *telemetry.Reporter
	hooks    Hooks
	logger   zerolog.Logger

	mu      sync.Mutex
	current *Instance
}

// NewManager creates a lifecycle manager minting engines from the factory.
func NewManager(engines EngineFactory, reporter *telemetry.Reporter, hooks Hooks) *Manager {
	return &Manager{
		engines:  engines,
		reporter: reporter,
		hooks:    hooks,
		logger:   log.WithComponent("player"),
	}
}

// Current returns the mounted instance, or nil.
func (m *Manager) Current() *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Mount creates and activates a new instance for the session's source.
/// It refuses to mount while another instance occupies the slot: rapid
// remount churn must never produce two decoders fetching segments at once.
func (m *Manager) Mount(ctx context.Context, sess session.PlaybackSession, opts MountOptions) (*Instance, error) {
	if !sess.Status.IsActive() || sess.SourceURL == "" {
		return nil, ErrNotPlaying
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, fmt.Errorf("%w (player %s in phase %s)", ErrAlreadyMounted, m.current.ID, m.current.Phase())
	}

	inst := newInstance(sess.SourceURL, opts.Container, m.engines())
	if err := inst.transition(EvMountRequested); err != nil {
		return nil, err
	}
	m.current = inst

	if err := inst.engine.LoadSource(ctx, sess.SourceURL); err != nil {
		m.teardownLocked(inst, CauseMountFailed)
		return nil, fmt.Errorf("load source: %w", err)
	}
	if err := inst.engine.Attach(opts.Container); err != nil {
		m.teardownLocked(inst, CauseMountFailed)
		return nil, fmt.Errorf("attach container: %w", err)
	}

	inst.addUnsub(inst.engine.Subscribe(func(ev EngineEvent) {
		m.handleEngineEvent(inst, ev)
	}))

	if err := inst.transition(EvAttached); err != nil {
		m.teardownLocked(inst, CauseMountFailed)
		return nil, err
	}

	inst.observe(telemetry.Snapshot{PositionSec: opts.ResumePositionSec})
	m.reporter.Bind(sess.SessionID, inst.ID, sess.MediaID, inst.LastSnapshot)
	metrics.ActivePlayers.Inc()

	m.logger.Info().
		Str(log.FieldPlayerID, inst.ID).
		Str(log.FieldMediaID, sess.MediaID).
		Bool("autoplay", opts.Autoplay).
		Msg("player mounted")

	if opts.Autoplay {
		inst.markStarted()
		m.reporter.Event(telemetry.IntentPlay, inst.LastSnapshot())
		m.reporter.Playing()
	}
	return inst, nil
}

// Teardown destroys the current instance through the single teardown path.
// It is a no-op error if nothing is mounted.
func (m *Manager) Teardown(cause TeardownCause) error {
	m.mu.Lock()
	inst := m.current
	if inst == nil {
		m.mu.Unlock()
		return ErrNoActivePlayer
	}
	m.teardownLocked(inst, cause)
	m.mu.Unlock()

	if m.hooks.OnTeardown != nil {
		m.hooks.OnTeardown(cause)
	}
	return nil
}

// Inject feeds a decoder event into the current instance's engine, when the
// engine supports event injection (the client-bridged engine does).
func (m *Manager) Inject(ev EngineEvent) error {
	m.mu.Lock()
	inst := m.current
	m.mu.Unlock()
	if inst == nil {
		return ErrNoActivePlayer
	}
	type injector interface{ Inject(EngineEvent) }
	inj, ok := inst.engine.(injector)
	if !ok {
		return fmt.Errorf("player: engine does not accept injected events")
	}
	inj.Inject(ev)
	return nil
}

// teardownLocked is the only code that destroys an instance. Ordering is
// load-bearing: segment loading is halted first because it is the only step
// with an unbounded resource leak behind it.
func (m *Manager) teardownLocked(inst *Instance, cause TeardownCause) {
	if err := inst.transition(EvTeardownRequested); err != nil {
		// Already unmounted or destroying; nothing left to do.
		m.logger.Debug().Str(log.FieldPlayerID, inst.ID).Msg("redundant teardown ignored")
		return
	}
	begin := time.Now()

	// 1. Halt segment fetching immediately.
	inst.engine.StopLoad()

	// 2. Clear the telemetry timer.
	m.reporter.Paused()

	// 3. Final stop report with the last captured position.
	m.reporter.Event(telemetry.IntentStop, inst.LastSnapshot())

	// 4. Detach all event listeners in one step.
	inst.detachAll()

	// 5. Destroy the decoder, then release the container reference.
	inst.engine.Destroy()
	inst.Container = ""

	if err := inst.transition(EvTeardownComplete); err != nil {
		m.logger.Error().Err(err).Str(log.FieldPlayerID, inst.ID).Msg("teardown completion transition failed")
	}
	m.reporter.Unbind()
	if m.current == inst {
		m.current = nil
		metrics.ActivePlayers.Dec()
	}
	metrics.ObservePlayerTeardown(time.Since(begin))

	m.logger.Info().
		Str(log.FieldPlayerID, inst.ID).
		Str(log.FieldCause, string(cause)).
		Dur("duration", time.Since(begin)).
		Msg("player destroyed")
}

func (m *Manager) handleEngineEvent(inst *Instance, ev EngineEvent) {
	switch ev.Kind {
	case EngineTimeUpdate:
		inst.observe(snapshotFromEvent(ev))
		if m.hooks.OnPosition != nil {
			m.hooks.OnPosition(ev.PositionSec, ev.DurationSec)
		}

	case EnginePlay:
		inst.observe(snapshotFromEvent(ev))
		intent := telemetry.IntentUnpause
		if inst.markStarted() {
			intent = telemetry.IntentPlay
		}
		m.reporter.Event(intent, inst.LastSnapshot())
		m.reporter.Playing()

	case EnginePause:
		inst.observe(snapshotFromEvent(ev))
		m.reporter.Paused()
		m.reporter.Event(telemetry.IntentPause, inst.LastSnapshot())

	case EngineSeeked:
		inst.observe(snapshotFromEvent(ev))
		m.reporter.Event(telemetry.IntentSeek, inst.LastSnapshot())

	case EngineManifestParsed, EngineLevelSwitched, EngineTrackChange:
		snap := inst.LastSnapshot()
		if ev.BitrateBPS > 0 {
			snap.BitrateEstimate = ev.BitrateBPS
		}
		snap.AudioTrack = ev.AudioTrack
		snap.SubtitleTrack = ev.SubtitleTrack
		inst.observe(snap)
		m.logger.Debug().
			Str(log.FieldPlayerID, inst.ID).
			Str(log.FieldEvent, string(ev.Kind)).
			Int("level", ev.Level).
			Msg("engine event")

	case EngineEnded:
		inst.observe(snapshotFromEvent(ev))
		last := inst.LastSnapshot().PositionSec
		m.mu.Lock()
		if m.current == inst {
			m.teardownLocked(inst, CauseEnded)
		}
		m.mu.Unlock()
		if m.hooks.OnTeardown != nil {
			m.hooks.OnTeardown(CauseEnded)
		}
		if m.hooks.OnEnded != nil {
			m.hooks.OnEnded(last)
		}

	case EngineErr:
		if ev.Err == nil || !ev.Err.Fatal {
			m.logger.Warn().
				Str(log.FieldPlayerID, inst.ID).
				Interface("error", ev.Err).
				Msg("non-fatal engine error ignored")
			return
		}
		message := ev.Err.Message
		if message == "" {
			message = "unknown playback error"
		}
		m.mu.Lock()
		if m.current == inst {
			m.teardownLocked(inst, CauseFatalError)
		}
		m.mu.Unlock()
		if m.hooks.OnTeardown != nil {
			m.hooks.OnTeardown(CauseFatalError)
		}
		if m.hooks.OnFatal != nil {
			m.hooks.OnFatal(message)
		}
	}
}

func snapshotFromEvent(ev EngineEvent) telemetry.Snapshot {
	return telemetry.Snapshot{
		PositionSec:     ev.PositionSec,
		DurationSec:     ev.DurationSec,
		AudioTrack:      ev.AudioTrack,
		SubtitleTrack:   ev.SubtitleTrack,
		Volume:          ev.Volume,
		Muted:           ev.Muted,
		BitrateEstimate: ev.BitrateBPS,
		Paused:          ev.Kind == EnginePause,
	}
}

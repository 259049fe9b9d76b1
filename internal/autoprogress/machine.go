// SPDX-License-Identifier: MIT

// Package autoprogress drives the "play next" prompt and decides when to
// navigate to the successor episode. The machine is pure with respect to
// time: it consumes position observations and never owns a wall clock.
package autoprogress

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/monobar/playd/internal/log"
	"github.com/monobar/playd/internal/metrics"
	"github.com/monobar/playd/internal/series"
)

// Phase describes where the machine is for the current episode.
type Phase string

const (
	// PhaseDormant is the default: no successor known, or playback is
	// further than the show threshold from the end.
	PhaseDormant Phase = "dormant"

	// PhaseCounting means the prompt is visible and counting down.
	PhaseCounting Phase = "counting"

	// PhaseDismissed means the user cancelled the prompt; navigation is
	// suppressed for the remainder of this episode.
	PhaseDismissed Phase = "dismissed"

	// PhaseNavigating means navigation to the successor fired.
	PhaseNavigating Phase = "navigating"
)

// Config carries the user-facing thresholds. The configuration surface, not
// this machine, guarantees AutoThresholdSec <= ShowThresholdSec-3.
type Config struct {
	Enabled          bool
	ShowThresholdSec int
	AutoThresholdSec int
}

// Callbacks are the machine's outputs. All are optional and invoked outside
// the machine lock.
type Callbacks struct {
	ShowPrompt        func(successor series.Episode, remainingSec int)
	HidePrompt        func()
	Countdown         func(remainingSec int)
	Navigate          func(target series.Episode, restoreFullscreen bool)
	ExitFullscreen    func()
	RestoreFullscreen func()
}

// Machine is the auto-progress state machine for one mounted player at a
// time. Arm binds it to an episode; Disarm resets it on teardown.
type Machine struct {
	logger zerolog.Logger
	cb     Callbacks

	mu            sync.Mutex
	cfg           Config
	phase         Phase
	episodeID     string
	successor     series.Episode
	hasSuccessor  bool
	dismissed     bool
	fullscreen    bool
	exitedForUI   bool
	lastCountdown int
}

// New creates a disarmed machine.
func New(cfg Config, cb Callbacks) *Machine {
	return &Machine{
		logger: log.WithComponent("autoprogress"),
		cb:     cb,
		cfg:    cfg,
		phase:  PhaseDormant,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// SetConfig replaces the thresholds, e.g. after a preference change.
func (m *Machine) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Arm binds the machine to a new episode and its successor. A successor-less
// episode (series finale) leaves the machine dormant for its whole playback;
// that is expected, not an error.
func (m *Machine) Arm(episodeID string, successor series.Episode, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseDormant
	m.episodeID = episodeID
	m.successor = successor
	m.hasSuccessor = ok
	m.dismissed = false
	m.exitedForUI = false
	m.lastCountdown = -1
	if !ok {
		m.logger.Debug().Str(log.FieldMediaID, episodeID).Msg("no successor; auto-progress disabled for this episode")
	}
}

// Disarm resets the machine when its player is destroyed.
func (m *Machine) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseDormant
	m.episodeID = ""
	m.hasSuccessor = false
	m.dismissed = false
	m.exitedForUI = false
	m.lastCountdown = -1
}

// SetFullscreen records the client's current fullscreen state.
func (m *Machine) SetFullscreen(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fullscreen = active
}

// Observe feeds one position observation and fires any due side effects.
func (m *Machine) Observe(positionSec, durationSec float64) {
	m.mu.Lock()

	if !m.cfg.Enabled || !m.hasSuccessor || durationSec <= 0 {
		m.mu.Unlock()
		return
	}

	remaining := durationSec - positionSec
	var effects []func()

	switch m.phase {
	case PhaseDormant:
		if remaining > 0 && remaining <= float64(m.cfg.ShowThresholdSec) && !m.dismissed {
			m.phase = PhaseCounting
			secs := countdownSecs(remaining)
			m.lastCountdown = secs
			successor := m.successor
			if m.fullscreen {
				// Drop out of fullscreen so the prompt is visible; noted
				// for restoration when the prompt goes away.
				m.exitedForUI = true
				if m.cb.ExitFullscreen != nil {
					effects = append(effects, m.cb.ExitFullscreen)
				}
			}
			if m.cb.ShowPrompt != nil {
				show := m.cb.ShowPrompt
				effects = append(effects, func() { show(successor, secs) })
			}
		}

	case PhaseCounting:
		switch {
		case remaining > float64(m.cfg.ShowThresholdSec):
			// Seek back above the threshold: hide, clear dismissal, and
			// watch for the next crossing.
			m.phase = PhaseDormant
			m.dismissed = false
			m.lastCountdown = -1
			effects = append(effects, m.resetUIEffectsLocked()...)
			metrics.IncAutoProgress("reset")

		case remaining <= float64(m.cfg.AutoThresholdSec):
			effects = append(effects, m.navigateLocked("auto")...)

		default:
			if secs := countdownSecs(remaining); secs != m.lastCountdown {
				m.lastCountdown = secs
				if m.cb.Countdown != nil {
					tick := m.cb.Countdown
					effects = append(effects, func() { tick(secs) })
				}
			}
		}

	case PhaseDismissed, PhaseNavigating:
		// Dismissal holds for the remainder of the episode; navigation is
		// terminal until the next Arm.
	}

	m.mu.Unlock()
	for _, fn := range effects {
		fn()
	}
}

// Dismiss cancels the prompt for the remainder of the episode.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	if m.phase != PhaseCounting {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseDismissed
	m.dismissed = true
	m.lastCountdown = -1
	effects := m.resetUIEffectsLocked()
	m.mu.Unlock()

	metrics.IncAutoProgress("dismissed")
	for _, fn := range effects {
		fn()
	}
}

// PlayNow navigates to the successor immediately; equivalent to the
// countdown reaching the auto threshold.
func (m *Machine) PlayNow() {
	m.mu.Lock()
	if m.phase != PhaseCounting {
		m.mu.Unlock()
		return
	}
	effects := m.navigateLocked("user")
	m.mu.Unlock()
	for _, fn := range effects {
		fn()
	}
}

// navigateLocked flips to navigating and returns the side effects. Caller
// holds the lock.
func (m *Machine) navigateLocked(trigger string) []func() {
	m.phase = PhaseNavigating
	m.lastCountdown = -1
	restore := m.fullscreen || m.exitedForUI
	m.exitedForUI = false
	target := m.successor

	metrics.IncAutoProgress("navigated_" + trigger)
	m.logger.Info().
		Str(log.FieldMediaID, m.episodeID).
		Str("successor", target.ID).
		Bool("restore_fullscreen", restore).
		Msg("auto-progress navigating")

	var effects []func()
	if m.cb.HidePrompt != nil {
		effects = append(effects, m.cb.HidePrompt)
	}
	if m.cb.Navigate != nil {
		nav := m.cb.Navigate
		effects = append(effects, func() { nav(target, restore) })
	}
	return effects
}

// resetUIEffectsLocked hides the prompt and restores fullscreen if it was
// exited for the prompt. Caller holds the lock.
func (m *Machine) resetUIEffectsLocked() []func() {
	var effects []func()
	if m.cb.HidePrompt != nil {
		effects = append(effects, m.cb.HidePrompt)
	}
	if m.exitedForUI {
		m.exitedForUI = false
		if m.cb.RestoreFullscreen != nil {
			effects = append(effects, m.cb.RestoreFullscreen)
		}
	}
	return effects
}

func countdownSecs(remaining float64) int {
	if remaining < 0 {
		return 0
	}
	return int(math.Ceil(remaining))
}

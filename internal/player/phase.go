// SPDX-License-Identifier: MIT

// Package player owns the lifecycle of the single mounted decoder instance:
// mount, event wiring, and the one teardown path everything funnels through.
package player

// Phase describes where a player instance is in its lifecycle.
type Phase string

const (
	PhaseUnmounted  Phase = "unmounted"
	PhaseMounting   Phase = "mounting"
	PhaseActive     Phase = "active"
	PhaseDestroying Phase = "destroying"
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks whether the phase is valid.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseUnmounted, PhaseMounting, PhaseActive, PhaseDestroying:
		return true
	default:
		return false
	}
}

// Occupied reports whether the phase holds the single-player slot. A second
// mount must be refused while any instance is in an occupied phase.
func (p Phase) Occupied() bool {
	switch p {
	case PhaseMounting, PhaseActive, PhaseDestroying:
		return true
	default:
		return false
	}
}

// EventKind is a lifecycle event driving a phase transition.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvMountRequested
	EvAttached
	EvTeardownRequested
	EvTeardownComplete
)

// Transition is a single allowed edge in the player phase machine.
type Transition struct {
	From  Phase
	To    Phase
	Event EventKind
}

var transitionsTable = []Transition{
	{From: PhaseUnmounted, To: PhaseMounting, Event: EvMountRequested},
	{From: PhaseMounting, To: PhaseActive, Event: EvAttached},

	// There is exactly one teardown path; mount failures, fatal errors,
	// navigation and natural completion all route through it.
	{From: PhaseMounting, To: PhaseDestroying, Event: EvTeardownRequested},
	{From: PhaseActive, To: PhaseDestroying, Event: EvTeardownRequested},

	// Terminal for the instance. A new mount mints a new player id.
	{From: PhaseDestroying, To: PhaseUnmounted, Event: EvTeardownComplete},
}

// TransitionFor returns the allowed transition for a given phase+event.
func TransitionFor(from Phase, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// TeardownCause records why a teardown was requested.
type TeardownCause string

const (
	CauseNavigation    TeardownCause = "navigation"
	CauseSourceChanged TeardownCause = "source_changed"
	CauseFatalError    TeardownCause = "fatal_error"
	CauseEnded         TeardownCause = "ended"
	CauseMountFailed   TeardownCause = "mount_failed"
	CauseShutdown      TeardownCause = "shutdown"
)

// SPDX-License-Identifier: MIT

package player

import "errors"

var (
	// ErrAlreadyMounted is returned when a mount is requested while another
	// instance occupies the player slot. Guards against re-render churn
	// double-invoking the mount; this is a correctness invariant.
	ErrAlreadyMounted = errors.New("player: an instance is already mounted")

	// ErrNoActivePlayer is returned when an operation needs a mounted
	// instance and none exists.
	ErrNoActivePlayer = errors.New("player: no active instance")

	// ErrNotPlaying is returned when a mount is requested for a session
	// that has no resolved source.
	ErrNotPlaying = errors.New("player: session is not in the playing status")

	// ErrIllegalTransition is returned when a phase transition is not in
	// the transition table.
	ErrIllegalTransition = errors.New("player: illegal phase transition")
)

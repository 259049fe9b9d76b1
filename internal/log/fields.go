// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldPlayerID  = "player_id"
	FieldMediaID   = "media_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldIntent    = "intent"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldCause    = "cause"

	// Path / URL fields
	FieldSourceURL = "source_url"
	FieldBaseURL   = "base_url"
)

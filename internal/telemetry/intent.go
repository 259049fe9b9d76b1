// SPDX-License-Identifier: MIT

// Package telemetry reports playback status snapshots to the remote
// collector. Delivery is strictly best-effort: a slow or failing collector
// must never affect playback or teardown.
package telemetry

import (
	"encoding/json"
	"fmt"
)

// Intent labels why a status report was sent.
type Intent string

const (
	IntentPlay       Intent = "play"
	IntentPause      Intent = "pause"
	IntentUnpause    Intent = "unpause"
	IntentSeek       Intent = "seek"
	IntentTimeUpdate Intent = "timeupdate"
	IntentStop       Intent = "stop"
)

// String implements fmt.Stringer.
func (i Intent) String() string {
	return string(i)
}

// IsValid checks whether the intent is valid.
func (i Intent) IsValid() bool {
	switch i {
	case IntentPlay, IntentPause, IntentUnpause, IntentSeek, IntentTimeUpdate, IntentStop:
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	intent := Intent(str)
	if !intent.IsValid() {
		return fmt.Errorf("invalid telemetry intent: %q", str)
	}
	*i = intent
	return nil
}

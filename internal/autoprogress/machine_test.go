// SPDX-License-Identifier: MIT

package autoprogress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monobar/playd/internal/series"
)

type capture struct {
	prompts    []int // remaining secs at ShowPrompt
	hides      int
	countdowns []int
	navigated  []series.Episode
	restores   []bool // restoreFullscreen flag per navigation
	fsExits    int
	fsRestores int
}

func newMachine(cfg Config) (*Machine, *capture) {
	c := &capture{}
	m := New(cfg, Callbacks{
		ShowPrompt:        func(_ series.Episode, remaining int) { c.prompts = append(c.prompts, remaining) },
		HidePrompt:        func() { c.hides++ },
		Countdown:         func(remaining int) { c.countdowns = append(c.countdowns, remaining) },
		Navigate:          func(target series.Episode, restore bool) { c.navigated = append(c.navigated, target); c.restores = append(c.restores, restore) },
		ExitFullscreen:    func() { c.fsExits++ },
		RestoreFullscreen: func() { c.fsRestores++ },
	})
	return m, c
}

func defaultConfig() Config {
	return Config{Enabled: true, ShowThresholdSec: 30, AutoThresholdSec: 5}
}

// advance simulates playback of a 1000s episode from `from` to `to` seconds
// in one-second observations.
func advance(m *Machine, from, to float64) {
	for pos := from; pos <= to; pos++ {
		m.Observe(pos, 1000)
	}
}

func TestMachine_ThresholdOrdering(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	// Far from the end: nothing happens.
	advance(m, 0, 969)
	assert.Empty(t, c.prompts)
	assert.Equal(t, PhaseDormant, m.Phase())

	// Prompt appears exactly when remaining first reaches 30s.
	m.Observe(970, 1000)
	require.Equal(t, []int{30}, c.prompts)
	assert.Equal(t, PhaseCounting, m.Phase())

	// Counts down without navigating until remaining hits 5s.
	advance(m, 971, 994)
	assert.Empty(t, c.navigated)
	assert.Equal(t, PhaseCounting, m.Phase())

	m.Observe(995, 1000)
	require.Len(t, c.navigated, 1)
	assert.Equal(t, "e2", c.navigated[0].ID)
	assert.Equal(t, PhaseNavigating, m.Phase())
}

func TestMachine_DismissalSuppressesNavigation(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	m.Observe(975, 1000) // remaining 25 -> counting
	require.Equal(t, PhaseCounting, m.Phase())

	m.Dismiss()
	assert.Equal(t, PhaseDismissed, m.Phase())
	assert.Equal(t, 1, c.hides)

	// Crossing the auto threshold must not navigate anymore.
	advance(m, 976, 999)
	assert.Empty(t, c.navigated)
	assert.Equal(t, PhaseDismissed, m.Phase())
}

func TestMachine_SeekBackResetsPrompt(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	m.Observe(975, 1000)
	require.Equal(t, PhaseCounting, m.Phase())

	// Seek back above the show threshold.
	m.Observe(500, 1000)
	assert.Equal(t, PhaseDormant, m.Phase())
	assert.Equal(t, 1, c.hides)

	// Approaching again re-shows the prompt.
	m.Observe(980, 1000)
	assert.Equal(t, PhaseCounting, m.Phase())
	assert.Len(t, c.prompts, 2)
}

func TestMachine_PlayNowNavigatesEarly(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	m.Observe(975, 1000)
	m.PlayNow()
	require.Len(t, c.navigated, 1)
	assert.Equal(t, PhaseNavigating, m.Phase())

	// Further observations are inert.
	m.Observe(999, 1000)
	assert.Len(t, c.navigated, 1)
}

func TestMachine_PlayNowWithoutPromptIsNoop(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)
	m.PlayNow()
	assert.Empty(t, c.navigated)
}

func TestMachine_FullscreenExitAndRestore(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)
	m.SetFullscreen(true)

	m.Observe(975, 1000)
	assert.Equal(t, 1, c.fsExits, "prompt must drop out of fullscreen to be visible")

	m.Dismiss()
	assert.Equal(t, 1, c.fsRestores, "dismissal restores fullscreen")
}

func TestMachine_NavigationCarriesFullscreenFlag(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)
	m.SetFullscreen(true)

	m.Observe(975, 1000)
	m.Observe(996, 1000)
	require.Equal(t, []bool{true}, c.restores)
}

func TestMachine_CountdownTicksAtOneSecondResolution(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	m.Observe(970, 1000) // prompt at 30
	m.Observe(971, 1000)
	m.Observe(971.4, 1000) // same second: no extra tick
	m.Observe(972, 1000)

	assert.Equal(t, []int{29, 28}, c.countdowns)
}

func TestMachine_NoSuccessorStaysDormant(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("finale", series.Episode{}, false)

	advance(m, 0, 999)
	assert.Empty(t, c.prompts)
	assert.Empty(t, c.navigated)
	assert.Equal(t, PhaseDormant, m.Phase())
}

func TestMachine_DisabledByPreference(t *testing.T) {
	cfg := defaultConfig()
	cfg.Enabled = false
	m, c := newMachine(cfg)
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	advance(m, 960, 999)
	assert.Empty(t, c.prompts)
	assert.Empty(t, c.navigated)
}

func TestMachine_ArmResetsDismissal(t *testing.T) {
	m, c := newMachine(defaultConfig())
	m.Arm("e1", series.Episode{ID: "e2"}, true)

	m.Observe(975, 1000)
	m.Dismiss()

	// Episode change re-arms.
	m.Arm("e2", series.Episode{ID: "e3"}, true)
	m.Observe(975, 1000)
	assert.Equal(t, PhaseCounting, m.Phase())
	assert.Len(t, c.prompts, 2)
}

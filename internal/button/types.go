// Package button contains the per-input state machine that turns raw
// press/release samples into tap, hold and simultaneous-press intents.
// This package has NO external dependencies (no devices, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package button

import "time"

// State is the current phase of a button Machine.
type State uint8

const (
	NoPress State = iota
	BtnPress
	WaitSim
	WaitHold
	HoldPress
	SimPress
	WaitSimHold
	SimHold
	SimRelease
	SimTapRelease
	TapRelease

	numStates
)

var stateNames = [...]string{
	NoPress:       "NoPress",
	BtnPress:      "BtnPress",
	WaitSim:       "WaitSim",
	WaitHold:      "WaitHold",
	HoldPress:     "HoldPress",
	SimPress:      "SimPress",
	WaitSimHold:   "WaitSimHold",
	SimHold:       "SimHold",
	SimRelease:    "SimRelease",
	SimTapRelease: "SimTapRelease",
	TapRelease:    "TapRelease",
}

var _ = [1]struct{}{}[len(stateNames)-int(numStates)]

func (s State) String() string {
	if s >= numStates {
		return "Invalid"
	}
	return stateNames[s]
}

const (
	// DefaultSimWindow bounds how long a button waits in WaitSim for its
	// partner before falling back to its own bindings.
	DefaultSimWindow = 50 * time.Millisecond

	// DefaultTapDuration is how long a tap binding stays pressed.
	DefaultTapDuration = 500 * time.Millisecond

	// TapSlack closes a tap window one tick early so a release noticed on
	// the last poll before expiry still completes the tap.
	TapSlack = 10 * time.Millisecond

	// DefaultHold is the hold press time when no setting overrides it.
	DefaultHold = 150 * time.Millisecond
)

var _ = [1]struct{}{}[int(DefaultSimWindow/DefaultHold)] // sim window must be shorter than hold

// Settings are the chord-resolved values in effect for one event.
type Settings struct {
	Turbo    time.Duration
	Hold     time.Duration
	DblPress time.Duration
}

// Event is a Pressed or Released sample delivered on a poll tick.
type Event struct {
	Time     time.Time
	Settings Settings
}

// ComboMap binds a simultaneous press of this button and Partner.
// A button may have one ComboMap per partner.
type ComboMap struct {
	Partner ID
	Name    string
	Press   string
	Hold    string
	// TapDuration overrides DefaultTapDuration for this combo when non-zero.
	TapDuration time.Duration
}

// HasHold reports whether the combo distinguishes tap from hold.
func (c *ComboMap) HasHold() bool {
	return c != nil && c.Hold != ""
}

// Mapping is the configured behaviour of one button. Rebinding swaps the
// Mapping; the Machine and its state persist.
type Mapping struct {
	ID    ID
	Press string
	Hold  string
	// TapDuration overrides DefaultTapDuration for this binding when non-zero.
	TapDuration time.Duration
	Combos      []ComboMap
}

// HasHold reports whether the mapping distinguishes tap from hold.
func (m *Mapping) HasHold() bool {
	return m != nil && m.Hold != ""
}

// ActionSink receives the actions a Machine applies. A nil combo means the
// button's own bindings; tap marks the short tap variant of press/release.
type ActionSink interface {
	ApplyPress(id ID, tap bool, combo *ComboMap)
	ApplyRelease(id ID, tap bool, combo *ComboMap)
	ApplyHold(id ID, combo *ComboMap)
}

// FaultLog records desynchronization and invalid-index conditions.
type FaultLog interface {
	Fault(id ID, msg string)
}

func tapDuration(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return DefaultTapDuration
}

// Package trigger drives dual-stage analog triggers: it turns a continuous
// position into soft-pull and full-pull button events and picks the haptic
// effect for the current stage.
package trigger

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/padshift/internal/button"
)

// Mode selects how the soft and full pulls of a trigger interact.
type Mode uint8

const (
	NoFull          Mode = iota // soft binding only
	NoSkip                      // soft always fires, full fires in addition
	NoSkipExclusive             // soft taps, full replaces it
	MaySkip                     // a quick full pull skips the soft binding
	MustSkip                    // full only reachable by a quick pull
	MaySkipResp                 // MaySkip that fires soft immediately
	MustSkipResp                // MustSkip that fires soft immediately
	PassLeft                    // forward position to the left axis
	PassRight                   // forward position to the right axis

	numModes
)

var modeNames = [...]string{
	NoFull:          "NO_FULL",
	NoSkip:          "NO_SKIP",
	NoSkipExclusive: "NO_SKIP_EXCLUSIVE",
	MaySkip:         "MAY_SKIP",
	MustSkip:        "MUST_SKIP",
	MaySkipResp:     "MAY_SKIP_R",
	MustSkipResp:    "MUST_SKIP_R",
	PassLeft:        "X_LT",
	PassRight:       "X_RT",
}

var _ = [1]struct{}{}[len(modeNames)-int(numModes)]

func (m Mode) String() string {
	if m >= numModes {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// Passthrough reports whether the mode bypasses the dual-stage machine.
func (m Mode) Passthrough() bool {
	return m == PassLeft || m == PassRight
}

// ParseMode returns the mode with the given name. Matching is case-insensitive.
func ParseMode(name string) (Mode, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == upper {
			return Mode(m), nil
		}
	}
	return NoFull, fmt.Errorf("unknown trigger mode %q", name)
}

// DstState is the dual-stage state of one trigger.
type DstState uint8

const (
	NoPress DstState = iota
	PressStart
	PressStartResp
	QuickSoftTap
	QuickFullPress
	QuickFullRelease
	SoftPress
	DelayFullPress
	ExclFullPress

	numDstStates
)

var dstNames = [...]string{
	NoPress:          "NoPress",
	PressStart:       "PressStart",
	PressStartResp:   "PressStartResp",
	QuickSoftTap:     "QuickSoftTap",
	QuickFullPress:   "QuickFullPress",
	QuickFullRelease: "QuickFullRelease",
	SoftPress:        "SoftPress",
	DelayFullPress:   "DelayFullPress",
	ExclFullPress:    "ExclFullPress",
}

var _ = [1]struct{}{}[len(dstNames)-int(numDstStates)]

func (s DstState) String() string {
	if s >= numDstStates {
		return "Invalid"
	}
	return dstNames[s]
}

// Side identifies the left or right trigger.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Effect is an adaptive-trigger resistance descriptor in device units.
type Effect struct {
	Mode     uint8
	Strength uint16
	Start    uint8
	End      uint8
}

// HapticSink receives the effect of each trigger once per update.
type HapticSink interface {
	SetEffect(side Side, e Effect)
}

// AxisSink receives raw positions in passthrough modes.
type AxisSink interface {
	SetAxis(side Side, position float64)
}

// Button is the part of a button.Machine a Stage drives.
type Button interface {
	ID() button.ID
	State() button.State
	Pressed(e button.Event)
	Released(e button.Event)
	Duration(now time.Time) time.Duration
	SetPressTime(t time.Time)
}

// Input is one position sample with the settings resolved for it.
type Input struct {
	Time     time.Time
	Position float64 // 0 released, 1 fully pulled
	Mode     Mode
	// Threshold is the soft-pull position. Negative selects hair trigger.
	Threshold float64
	SkipDelay time.Duration
	// Adaptive is the adaptive-trigger setting. It only matters on
	// triggers whose Config marks them adaptive.
	Adaptive bool
	// Tick is the poll interval, used to ramp the soft-press effect.
	Tick time.Duration
	// Settings are forwarded with every event sent to the wrapped buttons.
	Settings button.Settings
}

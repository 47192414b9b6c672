package chord

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/trigger"
)

// DurationKey names a time setting.
type DurationKey uint8

const (
	TurboPeriod DurationKey = iota
	HoldPressTime
	DblPressWindow
	TriggerSkipDelay

	numDurationKeys
)

var durationNames = [...]string{
	TurboPeriod:      "TURBO_PERIOD",
	HoldPressTime:    "HOLD_PRESS_TIME",
	DblPressWindow:   "DBL_PRESS_WINDOW",
	TriggerSkipDelay: "TRIGGER_SKIP_DELAY",
}

// FloatKey names a numeric setting.
type FloatKey uint8

const (
	TriggerThreshold FloatKey = iota

	numFloatKeys
)

var floatNames = [...]string{
	TriggerThreshold: "TRIGGER_THRESHOLD",
}

// ModeKey names a trigger mode setting.
type ModeKey uint8

const (
	ZLMode ModeKey = iota
	ZRMode

	numModeKeys
)

var modeNames = [...]string{
	ZLMode: "ZL_MODE",
	ZRMode: "ZR_MODE",
}

// SwitchKey names an on/off setting.
type SwitchKey uint8

const (
	AdaptiveTrigger SwitchKey = iota

	numSwitchKeys
)

var switchNames = [...]string{
	AdaptiveTrigger: "ADAPTIVE_TRIGGER",
}

// Every key needs a name.
var (
	_ = [1]struct{}{}[len(durationNames)-int(numDurationKeys)]
	_ = [1]struct{}{}[len(floatNames)-int(numFloatKeys)]
	_ = [1]struct{}{}[len(modeNames)-int(numModeKeys)]
	_ = [1]struct{}{}[len(switchNames)-int(numSwitchKeys)]
)

func (k DurationKey) String() string { return durationNames[k] }
func (k FloatKey) String() string    { return floatNames[k] }
func (k ModeKey) String() string     { return modeNames[k] }
func (k SwitchKey) String() string   { return switchNames[k] }

// Defaults.
const (
	DefaultTurboPeriod      = 80 * time.Millisecond
	DefaultHoldPressTime    = button.DefaultHold
	DefaultDblPressWindow   = 150 * time.Millisecond
	DefaultTriggerSkipDelay = 150 * time.Millisecond
	DefaultTriggerThreshold = 0.0
	DefaultTriggerMode      = trigger.NoFull
	DefaultAdaptiveTrigger  = true
)

// Setting is one value with optional per-chord overrides.
type Setting[T any] struct {
	def    T
	chords map[button.ID]T
}

func newSetting[T any](def T) Setting[T] {
	return Setting[T]{def: def, chords: map[button.ID]T{}}
}

// Get walks the stack from the most recent layer and returns the first
// override found. The sentinel resolves to the default.
func (s *Setting[T]) Get(stack *Stack) T {
	if stack != nil {
		for _, l := range stack.layers {
			if l == button.None {
				break
			}
			if v, ok := s.chords[l]; ok {
				return v
			}
		}
	}
	return s.def
}

// Default returns the unchorded value.
func (s *Setting[T]) Default() T {
	return s.def
}

// Set stores v for chord. None sets the default.
func (s *Setting[T]) Set(chord button.ID, v T) {
	if chord == button.None {
		s.def = v
		return
	}
	s.chords[chord] = v
}

// Table is the settings of one controller session, indexed by key.
type Table struct {
	durations [numDurationKeys]Setting[time.Duration]
	floats    [numFloatKeys]Setting[float64]
	modes     [numModeKeys]Setting[trigger.Mode]
	switches  [numSwitchKeys]Setting[bool]
}

// NewTable returns a table holding the defaults.
func NewTable() *Table {
	t := &Table{}
	t.durations[TurboPeriod] = newSetting(DefaultTurboPeriod)
	t.durations[HoldPressTime] = newSetting(DefaultHoldPressTime)
	t.durations[DblPressWindow] = newSetting(DefaultDblPressWindow)
	t.durations[TriggerSkipDelay] = newSetting(DefaultTriggerSkipDelay)
	t.floats[TriggerThreshold] = newSetting(DefaultTriggerThreshold)
	t.modes[ZLMode] = newSetting(DefaultTriggerMode)
	t.modes[ZRMode] = newSetting(DefaultTriggerMode)
	t.switches[AdaptiveTrigger] = newSetting(DefaultAdaptiveTrigger)
	return t
}

func (t *Table) Duration(k DurationKey) *Setting[time.Duration] { return &t.durations[k] }
func (t *Table) Float(k FloatKey) *Setting[float64]             { return &t.floats[k] }
func (t *Table) Mode(k ModeKey) *Setting[trigger.Mode]          { return &t.modes[k] }
func (t *Table) Switch(k SwitchKey) *Setting[bool]              { return &t.switches[k] }

// Set parses value for the setting called name, scoped to chord.
func (t *Table) Set(name string, chord button.ID, value string) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	value = strings.TrimSpace(value)

	for k, n := range durationNames {
		if n == name {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", name, err)
			}
			if d < 0 {
				return fmt.Errorf("setting %s: negative duration %s", name, value)
			}
			// A zero hold would read as unset to the button machine.
			if d == 0 && DurationKey(k) == HoldPressTime {
				return fmt.Errorf("setting %s: must be positive", name)
			}
			t.durations[k].Set(chord, d)
			return nil
		}
	}
	for k, n := range floatNames {
		if n == name {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("setting %s: %w", name, err)
			}
			t.floats[k].Set(chord, f)
			return nil
		}
	}
	for k, n := range modeNames {
		if n == name {
			m, err := trigger.ParseMode(value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", name, err)
			}
			t.modes[k].Set(chord, m)
			return nil
		}
	}
	for k, n := range switchNames {
		if n == name {
			b, err := parseSwitch(value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", name, err)
			}
			t.switches[k].Set(chord, b)
			return nil
		}
	}
	return fmt.Errorf("unknown setting %q", name)
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToUpper(v) {
	case "ON":
		return true, nil
	case "OFF":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// ButtonSettings resolves the values carried by every button event.
func (t *Table) ButtonSettings(stack *Stack) button.Settings {
	return button.Settings{
		Turbo:    t.durations[TurboPeriod].Get(stack),
		Hold:     t.durations[HoldPressTime].Get(stack),
		DblPress: t.durations[DblPressWindow].Get(stack),
	}
}

// TriggerSettings are the resolved values for one trigger update.
type TriggerSettings struct {
	Mode      trigger.Mode
	Threshold float64
	SkipDelay time.Duration
	Adaptive  bool
}

// TriggerSettings resolves the values for the trigger on side.
func (t *Table) TriggerSettings(side trigger.Side, stack *Stack) TriggerSettings {
	mk := ZLMode
	if side == trigger.Right {
		mk = ZRMode
	}
	return TriggerSettings{
		Mode:      t.modes[mk].Get(stack),
		Threshold: t.floats[TriggerThreshold].Get(stack),
		SkipDelay: t.durations[TriggerSkipDelay].Get(stack),
		Adaptive:  t.switches[AdaptiveTrigger].Get(stack),
	}
}

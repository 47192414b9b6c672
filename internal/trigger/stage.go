package trigger

import (
	"math"
	"time"

	"github.com/sweeney/padshift/internal/button"
)

const (
	// DefaultOffset and DefaultRange map [0,1] pull onto device effect units.
	DefaultOffset = 25
	DefaultRange  = 150

	historyLen = 4
)

// Config describes one physical trigger.
type Config struct {
	Side   Side
	Offset uint8
	Range  uint8
	// DigitalOnly marks triggers with no analog travel. The full pull is
	// never reachable, so every non-passthrough mode acts as NoFull.
	DigitalOnly bool
	// Adaptive marks triggers that render resistance effects. Hair trigger
	// is disabled on them while the adaptive setting is on.
	Adaptive bool
}

// Stage is the dual-stage controller of one analog trigger. It wraps a
// soft-pull and a full-pull button machine.
type Stage struct {
	cfg     Config
	soft    Button
	full    Button
	state   DstState
	history [historyLen]float64 // oldest first
	effect  Effect
	haptics HapticSink
	axes    AxisSink
	faults  button.FaultLog
}

// NewStage creates a stage in NoPress. Zero Offset and Range take defaults.
func NewStage(cfg Config, soft, full Button, haptics HapticSink, axes AxisSink, faults button.FaultLog) *Stage {
	if cfg.Offset == 0 {
		cfg.Offset = DefaultOffset
	}
	if cfg.Range == 0 {
		cfg.Range = DefaultRange
	}
	return &Stage{
		cfg:     cfg,
		soft:    soft,
		full:    full,
		haptics: haptics,
		axes:    axes,
		faults:  faults,
	}
}

// State returns the dual-stage state.
func (s *Stage) State() DstState {
	return s.state
}

// Effect returns the last computed haptic effect.
func (s *Stage) Effect() Effect {
	return s.effect
}

// Config returns the trigger description.
func (s *Stage) Config() Config {
	return s.cfg
}

// Soft returns the soft-pull button.
func (s *Stage) Soft() Button {
	return s.soft
}

// Full returns the full-pull button.
func (s *Stage) Full() Button {
	return s.full
}

// Update consumes one position sample.
func (s *Stage) Update(in Input) {
	defer s.report()

	mode := in.Mode
	if mode.Passthrough() {
		side := Left
		if mode == PassRight {
			side = Right
		}
		if s.axes != nil {
			s.axes.SetAxis(side, in.Position)
		}
		s.effect.Mode = 1
		s.effect.Strength = 0
		s.effect.Start = s.zone(0.05)
		return
	}
	if s.cfg.DigitalOnly {
		mode = NoFull
	}

	ev := button.Event{Time: in.Time, Settings: in.Settings}

	// Let pending taps finish before the stage moves on.
	if s.soft.State() == button.TapRelease {
		s.soft.Released(ev)
	}
	if s.full.State() == button.TapRelease {
		s.full.Released(ev)
	}

	threshold := in.Threshold
	if s.cfg.Adaptive && in.Adaptive && threshold < 0 {
		threshold = 0
	}
	full := in.Position >= 1.0

	var soft bool
	switch s.state {
	case NoPress, PressStart, PressStartResp, QuickFullRelease, SoftPress:
		soft = s.softPressed(in.Position, threshold)
	}

	switch s.state {
	case NoPress:
		start := clamp(threshold+0.05, 0, 1)
		if mode == NoFull {
			s.effect.Mode = 1
			s.effect.Strength = math.MaxUint16
			s.effect.Start = s.zone(start)
		} else {
			s.effect.Mode = 2
			s.effect.Strength = math.MaxUint16 / 10
			s.effect.Start = s.zone(start)
			s.effect.End = s.zone(math.Min(1, start+0.1))
		}
		if !soft {
			s.soft.Released(ev)
			return
		}
		switch mode {
		case MaySkip, MustSkip:
			// Time the pull to decide whether the soft binding is skipped.
			s.state = PressStart
			s.soft.SetPressTime(in.Time)
		case MaySkipResp, MustSkipResp:
			s.state = PressStartResp
			s.soft.SetPressTime(in.Time)
			s.soft.Pressed(ev)
		default:
			s.state = SoftPress
			s.soft.Pressed(ev)
		}

	case PressStart:
		switch {
		case !soft:
			s.state = QuickSoftTap
			s.soft.Pressed(ev)
		case full:
			s.state = QuickFullPress
			s.full.Pressed(ev)
		case s.soft.Duration(in.Time) >= in.SkipDelay:
			if mode == MustSkip {
				s.effect.Start = s.zone(in.Position + 0.05)
			}
			s.state = SoftPress
			s.soft.SetPressTime(in.Time)
			s.soft.Pressed(ev)
		}

	case PressStartResp:
		switch {
		case !soft:
			s.state = NoPress
			s.soft.Released(ev)
		case full:
			s.state = QuickFullPress
			s.soft.Released(ev)
			s.full.Pressed(ev)
		default:
			if s.soft.Duration(in.Time) >= in.SkipDelay {
				if mode == MustSkipResp {
					s.effect.Start = s.zone(in.Position + 0.05)
				}
				s.state = SoftPress
			}
			s.soft.Pressed(ev)
		}

	case QuickSoftTap:
		// The soft pull is already gone: release now.
		s.state = NoPress
		s.soft.Released(ev)

	case QuickFullPress:
		s.fullZone(0.89)
		if full {
			s.full.Pressed(ev)
			return
		}
		s.state = QuickFullRelease
		s.full.Released(ev)

	case QuickFullRelease:
		s.fullZone(0.89)
		switch {
		case !soft:
			s.state = NoPress
		case full:
			s.state = QuickFullPress
			s.full.Pressed(ev)
		}

	case SoftPress:
		if !soft {
			s.state = NoPress
			s.soft.Released(ev)
			return
		}
		switch mode {
		case NoSkip, MaySkip, MaySkipResp:
			s.ramp(in.Tick, true)
			s.soft.Pressed(ev)
			if full {
				s.state = DelayFullPress
				s.full.Pressed(ev)
			}
		case NoSkipExclusive:
			s.ramp(in.Tick, true)
			s.soft.Released(ev)
			if full {
				s.state = ExclFullPress
				s.full.Pressed(ev)
			}
		default:
			s.effect.Mode = 1
			s.ramp(in.Tick, false)
			s.soft.Pressed(ev)
		}

	case DelayFullPress:
		s.fullZone(0.8)
		if full {
			s.full.Pressed(ev)
		} else {
			s.state = SoftPress
			s.full.Released(ev)
		}
		// The soft binding stays held under a full pull.
		s.soft.Pressed(ev)

	case ExclFullPress:
		s.fullZone(0.89)
		if full {
			s.full.Pressed(ev)
			return
		}
		s.state = SoftPress
		s.full.Released(ev)
		s.soft.Pressed(ev)

	default:
		if s.faults != nil {
			s.faults.Fault(s.soft.ID(), "trigger has invalid state "+s.state.String()+", reset to NoPress")
		}
		s.state = NoPress
	}
}

// softPressed classifies the soft pull and records the sample.
func (s *Stage) softPressed(position, threshold float64) bool {
	if threshold >= 0 {
		return position > threshold
	}
	pressed := s.hairTrigger(position)
	copy(s.history[:], s.history[1:])
	s.history[historyLen-1] = position
	return pressed
}

// hairTrigger compares three overlapping 3-sample sums over the history
// and the new sample. A non-monotonic run keeps the previous answer.
func (s *Stage) hairTrigger(position float64) bool {
	h := s.history
	a := h[0] + h[1] + h[2]
	b := h[1] + h[2] + h[3]
	c := h[2] + h[3] + position
	switch {
	case a < b && b < c:
		return true
	case a > b && b > c:
		return false
	default:
		return s.state != NoPress && s.state != QuickSoftTap
	}
}

// ramp stiffens the soft-press effect a little more every tick.
func (s *Stage) ramp(tick time.Duration, moveZone bool) {
	step := float64(tick) / float64(30*time.Millisecond) * math.MaxUint16
	s.effect.Strength = uint16(math.Min(math.MaxUint16, float64(s.effect.Strength)+step))
	if !moveZone {
		return
	}
	rng := float64(s.cfg.Range)
	start := math.Min(float64(s.cfg.Offset)+0.89*rng, float64(s.effect.Start)+float64(tick)/float64(150*time.Millisecond)*rng)
	s.effect.Start = units(start)
	s.effect.End = units(start + 0.1*rng)
}

func (s *Stage) fullZone(start float64) {
	s.effect.Mode = 2
	s.effect.Strength = math.MaxUint16
	s.effect.Start = s.zone(start)
	s.effect.End = s.zone(0.99)
}

// zone converts a pull fraction to device units.
func (s *Stage) zone(frac float64) uint8 {
	return units(float64(s.cfg.Offset) + frac*float64(s.cfg.Range))
}

func (s *Stage) report() {
	if s.haptics != nil {
		s.haptics.SetEffect(s.cfg.Side, s.effect)
	}
}

func units(v float64) uint8 {
	return uint8(clamp(v, 0, math.MaxUint8))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

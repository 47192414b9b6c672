package pad

import (
	"time"

	"github.com/sweeney/padshift/internal/action"
	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/device"
	"github.com/sweeney/padshift/internal/trigger"
)

// EffectUpdate is a changed haptic effect.
type EffectUpdate struct {
	Side   trigger.Side
	Effect trigger.Effect
}

// AxisUpdate is a changed passthrough axis position.
type AxisUpdate struct {
	Side     trigger.Side
	Position float64
}

// Result is everything one tick produced.
type Result struct {
	Actions []action.Event
	Effects []EffectUpdate
	Axes    []AxisUpdate
}

// Empty reports whether the tick produced nothing to publish.
func (r Result) Empty() bool {
	return len(r.Actions) == 0 && len(r.Effects) == 0 && len(r.Axes) == 0
}

type padTrigger struct {
	index int
	side  trigger.Side
	soft  button.ID
}

// Pad is one physical device (or one half of a split controller) feeding a
// Session.
type Pad struct {
	s        *Session
	name     string
	buttons  []button.ID
	machines []*button.Machine
	triggers []padTrigger

	lastEffect map[trigger.Side]trigger.Effect
	lastAxis   map[trigger.Side]float64
}

// NewPad registers the inputs described by info with s. Each input is
// owned by the first pad that declares it; later pads skip it, so one
// machine never receives samples from two devices.
func NewPad(s *Session, info device.Info) *Pad {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &Pad{
		s:          s,
		name:       info.Name,
		lastEffect: make(map[trigger.Side]trigger.Effect),
		lastAxis:   make(map[trigger.Side]float64),
	}

	for _, id := range info.Buttons {
		switch id {
		case button.ZLF, button.ZRF, button.None:
			// Owned by the trigger stages.
			continue
		}
		if s.owned.Has(id) {
			s.log.Warnw("input already owned by another pad, skipped", "pad", info.Name, "input", id.String())
			continue
		}
		s.owned = s.owned.With(id)

		switch id {
		case button.ZL:
			s.owned = s.owned.With(button.ZLF)
			p.addTrigger(trigger.Left, button.ZL, button.ZLF, info)
		case button.ZR:
			s.owned = s.owned.With(button.ZRF)
			p.addTrigger(trigger.Right, button.ZR, button.ZRF, info)
		default:
			p.buttons = append(p.buttons, id)
			p.machines = append(p.machines, s.machine(id))
		}
	}

	s.log.Infow("pad registered", "name", info.Name, "buttons", len(p.buttons), "triggers", len(p.triggers),
		"digital_triggers", info.DigitalTriggers, "adaptive_triggers", info.AdaptiveTriggers)
	return p
}

func (p *Pad) addTrigger(side trigger.Side, soft, full button.ID, info device.Info) {
	s := p.s
	stage := trigger.NewStage(trigger.Config{
		Side:        side,
		DigitalOnly: info.DigitalTriggers,
		Adaptive:    info.AdaptiveTriggers,
	}, s.machine(soft), s.machine(full), s, s, s.faults)
	p.triggers = append(p.triggers, padTrigger{index: s.bank.Add(stage), side: side, soft: soft})
}

// Name returns the device name.
func (p *Pad) Name() string {
	return p.name
}

// Inputs returns the inputs this pad owns: its buttons, then the soft
// pull of each trigger.
func (p *Pad) Inputs() []button.ID {
	out := append([]button.ID(nil), p.buttons...)
	for _, tr := range p.triggers {
		out = append(out, tr.soft)
	}
	return out
}

// Tick delivers one sample. The session lock is held for the whole tick;
// the returned actions are published by the caller after it is released.
func (p *Pad) Tick(t time.Time, smp device.Sample) Result {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range p.buttons {
		// Settings are resolved before this button changes the chord stack.
		settings := s.table.ButtonSettings(s.stack)
		s.dispatch.Begin(t, settings)
		ev := button.Event{Time: t, Settings: settings}
		if smp.Buttons.Has(id) {
			p.machines[i].Pressed(ev)
			s.stack.Push(id)
		} else {
			p.machines[i].Released(ev)
			s.stack.Remove(id)
		}
	}

	for _, tr := range p.triggers {
		settings := s.table.ButtonSettings(s.stack)
		ts := s.table.TriggerSettings(tr.side, s.stack)
		s.dispatch.Begin(t, settings)

		pos := smp.Left
		if tr.side == trigger.Right {
			pos = smp.Right
		}
		s.bank.Update(tr.index, trigger.Input{
			Time:      t,
			Position:  pos,
			Mode:      ts.Mode,
			Threshold: ts.Threshold,
			SkipDelay: ts.SkipDelay,
			Adaptive:  ts.Adaptive,
			Tick:      s.tick,
			Settings:  settings,
		})

		if s.bank.Stage(tr.index).State() != trigger.NoPress {
			s.stack.Push(tr.soft)
		} else {
			s.stack.Remove(tr.soft)
		}
	}

	return p.collect()
}

// collect drains the tick's actions and the effects and axes of this
// pad's triggers that changed.
func (p *Pad) collect() Result {
	s := p.s
	r := Result{Actions: s.dispatch.Drain()}
	for _, tr := range p.triggers {
		if e, ok := s.effects[tr.side]; ok {
			if last, seen := p.lastEffect[tr.side]; !seen || last != e {
				p.lastEffect[tr.side] = e
				r.Effects = append(r.Effects, EffectUpdate{Side: tr.side, Effect: e})
			}
		}
	}
	for _, tr := range p.triggers {
		if pos, ok := s.axes[tr.side]; ok {
			if last, seen := p.lastAxis[tr.side]; !seen || last != pos {
				p.lastAxis[tr.side] = pos
				r.Axes = append(r.Axes, AxisUpdate{Side: tr.side, Position: pos})
			}
		}
	}
	return r
}

package button

import "time"

// Machine classifies one logical input. It is not safe for concurrent use;
// the owner serializes every call for a tick under one lock.
type Machine struct {
	id        ID
	state     State
	pressTime time.Time
	mapping   *Mapping
	combo     *ComboMap // active combo while in a sim state
	reg       *Registry
	sink      ActionSink
	faults    FaultLog
	fx        []effect
}

// ID returns the input this machine classifies.
func (m *Machine) ID() ID {
	return m.id
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Mapping returns the current binding. It is never nil.
func (m *Machine) Mapping() *Mapping {
	return m.mapping
}

// SetMapping swaps the binding. The state and press time are kept; the
// next transition applies the new actions.
func (m *Machine) SetMapping(mp *Mapping) {
	if mp == nil {
		mp = &Mapping{ID: m.id}
	}
	m.mapping = mp
}

// ActiveCombo returns the combo being played, or nil outside sim states.
func (m *Machine) ActiveCombo() *ComboMap {
	return m.combo
}

// Duration returns the time elapsed since the recorded press time.
func (m *Machine) Duration(now time.Time) time.Duration {
	return now.Sub(m.pressTime)
}

// SetPressTime seeds the press timer without delivering an event.
func (m *Machine) SetPressTime(t time.Time) {
	m.pressTime = t
}

// Pressed delivers a sample in which the input is down.
func (m *Machine) Pressed(e Event) {
	m.handle(evPressed, e, nil)
}

// Released delivers a sample in which the input is up.
func (m *Machine) Released(e Event) {
	m.handle(evReleased, e, nil)
}

// Reset forces the machine to NoPress without applying any action.
func (m *Machine) Reset() {
	m.state = NoPress
	m.combo = nil
}

// simultaneous is the partner notification. It runs inside the caller's
// step, on the same goroutine, and never notifies back. carried is the
// notifier's ComboMap, used when this side has no binding toward it.
func (m *Machine) simultaneous(from ID, carried *ComboMap, pressed bool, t time.Time) {
	k := evSimReleased
	if pressed {
		k = evSimPressed
	}
	c := m.comboWith(from)
	if c == nil {
		c = carried
	}
	m.handle(k, Event{Time: t}, c)
}

func (m *Machine) handle(k kind, e Event, simCombo *ComboMap) {
	in := input{
		kind:      k,
		elapsed:   m.Duration(e.Time),
		hold:      e.Settings.Hold,
		simWindow: m.reg.simWindow,
		tap:       tapDuration(m.mapping.TapDuration),
		hasCombos: len(m.mapping.Combos) > 0,
		hasHold:   m.mapping.HasHold(),
	}
	if in.hold <= 0 {
		in.hold = DefaultHold
	}

	switch m.state {
	case WaitSim, SimPress, WaitSimHold, SimHold:
		if k == evPressed || k == evReleased {
			var p *Machine
			p, in.combo = m.reg.Match(m)
			in.partner = p != nil
		}
	case SimTapRelease:
		in.combo = m.combo
		in.tap = tapDuration(m.combo.tapOverride())
	}
	if simCombo != nil {
		in.combo = simCombo
	}

	next, fx := transition(m.state, in, m.fx[:0])
	m.state = next
	m.fx = fx

	for i := range fx {
		m.apply(&fx[i], e.Time)
	}
}

func (m *Machine) apply(f *effect, t time.Time) {
	switch f.kind {
	case fxPress:
		m.sink.ApplyPress(m.id, f.tap, f.combo)
	case fxRelease:
		m.sink.ApplyRelease(m.id, f.tap, f.combo)
	case fxHold:
		m.sink.ApplyHold(m.id, f.combo)
	case fxStamp:
		m.pressTime = t
	case fxBind:
		m.combo = f.combo
	case fxUnbind:
		m.combo = nil
	case fxNotify:
		if f.combo == nil {
			return
		}
		if p := m.reg.Machine(f.combo.Partner); p != nil {
			p.simultaneous(m.id, f.combo, f.pressed, t)
		}
	case fxFault:
		if m.faults != nil {
			m.faults.Fault(m.id, f.msg)
		}
	}
}

// comboWith returns this machine's ComboMap whose partner is id.
func (m *Machine) comboWith(id ID) *ComboMap {
	for i := range m.mapping.Combos {
		if m.mapping.Combos[i].Partner == id {
			return &m.mapping.Combos[i]
		}
	}
	return nil
}

func (c *ComboMap) tapOverride() time.Duration {
	if c == nil {
		return 0
	}
	return c.TapDuration
}

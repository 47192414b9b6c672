package button

import "time"

// Registry owns the machines of one controller session and resolves
// simultaneous-press partners between them.
type Registry struct {
	machines  [numIDs]*Machine
	simWindow time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithSimWindow overrides DefaultSimWindow.
func WithSimWindow(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.simWindow = d
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{simWindow: DefaultSimWindow}
	for _, o := range opts {
		o(r)
	}
	return r
}

// New creates the machine for id and registers it, replacing any previous
// machine for the same id. Invalid ids return nil.
func (r *Registry) New(id ID, sink ActionSink, faults FaultLog) *Machine {
	if !id.Valid() || id == None {
		return nil
	}
	m := &Machine{
		id:      id,
		reg:     r,
		sink:    sink,
		faults:  faults,
		mapping: &Mapping{ID: id},
		fx:      make([]effect, 0, 8),
	}
	r.machines[id] = m
	return m
}

// Machine returns the machine for id, or nil if none is registered.
func (r *Registry) Machine(id ID) *Machine {
	if !id.Valid() {
		return nil
	}
	return r.machines[id]
}

// Machines returns the registered machines in ID order.
func (r *Registry) Machines() []*Machine {
	var ms []*Machine
	for _, m := range r.machines {
		if m != nil {
			ms = append(ms, m)
		}
	}
	return ms
}

// SimWindow returns the WaitSim grace window.
func (r *Registry) SimWindow() time.Duration {
	return r.simWindow
}

// Match scans m's ComboMaps in declaration order and returns the first
// partner whose machine is in the same state as m, with the ComboMap that
// matched. There is no arbitration between overlapping combos: the first
// declared match wins.
func (r *Registry) Match(m *Machine) (*Machine, *ComboMap) {
	for i := range m.mapping.Combos {
		c := &m.mapping.Combos[i]
		if c.Partner == m.id {
			continue
		}
		p := r.Machine(c.Partner)
		if p != nil && p.state == m.state {
			return p, c
		}
	}
	return nil, nil
}

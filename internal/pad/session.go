// Package pad runs the per-tick processing of a controller: it delivers
// samples to the button machines and trigger stages under one lock and
// collects the resulting actions and haptic effects.
package pad

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/padshift/internal/action"
	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/chord"
	"github.com/sweeney/padshift/internal/trigger"
)

// DefaultTick is the poll interval assumed for effect ramps.
const DefaultTick = 10 * time.Millisecond

// Session is the state shared by the halves of one controller: the chord
// context, the machines and the trigger stages. Every access happens under
// mu, held for a whole tick.
type Session struct {
	mu       sync.Mutex
	stack    *chord.Stack
	table    *chord.Table
	reg      *button.Registry
	bank     *trigger.Bank
	dispatch *action.Dispatcher
	faults   *faultLog
	log      *zap.SugaredLogger
	tick     time.Duration
	mappings map[button.ID]*button.Mapping
	owned    button.Set // inputs claimed by a pad

	// Written by the trigger stages during a tick.
	effects map[trigger.Side]trigger.Effect
	axes    map[trigger.Side]float64
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	tick      time.Duration
	simWindow time.Duration
}

// WithTick sets the poll interval.
func WithTick(d time.Duration) Option {
	return func(c *sessionConfig) { c.tick = d }
}

// WithSimWindow overrides the simultaneous press grace window.
func WithSimWindow(d time.Duration) Option {
	return func(c *sessionConfig) { c.simWindow = d }
}

// NewSession creates a session with default settings and no bindings.
func NewSession(logger *zap.SugaredLogger, opts ...Option) *Session {
	cfg := sessionConfig{tick: DefaultTick}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tick <= 0 {
		cfg.tick = DefaultTick
	}

	reg := button.NewRegistry(button.WithSimWindow(cfg.simWindow))
	faults := &faultLog{log: logger}
	return &Session{
		stack:    chord.NewStack(),
		table:    chord.NewTable(),
		reg:      reg,
		bank:     trigger.NewBank(faults),
		dispatch: action.NewDispatcher(reg),
		faults:   faults,
		log:      logger,
		tick:     cfg.tick,
		effects:  make(map[trigger.Side]trigger.Effect),
		axes:     make(map[trigger.Side]float64),
	}
}

// Rebind swaps every mapping and the settings table. Machines keep their
// state; a nil table keeps the current settings.
func (s *Session) Rebind(mappings map[button.ID]*button.Mapping, table *chord.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings = mappings
	for _, m := range s.reg.Machines() {
		m.SetMapping(mappings[m.ID()])
	}
	if table != nil {
		s.table = table
	}
	s.log.Infow("bindings applied", "mappings", len(mappings))
}

// machine returns the machine for id, creating it on first use.
func (s *Session) machine(id button.ID) *button.Machine {
	if m := s.reg.Machine(id); m != nil {
		return m
	}
	m := s.reg.New(id, s.dispatch, s.faults)
	m.SetMapping(s.mappings[id])
	return m
}

// SetEffect implements trigger.HapticSink.
func (s *Session) SetEffect(side trigger.Side, e trigger.Effect) {
	s.effects[side] = e
}

// SetAxis implements trigger.AxisSink.
func (s *Session) SetAxis(side trigger.Side, position float64) {
	s.axes[side] = position
}

// Snapshot is a point-in-time view of a session for status consumers.
type Snapshot struct {
	Buttons  map[string]string
	Triggers map[string]string
	Chords   []string
	Active   []string
	Counts   action.Counts
	Faults   int
}

// Snapshot returns the current machine states.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Buttons:  make(map[string]string),
		Triggers: make(map[string]string),
		Active:   s.dispatch.Active(),
		Counts:   s.dispatch.Counts(),
		Faults:   s.faults.count,
	}
	for _, m := range s.reg.Machines() {
		snap.Buttons[m.ID().String()] = m.State().String()
	}
	for i := 0; i < s.bank.Len(); i++ {
		st := s.bank.Stage(i)
		snap.Triggers[st.Config().Side.String()] = st.State().String()
	}
	for _, l := range s.stack.Layers() {
		if l != button.None {
			snap.Chords = append(snap.Chords, l.String())
		}
	}
	return snap
}

// faultLog implements button.FaultLog. It is only called under the
// session lock.
type faultLog struct {
	log   *zap.SugaredLogger
	count int
}

func (f *faultLog) Fault(id button.ID, msg string) {
	f.count++
	f.log.Warnw("input fault", "button", id.String(), "msg", msg)
}

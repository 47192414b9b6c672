// Package action turns button machine actions into binding events for the
// downstream renderer.
package action

import (
	"sort"
	"time"

	"github.com/sweeney/padshift/internal/button"
)

// Kind is what happened to a binding.
type Kind string

const (
	KindPress      Kind = "PRESS"
	KindRelease    Kind = "RELEASE"
	KindHold       Kind = "HOLD"
	KindTapPress   Kind = "TAP_PRESS"
	KindTapRelease Kind = "TAP_RELEASE"
)

// Event is one binding change. Turbo and double-press synthesis belong to
// the renderer; the resolved values travel with the event.
type Event struct {
	Time     time.Time
	Button   button.ID
	Combo    string // combo name, empty for the button's own binding
	Binding  string
	Kind     Kind
	Settings button.Settings
}

// Counts tracks the number of events of each kind since startup.
type Counts struct {
	Press      int
	Release    int
	Hold       int
	TapPress   int
	TapRelease int
}

// Dispatcher implements button.ActionSink. Events are queued while the
// tick lock is held and drained afterwards.
type Dispatcher struct {
	reg      *button.Registry
	now      time.Time
	settings button.Settings
	queue    []Event
	active   map[string]string // binding key -> binding name
	counts   Counts
}

// NewDispatcher creates a dispatcher that looks bindings up in reg.
func NewDispatcher(reg *button.Registry) *Dispatcher {
	return &Dispatcher{
		reg:    reg,
		active: make(map[string]string),
	}
}

// Begin sets the time and settings stamped on events until the next call.
func (d *Dispatcher) Begin(t time.Time, s button.Settings) {
	d.now = t
	d.settings = s
}

// ApplyPress implements button.ActionSink.
func (d *Dispatcher) ApplyPress(id button.ID, tap bool, combo *button.ComboMap) {
	binding := d.pressBinding(id, combo)
	if binding == "" {
		return
	}
	kind := KindPress
	if tap {
		kind = KindTapPress
	}
	d.active[key(id, combo)] = binding
	d.emit(id, combo, binding, kind)
}

// ApplyRelease implements button.ActionSink. The release names the binding
// that was actually pressed or held.
func (d *Dispatcher) ApplyRelease(id button.ID, tap bool, combo *button.ComboMap) {
	k := key(id, combo)
	binding, ok := d.active[k]
	if !ok {
		return
	}
	delete(d.active, k)
	kind := KindRelease
	if tap {
		kind = KindTapRelease
	}
	d.emit(id, combo, binding, kind)
}

// ApplyHold implements button.ActionSink.
func (d *Dispatcher) ApplyHold(id button.ID, combo *button.ComboMap) {
	var binding string
	if combo != nil {
		binding = combo.Hold
	} else if m := d.reg.Machine(id); m != nil {
		binding = m.Mapping().Hold
	}
	if binding == "" {
		return
	}
	d.active[key(id, combo)] = binding
	d.emit(id, combo, binding, KindHold)
}

// Drain returns and clears the queued events.
func (d *Dispatcher) Drain() []Event {
	out := d.queue
	d.queue = nil
	return out
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Counts returns the event counts.
func (d *Dispatcher) Counts() Counts {
	return d.counts
}

// Active returns the currently held binding names, sorted.
func (d *Dispatcher) Active() []string {
	out := make([]string, 0, len(d.active))
	for _, b := range d.active {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func (d *Dispatcher) pressBinding(id button.ID, combo *button.ComboMap) string {
	if combo != nil {
		return combo.Press
	}
	if m := d.reg.Machine(id); m != nil {
		return m.Mapping().Press
	}
	return ""
}

func (d *Dispatcher) emit(id button.ID, combo *button.ComboMap, binding string, kind Kind) {
	e := Event{
		Time:     d.now,
		Button:   id,
		Binding:  binding,
		Kind:     kind,
		Settings: d.settings,
	}
	if combo != nil {
		e.Combo = combo.Name
	}
	d.queue = append(d.queue, e)

	switch kind {
	case KindPress:
		d.counts.Press++
	case KindRelease:
		d.counts.Release++
	case KindHold:
		d.counts.Hold++
	case KindTapPress:
		d.counts.TapPress++
	case KindTapRelease:
		d.counts.TapRelease++
	}
}

// key identifies a held binding. Both sides of a combo share one key.
func key(id button.ID, combo *button.ComboMap) string {
	if combo != nil {
		return "combo:" + combo.Name
	}
	return "btn:" + id.String()
}

package action

import (
	"reflect"
	"testing"
	"time"

	"github.com/sweeney/padshift/internal/button"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Dispatcher, *button.Registry) {
	t.Helper()
	reg := button.NewRegistry()
	d := NewDispatcher(reg)
	reg.New(button.S, d, nil).SetMapping(&button.Mapping{ID: button.S, Press: "JUMP", Hold: "CROUCH"})
	reg.New(button.E, d, nil).SetMapping(&button.Mapping{ID: button.E, Press: "RELOAD"})
	return d, reg
}

func kinds(events []Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, string(e.Kind)+" "+e.Binding)
	}
	return out
}

func TestPressRelease(t *testing.T) {
	d, reg := setup(t)
	settings := button.Settings{Turbo: 80 * time.Millisecond, Hold: 150 * time.Millisecond}

	d.Begin(t0, settings)
	reg.Machine(button.E).Pressed(button.Event{Time: t0, Settings: settings})

	events := d.Drain()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Kind != KindPress || e.Binding != "RELOAD" || e.Button != button.E || e.Combo != "" {
		t.Errorf("unexpected event %+v", e)
	}
	if !e.Time.Equal(t0) || e.Settings != settings {
		t.Errorf("event should carry time and settings, got %+v", e)
	}
	if got := d.Active(); !reflect.DeepEqual(got, []string{"RELOAD"}) {
		t.Errorf("expected RELOAD active, got %v", got)
	}

	d.Begin(t0.Add(time.Second), settings)
	reg.Machine(button.E).Released(button.Event{Time: t0.Add(time.Second), Settings: settings})
	events = d.Drain()
	if got := kinds(events); !reflect.DeepEqual(got, []string{"RELEASE RELOAD"}) {
		t.Errorf("unexpected events %v", got)
	}
	if len(d.Active()) != 0 {
		t.Errorf("nothing should be active, got %v", d.Active())
	}
	if d.Pending() != 0 {
		t.Error("drain should empty the queue")
	}
}

func TestHoldReleaseNamesHeldBinding(t *testing.T) {
	d, reg := setup(t)
	s := reg.Machine(button.S)
	ev := func(ms int) button.Event {
		return button.Event{Time: t0.Add(time.Duration(ms) * time.Millisecond), Settings: button.Settings{Hold: 150 * time.Millisecond}}
	}

	s.Pressed(ev(0))
	s.Pressed(ev(200))
	s.Released(ev(300))

	want := []string{"HOLD CROUCH", "RELEASE CROUCH"}
	if got := kinds(d.Drain()); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	c := d.Counts()
	if c.Hold != 1 || c.Release != 1 || c.Press != 0 {
		t.Errorf("unexpected counts %+v", c)
	}
}

func TestTapEvents(t *testing.T) {
	d, reg := setup(t)
	s := reg.Machine(button.S)
	ev := func(ms int) button.Event {
		return button.Event{Time: t0.Add(time.Duration(ms) * time.Millisecond), Settings: button.Settings{Hold: 150 * time.Millisecond}}
	}

	s.Pressed(ev(0))
	s.Released(ev(50))
	s.Released(ev(600))

	want := []string{"TAP_PRESS JUMP", "TAP_RELEASE JUMP"}
	if got := kinds(d.Drain()); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestComboEventsShareOneKey(t *testing.T) {
	d, _ := setup(t)
	combo := &button.ComboMap{Partner: button.E, Name: "S+E", Press: "DODGE"}
	partner := &button.ComboMap{Partner: button.S, Name: "S+E", Press: "DODGE"}

	d.ApplyPress(button.S, false, combo)
	// The release may come from the other side of the pair.
	d.ApplyRelease(button.E, false, partner)

	events := d.Drain()
	if got := kinds(events); !reflect.DeepEqual(got, []string{"PRESS DODGE", "RELEASE DODGE"}) {
		t.Fatalf("unexpected events %v", got)
	}
	if events[0].Combo != "S+E" || events[1].Combo != "S+E" {
		t.Errorf("combo name should be set, got %+v", events)
	}
}

func TestUnboundActionsAreDropped(t *testing.T) {
	d, _ := setup(t)

	d.ApplyHold(button.E, nil) // E has no hold binding
	d.ApplyRelease(button.E, false, nil)
	d.ApplyPress(button.N, false, nil) // no machine
	d.ApplyPress(button.S, false, &button.ComboMap{Name: "empty"})

	if n := d.Pending(); n != 0 {
		t.Errorf("expected no events, got %v", d.Drain())
	}
}

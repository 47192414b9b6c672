package pad

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/sweeney/padshift/internal/action"
	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/chord"
	"github.com/sweeney/padshift/internal/device"
	"github.com/sweeney/padshift/internal/logging"
	"github.com/sweeney/padshift/internal/trigger"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func summary(events []action.Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, string(e.Kind)+" "+e.Binding)
	}
	return out
}

func assertActions(t *testing.T, r Result, want ...string) {
	t.Helper()
	got := summary(r.Actions)
	if len(got) != len(want) {
		t.Fatalf("expected actions %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func comboMappings() map[button.ID]*button.Mapping {
	return map[button.ID]*button.Mapping{
		button.Up: {ID: button.Up, Press: "U", Combos: []button.ComboMap{
			{Partner: button.S, Name: "UP+S", Press: "X"},
		}},
		button.S: {ID: button.S, Press: "A", Combos: []button.ComboMap{
			{Partner: button.Up, Name: "UP+S", Press: "X"},
		}},
	}
}

func TestSplitHalvesShareCombos(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	s.Rebind(comboMappings(), nil)

	left := NewPad(s, device.Info{Name: "left", Buttons: []button.ID{button.Up, button.ZL}})
	right := NewPad(s, device.Info{Name: "right", Buttons: []button.ID{button.S, button.E, button.ZR}})

	assertActions(t, left.Tick(at(0), device.Pressed(button.Up)))
	assertActions(t, right.Tick(at(0), device.Pressed(button.S)))

	r := left.Tick(at(10), device.Pressed(button.Up))
	assertActions(t, r, "PRESS X")
	if r.Actions[0].Combo != "UP+S" || r.Actions[0].Button != button.Up {
		t.Errorf("expected combo event from UP, got %+v", r.Actions[0])
	}
	assertActions(t, right.Tick(at(10), device.Pressed(button.S)))

	assertActions(t, left.Tick(at(20), device.Sample{}), "RELEASE X")
	assertActions(t, right.Tick(at(20), device.Sample{}))
	assertActions(t, left.Tick(at(30), device.Sample{}))

	snap := s.Snapshot()
	if snap.Buttons["UP"] != "NoPress" || snap.Buttons["S"] != "NoPress" {
		t.Errorf("expected both sides idle, got %v", snap.Buttons)
	}
	if snap.Counts.Press != 1 || snap.Counts.Release != 1 {
		t.Errorf("unexpected counts %+v", snap.Counts)
	}
}

func TestOverlappingInputsHaveOneOwner(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	s := NewSession(logger)
	s.Rebind(map[button.ID]*button.Mapping{
		button.S: {ID: button.S, Press: "A"},
	}, nil)

	left := NewPad(s, device.Info{Name: "left", Buttons: []button.ID{button.S, button.E}})
	right := NewPad(s, device.Info{Name: "right", Buttons: []button.ID{button.S, button.Up}})

	if got := right.Inputs(); len(got) != 1 || got[0] != button.Up {
		t.Fatalf("expected the right pad to own only UP, got %v", got)
	}
	skipped := logs.FilterMessage("input already owned by another pad, skipped").All()
	if len(skipped) != 1 || skipped[0].ContextMap()["input"] != "S" || skipped[0].ContextMap()["pad"] != "right" {
		t.Errorf("expected one skip warning for S on right, got %d", len(skipped))
	}

	// The owner holds S while the other half reports it up.
	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, summary(left.Tick(at(i*10), device.Pressed(button.S)).Actions)...)
		got = append(got, summary(right.Tick(at(i*10), device.Sample{}).Actions)...)
	}
	if len(got) != 1 || got[0] != "PRESS A" {
		t.Errorf("expected a single PRESS A, got %q", got)
	}
	if st := s.Snapshot().Buttons["S"]; st != "BtnPress" {
		t.Errorf("expected S held, got %s", st)
	}
}

func TestSameSideTriggerHasOneStage(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	s.Rebind(map[button.ID]*button.Mapping{
		button.ZL: {ID: button.ZL, Press: "AIM"},
	}, nil)

	left := NewPad(s, device.Info{Name: "left", Buttons: []button.ID{button.ZL, button.ZLF, button.Up}})
	right := NewPad(s, device.Info{Name: "right", Buttons: []button.ID{button.ZL, button.ZLF, button.S}})

	if s.bank.Len() != 1 {
		t.Fatalf("expected one left trigger stage, got %d", s.bank.Len())
	}
	if got := right.Inputs(); len(got) != 1 || got[0] != button.S {
		t.Errorf("expected the right pad to own only S, got %v", got)
	}

	// The non-owner's trigger position is ignored.
	assertActions(t, left.Tick(at(0), device.Sample{}))
	r := right.Tick(at(0), device.Sample{Left: 0.5})
	assertActions(t, r)
	if len(r.Effects) != 0 {
		t.Errorf("non-owner should not publish effects, got %+v", r.Effects)
	}
	if st := s.Snapshot().Triggers["left"]; st != "NoPress" {
		t.Errorf("expected NoPress, got %s", st)
	}

	assertActions(t, left.Tick(at(10), device.Sample{Left: 0.5}), "PRESS AIM")
	assertActions(t, right.Tick(at(10), device.Sample{}))
}

func TestSplitPassthroughAxisPublishedByOwner(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	table := chord.NewTable()
	if err := table.Set("ZL_MODE", button.None, "X_LT"); err != nil {
		t.Fatal(err)
	}
	s.Rebind(nil, table)
	left := NewPad(s, device.Info{Name: "left", Buttons: []button.ID{button.ZL}})
	right := NewPad(s, device.Info{Name: "right", Buttons: []button.ID{button.ZR}})

	l := left.Tick(at(0), device.Sample{Left: 0.5})
	r := right.Tick(at(0), device.Sample{})
	if len(l.Axes) != 1 || l.Axes[0].Side != trigger.Left || l.Axes[0].Position != 0.5 {
		t.Errorf("expected left axis at 0.5 from the left pad, got %+v", l.Axes)
	}
	if len(r.Axes) != 0 {
		t.Errorf("right pad should not republish the left axis, got %+v", r.Axes)
	}
}

func TestSoloPressFallsBackAfterSimWindow(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	s.Rebind(comboMappings(), nil)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.Up, button.S}})

	assertActions(t, p.Tick(at(0), device.Pressed(button.S)))
	assertActions(t, p.Tick(at(20), device.Pressed(button.S)))
	assertActions(t, p.Tick(at(50), device.Pressed(button.S)), "PRESS A")
	assertActions(t, p.Tick(at(60), device.Sample{}), "RELEASE A")
}

func TestChordOverridesHoldTime(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	table := chord.NewTable()
	if err := table.Set("HOLD_PRESS_TIME", button.W, "300ms"); err != nil {
		t.Fatal(err)
	}
	s.Rebind(map[button.ID]*button.Mapping{
		button.S: {ID: button.S, Press: "A", Hold: "B"},
	}, table)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.W, button.S}})

	// W is a chord layer before S is pressed.
	assertActions(t, p.Tick(at(0), device.Pressed(button.W)))
	assertActions(t, p.Tick(at(10), device.Pressed(button.W, button.S)))
	assertActions(t, p.Tick(at(160), device.Pressed(button.W, button.S)))

	r := p.Tick(at(310), device.Pressed(button.W, button.S))
	assertActions(t, r, "HOLD B")
	if got := r.Actions[0].Settings.Hold; got != 300*time.Millisecond {
		t.Errorf("expected chorded hold time, got %v", got)
	}
	assertActions(t, p.Tick(at(400), device.Sample{}), "RELEASE B")

	// Without the chord the default applies.
	assertActions(t, p.Tick(at(500), device.Pressed(button.S)))
	r = p.Tick(at(650), device.Pressed(button.S))
	assertActions(t, r, "HOLD B")
	if got := r.Actions[0].Settings.Hold; got != button.DefaultHold {
		t.Errorf("expected default hold time, got %v", got)
	}
}

func TestTriggerFromSample(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	s.Rebind(map[button.ID]*button.Mapping{
		button.ZL: {ID: button.ZL, Press: "AIM"},
	}, nil)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.ZL, button.ZLF}})

	r := p.Tick(at(0), device.Sample{})
	assertActions(t, r)
	if len(r.Effects) != 1 || r.Effects[0].Side != trigger.Left {
		t.Fatalf("expected the first effect to be published, got %+v", r.Effects)
	}

	r = p.Tick(at(10), device.Sample{})
	if len(r.Effects) != 0 {
		t.Errorf("unchanged effect should not be republished, got %+v", r.Effects)
	}
	if !r.Empty() {
		t.Error("expected an empty result")
	}

	assertActions(t, p.Tick(at(20), device.Sample{Left: 0.5}), "PRESS AIM")
	snap := s.Snapshot()
	if snap.Triggers["left"] != "SoftPress" {
		t.Errorf("expected SoftPress, got %v", snap.Triggers)
	}
	if len(snap.Chords) != 1 || snap.Chords[0] != "ZL" {
		t.Errorf("expected ZL chord layer, got %v", snap.Chords)
	}

	assertActions(t, p.Tick(at(30), device.Sample{}), "RELEASE AIM")
	if snap := s.Snapshot(); len(snap.Chords) != 0 {
		t.Errorf("expected no chord layers, got %v", snap.Chords)
	}
}

func TestPassthroughPublishesAxis(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	table := chord.NewTable()
	if err := table.Set("ZR_MODE", button.None, "X_RT"); err != nil {
		t.Fatal(err)
	}
	s.Rebind(nil, table)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.ZR}})

	r := p.Tick(at(0), device.Sample{Right: 0.25})
	if len(r.Axes) != 1 || r.Axes[0].Side != trigger.Right || r.Axes[0].Position != 0.25 {
		t.Errorf("expected right axis at 0.25, got %+v", r.Axes)
	}
	r = p.Tick(at(10), device.Sample{Right: 0.25})
	if len(r.Axes) != 0 {
		t.Errorf("unchanged axis should not be republished, got %+v", r.Axes)
	}
}

func TestDesyncIsLoggedAndCounted(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	s := NewSession(logger)
	s.Rebind(comboMappings(), nil)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.Up, button.S}})

	both := device.Pressed(button.Up, button.S)
	p.Tick(at(0), both)
	assertActions(t, p.Tick(at(10), both), "PRESS X")

	// Knock the partner out of step behind the pad's back.
	s.reg.Machine(button.S).Reset()
	p.Tick(at(20), device.Pressed(button.S))
	p.Tick(at(30), device.Sample{})

	warns := logs.FilterMessage("input fault").FilterLevelExact(zapcore.WarnLevel).All()
	if len(warns) == 0 {
		t.Fatal("expected a fault to be logged")
	}
	if got := warns[0].ContextMap()["button"]; got != "UP" {
		t.Errorf("expected fault on UP, got %v", got)
	}
	if snap := s.Snapshot(); snap.Faults != len(warns) {
		t.Errorf("expected %d faults counted, got %d", len(warns), snap.Faults)
	}
}

func TestRebindKeepsState(t *testing.T) {
	s := NewSession(logging.NewTestLogger(t))
	s.Rebind(map[button.ID]*button.Mapping{
		button.S: {ID: button.S, Press: "A"},
	}, nil)
	p := NewPad(s, device.Info{Name: "pad", Buttons: []button.ID{button.S}})

	assertActions(t, p.Tick(at(0), device.Pressed(button.S)), "PRESS A")

	s.Rebind(map[button.ID]*button.Mapping{
		button.S: {ID: button.S, Press: "Z"},
	}, nil)
	if got := s.Snapshot().Buttons["S"]; got != "BtnPress" {
		t.Errorf("expected BtnPress to survive rebind, got %s", got)
	}

	// The release names what was actually pressed.
	assertActions(t, p.Tick(at(10), device.Sample{}), "RELEASE A")
	assertActions(t, p.Tick(at(20), device.Pressed(button.S)), "PRESS Z")
}

package button

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// recorder is an ActionSink and FaultLog that records every call.
type recorder struct {
	calls  []string
	faults []string
}

func (r *recorder) ApplyPress(id ID, tap bool, c *ComboMap) {
	r.calls = append(r.calls, label("press", id, tap, c))
}

func (r *recorder) ApplyRelease(id ID, tap bool, c *ComboMap) {
	r.calls = append(r.calls, label("release", id, tap, c))
}

func (r *recorder) ApplyHold(id ID, c *ComboMap) {
	r.calls = append(r.calls, label("hold", id, false, c))
}

func (r *recorder) Fault(id ID, msg string) {
	r.faults = append(r.faults, id.String()+": "+msg)
}

func label(verb string, id ID, tap bool, c *ComboMap) string {
	if tap {
		verb = "tap-" + verb
	}
	if c != nil {
		return verb + " " + c.Name
	}
	return verb + " " + id.String()
}

// at returns an event ms milliseconds after t0 with a 150ms hold time.
func at(ms int) Event {
	return Event{
		Time:     t0.Add(time.Duration(ms) * time.Millisecond),
		Settings: Settings{Hold: 150 * time.Millisecond, Turbo: 80 * time.Millisecond},
	}
}

func newMachine(t *testing.T, mp Mapping) (*Machine, *recorder) {
	t.Helper()
	rec := &recorder{}
	reg := NewRegistry()
	m := reg.New(mp.ID, rec, rec)
	if m == nil {
		t.Fatalf("Registry.New(%s) returned nil", mp.ID)
	}
	m.SetMapping(&mp)
	return m, rec
}

func assertCalls(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	if len(want) == 0 {
		want = nil
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("expected calls %q, got %q", want, rec.calls)
	}
}

func assertState(t *testing.T, m *Machine, want State) {
	t.Helper()
	if m.State() != want {
		t.Errorf("%s: expected state %s, got %s", m.ID(), want, m.State())
	}
}

func TestSimplePressRelease(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A"})

	m.Pressed(at(0))
	assertState(t, m, BtnPress)
	assertCalls(t, rec, "press S")

	// Re-press while held is idempotent
	m.Pressed(at(10))
	m.Pressed(at(500))
	assertState(t, m, BtnPress)
	assertCalls(t, rec, "press S")

	m.Released(at(510))
	assertState(t, m, NoPress)
	assertCalls(t, rec, "press S", "release S")
}

func TestReleasedInNoPressIsIdempotent(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	for i := 0; i < 5; i++ {
		m.Released(at(i * 10))
	}
	assertState(t, m, NoPress)
	assertCalls(t, rec)
	if len(rec.faults) != 0 {
		t.Errorf("expected no faults, got %v", rec.faults)
	}
}

func TestTapWindow(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	m.Pressed(at(0))
	assertState(t, m, WaitHold)

	m.Released(at(149))
	assertState(t, m, TapRelease)
	assertCalls(t, rec, "tap-press S")

	m.Released(at(149 + 489))
	assertState(t, m, TapRelease)
	assertCalls(t, rec, "tap-press S")

	m.Released(at(149 + 499))
	assertState(t, m, NoPress)
	assertCalls(t, rec, "tap-press S", "tap-release S")
}

func TestTapCutShortByRepress(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	m.Pressed(at(0))
	m.Released(at(50))
	m.Pressed(at(100))
	assertState(t, m, NoPress)
	assertCalls(t, rec, "tap-press S", "tap-release S")

	// The next sample starts a fresh press
	m.Pressed(at(110))
	assertState(t, m, WaitHold)
}

func TestTapDurationOverride(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B", TapDuration: 100 * time.Millisecond})

	m.Pressed(at(0))
	m.Released(at(20))
	m.Released(at(20 + 80))
	assertState(t, m, TapRelease)

	m.Released(at(20 + 90))
	assertState(t, m, NoPress)
	assertCalls(t, rec, "tap-press S", "tap-release S")
}

func TestHoldFiresOnce(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	m.Pressed(at(0))
	m.Pressed(at(100))
	assertState(t, m, WaitHold)
	assertCalls(t, rec)

	m.Pressed(at(150))
	assertState(t, m, HoldPress)
	assertCalls(t, rec, "hold S")

	for ms := 160; ms < 1000; ms += 10 {
		m.Pressed(at(ms))
	}
	assertCalls(t, rec, "hold S")

	m.Released(at(1000))
	m.Released(at(1010))
	assertState(t, m, NoPress)
	assertCalls(t, rec, "hold S", "release S")
}

func TestHoldUsesEventSettings(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	e := at(0)
	m.Pressed(e)
	e = at(60)
	e.Settings.Hold = 60 * time.Millisecond
	m.Pressed(e)
	assertState(t, m, HoldPress)
	assertCalls(t, rec, "hold S")
}

func TestDefaultHoldWhenUnset(t *testing.T) {
	m, _ := newMachine(t, Mapping{ID: S, Press: "A", Hold: "B"})

	m.Pressed(Event{Time: t0})
	m.Pressed(Event{Time: t0.Add(DefaultHold - time.Millisecond)})
	assertState(t, m, WaitHold)
	m.Pressed(Event{Time: t0.Add(DefaultHold)})
	assertState(t, m, HoldPress)
}

func TestRebindKeepsState(t *testing.T) {
	m, rec := newMachine(t, Mapping{ID: S, Press: "A"})

	m.Pressed(at(0))
	m.SetMapping(&Mapping{ID: S, Press: "C", Hold: "D"})
	assertState(t, m, BtnPress)
	if m.Mapping().Press != "C" {
		t.Errorf("expected new mapping, got %+v", m.Mapping())
	}

	m.Released(at(100))
	assertCalls(t, rec, "press S", "release S")

	m.SetMapping(nil)
	if m.Mapping() == nil || m.Mapping().ID != S {
		t.Errorf("nil mapping should become an empty binding, got %+v", m.Mapping())
	}
}

func TestDurationAndSetPressTime(t *testing.T) {
	m, _ := newMachine(t, Mapping{ID: ZL})

	m.SetPressTime(t0)
	if got := m.Duration(t0.Add(42 * time.Millisecond)); got != 42*time.Millisecond {
		t.Errorf("expected 42ms, got %v", got)
	}
	if m.State() != NoPress {
		t.Errorf("SetPressTime must not change state, got %s", m.State())
	}
}

func TestTransitionTableNoAction(t *testing.T) {
	tests := []struct {
		name  string
		state State
		in    input
		want  State
	}{
		{"released in NoPress", NoPress, input{kind: evReleased}, NoPress},
		{"sim event in NoPress", NoPress, input{kind: evSimPressed}, NoPress},
		{"pressed in SimRelease", SimRelease, input{kind: evPressed}, SimRelease},
		{"pressed in SimPress", SimPress, input{kind: evPressed}, SimPress},
		{"pressed in SimHold", SimHold, input{kind: evPressed}, SimHold},
		{"waiting in WaitSim", WaitSim, input{kind: evPressed, elapsed: 10 * time.Millisecond, simWindow: DefaultSimWindow}, WaitSim},
		{"waiting in WaitHold", WaitHold, input{kind: evPressed, elapsed: 10 * time.Millisecond, hold: DefaultHold}, WaitHold},
		{"sim without combo in WaitSim", WaitSim, input{kind: evSimPressed}, WaitSim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fx := transition(tt.state, tt.in, nil)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if len(fx) != 0 {
				t.Errorf("expected no effects, got %+v", fx)
			}
		})
	}
}

func TestTransitionInvalidStateFaults(t *testing.T) {
	got, fx := transition(numStates, input{kind: evPressed}, nil)
	if got != NoPress {
		t.Errorf("expected NoPress, got %s", got)
	}
	if len(fx) == 0 || fx[0].kind != fxFault {
		t.Fatalf("expected a fault effect, got %+v", fx)
	}
	if !strings.Contains(fx[0].msg, "Invalid") {
		t.Errorf("fault message should name the state, got %q", fx[0].msg)
	}
}

func TestStateString(t *testing.T) {
	if SimTapRelease.String() != "SimTapRelease" {
		t.Errorf("unexpected name %q", SimTapRelease.String())
	}
	if State(200).String() != "Invalid" {
		t.Errorf("unexpected name %q", State(200).String())
	}
}

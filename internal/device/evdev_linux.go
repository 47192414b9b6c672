//go:build linux

package device

import (
	"fmt"

	"github.com/holoplot/go-evdev"

	"github.com/sweeney/padshift/internal/button"
)

// keyMap maps Linux gamepad key codes to inputs. Face buttons follow
// compass names: SOUTH is S, EAST is E.
var keyMap = map[evdev.EvCode]button.ID{
	evdev.BTN_SOUTH:      button.S,
	evdev.BTN_EAST:       button.E,
	evdev.BTN_NORTH:      button.N,
	evdev.BTN_WEST:       button.W,
	evdev.BTN_TL:         button.L,
	evdev.BTN_TR:         button.R,
	evdev.BTN_TL2:        button.ZL,
	evdev.BTN_TR2:        button.ZR,
	evdev.BTN_SELECT:     button.Minus,
	evdev.BTN_START:      button.Plus,
	evdev.BTN_MODE:       button.Home,
	evdev.BTN_THUMBL:     button.L3,
	evdev.BTN_THUMBR:     button.R3,
	evdev.BTN_DPAD_UP:    button.Up,
	evdev.BTN_DPAD_DOWN:  button.Down,
	evdev.BTN_DPAD_LEFT:  button.Left,
	evdev.BTN_DPAD_RIGHT: button.Right,
}

// EvdevReader polls a gamepad event device. Key and axis state are read
// with ioctls on every Read, so no event stream is consumed.
type EvdevReader struct {
	dev      *evdev.InputDevice
	name     string
	analog   bool // has ABS_Z / ABS_RZ trigger axes
	adaptive bool
	inputs   []button.ID
}

// NewEvdevReader opens the event device at path, e.g. /dev/input/event5.
// adaptive marks controllers whose triggers render resistance effects.
func NewEvdevReader(path string, adaptive bool) (*EvdevReader, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	name, err := dev.Name()
	if err != nil {
		name = path
	}

	r := &EvdevReader{dev: dev, name: name, adaptive: adaptive}
	var hatX, hatY bool
	if abs, err := dev.AbsInfos(); err == nil {
		_, z := abs[evdev.ABS_Z]
		_, rz := abs[evdev.ABS_RZ]
		r.analog = z && rz
		_, hatX = abs[evdev.ABS_HAT0X]
		_, hatY = abs[evdev.ABS_HAT0Y]
	}
	r.inputs = capableInputs(dev.CapableEvents(evdev.EV_KEY), hatX, hatY, r.analog)
	return r, nil
}

// capableInputs lists the inputs a device can report, from its EV_KEY
// codes, its d-pad hat axes and its analog trigger axes.
func capableInputs(keys []evdev.EvCode, hatX, hatY, analog bool) []button.ID {
	var set button.Set
	for _, code := range keys {
		if id, ok := keyMap[code]; ok {
			set = set.With(id)
		}
	}
	if hatX {
		set = set.With(button.Left).With(button.Right)
	}
	if hatY {
		set = set.With(button.Up).With(button.Down)
	}
	if analog {
		set = set.With(button.ZL).With(button.ZR)
	}

	var ids []button.ID
	for _, id := range button.All() {
		if set.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Read returns the current key and trigger state.
func (r *EvdevReader) Read() (Sample, error) {
	keys, err := r.dev.State(evdev.EV_KEY)
	if err != nil {
		return Sample{}, fmt.Errorf("read key state: %w", err)
	}

	var s Sample
	for code, down := range keys {
		if !down {
			continue
		}
		if id, ok := keyMap[code]; ok {
			s.Buttons = s.Buttons.With(id)
		}
	}

	abs, err := r.dev.AbsInfos()
	if err != nil {
		return Sample{}, fmt.Errorf("read axis state: %w", err)
	}

	// Hat switches report the d-pad on some controllers.
	if hat, ok := abs[evdev.ABS_HAT0X]; ok {
		switch {
		case hat.Value < 0:
			s.Buttons = s.Buttons.With(button.Left)
		case hat.Value > 0:
			s.Buttons = s.Buttons.With(button.Right)
		}
	}
	if hat, ok := abs[evdev.ABS_HAT0Y]; ok {
		switch {
		case hat.Value < 0:
			s.Buttons = s.Buttons.With(button.Up)
		case hat.Value > 0:
			s.Buttons = s.Buttons.With(button.Down)
		}
	}

	if r.analog {
		s.Left = normalize(abs[evdev.ABS_Z])
		s.Right = normalize(abs[evdev.ABS_RZ])
	} else {
		s.Left = digital(s.Buttons.Has(button.ZL))
		s.Right = digital(s.Buttons.Has(button.ZR))
	}
	// Trigger buttons are driven by the dual-stage controller, not the
	// key state.
	s.Buttons = s.Buttons.Without(button.ZL).Without(button.ZR)
	return s, nil
}

// Info describes the gamepad. Buttons holds only the inputs the device
// reports capability for.
func (r *EvdevReader) Info() Info {
	return Info{
		Name:             r.name,
		DigitalTriggers:  !r.analog,
		AdaptiveTriggers: r.adaptive && r.analog,
		Buttons:          append([]button.ID(nil), r.inputs...),
	}
}

// Close releases the device.
func (r *EvdevReader) Close() error {
	if err := r.dev.Close(); err != nil {
		return fmt.Errorf("close %s: %w", r.name, err)
	}
	return nil
}

func normalize(a evdev.AbsInfo) float64 {
	span := float64(a.Maximum) - float64(a.Minimum)
	if span <= 0 {
		return 0
	}
	return clamp01((float64(a.Value) - float64(a.Minimum)) / span)
}

// Package device provides controller input reading with hardware abstraction.
// The real implementations use Linux evdev gamepads or GPIO character
// device lines. The fake implementation allows testing without hardware.
package device

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sweeney/padshift/internal/button"
)

// Sample is one poll of a controller.
type Sample struct {
	Buttons button.Set
	// Trigger positions, 0 released to 1 fully pulled.
	Left  float64
	Right float64
}

// Info describes what a controller can report.
type Info struct {
	Name string
	// DigitalTriggers is set when the triggers are plain switches.
	DigitalTriggers bool
	// AdaptiveTriggers is set when the triggers render resistance effects.
	AdaptiveTriggers bool
	// Buttons lists the inputs the controller can report.
	Buttons []button.ID
}

// Reader reads controller samples.
type Reader interface {
	// Read returns the current state of every input.
	Read() (Sample, error)

	// Info describes the controller.
	Info() Info

	// Close releases device resources.
	Close() error
}

// ParsePins parses a GPIO pin map such as "S=17,E=27,ZL=22". Names are
// button IDs, values are line offsets on the chip.
func ParsePins(s string) (map[button.ID]int, error) {
	pins := make(map[button.ID]int)
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty pin map")
	}
	used := make(map[int]button.ID)
	for _, part := range strings.Split(s, ",") {
		name, offset, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("pin %q: expected NAME=OFFSET", part)
		}
		id, err := button.ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", part, err)
		}
		if id == button.None {
			return nil, fmt.Errorf("pin %q: NONE cannot be wired", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(offset))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("pin %q: invalid offset", part)
		}
		if _, dup := pins[id]; dup {
			return nil, fmt.Errorf("pin %q: %s wired twice", part, id)
		}
		if other, dup := used[n]; dup {
			return nil, fmt.Errorf("pin %q: offset %d already used by %s", part, n, other)
		}
		pins[id] = n
		used[n] = id
	}
	return pins, nil
}

// sortedIDs returns the keys of pins in ID order.
func sortedIDs(pins map[button.ID]int) []button.ID {
	ids := make([]button.ID, 0, len(pins))
	for id := range pins {
		ids = append(ids, id)
	}
	return sortIDs(ids)
}

func sortIDs(ids []button.ID) []button.ID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func digital(pressed bool) float64 {
	if pressed {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

//go:build linux

package device

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"

	"github.com/sweeney/padshift/internal/button"
)

// GPIOReader reads arcade-style buttons wired to GPIO lines. Buttons short
// the line to ground, so lines are requested active-low with pull-up.
type GPIOReader struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	ids    []button.ID
	values []int
}

// NewGPIOReader requests one input line per button on the named chip.
func NewGPIOReader(chipName string, pins map[button.ID]int) (*GPIOReader, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("no gpio pins configured")
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	ids := sortedIDs(pins)
	offsets := make([]int, len(ids))
	for i, id := range ids {
		offsets[i] = pins[id]
	}

	lines, err := chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lines %v: %w", offsets, err)
	}

	return &GPIOReader{
		chip:   chip,
		lines:  lines,
		ids:    ids,
		values: make([]int, len(ids)),
	}, nil
}

// Read returns the pressed buttons. GPIO pads have no analog triggers, so
// ZL and ZR report fully pulled while pressed.
func (r *GPIOReader) Read() (Sample, error) {
	if err := r.lines.Values(r.values); err != nil {
		return Sample{}, fmt.Errorf("read gpio lines: %w", err)
	}

	var s Sample
	for i, id := range r.ids {
		if r.values[i] == 0 {
			continue
		}
		s.Buttons = s.Buttons.With(id)
		switch id {
		case button.ZL:
			s.Left = 1
		case button.ZR:
			s.Right = 1
		}
	}
	return s, nil
}

// Info describes the pad.
func (r *GPIOReader) Info() Info {
	return Info{
		Name:            "gpio:" + r.chip.Name,
		DigitalTriggers: true,
		Buttons:         r.ids,
	}
}

// Close releases GPIO resources.
// Lines are reconfigured to plain inputs with pull-down (matching Pi boot
// defaults) before closing.
func (r *GPIOReader) Close() error {
	var err error
	if r.lines != nil {
		if rerr := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("reconfigure lines: %w", rerr))
		}
		if cerr := r.lines.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close lines: %w", cerr))
		}
	}
	if r.chip != nil {
		if cerr := r.chip.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close chip: %w", cerr))
		}
	}
	return err
}

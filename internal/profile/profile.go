// Package profile loads binding profiles: what each button and combo does,
// and the settings table with its chord overrides.
//
// A profile is YAML:
//
//	buttons:
//	  S: {press: JUMP, hold: SPRINT, tap: 300ms}
//	combos:
//	  - buttons: [UP, S]
//	    name: DASH
//	    press: DASH
//	settings:
//	  HOLD_PRESS_TIME: 200ms
//	chords:
//	  W:
//	    ZR_MODE: MUST_SKIP
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/padshift/internal/button"
	"github.com/sweeney/padshift/internal/chord"
)

// Profile is a parsed binding profile, ready for Session.Rebind.
type Profile struct {
	Mappings map[button.ID]*button.Mapping
	Table    *chord.Table
}

type bindingDoc struct {
	Press string `yaml:"press"`
	Hold  string `yaml:"hold"`
	Tap   string `yaml:"tap"`
}

type comboDoc struct {
	Buttons []string `yaml:"buttons"`
	Name    string   `yaml:"name"`
	Press   string   `yaml:"press"`
	Hold    string   `yaml:"hold"`
	Tap     string   `yaml:"tap"`
}

type document struct {
	Buttons  map[string]bindingDoc       `yaml:"buttons"`
	Combos   []comboDoc                  `yaml:"combos"`
	Settings map[string]string           `yaml:"settings"`
	Chords   map[string]map[string]string `yaml:"chords"`
}

// Load reads and parses the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse parses a profile. Every invalid entry is reported; use
// multierr.Errors to list them.
func Parse(data []byte) (*Profile, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	p := &Profile{
		Mappings: make(map[button.ID]*button.Mapping),
		Table:    chord.NewTable(),
	}
	var errs error

	for _, name := range sortedKeys(doc.Buttons) {
		b := doc.Buttons[name]
		id, err := parseButton(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		tap, err := parseTap(b.Tap)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("button %s: %w", name, err))
			continue
		}
		m := p.mapping(id)
		m.Press = b.Press
		m.Hold = b.Hold
		m.TapDuration = tap
	}

	seen := make(map[[2]button.ID]bool)
	for i, c := range doc.Combos {
		if err := p.addCombo(c, seen); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("combo %d: %w", i+1, err))
		}
	}

	for _, name := range sortedKeys(doc.Settings) {
		errs = multierr.Append(errs, p.Table.Set(name, button.None, doc.Settings[name]))
	}
	for _, c := range sortedKeys(doc.Chords) {
		id, err := parseButton(c)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("chord: %w", err))
			continue
		}
		overrides := doc.Chords[c]
		for _, name := range sortedKeys(overrides) {
			if err := p.Table.Set(name, id, overrides[name]); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("chord %s: %w", c, err))
			}
		}
	}

	if errs != nil {
		return nil, errs
	}
	return p, nil
}

// addCombo adds a ComboMap to both sides. The pair is recorded so the same
// two buttons cannot be bound twice.
func (p *Profile) addCombo(c comboDoc, seen map[[2]button.ID]bool) error {
	if len(c.Buttons) != 2 {
		return fmt.Errorf("expected 2 buttons, got %d", len(c.Buttons))
	}
	a, err := parseButton(c.Buttons[0])
	if err != nil {
		return err
	}
	b, err := parseButton(c.Buttons[1])
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%s cannot combo with itself", a)
	}
	key := [2]button.ID{a, b}
	if b < a {
		key = [2]button.ID{b, a}
	}
	if seen[key] {
		return fmt.Errorf("%s+%s bound twice", key[0], key[1])
	}
	seen[key] = true

	tap, err := parseTap(c.Tap)
	if err != nil {
		return err
	}
	name := c.Name
	if name == "" {
		name = a.String() + "+" + b.String()
	}

	ma := p.mapping(a)
	ma.Combos = append(ma.Combos, button.ComboMap{Partner: b, Name: name, Press: c.Press, Hold: c.Hold, TapDuration: tap})
	mb := p.mapping(b)
	mb.Combos = append(mb.Combos, button.ComboMap{Partner: a, Name: name, Press: c.Press, Hold: c.Hold, TapDuration: tap})
	return nil
}

func (p *Profile) mapping(id button.ID) *button.Mapping {
	m, ok := p.Mappings[id]
	if !ok {
		m = &button.Mapping{ID: id}
		p.Mappings[id] = m
	}
	return m
}

func parseButton(name string) (button.ID, error) {
	id, err := button.ParseID(name)
	if err != nil {
		return button.None, err
	}
	if id == button.None {
		return button.None, fmt.Errorf("NONE cannot be bound")
	}
	return id, nil
}

func parseTap(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("tap: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tap: must be positive, got %s", s)
	}
	return d, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

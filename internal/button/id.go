package button

import (
	"fmt"
	"strings"
)

// ID identifies a logical input on a controller.
type ID uint8

// None is never pressed. It terminates the chord stack so that unchorded
// settings always resolve.
const (
	None ID = iota
	Up
	Down
	Left
	Right
	L
	ZL
	Minus
	Capture
	E
	S
	N
	W
	R
	ZR
	Plus
	Home
	SL
	SR
	L3
	R3
	ZLF
	ZRF
	Touch
	Mic
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	T8

	numIDs
)

var idNames = [...]string{
	None:    "NONE",
	Up:      "UP",
	Down:    "DOWN",
	Left:    "LEFT",
	Right:   "RIGHT",
	L:       "L",
	ZL:      "ZL",
	Minus:   "MINUS",
	Capture: "CAPTURE",
	E:       "E",
	S:       "S",
	N:       "N",
	W:       "W",
	R:       "R",
	ZR:      "ZR",
	Plus:    "PLUS",
	Home:    "HOME",
	SL:      "SL",
	SR:      "SR",
	L3:      "L3",
	R3:      "R3",
	ZLF:     "ZLF",
	ZRF:     "ZRF",
	Touch:   "TOUCH",
	Mic:     "MIC",
	T1:      "T1",
	T2:      "T2",
	T3:      "T3",
	T4:      "T4",
	T5:      "T5",
	T6:      "T6",
	T7:      "T7",
	T8:      "T8",
}

// Every ID needs a name, and Set must be able to hold every ID.
var (
	_ = [1]struct{}{}[len(idNames)-int(numIDs)]
	_ = [1]struct{}{}[int(numIDs)/65]
)

// All returns every ID except None, in declaration order.
func All() []ID {
	ids := make([]ID, 0, numIDs-1)
	for id := None + 1; id < numIDs; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Valid reports whether id is a known input.
func (id ID) Valid() bool {
	return id < numIDs
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", uint8(id))
	}
	return idNames[id]
}

// ParseID returns the ID with the given name. Matching is case-insensitive.
func ParseID(name string) (ID, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for id, n := range idNames {
		if n == upper {
			return ID(id), nil
		}
	}
	return None, fmt.Errorf("unknown button %q", name)
}

// Set is a bitset of IDs, used for one poll sample of digital inputs.
type Set uint64

// Has reports whether id is in the set.
func (s Set) Has(id ID) bool {
	return s&(1<<id) != 0
}

// With returns s with id added.
func (s Set) With(id ID) Set {
	return s | 1<<id
}

// Without returns s with id removed.
func (s Set) Without(id ID) Set {
	return s &^ (1 << id)
}

// SetOf builds a Set from ids.
func SetOf(ids ...ID) Set {
	var s Set
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

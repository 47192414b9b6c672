// Package chord holds the chord context of a controller session: the stack
// of active chord layers and the settings table resolved against it.
package chord

import "github.com/sweeney/padshift/internal/button"

// Stack is the ordered set of active chord layers, most recent first. The
// button.None sentinel is always the last entry.
type Stack struct {
	layers []button.ID
}

// NewStack returns a stack holding only the sentinel.
func NewStack() *Stack {
	return &Stack{layers: []button.ID{button.None}}
}

// Push activates id as the most recent layer. It reports false if id is
// None or already active.
func (s *Stack) Push(id button.ID) bool {
	if id == button.None || s.Contains(id) {
		return false
	}
	s.layers = append(s.layers, button.None)
	copy(s.layers[1:], s.layers)
	s.layers[0] = id
	return true
}

// Remove deactivates id. The sentinel cannot be removed.
func (s *Stack) Remove(id button.ID) bool {
	if id == button.None {
		return false
	}
	for i, l := range s.layers {
		if l == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is on the stack. None is always present.
func (s *Stack) Contains(id button.ID) bool {
	for _, l := range s.layers {
		if l == id {
			return true
		}
	}
	return false
}

// Active reports whether id is an active chord layer. None is never active.
func (s *Stack) Active(id button.ID) bool {
	return id != button.None && s.Contains(id)
}

// Layers returns a copy of the stack, most recent first.
func (s *Stack) Layers() []button.ID {
	out := make([]button.ID, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of entries including the sentinel.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Reset drops every layer except the sentinel.
func (s *Stack) Reset() {
	s.layers = append(s.layers[:0], button.None)
}

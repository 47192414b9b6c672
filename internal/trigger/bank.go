package trigger

import (
	"fmt"

	"github.com/sweeney/padshift/internal/button"
)

// Bank holds the registered triggers of a controller session and checks
// every index it is given.
type Bank struct {
	stages []*Stage
	faults button.FaultLog
}

// NewBank creates an empty bank.
func NewBank(faults button.FaultLog) *Bank {
	return &Bank{faults: faults}
}

// Add registers a stage and returns its index.
func (b *Bank) Add(s *Stage) int {
	b.stages = append(b.stages, s)
	return len(b.stages) - 1
}

// Len returns the number of registered triggers.
func (b *Bank) Len() int {
	return len(b.stages)
}

// Stage returns the stage at index, or nil.
func (b *Bank) Stage(index int) *Stage {
	if index < 0 || index >= len(b.stages) {
		return nil
	}
	return b.stages[index]
}

// Update feeds a sample to the trigger at index. An unknown index is
// logged and ignored.
func (b *Bank) Update(index int, in Input) {
	s := b.Stage(index)
	if s == nil {
		if b.faults != nil {
			b.faults.Fault(button.None, fmt.Sprintf("trigger %d does not exist, dual stage trigger not possible", index))
		}
		return
	}
	s.Update(in)
}

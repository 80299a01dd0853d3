package document

import (
	"errors"
	"fmt"

	"github.com/roach88/liturgia/internal/program"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// DragResult is what a drag gesture reports. A nil Destination means the drag
// was cancelled.
type DragResult struct {
	Source      int
	Destination *int
}

// To builds a DragResult that drops at index to.
func To(from, to int) DragResult {
	return DragResult{Source: from, Destination: &to}
}

// Reorder moves the step at from to position to and renumbers every step.
// The input is not modified; only Order changes on the returned steps.
func Reorder(steps []program.Step, from, to int) ([]program.Step, error) {
	n := len(steps)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("reorder from %d: %w (len %d)", from, ErrIndexOutOfRange, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("reorder to %d: %w (len %d)", to, ErrIndexOutOfRange, n)
	}

	out := make([]program.Step, 0, n)
	moved := steps[from].Clone()
	for i, s := range steps {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, moved)
		}
		out = append(out, s.Clone())
	}
	if len(out) == to {
		out = append(out, moved)
	}
	renumber(out)
	return out, nil
}

// Move applies a drag gesture. A cancelled drag is a no-op. The working list
// is replaced only after the reordered copy is fully renumbered.
func (d *Document) Move(drag DragResult) error {
	if drag.Destination == nil {
		return nil
	}
	steps, err := Reorder(d.steps, drag.Source, *drag.Destination)
	if err != nil {
		return err
	}
	d.steps = steps
	return nil
}

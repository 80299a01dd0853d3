package script

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/liturgia/internal/document"
	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
)

// LastRef refers to the step most recently added in the session.
const LastRef = "$last"

// ErrBadReference is returned for a step reference that resolves to nothing.
var ErrBadReference = errors.New("bad step reference")

// Outcome is the result of one operation.
type Outcome struct {
	Index  int
	Kind   string
	Step   program.StepID
	Notice editor.Notice
	Result *reconcile.Result
	// Skipped is set for commits under DryRun.
	Skipped bool
	Err     error
}

// Hooks adjusts how Apply runs.
type Hooks struct {
	// DryRun skips commit operations.
	DryRun bool

	// ContinueOnCommitError keeps going after a failed commit. Other
	// failures always stop the run.
	ContinueOnCommitError bool

	// OnOutcome, if set, sees each outcome as it happens.
	OnOutcome func(Outcome)
}

// Apply runs ops in order against s. It returns every outcome produced and
// the first error that stopped the run.
func Apply(ctx context.Context, s *editor.Session, ops []Op, hooks Hooks) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(ops))
	for i, op := range ops {
		out := apply(ctx, s, op, hooks)
		out.Index = i
		outcomes = append(outcomes, out)
		if hooks.OnOutcome != nil {
			hooks.OnOutcome(out)
		}
		if out.Err == nil {
			continue
		}
		if out.Kind == KindCommit && hooks.ContinueOnCommitError {
			continue
		}
		return outcomes, fmt.Errorf("operation %d (%s): %w", i, out.Kind, out.Err)
	}
	return outcomes, nil
}

func apply(ctx context.Context, s *editor.Session, op Op, hooks Hooks) Outcome {
	out := Outcome{Kind: op.Kind()}
	switch out.Kind {
	case KindAddStep:
		step := s.AddStep()
		out.Step = step.ID
		if op.AddStep.Type != "" {
			out.Err = s.UpdateField(step.ID, string(document.FieldType), op.AddStep.Type)
		}
		if out.Err == nil && op.AddStep.Title != "" {
			out.Err = s.UpdateField(step.ID, string(document.FieldTitle), op.AddStep.Title)
		}

	case KindUpdate:
		out.Step, out.Err = resolve(s, op.Update.Step)
		if out.Err == nil {
			out.Err = s.UpdateField(out.Step, op.Update.Field, op.Update.Value)
		}

	case KindRemove:
		out.Step, out.Err = resolve(s, op.Remove.Step)
		if out.Err == nil {
			out.Err = s.RemoveStep(out.Step)
		}

	case KindMove:
		out.Err = s.Move(document.DragResult{Source: op.Move.From, Destination: op.Move.To})

	case KindAddSong:
		out.Step, out.Err = resolve(s, op.AddSong.Step)
		if out.Err == nil {
			out.Notice, out.Err = s.AddSong(out.Step, op.AddSong.Song)
		}

	case KindRemoveSong:
		out.Step, out.Err = resolve(s, op.RemoveSong.Step)
		if out.Err == nil {
			out.Err = s.RemoveSong(out.Step, op.RemoveSong.Song)
		}

	case KindCommit:
		if hooks.DryRun {
			out.Skipped = true
			break
		}
		res, err := s.Commit(ctx)
		out.Result = &res
		out.Err = err

	case KindReload:
		out.Err = s.Reload(ctx)

	default:
		out.Err = fmt.Errorf("malformed operation")
	}
	return out
}

// resolve turns a step reference into an id present in the session.
func resolve(s *editor.Session, ref string) (program.StepID, error) {
	switch {
	case ref == LastRef:
		id := s.LastAdded()
		if id == "" {
			return "", fmt.Errorf("%w: %s: no step added yet", ErrBadReference, ref)
		}
		return id, nil
	case strings.HasPrefix(ref, "#"):
		i, err := strconv.Atoi(ref[1:])
		steps := s.Steps()
		if err != nil || i < 0 || i >= len(steps) {
			return "", fmt.Errorf("%w: %s", ErrBadReference, ref)
		}
		return steps[i].ID, nil
	default:
		return program.StepID(ref), nil
	}
}

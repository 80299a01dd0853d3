package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/script"
	"github.com/roach88/liturgia/internal/store"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Script string
	DryRun bool
}

// OutcomeReport is one operation in the JSON form of edit.
type OutcomeReport struct {
	Index   int               `json:"index"`
	Kind    string            `json:"kind"`
	Step    string            `json:"step,omitempty"`
	Notice  string            `json:"notice,omitempty"`
	Result  *reconcile.Result `json:"result,omitempty"`
	Skipped bool              `json:"skipped,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// PlanReport summarizes the commit a dry run would issue.
type PlanReport struct {
	Deletes []string `json:"deletes"`
	Inserts int      `json:"inserts"`
	Updates int      `json:"updates"`
}

// EditReport is the JSON form of edit.
type EditReport struct {
	Liturgy    string          `json:"liturgy"`
	Operations []OutcomeReport `json:"operations"`
	Plan       *PlanReport     `json:"plan,omitempty"`
	Dirty      bool            `json:"dirty"`
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <liturgy-id>",
		Short: "Apply an edit script to a liturgy",
		Long: `Open a liturgy, apply the operations of a YAML edit script in order and
commit where the script says so.

With --dry-run commits are skipped and the pending commit is reported instead.

Exit codes:
  0 - All operations succeeded
  1 - An operation or commit failed
  2 - Command error (bad script, unknown liturgy, etc.)
  3 - Steps were deleted but the rest of the commit failed; reload and check

Examples:
  liturgia edit sunday --script ./reorder.yaml
  liturgia edit sunday --script ./reorder.yaml --dry-run --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to YAML edit script (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "skip commits and report the pending plan")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func runEdit(opts *EditOptions, liturgyID string, cmd *cobra.Command) error {
	sc, err := script.Load(opts.Script)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid edit script", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := cmd.Context()
	sess, err := editor.Open(ctx, st, liturgyID, editor.WithLogger(opts.Logger()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "liturgy not found", err)
		}
		return WrapExitError(ExitFailure, "failed to open liturgy", err)
	}

	f := opts.Formatter(cmd)
	f.VerboseLog("applying %d operations from %s to %s", len(sc.Operations), opts.Script, liturgyID)
	report := EditReport{Liturgy: liturgyID, Operations: []OutcomeReport{}}
	hooks := script.Hooks{
		DryRun: opts.DryRun,
		OnOutcome: func(out script.Outcome) {
			report.Operations = append(report.Operations, outcomeReport(out))
			if f.Format != "json" {
				printOutcome(f.Writer, out)
			}
		},
	}
	_, applyErr := script.Apply(ctx, sess, sc.Operations, hooks)

	report.Dirty = sess.Dirty()
	if opts.DryRun && applyErr == nil {
		plan, err := sess.Plan()
		if err != nil {
			applyErr = err
		} else {
			report.Plan = planReport(plan)
		}
	}

	if f.Format == "json" {
		if err := f.Success(report); err != nil {
			return err
		}
	} else {
		if report.Plan != nil {
			fmt.Fprintln(f.Writer, warnMsg("dry run: would delete %d, insert %d, update %d",
				len(report.Plan.Deletes), report.Plan.Inserts, report.Plan.Updates))
		} else if report.Dirty && applyErr == nil {
			fmt.Fprintln(f.Writer, warnMsg("script ended with uncommitted changes; they were discarded"))
		}
	}

	if applyErr != nil {
		return commitExitError("edit failed", applyErr)
	}
	return nil
}

func outcomeReport(out script.Outcome) OutcomeReport {
	r := OutcomeReport{
		Index:   out.Index,
		Kind:    out.Kind,
		Step:    string(out.Step),
		Notice:  string(out.Notice),
		Result:  out.Result,
		Skipped: out.Skipped,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}

func printOutcome(w io.Writer, out script.Outcome) {
	label := fmt.Sprintf("[%d] %s", out.Index, out.Kind)
	if out.Step != "" {
		label += " " + mutedStyle.Render(string(out.Step))
	}

	switch {
	case out.Err != nil:
		fmt.Fprintln(w, errorMsg("%s: %v", label, out.Err))
	case out.Skipped:
		fmt.Fprintln(w, warnMsg("%s skipped (dry run)", label))
	case out.Result != nil && out.Result.NoOp:
		fmt.Fprintln(w, successMsg("%s: nothing to commit", label))
	case out.Result != nil:
		res := out.Result
		fmt.Fprintln(w, successMsg("%s: %d deleted, %d inserted, %d updated",
			label, res.Deleted, res.Inserted, res.Updated))
		if res.NotifyErr != nil {
			fmt.Fprintln(w, warnMsg("notification failed: %v", res.NotifyErr))
		}
	case out.Notice != "":
		fmt.Fprintln(w, successMsg("%s: %s", label, out.Notice))
	default:
		fmt.Fprintln(w, successMsg("%s", label))
	}
}

func planReport(p reconcile.Plan) *PlanReport {
	r := &PlanReport{Deletes: []string{}, Inserts: p.Inserts(), Updates: p.Updates()}
	for _, id := range p.Deletes {
		r.Deletes = append(r.Deletes, string(id))
	}
	return r
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/store"
)

// ShowReport is the JSON form of show.
type ShowReport struct {
	Liturgy program.Liturgy  `json:"liturgy"`
	Steps   []program.Row    `json:"steps"`
	People  []program.Person `json:"people,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <liturgy-id>",
		Short: "Print a liturgy's program",
		Long: `Print the running order of a liturgy with its songs and leaders.

Example:
  liturgia show sunday
  liturgia show sunday --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
}

func runShow(opts *RootOptions, liturgyID string, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	var report ShowReport
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		report.Liturgy, err = st.GetLiturgy(ctx, liturgyID)
		return err
	})
	g.Go(func() error {
		var err error
		report.Steps, err = st.ListSteps(ctx, liturgyID)
		return err
	})
	g.Go(func() error {
		var err error
		report.People, err = st.ListProfiles(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "liturgy not found", err)
		}
		return WrapExitError(ExitFailure, "failed to load liturgy", err)
	}

	f := opts.Formatter(cmd)
	if f.Format == "json" {
		return f.Success(report)
	}

	steps, err := program.StepsFromRows(report.Steps)
	if err != nil {
		return WrapExitError(ExitFailure, "stored steps are invalid", err)
	}
	_, err = f.Writer.Write([]byte(renderProgram(report.Liturgy, steps, report.People)))
	return err
}

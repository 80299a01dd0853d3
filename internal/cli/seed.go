package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/liturgia/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.cue>",
		Short: "Load songs, profiles and liturgies from a CUE file",
		Long: `Validate a CUE seed file and write its songs, profiles and liturgies.
A liturgy that already exists is replaced together with its steps.

Example:
  liturgia seed --db ./church.db ./seed/october.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, err := seed.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid seed file", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	sum, err := seed.Apply(cmd.Context(), st, s)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to apply seed", err)
	}
	opts.Logger().Info("seed applied", "file", path, "liturgies", sum.Liturgies, "steps", sum.Steps)

	f := opts.Formatter(cmd)
	if f.Format == "json" {
		return f.Success(sum)
	}
	return f.Success(successMsg("Seeded %d songs, %d profiles, %d liturgies, %d steps",
		sum.Songs, sum.Profiles, sum.Liturgies, sum.Steps))
}

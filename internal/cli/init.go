package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database",
		Long: `Create the SQLite database named by --db, or bring an existing one up to
the current schema. Safe to run more than once.

Example:
  liturgia init --db ./church.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			rootOpts.closeStore(st)

			f := rootOpts.Formatter(cmd)
			if f.Format == "json" {
				return f.Success(map[string]string{"database": rootOpts.Database})
			}
			return f.Success(successMsg("Database ready at %s", rootOpts.Database))
		},
	}
}

// requireText rejects a blank flag value.
func requireText(name, value string) error {
	if value == "" {
		return NewExitError(ExitCommandError, fmt.Sprintf("--%s is required", name))
	}
	return nil
}

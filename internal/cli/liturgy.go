package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/store"
)

// NewLiturgyCommand creates the liturgy command group.
func NewLiturgyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liturgy",
		Short: "List, create and delete liturgies",
	}
	cmd.AddCommand(newLiturgyListCommand(rootOpts))
	cmd.AddCommand(newLiturgyCreateCommand(rootOpts))
	cmd.AddCommand(newLiturgyDeleteCommand(rootOpts))
	return cmd
}

func newLiturgyListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List liturgies, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			list, err := st.ListLiturgies(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list liturgies", err)
			}

			f := opts.Formatter(cmd)
			if f.Format == "json" {
				return f.Success(list)
			}
			if len(list) == 0 {
				return f.Success(mutedStyle.Render("No liturgies."))
			}
			rows := make([][]string, len(list))
			for i, l := range list {
				rows[i] = []string{l.ID, l.Date, l.Title, fmt.Sprint(l.Steps)}
			}
			return f.Success(renderTable([]string{"ID", "Date", "Title", "Steps"}, rows))
		},
	}
}

// CreateOptions holds flags for liturgy create.
type CreateOptions struct {
	*RootOptions
	ID    string
	Title string
	Date  string
}

func newLiturgyCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty liturgy",
		Long: `Create an empty liturgy. The id is generated unless --id is given.

Example:
  liturgia liturgy create --title "Sunday service" --date 2026-10-18`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireText("title", opts.Title); err != nil {
				return err
			}
			if err := requireText("date", opts.Date); err != nil {
				return err
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			l, err := st.CreateLiturgy(cmd.Context(), program.Liturgy{ID: opts.ID, Title: opts.Title, Date: opts.Date})
			if err != nil {
				return WrapExitError(ExitFailure, "failed to create liturgy", err)
			}

			f := opts.Formatter(cmd)
			if f.Format == "json" {
				return f.Success(l)
			}
			return f.Success(successMsg("Created liturgy %s (%s, %s)", l.ID, l.Title, l.Date))
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "liturgy id (generated when empty)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "liturgy title (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "service date, YYYY-MM-DD (required)")
	return cmd
}

func newLiturgyDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <liturgy-id>",
		Short:         "Delete a liturgy and its steps",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			id := args[0]
			if err := st.DeleteLiturgy(cmd.Context(), id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return WrapExitError(ExitCommandError, "liturgy not found", err)
				}
				return WrapExitError(ExitFailure, "failed to delete liturgy", err)
			}

			f := opts.Formatter(cmd)
			if f.Format == "json" {
				return f.Success(map[string]string{"deleted": id})
			}
			return f.Success(successMsg("Deleted liturgy %s", id))
		},
	}
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/liturgia/internal/catalog"
	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/store"
)

// NewSongsCommand creates the songs command group.
func NewSongsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Browse the song catalog and send songs to a liturgy",
	}
	cmd.AddCommand(newSongsListCommand(rootOpts))
	cmd.AddCommand(newSongsSearchCommand(rootOpts))
	cmd.AddCommand(newSongsSendCommand(rootOpts))
	return cmd
}

func newSongsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List songs by title",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSongs(opts, cmd, func(c *catalog.Catalog) []program.SongRef { return c.List() })
		},
	}
}

func newSongsSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find songs by title or artist",
		Long: `Find songs whose title or artist contains the term. Matching ignores case
and accents, so "gloria" finds "Glória".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSongs(opts, cmd, func(c *catalog.Catalog) []program.SongRef { return c.Search(args[0]) })
		},
	}
}

func runSongs(opts *RootOptions, cmd *cobra.Command, pick func(*catalog.Catalog) []program.SongRef) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	c, err := catalog.Load(cmd.Context(), st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load songs", err)
	}
	songs := pick(c)

	f := opts.Formatter(cmd)
	if f.Format == "json" {
		return f.Success(songs)
	}
	return f.Success(renderSongs(songs))
}

// SendReport is the JSON form of songs send.
type SendReport struct {
	Liturgy string           `json:"liturgy"`
	Step    program.Row      `json:"step"`
	Result  reconcile.Result `json:"result"`
}

func newSongsSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <song-id> <liturgy-id>",
		Short: "Append a song to the end of a liturgy",
		Long: `Append a single-song step for a catalog song to the end of a liturgy and
commit it. The step is described by the artist.

Example:
  liturgia songs send s-hosana sunday`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, liturgyID := args[0], args[1]

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer opts.closeStore(st)

			step, res, err := editor.SendSongToLiturgy(cmd.Context(), st, liturgyID, songID,
				editor.WithLogger(opts.Logger()))
			switch {
			case errors.Is(err, store.ErrNotFound):
				return WrapExitError(ExitCommandError, "liturgy not found", err)
			case errors.Is(err, editor.ErrUnknownSong):
				return WrapExitError(ExitCommandError, "song not found", err)
			case err != nil:
				return commitExitError("failed to send song", err)
			}

			f := opts.Formatter(cmd)
			if f.Format == "json" {
				row, err := step.Row()
				if err != nil {
					return err
				}
				return f.Success(SendReport{Liturgy: liturgyID, Step: row, Result: res})
			}
			return f.Success(successMsg("Added %q to %s at position %d", step.Title, liturgyID, step.Order+1))
		},
	}
}

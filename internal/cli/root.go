package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/roach88/liturgia/internal/store"
)

// DefaultDatabase is used when --db is not given.
const DefaultDatabase = "liturgia.db"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Trace    bool

	logger   *slog.Logger
	provider *sdktrace.TracerProvider
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the liturgia CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with args and returns the process exit code. A failure
// is reported on stderr, as a JSON error response under --format json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	if !isValidFormat(f.Format) {
		f.Format = "text"
	}
	if ferr := f.Fail(err); ferr != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liturgia",
		Short: "Liturgia - church service program editor",
		Long: `Plan the running order of a church service: steps, readings, song blocks
and who leads each part. Edits are batched locally and written in one commit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.setupLogging(cmd.ErrOrStderr())
			if opts.Trace {
				opts.setupTracing()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.shutdown(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to SQLite database")
	cmd.PersistentFlags().BoolVar(&opts.Trace, "trace", false, "log commit phase spans")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewLiturgyCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewSongsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) setupLogging(w io.Writer) {
	level := slog.LevelWarn
	switch {
	case o.Verbose:
		level = slog.LevelDebug
	case o.Trace:
		level = slog.LevelInfo
	}
	o.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.logger)
}

// setupTracing installs an SDK tracer provider whose spans are written to
// the log as they end.
func (o *RootOptions) setupTracing() {
	o.provider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&spanLogger{logger: o.Logger()}),
	)
	otel.SetTracerProvider(o.provider)
}

func (o *RootOptions) shutdown(ctx context.Context) error {
	if o.provider == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := o.provider.Shutdown(ctx)
	o.provider = nil
	return err
}

// Logger returns the logger set up by the root command. Commands run on their
// own, as in tests, get a discard logger.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

// Formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) Formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the database named by --db.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = DefaultDatabase
	}
	o.Logger().Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger().Error("error closing database", "error", err)
	}
}

// spanLogger is a span exporter that logs finished spans.
type spanLogger struct {
	logger *slog.Logger
}

func (e *spanLogger) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []any{
			"span", s.Name(),
			"duration", s.EndTime().Sub(s.StartTime()),
			"status", s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.Emit())
		}
		e.logger.InfoContext(ctx, "span", attrs...)
	}
	return nil
}

func (e *spanLogger) Shutdown(context.Context) error { return nil }

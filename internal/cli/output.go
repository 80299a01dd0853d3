package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess       = 0
	ExitFailure       = 1 // an operation, commit or scenario failed
	ExitCommandError  = 2 // bad flags, unreadable files, unknown liturgy or song
	ExitPartialCommit = 3 // steps were deleted but the upsert did not land
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without an underlying error.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// commitExitError maps a failed commit to its exit code. A partial commit is
// the one failure that leaves the stored program inconsistent.
func commitExitError(message string, err error) *ExitError {
	if reconcile.IsSevere(err) {
		return WrapExitError(ExitPartialCommit, "partial commit, reload the liturgy and check it", err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// errorCode names err for JSON error responses.
func errorCode(err error) string {
	switch {
	case reconcile.IsSevere(err):
		return "E_PARTIAL_COMMIT"
	case errors.Is(err, store.ErrNotFound):
		return "E_NOT_FOUND"
	case errors.Is(err, editor.ErrUnknownSong):
		return "E_UNKNOWN_SONG"
	case errors.Is(err, reconcile.ErrCommitInFlight):
		return "E_COMMIT_IN_FLIGHT"
	}
	if code := reconcile.CodeOf(err); code != "" {
		return "E_" + string(code)
	}
	if GetExitCode(err) == ExitCommandError {
		return "E_USAGE"
	}
	return "E_FAILED"
}

// CommitErrorDetails is the details payload of a failed commit.
type CommitErrorDetails struct {
	LiturgyID string           `json:"liturgy_id,omitempty"`
	StepIDs   []program.StepID `json:"step_ids,omitempty"`
	Deleted   []program.StepID `json:"deleted,omitempty"`
}

// errorDetails returns the commit details in err's chain, or nil.
func errorDetails(err error) any {
	var ce *reconcile.CommitError
	if !errors.As(err, &ce) {
		return nil
	}
	return CommitErrorDetails{LiturgyID: ce.LiturgyID, StepIDs: ce.StepIDs, Deleted: ce.Deleted}
}

// OutputFormatter writes command results as text or JSON. Results go to
// Writer; errors and diagnostics go to ErrWriter so a JSON result stream stays
// one document per command.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a result. In text mode data is printed as is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error response. Text mode shows details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	w := f.errWriter()
	if f.Format == "json" {
		return json.NewEncoder(w).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintln(w, errorMsg("%s [%s]", message, code))
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "  details: %+v\n", details)
	}
	return nil
}

// Fail reports err through Error with its code and commit details.
func (f *OutputFormatter) Fail(err error) error {
	return f.Error(errorCode(err), err.Error(), errorDetails(err))
}

// VerboseLog writes a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/liturgia/internal/program"
)

// ErrCommitInFlight is returned when Commit is called while another commit on
// the same Committer has not finished.
var ErrCommitInFlight = errors.New("commit already in progress")

// Code categorizes commit failures.
type Code string

const (
	// CodeValidation: a step is not save-eligible. Nothing was sent.
	CodeValidation Code = "VALIDATION"

	// CodeDeleteFailed: the bulk delete failed. The upsert never ran.
	CodeDeleteFailed Code = "DELETE_FAILED"

	// CodeUpsertFailed: the bulk upsert failed. Severe when a delete
	// already went through.
	CodeUpsertFailed Code = "UPSERT_FAILED"

	// CodeReloadFailed: writes are durable but the document could not be
	// re-baselined.
	CodeReloadFailed Code = "RELOAD_FAILED"

	// CodeStale: an earlier commit landed without a reload. Nothing was
	// sent; the document must be loaded again first.
	CodeStale Code = "STALE_DOCUMENT"
)

// CommitError describes a failed commit.
type CommitError struct {
	Code      Code
	Message   string
	LiturgyID string

	// StepIDs lists the offending steps of a validation failure.
	StepIDs []program.StepID

	// Deleted lists ids already removed remotely when the upsert failed.
	Deleted []program.StepID

	Err error
}

func (e *CommitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.LiturgyID != "" {
		fmt.Fprintf(&b, " (liturgy=%s)", e.LiturgyID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CommitError) Unwrap() error { return e.Err }

// Severe reports whether remote state is known to be inconsistent with the
// document: rows were deleted but the upsert did not land.
func (e *CommitError) Severe() bool {
	return e.Code == CodeUpsertFailed && len(e.Deleted) > 0
}

// IsValidation reports whether err is a validation CommitError.
func IsValidation(err error) bool {
	return CodeOf(err) == CodeValidation
}

// IsStale reports whether err is a stale-document CommitError.
func IsStale(err error) bool {
	return CodeOf(err) == CodeStale
}

// IsSevere reports whether err is a severe CommitError.
func IsSevere(err error) bool {
	var ce *CommitError
	if errors.As(err, &ce) {
		return ce.Severe()
	}
	return false
}

// CodeOf returns the code of a CommitError in err's chain, or "".
func CodeOf(err error) Code {
	var ce *CommitError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func newValidationError(liturgyID string, ids []program.StepID) *CommitError {
	noun := "step needs"
	if len(ids) != 1 {
		noun = "steps need"
	}
	return &CommitError{
		Code:      CodeValidation,
		Message:   fmt.Sprintf("%d %s a title", len(ids), noun),
		LiturgyID: liturgyID,
		StepIDs:   ids,
		Err:       program.ErrTitleRequired,
	}
}

func newStaleError(liturgyID string) *CommitError {
	return &CommitError{
		Code:      CodeStale,
		Message:   "the last commit was saved but not reloaded; reload the liturgy before committing again",
		LiturgyID: liturgyID,
	}
}

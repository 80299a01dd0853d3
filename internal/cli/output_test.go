package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"deleted": "sunday"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"deleted": "sunday"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: diag,
	}

	err := formatter.Error("E_NOT_FOUND", "liturgy not found", map[string]string{"id": "sunday"})
	require.NoError(t, err)
	assert.Empty(t, out.String(), "errors go to ErrWriter")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(diag.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "liturgy not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_ErrorFallsBackToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E_FAILED", "boom", nil))
	assert.Contains(t, buf.String(), `"code":"E_FAILED"`)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("Database ready"))
	assert.Equal(t, "Database ready\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	details := map[string]string{"id": "sunday"}

	t.Run("quiet", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, formatter.Error("E_NOT_FOUND", "liturgy not found", details))
		assert.Contains(t, buf.String(), "liturgy not found [E_NOT_FOUND]")
		assert.NotContains(t, buf.String(), "details:")
	})

	t.Run("verbose", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}
		require.NoError(t, formatter.Error("E_NOT_FOUND", "liturgy not found", details))
		assert.Contains(t, buf.String(), "details: map[id:sunday]")
	})
}

func TestOutputFormatter_FailCarriesCommitDetails(t *testing.T) {
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: &bytes.Buffer{}, ErrWriter: diag}

	err := fmt.Errorf("edit: %w", &reconcile.CommitError{
		Code:      reconcile.CodeUpsertFailed,
		Message:   "upsert failed",
		LiturgyID: "sunday",
		Deleted:   []program.StepID{"b"},
		Err:       errors.New("unavailable"),
	})
	require.NoError(t, formatter.Fail(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string             `json:"code"`
			Message string             `json:"message"`
			Details CommitErrorDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(diag.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_PARTIAL_COMMIT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unavailable")
	assert.Equal(t, "sunday", resp.Error.Details.LiturgyID)
	assert.Equal(t, []program.StepID{"b"}, resp.Error.Details.Deleted)
}

func TestErrorCode(t *testing.T) {
	commitErr := func(code reconcile.Code, deleted ...program.StepID) error {
		return &reconcile.CommitError{Code: code, Message: "x", Deleted: deleted}
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"partial commit", commitErr(reconcile.CodeUpsertFailed, "b"), "E_PARTIAL_COMMIT"},
		{"upsert without deletes", commitErr(reconcile.CodeUpsertFailed), "E_UPSERT_FAILED"},
		{"stale document", fmt.Errorf("edit: %w", commitErr(reconcile.CodeStale)), "E_STALE_DOCUMENT"},
		{"not found", WrapExitError(ExitCommandError, "liturgy not found", store.ErrNotFound), "E_NOT_FOUND"},
		{"unknown song", fmt.Errorf("send: %w", editor.ErrUnknownSong), "E_UNKNOWN_SONG"},
		{"commit in flight", reconcile.ErrCommitInFlight, "E_COMMIT_IN_FLIGHT"},
		{"usage", NewExitError(ExitCommandError, "bad flag"), "E_USAGE"},
		{"plain", errors.New("boom"), "E_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestCommitExitError(t *testing.T) {
	severe := &reconcile.CommitError{Code: reconcile.CodeUpsertFailed, Message: "x", Deleted: []program.StepID{"b"}}
	assert.Equal(t, ExitPartialCommit, GetExitCode(commitExitError("edit failed", severe)))

	stale := &reconcile.CommitError{Code: reconcile.CodeStale, Message: "x"}
	err := commitExitError("edit failed", stale)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, reconcile.IsStale(err))
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Applying %s", "reorder.yaml")

			assert.Empty(t, out.String(), "diagnostics never go to the JSON stream")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Applying reorder.yaml")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped partial commit", fmt.Errorf("edit: %w", WrapExitError(ExitPartialCommit, "partial", errors.New("x"))), ExitPartialCommit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	inner := errors.New("no such table")
	err := WrapExitError(ExitFailure, "failed to list liturgies", inner)
	assert.Equal(t, "failed to list liturgies: no such table", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}

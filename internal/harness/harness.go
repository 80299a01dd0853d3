package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/liturgia/internal/editor"
	"github.com/roach88/liturgia/internal/reconcile"
	"github.com/roach88/liturgia/internal/script"
	"github.com/roach88/liturgia/internal/seed"
	"github.com/roach88/liturgia/internal/store"
	"github.com/roach88/liturgia/internal/testutil"
)

// Harness holds the fixtures of one scenario run.
type Harness struct {
	store    *store.Store
	recorder *testutil.RecordingGateway
	session  *editor.Session
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and seed it
// 2. Arm failure injections on the recording gateway
// 3. Open an editor session through the recorder
// 4. Apply operations; failed commits do not stop the run
// 5. Collect trace and state, then evaluate assertions
//
// An error is returned only when the scenario could not be set up or the
// session could not be opened.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.SequentialIDs("step")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := seed.Apply(ctx, st, scenario.seed()); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	rec := testutil.NewRecordingGateway(st)
	for _, f := range scenario.Fail {
		rec.FailTimes(f.Call, f.Skip, f.Times, errors.New(f.Error))
	}

	logger := slog.New(slog.DiscardHandler)
	sess, err := editor.Open(ctx, st, scenario.Liturgy.ID,
		editor.WithGateway(rec),
		editor.WithNotifier(rec.WrapNotifier(editor.ProfileNotifier(st, scenario.Liturgy.Title))),
		editor.WithIDGenerator(testutil.NewFixedIDGenerator()),
		editor.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	h := &Harness{store: st, recorder: rec, session: sess, logger: logger}
	return h.execute(ctx, scenario)
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	outcomes, err := script.Apply(ctx, h.session, scenario.Operations, script.Hooks{
		ContinueOnCommitError: true,
	})
	if err != nil {
		result.AddError(err.Error())
	}
	for _, out := range outcomes {
		if out.Kind == script.KindCommit && out.Err != nil {
			result.State.CommitError = commitCode(out.Err)
			h.logger.Debug("commit failed", "op", out.Index, "error", out.Err)
		}
	}

	for _, c := range h.recorder.Calls() {
		result.Trace = append(result.Trace, traceEvent(c))
	}

	result.State.Dirty = h.session.Dirty()
	result.State.Stale = h.session.Stale()
	result.State.PendingDeletes = []string{}
	for _, id := range h.session.PendingDeletes() {
		result.State.PendingDeletes = append(result.State.PendingDeletes, string(id))
	}
	rows, err := h.store.ListSteps(ctx, scenario.Liturgy.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote steps: %w", err)
	}
	result.State.RemoteTitles = []string{}
	for _, r := range rows {
		result.State.RemoteTitles = append(result.State.RemoteTitles, r.Title)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// commitCode names a commit failure by its code, falling back to the error
// text for failures that carry none.
func commitCode(err error) string {
	if code := reconcile.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/liturgia/internal/program"
)

// Recorded call names.
const (
	CallListSteps       = "list_steps"
	CallBulkDelete      = "bulk_delete"
	CallBulkUpsert      = "bulk_upsert"
	CallDocumentUpdated = "document_updated"
)

// StepGateway is the step persistence contract. It mirrors reconcile.Gateway
// so this package does not depend on the reconciler.
type StepGateway interface {
	ListSteps(ctx context.Context, liturgyID string) ([]program.Row, error)
	BulkDelete(ctx context.Context, ids []program.StepID) error
	BulkUpsert(ctx context.Context, rows []program.Row) error
}

// Notifier mirrors reconcile.Notifier.
type Notifier interface {
	DocumentUpdated(ctx context.Context, liturgyID string) error
}

// Call is one recorded gateway or notifier invocation.
type Call struct {
	Seq       int64
	Method    string
	LiturgyID string
	IDs       []program.StepID
	Rows      []program.Row
	Err       error
}

type failure struct {
	skip  int
	times int // 0: unlimited
	err   error
}

// RecordingGateway wraps a StepGateway, records every call in order, and
// fails calls on demand. A failed call is recorded with its error and never
// reaches the wrapped gateway.
type RecordingGateway struct {
	inner StepGateway
	clock *DeterministicClock

	mu       sync.Mutex
	calls    []Call
	failures map[string]*failure
}

// NewRecordingGateway wraps inner. Sequence numbers start at 1.
func NewRecordingGateway(inner StepGateway) *RecordingGateway {
	return &RecordingGateway{
		inner:    inner,
		clock:    NewDeterministicClock(),
		failures: make(map[string]*failure),
	}
}

// Fail makes every call to method fail with err once skip calls to it have
// gone through.
func (g *RecordingGateway) Fail(method string, skip int, err error) {
	g.FailTimes(method, skip, 0, err)
}

// FailTimes is Fail limited to times failing calls, after which method
// succeeds again. Zero times means no limit.
func (g *RecordingGateway) FailTimes(method string, skip, times int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[method] = &failure{skip: skip, times: times, err: err}
}

// ClearFailures removes all injected failures.
func (g *RecordingGateway) ClearFailures() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.failures)
}

// Calls returns a copy of the recorded calls.
func (g *RecordingGateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.calls)
}

// Methods returns the recorded method names in call order.
func (g *RecordingGateway) Methods() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.Method
	}
	return out
}

// CountOf returns how many times method was called.
func (g *RecordingGateway) CountOf(method string) int {
	n := 0
	for _, m := range g.Methods() {
		if m == method {
			n++
		}
	}
	return n
}

// Reset drops recorded calls and restarts sequence numbers.
func (g *RecordingGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
	g.clock.Reset()
}

// record appends call and returns its sequence number and the injected error
// for it, if any.
func (g *RecordingGateway) record(call Call) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call.Seq = g.clock.Next()
	if f, ok := g.failures[call.Method]; ok {
		switch {
		case f.skip > 0:
			f.skip--
		default:
			call.Err = f.err
			if f.times > 0 {
				f.times--
				if f.times == 0 {
					delete(g.failures, call.Method)
				}
			}
		}
	}
	g.calls = append(g.calls, call)
	return call.Seq, call.Err
}

func (g *RecordingGateway) setErr(seq int64, err error) {
	if err == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.calls {
		if g.calls[i].Seq == seq {
			g.calls[i].Err = err
			return
		}
	}
}

// ListSteps implements StepGateway.
func (g *RecordingGateway) ListSteps(ctx context.Context, liturgyID string) ([]program.Row, error) {
	seq, err := g.record(Call{Method: CallListSteps, LiturgyID: liturgyID})
	if err != nil {
		return nil, err
	}
	rows, err := g.inner.ListSteps(ctx, liturgyID)
	g.setErr(seq, err)
	return rows, err
}

// BulkDelete implements StepGateway.
func (g *RecordingGateway) BulkDelete(ctx context.Context, ids []program.StepID) error {
	seq, err := g.record(Call{Method: CallBulkDelete, IDs: slices.Clone(ids)})
	if err != nil {
		return err
	}
	err = g.inner.BulkDelete(ctx, ids)
	g.setErr(seq, err)
	return err
}

// BulkUpsert implements StepGateway.
func (g *RecordingGateway) BulkUpsert(ctx context.Context, rows []program.Row) error {
	seq, err := g.record(Call{Method: CallBulkUpsert, Rows: slices.Clone(rows)})
	if err != nil {
		return err
	}
	err = g.inner.BulkUpsert(ctx, rows)
	g.setErr(seq, err)
	return err
}

// WrapNotifier returns a Notifier that records document_updated calls on g
// before delegating to inner. inner may be nil.
func (g *RecordingGateway) WrapNotifier(inner Notifier) Notifier {
	return recordingNotifier{g: g, inner: inner}
}

type recordingNotifier struct {
	g     *RecordingGateway
	inner Notifier
}

func (n recordingNotifier) DocumentUpdated(ctx context.Context, liturgyID string) error {
	seq, err := n.g.record(Call{Method: CallDocumentUpdated, LiturgyID: liturgyID})
	if err != nil {
		return err
	}
	if n.inner == nil {
		return nil
	}
	err = n.inner.DocumentUpdated(ctx, liturgyID)
	n.g.setErr(seq, err)
	return err
}

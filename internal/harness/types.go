package harness

import (
	"github.com/roach88/liturgia/internal/ir"
	"github.com/roach88/liturgia/internal/program"
	"github.com/roach88/liturgia/internal/testutil"
)

// TraceEvent is one recorded gateway or notifier call.
type TraceEvent struct {
	Seq       int64      `json:"seq"`
	Call      string     `json:"call"`
	LiturgyID string     `json:"liturgy_id,omitempty"`
	IDs       []string   `json:"ids,omitempty"`
	Rows      []TraceRow `json:"rows,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// TraceRow is the part of an upserted row the trace keeps.
type TraceRow struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Type  string `json:"type"`
	Order int    `json:"order"`
}

// State is what the scenario left behind.
type State struct {
	Dirty          bool     `json:"dirty"`
	Stale          bool     `json:"stale"`
	PendingDeletes []string `json:"pending_deletes"`
	RemoteTitles   []string `json:"remote_titles"`

	// CommitError is the code of the last failed commit.
	CommitError string `json:"commit_error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when no operation failed unexpectedly and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	State State `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Methods returns the call names in trace order.
func (r *Result) Methods() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.Call
	}
	return out
}

func traceEvent(c testutil.Call) TraceEvent {
	e := TraceEvent{Seq: c.Seq, Call: c.Method, LiturgyID: c.LiturgyID}
	for _, id := range c.IDs {
		e.IDs = append(e.IDs, string(id))
	}
	for _, r := range c.Rows {
		e.Rows = append(e.Rows, traceRow(r))
	}
	if c.Err != nil {
		e.Error = c.Err.Error()
	}
	return e
}

func traceRow(r program.Row) TraceRow {
	return TraceRow{ID: r.ID, Title: r.Title, Type: string(r.Type), Order: r.Order}
}

// canonical converts the event for ir.MarshalCanonical.
func (e TraceEvent) canonical() ir.IRObject {
	obj := ir.IRObject{
		"seq":  ir.IRInt(e.Seq),
		"call": ir.IRString(e.Call),
	}
	if e.LiturgyID != "" {
		obj["liturgy_id"] = ir.IRString(e.LiturgyID)
	}
	if len(e.IDs) > 0 {
		obj["ids"] = ir.Strings(e.IDs...)
	}
	if len(e.Rows) > 0 {
		rows := make(ir.IRArray, len(e.Rows))
		for i, r := range e.Rows {
			row := ir.IRObject{
				"title": ir.IRString(r.Title),
				"type":  ir.IRString(r.Type),
				"order": ir.IRInt(r.Order),
			}
			if r.ID != "" {
				row["id"] = ir.IRString(r.ID)
			}
			rows[i] = row
		}
		obj["rows"] = rows
	}
	if e.Error != "" {
		obj["error"] = ir.IRString(e.Error)
	}
	return obj
}
